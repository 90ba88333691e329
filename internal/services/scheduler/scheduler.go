// Package services периодически ищет лицензии, срок которых подходит к концу,
// и публикует уведомления для отправки писем.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
	"github.com/17marcomoreira-hue/sportswissapp/internal/rabbitmq"
)

// LicenseRepository ищет истекающие лицензии.
type LicenseRepository interface {
	FindLicensesExpiringBetween(ctx context.Context, from, to time.Time) ([]models.ExpiringLicense, error)
}

// Publisher публикует уведомления.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService рассылает предупреждения об окончании лицензии.
//
// За один проход выбираются лицензии, у которых в ближайший interval остаток
// становится меньше window. Так каждая лицензия попадает ровно в один проход.
type SchedulerService struct {
	repo      LicenseRepository
	publisher Publisher
	log       *slog.Logger
	interval  time.Duration
	window    time.Duration
	now       func() time.Time
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo LicenseRepository, publisher Publisher, log *slog.Logger,
	interval, window time.Duration) *SchedulerService {
	if interval <= 0 {
		interval = time.Hour
	}
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &SchedulerService{
		repo:      repo,
		publisher: publisher,
		log:       log,
		interval:  interval,
		window:    window,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени.
func (s *SchedulerService) WithClock(now func() time.Time) *SchedulerService {
	s.now = now
	return s
}

// Run выполняет проход сразу и затем каждые interval, пока не отменён ctx.
func (s *SchedulerService) Run(ctx context.Context) {
	s.runOnceLogged(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("license expiry scheduler stopped")
			return
		case <-ticker.C:
			s.runOnceLogged(ctx)
		}
	}
}

func (s *SchedulerService) runOnceLogged(ctx context.Context) {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("failed to find expiring licenses", sl.Err(err))
	}
}

// RunOnce выполняет один проход и возвращает число опубликованных уведомлений.
// Ошибка публикации отдельного уведомления только логируется.
func (s *SchedulerService) RunOnce(ctx context.Context) (int, error) {
	const op = "services.scheduler.RunOnce"

	from := s.now().UTC().Add(s.window)
	to := from.Add(s.interval)
	s.log.Info("starting search for expiring licenses", slog.Time("from", from), slog.Time("to", to))

	licenses, err := s.repo.FindLicensesExpiringBetween(ctx, from, to)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(licenses) == 0 {
		s.log.Info("no expiring licenses found")
		return 0, nil
	}
	s.log.Info("found expiring licenses", "count", len(licenses))

	published := 0
	for _, l := range licenses {
		exp := l.ExpiresAt
		msg := models.Notification{
			Kind:      models.NotificationLicenseExpiring,
			Email:     l.Email,
			Key:       l.Key,
			ExpiresAt: &exp,
		}
		if err = s.publisher.Publish(ctx, rabbitmq.RoutingLicense, msg); err != nil {
			s.log.Error("failed to publish message", slog.String("uid", l.UID), sl.Err(err))
			continue
		}
		published++
	}
	return published, nil
}
