// Package services превращает уведомления из очереди в письма.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/metrics"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// Mailer отправляет письмо.
type Mailer interface {
	Send(to, subject, body string) error
}

// NotifierService отправляет письма по уведомлениям.
type NotifierService struct {
	mailer  Mailer
	metrics *metrics.Metrics
	log     *slog.Logger
}

// NewNotifierService создает новый экземпляр NotifierService. m может быть nil.
func NewNotifierService(mailer Mailer, m *metrics.Metrics, log *slog.Logger) *NotifierService {
	return &NotifierService{
		mailer:  mailer,
		metrics: m,
		log:     log,
	}
}

// Handle разбирает тело сообщения из очереди и отправляет письмо.
// Возвращённая ошибка возвращает сообщение в очередь.
func (s *NotifierService) Handle(body []byte) error {
	const op = "services.notifier.Handle"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.Send(n)
}

// Send формирует и отправляет письмо для уведомления n.
func (s *NotifierService) Send(n models.Notification) error {
	const op = "services.notifier.Send"

	subject, text, err := Compose(n)
	if err != nil {
		s.metrics.Notification(n.Kind, err)
		s.log.Error("unsupported notification", slog.String("kind", n.Kind), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.mailer.Send(n.Email, subject, text)
	s.metrics.Notification(n.Kind, err)
	if err != nil {
		s.log.Error("failed to send email", slog.String("kind", n.Kind), sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("email sent successfully", slog.String("kind", n.Kind), slog.String("to", n.Email))
	return nil
}

// Compose возвращает тему и текст письма.
func Compose(n models.Notification) (string, string, error) {
	switch n.Kind {
	case models.NotificationVerification:
		if n.Link == "" {
			return "", "", fmt.Errorf("verification link is empty")
		}
		return "Confirm your email address",
			fmt.Sprintf("Hello,\n\nPlease confirm your email address by opening this link:\n%s\n\n"+
				"If you did not create an account, ignore this message.", n.Link), nil
	case models.NotificationLicenseExpiring:
		return "Your license expires soon",
			fmt.Sprintf("Hello,\n\nYour license %s expires on %s.\n\nRenew it in time to keep access to the app.",
				n.Key, formatDate(n)), nil
	case models.NotificationLicenseActive:
		return "Your license is active",
			fmt.Sprintf("Hello,\n\nLicense %s has been activated. It is valid until %s.", n.Key, formatDate(n)), nil
	default:
		return "", "", fmt.Errorf("unknown notification kind %q", n.Kind)
	}
}

func formatDate(n models.Notification) string {
	if n.ExpiresAt == nil {
		return "an unknown date"
	}
	return n.ExpiresAt.UTC().Format("02.01.2006 15:04 UTC")
}
