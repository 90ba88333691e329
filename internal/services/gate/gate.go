// Package services реализует онлайн-проверку доступа: профиль, одно активное устройство,
// расчёт доступа и активацию лицензионного ключа.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/access"
	"github.com/17marcomoreira-hue/sportswissapp/internal/cache"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/keygen"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/month"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/metrics"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
	"github.com/17marcomoreira-hue/sportswissapp/internal/rabbitmq"
)

// Repository описывает хранилище, нужное для проверки доступа.
type Repository interface {
	GetAccount(ctx context.Context, uid string) (*models.Account, error)
	CreateUser(ctx context.Context, u models.User) (bool, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
	TouchProfile(ctx context.Context, uid, email string, verified bool, now time.Time, trialSeconds int) (*models.User, error)
	SetActiveDevice(ctx context.Context, uid, deviceID string, at time.Time) error
	SetLastValidated(ctx context.Context, uid string, at time.Time) error
	GetKey(ctx context.Context, key string) (*models.LicenseKey, error)
	MarkKeyUsed(ctx context.Context, key, uid, email string, usedAt, expiresAt time.Time) error
	SetLicense(ctx context.Context, uid string, lic models.License, activatedAt, validatedAt *time.Time) error
}

// Cache хранит зеркало офлайн-записи пользователя и сбрасывает списки консоли.
type Cache interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Publisher публикует уведомления.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Options параметры пробного периода и лицензий.
type Options struct {
	TrialSeconds  int
	DefaultMonths int
	OfflineGrace  time.Duration
}

// GateService проверяет доступ пользователя к приложению.
type GateService struct {
	log       *slog.Logger
	repo      Repository
	cache     Cache
	publisher Publisher
	metrics   *metrics.Metrics
	opts      Options
	now       func() time.Time
}

// NewGateService создает новый экземпляр GateService. cache, publisher и m могут быть nil.
func NewGateService(log *slog.Logger, repo Repository, cache Cache, publisher Publisher,
	m *metrics.Metrics, opts Options) *GateService {
	if opts.TrialSeconds <= 0 {
		opts.TrialSeconds = access.DefaultTrialSeconds
	}
	if opts.DefaultMonths <= 0 {
		opts.DefaultMonths = 12
	}
	if opts.OfflineGrace <= 0 {
		opts.OfflineGrace = access.DefaultOfflineGrace
	}
	return &GateService{
		log:       log,
		repo:      repo,
		cache:     cache,
		publisher: publisher,
		metrics:   m,
		opts:      opts,
		now:       time.Now,
	}
}

// WithClock подменяет источник времени.
func (s *GateService) WithClock(now func() time.Time) *GateService {
	s.now = now
	return s
}

// EnsureProfile создаёт профиль с пробным периодом при первом обращении.
// Для существующего профиля обновляет email, статус подтверждения и время входа
// и заполняет отсутствующие значения по умолчанию.
func (s *GateService) EnsureProfile(ctx context.Context, p models.Principal) (*models.User, error) {
	const op = "services.gate.EnsureProfile"
	if p.UID == "" {
		return nil, models.ErrNotSignedIn
	}

	verified := false
	acc, err := s.repo.GetAccount(ctx, p.UID)
	switch {
	case err == nil:
		verified = acc.EmailVerified
		if p.Email == "" {
			p.Email = acc.Email
		}
	case errors.Is(err, models.ErrUserNotFound):
		return nil, models.ErrNotSignedIn
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	created, err := s.repo.CreateUser(ctx, models.User{
		UID:            p.UID,
		Email:          p.Email,
		EmailVerified:  verified,
		TrialStartedAt: &now,
		TrialSeconds:   s.opts.TrialSeconds,
		License:        models.License{Status: models.LicenseStatusNone},
		CreatedAt:      now,
		LastLoginAt:    &now,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if created {
		log := s.log.With(slog.String("op", op), slog.String("uid", p.UID))
		log.Info("profile created")
		s.invalidate(ctx, log, cache.KeyAdminUsers)
		u, err := s.repo.GetUser(ctx, p.UID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return u, nil
	}

	u, err := s.repo.TouchProfile(ctx, p.UID, p.Email, verified, now, s.opts.TrialSeconds)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// EnforceSingleDevice делает deviceID активным устройством учётной записи.
// Если активным было другое устройство, оно вытесняется (Replaced).
// При отсутствии профиля ничего не блокирует и не создаёт.
func (s *GateService) EnforceSingleDevice(ctx context.Context, uid, deviceID string) (models.DeviceResult, error) {
	const op = "services.gate.EnforceSingleDevice"
	if uid == "" {
		return models.DeviceResult{}, models.ErrNotSignedIn
	}
	deviceID = strings.TrimSpace(deviceID)
	if deviceID == "" {
		return models.DeviceResult{}, models.ErrEmptyDeviceID
	}

	u, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return models.DeviceResult{OK: true, DeviceID: deviceID, Created: false}, nil
		}
		return models.DeviceResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err = s.repo.SetActiveDevice(ctx, uid, deviceID, s.now().UTC()); err != nil {
		return models.DeviceResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res := models.DeviceResult{OK: true, DeviceID: deviceID, Created: true}
	if u.ActiveDeviceID != "" && u.ActiveDeviceID != deviceID {
		res.Replaced = true
		s.metrics.DeviceReplaced()
		s.log.Info("active device replaced", slog.String("op", op), slog.String("uid", uid))
	}
	return res, nil
}

// Check выполняет полную онлайн-проверку: устройство, профиль, расчёт доступа.
// В режиме лицензии отмечает время проверки и возвращает офлайн-запись для клиента.
func (s *GateService) Check(ctx context.Context, p models.Principal, deviceID string) (*models.GateResult, error) {
	const op = "services.gate.Check"
	log := s.log.With(slog.String("op", op), slog.String("uid", p.UID))

	device, err := s.EnforceSingleDevice(ctx, p.UID, deviceID)
	if err != nil {
		return nil, err
	}
	profile, err := s.EnsureProfile(ctx, p)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	result := &models.GateResult{
		Access:  access.Describe(access.Compute(profile, now)),
		Profile: profile,
		Device:  device,
	}

	if result.Access.Mode == access.ModeLicense {
		// Без отметки проверки офлайн-запись не выдаётся, доступ не меняется.
		if err = s.repo.SetLastValidated(ctx, p.UID, now); err != nil {
			log.Warn("failed to stamp license validation", sl.Err(err))
		} else {
			profile.LastValidatedAt = &now
			result.OfflineCache = access.NewCache(now, profile.License.ExpiresAt)
			s.mirrorCache(ctx, log, p.UID, result.OfflineCache)
		}
	}

	s.metrics.AccessCheck(result.Access.Mode, result.Access.Allowed)
	log.Debug("access computed",
		slog.String("mode", result.Access.Mode),
		slog.Bool("allowed", result.Access.Allowed),
		slog.Int64("remaining_seconds", result.Access.RemainingSeconds))
	return result, nil
}

// Activate активирует лицензию ключом rawKey.
// Ключ должен существовать, не быть отозванным и не принадлежать другому пользователю.
func (s *GateService) Activate(ctx context.Context, p models.Principal, rawKey string) (*models.Activation, error) {
	const op = "services.gate.Activate"
	log := s.log.With(slog.String("op", op), slog.String("uid", p.UID))

	if p.UID == "" {
		return nil, models.ErrNotSignedIn
	}
	key := keygen.Normalize(rawKey)
	if key == "" {
		return nil, models.ErrEmptyKey
	}
	if !keygen.Valid(key) {
		s.metrics.Activation(activationResult(models.ErrKeyNotFound))
		return nil, models.ErrKeyNotFound
	}

	act, err := s.activate(ctx, p, key)
	if err != nil {
		s.metrics.Activation(activationResult(err))
		return nil, err
	}
	s.metrics.Activation("ok")
	log.Info("license activated", slog.String("key", key), slog.Time("expires_at", act.ExpiresAt))

	s.mirrorCache(ctx, log, p.UID, act.OfflineCache)
	s.invalidate(ctx, log, cache.KeyAdminKeys, cache.KeyAdminUsers)
	if s.publisher != nil && p.Email != "" {
		exp := act.ExpiresAt
		msg := models.Notification{Kind: models.NotificationLicenseActive, Email: p.Email, Key: key, ExpiresAt: &exp}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingLicense, msg); err != nil {
			log.Warn("failed to publish activation notice", sl.Err(err))
		}
	}
	return act, nil
}

func (s *GateService) activate(ctx context.Context, p models.Principal, key string) (*models.Activation, error) {
	const op = "services.gate.Activate"

	if _, err := s.repo.GetUser(ctx, p.UID); err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	k, err := s.repo.GetKey(ctx, key)
	if err != nil {
		if errors.Is(err, models.ErrKeyNotFound) {
			return nil, models.ErrKeyNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if k.Revoked {
		return nil, models.ErrKeyRevoked
	}
	if k.UsedBy != nil && *k.UsedBy != "" && *k.UsedBy != p.UID {
		return nil, models.ErrKeyAlreadyUsed
	}

	now := s.now().UTC()
	months := month.OrDefault(k.Months, s.opts.DefaultMonths)
	expiresAt := month.AddMonths(now, months)

	if err = s.repo.MarkKeyUsed(ctx, key, p.UID, p.Email, now, expiresAt); err != nil {
		switch {
		case errors.Is(err, models.ErrKeyAlreadyUsed):
			return nil, models.ErrKeyAlreadyUsed
		case errors.Is(err, models.ErrKeyRevoked):
			return nil, models.ErrKeyRevoked
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lic := models.License{Active: true, Key: key, ExpiresAt: &expiresAt, Status: models.LicenseStatusActive}
	if err = s.repo.SetLicense(ctx, p.UID, lic, &now, &now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Activation{
		Key:          key,
		ExpiresAt:    expiresAt,
		Months:       months,
		OfflineCache: access.NewCache(now, &expiresAt),
	}, nil
}

// mirrorCache сохраняет офлайн-запись в Redis на время льготного окна.
func (s *GateService) mirrorCache(ctx context.Context, log *slog.Logger, uid string, c *models.AccessCache) {
	if s.cache == nil || c == nil {
		return
	}
	if err := s.cache.Set(ctx, cache.AccessKey(uid), c, s.opts.OfflineGrace); err != nil {
		log.Warn("failed to mirror offline cache", sl.Err(err))
	}
}

// invalidate сбрасывает закэшированные списки консоли администратора.
func (s *GateService) invalidate(ctx context.Context, log *slog.Logger, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		log.Warn("failed to invalidate admin cache", sl.Err(err))
	}
}

func activationResult(err error) string {
	switch {
	case errors.Is(err, models.ErrKeyNotFound):
		return "not_found"
	case errors.Is(err, models.ErrKeyRevoked):
		return "revoked"
	case errors.Is(err, models.ErrKeyAlreadyUsed):
		return "already_used"
	default:
		return "error"
	}
}
