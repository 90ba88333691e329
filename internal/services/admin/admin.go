// Package services реализует операции админки: списки пользователей и ключей с кэшем,
// CSV-выгрузки, ручные лицензии, отзыв, подтверждение email и удаление данных.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/access"
	"github.com/17marcomoreira-hue/sportswissapp/internal/cache"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/csvexport"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/keygen"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/month"
	"github.com/17marcomoreira-hue/sportswissapp/internal/lib/sl"
	"github.com/17marcomoreira-hue/sportswissapp/internal/metrics"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

const (
	// snapshotPage — сколько снимков читается за один проход каскадного удаления.
	snapshotPage = 500
	// deleteChunk — размер одной пачки удаления.
	deleteChunk = 450
	// insertAttempts — попыток подобрать свободный токен при коллизии.
	insertAttempts = 5
)

// Repository определяет методы хранилища, нужные админке.
type Repository interface {
	ListUsers(ctx context.Context, limit int) ([]models.User, error)
	GetUser(ctx context.Context, uid string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	SetLicense(ctx context.Context, uid string, lic models.License, activatedAt, validatedAt *time.Time) error
	SetVerificationOverride(ctx context.Context, uid string, on bool, by string, at time.Time) error
	SetResendVerify(ctx context.Context, uid string, on bool) error
	DeleteUser(ctx context.Context, uid string) error
	ListSnapshotIDs(ctx context.Context, uid string, limit int) ([]string, error)
	DeleteSnapshots(ctx context.Context, ids []string) (int64, error)
	InsertKey(ctx context.Context, key string, months int, createdAt time.Time) error
	RevokeKey(ctx context.Context, key string) error
	ListKeys(ctx context.Context, limit int) ([]models.LicenseKey, error)
}

// Cache описывает методы для кэширования списков.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Options лимиты и значения по умолчанию админки.
type Options struct {
	AdminEmail      string
	DefaultMonths   int
	MaxKeysPerBatch int
	UsersLimit      int
	KeysLimit       int
	CacheTTL        time.Duration
}

// AdminService реализует бизнес-логику админки.
type AdminService struct {
	log     *slog.Logger
	repo    Repository
	cache   Cache
	metrics *metrics.Metrics
	opts    Options
	now     func() time.Time
}

// NewAdminService создает новый экземпляр AdminService. cache и m могут быть nil.
func NewAdminService(log *slog.Logger, repo Repository, cache Cache, m *metrics.Metrics, opts Options) *AdminService {
	if opts.DefaultMonths <= 0 {
		opts.DefaultMonths = 12
	}
	if opts.MaxKeysPerBatch <= 0 {
		opts.MaxKeysPerBatch = 500
	}
	if opts.UsersLimit <= 0 {
		opts.UsersLimit = 500
	}
	if opts.KeysLimit <= 0 {
		opts.KeysLimit = 1000
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	return &AdminService{
		log:     log,
		repo:    repo,
		cache:   cache,
		metrics: m,
		opts:    opts,
		now:     time.Now,
	}
}

// WithClock подменяет источник времени.
func (s *AdminService) WithClock(now func() time.Time) *AdminService {
	s.now = now
	return s
}

// RefreshUsers перечитывает список пользователей из базы и обновляет кэш.
func (s *AdminService) RefreshUsers(ctx context.Context) ([]models.User, error) {
	const op = "services.admin.RefreshUsers"

	users, err := s.repo.ListUsers(ctx, s.opts.UsersLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.store(ctx, cache.KeyAdminUsers, users)
	return users, nil
}

// ListUsers возвращает пользователей из кэша (или базы), отфильтрованных по подстроке email.
func (s *AdminService) ListUsers(ctx context.Context, query string) ([]models.User, error) {
	users, err := s.users(ctx)
	if err != nil {
		return nil, err
	}
	return FilterUsers(users, query), nil
}

// ExportUsersCSV пишет в w выгрузку закэшированного списка и возвращает число строк данных.
func (s *AdminService) ExportUsersCSV(ctx context.Context, w io.Writer) (int, error) {
	const op = "services.admin.ExportUsersCSV"

	users, err := s.users(ctx)
	if err != nil {
		return 0, err
	}
	if err = csvexport.Write(w, csvexport.UsersHeader, csvexport.UsersRows(users)); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(users), nil
}

// SetVerificationOverride включает или снимает ручное подтверждение email от имени администратора.
func (s *AdminService) SetVerificationOverride(ctx context.Context, uid string, on bool) error {
	const op = "services.admin.SetVerificationOverride"
	if err := s.repo.SetVerificationOverride(ctx, uid, on, s.opts.AdminEmail, s.now().UTC()); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("verification override changed", slog.String("op", op), slog.String("uid", uid), slog.Bool("on", on))
	s.invalidate(ctx, cache.KeyAdminUsers)
	return nil
}

// RequestResendVerification помечает профиль: письмо подтверждения уйдёт при следующем входе.
func (s *AdminService) RequestResendVerification(ctx context.Context, uid string) error {
	const op = "services.admin.RequestResendVerification"
	if err := s.repo.SetResendVerify(ctx, uid, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, cache.KeyAdminUsers)
	return nil
}

// RevokeUserLicense отключает лицензию профиля. Связанный ключ тоже отзывается,
// если это не ручная выдача. Ошибка отзыва ключа только логируется.
func (s *AdminService) RevokeUserLicense(ctx context.Context, uid string) error {
	const op = "services.admin.RevokeUserLicense"
	log := s.log.With(slog.String("op", op), slog.String("uid", uid))

	u, err := s.repo.GetUser(ctx, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	now := s.now().UTC()
	revoked := models.License{Status: models.LicenseStatusRevoked}
	if err = s.repo.SetLicense(ctx, uid, revoked, nil, &now); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if key := u.License.Key; key != "" && key != models.ManualLicenseKey {
		if err = s.repo.RevokeKey(ctx, key); err != nil && !errors.Is(err, models.ErrKeyNotFound) {
			log.Warn("unable to revoke linked key", slog.String("key", key), sl.Err(err))
		}
	}
	log.Info("license revoked")
	s.invalidate(ctx, cache.KeyAdminUsers, cache.KeyAdminKeys)
	return nil
}

// DeleteUserData удаляет все снимки пользователя пачками, затем сам профиль.
// Шаги не атомарны: при ошибке часть снимков может остаться удалённой.
// Учётная запись не удаляется, профиль будет создан заново при следующем входе.
func (s *AdminService) DeleteUserData(ctx context.Context, uid string) (int64, error) {
	const op = "services.admin.DeleteUserData"

	var total int64
	for {
		ids, err := s.repo.ListSnapshotIDs(ctx, uid, snapshotPage)
		if err != nil {
			return total, fmt.Errorf("%s: %w", op, err)
		}
		if len(ids) == 0 {
			break
		}
		var deleted int64
		for start := 0; start < len(ids); start += deleteChunk {
			end := min(start+deleteChunk, len(ids))
			n, err := s.repo.DeleteSnapshots(ctx, ids[start:end])
			if err != nil {
				return total, fmt.Errorf("%s: %w", op, err)
			}
			deleted += n
		}
		if deleted == 0 {
			return total, fmt.Errorf("%s: snapshots were not deleted", op)
		}
		total += deleted
	}

	if err := s.repo.DeleteUser(ctx, uid); err != nil {
		return total, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user data deleted", slog.String("op", op), slog.String("uid", uid), slog.Int64("snapshots", total))
	s.invalidate(ctx, cache.KeyAdminUsers)
	return total, nil
}

// GrantManual выдаёт лицензию без ключа на months месяцев от текущего момента.
func (s *AdminService) GrantManual(ctx context.Context, email string, months int) (*models.License, error) {
	const op = "services.admin.GrantManual"

	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	exp := month.AddMonths(now, month.OrDefault(months, s.opts.DefaultMonths))
	lic := models.License{Active: true, Key: models.ManualLicenseKey, ExpiresAt: &exp, Status: models.LicenseStatusActive}
	if err = s.repo.SetLicense(ctx, u.UID, lic, &now, &now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("manual license granted", slog.String("op", op), slog.String("uid", u.UID), slog.Time("expires_at", exp))
	s.invalidate(ctx, cache.KeyAdminUsers)
	return &lic, nil
}

// ExtendManual продлевает лицензию на months месяцев от текущего срока,
// если он ещё не истёк, иначе от текущего момента.
func (s *AdminService) ExtendManual(ctx context.Context, email string, months int) (*models.License, error) {
	const op = "services.admin.ExtendManual"

	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	base, key := now, models.ManualLicenseKey
	if access.LicenseValid(u.License, now) {
		base = *u.License.ExpiresAt
		if u.License.Key != "" {
			key = u.License.Key
		}
	}
	exp := month.AddMonths(base, month.OrDefault(months, s.opts.DefaultMonths))
	lic := models.License{Active: true, Key: key, ExpiresAt: &exp, Status: models.LicenseStatusActive}
	if err = s.repo.SetLicense(ctx, u.UID, lic, &now, &now); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("license extended", slog.String("op", op), slog.String("uid", u.UID), slog.Time("expires_at", exp))
	s.invalidate(ctx, cache.KeyAdminUsers)
	return &lic, nil
}

// RevokeByEmail находит пользователя по email и отзывает его лицензию.
func (s *AdminService) RevokeByEmail(ctx context.Context, email string) error {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.RevokeUserLicense(ctx, u.UID)
}

// RefreshKeys перечитывает список ключей из базы и обновляет кэш.
func (s *AdminService) RefreshKeys(ctx context.Context) ([]models.LicenseKey, error) {
	const op = "services.admin.RefreshKeys"

	keys, err := s.repo.ListKeys(ctx, s.opts.KeysLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.store(ctx, cache.KeyAdminKeys, keys)
	return keys, nil
}

// ListKeys возвращает ключи, отобранные фильтром и подстрокой токена или email активировавшего.
func (s *AdminService) ListKeys(ctx context.Context, filter models.KeyFilter, query string) ([]models.LicenseKey, error) {
	if !ValidFilter(filter) {
		return nil, models.ErrInvalidFilter
	}
	keys, err := s.keys(ctx)
	if err != nil {
		return nil, err
	}
	return FilterKeys(keys, filter, query, s.now()), nil
}

// ExportKeysCSV пишет в w выгрузку закэшированного списка ключей и возвращает число строк данных.
func (s *AdminService) ExportKeysCSV(ctx context.Context, w io.Writer) (int, error) {
	const op = "services.admin.ExportKeysCSV"

	keys, err := s.keys(ctx)
	if err != nil {
		return 0, err
	}
	if err = csvexport.Write(w, csvexport.KeysHeader, csvexport.KeysRows(keys)); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return len(keys), nil
}

// GenerateKeys создаёт count новых ключей на months месяцев.
// count ограничивается диапазоном 1..MaxKeysPerBatch, months по умолчанию DefaultMonths.
func (s *AdminService) GenerateKeys(ctx context.Context, count, months int) ([]string, error) {
	const op = "services.admin.GenerateKeys"

	count = max(1, min(count, s.opts.MaxKeysPerBatch))
	months = month.OrDefault(months, s.opts.DefaultMonths)

	tokens, err := keygen.Batch(count)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	created := make([]string, 0, count)
	now := s.now().UTC()
	for _, token := range tokens {
		token, err = s.insertKey(ctx, token, months, now)
		if err != nil {
			s.metrics.KeysCreated(len(created))
			s.invalidate(ctx, cache.KeyAdminKeys)
			return created, fmt.Errorf("%s: %w", op, err)
		}
		created = append(created, token)
	}

	s.metrics.KeysCreated(len(created))
	s.log.Info("license keys generated", slog.String("op", op), slog.Int("count", len(created)), slog.Int("months", months))
	s.invalidate(ctx, cache.KeyAdminKeys)
	return created, nil
}

// insertKey сохраняет token, при коллизии подбирая новый.
func (s *AdminService) insertKey(ctx context.Context, token string, months int, now time.Time) (string, error) {
	for attempt := 0; ; attempt++ {
		err := s.repo.InsertKey(ctx, token, months, now)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, models.ErrKeyExists) || attempt+1 >= insertAttempts {
			return "", err
		}
		if token, err = keygen.New(); err != nil {
			return "", err
		}
	}
}

// RevokeKey отзывает ключ.
func (s *AdminService) RevokeKey(ctx context.Context, rawKey string) error {
	const op = "services.admin.RevokeKey"

	key := keygen.Normalize(rawKey)
	if key == "" {
		return models.ErrEmptyKey
	}
	if err := s.repo.RevokeKey(ctx, key); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("license key revoked", slog.String("op", op), slog.String("key", key))
	s.invalidate(ctx, cache.KeyAdminKeys)
	return nil
}

// ValidFilter сообщает, известен ли фильтр списка ключей. Пустой фильтр равен all.
func ValidFilter(f models.KeyFilter) bool {
	switch f {
	case "", models.KeyFilterAll, models.KeyFilterAvailable, models.KeyFilterUsed,
		models.KeyFilterRevoked, models.KeyFilterExpired:
		return true
	}
	return false
}

// FilterUsers отбирает пользователей, чей email содержит query без учёта регистра.
func FilterUsers(users []models.User, query string) []models.User {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return users
	}
	out := make([]models.User, 0, len(users))
	for _, u := range users {
		if strings.Contains(strings.ToLower(u.Email), q) {
			out = append(out, u)
		}
	}
	return out
}

// FilterKeys отбирает ключи по состоянию и подстроке токена или usedEmail.
func FilterKeys(keys []models.LicenseKey, filter models.KeyFilter, query string, now time.Time) []models.LicenseKey {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]models.LicenseKey, 0, len(keys))
	for _, k := range keys {
		if !matchFilter(&k, filter, now) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(k.Key), q) &&
			(k.UsedEmail == nil || !strings.Contains(strings.ToLower(*k.UsedEmail), q)) {
			continue
		}
		out = append(out, k)
	}
	return out
}

func matchFilter(k *models.LicenseKey, filter models.KeyFilter, now time.Time) bool {
	used := k.UsedBy != nil && *k.UsedBy != ""
	switch filter {
	case models.KeyFilterAvailable:
		return !k.Revoked && !used
	case models.KeyFilterUsed:
		return !k.Revoked && used
	case models.KeyFilterRevoked:
		return k.Revoked
	case models.KeyFilterExpired:
		return !k.Revoked && k.ExpiresAt != nil && k.ExpiresAt.Before(now)
	default:
		return true
	}
}

func (s *AdminService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "services.admin.userByEmail"

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, models.ErrEmptyEmail
	}
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

func (s *AdminService) users(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if s.load(ctx, cache.KeyAdminUsers, &users) {
		return users, nil
	}
	return s.RefreshUsers(ctx)
}

func (s *AdminService) keys(ctx context.Context) ([]models.LicenseKey, error) {
	var keys []models.LicenseKey
	if s.load(ctx, cache.KeyAdminKeys, &keys) {
		return keys, nil
	}
	return s.RefreshKeys(ctx)
}

// load читает кэш. Ошибка Redis не мешает работе: список перечитывается из базы.
func (s *AdminService) load(ctx context.Context, key string, result any) bool {
	if s.cache == nil {
		return false
	}
	found, err := s.cache.Get(ctx, key, result)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (s *AdminService) store(ctx context.Context, key string, value any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.opts.CacheTTL); err != nil {
		s.log.Warn("failed to cache list", slog.String("key", key), sl.Err(err))
	}
}

func (s *AdminService) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to invalidate cache", slog.Any("keys", keys), sl.Err(err))
	}
}
