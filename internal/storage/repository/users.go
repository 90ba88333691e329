package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

const userColumns = `uid, email, email_verified, email_verified_override,
	email_verified_override_at, email_verified_override_by, trial_started_at, trial_seconds,
	license_active, license_key, license_expires_at, license_status, license_activated_at,
	active_device_id, last_device_at, last_validated_at, admin_resend_verify,
	created_at, last_login_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	u := &models.User{}
	var overrideAt, trialStarted, licExpires, licActivated, lastDevice, lastValidated, lastLogin sql.NullTime
	if err := row.Scan(&u.UID, &u.Email, &u.EmailVerified, &u.EmailVerifiedOverride,
		&overrideAt, &u.EmailVerifiedOverrideBy, &trialStarted, &u.TrialSeconds,
		&u.License.Active, &u.License.Key, &licExpires, &u.License.Status, &licActivated,
		&u.ActiveDeviceID, &lastDevice, &lastValidated, &u.AdminResendVerify,
		&u.CreatedAt, &lastLogin); err != nil {
		return nil, err
	}
	u.EmailVerifiedOverrideAt = timePtr(overrideAt)
	u.TrialStartedAt = timePtr(trialStarted)
	u.License.ExpiresAt = timePtr(licExpires)
	u.LicenseActivatedAt = timePtr(licActivated)
	u.LastDeviceAt = timePtr(lastDevice)
	u.LastValidatedAt = timePtr(lastValidated)
	u.LastLoginAt = timePtr(lastLogin)
	return u, nil
}

// CreateUser создаёт профиль. Если профиль уже существует, возвращает false без изменений.
func (s *Storage) CreateUser(ctx context.Context, u models.User) (bool, error) {
	const op = "storage.CreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}

	status := u.License.Status
	if status == "" {
		status = models.LicenseStatusNone
	}
	query := `INSERT INTO users (uid, email, email_verified, trial_started_at, trial_seconds,
			      license_active, license_key, license_expires_at, license_status,
			      admin_resend_verify, created_at, last_login_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, $10, $11)
			  ON CONFLICT (uid) DO NOTHING`
	res, err := s.DB.ExecContext(ctx, query,
		u.UID, u.Email, u.EmailVerified, nullTime(u.TrialStartedAt), u.TrialSeconds,
		u.License.Active, u.License.Key, nullTime(u.License.ExpiresAt), status,
		u.CreatedAt, nullTime(u.LastLoginAt))
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n == 1, nil
}

// GetUser возвращает профиль по UID.
func (s *Storage) GetUser(ctx context.Context, uid string) (*models.User, error) {
	const op = "storage.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validUID(uid) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	u, err := scanUser(s.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByEmail возвращает первый профиль с указанным email без учёта регистра.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users
			  WHERE LOWER(email) = $1
			  ORDER BY created_at
			  LIMIT 1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, strings.ToLower(strings.TrimSpace(email))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// TouchProfile обновляет email, статус подтверждения и время входа,
// а также заполняет отсутствующие значения пробного периода.
func (s *Storage) TouchProfile(ctx context.Context, uid, email string, verified bool,
	now time.Time, trialSeconds int) (*models.User, error) {
	const op = "storage.TouchProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validUID(uid) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	query := `UPDATE users
			  SET email = $2,
			      email_verified = $3,
			      last_login_at = $4,
			      trial_started_at = COALESCE(trial_started_at, $4),
			      trial_seconds = CASE WHEN trial_seconds > 0 THEN trial_seconds ELSE $5 END,
			      license_status = CASE WHEN license_status = '' THEN 'none' ELSE license_status END
			  WHERE uid = $1
			  RETURNING ` + userColumns
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, uid, email, verified, now, trialSeconds))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// SetActiveDevice записывает активное устройство профиля.
func (s *Storage) SetActiveDevice(ctx context.Context, uid, deviceID string, at time.Time) error {
	const op = "storage.SetActiveDevice"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validUID(uid) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE users SET active_device_id = $2, last_device_at = $3 WHERE uid = $1`,
		uid, deviceID, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrUserNotFound)
}

// SetLastValidated записывает время последней онлайн-проверки лицензии.
func (s *Storage) SetLastValidated(ctx context.Context, uid string, at time.Time) error {
	const op = "storage.SetLastValidated"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validUID(uid) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET last_validated_at = $2 WHERE uid = $1`, uid, at)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrUserNotFound)
}

// SetLicense перезаписывает лицензию профиля.
// activatedAt и validatedAt обновляются, только если переданы.
func (s *Storage) SetLicense(ctx context.Context, uid string, lic models.License,
	activatedAt, validatedAt *time.Time) error {
	const op = "storage.SetLicense"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validUID(uid) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	query := `UPDATE users
			  SET license_active = $2,
			      license_key = $3,
			      license_expires_at = $4,
			      license_status = $5,
			      license_activated_at = COALESCE($6, license_activated_at),
			      last_validated_at = COALESCE($7, last_validated_at)
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, uid, lic.Active, lic.Key, nullTime(lic.ExpiresAt),
		lic.Status, nullTime(activatedAt), nullTime(validatedAt))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrUserNotFound)
}

// SetVerificationOverride включает или снимает ручное подтверждение email.
func (s *Storage) SetVerificationOverride(ctx context.Context, uid string, on bool, by string, at time.Time) error {
	const op = "storage.SetVerificationOverride"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validUID(uid) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	query := `UPDATE users
			  SET email_verified_override = $2,
			      email_verified_override_at = $3,
			      email_verified_override_by = $4
			  WHERE uid = $1`
	res, err := s.DB.ExecContext(ctx, query, uid, on, at, by)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrUserNotFound)
}

// SetResendVerify выставляет флаг повторной отправки письма подтверждения.
func (s *Storage) SetResendVerify(ctx context.Context, uid string, on bool) error {
	const op = "storage.SetResendVerify"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validUID(uid) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE users SET admin_resend_verify = $2 WHERE uid = $1`, uid, on)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrUserNotFound)
}

// ListUsers возвращает профили, начиная с самых новых.
func (s *Storage) ListUsers(ctx context.Context, limit int) ([]models.User, error) {
	const op = "storage.ListUsers"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// DeleteUser удаляет профиль. Учётная запись для входа остаётся.
func (s *Storage) DeleteUser(ctx context.Context, uid string) error {
	const op = "storage.DeleteUser"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validUID(uid) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	if _, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, uid); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// FindLicensesExpiringBetween находит активные лицензии, истекающие в интервале [from, to).
func (s *Storage) FindLicensesExpiringBetween(ctx context.Context, from, to time.Time) ([]models.ExpiringLicense, error) {
	const op = "storage.FindLicensesExpiringBetween"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT uid, email, license_key, license_expires_at
			  FROM users
			  WHERE license_active
			    AND license_expires_at >= $1
			    AND license_expires_at < $2
			  ORDER BY license_expires_at`
	rows, err := s.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.ExpiringLicense
	for rows.Next() {
		var l models.ExpiringLicense
		if err = rows.Scan(&l.UID, &l.Email, &l.Key, &l.ExpiresAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
