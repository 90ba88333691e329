package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

const keyColumns = `token, months, revoked, created_at, used_by, used_email, used_at, expires_at`

func scanKey(row scanner) (*models.LicenseKey, error) {
	k := &models.LicenseKey{}
	var usedBy, usedEmail sql.NullString
	var usedAt, expiresAt sql.NullTime
	if err := row.Scan(&k.Key, &k.Months, &k.Revoked, &k.CreatedAt,
		&usedBy, &usedEmail, &usedAt, &expiresAt); err != nil {
		return nil, err
	}
	k.UsedBy = stringPtr(usedBy)
	k.UsedEmail = stringPtr(usedEmail)
	k.UsedAt = timePtr(usedAt)
	k.ExpiresAt = timePtr(expiresAt)
	return k, nil
}

// InsertKey сохраняет новый ключ. Повтор токена возвращает models.ErrKeyExists.
func (s *Storage) InsertKey(ctx context.Context, key string, months int, createdAt time.Time) error {
	const op = "storage.InsertKey"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO license_keys (token, months, revoked, created_at)
			  VALUES ($1, $2, FALSE, $3)`
	if _, err := s.DB.ExecContext(ctx, query, key, months, createdAt); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%s: %w", op, models.ErrKeyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// GetKey возвращает ключ по токену.
func (s *Storage) GetKey(ctx context.Context, key string) (*models.LicenseKey, error) {
	const op = "storage.GetKey"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	k, err := scanKey(s.DB.QueryRowContext(ctx, `SELECT `+keyColumns+` FROM license_keys WHERE token = $1`, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrKeyNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return k, nil
}

// MarkKeyUsed закрепляет ключ за пользователем.
//
// Обновление условное: ключ не отозван и либо свободен, либо уже принадлежит uid.
// Если условие не выполнено, возвращается models.ErrKeyAlreadyUsed или models.ErrKeyRevoked,
// поэтому одновременные активации одного ключа разными пользователями невозможны.
func (s *Storage) MarkKeyUsed(ctx context.Context, key, uid, email string, usedAt, expiresAt time.Time) error {
	const op = "storage.MarkKeyUsed"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	query := `UPDATE license_keys
			  SET used_by = $2, used_email = $3, used_at = $4, expires_at = $5
			  WHERE token = $1
			    AND NOT revoked
			    AND (used_by IS NULL OR used_by = $2)`
	res, err := s.DB.ExecContext(ctx, query, key, uid, email, usedAt, expiresAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 1 {
		return nil
	}

	k, err := s.GetKey(ctx, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if k.Revoked {
		return fmt.Errorf("%s: %w", op, models.ErrKeyRevoked)
	}
	return fmt.Errorf("%s: %w", op, models.ErrKeyAlreadyUsed)
}

// RevokeKey отзывает ключ.
func (s *Storage) RevokeKey(ctx context.Context, key string) error {
	const op = "storage.RevokeKey"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE license_keys SET revoked = TRUE WHERE token = $1`, key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrKeyNotFound)
}

// ListKeys возвращает ключи, начиная с самых новых.
func (s *Storage) ListKeys(ctx context.Context, limit int) ([]models.LicenseKey, error) {
	const op = "storage.ListKeys"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+keyColumns+` FROM license_keys ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.LicenseKey, 0)
	for rows.Next() {
		k, err := scanKey(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *k)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
