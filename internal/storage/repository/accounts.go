package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// CreateAccount сохраняет учётную запись и возвращает её UID.
func (s *Storage) CreateAccount(ctx context.Context, email, passwordHash string) (string, error) {
	const op = "storage.CreateAccount"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var uid string
	query := `INSERT INTO accounts (email, password_hash)
			  VALUES ($1, $2)
			  RETURNING uid`
	if err := s.DB.QueryRowContext(ctx, query, strings.ToLower(email), passwordHash).Scan(&uid); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%s: %w", op, models.ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return uid, nil
}

// GetAccount возвращает учётную запись по UID.
func (s *Storage) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	const op = "storage.GetAccount"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validUID(uid) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	query := `SELECT uid, email, password_hash, email_verified, created_at
			  FROM accounts
			  WHERE uid = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, uid), op)
}

// GetAccountByEmail возвращает учётную запись по email без учёта регистра.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT uid, email, password_hash, email_verified, created_at
			  FROM accounts
			  WHERE email = $1`
	return s.scanAccount(s.DB.QueryRowContext(ctx, query, strings.ToLower(email)), op)
}

func (s *Storage) scanAccount(row *sql.Row, op string) (*models.Account, error) {
	a := &models.Account{}
	if err := row.Scan(&a.UID, &a.Email, &a.PasswordHash, &a.EmailVerified, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// SetAccountVerified отмечает email учётной записи как подтверждённый.
func (s *Storage) SetAccountVerified(ctx context.Context, uid string) error {
	const op = "storage.SetAccountVerified"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}
	if !validUID(uid) {
		return fmt.Errorf("%s: %w", op, models.ErrUserNotFound)
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE accounts SET email_verified = TRUE WHERE uid = $1`, uid)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrUserNotFound)
}

func affected(res sql.Result, op string, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, notFound)
	}
	return nil
}
