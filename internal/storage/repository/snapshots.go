package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// CreateSnapshot сохраняет новый снимок и возвращает его ID.
func (s *Storage) CreateSnapshot(ctx context.Context, uid, label string, data json.RawMessage, now time.Time) (string, error) {
	const op = "storage.CreateSnapshot"
	if err := checkCtx(ctx, op); err != nil {
		return "", err
	}

	var id string
	query := `INSERT INTO snapshots (user_uid, label, data, deleted, created_at, updated_at)
			  VALUES ($1, $2, $3, FALSE, $4, $4)
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, uid, label, []byte(data), now).Scan(&id); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// ListSnapshots возвращает неудалённые снимки пользователя, начиная с последних изменённых.
func (s *Storage) ListSnapshots(ctx context.Context, uid string, limit int) ([]models.SnapshotMeta, error) {
	const op = "storage.ListSnapshots"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, label, created_at, updated_at
			  FROM snapshots
			  WHERE user_uid = $1 AND NOT deleted
			  ORDER BY updated_at DESC
			  LIMIT $2`
	rows, err := s.DB.QueryContext(ctx, query, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	result := make([]models.SnapshotMeta, 0)
	for rows.Next() {
		var m models.SnapshotMeta
		if err = rows.Scan(&m.ID, &m.Label, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetSnapshot возвращает снимок пользователя по ID, включая помеченные удалёнными.
func (s *Storage) GetSnapshot(ctx context.Context, uid, id string) (*models.Snapshot, error) {
	const op = "storage.GetSnapshot"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT id, user_uid, label, data, deleted, created_at, updated_at
			  FROM snapshots
			  WHERE user_uid = $1 AND id::text = $2`
	snap := &models.Snapshot{}
	var data []byte
	err := s.DB.QueryRowContext(ctx, query, uid, id).Scan(&snap.ID, &snap.UserUID, &snap.Label,
		&data, &snap.Deleted, &snap.CreatedAt, &snap.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrSnapshotNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	snap.Data = json.RawMessage(data)
	return snap, nil
}

// SoftDeleteSnapshot помечает снимок удалённым.
func (s *Storage) SoftDeleteSnapshot(ctx context.Context, uid, id string, now time.Time) error {
	const op = "storage.SoftDeleteSnapshot"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE snapshots SET deleted = TRUE, updated_at = $3 WHERE user_uid = $1 AND id::text = $2`,
		uid, id, now)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return affected(res, op, models.ErrSnapshotNotFound)
}

// ListSnapshotIDs возвращает до limit идентификаторов снимков пользователя, включая удалённые.
func (s *Storage) ListSnapshotIDs(ctx context.Context, uid string, limit int) ([]string, error) {
	const op = "storage.ListSnapshotIDs"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if !validUID(uid) {
		return []string{}, nil
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id FROM snapshots WHERE user_uid = $1 LIMIT $2`, uid, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []string
	for rows.Next() {
		var id string
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// DeleteSnapshots физически удаляет снимки с указанными ID и возвращает число удалённых.
func (s *Storage) DeleteSnapshots(ctx context.Context, ids []string) (int64, error) {
	const op = "storage.DeleteSnapshots"
	if err := checkCtx(ctx, op); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
