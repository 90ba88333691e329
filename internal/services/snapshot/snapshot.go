// Package services хранит снимки состояния приложения пользователя.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

const (
	// DefaultListLimit — размер списка, если клиент его не указал.
	DefaultListLimit = 50
	// MaxListLimit — верхняя граница размера списка.
	MaxListLimit = 200
)

// SnapshotRepository определяет методы для работы со снимками в хранилище.
type SnapshotRepository interface {
	CreateSnapshot(ctx context.Context, uid, label string, data json.RawMessage, now time.Time) (string, error)
	ListSnapshots(ctx context.Context, uid string, limit int) ([]models.SnapshotMeta, error)
	GetSnapshot(ctx context.Context, uid, id string) (*models.Snapshot, error)
	SoftDeleteSnapshot(ctx context.Context, uid, id string, now time.Time) error
}

// SnapshotService реализует сохранение и загрузку снимков.
type SnapshotService struct {
	repo SnapshotRepository
	log  *slog.Logger
	now  func() time.Time
}

// NewSnapshotService создает новый экземпляр SnapshotService.
func NewSnapshotService(repo SnapshotRepository, log *slog.Logger) *SnapshotService {
	return &SnapshotService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Save сохраняет новый снимок и возвращает его ID. Пустая метка заменяется на DefaultSnapshotLabel.
func (s *SnapshotService) Save(ctx context.Context, uid, label string, data json.RawMessage) (string, error) {
	const op = "services.snapshot.Save"
	if uid == "" {
		return "", models.ErrNotSignedIn
	}
	if len(data) == 0 || !json.Valid(data) {
		return "", models.ErrInvalidSnapshot
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = models.DefaultSnapshotLabel
	}

	id, err := s.repo.CreateSnapshot(ctx, uid, label, data, s.now().UTC())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("snapshot saved", slog.String("op", op), slog.String("uid", uid), slog.String("id", id))
	return id, nil
}

// List возвращает до limit последних снимков. limit ограничивается диапазоном 1..MaxListLimit.
func (s *SnapshotService) List(ctx context.Context, uid string, limit int) ([]models.SnapshotMeta, error) {
	const op = "services.snapshot.List"
	if uid == "" {
		return nil, models.ErrNotSignedIn
	}

	metas, err := s.repo.ListSnapshots(ctx, uid, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return metas, nil
}

// Load возвращает снимок. Помеченный удалённым снимок считается отсутствующим.
func (s *SnapshotService) Load(ctx context.Context, uid, id string) (*models.Snapshot, error) {
	const op = "services.snapshot.Load"
	if uid == "" {
		return nil, models.ErrNotSignedIn
	}
	if id = strings.TrimSpace(id); id == "" {
		return nil, models.ErrEmptySnapshotID
	}

	snap, err := s.repo.GetSnapshot(ctx, uid, id)
	if err != nil {
		if errors.Is(err, models.ErrSnapshotNotFound) {
			return nil, models.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if snap.Deleted {
		return nil, models.ErrSnapshotNotFound
	}
	return snap, nil
}

// Delete помечает снимок удалённым.
func (s *SnapshotService) Delete(ctx context.Context, uid, id string) error {
	const op = "services.snapshot.Delete"
	if uid == "" {
		return models.ErrNotSignedIn
	}
	if id = strings.TrimSpace(id); id == "" {
		return models.ErrEmptySnapshotID
	}

	if err := s.repo.SoftDeleteSnapshot(ctx, uid, id, s.now().UTC()); err != nil {
		if errors.Is(err, models.ErrSnapshotNotFound) {
			return models.ErrSnapshotNotFound
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("snapshot deleted", slog.String("op", op), slog.String("uid", uid), slog.String("id", id))
	return nil
}

// ClampLimit приводит размер списка к диапазону 1..MaxListLimit; ноль означает DefaultListLimit.
func ClampLimit(limit int) int {
	if limit == 0 {
		return DefaultListLimit
	}
	return max(1, min(limit, MaxListLimit))
}
