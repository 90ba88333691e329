package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/17marcomoreira-hue/sportswissapp/internal/migrations"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

// setupTestDatabase поднимает PostgreSQL в контейнере и применяет миграции.
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, err, "failed to connect to database")

	root, err := filepath.Abs("../../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, CheckDatabaseReady(storage))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// testDataFactory создаёт тестовые данные напрямую через репозиторий.
type testDataFactory struct {
	storage *Storage
}

func newTestDataFactory(storage *Storage) *testDataFactory {
	return &testDataFactory{storage: storage}
}

// createProfile создаёт учётную запись и профиль с пробным периодом.
func (f *testDataFactory) createProfile(t *testing.T, email string, created time.Time) string {
	t.Helper()
	ctx := context.Background()

	uid, err := f.storage.CreateAccount(ctx, email, "hash")
	require.NoError(t, err)

	ok, err := f.storage.CreateUser(ctx, models.User{
		UID:            uid,
		Email:          email,
		TrialStartedAt: &created,
		TrialSeconds:   600,
		License:        models.License{Status: models.LicenseStatusNone},
		CreatedAt:      created,
		LastLoginAt:    &created,
	})
	require.NoError(t, err)
	require.True(t, ok)
	return uid
}
