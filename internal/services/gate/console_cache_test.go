package services_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17marcomoreira-hue/sportswissapp/internal/cache"
	"github.com/17marcomoreira-hue/sportswissapp/internal/config"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
	adminservices "github.com/17marcomoreira-hue/sportswissapp/internal/services/admin"
	services "github.com/17marcomoreira-hue/sportswissapp/internal/services/gate"
)

// memStore — хранилище в памяти, общее для проверки доступа и админки.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	users    map[string]models.User
	keys     map[string]models.LicenseKey
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]models.Account{},
		users:    map[string]models.User{},
		keys:     map[string]models.LicenseKey{},
	}
}

func (s *memStore) GetAccount(_ context.Context, uid string) (*models.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[uid]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &a, nil
}

func (s *memStore) CreateUser(_ context.Context, u models.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[u.UID]; ok {
		return false, nil
	}
	s.users[u.UID] = u
	return true, nil
}

func (s *memStore) GetUser(_ context.Context, uid string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	return &u, nil
}

func (s *memStore) TouchProfile(_ context.Context, uid, email string, verified bool, now time.Time, _ int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	u.Email, u.EmailVerified, u.LastLoginAt = email, verified, &now
	s.users[uid] = u
	return &u, nil
}

func (s *memStore) SetActiveDevice(_ context.Context, uid, deviceID string, at time.Time) error {
	return s.update(uid, func(u *models.User) { u.ActiveDeviceID, u.LastDeviceAt = deviceID, &at })
}

func (s *memStore) SetLastValidated(_ context.Context, uid string, at time.Time) error {
	return s.update(uid, func(u *models.User) { u.LastValidatedAt = &at })
}

func (s *memStore) GetKey(_ context.Context, key string) (*models.LicenseKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[key]
	if !ok {
		return nil, models.ErrKeyNotFound
	}
	return &k, nil
}

func (s *memStore) MarkKeyUsed(_ context.Context, key, uid, email string, usedAt, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[key]
	if !ok {
		return models.ErrKeyNotFound
	}
	k.UsedBy, k.UsedEmail, k.UsedAt, k.ExpiresAt = &uid, &email, &usedAt, &expiresAt
	s.keys[key] = k
	return nil
}

func (s *memStore) SetLicense(_ context.Context, uid string, lic models.License, activatedAt, validatedAt *time.Time) error {
	return s.update(uid, func(u *models.User) {
		u.License, u.LicenseActivatedAt, u.LastValidatedAt = lic, activatedAt, validatedAt
	})
}

func (s *memStore) ListUsers(_ context.Context, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *memStore) SetVerificationOverride(_ context.Context, uid string, on bool, by string, at time.Time) error {
	return s.update(uid, func(u *models.User) {
		u.EmailVerifiedOverride, u.EmailVerifiedOverrideBy, u.EmailVerifiedOverrideAt = on, by, &at
	})
}

func (s *memStore) SetResendVerify(_ context.Context, uid string, on bool) error {
	return s.update(uid, func(u *models.User) { u.AdminResendVerify = on })
}

func (s *memStore) DeleteUser(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, uid)
	return nil
}

func (s *memStore) ListSnapshotIDs(context.Context, string, int) ([]string, error) { return nil, nil }

func (s *memStore) DeleteSnapshots(context.Context, []string) (int64, error) { return 0, nil }

func (s *memStore) InsertKey(_ context.Context, key string, months int, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.keys[key]; ok {
		return models.ErrKeyExists
	}
	s.keys[key] = models.LicenseKey{Key: key, Months: months, CreatedAt: createdAt}
	return nil
}

func (s *memStore) RevokeKey(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.keys[key]
	if !ok {
		return models.ErrKeyNotFound
	}
	k.Revoked = true
	s.keys[key] = k
	return nil
}

func (s *memStore) ListKeys(_ context.Context, limit int) ([]models.LicenseKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.LicenseKey, 0, len(s.keys))
	for _, k := range s.keys {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) update(uid string, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[uid]
	if !ok {
		return models.ErrUserNotFound
	}
	fn(&u)
	s.users[uid] = u
	return nil
}

func setupCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c, err := cache.InitServer(context.Background(), config.RedisConnection{RedisAddress: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestGateService_ConsoleListsFollowGateWrites(t *testing.T) {
	ctx := context.Background()
	clock := func() time.Time { return fixedNow }

	store := newMemStore()
	store.accounts["uid-1"] = models.Account{UID: "uid-1", Email: principal.Email}
	store.keys["ABCD-EFGH-JKLM"] = models.LicenseKey{Key: "ABCD-EFGH-JKLM", Months: 6, CreatedAt: fixedNow.Add(-time.Hour)}

	rc, mr := setupCache(t)
	admin := adminservices.NewAdminService(newNoopLogger(), store, rc, nil, adminservices.Options{}).WithClock(clock)
	gate := services.NewGateService(newNoopLogger(), store, rc, nil, nil, services.Options{}).WithClock(clock)

	users, err := admin.ListUsers(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, users)
	available, err := admin.ListKeys(ctx, models.KeyFilterAvailable, "")
	require.NoError(t, err)
	require.Len(t, available, 1)
	require.True(t, mr.Exists(cache.KeyAdminUsers))
	require.True(t, mr.Exists(cache.KeyAdminKeys))

	_, err = gate.EnsureProfile(ctx, principal)
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.KeyAdminUsers), "new profile drops the cached user list")

	users, err = admin.ListUsers(ctx, "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "uid-1", users[0].UID)
	assert.False(t, users[0].License.Active)

	_, err = gate.Activate(ctx, principal, "abcd-efgh-jklm")
	require.NoError(t, err)
	assert.False(t, mr.Exists(cache.KeyAdminKeys))
	assert.False(t, mr.Exists(cache.KeyAdminUsers))

	available, err = admin.ListKeys(ctx, models.KeyFilterAvailable, "")
	require.NoError(t, err)
	assert.Empty(t, available)

	used, err := admin.ListKeys(ctx, models.KeyFilterUsed, "")
	require.NoError(t, err)
	require.Len(t, used, 1)
	require.NotNil(t, used[0].UsedEmail)
	assert.Equal(t, principal.Email, *used[0].UsedEmail)

	users, err = admin.ListUsers(ctx, "")
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].License.Active)
	assert.Equal(t, "ABCD-EFGH-JKLM", users[0].License.Key)
}
