package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/17marcomoreira-hue/sportswissapp/internal/access"
	"github.com/17marcomoreira-hue/sportswissapp/internal/cache"
	"github.com/17marcomoreira-hue/sportswissapp/internal/metrics"
	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
	"github.com/17marcomoreira-hue/sportswissapp/internal/rabbitmq"
	services "github.com/17marcomoreira-hue/sportswissapp/internal/services/gate"
)

type RepoMock struct {
	mock.Mock
}

func (m *RepoMock) GetAccount(ctx context.Context, uid string) (*models.Account, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) CreateUser(ctx context.Context, u models.User) (bool, error) {
	args := m.Called(ctx, u)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) GetUser(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) TouchProfile(ctx context.Context, uid, email string, verified bool, now time.Time, trialSeconds int) (*models.User, error) {
	args := m.Called(ctx, uid, email, verified, now, trialSeconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *RepoMock) SetActiveDevice(ctx context.Context, uid, deviceID string, at time.Time) error {
	return m.Called(ctx, uid, deviceID, at).Error(0)
}

func (m *RepoMock) SetLastValidated(ctx context.Context, uid string, at time.Time) error {
	return m.Called(ctx, uid, at).Error(0)
}

func (m *RepoMock) GetKey(ctx context.Context, key string) (*models.LicenseKey, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.LicenseKey), args.Error(1)
}

func (m *RepoMock) MarkKeyUsed(ctx context.Context, key, uid, email string, usedAt, expiresAt time.Time) error {
	return m.Called(ctx, key, uid, email, usedAt, expiresAt).Error(0)
}

func (m *RepoMock) SetLicense(ctx context.Context, uid string, lic models.License, activatedAt, validatedAt *time.Time) error {
	return m.Called(ctx, uid, lic, activatedAt, validatedAt).Error(0)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	return m.Called(ctx, key, value, expiration).Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, keys ...string) error {
	return m.Called(ctx, keys).Error(0)
}

type PublisherMock struct {
	mock.Mock
}

func (m *PublisherMock) Publish(ctx context.Context, routingKey string, message any) error {
	return m.Called(ctx, routingKey, message).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func ptr[T any](v T) *T { return &v }

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newService(repo *RepoMock, c *CacheMock, pub *PublisherMock, m *metrics.Metrics) *services.GateService {
	var cc services.Cache
	if c != nil {
		cc = c
	}
	var pp services.Publisher
	if pub != nil {
		pp = pub
	}
	return services.NewGateService(newNoopLogger(), repo, cc, pp, m, services.Options{}).
		WithClock(func() time.Time { return fixedNow })
}

var principal = models.Principal{UID: "uid-1", Email: "player@example.com", Role: models.RoleUser}

func TestGateService_EnsureProfile(t *testing.T) {
	t.Run("creates profile with default trial", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccount", mock.Anything, "uid-1").Return(&models.Account{UID: "uid-1", EmailVerified: true}, nil).Once()
		repo.On("CreateUser", mock.Anything, mock.MatchedBy(func(u models.User) bool {
			return u.UID == "uid-1" &&
				u.Email == "player@example.com" &&
				u.EmailVerified &&
				u.TrialSeconds == access.DefaultTrialSeconds &&
				u.TrialStartedAt != nil && u.TrialStartedAt.Equal(fixedNow) &&
				u.License.Status == models.LicenseStatusNone && !u.License.Active
		})).Return(true, nil).Once()
		repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1", TrialSeconds: 600}, nil).Once()

		u, err := newService(repo, nil, nil, nil).EnsureProfile(context.Background(), principal)
		require.NoError(t, err)
		assert.Equal(t, "uid-1", u.UID)
		repo.AssertExpectations(t)
	})

	t.Run("new profile drops cached user list", func(t *testing.T) {
		repo, c := new(RepoMock), new(CacheMock)
		repo.On("GetAccount", mock.Anything, "uid-1").Return(&models.Account{UID: "uid-1"}, nil).Once()
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(true, nil).Once()
		repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
		c.On("Invalidate", mock.Anything, []string{cache.KeyAdminUsers}).Return(errors.New("redis down")).Once()

		_, err := newService(repo, c, nil, nil).EnsureProfile(context.Background(), principal)
		require.NoError(t, err, "invalidation failure is not fatal")
		repo.AssertExpectations(t)
		c.AssertExpectations(t)
	})

	t.Run("existing profile is touched", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccount", mock.Anything, "uid-1").Return(&models.Account{UID: "uid-1"}, nil).Once()
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(false, nil).Once()
		repo.On("TouchProfile", mock.Anything, "uid-1", "player@example.com", false, fixedNow, access.DefaultTrialSeconds).
			Return(&models.User{UID: "uid-1"}, nil).Once()

		_, err := newService(repo, nil, nil, nil).EnsureProfile(context.Background(), principal)
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("email taken from account when missing", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccount", mock.Anything, "uid-1").Return(&models.Account{UID: "uid-1", Email: "acc@example.com"}, nil).Once()
		repo.On("CreateUser", mock.Anything, mock.Anything).Return(false, nil).Once()
		repo.On("TouchProfile", mock.Anything, "uid-1", "acc@example.com", false, fixedNow, access.DefaultTrialSeconds).
			Return(&models.User{UID: "uid-1"}, nil).Once()

		_, err := newService(repo, nil, nil, nil).EnsureProfile(context.Background(), models.Principal{UID: "uid-1"})
		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("not signed in", func(t *testing.T) {
		_, err := newService(new(RepoMock), nil, nil, nil).EnsureProfile(context.Background(), models.Principal{})
		require.ErrorIs(t, err, models.ErrNotSignedIn)
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := new(RepoMock)
		repo.On("GetAccount", mock.Anything, "uid-1").Return(nil, models.ErrUserNotFound).Once()
		_, err := newService(repo, nil, nil, nil).EnsureProfile(context.Background(), principal)
		require.ErrorIs(t, err, models.ErrNotSignedIn)
	})
}

func TestGateService_EnforceSingleDevice(t *testing.T) {
	tests := []struct {
		name      string
		current   *models.User
		getErr    error
		deviceID  string
		want      models.DeviceResult
		wantStamp bool
		wantErr   error
	}{
		{
			name:     "profile missing does not block",
			getErr:   models.ErrUserNotFound,
			deviceID: "dev-a",
			want:     models.DeviceResult{OK: true, DeviceID: "dev-a"},
		},
		{
			name:      "first device is stamped",
			current:   &models.User{UID: "uid-1"},
			deviceID:  "dev-a",
			want:      models.DeviceResult{OK: true, DeviceID: "dev-a", Created: true},
			wantStamp: true,
		},
		{
			name:      "same device is idempotent",
			current:   &models.User{UID: "uid-1", ActiveDeviceID: "dev-a"},
			deviceID:  "dev-a",
			want:      models.DeviceResult{OK: true, DeviceID: "dev-a", Created: true},
			wantStamp: true,
		},
		{
			name:      "other device is replaced",
			current:   &models.User{UID: "uid-1", ActiveDeviceID: "dev-b"},
			deviceID:  "dev-a",
			want:      models.DeviceResult{OK: true, DeviceID: "dev-a", Created: true, Replaced: true},
			wantStamp: true,
		},
		{
			name:     "empty device id",
			deviceID: "  ",
			wantErr:  models.ErrEmptyDeviceID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			if tt.current != nil || tt.getErr != nil {
				repo.On("GetUser", mock.Anything, "uid-1").Return(tt.current, tt.getErr).Once()
			}
			if tt.wantStamp {
				repo.On("SetActiveDevice", mock.Anything, "uid-1", tt.deviceID, fixedNow).Return(nil).Once()
			}
			m := metrics.MustNew(prometheus.NewRegistry())

			got, err := newService(repo, nil, nil, m).EnforceSingleDevice(context.Background(), "uid-1", tt.deviceID)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			replaced := 0.0
			if tt.want.Replaced {
				replaced = 1
			}
			assert.InDelta(t, replaced, testutil.ToFloat64(m.DeviceReplacements), 0)
			repo.AssertExpectations(t)
		})
	}
}

func expectEnsure(repo *RepoMock, profile *models.User) {
	repo.On("GetAccount", mock.Anything, "uid-1").Return(&models.Account{UID: "uid-1", Email: principal.Email}, nil).Once()
	repo.On("CreateUser", mock.Anything, mock.Anything).Return(false, nil).Once()
	repo.On("TouchProfile", mock.Anything, "uid-1", principal.Email, false, fixedNow, access.DefaultTrialSeconds).
		Return(profile, nil).Once()
}

func TestGateService_Check_Trial(t *testing.T) {
	repo := new(RepoMock)
	profile := &models.User{
		UID:            "uid-1",
		ActiveDeviceID: "dev-a",
		TrialStartedAt: ptr(fixedNow.Add(-700000 * time.Millisecond)),
		TrialSeconds:   600,
	}
	repo.On("GetUser", mock.Anything, "uid-1").Return(profile, nil).Once()
	repo.On("SetActiveDevice", mock.Anything, "uid-1", "dev-a", fixedNow).Return(nil).Once()
	expectEnsure(repo, profile)

	res, err := newService(repo, nil, nil, nil).Check(context.Background(), principal, "dev-a")
	require.NoError(t, err)
	assert.False(t, res.Access.Allowed)
	assert.Equal(t, access.ModeTrial, res.Access.Mode)
	assert.Zero(t, res.Access.RemainingSeconds)
	assert.Nil(t, res.OfflineCache)
	repo.AssertNotCalled(t, "SetLastValidated", mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestGateService_Check_License(t *testing.T) {
	repo := new(RepoMock)
	c := new(CacheMock)
	exp := fixedNow.Add(72 * time.Hour)
	profile := &models.User{
		UID:     "uid-1",
		License: models.License{Active: true, Key: "AAAA-BBBB-CCCC", ExpiresAt: &exp, Status: models.LicenseStatusActive},
	}
	repo.On("GetUser", mock.Anything, "uid-1").Return(profile, nil).Once()
	repo.On("SetActiveDevice", mock.Anything, "uid-1", "dev-a", fixedNow).Return(nil).Once()
	expectEnsure(repo, profile)
	repo.On("SetLastValidated", mock.Anything, "uid-1", fixedNow).Return(nil).Once()

	wantCache := &models.AccessCache{LastValidatedAt: fixedNow.UnixMilli(), ExpiresAt: exp.UnixMilli()}
	c.On("Set", mock.Anything, cache.AccessKey("uid-1"), wantCache, access.DefaultOfflineGrace).
		Return(errors.New("redis down")).Once()

	m := metrics.MustNew(prometheus.NewRegistry())
	res, err := newService(repo, c, nil, m).Check(context.Background(), principal, "dev-a")
	require.NoError(t, err, "cache failure is not fatal")
	assert.True(t, res.Access.Allowed)
	assert.Equal(t, access.ModeLicense, res.Access.Mode)
	assert.Equal(t, "License: 3 days remaining", res.Access.StatusText)
	require.NotNil(t, res.Access.RemainingDays)
	assert.Equal(t, 3, *res.Access.RemainingDays)
	assert.Equal(t, wantCache, res.OfflineCache)
	assert.InDelta(t, 1, testutil.ToFloat64(m.AccessChecks.WithLabelValues("license", "true")), 0)

	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestGateService_Activate(t *testing.T) {
	okKey := &models.LicenseKey{Key: "ABCD-EFGH-JKLM", Months: 6}
	wantExp := time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     string
		setup   func(r *RepoMock, p *PublisherMock)
		wantErr error
	}{
		{
			name: "success with normalization",
			raw:  "  abcd-efgh-jklm ",
			setup: func(r *RepoMock, p *PublisherMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
				r.On("GetKey", mock.Anything, "ABCD-EFGH-JKLM").Return(okKey, nil).Once()
				r.On("MarkKeyUsed", mock.Anything, "ABCD-EFGH-JKLM", "uid-1", principal.Email, fixedNow, wantExp).Return(nil).Once()
				r.On("SetLicense", mock.Anything, "uid-1", models.License{
					Active: true, Key: "ABCD-EFGH-JKLM", ExpiresAt: &wantExp, Status: models.LicenseStatusActive,
				}, &fixedNow, &fixedNow).Return(nil).Once()
				p.On("Publish", mock.Anything, rabbitmq.RoutingLicense, mock.MatchedBy(func(n models.Notification) bool {
					return n.Kind == models.NotificationLicenseActive && n.Key == "ABCD-EFGH-JKLM"
				})).Return(nil).Once()
			},
		},
		{
			name: "same user may re-activate",
			raw:  "ABCD-EFGH-JKLM",
			setup: func(r *RepoMock, p *PublisherMock) {
				used := &models.LicenseKey{Key: "ABCD-EFGH-JKLM", Months: 6, UsedBy: ptr("uid-1")}
				r.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
				r.On("GetKey", mock.Anything, "ABCD-EFGH-JKLM").Return(used, nil).Once()
				r.On("MarkKeyUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				r.On("SetLicense", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
				p.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down")).Once()
			},
		},
		{
			name:    "empty key",
			raw:     "   ",
			setup:   func(_ *RepoMock, _ *PublisherMock) {},
			wantErr: models.ErrEmptyKey,
		},
		{
			name:    "malformed key",
			raw:     "hello",
			setup:   func(_ *RepoMock, _ *PublisherMock) {},
			wantErr: models.ErrKeyNotFound,
		},
		{
			name: "unknown key",
			raw:  "ZZZZ-ZZZZ-ZZZZ",
			setup: func(r *RepoMock, _ *PublisherMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
				r.On("GetKey", mock.Anything, "ZZZZ-ZZZZ-ZZZZ").Return(nil, models.ErrKeyNotFound).Once()
			},
			wantErr: models.ErrKeyNotFound,
		},
		{
			name: "revoked key",
			raw:  "ABCD-EFGH-JKLM",
			setup: func(r *RepoMock, _ *PublisherMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
				r.On("GetKey", mock.Anything, "ABCD-EFGH-JKLM").
					Return(&models.LicenseKey{Key: "ABCD-EFGH-JKLM", Revoked: true, UsedBy: ptr("uid-1")}, nil).Once()
			},
			wantErr: models.ErrKeyRevoked,
		},
		{
			name: "key used by another user",
			raw:  "ABCD-EFGH-JKLM",
			setup: func(r *RepoMock, _ *PublisherMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
				r.On("GetKey", mock.Anything, "ABCD-EFGH-JKLM").
					Return(&models.LicenseKey{Key: "ABCD-EFGH-JKLM", UsedBy: ptr("uid-2")}, nil).Once()
			},
			wantErr: models.ErrKeyAlreadyUsed,
		},
		{
			name: "lost race on claim",
			raw:  "ABCD-EFGH-JKLM",
			setup: func(r *RepoMock, _ *PublisherMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
				r.On("GetKey", mock.Anything, "ABCD-EFGH-JKLM").Return(okKey, nil).Once()
				r.On("MarkKeyUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
					Return(errors.New("storage.MarkKeyUsed: " + models.ErrKeyAlreadyUsed.Error())).Once()
			},
		},
		{
			name: "profile missing",
			raw:  "ABCD-EFGH-JKLM",
			setup: func(r *RepoMock, _ *PublisherMock) {
				r.On("GetUser", mock.Anything, "uid-1").Return(nil, models.ErrUserNotFound).Once()
			},
			wantErr: models.ErrUserNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, pub := new(RepoMock), new(PublisherMock)
			tt.setup(repo, pub)

			act, err := newService(repo, nil, pub, nil).Activate(context.Background(), principal, tt.raw)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, act)
			case tt.name == "lost race on claim":
				require.Error(t, err)
			default:
				require.NoError(t, err)
				assert.Equal(t, "ABCD-EFGH-JKLM", act.Key)
				assert.Equal(t, 6, act.Months)
				assert.True(t, wantExp.Equal(act.ExpiresAt))
				require.NotNil(t, act.OfflineCache)
				assert.Equal(t, fixedNow.UnixMilli(), act.OfflineCache.LastValidatedAt)
				assert.Equal(t, wantExp.UnixMilli(), act.OfflineCache.ExpiresAt)
			}
			repo.AssertExpectations(t)
			pub.AssertExpectations(t)
		})
	}
}

func TestGateService_Activate_DropsCachedLists(t *testing.T) {
	repo, c := new(RepoMock), new(CacheMock)
	repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
	repo.On("GetKey", mock.Anything, "ABCD-EFGH-JKLM").Return(&models.LicenseKey{Key: "ABCD-EFGH-JKLM", Months: 1}, nil).Once()
	repo.On("MarkKeyUsed", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("SetLicense", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	c.On("Set", mock.Anything, cache.AccessKey("uid-1"), mock.Anything, access.DefaultOfflineGrace).Return(nil).Once()
	c.On("Invalidate", mock.Anything, []string{cache.KeyAdminKeys, cache.KeyAdminUsers}).Return(nil).Once()

	_, err := newService(repo, c, nil, nil).Activate(context.Background(), principal, "ABCD-EFGH-JKLM")
	require.NoError(t, err)
	repo.AssertExpectations(t)
	c.AssertExpectations(t)
}

func TestGateService_Activate_FailedLookupKeepsCache(t *testing.T) {
	repo, c := new(RepoMock), new(CacheMock)
	repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
	repo.On("GetKey", mock.Anything, "ZZZZ-ZZZZ-ZZZZ").Return(nil, models.ErrKeyNotFound).Once()

	m := metrics.MustNew(prometheus.NewRegistry())
	_, err := newService(repo, c, nil, m).Activate(context.Background(), principal, "ZZZZ-ZZZZ-ZZZZ")
	require.ErrorIs(t, err, models.ErrKeyNotFound)

	_, err = newService(repo, c, nil, m).Activate(context.Background(), principal, "not-a-key")
	require.ErrorIs(t, err, models.ErrKeyNotFound)

	assert.InDelta(t, 2, testutil.ToFloat64(m.Activations.WithLabelValues("not_found")), 0)
	repo.AssertExpectations(t)
	c.AssertNotCalled(t, "Invalidate", mock.Anything, mock.Anything)
}

func TestGateService_Check_LicenseStampFails(t *testing.T) {
	repo, c := new(RepoMock), new(CacheMock)
	exp := fixedNow.Add(72 * time.Hour)
	profile := &models.User{
		UID:     "uid-1",
		License: models.License{Active: true, Key: "AAAA-BBBB-CCCC", ExpiresAt: &exp, Status: models.LicenseStatusActive},
	}
	repo.On("GetUser", mock.Anything, "uid-1").Return(profile, nil).Once()
	repo.On("SetActiveDevice", mock.Anything, "uid-1", "dev-a", fixedNow).Return(nil).Once()
	expectEnsure(repo, profile)
	repo.On("SetLastValidated", mock.Anything, "uid-1", fixedNow).Return(errors.New("connection reset")).Once()

	res, err := newService(repo, c, nil, nil).Check(context.Background(), principal, "dev-a")
	require.NoError(t, err)
	assert.True(t, res.Access.Allowed)
	assert.Equal(t, access.ModeLicense, res.Access.Mode)
	assert.Nil(t, res.OfflineCache)
	assert.Nil(t, res.Profile.LastValidatedAt)
	c.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repo.AssertExpectations(t)
}

func TestGateService_Activate_DefaultMonths(t *testing.T) {
	repo := new(RepoMock)
	wantExp := fixedNow.AddDate(0, 12, 0)
	repo.On("GetUser", mock.Anything, "uid-1").Return(&models.User{UID: "uid-1"}, nil).Once()
	repo.On("GetKey", mock.Anything, "ABCD-EFGH-JKLM").Return(&models.LicenseKey{Key: "ABCD-EFGH-JKLM"}, nil).Once()
	repo.On("MarkKeyUsed", mock.Anything, "ABCD-EFGH-JKLM", "uid-1", principal.Email, fixedNow, wantExp).Return(nil).Once()
	repo.On("SetLicense", mock.Anything, "uid-1", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	act, err := newService(repo, nil, nil, nil).Activate(context.Background(), principal, "ABCD-EFGH-JKLM")
	require.NoError(t, err)
	assert.Equal(t, 12, act.Months)
	repo.AssertExpectations(t)
}
