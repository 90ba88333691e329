package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/17marcomoreira-hue/sportswissapp/internal/models"
)

func TestStorage_Keys(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, storage.InsertKey(ctx, "AAAA-BBBB-CCCC", 12, now))
	require.ErrorIs(t, storage.InsertKey(ctx, "AAAA-BBBB-CCCC", 6, now), models.ErrKeyExists)
	require.NoError(t, storage.InsertKey(ctx, "DDDD-EEEE-FFFF", 6, now.Add(time.Second)))

	k, err := storage.GetKey(ctx, "AAAA-BBBB-CCCC")
	require.NoError(t, err)
	assert.Equal(t, 12, k.Months)
	assert.Nil(t, k.UsedBy)
	assert.Equal(t, "available", k.KeyState())

	_, err = storage.GetKey(ctx, "ZZZZ-ZZZZ-ZZZZ")
	require.ErrorIs(t, err, models.ErrKeyNotFound)

	keys, err := storage.ListKeys(ctx, 1000)
	require.NoError(t, err)
	require.Len(t, keys, 2)
	assert.Equal(t, "DDDD-EEEE-FFFF", keys[0].Key)

	require.NoError(t, storage.RevokeKey(ctx, "DDDD-EEEE-FFFF"))
	require.ErrorIs(t, storage.RevokeKey(ctx, "ZZZZ-ZZZZ-ZZZZ"), models.ErrKeyNotFound)
}

func TestStorage_MarkKeyUsed(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	f := newTestDataFactory(storage)
	alice := f.createProfile(t, "alice@example.com", now)
	bob := f.createProfile(t, "bob@example.com", now)

	require.NoError(t, storage.InsertKey(ctx, "AAAA-BBBB-CCCC", 12, now))
	require.NoError(t, storage.InsertKey(ctx, "REVO-KEDK-EYXX", 12, now))
	require.NoError(t, storage.RevokeKey(ctx, "REVO-KEDK-EYXX"))

	exp := now.AddDate(1, 0, 0)
	require.NoError(t, storage.MarkKeyUsed(ctx, "AAAA-BBBB-CCCC", alice, "alice@example.com", now, exp))
	// Повторная активация тем же пользователем разрешена.
	require.NoError(t, storage.MarkKeyUsed(ctx, "AAAA-BBBB-CCCC", alice, "alice@example.com", now, exp))

	err := storage.MarkKeyUsed(ctx, "AAAA-BBBB-CCCC", bob, "bob@example.com", now, exp)
	require.ErrorIs(t, err, models.ErrKeyAlreadyUsed)

	err = storage.MarkKeyUsed(ctx, "REVO-KEDK-EYXX", bob, "bob@example.com", now, exp)
	require.ErrorIs(t, err, models.ErrKeyRevoked)

	err = storage.MarkKeyUsed(ctx, "NONE-NONE-NONE", bob, "bob@example.com", now, exp)
	require.ErrorIs(t, err, models.ErrKeyNotFound)

	k, err := storage.GetKey(ctx, "AAAA-BBBB-CCCC")
	require.NoError(t, err)
	require.NotNil(t, k.UsedBy)
	assert.Equal(t, alice, *k.UsedBy)
	assert.Equal(t, "used", k.KeyState())
	require.NotNil(t, k.ExpiresAt)
	assert.True(t, exp.Equal(*k.ExpiresAt))
}

func TestStorage_MarkKeyUsed_Concurrent(t *testing.T) {
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Millisecond)
	f := newTestDataFactory(storage)
	uids := []string{
		f.createProfile(t, "u1@example.com", now),
		f.createProfile(t, "u2@example.com", now),
		f.createProfile(t, "u3@example.com", now),
	}
	require.NoError(t, storage.InsertKey(ctx, "RACE-RACE-RACE", 12, now))

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for _, uid := range uids {
		wg.Add(1)
		go func(uid string) {
			defer wg.Done()
			if err := storage.MarkKeyUsed(ctx, "RACE-RACE-RACE", uid, uid, now, now.AddDate(1, 0, 0)); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(uid)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}
