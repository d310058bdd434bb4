package reentry

import (
	"context"
	"errors"
	"testing"
	"time"

	"admitgate/lib/logger"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis keeps SetNX keys without expiring them.
type fakeRedis struct {
	keys map[string]time.Duration
	err  error
}

func (f *fakeRedis) SetNX(_ context.Context, key string, _ interface{}, expiration time.Duration) *redis.BoolCmd {
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	if _, ok := f.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	f.keys[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	var n int64
	for _, key := range keys {
		if _, ok := f.keys[key]; ok {
			delete(f.keys, key)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

func TestAllowAll(t *testing.T) {
	for i := 0; i < 3; i++ {
		ok, err := AllowAll{}.Admit(context.Background(), "E1", "U1", "S1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestWindowRejectsRepeat(t *testing.T) {
	fr := &fakeRedis{keys: map[string]time.Duration{}}
	w := &Window{rdb: fr, window: 10 * time.Minute, log: logger.Discard()}

	ok, err := w.Admit(context.Background(), "E1", "U1", "S1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = w.Admit(context.Background(), "E1", "U1", "S1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = w.Admit(context.Background(), "E1", "U1", "S2")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Equal(t, 10*time.Minute, fr.keys["admitgate:reentry:E1:U1:S1"])
	assert.NoError(t, w.Close())
}

func TestWindowReleaseFreesSlot(t *testing.T) {
	fr := &fakeRedis{keys: map[string]time.Duration{}}
	w := &Window{rdb: fr, window: time.Minute, log: logger.Discard()}

	ok, err := w.Admit(context.Background(), "E1", "U1", "S1")
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, w.Release(context.Background(), "E1", "U1", "S1"))
	assert.NotContains(t, fr.keys, "admitgate:reentry:E1:U1:S1")

	ok, err = w.Admit(context.Background(), "E1", "U1", "S1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWindowError(t *testing.T) {
	w := &Window{rdb: &fakeRedis{err: errors.New("connection refused")}, window: time.Minute, log: logger.Discard()}
	ok, err := w.Admit(context.Background(), "E1", "U1", "S1")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, w.Release(context.Background(), "E1", "U1", "S1"))
}
