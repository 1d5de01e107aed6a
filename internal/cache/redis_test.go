package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRedis implements the two commands the store uses.
type fakeRedis struct {
	redis.Cmdable
	data    map[string]string
	ttl     time.Duration
	failGet bool
}

func (f *fakeRedis) Get(ctx context.Context, key string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx, "get", key)
	switch v, ok := f.data[key]; {
	case f.failGet:
		cmd.SetErr(errors.New("connection reset"))
	case ok:
		cmd.SetVal(v)
	default:
		cmd.SetErr(redis.Nil)
	}
	return cmd
}

func (f *fakeRedis) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	cmd := redis.NewStatusCmd(ctx, "set", key)
	b, _ := value.([]byte)
	f.data[key] = string(b)
	f.ttl = expiration
	cmd.SetVal("OK")
	return cmd
}

func TestStore_RoundTrip(t *testing.T) {
	fake := &fakeRedis{data: map[string]string{}}
	s := &Store{Client: fake, TTL: 15 * time.Minute}
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "search:leche:28001:20")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set(ctx, "search:leche:28001:20", []byte(`[{"id":"1"}]`)))
	assert.Contains(t, fake.data, "mercabridge:search:leche:28001:20")
	assert.Equal(t, 15*time.Minute, fake.ttl)

	val, ok, err := s.Get(ctx, "search:leche:28001:20")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `[{"id":"1"}]`, string(val))
}

func TestStore_GetError(t *testing.T) {
	s := &Store{Client: &fakeRedis{data: map[string]string{}, failGet: true}}

	_, ok, err := s.Get(context.Background(), "k")

	assert.Error(t, err)
	assert.False(t, ok)
}

func TestConnect_BadURL(t *testing.T) {
	_, err := Connect(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), "redis://127.0.0.1:1/0")
	assert.ErrorIs(t, err, ErrUnavailable)
}
