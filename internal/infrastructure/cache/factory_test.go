package cache

import (
	"testing"

	"github.com/rtmanagement/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// unreachableRedis points at a port nothing listens on
var unreachableRedis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

func TestIdempotencyStoreFactory_NoRedisConfigured(t *testing.T) {
	f := NewIdempotencyStoreFactory(config.RedisConfig{}, WithLogger(zaptest.NewLogger(t)), WithInMemoryFallback(false))

	store, err := f.CreateStore()
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_FallbackToInMemory(t *testing.T) {
	f := NewIdempotencyStoreFactory(unreachableRedis)

	store, err := f.CreateStore()
	require.NoError(t, err)
	defer store.Close()
	assert.IsType(t, &InMemoryIdempotencyStore{}, store)
}

func TestIdempotencyStoreFactory_RedisRequired(t *testing.T) {
	f := NewIdempotencyStoreFactory(unreachableRedis, WithInMemoryFallback(false))

	store, err := f.CreateStore()
	require.Error(t, err)
	assert.Nil(t, store)
	assert.Contains(t, err.Error(), "redis required for idempotency")
}

func TestNewRedisIdempotencyStore_NoHost(t *testing.T) {
	_, err := NewRedisIdempotencyStore(config.RedisConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestNewRedisIdempotencyStoreWithClient_DefaultPrefix(t *testing.T) {
	store := NewRedisIdempotencyStoreWithClient(nil, "")
	assert.Equal(t, defaultKeyPrefix, store.keyPrefix)

	store = NewRedisIdempotencyStoreWithClient(nil, "custom:")
	assert.Equal(t, "custom:", store.keyPrefix)
}
