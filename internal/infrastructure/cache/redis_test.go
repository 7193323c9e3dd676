package cache

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(context.Background(), RedisConfig{URL: "not-a-redis-url"})
	assert.Error(t, err)
}

func TestNewRedisCacheFromClient_DefaultPrefix(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()

	c := NewRedisCacheFromClient(client, "")
	assert.Equal(t, defaultKeyPrefix, c.prefix)

	c = NewRedisCacheFromClient(client, "custom:")
	assert.Equal(t, "custom:", c.prefix)
}
