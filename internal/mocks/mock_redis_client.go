package mocks

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"
)

// MockRedisClient stubs the commands the snapshot cache issues. Any other
// command panics through the nil embedded client.
type MockRedisClient struct {
	mock.Mock
	redis.UniversalClient
}

func (m *MockRedisClient) Get(ctx context.Context, key string) *redis.StringCmd {
	args := m.Called(ctx, key)
	if cmd, ok := args.Get(0).(*redis.StringCmd); ok {
		return cmd
	}

	return redis.NewStringResult("", args.Error(1))
}

func (m *MockRedisClient) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	args := m.Called(ctx, key, value, expiration)
	if cmd, ok := args.Get(0).(*redis.StatusCmd); ok {
		return cmd
	}

	return redis.NewStatusResult("", args.Error(1))
}

// MockRedisError is a server reply error such as LOADING or READONLY.
type MockRedisError struct {
	Msg string
}

func (m MockRedisError) Error() string {
	return m.Msg
}

func (m MockRedisError) RedisError() {}
