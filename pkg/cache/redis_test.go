package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockRedisCache struct {
	mock.Mock
	data map[string]interface{}
}

func NewMockRedisCache() *MockRedisCache {
	return &MockRedisCache{
		data: make(map[string]interface{}),
	}
}

func (m *MockRedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockRedisCache) SetWithTTL(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	if args.Error(0) == nil {
		m.data[key] = value
	}
	return args.Error(0)
}

func (m *MockRedisCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	if args.Error(0) == nil {
		delete(m.data, key)
	}
	return args.Error(0)
}

func (m *MockRedisCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestRedisCache_SetAndGet(t *testing.T) {
	mockCache := NewMockRedisCache()
	ctx := context.Background()

	type TestData struct {
		ID   string
		Name string
	}

	testData := TestData{ID: "123", Name: "test"}
	key := "test:key"

	mockCache.On("SetWithTTL", ctx, key, testData, time.Hour).Return(nil)
	mockCache.On("Get", ctx, key, mock.AnythingOfType("*cache.TestData")).Return(nil)

	err := mockCache.SetWithTTL(ctx, key, testData, time.Hour)
	assert.NoError(t, err)
	assert.Contains(t, mockCache.data, key)

	var retrieved TestData
	err = mockCache.Get(ctx, key, &retrieved)
	assert.NoError(t, err)

	mockCache.AssertExpectations(t)
}

func TestRedisCache_Delete(t *testing.T) {
	mockCache := NewMockRedisCache()
	ctx := context.Background()
	key := "test:key"

	mockCache.data[key] = "value"

	mockCache.On("Delete", ctx, key).Return(nil)

	err := mockCache.Delete(ctx, key)
	assert.NoError(t, err)
	assert.NotContains(t, mockCache.data, key)

	mockCache.AssertExpectations(t)
}

func TestTranscriptCacheKey(t *testing.T) {
	key := TranscriptCacheKey("AgADBAAD")
	assert.Equal(t, "transcript:AgADBAAD", key)
}
