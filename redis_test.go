package main

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore connects to REDIS_ADDR and skips the test when it is not set.
func newTestStore(t *testing.T) *chatStore {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() { rdb.Close() })

	s := newChatStore(rdb)
	require.NoError(t, s.Ping(context.Background()))
	return s
}

func TestChatMode(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const chatID = -100123
	t.Cleanup(func() { s.rdb.Del(ctx, "chat:-100123:mode") })

	mode, err := s.getChatMode(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, ChatModeNormal, mode)

	require.NoError(t, s.setChatMode(ctx, chatID, ChatModeFocus))
	mode, err = s.getChatMode(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, ChatModeFocus, mode)
}

func TestUserImages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	const userID = 424242
	require.NoError(t, s.clearUserImages(ctx, userID))
	t.Cleanup(func() { s.clearUserImages(ctx, userID) })

	first, err := s.saveUserImage(ctx, userID, "a fox", "fox, snow", "file-1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.ID)

	for i := 0; i < maxStoredImages+5; i++ {
		_, err := s.saveUserImage(ctx, userID, "a cat", "cat", "file-n")
		require.NoError(t, err)
	}

	images, err := s.getUserImages(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, images, maxStoredImages)
	assert.Equal(t, "a cat", images[0].Description)
	for _, img := range images {
		assert.NotEqual(t, first.ID, img.ID)
	}

	require.NoError(t, s.clearUserImages(ctx, userID))
	images, err = s.getUserImages(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, images)
}
