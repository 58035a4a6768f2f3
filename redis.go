package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const maxStoredImages = 20

// chatStore keeps per-chat activation modes and per-user image history in Redis.
type chatStore struct {
	rdb *redis.Client
}

func newRedisClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	})
}

func newChatStore(rdb *redis.Client) *chatStore {
	return &chatStore{rdb: rdb}
}

func (s *chatStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *chatStore) getChatMode(ctx context.Context, chatID int64) (ChatMode, error) {
	key := fmt.Sprintf("chat:%d:mode", chatID)
	mode, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		// If no mode is set, chats start in keyword mode
		return ChatModeNormal, nil
	}
	if err != nil {
		return "", fmt.Errorf("redis get error: %w", err)
	}
	return ChatMode(mode), nil
}

func (s *chatStore) setChatMode(ctx context.Context, chatID int64, mode ChatMode) error {
	key := fmt.Sprintf("chat:%d:mode", chatID)
	return s.rdb.Set(ctx, key, string(mode), 0).Err()
}

// saveUserImage records a delivered image, keeping the most recent
// maxStoredImages per user.
func (s *chatStore) saveUserImage(ctx context.Context, userID int64, description, prompt, fileID string) (ImageRecord, error) {
	record := ImageRecord{
		ID:          uuid.NewString(),
		Description: description,
		Prompt:      prompt,
		FileID:      fileID,
		Date:        time.Now().UTC(),
	}
	data, err := json.Marshal(record)
	if err != nil {
		return ImageRecord{}, fmt.Errorf("json marshal error: %w", err)
	}

	key := fmt.Sprintf("user:%d:images", userID)
	pipe := s.rdb.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, maxStoredImages-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return ImageRecord{}, fmt.Errorf("redis save image error: %w", err)
	}
	return record, nil
}

// getUserImages returns the user's images, newest first.
func (s *chatStore) getUserImages(ctx context.Context, userID int64) ([]ImageRecord, error) {
	key := fmt.Sprintf("user:%d:images", userID)
	items, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange error: %w", err)
	}

	images := make([]ImageRecord, 0, len(items))
	for _, item := range items {
		var record ImageRecord
		if err := json.Unmarshal([]byte(item), &record); err != nil {
			return nil, fmt.Errorf("json unmarshal error: %w", err)
		}
		images = append(images, record)
	}
	return images, nil
}

func (s *chatStore) clearUserImages(ctx context.Context, userID int64) error {
	key := fmt.Sprintf("user:%d:images", userID)
	return s.rdb.Del(ctx, key).Err()
}
