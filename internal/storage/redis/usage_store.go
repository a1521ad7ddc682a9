package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Samandar0813/darsbot/internal/storage"
	"github.com/redis/go-redis/v9"
)

const (
	usageKeyPrefix = "darsbot:usage:"
	usageIndexKey  = "darsbot:usage:ids"
)

type usageStore struct {
	client *redis.Client
}

func (s *usageStore) Get(ctx context.Context, userID string) (*storage.UsageRecord, error) {
	data, err := s.client.HGetAll(ctx, usageKeyPrefix+userID).Result()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, storage.ErrNotFound
	}
	return parseUsageRecord(data)
}

func (s *usageStore) Put(ctx context.Context, record storage.UsageRecord) error {
	key := usageKeyPrefix + record.UserID

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"user_id":      record.UserID,
		"count":        record.Count,
		"window_start": record.WindowStart.Format(time.RFC3339Nano),
	})
	pipe.SAdd(ctx, usageIndexKey, record.UserID)

	_, err := pipe.Exec(ctx)
	return err
}

func (s *usageStore) List(ctx context.Context) ([]storage.UsageRecord, error) {
	ids, err := s.client.SMembers(ctx, usageIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []storage.UsageRecord{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, usageKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, err
	}

	records := make([]storage.UsageRecord, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			continue
		}
		rec, err := parseUsageRecord(data)
		if err != nil {
			continue
		}
		records = append(records, *rec)
	}
	return records, nil
}

func parseUsageRecord(data map[string]string) (*storage.UsageRecord, error) {
	count, err := strconv.Atoi(data["count"])
	if err != nil {
		return nil, fmt.Errorf("parse count: %w", err)
	}
	windowStart, err := time.Parse(time.RFC3339Nano, data["window_start"])
	if err != nil {
		return nil, fmt.Errorf("parse window_start: %w", err)
	}
	return &storage.UsageRecord{
		UserID:      data["user_id"],
		Count:       count,
		WindowStart: windowStart,
	}, nil
}
