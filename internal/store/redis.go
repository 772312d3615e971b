package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisScoreKey   = "health:score:%s"
	redisHistoryKey = "health:history:%s"
	redisHistoryCap = 100
	redisDefaultTTL = 0
)

// RedisStore shares the previous scores between service replicas. The latest
// score is a plain key; history is a capped list of JSON records.
type RedisStore struct {
	client redis.Cmdable
	now    func() time.Time
}

// NewRedisStore wraps a connected client
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, now: time.Now}
}

// Get returns the most recent score for a project
func (r *RedisStore) Get(ctx context.Context, projectID string) (float64, bool, error) {
	score, err := r.client.Get(ctx, fmt.Sprintf(redisScoreKey, projectID)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read score from redis: %w", err)
	}
	return score, true, nil
}

// Put sets the latest score and prepends it to the history list in one transaction
func (r *RedisStore) Put(ctx context.Context, projectID string, score float64) error {
	if err := validScore(score); err != nil {
		return err
	}

	record, err := json.Marshal(ScoreRecord{
		ProjectID:  projectID,
		Score:      score,
		RecordedAt: r.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode score record: %w", err)
	}

	historyKey := fmt.Sprintf(redisHistoryKey, projectID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, fmt.Sprintf(redisScoreKey, projectID), score, redisDefaultTTL)
		pipe.LPush(ctx, historyKey, record)
		pipe.LTrim(ctx, historyKey, 0, redisHistoryCap-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write score to redis: %w", err)
	}
	return nil
}

// History returns up to limit records, newest first
func (r *RedisStore) History(ctx context.Context, projectID string, limit int) ([]ScoreRecord, error) {
	raw, err := r.client.LRange(ctx, fmt.Sprintf(redisHistoryKey, projectID), 0, int64(historyLimit(limit)-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read score history from redis: %w", err)
	}

	records := make([]ScoreRecord, 0, len(raw))
	for _, item := range raw {
		var rec ScoreRecord
		if err := json.Unmarshal([]byte(item), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode score record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}
