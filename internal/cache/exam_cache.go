package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exam-portal/internal/config"
	"github.com/stemsi/exam-portal/internal/model"
)

// ErrMiss is returned when the requested entry is not cached.
var ErrMiss = errors.New("cache miss")

// ExamCache keeps server-side exam snapshots in Redis. A snapshot includes the
// answer key, so it is only ever read by the grading path and the catalog,
// never returned to a client as-is.
type ExamCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewExamCache creates a new ExamCache. A zero ttl keeps entries forever.
func NewExamCache(rdb *redis.Client, ttl time.Duration) *ExamCache {
	return &ExamCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached snapshot for an exam id.
func (c *ExamCache) Get(ctx context.Context, examID uuid.UUID) (*model.Exam, error) {
	data, err := c.rdb.Get(ctx, config.CacheKey.ExamSnapshotKey(examID.String())).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("get snapshot: %w", err)
	}

	var exam model.Exam
	if err := json.Unmarshal(data, &exam); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &exam, nil
}

// LookupCode resolves an access code to an exam id.
func (c *ExamCache) LookupCode(ctx context.Context, code string) (uuid.UUID, error) {
	val, err := c.rdb.Get(ctx, config.CacheKey.ExamCodeKey(code)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, ErrMiss
		}
		return uuid.Nil, fmt.Errorf("get code index: %w", err)
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid exam id in code index: %w", err)
	}
	return id, nil
}

// Put stores the snapshot and its code index together.
func (c *ExamCache) Put(ctx context.Context, exam *model.Exam) error {
	data, err := json.Marshal(exam)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, config.CacheKey.ExamSnapshotKey(exam.ID.String()), data, c.ttl)
	pipe.Set(ctx, config.CacheKey.ExamCodeKey(exam.AccessCode), exam.ID.String(), c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}
	return nil
}
