package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/tkserver/internal/model"
	"github.com/mcoot/tkserver/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
// The snapshot is one JSON string; the membership list is a Redis LIST
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewWithClient(client, cfg), nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = DefaultConfig().KeyPrefix
	}
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Identity snapshot operations

func (s *Storage) LoadRecords(ctx context.Context) ([]model.IdentityRecord, error) {
	data, err := s.client.Get(ctx, s.recordsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	var records []model.IdentityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.IdentityRecord{}
	}
	return records, nil
}

func (s *Storage) SaveRecords(ctx context.Context, records []model.IdentityRecord) error {
	if records == nil {
		records = []model.IdentityRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.recordsKey(), data, 0).Err()
}

// Membership list operations

func (s *Storage) LoadMembers(ctx context.Context) ([]string, error) {
	key := s.membersKey()

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, model.ErrSnapshotNotFound
	}

	return s.client.LRange(ctx, key, 0, -1).Result()
}

func (s *Storage) SaveMembers(ctx context.Context, ids []string) error {
	key := s.membersKey()

	// Replace the whole list atomically
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	if len(ids) > 0 {
		members := make([]interface{}, len(ids))
		for i, id := range ids {
			members[i] = id
		}
		pipe.RPush(ctx, key, members...)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) TruncateMembers(ctx context.Context, maxLines int) (bool, error) {
	key := s.membersKey()

	n, err := s.client.LLen(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, model.ErrSnapshotNotFound
	}
	if n <= int64(maxLines) {
		return false, nil
	}
	if maxLines <= 0 {
		return true, s.client.Del(ctx, key).Err()
	}
	if err := s.client.LTrim(ctx, key, 0, int64(maxLines)-1).Err(); err != nil {
		return false, err
	}
	return true, nil
}
