// Package redismem implements provenance memory on Redis. Each mutation is
// a single synchronous command, so the record survives restarts and is safe
// to share across concurrent orchestration runs.
package redismem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arash-fz/docent/config"
	"github.com/arash-fz/docent/internal/memory"
)

const (
	sourcesKey     = "docent:memory:sources"
	summariesKey   = "docent:memory:summaries"
	topicKeyPrefix = "docent:memory:topics:"
)

type Store struct {
	client *redis.Client
}

// Connect opens a Redis connection and pings it; a failed ping is a
// construction-time configuration error.
func Connect(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		DialTimeout: timeout,
		Password:    cfg.Password,
		DB:          cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &Store{client: client}, nil
}

// New wraps an existing client.
func New(client *redis.Client) *Store { return &Store{client: client} }

func (s *Store) HasSource(ctx context.Context, url string) (bool, error) {
	return s.client.HExists(ctx, sourcesKey, url).Result()
}

func (s *Store) RegisterSource(ctx context.Context, url, sourceType, title string) error {
	data, err := json.Marshal(memory.SourceInfo{Type: sourceType, Title: title})
	if err != nil {
		return err
	}
	// HSetNX keeps registration idempotent: the first writer wins.
	return s.client.HSetNX(ctx, sourcesKey, url, data).Err()
}

func (s *Store) Sources(ctx context.Context) (map[string]memory.SourceInfo, error) {
	raw, err := s.client.HGetAll(ctx, sourcesKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]memory.SourceInfo, len(raw))
	for url, data := range raw {
		var info memory.SourceInfo
		if err := json.Unmarshal([]byte(data), &info); err != nil {
			return nil, fmt.Errorf("decode source %s: %w", url, err)
		}
		out[url] = info
	}
	return out, nil
}

func (s *Store) AddTopicSource(ctx context.Context, topic, url string) error {
	return s.client.SAdd(ctx, topicKeyPrefix+topic, url).Err()
}

func (s *Store) TopicSources(ctx context.Context, topic string) ([]string, error) {
	return s.client.SMembers(ctx, topicKeyPrefix+topic).Result()
}

func (s *Store) SaveSummary(ctx context.Context, url, summary string) error {
	return s.client.HSet(ctx, summariesKey, url, summary).Err()
}

func (s *Store) Summary(ctx context.Context, url string) (string, bool, error) {
	val, err := s.client.HGet(ctx, summariesKey, url).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return val, true, nil
}

var _ memory.Memory = (*Store)(nil)
