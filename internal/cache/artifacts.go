package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andresuchdata/autotransfer/backend-go/internal/config"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

const (
	artifactKeyPrefix    = "transfer:artifact"
	defaultMemoryEntries = 256
)

// Artifact is one downloadable file produced by a run
type Artifact struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// ArtifactCache keeps rendered run outputs available for download for a limited time.
type ArtifactCache interface {
	Put(ctx context.Context, runID, name string, artifact Artifact) error
	Get(ctx context.Context, runID, name string) (*Artifact, bool, error)
	InvalidateRun(ctx context.Context, runID string) error
}

// NewArtifactCache returns the redis cache when caching is enabled and an
// in-process expiring LRU otherwise.
func NewArtifactCache(cfg config.CacheConfig) (ArtifactCache, error) {
	if !cfg.Enabled {
		return NewMemoryArtifactCache(cfg.MemoryEntries, artifactTTL(cfg)), nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisArtifactCache{
		client: client,
		ttl:    ttl,
	}, nil
}

type redisArtifactCache struct {
	client *redis.Client
	ttl    time.Duration
}

func (c *redisArtifactCache) Put(ctx context.Context, runID, name string, artifact Artifact) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("encode artifact cache: %w", err)
	}

	if err := c.client.Set(ctx, buildArtifactKey(runID, name), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisArtifactCache) Get(ctx context.Context, runID, name string) (*Artifact, bool, error) {
	payload, err := c.client.Get(ctx, buildArtifactKey(runID, name)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, false, fmt.Errorf("decode artifact cache: %w", err)
	}
	return &artifact, true, nil
}

func (c *redisArtifactCache) InvalidateRun(ctx context.Context, runID string) error {
	return deleteKeysWithPrefix(ctx, c.client, runPrefix(runID), scanBatchSize)
}

type memoryArtifactCache struct {
	lru *expirable.LRU[string, Artifact]
}

// NewMemoryArtifactCache builds a bounded cache whose entries expire after ttl.
func NewMemoryArtifactCache(size int, ttl time.Duration) ArtifactCache {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &memoryArtifactCache{lru: expirable.NewLRU[string, Artifact](size, nil, ttl)}
}

func (c *memoryArtifactCache) Put(_ context.Context, runID, name string, artifact Artifact) error {
	c.lru.Add(buildArtifactKey(runID, name), artifact)
	return nil
}

func (c *memoryArtifactCache) Get(_ context.Context, runID, name string) (*Artifact, bool, error) {
	artifact, ok := c.lru.Get(buildArtifactKey(runID, name))
	if !ok {
		return nil, false, nil
	}
	return &artifact, true, nil
}

func (c *memoryArtifactCache) InvalidateRun(_ context.Context, runID string) error {
	prefix := runPrefix(runID)
	for _, key := range c.lru.Keys() {
		if strings.HasPrefix(key, prefix) {
			c.lru.Remove(key)
		}
	}
	return nil
}

func runPrefix(runID string) string {
	return fmt.Sprintf("%s:%s:", artifactKeyPrefix, runID)
}

func buildArtifactKey(runID, name string) string {
	return runPrefix(runID) + name
}
