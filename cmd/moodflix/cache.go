package main

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/doingodswork/moodflix/pkg/metadata"
)

func registerTypes() {
	// For the Redis-backed metadata cache
	gob.Register(metadata.Metadata{})
}

var _ metadata.Cache = (*metaCache)(nil)

// metaCache is the metadata cache backed by github.com/patrickmn/go-cache.
// Entries are stored without expiration - upstream metadata is treated as static.
type metaCache struct {
	cache *gocache.Cache
}

// Set implements the metadata.Cache interface.
func (c *metaCache) Set(key string, meta metadata.Metadata) error {
	c.cache.Set(key, meta, gocache.NoExpiration)
	return nil
}

// Get implements the metadata.Cache interface.
func (c *metaCache) Get(key string) (metadata.Metadata, bool, error) {
	metaIface, found := c.cache.Get(key)
	if !found {
		return metadata.Metadata{}, found, nil
	}
	meta, ok := metaIface.(metadata.Metadata)
	if !ok {
		return metadata.Metadata{}, found, fmt.Errorf("Couldn't cast cached value to metadata.Metadata: type was: %T", metaIface)
	}
	return meta, found, nil
}

var _ metadata.Cache = (*redisMetaCache)(nil)

// redisMetaCache is the metadata cache backed by Redis, for deployments where
// several service instances should share one cache. Values are gob-encoded.
type redisMetaCache struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// Set implements the metadata.Cache interface.
func (c *redisMetaCache) Set(key string, meta metadata.Metadata) error {
	writer := bytes.Buffer{}
	encoder := gob.NewEncoder(&writer)
	if err := encoder.Encode(meta); err != nil {
		return fmt.Errorf("Couldn't encode metadata: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.rdb.Set(ctx, key, writer.Bytes(), 0).Err(); err != nil {
		return fmt.Errorf("Couldn't set metadata in Redis: %v", err)
	}
	return nil
}

// Get implements the metadata.Cache interface.
func (c *redisMetaCache) Get(key string) (metadata.Metadata, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return metadata.Metadata{}, false, nil
	} else if err != nil {
		return metadata.Metadata{}, false, fmt.Errorf("Couldn't get metadata from Redis: %v", err)
	}
	var meta metadata.Metadata
	decoder := gob.NewDecoder(bytes.NewReader(data))
	if err := decoder.Decode(&meta); err != nil {
		return metadata.Metadata{}, true, fmt.Errorf("Couldn't decode metadata: %v", err)
	}
	return meta, true, nil
}

func logCacheStats(goCaches map[string]*gocache.Cache, logger *zap.Logger) {
	for name, goCache := range goCaches {
		logger.Info("Cache stats", zap.String("cache", name), zap.Int("itemCount", goCache.ItemCount()))
	}
}
