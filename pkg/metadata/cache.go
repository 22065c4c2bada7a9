package metadata

import (
	"sync"
)

// Cache is the interface that the fetcher uses for memoizing enrichment data.
// A package user must pass an implementation of this interface.
// Usually you create a simple wrapper around an existing cache package.
// An example implementation is the InMemoryCache in this package.
// Entries never expire, so there's no creation time to keep track of.
type Cache interface {
	Set(key string, meta Metadata) error
	Get(key string) (Metadata, bool, error)
}

var _ Cache = (*InMemoryCache)(nil)

// InMemoryCache is an example implementation of the Cache interface.
// It doesn't persist its data, which is fine here because upstream
// metadata is effectively static and cheap to re-fetch after a restart.
type InMemoryCache struct {
	cache map[string]Metadata
	lock  *sync.RWMutex
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		cache: map[string]Metadata{},
		lock:  &sync.RWMutex{},
	}
}

// Set stores a metadata object in the cache.
func (c *InMemoryCache) Set(key string, meta Metadata) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cache[key] = meta
	return nil
}

// Get returns a metadata object from the cache.
// The boolean return value signals if the value was found in the cache.
func (c *InMemoryCache) Get(key string) (Metadata, bool, error) {
	c.lock.RLock()
	defer c.lock.RUnlock()
	meta, found := c.cache[key]
	return meta, found, nil
}
