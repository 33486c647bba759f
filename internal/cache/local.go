package cache

import (
	"sync"
	"sync/atomic"
	"time"
)

type localItem struct {
	value      string
	expiration int64
}

// LocalCache is the in-process tier: a TTL map with a background sweeper.
// When full, an arbitrary entry is evicted.
type LocalCache struct {
	items   map[string]localItem
	mu      sync.RWMutex
	maxSize int

	hits   int64
	misses int64

	stop     chan struct{}
	stopOnce sync.Once
}

func NewLocalCache(maxSize int, sweepInterval time.Duration) *LocalCache {
	c := &LocalCache{
		items:   make(map[string]localItem),
		maxSize: maxSize,
		stop:    make(chan struct{}),
	}

	go c.cleanup(sweepInterval)

	return c
}

func (c *LocalCache) Get(key string) (string, bool) {
	c.mu.RLock()
	item, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || time.Now().UnixNano() > item.expiration {
		atomic.AddInt64(&c.misses, 1)
		return "", false
	}

	atomic.AddInt64(&c.hits, 1)
	return item.value, true
}

func (c *LocalCache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists && c.maxSize > 0 && len(c.items) >= c.maxSize {
		for k := range c.items {
			delete(c.items, k)
			break
		}
	}

	c.items[key] = localItem{
		value:      value,
		expiration: time.Now().Add(ttl).UnixNano(),
	}
}

func (c *LocalCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Flush drops every entry and returns how many were removed.
func (c *LocalCache) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	c.items = make(map[string]localItem)
	return n
}

func (c *LocalCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *LocalCache) HitRate() float64 {
	hits := atomic.LoadInt64(&c.hits)
	total := hits + atomic.LoadInt64(&c.misses)
	if total == 0 {
		return 0.0
	}
	return float64(hits) / float64(total)
}

// Close stops the sweeper. It is safe to call more than once.
func (c *LocalCache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *LocalCache) cleanup(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *LocalCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now().UnixNano()
	for key, item := range c.items {
		if now > item.expiration {
			delete(c.items, key)
		}
	}
}
