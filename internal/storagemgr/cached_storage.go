package storagemgr

import (
	"github.com/coocood/freecache"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	kvCacheHitCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "storage",
		Name:      "kv_cache_hit_counter",
		Help:      "The total number of kv cache hit",
	})

	kvCacheMissCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "axiom_vault",
		Subsystem: "storage",
		Name:      "kv_cache_miss_counter",
		Help:      "The total number of kv cache miss",
	})
)

func init() {
	prometheus.MustRegister(kvCacheHitCounter)
	prometheus.MustRegister(kvCacheMissCounter)
}

var _ Storage = (*CachedStorage)(nil)

// CachedStorage keeps a read-through freecache in front of the backend.
// Deleted keys are evicted, never cached as tombstones.
type CachedStorage struct {
	Storage
	cache *freecache.Cache
}

func NewCachedStorage(s Storage, megabytesLimit int) *CachedStorage {
	if megabytesLimit <= 0 {
		megabytesLimit = 128
	}
	return &CachedStorage{
		Storage: s,
		cache:   freecache.NewCache(megabytesLimit * 1024 * 1024),
	}
}

func (c *CachedStorage) Get(key []byte) []byte {
	value, err := c.cache.Get(key)
	if err == nil {
		kvCacheHitCounter.Inc()
		return value
	}
	kvCacheMissCounter.Inc()
	v := c.Storage.Get(key)
	if v != nil {
		_ = c.cache.Set(key, v, 0)
	}
	return v
}

func (c *CachedStorage) Has(key []byte) bool {
	if _, err := c.cache.Get(key); err == nil {
		kvCacheHitCounter.Inc()
		return true
	}
	kvCacheMissCounter.Inc()
	return c.Storage.Has(key)
}

func (c *CachedStorage) Put(key, value []byte) {
	c.Storage.Put(key, value)
	_ = c.cache.Set(key, value, 0)
}

func (c *CachedStorage) Delete(key []byte) {
	c.cache.Del(key)
	c.Storage.Delete(key)
}

func (c *CachedStorage) Close() error {
	c.cache.Clear()
	return c.Storage.Close()
}

func (c *CachedStorage) NewBatch() Batch {
	return &BatchWrapper{
		Batch:      c.Storage.NewBatch(),
		cache:      c.cache,
		finalState: make(map[string][]byte),
	}
}

type BatchWrapper struct {
	Batch
	cache      *freecache.Cache
	finalState map[string][]byte
}

func (w *BatchWrapper) Put(key, value []byte) {
	w.finalState[string(key)] = value
	w.Batch.Put(key, value)
}

func (w *BatchWrapper) Delete(key []byte) {
	w.finalState[string(key)] = nil
	w.Batch.Delete(key)
}

func (w *BatchWrapper) Commit() {
	w.Batch.Commit()
	for k, v := range w.finalState {
		if v == nil {
			w.cache.Del([]byte(k))
		} else {
			_ = w.cache.Set([]byte(k), v, 0)
		}
	}
}

func (w *BatchWrapper) Reset() {
	w.Batch.Reset()
	w.finalState = make(map[string][]byte)
}
