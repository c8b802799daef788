package ist_test

import (
	"fmt"
	"sync"

	"github.com/dutow/galera/ist"
)

// memCache is an in-memory ist.Cache backed by a fixed, pre-populated
// slice of buffers, standing in for the real write-set cache in tests.
type memCache struct {
	mu      sync.Mutex
	buffers []ist.CacheBuffer
	first   ist.Seqno
}

func newMemCache(buffers []ist.CacheBuffer) *memCache {
	first := ist.Seqno(0)
	if len(buffers) > 0 {
		first = buffers[0].Seqno
	}
	return &memCache{buffers: buffers, first: first}
}

func (c *memCache) Lock()   {}
func (c *memCache) Unlock() {}

func (c *memCache) SeqnoGetBuffers(dst []ist.CacheBuffer, first ist.Seqno) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.buffers) == 0 || first < c.first {
		return 0, fmt.Errorf("memcache: seqno %d not available", first)
	}
	idx := int(first - c.first)
	if idx >= len(c.buffers) {
		return 0, nil
	}
	n := copy(dst, c.buffers[idx:])
	return n, nil
}
