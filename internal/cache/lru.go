// Package cache is a byte-size-bounded LRU over decoded frames, keyed
// by ordinal frame number.
package cache

import (
	"container/list"
	"sync"

	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/logging"
)

// DefaultMaxBytes is the cache's default byte budget.
const DefaultMaxBytes = 1 << 30 // 1 GiB

type entry struct {
	frameNumber int64
	frame       *decode.RawFrame
	size        int
}

// Cache is a byte-bounded LRU over decoded frames. All methods are safe
// for concurrent use, though in practice the random-access engine
// already serializes access to it under its own mutex.
type Cache struct {
	mu       sync.Mutex
	maxBytes int64
	curBytes int64
	ll       *list.List // front = MRU, back = LRU
	index    map[int64]*list.Element
}

// New returns a Cache with the given byte budget. A budget of 0 disables
// caching: Set becomes a silent no-op, so a zero-byte cache yields a 0%
// hit rate for any sweep.
func New(maxBytes int64) *Cache {
	return &Cache{
		maxBytes: maxBytes,
		ll:       list.New(),
		index:    make(map[int64]*list.Element),
	}
}

// Get returns a clone of the frame at frameNumber and moves it to MRU.
func (c *Cache) Get(frameNumber int64) (*decode.RawFrame, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[frameNumber]
	if !ok {
		return nil, false
	}
	c.ll.MoveToFront(el)
	e := el.Value.(*entry)
	return cloneFrame(e.frame), true
}

// Set inserts frame under frameNumber, evicting the prior copy if one
// exists (no duplicates) and then evicting LRU entries until the cache
// fits its byte budget.
func (c *Cache) Set(frameNumber int64, frame *decode.RawFrame) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxBytes <= 0 {
		return
	}

	if el, ok := c.index[frameNumber]; ok {
		c.removeElement(el)
	}

	size := frameSize(frame)
	el := c.ll.PushFront(&entry{frameNumber: frameNumber, frame: cloneFrame(frame), size: size})
	c.index[frameNumber] = el
	c.curBytes += int64(size)

	c.evictToBudget()
}

// Clear empties the cache. The engine calls this when it forcibly
// transitions to linear mode.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.index = make(map[int64]*list.Element)
	c.curBytes = 0
}

// SetMaxBytes changes the byte budget and evicts down to it immediately.
func (c *Cache) SetMaxBytes(maxBytes int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.maxBytes = maxBytes
	c.evictToBudget()
}

// Len returns the number of cached frames, mostly for tests.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

func (c *Cache) evictToBudget() {
	for c.curBytes > c.maxBytes && c.ll.Len() > 0 {
		back := c.ll.Back()
		if back == nil {
			break
		}
		c.removeElement(back)
	}
}

func (c *Cache) removeElement(el *list.Element) {
	e := el.Value.(*entry)
	c.ll.Remove(el)
	delete(c.index, e.frameNumber)
	c.curBytes -= int64(e.size)
	logging.Get().Debug("cache: evicted", "frame", e.frameNumber, "bytes", e.size)
}

func frameSize(f *decode.RawFrame) int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

func cloneFrame(f *decode.RawFrame) *decode.RawFrame {
	if f == nil {
		return nil
	}
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	side := make(map[string][]byte, len(f.SideData))
	for k, v := range f.SideData {
		cp := make([]byte, len(v))
		copy(cp, v)
		side[k] = cp
	}
	clone := *f
	clone.Data = data
	clone.SideData = side
	return &clone
}
