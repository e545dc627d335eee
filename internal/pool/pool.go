// Package pool is a small fixed-capacity array of warm decoder handles
// with LRU eviction.
package pool

import "github.com/e7canasta/bsvideo/internal/logging"

// DefaultCapacity is the pool's recommended size.
const DefaultCapacity = 4

// Handle is the subset of *decode.Handle the pool needs to make
// reuse/eviction decisions. Kept as an interface so pool tests run
// against fakes instead of real GStreamer pipelines.
type Handle interface {
	CurrentFrameNumber() int64
	HasSeeked() bool
}

type slot struct {
	handle   Handle
	lastUsed uint64
}

// Pool is a fixed-capacity set of warm decoder handles.
type Pool struct {
	slots    []slot
	capacity int
	clock    uint64
}

// New returns an empty Pool with the given capacity.
func New(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}
	return &Pool{capacity: capacity}
}

// Capacity returns the pool's current logical capacity (1 after
// ForceLinear, otherwise the value passed to New).
func (p *Pool) Capacity() int { return p.capacity }

// Len returns the number of handles currently held.
func (p *Pool) Len() int { return len(p.slots) }

// ReuseCandidate selects the slot whose decoder's current_frame_number
// is <= n and closest to n; if
// requireNoSeek, only handles that have never seeked are eligible.
func (p *Pool) ReuseCandidate(n int64, requireNoSeek bool) (Handle, bool) {
	var best Handle
	bestDistance := int64(-1)

	for _, s := range p.slots {
		cur := s.handle.CurrentFrameNumber()
		if cur < 0 || cur > n {
			continue
		}
		if requireNoSeek && s.handle.HasSeeked() {
			continue
		}
		distance := n - cur
		if bestDistance < 0 || distance < bestDistance {
			best = s.handle
			bestDistance = distance
		}
	}
	return best, best != nil
}

// Touch updates h's last-used clock, marking it MRU.
func (p *Pool) Touch(h Handle) {
	for i := range p.slots {
		if p.slots[i].handle == h {
			p.clock++
			p.slots[i].lastUsed = p.clock
			return
		}
	}
}

// Put inserts h into the pool, evicting the least-recently-used handle
// if every slot is occupied. It returns the evicted handle (if any) so
// the caller — which owns decoder lifetimes — can Close it.
func (p *Pool) Put(h Handle) (evicted Handle, evictedOK bool) {
	p.clock++
	if len(p.slots) < p.capacity {
		p.slots = append(p.slots, slot{handle: h, lastUsed: p.clock})
		return nil, false
	}

	lruIdx := 0
	for i, s := range p.slots {
		if s.lastUsed < p.slots[lruIdx].lastUsed {
			lruIdx = i
		}
	}
	evicted = p.slots[lruIdx].handle
	p.slots[lruIdx] = slot{handle: h, lastUsed: p.clock}
	return evicted, true
}

// Remove drops h from the pool without closing it (the caller has
// already closed or is about to close it directly).
func (p *Pool) Remove(h Handle) {
	for i, s := range p.slots {
		if s.handle == h {
			p.slots = append(p.slots[:i], p.slots[i+1:]...)
			return
		}
	}
}

// All returns every handle currently pooled, for iteration during
// continuation checks.
func (p *Pool) All() []Handle {
	out := make([]Handle, len(p.slots))
	for i, s := range p.slots {
		out[i] = s.handle
	}
	return out
}

// ForceLinear destroys every pooled handle and drops the pool's logical
// capacity to 1, the state once the engine commits to linear-only
// decoding. It returns the handles the caller must Close.
func (p *Pool) ForceLinear() []Handle {
	out := p.All()
	p.slots = nil
	p.capacity = 1
	logging.Get().Warn("pool: forced to linear mode, capacity now 1")
	return out
}
