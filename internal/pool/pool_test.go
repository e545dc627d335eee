package pool

import "testing"

type fakeHandle struct {
	cur    int64
	seeked bool
}

func (f *fakeHandle) CurrentFrameNumber() int64 { return f.cur }
func (f *fakeHandle) HasSeeked() bool           { return f.seeked }

func TestPutFillsCapacityThenEvictsLRU(t *testing.T) {
	p := New(2)
	a := &fakeHandle{cur: 1}
	b := &fakeHandle{cur: 2}
	c := &fakeHandle{cur: 3}

	if evicted, ok := p.Put(a); ok || evicted != nil {
		t.Fatal("Put(a): expected no eviction, pool not full")
	}
	if evicted, ok := p.Put(b); ok || evicted != nil {
		t.Fatal("Put(b): expected no eviction, pool not full")
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", p.Len())
	}

	evicted, ok := p.Put(c)
	if !ok || evicted != a {
		t.Fatalf("Put(c): expected eviction of a (LRU), got %v ok=%v", evicted, ok)
	}
	if p.Len() != 2 {
		t.Fatalf("Len() = %d after eviction, want 2", p.Len())
	}
}

func TestTouchUpdatesRecency(t *testing.T) {
	p := New(2)
	a := &fakeHandle{cur: 1}
	b := &fakeHandle{cur: 2}
	p.Put(a)
	p.Put(b)

	p.Touch(a) // a is now MRU, b is LRU

	c := &fakeHandle{cur: 3}
	evicted, ok := p.Put(c)
	if !ok || evicted != b {
		t.Fatalf("Put(c): expected eviction of b after Touch(a), got %v ok=%v", evicted, ok)
	}
}

func TestReuseCandidateClosestBelowOrEqual(t *testing.T) {
	p := New(4)
	p.Put(&fakeHandle{cur: 5})
	p.Put(&fakeHandle{cur: 20})
	p.Put(&fakeHandle{cur: 12})

	h, ok := p.ReuseCandidate(15, false)
	if !ok {
		t.Fatal("ReuseCandidate(15): expected a candidate")
	}
	if h.(*fakeHandle).cur != 12 {
		t.Fatalf("ReuseCandidate(15) cur = %d, want 12 (closest <= 15)", h.(*fakeHandle).cur)
	}
}

func TestReuseCandidateNoneBelowTarget(t *testing.T) {
	p := New(4)
	p.Put(&fakeHandle{cur: 20})
	p.Put(&fakeHandle{cur: 30})

	if _, ok := p.ReuseCandidate(5, false); ok {
		t.Fatal("ReuseCandidate(5): expected no candidate, all handles are ahead")
	}
}

func TestReuseCandidateRequireNoSeekExcludesSeeked(t *testing.T) {
	p := New(4)
	p.Put(&fakeHandle{cur: 10, seeked: true})
	p.Put(&fakeHandle{cur: 8, seeked: false})

	h, ok := p.ReuseCandidate(10, true)
	if !ok {
		t.Fatal("ReuseCandidate(10, requireNoSeek): expected the unseeked handle")
	}
	if h.(*fakeHandle).cur != 8 {
		t.Fatalf("ReuseCandidate cur = %d, want 8", h.(*fakeHandle).cur)
	}
}

func TestRemoveDropsHandle(t *testing.T) {
	p := New(4)
	a := &fakeHandle{cur: 1}
	p.Put(a)
	p.Remove(a)
	if p.Len() != 0 {
		t.Fatalf("Len() = %d after Remove, want 0", p.Len())
	}
}

func TestForceLinearClearsAndShrinksCapacity(t *testing.T) {
	p := New(4)
	p.Put(&fakeHandle{cur: 1})
	p.Put(&fakeHandle{cur: 2})

	evicted := p.ForceLinear()
	if len(evicted) != 2 {
		t.Fatalf("ForceLinear returned %d handles, want 2", len(evicted))
	}
	if p.Len() != 0 {
		t.Fatalf("Len() = %d after ForceLinear, want 0", p.Len())
	}
	if p.Capacity() != 1 {
		t.Fatalf("Capacity() = %d after ForceLinear, want 1", p.Capacity())
	}
}

func TestNewClampsCapacityToOne(t *testing.T) {
	p := New(0)
	if p.Capacity() != 1 {
		t.Fatalf("Capacity() = %d, want 1", p.Capacity())
	}
}
