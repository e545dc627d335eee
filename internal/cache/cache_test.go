package cache

import (
	"testing"

	"github.com/e7canasta/bsvideo/internal/decode"
)

func frame(n int64, size int) *decode.RawFrame {
	return &decode.RawFrame{PTS: n, Data: make([]byte, size)}
}

func TestCacheGetSetRoundTrip(t *testing.T) {
	c := New(1 << 20)
	c.Set(5, frame(5, 100))

	got, ok := c.Get(5)
	if !ok {
		t.Fatal("Get(5): expected hit")
	}
	if got.PTS != 5 || len(got.Data) != 100 {
		t.Fatalf("Get(5) = %+v, want PTS=5 len(Data)=100", got)
	}
	if _, ok := c.Get(6); ok {
		t.Fatal("Get(6): expected miss")
	}
}

func TestCacheGetReturnsClone(t *testing.T) {
	c := New(1 << 20)
	c.Set(1, frame(1, 4))

	got, _ := c.Get(1)
	got.Data[0] = 0xFF

	again, _ := c.Get(1)
	if again.Data[0] == 0xFF {
		t.Fatal("Get: returned frame aliases cached storage")
	}
}

func TestCacheZeroBudgetDisablesCaching(t *testing.T) {
	c := New(0)
	c.Set(1, frame(1, 100))
	if _, ok := c.Get(1); ok {
		t.Fatal("Get: expected miss with zero byte budget")
	}
	if c.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", c.Len())
	}
}

func TestCacheEvictsLRUUnderByteBudget(t *testing.T) {
	c := New(250)
	c.Set(1, frame(1, 100))
	c.Set(2, frame(2, 100))
	c.Set(3, frame(3, 100)) // pushes total to 300, over budget; 1 must go

	if _, ok := c.Get(1); ok {
		t.Fatal("Get(1): expected eviction")
	}
	if _, ok := c.Get(2); !ok {
		t.Fatal("Get(2): expected hit")
	}
	if _, ok := c.Get(3); !ok {
		t.Fatal("Get(3): expected hit")
	}
}

func TestCacheGetPromotesToMRU(t *testing.T) {
	c := New(250)
	c.Set(1, frame(1, 100))
	c.Set(2, frame(2, 100))
	c.Get(1) // promote 1 to MRU; 2 becomes LRU
	c.Set(3, frame(3, 100))

	if _, ok := c.Get(2); ok {
		t.Fatal("Get(2): expected eviction of the least-recently-used entry")
	}
	if _, ok := c.Get(1); !ok {
		t.Fatal("Get(1): expected survival after promotion")
	}
}

func TestCacheSetOverwritesWithoutDuplicate(t *testing.T) {
	c := New(1 << 20)
	c.Set(1, frame(1, 100))
	c.Set(1, frame(1, 50))
	if c.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", c.Len())
	}
	got, _ := c.Get(1)
	if len(got.Data) != 50 {
		t.Fatalf("Get(1) len(Data) = %d, want 50", len(got.Data))
	}
}

func TestCacheSetMaxBytesEvictsImmediately(t *testing.T) {
	c := New(1 << 20)
	c.Set(1, frame(1, 100))
	c.Set(2, frame(2, 100))
	c.SetMaxBytes(100)
	if c.Len() != 1 {
		t.Fatalf("Len() = %d after shrink, want 1", c.Len())
	}
}

func TestCacheClear(t *testing.T) {
	c := New(1 << 20)
	c.Set(1, frame(1, 100))
	c.Set(2, frame(2, 100))
	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("Len() = %d after Clear, want 0", c.Len())
	}
	if _, ok := c.Get(1); ok {
		t.Fatal("Get(1): expected miss after Clear")
	}
}
