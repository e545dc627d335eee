package engine

import (
	"math/rand"
	"testing"

	"github.com/e7canasta/bsvideo/internal/cache"
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/hash"
	"github.com/e7canasta/bsvideo/internal/index"
	"github.com/e7canasta/bsvideo/internal/pool"
)

// fakeHandle is a synthetic decoderHandle over a fixed in-memory frame
// sequence, so seek-and-verify can be exercised without a real
// GStreamer pipeline.
type fakeHandle struct {
	frames       []*decode.RawFrame
	ptsToOrdinal map[int64]int64
	pos          int64
	seeked       bool
	closed       bool
}

func (f *fakeHandle) NextFrame() (*decode.RawFrame, error) {
	if f.pos < 0 || f.pos >= int64(len(f.frames)) {
		return nil, nil
	}
	fr := f.frames[f.pos]
	f.pos++
	return fr, nil
}

func (f *fakeHandle) Skip(n int) error {
	for i := 0; i < n; i++ {
		if _, err := f.NextFrame(); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeHandle) Seek(pts int64) (bool, error) {
	ord, ok := f.ptsToOrdinal[pts]
	if !ok {
		return false, nil
	}
	f.pos = ord
	f.seeked = true
	return true, nil
}

func (f *fakeHandle) HasSeeked() bool               { return f.seeked }
func (f *fakeHandle) CurrentFrameNumber() int64     { return f.pos }
func (f *fakeHandle) SetCurrentFrameNumber(n int64) { f.pos = n }
func (f *fakeHandle) Close() error                  { f.closed = true; return nil }

// BytePosition, VideoFormat and SideData round fakeHandle out to
// fullHandle, so it can also stand in for index.Build's and
// index.ProbeFormat's Decoder during Open() tests.
func (f *fakeHandle) BytePosition() (int64, int64, bool) {
	return f.pos, int64(len(f.frames)), true
}

func (f *fakeHandle) VideoFormat() decode.VideoFormat {
	if len(f.frames) == 0 {
		return decode.VideoFormat{}
	}
	first := f.frames[0]
	return decode.VideoFormat{Width: first.Width, Height: first.Height, PixelFormat: first.Format}
}

func (f *fakeHandle) SideData() decode.OpenSideData {
	return decode.OpenSideData{}
}

// buildSynthetic produces n frames with unique content hashes (a
// distinct first data byte per ordinal) and a keyframe every
// keyInterval frames, plus the matching TrackIndex.
func buildSynthetic(n, keyInterval int) ([]*decode.RawFrame, *index.TrackIndex) {
	frames := make([]*decode.RawFrame, n)
	idx := &index.TrackIndex{Frames: make([]index.FrameRecord, n), LastFrameDuration: 1000}
	for i := 0; i < n; i++ {
		data := []byte{byte(i), byte(i >> 8), 0, 0, 0, 0}
		f := &decode.RawFrame{
			Width: 2, Height: 2, Format: "I420",
			Data:     data,
			PTS:      int64(i) * 1000,
			Duration: 1000,
			KeyFrame: i%keyInterval == 0,
		}
		frames[i] = f
		idx.Frames[i] = index.FrameRecord{PTS: f.PTS, KeyFrame: f.KeyFrame, Hash: hash.Frame(f)}
	}
	return frames, idx
}

func newTestEngine(frames []*decode.RawFrame, idx *index.TrackIndex) *Engine {
	ptsToOrdinal := map[int64]int64{}
	for i, f := range idx.Frames {
		if f.KeyFrame {
			ptsToOrdinal[f.PTS] = int64(i)
		}
	}
	e := &Engine{
		idx:       idx,
		cache:     cache.New(cache.DefaultMaxBytes),
		pool:      pool.New(pool.DefaultCapacity),
		blacklist: make(map[int64]struct{}),
		anchors:   make(map[decoderHandle]int64),
	}
	e.open = func(source string, opts decode.Options) (fullHandle, error) {
		return &fakeHandle{frames: frames, ptsToOrdinal: ptsToOrdinal}, nil
	}
	return e
}

func TestGetFrameSequentialSweep(t *testing.T) {
	frames, idx := buildSynthetic(300, 30)
	e := newTestEngine(frames, idx)

	for n := int64(0); n < 300; n++ {
		f, err := e.GetFrame(n, false)
		if err != nil {
			t.Fatalf("GetFrame(%d): %v", n, err)
		}
		if f == nil {
			t.Fatalf("GetFrame(%d): nil frame", n)
		}
		if hash.Frame(f) != idx.Frames[n].Hash {
			t.Fatalf("GetFrame(%d): hash mismatch", n)
		}
	}
}

func TestGetFrameReverseSweep(t *testing.T) {
	frames, idx := buildSynthetic(300, 30)
	e := newTestEngine(frames, idx)

	for n := int64(299); n >= 0; n-- {
		f, err := e.GetFrame(n, false)
		if err != nil {
			t.Fatalf("GetFrame(%d): %v", n, err)
		}
		if f == nil || hash.Frame(f) != idx.Frames[n].Hash {
			t.Fatalf("GetFrame(%d): hash mismatch or nil", n)
		}
	}
}

func TestGetFrameRandomAccess(t *testing.T) {
	frames, idx := buildSynthetic(300, 30)
	e := newTestEngine(frames, idx)

	r := rand.New(rand.NewSource(42))
	for i := 0; i < 200; i++ {
		n := int64(r.Intn(300))
		f, err := e.GetFrame(n, false)
		if err != nil {
			t.Fatalf("GetFrame(%d): %v", n, err)
		}
		if f == nil || hash.Frame(f) != idx.Frames[n].Hash {
			t.Fatalf("GetFrame(%d): hash mismatch or nil", n)
		}
		if e.pool.Len() > pool.DefaultCapacity {
			t.Fatalf("pool occupancy %d exceeds capacity %d", e.pool.Len(), pool.DefaultCapacity)
		}
	}
}

func TestGetFrameAmbiguousContent(t *testing.T) {
	frames, idx := buildSynthetic(150, 50) // keyframes at 0, 50, 100
	for i := 100; i < 110; i++ {
		frames[i].Data = append([]byte(nil), frames[100].Data...)
		idx.Frames[i].Hash = hash.Frame(frames[i])
	}
	e := newTestEngine(frames, idx)

	f, err := e.GetFrame(105, false)
	if err != nil {
		t.Fatalf("GetFrame(105): %v", err)
	}
	if f == nil {
		t.Fatal("GetFrame(105): nil frame")
	}
	if f.PTS != idx.Frames[105].PTS {
		t.Fatalf("GetFrame(105): landed on wrong ordinal, pts=%d want=%d", f.PTS, idx.Frames[105].PTS)
	}
}

func TestGetFrameOutOfRange(t *testing.T) {
	frames, idx := buildSynthetic(10, 5)
	e := newTestEngine(frames, idx)

	if _, err := e.GetFrame(-1, false); err == nil {
		t.Fatal("GetFrame(-1): expected error")
	}
	if _, err := e.GetFrame(10, false); err == nil {
		t.Fatal("GetFrame(10): expected error")
	}
}

func TestGetFrameCacheHit(t *testing.T) {
	frames, idx := buildSynthetic(50, 10)
	e := newTestEngine(frames, idx)

	first, err := e.GetFrame(42, false)
	if err != nil || first == nil {
		t.Fatalf("GetFrame(42): %v", err)
	}
	second, err := e.GetFrame(42, false)
	if err != nil || second == nil {
		t.Fatalf("GetFrame(42) cached: %v", err)
	}
	if hash.Frame(second) != idx.Frames[42].Hash {
		t.Fatal("cached frame hash mismatch")
	}
}

// TestOpenReusesCachedIndex exercises Open end to end against a fake
// decoder: the first Open builds and persists the index from scratch,
// the second Open against the same cache dir must load it from disk
// instead of decoding again, and must still come back with non-zero
// format properties via the cache-hit probe.
func TestOpenReusesCachedIndex(t *testing.T) {
	dir := t.TempDir()
	frames, _ := buildSynthetic(40, 10)

	builds := 0
	cfg := Config{
		Source:   "fake.mp4",
		CacheDir: dir,
		open: func(source string, opts decode.Options) (fullHandle, error) {
			builds++
			return &fakeHandle{frames: frames}, nil
		},
	}

	e1, err := Open(cfg)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	defer e1.Close()
	if builds != 1 {
		t.Fatalf("first Open: want 1 decoder open, got %d", builds)
	}
	props1 := e1.GetVideoProperties()
	if props1.Width == 0 || props1.Height == 0 {
		t.Fatalf("first Open: zero video properties %+v", props1)
	}

	e2, err := Open(cfg)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	defer e2.Close()
	if builds != 2 {
		t.Fatalf("second Open: want one extra open for the format probe, got %d total", builds)
	}
	props2 := e2.GetVideoProperties()
	if props2.Width == 0 || props2.Height == 0 {
		t.Fatalf("second (cache-hit) Open: zero video properties %+v", props2)
	}
	if props2.NumFrames != 40 {
		t.Fatalf("second Open: want 40 frames from reloaded index, got %d", props2.NumFrames)
	}
}
