package index

import (
	"path/filepath"
	"testing"

	"github.com/e7canasta/bsvideo/internal/hash"
)

func sampleIndex() *TrackIndex {
	return &TrackIndex{
		LastFrameDuration: 1001,
		Frames: []FrameRecord{
			{PTS: 0, KeyFrame: true, Hash: hash.Digest{1, 2, 3}},
			{PTS: 1000, RepeatPict: 2, TopFieldFirst: true, Hash: hash.Digest{4, 5, 6}},
		},
	}
}

func sampleMeta() Meta {
	return Meta{
		SourceSize:     12345,
		Track:          0,
		VariableFormat: false,
		HWDevice:       "",
		DemuxerOptions: map[string]string{"rtsp_transport": "tcp"},
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.0.bsindex")
	idx := sampleIndex()
	meta := sampleMeta()

	if err := Write(path, meta, idx); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, ok := Read(path, meta)
	if !ok {
		t.Fatal("Read: expected ok")
	}
	if got.NumFrames() != idx.NumFrames() {
		t.Fatalf("NumFrames = %d, want %d", got.NumFrames(), idx.NumFrames())
	}
	for i := range idx.Frames {
		if got.Frames[i] != idx.Frames[i] {
			t.Fatalf("frame %d: got %+v, want %+v", i, got.Frames[i], idx.Frames[i])
		}
	}
	if got.LastFrameDuration != idx.LastFrameDuration {
		t.Fatalf("LastFrameDuration = %d, want %d", got.LastFrameDuration, idx.LastFrameDuration)
	}
}

func TestReadRejectsMismatchedMeta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.0.bsindex")
	meta := sampleMeta()
	if err := Write(path, meta, sampleIndex()); err != nil {
		t.Fatalf("Write: %v", err)
	}

	changed := meta
	changed.VariableFormat = true
	if _, ok := Read(path, changed); ok {
		t.Fatal("Read: expected mismatch on variable_format change")
	}

	changed = meta
	changed.SourceSize = meta.SourceSize + 1
	if _, ok := Read(path, changed); ok {
		t.Fatal("Read: expected mismatch on source size change")
	}
}

func TestReadMissingFile(t *testing.T) {
	if _, ok := Read(filepath.Join(t.TempDir(), "missing.bsindex"), sampleMeta()); ok {
		t.Fatal("Read: expected miss for missing file")
	}
}

func TestCachePath(t *testing.T) {
	got := CachePath("/var/cache", "/media/clip.mp4", 2)
	want := "/var/cache/clip.mp4.2.bsindex"
	if got != want {
		t.Fatalf("CachePath = %q, want %q", got, want)
	}
}
