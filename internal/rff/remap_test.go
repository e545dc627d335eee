package rff

import (
	"testing"

	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/index"
)

func telecinedIndex(n int) *index.TrackIndex {
	idx := &index.TrackIndex{Frames: make([]index.FrameRecord, n)}
	for i := 0; i < n; i++ {
		var repeat int32
		if i%2 == 0 {
			repeat = 2
		}
		idx.Frames[i] = index.FrameRecord{
			RepeatPict:    repeat,
			TopFieldFirst: i%2 == 0,
		}
	}
	return idx
}

func TestUnused(t *testing.T) {
	progressive := &index.TrackIndex{Frames: make([]index.FrameRecord, 10)}
	if !Unused(progressive) {
		t.Fatal("expected Unused for all-zero repeat_pict")
	}
	if Unused(telecinedIndex(8)) {
		t.Fatal("expected RFF in use for telecined index")
	}
}

func TestBuildFieldsConservesFieldCount(t *testing.T) {
	idx := telecinedIndex(8)
	fields := BuildFields(idx)

	var sum int64
	for _, f := range idx.Frames {
		sum += int64(f.RepeatPict) + 2
	}
	want := int((sum + 1) / 2)
	if len(fields) != want {
		t.Fatalf("len(fields) = %d, want %d", len(fields), want)
	}

	for i, fp := range fields {
		if fp.TopSrc < 0 || fp.BottomSrc < 0 {
			t.Fatalf("field %d left unassigned: %+v", i, fp)
		}
	}
}

func rawFrame(b byte) *decode.RawFrame {
	return &decode.RawFrame{
		Width: 2, Height: 4, Format: "I420",
		Data: []byte{b, b, b, b, b, b, b, b, b, b, b, b},
	}
}

func TestMergeOverwritesOtherParityLines(t *testing.T) {
	top := rawFrame(0x11)
	bottom := rawFrame(0x22)

	merged, err := Merge(top, bottom, 10, 11) // top has the lower source index
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	// Row 0 (even) must come from top (the base); row 1 (odd) from bottom.
	if merged.Data[0] != 0x11 {
		t.Fatalf("row 0 byte = %#x, want 0x11 (from top/base)", merged.Data[0])
	}
	if merged.Data[2] != 0x22 {
		t.Fatalf("row 1 byte = %#x, want 0x22 (from bottom/other)", merged.Data[2])
	}

	// Originals must be untouched.
	if top.Data[2] != 0x11 || bottom.Data[0] != 0x22 {
		t.Fatal("Merge mutated an input frame")
	}
}

func TestMergeFormatMismatch(t *testing.T) {
	top := rawFrame(0x11)
	bottom := &decode.RawFrame{Width: 4, Height: 4, Format: "I420", Data: make([]byte, 24)}
	if _, err := Merge(top, bottom, 0, 1); err == nil {
		t.Fatal("expected FormatMismatch error")
	}
}
