package hash

import (
	"testing"

	"github.com/zeebo/xxh3"

	"github.com/e7canasta/bsvideo/internal/decode"
)

func i420Frame(w, h int, fill byte) *decode.RawFrame {
	ySize := w * h
	cw, ch := (w+1)/2, (h+1)/2
	data := make([]byte, ySize+2*cw*ch)
	for i := range data {
		data[i] = fill
	}
	return &decode.RawFrame{Width: w, Height: h, Format: "I420", Data: data}
}

func TestFrameDeterministic(t *testing.T) {
	a := i420Frame(4, 4, 0x42)
	b := i420Frame(4, 4, 0x42)
	if Frame(a) != Frame(b) {
		t.Fatal("Frame: identical frames hashed to different digests")
	}
}

func TestFrameDistinguishesContent(t *testing.T) {
	a := i420Frame(4, 4, 0x11)
	b := i420Frame(4, 4, 0x22)
	if Frame(a) == Frame(b) {
		t.Fatal("Frame: differing frames hashed to the same digest")
	}
}

func TestFrameIgnoresRowPadding(t *testing.T) {
	w, h := 4, 4
	tight := i420Frame(w, h, 0x77)

	// A padded variant with an extra stray byte per luma row, walked
	// against a layout whose Stride exceeds RowBytes: Frame must read
	// exactly RowBytes per row and never touch the padding byte.
	cw, ch := (w+1)/2, (h+1)/2
	var padded []byte
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			padded = append(padded, 0x77)
		}
		padded = append(padded, 0xFF) // padding byte, must be ignored
	}
	for i := 0; i < 2*cw*ch; i++ {
		padded = append(padded, 0x77)
	}

	layout := []Plane{
		{Offset: 0, Stride: w + 1, RowBytes: w, Rows: h},
		{Offset: h * (w + 1), Stride: cw, RowBytes: cw, Rows: ch},
		{Offset: h*(w+1) + cw*ch, Stride: cw, RowBytes: cw, Rows: ch},
	}
	if sumWithLayout(padded, layout) != Frame(tight) {
		t.Fatal("Frame: row padding leaked into the digest")
	}
}

// sumWithLayout replicates Frame's walk against an explicit plane
// layout, letting the padding test drive a Stride/RowBytes split that
// PlaneLayout itself never produces for a recognized format.
func sumWithLayout(data []byte, layout []Plane) Digest {
	h := xxh3.New()
	for _, p := range layout {
		for row := 0; row < p.Rows; row++ {
			start := p.Offset + row*p.Stride
			h.Write(data[start : start+p.RowBytes])
		}
	}
	var d Digest
	sum := h.Sum64()
	for i := 0; i < 8; i++ {
		d[i] = byte(sum >> (8 * i))
	}
	return d
}

func TestPlaneLayoutNonI420Fallback(t *testing.T) {
	layout := PlaneLayout(16, 16, "NV12")
	if len(layout) != 1 || layout[0].Rows != 0 || layout[0].RowBytes != 0 {
		t.Fatalf("PlaneLayout(NV12) = %+v, want a single zero-size plane", layout)
	}
}

func TestPlaneLayoutI420OddDimensions(t *testing.T) {
	layout := PlaneLayout(5, 3, "I420")
	if len(layout) != 3 {
		t.Fatalf("PlaneLayout: got %d planes, want 3", len(layout))
	}
	if layout[1].Rows != 2 || layout[1].RowBytes != 3 {
		t.Fatalf("chroma plane = %+v, want Rows=2 RowBytes=3 (ceil(3/2))", layout[1])
	}
}
