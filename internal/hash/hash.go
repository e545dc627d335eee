// Package hash computes a deterministic 64-bit content hash over the
// visible pixel payload of a raw frame, excluding row padding. The
// on-disk index format depends on this algorithm being fixed, so
// nothing here may change without bumping the format version.
package hash

import (
	"github.com/zeebo/xxh3"

	"github.com/e7canasta/bsvideo/internal/decode"
)

// Digest is the truncated/reinterpreted 8-byte hash this component's contract stores in
// each FrameRecord.
type Digest [8]byte

// Frame computes the content hash of a decoded frame's visible pixels.
//
// decode.Handle's pipeline always negotiates planar I420 output (see
// internal/decode/pipeline.go), so plane geometry is fixed: one full-res
// luma plane followed by two quarter-res (half width, half height) chroma
// planes, each one byte per sample. Row bytes per plane are the plane's
// width (for chroma, (width+1)/2, so an odd last luma column keeps its
// chroma sample), never the padded stride, so any linesize padding never
// enters the hash.
func Frame(f *decode.RawFrame) Digest {
	h := xxh3.New()
	for _, p := range PlaneLayout(f.Width, f.Height, f.Format) {
		for row := 0; row < p.Rows; row++ {
			start := p.Offset + row*p.Stride
			h.Write(f.Data[start : start+p.RowBytes])
		}
	}
	var d Digest
	sum := h.Sum64()
	for i := 0; i < 8; i++ {
		d[i] = byte(sum >> (8 * i))
	}
	return d
}

// Plane describes one plane's byte geometry within a RawFrame's Data.
// Exported so internal/rff can walk the same geometry when merging
// fields from two source frames into one composite.
type Plane struct {
	Offset, Stride, RowBytes, Rows int
}

// PlaneLayout returns the Y, U, V plane geometry for the given format.
// Only I420 (4:2:0 planar, 8 bits/sample) is produced by this backend's
// pipeline; other formats (and non-positive dimensions) get a single
// zero-size plane, so Frame hashes no pixel bytes for them and every such
// frame gets the same digest rather than panicking.
func PlaneLayout(width, height int, format string) []Plane {
	if format != "I420" || width <= 0 || height <= 0 {
		return []Plane{{Offset: 0, Stride: 0, RowBytes: 0, Rows: 0}}
	}

	ySize := width * height
	chromaW := (width + 1) / 2
	chromaH := (height + 1) / 2
	cSize := chromaW * chromaH

	return []Plane{
		{Offset: 0, Stride: width, RowBytes: width, Rows: height},
		{Offset: ySize, Stride: chromaW, RowBytes: chromaW, Rows: chromaH},
		{Offset: ySize + cSize, Stride: chromaW, RowBytes: chromaW, Rows: chromaH},
	}
}
