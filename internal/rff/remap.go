// Package rff builds a field-pair table from repeat_pict/TFF flags and
// synthesizes merged frames for repeat-field (telecine) sources.
package rff

import (
	"fmt"

	"github.com/e7canasta/bsvideo/internal/bserrors"
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/hash"
	"github.com/e7canasta/bsvideo/internal/index"
)

// FieldPair names the source frame ordinal each field of one RFF frame
// comes from. TopSrc == BottomSrc means the RFF frame is just that
// source frame, unmerged.
type FieldPair struct {
	TopSrc, BottomSrc int
}

// Unused reports whether RFF is a pass-through for idx: true iff every
// frame's RepeatPict is 0.
func Unused(idx *index.TrackIndex) bool {
	for _, f := range idx.Frames {
		if f.RepeatPict != 0 {
			return false
		}
	}
	return true
}

// BuildFields walks idx's native frames and produces the field-pair
// table. Length is (sum(repeat_pict+2)+1)/2, the RFF frame count.
func BuildFields(idx *index.TrackIndex) []FieldPair {
	total := int64(0)
	for _, f := range idx.Frames {
		total += int64(f.RepeatPict) + 2
	}
	numRFF := int((total + 1) / 2)
	fields := make([]FieldPair, numRFF)
	for i := range fields {
		fields[i] = FieldPair{TopSrc: -1, BottomSrc: -1}
	}

	topCursor, botCursor := 0, 0
	for n, f := range idx.Frames {
		k := int(f.RepeatPict) + 2
		tff := f.TopFieldFirst
		parity := tff
		for i := 0; i < k; i++ {
			if parity {
				if topCursor < len(fields) {
					fields[topCursor].TopSrc = n
					topCursor++
				}
			} else {
				if botCursor < len(fields) {
					fields[botCursor].BottomSrc = n
					botCursor++
				}
			}
			parity = !parity
		}
	}

	// If the walk left the two cursors one apart, duplicate the last
	// field on the longer side into the short side.
	if topCursor == botCursor+1 && botCursor > 0 {
		fields[botCursor].BottomSrc = fields[botCursor-1].BottomSrc
	} else if botCursor == topCursor+1 && topCursor > 0 {
		fields[topCursor].TopSrc = fields[topCursor-1].TopSrc
	}

	return fields
}

// Merge composites top and bottom — decoded from FieldPair.TopSrc and
// FieldPair.BottomSrc respectively — into one RFF frame. The frame
// belonging to the lower source index is used as the base, and every
// other-parity line is overwritten from the other frame's
// corresponding line: "row 1, 3, 5..." for a top-merge (base is the top
// source), "row 0, 2, 4..." for a bottom-merge (base is the bottom
// source).
func Merge(top, bottom *decode.RawFrame, topSrc, bottomSrc int) (*decode.RawFrame, error) {
	if top.Width != bottom.Width || top.Height != bottom.Height || top.Format != bottom.Format {
		return nil, bserrors.New("rff.Merge", bserrors.FormatMismatch,
			fmt.Errorf("top=%dx%d/%s bottom=%dx%d/%s", top.Width, top.Height, top.Format, bottom.Width, bottom.Height, bottom.Format))
	}

	var base, other *decode.RawFrame
	startRow := 0
	if topSrc <= bottomSrc {
		base, other, startRow = top, bottom, 1
	} else {
		base, other, startRow = bottom, top, 0
	}

	out := cloneFrame(base)
	for _, p := range hash.PlaneLayout(base.Width, base.Height, base.Format) {
		for row := startRow; row < p.Rows; row += 2 {
			s := p.Offset + row*p.Stride
			copy(out.Data[s:s+p.RowBytes], other.Data[s:s+p.RowBytes])
		}
	}
	return out, nil
}

func cloneFrame(f *decode.RawFrame) *decode.RawFrame {
	data := make([]byte, len(f.Data))
	copy(data, f.Data)
	clone := *f
	clone.Data = data
	return &clone
}
