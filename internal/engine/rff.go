package engine

import (
	"fmt"

	"github.com/e7canasta/bsvideo/internal/bserrors"
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/rff"
)

// GetFrameWithRFF implements the GetFrameWithRFF(M): a
// pass-through to GetFrame when RFF is unused or the field pair names a
// single source frame, otherwise a field-merge of two source frames.
func (e *Engine) GetFrameWithRFF(m int64) (*decode.RawFrame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.rffUsed {
		return e.getFrameLocked(m, false)
	}
	if m < 0 || m >= int64(len(e.rffFields)) {
		return nil, bserrors.New("engine.GetFrameWithRFF", bserrors.ArgumentError,
			fmt.Errorf("rff frame %d out of [0,%d)", m, len(e.rffFields)))
	}

	fp := e.rffFields[m]
	if fp.TopSrc == fp.BottomSrc {
		return e.getFrameLocked(int64(fp.TopSrc), false)
	}

	top, err := e.getFrameLocked(int64(fp.TopSrc), false)
	if err != nil {
		return nil, err
	}
	bottom, err := e.getFrameLocked(int64(fp.BottomSrc), false)
	if err != nil {
		return nil, err
	}
	if top == nil || bottom == nil {
		return nil, nil
	}
	return rff.Merge(top, bottom, fp.TopSrc, fp.BottomSrc)
}

// GetFrameIsTFF implements the get_frame_is_tff. With rffFlag
// set and RFF in use, N indexes the RFF frame space and the reported
// parity follows which source frame supplies the earlier field; with
// rffFlag unset (or RFF unused), N indexes the native frame space
// directly.
func (e *Engine) GetFrameIsTFF(n int64, rffFlag bool) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !rffFlag || !e.rffUsed {
		if n < 0 || n >= int64(len(e.idx.Frames)) {
			return false, bserrors.New("engine.GetFrameIsTFF", bserrors.ArgumentError,
				fmt.Errorf("frame %d out of [0,%d)", n, len(e.idx.Frames)))
		}
		return e.idx.Frames[n].TopFieldFirst, nil
	}

	if n < 0 || n >= int64(len(e.rffFields)) {
		return false, bserrors.New("engine.GetFrameIsTFF", bserrors.ArgumentError,
			fmt.Errorf("rff frame %d out of [0,%d)", n, len(e.rffFields)))
	}
	fp := e.rffFields[n]
	if fp.TopSrc == fp.BottomSrc {
		return e.idx.Frames[fp.TopSrc].TopFieldFirst, nil
	}
	return fp.TopSrc <= fp.BottomSrc, nil
}
