package engine

import (
	"fmt"

	"github.com/e7canasta/bsvideo/internal/bserrors"
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/hash"
)

// linearForward drives h forward from its current position towards n.
// It caches every frame within [n-PreRoll, n] it decodes and returns the
// frame at n once reached.
//
// mismatch is true when a hash mismatch occurred on a handle that has
// seeked at least once — the caller (seek-and-verify) must blacklist
// the handle's seek anchor and retry. When mismatch is false and result
// is nil with a nil error, the handle hit end-of-stream before reaching
// n.
func (e *Engine) linearForward(h decoderHandle, n int64) (result *decode.RawFrame, mismatch bool, err error) {
	preRoll := int64(e.preRoll)

	for {
		f := h.CurrentFrameNumber()
		if f < 0 {
			return nil, false, bserrors.New("engine.linearForward", bserrors.DecodeError, fmt.Errorf("handle position unknown"))
		}
		if f > n {
			return nil, false, nil
		}

		if f < n-preRoll {
			if err := h.Skip(int(n - preRoll - f)); err != nil {
				return nil, false, err
			}
			continue
		}

		frame, nerr := h.NextFrame()
		if nerr != nil {
			return nil, false, nerr
		}
		if frame == nil {
			return nil, false, nil // end of stream
		}

		if int64(len(e.idx.Frames)) <= f {
			return nil, false, bserrors.New("engine.linearForward", bserrors.DecodeError, fmt.Errorf("frame %d beyond index", f))
		}

		if f >= n-preRoll {
			if hash.Frame(frame) != e.idx.Frames[f].Hash {
				if h.HasSeeked() {
					return nil, true, nil
				}
				return nil, false, bserrors.New("engine.linearForward", bserrors.DecodeError,
					fmt.Errorf("hash mismatch at frame %d", f))
			}
		}

		e.cache.Set(f, frame)
		if f == n {
			return frame, false, nil
		}
	}
}
