package engine

import (
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/timeindex"
)

// GetFrameByTime locates the nearest frame by PTS, then routes through
// the ordinary GetFrame
// decision tree.
func (e *Engine) GetFrameByTime(seconds float64) (*decode.RawFrame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := timeindex.FrameByTime(e.idx.Frames, seconds, e.tb)
	if !ok {
		return nil, nil
	}
	return e.getFrameLocked(int64(n), false)
}

// WriteTimecodes writes a timecode format v2 file for the whole track.
func (e *Engine) WriteTimecodes(path string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := timeindex.WriteTimecodes(path, e.idx.Frames, e.tb); err != nil {
		return false, err
	}
	return true, nil
}
