package engine

import (
	"fmt"

	"github.com/e7canasta/bsvideo/internal/bserrors"
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/hash"
)

// GetFrame implements the order of operations: cache hit,
// pool continuation, short-prefix, or seek-and-verify.
func (e *Engine) GetFrame(n int64, linear bool) (*decode.RawFrame, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.getFrameLocked(n, linear)
}

func (e *Engine) getFrameLocked(n int64, linear bool) (*decode.RawFrame, error) {
	if n < 0 || n >= int64(len(e.idx.Frames)) {
		return nil, bserrors.New("engine.GetFrame", bserrors.ArgumentError,
			fmt.Errorf("frame %d out of [0,%d)", n, len(e.idx.Frames)))
	}

	if frame, ok := e.cache.Get(n); ok {
		return frame, nil
	}

	useLinear := linear || e.linearMode
	if useLinear {
		return e.linearFromZero(n, e.linearMode)
	}

	sf := e.seekFrame(n)

	if h, ok := e.continuationCandidate(n, sf); ok {
		frame, mismatch, err := e.linearForward(h, n)
		if err != nil {
			e.pool.Remove(h)
			delete(e.anchors, h)
			h.Close()
			return nil, err
		}
		if mismatch {
			anchor := e.anchors[h]
			e.pool.Remove(h)
			delete(e.anchors, h)
			h.Close()
			e.blacklistSeekFrame(anchor)
			return e.retryFromScratch(n)
		}
		if frame != nil {
			e.pool.Touch(h)
			return frame, nil
		}
		// End of stream before reaching n on a reused handle: give up on
		// this handle rather than guess at a replacement strategy.
		e.pool.Remove(h)
		delete(e.anchors, h)
		h.Close()
		return nil, nil
	}

	if sf < shortPrefixThreshold {
		return e.linearFromZero(n, false)
	}

	return e.seekAndVerify(n, sf, 0)
}

// continuationCandidate selects a pooled handle whose
// current_frame_number sits in [seekFrame(n), n].
func (e *Engine) continuationCandidate(n, sf int64) (decoderHandle, bool) {
	h, ok := e.pool.ReuseCandidate(n, false)
	if !ok {
		return nil, false
	}
	dh, ok := h.(decoderHandle)
	if !ok {
		return nil, false
	}
	if sf >= 0 && dh.CurrentFrameNumber() < sf {
		return nil, false
	}
	return dh, true
}

// retryFromScratch recomputes seek_frame(n) — now excluding whatever
// was just blacklisted — and restarts the seek-and-verify protocol at
// depth 0.
func (e *Engine) retryFromScratch(n int64) (*decode.RawFrame, error) {
	sf := e.seekFrame(n)
	if sf < shortPrefixThreshold {
		return e.forceLinearAndRetry(n)
	}
	return e.seekAndVerify(n, sf, 0)
}

type matchFrame struct {
	frame *decode.RawFrame
	hash  hash.Digest
}

// seekAndVerify implements the seek-and-verify state machine: seek to
// sf, decode a growing window of frames, and narrow the set of index
// positions consistent with every frame seen so far until exactly one
// remains.
func (e *Engine) seekAndVerify(n, sf int64, depth int) (*decode.RawFrame, error) {
	if sf < shortPrefixThreshold {
		return e.forceLinearAndRetry(n)
	}

	h, err := e.open(e.source, e.opts)
	if err != nil {
		return nil, bserrors.New("engine.GetFrame", bserrors.OpenFailed, err)
	}

	ok, err := h.Seek(e.idx.Frames[sf].PTS)
	if err != nil {
		h.Close()
		return nil, err
	}
	if !ok {
		h.Close()
		return e.forceLinearAndRetry(n)
	}
	e.anchors[h] = sf

	var window []matchFrame
	for {
		frame, nerr := h.NextFrame()
		if nerr != nil {
			delete(e.anchors, h)
			h.Close()
			return nil, nerr
		}
		if frame == nil {
			delete(e.anchors, h)
			h.Close()
			return e.retryOrLinear(n, sf, depth)
		}

		window = append(window, matchFrame{frame: frame, hash: hash.Frame(frame)})
		matches := e.candidateOrigins(window)

		if len(matches) == 0 || !anyLE(matches, n) {
			delete(e.anchors, h)
			h.Close()
			return e.retryOrLinear(n, sf, depth)
		}

		if len(matches) > 1 {
			if len(window) >= 10 {
				delete(e.anchors, h)
				h.Close()
				return e.retryOrLinear(n, sf, depth)
			}
			continue // ambiguous but still decoding: widen the window
		}

		// Unique match.
		m := matches[0]
		h.SetCurrentFrameNumber(m + int64(len(window)))

		var result *decode.RawFrame
		for k, mf := range window {
			ord := m + int64(k)
			if ord >= n-int64(e.preRoll) {
				e.cache.Set(ord, mf.frame)
				if ord == n {
					result = mf.frame
				}
			}
		}
		if result != nil {
			e.poolPut(h)
			return result, nil
		}

		frame2, mismatch, err2 := e.linearForward(h, n)
		if err2 != nil {
			delete(e.anchors, h)
			h.Close()
			return nil, err2
		}
		if mismatch {
			delete(e.anchors, h)
			h.Close()
			e.blacklistSeekFrame(sf)
			return e.retryFromScratch(n)
		}
		if frame2 == nil {
			delete(e.anchors, h)
			h.Close()
			return nil, nil
		}
		e.poolPut(h)
		return frame2, nil
	}
}

// candidateOrigins returns every index position i such that
// index[i+j].hash == window[j].hash for every j in window.
func (e *Engine) candidateOrigins(window []matchFrame) []int64 {
	var matches []int64
	limit := int64(len(e.idx.Frames)) - int64(len(window))
	for i := int64(0); i <= limit; i++ {
		ok := true
		for j, mf := range window {
			if e.idx.Frames[i+int64(j)].Hash != mf.hash {
				ok = false
				break
			}
		}
		if ok {
			matches = append(matches, i)
		}
	}
	return matches
}

func anyLE(matches []int64, n int64) bool {
	for _, i := range matches {
		if i <= n {
			return true
		}
	}
	return false
}

// retryOrLinear is the shared retry logic after a failed seek-and-verify:
// blacklist sf, then either retry seek-and-verify anchored near sf-100
// or fall back to forced linear mode.
func (e *Engine) retryOrLinear(n, sf int64, depth int) (*decode.RawFrame, error) {
	e.blacklistSeekFrame(sf)
	if depth >= RetrySeekAttempts {
		return e.forceLinearAndRetry(n)
	}
	next := e.seekFrame(sf - 100)
	if next < shortPrefixThreshold {
		return e.forceLinearAndRetry(n)
	}
	return e.seekAndVerify(n, next, depth+1)
}

func (e *Engine) forceLinearAndRetry(n int64) (*decode.RawFrame, error) {
	e.forceLinearMode()
	return e.linearFromZero(n, true)
}

// linearFromZero opens a fresh handle and decodes from position 0.
// terminal marks this as the engine's last resort
// (forced linear mode): failure there surfaces DecodeError;
// failure in the ordinary short-prefix branch returns a null frame.
func (e *Engine) linearFromZero(n int64, terminal bool) (*decode.RawFrame, error) {
	h, err := e.open(e.source, e.opts)
	if err != nil {
		return nil, bserrors.New("engine.GetFrame", bserrors.OpenFailed, err)
	}

	frame, _, err := e.linearForward(h, n)
	if err != nil {
		h.Close()
		return nil, err
	}
	if frame == nil {
		h.Close()
		if terminal {
			return nil, bserrors.New("engine.GetFrame", bserrors.DecodeError,
				fmt.Errorf("could not produce frame %d", n))
		}
		return nil, nil
	}

	e.poolPut(h)
	return frame, nil
}

// poolPut inserts h into the pool, closing and forgetting whatever
// handle it evicted.
func (e *Engine) poolPut(h decoderHandle) {
	evicted, ok := e.pool.Put(h)
	if !ok {
		return
	}
	if dh, ok := evicted.(decoderHandle); ok {
		delete(e.anchors, dh)
		dh.Close()
	}
}
