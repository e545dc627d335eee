package bsvideo

import (
	"github.com/e7canasta/bsvideo/internal/engine"
)

// Engine is the public handle for one (source, track) pair. All
// methods are safe for concurrent use; calls on the same Engine are
// serialized internally.
type Engine struct {
	inner *engine.Engine
}

// Open builds or loads the track index and returns an Engine ready to
// serve GetFrame and its relatives.
func Open(source string, opts ...Option) (*Engine, error) {
	o := newOptions()
	for _, opt := range opts {
		opt(o)
	}

	inner, err := engine.Open(engine.Config{
		Source:         source,
		HWDevice:       o.hwDevice,
		ExtraHWFrames:  o.extraHWFrames,
		Track:          o.track,
		VariableFormat: o.variableFormat,
		Threads:        o.threads,
		CacheDir:       o.cacheDir,
		DemuxerOptions: o.demuxerOptions,
		Progress:       o.progress,
	})
	if err != nil {
		return nil, err
	}

	if o.setMaxCacheBytes {
		inner.SetMaxCacheSize(o.maxCacheBytes)
	}
	if o.setSeekPreroll {
		if err := inner.SetSeekPreroll(o.seekPreroll); err != nil {
			inner.Close()
			return nil, err
		}
	}

	return &Engine{inner: inner}, nil
}

// Close releases every decoder handle the Engine is holding. The index
// and frame cache are dropped with it; the on-disk index file, if any,
// is untouched.
func (e *Engine) Close() error { return e.inner.Close() }

// GetVideoProperties returns the derived properties of the open track.
func (e *Engine) GetVideoProperties() VideoProperties { return e.inner.GetVideoProperties() }

// GetFrame returns the frame at native ordinal n, or (nil, nil) if it
// could not be produced without error (e.g. end of stream reached
// before n while not yet in forced-linear mode). n must satisfy
// 0 <= n < GetVideoProperties().NumFrames. Setting linear skips the
// seek-based strategies and decodes forward from the start.
func (e *Engine) GetFrame(n int64, linear bool) (*Frame, error) { return e.inner.GetFrame(n, linear) }

// GetFrameWithRFF returns the frame at telecine-expanded ordinal m,
// synthesizing a field-merged composite when the underlying source
// frames differ. m must satisfy 0 <= m < GetVideoProperties().NumRFFFrames.
func (e *Engine) GetFrameWithRFF(m int64) (*Frame, error) { return e.inner.GetFrameWithRFF(m) }

// GetFrameByTime returns the frame whose presentation time is closest
// to seconds, ties favoring the earlier frame.
func (e *Engine) GetFrameByTime(seconds float64) (*Frame, error) {
	return e.inner.GetFrameByTime(seconds)
}

// GetFrameIsTFF reports the top-field-first parity of frame n. With
// rff set, n indexes the RFF frame space; otherwise it indexes the
// native frame space.
func (e *Engine) GetFrameIsTFF(n int64, rff bool) (bool, error) {
	return e.inner.GetFrameIsTFF(n, rff)
}

// WriteTimecodes writes a "timecode format v2" file for the track to
// path.
func (e *Engine) WriteTimecodes(path string) (bool, error) { return e.inner.WriteTimecodes(path) }

// SetMaxCacheSize changes the frame cache's byte budget, evicting
// immediately if it shrinks.
func (e *Engine) SetMaxCacheSize(bytes int64) { e.inner.SetMaxCacheSize(bytes) }

// SetSeekPreroll changes how many frames around a target are kept
// warm across a seek. frames must be in [0, 40].
func (e *Engine) SetSeekPreroll(frames int) error { return e.inner.SetSeekPreroll(frames) }
