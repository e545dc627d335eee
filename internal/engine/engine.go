// Package engine implements the random-access engine: GetFrame's
// cache/continuation/seek/linear decision tree and the bad-seek
// blacklist it owns. RFF remapping and the time index are wired on top
// of it in rff.go and time.go.
package engine

import (
	"fmt"
	"os"
	"sync"

	"github.com/e7canasta/bsvideo/internal/bserrors"
	"github.com/e7canasta/bsvideo/internal/cache"
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/index"
	"github.com/e7canasta/bsvideo/internal/logging"
	"github.com/e7canasta/bsvideo/internal/pool"
	"github.com/e7canasta/bsvideo/internal/rff"
	"github.com/e7canasta/bsvideo/internal/timeindex"
)

// RetrySeekAttempts bounds the seek-and-verify recursion depth.
const RetrySeekAttempts = 3

// shortPrefixThreshold is the seek_frame value below which GetFrame
// opens from position 0 instead of seeking.
const shortPrefixThreshold = 100

// DefaultPreRoll and MaxPreRoll bound SetSeekPreroll's argument.
const (
	DefaultPreRoll = 0
	MaxPreRoll     = 40
)

// decoderHandle is the subset of *decode.Handle the engine drives. It is
// an interface so seek-and-verify and linear-forward can be tested
// against a synthetic decoder instead of a real GStreamer pipeline.
type decoderHandle interface {
	NextFrame() (*decode.RawFrame, error)
	Skip(n int) error
	Seek(pts int64) (bool, error)
	HasSeeked() bool
	CurrentFrameNumber() int64
	SetCurrentFrameNumber(n int64)
	Close() error
}

// fullHandle extends decoderHandle with the methods the index builder
// and the cache-hit format probe need. *decode.Handle satisfies both
// this and index.Decoder, so the same open function drives GetFrame's
// decode loop and a one-off format probe without the narrower
// decoderHandle call sites having to fake methods they never use.
type fullHandle interface {
	decoderHandle
	BytePosition() (current, total int64, ok bool)
	VideoFormat() decode.VideoFormat
	SideData() decode.OpenSideData
}

// openFunc opens a fresh decoder handle for source under opts. Swapped
// out in tests to avoid touching a real pipeline.
type openFunc func(source string, opts decode.Options) (fullHandle, error)

func defaultOpen(source string, opts decode.Options) (fullHandle, error) {
	return decode.Open(source, opts)
}

// Config gathers Open's parameters, mirroring the "open" row of
// the Engine API table.
type Config struct {
	Source         string
	HWDevice       string
	ExtraHWFrames  int
	Track          int
	VariableFormat bool
	Threads        int
	CacheDir       string
	DemuxerOptions map[string]string
	Progress       index.ProgressFunc

	// open overrides how fresh decoder handles are opened. Nil selects
	// defaultOpen; tests set this to drive the engine against a
	// synthetic decoder instead of a real pipeline.
	open openFunc
}

// Engine is the root of the random-access engine: it owns the index,
// the frame cache, the decoder pool and the bad-seek blacklist for one
// (source, track) pair. All public methods serialize on mu — there are
// no suspension points visible to callers.
type Engine struct {
	mu sync.Mutex

	source string
	opts   decode.Options

	idx   *index.TrackIndex
	props index.VideoProperties

	cache *cache.Cache
	pool  *pool.Pool

	blacklist map[int64]struct{}
	anchors   map[decoderHandle]int64 // handle -> seek_frame it last seeked to

	preRoll    int
	linearMode bool

	rffUsed   bool
	rffFields []rff.FieldPair

	tb timeindex.TimeBase

	open openFunc
}

// Open builds or loads the track index and constructs an Engine ready
// to serve GetFrame and its relatives. If the index is loaded from
// cache, the persisted record carries no format/HDR/rotation fields, so
// Open probes one frame from a fresh handle to fill those in before
// returning.
func Open(cfg Config) (*Engine, error) {
	opts := decode.NewOptions()
	opts.HWDevice = cfg.HWDevice
	opts.ExtraHWFrames = cfg.ExtraHWFrames
	opts.Track = cfg.Track
	opts.VariableFormat = cfg.VariableFormat
	opts.Threads = cfg.Threads
	if cfg.DemuxerOptions != nil {
		opts.DemuxerOptions = cfg.DemuxerOptions
	}

	openHandle := cfg.open
	if openHandle == nil {
		openHandle = defaultOpen
	}

	idx, props, cacheHit, err := loadOrBuild(cfg, opts, openHandle)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		source:    cfg.Source,
		opts:      opts,
		idx:       idx,
		props:     props,
		cache:     cache.New(cache.DefaultMaxBytes),
		pool:      pool.New(pool.DefaultCapacity),
		blacklist: make(map[int64]struct{}),
		anchors:   make(map[decoderHandle]int64),
		preRoll:   DefaultPreRoll,
		open:      openHandle,
	}

	e.rffUsed = !rff.Unused(idx)
	if e.rffUsed {
		e.rffFields = rff.BuildFields(idx)
	}
	e.tb = timeindex.TimeBase{Num: props.TimeBaseNum, Den: props.TimeBaseDen}

	if cacheHit {
		if formatProps, ferr := probeFormat(cfg.Source, opts, openHandle); ferr != nil {
			logging.Get().Warn("engine: failed to probe format on cache hit", "source", cfg.Source, "err", ferr)
		} else {
			e.RefreshFormat(formatProps)
		}
	}

	logging.Get().Info("engine: opened", "source", cfg.Source, "frames", idx.NumFrames(), "rff", e.rffUsed)
	return e, nil
}

func osStat(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// loadOrBuild reads the cached index for (cfg.Source, opts.Track) if one
// matches, otherwise opens a fresh handle and builds it. cacheHit tells
// the caller whether the returned VideoProperties still needs a format
// probe.
func loadOrBuild(cfg Config, opts decode.Options, open openFunc) (*index.TrackIndex, index.VideoProperties, bool, error) {
	var props index.VideoProperties

	stat, statErr := osStat(cfg.Source)
	meta := index.Meta{
		Track:          int32(opts.Track),
		VariableFormat: opts.VariableFormat,
		HWDevice:       opts.HWDevice,
		DemuxerOptions: opts.DemuxerOptions,
	}
	if statErr == nil {
		meta.SourceSize = stat
	}

	cachePath := index.CachePath(cfg.CacheDir, cfg.Source, meta.Track)
	if cfg.CacheDir != "" {
		if idx, ok := index.Read(cachePath, meta); ok {
			props = propertiesFromIndexReload(idx)
			return idx, props, true, nil
		}
	}

	handle, err := open(cfg.Source, opts)
	if err != nil {
		return nil, props, false, err
	}
	defer handle.Close()

	idx, props, err := index.Build(handle, cfg.Progress)
	if err != nil {
		return nil, props, false, err
	}

	if cfg.CacheDir != "" {
		if err := index.Write(cachePath, meta, idx); err != nil {
			logging.Get().Warn("engine: failed to persist index", "path", cachePath, "err", err)
		}
	}
	return idx, props, false, nil
}

// probeFormat opens a throwaway handle and decodes one frame to learn
// the format, HDR and rotation properties a persisted index cannot
// carry on its own.
func probeFormat(source string, opts decode.Options, open openFunc) (index.VideoProperties, error) {
	handle, err := open(source, opts)
	if err != nil {
		return index.VideoProperties{}, err
	}
	defer handle.Close()
	return index.ProbeFormat(handle)
}

// propertiesFromIndexReload recomputes the pieces of VideoProperties
// that only depend on the persisted FrameRecord slice, for the case
// where the index was loaded from cache and the decoder never reopened.
// Width/height/pixel-format/HDR/rotation are not persisted — only frame
// records are — so callers relying on those after a cache hit must
// still probe format once. See Engine.RefreshFormat.
func propertiesFromIndexReload(idx *index.TrackIndex) index.VideoProperties {
	var props index.VideoProperties
	props.NumFrames = idx.NumFrames()
	props.NumRFFFrames = numRFFFramesOf(idx)
	if len(idx.Frames) > 0 {
		tail := idx.LastFrameDuration
		if tail < 1 {
			tail = 1
		}
		props.Duration = idx.Frames[len(idx.Frames)-1].PTS - idx.Frames[0].PTS + tail
	}
	return props
}

func numRFFFramesOf(idx *index.TrackIndex) int {
	sum := int64(0)
	for _, f := range idx.Frames {
		sum += int64(f.RepeatPict) + 2
	}
	return int((sum + 1) / 2)
}

// RefreshFormat records format/HDR/rotation properties learned by
// probing the source once, for the path where the index itself was
// loaded from cache (the persisted record has no room for
// them). Callers that always rebuild on format-relevant option changes
// may skip this.
func (e *Engine) RefreshFormat(props index.VideoProperties) {
	e.mu.Lock()
	defer e.mu.Unlock()
	numFrames, numRFF, duration := e.props.NumFrames, e.props.NumRFFFrames, e.props.Duration
	e.props = props
	e.props.NumFrames, e.props.NumRFFFrames, e.props.Duration = numFrames, numRFF, duration
	e.tb = timeindex.TimeBase{Num: props.TimeBaseNum, Den: props.TimeBaseDen}
}

// GetVideoProperties returns the derived properties of the open track.
func (e *Engine) GetVideoProperties() index.VideoProperties {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.props
}

// SetMaxCacheSize implements the "set_max_cache_size".
func (e *Engine) SetMaxCacheSize(bytes int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache.SetMaxBytes(bytes)
}

// SetSeekPreroll implements the "set_seek_preroll"; frames must
// be in [0, MaxPreRoll].
func (e *Engine) SetSeekPreroll(frames int) error {
	if frames < 0 || frames > MaxPreRoll {
		return bserrors.New("engine.SetSeekPreroll", bserrors.ArgumentError, fmt.Errorf("preroll %d out of [0,%d]", frames, MaxPreRoll))
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.preRoll = frames
	return nil
}

// Close releases every pooled decoder handle.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var firstErr error
	for _, h := range e.pool.All() {
		if dh, ok := h.(decoderHandle); ok {
			if err := dh.Close(); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	e.pool = pool.New(pool.DefaultCapacity)
	return firstErr
}

// seekFrame computes seek_frame(n): the latest keyframe <= n-PreRoll,
// at index >= 100, whose pts is known and which is not blacklisted, or
// -1 if none qualifies. Below index 100 the caller always falls back to
// decoding from position 0 instead of seeking.
func (e *Engine) seekFrame(n int64) int64 {
	limit := n - int64(e.preRoll)
	for i := limit; i >= shortPrefixThreshold; i-- {
		if i >= int64(len(e.idx.Frames)) {
			continue
		}
		f := e.idx.Frames[i]
		if !f.KeyFrame || f.PTS == index.PTSNone {
			continue
		}
		if _, bad := e.blacklist[i]; bad {
			continue
		}
		return i
	}
	return -1
}

func (e *Engine) blacklistSeekFrame(sf int64) {
	if sf < 0 {
		return
	}
	e.blacklist[sf] = struct{}{}
	logging.Get().Warn("engine: blacklisted seek anchor", "seek_frame", sf)
}

// forceLinearMode destroys every pooled handle, clears the cache, and
// permanently narrows the pool to capacity 1 once the engine commits to
// linear-only decoding.
func (e *Engine) forceLinearMode() {
	if e.linearMode {
		return
	}
	e.linearMode = true
	for _, h := range e.pool.ForceLinear() {
		if dh, ok := h.(decoderHandle); ok {
			delete(e.anchors, dh)
			dh.Close()
		}
	}
	e.cache.Clear()
	logging.Get().Warn("engine: forced to linear mode")
}
