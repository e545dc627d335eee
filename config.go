package bsvideo

// options gathers Open's configuration, assembled via functional
// options in the usual Go style rather than one wide constructor.
type options struct {
	hwDevice       string
	extraHWFrames  int
	track          int
	variableFormat bool
	threads        int
	cacheDir       string
	demuxerOptions map[string]string
	progress       ProgressFunc

	maxCacheBytes    int64
	setMaxCacheBytes bool
	seekPreroll      int
	setSeekPreroll   bool
}

func newOptions() *options {
	return &options{
		track:          -1,
		demuxerOptions: map[string]string{},
	}
}

// Option configures Open.
type Option func(*options)

// WithHWDevice names a hardware acceleration device (e.g. "cuda"); the
// default is the empty string. The name feeds the thread-count heuristic
// and the index cache's staleness check; the pipeline does not choose a
// decoder by it (decodebin picks the decoder).
func WithHWDevice(device string) Option {
	return func(o *options) { o.hwDevice = device }
}

// WithExtraHWFrames records a count of additional hardware frame-pool
// slots. The GStreamer pipeline does not read it, so it has no effect on
// decoding.
func WithExtraHWFrames(n int) Option {
	return func(o *options) { o.extraHWFrames = n }
}

// WithTrack selects which stream to decode: negative means "nth video
// track by occurrence, -1 = first" (the default).
func WithTrack(track int) Option {
	return func(o *options) { o.track = track }
}

// WithVariableFormat allows the decoder to renegotiate caps mid-stream
// instead of dropping frames whose format changed.
func WithVariableFormat(variable bool) Option {
	return func(o *options) { o.variableFormat = variable }
}

// WithThreads overrides the decoder thread count. A value below 1
// (the default) selects the automatic heuristic. The count is applied
// to H.264 decoder elements only.
func WithThreads(n int) Option {
	return func(o *options) { o.threads = n }
}

// WithCacheDir sets the directory index files are read from and
// written to. Leaving it unset disables index persistence: every Open
// rebuilds the index by a full decode pass.
func WithCacheDir(dir string) Option {
	return func(o *options) { o.cacheDir = dir }
}

// WithDemuxerOption sets one demuxer-specific key/value option; it may
// be called more than once. These values participate in the cache
// file's staleness check.
func WithDemuxerOption(key, value string) Option {
	return func(o *options) { o.demuxerOptions[key] = value }
}

// WithProgress registers a callback for index-build progress, per
// ProgressFunc's contract. It is informational only.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithMaxCacheSize sets the frame cache's byte budget at open, instead
// of calling SetMaxCacheSize afterwards.
func WithMaxCacheSize(bytes int64) Option {
	return func(o *options) { o.maxCacheBytes, o.setMaxCacheBytes = bytes, true }
}

// WithSeekPreroll sets the seek preroll (frames, [0,40]) at open,
// instead of calling SetSeekPreroll afterwards.
func WithSeekPreroll(frames int) Option {
	return func(o *options) { o.seekPreroll, o.setSeekPreroll = frames, true }
}
