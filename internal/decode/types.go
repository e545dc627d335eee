package decode

// PTSNone is the sentinel presentation timestamp for frames the demuxer
// could not place on the timeline (FrameRecord.PTS).
const PTSNone int64 = -1 << 63

// RawFrame is one decoded frame as delivered by a Handle: a single
// planar buffer plus the metadata the index builder and RFF remapper
// need.
type RawFrame struct {
	// Data holds the full planar buffer (Y plane followed by subsampled
	// chroma planes), exactly as negotiated by the pipeline's capsfilter.
	Data []byte

	Width, Height int
	Format        string // negotiated caps format, e.g. "I420"

	PTS      int64 // time-base ticks; PTSNone if unseekable
	Duration int64 // time-base ticks

	KeyFrame      bool
	TopFieldFirst bool
	RepeatPict    int32 // -1 is a fatal codec quirk

	// SideData is reserved for per-frame metadata (HDR10+/DoVi RPU and
	// similar) as owned byte buffers keyed by a short source-defined tag.
	// No collector currently populates it; pullRawFrame always returns it
	// empty.
	SideData map[string][]byte
}

// OpenSideData is read once per Handle, at Open.
type OpenSideData struct {
	Stereo3D string // empty if absent

	// HasMasteringDisplay, MasteringDisplay, HasContentLightLevel and
	// ContentLightLevel are reserved for mastering-display-info and
	// content-light-level tag parsing. applyTagsToSideData does not read
	// those tags yet, so these stay zero.
	HasMasteringDisplay  bool
	MasteringDisplay     MasteringDisplay
	HasContentLightLevel bool
	ContentLightLevel    ContentLightLevel

	// RotationDegrees, FlipHorizontal and FlipVertical are normalized per
	// the display-matrix decoupling algorithm.
	RotationDegrees int
	FlipHorizontal  bool
	FlipVertical    bool
}

// MasteringDisplay mirrors GstVideoMasteringDisplayInfo's primaries and
// luminance fields.
type MasteringDisplay struct {
	RedX, RedY     uint16
	GreenX, GreenY uint16
	BlueX, BlueY   uint16
	WhiteX, WhiteY uint16
	MaxLuminance   uint32
	MinLuminance   uint32
}

// ContentLightLevel mirrors GstVideoContentLightLevel.
type ContentLightLevel struct {
	MaxContentLightLevel      uint16
	MaxFrameAverageLightLevel uint16
}

// VideoFormat is the subset of VideoProperties the decoder can only
// learn from the first decoded frame, since caps are often unnegotiated
// before decode begins.
type VideoFormat struct {
	Width, Height  int
	PixelFormat    string
	TimeBaseNum    int64
	TimeBaseDen    int64
	SARNum, SARDen int
	StartTime      int64
}
