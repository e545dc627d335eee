// Package index builds and persists a per-track frame index.
package index

import "github.com/e7canasta/bsvideo/internal/hash"

// FrameRecord is one entry per decoded frame. store.go writes each
// record field by field (hash, pts, repeat_pict, flags); changing that
// on-disk layout requires bumping formatVersion.
type FrameRecord struct {
	PTS           int64
	RepeatPict    int32
	KeyFrame      bool
	TopFieldFirst bool
	Hash          hash.Digest
}

// PTSNone is the sentinel presentation timestamp for unseekable frames.
const PTSNone int64 = -1 << 63

// TrackIndex is the ordered sequence of FrameRecord produced by a full
// decode pass, plus the trailing duration needed to compute the track's
// total duration.
type TrackIndex struct {
	Frames            []FrameRecord
	LastFrameDuration int64
}

// NumFrames is the native (pre-RFF) frame count.
func (t *TrackIndex) NumFrames() int { return len(t.Frames) }

// VideoProperties is derived from a built/loaded TrackIndex plus the
// format learned from the first decoded frame.
type VideoProperties struct {
	Width, Height int
	PixelFormat   string
	FPSNum, FPSDen int
	SARNum, SARDen int

	// TimeBaseNum/TimeBaseDen are the track's PTS time base: one tick is
	// TimeBaseNum/TimeBaseDen seconds. internal/timeindex uses this
	// directly; FPSNum/FPSDen above are a derived display value.
	TimeBaseNum, TimeBaseDen int64

	NumFrames    int
	NumRFFFrames int

	Duration  int64
	StartTime int64

	RotationDegrees int
	FlipHorizontal  bool
	FlipVertical    bool
	Stereo3D        string

	HasMasteringDisplay  bool
	HasContentLightLevel bool
}
