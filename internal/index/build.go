package index

import (
	"fmt"
	"time"

	"github.com/e7canasta/bsvideo/internal/bserrors"
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/hash"
	"github.com/e7canasta/bsvideo/internal/logging"
)

// ProgressFunc reports index-build progress at >=1s intervals.
// A terminal call with current == total == math.MaxInt64
// marks completion. It is informational only: returning from it never
// aborts the build.
type ProgressFunc func(current, total int64)

// Decoder is the subset of *decode.Handle the index builder needs. It is
// an interface, not a concrete type, so tests can decode a synthetic
// in-memory sequence of frames instead of driving a real GStreamer
// pipeline — the same split the corpus draws between StreamProvider and
// RTSPStream in modules/stream-capture/provider.go.
type Decoder interface {
	NextFrame() (*decode.RawFrame, error)
	BytePosition() (current, total int64, ok bool)
	VideoFormat() decode.VideoFormat
	SideData() decode.OpenSideData
}

const progressInterval = 1 * time.Second

// Build decodes d to end-of-stream and produces the TrackIndex and
// VideoProperties for one track. Build succeeds iff at
// least one frame was produced and no frame reported RepeatPict < 0.
func Build(d Decoder, progress ProgressFunc) (*TrackIndex, VideoProperties, error) {
	idx := &TrackIndex{}
	var props VideoProperties
	lastProgress := time.Time{}

	first, err := d.NextFrame()
	if err != nil {
		return nil, props, bserrors.New("index.Build", bserrors.IndexBuildFailed, err)
	}
	if first == nil {
		return nil, props, bserrors.New("index.Build", bserrors.IndexBuildFailed, fmt.Errorf("zero frames decoded"))
	}

	props = propertiesFromFirstFrame(d.VideoFormat(), d.SideData(), first)

	frame := first
	for frame != nil {
		if frame.RepeatPict < 0 {
			return nil, props, bserrors.New("index.Build", bserrors.IndexBuildFailed,
				fmt.Errorf("frame %d reported repeat_pict=%d", len(idx.Frames), frame.RepeatPict))
		}

		idx.Frames = append(idx.Frames, FrameRecord{
			PTS:           frame.PTS,
			RepeatPict:    frame.RepeatPict,
			KeyFrame:      frame.KeyFrame,
			TopFieldFirst: frame.TopFieldFirst,
			Hash:          hash.Frame(frame),
		})
		idx.LastFrameDuration = frame.Duration

		if progress != nil && time.Since(lastProgress) >= progressInterval {
			if cur, total, ok := d.BytePosition(); ok {
				progress(cur, total)
				lastProgress = time.Now()
			}
		}

		var nextErr error
		frame, nextErr = d.NextFrame()
		if nextErr != nil {
			return nil, props, bserrors.New("index.Build", bserrors.IndexBuildFailed, nextErr)
		}
	}

	if progress != nil {
		progress(int64(1)<<63-1, int64(1)<<63-1)
	}

	props.NumFrames = len(idx.Frames)
	props.NumRFFFrames = numRFFFrames(idx.Frames)
	props.Duration = computeDuration(idx)

	logging.Get().Info("index: build complete", "frames", props.NumFrames, "rff_frames", props.NumRFFFrames)
	return idx, props, nil
}

// ProbeFormat decodes exactly one frame from d and returns the
// VideoProperties derivable from it, without building a full index.
// Used when a track index was loaded from cache: the persisted record
// carries frame hashes and timing but not format, HDR or rotation, so
// those need a fresh one-frame decode to fill in.
func ProbeFormat(d Decoder) (VideoProperties, error) {
	first, err := d.NextFrame()
	if err != nil {
		return VideoProperties{}, bserrors.New("index.ProbeFormat", bserrors.IndexBuildFailed, err)
	}
	if first == nil {
		return VideoProperties{}, bserrors.New("index.ProbeFormat", bserrors.IndexBuildFailed, fmt.Errorf("zero frames decoded"))
	}
	return propertiesFromFirstFrame(d.VideoFormat(), d.SideData(), first), nil
}

func propertiesFromFirstFrame(fmt_ decode.VideoFormat, side decode.OpenSideData, first *decode.RawFrame) VideoProperties {
	width, height := fmt_.Width, fmt_.Height
	if width == 0 {
		width = first.Width
	}
	if height == 0 {
		height = first.Height
	}
	pixelFormat := fmt_.PixelFormat
	if pixelFormat == "" {
		pixelFormat = first.Format
	}

	tbNum, tbDen := fmt_.TimeBaseNum, fmt_.TimeBaseDen
	if tbDen == 0 {
		// GStreamer buffer timestamps, which become FrameRecord.PTS, are
		// in nanoseconds.
		tbNum, tbDen = 1, 1000000000
	}

	return VideoProperties{
		Width:                width,
		Height:               height,
		PixelFormat:          pixelFormat,
		FPSNum:               tbDen,
		FPSDen:               tbNum,
		SARNum:               maxInt(fmt_.SARNum, 1),
		SARDen:               maxInt(fmt_.SARDen, 1),
		TimeBaseNum:          tbNum,
		TimeBaseDen:          tbDen,
		StartTime:            fmt_.StartTime,
		RotationDegrees:      side.RotationDegrees,
		FlipHorizontal:       side.FlipHorizontal,
		FlipVertical:         side.FlipVertical,
		Stereo3D:             side.Stereo3D,
		HasMasteringDisplay:  side.HasMasteringDisplay,
		HasContentLightLevel: side.HasContentLightLevel,
	}
}

// numRFFFrames implements the invariant: sum(repeat_pict+2)
// over all frames equals twice the RFF frame count.
func numRFFFrames(frames []FrameRecord) int {
	sum := int64(0)
	for _, f := range frames {
		sum += int64(f.RepeatPict) + 2
	}
	return int((sum + 1) / 2)
}

func computeDuration(idx *TrackIndex) int64 {
	if len(idx.Frames) == 0 {
		return 0
	}
	first := idx.Frames[0].PTS
	last := idx.Frames[len(idx.Frames)-1].PTS
	tail := idx.LastFrameDuration
	if tail < 1 {
		tail = 1
	}
	return last - first + tail
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
