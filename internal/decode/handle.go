// Package decode wraps one open demuxer and codec as a handle exposing
// next-frame, skip, seek, has-seeked and current-frame-number
// operations. The container/codec backend is GStreamer, reached through
// github.com/tinyzimmer/go-gst.
package decode

import (
	"fmt"
	"time"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/bsvideo/internal/bserrors"
	"github.com/e7canasta/bsvideo/internal/logging"
)

// FrameUnknown is the sentinel current_frame_number value after a seek,
// before the caller has re-established the decoder's position via the
// seek-and-verify protocol.
const FrameUnknown int64 = -1

// Handle wraps one open GStreamer pipeline. It is move-only in spirit:
// callers must call Close exactly once and must not use a Handle from
// more than one goroutine concurrently (the engine serializes access via
// its own mutex).
type Handle struct {
	source string
	opts   Options

	elements *pipelineElements

	currentFrameNumber int64
	hasSeeked          bool
	seekable           bool
	closed             bool
	h264               bool
	firstSeekSkipped   bool

	sideData OpenSideData
	format   VideoFormat
}

// Open builds and starts a decode pipeline for source, selecting the
// track named by opts.Track. If the selected stream is not video, Open
// fails with bserrors.BadTrack.
func Open(source string, opts Options) (*Handle, error) {
	elements, err := buildPipeline(source, opts)
	if err != nil {
		return nil, bserrors.New("decode.Open", bserrors.OpenFailed, err)
	}

	if err := elements.Pipeline.SetState(gst.StatePaused); err != nil {
		return nil, bserrors.New("decode.Open", bserrors.OpenFailed, err)
	}

	h := &Handle{
		source:              source,
		opts:                opts,
		elements:            elements,
		currentFrameNumber:  0,
		seekable:            true,
	}

	sideData, videoSeen, err := h.preroll()
	if err != nil {
		elements.Pipeline.SetState(gst.StateNull)
		return nil, err
	}
	if !videoSeen {
		elements.Pipeline.SetState(gst.StateNull)
		return nil, bserrors.New("decode.Open", bserrors.BadTrack, fmt.Errorf("track %d is not video", opts.Track))
	}
	h.sideData = sideData

	if err := elements.Pipeline.SetState(gst.StatePlaying); err != nil {
		elements.Pipeline.SetState(gst.StateNull)
		return nil, bserrors.New("decode.Open", bserrors.OpenFailed, err)
	}

	logging.Get().Info("decode: opened", "source", source, "track", opts.Track, "hw_device", opts.HWDevice)
	return h, nil
}

// preroll drains the pipeline's bus until PAUSED is reached (or an error
// occurs), collecting the side-data that must be read once at
// open: Stereo3D, mastering display, CLL, rotation. Mirrors the
// corpus's MonitorPipelineBus polling loop in rtsp/monitor.go, but
// runs synchronously to completion instead of for the pipeline's whole
// lifetime.
func (h *Handle) preroll() (OpenSideData, bool, error) {
	bus := h.elements.Pipeline.GetPipelineBus()
	var side OpenSideData
	videoSeen := h.selectorSawVideo()

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		msg := bus.TimedPop(100 * time.Millisecond)
		if msg == nil {
			videoSeen = h.selectorSawVideo()
			if videoSeen && h.prerollReached() {
				break
			}
			continue
		}

		switch msg.Type() {
		case gst.MessageError:
			gerr := msg.ParseError()
			return side, false, bserrors.New("decode.preroll", classifyGstError(gerr), fmt.Errorf("%s", gerr.Error()))
		case gst.MessageAsyncDone, gst.MessageStateChanged:
			if h.prerollReached() {
				videoSeen = h.selectorSawVideo()
			}
		case gst.MessageTag:
			applyTagsToSideData(msg.ParseTag(), &side)
		}
		if videoSeen && h.prerollReached() {
			break
		}
	}

	side.RotationDegrees, side.FlipHorizontal, side.FlipVertical = normalizeRotation(side.RotationDegrees, side.FlipHorizontal, side.FlipVertical)
	return side, videoSeen, nil
}

func (h *Handle) selectorSawVideo() bool {
	return h.elements != nil && h.elements.Selector != nil && h.elements.Selector.selected
}

func (h *Handle) prerollReached() bool {
	_, state, _ := h.elements.Pipeline.GetState(gst.StatePaused, 0)
	return state == gst.StatePaused
}

// NextFrame decodes and returns the next frame, or (nil, nil) at
// end-of-stream. It increments current_frame_number on every delivered
// frame.
func (h *Handle) NextFrame() (*RawFrame, error) {
	if h.closed {
		return nil, bserrors.New("decode.NextFrame", bserrors.DecodeError, fmt.Errorf("handle closed"))
	}

	frame, err := pullRawFrame(h.elements.AppSink)
	if err != nil {
		return nil, bserrors.New("decode.NextFrame", bserrors.DecodeError, err)
	}
	if frame == nil {
		return nil, nil
	}
	if h.currentFrameNumber != FrameUnknown {
		h.currentFrameNumber++
	}
	return frame, nil
}

// Skip decodes and discards n frames.
func (h *Handle) Skip(n int) error {
	for i := 0; i < n; i++ {
		frame, err := h.NextFrame()
		if err != nil {
			return err
		}
		if frame == nil {
			return nil // end of stream, nothing left to skip
		}
	}
	return nil
}

// Seek requests a keyframe-backward seek to pts (in the track's time
// base). It flushes codec state and sets current_frame_number to
// FrameUnknown. It returns false, without error, if the demuxer rejects
// the seek — callers must then treat the handle as unseekable.
func (h *Handle) Seek(pts int64) (bool, error) {
	if !h.seekable {
		return false, nil
	}
	ok := h.elements.Pipeline.SeekSimple(gst.FormatTime, gst.SeekFlagFlush|gst.SeekFlagKeyUnit, gst.ClockTime(pts))
	if !ok {
		h.seekable = false
		logging.Get().Warn("decode: seek rejected, handle now unseekable", "pts", pts)
		return false, nil
	}
	h.currentFrameNumber = FrameUnknown
	h.hasSeeked = true
	h.h264 = h.elements.h264.get()
	if err := h.firstSeekSkip(); err != nil {
		return true, err
	}
	return true, nil
}

// HasSeeked reports whether Seek has ever succeeded on this handle.
func (h *Handle) HasSeeked() bool { return h.hasSeeked }

// CurrentFrameNumber returns the ordinal of the next frame NextFrame
// will deliver, or FrameUnknown after a seek whose landing position has
// not yet been re-established.
func (h *Handle) CurrentFrameNumber() int64 { return h.currentFrameNumber }

// SetCurrentFrameNumber lets the seek-and-verify state machine install
// the ordinal it determined by hash matching once a match window
// resolves.
func (h *Handle) SetCurrentFrameNumber(n int64) { h.currentFrameNumber = n }

// SideData returns the metadata collected once at Open.
func (h *Handle) SideData() OpenSideData { return h.sideData }

// VideoFormat returns the format properties learned from decode, valid
// only after the first successful NextFrame call.
func (h *Handle) VideoFormat() VideoFormat { return h.format }

// SetVideoFormat lets the index builder record what it observed on the
// first decoded frame, since caps are often unnegotiated before decode
// begins.
func (h *Handle) SetVideoFormat(f VideoFormat) { h.format = f }

// BytePosition reports the demuxer's current and total byte offsets in
// the source file, for the index builder's progress callback to report
// at >=1s intervals. Returns ok=false if the pipeline cannot answer a
// byte-format position query.
func (h *Handle) BytePosition() (current, total int64, ok bool) {
	pos, posOK := h.elements.Pipeline.QueryPosition(gst.FormatBytes)
	dur, durOK := h.elements.Pipeline.QueryDuration(gst.FormatBytes)
	if !posOK || !durOK {
		return 0, 0, false
	}
	return pos, dur, true
}

// Close releases the underlying pipeline. Safe to call more than once.
func (h *Handle) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	if h.elements != nil && h.elements.Pipeline != nil {
		if err := h.elements.Pipeline.SetState(gst.StateNull); err != nil {
			return bserrors.New("decode.Close", bserrors.DecodeError, err)
		}
	}
	return nil
}
