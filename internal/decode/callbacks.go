package decode

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/bsvideo/internal/logging"
)

// trackSelector implements decodebin's "pad-added" handling. decodebin
// exposes one dynamic src pad per elementary stream it demuxes+decodes;
// trackSelector counts the video ones and links only the wantIndex'th
// occurrence (a negative wantIndex -k means the k-th video pad, so -1 is
// the first), routing every other pad
// to fakesink. This is the Go-GStreamer analogue of OnPadAdded in the
// corpus's rtsp/callbacks.go, generalized from "the one RTSP video pad"
// to "the Nth video pad among possibly several".
type trackSelector struct {
	wantIndex     int
	videoPadSeen  int
	converter     *gst.Element
	fakesink      *gst.Element
	selected      bool
	badTrackCause error
}

func (s *trackSelector) onPadAdded(_ *gst.Element, pad *gst.Pad) {
	caps := pad.GetCurrentCaps()
	if caps == nil {
		caps = pad.QueryCaps(nil)
	}
	if caps == nil || !strings.HasPrefix(caps.String(), "video/x-raw") {
		s.linkToFakesink(pad)
		return
	}

	isWanted := false
	if s.wantIndex < 0 {
		isWanted = s.videoPadSeen == -s.wantIndex-1 && !s.selected
	} else {
		isWanted = s.videoPadSeen == s.wantIndex
	}
	s.videoPadSeen++

	if !isWanted || s.selected {
		s.linkToFakesink(pad)
		return
	}

	sinkPad := s.converter.GetStaticPad("sink")
	if sinkPad == nil {
		logging.Get().Error("decode: videoconvert has no sink pad")
		return
	}
	if ret := pad.Link(sinkPad); ret != gst.PadLinkOK {
		logging.Get().Error("decode: failed to link selected video pad", "ret", ret)
		return
	}
	s.selected = true
	logging.Get().Debug("decode: selected video pad", "pad", pad.GetName())
}

func (s *trackSelector) linkToFakesink(pad *gst.Pad) {
	sinkPad := s.fakesink.GetStaticPad("sink")
	if sinkPad == nil {
		return
	}
	// fakesink only ever needs one pad linked at a time for our purposes
	// (we discard, never inspect, these streams); request a fresh request
	// pad if the static one is already taken.
	if sinkPad.IsLinked() {
		sinkPad = s.fakesink.GetRequestPad("sink_%u")
		if sinkPad == nil {
			return
		}
	}
	pad.Link(sinkPad)
}

// pullRawFrame pulls one decoded buffer off appsink and converts it into
// a RawFrame, mirroring OnNewSample in the corpus's rtsp/callbacks.go:
// pull the sample, map the buffer to read pixel data, copy it out (the
// buffer is owned by GStreamer and will be reused), unmap. Returns
// (nil, nil) at end-of-stream.
func pullRawFrame(sink interface{ PullSample() *gst.Sample }) (*RawFrame, error) {
	sample := sink.PullSample()
	if sample == nil {
		return nil, nil // EOS
	}

	buffer := sample.GetBuffer()
	if buffer == nil {
		return nil, nil
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	frameData := make([]byte, len(data))
	copy(frameData, data)
	buffer.Unmap()

	width, height, format := parseVideoCaps(sample.GetCaps())

	keyFrame := !buffer.HasFlags(gst.BufferFlagDeltaUnit)
	topFieldFirst := buffer.HasFlags(gst.BufferFlagTFF)
	repeatPict := int32(0)
	if buffer.HasFlags(gst.BufferFlagRFF) {
		repeatPict = 1
	}

	return &RawFrame{
		Data:          frameData,
		Width:         width,
		Height:        height,
		Format:        format,
		PTS:           int64(buffer.PresentationTimestamp()),
		Duration:      int64(buffer.Duration()),
		KeyFrame:      keyFrame,
		TopFieldFirst: topFieldFirst,
		RepeatPict:    repeatPict,
		SideData:      map[string][]byte{}, // reserved, see RawFrame.SideData
	}, nil
}

// parseVideoCaps extracts width, height and format from a negotiated
// "video/x-raw,format=I420,width=W,height=H,..." caps string without
// depending on a specific go-gst structure accessor, matching the
// corpus's own preference (buildFramerateCaps in rtsp/pipeline.go) for
// building/reading caps as plain strings.
func parseVideoCaps(caps *gst.Caps) (width, height int, format string) {
	if caps == nil {
		return 0, 0, ""
	}
	s := caps.String()
	format = capsField(s, "format")
	width = atoiOr(capsField(s, "width"), 0)
	height = atoiOr(capsField(s, "height"), 0)
	return width, height, format
}

func capsField(caps, key string) string {
	idx := strings.Index(caps, key+"=")
	if idx < 0 {
		return ""
	}
	rest := caps[idx+len(key)+1:]
	// Skip a GStreamer type annotation such as "(string)" or "(int)".
	if strings.HasPrefix(rest, "(") {
		if closeIdx := strings.Index(rest, ")"); closeIdx >= 0 {
			rest = rest[closeIdx+1:]
		}
	}
	end := strings.IndexAny(rest, ", )")
	if end < 0 {
		end = len(rest)
	}
	return strings.Trim(rest[:end], "()\"")
}

func atoiOr(s string, def int) int {
	n := 0
	seen := false
	for _, c := range s {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		seen = true
	}
	if !seen {
		return def
	}
	return n
}
