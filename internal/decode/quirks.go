package decode

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// isH264 is a coarse codec check used to decide whether H.264 decoder
// quirks apply. It looks at the decodebin element name chosen
// for the video branch rather than probing caps, since that is the
// cheapest signal already available at pipeline-build time.
func isH264(decoderElementName string) bool {
	return strings.Contains(decoderElementName, "h264")
}

// applyH264Quirks configures an H.264 decoder element: it sets
// "max-threads" to threads and disables direct rendering. It does not
// set has_b_frames (the decoder's reorder depth); GStreamer's avdec_h264
// does not expose that as a property.
func applyH264Quirks(decoder *gst.Element, threads int) {
	if decoder == nil {
		return
	}
	decoder.SetProperty("max-threads", threads)
	decoder.SetProperty("direct-rendering", false)
}

// firstSeekSkip implements "immediately after the first seek, skip one
// frame before reporting any PTS" (the first-packet SEI workaround).
// It is only ever applied once per Handle.
func (h *Handle) firstSeekSkip() error {
	if !h.h264 || h.firstSeekSkipped {
		return nil
	}
	h.firstSeekSkipped = true
	return h.Skip(1)
}
