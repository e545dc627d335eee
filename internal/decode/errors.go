package decode

import (
	"strings"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/bsvideo/internal/bserrors"
)

// classifyGstError maps a GStreamer GError onto the bsvideo error
// vocabulary. Adapted from the corpus's ClassifyGStreamerError, which
// classified errors into telemetry buckets (network/codec/auth/unknown)
// for RTSP reconnection decisions; here the same string-matching
// approach picks the bserrors.Kind an Open or decode failure surfaces
// as, since go-gst's GError does not expose a structured Domain().
func classifyGstError(gerr *gst.GError) bserrors.Kind {
	if gerr == nil {
		return bserrors.DecodeError
	}

	combined := strings.ToLower(gerr.Error() + " " + gerr.DebugString())

	switch {
	case containsAny(combined, "no such file", "could not open", "resource not found", "permission denied"):
		return bserrors.OpenFailed
	case containsAny(combined, "no decoder", "missing plugin", "not negotiated", "unsupported"):
		return bserrors.UnsupportedFormat
	case containsAny(combined, "no such element", "stream does not contain", "no video"):
		return bserrors.BadTrack
	default:
		return bserrors.DecodeError
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
