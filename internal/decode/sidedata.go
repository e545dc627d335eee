package decode

import (
	"math"
	"strings"

	"github.com/tinyzimmer/go-gst/gst"
)

// applyTagsToSideData folds one GStreamer tag list into OpenSideData:
// "image-orientation" for rotation and a multiview/Stereo3D mode string
// for 3D flags. Mastering-display and content-light-level metadata are
// not read here; OpenSideData's HasMasteringDisplay/HasContentLightLevel
// stay false until a demuxer/parser path that exposes those tags is
// wired in.
func applyTagsToSideData(tags *gst.TagList, side *OpenSideData) {
	if tags == nil {
		return
	}
	if v, ok := tags.GetValue("image-orientation"); ok {
		side.RotationDegrees = parseOrientationDegrees(v)
	}
	if v, ok := tags.GetValue("multiview-mode"); ok {
		if s, ok := v.(string); ok {
			side.Stereo3D = s
		}
	}
}

func parseOrientationDegrees(v interface{}) int {
	s, ok := v.(string)
	if !ok {
		return 0
	}
	switch {
	case strings.Contains(s, "90"):
		return 90
	case strings.Contains(s, "180"):
		return 180
	case strings.Contains(s, "270"):
		return 270
	default:
		return 0
	}
}

// normalizeRotation applies the rotation/flip decoupling
// algorithm to a raw rotation reading. It is expressed directly against
// the 2x2 minor determinant of a synthetic display matrix built from
// (rot, flipH, flipV) so the same code path serves both a source that
// reports a plain rotation tag (det is always +1) and one that reports
// an already-decoupled flip (det may be -1).
func normalizeRotation(rot int, flipH, flipV bool) (degrees int, outFlipH, outFlipV bool) {
	det := 1.0
	if flipH != flipV {
		det = -1.0
	}

	r := float64(rot)
	if det < 0 {
		flipH = true
		r = -r
	}
	rr := math.Round(r)

	if (int(rr)%360+360)%360 == 180 && det < 0 {
		flipV = true
		flipH = false
		rr = 0
	} else if flipH || flipV {
		rr = -rr
	}

	degrees = int(math.Mod(-rr+360, 360))
	return degrees, flipH, flipV
}
