// Package bsvideo turns a container+codec-decodable video file into an
// addressable sequence of frames indexed by ordinal frame number (or
// presentation time), with bit-exact reproducibility across seeks.
//
// A Frame is produced one of three ways: GetFrame by native ordinal,
// GetFrameWithRFF by telecine-expanded ordinal, or GetFrameByTime by
// presentation time. Every path is backed by the same content-hash
// verification protocol: the engine builds (or loads from a cache
// file) a per-frame hash index on first open, then uses it to confirm
// that any decoder position it lands on via a keyframe seek is really
// the frame it claims to be, falling back to linear decode when it
// can't tell.
//
//	eng, err := bsvideo.Open("clip.mp4", bsvideo.WithCacheDir("/var/cache/bsvideo"))
//	if err != nil {
//		// handle err
//	}
//	defer eng.Close()
//	frame, err := eng.GetFrame(1000, false)
//
// One Engine serves one track of one source. Concurrent calls on the
// same Engine are serialized internally; running many Engines across
// goroutines is the supported way to parallelize.
package bsvideo
