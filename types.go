package bsvideo

import (
	"github.com/e7canasta/bsvideo/internal/decode"
	"github.com/e7canasta/bsvideo/internal/index"
)

// Frame is one decoded frame returned by GetFrame, GetFrameWithRFF or
// GetFrameByTime. Re-exported from internal/decode to avoid an import
// cycle between this package and the internal implementation packages.
type Frame = decode.RawFrame

// VideoProperties is derived from the track index plus the format
// learned from the first decoded frame. Re-exported from internal/index.
type VideoProperties = index.VideoProperties

// FrameRecord is one entry of the persisted per-track index: the
// content hash and container metadata bsvideo uses to verify a decoder
// landed on the frame it claims to. Re-exported from internal/index.
type FrameRecord = index.FrameRecord

// ProgressFunc reports index-build progress at >=1s intervals as
// (current_byte_offset, total_bytes); a terminal call with both values
// at math.MaxInt64 marks completion. Returning from it never aborts
// the build.
type ProgressFunc = index.ProgressFunc
