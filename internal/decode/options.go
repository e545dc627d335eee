package decode

import "runtime"

// Options configures how Open builds a decode pipeline for one track of
// one source file. The zero value is not valid; construct via
// NewOptions, which applies the spec's defaults.
type Options struct {
	HWDevice       string
	ExtraHWFrames  int
	Track          int // negative = nth video track by occurrence, -1 = first
	VariableFormat bool
	Threads        int
	DemuxerOptions map[string]string
}

// NewOptions returns an Options with the engine's documented defaults:
// first video track, fixed pixel format, auto thread count.
func NewOptions() Options {
	return Options{
		Track:          -1,
		VariableFormat: false,
		Threads:        0,
		DemuxerOptions: map[string]string{},
	}
}

// ResolvedThreads applies the thread-count heuristic:
// caller value below 1 means "auto", which is min(hw_concurrency, 16) for
// software decode, 1 for CUDA+H.264, and min(hw_concurrency, 2) for
// CUDA+any other codec.
func (o Options) ResolvedThreads(codecIsH264 bool) int {
	if o.Threads >= 1 {
		return o.Threads
	}
	cpu := runtime.NumCPU()
	switch {
	case o.HWDevice == "cuda" && codecIsH264:
		return 1
	case o.HWDevice == "cuda":
		return minInt(cpu, 2)
	default:
		return minInt(cpu, 16)
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
