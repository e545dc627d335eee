// Command bsvideo-probe builds (or loads) a track index for one video
// file and reports its properties, demonstrating the library end to
// end: open, inspect, fetch a frame, optionally emit a timecode file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"

	"github.com/e7canasta/bsvideo"
)

func main() {
	source := flag.String("source", "", "path to the video file (required)")
	cacheDir := flag.String("cache-dir", "", "directory for the persisted index (empty disables caching)")
	track := flag.Int("track", -1, "track index; negative = nth video track by occurrence, -1 = first")
	hwDevice := flag.String("hw-device", "", `hardware device name (e.g. "cuda"), passed to bsvideo.WithHWDevice`)
	frame := flag.Int64("frame", -1, "fetch this frame ordinal and report its hash")
	rff := flag.Bool("rff", false, "fetch -frame through GetFrameWithRFF instead of GetFrame")
	seconds := flag.Float64("seconds", math.NaN(), "fetch the frame nearest this presentation time instead of -frame")
	timecodes := flag.String("timecodes", "", "write a timecode format v2 file to this path")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	bsvideo.SetLogger(logger)

	if *source == "" {
		fmt.Fprintln(os.Stderr, "bsvideo-probe: -source is required")
		os.Exit(2)
	}

	opts := []bsvideo.Option{
		bsvideo.WithTrack(*track),
		bsvideo.WithHWDevice(*hwDevice),
		bsvideo.WithProgress(func(current, total int64) {
			if current == math.MaxInt64 && total == math.MaxInt64 {
				slog.Info("probe: index build complete")
				return
			}
			slog.Info("probe: index build progress", "current", current, "total", total)
		}),
	}
	if *cacheDir != "" {
		opts = append(opts, bsvideo.WithCacheDir(*cacheDir))
	}

	eng, err := bsvideo.Open(*source, opts...)
	if err != nil {
		slog.Error("probe: open failed", "err", err)
		os.Exit(1)
	}
	defer eng.Close()

	props := eng.GetVideoProperties()
	fmt.Printf("width=%d height=%d pixel_format=%s num_frames=%d num_rff_frames=%d duration=%d rotation=%d\n",
		props.Width, props.Height, props.PixelFormat, props.NumFrames, props.NumRFFFrames, props.Duration, props.RotationDegrees)

	if !math.IsNaN(*seconds) {
		f, err := eng.GetFrameByTime(*seconds)
		if err != nil {
			slog.Error("probe: get_frame_by_time failed", "err", err)
			os.Exit(1)
		}
		reportFrame(*seconds, f)
	} else if *frame >= 0 {
		var f *bsvideo.Frame
		if *rff {
			f, err = eng.GetFrameWithRFF(*frame)
		} else {
			f, err = eng.GetFrame(*frame, false)
		}
		if err != nil {
			slog.Error("probe: get_frame failed", "err", err, "frame", *frame)
			os.Exit(1)
		}
		reportFrame(float64(*frame), f)
	}

	if *timecodes != "" {
		ok, err := eng.WriteTimecodes(*timecodes)
		if err != nil || !ok {
			slog.Error("probe: write_timecodes failed", "err", err)
			os.Exit(1)
		}
		fmt.Printf("wrote timecodes to %s\n", *timecodes)
	}
}

func reportFrame(key float64, f *bsvideo.Frame) {
	if f == nil {
		fmt.Printf("frame at %v: not available\n", key)
		return
	}
	fmt.Printf("frame at %v: %dx%d %s pts=%d key_frame=%v\n", key, f.Width, f.Height, f.Format, f.PTS, f.KeyFrame)
}
