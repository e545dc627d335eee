package decode

import (
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"
	"github.com/tinyzimmer/go-gst/gst/app"

	"github.com/e7canasta/bsvideo/internal/logging"
)

// pipelineElements holds the elements a Handle needs to keep a reference
// to after construction, mirroring PipelineElements in the corpus's
// rtsp/pipeline.go (kept for hot properties and clean teardown).
type pipelineElements struct {
	Pipeline   *gst.Pipeline
	AppSink    *app.Sink
	FileSrc    *gst.Element
	DecodeBin  *gst.Element
	CapsFilter *gst.Element
	Selector   *trackSelector
	h264       *atomicBool
}

// buildPipeline constructs, but does not start, a
// filesrc ! decodebin ! videoconvert ! capsfilter ! appsink
// pipeline for source, selecting the Nth video pad decodebin exposes per
// opts.Track (negative = nth video track by occurrence, -1 = first).
// Non-selected decodebin pads are routed to a fakesink so the demuxer
// can discard them without stalling the pipeline.
func buildPipeline(source string, opts Options) (*pipelineElements, error) {
	gst.Init(nil)

	pipeline, err := gst.NewPipeline("")
	if err != nil {
		return nil, fmt.Errorf("new pipeline: %w", err)
	}

	filesrc, err := gst.NewElement("filesrc")
	if err != nil {
		return nil, fmt.Errorf("new filesrc: %w", err)
	}
	filesrc.SetProperty("location", source)

	decodebin, err := gst.NewElement("decodebin")
	if err != nil {
		return nil, fmt.Errorf("new decodebin: %w", err)
	}
	if !opts.VariableFormat {
		// Ask decodebin's internal decoders to drop frames whose format
		// changes mid-stream rather than renegotiating caps.
		decodebin.SetProperty("caps-change-mode", "ignore")
	}

	converter, err := gst.NewElement("videoconvert")
	if err != nil {
		return nil, fmt.Errorf("new videoconvert: %w", err)
	}

	capsfilter, err := gst.NewElement("capsfilter")
	if err != nil {
		return nil, fmt.Errorf("new capsfilter: %w", err)
	}
	// A fixed planar format gives the frame hasher a known, documented
	// plane layout; this stands in for an out-of-scope pixel-format
	// repacker.
	capsfilter.SetProperty("caps", gst.NewCapsFromString("video/x-raw,format=I420"))

	appsink, err := app.NewAppSink()
	if err != nil {
		return nil, fmt.Errorf("new appsink: %w", err)
	}
	appsink.SetProperty("sync", false)
	appsink.SetProperty("max-buffers", 2)
	appsink.SetProperty("drop", false) // the engine, not GStreamer, decides what to discard

	fakesink, err := gst.NewElement("fakesink")
	if err != nil {
		return nil, fmt.Errorf("new fakesink: %w", err)
	}
	fakesink.SetProperty("sync", false)

	if err := pipeline.AddMany(filesrc, decodebin, converter, capsfilter, appsink.Element, fakesink); err != nil {
		return nil, fmt.Errorf("add elements: %w", err)
	}
	if err := filesrc.Link(decodebin); err != nil {
		return nil, fmt.Errorf("link filesrc->decodebin: %w", err)
	}
	if err := gst.ElementLinkMany(converter, capsfilter, appsink.Element); err != nil {
		return nil, fmt.Errorf("link converter chain: %w", err)
	}

	sel := &trackSelector{wantIndex: opts.Track, converter: converter, fakesink: fakesink}
	decodebin.Connect("pad-added", sel.onPadAdded)

	h264Flag := &atomicBool{}
	threads := opts.ResolvedThreads(true)
	decodebin.Connect("deep-element-added", func(_, _, element *gst.Element) {
		factory := element.GetFactory()
		if factory == nil {
			return
		}
		if isH264(factory.GetName()) {
			h264Flag.set(true)
			applyH264Quirks(element, threads)
		}
	})

	logging.Get().Debug("decode: pipeline built", "source", source, "track", opts.Track)

	return &pipelineElements{
		Pipeline:   pipeline,
		AppSink:    appsink,
		FileSrc:    filesrc,
		DecodeBin:  decodebin,
		CapsFilter: capsfilter,
		Selector:   sel,
		h264:       h264Flag,
	}, nil
}
