// Package digitize runs the full extraction of every configured lead from one
// ECG page: grid detection, region cropping, tracing, calibration and preview
// rendering.
package digitize

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"

	"ecg-digitizer/internal/calibrate"
	"ecg-digitizer/internal/grid"
	pageimage "ecg-digitizer/internal/image"
	"ecg-digitizer/internal/lead"
	"ecg-digitizer/internal/preview"
	"ecg-digitizer/internal/region"
	"ecg-digitizer/internal/trace"
	"ecg-digitizer/pkg/raster"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Result is the output of one Digitize call.
type Result struct {
	Signals  map[lead.ID]calibrate.Signal
	Previews map[lead.ID]preview.Preview

	// Grid is the detected grid, or the fallback spacing with no mask.
	Grid         *grid.Grid
	GridFallback bool

	// Blank lists leads whose region held no ink and were flattened.
	Blank []lead.ID
}

// Pipeline digitizes pages. It holds configuration only and is safe for
// concurrent use.
type Pipeline struct {
	opts   Options
	logger *logrus.Logger
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New creates a pipeline.
func New(opts Options, options ...Option) *Pipeline {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	silent := logrus.New()
	silent.SetOutput(io.Discard)

	p := &Pipeline{opts: opts, logger: silent}
	for _, o := range options {
		o(p)
	}
	return p
}

// Options returns the pipeline configuration.
func (p *Pipeline) Options() Options {
	return p.opts
}

// DigitizeFile loads the page at path and digitizes it.
func (p *Pipeline) DigitizeFile(ctx context.Context, path string, req lead.Request) (*Result, error) {
	src, err := pageimage.Load(path)
	if err != nil {
		return nil, err
	}
	return p.Digitize(ctx, src.Image, req)
}

// leadOutput is what one lead worker produces.
type leadOutput struct {
	signal  calibrate.Signal
	preview preview.Preview
	blank   bool
}

// Digitize extracts every lead of req from img. It either returns a signal
// and preview for every lead or an error and nothing else. A failing lead
// yields a *LeadError matching ErrSignalProcessing.
func (p *Pipeline) Digitize(ctx context.Context, img image.Image, req lead.Request) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := p.logger.WithField("rotation", req.Rotation())

	frame, err := region.NewFrame(img, req.Rotation(), p.opts.ExpandCanvas)
	if err != nil {
		return nil, fmt.Errorf("rotate page: %w", err)
	}
	b := frame.Bounds()
	log.WithFields(logrus.Fields{
		"width":  b.Dx(),
		"height": b.Dy(),
	}).Debug("page rotated")

	g, fallback, err := p.detectGrid(frame, log)
	if err != nil {
		return nil, err
	}

	cal, err := calibrate.New(&calibrate.Spacing{
		Horizontal: g.HorizontalSpacing,
		Vertical:   g.VerticalSpacing,
	}, req.TimeScale(), req.VoltScale())
	if err != nil {
		return nil, err
	}

	ids := req.Leads()
	outputs := make([]leadOutput, len(ids))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(p.opts.Workers)
	for i, id := range ids {
		spec, _ := req.Lead(id)
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := p.digitizeLead(gctx, frame, g, cal, id, spec, log)
			if err != nil {
				return err
			}
			outputs[i] = out
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}

	res := &Result{
		Signals:      make(map[lead.ID]calibrate.Signal, len(ids)),
		Previews:     make(map[lead.ID]preview.Preview, len(ids)),
		Grid:         g,
		GridFallback: fallback,
	}
	for i, id := range ids {
		res.Signals[id] = outputs[i].signal
		res.Previews[id] = outputs[i].preview
		if outputs[i].blank {
			res.Blank = append(res.Blank, id)
		}
	}

	log.WithFields(logrus.Fields{
		"leads":     len(ids),
		"h_spacing": g.HorizontalSpacing,
		"v_spacing": g.VerticalSpacing,
		"fallback":  fallback,
	}).Info("page digitized")

	return res, nil
}

// detectGrid finds the grid of the rotated page, applying the fallback
// spacing when one is configured.
func (p *Pipeline) detectGrid(frame *region.Frame, log *logrus.Entry) (*grid.Grid, bool, error) {
	g, err := grid.Detect(frame.Gray, p.opts.Grid)
	if err == nil {
		log.WithFields(logrus.Fields{
			"h_spacing": g.HorizontalSpacing,
			"v_spacing": g.VerticalSpacing,
		}).Debug("grid detected")
		return g, false, nil
	}
	if !errors.Is(err, grid.ErrGridNotFound) || p.opts.FallbackSpacing <= 0 {
		return nil, false, err
	}

	log.WithError(err).WithField("spacing", p.opts.FallbackSpacing).Warn("grid not found, using fallback spacing")
	return &grid.Grid{
		HorizontalSpacing: p.opts.FallbackSpacing,
		VerticalSpacing:   p.opts.FallbackSpacing,
	}, true, nil
}

// digitizeLead crops, traces, calibrates and renders one lead.
func (p *Pipeline) digitizeLead(ctx context.Context, frame *region.Frame, g *grid.Grid,
	cal *calibrate.Calibrator, id lead.ID, spec lead.Spec, log *logrus.Entry) (leadOutput, error) {
	log = log.WithField("lead", id.String())

	win, err := frame.Crop(spec.Region)
	if err != nil {
		return leadOutput{}, &LeadError{Lead: id, Err: err}
	}
	if err := ctx.Err(); err != nil {
		return leadOutput{}, err
	}

	var mask *raster.Mask
	if g.Mask != nil {
		mask = g.Mask.Window(win.Bounds)
	}

	tr, err := trace.Trace(win.Gray, mask, p.opts.Trace)
	if err != nil {
		return leadOutput{}, &LeadError{Lead: id, Err: err}
	}
	if tr.Blank {
		if p.opts.RejectBlankLeads {
			return leadOutput{}, &LeadError{Lead: id, Err: ErrBlankRegion}
		}
		log.Warn("lead region is blank, emitting a flat line")
	}
	if err := ctx.Err(); err != nil {
		return leadOutput{}, err
	}

	baseline := calibrate.Baseline(spec, win.Bounds.Dy())
	signal := cal.Signal(id, tr.Rows, baseline, spec.StartTime)

	opts := p.opts.Preview
	opts.GridMask = mask
	opts.Baseline = &baseline
	rendered := preview.Render(win.Color, tr.Rows, opts)

	log.WithFields(logrus.Fields{
		"width":    win.Bounds.Dx(),
		"height":   win.Bounds.Dy(),
		"source_x": win.Source.X,
		"source_y": win.Source.Y,
	}).Debug("lead digitized")

	return leadOutput{
		signal:  signal,
		preview: preview.Preview{Lead: id, Image: rendered},
		blank:   tr.Blank,
	}, nil
}
