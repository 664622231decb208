// Package pipeline orchestrates a single conversion: input extraction,
// the fixed-order transform chain, and output serialization, reporting
// progress across three fixed bands.
package pipeline

import (
	"context"
	"fmt"

	"github.com/FocuswithJustin/ebookconvert/core/book"
	apperrors "github.com/FocuswithJustin/ebookconvert/core/errors"
	"github.com/FocuswithJustin/ebookconvert/core/options"
	"github.com/FocuswithJustin/ebookconvert/core/plugin"
	"github.com/FocuswithJustin/ebookconvert/internal/logging"
)

// Progress bands, expressed as fractions of the whole conversion.
const (
	inputPhaseStart     = 0.0
	inputPhaseEnd       = 0.34
	transformPhaseStart = 0.34
	transformPhaseEnd   = 0.90
	outputPhaseStart    = 0.90
	outputPhaseEnd      = 1.0
)

// ProgressFunc receives the running fraction (0..1) and a human label
// for the step currently executing.
type ProgressFunc func(fraction float64, label string)

// Pipeline runs one source-to-destination conversion through a fixed
// ordered chain of transforms.
type Pipeline struct {
	Transforms []plugin.Transform
	Progress   ProgressFunc
}

// New builds a Pipeline with the given transform chain, in the fixed
// order the spec mandates. A nil progress func is replaced with a no-op.
func New(transforms []plugin.Transform, progress ProgressFunc) *Pipeline {
	if progress == nil {
		progress = func(float64, string) {}
	}
	return &Pipeline{Transforms: transforms, Progress: progress}
}

// Convert runs the three phases in order: extract srcPath into a
// BookDocument via the input plugin registered for opts.InputFormat,
// apply every transform in Transforms, then write the result to
// dstPath via the output plugin for opts.OutputFormat.
func (p *Pipeline) Convert(ctx context.Context, srcPath, dstPath string, opts *options.ConversionOptions) error {
	in, ok := plugin.InputFor(opts.InputFormat)
	if !ok {
		return apperrors.NewUnsupportedFormat(string(opts.InputFormat))
	}
	out, ok := plugin.OutputFor(opts.OutputFormat)
	if !ok {
		return apperrors.NewUnsupportedFormat(string(opts.OutputFormat))
	}

	snap := newDebugSnapshotWriter(opts.DebugPipeline)

	p.Progress(inputPhaseStart, fmt.Sprintf("reading %s", in.Name()))
	logging.PipelinePhase("input", inputPhaseStart)
	doc, err := in.Extract(ctx, srcPath, opts)
	if err != nil {
		return apperrors.NewPipeline("input", in.Name(), err)
	}
	p.Progress(inputPhaseEnd, "extraction complete")
	snap.snapshot("input", doc)

	if err := p.runTransforms(ctx, doc, opts, snap); err != nil {
		return err
	}

	p.Progress(outputPhaseStart, fmt.Sprintf("writing %s", out.Name()))
	logging.PipelinePhase("output", outputPhaseStart)
	if err := out.Write(ctx, doc, dstPath, opts); err != nil {
		return apperrors.NewPipeline("output", out.Name(), err)
	}
	p.Progress(outputPhaseEnd, "conversion complete")
	return nil
}

// runTransforms applies every transform in fixed order, distributing
// the transform-phase progress band evenly across the chain.
func (p *Pipeline) runTransforms(ctx context.Context, doc *book.BookDocument, opts *options.ConversionOptions, snap *debugSnapshotWriter) error {
	total := len(p.Transforms)
	band := transformPhaseEnd - transformPhaseStart

	for i, t := range p.Transforms {
		fraction := transformPhaseStart
		if total > 0 {
			fraction += band * float64(i) / float64(total)
		}
		p.Progress(fraction, t.Name())
		logging.PipelinePhase("transform:"+t.Name(), fraction)

		if err := ctx.Err(); err != nil {
			return apperrors.NewPipeline("transform", t.Name(), err)
		}
		if err := t.Apply(ctx, doc, opts); err != nil {
			return apperrors.NewPipeline("transform", t.Name(), err)
		}
		snap.snapshot(t.Name(), doc)
	}
	p.Progress(transformPhaseEnd, "transforms complete")
	return nil
}
