// pipeline.go - Albedo-Inferenz-Pipeline
//
// Dieses Modul enthaelt:
// - Pipeline: haelt die Modell-Komponenten und das Geraet
// - Predict / PredictTensor: oeffentliche Inferenz-Eintrittspunkte
// - Output: Albedo-Karte, gerenderte Darstellung, Unsicherheit

package albedo

import (
	"context"
	"fmt"
	"image"
	"log/slog"

	"github.com/matgen/matgen/backend"
	"github.com/pdevine/tensor"
)

// Pipeline orchestrates single-image albedo prediction with an
// ensembled latent diffusion model. It is safe for sequential use;
// concurrent Predict calls require external synchronization since the
// underlying model components are stateful.
type Pipeline struct {
	components Components
	device     backend.Device

	// computed once, reused across all Predict calls
	emptyTextEmbed *tensor.Dense
}

// Output is the result of a single prediction.
type Output struct {
	// Albedo holds the predicted map as [H,W,3] floats in [-1, 1].
	Albedo *tensor.Dense

	// Colored is the 8-bit rendering of Albedo, or nil when no color
	// map was requested.
	Colored *image.RGBA

	// Uncertainty is reserved for per-pixel ensemble disagreement and
	// is currently always nil.
	Uncertainty *tensor.Dense
}

// New builds a pipeline from fully wired model components.
func New(components Components, device backend.Device) (*Pipeline, error) {
	if err := components.validate(); err != nil {
		return nil, err
	}
	if device == nil {
		device = backend.Default()
	}
	return &Pipeline{components: components, device: device}, nil
}

// Predict runs the full pipeline on an input image: resizing to the
// processing resolution, ensembled denoising, and optional upscaling
// of the prediction back to the input resolution.
func (p *Pipeline) Predict(ctx context.Context, img image.Image, opts Options) (*Output, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil input image", ErrInvalidArgument)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	origW := img.Bounds().Dx()
	origH := img.Bounds().Dy()
	if origW < 1 || origH < 1 {
		return nil, fmt.Errorf("%w: empty input image", ErrInvalidArgument)
	}

	kernel, err := resampleKernel(opts.ResampleMethod)
	if err != nil {
		return nil, err
	}
	if opts.ProcessingRes > 0 {
		img = ResizeMaxRes(img, opts.ProcessingRes, kernel)
	}

	pred, err := p.run(ctx, ImageToTensor(img), opts)
	if err != nil {
		return nil, err
	}

	if opts.MatchInputRes {
		_, h, w, err := chwDims(pred)
		if err != nil {
			return nil, err
		}
		if h != origH || w != origW {
			pred, err = resizeFloatMap(pred, origW, origH, kernel)
			if err != nil {
				return nil, err
			}
		}
	}

	return p.finish(pred, opts)
}

// PredictTensor runs the pipeline on an already normalized input
// tensor [3,H,W] with values in [-1, 1]. Processing-resolution
// downscaling and the match-input-resolution upscale both operate on
// the float data directly.
func (p *Pipeline) PredictTensor(ctx context.Context, rgb *tensor.Dense, opts Options) (*Output, error) {
	if rgb == nil {
		return nil, fmt.Errorf("%w: nil input tensor", ErrInvalidArgument)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	if len(rgb.Shape()) != 3 {
		return nil, fmt.Errorf("%w: input must be [3,H,W], got %v", ErrInvalidArgument, rgb.Shape())
	}
	c, origH, origW, err := chwDims(rgb)
	if err != nil {
		return nil, err
	}
	if c != 3 {
		return nil, fmt.Errorf("%w: input must have 3 channels, got %d", ErrInvalidArgument, c)
	}
	for _, v := range rgb.Data().([]float32) {
		if v < -1 || v > 1 || v != v {
			return nil, fmt.Errorf("%w: input values must be in [-1, 1]", ErrInvalidArgument)
		}
	}

	kernel, err := resampleKernel(opts.ResampleMethod)
	if err != nil {
		return nil, err
	}
	if opts.ProcessingRes > 0 {
		factor := float64(opts.ProcessingRes) / float64(max(origW, origH))
		newW := int(float64(origW) * factor)
		newH := int(float64(origH) * factor)
		if newW != origW || newH != origH {
			rgb, err = resizeFloatMap(rgb, newW, newH, kernel)
			if err != nil {
				return nil, err
			}
		}
	}

	pred, err := p.run(ctx, rgb, opts)
	if err != nil {
		return nil, err
	}

	if opts.MatchInputRes {
		_, h, w, err := chwDims(pred)
		if err != nil {
			return nil, err
		}
		if h != origH || w != origW {
			pred, err = resizeFloatMap(pred, origW, origH, kernel)
			if err != nil {
				return nil, err
			}
		}
	}

	return p.finish(pred, opts)
}

// run executes ensembled inference on a normalized [3,h,w] input and
// returns the averaged prediction [3,h,w] in [-1, 1].
func (p *Pipeline) run(ctx context.Context, rgb *tensor.Dense, opts Options) (*tensor.Dense, error) {
	_, h, w, err := chwDims(rgb)
	if err != nil {
		return nil, err
	}

	n := opts.EnsembleSize
	// frischer Header ueber dem gleichen Backing; die Form des
	// Aufruf-Tensors bleibt unveraendert
	batched := tensor.New(tensor.WithShape(1, 3, h, w), tensor.WithBacking(rgb.Data().([]float32)))
	if n > 1 {
		repeated, err := batched.Repeat(0, n)
		if err != nil {
			return nil, fmt.Errorf("replicate input: %w", err)
		}
		batched = repeated.(*tensor.Dense)
	}

	// Die Halbierungs-Klemmung gilt nur fuer den Tabellenvorschlag
	// (in FindBatchSize); eine explizite Batch-Groesse wird nur auf
	// die Ensemble-Groesse begrenzt.
	bs := opts.BatchSize
	if bs == 0 {
		bs = FindBatchSize(n, max(h, w), opts.Precision, p.device)
		slog.Debug("auto batch size", "batch_size", bs, "ensemble_size", n, "res", max(h, w))
	} else if bs > n {
		bs = n
	}

	numBatches := (n + bs - 1) / bs
	totalSteps := numBatches * opts.DenoisingSteps
	step := 0
	var progress func()
	if opts.ShowProgress && opts.Progress != nil {
		progress = func() {
			step++
			opts.Progress(step, totalSteps)
		}
	}

	noise := newNoiseSource(opts.Seed)
	collector := newPredictionCollector(opts.Precision)

	for i := 0; i < n; i += bs {
		j := min(i+bs, n)

		view, err := batched.Slice(tensor.S(i, j))
		if err != nil {
			return nil, fmt.Errorf("slice batch [%d:%d]: %w", i, j, err)
		}
		batch := tensor.Materialize(view).(*tensor.Dense)
		if err := batch.Reshape(j-i, 3, h, w); err != nil {
			return nil, fmt.Errorf("reshape batch: %w", err)
		}

		pred, err := p.singleInfer(ctx, batch, opts.DenoisingSteps, noise, progress)
		if err != nil {
			return nil, err
		}
		if err := collector.add(pred); err != nil {
			return nil, err
		}

		// release accelerator scratch memory between batches
		p.device.EmptyCache()
	}

	stacked, err := collector.stack()
	if err != nil {
		return nil, err
	}

	var pred *tensor.Dense
	switch {
	case n > 1:
		pred, err = Ensemble(stacked)
		if err != nil {
			return nil, err
		}
	case stacked.Shape()[0] == 1:
		pred = stacked
	default:
		return nil, fmt.Errorf("%w: unexpected prediction stack shape %v", ErrInternal, stacked.Shape())
	}

	ph := pred.Shape()[2]
	pw := pred.Shape()[3]
	if err := pred.Reshape(3, ph, pw); err != nil {
		return nil, fmt.Errorf("squeeze prediction: %w", err)
	}

	sanitize(pred)
	return pred, nil
}

// finish converts a [3,H,W] prediction into the public output form.
func (p *Pipeline) finish(pred *tensor.Dense, opts Options) (*Output, error) {
	hwc, err := chwToHWC(pred)
	if err != nil {
		return nil, err
	}

	out := &Output{Albedo: hwc}
	if opts.ColorMap != "" {
		colored, err := RenderColored(hwc)
		if err != nil {
			return nil, err
		}
		out.Colored = colored
	}
	return out, nil
}
