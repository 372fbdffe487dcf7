// single_infer.go - Einzelner Denoising-Durchlauf
//
// Dieses Modul enthaelt:
// - encodeRGB: RGB-Batch in den Latent-Raum kodieren
// - emptyText: leeres Text-Embedding (lazy, einmalig berechnet)
// - singleInfer: iteratives Denoising eines Batches
// - decodeAlbedo: Latent zurueck in den Bildraum dekodieren

package albedo

import (
	"context"
	"fmt"

	"github.com/pdevine/tensor"
)

// encodeRGB maps a normalized RGB batch [B,3,H,W] into latent space.
// The VAE returns concatenated distribution moments along the channel
// axis; only the mean half is kept, scaled by the latent scale factor.
func (p *Pipeline) encodeRGB(rgb *tensor.Dense) (*tensor.Dense, error) {
	moments, err := p.components.ImageVAE.EncodeMoments(rgb)
	if err != nil {
		return nil, fmt.Errorf("encode rgb: %w", err)
	}

	shape := moments.Shape()
	if len(shape) != 4 || shape[1]%2 != 0 {
		return nil, fmt.Errorf("%w: unexpected moments shape %v", ErrInternal, shape)
	}

	meanView, err := moments.Slice(nil, tensor.S(0, shape[1]/2))
	if err != nil {
		return nil, fmt.Errorf("slice latent mean: %w", err)
	}
	mean := tensor.Materialize(meanView).(*tensor.Dense)

	scaled, err := mean.MulScalar(float32(latentScaleFactor), true)
	if err != nil {
		return nil, fmt.Errorf("scale latent: %w", err)
	}
	return scaled, nil
}

// emptyText returns the empty-prompt text embedding repeated to the
// requested batch size. The embedding is computed once per pipeline
// and reused afterwards; a result without the expected feature width
// means the wrong text encoder was wired in.
func (p *Pipeline) emptyText(batch int) (*tensor.Dense, error) {
	if p.emptyTextEmbed == nil {
		tokens, err := p.components.Tokenizer.Tokenize("")
		if err != nil {
			return nil, fmt.Errorf("tokenize empty prompt: %w", err)
		}
		embed, err := p.components.TextEncoder.Encode(tokens)
		if err != nil {
			return nil, fmt.Errorf("encode empty prompt: %w", err)
		}
		shape := embed.Shape()
		if len(shape) == 0 || shape[len(shape)-1] != textEmbedDim {
			return nil, fmt.Errorf("%w: text embedding dim %v, want %d", ErrInternal, shape, textEmbedDim)
		}
		p.emptyTextEmbed = embed
	}

	if batch <= 1 {
		return p.emptyTextEmbed, nil
	}
	repeated, err := p.emptyTextEmbed.Repeat(0, batch)
	if err != nil {
		return nil, fmt.Errorf("repeat text embedding: %w", err)
	}
	return repeated.(*tensor.Dense), nil
}

// singleInfer runs the full denoising loop for one batch of normalized
// RGB inputs [B,3,H,W] and returns decoded albedo maps [B,3,H,W] in
// [-1, 1]. The context is checked once per denoising step.
func (p *Pipeline) singleInfer(ctx context.Context, rgb *tensor.Dense, steps int, noise *noiseSource, progress func()) (*tensor.Dense, error) {
	p.components.Scheduler.SetTimesteps(steps)

	rgbLatent, err := p.encodeRGB(rgb)
	if err != nil {
		return nil, err
	}

	shape := rgbLatent.Shape()
	latent := noise.Sample(shape[0], latentChannels, shape[2], shape[3])

	textEmbed, err := p.emptyText(shape[0])
	if err != nil {
		return nil, err
	}

	for _, t := range p.components.Scheduler.Timesteps() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		unetInput, err := latent.Concat(1, rgbLatent)
		if err != nil {
			return nil, fmt.Errorf("concat latents: %w", err)
		}

		noisePred, err := p.components.Denoiser.Forward(unetInput, t, textEmbed)
		if err != nil {
			return nil, fmt.Errorf("denoiser step %d: %w", t, err)
		}

		latent, err = p.components.Scheduler.Step(noisePred, t, latent)
		if err != nil {
			return nil, fmt.Errorf("scheduler step %d: %w", t, err)
		}

		if progress != nil {
			progress()
		}
	}

	return p.decodeAlbedo(latent)
}

// decodeAlbedo rescales a latent batch and decodes it to image space,
// clamped to [-1, 1].
func (p *Pipeline) decodeAlbedo(latent *tensor.Dense) (*tensor.Dense, error) {
	scaled, err := latent.DivScalar(float32(latentScaleFactor), true)
	if err != nil {
		return nil, fmt.Errorf("rescale latent: %w", err)
	}

	decoded, err := p.components.AlbedoVAE.Decode(scaled)
	if err != nil {
		return nil, fmt.Errorf("decode albedo: %w", err)
	}

	clamped, err := tensor.Clamp(decoded, float32(-1), float32(1))
	if err != nil {
		return nil, fmt.Errorf("clamp albedo: %w", err)
	}
	return clamped.(*tensor.Dense), nil
}
