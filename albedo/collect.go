// collect.go - Sammeln von Batch-Vorhersagen
//
// Dieses Modul enthaelt:
// - predictionCollector: sammelt pro Batch die dekodierten Albedo-Karten
//   und haelt sie optional als float16 im Speicher, bevor das Ensemble
//   gerechnet wird

package albedo

import (
	"fmt"

	"github.com/matgen/matgen/backend"
	"github.com/pdevine/tensor"
	"github.com/x448/float16"
)

// predictionCollector accumulates decoded predictions across batches.
// With Float16 the raw float32 data of each batch is packed down to
// half precision immediately, halving peak memory while all batches
// are in flight. Unpacking happens once, right before ensembling.
type predictionCollector struct {
	precision backend.Precision

	f32 []*tensor.Dense
	f16 []packedPrediction
}

type packedPrediction struct {
	shape []int
	data  []float16.Float16
}

func newPredictionCollector(p backend.Precision) *predictionCollector {
	return &predictionCollector{precision: p}
}

func (c *predictionCollector) add(pred *tensor.Dense) error {
	if c.precision != backend.Float16 {
		c.f32 = append(c.f32, pred)
		return nil
	}

	data, ok := pred.Data().([]float32)
	if !ok {
		return fmt.Errorf("%w: prediction backing is not float32", ErrInternal)
	}
	shape := make([]int, len(pred.Shape()))
	copy(shape, pred.Shape())
	c.f16 = append(c.f16, packedPrediction{shape: shape, data: backend.PackF16(data)})
	return nil
}

// stack concatenates all collected predictions along the batch axis.
func (c *predictionCollector) stack() (*tensor.Dense, error) {
	if c.precision == backend.Float16 {
		for _, p := range c.f16 {
			t := tensor.New(tensor.WithShape(p.shape...), tensor.WithBacking(backend.UnpackF16(p.data)))
			c.f32 = append(c.f32, t)
		}
		c.f16 = nil
	}

	switch len(c.f32) {
	case 0:
		return nil, fmt.Errorf("%w: no predictions collected", ErrInternal)
	case 1:
		return c.f32[0], nil
	}

	stacked, err := c.f32[0].Concat(0, c.f32[1:]...)
	if err != nil {
		return nil, fmt.Errorf("stack predictions: %w", err)
	}
	return stacked, nil
}
