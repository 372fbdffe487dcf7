// ensemble.go - Test-Time Ensembling
//
// Dieses Modul enthaelt:
// - Ensemble: elementweises Mittel ueber die Ensemble-Achse

package albedo

import (
	"fmt"

	"github.com/pdevine/tensor"
)

// Ensemble mittelt einen Stapel von Vorhersagen [N,C,H,W] elementweise
// ueber die erste Achse und gibt [1,C,H,W] zurueck. Fuer N == 1 ist die
// Operation die Identitaet (mit erhaltener Batch-Dimension).
func Ensemble(preds *tensor.Dense) (*tensor.Dense, error) {
	shape := preds.Shape()
	if len(shape) < 2 {
		return nil, fmt.Errorf("%w: expected batched predictions, got shape %v", ErrInternal, shape)
	}
	n := shape[0]
	if n < 1 {
		return nil, fmt.Errorf("%w: empty prediction stack", ErrInternal)
	}

	rest := make([]int, len(shape)-1)
	copy(rest, shape[1:])

	sum, err := preds.Sum(0)
	if err != nil {
		return nil, fmt.Errorf("ensemble sum: %w", err)
	}

	mean, err := sum.DivScalar(float32(n), true)
	if err != nil {
		return nil, fmt.Errorf("ensemble mean: %w", err)
	}

	if err := mean.Reshape(append([]int{1}, rest...)...); err != nil {
		return nil, fmt.Errorf("ensemble reshape: %w", err)
	}

	return mean, nil
}
