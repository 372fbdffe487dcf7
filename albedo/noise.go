// noise.go - Initiales Latent-Rauschen
//
// Dieses Modul enthaelt:
// - noiseSource: geseedeter Standard-Normal-Sampler fuer Latents

package albedo

import (
	"time"

	"github.com/pdevine/tensor"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// noiseSource zieht unabhaengiges N(0,1)-Rauschen fuer jedes
// Ensemble-Mitglied. Ein Seed von 0 waehlt einen zeitbasierten Seed.
type noiseSource struct {
	normal distuv.Normal
}

func newNoiseSource(seed int64) *noiseSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &noiseSource{
		normal: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewSource(uint64(seed)),
		},
	}
}

// Sample zieht einen Tensor der gegebenen Form mit N(0,1)-Eintraegen.
func (n *noiseSource) Sample(shape ...int) *tensor.Dense {
	size := 1
	for _, d := range shape {
		size *= d
	}

	data := make([]float32, size)
	for i := range data {
		data[i] = float32(n.normal.Rand())
	}

	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}
