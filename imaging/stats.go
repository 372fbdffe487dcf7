// MODUL: stats
// ZWECK: Pixel-Statistiken fuer Debug-Logging
// INPUT: ImageInput
// OUTPUT: Mittelwert und Standardabweichung pro Kanal
// NEBENEFFEKTE: keine
// ABHAENGIGKEITEN: gonum.org/v1/gonum/stat
// HINWEISE: Werte beziehen sich auf den Bereich [0,1]

package imaging

import (
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// ChannelStats enthaelt Mittelwert und Standardabweichung eines Kanals.
type ChannelStats struct {
	Mean   float64
	StdDev float64
}

// PixelStats berechnet Statistiken pro RGB-Kanal in [0,1].
func PixelStats(img *ImageInput) [3]ChannelStats {
	bounds := img.Image.Bounds()
	n := bounds.Dx() * bounds.Dy()

	channels := [3][]float64{
		make([]float64, 0, n),
		make([]float64, 0, n),
		make([]float64, 0, n),
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.Image.At(x, y).RGBA()
			channels[0] = append(channels[0], float64(r>>8)/255.0)
			channels[1] = append(channels[1], float64(g>>8)/255.0)
			channels[2] = append(channels[2], float64(b>>8)/255.0)
		}
	}

	var out [3]ChannelStats
	var g errgroup.Group
	for i, ch := range channels {
		g.Go(func() error {
			mean, std := stat.MeanStdDev(ch, nil)
			out[i] = ChannelStats{Mean: mean, StdDev: std}
			return nil
		})
	}
	g.Wait()
	return out
}
