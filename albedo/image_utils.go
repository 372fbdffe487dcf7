// image_utils.go - Bild-Hilfsfunktionen der Albedo-Pipeline
//
// Dieses Modul enthaelt:
// - ResizeMaxRes fuer das Begrenzen der laengeren Bildkante
// - ImageToTensor / Tensor-Konvertierung in [-1,1]
// - resizeFloatMap fuer das Zurueckskalieren der Vorhersage
// - RenderColored fuer die 8-Bit Darstellung

package albedo

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/pdevine/tensor"
	"golang.org/x/image/draw"
)

// resampleKernel gibt den Interpolations-Kernel fuer einen Methodennamen
// zurueck. Leere Namen fallen auf bilinear zurueck.
func resampleKernel(name string) (draw.Scaler, error) {
	switch name {
	case "", "bilinear":
		return draw.BiLinear, nil
	case "bicubic":
		return draw.CatmullRom, nil
	case "nearest":
		return draw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("%w: unknown resample method %q", ErrInvalidArgument, name)
	}
}

// ResizeMaxRes skaliert ein Bild so, dass die laengere Kante maxEdge nicht
// ueberschreitet. Das Seitenverhaeltnis bleibt erhalten, beide Dimensionen
// werden abgerundet.
func ResizeMaxRes(img image.Image, maxEdge int, kernel draw.Scaler) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	factor := math.Min(float64(maxEdge)/float64(w), float64(maxEdge)/float64(h))
	newW := int(float64(w) * factor)
	newH := int(float64(h) * factor)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	kernel.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// ImageToTensor konvertiert ein Bild in einen [3,H,W] Tensor in [-1,1].
func ImageToTensor(img image.Image) *tensor.Dense {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	data := make([]float32, 3*h*w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA liefert 16-bit Werte, [0,255] -> [-1,1]
			data[0*h*w+y*w+x] = float32(r>>8)/127.5 - 1.0
			data[1*h*w+y*w+x] = float32(g>>8)/127.5 - 1.0
			data[2*h*w+y*w+x] = float32(b>>8)/127.5 - 1.0
		}
	}

	return tensor.New(tensor.WithShape(3, h, w), tensor.WithBacking(data))
}

// chwDims liest die Dimensionen eines [C,H,W] oder [1,C,H,W] Tensors.
func chwDims(t *tensor.Dense) (c, h, w int, err error) {
	shape := t.Shape()
	switch len(shape) {
	case 3:
		return shape[0], shape[1], shape[2], nil
	case 4:
		if shape[0] != 1 {
			return 0, 0, 0, fmt.Errorf("%w: expected batch dimension 1, got %d", ErrInternal, shape[0])
		}
		return shape[1], shape[2], shape[3], nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: unexpected prediction rank %d", ErrInternal, len(shape))
	}
}

// resizeFloatMap skaliert eine [C,H,W]/[1,C,H,W] Float-Karte in [-1,1] auf
// die Zielgroesse. Die Interpolation laeuft ueber ein 16-bit Zwischenbild;
// der Rundungsfehler liegt weit unterhalb der 8-bit Ausgabequantisierung.
func resizeFloatMap(pred *tensor.Dense, width, height int, kernel draw.Scaler) (*tensor.Dense, error) {
	c, h, w, err := chwDims(pred)
	if err != nil {
		return nil, err
	}
	if c != 3 {
		return nil, fmt.Errorf("%w: expected 3 channels, got %d", ErrInternal, c)
	}

	data := pred.Data().([]float32)
	src := image.NewRGBA64(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.SetRGBA64(x, y, rgba64At(data, h, w, x, y))
		}
	}

	dst := image.NewRGBA64(image.Rect(0, 0, width, height))
	kernel.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out := make([]float32, 3*height*width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			px := dst.RGBA64At(x, y)
			out[0*height*width+y*width+x] = float32(px.R)/32767.5 - 1.0
			out[1*height*width+y*width+x] = float32(px.G)/32767.5 - 1.0
			out[2*height*width+y*width+x] = float32(px.B)/32767.5 - 1.0
		}
	}

	return tensor.New(tensor.WithShape(1, 3, height, width), tensor.WithBacking(out)), nil
}

// rgba64At bildet ein [-1,1] Pixel auf 16-bit ab; nicht-endliche Werte
// werden auf 0 gesetzt.
func rgba64At(data []float32, h, w, x, y int) (px color.RGBA64) {
	to16 := func(v float32) uint16 {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		f = (f + 1.0) / 2.0 * 65535.0
		if f < 0 {
			f = 0
		} else if f > 65535 {
			f = 65535
		}
		return uint16(f)
	}

	px.R = to16(data[0*h*w+y*w+x])
	px.G = to16(data[1*h*w+y*w+x])
	px.B = to16(data[2*h*w+y*w+x])
	px.A = 65535
	return px
}

// sanitize ersetzt nicht-endliche Werte durch 0 (in place).
func sanitize(t *tensor.Dense) {
	data := t.Data().([]float32)
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			data[i] = 0
		}
	}
}

// chwToHWC transponiert [C,H,W]/[1,C,H,W] nach [H,W,C].
func chwToHWC(pred *tensor.Dense) (*tensor.Dense, error) {
	c, h, w, err := chwDims(pred)
	if err != nil {
		return nil, err
	}

	data := pred.Data().([]float32)
	out := make([]float32, len(data))
	for ch := 0; ch < c; ch++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				out[(y*w+x)*c+ch] = data[ch*h*w+y*w+x]
			}
		}
	}

	return tensor.New(tensor.WithShape(h, w, c), tensor.WithBacking(out)), nil
}

// RenderColored bildet eine [H,W,3] Vorhersage in [-1,1] auf ein 8-bit
// RGB-Bild ab. Nicht-endliche Werte werden als 0 dargestellt.
func RenderColored(pred *tensor.Dense) (*image.RGBA, error) {
	shape := pred.Shape()
	if len(shape) != 3 || shape[2] != 3 {
		return nil, fmt.Errorf("%w: expected [H,W,3] prediction, got %v", ErrInternal, shape)
	}
	h, w := shape[0], shape[1]

	data := pred.Data().([]float32)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			off := img.PixOffset(x, y)
			img.Pix[off+0] = renderByte(data[(y*w+x)*3+0])
			img.Pix[off+1] = renderByte(data[(y*w+x)*3+1])
			img.Pix[off+2] = renderByte(data[(y*w+x)*3+2])
			img.Pix[off+3] = 255
		}
	}
	return img, nil
}

// renderByte bildet [-1,1] auf [0,255] ab; nicht-endliche Werte auf 0.
func renderByte(v float32) uint8 {
	f := float64(v)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	f = (f + 1.0) / 2.0
	if f < 0 {
		f = 0
	} else if f > 1 {
		f = 1
	}
	return uint8(f * 255.0)
}
