// MODUL: precision
// ZWECK: Numerische Praezision fuer Inferenz und Zwischenspeicher
// INPUT: Praezisions-Name (float32/float16)
// OUTPUT: Precision-Typ, fp16 Pack/Unpack Hilfsfunktionen
// NEBENEFFEKTE: Keine
// ABHAENGIGKEITEN: github.com/x448/float16
// HINWEISE: fp16-Puffer halbieren den Speicherbedarf gesammelter Batches

package backend

import (
	"github.com/x448/float16"
)

// Precision bezeichnet die numerische Praezision der Inferenz.
type Precision string

const (
	Float32 Precision = "float32"
	Float16 Precision = "float16"
)

// ParsePrecision liest einen Praezisions-Namen; unbekannte Werte fallen
// auf Float32 zurueck.
func ParsePrecision(s string) Precision {
	switch s {
	case "float16", "fp16", "half":
		return Float16
	default:
		return Float32
	}
}

// Bytes gibt die Groesse eines Elements in Bytes zurueck.
func (p Precision) Bytes() int {
	if p == Float16 {
		return 2
	}
	return 4
}

// PackF16 konvertiert float32-Werte in einen kompakten fp16-Puffer.
func PackF16(src []float32) []float16.Float16 {
	dst := make([]float16.Float16, len(src))
	for i, v := range src {
		dst[i] = float16.Fromfloat32(v)
	}
	return dst
}

// UnpackF16 konvertiert einen fp16-Puffer zurueck nach float32.
func UnpackF16(src []float16.Float16) []float32 {
	dst := make([]float32, len(src))
	for i, v := range src {
		dst[i] = v.Float32()
	}
	return dst
}
