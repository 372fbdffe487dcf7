// options.go - Optionen fuer die Albedo-Vorhersage
//
// Dieses Modul enthaelt:
// - Options Struktur mit allen Inferenz-Parametern
// - Standardwerte und Validierung

package albedo

import (
	"fmt"

	"github.com/matgen/matgen/backend"
	"github.com/matgen/matgen/envconfig"
)

// Options steuert einen einzelnen Predict-Aufruf.
type Options struct {
	// DenoisingSteps ist die Anzahl der Diffusions-Schritte (>= 1).
	DenoisingSteps int

	// EnsembleSize ist die Anzahl unabhaengig verrauschter Vorhersagen,
	// die gemittelt werden (>= 1).
	EnsembleSize int

	// ProcessingRes begrenzt die laengere Bildkante waehrend der
	// Verarbeitung. 0 bedeutet: keine Skalierung.
	ProcessingRes int

	// MatchInputRes skaliert die Vorhersage zurueck auf die
	// Eingabeaufloesung.
	MatchInputRes bool

	// BatchSize ist die Inferenz-Batch-Groesse. 0 waehlt automatisch
	// anhand der Geraete-Speichertabelle.
	BatchSize int

	// Seed fuer das initiale Latent-Rauschen. 0 bedeutet zeitbasiert.
	Seed int64

	// ShowProgress aktiviert die Progress-Callbacks.
	ShowProgress bool

	// Progress wird pro Denoising-Schritt aufgerufen (ueber alle
	// Batches aggregiert). Nur aktiv wenn ShowProgress gesetzt ist.
	Progress func(step, total int)

	// ResampleMethod benennt den Interpolations-Kernel fuer die
	// Skalierung ("bilinear", "bicubic" oder "nearest").
	ResampleMethod string

	// ColorMap benennt die Farbzuordnung der Ausgabe. Derzeit wird nur
	// die direkte RGB-Darstellung unterstuetzt ("" oder "rgb").
	ColorMap string

	// Precision ist die numerische Praezision; sie bestimmt die Spalte
	// der Batch-Groessen-Tabelle und kompaktiert bei Float16 die
	// gesammelten Batch-Ergebnisse.
	Precision backend.Precision

	// EnsembleOptions ist fuer detaillierte Ensembling-Einstellungen
	// reserviert und wird derzeit nicht ausgewertet.
	EnsembleOptions map[string]any
}

// DefaultOptions gibt die Standard-Optionen zurueck.
func DefaultOptions() Options {
	return Options{
		DenoisingSteps: 10,
		EnsembleSize:   10,
		ProcessingRes:  512,
		MatchInputRes:  true,
		ResampleMethod: "bilinear",
		ColorMap:       "rgb",
		Precision:      backend.ParsePrecision(envconfig.Precision()),
	}
}

func (o *Options) validate() error {
	if o.ProcessingRes < 0 {
		return fmt.Errorf("%w: processing resolution must be >= 0, got %d", ErrInvalidArgument, o.ProcessingRes)
	}
	if o.DenoisingSteps < 1 {
		return fmt.Errorf("%w: denoising steps must be >= 1, got %d", ErrInvalidArgument, o.DenoisingSteps)
	}
	if o.EnsembleSize < 1 {
		return fmt.Errorf("%w: ensemble size must be >= 1, got %d", ErrInvalidArgument, o.EnsembleSize)
	}
	if o.BatchSize < 0 {
		return fmt.Errorf("%w: batch size must be >= 0, got %d", ErrInvalidArgument, o.BatchSize)
	}
	if _, err := resampleKernel(o.ResampleMethod); err != nil {
		return err
	}
	switch o.ColorMap {
	case "", "rgb":
	default:
		return fmt.Errorf("%w: unsupported color map %q", ErrInvalidArgument, o.ColorMap)
	}
	return nil
}
