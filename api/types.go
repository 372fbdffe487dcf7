// Package api - Typen der Matgen REST-API.
// Dieses Modul enthaelt Request/Response-Strukturen und Fehler-Typen.

package api

import (
	"fmt"
	"time"
)

// StatusError is an error with an HTTP status code and message.
type StatusError struct {
	StatusCode   int    `json:"-"`
	Status       string `json:"-"`
	ErrorMessage string `json:"error"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		return "something went wrong, please see the matgen server logs for details"
	}
}

// PredictRequest ist der Request-Body fuer POST /api/predict.
// Optionale Felder sind Zeiger; fehlende Felder fallen auf die
// Server-Defaults zurueck.
type PredictRequest struct {
	// Image ist das Eingangsbild, base64-kodiert (JPEG, PNG oder WebP).
	Image string `json:"image"`

	DenoisingSteps *int   `json:"denoising_steps,omitempty"`
	EnsembleSize   *int   `json:"ensemble_size,omitempty"`
	ProcessingRes  *int   `json:"processing_res,omitempty"`
	MatchInputRes  *bool  `json:"match_input_res,omitempty"`
	BatchSize      *int   `json:"batch_size,omitempty"`
	Seed           *int64 `json:"seed,omitempty"`
	ResampleMethod string `json:"resample_method,omitempty"`
	ColorMap       string `json:"color_map,omitempty"`
	Precision      string `json:"precision,omitempty"`
}

// PredictResponse ist die Antwort auf POST /api/predict.
type PredictResponse struct {
	CreatedAt time.Time `json:"created_at"`

	// Albedo ist die vorhergesagte Karte als base64-kodiertes PNG.
	Albedo string `json:"albedo"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// TotalDuration ist die Gesamtdauer der Vorhersage in Nanosekunden.
	TotalDuration time.Duration `json:"total_duration"`

	// Uncertainty ist fuer eine pixelweise Ensemble-Abweichung
	// reserviert und derzeit immer leer.
	Uncertainty []float32 `json:"uncertainty,omitempty"`
}

// ProfileResponse listet die aktiven Batch-Groessen-Profile.
type ProfileResponse struct {
	Profiles []BatchProfile `json:"profiles"`
}

// BatchProfile ist ein Eintrag der Batch-Groessen-Tabelle.
type BatchProfile struct {
	Res       int     `json:"res"`
	TotalVRAM float64 `json:"total_vram"`
	BatchSize int     `json:"bs"`
	Precision string  `json:"precision"`
}

// VersionResponse ist die Antwort auf GET /api/version.
type VersionResponse struct {
	Version string `json:"version"`
}
