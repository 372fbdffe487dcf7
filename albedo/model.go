// model.go - Externe Modell-Komponenten der Albedo-Pipeline
//
// Dieses Modul enthaelt:
// - Interfaces fuer VAE, Denoiser, Text-Encoder, Tokenizer und Scheduler
// - Components Struktur fuer die Konstruktion der Pipeline
// - Fehler-Sentinels der Pipeline
//
// Alle Komponenten sind vortrainierte, extern konstruierte Modelle. Diese
// Pipeline implementiert weder Netzarchitekturen noch Diffusions-Mathematik.

package albedo

import (
	"errors"
	"fmt"

	"github.com/pdevine/tensor"
)

var (
	// ErrInvalidArgument kennzeichnet verletzte Vorbedingungen.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInternal kennzeichnet interne Invarianten-Verletzungen, die bei
	// korrekten Vorbedingungen unerreichbar sein sollten.
	ErrInternal = errors.New("internal inconsistency")

	// ErrModelUnavailable wird gemeldet wenn keine Modell-Komponenten
	// registriert sind.
	ErrModelUnavailable = errors.New("model components unavailable")
)

// Latent-Skalierungsfaktor des Stable-Diffusion VAE. Wird beim Encoden
// multipliziert und vor dem Decoden wieder herausdividiert; die beiden
// Stellen muessen symmetrisch bleiben.
const latentScaleFactor = 0.18215

// latentChannels ist die Kanalzahl des Albedo-Latents, das der Decoder
// konsumiert.
const latentChannels = 4

// textEmbedDim ist die erwartete Dimension des Text-Embeddings.
const textEmbedDim = 1024

// VAE kapselt ein vortrainiertes Encoder/Decoder-Paar.
type VAE interface {
	// EncodeMoments kodiert ein Bild [B,3,H,W] zu den Momenten der
	// Latent-Verteilung [B,2C,h,w] (Mittelwert und Log-Varianz entlang
	// der Kanalachse konkateniert).
	EncodeMoments(rgb *tensor.Dense) (*tensor.Dense, error)

	// Decode dekodiert ein Latent [B,C,h,w] in den Pixelraum [B,3,H,W].
	Decode(latent *tensor.Dense) (*tensor.Dense, error)
}

// Denoiser ist das konditionale Rauschvorhersage-Netz (U-Net).
type Denoiser interface {
	// Forward sagt das Rauschen fuer den gegebenen Zeitschritt voraus.
	// latent ist die Konkatenation aus Arbeits- und Bild-Latent entlang
	// der Kanalachse, textEmbed das gebatchte Text-Embedding.
	Forward(latent *tensor.Dense, timestep int, textEmbed *tensor.Dense) (*tensor.Dense, error)
}

// TextEncoder kodiert Token-IDs zu einem Embedding [1,L,D].
type TextEncoder interface {
	Encode(tokens []int32) (*tensor.Dense, error)
}

// Tokenizer zerlegt Text in Token-IDs.
type Tokenizer interface {
	Tokenize(text string) ([]int32, error)
}

// Scheduler ist die externe iterative Update-Regel (z.B. DDIM).
type Scheduler interface {
	// SetTimesteps konfiguriert die Anzahl der Inferenz-Schritte.
	SetTimesteps(steps int)

	// Timesteps gibt die konfigurierten Zeitschritte zurueck.
	Timesteps() []int

	// Step berechnet aus Rauschvorhersage und aktuellem Latent das
	// Latent des vorherigen Zeitschritts.
	Step(noisePred *tensor.Dense, timestep int, latent *tensor.Dense) (*tensor.Dense, error)
}

// Components buendelt alle extern konstruierten Modell-Objekte.
// ImageVAE kodiert das Eingangsbild (nur deterministisch, der Mittelwert
// der Momente wird verwendet), AlbedoVAE dekodiert das Ergebnis-Latent.
type Components struct {
	ImageVAE    VAE
	AlbedoVAE   VAE
	Denoiser    Denoiser
	TextEncoder TextEncoder
	Tokenizer   Tokenizer
	Scheduler   Scheduler
}

func (c *Components) validate() error {
	if c == nil || c.ImageVAE == nil || c.AlbedoVAE == nil || c.Denoiser == nil ||
		c.TextEncoder == nil || c.Tokenizer == nil || c.Scheduler == nil {
		return fmt.Errorf("%w: all model components must be set", ErrModelUnavailable)
	}
	return nil
}
