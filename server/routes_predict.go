// routes_predict.go - Inferenz-Handler
// Enthaelt: PredictHandler und ProfilesHandler

package server

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/term"

	"github.com/matgen/matgen/albedo"
	"github.com/matgen/matgen/api"
	"github.com/matgen/matgen/backend"
	"github.com/matgen/matgen/envconfig"
	"github.com/matgen/matgen/imaging"
	"github.com/matgen/matgen/progress"
)

// PredictHandler nimmt ein base64-kodiertes Bild an und antwortet mit der
// vorhergesagten Albedo-Karte als base64-kodiertem PNG.
func (s *Server) PredictHandler(c *gin.Context) {
	start := time.Now()

	var req api.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pipeline := s.getPipeline()
	if pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": albedo.ErrModelUnavailable.Error()})
		return
	}

	if req.Image == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing image"})
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid image encoding: %s", err)})
		return
	}
	img, err := imaging.LoadImageFromBytes(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	img = imaging.Composite(img)

	if slog.Default().Enabled(c.Request.Context(), slog.LevelDebug) {
		stats := imaging.PixelStats(img)
		slog.Debug("input image",
			"request_id", c.GetString("request_id"),
			"format", img.Format,
			"width", img.Width,
			"height", img.Height,
			"mean", []float64{stats[0].Mean, stats[1].Mean, stats[2].Mean},
			"stddev", []float64{stats[0].StdDev, stats[1].StdDev, stats[2].StdDev})
	}

	opts := optionsFromRequest(&req)

	if !envconfig.NoProgress() && term.IsTerminal(int(os.Stderr.Fd())) {
		stop := attachProgress(&opts, os.Stderr)
		defer stop()
	}

	out, err := pipeline.Predict(c.Request.Context(), img.Image, opts)
	switch {
	case err == nil:
	case errors.Is(err, albedo.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, albedo.ErrModelUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	default:
		slog.Error("prediction failed", "request_id", c.GetString("request_id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, out.Colored); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	bounds := out.Colored.Bounds()
	slog.Info("prediction complete",
		"request_id", c.GetString("request_id"),
		"width", bounds.Dx(),
		"height", bounds.Dy(),
		"duration", time.Since(start))

	c.JSON(http.StatusOK, api.PredictResponse{
		CreatedAt:     time.Now().UTC(),
		Albedo:        base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:         bounds.Dx(),
		Height:        bounds.Dy(),
		TotalDuration: time.Since(start),
	})
}

// optionsFromRequest ueberlagert die Server-Defaults mit den im Request
// gesetzten Feldern. Ein leerer ColorMap-Wert bleibt beim Default, damit
// die Antwort immer ein gerendertes Bild enthaelt.
func optionsFromRequest(req *api.PredictRequest) albedo.Options {
	opts := albedo.DefaultOptions()
	if req.DenoisingSteps != nil {
		opts.DenoisingSteps = *req.DenoisingSteps
	}
	if req.EnsembleSize != nil {
		opts.EnsembleSize = *req.EnsembleSize
	}
	if req.ProcessingRes != nil {
		opts.ProcessingRes = *req.ProcessingRes
	}
	if req.MatchInputRes != nil {
		opts.MatchInputRes = *req.MatchInputRes
	}
	if req.BatchSize != nil {
		opts.BatchSize = *req.BatchSize
	}
	if req.Seed != nil {
		opts.Seed = *req.Seed
	}
	if req.ResampleMethod != "" {
		opts.ResampleMethod = req.ResampleMethod
	}
	if req.ColorMap != "" {
		opts.ColorMap = req.ColorMap
	}
	if req.Precision != "" {
		opts.Precision = backend.ParsePrecision(req.Precision)
	}
	return opts
}

// attachProgress verbindet den Progress-Callback der Pipeline mit einer
// Schrittanzeige auf w. Die Gesamtzahl der Schritte steht erst beim ersten
// Callback fest, daher wird der Balken dort angelegt. Der Rueckgabewert
// beendet die Anzeige und raeumt sie vom Terminal.
func attachProgress(opts *albedo.Options, w io.Writer) (stop func()) {
	p := progress.NewProgress(w)
	var bar *progress.StepBar

	opts.ShowProgress = true
	opts.Progress = func(step, total int) {
		if bar == nil {
			bar = progress.NewStepBar("predicting albedo map", total)
			p.Add(bar)
		}
		bar.Set(step)
	}

	return func() { p.StopAndClear() }
}

// ProfilesHandler listet die aktiven Batch-Groessen-Profile.
func (s *Server) ProfilesHandler(c *gin.Context) {
	table := albedo.BatchTable()

	profiles := make([]api.BatchProfile, 0, len(table))
	for _, t := range table {
		profiles = append(profiles, api.BatchProfile{
			Res:       t.Res,
			TotalVRAM: t.TotalVRAM,
			BatchSize: t.BatchSize,
			Precision: string(t.Precision),
		})
	}

	c.JSON(http.StatusOK, api.ProfileResponse{Profiles: profiles})
}
