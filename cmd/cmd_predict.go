// cmd_predict.go - Albedo-Vorhersage ueber die REST-API
// Hauptfunktionen: newPredictCmd, RunPredict
package cmd

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/matgen/matgen/api"
	"github.com/matgen/matgen/envconfig"
	"github.com/matgen/matgen/imaging"
	"github.com/matgen/matgen/progress"
)

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict IMAGE",
		Short: "Predict the albedo map for an image",
		Args:  cobra.ExactArgs(1),
		RunE:  RunPredict,
	}

	cmd.Flags().StringP("output", "o", "", "Output path for the predicted map (default: INPUT_albedo.png)")
	cmd.Flags().Int("steps", 10, "Number of denoising steps")
	cmd.Flags().Int("ensemble", 10, "Number of ensembled predictions")
	cmd.Flags().Int("resolution", 512, "Maximum edge length during processing (0 = no scaling)")
	cmd.Flags().Bool("match-input-res", true, "Scale the prediction back to the input resolution")
	cmd.Flags().Int("batch-size", 0, "Inference batch size (0 = automatic)")
	cmd.Flags().Int64("seed", 0, "Seed for the initial noise (0 = time based)")
	cmd.Flags().String("resample", "bilinear", "Resampling method (bilinear, bicubic, nearest)")
	cmd.Flags().String("precision", "", "Numeric precision (float32 or float16)")

	return cmd
}

// RunPredict - Liest das Bild, fragt den Server und speichert das Ergebnis
func RunPredict(cmd *cobra.Command, args []string) error {
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return err
	}

	// Lokal dekodieren, damit kaputte Dateien den Server gar nicht
	// erst erreichen.
	img, err := imaging.LoadImage(args[0])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img.Image); err != nil {
		return err
	}
	req := &api.PredictRequest{Image: base64.StdEncoding.EncodeToString(encoded.Bytes())}

	steps, _ := cmd.Flags().GetInt("steps")
	ensemble, _ := cmd.Flags().GetInt("ensemble")
	resolution, _ := cmd.Flags().GetInt("resolution")
	match, _ := cmd.Flags().GetBool("match-input-res")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	seed, _ := cmd.Flags().GetInt64("seed")
	req.DenoisingSteps = &steps
	req.EnsembleSize = &ensemble
	req.ProcessingRes = &resolution
	req.MatchInputRes = &match
	req.BatchSize = &batchSize
	req.Seed = &seed
	req.ResampleMethod, _ = cmd.Flags().GetString("resample")
	req.Precision, _ = cmd.Flags().GetString("precision")

	var p *progress.Progress
	if !envconfig.NoProgress() && term.IsTerminal(int(os.Stderr.Fd())) {
		p = progress.NewProgress(os.Stderr)
		p.Add(progress.NewSpinner("predicting albedo map"))
	}

	start := time.Now()
	resp, err := client.Predict(cmd.Context(), req)
	if p != nil {
		p.StopAndClear()
	}
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("output")
	if out == "" {
		base := strings.TrimSuffix(args[0], filepath.Ext(args[0]))
		out = base + "_albedo.png"
	}

	data, err := base64.StdEncoding.DecodeString(resp.Albedo)
	if err != nil {
		return fmt.Errorf("invalid server response: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d) in %s\n", out, resp.Width, resp.Height, time.Since(start).Round(time.Millisecond))
	return nil
}
