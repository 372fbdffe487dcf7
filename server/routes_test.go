package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matgen/matgen/albedo"
	"github.com/matgen/matgen/api"
	"github.com/matgen/matgen/logutil"
	"github.com/pdevine/tensor"
)

// Identitaets-Fakes: Encoder legt das Bild in den Mittelwert-Kanaelen ab,
// Denoiser gibt das Bild-Latent zurueck, der Scheduler uebernimmt die
// Vorhersage direkt.

type fakeVAE struct{}

func (fakeVAE) EncodeMoments(rgb *tensor.Dense) (*tensor.Dense, error) {
	shape := rgb.Shape()
	b, h, w := shape[0], shape[2], shape[3]
	src := rgb.Data().([]float32)

	out := make([]float32, b*8*h*w)
	for i := 0; i < b; i++ {
		for ch := 0; ch < 3; ch++ {
			copy(out[(i*8+ch)*h*w:(i*8+ch+1)*h*w], src[(i*3+ch)*h*w:(i*3+ch+1)*h*w])
		}
	}
	return tensor.New(tensor.WithShape(b, 8, h, w), tensor.WithBacking(out)), nil
}

func (fakeVAE) Decode(latent *tensor.Dense) (*tensor.Dense, error) {
	shape := latent.Shape()
	b, c, h, w := shape[0], shape[1], shape[2], shape[3]
	src := latent.Data().([]float32)

	out := make([]float32, b*3*h*w)
	for i := 0; i < b; i++ {
		for ch := 0; ch < 3; ch++ {
			copy(out[(i*3+ch)*h*w:(i*3+ch+1)*h*w], src[(i*c+ch)*h*w:(i*c+ch+1)*h*w])
		}
	}
	return tensor.New(tensor.WithShape(b, 3, h, w), tensor.WithBacking(out)), nil
}

type fakeDenoiser struct{}

func (fakeDenoiser) Forward(latent *tensor.Dense, timestep int, textEmbed *tensor.Dense) (*tensor.Dense, error) {
	shape := latent.Shape()
	b, c, h, w := shape[0], shape[1], shape[2], shape[3]
	src := latent.Data().([]float32)

	out := make([]float32, b*4*h*w)
	for i := 0; i < b; i++ {
		for ch := 0; ch < 4; ch++ {
			copy(out[(i*4+ch)*h*w:(i*4+ch+1)*h*w], src[(i*c+4+ch)*h*w:(i*c+4+ch+1)*h*w])
		}
	}
	return tensor.New(tensor.WithShape(b, 4, h, w), tensor.WithBacking(out)), nil
}

type fakeTextEncoder struct{}

func (fakeTextEncoder) Encode(tokens []int32) (*tensor.Dense, error) {
	return tensor.New(tensor.WithShape(1, 2, 1024), tensor.WithBacking(make([]float32, 2*1024))), nil
}

type fakeTokenizer struct{}

func (fakeTokenizer) Tokenize(text string) ([]int32, error) { return nil, nil }

type identityScheduler struct{ steps int }

func (s *identityScheduler) SetTimesteps(steps int) { s.steps = steps }
func (s *identityScheduler) Timesteps() []int       { return make([]int, s.steps) }
func (s *identityScheduler) Step(noisePred *tensor.Dense, timestep int, latent *tensor.Dense) (*tensor.Dense, error) {
	return noisePred, nil
}

func testPipeline(t *testing.T) *albedo.Pipeline {
	t.Helper()
	p, err := albedo.New(albedo.Components{
		ImageVAE:    fakeVAE{},
		AlbedoVAE:   fakeVAE{},
		Denoiser:    fakeDenoiser{},
		TextEncoder: fakeTextEncoder{},
		Tokenizer:   fakeTokenizer{},
		Scheduler:   &identityScheduler{},
	}, nil)
	require.NoError(t, err)
	return p
}

func testRouter(t *testing.T, s *Server) http.Handler {
	t.Helper()
	h, err := s.GenerateRoutes()
	require.NoError(t, err)
	return h
}

func pngBase64(t *testing.T, w, h int, c color.RGBA) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func doJSON(h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestVersionHandler(t *testing.T) {
	h := testRouter(t, &Server{})

	w := doJSON(h, http.MethodGet, "/api/version", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "version")
}

func TestPredictWithoutPipeline(t *testing.T) {
	h := testRouter(t, &Server{})

	w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{Image: pngBase64(t, 4, 4, color.RGBA{1, 2, 3, 255})})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestPredictInvalidRequests(t *testing.T) {
	s := &Server{}
	s.RegisterPipeline(testPipeline(t))
	h := testRouter(t, s)

	t.Run("kein Bild", func(t *testing.T) {
		w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("kein base64", func(t *testing.T) {
		w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{Image: "%%%"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("kein Bildformat", func(t *testing.T) {
		payload := base64.StdEncoding.EncodeToString([]byte("definitiv kein Bild"))
		w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{Image: payload})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("ungueltige Optionen", func(t *testing.T) {
		steps := 0
		w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{
			Image:          pngBase64(t, 4, 4, color.RGBA{1, 2, 3, 255}),
			DenoisingSteps: &steps,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestPredictHandler(t *testing.T) {
	s := &Server{}
	s.RegisterPipeline(testPipeline(t))
	h := testRouter(t, s)

	steps := 1
	ensemble := 1
	res := 0
	match := false
	w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{
		Image:          pngBase64(t, 8, 8, color.RGBA{100, 150, 200, 255}),
		DenoisingSteps: &steps,
		EnsembleSize:   &ensemble,
		ProcessingRes:  &res,
		MatchInputRes:  &match,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 8, resp.Width)
	assert.Equal(t, 8, resp.Height)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	raw, err := base64.StdEncoding.DecodeString(resp.Albedo)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	require.Equal(t, 8, decoded.Bounds().Dx())

	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.InDelta(t, 100, int(r>>8), 1)
	assert.InDelta(t, 150, int(g>>8), 1)
	assert.InDelta(t, 200, int(b>>8), 1)
}

func TestPredictCompositesTransparency(t *testing.T) {
	s := &Server{}
	s.RegisterPipeline(testPipeline(t))
	h := testRouter(t, s)

	steps := 1
	ensemble := 1
	res := 0
	match := false
	// Vollstaendig transparentes Bild wird auf weissen Hintergrund gelegt.
	w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{
		Image:          pngBase64(t, 8, 8, color.RGBA{0, 0, 0, 0}),
		DenoisingSteps: &steps,
		EnsembleSize:   &ensemble,
		ProcessingRes:  &res,
		MatchInputRes:  &match,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.PredictResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	raw, err := base64.StdEncoding.DecodeString(resp.Albedo)
	require.NoError(t, err)
	decoded, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)

	r, g, b, _ := decoded.At(4, 4).RGBA()
	assert.InDelta(t, 255, int(r>>8), 1)
	assert.InDelta(t, 255, int(g>>8), 1)
	assert.InDelta(t, 255, int(b>>8), 1)
}

func TestPredictLogsInputStats(t *testing.T) {
	var buf bytes.Buffer
	old := slog.Default()
	slog.SetDefault(logutil.NewLogger(&buf, slog.LevelDebug))
	defer slog.SetDefault(old)

	s := &Server{}
	s.RegisterPipeline(testPipeline(t))
	h := testRouter(t, s)

	steps := 1
	ensemble := 1
	res := 0
	match := false
	w := doJSON(h, http.MethodPost, "/api/predict", api.PredictRequest{
		Image:          pngBase64(t, 8, 8, color.RGBA{100, 150, 200, 255}),
		DenoisingSteps: &steps,
		EnsembleSize:   &ensemble,
		ProcessingRes:  &res,
		MatchInputRes:  &match,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Contains(t, buf.String(), "input image")
	assert.Contains(t, buf.String(), "mean")
	assert.Contains(t, buf.String(), "stddev")
}

func TestAttachProgress(t *testing.T) {
	var buf bytes.Buffer
	opts := albedo.DefaultOptions()

	stop := attachProgress(&opts, &buf)
	require.True(t, opts.ShowProgress)
	require.NotNil(t, opts.Progress)

	opts.Progress(3, 6)
	// Ticker-Periode abwarten, damit mindestens einmal gerendert wird.
	time.Sleep(150 * time.Millisecond)
	stop()

	assert.Contains(t, buf.String(), "3/6")
	assert.Contains(t, buf.String(), "predicting albedo map")
}

func TestProfilesHandler(t *testing.T) {
	h := testRouter(t, &Server{})

	w := doJSON(h, http.MethodGet, "/api/profiles", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.ProfileResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Profiles)
	for _, p := range resp.Profiles {
		assert.Greater(t, p.BatchSize, 0)
	}
}

func TestAllowedHost(t *testing.T) {
	cases := map[string]bool{
		"":               true,
		"localhost":      true,
		"api.local":      true,
		"backend.internal": true,
		"example.com":    false,
	}
	for host, want := range cases {
		assert.Equal(t, want, allowedHost(host), "host %q", host)
	}
}
