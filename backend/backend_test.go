// MODUL: backend_test
// ZWECK: Unit-Tests fuer Backend-Detection, Geraete-Auswahl und Praezision
// INPUT: Keine
// OUTPUT: Test-Ergebnisse
// NEBENEFFEKTE: Keine (nur Abfragen, t.Setenv)
// ABHAENGIGKEITEN: testing (stdlib)
// HINWEISE: Tests laufen auf jeder Plattform (CPU immer verfuegbar)

package backend

import (
	"math"
	"testing"
)

func TestBackendConstants(t *testing.T) {
	if BackendCPU != "cpu" {
		t.Errorf("BackendCPU: erwartet 'cpu', bekommen '%s'", BackendCPU)
	}
	if BackendCUDA != "cuda" {
		t.Errorf("BackendCUDA: erwartet 'cuda', bekommen '%s'", BackendCUDA)
	}
	if BackendMetal != "metal" {
		t.Errorf("BackendMetal: erwartet 'metal', bekommen '%s'", BackendMetal)
	}
}

func TestDetectBackendsIncludesCPU(t *testing.T) {
	backends := DetectBackends()

	hasCPU := false
	for _, b := range backends {
		if b == BackendCPU {
			hasCPU = true
		}
	}
	if !hasCPU {
		t.Error("DetectBackends: CPU fehlt")
	}
}

func TestSelectBestBackendFallsBackToCPU(t *testing.T) {
	// Ohne registrierte Detektoren bleibt nur die CPU
	if b := SelectBestBackend(); b != BackendCPU {
		t.Errorf("SelectBestBackend: erwartet cpu, bekommen %s", b)
	}
}

func TestDefaultDeviceWithoutAccelerator(t *testing.T) {
	t.Setenv("MATGEN_VRAM", "")

	d := Default()
	if d.Accelerated() {
		t.Error("Default: CPU-Geraet darf nicht beschleunigt sein")
	}
	if d.Info().Backend != BackendCPU {
		t.Errorf("Default: erwartet cpu, bekommen %s", d.Info().Backend)
	}
}

func TestDefaultDeviceWithVRAMOverride(t *testing.T) {
	t.Setenv("MATGEN_VRAM", "24")

	d := Default()
	if !d.Accelerated() {
		t.Fatal("Default: Override-Geraet muss als beschleunigt gelten")
	}
	wantTotal := uint64(24) << 30
	if got := d.Info().MemoryTotal; got != wantTotal {
		t.Errorf("MemoryTotal = %d, erwartet %d", got, wantTotal)
	}
}

func TestParsePrecision(t *testing.T) {
	cases := map[string]Precision{
		"float32": Float32,
		"float16": Float16,
		"fp16":    Float16,
		"half":    Float16,
		"":        Float32,
		"int8":    Float32,
	}
	for in, want := range cases {
		if got := ParsePrecision(in); got != want {
			t.Errorf("ParsePrecision(%q) = %s, erwartet %s", in, got, want)
		}
	}

	if Float32.Bytes() != 4 || Float16.Bytes() != 2 {
		t.Error("Precision.Bytes: falsche Elementgroessen")
	}
}

func TestPackUnpackF16(t *testing.T) {
	src := []float32{0, 1, -1, 0.5, 127.25}
	got := UnpackF16(PackF16(src))

	if len(got) != len(src) {
		t.Fatalf("Laenge = %d, erwartet %d", len(got), len(src))
	}
	for i := range src {
		if math.Abs(float64(got[i]-src[i])) > 1e-3 {
			t.Errorf("Wert %d: %f != %f", i, got[i], src[i])
		}
	}
}
