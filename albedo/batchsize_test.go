package albedo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matgen/matgen/backend"
	"github.com/matgen/matgen/format"
)

type testDevice struct {
	vramGiB     float64
	accelerated bool
}

func (d testDevice) Info() backend.DeviceInfo {
	return backend.DeviceInfo{
		Backend:     backend.BackendCUDA,
		MemoryTotal: uint64(d.vramGiB * float64(format.GibiByte)),
	}
}
func (d testDevice) Accelerated() bool { return d.accelerated }
func (d testDevice) EmptyCache()       {}

func TestFindBatchSize(t *testing.T) {
	cases := []struct {
		name      string
		ensemble  int
		res       int
		precision backend.Precision
		device    backend.Device
		want      int
	}{
		{"kein Geraet", 10, 512, backend.Float32, nil, 1},
		{"nicht beschleunigt", 10, 512, backend.Float32, testDevice{vramGiB: 80}, 1},
		{"A100-80GB 768 fp32", 100, 768, backend.Float32, testDevice{80, true}, 35},
		{"A100-80GB 1024 fp32", 100, 1024, backend.Float32, testDevice{80, true}, 20},
		{"A100-40GB 1024 fp16", 100, 1024, backend.Float16, testDevice{40, true}, 15},
		{"RTX3090 512 fp32", 100, 512, backend.Float32, testDevice{24, true}, 20},
		{"RTX3090 512 fp16", 100, 512, backend.Float16, testDevice{24, true}, 40},
		{"GTX1080Ti 768 fp32", 100, 768, backend.Float32, testDevice{11, true}, 2},
		{"zu wenig VRAM", 100, 512, backend.Float32, testDevice{4, true}, 1},
		{"1080Ti 1024 fp32 fehlt", 100, 1024, backend.Float32, testDevice{11, true}, 1},
		{"kleine Aufloesung nutzt 512er Profil", 100, 300, backend.Float32, testDevice{24, true}, 20},
		// Klemmung: Vorschlag 20 bei Ensemble 10 -> 10
		{"geklemmt auf Ensemble", 10, 512, backend.Float32, testDevice{24, true}, 10},
		// Vorschlag 20 bei Ensemble 30: ceil(30/2)=15 < 20 < 30 -> 15
		{"geklemmt auf Haelfte", 30, 512, backend.Float32, testDevice{24, true}, 15},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := FindBatchSize(tt.ensemble, tt.res, tt.precision, tt.device)
			if got != tt.want {
				t.Errorf("FindBatchSize = %d, erwartet %d", got, tt.want)
			}
		})
	}
}

func TestClampBatchSize(t *testing.T) {
	cases := []struct {
		bs, ensemble, want int
	}{
		{20, 10, 10},
		{20, 30, 15},
		{5, 10, 5},
		{10, 10, 10},
		{6, 10, 5},
		{1, 1, 1},
		{3, 5, 3},
		{4, 5, 3},
	}
	for _, tt := range cases {
		if got := clampBatchSize(tt.bs, tt.ensemble); got != tt.want {
			t.Errorf("clampBatchSize(%d, %d) = %d, erwartet %d", tt.bs, tt.ensemble, got, tt.want)
		}
	}
}

func TestBatchTableOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	content := `[{"res": 512, "total_vram": 7, "bs": 4, "precision": "float32"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MATGEN_BATCH_TABLE", path)

	table := BatchTable()
	if len(table) != 1 || table[0].BatchSize != 4 {
		t.Fatalf("Tabelle = %+v, erwartet den externen Eintrag", table)
	}

	if got := FindBatchSize(10, 512, backend.Float32, testDevice{8, true}); got != 4 {
		t.Errorf("FindBatchSize = %d, erwartet 4", got)
	}
}

func TestBatchTableInvalidFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.json")
	if err := os.WriteFile(path, []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MATGEN_BATCH_TABLE", path)

	table := BatchTable()
	if len(table) != len(defaultBatchTable) {
		t.Errorf("Tabelle hat %d Eintraege, erwartet die eingebaute Tabelle (%d)", len(table), len(defaultBatchTable))
	}
}
