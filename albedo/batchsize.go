// batchsize.go - Batch-Groessen-Heuristik
//
// Dieses Modul enthaelt:
// - Die statische (Aufloesung, VRAM, Praezision) -> Batch-Groesse Tabelle
// - FindBatchSize mit Ensemble-Klemmung
// - Laden einer externen Tabelle via MATGEN_BATCH_TABLE
//
// Die Tabelle kodiert historische Hardware-Profile und ist eine ersetzbare
// Heuristik, kein adaptiver Algorithmus.

package albedo

import (
	"encoding/json"
	"log/slog"
	"os"
	"sort"

	"github.com/matgen/matgen/backend"
	"github.com/matgen/matgen/envconfig"
	"github.com/matgen/matgen/format"
)

// BatchSetting ist ein Eintrag der Batch-Groessen-Tabelle.
type BatchSetting struct {
	// Res ist die Aufloesungs-Schwelle (laengere Bildkante in Pixeln).
	Res int `json:"res"`

	// TotalVRAM ist der minimal benoetigte Geraetespeicher in GiB.
	TotalVRAM float64 `json:"total_vram"`

	// BatchSize ist die vorgeschlagene Batch-Groesse.
	BatchSize int `json:"bs"`

	// Precision ist die numerische Praezision des Profils.
	Precision backend.Precision `json:"precision"`
}

// defaultBatchTable enthaelt gemessene Profile.
var defaultBatchTable = []BatchSetting{
	// A100-PCIE-80GB
	{Res: 768, TotalVRAM: 79, BatchSize: 35, Precision: backend.Float32},
	{Res: 1024, TotalVRAM: 79, BatchSize: 20, Precision: backend.Float32},
	// A100-PCIE-40GB
	{Res: 768, TotalVRAM: 39, BatchSize: 15, Precision: backend.Float32},
	{Res: 1024, TotalVRAM: 39, BatchSize: 8, Precision: backend.Float32},
	{Res: 768, TotalVRAM: 39, BatchSize: 30, Precision: backend.Float16},
	{Res: 1024, TotalVRAM: 39, BatchSize: 15, Precision: backend.Float16},
	// RTX3090, RTX4090
	{Res: 512, TotalVRAM: 23, BatchSize: 20, Precision: backend.Float32},
	{Res: 768, TotalVRAM: 23, BatchSize: 7, Precision: backend.Float32},
	{Res: 1024, TotalVRAM: 23, BatchSize: 3, Precision: backend.Float32},
	{Res: 512, TotalVRAM: 23, BatchSize: 40, Precision: backend.Float16},
	{Res: 768, TotalVRAM: 23, BatchSize: 18, Precision: backend.Float16},
	{Res: 1024, TotalVRAM: 23, BatchSize: 10, Precision: backend.Float16},
	// GTX1080Ti
	{Res: 512, TotalVRAM: 10, BatchSize: 5, Precision: backend.Float32},
	{Res: 768, TotalVRAM: 10, BatchSize: 2, Precision: backend.Float32},
	{Res: 512, TotalVRAM: 10, BatchSize: 10, Precision: backend.Float16},
	{Res: 768, TotalVRAM: 10, BatchSize: 5, Precision: backend.Float16},
	{Res: 1024, TotalVRAM: 10, BatchSize: 3, Precision: backend.Float16},
}

// BatchTable gibt die aktive Tabelle zurueck: die externe Datei aus
// MATGEN_BATCH_TABLE falls gesetzt, sonst die eingebaute Tabelle.
func BatchTable() []BatchSetting {
	path := envconfig.BatchTable()
	if path == "" {
		return defaultBatchTable
	}

	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("could not read batch table, using built-in", "path", path, "error", err)
		return defaultBatchTable
	}

	var table []BatchSetting
	if err := json.Unmarshal(data, &table); err != nil || len(table) == 0 {
		slog.Warn("invalid batch table, using built-in", "path", path, "error", err)
		return defaultBatchTable
	}

	return table
}

// FindBatchSize waehlt die Batch-Groesse fuer eine Ensemble-Inferenz.
// inputRes ist die laengere Kante des verarbeiteten Bildes. Ohne
// Beschleuniger oder ohne passenden Tabelleneintrag faellt die Wahl auf 1.
func FindBatchSize(ensembleSize, inputRes int, precision backend.Precision, device backend.Device) int {
	if device == nil || !device.Accelerated() {
		return 1
	}

	totalVRAM := float64(device.Info().MemoryTotal) / float64(format.GibiByte)

	var filtered []BatchSetting
	for _, s := range BatchTable() {
		if s.Precision == precision {
			filtered = append(filtered, s)
		}
	}

	// Aufsteigend nach Aufloesung, absteigend nach Speicherbedarf
	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Res != filtered[j].Res {
			return filtered[i].Res < filtered[j].Res
		}
		return filtered[i].TotalVRAM > filtered[j].TotalVRAM
	})

	for _, s := range filtered {
		if inputRes <= s.Res && totalVRAM >= s.TotalVRAM {
			return clampBatchSize(s.BatchSize, ensembleSize)
		}
	}

	return 1
}

// clampBatchSize begrenzt den Tabellenvorschlag auf die Ensemble-Groesse.
// Vorschlaege zwischen ceil(N/2) und N werden auf ceil(N/2) gesetzt, damit
// kein Rest-Batch der Groesse 1 entsteht.
func clampBatchSize(bs, ensembleSize int) int {
	half := (ensembleSize + 1) / 2
	switch {
	case bs > ensembleSize:
		return ensembleSize
	case bs > half && bs < ensembleSize:
		return half
	default:
		return bs
	}
}
