// MODUL: device
// ZWECK: Geraete-Abstraktion fuer die Inferenz-Pipeline
// INPUT: DeviceInfo aus der Backend-Detection, MATGEN_VRAM Override
// OUTPUT: Device-Interface mit Speicherinfo und Cache-Verwaltung
// NEBENEFFEKTE: EmptyCache kann Geraetespeicher freigeben
// ABHAENGIGKEITEN: envconfig, format
// HINWEISE: Die Pipeline konsumiert nur dieses Interface, nie konkrete Typen

package backend

import (
	"log/slog"

	"github.com/matgen/matgen/envconfig"
	"github.com/matgen/matgen/format"
)

// Device ist die Geraetesicht der Inferenz-Pipeline. Die Batch-Groessen-
// Heuristik fragt Speicherinfo ab, die Pipeline leert nach jedem Batch
// den Geraete-Cache.
type Device interface {
	// Info gibt die Geraeteinformationen zurueck
	Info() DeviceInfo

	// Accelerated meldet ob das Geraet ein Beschleuniger ist
	Accelerated() bool

	// EmptyCache gibt gecachten Geraetespeicher frei
	EmptyCache()
}

// cpuDevice ist das Fallback-Geraet ohne Beschleunigung.
type cpuDevice struct{}

func (cpuDevice) Info() DeviceInfo   { return cpuDeviceInfo() }
func (cpuDevice) Accelerated() bool  { return false }
func (cpuDevice) EmptyCache()        {}

// overrideDevice meldet fest konfigurierten Speicher (MATGEN_VRAM).
// Damit laesst sich die Batch-Groessen-Heuristik ohne Beschleuniger
// reproduzieren.
type overrideDevice struct {
	info DeviceInfo
}

func (d overrideDevice) Info() DeviceInfo  { return d.info }
func (d overrideDevice) Accelerated() bool { return true }
func (d overrideDevice) EmptyCache()       {}

// detectorDevice kapselt ein erkanntes Beschleuniger-Geraet.
type detectorDevice struct {
	info DeviceInfo
}

func (d detectorDevice) Info() DeviceInfo  { return d.info }
func (d detectorDevice) Accelerated() bool { return d.info.Backend != BackendCPU }

func (d detectorDevice) EmptyCache() {
	// Cache-Verwaltung liegt beim jeweiligen Backend-Detektor; ohne
	// registrierten Beschleuniger gibt es nichts freizugeben.
}

// Default waehlt das Standard-Geraet: MATGEN_VRAM Override vor erkanntem
// Beschleuniger vor CPU.
func Default() Device {
	if vram := envconfig.TotalVRAM(); vram > 0 {
		total := uint64(vram * float64(format.GibiByte))
		slog.Debug("using VRAM override", "total", format.HumanBytes2(total))
		return overrideDevice{info: DeviceInfo{
			Backend:     BackendCPU,
			DeviceName:  "override",
			MemoryTotal: total,
			MemoryFree:  total,
			IsDefault:   true,
		}}
	}

	for _, info := range GetDevices() {
		if info.Backend != BackendCPU {
			slog.Debug("using accelerator",
				"backend", info.Backend,
				"name", info.DeviceName,
				"memory", format.HumanBytes2(info.MemoryTotal))
			return detectorDevice{info: info}
		}
	}

	return cpuDevice{}
}
