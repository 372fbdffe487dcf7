// config_utils.go - Utility-Funktionen und Export fuer Konfiguration
//
// Dieses Modul enthaelt:
// - BoolWithDefault/Bool: Boolean-Getter mit Default-Wert
// - String: String-Getter
// - Uint: Integer-Getter mit Default-Wert
// - EnvVar: Struktur fuer Environment-Variablen-Info
// - AsMap: Gibt alle Konfigurationen als Map zurueck
// - Values: Gibt alle Konfigurationswerte als String-Map zurueck
package envconfig

import (
	"fmt"
	"log/slog"
	"strconv"
)

// BoolWithDefault gibt eine Funktion zurueck, die einen Bool mit Default-Wert liest
func BoolWithDefault(k string) func(defaultValue bool) bool {
	return func(defaultValue bool) bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return defaultValue
	}
}

// Bool gibt eine Funktion zurueck, die einen Bool liest (Default: false)
func Bool(k string) func() bool {
	withDefault := BoolWithDefault(k)
	return func() bool {
		return withDefault(false)
	}
}

// String gibt eine Funktion zurueck, die einen String liest
func String(s string) func() string {
	return func() string {
		return Var(s)
	}
}

// Uint gibt eine Funktion zurueck, die einen uint mit Default-Wert liest
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// EnvVar beschreibt eine Umgebungsvariable fuer die Hilfe-Ausgabe
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap gibt alle Konfigurationen als Map zurueck
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"MATGEN_DEBUG":       {"MATGEN_DEBUG", LogLevel(), "Show additional debug information (e.g. MATGEN_DEBUG=1)"},
		"MATGEN_HOST":        {"MATGEN_HOST", Host(), "IP Address for the matgen server (default 127.0.0.1:11435)"},
		"MATGEN_ORIGINS":     {"MATGEN_ORIGINS", AllowedOrigins(), "A comma separated list of allowed origins"},
		"MATGEN_MODELS":      {"MATGEN_MODELS", Models(), "The path to the models directory"},
		"MATGEN_VRAM":        {"MATGEN_VRAM", TotalVRAM(), "Override detected accelerator memory in GiB (0 = autodetect)"},
		"MATGEN_BATCH_TABLE": {"MATGEN_BATCH_TABLE", BatchTable(), "Path to a JSON file replacing the built-in batch size table"},
		"MATGEN_PRECISION":   {"MATGEN_PRECISION", Precision(), "Numeric precision for inference (float32 or float16)"},
		"MATGEN_NOPROGRESS":  {"MATGEN_NOPROGRESS", NoProgress(), "Disable the terminal progress display"},
	}
}

// Values gibt alle Konfigurationswerte als String-Map zurueck
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}
