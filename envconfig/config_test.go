// config_test.go - Tests fuer die Umgebungs-Konfiguration
// Testet Host-Parsing, Log-Level, VRAM-Override und Praezision
package envconfig

import (
	"log/slog"
	"testing"
)

func TestHost(t *testing.T) {
	cases := map[string]string{
		"":                      "127.0.0.1:11435",
		"1.2.3.4":               "1.2.3.4:11435",
		"1.2.3.4:1234":          "1.2.3.4:1234",
		"http://1.2.3.4":        "1.2.3.4:80",
		"https://1.2.3.4":       "1.2.3.4:443",
		"[::1]:1234":            "[::1]:1234",
		"example.com":           "example.com:11435",
		"example.com:99999":     "example.com:11435",
		" \"example.com:80\" ":  "example.com:80",
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("MATGEN_HOST", value)
			if host := Host().Host; host != expect {
				t.Errorf("Host() = %q, erwartet %q", host, expect)
			}
		})
	}
}

func TestLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":      slog.LevelInfo,
		"0":     slog.LevelInfo,
		"1":     slog.LevelDebug,
		"true":  slog.LevelDebug,
		"false": slog.LevelInfo,
		"2":     slog.Level(-8),
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("MATGEN_DEBUG", value)
			if level := LogLevel(); level != expect {
				t.Errorf("LogLevel() = %v, erwartet %v", level, expect)
			}
		})
	}
}

func TestTotalVRAM(t *testing.T) {
	cases := map[string]float64{
		"":     0,
		"24":   24,
		"39.5": 39.5,
		"-1":   0,
		"abc":  0,
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("MATGEN_VRAM", value)
			if got := TotalVRAM(); got != expect {
				t.Errorf("TotalVRAM() = %v, erwartet %v", got, expect)
			}
		})
	}
}

func TestPrecision(t *testing.T) {
	cases := map[string]string{
		"":        "float32",
		"float32": "float32",
		"float16": "float16",
		"fp16":    "float16",
		"half":    "float16",
		"FP16":    "float16",
		"int8":    "float32",
	}

	for value, expect := range cases {
		t.Run(value, func(t *testing.T) {
			t.Setenv("MATGEN_PRECISION", value)
			if got := Precision(); got != expect {
				t.Errorf("Precision() = %q, erwartet %q", got, expect)
			}
		})
	}
}

func TestAsMapContainsAllVars(t *testing.T) {
	m := AsMap()
	for _, k := range []string{
		"MATGEN_DEBUG", "MATGEN_HOST", "MATGEN_ORIGINS", "MATGEN_MODELS",
		"MATGEN_VRAM", "MATGEN_BATCH_TABLE", "MATGEN_PRECISION", "MATGEN_NOPROGRESS",
	} {
		if _, ok := m[k]; !ok {
			t.Errorf("AsMap() enthaelt %s nicht", k)
		}
	}
}
