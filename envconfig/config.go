// config.go - Haupt-Konfigurationsfunktionen fuer Matgen
//
// Dieses Modul enthaelt:
// - Host: Gibt Scheme und Host zurueck (MATGEN_HOST)
// - AllowedOrigins: Gibt erlaubte Origins zurueck (MATGEN_ORIGINS)
// - Models: Gibt Modell-Verzeichnis zurueck (MATGEN_MODELS)
// - LogLevel: Gibt Log-Level zurueck (MATGEN_DEBUG)
// - TotalVRAM: VRAM-Override in GiB (MATGEN_VRAM)
// - BatchTable: Pfad zur externen Batch-Groessen-Tabelle (MATGEN_BATCH_TABLE)
// - Precision: Numerische Praezision (MATGEN_PRECISION)
//
// Utility-Getter und AsMap/Values sind in config_utils.go ausgelagert.
package envconfig

import (
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Host gibt Scheme und Host zurueck
// Konfigurierbar via MATGEN_HOST
// Default: http://127.0.0.1:11435
func Host() *url.URL {
	defaultPort := "11435"

	s := strings.TrimSpace(Var("MATGEN_HOST"))
	scheme, hostport, ok := strings.Cut(s, "://")
	switch {
	case !ok:
		scheme, hostport = "http", s
	case scheme == "http":
		defaultPort = "80"
	case scheme == "https":
		defaultPort = "443"
	}

	hostport, path, _ := strings.Cut(hostport, "/")
	host, port, err := net.SplitHostPort(hostport)
	if err != nil {
		host, port = "127.0.0.1", defaultPort
		if ip := net.ParseIP(strings.Trim(hostport, "[]")); ip != nil {
			host = ip.String()
		} else if hostport != "" {
			host = hostport
		}
	}

	if n, err := strconv.ParseInt(port, 10, 32); err != nil || n > 65535 || n < 0 {
		slog.Warn("invalid port, using default", "port", port, "default", defaultPort)
		port = defaultPort
	}

	return &url.URL{
		Scheme: scheme,
		Host:   net.JoinHostPort(host, port),
		Path:   path,
	}
}

// AllowedOrigins gibt erlaubte Origins zurueck
// Konfigurierbar via MATGEN_ORIGINS (komma-separiert)
// Enthaelt Standard-Origins fuer localhost
func AllowedOrigins() (origins []string) {
	if s := Var("MATGEN_ORIGINS"); s != "" {
		origins = strings.Split(s, ",")
	}

	// Standard-Origins fuer localhost
	for _, origin := range []string{"localhost", "127.0.0.1", "0.0.0.0"} {
		origins = append(origins,
			fmt.Sprintf("http://%s", origin),
			fmt.Sprintf("https://%s", origin),
			fmt.Sprintf("http://%s", net.JoinHostPort(origin, "*")),
			fmt.Sprintf("https://%s", net.JoinHostPort(origin, "*")),
		)
	}

	origins = append(origins,
		"app://*",
		"file://*",
		"vscode-webview://*",
		"vscode-file://*",
	)

	return origins
}

// Models gibt das Modell-Verzeichnis zurueck
// Konfigurierbar via MATGEN_MODELS
// Default: $HOME/.matgen/models
func Models() string {
	if s := Var("MATGEN_MODELS"); s != "" {
		return s
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".matgen", "models")
	}

	return filepath.Join(home, ".matgen", "models")
}

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via MATGEN_DEBUG (bool oder Integer-Level)
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("MATGEN_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// TotalVRAM gibt den VRAM-Override in GiB zurueck (0 = automatisch)
// Konfigurierbar via MATGEN_VRAM
func TotalVRAM() float64 {
	if s := Var("MATGEN_VRAM"); s != "" {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
			return f
		}
		slog.Warn("invalid MATGEN_VRAM, ignoring", "value", s)
	}
	return 0
}

// BatchTable gibt den Pfad zur externen Batch-Groessen-Tabelle zurueck
// Konfigurierbar via MATGEN_BATCH_TABLE (JSON-Datei, leer = eingebaute Tabelle)
func BatchTable() string {
	return Var("MATGEN_BATCH_TABLE")
}

// Precision gibt die numerische Praezision zurueck ("float32" oder "float16")
// Konfigurierbar via MATGEN_PRECISION
func Precision() string {
	switch strings.ToLower(Var("MATGEN_PRECISION")) {
	case "float16", "fp16", "half":
		return "float16"
	default:
		return "float32"
	}
}

// NoProgress deaktiviert die Fortschrittsanzeige
// Konfigurierbar via MATGEN_NOPROGRESS
var NoProgress = Bool("MATGEN_NOPROGRESS")

// Var liest eine Umgebungsvariable und entfernt Whitespace und Quotes
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
