// stepbar_test.go - Tests fuer die schrittbasierte Fortschrittsanzeige
package progress

import (
	"strings"
	"testing"
)

func TestStepBar(t *testing.T) {
	bar := NewStepBar("denoising", 10)

	out := bar.String()
	if !strings.Contains(out, "0/10") {
		t.Errorf("String() = %q, erwartet 0/10", out)
	}

	bar.Set(5)
	out = bar.String()
	if !strings.Contains(out, "50%") || !strings.Contains(out, "5/10") {
		t.Errorf("String() = %q, erwartet 50%% und 5/10", out)
	}

	// Set ueber total wird geklemmt
	bar.Set(15)
	out = bar.String()
	if !strings.Contains(out, "10/10") || !strings.Contains(out, "100%") {
		t.Errorf("String() = %q, erwartet 10/10", out)
	}
}

func TestStepBarZeroTotal(t *testing.T) {
	bar := NewStepBar("warte", 0)
	if got := bar.String(); got != "warte" {
		t.Errorf("String() = %q, erwartet nur die Nachricht", got)
	}
}

func TestSpinnerStops(t *testing.T) {
	s := NewSpinner("arbeite")
	s.Stop()

	if s.stopped.IsZero() {
		t.Error("Stop() hat den Spinner nicht angehalten")
	}

	// Nach Stop kein Spinner-Zeichen mehr
	out := s.String()
	if strings.ContainsAny(out, "⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏") {
		t.Errorf("String() = %q, erwartet keine Spinner-Zeichen nach Stop", out)
	}
}
