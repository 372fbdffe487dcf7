// stepbar.go - Schrittbasierte Fortschrittsanzeige
// Enthaelt: StepBar fuer Denoising-Schritte und Batch-Fortschritt
package progress

import (
	"fmt"
	"strings"
)

// StepBar displays step-based progress (e.g. denoising steps per batch).
type StepBar struct {
	message string
	current int
	total   int
}

func NewStepBar(message string, total int) *StepBar {
	return &StepBar{message: message, total: total}
}

func (s *StepBar) Set(current int) {
	if current > s.total {
		current = s.total
	}
	s.current = current
}

func (s *StepBar) String() string {
	if s.total <= 0 {
		return s.message
	}

	percent := float64(s.current) / float64(s.total) * 100
	empty := s.total - s.current

	// "denoising  50% ▕█████     ▏ 5/10"
	return fmt.Sprintf("%s %3.0f%% ▕%s%s▏ %d/%d",
		s.message, percent,
		strings.Repeat("█", s.current), strings.Repeat(" ", empty),
		s.current, s.total)
}
