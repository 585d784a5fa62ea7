// SPDX-License-Identifier: MIT
package fft

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/dsp/window"
)

// WindowFunc selects the window applied before the transform.
type WindowFunc int

const (
	NoWindow WindowFunc = iota
	BartlettHann
	Blackman
	BlackmanNuttall
	Hann
	Hamming
	Lanczos
	Nuttall
)

// windows is indexed by WindowFunc. The gonum functions scale their
// argument in place.
var windows = [...]struct {
	name  string
	scale func([]float64) []float64
}{
	NoWindow:        {"none", nil},
	BartlettHann:    {"bartletthann", window.BartlettHann},
	Blackman:        {"blackman", window.Blackman},
	BlackmanNuttall: {"blackmannuttall", window.BlackmanNuttall},
	Hann:            {"hann", window.Hann},
	Hamming:         {"hamming", window.Hamming},
	Lanczos:         {"lanczos", window.Lanczos},
	Nuttall:         {"nuttall", window.Nuttall},
}

var windowAliases = map[string]WindowFunc{
	"":            NoWindow,
	"rectangular": NoWindow,
	"hanning":     Hann,
}

func (w WindowFunc) String() string {
	if w >= 0 && int(w) < len(windows) {
		return windows[w].name
	}
	return fmt.Sprintf("WindowFunc(%d)", int(w))
}

// ParseWindow converts a case-insensitive name to a WindowFunc. Hyphens and
// underscores are ignored, so "blackman-nuttall" works. An empty name means
// no window.
func ParseWindow(name string) (WindowFunc, error) {
	key := strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(name)))
	if w, ok := windowAliases[key]; ok {
		return w, nil
	}
	for i, def := range windows {
		if def.name == key {
			return WindowFunc(i), nil
		}
	}
	return NoWindow, fmt.Errorf("unknown window function name: '%s'", name)
}

// coefficients returns n window weights, or nil for NoWindow.
func (w WindowFunc) coefficients(n int) []float64 {
	if w < 0 || int(w) >= len(windows) || windows[w].scale == nil {
		return nil
	}
	coeffs := make([]float64, n)
	for i := range coeffs {
		coeffs[i] = 1
	}
	return windows[w].scale(coeffs)
}
