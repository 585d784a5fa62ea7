// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Summary describes a finished render.
type Summary struct {
	Input         string
	Format        string // "iq", "wav" or "capture".
	SampleRate    float64
	Channels      int
	Frames        int64
	FFTSize       int
	RowsPerSecond float64
	Window        string
	Width         int
	Height        int
	RowPeriod     int64
	SkipPerRow    int64
	Rows          int // Rows analysed; fewer than Height means the stream ended early.
	Output        string
	Elapsed       time.Duration

	// Throughput is the mean samples per interval; zero when not measured.
	Throughput         uint64
	ThroughputInterval time.Duration
}

// RenderSummary formats s as a labelled block.
func RenderSummary(s Summary) string {
	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), infoStyle.Render(value))
	}

	channels := "mono"
	if s.Channels == 2 {
		channels = "I/Q"
	}
	rows := []string{
		titleStyle.Render("Spectrogram"),
		"",
		row("Input", fmt.Sprintf("%s (%s)", s.Input, s.Format)),
		row("Stream", fmt.Sprintf("%.0f Hz, %s, %d frames", s.SampleRate, channels, s.Frames)),
		row("FFT", fmt.Sprintf("%d bins, window %s", s.FFTSize, s.Window)),
		row("Row rate", fmt.Sprintf("%g rows/s (period %d, skip %d)", s.RowsPerSecond, s.RowPeriod, s.SkipPerRow)),
		row("Image", fmt.Sprintf("%dx%d", s.Width, s.Height)),
	}

	if s.Rows < s.Height {
		rows = append(rows, row("Rows", warnStyle.Render(
			fmt.Sprintf("%d of %d (stream ended early)", s.Rows, s.Height))))
	} else {
		rows = append(rows, row("Rows", highlightStyle.Render(fmt.Sprintf("%d", s.Rows))))
	}
	if s.Throughput > 0 {
		rows = append(rows, row("Throughput", fmt.Sprintf("%d samples per %s", s.Throughput, s.ThroughputInterval)))
	}
	if s.Output != "" {
		rows = append(rows, row("Output", s.Output))
	}
	rows = append(rows, row("Elapsed", s.Elapsed.Round(time.Millisecond).String()))

	return strings.TrimRight(lipgloss.JoinVertical(lipgloss.Left, rows...), " ") + "\n"
}
