// SPDX-License-Identifier: MIT
// Package tui renders the command line's human-facing reports.
package tui

import (
	"fmt"
	"strings"

	"spectrogram/internal/audio"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#777777"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Width(16).
			Foreground(lipgloss.Color("#777777"))
)

// RenderDevices lists devices with their capabilities. The default input is
// highlighted and devices without inputs are dimmed, since only inputs can
// be captured from.
func RenderDevices(devices []audio.Device) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Audio Devices"))
	b.WriteString("\n\n")

	if len(devices) == 0 {
		b.WriteString(dimStyle.Render("No audio devices found"))
		b.WriteString("\n")
		return b.String()
	}

	for _, d := range devices {
		header := fmt.Sprintf("[%d] %s (%s)", d.ID, d.Name, d.Kind())
		if d.IsDefaultInput {
			header += " *default input*"
		}
		details := fmt.Sprintf("    Input channels: %d, Output channels: %d\n"+
			"    Default sample rate: %.0f Hz\n"+
			"    Latency: Low=%.2fms, High=%.2fms",
			d.MaxInputChannels, d.MaxOutputChannels, d.DefaultSampleRate,
			d.LowInputLatency, d.HighInputLatency)
		if d.HostAPI != "" {
			details += "\n    Host API: " + d.HostAPI
		}

		switch {
		case d.IsDefaultInput:
			header = highlightStyle.Render(header)
			details = infoStyle.Render(details)
		case d.MaxInputChannels > 0:
			header = infoStyle.Render(header)
			details = infoStyle.Render(details)
		default:
			header = dimStyle.Render(header)
			details = dimStyle.Render(details)
		}
		b.WriteString(header)
		b.WriteString("\n")
		b.WriteString(details)
		b.WriteString("\n\n")
	}
	return b.String()
}
