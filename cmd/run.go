// SPDX-License-Identifier: MIT
package cmd

import (
	"errors"
	"fmt"
	"io"
	"time"

	"spectrogram/internal/audio"
	"spectrogram/internal/config"
	"spectrogram/internal/fft"
	applog "spectrogram/internal/log"
	"spectrogram/internal/output"
	"spectrogram/internal/source"
	"spectrogram/internal/spectrogram"
	"spectrogram/internal/throughput"
	"spectrogram/internal/transport"
	"spectrogram/internal/transport/udp"
	"spectrogram/internal/tui"
)

// ConfigureLogging applies the configured log level.
func ConfigureLogging(cfg *config.Config) {
	level, _ := applog.ParseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = applog.LevelDebug
	}
	applog.SetLevel(level)
}

// List prints the host audio devices.
func List(w io.Writer) error {
	devices, err := audio.GetDevices()
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, tui.RenderDevices(devices))
	return err
}

// Render opens the input, renders it, writes the PNG and prints a summary
// to w.
func Render(options *Options, w io.Writer) (err error) {
	cfg := options.Config
	started := time.Now()

	window, err := fft.ParseWindow(cfg.Spectrogram.Window)
	if err != nil {
		return err
	}
	pal, err := cfg.Palette.Build()
	if err != nil {
		return fmt.Errorf("invalid palette: %w", err)
	}
	renderer, err := spectrogram.New(spectrogram.Options{
		FFTSize:       cfg.Spectrogram.FFTSize,
		RowsPerSecond: cfg.Spectrogram.RowsPerSecond,
		Palette:       pal,
		Window:        window,
	})
	if err != nil {
		return err
	}

	if cfg.Input.Format == config.FormatCapture {
		if err := audio.Initialize(); err != nil {
			return err
		}
		defer audio.Terminate()
	}

	src, err := openSource(cfg, options.Input)
	if err != nil {
		return err
	}

	var monitor *throughput.Monitor
	if cfg.Throughput.Enabled {
		tr, err := newTransport(cfg.Throughput)
		if err != nil {
			src.Close()
			return err
		}
		defer func() {
			if cerr := tr.Close(); cerr != nil {
				applog.Warnf("Transport: close failed: %v", cerr)
			}
		}()
		monitor = throughput.Wrap(src, cfg.Throughput.Interval, tr)
		src = monitor
	}
	defer func() {
		err = errors.Join(err, src.Close())
	}()

	format := src.Format()
	applog.Infof("Input: %s (%s, %.0f Hz, %d channel(s), %d frames)",
		displayName(options.Input, cfg), cfg.Input.Format, format.SampleRate, format.Channels, format.FrameCount)

	result, err := renderer.Render(src)
	if err != nil {
		return err
	}
	if !result.Complete() {
		applog.Warnf("Input ended after %d of %d rows; the remaining rows are left blank",
			result.Rows, result.Geometry.Height)
	}

	if err := output.WritePNG(cfg.Output.Path, result.Image); err != nil {
		return err
	}

	summary := tui.Summary{
		Input:         displayName(options.Input, cfg),
		Format:        cfg.Input.Format,
		SampleRate:    format.SampleRate,
		Channels:      format.Channels,
		Frames:        format.FrameCount,
		FFTSize:       cfg.Spectrogram.FFTSize,
		RowsPerSecond: cfg.Spectrogram.RowsPerSecond,
		Window:        window.String(),
		Width:         result.Geometry.Width,
		Height:        result.Geometry.Height,
		RowPeriod:     result.Geometry.RowPeriod,
		SkipPerRow:    result.Geometry.SkipPerRow,
		Rows:          result.Rows,
		Output:        cfg.Output.Path,
		Elapsed:       time.Since(started),
	}
	if monitor != nil {
		summary.Throughput = monitor.Average()
		summary.ThroughputInterval = cfg.Throughput.Interval
	}
	_, err = io.WriteString(w, tui.RenderSummary(summary))
	return err
}

func openSource(cfg *config.Config, input string) (source.Source, error) {
	switch cfg.Input.Format {
	case config.FormatIQ:
		return source.OpenIQFile(input, cfg.Input.SampleRate)
	case config.FormatWAV:
		return source.OpenWavFile(input)
	case config.FormatCapture:
		return audio.OpenCapture(audio.CaptureOptions{
			DeviceID:        cfg.Input.Device,
			SampleRate:      cfg.Input.SampleRate,
			Channels:        cfg.Input.Channels,
			FramesPerBuffer: cfg.Input.FramesPerBuffer,
			Duration:        cfg.Input.Duration,
			LowLatency:      cfg.Input.LowLatency,
			Record:          cfg.Input.Record,
		})
	default:
		return nil, fmt.Errorf("unsupported input format '%s'", cfg.Input.Format)
	}
}

func newTransport(tc config.ThroughputConfig) (transport.Transport, error) {
	kind, err := transport.ParseKind(tc.Transport)
	if err != nil {
		return nil, err
	}
	switch kind {
	case transport.KindWebSocket:
		return transport.NewWebSocketTransport(tc.Address)
	case transport.KindUDP:
		return udp.NewTransport(tc.Address)
	default:
		return transport.NewLoggingTransport(), nil
	}
}

func displayName(input string, cfg *config.Config) string {
	if cfg.Input.Format == config.FormatCapture {
		if cfg.Input.Device == config.MinDeviceID {
			return "default input device"
		}
		return fmt.Sprintf("device %d", cfg.Input.Device)
	}
	return input
}
