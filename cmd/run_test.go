// SPDX-License-Identifier: MIT
package cmd

import (
	"bytes"
	"errors"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"spectrogram/internal/config"
	applog "spectrogram/internal/log"
	"spectrogram/internal/spectrogram"
	"spectrogram/pkg/utils"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeIQ(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.iq")
	data := utils.QuantizeIQ(utils.GenerateComplexTone(frames, 8000, 1000, 0.5))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func writeWav(t *testing.T, frames int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tone.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 8000, 16, 1, 1)
	buf := &audio.IntBuffer{Format: &audio.Format{NumChannels: 1, SampleRate: 8000}, SourceBitDepth: 16}
	for _, v := range utils.GenerateSineWave(frames, 8000, 440) {
		buf.Data = append(buf.Data, int(v*32767))
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func renderOptions(t *testing.T, format, input string) *Options {
	t.Helper()
	cfg := config.Default()
	cfg.Input.Format = format
	cfg.Input.SampleRate = 8000
	cfg.Spectrogram.FFTSize = 256
	cfg.Spectrogram.RowsPerSecond = 10
	cfg.Output.Path = filepath.Join(t.TempDir(), "out", "spectrogram.png")
	return &Options{Config: cfg, Command: CommandRender, Input: input}
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestRenderIQ(t *testing.T) {
	options := renderOptions(t, config.FormatIQ, writeIQ(t, 8000))

	var out bytes.Buffer
	if err := Render(options, &out); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := decodeSize(t, options.Config.Output.Path); w != 256 || h != 10 {
		t.Errorf("image is %dx%d, want 256x10", w, h)
	}
	for _, want := range []string{"256x10", "period 800, skip 544", "I/Q"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("summary missing %q:\n%s", want, out.String())
		}
	}
	if strings.Contains(out.String(), "ended early") {
		t.Errorf("complete render reported as truncated:\n%s", out.String())
	}
}

func TestRenderWavWithThroughput(t *testing.T) {
	var logs bytes.Buffer
	applog.SetOutput(&logs)
	t.Cleanup(func() { applog.SetOutput(nil) })

	options := renderOptions(t, config.FormatWAV, writeWav(t, 4000))
	options.Config.Spectrogram.RowsPerSecond = 4
	options.Config.Spectrogram.Window = "hann"
	options.Config.Throughput = config.ThroughputConfig{Enabled: true, Transport: "log", Interval: time.Hour}

	var out bytes.Buffer
	if err := Render(options, &out); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if w, h := decodeSize(t, options.Config.Output.Path); w != 256 || h != 2 {
		t.Errorf("image is %dx%d, want 256x2", w, h)
	}
	if !strings.Contains(out.String(), "window hann") || !strings.Contains(out.String(), "mono") {
		t.Errorf("unexpected summary:\n%s", out.String())
	}
}

func TestRenderInsufficientData(t *testing.T) {
	options := renderOptions(t, config.FormatIQ, writeIQ(t, 100))

	err := Render(options, &bytes.Buffer{})
	var insufficient *spectrogram.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("Render error = %v, want InsufficientDataError", err)
	}
	if _, statErr := os.Stat(options.Config.Output.Path); !errors.Is(statErr, fs.ErrNotExist) {
		t.Error("no image should be written when the stream is too short")
	}
}

func TestRenderMissingInput(t *testing.T) {
	options := renderOptions(t, config.FormatIQ, filepath.Join(t.TempDir(), "absent.iq"))
	if err := Render(options, &bytes.Buffer{}); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("Render error = %v, want fs.ErrNotExist", err)
	}
}

func TestConfigureLogging(t *testing.T) {
	prev := applog.GetLevel()
	t.Cleanup(func() { applog.SetLevel(prev) })

	cfg := config.Default()
	cfg.LogLevel = "error"
	ConfigureLogging(cfg)
	if applog.GetLevel() != applog.LevelError {
		t.Errorf("level = %v, want ERROR", applog.GetLevel())
	}
	cfg.Debug = true
	ConfigureLogging(cfg)
	if applog.GetLevel() != applog.LevelDebug {
		t.Errorf("level = %v, want DEBUG", applog.GetLevel())
	}
}
