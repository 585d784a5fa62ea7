// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"spectrogram/internal/fft"
	applog "spectrogram/internal/log"
	"spectrogram/internal/palette"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultEnvFile is read, when present, before environment overrides are
// applied. Variables already set in the environment win.
const DefaultEnvFile = ".env"

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug       bool              `yaml:"debug"`       // Enable debug logging.
	LogLevel    string            `yaml:"log_level"`   // Logging level (e.g., "debug", "info", "warn", "error").
	Input       InputConfig       `yaml:"input"`       // Where samples come from.
	Spectrogram SpectrogramConfig `yaml:"spectrogram"` // Analysis settings.
	Palette     PaletteConfig     `yaml:"palette"`     // dB to colour mapping.
	Output      OutputConfig      `yaml:"output"`      // Where the image goes.
	Throughput  ThroughputConfig  `yaml:"throughput"`  // Optional read-rate reporting.
}

// InputConfig holds settings related to the sample source.
type InputConfig struct {
	Format          string        `yaml:"format"`            // "iq", "wav" or "capture".
	SampleRate      float64       `yaml:"sample_rate"`       // Hz. Required for iq; 0 selects the device default for capture; ignored for wav.
	Device          int           `yaml:"device"`            // PortAudio device index for capture (-1 for default).
	Channels        int           `yaml:"channels"`          // Capture channels: 1 for real input, 2 for an I/Q pair.
	FramesPerBuffer int           `yaml:"frames_per_buffer"` // Capture buffer size in frames.
	LowLatency      bool          `yaml:"low_latency"`       // Request low latency settings from PortAudio device.
	Duration        time.Duration `yaml:"duration"`          // Capture length.
	Record          string        `yaml:"record"`            // Optional WAV file receiving captured audio.
}

// SpectrogramConfig holds the analysis parameters.
type SpectrogramConfig struct {
	FFTSize       int     `yaml:"fft_size"`        // Bins per row and image width.
	RowsPerSecond float64 `yaml:"rows_per_second"` // Requested temporal resolution.
	Window        string  `yaml:"window"`          // Window function name; "none" transforms frames unwindowed.
}

// PaletteConfig describes the colour map. Anchors, when given, take
// precedence over the evenly spaced Colors list.
type PaletteConfig struct {
	MaxDB   float64        `yaml:"max_db"`
	MinDB   float64        `yaml:"min_db"`
	Colors  []string       `yaml:"colors"`  // Hex colours spaced evenly from max_db down to min_db.
	Anchors []AnchorConfig `yaml:"anchors"` // Explicit threshold/colour pairs.
}

// AnchorConfig is one explicit palette anchor.
type AnchorConfig struct {
	DB    float64 `yaml:"db"`
	Color string  `yaml:"color"`
}

// OutputConfig holds settings related to image persistence.
type OutputConfig struct {
	Path string `yaml:"path"` // PNG file to write.
}

// ThroughputConfig holds settings for the read-rate monitor.
type ThroughputConfig struct {
	Enabled   bool          `yaml:"enabled"`   // Wrap the source in a throughput monitor.
	Transport string        `yaml:"transport"` // "log", "websocket" or "udp".
	Address   string        `yaml:"address"`   // Listen address (websocket) or target (udp).
	Interval  time.Duration `yaml:"interval"`  // Snapshot interval.
}

// Default returns the built-in configuration.
func Default() *Config {
	colors := make([]string, len(palette.DefaultColors))
	for i, c := range palette.DefaultColors {
		colors[i] = c.String()
	}
	return &Config{
		Debug:    false,
		LogLevel: "info",
		Input: InputConfig{
			Format:          DefaultFormat,
			SampleRate:      DefaultIQSampleRate,
			Device:          DefaultDeviceID,
			Channels:        DefaultChannels,
			FramesPerBuffer: DefaultFramesPerBuffer,
			LowLatency:      DefaultLowLatency,
			Duration:        DefaultDuration,
		},
		Spectrogram: SpectrogramConfig{
			FFTSize:       DefaultFFTSize,
			RowsPerSecond: DefaultRowsPerSecond,
			Window:        DefaultWindow,
		},
		Palette: PaletteConfig{
			MaxDB:  palette.DefaultMaxDB,
			MinDB:  palette.DefaultMinDB,
			Colors: colors,
		},
		Output: OutputConfig{
			Path: DefaultOutputFile,
		},
		Throughput: ThroughputConfig{
			Enabled:   DefaultThroughputEnabled,
			Transport: DefaultThroughputTransport,
			Address:   DefaultThroughputAddress,
			Interval:  DefaultThroughputInterval,
		},
	}
}

// LoadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. After loading defaults or from file, it applies environment variable
// overrides and validates the final configuration.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		candidates := []string{
			"config.yaml",
			"spectrogram.yaml",
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("Config: loaded %s", path)
	}

	if err := loadEnvFile(DefaultEnvFile); err != nil {
		return nil, err
	}
	// Apply environment variable overrides AFTER loading from file.
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks every section and joins all problems into one error.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level '%s' is not one of debug, info, warn, error, fatal", c.LogLevel))
	}

	in := c.Input
	switch in.Format {
	case FormatIQ:
		if !(in.SampleRate > 0) || math.IsInf(in.SampleRate, 0) {
			errs = append(errs, fmt.Errorf("input.sample_rate must be positive for iq input, got %g", in.SampleRate))
		}
	case FormatWAV:
	case FormatCapture:
		if in.SampleRate != 0 && (in.SampleRate < MinSampleRate || in.SampleRate > MaxSampleRate) {
			errs = append(errs, fmt.Errorf("input.sample_rate must be between %d and %d Hz for capture, got %g",
				MinSampleRate, MaxSampleRate, in.SampleRate))
		}
		if in.Channels != 1 && in.Channels != 2 {
			errs = append(errs, fmt.Errorf("input.channels must be 1 or 2, got %d", in.Channels))
		}
		if in.Device < MinDeviceID {
			errs = append(errs, fmt.Errorf("input.device must be >= %d, got %d", MinDeviceID, in.Device))
		}
		if in.FramesPerBuffer <= 0 || in.FramesPerBuffer > MaxBufferFrames {
			errs = append(errs, fmt.Errorf("input.frames_per_buffer must be between 1 and %d, got %d",
				MaxBufferFrames, in.FramesPerBuffer))
		}
		if in.Duration <= 0 || in.Duration > MaxDuration {
			errs = append(errs, fmt.Errorf("input.duration must be between 0 and %s, got %s", MaxDuration, in.Duration))
		}
	default:
		errs = append(errs, fmt.Errorf("input.format '%s' is not one of %s, %s, %s",
			in.Format, FormatIQ, FormatWAV, FormatCapture))
	}

	sp := c.Spectrogram
	if sp.FFTSize <= 0 || sp.FFTSize > MaxFFTSize {
		errs = append(errs, fmt.Errorf("spectrogram.fft_size must be between 1 and %d, got %d", MaxFFTSize, sp.FFTSize))
	}
	if !(sp.RowsPerSecond > 0) || math.IsInf(sp.RowsPerSecond, 0) {
		errs = append(errs, fmt.Errorf("spectrogram.rows_per_second must be positive, got %g", sp.RowsPerSecond))
	}
	if _, err := fft.ParseWindow(sp.Window); err != nil {
		errs = append(errs, fmt.Errorf("spectrogram.window: %w", err))
	}

	if _, err := c.Palette.Build(); err != nil {
		errs = append(errs, fmt.Errorf("palette: %w", err))
	}

	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path must be set"))
	}

	tp := c.Throughput
	if tp.Enabled {
		if !slices.Contains(transports, strings.ToLower(tp.Transport)) {
			errs = append(errs, fmt.Errorf("throughput.transport '%s' is not one of %s",
				tp.Transport, strings.Join(transports, ", ")))
		}
		if tp.Interval <= 0 {
			errs = append(errs, fmt.Errorf("throughput.interval must be positive, got %s", tp.Interval))
		}
		if t := strings.ToLower(tp.Transport); (t == "websocket" || t == "udp") && !strings.Contains(tp.Address, ":") {
			errs = append(errs, fmt.Errorf("throughput.address '%s' appears invalid (missing port?)", tp.Address))
		}
	}

	return errors.Join(errs...)
}

// Build converts the palette section into a palette.Palette.
func (p PaletteConfig) Build() (*palette.Palette, error) {
	if len(p.Anchors) > 0 {
		anchors := make([]palette.Anchor, len(p.Anchors))
		for i, a := range p.Anchors {
			c, err := palette.ParseRGB(a.Color)
			if err != nil {
				return nil, fmt.Errorf("anchor %d: %w", i, err)
			}
			anchors[i] = palette.Anchor{Threshold: a.DB, Color: c}
		}
		return palette.New(anchors...)
	}

	colors := make([]palette.RGB, len(p.Colors))
	for i, s := range p.Colors {
		c, err := palette.ParseRGB(s)
		if err != nil {
			return nil, fmt.Errorf("color %d: %w", i, err)
		}
		colors[i] = c
	}
	return palette.Linear(p.MaxDB, p.MinDB, colors...)
}

// loadEnvFile exports the variables in path that are not already set. A
// missing file is not an error.
func loadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	applog.Debugf("Config: loaded environment from %s", path)
	return nil
}

// applyEnvOverrides applies ENV_* variables on top of the file values.
// Unparseable values are ignored with a warning.
func (cfg *Config) applyEnvOverrides() {
	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Debugf("Config: Overriding debug from env: %v", bVal)
		} else {
			applog.Warnf("Config: Ignoring ENV_DEBUG=%q: %v", val, err)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Debugf("Config: Overriding log_level from env: %s", val)
	}

	// ENV_{FFT_SIZE,ROWS_PER_SECOND}
	// These are specific to the analysis.

	if val, ok := os.LookupEnv("ENV_FFT_SIZE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Spectrogram.FFTSize = n
			applog.Debugf("Config: Overriding spectrogram.fft_size from env: %d", n)
		} else {
			applog.Warnf("Config: Ignoring ENV_FFT_SIZE=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("ENV_ROWS_PER_SECOND"); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Spectrogram.RowsPerSecond = f
			applog.Debugf("Config: Overriding spectrogram.rows_per_second from env: %g", f)
		} else {
			applog.Warnf("Config: Ignoring ENV_ROWS_PER_SECOND=%q: %v", val, err)
		}
	}

	// ENV_THROUGHPUT_{...}
	// These are specific to the throughput monitor.

	if val, ok := os.LookupEnv("ENV_THROUGHPUT_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Throughput.Enabled = bVal
			applog.Debugf("Config: Overriding throughput.enabled from env: %v", bVal)
		} else {
			applog.Warnf("Config: Ignoring ENV_THROUGHPUT_ENABLED=%q: %v", val, err)
		}
	}
	if val, ok := os.LookupEnv("ENV_THROUGHPUT_ADDRESS"); ok {
		cfg.Throughput.Address = val
		applog.Debugf("Config: Overriding throughput.address from env: %s", val)
	}
	if val, ok := os.LookupEnv("ENV_THROUGHPUT_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Throughput.Interval = dur
			applog.Debugf("Config: Overriding throughput.interval from env: %s", dur)
		} else {
			applog.Warnf("Config: Ignoring ENV_THROUGHPUT_INTERVAL=%q: %v", val, err)
		}
	}
}
