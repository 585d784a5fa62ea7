// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"
	"time"

	"spectrogram/internal/config"
	"spectrogram/pkg/build"

	"github.com/spf13/cobra"
)

// Commands selectable on the command line.
const (
	CommandRender = ""
	CommandList   = "list"
)

// Options is the parsed command line: the effective configuration plus what
// to do with it.
type Options struct {
	Config     *config.Config
	Command    string // CommandRender or CommandList.
	Input      string // Input file; unused for capture.
	ConfigPath string
	Verbose    bool
}

// flagValues mirrors the flags before they are merged into the config.
type flagValues struct {
	configPath string
	format     string
	fftSize    int
	rps        float64
	sampleRate float64
	device     int
	channels   int
	duration   time.Duration
	lowLatency bool
	record     string
	window     string
	output     string
	throughput bool
	transport  string
	address    string
	interval   time.Duration
	verbose    bool
}

// ParseArgs parses args (without the program name). The config file is
// loaded first; flags given explicitly override it.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	options := &Options{}
	var fv flagValues

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name + " [flags] <input>",
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandRender
			if len(args) == 1 {
				options.Input = args[0]
			}
			return load(cmd, &fv, options)
		},
	}
	rootCmd.SetVersionTemplate(buildInfo.String() + "\n")

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			options.Command = CommandList
			return load(cmd, &fv, options)
		},
	}
	rootCmd.AddCommand(listCmd)

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&fv.configPath, "config", "C", "", "Path to a YAML config file (default: ./config.yaml when present)")
	pf.BoolVarP(&fv.verbose, "verbose", "v", false, "Show verbose output")

	f := rootCmd.Flags()

	// Input
	f.StringVarP(&fv.format, "format", "f", config.DefaultFormat,
		fmt.Sprintf("Input format: %s, %s or %s", config.FormatIQ, config.FormatWAV, config.FormatCapture))
	f.Float64VarP(&fv.sampleRate, "sample-rate", "s", config.DefaultIQSampleRate,
		"Sample rate in Hz for iq input; for capture 0 selects the device default")
	f.IntVarP(&fv.device, "device", "d", config.DefaultDeviceID,
		"Capture device ID. Use 'list' command to see available devices.")
	f.IntVarP(&fv.channels, "channels", "c", config.DefaultChannels,
		"Capture channels (1=real, 2=I/Q)")
	f.DurationVarP(&fv.duration, "duration", "t", config.DefaultDuration, "Capture duration")
	f.BoolVarP(&fv.lowLatency, "low-latency", "l", config.DefaultLowLatency, "Use low latency capture")
	f.StringVarP(&fv.record, "record", "r", "", "Also record captured audio to this WAV file")

	// Analysis
	f.IntVarP(&fv.fftSize, "fft-size", "n", config.DefaultFFTSize, "FFT size, also the image width")
	f.Float64VarP(&fv.rps, "rows-per-second", "R", config.DefaultRowsPerSecond, "Image rows per second of input")
	f.StringVarP(&fv.window, "window", "w", config.DefaultWindow,
		"Window function: none, hann, hamming, blackman, blackman-nuttall, bartlett-hann, lanczos, nuttall")

	// Output
	f.StringVarP(&fv.output, "output", "o", config.DefaultOutputFile, "PNG file to write")

	// Throughput reporting
	f.BoolVar(&fv.throughput, "throughput", config.DefaultThroughputEnabled, "Measure read throughput")
	f.StringVar(&fv.transport, "throughput-transport", config.DefaultThroughputTransport,
		"Where throughput reports go: log, websocket or udp")
	f.StringVar(&fv.address, "throughput-address", config.DefaultThroughputAddress,
		"Listen address for websocket, target address for udp")
	f.DurationVar(&fv.interval, "throughput-interval", config.DefaultThroughputInterval, "Throughput report interval")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	return options, nil
}

// load reads the config file and applies the flags the user actually set.
func load(cmd *cobra.Command, fv *flagValues, options *Options) error {
	cfg, err := config.LoadConfig(fv.configPath)
	if err != nil {
		return err
	}

	changed := cmd.Flags().Changed
	if changed("format") {
		cfg.Input.Format = fv.format
	}
	if changed("sample-rate") {
		cfg.Input.SampleRate = fv.sampleRate
	}
	if changed("device") {
		cfg.Input.Device = fv.device
	}
	if changed("channels") {
		cfg.Input.Channels = fv.channels
	}
	if changed("duration") {
		cfg.Input.Duration = fv.duration
	}
	if changed("low-latency") {
		cfg.Input.LowLatency = fv.lowLatency
	}
	if changed("record") {
		cfg.Input.Record = fv.record
	}
	if changed("fft-size") {
		cfg.Spectrogram.FFTSize = fv.fftSize
	}
	if changed("rows-per-second") {
		cfg.Spectrogram.RowsPerSecond = fv.rps
	}
	if changed("window") {
		cfg.Spectrogram.Window = fv.window
	}
	if changed("output") {
		cfg.Output.Path = fv.output
	}
	if changed("throughput") {
		cfg.Throughput.Enabled = fv.throughput
	}
	if changed("throughput-transport") {
		cfg.Throughput.Transport = fv.transport
	}
	if changed("throughput-address") {
		cfg.Throughput.Address = fv.address
	}
	if changed("throughput-interval") {
		cfg.Throughput.Interval = fv.interval
	}
	if fv.verbose {
		cfg.Debug = true
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}
	if options.Command == CommandRender && cfg.Input.Format != config.FormatCapture && options.Input == "" {
		return fmt.Errorf("an input file is required for %s input", cfg.Input.Format)
	}

	options.Config = cfg
	options.ConfigPath = fv.configPath
	options.Verbose = cfg.Debug
	return nil
}
