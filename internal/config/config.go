// SPDX-License-Identifier: MIT
package config

import "time"

// Core configuration constants that define the boundaries and defaults
// for the spectrogram renderer.
const (
	// Input
	DefaultFormat          = FormatIQ
	DefaultIQSampleRate    = 2048000     // Typical RTL-SDR rate (Hz)
	DefaultDeviceID        = MinDeviceID // Default to system default device
	DefaultChannels        = 1           // Mono capture
	DefaultFramesPerBuffer = 1024        // Balanced latency/performance
	DefaultLowLatency      = false       // Standard latency mode
	DefaultDuration        = 10 * time.Second

	// Analysis
	DefaultFFTSize       = 1024
	DefaultRowsPerSecond = 10.0
	DefaultWindow        = "none" // Frames are transformed unwindowed.

	// Output
	DefaultOutputFile = "spectrogram.png"

	// Throughput reporting
	DefaultThroughputEnabled   = false
	DefaultThroughputTransport = "log"
	DefaultThroughputAddress   = "127.0.0.1:9090"
	DefaultThroughputInterval  = time.Second

	// Hardware and processing limits
	MinDeviceID     = -1             // -1 represents system default device
	MinSampleRate   = 8000           // Minimum capture sample rate (Hz)
	MaxSampleRate   = 192000         // Maximum capture sample rate (Hz)
	MaxBufferFrames = 8192           // Maximum frames per buffer
	MaxFFTSize      = 1 << 20        // Upper bound on bins per row
	MaxDuration     = 24 * time.Hour // Longest capture
)

// Input formats.
const (
	FormatIQ      = "iq"      // Raw interleaved unsigned 8-bit I/Q.
	FormatWAV     = "wav"     // RIFF/WAVE PCM, mono or stereo.
	FormatCapture = "capture" // Live PortAudio input.
)

// Transport names accepted by throughput.transport.
var transports = []string{"log", "websocket", "udp"}
