// SPDX-License-Identifier: MIT
/*
Package source supplies normalized float samples to the spectrogram
renderer. Every concrete type implements Source:

  - IQReader decodes unsigned 8-bit IQ bytes (RTL-SDR style dumps)
  - WavReader decodes PCM from a WAV container
  - Memory serves samples already held in a slice

A Source is a single-reader pull stream. ReadFloat blocks on the underlying
I/O and returns io.EOF once the stream is exhausted. Sources are not safe
for concurrent use.
*/
package source

import (
	"fmt"
	"io"
)

// Format describes the whole stream and never changes after construction.
type Format struct {
	SampleRate float64 // Samples per second per channel.
	Channels   int     // 1 (mono) or 2 (interleaved I/Q or stereo).
	FrameCount int64   // Total multi-channel frames in the stream.
}

// Validate reports whether the format can be rendered.
func (f Format) Validate() error {
	if f.SampleRate <= 0 {
		return fmt.Errorf("sample rate must be positive, got %f", f.SampleRate)
	}
	if f.Channels != 1 && f.Channels != 2 {
		return fmt.Errorf("channel count must be 1 or 2, got %d", f.Channels)
	}
	if f.FrameCount < 0 {
		return fmt.Errorf("frame count must not be negative, got %d", f.FrameCount)
	}
	return nil
}

// Source is a sequential supply of samples plus stream metadata.
type Source interface {
	// ReadFloat returns the next sample. Multi-channel streams are
	// interleaved, so a stereo frame takes two calls. It returns io.EOF
	// when no further samples are available.
	ReadFloat() (float64, error)

	// Format returns the stream metadata.
	Format() Format

	io.Closer
}
