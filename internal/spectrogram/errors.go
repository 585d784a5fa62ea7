// SPDX-License-Identifier: MIT
package spectrogram

import "fmt"

// ConfigError reports an invalid renderer parameter. It is returned by New,
// never by Render.
type ConfigError struct {
	Field string
	Value any
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid spectrogram configuration: %s should be positive, got %v", e.Field, e.Value)
}

// InsufficientDataError is returned when the stream is too short for even
// one row at the requested row rate.
type InsufficientDataError struct {
	FrameCount    int64
	RowsPerSecond float64
	SampleRate    float64
	Height        int64
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("unable to create image with height %d. total number of samples: %d rows per second: %g sample rate: %g",
		e.Height, e.FrameCount, e.RowsPerSecond, e.SampleRate)
}
