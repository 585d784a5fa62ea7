// SPDX-License-Identifier: MIT
package source

import "io"

// Memory serves samples from a slice. The format is taken as given, so a
// FrameCount larger than the slice models a stream that ends early.
type Memory struct {
	samples []float64
	format  Format
	pos     int
	closed  bool
}

var _ Source = (*Memory)(nil)

// NewMemory returns a source over interleaved samples.
func NewMemory(samples []float64, format Format) *Memory {
	return &Memory{samples: samples, format: format}
}

func (m *Memory) ReadFloat() (float64, error) {
	if m.closed || m.pos >= len(m.samples) {
		return 0, io.EOF
	}
	v := m.samples[m.pos]
	m.pos++
	return v, nil
}

func (m *Memory) Format() Format {
	return m.format
}

// Consumed returns how many samples have been read.
func (m *Memory) Consumed() int {
	return m.pos
}

// Closed reports whether Close has been called.
func (m *Memory) Closed() bool {
	return m.closed
}

func (m *Memory) Close() error {
	m.closed = true
	return nil
}
