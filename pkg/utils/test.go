// SPDX-License-Identifier: MIT
// Package utils holds signal generators and fakes shared by tests.
package utils

import (
	"math"
	"sync"
)

// MockTransport implements the transport interface for testing. It keeps
// every message it is sent and is safe for concurrent use.
type MockTransport struct {
	mu       sync.Mutex
	Messages []any
	Closed   bool
}

// Send records the message instead of transmitting it.
func (m *MockTransport) Send(data any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, data)
	return nil
}

// Close marks the transport closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

// Count returns the number of messages received so far.
func (m *MockTransport) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Messages)
}

// GenerateSineWave returns size mono samples of a sine at 0.9 full scale.
func GenerateSineWave(size int, sampleRate, frequency float64) []float64 {
	buffer := make([]float64, size)
	for i := range buffer {
		t := float64(i) / sampleRate
		buffer[i] = math.Sin(2*math.Pi*frequency*t) * 0.9
	}
	return buffer
}

// GenerateComplexTone returns frames interleaved I/Q samples of a complex
// exponential. Negative frequencies rotate the other way.
func GenerateComplexTone(frames int, sampleRate, frequency, amplitude float64) []float64 {
	buffer := make([]float64, 2*frames)
	for i := 0; i < frames; i++ {
		phase := 2 * math.Pi * frequency * float64(i) / sampleRate
		buffer[2*i] = amplitude * math.Cos(phase)
		buffer[2*i+1] = amplitude * math.Sin(phase)
	}
	return buffer
}

// QuantizeIQ converts samples in [-1, 1) to unsigned 8-bit IQ bytes, the
// inverse of the IQ decoder's lookup table up to rounding.
func QuantizeIQ(samples []float64) []byte {
	out := make([]byte, len(samples))
	for i, v := range samples {
		q := math.Round(v*128 + 127.4)
		out[i] = byte(math.Max(0, math.Min(255, q)))
	}
	return out
}

// FindPeakBin returns the index of the largest value in values[lo:hi+1],
// with the bounds clamped to the slice. It returns -1 when the clamped
// range is empty.
func FindPeakBin(values []float64, lo, hi int) int {
	lo = max(lo, 0)
	hi = min(hi, len(values)-1)
	if lo > hi {
		return -1
	}
	peak := lo
	for i := lo + 1; i <= hi; i++ {
		if values[i] > values[peak] {
			peak = i
		}
	}
	return peak
}
