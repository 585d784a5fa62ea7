// SPDX-License-Identifier: MIT
/*
Package fft wraps gonum's complex FFT so it can run in place on the
interleaved [re0, im0, re1, im1, ...] frames built by the spectrogram
renderer. The transform is unnormalised; scaling is left to the caller.
*/
package fft

import (
	"fmt"

	applog "spectrogram/internal/log"
	"spectrogram/pkg/bitint"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Engine holds a reusable transform plan and its scratch buffer.
type Engine struct {
	size   int
	plan   *fourier.CmplxFFT
	work   []complex128 // Scratch for the interleaved <-> complex copy.
	window []float64    // nil when no window is applied.
}

// New creates an engine for frames of size complex points.
func New(size int) (*Engine, error) {
	if size <= 0 {
		return nil, fmt.Errorf("fft size must be positive, got %d", size)
	}
	if !bitint.IsPowerOfTwo(size) {
		applog.Debugf("FFT: size %d is not a power of two, using the mixed radix path (nearest: %d or %d)",
			size, bitint.PrevPowerOfTwo(size), bitint.NextPowerOfTwo(size))
	}
	return &Engine{
		size: size,
		plan: fourier.NewCmplxFFT(size),
		work: make([]complex128, size),
	}, nil
}

// Size returns the number of complex points per frame.
func (e *Engine) Size() int {
	return e.size
}

// SetWindow selects the window applied to each frame before the transform.
// NoWindow, the default, leaves frames untouched.
func (e *Engine) SetWindow(w WindowFunc) {
	e.window = w.coefficients(e.size)
}

// Windowed reports whether a window function is active.
func (e *Engine) Windowed() bool {
	return e.window != nil
}

// Transform runs the forward transform in place. frame must hold exactly
// 2*Size() values.
func (e *Engine) Transform(frame []float64) error {
	if len(frame) != 2*e.size {
		return fmt.Errorf("frame length %d does not match required length %d", len(frame), 2*e.size)
	}

	for i := range e.work {
		re, im := frame[2*i], frame[2*i+1]
		if e.window != nil {
			re *= e.window[i]
			im *= e.window[i]
		}
		e.work[i] = complex(re, im)
	}

	e.plan.Coefficients(e.work, e.work)

	for i, c := range e.work {
		frame[2*i] = real(c)
		frame[2*i+1] = imag(c)
	}
	return nil
}
