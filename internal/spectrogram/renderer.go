// SPDX-License-Identifier: MIT
/*
Package spectrogram turns a sample stream into a time/frequency raster.

For every output row the renderer reads one frame of FFTSize sample pairs,
transforms it, converts each bin to dB, swaps the spectrum halves so the
most negative frequency lands in column 0 and colours the row through the
palette. Rows are written bottom-up so time increases towards the top of
the image. Samples between frames are read and discarded; frames never
overlap.

A stream that ends early is not an error: the rows analysed so far are
kept and the rest stay at the palette floor colour. Result.Rows tells the
caller how many rows were actually written.
*/
package spectrogram

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"math"

	"spectrogram/internal/fft"
	applog "spectrogram/internal/log"
	"spectrogram/internal/palette"
	"spectrogram/internal/source"
)

// powerEpsilon keeps log10 finite for empty bins.
const powerEpsilon = 1e-20

// Options configure a Renderer.
type Options struct {
	FFTSize       int              // Bins per row, also the image width.
	RowsPerSecond float64          // Requested temporal resolution.
	Palette       *palette.Palette // nil selects palette.Default().
	Window        fft.WindowFunc   // fft.NoWindow unless explicitly enabled.
}

// Geometry is the row layout derived from a stream and the options.
type Geometry struct {
	Width      int   // fftSize
	Height     int   // Number of rows in the image.
	RowPeriod  int64 // Sample pairs spanned by one row.
	SkipPerRow int64 // Sample pairs discarded after each frame.
}

// ComputeGeometry sizes the image for a stream. It fails with an
// *InsufficientDataError if the stream cannot fill a single row.
func ComputeGeometry(format source.Format, fftSize int, rowsPerSecond float64) (Geometry, error) {
	period := int64(math.Floor(format.SampleRate / rowsPerSecond))
	if period < int64(fftSize) {
		period = int64(fftSize)
	}
	height := format.FrameCount / period
	if height <= 0 {
		return Geometry{}, &InsufficientDataError{
			FrameCount:    format.FrameCount,
			RowsPerSecond: rowsPerSecond,
			SampleRate:    format.SampleRate,
			Height:        height,
		}
	}
	return Geometry{
		Width:      fftSize,
		Height:     int(height),
		RowPeriod:  period,
		SkipPerRow: period - int64(fftSize),
	}, nil
}

// Result is a rendered spectrogram.
type Result struct {
	Image    *image.RGBA
	Rows     int // Rows actually analysed; Rows < Geometry.Height means the stream ended early.
	Geometry Geometry
}

// Complete reports whether every row was analysed.
func (r *Result) Complete() bool {
	return r.Rows == r.Geometry.Height
}

// Renderer holds the per-row buffers. It is not safe for concurrent use;
// run independent renders with independent Renderers.
type Renderer struct {
	fftSize       int
	rowsPerSecond float64
	palette       *palette.Palette
	engine        *fft.Engine

	frame    []float64 // Interleaved re/im analysis frame.
	spectrum []float64 // Power per bin in dB.
}

// New validates the options and allocates the frame buffers.
func New(opts Options) (*Renderer, error) {
	if opts.FFTSize <= 0 {
		return nil, &ConfigError{Field: "fft size", Value: opts.FFTSize}
	}
	if !(opts.RowsPerSecond > 0) || math.IsInf(opts.RowsPerSecond, 0) {
		return nil, &ConfigError{Field: "rows per second", Value: opts.RowsPerSecond}
	}

	engine, err := fft.New(opts.FFTSize)
	if err != nil {
		return nil, err
	}
	engine.SetWindow(opts.Window)

	pal := opts.Palette
	if pal == nil {
		pal = palette.Default()
	}

	return &Renderer{
		fftSize:       opts.FFTSize,
		rowsPerSecond: opts.RowsPerSecond,
		palette:       pal,
		engine:        engine,
		frame:         make([]float64, 2*opts.FFTSize),
		spectrum:      make([]float64, opts.FFTSize),
	}, nil
}

// Render consumes src sequentially and returns the spectrogram. The caller
// keeps ownership of src and is responsible for closing it.
func (r *Renderer) Render(src source.Source) (*Result, error) {
	format := src.Format()
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source format: %w", err)
	}
	geom, err := ComputeGeometry(format, r.fftSize, r.rowsPerSecond)
	if err != nil {
		return nil, err
	}
	stereo := format.Channels == 2

	applog.Debugf("Spectrogram: rendering %dx%d (row period %d, skip %d, channels %d)",
		geom.Width, geom.Height, geom.RowPeriod, geom.SkipPerRow, format.Channels)

	img := image.NewRGBA(image.Rect(0, 0, geom.Width, geom.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(r.palette.Floor()), image.Point{}, draw.Src)

	rows := 0
	for row := 0; row < geom.Height; row++ {
		if err := r.readFrame(src, stereo); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to read frame for row %d: %w", row, err)
		}

		if err := r.engine.Transform(r.frame); err != nil {
			return nil, err
		}
		r.computePower()
		r.paintRow(img, geom.Height-row-1)
		rows++

		if err := skip(src, geom.SkipPerRow, stereo); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("failed to skip samples after row %d: %w", row, err)
		}
	}

	if rows < geom.Height {
		applog.Debugf("Spectrogram: stream ended after %d of %d rows", rows, geom.Height)
	}

	return &Result{Image: img, Rows: rows, Geometry: geom}, nil
}

// readFrame fills the frame with fftSize sample pairs. Mono streams get a
// zero imaginary part.
func (r *Renderer) readFrame(src source.Source, stereo bool) error {
	for i := 0; i < len(r.frame); i += 2 {
		re, err := src.ReadFloat()
		if err != nil {
			return err
		}
		im := 0.0
		if stereo {
			if im, err = src.ReadFloat(); err != nil {
				return err
			}
		}
		r.frame[i] = re
		r.frame[i+1] = im
	}
	return nil
}

// computePower converts the transformed frame to dB per bin.
func (r *Renderer) computePower() {
	norm := 1 / float64(r.fftSize)
	for j := range r.spectrum {
		re := r.frame[2*j] * norm
		im := r.frame[2*j+1] * norm
		r.spectrum[j] = 10 * math.Log10(re*re+im*im+powerEpsilon)
	}
}

// paintRow writes the spectrum into pixel row y with the halves swapped.
func (r *Renderer) paintRow(img *image.RGBA, y int) {
	for x := 0; x < r.fftSize; x++ {
		img.SetRGBA(x, y, r.palette.Color(r.spectrum[Bin(x, r.fftSize)]))
	}
}

// Bin returns the FFT bin shown in an image column. The upper half of the
// spectrum (negative frequencies) fills the left columns, so for even sizes
// bin i lands in column fftSize/2+i when i < fftSize/2 and in column
// i-fftSize/2 otherwise. Every column is painted, odd sizes included.
func Bin(column, fftSize int) int {
	half := fftSize / 2
	if column < half {
		return half + column
	}
	return column - half
}

func skip(src source.Source, pairs int64, stereo bool) error {
	for i := int64(0); i < pairs; i++ {
		if _, err := src.ReadFloat(); err != nil {
			return err
		}
		if stereo {
			if _, err := src.ReadFloat(); err != nil {
				return err
			}
		}
	}
	return nil
}
