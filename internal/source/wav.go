// SPDX-License-Identifier: MIT
package source

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavBlockFrames is the number of frames decoded per PCM refill.
const wavBlockFrames = 1024

var ErrInvalidWav = errors.New("invalid WAV file")

// WavReader decodes PCM samples from a WAV container and normalises them
// to [-1, 1).
type WavReader struct {
	decoder *wav.Decoder
	closer  io.Closer
	format  Format

	scale  float64
	offset float64
	buf    *audio.IntBuffer
	cursor int
	filled int
	closed bool
}

var _ Source = (*WavReader)(nil)

// NewWavReader parses the container header and positions the decoder at the
// start of the PCM chunk. If r is an io.Closer it is closed by Close.
func NewWavReader(r io.ReadSeeker) (*WavReader, error) {
	if r == nil {
		return nil, errNilReader
	}
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, ErrInvalidWav
	}
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("failed to locate PCM chunk: %w", err)
	}

	bitDepth := int(decoder.SampleBitDepth())
	if bitDepth == 0 {
		return nil, fmt.Errorf("%w: unknown bit depth", ErrInvalidWav)
	}
	channels := int(decoder.NumChans)
	if channels < 1 || channels > 2 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrInvalidWav, channels)
	}

	bytesPerSample := (bitDepth-1)/8 + 1
	format := Format{
		SampleRate: float64(decoder.SampleRate),
		Channels:   channels,
		FrameCount: decoder.PCMLen() / int64(bytesPerSample*channels),
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWav, err)
	}

	w := &WavReader{
		decoder: decoder,
		format:  format,
		scale:   1 / math.Pow(2, float64(bitDepth-1)),
		buf: &audio.IntBuffer{
			Format: decoder.Format(),
			Data:   make([]int, wavBlockFrames*channels),
		},
	}
	// 8-bit PCM is unsigned.
	if bitDepth == 8 {
		w.offset = 128
	}
	if c, ok := r.(io.Closer); ok {
		w.closer = c
	}
	return w, nil
}

// OpenWavFile opens and parses a WAV file.
func OpenWavFile(path string) (*WavReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open wav file: %w", err)
	}
	w, err := NewWavReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// ReadFloat returns the next interleaved sample.
func (w *WavReader) ReadFloat() (float64, error) {
	if w.cursor >= w.filled {
		if err := w.refill(); err != nil {
			return 0, err
		}
	}
	v := (float64(w.buf.Data[w.cursor]) - w.offset) * w.scale
	w.cursor++
	return v, nil
}

func (w *WavReader) refill() error {
	if w.closed {
		return io.EOF
	}
	w.buf.Data = w.buf.Data[:cap(w.buf.Data)]
	n, err := w.decoder.PCMBuffer(w.buf)
	w.cursor = 0
	w.filled = n
	if err != nil && !errors.Is(err, io.EOF) {
		w.filled = 0
		return fmt.Errorf("failed to decode PCM: %w", err)
	}
	if n == 0 {
		return io.EOF
	}
	return nil
}

// Format returns the metadata read from the container header.
func (w *WavReader) Format() Format {
	return w.format
}

// Close releases the underlying file. Subsequent reads return io.EOF.
func (w *WavReader) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	w.cursor, w.filled = 0, 0
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
