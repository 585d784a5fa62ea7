// SPDX-License-Identifier: MIT
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// IQBlockSize is the number of raw bytes fetched per refill.
const IQBlockSize = 2048

// iqCenter is the DC offset of RTL-SDR unsigned samples.
const iqCenter = 127.4

var errNilReader = errors.New("source reader cannot be nil")

// IQReader decodes unsigned 8-bit samples into floats centred on zero.
type IQReader struct {
	r      io.Reader
	closer io.Closer
	format Format

	lookup [256]float64
	block  []byte
	cursor int // Next byte to decode.
	filled int // Valid bytes in block.
	closed bool
}

var _ Source = (*IQReader)(nil)

// NewIQReader wraps r, which yields interleaved unsigned 8-bit samples.
// The format has to be supplied by the caller as raw IQ carries no header.
// If r is an io.Closer it is closed by Close.
func NewIQReader(r io.Reader, format Format) (*IQReader, error) {
	if r == nil {
		return nil, errNilReader
	}
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("invalid iq format: %w", err)
	}

	q := &IQReader{
		r:      r,
		format: format,
		block:  make([]byte, IQBlockSize),
	}
	if c, ok := r.(io.Closer); ok {
		q.closer = c
	}
	for i := range q.lookup {
		q.lookup[i] = (float64(i) - iqCenter) / 128.0
	}
	return q, nil
}

// OpenIQFile opens a two-channel IQ capture file. The frame count is
// derived from the file size, one byte per channel.
func OpenIQFile(path string, sampleRate float64) (*IQReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open iq file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to stat iq file: %w", err)
	}

	q, err := NewIQReader(f, Format{
		SampleRate: sampleRate,
		Channels:   2,
		FrameCount: info.Size() / 2,
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	return q, nil
}

// Lookup returns the decoded value for a raw byte.
func (q *IQReader) Lookup(b byte) float64 {
	return q.lookup[b]
}

// ReadFloat decodes the next byte, refilling the block when it is used up.
func (q *IQReader) ReadFloat() (float64, error) {
	if q.cursor >= q.filled {
		if err := q.refill(); err != nil {
			return 0, err
		}
	}
	v := q.lookup[q.block[q.cursor]]
	q.cursor++
	return v, nil
}

// refill reads at least one byte. Zero bytes at the end of the stream
// surface as io.EOF; other read errors are returned as they are.
func (q *IQReader) refill() error {
	if q.closed {
		return io.EOF
	}
	n, err := io.ReadAtLeast(q.r, q.block, 1)
	q.cursor = 0
	q.filled = n
	if n == 0 {
		if err == nil || errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("failed to read iq block: %w", err)
	}
	return nil
}

// Format returns the caller supplied stream metadata.
func (q *IQReader) Format() Format {
	return q.format
}

// Close releases the underlying reader if it can be closed. Subsequent
// reads return io.EOF.
func (q *IQReader) Close() error {
	if q.closed {
		return nil
	}
	q.closed = true
	q.cursor, q.filled = 0, 0
	if q.closer != nil {
		return q.closer.Close()
	}
	return nil
}
