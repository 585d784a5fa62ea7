// SPDX-License-Identifier: MIT
/*
Package audio captures live input through PortAudio and exposes it as a
source.Source, so a microphone or line input can be rendered exactly like
a file. Capture uses PortAudio's blocking read API: the renderer pulls
samples at its own pace and the stream buffers in between.

A capture is bounded by a duration, which fixes the frame count the
renderer needs up front. The captured audio can optionally be teed into a
WAV file with a Recorder.
*/
package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	applog "spectrogram/internal/log"
	"spectrogram/internal/source"

	"github.com/gordonklaus/portaudio"
)

// CaptureOptions configure a capture.
type CaptureOptions struct {
	DeviceID        int // config.MinDeviceID selects the default input.
	SampleRate      float64
	Channels        int // 1 (real) or 2 (I/Q pair per frame).
	FramesPerBuffer int
	Duration        time.Duration
	LowLatency      bool
	Record          string // Optional WAV file receiving the captured audio.
}

// captureStream is the subset of *portaudio.Stream used by CaptureSource.
type captureStream interface {
	Start() error
	Read() error
	Stop() error
	Close() error
}

// CaptureSource reads interleaved float32 samples from an input stream.
// PortAudio must stay initialized until Close returns.
type CaptureSource struct {
	stream    captureStream
	buffer    []float32
	cursor    int
	remaining int64 // Samples still to deliver.
	format    source.Format
	recorder  *Recorder
	closeOnce sync.Once
	closeErr  error
	closed    bool
}

var _ source.Source = (*CaptureSource)(nil)

// OpenCapture opens and starts an input stream.
func OpenCapture(opts CaptureOptions) (*CaptureSource, error) {
	if opts.Channels != 1 && opts.Channels != 2 {
		return nil, fmt.Errorf("capture channels must be 1 or 2, got %d", opts.Channels)
	}
	if opts.Duration <= 0 {
		return nil, fmt.Errorf("capture duration must be positive, got %s", opts.Duration)
	}
	if opts.FramesPerBuffer <= 0 {
		return nil, fmt.Errorf("frames per buffer must be positive, got %d", opts.FramesPerBuffer)
	}

	device, err := InputDevice(opts.DeviceID)
	if err != nil {
		return nil, err
	}
	sampleRate := opts.SampleRate
	if sampleRate <= 0 {
		sampleRate = device.DefaultSampleRate
	}
	latency := device.DefaultHighInputLatency
	if opts.LowLatency {
		latency = device.DefaultLowInputLatency
	}

	buffer := make([]float32, opts.FramesPerBuffer*opts.Channels)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: opts.Channels,
			Latency:  latency,
		},
		FramesPerBuffer: opts.FramesPerBuffer,
		SampleRate:      sampleRate,
	}
	stream, err := portaudio.OpenStream(params, buffer)
	if err != nil {
		return nil, fmt.Errorf("failed to open input stream on %s: %w", device.Name, err)
	}

	var recorder *Recorder
	if opts.Record != "" {
		recorder, err = NewRecorder(opts.Record, int(sampleRate), opts.Channels)
		if err != nil {
			stream.Close()
			return nil, err
		}
	}

	frames := int64(math.Round(opts.Duration.Seconds() * sampleRate))
	format := source.Format{SampleRate: sampleRate, Channels: opts.Channels, FrameCount: frames}
	c := newCaptureSource(stream, buffer, format, recorder)

	if err := stream.Start(); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}
	applog.Infof("Capture: %s at %.0f Hz, %d channel(s), %s (Latency: %s)",
		device.Name, sampleRate, opts.Channels, opts.Duration, latency)
	return c, nil
}

func newCaptureSource(stream captureStream, buffer []float32, format source.Format, recorder *Recorder) *CaptureSource {
	return &CaptureSource{
		stream:    stream,
		buffer:    buffer,
		cursor:    len(buffer),
		remaining: format.FrameCount * int64(format.Channels),
		format:    format,
		recorder:  recorder,
	}
}

// ReadFloat returns the next captured sample, or io.EOF once the
// configured duration has been delivered.
func (c *CaptureSource) ReadFloat() (float64, error) {
	if c.closed || c.remaining <= 0 {
		return 0, io.EOF
	}
	if c.cursor >= len(c.buffer) {
		if err := c.fill(); err != nil {
			return 0, err
		}
	}
	v := c.buffer[c.cursor]
	c.cursor++
	c.remaining--
	return float64(v), nil
}

func (c *CaptureSource) fill() error {
	if err := c.stream.Read(); err != nil {
		// An overflow loses audio but the stream stays usable.
		if !errors.Is(err, portaudio.InputOverflowed) {
			return fmt.Errorf("failed to read input stream: %w", err)
		}
		applog.Warnf("Capture: input overflowed, samples were dropped")
	}
	if c.recorder != nil {
		if err := c.recorder.Write(c.buffer); err != nil {
			applog.Errorf("Capture: recording failed, disabling: %v", err)
			c.recorder.Close()
			c.recorder = nil
		}
	}
	c.cursor = 0
	return nil
}

// Format reports the capture format; FrameCount is derived from the duration.
func (c *CaptureSource) Format() source.Format {
	return c.format
}

// Close stops the stream and finalizes any recording.
func (c *CaptureSource) Close() error {
	c.closeOnce.Do(func() {
		c.closed = true
		var errs []error
		if err := c.stream.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop input stream: %w", err))
		}
		if err := c.stream.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close input stream: %w", err))
		}
		if c.recorder != nil {
			if err := c.recorder.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		c.closeErr = errors.Join(errs...)
	})
	return c.closeErr
}
