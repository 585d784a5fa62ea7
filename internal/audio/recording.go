// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"os"
	"sync/atomic"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// RecordingBitDepth is the PCM depth of recorded WAV files.
const RecordingBitDepth = 32

// Recorder writes float32 sample buffers to a 32-bit PCM WAV file.
type Recorder struct {
	isRecording int32 // Atomic flag for thread-safe state
	outputFile  *os.File
	wavEncoder  *wav.Encoder
	sampleBuf   *audio.IntBuffer // Reusable buffer for format conversion
	written     int64
}

// NewRecorder creates filename and prepares the encoder.
func NewRecorder(filename string, sampleRate, channels int) (*Recorder, error) {
	if channels <= 0 || sampleRate <= 0 {
		return nil, fmt.Errorf("invalid recording format: %d Hz, %d channels", sampleRate, channels)
	}
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create recording: %w", err)
	}

	r := &Recorder{
		outputFile: file,
		wavEncoder: wav.NewEncoder(file, sampleRate, RecordingBitDepth, channels, 1),
		sampleBuf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: RecordingBitDepth,
		},
	}
	atomic.StoreInt32(&r.isRecording, 1)
	return r, nil
}

// Write appends interleaved samples in [-1, 1]; values outside are clipped.
func (r *Recorder) Write(samples []float32) error {
	if atomic.LoadInt32(&r.isRecording) == 0 {
		return fmt.Errorf("recorder is closed")
	}
	if cap(r.sampleBuf.Data) < len(samples) {
		r.sampleBuf.Data = make([]int, len(samples))
	}
	r.sampleBuf.Data = r.sampleBuf.Data[:len(samples)]
	for i, s := range samples {
		r.sampleBuf.Data[i] = toPCM32(s)
	}
	if err := r.wavEncoder.Write(r.sampleBuf); err != nil {
		return fmt.Errorf("failed to write WAV data: %w", err)
	}
	r.written += int64(len(samples))
	return nil
}

// Samples returns how many samples have been written.
func (r *Recorder) Samples() int64 {
	return r.written
}

// Close finalizes the WAV header and closes the file. Repeated calls are
// no-ops.
func (r *Recorder) Close() error {
	if !atomic.CompareAndSwapInt32(&r.isRecording, 1, 0) {
		return nil
	}

	if err := r.wavEncoder.Close(); err != nil {
		r.outputFile.Close()
		return fmt.Errorf("failed to finalize WAV file: %w", err)
	}
	if err := r.outputFile.Close(); err != nil {
		return fmt.Errorf("failed to close WAV file: %w", err)
	}
	return nil
}

func toPCM32(s float32) int {
	v := math.Round(float64(s) * math.MaxInt32)
	switch {
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(v)
}
