// SPDX-License-Identifier: MIT
/*
Package throughput wraps a source.Source and measures how many samples per
interval flow through it. It is a diagnostic side observer: reads are
passed through untouched and the counter is a single atomic add.

A ticker goroutine started by Wrap snapshots and resets the counter every
interval, keeps a history of the snapshots and optionally forwards each one
to a transport. Close closes the wrapped source and then stops the ticker,
so no background work outlives the source.
*/
package throughput

import (
	"encoding/binary"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	applog "spectrogram/internal/log"
	"spectrogram/internal/source"
)

// DefaultInterval is used when Wrap is given a non-positive interval.
const DefaultInterval = time.Second

// Sender receives every snapshot. transport.Transport satisfies it.
type Sender interface {
	Send(data any) error
}

// Sample is one interval's snapshot.
type Sample struct {
	Seq   uint32    `json:"seq"`   // Monotonically increasing snapshot number.
	At    time.Time `json:"at"`    // When the snapshot was taken.
	Reads uint64    `json:"reads"` // Samples read during the interval.
	Total uint64    `json:"total"` // Samples read since Wrap.
}

// sampleWireSize is seq(4) + unix nanos(8) + reads(8) + total(8).
const sampleWireSize = 28

// MarshalBinary packs the sample big endian for UDP transport.
func (s Sample) MarshalBinary() ([]byte, error) {
	buf := make([]byte, sampleWireSize)
	binary.BigEndian.PutUint32(buf[0:4], s.Seq)
	binary.BigEndian.PutUint64(buf[4:12], uint64(s.At.UnixNano()))
	binary.BigEndian.PutUint64(buf[12:20], s.Reads)
	binary.BigEndian.PutUint64(buf[20:28], s.Total)
	return buf, nil
}

// UnmarshalBinary is the inverse of MarshalBinary.
func (s *Sample) UnmarshalBinary(data []byte) error {
	if len(data) != sampleWireSize {
		return fmt.Errorf("throughput sample must be %d bytes, got %d", sampleWireSize, len(data))
	}
	s.Seq = binary.BigEndian.Uint32(data[0:4])
	s.At = time.Unix(0, int64(binary.BigEndian.Uint64(data[4:12])))
	s.Reads = binary.BigEndian.Uint64(data[12:20])
	s.Total = binary.BigEndian.Uint64(data[20:28])
	return nil
}

// Monitor is a source.Source decorator.
type Monitor struct {
	inner    source.Source
	sender   Sender
	interval time.Duration

	reads atomic.Uint64 // Reads since the last snapshot.

	mu      sync.Mutex // Protects samples, total and seq.
	samples []Sample
	total   uint64
	seq     uint32

	ticker    *time.Ticker
	doneChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

var _ source.Source = (*Monitor)(nil)

// Wrap decorates inner and starts the snapshot ticker. sender may be nil.
func Wrap(inner source.Source, interval time.Duration, sender Sender) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	m := &Monitor{
		inner:    inner,
		sender:   sender,
		interval: interval,
		ticker:   time.NewTicker(interval),
		doneChan: make(chan struct{}),
	}

	ticker, done := m.ticker, m.doneChan
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		applog.Debugf("Throughput: monitor started (Interval: %s)", interval)
		for {
			select {
			case now := <-ticker.C:
				m.snapshot(now)
			case <-done:
				return
			}
		}
	}()
	return m
}

// ReadFloat delegates to the wrapped source and counts successful reads.
func (m *Monitor) ReadFloat() (float64, error) {
	v, err := m.inner.ReadFloat()
	if err == nil {
		m.reads.Add(1)
	}
	return v, err
}

// Format returns the wrapped source's format.
func (m *Monitor) Format() source.Format {
	return m.inner.Format()
}

// Close closes the wrapped source, stops the ticker and waits for the
// snapshot goroutine. Repeated calls return the first result.
func (m *Monitor) Close() error {
	m.closeOnce.Do(func() {
		m.closeErr = m.inner.Close()
		close(m.doneChan)
		m.ticker.Stop()
		m.wg.Wait()
		applog.Debugf("Throughput: monitor stopped after %d snapshots", len(m.Samples()))
	})
	return m.closeErr
}

func (m *Monitor) snapshot(now time.Time) {
	m.mu.Lock()
	reads := m.reads.Swap(0)
	m.seq++
	m.total += reads
	s := Sample{Seq: m.seq, At: now, Reads: reads, Total: m.total}
	m.samples = append(m.samples, s)
	m.mu.Unlock()

	if m.sender != nil {
		if err := m.sender.Send(s); err != nil {
			applog.Warnf("Throughput: failed to send sample %d: %v", s.Seq, err)
		}
	}
}

// Samples returns a copy of the snapshots taken so far.
func (m *Monitor) Samples() []Sample {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Sample, len(m.samples))
	copy(out, m.samples)
	return out
}

// Average returns the mean reads per interval, or 0 before the first
// snapshot.
func (m *Monitor) Average() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.samples) == 0 {
		return 0
	}
	return m.total / uint64(len(m.samples))
}

// Total returns every successful read, including those not yet snapshotted.
func (m *Monitor) Total() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total + m.reads.Load()
}
