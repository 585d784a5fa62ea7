// SPDX-License-Identifier: MIT
package throughput

import (
	"io"
	"runtime"
	"testing"
	"time"

	"spectrogram/internal/source"
	"spectrogram/pkg/utils"
)

var testFormat = source.Format{SampleRate: 8000, Channels: 1, FrameCount: 100}

func TestMonitorPassesReadsThrough(t *testing.T) {
	inner := source.NewMemory([]float64{0.1, 0.2, 0.3}, testFormat)
	m := Wrap(inner, time.Hour, nil)
	defer m.Close()

	if m.Format() != testFormat {
		t.Errorf("Format() = %+v, want %+v", m.Format(), testFormat)
	}
	for _, want := range []float64{0.1, 0.2, 0.3} {
		v, err := m.ReadFloat()
		if err != nil || v != want {
			t.Fatalf("ReadFloat = %v, %v; want %v", v, err, want)
		}
	}
	if _, err := m.ReadFloat(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
	if m.Total() != 3 {
		t.Errorf("Total() = %d, want 3 (failed reads are not counted)", m.Total())
	}
	if m.Average() != 0 {
		t.Errorf("Average() before any snapshot = %d, want 0", m.Average())
	}
}

func TestMonitorSnapshots(t *testing.T) {
	inner := source.NewMemory(make([]float64, 50), testFormat)
	mt := &utils.MockTransport{}
	m := Wrap(inner, 5*time.Millisecond, mt)

	for range 50 {
		if _, err := m.ReadFloat(); err != nil {
			t.Fatalf("ReadFloat: %v", err)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s := m.Samples()
		if len(s) >= 2 && s[len(s)-1].Total == 50 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	samples := m.Samples()
	if len(samples) < 2 {
		t.Fatalf("got %d snapshots, want at least 2", len(samples))
	}
	var sum uint64
	for i, s := range samples {
		if s.Seq != uint32(i+1) {
			t.Errorf("snapshot %d has seq %d", i, s.Seq)
		}
		sum += s.Reads
		if s.Total != sum {
			t.Errorf("snapshot %d total = %d, want %d", i, s.Total, sum)
		}
	}
	if sum != 50 {
		t.Errorf("snapshots account for %d reads, want 50", sum)
	}
	if got, want := m.Average(), uint64(50)/uint64(len(samples)); got != want {
		t.Errorf("Average() = %d, want %d", got, want)
	}
	if mt.Count() != len(samples) {
		t.Errorf("sender got %d samples, history has %d", mt.Count(), len(samples))
	}
}

func TestMonitorCloseStopsTicker(t *testing.T) {
	inner := source.NewMemory(nil, testFormat)
	before := runtime.NumGoroutine()
	m := Wrap(inner, time.Millisecond, nil)

	if err := m.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := m.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if !inner.Closed() {
		t.Error("wrapped source was not closed")
	}

	n := len(m.Samples())
	time.Sleep(20 * time.Millisecond)
	if len(m.Samples()) != n {
		t.Error("snapshots continued after Close")
	}
	if after := runtime.NumGoroutine(); after > before {
		t.Errorf("goroutines grew from %d to %d after Close", before, after)
	}
}

func TestSampleBinaryRoundTrip(t *testing.T) {
	in := Sample{Seq: 7, At: time.Unix(1700000000, 123456789), Reads: 2048000, Total: 9 << 40}
	data, err := in.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if len(data) != sampleWireSize {
		t.Fatalf("packet is %d bytes, want %d", len(data), sampleWireSize)
	}

	var out Sample
	if err := out.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if out.Seq != in.Seq || !out.At.Equal(in.At) || out.Reads != in.Reads || out.Total != in.Total {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
	if err := out.UnmarshalBinary(data[:10]); err == nil {
		t.Error("expected error for short packet")
	}
}

func TestMonitorReadNoAllocs(t *testing.T) {
	inner := source.NewMemory(make([]float64, 1000), testFormat)
	m := Wrap(inner, time.Hour, nil)
	defer m.Close()

	allocs := testing.AllocsPerRun(100, func() {
		_, _ = m.ReadFloat()
	})
	if allocs > 0 {
		t.Errorf("ReadFloat allocated: got %.1f allocs, want 0", allocs)
	}
}
