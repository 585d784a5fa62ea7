// SPDX-License-Identifier: MIT
package transport

import (
	"bytes"
	"strings"
	"testing"
	"time"

	applog "spectrogram/internal/log"

	"github.com/gorilla/websocket"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"", KindLog, false},
		{"log", KindLog, false},
		{" WebSocket ", KindWebSocket, false},
		{"udp", KindUDP, false},
		{"carrier-pigeon", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoggingTransport(t *testing.T) {
	var buf bytes.Buffer
	applog.SetOutput(&buf)
	prev := applog.GetLevel()
	applog.SetLevel(applog.LevelInfo)
	t.Cleanup(func() {
		applog.SetLevel(prev)
		applog.SetOutput(nil)
	})

	lt := NewLoggingTransport()
	if err := lt.Send(map[string]int{"reads": 42}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := lt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(buf.String(), "reads:42") {
		t.Errorf("log output %q does not contain the message", buf.String())
	}
}

type report struct {
	Seq   uint32 `json:"seq"`
	Reads uint64 `json:"reads"`
}

func TestWebSocketBroadcast(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	defer wst.Close()

	url := "ws://" + wst.Addr().String() + WebSocketPath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for wst.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if wst.Clients() != 1 {
		t.Fatalf("Clients() = %d, want 1", wst.Clients())
	}

	if err := wst.Send(report{Seq: 3, Reads: 8000}); err != nil {
		t.Fatalf("Send: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got report
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if got.Seq != 3 || got.Reads != 8000 {
		t.Errorf("received %+v, want {Seq:3 Reads:8000}", got)
	}
}

type padded struct {
	Seq int    `json:"seq"`
	Pad string `json:"pad"`
}

func TestWebSocketStalledClientIsDropped(t *testing.T) {
	saved := writeWait
	writeWait = 50 * time.Millisecond
	defer func() { writeWait = saved }()

	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	defer wst.Close()
	url := "ws://" + wst.Addr().String() + WebSocketPath

	// Never reads, so the server's socket buffers eventually fill.
	stalled, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial stalled: %v", err)
	}
	defer stalled.Close()

	healthy, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial healthy: %v", err)
	}
	defer healthy.Close()

	gotMarker := make(chan struct{})
	go func() {
		for {
			var msg padded
			if err := healthy.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Seq < 0 {
				close(gotMarker)
				return
			}
		}
	}()

	deadline := time.Now().Add(5 * time.Second)
	for wst.Clients() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if wst.Clients() != 2 {
		t.Fatalf("Clients() = %d, want 2", wst.Clients())
	}

	bulk := padded{Seq: 1, Pad: strings.Repeat("x", 256<<10)}
	deadline = time.Now().Add(10 * time.Second)
	for wst.Clients() > 1 && time.Now().Before(deadline) {
		_ = wst.Send(bulk)
		time.Sleep(time.Millisecond)
	}
	if wst.Clients() != 1 {
		t.Fatalf("stalled client still connected: Clients() = %d", wst.Clients())
	}

	deadline = time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		_ = wst.Send(padded{Seq: -1})
		select {
		case <-gotMarker:
			return
		case <-time.After(20 * time.Millisecond):
		}
	}
	t.Fatal("healthy client stopped receiving after a peer stalled")
}

func TestWebSocketSendAfterClose(t *testing.T) {
	wst, err := NewWebSocketTransport("127.0.0.1:0")
	if err != nil {
		t.Fatalf("NewWebSocketTransport: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := wst.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := wst.Send(report{}); err != ErrClosed {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
}
