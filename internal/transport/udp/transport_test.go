// SPDX-License-Identifier: MIT
package udp

import (
	"net"
	"testing"
	"time"

	"spectrogram/internal/throughput"
)

func listen(t *testing.T) *net.UDPConn {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *net.UDPConn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1500)
	n, _, err := conn.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	return buf[:n]
}

func TestTransportSendsSamplePackets(t *testing.T) {
	listener := listen(t)
	tr, err := NewTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer tr.Close()

	want := throughput.Sample{Seq: 9, At: time.Unix(0, 1234567890), Reads: 16000, Total: 48000}
	if err := tr.Send(want); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var got throughput.Sample
	if err := got.UnmarshalBinary(receive(t, listener)); err != nil {
		t.Fatalf("UnmarshalBinary: %v", err)
	}
	if got.Seq != want.Seq || !got.At.Equal(want.At) || got.Reads != want.Reads || got.Total != want.Total {
		t.Errorf("received %+v, want %+v", got, want)
	}
}

func TestTransportSendsRawBytes(t *testing.T) {
	listener := listen(t)
	tr, err := NewTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer tr.Close()

	if err := tr.Send([]byte("ping")); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if got := string(receive(t, listener)); got != "ping" {
		t.Errorf("received %q, want %q", got, "ping")
	}
}

func TestTransportRejectsUnknownTypes(t *testing.T) {
	listener := listen(t)
	tr, err := NewTransport(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewTransport: %v", err)
	}
	defer tr.Close()

	if err := tr.Send(struct{ X int }{1}); err == nil {
		t.Error("expected error for a type without MarshalBinary")
	}
}

func TestSenderClose(t *testing.T) {
	listener := listen(t)
	s, err := NewUDPSender(listener.LocalAddr().String())
	if err != nil {
		t.Fatalf("NewUDPSender: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.Send([]byte{1}); err == nil {
		t.Error("expected error sending on a closed sender")
	}
}

func TestNewUDPSenderBadAddress(t *testing.T) {
	if _, err := NewUDPSender("not an address"); err == nil {
		t.Error("expected error for an unresolvable address")
	}
}
