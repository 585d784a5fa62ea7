// SPDX-License-Identifier: MIT
/*
Package transport delivers diagnostic reports, such as throughput
snapshots, away from the render loop. Implementations never block the
caller for long: the WebSocket transport drops messages when its queue is
full and the UDP transport fires single datagrams.
*/
package transport

import (
	"fmt"
	"strings"
)

// Transport defines a generic interface for sending reports.
// Implementations should be thread-safe.
type Transport interface {
	Send(data any) error
	Close() error
}

// Kind names a transport implementation in configuration.
type Kind string

const (
	KindLog       Kind = "log"
	KindWebSocket Kind = "websocket"
	KindUDP       Kind = "udp"
)

// ParseKind converts a case-insensitive name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(name))); k {
	case KindLog, KindWebSocket, KindUDP:
		return k, nil
	case "":
		return KindLog, nil
	default:
		return "", fmt.Errorf("unknown transport '%s'", name)
	}
}
