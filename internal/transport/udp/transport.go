// SPDX-License-Identifier: MIT
package udp

import (
	"encoding"
	"fmt"

	"spectrogram/internal/transport"
)

// Transport sends each message as a single datagram. Messages must
// implement encoding.BinaryMarshaler or be raw []byte.
//
// throughput.Sample packets are laid out big endian as:
//
//	|<- 4 bytes ->|<---- 8 bytes ---->|<-- 8 bytes -->|<-- 8 bytes -->|
//	+-------------+-------------------+---------------+---------------+
//	|  Sequence   |  Timestamp (ns)   |     Reads     |     Total     |
//	|  (uint32)   |     (int64)       |   (uint64)    |   (uint64)    |
//	+-------------+-------------------+---------------+---------------+
type Transport struct {
	sender *UDPSender
}

// NewTransport dials targetAddress.
func NewTransport(targetAddress string) (*Transport, error) {
	sender, err := NewUDPSender(targetAddress)
	if err != nil {
		return nil, err
	}
	return &Transport{sender: sender}, nil
}

// Send packs and transmits data.
func (t *Transport) Send(data any) error {
	var packet []byte
	switch v := data.(type) {
	case []byte:
		packet = v
	case encoding.BinaryMarshaler:
		b, err := v.MarshalBinary()
		if err != nil {
			return fmt.Errorf("failed to pack %T: %w", data, err)
		}
		packet = b
	default:
		return fmt.Errorf("cannot send %T over UDP: not a BinaryMarshaler", data)
	}
	return t.sender.Send(packet)
}

// Close closes the underlying sender.
func (t *Transport) Close() error {
	return t.sender.Close()
}

var _ transport.Transport = (*Transport)(nil)
