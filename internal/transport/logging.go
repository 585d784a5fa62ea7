// SPDX-License-Identifier: MIT
package transport

import (
	applog "spectrogram/internal/log"
)

// LoggingTransport writes every message to the application log.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	applog.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs the message at info level. It never fails.
func (lt *LoggingTransport) Send(data any) error {
	applog.Infof("Transport: %+v", data)
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
