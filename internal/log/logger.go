// SPDX-License-Identifier: MIT
//
// Package log is a small levelled wrapper over the standard logger. The
// level is global and may be changed concurrently with logging.
package log

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"sync/atomic"
)

// LogLevel defines the severity of a log message.
type LogLevel uint32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{
	LevelDebug: "DEBUG",
	LevelInfo:  "INFO",
	LevelWarn:  "WARN",
	LevelError: "ERROR",
	LevelFatal: "FATAL",
}

func (l LogLevel) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "UNKNOWN"
}

// ParseLevel converts a level name, ignoring case and surrounding space.
// Unknown names yield LevelInfo and false.
func ParseLevel(name string) (LogLevel, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	if name == "WARNING" {
		return LevelWarn, true
	}
	for lvl, n := range levelNames {
		if n == name {
			return LogLevel(lvl), true
		}
	}
	return LevelInfo, false
}

var (
	level  atomic.Uint32
	logger = stdlog.New(os.Stderr, "", stdlog.Ldate|stdlog.Ltime|stdlog.Lmicroseconds)
)

func init() {
	SetLevel(LevelInfo)
}

func SetLevel(l LogLevel) { level.Store(uint32(l)) }

func GetLevel() LogLevel { return LogLevel(level.Load()) }

// SetOutput redirects all log output. A nil writer restores stderr.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	logger.SetOutput(w)
}

// logf writes one line tagged with the level, padded to five characters so
// messages line up.
func logf(l LogLevel, format string, v []any) {
	if l < GetLevel() {
		return
	}
	logger.Printf("[%-5s] %s", l, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...any) { logf(LevelDebug, format, v) }

func Infof(format string, v ...any) { logf(LevelInfo, format, v) }

func Warnf(format string, v ...any) { logf(LevelWarn, format, v) }

func Errorf(format string, v ...any) { logf(LevelError, format, v) }

// Fatalf logs regardless of the current level and exits with status 1.
func Fatalf(format string, v ...any) {
	logger.Printf("[%-5s] %s", LevelFatal, fmt.Sprintf(format, v...))
	os.Exit(1)
}
