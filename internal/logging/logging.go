// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging is a small leveled logger over the standard log package.
//
// Callers write event lines in the "EVENT | key=value" form used across the
// application, for example:
//
//	logging.Infof("CHAT_SAVED | id=%s messages=%d", id, n)
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
)

// Level is a logging verbosity threshold.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the lower-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	case LevelInfo:
		return "info"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a config or flag value into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info", "":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

var (
	mu     sync.RWMutex
	level  = LevelInfo
	logger = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel sets the global threshold.
func SetLevel(l Level) {
	mu.Lock()
	level = l
	mu.Unlock()
}

// GetLevel returns the global threshold.
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return level
}

// SetVerbose switches between debug and info.
func SetVerbose(verbose bool) {
	if verbose {
		SetLevel(LevelDebug)
	} else {
		SetLevel(LevelInfo)
	}
}

// SetOutput redirects log output. The TUI points it at a file because it
// owns the terminal.
func SetOutput(w io.Writer) {
	mu.Lock()
	logger.SetOutput(w)
	mu.Unlock()
}

// OpenFile appends logs to path and returns the file so the caller can close it.
func OpenFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	SetOutput(f)
	return f, nil
}

// Logger returns the underlying *log.Logger for components such as the HTTP
// middleware that take one directly.
func Logger() *log.Logger {
	return logger
}

func output(l Level, tag, format string, args ...interface{}) {
	if GetLevel() < l {
		return
	}
	mu.RLock()
	defer mu.RUnlock()
	logger.Printf(tag+" "+format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...interface{}) { output(LevelError, "[ERROR]", format, args...) }

// Warnf logs at warn level.
func Warnf(format string, args ...interface{}) { output(LevelWarn, "[WARN]", format, args...) }

// Infof logs at info level.
func Infof(format string, args ...interface{}) { output(LevelInfo, "[INFO]", format, args...) }

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) { output(LevelDebug, "[DEBUG]", format, args...) }
