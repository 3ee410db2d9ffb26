// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package log provides leveled logging on top of Go's standard logger.
//
// Messages are written through the standard logger only when their
// level is at or below the current level (Info unless changed with
// SetLevel or the -log flag installed by AddFlags). Per-fragment
// progress is logged at Debug so that normal runs stay quiet.
package log

import (
	"fmt"
	golog "log"
	"sync/atomic"
)

// A Level is a log verbosity level. Higher levels are more verbose.
type Level int32

const (
	// Off disables all output.
	Off Level = -3
	// Error is for failures.
	Error Level = -2
	// Info is the default level.
	Info Level = 0
	// Debug is for progress details.
	Debug Level = 1
)

var levelNames = map[Level]string{
	Off:   "off",
	Error: "error",
	Info:  "info",
	Debug: "debug",
}

var current = int32(Info)

// SetLevel sets the current level.
func SetLevel(l Level) {
	atomic.StoreInt32(&current, int32(l))
}

func enabled(l Level) bool {
	return l > Off && int32(l) <= atomic.LoadInt32(&current)
}

func (l Level) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("level(%d)", int32(l))
}

// ParseLevel returns the level named s: "off", "error", "info" or
// "debug".
func ParseLevel(s string) (Level, error) {
	for l, name := range levelNames {
		if name == s {
			return l, nil
		}
	}
	return Off, fmt.Errorf("invalid log level %q", s)
}

// Printf logs a message formatted as by fmt.Sprintf at level l.
func (l Level) Printf(format string, v ...interface{}) {
	if enabled(l) {
		golog.Output(2, fmt.Sprintf(format, v...)) // nolint: errcheck
	}
}

// Printf logs a message formatted as by fmt.Sprintf at level Info.
func Printf(format string, v ...interface{}) {
	if enabled(Info) {
		golog.Output(2, fmt.Sprintf(format, v...)) // nolint: errcheck
	}
}
