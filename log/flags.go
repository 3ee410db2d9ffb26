// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package log

import (
	"flag"
	"io"
	golog "log"
	"sync"
	"sync/atomic"
)

// Flags for SetFlags, as in Go's log package.
const (
	Ldate         = golog.Ldate
	Ltime         = golog.Ltime
	Lmicroseconds = golog.Lmicroseconds
	Lshortfile    = golog.Lshortfile
)

var addFlagsOnce sync.Once

// AddFlags registers the -log flag (off, error, info, debug) on
// flag.CommandLine. Only the first call has an effect.
func AddFlags() {
	addFlagsOnce.Do(func() {
		flag.Var(levelFlag{}, "log", "set log level (off, error, info, debug)")
	})
}

// SetFlags sets the output flags of the standard logger.
func SetFlags(flags int) {
	golog.SetFlags(flags)
}

// SetOutput sets the destination of the standard logger.
func SetOutput(w io.Writer) {
	golog.SetOutput(w)
}

// levelFlag reads and sets the current level.
type levelFlag struct{}

func (levelFlag) String() string {
	return Level(atomic.LoadInt32(&current)).String()
}

func (levelFlag) Set(s string) error {
	l, err := ParseLevel(s)
	if err != nil {
		return err
	}
	SetLevel(l)
	return nil
}

// Get implements flag.Getter.
func (levelFlag) Get() interface{} {
	return Level(atomic.LoadInt32(&current))
}
