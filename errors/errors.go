// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package errors implements an error type that carries a Kind: an
// interpretable code for the conditions a combine run can hit, such
// as a missing fragment or a denied write. Errors chain through
// their cause, and the first non-Other kind in a chain is the kind
// of the chain.
package errors

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/grailbio/clcombine/log"
)

// Kind classifies an error. Callers branch on kinds, not messages.
type Kind int

const (
	// Other is an error that fits no other kind.
	Other Kind = iota
	// Canceled means the operation's context was canceled.
	Canceled
	// Timeout means the operation's deadline passed.
	Timeout
	// NotExist means the named file or object does not exist.
	NotExist
	// NotAllowed means access was denied.
	NotAllowed
	// NotSupported means no implementation handles the request.
	NotSupported
	// Invalid means a malformed argument or malformed contents.
	Invalid
	// Precondition means a resource changed underneath a conditional
	// request, e.g. an object rewritten while it was being read.
	Precondition
	// Unavailable means a transient service failure; retrying may help.
	Unavailable
	// TooManyTries means retries were exhausted.
	TooManyTries
)

var kindText = [...]string{
	Other:        "unknown error",
	Canceled:     "operation was canceled",
	Timeout:      "time out",
	NotExist:     "resource does not exist",
	NotAllowed:   "access denied",
	NotSupported: "operation not supported",
	Invalid:      "invalid argument",
	Precondition: "precondition failed",
	Unavailable:  "service unavailable",
	TooManyTries: "too many tries",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindText) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindText[k]
}

// Error is the error type built by E.
type Error struct {
	// Kind classifies the error.
	Kind Kind
	// Message describes what failed, e.g. "combine: read kernels/a.clh".
	Message string
	// Err is the cause, if any.
	Err error
}

// E builds an *Error from its arguments, interpreted by type:
//
//	- Kind sets the kind;
//	- string is appended to the message, space separated;
//	- error (including *Error) sets the cause.
//
// Any other argument yields an Invalid error describing the bad call.
//
// Without an explicit kind, the kind comes from the cause: an *Error
// cause hands its kind to the new error, and other causes are
// classified with os.IsNotExist, os.IsPermission, context.Canceled
// and context.DeadlineExceeded.
func E(args ...interface{}) error {
	if len(args) == 0 {
		panic("errors.E: no args")
	}
	e := new(Error)
	var msg []string
	for _, arg := range args {
		switch arg := arg.(type) {
		case Kind:
			e.Kind = arg
		case string:
			msg = append(msg, arg)
		case *Error:
			cause := *arg
			e.Err = &cause
		case error:
			e.Err = arg
		default:
			_, file, line, _ := runtime.Caller(1)
			log.Error.Printf("errors.E: bad call (type %T) from %s:%d: %v", arg, file, line, arg)
			return &Error{
				Kind:    Invalid,
				Message: fmt.Sprintf("unknown type %T, value %v in error call", arg, arg),
			}
		}
	}
	e.Message = strings.Join(msg, " ")
	switch cause := e.Err.(type) {
	case nil:
	case *Error:
		if len(args) == 1 {
			return cause
		}
		// The kind moves up the chain so that it is printed once.
		if e.Kind == Other || e.Kind == cause.Kind {
			e.Kind, cause.Kind = cause.Kind, Other
		}
	default:
		if e.Kind == Other {
			e.Kind = classify(cause)
		}
	}
	return e
}

func classify(err error) Kind {
	switch {
	case err == context.Canceled:
		return Canceled
	case err == context.DeadlineExceeded:
		return Timeout
	case os.IsNotExist(err):
		return NotExist
	case os.IsPermission(err):
		return NotAllowed
	}
	return Other
}

// Error prints the message, the kind and then the cause. A chained
// *Error is printed on its own indented line.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	add := func(sep, s string) {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s)
	}
	if e.Message != "" {
		add(": ", e.Message)
	}
	if e.Kind != Other {
		add(": ", e.Kind.String())
	}
	switch cause := e.Err.(type) {
	case nil:
	case *Error:
		add(":\n\t", cause.Error())
	default:
		add(": ", cause.Error())
	}
	return b.String()
}

// Unwrap returns the cause, for the standard library's errors.Is and
// errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is tells whether err has the given kind. Errors of kind Other defer
// to their *Error cause; errors of other types are classified as E
// would classify them.
func Is(kind Kind, err error) bool {
	for err != nil {
		e, ok := err.(*Error)
		if !ok {
			return kind != Other && classify(err) == kind
		}
		if e.Kind != Other {
			return e.Kind == kind
		}
		if _, ok := e.Err.(*Error); !ok {
			return false
		}
		err = e.Err
	}
	return false
}
