// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package file

import (
	"context"
	"io"

	"github.com/grailbio/clcombine/errors"
)

// File defines operations on a file. Implementations must be thread safe.
type File interface {
	// String returns a diagnostic string.
	String() string

	// Name returns the path name given to file.Open or file.Create when this
	// object was created.
	Name() string

	// Stat returns file metadata.
	//
	// REQUIRES: Close has not been called
	Stat(ctx context.Context) (Info, error)

	// Reader creates an io.ReadSeeker object that operates on the file.  If
	// Reader() is called multiple times, they share the seek pointer.
	//
	// REQUIRES: Close has not been called
	Reader(ctx context.Context) io.ReadSeeker

	// Writer creates a writer that writes to the file. If Writer() is called
	// multiple times, they share the seek pointer.
	//
	// REQUIRES: Close has not been called
	Writer(ctx context.Context) io.Writer

	// Discard discards a file before it is closed, relinquishing any
	// temporary resources implied by pending writes. Discard is a
	// best-effort operation and is a no-op for files opened for reading.
	// Exactly one of Discard or Close should be called.
	Discard(ctx context.Context)

	// Closer commits the contents of a written file, invalidating the
	// File and all Readers and Writers created from the file. Exactly
	// one of Discard or Close should be called.
	Closer
}

// Closer cleans up a resource.
type Closer interface {
	// Close tries to clean up the resource. Implementations can define whether
	// Close can be called more than once.
	Close(context.Context) error
}

// CloseAndReport returns a defer-able helper that calls f.Close and reports errors, if any,
// to *err. Pass your function's named return error. Example usage:
//
//   func writeCombined(ctx context.Context, path string) (err error) {
//     f, err := file.Create(ctx, path)
//     if err != nil { ... }
//     defer file.CloseAndReport(ctx, f, &err)
//     ...
//   }
//
// If your function returns with an error, any f.Close error will be chained appropriately.
func CloseAndReport(ctx context.Context, f Closer, err *error) {
	errors.CleanUpCtx(ctx, f.Close, err)
}

// NewError returns a new io.ReadSeeker and io.Writer that returns "err" on
// any operation.
func NewError(err error) interface {
	io.ReadSeeker
	io.Writer
} {
	return &errorReaderWriter{err: err}
}

type errorReaderWriter struct{ err error }

func (r *errorReaderWriter) Read([]byte) (int, error) {
	return 0, r.err
}

func (r *errorReaderWriter) Seek(int64, int) (int64, error) {
	return -1, r.err
}

func (r *errorReaderWriter) Write([]byte) (int, error) {
	return 0, r.err
}
