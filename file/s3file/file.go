// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package s3file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
	"github.com/grailbio/clcombine/log"
	"github.com/grailbio/clcombine/retry"
)

type accessMode int

const (
	readonly  accessMode = iota // file is opened by Open.
	writeonly                   // file is opened by Create.
)

// s3File implements file.File. All operations are serialized by mu.
type s3File struct {
	name   string // "s3://bucket/key/.."
	client s3iface.S3API
	policy retry.Policy
	mode   accessMode
	bucket string // bucket part of "name".
	key    string // key part of "name".

	mu sync.Mutex
	// File metadata, filled by Open. Nil for files opened by Create.
	info *s3Info
	// Active GetObject body. Created by Read, closed on Seek or Close.
	body io.ReadCloser
	// Seek offset of the next Read.
	// INVARIANT: position >= 0
	position int64
	// Pending contents of a file opened by Create.
	buf    bytes.Buffer
	closed bool
}

type s3Info struct {
	size    int64
	modTime time.Time
	etag    string
}

func (i *s3Info) Size() int64        { return i.size }
func (i *s3Info) ModTime() time.Time { return i.modTime }

// ETag returns the entity tag of the object.
func (i *s3Info) ETag() string { return i.etag }

// Name implements file.File.
func (f *s3File) Name() string {
	return f.name
}

// String implements file.File.
func (f *s3File) String() string {
	return f.name
}

// Stat implements file.File. For files opened by Create, Stat reports the
// bytes written so far.
func (f *s3File) Stat(ctx context.Context) (file.Info, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode == writeonly {
		return &s3Info{size: int64(f.buf.Len()), modTime: time.Now()}, nil
	}
	return f.info, nil
}

type s3Reader struct {
	ctx context.Context
	f   *s3File
}

// Read implements io.Reader.
func (r *s3Reader) Read(p []byte) (int, error) {
	return r.f.read(r.ctx, p)
}

// Seek implements io.Seeker.
func (r *s3Reader) Seek(offset int64, whence int) (int64, error) {
	return r.f.seek(offset, whence)
}

// Reader returns the reader for the file. It shares the seek pointer with
// other readers of the file.
func (f *s3File) Reader(ctx context.Context) io.ReadSeeker {
	if f.mode != readonly {
		return file.NewError(fmt.Errorf("reader %v: file is not opened in read mode", f.name))
	}
	return &s3Reader{ctx: ctx, f: f}
}

type s3Writer struct {
	f *s3File
}

// Write implements io.Writer.
func (w *s3Writer) Write(p []byte) (int, error) {
	w.f.mu.Lock()
	defer w.f.mu.Unlock()
	if w.f.closed {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("write %v: file is closed", w.f.name))
	}
	return w.f.buf.Write(p)
}

// Writer returns the writer for the file.
func (f *s3File) Writer(ctx context.Context) io.Writer {
	if f.mode != writeonly {
		return file.NewError(fmt.Errorf("writer %v: file is not opened in write mode", f.name))
	}
	return &s3Writer{f}
}

func (f *s3File) read(ctx context.Context, p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, errors.E(errors.Invalid, fmt.Sprintf("read %v: file is closed", f.name))
	}
	if len(p) == 0 {
		return 0, nil
	}
	if f.body == nil {
		if f.position >= f.info.size {
			return 0, io.EOF
		}
		input := &s3.GetObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(f.key),
		}
		if f.position > 0 {
			input.Range = aws.String(fmt.Sprintf("bytes=%d-", f.position))
		}
		if f.info.etag != "" {
			// Fail rather than splice two versions of the object.
			input.IfMatch = aws.String(f.info.etag)
		}
		var output *s3.GetObjectOutput
		err := do(ctx, f.policy, "GetObject", f.name, func() (err error) {
			output, err = f.client.GetObjectWithContext(ctx, input)
			if err != nil {
				return annotate(err, "s3file.read", f.name)
			}
			return nil
		})
		if err != nil {
			return 0, err
		}
		f.body = output.Body
	}
	n, err := f.body.Read(p)
	f.position += int64(n)
	if err != nil && err != io.EOF {
		err = annotate(err, "s3file.read", f.name)
	}
	return n, err
}

func (f *s3File) seek(offset int64, whence int) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = f.position + offset
	case io.SeekEnd:
		pos = f.info.size + offset
	default:
		return f.position, errors.E(errors.Invalid, fmt.Sprintf("seek %v: bad whence %d", f.name, whence))
	}
	if pos < 0 {
		return f.position, errors.E(errors.Invalid, fmt.Sprintf("seek %v: negative offset %d", f.name, pos))
	}
	if pos != f.position {
		f.closeBody()
		f.position = pos
	}
	return pos, nil
}

// REQUIRES: f.mu is locked
func (f *s3File) closeBody() {
	if f.body == nil {
		return
	}
	if err := f.body.Close(); err != nil {
		log.Debug.Printf("s3file: close body %s: %v", f.name, err)
	}
	f.body = nil
}

// Close implements file.File. For files opened by Create, Close uploads the
// buffered contents.
func (f *s3File) Close(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return errors.E(errors.Invalid, fmt.Sprintf("close %v: file is already closed", f.name))
	}
	f.closed = true
	if f.mode == readonly {
		f.closeBody()
		return nil
	}
	err := do(ctx, f.policy, "PutObject", f.name, func() error {
		if _, err := f.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket: aws.String(f.bucket),
			Key:    aws.String(f.key),
			Body:   bytes.NewReader(f.buf.Bytes()),
		}); err != nil {
			return annotate(err, "s3file.close", f.name)
		}
		return nil
	})
	f.buf.Reset()
	return err
}

// Discard implements file.File. Pending writes are dropped; nothing is
// uploaded.
func (f *s3File) Discard(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.closeBody()
	f.buf.Reset()
}
