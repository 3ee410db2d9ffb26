// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package combine concatenates kernel fragments into a single output file.
//
// The output is created (or truncated) first. Each input is then opened,
// read in full, appended verbatim and closed before the next one is opened.
// No separators are inserted and no bytes are changed. The first failure
// aborts the run; whatever was appended before it stays in the output.
//
// Fragments are UTF-8 text. Inputs that are not valid UTF-8 are rejected
// with errors.Invalid unless Opts.Binary is set.
package combine

import (
	"context"
	"fmt"
	"io/ioutil"
	"unicode/utf8"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
	"github.com/grailbio/clcombine/log"
)

// Opts controls a combine run.
type Opts struct {
	// Binary disables UTF-8 validation of the inputs.
	Binary bool
}

// Stats summarizes a successful run.
type Stats struct {
	// Files is the number of inputs appended.
	Files int
	// Bytes is the number of bytes written to the output.
	Bytes int64
}

// Combine writes the concatenation of inputs, in order, to output. See Run.
func Combine(ctx context.Context, inputs []string, output string, opts ...Opts) error {
	_, err := Run(ctx, inputs, output, opts...)
	return err
}

// Run writes the concatenation of inputs, in order, to output and reports
// what it wrote. Paths may name local files or any registered file
// implementation, such as "s3://bucket/key".
//
// Read failures are reported with the message "combine: read <input>" and
// write failures with "combine: write <output>". The error kind follows the
// cause, e.g. errors.NotExist for a missing input. Context cancellation is
// checked before each input.
func Run(ctx context.Context, inputs []string, output string, opts ...Opts) (stats Stats, err error) {
	var opt Opts
	for _, o := range opts {
		opt.Binary = opt.Binary || o.Binary
	}
	out, err := file.Create(ctx, output)
	if err != nil {
		return stats, errors.E(err, "combine: write", output)
	}
	defer file.CloseAndReport(ctx, out, &err)
	w := out.Writer(ctx)
	for _, input := range inputs {
		if err := ctx.Err(); err != nil {
			return stats, errors.E(err, "combine: read", input)
		}
		data, err := readFragment(ctx, input, opt)
		if err != nil {
			return stats, err
		}
		n, err := w.Write(data)
		stats.Bytes += int64(n)
		if err != nil {
			return stats, errors.E(err, "combine: write", output)
		}
		stats.Files++
		log.Debug.Printf("combine: appended %s (%d bytes) to %s", input, n, output)
	}
	log.Debug.Printf("combine: wrote %d files, %d bytes to %s", stats.Files, stats.Bytes, output)
	return stats, nil
}

// readFragment returns the full contents of the fragment at path. The file
// is closed before readFragment returns.
func readFragment(ctx context.Context, path string, opt Opts) (_ []byte, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, "combine: read", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, errors.E(err, "combine: read", path)
	}
	if !opt.Binary {
		if off := invalidUTF8(data); off >= 0 {
			return nil, errors.E(errors.Invalid, "combine: read", path,
				fmt.Sprintf("invalid UTF-8 at byte %d", off))
		}
	}
	return data, nil
}

// invalidUTF8 returns the offset of the first byte of data that is not part
// of a valid UTF-8 sequence, or -1 if data is valid UTF-8.
func invalidUTF8(data []byte) int {
	for off := 0; off < len(data); {
		if data[off] < utf8.RuneSelf {
			off++
			continue
		}
		r, size := utf8.DecodeRune(data[off:])
		if r == utf8.RuneError && size == 1 {
			return off
		}
		off += size
	}
	return -1
}
