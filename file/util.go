// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package file

import (
	"context"
	"fmt"
	"io/ioutil"

	"github.com/grailbio/clcombine/errors"
)

// ReadFile reads the given file and returns the contents. A successful call
// returns err == nil, not err == EOF.
func ReadFile(ctx context.Context, path string) (_ []byte, err error) {
	in, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer CloseAndReport(ctx, in, &err)
	data, err := ioutil.ReadAll(in.Reader(ctx))
	if err != nil {
		return nil, errors.E(err, "read", path)
	}
	return data, nil
}

// WriteFile writes data to the given file. If the file does not exist,
// WriteFile creates it; otherwise WriteFile truncates it before writing.
func WriteFile(ctx context.Context, path string, data []byte) (err error) {
	out, err := Create(ctx, path)
	if err != nil {
		return err
	}
	defer CloseAndReport(ctx, out, &err)
	n, err := out.Writer(ctx).Write(data)
	if n != len(data) && err == nil {
		err = fmt.Errorf("writefile %s: requested to write %d bytes, actually wrote %d bytes", path, len(data), n)
	}
	return err
}
