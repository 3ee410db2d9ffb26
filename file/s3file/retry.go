// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package s3file

import (
	"context"
	"fmt"
	"time"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/log"
	"github.com/grailbio/clcombine/retry"
)

// DefaultRetryPolicy is used for S3 requests that fail with a transient
// error when Options.RetryPolicy is nil. It allows up to 10 tries.
var DefaultRetryPolicy = retry.MaxTries(retry.Jitter(retry.Backoff(500*time.Millisecond, 30*time.Second, 2), 0.5), 10)

// do calls fn until it succeeds or fails with an error that is not
// errors.Unavailable, waiting between tries as the policy dictates.
func do(ctx context.Context, policy retry.Policy, op, path string, fn func() error) error {
	for retries := 0; ; retries++ {
		err := fn()
		if err == nil || !errors.Is(errors.Unavailable, err) {
			return err
		}
		log.Debug.Printf("s3file: %s %s: retry %d: %v", op, path, retries, err)
		if werr := retry.Wait(ctx, policy, retries); werr != nil {
			return errors.E(werr, fmt.Sprintf("s3file: %s %s: %v", op, path, err))
		}
	}
}
