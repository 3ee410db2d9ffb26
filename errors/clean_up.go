// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package errors

import (
	"context"
	"fmt"
)

// CleanUpCtx calls cleanUp and folds its error into *dst, the caller's
// named return error. Use it in a defer:
//
//	defer errors.CleanUpCtx(ctx, f.Close, &err)
//
// If *dst is already set, the cleanUp error is appended to its message.
func CleanUpCtx(ctx context.Context, cleanUp func(context.Context) error, dst *error) {
	err := cleanUp(ctx)
	switch {
	case err == nil:
	case *dst == nil:
		*dst = err
	default:
		*dst = E(*dst, fmt.Sprintf("second error in close: %v", err))
	}
}
