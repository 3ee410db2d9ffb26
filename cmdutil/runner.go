// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package cmdutil provides helpers for building cmdline commands.
package cmdutil

import (
	"context"

	"github.com/grailbio/clcombine/log"
	"v.io/x/lib/cmdline"
)

// RunnerFunc is an adapter that turns regular functions into cmdline.Runners.
type RunnerFunc func(context.Context, *cmdline.Env, []string) error

// Run implements the cmdline.Runner interface method by calling
// f(ctx, env, args) with a background context. Log output is sent to the
// command's stderr so that stdout carries only the command's own output.
func (f RunnerFunc) Run(env *cmdline.Env, args []string) error {
	if env.Stderr != nil {
		log.SetOutput(env.Stderr)
	}
	return f(context.Background(), env, args)
}
