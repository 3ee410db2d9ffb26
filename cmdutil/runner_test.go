// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package cmdutil_test

import (
	"bytes"
	"context"
	"os"
	"testing"

	"github.com/grailbio/clcombine/cmdutil"
	"github.com/grailbio/clcombine/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"
)

func TestRunnerFunc(t *testing.T) {
	defer log.SetOutput(os.Stderr)
	var gotArgs []string
	cmd := &cmdline.Command{
		Name:     "test",
		Short:    "Test command",
		ArgsName: "args",
		Runner: cmdutil.RunnerFunc(func(ctx context.Context, env *cmdline.Env, args []string) error {
			require.NotNil(t, ctx)
			gotArgs = args
			log.Error.Printf("to stderr")
			return nil
		}),
	}
	var stdout, stderr bytes.Buffer
	env := &cmdline.Env{Stdout: &stdout, Stderr: &stderr}
	require.NoError(t, cmdline.ParseAndRun(cmd, env, []string{"a", "b"}))
	assert.Equal(t, []string{"a", "b"}, gotArgs)
	assert.Contains(t, stderr.String(), "to stderr")
	assert.Empty(t, stdout.String())
}
