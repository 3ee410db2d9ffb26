// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/fragments"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"v.io/x/lib/cmdline"
)

// runCmd runs clcombine with args and returns its stdout.
func runCmd(t *testing.T, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	env := &cmdline.Env{Stdout: &stdout, Stderr: &stderr}
	err := cmdline.ParseAndRun(newCmdRoot(), env, args)
	log := stderr.String()
	if log != "" {
		t.Log(log)
	}
	return stdout.String(), err
}

// writeFragments writes each named fragment into dir with its own name as
// contents and returns the expected concatenation.
func writeFragments(t *testing.T, dir string, names ...string) string {
	var want strings.Builder
	for _, name := range names {
		contents := "// " + name + "\n"
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(contents), 0666))
		want.WriteString(contents)
	}
	return want.String()
}

func readFile(t *testing.T, path string) string {
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestDefaultFragments(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	want := writeFragments(t, dir, fragments.Default...)
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	stdout, err := runCmd(t)
	require.NoError(t, err)
	assert.Equal(t, "Combined files: [CLUniversalHeader.clh CLDomainCartesian.clh CLFriction.clh "+
		"CLSolverHLLC.clh CLDynamicTimestep.clh CLSchemePromaides.clh CLBoundaries.clh "+
		"CLDomainCartesian.clc CLFriction.clc CLSolverHLLC.clc CLDynamicTimestep.clc "+
		"CLSchemePromaides.clc CLBoundaries.clc] into combined_files.txt\n", stdout)
	assert.Equal(t, want, readFile(t, filepath.Join(dir, "combined_files.txt")))
}

func TestDir(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	want := writeFragments(t, dir, fragments.Default...)
	out := filepath.Join(dir, "out", "kernel.cl")

	stdout, err := runCmd(t, "-dir", dir, "-output", out)
	require.NoError(t, err)
	inputs := fragments.Resolve(dir, fragments.Default)
	assert.Equal(t, fmt.Sprintf("Combined files: %v into %s\n", inputs, out), stdout)
	assert.Equal(t, want, readFile(t, out))
}

func TestArgs(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	writeFragments(t, dir, "b.clh", "a.clh", "main.clc")
	out := filepath.Join(dir, "out.cl")

	stdout, err := runCmd(t, "-dir", dir, "-output", out, "main.clc", "*.clh")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("Combined files: [%s %s %s] into %s\n",
		filepath.Join(dir, "main.clc"), filepath.Join(dir, "a.clh"), filepath.Join(dir, "b.clh"), out), stdout)
	assert.Equal(t, "// main.clc\n// a.clh\n// b.clh\n", readFile(t, out))
}

func TestRelativeDir(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "kernels"), 0777))
	writeFragments(t, filepath.Join(dir, "kernels"), "B.clc", "A.clc", "A.clh")
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	stdout, err := runCmd(t, "-dir", "./kernels", "-output", "out.cl", "*.clc")
	require.NoError(t, err)
	assert.Equal(t, "Combined files: [kernels/A.clc kernels/B.clc] into out.cl\n", stdout)
	assert.Equal(t, "// A.clc\n// B.clc\n", readFile(t, "out.cl"))

	stdout, err = runCmd(t, "-output", "out.cl", "./kernels/*.clh", "./kernels//B.clc")
	require.NoError(t, err)
	assert.Equal(t, "Combined files: [kernels/A.clh ./kernels//B.clc] into out.cl\n", stdout)
	assert.Equal(t, "// A.clh\n// B.clc\n", readFile(t, "out.cl"))
}

func TestManifest(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	writeFragments(t, dir, "a.clh", "b.clc")
	manifest := filepath.Join(dir, "kernels.txt")
	require.NoError(t, ioutil.WriteFile(manifest, []byte("# sources last\nb.clc\n\na.clh\n"), 0666))
	out := filepath.Join(dir, "out.cl")

	_, err := runCmd(t, "-manifest", manifest, "-output", out)
	require.NoError(t, err)
	assert.Equal(t, "// b.clc\n// a.clh\n", readFile(t, out))

	_, err = runCmd(t, "-manifest", manifest, "-output", out, "a.clh")
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestBinary(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	in := filepath.Join(dir, "latin1.clh")
	require.NoError(t, ioutil.WriteFile(in, []byte("// r\xe9sum\xe9\n"), 0666))
	out := filepath.Join(dir, "out.cl")

	_, err := runCmd(t, "-output", out, in)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)

	_, err = runCmd(t, "-binary", "-output", out, in)
	require.NoError(t, err)
	assert.Equal(t, "// r\xe9sum\xe9\n", readFile(t, out))

	// Each command starts from its own defaults.
	_, err = runCmd(t, "-output", out, in)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestMissingFragment(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	out := filepath.Join(dir, "out.txt")

	stdout, err := runCmd(t, "-output", out, filepath.Join(dir, "missing.txt"))
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
	assert.Empty(t, stdout)
	assert.Equal(t, "", readFile(t, out))
}
