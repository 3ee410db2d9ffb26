// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package file_test

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
	"github.com/grailbio/clcombine/file/internal/impltest"
	"github.com/grailbio/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	impl := file.NewLocalImplementation()
	impltest.TestAll(context.Background(), t, impl, dir, impltest.Opts{VisibleOnCreate: true})
}

func TestEmptyPath(t *testing.T) {
	_, err := file.Create(context.Background(), "")
	require.Regexp(t, "empty pathname", err)
	assert.True(t, errors.Is(errors.Invalid, err))
}

func TestCreateTruncatesInPlace(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := filepath.Join(dir, "combined_files.txt")
	require.NoError(t, ioutil.WriteFile(path, []byte("stale contents"), 0666))

	f, err := file.Create(ctx, path)
	require.NoError(t, err)
	// The old contents are gone before anything is written or closed.
	data, err := ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, data)

	_, err = f.Writer(ctx).Write([]byte("fresh"))
	require.NoError(t, err)
	require.NoError(t, f.Close(ctx))
	data, err = ioutil.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh", string(data))
}

func TestCreateMakesParents(t *testing.T) {
	dir, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := filepath.Join(dir, "a", "b", "out.txt")
	require.NoError(t, file.WriteFile(ctx, path, []byte("x")))
	info, err := file.Stat(ctx, path)
	require.NoError(t, err)
	assert.EqualValues(t, 1, info.Size())
}

// Create on a symlink writes through to the symlink destination.
func TestCreateSymlink(t *testing.T) {
	dir0, cleanup0 := testutil.TempDir(t, "", "")
	dir1, cleanup1 := testutil.TempDir(t, "", "")
	defer cleanup1()
	defer cleanup0()

	newPath := filepath.Join(dir1, "new")
	oldPath := filepath.Join(dir0, "old")
	require.NoError(t, os.Symlink(oldPath, newPath))
	require.NoError(t, ioutil.WriteFile(oldPath, []byte("hoofah"), 0777))

	ctx := context.Background()
	require.NoError(t, file.WriteFile(ctx, newPath, []byte("hello")))
	data, err := ioutil.ReadFile(oldPath)
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestCreateDirectory(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	_, err := file.Create(context.Background(), tmp)
	require.Regexp(t, "is a directory", err)
}

func TestOpenErrors(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()

	_, err := file.Open(ctx, filepath.Join(tmp, "missing.txt"))
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)

	_, err = file.Open(ctx, tmp)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
	assert.Regexp(t, "is a directory", err)

	_, err = file.Stat(ctx, tmp)
	assert.True(t, errors.Is(errors.Invalid, err), "%v", err)
}

func TestReaderWriterModes(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := filepath.Join(tmp, "f.txt")
	require.NoError(t, file.WriteFile(ctx, path, []byte("abc")))

	f, err := file.Open(ctx, path)
	require.NoError(t, err)
	_, err = f.Writer(ctx).Write([]byte("x"))
	assert.Regexp(t, "not opened in write mode", err)
	require.NoError(t, f.Close(ctx))

	w, err := file.Create(ctx, path)
	require.NoError(t, err)
	_, err = w.Reader(ctx).Read(make([]byte, 1))
	assert.Regexp(t, "not opened in read mode", err)
	w.Discard(ctx)
}

func TestList(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	for _, name := range []string{"b.clc", "a.clh", "sub/c.clc"} {
		require.NoError(t, file.WriteFile(ctx, file.Join(tmp, name), []byte(name)))
	}
	list := func(recursive bool) []string {
		var paths []string
		l := file.List(ctx, tmp, recursive)
		for l.Scan() {
			p := l.Path()
			if l.IsDir() {
				p += "/"
			}
			paths = append(paths, p)
		}
		require.NoError(t, l.Err())
		return paths
	}
	assert.Equal(t, []string{tmp + "/a.clh", tmp + "/b.clc", tmp + "/sub/"}, list(false))
	assert.Equal(t, []string{tmp + "/a.clh", tmp + "/b.clc", tmp + "/sub/c.clc"}, list(true))

	// Nonexistent prefixes list nothing.
	l := file.List(ctx, file.Join(tmp, "nope"), true)
	assert.False(t, l.Scan())
	assert.NoError(t, l.Err())
}

func TestRemove(t *testing.T) {
	tmp, cleanup := testutil.TempDir(t, "", "")
	defer cleanup()
	ctx := context.Background()
	path := file.Join(tmp, "f.txt")
	require.NoError(t, file.WriteFile(ctx, path, nil))
	require.NoError(t, file.Remove(ctx, path))
	assert.True(t, errors.Is(errors.NotExist, file.Remove(ctx, path)))
}
