// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package impltest contains tests that every file.Implementation should
// pass.
package impltest

import (
	"context"
	"io"
	"io/ioutil"
	"sort"
	"testing"
	"time"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Opts describes implementation-specific behavior the tests check for.
type Opts struct {
	// VisibleOnCreate is set for implementations whose Create truncates
	// the file in place, so that it exists (and is empty) before Close.
	// Otherwise, a created file only appears, or changes, on Close.
	VisibleOnCreate bool
}

func doRead(t *testing.T, r io.Reader, len int) string {
	data := make([]byte, len)
	n, err := io.ReadFull(r, data)
	assert.Equal(t, len, n)
	if err == io.EOF {
		assert.Equal(t, 0, n)
	} else {
		assert.NoError(t, err)
	}
	return string(data)
}

func doReadAll(t *testing.T, r io.Reader) string {
	data, err := ioutil.ReadAll(r)
	assert.NoError(t, err)
	return string(data)
}

func doSeek(t *testing.T, r io.Seeker, off int64, whence int) {
	n, err := r.Seek(off, whence)
	assert.NoError(t, err)
	if whence == io.SeekStart {
		assert.Equal(t, off, n)
	}
}

func doReadFile(ctx context.Context, t *testing.T, impl file.Implementation, path string) string {
	f, err := impl.Open(ctx, path)
	require.NoError(t, err, "open: %v", path)
	data := doReadAll(t, f.Reader(ctx))
	assert.NoError(t, f.Close(ctx))
	return data
}

func doWriteFile(ctx context.Context, t *testing.T, impl file.Implementation, path string, data string) {
	f, err := impl.Create(ctx, path)
	require.NoError(t, err, "create: %v", path)
	_, err = f.Writer(ctx).Write([]byte(data))
	assert.NoError(t, err)
	assert.NoError(t, f.Close(ctx))
}

func fileExists(ctx context.Context, t *testing.T, impl file.Implementation, path string) bool {
	_, err := impl.Stat(ctx, path)
	if err != nil && !errors.Is(errors.NotExist, err) {
		t.Fatalf("stat %s: %v", path, err)
	}
	return err == nil
}

// TestEmpty creates an empty file and tests its operations.
func TestEmpty(ctx context.Context, t *testing.T, impl file.Implementation, path string) {
	f, err := impl.Create(ctx, path)
	require.NoError(t, err)
	assert.NoError(t, f.Close(ctx))

	f, err = impl.Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "", doReadAll(t, f.Reader(ctx)))
	assert.NoError(t, f.Close(ctx))

	// Seek past the end of the file.
	f, err = impl.Open(ctx, path)
	require.NoError(t, err)
	r := f.Reader(ctx)
	off, err := r.Seek(10, io.SeekStart)
	assert.NoError(t, err)
	assert.Equal(t, int64(10), off)
	assert.Equal(t, "", doReadAll(t, f.Reader(ctx)))
	assert.NoError(t, f.Close(ctx))
}

// TestNotExist tests that the implementation behaves correctly
// for paths that do not exist.
func TestNotExist(ctx context.Context, t *testing.T, impl file.Implementation, path string) {
	_, err := impl.Open(ctx, path)
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
	_, err = impl.Stat(ctx, path)
	assert.True(t, errors.Is(errors.NotExist, err), "%v", err)
}

// TestReads tests various combination of reads and seeks.
func TestReads(ctx context.Context, t *testing.T, impl file.Implementation, path string) {
	expected := "__kernel void friction(__global float4* cells)"
	doWriteFile(ctx, t, impl, path, expected)

	// Read everything.
	f, err := impl.Open(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, expected, doReadAll(t, f.Reader(ctx)))

	// Read in two chunks.
	r := f.Reader(ctx)
	doSeek(t, r, 0, io.SeekStart)
	assert.Equal(t, expected[:8], doRead(t, r, 8))
	assert.Equal(t, expected[8:], doReadAll(t, r))

	stat, err := f.Stat(ctx)
	assert.NoError(t, err)
	assert.Equal(t, int64(len(expected)), stat.Size())

	// Reading again should provide no data, since the seek pointer is at the end.
	r = f.Reader(ctx)
	assert.Equal(t, "", doReadAll(t, r))
	doSeek(t, r, 9, io.SeekStart)
	assert.Equal(t, expected[9:], doReadAll(t, r))

	// Seek beyond the end of the file.
	doSeek(t, r, int64(len(expected)+1), io.SeekStart)
	assert.Equal(t, "", doReadAll(t, r))

	// Seek twice to the same offset.
	doSeek(t, r, 1, io.SeekStart)
	doSeek(t, r, 1, io.SeekStart)
	assert.Equal(t, expected[1:], doReadAll(t, r))

	doSeek(t, r, 20, io.SeekStart)
	doSeek(t, r, -6, io.SeekCurrent)
	assert.Equal(t, "friction", doRead(t, r, 8))

	doSeek(t, r, -6, io.SeekEnd)
	assert.Equal(t, "cells)", doReadAll(t, r))
	assert.NoError(t, f.Close(ctx))
}

// TestWrites tests file Write functions, including overwriting an
// existing file.
func TestWrites(ctx context.Context, t *testing.T, impl file.Implementation, dir string, opts Opts) {
	path := dir + "/tmp.txt"
	_ = impl.Remove(ctx, path)

	f, err := impl.Create(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, f.Name())
	n, err := f.Writer(ctx).Write([]byte("writetest"))
	assert.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, opts.VisibleOnCreate, fileExists(ctx, t, impl, path))
	assert.NoError(t, f.Close(ctx))
	assert.True(t, fileExists(ctx, t, impl, path))
	assert.Equal(t, "writetest", doReadFile(ctx, t, impl, path))

	// Overwrite the file.
	f, err = impl.Create(ctx, path)
	require.NoError(t, err)
	if opts.VisibleOnCreate {
		assert.Equal(t, "", doReadFile(ctx, t, impl, path))
	} else {
		assert.Equal(t, "writetest", doReadFile(ctx, t, impl, path))
	}
	n, err = f.Writer(ctx).Write([]byte("anotherwrite"))
	assert.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.NoError(t, f.Close(ctx))
	assert.Equal(t, "anotherwrite", doReadFile(ctx, t, impl, path))
}

// TestDiscard tests that a discarded file that did not exist is
// not created, unless Create made it visible already.
func TestDiscard(ctx context.Context, t *testing.T, impl file.Implementation, dir string, opts Opts) {
	path := dir + "/tmp.txt"
	_ = impl.Remove(ctx, path)

	f, err := impl.Create(ctx, path)
	require.NoError(t, err)
	_, err = f.Writer(ctx).Write([]byte("writetest"))
	assert.NoError(t, err)
	f.Discard(ctx)
	assert.Equal(t, opts.VisibleOnCreate, fileExists(ctx, t, impl, path))
}

// TestRemove tests file Remove() function.
func TestRemove(ctx context.Context, t *testing.T, impl file.Implementation, path string) {
	doWriteFile(ctx, t, impl, path, "removetest")
	assert.True(t, fileExists(ctx, t, impl, path))
	assert.NoError(t, impl.Remove(ctx, path))
	assert.False(t, fileExists(ctx, t, impl, path))
}

// TestStat tests Stat method implementations.
func TestStat(ctx context.Context, t *testing.T, impl file.Implementation, path string) {
	// {min,max}ModTime define the range of reasonable modtime for the test file.
	// We allow for 1 minute slack to account for clock skew on the file server.
	minModTime := time.Now().Add(-60 * time.Second)
	doWriteFile(ctx, t, impl, path, "stattest0")

	dir := path + "dir"
	doWriteFile(ctx, t, impl, dir+"/file", "stattest1")
	maxModTime := time.Now().Add(60 * time.Second)

	f, err := impl.Open(ctx, path)
	require.NoError(t, err)
	info, err := f.Stat(ctx)
	assert.NoError(t, f.Close(ctx))
	require.NoError(t, err)
	assert.Equal(t, int64(9), info.Size())
	assert.True(t, info.ModTime().After(minModTime) && info.ModTime().Before(maxModTime),
		"Info: %+v, min %+v, max %+v", info.ModTime(), minModTime, maxModTime)

	info2, err := impl.Stat(ctx, path)
	assert.NoError(t, err)
	assert.Equal(t, info.Size(), info2.Size())
	assert.True(t, info.ModTime().Equal(info2.ModTime()))

	// Stat on directory is not supported.
	_, err = impl.Stat(ctx, dir)
	assert.Error(t, err)
}

type dirEntry struct {
	path string
	size int64
}

func writeTree(ctx context.Context, t *testing.T, impl file.Implementation, dir string) {
	doWriteFile(ctx, t, impl, dir+"/f0.clh", "f0")
	doWriteFile(ctx, t, impl, dir+"/g0.clh", "g12")
	doWriteFile(ctx, t, impl, dir+"/d0.clc", "d0e1")
	doWriteFile(ctx, t, impl, dir+"/d0/f2.clc", "d0/f23")
	doWriteFile(ctx, t, impl, dir+"/d0/d1/f3.clc", "d0/f345")
}

func doList(ctx context.Context, t *testing.T, impl file.Implementation, prefix string, recursive bool) (ents []dirEntry) {
	lister := impl.List(ctx, prefix, recursive)
	for lister.Scan() {
		de := dirEntry{lister.Path(), 0}
		if !lister.IsDir() {
			de.size = lister.Info().Size()
		}
		ents = append(ents, de)
	}
	require.NoError(t, lister.Err())
	sort.Slice(ents, func(i, j int) bool { return ents[i].path < ents[j].path })
	return
}

// TestList tests recursive List implementations.
func TestList(ctx context.Context, t *testing.T, impl file.Implementation, dir string) {
	writeTree(ctx, t, impl, dir)
	assert.Equal(t, []dirEntry{
		{dir + "/d0.clc", 4},
		{dir + "/d0/d1/f3.clc", 7},
		{dir + "/d0/f2.clc", 6},
		{dir + "/f0.clh", 2},
		{dir + "/g0.clh", 3},
	}, doList(ctx, t, impl, dir, true))

	// List only lists files under the given directory.
	// So listing "d0" should exclude d0.clc.
	for _, prefix := range []string{dir + "/d0", dir + "/d0/"} {
		assert.Equal(t, []dirEntry{
			{dir + "/d0/d1/f3.clc", 7},
			{dir + "/d0/f2.clc", 6},
		}, doList(ctx, t, impl, prefix, true))
	}
	assert.Empty(t, doList(ctx, t, impl, dir+"/nonexistent", true))
}

// TestListDir tests non-recursive List implementations.
func TestListDir(ctx context.Context, t *testing.T, impl file.Implementation, dir string) {
	writeTree(ctx, t, impl, dir)
	assert.Equal(t, []dirEntry{
		{dir + "/d0", 0},
		{dir + "/d0.clc", 4},
		{dir + "/f0.clh", 2},
		{dir + "/g0.clh", 3},
	}, doList(ctx, t, impl, dir, false))

	for _, prefix := range []string{dir + "/d0", dir + "/d0/"} {
		assert.Equal(t, []dirEntry{
			{dir + "/d0/d1", 0},
			{dir + "/d0/f2.clc", 6},
		}, doList(ctx, t, impl, prefix, false))
	}
}

// TestAll runs all the tests in this package.
func TestAll(ctx context.Context, t *testing.T, impl file.Implementation, dir string, opts Opts) {
	iName := impl.String()

	t.Run(iName+"_Empty", func(t *testing.T) { TestEmpty(ctx, t, impl, dir+"/empty.txt") })
	t.Run(iName+"_NotExist", func(t *testing.T) { TestNotExist(ctx, t, impl, dir+"/notexist.txt") })
	t.Run(iName+"_Reads", func(t *testing.T) { TestReads(ctx, t, impl, dir+"/reads.txt") })
	t.Run(iName+"_Writes", func(t *testing.T) { TestWrites(ctx, t, impl, dir+"/writes", opts) })
	t.Run(iName+"_Discard", func(t *testing.T) { TestDiscard(ctx, t, impl, dir+"/discard", opts) })
	t.Run(iName+"_Remove", func(t *testing.T) { TestRemove(ctx, t, impl, dir+"/remove.txt") })
	t.Run(iName+"_Stat", func(t *testing.T) { TestStat(ctx, t, impl, dir+"/stat.txt") })
	t.Run(iName+"_List", func(t *testing.T) { TestList(ctx, t, impl, dir+"/match") })
	t.Run(iName+"_ListDir", func(t *testing.T) { TestListDir(ctx, t, impl, dir+"/dirmatch") })
}
