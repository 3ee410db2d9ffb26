// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/log"
)

type localImpl struct{}

type accessMode int

const (
	readonly      accessMode = iota // file opened by Open.
	writeonlyFile                   // regular file opened by Create.
	writeonlyDev                    // device, pipe or socket opened by Create.
)

type localInfo struct {
	size    int64
	modTime time.Time
}

type localFile struct {
	f    *os.File
	mode accessMode
	path string // User-supplied path.
}

type localLister struct {
	prefix  string
	err     error
	path    string
	info    os.FileInfo
	todo    []string
	recurse bool
}

func (impl *localImpl) String() string {
	return "local"
}

// Open implements file.Implementation. Opening a directory fails with
// errors.Invalid.
func (impl *localImpl) Open(ctx context.Context, path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.E(err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close() // nolint: errcheck
		return nil, errors.E(err)
	}
	if info.IsDir() {
		f.Close() // nolint: errcheck
		return nil, errors.E(errors.Invalid, fmt.Sprintf("open %s: is a directory", path))
	}
	return &localFile{f: f, mode: readonly, path: path}, nil
}

// Create implements file.Implementation. Unlike a write-then-rename scheme,
// the file is truncated in place: once Create returns, the path exists and
// is empty, and a writer that fails midway leaves whatever it had written.
// Missing parent directories are created.
func (*localImpl) Create(ctx context.Context, path string) (File, error) {
	if path == "" { // Detect common errors quickly.
		return nil, errors.E(errors.Invalid, "file.Create: empty pathname")
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0777); err != nil {
		log.Error.Printf("mkdir %v: error %v", dir, err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return nil, errors.E(err)
	}
	mode := writeonlyFile
	if info, err := f.Stat(); err == nil && !info.Mode().IsRegular() {
		mode = writeonlyDev
	}
	return &localFile{f: f, mode: mode, path: path}, nil
}

// Close implements file.File. Regular files opened by Create are synced
// before they are closed.
func (f *localFile) Close(ctx context.Context) error {
	if f.mode != writeonlyFile {
		return f.f.Close()
	}
	err := f.f.Sync()
	if e := f.f.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return errors.E(err)
	}
	return nil
}

// Discard implements file.File. The local file system has no pending state,
// so Discard just releases the descriptor; contents written so far remain.
func (f *localFile) Discard(ctx context.Context) {
	if err := f.f.Close(); err != nil {
		log.Printf("discard %s: close: %v", f.Name(), err)
	}
}

// String implements file.File.
func (f *localFile) String() string {
	return f.path
}

// Name implements file.File.
func (f *localFile) Name() string {
	return f.path
}

// Reader implements file.File
func (f *localFile) Reader(context.Context) io.ReadSeeker {
	if f.mode != readonly {
		return NewError(fmt.Errorf("reader %v: file is not opened in read mode", f.Name()))
	}
	return f.f
}

// Writer implements file.File
func (f *localFile) Writer(context.Context) io.Writer {
	if f.mode == readonly {
		return NewError(fmt.Errorf("writer %v: file is not opened in write mode", f.Name()))
	}
	return f.f
}

// List implements file.Implementation
func (impl *localImpl) List(ctx context.Context, prefix string, recurse bool) Lister {
	return &localLister{prefix: prefix, todo: []string{prefix}, recurse: recurse}
}

// Remove implements file.Implementation.
func (*localImpl) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return errors.E(err)
	}
	return nil
}

// Stat implements file.Implementation
func (impl *localImpl) Stat(ctx context.Context, path string) (Info, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.E(err)
	}
	if info.IsDir() {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("stat %v: is a directory", path))
	}
	return &localInfo{size: info.Size(), modTime: info.ModTime()}, nil
}

// Stat implements file.File
func (f *localFile) Stat(context.Context) (Info, error) {
	info, err := f.f.Stat()
	if err != nil {
		return nil, errors.E(err)
	}
	return &localInfo{size: info.Size(), modTime: info.ModTime()}, nil
}

func (i *localInfo) Size() int64        { return i.size }
func (i *localInfo) ModTime() time.Time { return i.modTime }

// Scan implements Lister.Scan.
func (l *localLister) Scan() bool {
	for {
		if len(l.todo) == 0 || l.err != nil {
			return false
		}
		l.path, l.todo = l.todo[0], l.todo[1:]
		l.info, l.err = os.Stat(l.path)
		if os.IsNotExist(l.err) {
			l.err = nil
			continue
		}
		if l.err != nil {
			return false
		}
		if !l.info.IsDir() {
			return true
		}
		if l.recurse || l.path == l.prefix {
			var paths []string
			paths, l.err = readDirNames(l.path)
			if l.err != nil {
				return false
			}
			for i := range paths {
				paths[i] = filepath.Join(l.path, paths[i])
			}
			l.todo = append(paths, l.todo...)
		}
		if !l.recurse && l.path != l.prefix {
			return true
		}
	}
}

// Path returns the most recent path that was scanned.
func (l *localLister) Path() string {
	return l.path
}

// Info returns the metadata for the most recent path scanned, or nil if
// IsDir() is true.
func (l *localLister) Info() Info {
	if l.info.IsDir() {
		return nil
	}
	return &localInfo{size: l.info.Size(), modTime: l.info.ModTime()}
}

// IsDir reports whether the most recent path scanned is a directory.
func (l *localLister) IsDir() bool {
	return l.info.IsDir()
}

// Err returns the first error that occurred while scanning.
func (l *localLister) Err() error {
	return l.err
}

// readDirNames reads the directory named by dirname and returns
// a sorted list of directory entries.
func readDirNames(dirname string) ([]string, error) {
	f, err := os.Open(dirname)
	if err != nil {
		return nil, err
	}
	names, err := f.Readdirnames(-1)
	if e := f.Close(); e != nil && err == nil {
		err = e
	}
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// NewLocalImplementation returns a new file.Implementation for the local file
// system that uses Go's native "os" module. Applications should use functions
// such as file.Open and file.Create rather than calling it directly.
func NewLocalImplementation() Implementation { return &localImpl{} }
