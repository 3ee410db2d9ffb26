// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package file

import (
	"fmt"
	"path/filepath"
	"strings"
)

const schemeSep = "://"

// isSchemeChar reports whether c may appear in a URL scheme (RFC 3986,
// plus '=').
func isSchemeChar(c rune) bool {
	return c >= '0' && c <= '9' || c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' ||
		c == '.' || c == '+' || c == '='
}

// ParsePath splits path into its scheme and the rest. A path such as
// "s3://bucket/kernels/CLFriction.clh" yields ("s3",
// "bucket/kernels/CLFriction.clh"). A path without a scheme names a
// local file and yields ("", path). A scheme followed by ':' but not
// "://" is an error.
func ParsePath(path string) (scheme, suffix string, err error) {
	i := strings.IndexFunc(path, func(c rune) bool { return !isSchemeChar(c) })
	if i <= 0 || path[i] != ':' {
		return "", path, nil
	}
	if !strings.HasPrefix(path[i:], schemeSep) {
		return "", "", fmt.Errorf("parsepath %s: a URL must start with 'scheme://'", path)
	}
	return path[:i], path[i+len(schemeSep):], nil
}

// Dir returns all but the last element of path, as filepath.Dir does for
// local paths. For URLs the separator is always '/', trailing slashes
// before the last element are dropped, and a URL with no '/' after its
// scheme yields "scheme://".
func Dir(path string) string {
	scheme, suffix, err := ParsePath(path)
	if scheme == "" || err != nil {
		return filepath.Dir(path)
	}
	prefix := scheme + schemeSep
	i := strings.LastIndexByte(suffix, '/')
	if i < 0 {
		return prefix
	}
	dir := strings.TrimRight(suffix[:i], "/")
	if dir == "" {
		dir = suffix[:1]
	}
	return prefix + dir
}

// Join joins path elements. Local paths are joined and cleaned by
// filepath.Join. When the first element is a URL, elements are joined
// with '/' after trimming their leading and trailing slashes; empty
// elements are skipped and the elements are otherwise left as is.
func Join(elems ...string) string {
	if len(elems) == 0 {
		return ""
	}
	scheme, suffix, err := ParsePath(elems[0])
	if scheme == "" || err != nil {
		return filepath.Join(elems...)
	}
	parts := make([]string, 0, len(elems))
	for _, e := range append([]string{suffix}, elems[1:]...) {
		if e = strings.Trim(e, "/"); e != "" {
			parts = append(parts, e)
		}
	}
	return scheme + schemeSep + strings.Join(parts, "/")
}

// IsAbs reports whether path is absolute. URLs are always absolute.
func IsAbs(path string) bool {
	if scheme, _, err := ParsePath(path); scheme == "" || err != nil {
		return filepath.IsAbs(path)
	}
	return true
}
