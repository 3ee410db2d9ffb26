// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fragments

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/gobwas/glob/syntax"
	"github.com/gobwas/glob/syntax/ast"
	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
)

// parseGlob parses a string that potentially contains glob metacharacters, and
// returns (nonglobprefix, hasglob). If the string does not contain any glob
// metacharacter, this function returns (str, false). Else, it returns the
// prefix of path elements up to the element containing a glob character.
//
// For example, parseGlob("kernels/cl/CL*.clh") returns ("kernels/cl/", true).
func parseGlob(str string) (string, bool, error) {
	node, err := syntax.Parse(str)
	if err != nil {
		return "", false, errors.E(errors.Invalid, err, "glob", str)
	}
	if node.Kind != ast.KindPattern || len(node.Children) == 0 {
		return str, false, nil
	}
	if node.Children[0].Kind != ast.KindText {
		return "", true, nil
	}
	if len(node.Children) == 1 {
		return str, false, nil
	}
	nonGlobPrefix := node.Children[0].Value.(ast.Text).Text
	if i := strings.LastIndexByte(nonGlobPrefix, '/'); i >= 0 {
		nonGlobPrefix = nonGlobPrefix[:i+1]
	} else {
		nonGlobPrefix = ""
	}
	return nonGlobPrefix, true, nil
}

// expandGlob expands the given glob string. "*" does not cross a '/', "**"
// does. If the string does not contain a glob metacharacter, or the glob
// matches nothing, it returns {str}.
//
// Local patterns are cleaned first, since local listings yield cleaned
// paths: "./kernels/*.clc" matches "kernels/CLFriction.clc".
func expandGlob(ctx context.Context, str string) ([]string, error) {
	pattern := str
	if scheme, _, err := file.ParsePath(str); err == nil && scheme == "" {
		pattern = filepath.Clean(str)
	}
	nonGlobPrefix, hasGlob, err := parseGlob(pattern)
	if err != nil {
		return nil, err
	}
	if !hasGlob {
		return []string{str}, nil
	}
	m, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, errors.E(errors.Invalid, err, "glob", str)
	}

	globSuffix := strings.TrimSuffix(pattern[len(nonGlobPrefix):], "/")
	recursive := len(strings.Split(globSuffix, "/")) > 1 || strings.Contains(globSuffix, "**")

	dir := nonGlobPrefix
	if dir == "" {
		dir = "."
	}
	lister := file.List(ctx, dir, recursive)
	var matches []string
	for lister.Scan() {
		if !lister.IsDir() && m.Match(lister.Path()) {
			matches = append(matches, lister.Path())
		}
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E(err, "glob", str)
	}
	if len(matches) == 0 {
		return []string{str}, nil
	}
	sort.Strings(matches)
	return matches, nil
}

// Expand expands each glob pattern in patterns and concatenates the results,
// preserving the order of patterns. Matches of a single pattern are in
// lexical order. Entries without glob metacharacters pass through unchanged,
// and so do patterns that match nothing, so that the combiner reports them
// as missing.
func Expand(ctx context.Context, patterns []string) ([]string, error) {
	var paths []string
	for _, pattern := range patterns {
		matches, err := expandGlob(ctx, pattern)
		if err != nil {
			return nil, err
		}
		paths = append(paths, matches...)
	}
	return paths, nil
}
