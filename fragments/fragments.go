// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fragments names the OpenCL kernel fragments that make up a
// combined kernel source, and builds fragment lists from manifests and glob
// patterns.
package fragments

import (
	"bufio"
	"bytes"
	"context"
	"strings"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
)

// DefaultOutput is the file the default fragments are combined into.
const DefaultOutput = "combined_files.txt"

// Default lists the kernel fragments in concatenation order: all headers
// (.clh) first, then the sources (.clc) that depend on them.
var Default = []string{
	"CLUniversalHeader.clh",
	"CLDomainCartesian.clh",
	"CLFriction.clh",
	"CLSolverHLLC.clh",
	"CLDynamicTimestep.clh",
	"CLSchemePromaides.clh",
	"CLBoundaries.clh",
	"CLDomainCartesian.clc",
	"CLFriction.clc",
	"CLSolverHLLC.clc",
	"CLDynamicTimestep.clc",
	"CLSchemePromaides.clc",
	"CLBoundaries.clc",
}

// ReadManifest reads a fragment manifest: one path per line, in
// concatenation order. Surrounding whitespace is trimmed, and blank lines and
// lines starting with '#' are skipped. Relative entries are resolved against
// the manifest's directory.
func ReadManifest(ctx context.Context, path string) ([]string, error) {
	data, err := file.ReadFile(ctx, path)
	if err != nil {
		return nil, errors.E(err, "read manifest", path)
	}
	var paths []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(errors.Invalid, err, "parse manifest", path)
	}
	return Resolve(file.Dir(path), paths), nil
}

// Resolve returns paths with every relative local entry joined onto dir.
// Absolute paths and URLs are returned unchanged, as is everything when dir
// is empty or ".".
func Resolve(dir string, paths []string) []string {
	resolved := make([]string, len(paths))
	for i, p := range paths {
		if dir == "" || dir == "." || file.IsAbs(p) {
			resolved[i] = p
			continue
		}
		resolved[i] = file.Join(dir, p)
	}
	return resolved
}
