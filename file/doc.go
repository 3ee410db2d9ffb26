// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package file provides basic file operations across multiple file-system
// types, so that kernel fragments and combined outputs can live on the local
// file system or in S3 without the caller caring which.
//
// This package defines two key interfaces, Implementation and File.
//
// - Implementation provides filesystem operations, such as Open, Create,
// Remove, and List (directory walking).
//
// - File implements operations on a file. It is created by
// Implementation.{Open,Create} calls. A File does not implement io.Reader or
// io.Writer directly; call File.Reader or File.Writer so that different
// contexts can be passed to different I/O operations.
//
// Registering a filesystem implementation
//
// Function RegisterImplementation associates an implementation with a scheme
// such as "s3". The local file system is available without registration and
// handles every path that has no "scheme://" prefix:
//
//   func main() {
//     file.RegisterImplementation("s3", func() file.Implementation {
//       return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
//     })
//     ctx := context.Background()
//     data, err := file.ReadFile(ctx, "s3://kernels/CLFriction.clc")
//     ...
//   }
//
// Local files
//
// Create on the local file system truncates the target in place and creates
// missing parent directories. Close fsyncs regular files. A run that fails
// after Create leaves the partial file on disk.
//
// Pathname utility functions
//
// Functions file.Dir and file.Join work like filepath.{Dir,Join}, except
// that they handle URL pathnames. For example, file.Join("s3://foo", "bar")
// returns "s3://foo/bar", whereas filepath.Join("s3://foo", "bar") would
// return "s3:/foo/bar".
package file
