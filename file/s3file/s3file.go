// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package s3file implements the file.Implementation interface for S3.
//
// Objects are read with ranged GetObject requests. Objects opened with
// Create are buffered in memory and uploaded with a single PutObject when the
// file is closed, so an S3 object only appears, or is replaced, once Close
// succeeds. Requests that fail with a transient error (errors.Unavailable)
// are retried according to Options.RetryPolicy.
package s3file

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/file"
	"github.com/grailbio/clcombine/retry"
)

// Path separator used by s3file.
const pathSeparator = "/"

// Options defines options that can be given when creating an s3Impl.
type Options struct {
	// RetryPolicy decides whether and when a request that failed with a
	// transient error is tried again. If nil, DefaultRetryPolicy is used.
	RetryPolicy retry.Policy
}

type s3Impl struct {
	provider ClientProvider
	policy   retry.Policy
}

// NewImplementation creates a new file.Implementation for S3. The provider is
// called to create s3 client objects.
func NewImplementation(provider ClientProvider, opts Options) file.Implementation {
	policy := opts.RetryPolicy
	if policy == nil {
		policy = DefaultRetryPolicy
	}
	return &s3Impl{provider, policy}
}

// String implements a human-readable description.
func (impl *s3Impl) String() string { return "s3" }

// ParseURL parses a path of form "s3://bucket/key" and returns (scheme,
// bucket, key).
func ParseURL(url string) (scheme, bucket, key string, err error) {
	scheme, suffix, err := file.ParsePath(url)
	if err != nil {
		return "", "", "", err
	}
	parts := strings.SplitN(suffix, pathSeparator, 2)
	if len(parts) == 1 {
		return scheme, parts[0], "", nil
	}
	return scheme, parts[0], parts[1], nil
}

func (impl *s3Impl) client(ctx context.Context, op, path string) (bucket, key string, client s3iface.S3API, err error) {
	_, bucket, key, err = ParseURL(path)
	if err != nil {
		return "", "", nil, errors.E(errors.Invalid, err)
	}
	if bucket == "" {
		return "", "", nil, errors.E(errors.Invalid, fmt.Sprintf("%s %s: no bucket in path", op, path))
	}
	client, err = impl.provider.Get(ctx, op, path)
	return bucket, key, client, err
}

// Open opens a file for reading. The object's metadata is fetched eagerly so
// that missing objects are reported by Open, not by the first read.
func (impl *s3Impl) Open(ctx context.Context, path string) (file.File, error) {
	bucket, key, client, err := impl.client(ctx, "GetObject", path)
	if err != nil {
		return nil, err
	}
	info, err := impl.stat(ctx, client, path, bucket, key)
	if err != nil {
		return nil, err
	}
	return &s3File{
		name:   path,
		client: client,
		policy: impl.policy,
		mode:   readonly,
		bucket: bucket,
		key:    key,
		info:   info,
	}, nil
}

// Create opens a file for writing.
func (impl *s3Impl) Create(ctx context.Context, path string) (file.File, error) {
	bucket, key, client, err := impl.client(ctx, "PutObject", path)
	if err != nil {
		return nil, err
	}
	if key == "" {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("create %s: empty key", path))
	}
	return &s3File{
		name:   path,
		client: client,
		policy: impl.policy,
		mode:   writeonly,
		bucket: bucket,
		key:    key,
	}, nil
}

// Stat implements file.Implementation.
func (impl *s3Impl) Stat(ctx context.Context, path string) (file.Info, error) {
	bucket, key, client, err := impl.client(ctx, "GetObject", path)
	if err != nil {
		return nil, err
	}
	return impl.stat(ctx, client, path, bucket, key)
}

func (impl *s3Impl) stat(ctx context.Context, client s3iface.S3API, path, bucket, key string) (*s3Info, error) {
	if key == "" {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("stat %s: empty key", path))
	}
	var output *s3.HeadObjectOutput
	err := do(ctx, impl.policy, "HeadObject", path, func() (err error) {
		output, err = client.HeadObjectWithContext(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return annotate(err, "s3file.stat", path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	info := &s3Info{
		size: aws.Int64Value(output.ContentLength),
		etag: aws.StringValue(output.ETag),
	}
	if output.LastModified != nil {
		info.modTime = *output.LastModified
	}
	return info, nil
}

// Remove implements file.Implementation.
func (impl *s3Impl) Remove(ctx context.Context, path string) error {
	bucket, key, client, err := impl.client(ctx, "DeleteObject", path)
	if err != nil {
		return err
	}
	return do(ctx, impl.policy, "DeleteObject", path, func() error {
		if _, err := client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		}); err != nil {
			return annotate(err, "s3file.remove", path)
		}
		return nil
	})
}
