// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package s3file

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/grailbio/clcombine/file"
)

// List implements file.Implementation interface. The dir prefix is treated as
// a directory: "s3://b/kernels" lists keys under "kernels/". Entries are
// returned in lexical order.
func (impl *s3Impl) List(ctx context.Context, dir string, recurse bool) file.Lister {
	bucket, key, client, err := impl.client(ctx, "ListBucket", dir)
	if err != nil {
		return &s3Lister{err: err}
	}
	prefix := key
	if prefix != "" && !strings.HasSuffix(prefix, pathSeparator) {
		prefix += pathSeparator
	}
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	if !recurse {
		input.Delimiter = aws.String(pathSeparator)
	}
	l := &s3Lister{i: -1}
	base := "s3://" + bucket + pathSeparator
	err = do(ctx, impl.policy, "ListObjectsV2", dir, func() error {
		l.entries = l.entries[:0]
		err := client.ListObjectsV2PagesWithContext(ctx, input,
			func(page *s3.ListObjectsV2Output, lastPage bool) bool {
				for _, cp := range page.CommonPrefixes {
					p := strings.TrimSuffix(aws.StringValue(cp.Prefix), pathSeparator)
					l.entries = append(l.entries, s3Entry{path: base + p, isDir: true})
				}
				for _, obj := range page.Contents {
					k := aws.StringValue(obj.Key)
					if strings.HasSuffix(k, pathSeparator) {
						// Directory marker objects.
						continue
					}
					e := s3Entry{path: base + k, info: &s3Info{
						size: aws.Int64Value(obj.Size),
						etag: aws.StringValue(obj.ETag),
					}}
					if obj.LastModified != nil {
						e.info.modTime = *obj.LastModified
					}
					l.entries = append(l.entries, e)
				}
				return true
			})
		if err != nil {
			return annotate(err, "s3file.list", dir)
		}
		return nil
	})
	if err != nil {
		return &s3Lister{err: err}
	}
	// S3 reports common prefixes and objects separately; merge them.
	sort.Slice(l.entries, func(i, j int) bool { return l.entries[i].path < l.entries[j].path })
	return l
}

type s3Entry struct {
	path  string
	isDir bool
	info  *s3Info
}

// s3Lister implements file.Lister over a fully fetched listing.
type s3Lister struct {
	entries []s3Entry
	i       int
	err     error
}

// Scan implements file.Lister.Scan.
func (l *s3Lister) Scan() bool {
	if l.err != nil || l.i+1 >= len(l.entries) {
		return false
	}
	l.i++
	return true
}

// Err implements file.Lister.Err.
func (l *s3Lister) Err() error { return l.err }

// Path implements file.Lister.Path.
func (l *s3Lister) Path() string { return l.entries[l.i].path }

// IsDir implements file.Lister.IsDir.
func (l *s3Lister) IsDir() bool { return l.entries[l.i].isDir }

// Info implements file.Lister.Info.
func (l *s3Lister) Info() file.Info {
	if e := l.entries[l.i]; !e.isDir {
		return e.info
	}
	return nil
}
