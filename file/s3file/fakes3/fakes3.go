// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fakes3 provides an in-memory implementation of the subset of
// s3iface.S3API used by package s3file. It is meant for tests.
package fakes3

import (
	"bytes"
	"crypto/md5"
	"fmt"
	"io/ioutil"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

type object struct {
	data    []byte
	modTime time.Time
	etag    string
}

// Client is a fake S3 client holding objects for a fixed set of buckets.
// Calling an S3 method it does not implement panics.
type Client struct {
	s3iface.S3API

	mu      sync.Mutex
	buckets map[string]map[string]object
	// Denied lists "bucket/key" paths for which every request fails with
	// AccessDenied.
	Denied map[string]bool
	// failures counts the injected failures left per operation.
	failures map[string]int
}

// New returns a client that serves the given, initially empty, buckets.
func New(buckets ...string) *Client {
	c := &Client{
		buckets:  make(map[string]map[string]object),
		Denied:   make(map[string]bool),
		failures: make(map[string]int),
	}
	for _, b := range buckets {
		c.buckets[b] = make(map[string]object)
	}
	return c
}

// SetObject stores data at bucket/key, replacing any existing object.
func (c *Client) SetObject(bucket, key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buckets[bucket][key] = newObject(data)
}

// Object returns the contents of bucket/key and whether it exists.
func (c *Client) Object(bucket, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	obj, ok := c.buckets[bucket][key]
	return obj.data, ok
}

// FailNext makes the next n calls of op, e.g. "GetObject", fail with a
// ServiceUnavailable error.
func (c *Client) FailNext(op string, n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op] = n
}

// injected returns the error of an injected failure of op, if any.
//
// REQUIRES: c.mu is locked
func (c *Client) injected(op string) error {
	if c.failures[op] == 0 {
		return nil
	}
	c.failures[op]--
	return awserr.New("ServiceUnavailable", op+": injected failure", nil)
}

func newObject(data []byte) object {
	return object{
		data:    append([]byte{}, data...),
		modTime: time.Now(),
		etag:    fmt.Sprintf("%x", md5.Sum(data)),
	}
}

// lookup returns the bucket's objects or an error.
//
// REQUIRES: c.mu is locked
func (c *Client) lookup(bucket, key *string) (map[string]object, error) {
	b, ok := c.buckets[aws.StringValue(bucket)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchBucket, "no such bucket", nil)
	}
	if key != nil && c.Denied[aws.StringValue(bucket)+"/"+aws.StringValue(key)] {
		return nil, awserr.New("AccessDenied", "access denied", nil)
	}
	return b, nil
}

// HeadObjectWithContext implements s3iface.S3API.
func (c *Client) HeadObjectWithContext(_ aws.Context, in *s3.HeadObjectInput, _ ...request.Option) (*s3.HeadObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.injected("HeadObject"); err != nil {
		return nil, err
	}
	b, err := c.lookup(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	obj, ok := b[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New("NotFound", "not found", nil)
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		ETag:          aws.String(obj.etag),
		LastModified:  aws.Time(obj.modTime),
	}, nil
}

// GetObjectWithContext implements s3iface.S3API. Only ranges of the form
// "bytes=N-" are supported.
func (c *Client) GetObjectWithContext(_ aws.Context, in *s3.GetObjectInput, _ ...request.Option) (*s3.GetObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.injected("GetObject"); err != nil {
		return nil, err
	}
	b, err := c.lookup(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	obj, ok := b[aws.StringValue(in.Key)]
	if !ok {
		return nil, awserr.New(s3.ErrCodeNoSuchKey, "no such key", nil)
	}
	if in.IfMatch != nil && *in.IfMatch != obj.etag {
		return nil, awserr.New("PreconditionFailed", "etag mismatch", nil)
	}
	data := obj.data
	if r := aws.StringValue(in.Range); r != "" {
		start, err := strconv.ParseInt(strings.TrimSuffix(strings.TrimPrefix(r, "bytes="), "-"), 10, 64)
		if err != nil || start > int64(len(data)) {
			return nil, awserr.New("InvalidRange", "bad range "+r, nil)
		}
		data = data[start:]
	}
	return &s3.GetObjectOutput{
		Body:          ioutil.NopCloser(bytes.NewReader(data)),
		ContentLength: aws.Int64(int64(len(data))),
		ETag:          aws.String(obj.etag),
	}, nil
}

// PutObjectWithContext implements s3iface.S3API.
func (c *Client) PutObjectWithContext(_ aws.Context, in *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	var data []byte
	if in.Body != nil {
		var err error
		if data, err = ioutil.ReadAll(in.Body); err != nil {
			return nil, err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.injected("PutObject"); err != nil {
		return nil, err
	}
	b, err := c.lookup(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	obj := newObject(data)
	b[aws.StringValue(in.Key)] = obj
	return &s3.PutObjectOutput{ETag: aws.String(obj.etag)}, nil
}

// DeleteObjectWithContext implements s3iface.S3API.
func (c *Client) DeleteObjectWithContext(_ aws.Context, in *s3.DeleteObjectInput, _ ...request.Option) (*s3.DeleteObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.injected("DeleteObject"); err != nil {
		return nil, err
	}
	b, err := c.lookup(in.Bucket, in.Key)
	if err != nil {
		return nil, err
	}
	delete(b, aws.StringValue(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

// ListObjectsV2PagesWithContext implements s3iface.S3API. All results are
// returned in a single page.
func (c *Client) ListObjectsV2PagesWithContext(_ aws.Context, in *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool, _ ...request.Option) error {
	c.mu.Lock()
	if err := c.injected("ListObjectsV2"); err != nil {
		c.mu.Unlock()
		return err
	}
	b, err := c.lookup(in.Bucket, nil)
	if err != nil {
		c.mu.Unlock()
		return err
	}
	var (
		prefix    = aws.StringValue(in.Prefix)
		delimiter = aws.StringValue(in.Delimiter)
		keys      []string
		seen      = make(map[string]bool)
		out       s3.ListObjectsV2Output
	)
	for key := range b {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	for _, key := range keys {
		if delimiter != "" {
			if i := strings.Index(key[len(prefix):], delimiter); i >= 0 {
				cp := key[:len(prefix)+i+len(delimiter)]
				if !seen[cp] {
					seen[cp] = true
					out.CommonPrefixes = append(out.CommonPrefixes, &s3.CommonPrefix{Prefix: aws.String(cp)})
				}
				continue
			}
		}
		obj := b[key]
		out.Contents = append(out.Contents, &s3.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.data))),
			ETag:         aws.String(obj.etag),
			LastModified: aws.Time(obj.modTime),
		})
	}
	c.mu.Unlock()
	fn(&out, true)
	return nil
}
