// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package s3file

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/grailbio/clcombine/errors"
)

const defaultRegion = "us-west-2"

// ClientProvider is responsible for creating an S3 client object.  Get() is
// called whenever an s3 file needs to access S3. The provider should cache and
// reuse the client objects. The implementation must be thread safe.
type ClientProvider interface {
	// Get returns an S3 client that can be used to perform "op" on "path".
	//
	// "op" is an S3 operation name, for example "GetObject" or "PutObject".
	// Path is a full URL of form "s3://bucket/key".
	Get(ctx context.Context, op, path string) (s3iface.S3API, error)
}

// NewDefaultProvider creates a ClientProvider that builds a single client
// from an AWS session created with session.NewSessionWithOptions(opts). If
// opts.Config.Region is unset, us-west-2 is used.
func NewDefaultProvider(opts session.Options) ClientProvider {
	if opts.Config.Region == nil {
		opts.Config.Region = aws.String(defaultRegion)
	}
	return &defaultProvider{opts: opts}
}

type defaultProvider struct {
	opts session.Options

	once   sync.Once
	client s3iface.S3API
	err    error
}

func (p *defaultProvider) Get(ctx context.Context, op, path string) (s3iface.S3API, error) {
	p.once.Do(func() {
		sess, err := session.NewSessionWithOptions(p.opts)
		if err != nil {
			p.err = errors.E(err, "s3file: create session")
			return
		}
		p.client = s3.New(sess)
	})
	return p.client, p.err
}

// NewStaticProvider returns a ClientProvider that always returns the given
// client.
func NewStaticProvider(client s3iface.S3API) ClientProvider {
	return staticProvider{client}
}

type staticProvider struct{ client s3iface.S3API }

func (p staticProvider) Get(context.Context, string, string) (s3iface.S3API, error) {
	return p.client, nil
}
