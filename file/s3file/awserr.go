// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package s3file

import (
	"github.com/aws/aws-sdk-go/aws/awserr"
	awsrequest "github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/grailbio/clcombine/errors"
)

// annotate interprets err as an AWS request error and returns a version of it
// annotated with a kind from the errors package. The optional args are passed
// to errors.E.
func annotate(err error, args ...interface{}) error {
	args = append([]interface{}{err}, args...)
	aerr, ok := err.(awserr.Error)
	if !ok {
		return errors.E(args...)
	}
	switch aerr.Code() {
	// Code NotFound is not documented, but it's what HeadObject actually returns.
	case s3.ErrCodeNoSuchBucket, s3.ErrCodeNoSuchKey, "NotFound":
		args = append(args, errors.NotExist)
	case "AccessDenied", "Forbidden":
		args = append(args, errors.NotAllowed)
	case awsrequest.CanceledErrorCode:
		args = append(args, errors.Canceled)
	case "InvalidRequest", "InvalidArgument", "KeyTooLong":
		args = append(args, errors.Invalid)
	// The object changed since it was opened.
	case "PreconditionFailed":
		args = append(args, errors.Precondition)
	case "InternalError", "ServiceUnavailable", "SlowDown", "RequestTimeout", "RequestError":
		args = append(args, errors.Unavailable)
	}
	return errors.E(args...)
}
