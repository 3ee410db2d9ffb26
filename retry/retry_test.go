// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package retry_test

import (
	"context"
	"testing"
	"time"

	"github.com/grailbio/clcombine/errors"
	"github.com/grailbio/clcombine/retry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPolicies(t *testing.T) {
	const s = time.Second
	for _, test := range []struct {
		name     string
		policy   retry.Policy
		first    int
		min, max []time.Duration
	}{
		{
			name:   "backoff",
			policy: retry.Backoff(s, 10*s, 2),
			min:    []time.Duration{s, 2 * s, 4 * s, 8 * s, 10 * s, 10 * s},
			max:    []time.Duration{s, 2 * s, 4 * s, 8 * s, 10 * s, 10 * s},
		},
		{
			// Large retry counts must not overflow the wait.
			name:   "backoff overflow",
			policy: retry.Backoff(s, 10*s, 2),
			first:  1000,
			min:    []time.Duration{10 * s, 10 * s, 10 * s},
			max:    []time.Duration{10 * s, 10 * s, 10 * s},
		},
		{
			name:   "full jitter",
			policy: retry.Jitter(retry.Backoff(s, 10*s, 2), 1),
			min:    []time.Duration{0, 0, 0, 0, 0},
			max:    []time.Duration{s, 2 * s, 4 * s, 8 * s, 10 * s},
		},
		{
			name:   "equal jitter",
			policy: retry.Jitter(retry.Backoff(s, 10*s, 2), 0.5),
			min:    []time.Duration{s / 2, s, 2 * s, 4 * s, 5 * s},
			max:    []time.Duration{s, 2 * s, 4 * s, 8 * s, 10 * s},
		},
		{
			name:   "max tries",
			policy: retry.MaxTries(retry.Backoff(s, s, 1), 3),
			min:    []time.Duration{s, s},
			max:    []time.Duration{s, s},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			for i := range test.min {
				keepgoing, wait := test.policy.Retry(test.first + i)
				require.True(t, keepgoing, "retry %d", test.first+i)
				assert.True(t, wait >= test.min[i] && wait <= test.max[i],
					"retry %d: wait %v not in [%v, %v]", test.first+i, wait, test.min[i], test.max[i])
			}
		})
	}
}

func TestMaxTries(t *testing.T) {
	policy := retry.MaxTries(nil, 3)
	for retries := 0; retries < 2; retries++ {
		keepgoing, wait := policy.Retry(retries)
		assert.True(t, keepgoing)
		assert.Equal(t, time.Duration(0), wait)
	}
	keepgoing, _ := policy.Retry(2)
	assert.False(t, keepgoing)

	err := retry.Wait(context.Background(), policy, 2)
	assert.True(t, errors.Is(errors.TooManyTries, err), "got %v", err)
	assert.NoError(t, retry.Wait(context.Background(), policy, 0))
	assert.Panics(t, func() { retry.MaxTries(nil, 0) })
}

func TestWaitContext(t *testing.T) {
	policy := retry.Backoff(time.Hour, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, context.Canceled, retry.Wait(ctx, policy, 0))

	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := retry.Wait(ctx, policy, 0)
	assert.True(t, errors.Is(errors.Timeout, err), "got %v", err)
}
