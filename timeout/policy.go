// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/gogama/requests/request"
)

// A Policy decides the timeout of the next attempt of a request.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the next attempt.
	//
	// Parameter requested is the timeout configured on the request.
	// Parameter prev is the attempt which failed and is being retried,
	// or nil for the initial attempt. A return value of zero or less
	// means the attempt has no timeout of its own.
	Timeout(requested time.Duration, prev *request.Attempt) time.Duration
}

// Requested is the default timeout policy. It uses the timeout
// configured on the request for every attempt.
var Requested Policy = requestedPolicy{}

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(0)

type requestedPolicy struct{}

func (requestedPolicy) Timeout(requested time.Duration, _ *request.Attempt) time.Duration {
	return requested
}

// Fixed constructs a timeout policy that uses d for every attempt,
// whatever timeout the request configured.
func Fixed(d time.Duration) Policy {
	return fixedPolicy(d)
}

type fixedPolicy time.Duration

func (p fixedPolicy) Timeout(_ time.Duration, _ *request.Attempt) time.Duration {
	return time.Duration(p)
}

// Adaptive constructs a timeout policy which uses the requested timeout
// unless the previous attempt timed out. After a timeout it uses the
// values in after, one per retry; the last value repeats.
//
// Use Adaptive to give a slow server more time on a retry after it
// timed out, while keeping the usual timeout tight.
func Adaptive(after ...time.Duration) Policy {
	p := make([]time.Duration, len(after))
	copy(p, after)
	return adaptivePolicy(p)
}

type adaptivePolicy []time.Duration

func (p adaptivePolicy) Timeout(requested time.Duration, prev *request.Attempt) time.Duration {
	if prev == nil || !prev.Timeout() || len(p) == 0 {
		return requested
	}

	i := prev.Index
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
