// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/gogama/requests/request"
)

// A Policy controls if and how a failed attempt is retried. After every
// failed attempt, a Policy decides whether a retry should be done and,
// if so, how long the wait period should be before the request is
// materialized again.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy retries transient errors within the request's retry
// budget and retries immediately. It is a composition of DefaultDecider
// and Immediate.
var DefaultPolicy = NewPolicy(DefaultDecider, Immediate)

// Never is a policy that never retries, whatever the request's retry
// budget.
var Never = NewPolicy(Times(0), Immediate)

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("requests/retry: nil decider")
	}
	if w == nil {
		panic("requests/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(a *request.Attempt) bool {
	return p.decider.Decide(a)
}

func (p policy) Wait(a *request.Attempt) time.Duration {
	return p.waiter.Wait(a)
}
