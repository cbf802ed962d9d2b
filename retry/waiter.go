// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gogama/requests/request"
)

// A Waiter says how long a request sleeps between a failed attempt
// and its retry. The attempt passed to Wait is the failed one, so its
// Index is the number of retries already made.
//
// A Waiter is shared by every request of a Session and must be safe
// for concurrent use.
type Waiter interface {
	Wait(a *request.Attempt) time.Duration
}

// Immediate retries without sleeping.
var Immediate Waiter = fixedWaiter(0)

// DefaultWaiter sleeps a random duration below an exponential ceiling
// that starts at 50 milliseconds and is capped at 1 second.
var DefaultWaiter = WithJitter(NewExpWaiter(50*time.Millisecond, time.Second), nil)

// NewFixedWaiter returns a Waiter that always sleeps d.
func NewFixedWaiter(d time.Duration) Waiter {
	return fixedWaiter(d)
}

type fixedWaiter time.Duration

func (w fixedWaiter) Wait(_ *request.Attempt) time.Duration {
	return time.Duration(w)
}

// NewExpWaiter returns a Waiter that sleeps base before the first
// retry and doubles the sleep for each further retry, never sleeping
// longer than max. It panics unless 0 < base <= max.
func NewExpWaiter(base, max time.Duration) Waiter {
	if base <= 0 {
		panic("requests/retry: base must be positive")
	}
	if max < base {
		panic("requests/retry: max must be at least base")
	}
	return expWaiter{base: base, max: max}
}

type expWaiter struct {
	base, max time.Duration
}

func (w expWaiter) Wait(a *request.Attempt) time.Duration {
	d := w.base
	for i := 0; i < a.Index; i++ {
		if d > w.max/2 {
			return w.max
		}
		d *= 2
	}
	return min(d, w.max)
}

// WithJitter returns a Waiter that sleeps a uniformly random duration
// in [0, w.Wait(a)), the "full jitter" scheme, so requests failing
// together do not retry together. Random numbers come from src, or
// from the math/rand/v2 top-level generator if src is nil.
func WithJitter(w Waiter, src rand.Source) Waiter {
	if w == nil {
		panic("requests/retry: nil waiter")
	}
	j := &jitterWaiter{w: w}
	if src != nil {
		j.rand = rand.New(src)
	}
	return j
}

type jitterWaiter struct {
	w    Waiter
	lock sync.Mutex
	rand *rand.Rand
}

func (j *jitterWaiter) Wait(a *request.Attempt) time.Duration {
	ceil := int64(j.w.Wait(a))
	if ceil <= 0 {
		return 0
	}
	if j.rand == nil {
		return time.Duration(rand.Int64N(ceil))
	}
	j.lock.Lock()
	defer j.lock.Unlock()
	return time.Duration(j.rand.Int64N(ceil))
}
