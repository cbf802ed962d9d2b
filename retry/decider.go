// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"github.com/gogama/requests/request"
	"github.com/gogama/requests/transient"
)

// A Decider decides if a retry should be done after a failed attempt.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructor Times, and the built-in
// deciders Budget and TransientErr; or implement your Decider. Use
// DeciderFunc to convert an ordinary function into a Decider, and to
// compose deciders logically using DeciderFunc.And and DeciderFunc.Or.
//
// Whatever a Decider returns, a request is never retried once it has
// been cancelled or has used up its retry budget.
type Decider interface {
	Decide(a *request.Attempt) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(a *request.Attempt) bool

// DefaultDecider retries an attempt which failed with a transient
// error, as long as the request's retry budget is not used up.
var DefaultDecider = Budget.And(TransientErr)

// TransientErr is a decider that indicates a retry if the attempt's
// error is transient according to transient.Categorize.
//
// TransientErr only looks at the error, so it always returns false if
// a valid HTTP response was received, whatever its status code.
var TransientErr DeciderFunc = transientErr

// Budget is a decider that indicates a retry while the number of
// retries already done is less than the request's retry budget.
var Budget DeciderFunc = budget

// Decide returns true if a retry should be done, and false otherwise,
// after examining the attempt that just ended.
func (f DeciderFunc) Decide(a *request.Attempt) bool {
	return f(a)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(a *request.Attempt) bool {
		return f(a) && g(a)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(a *request.Attempt) bool {
		return f(a) || g(a)
	}
}

// Times constructs a retry decider which allows up to n retries
// regardless of the request's own budget. The returned decider returns
// true while the attempt index a.Index is less than n.
func Times(n int) DeciderFunc {
	return func(a *request.Attempt) bool {
		return a.Index < n
	}
}

func transientErr(a *request.Attempt) bool {
	return transient.Categorize(a.Err) != transient.Not
}

func budget(a *request.Attempt) bool {
	return a.Index < a.MaxRetries
}
