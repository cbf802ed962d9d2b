// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides policies deciding whether a failed request
// attempt is retried, and how long to wait before retrying.
//
// The interface Policy defines a retry Policy. A Policy instance can be
// constructed using NewPolicy by providing a decision-maker, Decider,
// and a wait time calculator, Waiter:
//
//	decider := retry.Budget.And(retry.Times(3)).And(retry.TransientErr)
//	waiter := retry.WithJitter(retry.NewExpWaiter(100*time.Millisecond, 2*time.Second), nil)
//	policy := retry.NewPolicy(decider, waiter)
//
// Whatever the policy decides, a request is never retried after it is
// cancelled, and never more times than its own retry budget allows.
package retry
