// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient classifies errors from HTTP request attempts as
// transient or non-transient. Only transient errors are eligible for an
// automatic retry.
//
// The set of transient categories is fixed: timeouts, unresolvable
// hosts, unreachable hosts, other DNS failures, lost connections, and
// having no network at all. Cancellation is never transient.
//
// Package transient depends only on the standard library.
package transient
