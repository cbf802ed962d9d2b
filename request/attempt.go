// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"time"

	"github.com/gogama/requests/transient"
)

// An Attempt represents the state of a single transport-level HTTP
// request attempt made on behalf of a logical request.
//
// Retry deciders and event handlers may set values on an Attempt using
// its SetValue method and read them back using the Value method. They
// should treat the exported fields as read-only.
type Attempt struct {
	// RequestID identifies the logical request this attempt belongs to.
	// Every attempt of the same logical request has the same RequestID.
	RequestID string

	// Index is the zero-based number of this attempt within the logical
	// request. It is zero for the initial attempt, one for the first
	// retry, and so on, so it always equals the number of retries that
	// preceded the attempt.
	Index int

	// MaxRetries is the retry budget of the logical request, copied
	// from its description when it was built.
	MaxRetries int

	// Priority is the scheduling priority of the attempt, between 0.0
	// and 0.75.
	Priority float32

	// TimeLimit is the timeout the timeout policy chose for the
	// attempt. It is zero if the attempt has no timeout of its own.
	TimeLimit time.Duration

	// Start is the time the attempt was materialized, immediately
	// before it was handed to the transport.
	Start time.Time

	// End is the time the attempt's response body was fully read, or
	// the time the attempt failed. It is the zero value while the
	// attempt is in flight.
	End time.Time

	// Request is the HTTP request sent by this attempt.
	Request *http.Request

	// Response is the HTTP response received by this attempt. It is nil
	// while the attempt is in flight and if the attempt ended in error
	// before a response was received.
	Response *http.Response

	// Body is the complete response body. The response's own Body has
	// already been read to the end and closed.
	Body []byte

	// Err is the error the attempt ended with, if any. Whenever Err is
	// non-nil it has the type *url.Error.
	Err error

	// Metrics holds the connection timings recorded during the attempt.
	Metrics *Metrics

	data context.Context
}

// StatusCode returns the status code of the HTTP response received by
// the attempt. If there is no HTTP response, 0 is returned.
func (a *Attempt) StatusCode() int {
	if a.Response == nil {
		return 0
	}

	return a.Response.StatusCode
}

// Header returns the HTTP response headers received by the attempt. If
// there is no HTTP response, the nil header is returned.
func (a *Attempt) Header() http.Header {
	if a.Response == nil {
		var nilHeader http.Header
		return nilHeader
	}

	return a.Response.Header
}

// Duration returns the duration of the attempt.
//
// If the attempt has not started, the duration is zero. If the attempt
// has ended, the duration is End minus Start. Otherwise it is the
// current time minus Start.
func (a *Attempt) Duration() time.Duration {
	if !a.Started() {
		return time.Duration(0)
	} else if !a.Ended() {
		return time.Since(a.Start)
	}

	return a.End.Sub(a.Start)
}

// Started indicates whether the attempt has started.
func (a *Attempt) Started() bool {
	return a.Start != (time.Time{})
}

// Ended indicates whether the attempt has ended.
func (a *Attempt) Ended() bool {
	return a.End != (time.Time{})
}

// Timeout indicates whether Err indicates a timeout.
func (a *Attempt) Timeout() bool {
	return transient.Categorize(a.Err) == transient.Timeout
}

// Cancelled indicates whether Err indicates the attempt was cancelled.
func (a *Attempt) Cancelled() bool {
	return transient.Cancelled(a.Err)
}

// Transience returns the transience category of Err.
func (a *Attempt) Transience() transient.Category {
	return transient.Categorize(a.Err)
}

// SetValue allows event handlers to store arbitrary data in the
// attempt.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same attempt.
func (a *Attempt) SetValue(key, value interface{}) {
	ctx := a.data
	if ctx == nil {
		ctx = context.Background()
	}

	a.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this attempt for key,
// or nil if there is no value associated with key.
func (a *Attempt) Value(key interface{}) interface{} {
	ctx := a.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}
