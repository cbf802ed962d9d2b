// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

// An Event identifies the event type when installing or running a
// Handler. Install event handlers in a Session to extend it with custom
// functionality.
type Event int

const (
	// BeforeAttempt identifies the event that occurs after a request
	// has been materialized into an HTTP request attempt, but before
	// the attempt is handed to the HTTPDoer.
	//
	// When the Session fires BeforeAttempt, the attempt's Request field
	// is set to the HTTP request that WILL BE sent after all
	// BeforeAttempt handlers have finished. Handlers may add headers to
	// it, for example to sign it.
	BeforeAttempt Event = iota
	// AfterAttempt identifies the event that occurs after an HTTP
	// request attempt has ended, regardless of whether it ended
	// successfully or not, and before any retry decision is made.
	//
	// When the Session fires AfterAttempt, either the attempt's
	// Response field or its Err field is set, and the response body,
	// if any, has been read into the Body field.
	AfterAttempt
	// BeforeRetry identifies the event that occurs after the retry
	// policy decided to retry a failed attempt and any retry wait is
	// over, but before the request is materialized again.
	//
	// The attempt passed with BeforeRetry is the failed attempt.
	BeforeRetry
	// AfterCompletion identifies the event that occurs once a request
	// reaches the Completed state, after WillProcessResponse has been
	// called and before the completion handler is dispatched.
	AfterCompletion
	// AfterCancel identifies the event that occurs after a request has
	// been cancelled and its in-flight attempt, if any, has wound
	// down.
	//
	// AfterCancel fires at most once per request, and never for a
	// request which fired AfterCompletion.
	AfterCancel
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"BeforeAttempt",
	"AfterAttempt",
	"BeforeRetry",
	"AfterCompletion",
	"AfterCancel",
}

// Events returns a slice containing all events which can occur during
// the lifetime of a Request, in the order in which they would occur.
func Events() []Event {
	return []Event{
		BeforeAttempt,
		AfterAttempt,
		BeforeRetry,
		AfterCompletion,
		AfterCancel,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
