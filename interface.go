// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"net/http"
)

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
//
// A Session sends every request attempt through an HTTPDoer. By
// default it is an *http.Client the Session builds and replaces itself
// when the proxy changes.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
type IdleCloser interface {
	CloseIdleConnections()
}

// doerRef lets an HTTPDoer interface value live in an atomic.Pointer.
type doerRef struct {
	HTTPDoer
	// owned is true if the Session built the doer itself.
	owned bool
}

func closeIdle(doer HTTPDoer) {
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
