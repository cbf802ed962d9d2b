// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"net/http"
)

// SyncResponse builds the request and blocks until it completes,
// returning the response, the decoded body and the error a completion
// handler would have received.
//
// If Build returns nil, SyncResponse returns all nils without blocking.
// If the request is cancelled, by Cancel on another goroutine or
// through the context given to Context, the error is
// context.Canceled.
func (b *Builder) SyncResponse() (*http.Response, any, error) {
	r := b.Build()
	if r == nil {
		return nil, nil, nil
	}

	ch := make(chan result, 1)
	r.ResponseOn(Inline, func(req *http.Request, resp *http.Response, body any, err error) {
		ch <- result{req: req, resp: resp, body: body, err: err}
	})
	<-r.Done()
	if r.State() == Cancelled {
		return nil, nil, r.Err()
	}

	res := <-ch
	return res.resp, res.body, res.err
}
