// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package requests provides a fluent HTTP request builder with automatic
retry of transient network failures, cancellation, and asynchronous or
synchronous completion.

Create a Session once and reuse it to build requests.

	session, err := requests.New(
		requests.WithCapabilities(caps),
		requests.WithLogger(logger),
	)
	...
	req := session.Request("https://api.example.com/items").
		Query(map[string]any{"page": 2}).
		Retry(2).
		Build()
	if req == nil {
		// The URL, method, headers or body could not be materialized.
	}
	req.Response(func(_ *http.Request, resp *http.Response, body any, err error) {
		...
	})

Build returns nil, and sends nothing, if the request cannot be
materialized. Every attempt of a built request, including each retry,
is materialized afresh from a snapshot of the Builder taken by Build.

A completion handler runs at most once, with the outcome of the final
attempt. It never runs for a cancelled request; register a callback
with Request.OnCancel to learn of cancellation. Use SyncResponse to
block until the request completes instead.

Multipart uploads start from Session.Upload:

	session.Upload("https://api.example.com/photos").
		Content(map[string]any{"album": "summer"}).
		AppendFile("/tmp/beach.jpg", "photo", "", "").
		UploadProgress(requests.Inline, func(p request.Progress) {
			fmt.Printf("%.0f%%\n", 100*p.Fraction())
		}).
		Build()

The embedding application customizes every request of a Session
through a Capabilities implementation: common query parameters, default
headers, body preprocessing and compression, and TLS trust evaluation.

For control over the retry decisions and timing, create a custom retry
policy using components from package retry:

	retryWaiter := retry.WithJitter(retry.NewExpWaiter(250*time.Millisecond, 5*time.Second), nil)
	retryPolicy := retry.NewPolicy(retry.DefaultDecider, retryWaiter)
	session, err := requests.New(requests.WithRetryPolicy(retryPolicy))

To hook into the lifecycle of every request, install a handler into the
appropriate handler chain:

	handlers := &requests.HandlerGroup{}
	handlers.PushBack(requests.BeforeRetry, requests.HandlerFunc(
		func(_ requests.Event, a *request.Attempt) {
			log.Printf("Retrying %s after %v", a.Request.URL, a.Err)
		}),
	)
	session, err := requests.New(requests.WithHandlers(handlers))
*/
package requests
