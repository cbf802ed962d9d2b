// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the per-attempt types shared by the requests
package and its retry policies and event handlers.

The core type is Attempt, which represents one transport-level HTTP
request attempt made on behalf of a logical request. A logical request
that is retried produces several attempts, each built afresh from the
same request description, and each visible to event handlers and retry
deciders as its own Attempt.

	handlers.PushBack(requests.AfterAttempt, requests.HandlerFunc(
		func(_ requests.Event, a *request.Attempt) {
			log.Printf("attempt %d to %s: %v", a.Index, a.Request.URL, a.Err)
		}))

Metrics collects connection timings for an attempt using
net/http/httptrace, and Progress reports upload and download byte
counts.

You will typically not allocate Attempt instances yourself, but will
instead work with the ones handed out by a running request.
*/
package request
