// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/requests/request"
	"github.com/gogama/requests/transient"
)

// A State is a stage in the lifetime of a Request.
type State int

const (
	// Building means the first attempt is being materialized.
	Building State = iota
	// InFlight means an attempt has been handed to the HTTPDoer.
	InFlight
	// Retrying means an attempt failed transiently and the request is
	// waiting to be materialized again.
	Retrying
	// Completed is a terminal state: the request ended with a response
	// or an error which is not retried.
	Completed
	// Cancelled is a terminal state: Cancel was called, or the
	// request's context was cancelled, before the request completed.
	Cancelled
)

var stateNames = []string{
	"Building",
	"InFlight",
	"Retrying",
	"Completed",
	"Cancelled",
}

// String returns the name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "State(invalid)"
	}
	return stateNames[s]
}

// A CompletionHandler receives the outcome of a completed request: the
// HTTP request of the final attempt, its response, the decoded JSON
// response body, and the error, if any.
//
// The response body has already been read and closed. A response with
// a non-2XX status code is not an error.
type CompletionHandler func(req *http.Request, resp *http.Response, body any, err error)

type result struct {
	req  *http.Request
	resp *http.Response
	body any
	err  error
}

// A Request is a built request. It owns the attempts made on its
// behalf and retries transient failures, materializing a new HTTP
// request from the Builder snapshot for every attempt. Attempts never
// overlap.
//
// A Request completes at most once. Its completion handler runs at
// most once, and never for a cancelled request.
//
// A Request is safe for concurrent use by multiple goroutines.
type Request struct {
	id     string
	s      *Session
	d      descriptor
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	lock       sync.Mutex
	state      State
	retried    int
	current    *request.Attempt
	timeout    time.Duration
	handler    CompletionHandler
	dispatcher Dispatcher
	delivered  bool
	onCancel   func(*Request)
	res        *result
	err        error
}

type attemptRun struct {
	a    *request.Attempt
	done <-chan struct{}
}

func newRequest(s *Session, d descriptor) *Request {
	ctx, cancel := context.WithCancel(d.ctx)
	return &Request{
		id:     uuid.NewString(),
		s:      s,
		d:      d,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// ID returns the unique identifier of the request. Every attempt
// carries it as request.Attempt.RequestID.
func (r *Request) ID() string {
	return r.id
}

// URL returns the URL of the current attempt, including query and
// common parameters, or the configured URL if no attempt exists.
func (r *Request) URL() string {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.current != nil {
		if u := r.current.Request.URL.String(); u != "" {
			return u
		}
	}
	return r.d.url
}

// Timeout returns the timeout the timeout policy chose for the current
// attempt, or the configured timeout if there is no current attempt or
// it has none.
func (r *Request) Timeout() time.Duration {
	r.lock.Lock()
	defer r.lock.Unlock()

	if r.timeout > 0 {
		return r.timeout
	}
	return r.d.timeout
}

// TotalTimeout returns the longest the request can take with every
// retry used up: the configured timeout times the number of attempts.
func (r *Request) TotalTimeout() time.Duration {
	return r.d.timeout * time.Duration(r.d.retry+1)
}

// Priority returns the priority the request was built with.
func (r *Request) Priority() Priority {
	return r.d.priority
}

// RetriedTimes returns the number of retries started so far.
func (r *Request) RetriedTimes() int {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.retried
}

// MaxRetryTimes returns the retry budget the request was built with.
func (r *Request) MaxRetryTimes() int {
	return r.d.retry
}

// State returns the current state of the request.
func (r *Request) State() State {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.state
}

// Done returns a channel which is closed when the request reaches a
// terminal state.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Err returns nil until Done is closed. Afterwards it returns the
// error of a completed request, or context.Canceled for a cancelled
// one.
func (r *Request) Err() error {
	r.lock.Lock()
	defer r.lock.Unlock()

	return r.err
}

// OnCancel sets a callback which runs once if the request is
// cancelled. If the request is already cancelled, f runs immediately.
func (r *Request) OnCancel(f func(*Request)) *Request {
	r.lock.Lock()
	r.onCancel = f
	cancelled := r.state == Cancelled
	r.lock.Unlock()

	if cancelled && f != nil {
		f(r)
	}
	return r
}

// Response sets the completion handler, which runs on the Session's
// Dispatcher. See ResponseOn.
func (r *Request) Response(h CompletionHandler) *Request {
	return r.ResponseOn(r.s.dispatcher, h)
}

// ResponseOn sets the completion handler, which runs on d once the
// request completes. If the request has already completed, the handler
// is dispatched immediately. It is never called if the request is
// cancelled.
//
// ResponseOn panics if h is nil or a completion handler is already
// set.
func (r *Request) ResponseOn(d Dispatcher, h CompletionHandler) *Request {
	if h == nil {
		panic("requests: nil completion handler")
	}
	if d == nil {
		d = Inline
	}

	r.lock.Lock()
	if r.handler != nil {
		r.lock.Unlock()
		panic("requests: completion handler already set")
	}
	r.handler, r.dispatcher = h, d
	res := r.takeResult()
	r.lock.Unlock()

	if res != nil {
		d.Dispatch(func() { h(res.req, res.resp, res.body, res.err) })
	}
	return r
}

// takeResult returns the result if it is ready and not yet delivered,
// and marks it delivered. The caller must hold the lock.
func (r *Request) takeResult() *result {
	if r.res == nil || r.handler == nil || r.delivered {
		return nil
	}
	r.delivered = true
	return r.res
}

// Cancel cancels the request. The in-flight attempt, if any, is
// aborted, no further attempt is started, the completion handler is
// never called, and the OnCancel callback runs. Cancelling a request
// which has already reached a terminal state does nothing.
func (r *Request) Cancel() {
	r.lock.Lock()
	if r.state == Completed || r.state == Cancelled {
		r.lock.Unlock()
		return
	}
	r.state = Cancelled
	r.err = context.Canceled
	onCancel := r.onCancel
	retried := r.retried
	r.lock.Unlock()

	r.cancel()
	close(r.done)
	r.s.logger.Debug("request cancelled",
		"request_id", r.id,
		"method", r.d.method,
		"url", sanitizeRawURL(r.d.url),
		"retried_times", retried,
	)
	if onCancel != nil {
		onCancel(r)
	}
}

// start materializes attempt index and hands it to the HTTPDoer. It
// fails with context.Canceled if the request was cancelled, in which
// case nothing is sent.
func (r *Request) start(index int, prev *request.Attempt) (attemptRun, error) {
	a, cancel, span, err := r.materialize(index, prev)
	if err != nil {
		return attemptRun{}, err
	}
	doer := r.s.currentDoer()
	r.lock.Lock()
	if r.state == Cancelled {
		r.lock.Unlock()
		span.End()
		cancel()
		return attemptRun{}, context.Canceled
	}
	r.state = InFlight
	r.current = a
	r.timeout = a.TimeLimit
	r.lock.Unlock()

	r.s.handlers.run(BeforeAttempt, a)
	a.Start = time.Now()

	done := make(chan struct{})
	go r.execute(a, doer, cancel, span, done)
	return attemptRun{a: a, done: done}, nil
}

// execute sends the attempt and reads the response body.
func (r *Request) execute(a *request.Attempt, doer HTTPDoer, cancel context.CancelFunc, span trace.Span, done chan<- struct{}) {
	defer close(done)
	defer cancel()

	err := r.s.wait(a.Request.Context())
	if err == nil {
		a.Response, err = doer.Do(a.Request)
		if err == nil {
			a.Body, err = readBody(a.Response, r.d.download.report())
		}
	}
	if err != nil {
		a.Err = urlErrorWrap(a.Request, err)
	}

	a.End = time.Now()
	a.Metrics.Finish()
	endSpan(span, a)
}

func readBody(resp *http.Response, report func(request.Progress)) ([]byte, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	return io.ReadAll(request.NewProgressReader(resp.Body, resp.ContentLength, report))
}

func endSpan(span trace.Span, a *request.Attempt) {
	if a.Response != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", a.StatusCode()))
	}
	if a.Err != nil {
		span.RecordError(a.Err)
		span.SetStatus(codes.Error, a.Err.Error())
	}
	span.End()
}

// observe drives the request from its first attempt to a terminal
// state. It runs on a goroutine of its own, one per request, and is
// the only place a retry is started, so attempts are strictly
// sequential.
func (r *Request) observe(run attemptRun) {
	s := r.s
	for {
		<-run.done
		a := run.a
		s.metrics.recordAttempt(a)
		s.logger.Debug("request attempt",
			"request_id", r.id,
			"method", a.Request.Method,
			"url", sanitizeURL(a.Request.URL),
			"retried_times", a.Index,
			"status", a.StatusCode(),
			"duration_ms", a.Duration().Milliseconds(),
		)
		s.handlers.run(AfterAttempt, a)

		if r.State() == Cancelled || r.callerCancelled() {
			r.stopCancelled(a)
			return
		}
		if !r.shouldRetry(a) {
			r.complete(a)
			return
		}

		if !r.sleep(s.retryPolicy.Wait(a)) {
			if r.State() == Cancelled || r.callerCancelled() {
				r.stopCancelled(a)
				return
			}
			a.Err = urlErrorWrap(a.Request, r.d.ctx.Err())
			r.complete(a)
			return
		}

		r.lock.Lock()
		if r.state == Cancelled {
			r.lock.Unlock()
			r.stopCancelled(a)
			return
		}
		r.state = Retrying
		r.retried++
		retried := r.retried
		r.lock.Unlock()

		s.metrics.recordRetry(a.Request.Method)
		s.logger.Warn("retrying request",
			"request_id", r.id,
			"method", a.Request.Method,
			"url", sanitizeURL(a.Request.URL),
			"retried_times", retried,
			"error", a.Err.Error(),
		)
		s.handlers.run(BeforeRetry, a)

		next, err := r.start(a.Index+1, a)
		if errors.Is(err, context.Canceled) && r.State() == Cancelled {
			r.stopCancelled(a)
			return
		}
		if err != nil {
			s.logger.Warn("retry not built",
				"request_id", r.id,
				"url", sanitizeRawURL(r.d.url),
				"error", err.Error(),
			)
			r.complete(a)
			return
		}
		run = next
	}
}

// shouldRetry reports whether a failed attempt may be retried: it
// failed with a transient error which is not a cancellation, the
// request's context is still live, the retry budget is not used up,
// and the retry policy agrees.
func (r *Request) shouldRetry(a *request.Attempt) bool {
	if a.Err == nil || a.Cancelled() || r.d.ctx.Err() != nil {
		return false
	}
	if transient.Categorize(a.Err) == transient.Not {
		return false
	}
	if r.RetriedTimes() >= r.d.retry {
		return false
	}
	return r.s.retryPolicy.Decide(a)
}

// callerCancelled reports whether the context given to Builder.Context
// was cancelled, as opposed to having passed its deadline.
func (r *Request) callerCancelled() bool {
	return errors.Is(r.d.ctx.Err(), context.Canceled)
}

// sleep waits d before a retry. It returns false if the request's
// context ended first.
func (r *Request) sleep(d time.Duration) bool {
	if d <= 0 {
		return r.ctx.Err() == nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Request) stopCancelled(a *request.Attempt) {
	r.Cancel()
	r.s.handlers.run(AfterCancel, a)
}

// complete moves the request to the Completed state with the outcome
// of attempt a, unless it was cancelled first.
func (r *Request) complete(a *request.Attempt) {
	s := r.s
	body, err := s.decode(a)

	r.lock.Lock()
	if r.state == Cancelled {
		r.lock.Unlock()
		s.handlers.run(AfterCancel, a)
		return
	}
	r.state = Completed
	r.err = err
	retried := r.retried
	r.lock.Unlock()

	s.caps.WillProcessResponse(&CompletedRequest{
		Request:  a.Request,
		Response: a.Response,
		Duration: time.Since(a.Start),
		Body:     body,
		Err:      err,
		Metrics:  a.Metrics.Timings(),
	})

	if err != nil {
		s.logger.Warn("request failed",
			"request_id", r.id,
			"method", a.Request.Method,
			"url", sanitizeURL(a.Request.URL),
			"retried_times", retried,
			"duration_ms", time.Since(a.Start).Milliseconds(),
			"error", err.Error(),
		)
	} else {
		s.logger.Debug("request completed",
			"request_id", r.id,
			"method", a.Request.Method,
			"url", sanitizeURL(a.Request.URL),
			"retried_times", retried,
			"status", a.StatusCode(),
			"duration_ms", time.Since(a.Start).Milliseconds(),
		)
	}

	r.lock.Lock()
	r.res = &result{req: a.Request, resp: a.Response, body: body, err: err}
	res := r.takeResult()
	h, d := r.handler, r.dispatcher
	r.lock.Unlock()

	close(r.done)
	r.cancel()
	s.handlers.run(AfterCompletion, a)
	if res != nil {
		d.Dispatch(func() { h(res.req, res.resp, res.body, res.err) })
	}
}
