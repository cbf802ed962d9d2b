// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/requests/params"
	"github.com/gogama/requests/request"
)

var (
	errEmptyURL      = errors.New("empty URL")
	errRelativeURL   = errors.New("URL is not absolute")
	errInvalidMethod = errors.New("invalid method")
	errInvalidHeader = errors.New("invalid header")
)

// Build materializes the request and starts its first attempt.
//
// Build returns nil, and sends nothing, if the URL is empty or not a
// valid absolute URL, if the method or a header is invalid, if the body
// parameters cannot be encoded, or if a file appended to an upload
// cannot be read. A nil result is the only signal of these failures:
// callers must check for it, or they will never receive a callback.
//
// The Builder may be changed and built again afterwards. This does not
// affect requests already built, which keep a snapshot of the
// configuration they were built from and re-materialize from it on
// every retry.
func (b *Builder) Build() *Request {
	r := newRequest(b.s, b.d.snapshot())
	run, err := r.start(0, nil)
	if err != nil {
		b.s.logger.Debug("request not built",
			"request_id", r.id,
			"method", r.d.method,
			"url", sanitizeRawURL(r.d.url),
			"error", err.Error(),
		)
		r.cancel()
		return nil
	}

	go r.observe(run)
	return r
}

// materialize turns the request's descriptor into the HTTP request of
// attempt index. prev is the attempt being retried, or nil.
func (r *Request) materialize(index int, prev *request.Attempt) (*request.Attempt, context.CancelFunc, trace.Span, error) {
	s, d, caps := r.s, &r.d, r.s.caps
	if d.url == "" {
		return nil, nil, nil, errEmptyURL
	}
	if !request.ValidMethod(d.method) {
		return nil, nil, nil, fmt.Errorf("%w: %q", errInvalidMethod, d.method)
	}

	u := params.Append(d.url, d.query, d.sorter)
	if d.appendCommon {
		u = params.Append(u, params.Subtract(caps.CommonParameters(), d.query), d.sorter)
	}

	pending := &PendingRequest{
		URL:        u,
		Headers:    params.Merge(caps.DefaultHeaders(), d.headers),
		Parameters: maps.Clone(d.post),
	}
	caps.WillProcessRequest(pending)

	parsed, err := url.Parse(pending.URL)
	if err != nil {
		return nil, nil, nil, err
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return nil, nil, nil, errRelativeURL
	}

	var body []byte
	var contentType string
	extra := make(map[string]string)
	gzipped := false
	if d.kind == uploadKind {
		body, contentType, err = encodeMultipart(pending.Parameters, d.upload.parts, time.Now())
		if err != nil {
			return nil, nil, nil, err
		}
	} else {
		body, contentType, err = d.encoding.encode(pending.Parameters)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("encoding body: %w", err)
		}
		if len(body) > 0 {
			processed := bytes.Clone(body)
			if caps.PreprocessRequestBody(&processed, d.mark, extra) && len(processed) > 0 {
				body = processed
			} else {
				clear(extra)
			}
		}
		if d.gzip && len(body) > 0 {
			compressed := bytes.Clone(body)
			if caps.CompressBody(&compressed) && len(compressed) > 0 {
				body = compressed
				gzipped = true
			}
		}
	}

	timeout := s.timeoutPolicy.Timeout(d.timeout, prev)
	ctx, cancel := r.ctx, context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}
	ctx = request.WithPriority(ctx, d.priority.Value())
	metrics := request.NewMetrics()
	ctx = request.WithMetrics(ctx, metrics)
	ctx, span := s.tracer.Start(ctx, "requests.attempt",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("request.id", r.id),
			attribute.String("http.method", d.method),
			attribute.String("url.full", sanitizeURL(parsed)),
			attribute.Int("request.attempt", index),
			attribute.Float64("request.priority", float64(d.priority.Value())),
		),
	)
	fail := func(err error) (*request.Attempt, context.CancelFunc, trace.Span, error) {
		span.End()
		cancel()
		return nil, nil, nil, err
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, d.method, parsed.String(), rd)
	if err != nil {
		return fail(err)
	}

	for k, v := range pending.Headers {
		if !request.ValidHeader(k, v) {
			return fail(fmt.Errorf("%w: %q", errInvalidHeader, k))
		}
		req.Header.Set(k, v)
	}
	if contentType != "" && (d.kind == uploadKind || req.Header.Get("Content-Type") == "") {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range extra {
		if !request.ValidHeader(k, v) {
			return fail(fmt.Errorf("%w: %q", errInvalidHeader, k))
		}
		req.Header.Set(k, v)
	}
	if gzipped {
		req.Header.Set("Content-Encoding", "gzip")
	}
	if cc := d.cachePolicy.header(); cc != "" && req.Header.Get("Cache-Control") == "" {
		req.Header.Set("Cache-Control", cc)
	}
	if s.cfg.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}
	s.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	if d.kind == uploadKind {
		if report := d.upload.progress.report(); report != nil {
			req.Body = io.NopCloser(request.NewProgressReader(bytes.NewReader(body), int64(len(body)), report))
		}
	}

	a := &request.Attempt{
		RequestID:  r.id,
		Index:      index,
		MaxRetries: d.retry,
		Priority:   d.priority.Value(),
		TimeLimit:  max(timeout, 0),
		Request:    req,
		Metrics:    metrics,
	}

	return a, cancel, span, nil
}
