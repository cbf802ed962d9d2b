// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"crypto/tls"
	"net/http"
	"time"

	"github.com/gogama/requests/params"
	"github.com/gogama/requests/request"
)

// Capabilities is implemented by the embedding application to supply
// the common parameters, default headers and body hooks applied to
// every request built by a Session.
//
// Implementations must be safe for concurrent use by multiple
// goroutines. Embed NopCapabilities to implement only some of the
// methods.
type Capabilities interface {
	// CommonParameters returns the parameters appended to the query of
	// every request which has not turned them off. A key which the
	// request also sets in its own query parameters is left out.
	CommonParameters() map[string]any
	// CommonParametersSorter returns the key order used to encode
	// query parameters. A nil Sorter means lexical order.
	CommonParametersSorter() params.Sorter
	// DefaultHeaders returns headers set on every request. Headers set
	// on the request itself take precedence.
	DefaultHeaders() map[string]string
	// GZipEnabled reports whether request bodies are compressed by
	// default.
	GZipEnabled() bool
	// DefaultTimeout returns the per-attempt timeout for requests which
	// do not set one. A value of zero or less defers to the Session
	// configuration.
	DefaultTimeout() time.Duration

	// CompressBody compresses the request body in place and reports
	// whether it succeeded.
	CompressBody(body *[]byte) bool
	// PreprocessRequestBody may rewrite the request body in place and
	// add headers to it. The mark is the opaque value set with
	// Builder.Mark. The result is used only if it reports true and the
	// body is not left empty.
	PreprocessRequestBody(body *[]byte, mark map[string]any, headers map[string]string) bool
	// PreprocessResponseBody may rewrite a non-empty response body in
	// place before it is decoded. The result is used only if it reports
	// true.
	PreprocessResponseBody(body *[]byte, resp *http.Response) bool

	// WillProcessRequest is called exactly once per materialization,
	// after headers are merged and before the HTTP request is
	// constructed. It may change any field of p.
	WillProcessRequest(p *PendingRequest)
	// WillProcessResponse is called once when a request completes,
	// with the outcome of its final attempt. It is never called for a
	// cancelled request.
	WillProcessResponse(c *CompletedRequest)

	// TrustEvaluator returns the evaluator deciding whether to trust
	// the TLS server certificates presented by host. A nil evaluator
	// means standard certificate chain and host name verification.
	TrustEvaluator(host string) TrustEvaluator
}

// A PendingRequest holds the parts of a request which
// Capabilities.WillProcessRequest may rewrite. The maps are copies
// owned by the materialization in progress.
type PendingRequest struct {
	// URL is the request URL with query and common parameters already
	// appended.
	URL string
	// Headers is the merged header set.
	Headers map[string]string
	// Parameters holds the body parameters.
	Parameters map[string]any
}

// A CompletedRequest describes the final attempt of a completed
// request, as passed to Capabilities.WillProcessResponse.
type CompletedRequest struct {
	Request  *http.Request
	Response *http.Response
	// Duration is measured from the materialization of the final
	// attempt until completion.
	Duration time.Duration
	// Body is the decoded response body, or nil.
	Body any
	Err  error
	// Metrics holds the connection timings of the final attempt.
	Metrics request.Timings
}

// A TrustEvaluator decides whether to trust the TLS connection to a
// host. Returning a non-nil error aborts the handshake.
type TrustEvaluator interface {
	Evaluate(host string, state tls.ConnectionState) error
}

// The TrustEvaluatorFunc type is an adapter to allow the use of
// ordinary functions as trust evaluators.
type TrustEvaluatorFunc func(host string, state tls.ConnectionState) error

// Evaluate calls f(host, state).
func (f TrustEvaluatorFunc) Evaluate(host string, state tls.ConnectionState) error {
	return f(host, state)
}

// NopCapabilities implements Capabilities with no common parameters,
// no default headers, and hooks which change nothing.
type NopCapabilities struct{}

func (NopCapabilities) CommonParameters() map[string]any { return nil }
func (NopCapabilities) CommonParametersSorter() params.Sorter { return nil }
func (NopCapabilities) DefaultHeaders() map[string]string { return nil }
func (NopCapabilities) GZipEnabled() bool { return false }
func (NopCapabilities) DefaultTimeout() time.Duration { return 0 }
func (NopCapabilities) CompressBody(*[]byte) bool { return false }
func (NopCapabilities) PreprocessRequestBody(*[]byte, map[string]any, map[string]string) bool {
	return false
}
func (NopCapabilities) PreprocessResponseBody(*[]byte, *http.Response) bool { return false }
func (NopCapabilities) WillProcessRequest(*PendingRequest) {}
func (NopCapabilities) WillProcessResponse(*CompletedRequest) {}
func (NopCapabilities) TrustEvaluator(string) TrustEvaluator { return nil }
