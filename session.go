// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/time/rate"

	"github.com/gogama/requests/retry"
	"github.com/gogama/requests/timeout"
)

const tracerName = "github.com/gogama/requests"

var emptyHandlers = HandlerGroup{}

// A Session creates request builders and owns everything their requests
// share: the Capabilities collaborator, the HTTP transport, retry and
// timeout policy, event handlers, logging, tracing and metrics.
//
// A Session is safe for concurrent use by multiple goroutines, and
// should be reused rather than created per request since its transport
// caches connections.
//
// The transport is replaced, never modified: SetProxy and Reset build a
// new one and swap it in atomically. Attempts already in flight finish
// on the transport they started with.
type Session struct {
	cfg           Config
	caps          Capabilities
	logger        *slog.Logger
	tracer        trace.Tracer
	propagator    propagation.TextMapPropagator
	metrics       *sessionMetrics
	handlers      *HandlerGroup
	retryPolicy   retry.Policy
	timeoutPolicy timeout.Policy
	dispatcher    Dispatcher
	limiter       *rate.Limiter
	rootCAs       *x509.CertPool

	lock  sync.Mutex
	proxy *ProxyItem
	doer  atomic.Pointer[doerRef]
}

// New creates a Session.
func New(opts ...Option) (*Session, error) {
	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, fmt.Errorf("applying session option: %w", err)
		}
	}

	s := &Session{
		cfg:           DefaultConfig(),
		caps:          NopCapabilities{},
		logger:        slog.Default(),
		propagator:    otel.GetTextMapPropagator(),
		handlers:      &emptyHandlers,
		retryPolicy:   retry.DefaultPolicy,
		timeoutPolicy: timeout.Requested,
		dispatcher:    Inline,
		rootCAs:       o.rootCAs,
	}
	if o.config != nil {
		s.cfg = *o.config
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if o.caps != nil {
		s.caps = o.caps
	}
	if o.logger != nil {
		s.logger = o.logger
	}
	tp := o.tracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	s.tracer = tp.Tracer(tracerName)
	if o.propagator != nil {
		s.propagator = o.propagator
	}
	if o.handlers != nil {
		s.handlers = o.handlers
	}
	if o.retryPolicy != nil {
		s.retryPolicy = o.retryPolicy
	}
	if o.timeoutPolicy != nil {
		s.timeoutPolicy = o.timeoutPolicy
	}
	if o.dispatcher != nil {
		s.dispatcher = o.dispatcher
	}
	if s.cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(s.cfg.RateLimit), max(s.cfg.RateBurst, 1))
	}
	metrics, err := newSessionMetrics(o.registerer)
	if err != nil {
		return nil, err
	}
	s.metrics = metrics

	if s.cfg.Proxy != nil {
		p := *s.cfg.Proxy
		s.proxy = &p
	}
	if o.doer != nil {
		s.doer.Store(&doerRef{HTTPDoer: o.doer})
	} else {
		s.doer.Store(&doerRef{HTTPDoer: s.newClient(s.proxy), owned: true})
	}

	return s, nil
}

// Request returns a Builder for a normal request to url. The method
// defaults to GET and the timeout to Capabilities.DefaultTimeout, or
// the configured Timeout if that is not positive.
func (s *Session) Request(url string) *Builder {
	t := s.caps.DefaultTimeout()
	if t <= 0 {
		t = s.cfg.Timeout
	}
	return &Builder{s: s, d: s.newDescriptor(normalKind, url, http.MethodGet, t)}
}

// Upload returns a Builder for a multipart upload to url. The method
// defaults to POST and the timeout to the configured UploadTimeout.
func (s *Session) Upload(url string) *Builder {
	b := &Builder{s: s, d: s.newDescriptor(uploadKind, url, http.MethodPost, s.cfg.UploadTimeout)}
	b.d.upload = &uploadPayload{}
	return b
}

func (s *Session) newDescriptor(k kind, url, method string, t time.Duration) descriptor {
	return descriptor{
		kind:         k,
		url:          url,
		method:       method,
		encoding:     URLEncoding,
		appendCommon: true,
		timeout:      t,
		gzip:         s.caps.GZipEnabled(),
		sorter:       s.caps.CommonParametersSorter(),
		ctx:          context.Background(),
	}
}

// SetProxy routes subsequently built requests through p, or connects
// directly if p is nil. Setting a proxy equal to the current one does
// nothing.
//
// If the Session was created WithHTTPDoer, the proxy is recorded but
// the doer is left as it is.
func (s *Session) SetProxy(p *ProxyItem) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if equalProxy(s.proxy, p) {
		return
	}
	if p != nil {
		c := *p
		p = &c
	}
	s.proxy = p
	s.replaceDoer()
}

// Proxy returns a copy of the current proxy, or nil if there is none.
func (s *Session) Proxy() *ProxyItem {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.proxy == nil {
		return nil
	}
	p := *s.proxy
	return &p
}

// Reset replaces the transport with a new one built from the current
// configuration, dropping every cached connection.
func (s *Session) Reset() {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.replaceDoer()
}

// CloseIdleConnections invokes the same method on the current HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (s *Session) CloseIdleConnections() {
	closeIdle(s.currentDoer())
}

func (s *Session) currentDoer() HTTPDoer {
	return s.doer.Load().HTTPDoer
}

func (s *Session) replaceDoer() {
	old := s.doer.Load()
	if !old.owned {
		s.logger.Warn("session transport not replaced, doer is caller supplied")
		return
	}

	s.doer.Store(&doerRef{HTTPDoer: s.newClient(s.proxy), owned: true})
	closeIdle(old.HTTPDoer)
	s.logger.Debug("session transport replaced", "proxy", s.proxy != nil)
}

func (s *Session) newClient(p *ProxyItem) *http.Client {
	proxy := http.ProxyFromEnvironment
	if p != nil {
		proxy = p.proxyFunc()
	}

	t := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          s.cfg.MaxIdleConns,
		MaxIdleConnsPerHost:   s.cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:       s.cfg.IdleConnTimeout,
		TLSHandshakeTimeout:   s.cfg.TLSHandshakeTimeout,
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       s.tlsConfig(),
	}

	return &http.Client{Transport: t}
}

// wait blocks until the rate limiter admits another attempt.
func (s *Session) wait(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.Wait(ctx)
}
