// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/baggage"
	"go.opentelemetry.io/otel/propagation"

	"github.com/gogama/requests/params"
)

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		s := newTestSession(t)

		assert.Equal(t, DefaultConfig(), s.cfg)
		assert.Equal(t, NopCapabilities{}, s.caps)
		assert.NotNil(t, s.retryPolicy)
		assert.NotNil(t, s.timeoutPolicy)
		assert.Same(t, &emptyHandlers, s.handlers)
		assert.Nil(t, s.limiter)
		assert.Nil(t, s.Proxy())
		ref := s.doer.Load()
		assert.True(t, ref.owned)
		assert.IsType(t, &http.Client{}, ref.HTTPDoer)
	})
	t.Run("invalid options", func(t *testing.T) {
		testCases := []struct {
			name string
			opt  Option
		}{
			{"capabilities", WithCapabilities(nil)},
			{"doer", WithHTTPDoer(nil)},
			{"logger", WithLogger(nil)},
			{"tracer provider", WithTracerProvider(nil)},
			{"propagator", WithPropagator(nil)},
			{"retry policy", WithRetryPolicy(nil)},
			{"timeout policy", WithTimeoutPolicy(nil)},
			{"dispatcher", WithDispatcher(nil)},
		}
		for _, testCase := range testCases {
			t.Run(testCase.name, func(t *testing.T) {
				s, err := New(testCase.opt)

				assert.Nil(t, s)
				assert.ErrorContains(t, err, "applying session option")
			})
		}
	})
	t.Run("invalid config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Timeout = 0
		cfg.Proxy = &ProxyItem{}

		s, err := New(WithConfig(cfg))

		assert.Nil(t, s)
		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		assert.Contains(t, fields.Fields(), "timeout")
		assert.Contains(t, fields.Fields(), "host")
	})
	t.Run("config", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.RateLimit = 10
		cfg.Proxy = &ProxyItem{Host: "proxy.local", Port: "3128"}

		s := newTestSession(t, WithConfig(cfg))

		require.NotNil(t, s.limiter)
		assert.Equal(t, 1, s.limiter.Burst())
		assert.Equal(t, cfg.Proxy, s.Proxy())
		assert.NotSame(t, cfg.Proxy, s.Proxy())
	})
}

func TestSession_Request(t *testing.T) {
	t.Run("from capabilities", func(t *testing.T) {
		sorter := params.Sorter(func(a, b string) bool { return a > b })
		caps := &testCapabilities{timeout: 5 * time.Second, gzip: true, sorter: sorter}
		s := newTestSession(t, WithCapabilities(caps))

		b := s.Request(testURL)

		assert.Equal(t, normalKind, b.d.kind)
		assert.Equal(t, "GET", b.d.method)
		assert.Equal(t, 5*time.Second, b.d.timeout)
		assert.True(t, b.d.gzip)
		assert.True(t, b.d.appendCommon)
		assert.NotNil(t, b.d.sorter)
		assert.Equal(t, URLEncoding, b.d.encoding)
		assert.Equal(t, PriorityDefault, b.d.priority)
		assert.Nil(t, b.d.upload)
	})
	t.Run("from config", func(t *testing.T) {
		s := newTestSession(t)

		b := s.Request(testURL)

		assert.Equal(t, 30*time.Second, b.d.timeout)
		assert.False(t, b.d.gzip)
		assert.Nil(t, b.d.sorter)
	})
	t.Run("retry clamps", func(t *testing.T) {
		s := newTestSession(t)

		assert.Equal(t, 0, s.Request(testURL).Retry(-3).d.retry)
		assert.Equal(t, 4, s.Request(testURL).Retry(4).d.retry)
	})
}

func TestSession_SetProxy(t *testing.T) {
	t.Run("owned", func(t *testing.T) {
		s := newTestSession(t)
		d0 := s.doer.Load()

		s.SetProxy(nil)
		assert.Same(t, d0, s.doer.Load())

		p := &ProxyItem{Host: "proxy.local", Port: "3128"}
		s.SetProxy(p)
		d1 := s.doer.Load()
		assert.NotSame(t, d0, d1)
		assert.Equal(t, p, s.Proxy())
		p.Port = "1"
		assert.Equal(t, "3128", s.Proxy().Port)

		s.SetProxy(&ProxyItem{Host: "proxy.local", Port: "3128", HTTPOnly: true})
		assert.Same(t, d1, s.doer.Load())

		transport := d1.HTTPDoer.(*http.Client).Transport.(*http.Transport)
		req, err := http.NewRequest("GET", "http://example.com/", nil)
		require.NoError(t, err)
		u, err := transport.Proxy(req)
		require.NoError(t, err)
		assert.Equal(t, "http://proxy.local:3128", u.String())

		s.Reset()
		assert.NotSame(t, d1, s.doer.Load())
		assert.Equal(t, "proxy.local", s.Proxy().Host)

		s.SetProxy(nil)
		assert.Nil(t, s.Proxy())
	})
	t.Run("caller supplied", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		s := newTestSession(t, WithHTTPDoer(doer))

		s.SetProxy(&ProxyItem{Host: "proxy.local"})
		s.Reset()

		assert.False(t, s.doer.Load().owned)
		assert.Same(t, doer, s.currentDoer())
		assert.Equal(t, "proxy.local", s.Proxy().Host)
	})
}

func TestSession_CloseIdleConnections(t *testing.T) {
	t.Run("supported", func(t *testing.T) {
		doer := newMockHTTPDoerWithCloseIdleConnections(t)
		doer.On("CloseIdleConnections").Once()
		s := newTestSession(t, WithHTTPDoer(doer))

		s.CloseIdleConnections()

		doer.AssertExpectations(t)
	})
	t.Run("unsupported", func(t *testing.T) {
		s := newTestSession(t, WithHTTPDoer(newMockHTTPDoer(t)))

		assert.NotPanics(t, s.CloseIdleConnections)
	})
}

func TestSession_Trust(t *testing.T) {
	roots := x509.NewCertPool()
	roots.AddCert(httpsServer.Certificate())

	for _, server := range []*httpsServerCase{
		{name: "https", url: httpsServer.URL},
		{name: "http2", url: http2Server.URL},
	} {
		server := server
		t.Run(server.name, func(t *testing.T) {
			t.Run("root CAs", func(t *testing.T) {
				s := newTestSession(t, WithRootCAs(roots))

				resp, body, err := s.Request(server.url).SyncResponse()

				require.NoError(t, err)
				assert.Equal(t, 200, resp.StatusCode)
				assert.Equal(t, "GET", body.(map[string]any)["method"])
				s.CloseIdleConnections()
			})
			t.Run("untrusted", func(t *testing.T) {
				s := newTestSession(t)

				resp, _, err := s.Request(server.url).Retry(2).SyncResponse()

				assert.Nil(t, resp)
				assert.ErrorContains(t, err, "certificate")
			})
			t.Run("evaluator rejects", func(t *testing.T) {
				var lock sync.Mutex
				var calls int
				caps := &testCapabilities{
					trust: func(host string) TrustEvaluator {
						return TrustEvaluatorFunc(func(host string, cs tls.ConnectionState) error {
							lock.Lock()
							defer lock.Unlock()
							calls++
							return errors.New("pinned key mismatch")
						})
					},
				}
				s := newTestSession(t, WithCapabilities(caps), WithRootCAs(roots))

				resp, _, err := s.Request(server.url).SyncResponse()

				assert.Nil(t, resp)
				assert.ErrorContains(t, err, "pinned key mismatch")
				lock.Lock()
				defer lock.Unlock()
				assert.Equal(t, 1, calls)
			})
			t.Run("evaluator accepts", func(t *testing.T) {
				caps := &testCapabilities{
					trust: func(string) TrustEvaluator {
						return TrustEvaluatorFunc(func(_ string, cs tls.ConnectionState) error {
							if len(cs.PeerCertificates) == 0 {
								return errNoPeerCertificates
							}
							return nil
						})
					},
				}
				s := newTestSession(t, WithCapabilities(caps))

				resp, _, err := s.Request(server.url).SyncResponse()

				require.NoError(t, err)
				assert.Equal(t, 200, resp.StatusCode)
			})
		})
	}
}

type httpsServerCase struct {
	name string
	url  string
}

func TestVerifyChain(t *testing.T) {
	assert.ErrorIs(t, verifyChain(tls.ConnectionState{}, nil), errNoPeerCertificates)

	roots := x509.NewCertPool()
	roots.AddCert(httpsServer.Certificate())
	cs := tls.ConnectionState{
		ServerName:       "example.com",
		PeerCertificates: []*x509.Certificate{httpsServer.Certificate()},
	}
	assert.NoError(t, verifyChain(cs, roots))
	cs.ServerName = "other.example.org"
	assert.Error(t, verifyChain(cs, roots))
	cs.ServerName = "example.com"
	assert.Error(t, verifyChain(cs, x509.NewCertPool()))
}

func TestSession_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	doer := newMockHTTPDoer(t)
	s := newTestSession(t, WithHTTPDoer(doer), WithRegisterer(reg))
	doer.On("Do", mock.Anything).Return(nil, syscall.ECONNRESET).Once()
	doer.On("Do", mock.Anything).Return(jsonResponse(200, `{}`), nil).Once()

	r := s.Request(testURL).Retry(1).Build()
	require.NotNil(t, r)
	o := awaitResponse(t, r)
	require.NoError(t, o.err)

	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.attempts.WithLabelValues("GET", outcomeError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.attempts.WithLabelValues("GET", outcomeSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(s.metrics.retries.WithLabelValues("GET")))
	n, err := testutil.GatherAndCount(reg, "requests_attempts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	n, err = testutil.GatherAndCount(reg, "requests_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSession_SharedRegisterer(t *testing.T) {
	t.Run("two sessions", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		doer := newMockHTTPDoer(t)
		doer.On("Do", mock.Anything).Return(jsonResponse(200, `{}`), nil).Once()
		doer.On("Do", mock.Anything).Return(jsonResponse(200, `{}`), nil).Once()

		var s1, s2 *Session
		require.NotPanics(t, func() {
			s1 = newTestSession(t, WithHTTPDoer(doer), WithRegisterer(reg))
			s2 = newTestSession(t, WithHTTPDoer(doer), WithRegisterer(reg))
		})
		assert.Same(t, s1.metrics.attempts, s2.metrics.attempts)
		assert.Same(t, s1.metrics.retries, s2.metrics.retries)
		assert.Same(t, s1.metrics.duration, s2.metrics.duration)

		for _, s := range []*Session{s1, s2} {
			r := s.Request(testURL).Build()
			require.NotNil(t, r)
			require.NoError(t, awaitResponse(t, r).err)
		}
		assert.Equal(t, float64(2), testutil.ToFloat64(s1.metrics.attempts.WithLabelValues("GET", outcomeSuccess)))
	})
	t.Run("conflicting collector", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{
			Name: "requests_retries_total",
			Help: "Something else",
		}))

		s, err := New(WithRegisterer(reg))

		assert.Nil(t, s)
		assert.ErrorContains(t, err, "registering metrics")
	})
}

func TestSession_Propagator(t *testing.T) {
	doer := newMockHTTPDoer(t)
	s := newTestSession(t, WithHTTPDoer(doer), WithPropagator(propagation.Baggage{}))
	member, err := baggage.NewMember("tenant", "acme")
	require.NoError(t, err)
	bag, err := baggage.New(member)
	require.NoError(t, err)
	ctx := baggage.ContextWithBaggage(context.Background(), bag)

	got := buildAndSend(t, doer, s.Request(testURL).Context(ctx))

	assert.Equal(t, "tenant=acme", got.req.Header.Get("Baggage"))
}

func TestSession_RateLimit(t *testing.T) {
	doer := newMockHTTPDoer(t)
	cfg := DefaultConfig()
	cfg.RateLimit = 0.001
	s := newTestSession(t, WithHTTPDoer(doer), WithConfig(cfg))
	doer.On("Do", mock.Anything).Return(jsonResponse(200, `{}`), nil).Once()

	r := s.Request(testURL).Build()
	require.NotNil(t, r)
	o := awaitResponse(t, r)
	require.NoError(t, o.err)

	r = s.Request(testURL).Timeout(50 * time.Millisecond).Retry(3).Build()
	require.NotNil(t, r)
	o = awaitResponse(t, r)

	assert.ErrorContains(t, o.err, "rate")
	assert.Equal(t, 0, r.RetriedTimes())
	doer.AssertNumberOfCalls(t, "Do", 1)
}

func TestSession_Logging(t *testing.T) {
	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	doer := newMockHTTPDoer(t)
	s := newTestSession(t, WithHTTPDoer(doer), WithLogger(logger))
	doer.On("Do", mock.Anything).Return(nil, syscall.ECONNRESET).Once()
	doer.On("Do", mock.Anything).Return(jsonResponse(200, `{}`), nil).Once()

	r := s.Request(testURL).Query(map[string]any{"access_token": "hunter2"}).Retry(1).Build()
	require.NotNil(t, r)
	awaitResponse(t, r)
	assert.Nil(t, s.Request("").Build())

	out := buf.String()
	assert.Contains(t, out, "retrying request")
	assert.Contains(t, out, "request completed")
	assert.Contains(t, out, "request not built")
	assert.Contains(t, out, "request_id="+r.ID())
	assert.Contains(t, out, "REDACTED")
	assert.NotContains(t, out, "hunter2")
}

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.String()
}
