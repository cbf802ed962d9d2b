// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"crypto/x509"
	"errors"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/gogama/requests/retry"
	"github.com/gogama/requests/timeout"
)

// Option is a functional option for configuring a Session via New.
type Option func(*options) error

type options struct {
	config         *Config
	caps           Capabilities
	doer           HTTPDoer
	logger         *slog.Logger
	tracerProvider trace.TracerProvider
	propagator     propagation.TextMapPropagator
	registerer     prometheus.Registerer
	handlers       *HandlerGroup
	retryPolicy    retry.Policy
	timeoutPolicy  timeout.Policy
	dispatcher     Dispatcher
	rootCAs        *x509.CertPool
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(o *options) error {
		o.config = &cfg
		return nil
	}
}

// WithCapabilities sets the collaborator supplying common parameters,
// default headers and body hooks.
func WithCapabilities(caps Capabilities) Option {
	return func(o *options) error {
		if caps == nil {
			return errors.New("capabilities must not be nil")
		}
		o.caps = caps
		return nil
	}
}

// WithHTTPDoer sends every attempt through doer instead of a client
// built by the Session. The Session then no longer applies its proxy,
// trust or connection pool settings, which are the doer's business.
func WithHTTPDoer(doer HTTPDoer) Option {
	return func(o *options) error {
		if doer == nil {
			return errors.New("doer must not be nil")
		}
		o.doer = doer
		return nil
	}
}

// WithLogger sets the structured logger. The default is slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		o.logger = logger
		return nil
	}
}

// WithTracerProvider sets the provider of the tracer which records a
// span per attempt. The default records nothing.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) error {
		if tp == nil {
			return errors.New("tracer provider must not be nil")
		}
		o.tracerProvider = tp
		return nil
	}
}

// WithPropagator sets the propagator which injects trace context into
// request headers. The default is the global otel propagator.
func WithPropagator(p propagation.TextMapPropagator) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("propagator must not be nil")
		}
		o.propagator = p
		return nil
	}
}

// WithRegisterer registers the Session's metrics on reg. Without it the
// metrics are collected but not registered anywhere.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) error {
		o.registerer = reg
		return nil
	}
}

// WithHandlers installs event handlers.
func WithHandlers(g *HandlerGroup) Option {
	return func(o *options) error {
		o.handlers = g
		return nil
	}
}

// WithRetryPolicy replaces retry.DefaultPolicy. Whatever the policy
// decides, only transient errors are retried, and never more often
// than a request's own retry budget allows.
func WithRetryPolicy(p retry.Policy) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("retry policy must not be nil")
		}
		o.retryPolicy = p
		return nil
	}
}

// WithTimeoutPolicy replaces timeout.Requested.
func WithTimeoutPolicy(p timeout.Policy) Option {
	return func(o *options) error {
		if p == nil {
			return errors.New("timeout policy must not be nil")
		}
		o.timeoutPolicy = p
		return nil
	}
}

// WithDispatcher sets the Dispatcher on which completion handlers
// registered with Request.Response run. The default is Inline.
func WithDispatcher(d Dispatcher) Option {
	return func(o *options) error {
		if d == nil {
			return errors.New("dispatcher must not be nil")
		}
		o.dispatcher = d
		return nil
	}
}

// WithRootCAs sets the certificate authorities used to verify servers
// for which Capabilities returns no TrustEvaluator. The default is the
// system pool.
func WithRootCAs(pool *x509.CertPool) Option {
	return func(o *options) error {
		o.rootCAs = pool
		return nil
	}
}
