// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/gogama/requests/request"
)

const (
	outcomeSuccess   = "success"
	outcomeError     = "error"
	outcomeCancelled = "cancelled"
)

// sessionMetrics holds the collectors of one Session. They are
// registered on the Registerer given with WithRegisterer, or left
// unregistered if there is none. Sessions on the same Registerer count
// into the same collectors.
type sessionMetrics struct {
	// attempts counts ended attempts by method and outcome.
	attempts *prometheus.CounterVec
	// retries counts retries by method.
	retries *prometheus.CounterVec
	// duration observes attempt durations by method.
	duration *prometheus.HistogramVec
}

func newSessionMetrics(reg prometheus.Registerer) (*sessionMetrics, error) {
	m := &sessionMetrics{
		attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "requests_attempts_total",
				Help: "Total HTTP request attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "requests_retries_total",
				Help: "Total retries of failed HTTP request attempts by method",
			},
			[]string{"method"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "requests_duration_seconds",
				Help:    "HTTP request attempt duration in seconds by method",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.attempts, err = register(reg, m.attempts); err != nil {
		return nil, err
	}
	if m.retries, err = register(reg, m.retries); err != nil {
		return nil, err
	}
	if m.duration, err = register(reg, m.duration); err != nil {
		return nil, err
	}
	return m, nil
}

// register registers c with reg. Sessions sharing a Registerer share
// collectors, so if an identical collector is already registered, that
// one is returned instead.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	err := reg.Register(c)
	if err == nil {
		return c, nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing, nil
		}
	}
	return c, fmt.Errorf("registering metrics: %w", err)
}

func (m *sessionMetrics) recordAttempt(a *request.Attempt) {
	method := a.Request.Method
	outcome := outcomeSuccess
	switch {
	case a.Cancelled():
		outcome = outcomeCancelled
	case a.Err != nil:
		outcome = outcomeError
	}
	m.attempts.WithLabelValues(method, outcome).Inc()
	m.duration.WithLabelValues(method).Observe(a.Duration().Seconds())
}

func (m *sessionMetrics) recordRetry(method string) {
	m.retries.WithLabelValues(method).Inc()
}
