// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"crypto/tls"
	"net/http/httptrace"
	"sync"
	"time"
)

// Timings is a point-in-time copy of the timings recorded by Metrics.
// Any phase that did not happen (for example DNS on a reused
// connection) has zero start and done times.
type Timings struct {
	Start                time.Time
	DNSStart             time.Time
	DNSDone              time.Time
	ConnectStart         time.Time
	ConnectDone          time.Time
	TLSHandshakeStart    time.Time
	TLSHandshakeDone     time.Time
	GotConn              time.Time
	WroteRequest         time.Time
	GotFirstResponseByte time.Time
	End                  time.Time

	ConnReused bool
	RemoteAddr string
}

// DNS returns the time spent resolving the host name.
func (t Timings) DNS() time.Duration {
	return span(t.DNSStart, t.DNSDone)
}

// Connect returns the time spent establishing the TCP connection.
func (t Timings) Connect() time.Duration {
	return span(t.ConnectStart, t.ConnectDone)
}

// TLSHandshake returns the time spent on the TLS handshake.
func (t Timings) TLSHandshake() time.Duration {
	return span(t.TLSHandshakeStart, t.TLSHandshakeDone)
}

// TimeToFirstByte returns the time from the start of the attempt until
// the first response byte arrived.
func (t Timings) TimeToFirstByte() time.Duration {
	return span(t.Start, t.GotFirstResponseByte)
}

// Total returns the time from the start of the attempt until the end.
func (t Timings) Total() time.Duration {
	return span(t.Start, t.End)
}

func span(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() {
		return 0
	}
	return end.Sub(start)
}

// Metrics records the connection timings of one attempt. It is safe
// for concurrent use; the transport may report dial events from several
// goroutines at once.
type Metrics struct {
	lock sync.Mutex
	t    Timings
}

// NewMetrics returns Metrics whose start time is the current time.
func NewMetrics() *Metrics {
	return &Metrics{t: Timings{Start: time.Now()}}
}

// WithMetrics returns a copy of ctx which records the connection events
// of any HTTP request made with it into m.
func WithMetrics(ctx context.Context, m *Metrics) context.Context {
	return httptrace.WithClientTrace(ctx, m.clientTrace())
}

// Timings returns a copy of the timings recorded so far.
func (m *Metrics) Timings() Timings {
	if m == nil {
		return Timings{}
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.t
}

// Finish records the end time of the attempt.
func (m *Metrics) Finish() {
	m.record(func(t *Timings) { t.End = time.Now() })
}

func (m *Metrics) record(f func(*Timings)) {
	m.lock.Lock()
	defer m.lock.Unlock()
	f(&m.t)
}

func (m *Metrics) clientTrace() *httptrace.ClientTrace {
	return &httptrace.ClientTrace{
		DNSStart: func(httptrace.DNSStartInfo) {
			m.record(func(t *Timings) { t.DNSStart = time.Now() })
		},
		DNSDone: func(httptrace.DNSDoneInfo) {
			m.record(func(t *Timings) { t.DNSDone = time.Now() })
		},
		ConnectStart: func(_, _ string) {
			m.record(func(t *Timings) {
				if t.ConnectStart.IsZero() {
					t.ConnectStart = time.Now()
				}
			})
		},
		ConnectDone: func(_, _ string, err error) {
			if err != nil {
				return
			}
			m.record(func(t *Timings) { t.ConnectDone = time.Now() })
		},
		TLSHandshakeStart: func() {
			m.record(func(t *Timings) { t.TLSHandshakeStart = time.Now() })
		},
		TLSHandshakeDone: func(tls.ConnectionState, error) {
			m.record(func(t *Timings) { t.TLSHandshakeDone = time.Now() })
		},
		GotConn: func(info httptrace.GotConnInfo) {
			m.record(func(t *Timings) {
				t.GotConn = time.Now()
				t.ConnReused = info.Reused
				if info.Conn != nil {
					t.RemoteAddr = info.Conn.RemoteAddr().String()
				}
			})
		},
		WroteRequest: func(httptrace.WroteRequestInfo) {
			m.record(func(t *Timings) { t.WroteRequest = time.Now() })
		},
		GotFirstResponseByte: func() {
			m.record(func(t *Timings) { t.GotFirstResponseByte = time.Now() })
		},
	}
}
