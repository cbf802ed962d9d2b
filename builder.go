// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/gogama/requests/params"
	"github.com/gogama/requests/request"
)

type kind int

const (
	normalKind kind = iota
	uploadKind
)

// descriptor is the accumulated configuration of one request. Build
// takes a snapshot of it, and every attempt of the built request is
// materialized from that snapshot.
type descriptor struct {
	kind         kind
	url          string
	method       string
	query        map[string]any
	post         map[string]any
	headers      map[string]string
	encoding     ParameterEncoding
	appendCommon bool
	retry        int
	timeout      time.Duration
	cachePolicy  CachePolicy
	priority     Priority
	gzip         bool
	mark         map[string]any
	sorter       params.Sorter
	ctx          context.Context
	download     progressCallback
	upload       *uploadPayload
}

type progressCallback struct {
	d Dispatcher
	f func(request.Progress)
}

func (p progressCallback) report() func(request.Progress) {
	if p.f == nil {
		return nil
	}
	d, f := p.d, p.f
	if d == nil {
		d = Inline
	}
	return func(progress request.Progress) {
		d.Dispatch(func() { f(progress) })
	}
}

func (d *descriptor) snapshot() descriptor {
	c := *d
	c.query = maps.Clone(d.query)
	c.post = maps.Clone(d.post)
	c.headers = maps.Clone(d.headers)
	c.mark = maps.Clone(d.mark)
	if d.upload != nil {
		u := *d.upload
		u.parts = append([]part(nil), d.upload.parts...)
		c.upload = &u
	}
	return c
}

// A Builder accumulates the configuration of one request. Every setter
// changes the Builder and returns it, so calls can be chained:
//
//	req := session.Request("https://api.example.com/items").
//		Query(map[string]any{"page": 2}).
//		Headers(map[string]string{"Accept-Language": "en"}).
//		Retry(2).
//		Build()
//
// No setter validates its argument; problems surface when Build
// returns nil. A Builder is not safe for concurrent use.
type Builder struct {
	s *Session
	d descriptor
}

// Method sets the HTTP method. It overrides the implicit POST of an
// earlier call to Post.
func (b *Builder) Method(method string) *Builder {
	b.d.method = method
	return b
}

// Query sets the parameters appended to the URL's query.
func (b *Builder) Query(m map[string]any) *Builder {
	b.d.query = m
	return b
}

// Post sets the body parameters. If m is not empty the method becomes
// POST, unless Method is called afterwards.
func (b *Builder) Post(m map[string]any) *Builder {
	b.d.post = m
	if len(m) > 0 {
		b.d.method = http.MethodPost
	}
	return b
}

// Content sets the body parameters without changing the method.
func (b *Builder) Content(m map[string]any) *Builder {
	b.d.post = m
	return b
}

// Headers sets request headers. They take precedence over the default
// headers from Capabilities.
func (b *Builder) Headers(h map[string]string) *Builder {
	b.d.headers = h
	return b
}

// Encoding sets how body parameters are encoded.
func (b *Builder) Encoding(e ParameterEncoding) *Builder {
	b.d.encoding = e
	return b
}

// GzipEnabled sets whether the request body is compressed with
// Capabilities.CompressBody.
func (b *Builder) GzipEnabled(enabled bool) *Builder {
	b.d.gzip = enabled
	return b
}

// Retry sets the maximum number of retries after transient failures.
// A negative count means zero.
func (b *Builder) Retry(times int) *Builder {
	if times < 0 {
		times = 0
	}
	b.d.retry = times
	return b
}

// Timeout sets the per-attempt timeout. Zero means no timeout beyond
// what the HTTPDoer enforces.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.d.timeout = d
	return b
}

// CachePolicy sets the cache policy.
func (b *Builder) CachePolicy(c CachePolicy) *Builder {
	b.d.cachePolicy = c
	return b
}

// Priority sets the scheduling priority.
func (b *Builder) Priority(p Priority) *Builder {
	b.d.priority = p
	return b
}

// AppendCommonParameters sets whether the common parameters from
// Capabilities are appended to the query. The default is true.
func (b *Builder) AppendCommonParameters(enabled bool) *Builder {
	b.d.appendCommon = enabled
	return b
}

// Mark sets opaque metadata passed to
// Capabilities.PreprocessRequestBody.
func (b *Builder) Mark(m map[string]any) *Builder {
	b.d.mark = m
	return b
}

// QuerySorter sets the key order of query and common parameters. A nil
// sorter means lexical order.
func (b *Builder) QuerySorter(less params.Sorter) *Builder {
	b.d.sorter = less
	return b
}

// Context sets the context of the request. Cancelling ctx cancels the
// request; a deadline on ctx ends the request without further retries.
func (b *Builder) Context(ctx context.Context) *Builder {
	if ctx == nil {
		panic("requests: nil context")
	}
	b.d.ctx = ctx
	return b
}

// DownloadProgress sets a callback reporting how much of the response
// body has been received. It runs on d, or inline if d is nil.
func (b *Builder) DownloadProgress(d Dispatcher, f func(request.Progress)) *Builder {
	b.d.download = progressCallback{d: d, f: f}
	return b
}
