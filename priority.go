// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

// A Priority is the scheduling priority of a request. The HTTPDoer can
// read it back from the attempt's context with request.PriorityFrom.
type Priority int

const (
	// PriorityDefault is the priority of requests which set none.
	PriorityDefault Priority = iota
	PriorityBackground
	PriorityLow
	PriorityHigh
)

// Value returns the priority as a number between 0.0 (Background) and
// 0.75 (High).
func (p Priority) Value() float32 {
	switch p {
	case PriorityBackground:
		return 0
	case PriorityLow:
		return 0.25
	case PriorityHigh:
		return 0.75
	default:
		return 0.5
	}
}

// String returns the name of the priority.
func (p Priority) String() string {
	switch p {
	case PriorityBackground:
		return "background"
	case PriorityLow:
		return "low"
	case PriorityHigh:
		return "high"
	default:
		return "default"
	}
}

// A CachePolicy tells caches between the client and the origin how to
// treat a request. It is sent as a Cache-Control request header unless
// the request already has one.
type CachePolicy int

const (
	// UseProtocolCachePolicy sends no Cache-Control header.
	UseProtocolCachePolicy CachePolicy = iota
	// ReloadIgnoringLocalCacheData sends "no-cache".
	ReloadIgnoringLocalCacheData
	// ReturnCacheDataElseLoad sends "max-stale".
	ReturnCacheDataElseLoad
	// ReturnCacheDataDontLoad sends "only-if-cached".
	ReturnCacheDataDontLoad
)

func (c CachePolicy) header() string {
	switch c {
	case ReloadIgnoringLocalCacheData:
		return "no-cache"
	case ReturnCacheDataElseLoad:
		return "max-stale"
	case ReturnCacheDataDontLoad:
		return "only-if-cached"
	default:
		return ""
	}
}
