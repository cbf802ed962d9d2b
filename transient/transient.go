// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// A Category is the transience category of a particular error, as
// reported by function Categorize().
//
// The category Not means the error is not transient: a retry after
// encountering it is very unlikely to succeed, or the attempt was
// cancelled on purpose. All other categories indicate the error is
// transient.
type Category int

const (
	// Not indicates any non-transient error, including cancellation.
	Not Category = iota
	// Timeout indicates a client-side timeout. Categorize returns
	// Timeout if the error or any of its wrapped causes has a Timeout()
	// function that reports true.
	Timeout
	// HostUnresolvable indicates the host name does not resolve to any
	// address (a *net.DNSError with IsNotFound set).
	HostUnresolvable
	// HostUnreachable indicates the host resolved but could not be
	// connected to: ECONNREFUSED, EHOSTUNREACH or EHOSTDOWN.
	HostUnreachable
	// DNSFailure indicates any other *net.DNSError, for example a
	// server failure reported by the resolver.
	DNSFailure
	// ConnectionLost indicates an established connection went away:
	// ECONNRESET, ECONNABORTED, EPIPE, or an unexpected end of stream.
	ConnectionLost
	// NotConnected indicates the local host has no route to the
	// network: ENETUNREACH or ENETDOWN.
	NotConnected
)

var categoryNames = []string{
	"Not",
	"Timeout",
	"HostUnresolvable",
	"HostUnreachable",
	"DNSFailure",
	"ConnectionLost",
	"NotConnected",
}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "Unknown"
	}
	return categoryNames[c]
}

// Categorize returns the transience category of the given error. A nil
// error, a cancellation, and any error outside the fixed transient set
// all produce Not.
//
// In assessing transience, Categorize looks at wrapped cause errors
// contained within err, not just err itself. However, Categorize never
// checks if an error has a Temporary() function that returns true, as
// the semantics of Temporary() aren't entirely clear.
func Categorize(err error) Category {
	if err == nil || Cancelled(err) {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsNotFound {
			return HostUnresolvable
		}
		return DNSFailure
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNREFUSED, syscall.EHOSTUNREACH, syscall.EHOSTDOWN:
			return HostUnreachable
		case syscall.ECONNRESET, syscall.ECONNABORTED, syscall.EPIPE:
			return ConnectionLost
		case syscall.ENETUNREACH, syscall.ENETDOWN:
			return NotConnected
		}
	}

	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ConnectionLost
	}

	return Not
}

// Cancelled reports whether err, or any of its wrapped causes, is
// context.Canceled.
func Cancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

type hasTimeout interface {
	Timeout() bool
}
