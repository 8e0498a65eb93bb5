// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"net"
	"syscall"
)

// A Category is the transience category of a transport error, as
// reported by Categorize.
//
// The category Not means either that there was no error, or that the
// error is not transient, i.e. that resubmitting the same request is
// very unlikely to succeed. Canceled is likewise never transient: the
// request's own context ended the operation.
//
// The remaining categories indicate the error is transient, meaning a
// resubmission has some prospect of success.
type Category int

const (
	// Not indicates no error, or any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout, either while connecting
	// (the session connect timeout) or while transferring (the transfer
	// timeout set by the client's timeout policy).
	//
	// Categorize returns Timeout if the error or any of its wrapped
	// causes has a Timeout() function that reports true, or wraps
	// context.DeadlineExceeded.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (ECONNREFUSED). It is classified as transient because it happens
	// while a remote service is restarting.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// connection (ECONNRESET).
	ConnReset
	// ConnAborted indicates the connection was aborted locally
	// (ECONNABORTED) or the peer closed a pipe mid-write (EPIPE).
	ConnAborted
	// DNS indicates a temporary name resolution failure. Permanent
	// resolution failures, such as a host that does not exist, are
	// categorized as Not.
	DNS
	// Canceled indicates the request's context was canceled.
	Canceled

	categorySentinel
)

var categoryNames = []string{
	"none",
	"timeout",
	"conn_refused",
	"conn_reset",
	"conn_aborted",
	"dns",
	"canceled",
}

// Categories returns every Category in declaration order.
func Categories() []Category {
	cats := make([]Category, int(categorySentinel))
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

// Name returns a short snake_case name for the category, suitable for
// use as a log field or metric label value.
func (c Category) Name() string {
	if c < 0 || c >= categorySentinel {
		return "unknown"
	}
	return categoryNames[c]
}

// String returns the name of the category.
func (c Category) String() string {
	return c.Name()
}

// Transient reports whether a resubmission after an error of this
// category has a prospect of success.
func (c Category) Transient() bool {
	return c != Not && c != Canceled && c < categorySentinel
}

// Categorize returns the transience category of the given error. A nil
// error produces Not.
//
// Categorize looks at wrapped cause errors contained within err, not
// just err itself. Timeouts take precedence over every other category,
// and cancellation over the errno-based categories. Categorize never
// consults a Temporary() method, as its semantics are unclear.
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ECONNRESET:
			return ConnReset
		case syscall.ECONNREFUSED:
			return ConnRefused
		case syscall.ECONNABORTED, syscall.EPIPE:
			return ConnAborted
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) && dnsErr.IsTemporary {
		return DNS
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
