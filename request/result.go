// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"net/url"
	"time"

	"github.com/mwiki/mhttp/transient"
)

// An Outcome classifies the result of a transport operation.
type Outcome int

const (
	// Pending is the outcome of a request which has not completed.
	Pending Outcome = iota
	// Succeeded is the outcome of an operation which finished with no
	// transport error and HTTP status code 200.
	Succeeded
	// Failed is the outcome of every other finished operation.
	Failed
)

// String returns the name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Pending:
		return "pending"
	case Succeeded:
		return "success"
	case Failed:
		return "failure"
	default:
		return "unknown"
	}
}

// A Result is the raw result of one transport operation.
type Result struct {
	// Body is the complete response body. It is nil unless Outcome is
	// Succeeded.
	Body []byte

	// Outcome classifies the operation.
	Outcome Outcome
}

// Failure is the result of every failed operation.
var Failure = Result{Outcome: Failed}

// Success returns a successful result carrying body.
func Success(body []byte) Result {
	if body == nil {
		body = []byte{}
	}
	return Result{Body: body, Outcome: Succeeded}
}

// OK indicates whether the result is a success.
func (r Result) OK() bool {
	return r.Outcome == Succeeded
}

// Metadata is what the transport reported about one operation.
//
// Completion handlers, timeout and retry policies, and event handlers
// should treat Metadata as read-only.
type Metadata struct {
	// URL is the effective URL of the operation: the final URL after
	// redirects if a response was received, otherwise the URL the
	// operation was sent to.
	URL *url.URL

	// StatusCode is the HTTP status code of the response, or 0 if no
	// response was received.
	StatusCode int

	// Header contains the response headers, or nil if no response was
	// received.
	Header http.Header

	// Err is the transport error, or nil. Whenever Err is non-nil, it
	// has the type *url.Error.
	Err error

	// Category is the transient error category of Err.
	Category transient.Category

	// Start is the time the operation started.
	Start time.Time

	// End is the time the operation finished.
	End time.Time

	// Attempt is the zero-based number of the operation: 0 for the
	// first run of a request, 1 for the first retry, and so on.
	Attempt int

	// AttemptTimeouts counts the operations on the request that ended
	// in a timeout, including this one.
	AttemptTimeouts int

	// Sync indicates the operation was run synchronously, bypassing
	// the scheduler.
	Sync bool

	// HTTPRequest is the lower-level request that was sent.
	HTTPRequest *http.Request
}

// Duration returns the elapsed time of the operation.
func (m *Metadata) Duration() time.Duration {
	if m.Start.IsZero() || m.End.IsZero() {
		return 0
	}
	return m.End.Sub(m.Start)
}

// Timeout indicates whether Err indicates a timeout.
func (m *Metadata) Timeout() bool {
	return m.Category == transient.Timeout
}

// Success indicates whether the operation is classified a success:
// no transport error and HTTP status code 200.
func (m *Metadata) Success() bool {
	return m.Err == nil && m.StatusCode == http.StatusOK
}
