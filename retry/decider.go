// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/mwiki/mhttp/request"
	"github.com/mwiki/mhttp/transient"
)

// A Decider decides if a retry should be done.
//
// Implementations of Decider must be safe for concurrent use by
// multiple goroutines.
//
// Use the built-in constructors Times, StatusCode, and Before, and the
// built-in deciders Always and TransientErr; or implement your Decider.
// Use DeciderFunc to convert an ordinary function into a Decider, and
// to compose deciders logically using DeciderFunc.And and
// DeciderFunc.Or.
//
// A Decider is only consulted for a Completed request whose most
// recent operation failed, so r.Metadata() is never nil.
type Decider interface {
	Decide(r *request.Request) bool
}

// The DeciderFunc type is an adapter to allow the use of ordinary
// functions as retry deciders. It implements the Decider interface, and
// also provides the logical composition methods And and Or.
//
// Every DeciderFunc must be safe for concurrent use by multiple
// goroutines.
type DeciderFunc func(r *request.Request) bool

// DefaultTimes is the number of times Robust will retry.
const DefaultTimes = 5

// Always is a decider that retries every failure.
var Always DeciderFunc = func(_ *request.Request) bool { return true }

// TransientErr is a decider that indicates a retry if the most recent
// operation ended in a transient transport error.
//
// TransientErr only looks at the error, so it will always return false
// if a valid HTTP response was received. Compose it with other
// deciders, for example a status code decider constructed with
// StatusCode, to get more complex functionality.
var TransientErr DeciderFunc = transientErr

// Decide returns true if a retry should be done, and false otherwise,
// after examining the request.
func (f DeciderFunc) Decide(r *request.Request) bool {
	return f(r)
}

// And composes two retry deciders into a new decider which returns true
// if both sub-deciders return true, and false otherwise.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// false.
func (f DeciderFunc) And(g DeciderFunc) DeciderFunc {
	return func(r *request.Request) bool {
		return f(r) && g(r)
	}
}

// Or composes two retry deciders into a new decider which returns
// true if either of the two sub-deciders returns true, but false if
// they both return false.
//
// Short-circuit logic is used, so g will not be evaluated if f returns
// true.
func (f DeciderFunc) Or(g DeciderFunc) DeciderFunc {
	return func(r *request.Request) bool {
		return f(r) || g(r)
	}
}

// Times constructs a retry decider which allows up to n retries. The
// returned decider returns true while the zero-based attempt number of
// the most recent operation is less than n, and false otherwise.
func Times(n int) DeciderFunc {
	return func(r *request.Request) bool {
		return attempt(r) < n
	}
}

// Before constructs a retry decider allowing retries until a certain
// amount of time has elapsed since the request's first operation
// started.
func Before(d time.Duration) DeciderFunc {
	return func(r *request.Request) bool {
		start := r.Started()
		if start.IsZero() {
			return true
		}
		end := time.Now()
		if m := r.Metadata(); m != nil && !m.End.IsZero() {
			end = m.End
		}
		return end.Sub(start) < d
	}
}

// StatusCode constructs a retry decider allowing retries based on the
// HTTP response status code. If the most recent operation received a
// valid HTTP response, and the response status code is contained in
// the list ss, the decider returns true. Otherwise, it returns false.
func StatusCode(ss ...int) DeciderFunc {
	ss2 := make([]int, len(ss))
	copy(ss2, ss)
	return func(r *request.Request) bool {
		m := r.Metadata()
		if m == nil {
			return false
		}
		for _, s := range ss2 {
			if m.StatusCode == s {
				return true
			}
		}
		return false
	}
}

func transientErr(r *request.Request) bool {
	m := r.Metadata()
	if m == nil {
		return false
	}
	if m.Category != transient.Not {
		return true
	}
	return transient.Categorize(m.Err) != transient.Not
}

func attempt(r *request.Request) int {
	if m := r.Metadata(); m != nil {
		return m.Attempt
	}
	return 0
}
