// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"time"

	"github.com/mwiki/mhttp/request"
)

// A Policy defines a timeout policy which may be plugged into the
// client (mhttp.Client) to direct how to set the transfer timeout for
// the first operation of a request, as well as for any retries.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines, since a synchronous run may overlap a drain.
type Policy interface {
	// Timeout returns the timeout to set on the next transport
	// operation of r.
	//
	// The outcome of r's previous operation, if any, is available
	// from r.Metadata().
	Timeout(r *request.Request) time.Duration
}

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value to set
// every operation timeout.
func Fixed(d time.Duration) Policy {
	return policy([]time.Duration{d})
}

// Adaptive constructs a timeout policy that varies the next timeout
// value if the previous operation timed out.
//
// Parameter usual is the timeout the policy returns for a first
// operation and for any retry whose immediately preceding operation
// did not time out.
//
// Parameter after contains the timeouts the policy returns if the
// previous operation timed out. If that was the request's first
// timeout, after[0] is returned; if the second, after[1], and so on.
// Once the request has timed out more often than after has elements,
// the last element of after is returned.
//
// For example, with
//
// 	p := Adaptive(30*time.Second, 2*time.Minute, 15*time.Minute)
//
// a slow wiki API gets 30 seconds, then 2 minutes after a timeout, and
// 15 minutes after every further timeout.
func Adaptive(usual time.Duration, after ...time.Duration) Policy {
	p := make([]time.Duration, 1, 1+len(after))
	p[0] = usual
	return policy(append(p, after...))
}

type policy []time.Duration

func (p policy) Timeout(r *request.Request) time.Duration {
	m := r.Metadata()
	if m == nil || !m.Timeout() {
		return p[0]
	}

	i := m.AttemptTimeouts
	if i > len(p)-1 {
		i = len(p) - 1
	}

	return p[i]
}
