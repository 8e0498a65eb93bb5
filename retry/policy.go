// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"time"

	"github.com/mwiki/mhttp/request"
)

// A Policy controls if and how a failed request is re-submitted by the
// client's default completion path. After every failed operation of a
// request with no completion handler and auto-retry enabled, a Policy
// decides whether a retry should be done and, if so, how long the wait
// period should be before the request re-enters the queue.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	Decider
	Waiter
}

// DefaultPolicy retries every failure immediately, without limit.
var DefaultPolicy Policy = policy{Always, NewFixedWaiter(0)}

// Robust is a bounded general-purpose retry policy. It allows up to
// DefaultTimes retries, only on a transient error (TransientErr) or on
// one of the status codes 429 (Too Many Requests), 502 (Bad Gateway),
// 503 (Service Unavailable), or 504 (Gateway Timeout), and waits
// according to DefaultWaiter.
var Robust Policy = policy{
	Times(DefaultTimes).And(StatusCode(429, 502, 503, 504).Or(TransientErr)),
	DefaultWaiter,
}

// Never is a policy that never retries.
var Never Policy = policy{Times(0), NewFixedWaiter(0)}

type policy struct {
	decider Decider
	waiter  Waiter
}

// NewPolicy composes a Decider and a Waiter into a retry Policy.
func NewPolicy(d Decider, w Waiter) Policy {
	if d == nil {
		panic("mhttp/retry: nil decider")
	}
	if w == nil {
		panic("mhttp/retry: nil waiter")
	}
	return policy{decider: d, waiter: w}
}

func (p policy) Decide(r *request.Request) bool {
	return p.decider.Decide(r)
}

func (p policy) Wait(r *request.Request) time.Duration {
	return p.waiter.Wait(r)
}
