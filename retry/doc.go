// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package retry provides the policies a client applies when a failed
// request has no completion handler and has auto-retry enabled: whether
// to re-submit the request, and how long to wait first.
//
// The interface Policy defines a retry Policy. A Policy instance can be
// constructed using NewPolicy by providing a decision-maker, Decider,
// and a wait time calculator, Waiter. Both Decider and Waiter have
// constructors for common use cases, so that a useful policy can be
// quickly assembled:
//
//     decider := retry.Times(3).
//                    And(retry.Before(5 * time.Minute)).
//                    And(retry.StatusCode(500).Or(retry.TransientErr))
//     waiter := retry.NewExpWaiter(100*time.Millisecond, 2*time.Second, time.Now())
//     policy := retry.NewPolicy(decider, waiter)
//
// The DefaultPolicy re-submits every failure immediately, with no limit
// on the number of retries. A request against a target which always
// fails is therefore retried until something outside the policy stops
// it: the request's auto-retry flag being cleared, its context being
// done, or a different policy.
package retry
