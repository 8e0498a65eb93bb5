// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"time"
)

// ErrInvalidState is returned when a request is submitted or run while
// it is already queued or active. It always indicates a caller bug.
var ErrInvalidState = errors.New("mhttp/request: request is already queued or active")

// A State is a position in the request lifecycle.
type State int32

const (
	// Created is the state of a request which has never been submitted.
	Created State = iota
	// Queued is the state of a request waiting in a client's scheduler
	// (or waiting out a retry delay before re-entering it).
	Queued
	// Active is the state of a request whose transport operation is in
	// progress.
	Active
	// Completed is the state of a request whose most recent transport
	// operation has finished, successfully or not.
	Completed
)

var stateNames = []string{"Created", "Queued", "Active", "Completed"}

// String returns the name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// Submit moves the request into the Queued state and records the
// priority it was queued at. It fails with ErrInvalidState if the
// request is already Queued or Active.
//
// Submit is intended for use by executing clients. Callers should use
// the client's Enqueue method instead.
func (r *Request) Submit(priority int) error {
	if !r.transition(Queued, Created, Completed) {
		return ErrInvalidState
	}
	r.priority = priority
	return nil
}

// Start moves the request into the Active state and increments its
// attempt counter. A queued start requires the request to be Queued.
// A synchronous start (sync true) bypasses any queue and requires the
// request to be Created or Completed.
//
// Start is intended for use by executing clients.
func (r *Request) Start(sync bool) error {
	var ok bool
	if sync {
		ok = r.transition(Active, Created, Completed)
	} else {
		ok = r.transition(Active, Queued)
	}
	if !ok {
		return ErrInvalidState
	}
	if r.attempts == 0 {
		r.started = time.Now()
	}
	r.attempts++
	return nil
}

// Complete moves the request into the Completed state and records the
// outcome of its most recent transport operation.
//
// Complete is intended for use by executing clients.
func (r *Request) Complete(res Result, m *Metadata) {
	r.result = res
	r.meta = m
	r.state.Store(int32(Completed))
}

func (r *Request) transition(to State, from ...State) bool {
	for _, f := range from {
		if r.state.CompareAndSwap(int32(f), int32(to)) {
			return true
		}
	}
	return false
}
