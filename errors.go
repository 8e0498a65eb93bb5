// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mhttp

import (
	"errors"
	"fmt"

	"github.com/mwiki/mhttp/request"
)

var (
	// ErrInvalidState is returned when a request is enqueued or run
	// while it is already queued or active, and when Drain is called
	// while the same client is already draining.
	ErrInvalidState = request.ErrInvalidState

	// ErrEngineFatal matches, via errors.Is, every error Drain returns
	// because the engine itself failed, as opposed to an individual
	// request failing.
	ErrEngineFatal = errors.New("mhttp: engine fatal")

	// ErrAborted is the transport error recorded on requests which
	// were in flight when a drain was aborted by a fatal error.
	ErrAborted = errors.New("mhttp: aborted by fatal engine error")
)

// A FatalError reports a failure of the engine which aborted a drain.
//
// When Drain returns a FatalError, every request that was in flight
// has been cancelled and marked Completed with the Failure result and
// an ErrAborted transport error. Requests still in the scheduler remain
// Queued and are started by the next Drain.
type FatalError struct {
	// Request is the request whose operation failed fatally, or nil.
	Request *request.Request

	// Err describes the failure.
	Err error
}

func (e *FatalError) Error() string {
	if e.Request != nil {
		return fmt.Sprintf("mhttp: engine fatal: request %s: %v", e.Request.ID, e.Err)
	}
	return fmt.Sprintf("mhttp: engine fatal: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrEngineFatal.
func (e *FatalError) Is(target error) bool {
	return target == ErrEngineFatal
}
