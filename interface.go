// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mhttp

import (
	"fmt"
	"net/url"

	"github.com/mwiki/mhttp/request"
)

// Enqueuer is the interface that wraps the basic Enqueue method.
//
// Enqueue submits a request to a scheduler at a priority and returns
// without sending it. Client implements the Enqueuer interface, and any
// other Enqueuer implementation must behave substantially the same as
// Client.Enqueue.
type Enqueuer interface {
	Enqueue(r *request.Request, priority int) error
}

// Drainer is the interface that wraps the basic Drain method.
//
// Drain executes every queued request and returns when none remain.
// Client implements the Drainer interface.
type Drainer interface {
	Drain() error
}

// Counter is the interface that wraps the basic Count method.
type Counter interface {
	Count() int
}

// SyncRunner is the interface that wraps the basic RunSync method.
//
// RunSync executes one request immediately, outside any scheduler, and
// returns its raw result. Client implements the SyncRunner interface,
// and any other SyncRunner implementation must behave substantially the
// same as Client.RunSync.
//
// Any SyncRunner can be used to issue simple requests via the Get and
// PostForm functions.
type SyncRunner interface {
	RunSync(r *request.Request) (request.Result, error)
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any idle which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
//
// If the underlying implementation does not support this ability,
// CloseIdleConnections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Enqueue, Drain,
// Count, RunSync, and CloseIdleConnections methods.
type Executor interface {
	Enqueuer
	Drainer
	Counter
	SyncRunner
	IdleCloser
}

// Get uses the specified SyncRunner to issue a GET to the specified
// URL. The completed request is returned so its Result and Metadata
// can be read.
//
// To make a request with custom headers or options, use request.New
// and x.RunSync.
func Get(x SyncRunner, target string) (*request.Request, error) {
	r, err := request.New(target, nil, "GET")
	if err != nil {
		return nil, err
	}
	_, err = x.RunSync(r)
	return r, err
}

// PostForm uses the specified SyncRunner to issue a POST to the
// specified URL, with data's keys and values URL-encoded as the request
// body.
func PostForm(x SyncRunner, target string, data url.Values) (*request.Request, error) {
	r, err := request.New(target, data, "POST")
	if err != nil {
		return nil, err
	}
	_, err = x.RunSync(r)
	return r, err
}

// Batch enqueues each request in rs at the same priority, preserving
// their order among themselves. It stops at the first request which
// cannot be enqueued. Requests enqueued before the failure stay queued.
func Batch(x Enqueuer, rs []*request.Request, priority int) error {
	for i, r := range rs {
		if err := x.Enqueue(r, priority); err != nil {
			return fmt.Errorf("mhttp: batch request %d: %w", i, err)
		}
	}
	return nil
}

// Fetch enqueues each request in rs at the same priority, then drains
// the executor.
func Fetch(x Executor, rs []*request.Request, priority int) error {
	if err := Batch(x, rs, priority); err != nil {
		return err
	}
	return x.Drain()
}
