// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mwiki/mhttp/request"
	"github.com/mwiki/mhttp/transient"
)

// An operation is one transport operation of a request: one HTTP
// request sent and its response body read in full.
//
// An operation started by Drain runs on its own goroutine and reports
// back over the drain's completion channel. Only its id and the
// fields it writes while running are shared, and the channel send
// publishes them to the draining goroutine.
type operation struct {
	id       uint64
	sync     bool
	req      *http.Request
	prepErr  error
	cancel   context.CancelFunc
	start    time.Time
	end      time.Time
	resp     *http.Response
	body     []byte
	err      error
	panicked interface{}
}

// run executes the operation and reports it on done.
func (op *operation) run(doer HTTPDoer, done chan<- *operation) {
	if op.prepErr == nil {
		op.execute(doer)
	} else {
		op.end = time.Now()
		op.cancel()
	}
	done <- op
}

// execute sends the request and buffers the whole response body. A
// panic in the transport is recovered and recorded.
func (op *operation) execute(doer HTTPDoer) {
	defer func() {
		if v := recover(); v != nil {
			op.panicked = v
		}
		op.end = time.Now()
		op.cancel()
	}()

	resp, err := doer.Do(op.req)
	if err != nil {
		op.err = err
		return
	}
	op.resp = resp
	defer func() {
		_ = resp.Body.Close()
	}()
	op.body, op.err = io.ReadAll(resp.Body)
}

func (op *operation) panicErr() error {
	if err, ok := op.panicked.(error); ok {
		return fmt.Errorf("transport panicked: %w", err)
	}
	return fmt.Errorf("transport panicked: %v", op.panicked)
}

// metadata returns the metadata common to every outcome of the
// operation.
func (op *operation) metadata(r *request.Request) *request.Metadata {
	m := &request.Metadata{
		URL:         r.Target,
		Start:       op.start,
		End:         op.end,
		Attempt:     r.Attempts() - 1,
		Sync:        op.sync,
		HTTPRequest: op.req,
	}
	if op.req != nil {
		m.URL = op.req.URL
	}
	if prev := r.Metadata(); prev != nil {
		m.AttemptTimeouts = prev.AttemptTimeouts
	}
	return m
}

// settle classifies the finished operation. On failure the result is
// always request.Failure, even if part of the body was read.
func (op *operation) settle(r *request.Request) (request.Result, *request.Metadata) {
	m := op.metadata(r)

	err := op.err
	if op.prepErr != nil {
		err = op.prepErr
	}
	if err != nil {
		m.Err = urlErrorWrap(r, err)
		m.Category = transient.Categorize(m.Err)
		if m.Category == transient.Timeout {
			m.AttemptTimeouts++
		}
	}
	if op.resp != nil {
		m.StatusCode = op.resp.StatusCode
		m.Header = op.resp.Header
		if op.resp.Request != nil && op.resp.Request.URL != nil {
			m.URL = op.resp.Request.URL
		}
	}

	if m.Success() {
		return request.Success(op.body), m
	}
	return request.Failure, m
}

func urlErrorWrap(r *request.Request, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(r.Method),
		URL: r.Target.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
