// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mhttp

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/mwiki/mhttp/request"
	"github.com/mwiki/mhttp/retry"
	"github.com/mwiki/mhttp/sched"
	"github.com/mwiki/mhttp/session"
	"github.com/mwiki/mhttp/timeout"
)

// DefaultPriority is the conventional priority for ordinary requests.
// Higher priorities start first.
const DefaultPriority = 10

// DefaultIdlePause is the longest a drain waits for a completion
// before checking the scheduler again.
const DefaultIdlePause = 200 * time.Microsecond

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package, and in
	// particular must honor the request context.
	Do(r *http.Request) (*http.Response, error)
}

var emptyHandlers = HandlerGroup{}

// A Client is the execution engine. It accepts many independent
// requests, starts them in priority order under a bounded concurrency
// limit, and shares one Session (and so one cookie jar) across all of
// them. Its zero value is a valid configuration.
//
// The zero value client builds its Session from session.DefaultConfig
// on first use, uses the session's http.Client as the HTTPDoer,
// retry.DefaultPolicy as the retry policy, a fixed timeout equal to the
// session's transfer timeout as the timeout policy, and an empty
// handler group (no event handlers/plug-ins).
//
// Requests enter the client in one of two ways:
//
// • Enqueue stores a request in the client's scheduler and returns
// immediately. Nothing is sent until Drain is called.
//
// • RunSync sends a request immediately on the caller's goroutine,
// bypassing the scheduler and the concurrency limit.
//
// Drain blocks while it starts queued requests (highest priority first,
// first-in first-out among equal priorities) whenever fewer than the
// session's ConcurrencyLimit are in flight, and dispatches each
// completion, until no queued, in-flight, or retry-delayed requests
// remain.
//
// A transport failure never surfaces as an error. An operation with no
// transport error and status code 200 is a success; any other
// operation is a failure whose result is request.Failure. Failures are
// handed to the request's completion handler if it has one. Otherwise,
// if the request has auto-retry enabled, the retry policy decides
// whether to re-submit it at its original priority. The default retry
// policy retries without bound. A request which failed before anything
// was sent (for example because of an invalid header), or whose context
// is done, is never retried automatically.
//
// Client is safe for concurrent use by multiple goroutines, but at
// most one goroutine may drain a Client at a time. The fields of Client
// must not be changed after first use.
type Client struct {
	// Session holds the state shared by all requests: default headers
	// and options, concurrency limit, timeouts, and the cookie jar.
	//
	// If Session is nil, one is built from session.DefaultConfig on
	// first use. The session is never rebuilt.
	Session *session.Session
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, the session's HTTPClient is used.
	HTTPDoer HTTPDoer
	// RetryPolicy decides whether a failed request with no completion
	// handler and auto-retry enabled is re-submitted, and how long it
	// waits before re-entering the scheduler.
	//
	// If RetryPolicy is nil, retry.DefaultPolicy is used.
	RetryPolicy retry.Policy
	// TimeoutPolicy specifies the transfer timeout of each operation.
	//
	// If TimeoutPolicy is nil, a fixed timeout equal to the session's
	// TransferTimeout is used.
	TimeoutPolicy timeout.Policy
	// Handlers allows custom handler chains to be invoked when
	// designated events occur during execution of a request.
	//
	// If Handlers is nil, no custom handlers will be run.
	Handlers *HandlerGroup
	// IdlePause is the longest a drain waits for a completion before
	// checking the scheduler again.
	//
	// If IdlePause is zero, DefaultIdlePause is used.
	IdlePause time.Duration

	initOnce      sync.Once
	initErr       error
	timeoutPolicy timeout.Policy

	mu       sync.Mutex
	queue    sched.Queue
	draining bool
	wake     chan struct{}
}

// Enqueue submits a request to the client's scheduler at the given
// priority and returns immediately. The request is started by Drain.
//
// Enqueue returns ErrInvalidState if the request is already Queued or
// Active. A Created or Completed request may be enqueued.
func (c *Client) Enqueue(r *request.Request, priority int) error {
	if r == nil {
		panic("mhttp: nil request")
	}
	if err := c.init(); err != nil {
		return err
	}

	if err := r.Submit(priority); err != nil {
		return err
	}
	c.handlers().run(AfterEnqueue, r)
	c.mu.Lock()
	c.queue.Insert(r, priority)
	c.mu.Unlock()
	select {
	case c.wake <- struct{}{}:
	default:
	}
	return nil
}

// Count returns the number of requests waiting in the scheduler. It
// does not include requests which are in flight.
func (c *Client) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.Len()
}

// RunSync executes one request immediately on the caller's goroutine,
// outside the scheduler and outside the concurrency limit of Drain, and
// returns its raw result. It may be called while another goroutine is
// draining the same client, and shares the same session (and cookies).
//
// RunSync classifies the outcome like Drain does, but never invokes the
// request's completion handler and never retries: the caller interprets
// the result, which is request.Failure on failure. The metadata is
// available from the request's Metadata method.
//
// The returned error is non-nil only for invalid usage (ErrInvalidState
// if the request is Queued or Active) or if the transport failed
// fatally (a FatalError).
func (c *Client) RunSync(r *request.Request) (request.Result, error) {
	if r == nil {
		panic("mhttp: nil request")
	}
	if err := c.init(); err != nil {
		return request.Failure, err
	}

	if err := r.Start(true); err != nil {
		return request.Failure, err
	}
	op := c.begin(r, true)
	if op.prepErr == nil {
		op.execute(c.doer())
	} else {
		op.end = time.Now()
		op.cancel()
	}
	if op.panicked != nil {
		c.abort(r, op)
		return request.Failure, &FatalError{Request: r, Err: op.panicErr()}
	}
	res, _ := c.finish(r, op)
	return res, nil
}

// Get creates a GET request for the specified URL and runs it with
// RunSync. The completed request is returned: read its Result and
// Metadata.
//
// To make a request with custom headers or options, use request.New
// and Client.RunSync.
func (c *Client) Get(url string) (*request.Request, error) {
	return Get(c, url)
}

// PostForm creates a POST request for the specified URL, with data's
// keys and values URL-encoded as the request body, and runs it with
// RunSync.
func (c *Client) PostForm(url string, data url.Values) (*request.Request, error) {
	return PostForm(c, url, data)
}

// CloseIdleConnections invokes the same method on the client's
// underlying HTTPDoer.
//
// If the HTTPDoer has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	_ = c.init()
	doer := c.doer()
	if ic, ok := doer.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (c *Client) init() error {
	c.initOnce.Do(func() {
		c.wake = make(chan struct{}, 1)
		if c.Session == nil {
			c.Session, c.initErr = session.New(*session.DefaultConfig())
			if c.initErr != nil {
				return
			}
		}
		c.timeoutPolicy = c.TimeoutPolicy
		if c.timeoutPolicy == nil {
			c.timeoutPolicy = timeout.Fixed(c.Session.TransferTimeout())
		}
	})
	return c.initErr
}

func (c *Client) doer() HTTPDoer {
	if c.HTTPDoer != nil {
		return c.HTTPDoer
	}
	if c.Session != nil {
		return c.Session.HTTPClient()
	}
	return http.DefaultClient
}

func (c *Client) retryPolicy() retry.Policy {
	if c.RetryPolicy == nil {
		return retry.DefaultPolicy
	}
	return c.RetryPolicy
}

func (c *Client) handlers() *HandlerGroup {
	if c.Handlers == nil {
		return &emptyHandlers
	}
	return c.Handlers
}

func (c *Client) idlePause() time.Duration {
	if c.IdlePause <= 0 {
		return DefaultIdlePause
	}
	return c.IdlePause
}

// begin prepares the next operation of r, which must have just been
// moved to Active, and fires BeforeStart.
func (c *Client) begin(r *request.Request, inline bool) *operation {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeoutPolicy.Timeout(r))
	op := &operation{
		sync:   inline,
		cancel: cancel,
	}
	op.req, op.prepErr = c.Session.Prepare(ctx, r)
	c.handlers().run(BeforeStart, r)
	op.start = time.Now()
	return op
}

// finish classifies a finished operation, completes r with the result,
// and fires the completion events.
func (c *Client) finish(r *request.Request, op *operation) (request.Result, *request.Metadata) {
	res, m := op.settle(r)
	r.Complete(res, m)
	if m.Timeout() {
		c.handlers().run(AfterAttemptTimeout, r)
	}
	c.handlers().run(AfterComplete, r)
	return res, m
}

// abort completes r, whose operation could not finish normally, with
// the failure result and an ErrAborted transport error.
func (c *Client) abort(r *request.Request, op *operation) {
	op.cancel()
	m := op.metadata(r)
	m.End = time.Now()
	m.Err = urlErrorWrap(r, ErrAborted)
	r.Complete(request.Failure, m)
	c.handlers().run(AfterComplete, r)
}

type resubmitter struct {
	c *Client
}

func (h resubmitter) Resubmit(r *request.Request) error {
	return h.c.Enqueue(r, r.Priority())
}
