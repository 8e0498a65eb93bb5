// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	urlpkg "net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	nilCtxMsg = "mhttp/request: nil context"
)

// A Request is a unit of work for the engine: one logical HTTP request
// which may be executed several times (once per retry).
//
// Create a Request with New or NewWithContext. The caller owns the
// exported fields and may change them freely until the request is
// first submitted. After that, they must not be changed while the
// request is Queued or Active, except from within the request's own
// completion handler.
type Request struct {
	// ID uniquely identifies the request for log and trace
	// correlation. It never changes.
	ID uuid.UUID

	// Method is either "GET" or "POST".
	Method string

	// Target is the fully-formed URL to access, including any query
	// parameters.
	Target *urlpkg.URL

	// Body is the optional flat key-value payload. For GET requests
	// it is appended to the target's query string; for POST requests
	// it is sent as a form-encoded body.
	Body urlpkg.Values

	// Header contains request header fields which override the
	// session's default headers, key by key.
	Header http.Header

	// Options contains transport options which override the session's
	// default options, field by field.
	Options Options

	// AutoRetry indicates whether a failed request with no completion
	// handler is re-submitted by the engine. New sets it to true.
	AutoRetry bool

	handler  CompletionHandler
	state    atomic.Int32
	priority int
	attempts int
	started  time.Time
	result   Result
	meta     *Metadata
	ctx      context.Context
	data     context.Context
}

// A Resubmitter re-submits a completed request to the client which
// executed it. The engine passes one to every completion handler.
type Resubmitter interface {
	// Resubmit re-enqueues the request at the priority it was last
	// enqueued at.
	Resubmit(r *Request) error
}

// A CompletionHandler is invoked by the engine once per outcome of a
// request executed by Drain. When set, it is solely responsible for
// any further action, including retrying via h.
//
// On failure, res is the Failure sentinel and m describes why.
type CompletionHandler func(h Resubmitter, r *Request, res Result, m *Metadata)

// New returns a new Request for the given target, payload, and method.
//
// The body parameter may be any value accepted by Values. The method
// may be "GET" or "POST" (case-insensitive), or empty, which means GET.
func New(target string, body interface{}, method string) (*Request, error) {
	return NewWithContext(context.Background(), target, body, method)
}

// NewWithContext returns a new Request with a context. The context
// bounds every execution of the request: once it is done, in-flight
// operations are cancelled and the request is never retried.
//
// The body and method parameters are interpreted as for New.
func NewWithContext(ctx context.Context, target string, body interface{}, method string) (*Request, error) {
	if ctx == nil {
		panic(nilCtxMsg)
	}

	m, err := validMethod(method)
	if err != nil {
		return nil, err
	}

	u, err := urlpkg.Parse(target)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("mhttp/request: target is not an absolute URL: %q", target)
	}

	b, err := Values(body)
	if err != nil {
		return nil, err
	}

	return &Request{
		ID:        uuid.New(),
		Method:    m,
		Target:    u,
		Body:      b,
		Header:    make(http.Header),
		AutoRetry: true,
		ctx:       ctx,
	}, nil
}

// SetHeaders replaces the request's header overrides. Keys are
// canonicalized.
func (r *Request) SetHeaders(h http.Header) *Request {
	r.Header = make(http.Header, len(h))
	for k, v := range h {
		r.Header[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return r
}

// SetOptions replaces the request's transport option overrides.
func (r *Request) SetOptions(o Options) *Request {
	r.Options = o
	return r
}

// SetCompletionHandler sets the request's completion handler. A nil
// handler restores the default completion behavior.
func (r *Request) SetCompletionHandler(h CompletionHandler) *Request {
	r.handler = h
	return r
}

// SetAutoRetry sets the request's auto-retry flag.
func (r *Request) SetAutoRetry(autoRetry bool) *Request {
	r.AutoRetry = autoRetry
	return r
}

// CompletionHandler returns the request's completion handler, or nil.
func (r *Request) CompletionHandler() CompletionHandler {
	return r.handler
}

// Context returns the request's context. The returned context is
// always non-nil; it defaults to the background context.
func (r *Request) Context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// State returns the request's lifecycle state.
func (r *Request) State() State {
	return State(r.state.Load())
}

// Priority returns the priority the request was most recently
// submitted at.
func (r *Request) Priority() int {
	return r.priority
}

// Attempts returns the number of transport operations started for the
// request so far.
func (r *Request) Attempts() int {
	return r.attempts
}

// Started returns the time the request's first transport operation
// started, or the zero time if it never started.
func (r *Request) Started() time.Time {
	return r.started
}

// Result returns the result of the request's most recent completed
// operation. Before the first completion, the result has Outcome
// Pending.
func (r *Request) Result() Result {
	return r.result
}

// Metadata returns the metadata of the request's most recent completed
// operation, or nil before the first completion.
func (r *Request) Metadata() *Metadata {
	return r.meta
}

// SetValue allows event handlers to store arbitrary data in the
// request.
//
// The key must follow the same rules as the key parameter in
// context.WithValue, namely it:
//
// • it may not be nil;
//
// • it must be comparable;
//
// • it should not be of type string or any other built-in type to avoid
// collisions between different event handlers putting data into the
// same request.
func (r *Request) SetValue(key, value interface{}) {
	ctx := r.data
	if ctx == nil {
		ctx = context.Background()
	}

	r.data = context.WithValue(ctx, key, value)
}

// Value returns the data value associated with this request for key,
// or nil if there is no value associated with key.
func (r *Request) Value(key interface{}) interface{} {
	ctx := r.data
	if ctx == nil {
		return nil
	}

	return ctx.Value(key)
}

func validMethod(method string) (string, error) {
	switch strings.ToUpper(method) {
	case "", http.MethodGet:
		return http.MethodGet, nil
	case http.MethodPost:
		return http.MethodPost, nil
	default:
		return "", errors.New("mhttp/request: unsupported method " + method)
	}
}
