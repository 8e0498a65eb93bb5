// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mhttp

import (
	"fmt"
	"time"

	"github.com/mwiki/mhttp/request"
)

// Drain blocks while it executes every queued request, returning when
// the scheduler, the in-flight set, and the set of requests waiting out
// a retry delay are all empty.
//
// Each iteration of the drain loop starts queued requests until the
// concurrency limit is reached or the scheduler is empty, then checks
// for one completion without blocking. A completion is dispatched to
// the request's completion handler, or to the default completion path
// if there is none. If no operation has completed, the loop waits at
// most IdlePause for one before checking the scheduler again. With
// nothing in flight it may sleep longer, until a retry delay or a rate
// limit expires. Either wait ends as soon as a request is enqueued, so
// requests enqueued by other goroutines during the drain are picked up
// promptly.
//
// When Drain returns nil, every request it started is Completed, though
// individual requests may have failed. Inspect each request's Result
// and Metadata.
//
// Drain returns ErrInvalidState if the client is already draining,
// including when called from a completion handler or event handler of
// the same client. It returns a FatalError if the engine itself fails,
// for example if the HTTPDoer panics. In that case every in-flight
// request is cancelled and completed with an ErrAborted transport
// error, while queued requests stay in the scheduler.
func (c *Client) Drain() error {
	if err := c.init(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.draining {
		c.mu.Unlock()
		return fmt.Errorf("mhttp: drain already in progress: %w", ErrInvalidState)
	}
	c.draining = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.draining = false
		c.mu.Unlock()
	}()

	d := &drainer{
		c:        c,
		doer:     c.doer(),
		limit:    c.Session.ConcurrencyLimit(),
		pause:    c.idlePause(),
		inFlight: make(map[uint64]*flight),
	}
	d.done = make(chan *operation, d.limit)
	return d.run()
}

// A drainer holds the state of one Drain call. It is only touched by
// the draining goroutine.
type drainer struct {
	c        *Client
	doer     HTTPDoer
	limit    int
	pause    time.Duration
	inFlight map[uint64]*flight
	deferred []deferredRetry
	done     chan *operation
	nextID   uint64
	blocked  time.Time
}

type flight struct {
	r  *request.Request
	op *operation
}

type deferredRetry struct {
	r        *request.Request
	priority int
	due      time.Time
}

func (d *drainer) run() error {
	for {
		d.promote(time.Now())
		d.fill()

		op, ok := d.poll()
		if !ok {
			if d.finished() {
				return nil
			}
			op, ok = d.wait()
		}
		if !ok {
			continue
		}

		if err := d.complete(op); err != nil {
			d.abort()
			return err
		}
	}
}

// fill starts queued requests until the concurrency limit is reached,
// the scheduler is empty, or the session's rate limiter refuses the
// host of the request at the head of the scheduler.
func (d *drainer) fill() {
	d.blocked = time.Time{}
	for len(d.inFlight) < d.limit {
		d.c.mu.Lock()
		head := d.c.queue.Peek()
		if head == nil {
			d.c.mu.Unlock()
			return
		}
		if next, ok := d.c.Session.Allow(head.Target.Host); !ok {
			d.blocked = next
			d.c.mu.Unlock()
			return
		}
		r, _, _ := d.c.queue.Extract()
		d.c.mu.Unlock()

		d.start(r)
	}
}

func (d *drainer) start(r *request.Request) {
	if err := r.Start(false); err != nil {
		// Only the draining goroutine starts queued requests, so a
		// request in the scheduler is always Queued.
		panic("mhttp: queued request not in Queued state")
	}
	op := d.c.begin(r, false)
	d.nextID++
	op.id = d.nextID
	d.inFlight[op.id] = &flight{r: r, op: op}
	go op.run(d.doer, d.done)
}

// poll returns a completed operation if one is ready, without blocking.
func (d *drainer) poll() (*operation, bool) {
	select {
	case op := <-d.done:
		return op, true
	default:
		return nil, false
	}
}

// wait blocks until an operation completes, a request is enqueued, or
// the idle pause elapses. With nothing in flight it instead sleeps
// until the next deferred retry is due, the rate limiter releases the
// head of the scheduler, or a request is enqueued.
func (d *drainer) wait() (*operation, bool) {
	pause := d.pause
	if len(d.inFlight) == 0 {
		if wake := d.wake(); !wake.IsZero() {
			if until := time.Until(wake); until > pause {
				pause = until
			}
		}
	}

	timer := time.NewTimer(pause)
	defer timer.Stop()
	select {
	case op := <-d.done:
		return op, true
	case <-d.c.wake:
		return nil, false
	case <-timer.C:
		return nil, false
	}
}

func (d *drainer) wake() time.Time {
	wake := d.blocked
	for _, dr := range d.deferred {
		if wake.IsZero() || dr.due.Before(wake) {
			wake = dr.due
		}
	}
	return wake
}

func (d *drainer) finished() bool {
	return len(d.inFlight) == 0 && len(d.deferred) == 0 && d.c.Count() == 0
}

// promote moves deferred retries which are due into the scheduler.
func (d *drainer) promote(now time.Time) {
	if len(d.deferred) == 0 {
		return
	}
	kept := d.deferred[:0]
	var due []deferredRetry
	for _, dr := range d.deferred {
		if now.Before(dr.due) {
			kept = append(kept, dr)
		} else {
			due = append(due, dr)
		}
	}
	d.deferred = kept
	if len(due) == 0 {
		return
	}
	d.c.mu.Lock()
	for _, dr := range due {
		d.c.queue.Insert(dr.r, dr.priority)
	}
	d.c.mu.Unlock()
}

// complete removes a finished operation from the in-flight set and
// dispatches its outcome. A non-nil error is fatal to the drain.
func (d *drainer) complete(op *operation) error {
	f, ok := d.inFlight[op.id]
	if !ok {
		return &FatalError{Err: fmt.Errorf("completion for unknown operation %d", op.id)}
	}
	delete(d.inFlight, op.id)
	if op.panicked != nil {
		d.c.abort(f.r, op)
		return &FatalError{Request: f.r, Err: op.panicErr()}
	}

	r := f.r
	res, m := d.c.finish(r, op)

	if h := r.CompletionHandler(); h != nil {
		h(resubmitter{d.c}, r, res, m)
		return nil
	}
	if res.OK() || !r.AutoRetry || op.prepErr != nil || r.Context().Err() != nil {
		return nil
	}
	// An event handler may already have re-enqueued the request.
	if r.State() != request.Completed {
		return nil
	}

	policy := d.c.retryPolicy()
	if !policy.Decide(r) {
		return nil
	}
	d.c.handlers().run(BeforeRetry, r)
	priority := r.Priority()
	wait := policy.Wait(r)
	if wait <= 0 {
		// Enqueue fails only if another goroutine re-enqueued r first,
		// which leaves it queued either way.
		_ = d.c.Enqueue(r, priority)
		return nil
	}
	if err := r.Submit(priority); err != nil {
		return nil
	}
	d.c.handlers().run(AfterEnqueue, r)
	d.deferred = append(d.deferred, deferredRetry{r: r, priority: priority, due: time.Now().Add(wait)})
	return nil
}

// abort cancels every in-flight operation, waits for each to report,
// and completes its request with an ErrAborted transport error.
// Deferred retries return to the scheduler.
func (d *drainer) abort() {
	for _, f := range d.inFlight {
		f.op.cancel()
	}
	for len(d.inFlight) > 0 {
		op := <-d.done
		f, ok := d.inFlight[op.id]
		if !ok {
			continue
		}
		delete(d.inFlight, op.id)
		d.c.abort(f.r, f.op)
	}

	if len(d.deferred) > 0 {
		d.c.mu.Lock()
		for _, dr := range d.deferred {
			d.c.queue.Insert(dr.r, dr.priority)
		}
		d.c.mu.Unlock()
		d.deferred = nil
	}
}
