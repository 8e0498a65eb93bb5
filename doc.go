// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package mhttp provides a concurrent, prioritized HTTP request engine
for crawlers and API clients which send many independent requests
through one shared session.

Create requests with package request, enqueue them on a Client, and
drain the client to execute them.

	client := &mhttp.Client{}
	r, err := request.New("https://en.wikipedia.org/w/api.php",
		map[string]string{"action": "query", "titles": "Main Page"}, "GET")
	...
	err = client.Enqueue(r, mhttp.DefaultPriority)
	...
	err = client.Drain()
	...
	if res := r.Result(); res.OK() {
		fmt.Println(string(res.Body))
	}

Drain starts queued requests highest priority first, and first-in
first-out within a priority, keeping at most the session's concurrency
limit in flight. To run a request immediately, bypassing the scheduler
and the concurrency limit, use RunSync. RunSync may be called while
another goroutine drains the same client, for example to fetch a login
token whose cookie the queued requests need.

	res, err := client.RunSync(r)

A request with a completion handler is solely responsible for its own
retries:

	r.SetCompletionHandler(func(h request.Resubmitter, r *request.Request,
		res request.Result, m *request.Metadata) {
		if !res.OK() && m.StatusCode == 429 {
			_ = h.Resubmit(r)
		}
	})

A request without one is retried by the client's retry policy for as
long as its auto-retry flag is set. The default policy retries without
bound and without delay. Use package retry for a bounded policy:

	client := &mhttp.Client{
		RetryPolicy: retry.NewPolicy(retry.Times(3).And(retry.TransientErr),
			retry.NewExpWaiter(250*time.Millisecond, 5*time.Second, time.Now())),
	}

Session-wide settings (concurrency limit, connect and transfer
timeouts, default headers, user agent, proxy, redirect limit, and
per-host rate limits) live in package session, and may be loaded from
a YAML file:

	cfg, err := session.LoadConfig("mhttp.yaml")
	...
	s, err := session.New(*cfg)
	...
	client := &mhttp.Client{Session: s}

To hook into the engine, install a handler into the appropriate
handler chain. Packages logging, metrics, and tracing provide ready-made
handlers.

	handlers := &mhttp.HandlerGroup{}
	handlers.PushBack(mhttp.BeforeStart, mhttp.HandlerFunc(
		func(_ mhttp.Event, r *request.Request) {
			log.Printf("Attempt %d to %s", r.Attempts(), r.Target)
		}),
	)
	client := &mhttp.Client{
		Handlers: handlers,
	}

Package mhttp provides basic interfaces for each method of the client
(Enqueuer, Drainer, Counter, SyncRunner, and IdleCloser); a combined
interface that composes them (Executor); and utility functions built
on them (Get, PostForm, Batch, and Fetch).
*/
package mhttp
