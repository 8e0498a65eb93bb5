// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains the core types Request (a unit of work for the
engine), Result (the raw outcome of one transport operation), and
Metadata (what the transport reported about that operation).

A Request describes one logical HTTP request: a target URL, a method
(GET or POST), an optional flat key-value payload, optional headers and
transport options that override the session defaults, an optional
completion handler, and an auto-retry flag.

	r, err := request.New("https://wiki.example.com/api.php",
		url.Values{"action": {"query"}, "format": {"json"}}, "GET")
	...
	err = client.Enqueue(r, mhttp.DefaultPriority)

The payload is encoded by the engine when the request starts: onto the
query string for GET, as an application/x-www-form-urlencoded body for
POST. Once a request has been submitted, its payload fields must not be
changed while it is queued or active.

A Request moves through the states Created, Queued, Active, and
Completed. Only the executing client performs state transitions; the
caller owns the payload fields and the auto-retry flag.

Every completed operation is classified as a success (no transport
error and status code 200) or a failure. On failure the Result is the
Failure sentinel, never a partially read body, so downstream code
cannot mistake a truncated body for a valid one.
*/
package request
