// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package session holds the state shared by every request a client
executes: default headers and transport options, the concurrency limit
and timeouts, the single cookie jar, and the lower-level http.Client
wired to that jar.

A Session is built once from a Config and never rebuilt, so cookies set
by any response (for example a login) are sent with every later request
to the same site, whether the request is drained or run synchronously.

	cfg, err := session.LoadConfig("mhttp.yaml")
	...
	s, err := session.New(*cfg)

The Session also turns a request.Request into the outgoing
http.Request (see Prepare) and optionally limits how often requests may
start against each host (see Allow).
*/
package session
