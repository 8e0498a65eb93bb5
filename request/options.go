// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

// NoRedirects is the Options.MaxRedirects value which disables
// redirect following entirely.
const NoRedirects = -1

// Options holds the transport options which a request may override.
// The zero value of every field means "unset", that is, use the value
// configured on the session.
type Options struct {
	// UserAgent is sent as the User-Agent header unless the request's
	// Header already carries one.
	UserAgent string

	// Referer is sent as the Referer header unless the request's
	// Header already carries one.
	Referer string

	// Proxy is the URL of the HTTP proxy to use, for example
	// "http://proxy.example.com:3128".
	Proxy string

	// MaxRedirects is the maximum number of redirects to follow. Use
	// NoRedirects to disable redirect following.
	MaxRedirects int
}

// Merge returns the effective options obtained by overlaying o onto
// defaults. Every field set in o takes precedence over the same field
// in defaults.
func (o Options) Merge(defaults Options) Options {
	m := defaults
	if o.UserAgent != "" {
		m.UserAgent = o.UserAgent
	}
	if o.Referer != "" {
		m.Referer = o.Referer
	}
	if o.Proxy != "" {
		m.Proxy = o.Proxy
	}
	if o.MaxRedirects != 0 {
		m.MaxRedirects = o.MaxRedirects
	}
	return m
}
