// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mwiki/mhttp/request"
	"golang.org/x/net/http/httpguts"
)

// Prepare builds the outgoing http.Request for one execution of r.
//
// The request's options and header are merged with the session
// defaults. For a GET request the body is encoded onto the target's
// query string, joined with "&" if the target already has a query and
// "?" otherwise. For a POST request the body is sent form-encoded. The
// User-Agent and Referer headers are taken from the merged options
// unless the merged header already sets them.
//
// The merged options travel in the returned request's context, where
// the session's transport reads the proxy and redirect limit.
func (s *Session) Prepare(ctx context.Context, r *request.Request) (*http.Request, error) {
	o := s.Merge(r.Options)
	u := *r.Target

	var body io.Reader
	var contentType string
	switch r.Method {
	case "", http.MethodGet:
		if len(r.Body) > 0 {
			q := strings.ReplaceAll(r.Body.Encode(), "+", "%20")
			if u.RawQuery == "" {
				u.RawQuery = q
			} else {
				u.RawQuery += "&" + q
			}
		}
	case http.MethodPost:
		body = strings.NewReader(r.Body.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		return nil, fmt.Errorf("mhttp/session: unsupported method %s", r.Method)
	}

	ctx = context.WithValue(ctx, optionsKey{}, o)
	req, err := http.NewRequestWithContext(ctx, methodOf(r), u.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header = s.Header(r.Header)
	for k, vs := range req.Header {
		if !httpguts.ValidHeaderFieldName(k) {
			return nil, fmt.Errorf("mhttp/session: invalid header name %q", k)
		}
		for _, v := range vs {
			if !httpguts.ValidHeaderFieldValue(v) {
				return nil, fmt.Errorf("mhttp/session: invalid value for header %q", k)
			}
		}
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}
	if o.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", o.UserAgent)
	}
	if o.Referer != "" && req.Header.Get("Referer") == "" {
		req.Header.Set("Referer", o.Referer)
	}

	return req, nil
}

func methodOf(r *request.Request) string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}
