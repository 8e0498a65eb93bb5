// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package session

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/mwiki/mhttp/request"
	"golang.org/x/net/http/httpproxy"
	"golang.org/x/net/publicsuffix"
)

// A Session is the state shared by all requests executed by one
// client. It is safe for concurrent use.
type Session struct {
	config   Config
	defaults request.Options
	header   http.Header
	jar      http.CookieJar
	client   *http.Client
	limiter  *catrate.Limiter
	envProxy func(*url.URL) (*url.URL, error)
}

type optionsKey struct{}

// New builds a Session from a config. The config is validated first.
func New(cfg Config) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("mhttp/session: creating cookie jar: %w", err)
	}

	s := &Session{
		config: cfg,
		defaults: request.Options{
			UserAgent:    cfg.UserAgent,
			Referer:      cfg.Referer,
			Proxy:        cfg.Proxy,
			MaxRedirects: cfg.MaxRedirects,
		},
		header:   make(http.Header, len(cfg.Headers)),
		jar:      jar,
		envProxy: httpproxy.FromEnvironment().ProxyFunc(),
	}
	for k, v := range cfg.Headers {
		s.header.Set(k, v)
	}

	rates, _ := cfg.rates()
	if rates != nil {
		s.limiter = catrate.NewLimiter(rates)
	}

	dialer := &net.Dialer{
		Timeout:   s.ConnectTimeout(),
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 s.proxy,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   cfg.MaxCon,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   s.ConnectTimeout(),
		ExpectContinueTimeout: 1 * time.Second,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
	}
	s.client = &http.Client{
		Transport:     transport,
		Jar:           jar,
		CheckRedirect: s.checkRedirect,
	}

	return s, nil
}

// Config returns a copy of the config the session was built from.
func (s *Session) Config() Config {
	return s.config
}

// ConcurrencyLimit returns the maximum number of concurrently active
// requests. It is always at least one.
func (s *Session) ConcurrencyLimit() int {
	return s.config.MaxCon
}

// ConnectTimeout returns the connect timeout.
func (s *Session) ConnectTimeout() time.Duration {
	return time.Duration(s.config.ConTimeout) * time.Second
}

// TransferTimeout returns the whole-transfer timeout.
func (s *Session) TransferTimeout() time.Duration {
	return time.Duration(s.config.TransTimeout) * time.Second
}

// Defaults returns the session's default transport options.
func (s *Session) Defaults() request.Options {
	return s.defaults
}

// Merge returns the effective transport options for a request: each
// field set in o wins over the session default. The session defaults
// are never modified.
func (s *Session) Merge(o request.Options) request.Options {
	return o.Merge(s.defaults)
}

// Header returns the effective header for a request: each key set in
// h wins over the session's default header for the same key.
func (s *Session) Header(h http.Header) http.Header {
	m := s.header.Clone()
	if m == nil {
		m = make(http.Header, len(h))
	}
	for k, v := range h {
		m[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	return m
}

// Jar returns the session's cookie jar. There is exactly one jar for
// the life of the session.
func (s *Session) Jar() http.CookieJar {
	return s.jar
}

// HTTPClient returns the session's lower-level HTTP client. It uses the
// session's cookie jar, connect timeout, proxy, and redirect settings.
func (s *Session) HTTPClient() *http.Client {
	return s.client
}

// Allow registers the start of a request against host, returning true
// if the session's rate limits permit it. If they do not, the returned
// time is the earliest time a start may be permitted. Without rate
// limits, Allow always returns true.
func (s *Session) Allow(host string) (time.Time, bool) {
	if s.limiter == nil {
		return time.Time{}, true
	}
	return s.limiter.Allow(host)
}

func (s *Session) options(ctx context.Context) request.Options {
	if o, ok := ctx.Value(optionsKey{}).(request.Options); ok {
		return o
	}
	return s.defaults
}

func (s *Session) proxy(req *http.Request) (*url.URL, error) {
	if o := s.options(req.Context()); o.Proxy != "" {
		return url.Parse(o.Proxy)
	}
	return s.envProxy(req.URL)
}

func (s *Session) checkRedirect(req *http.Request, via []*http.Request) error {
	limit := s.options(req.Context()).MaxRedirects
	switch {
	case limit == request.NoRedirects:
		return http.ErrUseLastResponse
	case limit == 0:
		limit = DefaultMaxRedirects
	}
	if len(via) > limit {
		return fmt.Errorf("stopped after %d redirects", limit)
	}
	return nil
}
