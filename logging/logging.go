// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package logging installs event handlers which write structured
// zerolog records describing a client's requests.
//
// Routine events (enqueue, start) are logged at debug level. Successful
// completions are logged at info level, and failures, timeouts, and
// retries at warn level.
package logging

import (
	"github.com/mwiki/mhttp"
	"github.com/mwiki/mhttp/request"
	"github.com/rs/zerolog"
)

// Install adds handlers to g which log every event to logger.
func Install(g *mhttp.HandlerGroup, logger zerolog.Logger) {
	if g == nil {
		panic("mhttp/logging: nil handler group")
	}

	l := &eventLogger{logger: logger}
	for _, evt := range mhttp.Events() {
		g.PushBack(evt, l)
	}
}

type eventLogger struct {
	logger zerolog.Logger
}

func (l *eventLogger) Handle(evt mhttp.Event, r *request.Request) {
	var e *zerolog.Event
	switch evt {
	case mhttp.AfterEnqueue:
		e = l.logger.Debug().Int("priority", r.Priority())
	case mhttp.BeforeStart:
		e = l.logger.Debug().Int("attempt", r.Attempts()-1)
	case mhttp.AfterAttemptTimeout:
		e = withMetadata(l.logger.Warn(), r.Metadata())
	case mhttp.AfterComplete:
		m := r.Metadata()
		if r.Result().OK() {
			e = l.logger.Info()
		} else {
			e = l.logger.Warn()
		}
		e = withMetadata(e, m).Str("outcome", r.Result().Outcome.String())
	case mhttp.BeforeRetry:
		e = l.logger.Warn().Int("attempts", r.Attempts())
	default:
		return
	}

	e.Str("event", evt.Name()).
		Stringer("request_id", r.ID).
		Str("method", method(r)).
		Stringer("url", r.Target).
		Msg(message(evt))
}

func withMetadata(e *zerolog.Event, m *request.Metadata) *zerolog.Event {
	if m == nil {
		return e
	}
	e = e.Int("attempt", m.Attempt).
		Dur("duration", m.Duration()).
		Bool("sync", m.Sync)
	if m.StatusCode != 0 {
		e = e.Int("status", m.StatusCode)
	}
	if m.Err != nil {
		e = e.Err(m.Err).Str("category", m.Category.Name())
	}
	return e
}

func method(r *request.Request) string {
	if r.Method == "" {
		return "GET"
	}
	return r.Method
}

func message(evt mhttp.Event) string {
	switch evt {
	case mhttp.AfterEnqueue:
		return "request enqueued"
	case mhttp.BeforeStart:
		return "request starting"
	case mhttp.AfterAttemptTimeout:
		return "request timed out"
	case mhttp.AfterComplete:
		return "request completed"
	case mhttp.BeforeRetry:
		return "request retrying"
	default:
		return evt.Name()
	}
}
