// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package tracing records an OpenTelemetry span for every transport
// operation a client executes.
//
// A span starts when the BeforeStart event fires and ends when the
// AfterComplete event fires. Spans are children of the span, if any,
// carried by the request's context.
package tracing

import (
	"fmt"

	"github.com/mwiki/mhttp"
	"github.com/mwiki/mhttp/request"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the tracer.
const TracerName = "github.com/mwiki/mhttp"

type spanKey struct{}

// Install adds handlers to g which trace each operation using a tracer
// from tp. If tp is nil, the global tracer provider is used.
func Install(g *mhttp.HandlerGroup, tp trace.TracerProvider) {
	if g == nil {
		panic("mhttp/tracing: nil handler group")
	}
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	t := &tracer{tracer: tp.Tracer(TracerName)}
	g.PushBack(mhttp.BeforeStart, mhttp.HandlerFunc(t.start))
	g.PushBack(mhttp.AfterAttemptTimeout, mhttp.HandlerFunc(t.timeout))
	g.PushBack(mhttp.AfterComplete, mhttp.HandlerFunc(t.end))
}

// Span returns the span of the request's current operation, or nil if
// no operation is being traced.
func Span(r *request.Request) trace.Span {
	span, _ := r.Value(spanKey{}).(trace.Span)
	return span
}

type tracer struct {
	tracer trace.Tracer
}

func (t *tracer) start(_ mhttp.Event, r *request.Request) {
	method := r.Method
	if method == "" {
		method = "GET"
	}
	_, span := t.tracer.Start(r.Context(), "HTTP "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", r.Target.String()),
			attribute.String("server.address", r.Target.Hostname()),
			attribute.String("mhttp.request.id", r.ID.String()),
			attribute.Int("mhttp.attempt", r.Attempts()-1),
			attribute.Int("mhttp.priority", r.Priority()),
		),
	)
	r.SetValue(spanKey{}, span)
}

func (t *tracer) timeout(_ mhttp.Event, r *request.Request) {
	if span := Span(r); span != nil {
		span.AddEvent("timeout")
	}
}

func (t *tracer) end(_ mhttp.Event, r *request.Request) {
	span := Span(r)
	if span == nil {
		return
	}
	r.SetValue(spanKey{}, nil)

	res := r.Result()
	span.SetAttributes(attribute.String("mhttp.outcome", res.Outcome.String()))
	if m := r.Metadata(); m != nil {
		span.SetAttributes(attribute.Bool("mhttp.sync", m.Sync))
		if m.StatusCode != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", m.StatusCode))
		}
		if m.Err != nil {
			span.RecordError(m.Err)
			span.SetAttributes(attribute.String("error.type", m.Category.Name()))
			span.SetStatus(codes.Error, m.Err.Error())
		} else if !res.OK() {
			span.SetStatus(codes.Error, fmt.Sprintf("HTTP status %d", m.StatusCode))
		}
	}
	span.End()
}
