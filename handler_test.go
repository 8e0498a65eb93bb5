// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package mhttp

import (
	"fmt"
	"testing"

	"github.com/mwiki/mhttp/request"
	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	var evts []string
	var reqs []*request.Request
	h1 := &testHandler{seq: 1, evts: &evts, reqs: &reqs}
	h2 := &testHandler{seq: 2, evts: &evts, reqs: &reqs}
	g := &HandlerGroup{}
	t.Run("PushBack", func(t *testing.T) {
		assert.PanicsWithValue(t, "mhttp: nil handler", func() { g.PushBack(BeforeStart, nil) })
		assert.Panics(t, func() { g.PushBack(Event(123), h1) })
		g.PushBack(BeforeStart, h1)
		g.PushBack(BeforeStart, h2)
		g.PushBack(AfterComplete, h1)
	})
	t.Run("run", func(t *testing.T) {
		r1 := &request.Request{Method: "GET"}
		r2 := &request.Request{Method: "POST"}
		assert.Empty(t, evts)
		assert.Empty(t, reqs)
		g.run(BeforeRetry, r1)
		assert.Empty(t, evts)
		assert.Empty(t, reqs)
		g.run(BeforeStart, r1)
		assert.Equal(t, []string{"1.BeforeStart", "2.BeforeStart"}, evts)
		assert.Equal(t, []*request.Request{r1, r1}, reqs)
		evts = evts[:0]
		reqs = reqs[:0]
		g.run(AfterComplete, r2)
		assert.Equal(t, []string{"1.AfterComplete"}, evts)
		assert.Equal(t, []*request.Request{r2}, reqs)
	})
	t.Run("zero value", func(t *testing.T) {
		var empty HandlerGroup
		assert.NotPanics(t, func() { empty.run(AfterComplete, &request.Request{}) })
	})
}

type testHandler struct {
	seq  int
	evts *[]string
	reqs *[]*request.Request
}

func (h *testHandler) Handle(evt Event, r *request.Request) {
	*h.evts = append(*h.evts, fmt.Sprintf("%d.%s", h.seq, evt))
	*h.reqs = append(*h.reqs, r)
}

func TestHandlerFunc(t *testing.T) {
	var _evt Event
	var _r *request.Request
	var f = func(evt Event, r *request.Request) {
		_evt = evt
		_r = r
	}
	h := HandlerFunc(f)
	r := &request.Request{}
	h.Handle(AfterAttemptTimeout, r)

	assert.Equal(t, AfterAttemptTimeout, _evt)
	assert.Same(t, r, _r)
}
