// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package sched

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/mwiki/mhttp/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_Empty(t *testing.T) {
	var q Queue
	assert.True(t, q.Empty())
	assert.Equal(t, 0, q.Len())
	assert.Nil(t, q.Peek())
	r, p, err := q.Extract()
	assert.Nil(t, r)
	assert.Equal(t, 0, p)
	assert.ErrorIs(t, err, ErrEmptyQueue)
}

func TestQueue_Priority(t *testing.T) {
	var q Queue
	low, mid, high := &request.Request{}, &request.Request{}, &request.Request{}
	q.Insert(low, math.MinInt)
	q.Insert(mid, 10)
	q.Insert(high, math.MaxInt)
	assert.Equal(t, 3, q.Len())
	assert.Same(t, high, q.Peek())

	r, p, err := q.Extract()
	require.NoError(t, err)
	assert.Same(t, high, r)
	assert.Equal(t, math.MaxInt, p)

	r, p, err = q.Extract()
	require.NoError(t, err)
	assert.Same(t, mid, r)
	assert.Equal(t, 10, p)

	r, p, err = q.Extract()
	require.NoError(t, err)
	assert.Same(t, low, r)
	assert.Equal(t, math.MinInt, p)

	assert.True(t, q.Empty())
}

func TestQueue_FIFOAmongEquals(t *testing.T) {
	var q Queue
	rs := make([]*request.Request, 50)
	for i := range rs {
		rs[i] = &request.Request{}
		q.Insert(rs[i], 5)
	}
	for i := range rs {
		r, _, err := q.Extract()
		require.NoError(t, err)
		assert.Same(t, rs[i], r, "position %d", i)
	}
}

func TestQueue_Random(t *testing.T) {
	type entry struct {
		r        *request.Request
		priority int
	}
	rng := rand.New(rand.NewSource(42))
	var q Queue
	var want []entry
	for i := 0; i < 500; i++ {
		e := entry{r: &request.Request{}, priority: rng.Intn(8) - 4}
		want = append(want, e)
		q.Insert(e.r, e.priority)
		if rng.Intn(4) == 0 {
			// Interleave extractions with insertions.
			sort.SliceStable(want, func(i, j int) bool { return want[i].priority > want[j].priority })
			r, p, err := q.Extract()
			require.NoError(t, err)
			assert.Same(t, want[0].r, r)
			assert.Equal(t, want[0].priority, p)
			want = want[1:]
		}
	}
	sort.SliceStable(want, func(i, j int) bool { return want[i].priority > want[j].priority })
	for _, e := range want {
		r, p, err := q.Extract()
		require.NoError(t, err)
		assert.Same(t, e.r, r)
		assert.Equal(t, e.priority, p)
	}
	assert.True(t, q.Empty())
}
