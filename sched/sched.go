// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package sched provides the priority queue from which a client starts
// its queued requests.
//
// Requests with a higher priority are extracted first. Among requests
// of equal priority, the one inserted first is extracted first, so the
// extraction order is fully deterministic.
//
// A Queue is not safe for concurrent use. Clients guard it with their
// own lock.
package sched

import (
	"container/heap"
	"errors"

	"github.com/mwiki/mhttp/request"
)

// ErrEmptyQueue is returned by Extract when the queue is empty.
var ErrEmptyQueue = errors.New("mhttp/sched: queue is empty")

// A Queue is an ordered multiset of prioritized requests. The zero
// value is an empty queue ready to use.
type Queue struct {
	items items
	seq   uint64
}

type item struct {
	r        *request.Request
	priority int
	seq      uint64
}

// Insert adds a request to the queue at the given priority. Any int
// priority is allowed. Insert is O(log n).
func (q *Queue) Insert(r *request.Request, priority int) {
	heap.Push(&q.items, item{r: r, priority: priority, seq: q.seq})
	q.seq++
}

// Extract removes and returns the request at the head of the queue
// together with the priority it was inserted at. If the queue is
// empty, Extract returns ErrEmptyQueue.
func (q *Queue) Extract() (*request.Request, int, error) {
	if len(q.items) == 0 {
		return nil, 0, ErrEmptyQueue
	}
	it := heap.Pop(&q.items).(item)
	return it.r, it.priority, nil
}

// Peek returns the request at the head of the queue without removing
// it, or nil if the queue is empty.
func (q *Queue) Peek() *request.Request {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0].r
}

// Len returns the number of requests in the queue.
func (q *Queue) Len() int {
	return len(q.items)
}

// Empty indicates whether the queue is empty.
func (q *Queue) Empty() bool {
	return len(q.items) == 0
}

type items []item

func (h items) Len() int { return len(h) }

func (h items) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h items) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *items) Push(x interface{}) {
	*h = append(*h, x.(item))
}

func (h *items) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = item{}
	*h = old[:n-1]
	return it
}
