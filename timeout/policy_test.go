// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"math"
	"testing"
	"time"

	"github.com/mwiki/mhttp/request"
	"github.com/mwiki/mhttp/transient"
	"github.com/stretchr/testify/assert"
)

func completed(attemptTimeouts int, cat transient.Category) *request.Request {
	r := &request.Request{}
	r.Complete(request.Failure, &request.Metadata{AttemptTimeouts: attemptTimeouts, Category: cat})
	return r
}

func TestInfinite(t *testing.T) {
	a := Infinite.Timeout(&request.Request{})
	assert.Equal(t, time.Duration(math.MaxInt64), a)
	b := Infinite.Timeout(completed(10, transient.Timeout))
	assert.Equal(t, time.Duration(math.MaxInt64), b)
}

func TestFixed(t *testing.T) {
	p := Fixed(33 * time.Hour)
	assert.Equal(t, 33*time.Hour, p.Timeout(&request.Request{}))
	assert.Equal(t, 33*time.Hour, p.Timeout(completed(1, transient.Timeout)))
	assert.Equal(t, 33*time.Hour, p.Timeout(completed(2, transient.Timeout)))
}

func TestAdaptive(t *testing.T) {
	p := Adaptive(5*time.Millisecond, 10*time.Millisecond, 100*time.Millisecond)
	assert.Equal(t, 5*time.Millisecond, p.Timeout(&request.Request{}))
	assert.Equal(t, 10*time.Millisecond, p.Timeout(completed(1, transient.Timeout)))
	assert.Equal(t, 5*time.Millisecond, p.Timeout(completed(1, transient.ConnReset)))
	assert.Equal(t, 5*time.Millisecond, p.Timeout(completed(2, transient.Not)))
	assert.Equal(t, 100*time.Millisecond, p.Timeout(completed(2, transient.Timeout)))
	assert.Equal(t, 100*time.Millisecond, p.Timeout(completed(3, transient.Timeout)))
	assert.Equal(t, 100*time.Millisecond, p.Timeout(completed(7, transient.Timeout)))
}

func TestAdaptive_UsualOnly(t *testing.T) {
	p := Adaptive(time.Second)
	assert.Equal(t, time.Second, p.Timeout(completed(4, transient.Timeout)))
}
