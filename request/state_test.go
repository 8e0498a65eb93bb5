// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_String(t *testing.T) {
	assert.Equal(t, "Created", Created.String())
	assert.Equal(t, "Queued", Queued.String())
	assert.Equal(t, "Active", Active.String())
	assert.Equal(t, "Completed", Completed.String())
	assert.Equal(t, "Unknown", State(-1).String())
	assert.Equal(t, "Unknown", State(4).String())
}

func TestRequest_Lifecycle(t *testing.T) {
	t.Run("queued", func(t *testing.T) {
		r := &Request{}
		require.NoError(t, r.Submit(7))
		assert.Equal(t, Queued, r.State())
		assert.Equal(t, 7, r.Priority())
		assert.ErrorIs(t, r.Submit(8), ErrInvalidState)
		assert.Equal(t, 7, r.Priority())
		assert.ErrorIs(t, r.Start(true), ErrInvalidState)

		require.NoError(t, r.Start(false))
		assert.Equal(t, Active, r.State())
		assert.Equal(t, 1, r.Attempts())
		assert.ErrorIs(t, r.Submit(1), ErrInvalidState)
		assert.ErrorIs(t, r.Start(false), ErrInvalidState)
		assert.ErrorIs(t, r.Start(true), ErrInvalidState)

		m := &Metadata{StatusCode: 500}
		r.Complete(Failure, m)
		assert.Equal(t, Completed, r.State())
		assert.Equal(t, Failure, r.Result())
		assert.Same(t, m, r.Metadata())

		require.NoError(t, r.Submit(3))
		assert.Equal(t, 3, r.Priority())
		require.NoError(t, r.Start(false))
		assert.Equal(t, 2, r.Attempts())
	})
	t.Run("sync", func(t *testing.T) {
		r := &Request{}
		assert.True(t, r.Started().IsZero())
		assert.ErrorIs(t, r.Start(false), ErrInvalidState)
		require.NoError(t, r.Start(true))
		assert.Equal(t, Active, r.State())
		started := r.Started()
		assert.False(t, started.IsZero())
		r.Complete(Success([]byte("ok")), &Metadata{})
		require.NoError(t, r.Start(true))
		assert.Equal(t, 2, r.Attempts())
		assert.Equal(t, started, r.Started())
	})
	t.Run("concurrent submit", func(t *testing.T) {
		r := &Request{}
		var wg sync.WaitGroup
		var mu sync.Mutex
		succeeded := 0
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func(p int) {
				defer wg.Done()
				if r.Submit(p) == nil {
					mu.Lock()
					succeeded++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, Queued, r.State())
	})
}
