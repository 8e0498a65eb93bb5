// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, testCase := range newTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			r, err := New(testCase.target, testCase.body, testCase.method)
			testCase.asserts(t, r, err)
			if r != nil {
				assert.Equal(t, context.Background(), r.Context())
			}
		})
	}
}

func TestNewWithContext(t *testing.T) {
	type foo struct{}
	ctx := context.WithValue(context.Background(), foo{}, "bar")
	for _, testCase := range newTestCases {
		t.Run(testCase.name+" with special context", func(t *testing.T) {
			r, err := NewWithContext(ctx, testCase.target, testCase.body, testCase.method)
			testCase.asserts(t, r, err)
			if r != nil {
				assert.Same(t, ctx, r.Context())
			}
		})
	}
	t.Run("nil context", func(t *testing.T) {
		assert.PanicsWithValue(t, nilCtxMsg, func() {
			_, _ = NewWithContext(nil, "https://foo.com", nil, "GET")
		})
	})
}

var newTestCases = []struct {
	name    string
	target  string
	body    interface{}
	method  string
	asserts func(*testing.T, *Request, error)
}{
	{
		name:   "empty method means GET",
		target: "https://foo.com/api.php?action=query",
		asserts: func(t *testing.T, r *Request, err error) {
			require.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "https://foo.com/api.php?action=query", r.Target.String())
			assert.Nil(t, r.Body)
			assert.NotNil(t, r.Header)
			assert.True(t, r.AutoRetry)
			assert.Equal(t, Created, r.State())
			assert.NotEqual(t, uuid.Nil, r.ID)
			assert.Nil(t, r.CompletionHandler())
			assert.Nil(t, r.Metadata())
			assert.Equal(t, Pending, r.Result().Outcome)
		},
	},
	{
		name:   "lower case post",
		target: "https://foo.com/api.php",
		body:   map[string]string{"action": "edit"},
		method: "post",
		asserts: func(t *testing.T, r *Request, err error) {
			require.NoError(t, err)
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, url.Values{"action": {"edit"}}, r.Body)
		},
	},
	{
		name:   "unsupported method",
		target: "https://foo.com",
		method: "PUT",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.Nil(t, r)
			assert.EqualError(t, err, "mhttp/request: unsupported method PUT")
		},
	},
	{
		name:   "relative target",
		target: "/api.php",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.Nil(t, r)
			assert.Error(t, err)
		},
	},
	{
		name:   "malformed target",
		target: ":foo",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.Nil(t, r)
			assert.Error(t, err)
		},
	},
	{
		name:   "bad body type",
		target: "https://foo.com",
		body:   42,
		asserts: func(t *testing.T, r *Request, err error) {
			assert.Nil(t, r)
			assert.EqualError(t, err, badBodyTypeMsg)
		},
	},
}

func TestRequest_Mutators(t *testing.T) {
	r, err := New("https://foo.com", nil, "")
	require.NoError(t, err)

	h := http.Header{"x-custom": {"a", "b"}}
	called := false
	handler := func(_ Resubmitter, _ *Request, _ Result, _ *Metadata) { called = true }

	got := r.SetHeaders(h).
		SetOptions(Options{UserAgent: "ua"}).
		SetCompletionHandler(handler).
		SetAutoRetry(false)

	assert.Same(t, r, got)
	assert.Equal(t, []string{"a", "b"}, r.Header.Values("X-Custom"))
	h["x-custom"][0] = "changed"
	assert.Equal(t, "a", r.Header.Get("X-Custom"), "SetHeaders must copy")
	assert.Equal(t, Options{UserAgent: "ua"}, r.Options)
	assert.False(t, r.AutoRetry)
	require.NotNil(t, r.CompletionHandler())
	r.CompletionHandler()(nil, r, Failure, nil)
	assert.True(t, called)

	r.SetCompletionHandler(nil)
	assert.Nil(t, r.CompletionHandler())
}

func TestRequest_Value(t *testing.T) {
	type key1 struct{}
	type key2 struct{}

	r := &Request{}
	assert.Nil(t, r.Value(key1{}))
	r.SetValue(key1{}, "foo")
	assert.Equal(t, "foo", r.Value(key1{}))
	assert.Nil(t, r.Value(key2{}))
	r.SetValue(key2{}, 2)
	assert.Equal(t, "foo", r.Value(key1{}))
	assert.Equal(t, 2, r.Value(key2{}))
	r.SetValue(key1{}, "bar")
	assert.Equal(t, "bar", r.Value(key1{}))
}

func TestRequest_ZeroContext(t *testing.T) {
	r := &Request{}
	assert.Equal(t, context.Background(), r.Context())
}
