// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValues(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		v, err := Values(nil)
		assert.NoError(t, err)
		assert.Nil(t, v)
	})
	t.Run("url.Values copied", func(t *testing.T) {
		src := url.Values{"a": {"1", "2"}}
		v, err := Values(src)
		require.NoError(t, err)
		assert.Equal(t, src, v)
		src["a"][0] = "x"
		assert.Equal(t, "1", v.Get("a"))
	})
	t.Run("map of slices", func(t *testing.T) {
		v, err := Values(map[string][]string{"titles": {"Foo|Bar"}})
		require.NoError(t, err)
		assert.Equal(t, url.Values{"titles": {"Foo|Bar"}}, v)
	})
	t.Run("flat map", func(t *testing.T) {
		v, err := Values(map[string]string{"action": "query", "format": "json"})
		require.NoError(t, err)
		assert.Equal(t, url.Values{"action": {"query"}, "format": {"json"}}, v)
	})
	t.Run("bad type", func(t *testing.T) {
		v, err := Values("action=query")
		assert.Nil(t, v)
		assert.EqualError(t, err, badBodyTypeMsg)
	})
}

func TestOptions_Merge(t *testing.T) {
	defaults := Options{UserAgent: "default-ua", Referer: "https://ref", Proxy: "http://p:1", MaxRedirects: 30}

	assert.Equal(t, defaults, Options{}.Merge(defaults))

	o := Options{UserAgent: "mine", MaxRedirects: NoRedirects}
	assert.Equal(t, Options{UserAgent: "mine", Referer: "https://ref", Proxy: "http://p:1", MaxRedirects: NoRedirects}, o.Merge(defaults))
	assert.Equal(t, "default-ua", defaults.UserAgent, "defaults unchanged")
}
