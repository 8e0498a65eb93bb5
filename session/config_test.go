// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, DefaultMaxCon, cfg.MaxCon)
	assert.Equal(t, DefaultConTimeout, cfg.ConTimeout)
	assert.Equal(t, DefaultTransTimeout, cfg.TransTimeout)
	assert.Equal(t, DefaultMaxRedirects, cfg.MaxRedirects)
	assert.Equal(t, DefaultUserAgent, cfg.UserAgent)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultConfig_EnvOverrides(t *testing.T) {
	t.Setenv("MHTTP_MAX_CON", "2")
	t.Setenv("MHTTP_CON_TIMEOUT", "3")
	t.Setenv("MHTTP_TRANS_TIMEOUT", "not a number")
	t.Setenv("MHTTP_PROXY", "http://proxy.local:3128")

	cfg := DefaultConfig()
	assert.Equal(t, 2, cfg.MaxCon)
	assert.Equal(t, 3, cfg.ConTimeout)
	assert.Equal(t, DefaultTransTimeout, cfg.TransTimeout)
	assert.Equal(t, "http://proxy.local:3128", cfg.Proxy)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		cfg, err := LoadConfig(filepath.Join(dir, "nope.yaml"))
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})
	t.Run("full file", func(t *testing.T) {
		path := filepath.Join(dir, "full.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
max_con: 10
con_timeout: 5
trans_timeout: 180
user_agent: test-bot/1.0
referer: https://wiki.example.com/
max_redirects: -1
insecure_skip_verify: true
headers:
  Accept-Language: en
rate_limits:
  1s: 5
  1m: 100
`), 0o600))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, &Config{
			MaxCon:             10,
			ConTimeout:         5,
			TransTimeout:       180,
			Headers:            map[string]string{"Accept-Language": "en"},
			UserAgent:          "test-bot/1.0",
			Referer:            "https://wiki.example.com/",
			MaxRedirects:       -1,
			InsecureSkipVerify: true,
			RateLimits:         map[string]int{"1s": 5, "1m": 100},
		}, cfg)
	})
	t.Run("partial file gets defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_con: 1\n"), 0o600))
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		assert.Equal(t, 1, cfg.MaxCon)
		assert.Equal(t, DefaultConTimeout, cfg.ConTimeout)
		assert.Equal(t, DefaultTransTimeout, cfg.TransTimeout)
	})
	t.Run("malformed yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_con: [1, 2\n"), 0o600))
		_, err := LoadConfig(path)
		assert.ErrorContains(t, err, "parsing config")
	})
	t.Run("invalid value", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.yaml")
		require.NoError(t, os.WriteFile(path, []byte("max_con: -3\n"), 0o600))
		_, err := LoadConfig(path)
		assert.EqualError(t, err, "mhttp/session: max_con must be at least 1, got -3")
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return DefaultConfig() }
	testCases := []struct {
		name   string
		modify func(*Config)
		errMsg string
	}{
		{"max_con", func(c *Config) { c.MaxCon = 0 }, "max_con"},
		{"con_timeout", func(c *Config) { c.ConTimeout = -1 }, "con_timeout"},
		{"trans_timeout", func(c *Config) { c.TransTimeout = 0 }, "trans_timeout"},
		{"max_redirects", func(c *Config) { c.MaxRedirects = -2 }, "max_redirects"},
		{"proxy", func(c *Config) { c.Proxy = "http://[::1" }, "proxy"},
		{"header name", func(c *Config) { c.Headers = map[string]string{"Bad Name": "x"} }, "header"},
		{"header value", func(c *Config) { c.Headers = map[string]string{"X-Ok": "a\nb"} }, "header"},
		{"rate window", func(c *Config) { c.RateLimits = map[string]int{"soon": 1} }, "rate_limits window"},
		{"rate count", func(c *Config) { c.RateLimits = map[string]int{"1s": 0} }, "invalid rate_limits"},
		{"rate monotonic", func(c *Config) { c.RateLimits = map[string]int{"1s": 10, "1m": 5} }, "invalid rate_limits"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			c := valid()
			testCase.modify(c)
			assert.ErrorContains(t, c.Validate(), testCase.errMsg)
		})
	}
}
