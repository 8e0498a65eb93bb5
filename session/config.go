// Copyright 2022 The mhttp Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package session

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joeycumines/go-catrate"
	"golang.org/x/net/http/httpguts"
	"gopkg.in/yaml.v3"
)

// Default configuration values.
const (
	DefaultMaxCon       = 6
	DefaultConTimeout   = 20
	DefaultTransTimeout = 900
	DefaultMaxRedirects = 30
	DefaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:106.0) Gecko/20100101 Firefox/106.0"
)

// Config is the flat configuration object of a Session.
type Config struct {
	// MaxCon is the maximum number of concurrently active requests.
	MaxCon int `yaml:"max_con"`
	// ConTimeout is the connect timeout in seconds.
	ConTimeout int `yaml:"con_timeout"`
	// TransTimeout is the whole-transfer timeout in seconds.
	TransTimeout int `yaml:"trans_timeout"`

	Headers            map[string]string `yaml:"headers"`
	UserAgent          string            `yaml:"user_agent"`
	Referer            string            `yaml:"referer"`
	Proxy              string            `yaml:"proxy"`
	MaxRedirects       int               `yaml:"max_redirects"` // -1 disables redirects
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`

	// RateLimits limits how many requests may start against one host
	// within each window, for example {"1s": 5, "1m": 100}.
	RateLimits map[string]int `yaml:"rate_limits"`
}

// LoadConfig reads config from a YAML file, then applies environment
// variable overrides and defaults for missing values. A missing file
// is not an error: the defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	} else if err != nil {
		return nil, fmt.Errorf("mhttp/session: reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("mhttp/session: parsing config %s: %w", path, err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DefaultConfig returns a config with the default values, with any
// environment variable overrides applied.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return cfg
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("MHTTP_MAX_CON"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxCon = n
		}
	}
	if v := os.Getenv("MHTTP_CON_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ConTimeout = n
		}
	}
	if v := os.Getenv("MHTTP_TRANS_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TransTimeout = n
		}
	}
	if v := os.Getenv("MHTTP_PROXY"); v != "" {
		c.Proxy = v
	}
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.MaxCon == 0 {
		c.MaxCon = DefaultMaxCon
	}
	if c.ConTimeout == 0 {
		c.ConTimeout = DefaultConTimeout
	}
	if c.TransTimeout == 0 {
		c.TransTimeout = DefaultTransTimeout
	}
	if c.MaxRedirects == 0 {
		c.MaxRedirects = DefaultMaxRedirects
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
}

// Validate reports the first invalid value in the config.
func (c *Config) Validate() error {
	if c.MaxCon < 1 {
		return fmt.Errorf("mhttp/session: max_con must be at least 1, got %d", c.MaxCon)
	}
	if c.ConTimeout <= 0 {
		return fmt.Errorf("mhttp/session: con_timeout must be positive, got %d", c.ConTimeout)
	}
	if c.TransTimeout <= 0 {
		return fmt.Errorf("mhttp/session: trans_timeout must be positive, got %d", c.TransTimeout)
	}
	if c.MaxRedirects < -1 {
		return fmt.Errorf("mhttp/session: invalid max_redirects %d", c.MaxRedirects)
	}
	if c.Proxy != "" {
		if _, err := url.Parse(c.Proxy); err != nil {
			return fmt.Errorf("mhttp/session: invalid proxy: %w", err)
		}
	}
	for k, v := range c.Headers {
		if !httpguts.ValidHeaderFieldName(k) || !httpguts.ValidHeaderFieldValue(v) {
			return fmt.Errorf("mhttp/session: invalid header %q", k)
		}
	}
	if _, err := c.rates(); err != nil {
		return err
	}
	return nil
}

// rates parses RateLimits into the form a catrate.Limiter takes. It
// returns nil if no rate limits are configured.
func (c *Config) rates() (rates map[time.Duration]int, err error) {
	if len(c.RateLimits) == 0 {
		return nil, nil
	}
	rates = make(map[time.Duration]int, len(c.RateLimits))
	for k, v := range c.RateLimits {
		d, err := time.ParseDuration(k)
		if err != nil {
			return nil, fmt.Errorf("mhttp/session: invalid rate_limits window %q: %w", k, err)
		}
		rates[d] = v
	}
	defer func() {
		if r := recover(); r != nil {
			rates, err = nil, fmt.Errorf("mhttp/session: invalid rate_limits: %v", r)
		}
	}()
	catrate.NewLimiter(rates)
	return rates, nil
}
