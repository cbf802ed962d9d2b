// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader(""))

		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})
	t.Run("full", func(t *testing.T) {
		doc := `
timeout: 10s
upload_timeout: 5m
max_idle_conns: 20
max_idle_conns_per_host: 4
idle_conn_timeout: 1m
tls_handshake_timeout: 3s
rate_limit: 2.5
rate_burst: 5
user_agent: demo/1.0
proxy:
  host: proxy.local
  port: "3128"
  http_only: true
`
		cfg, err := LoadConfig(strings.NewReader(doc))

		require.NoError(t, err)
		assert.Equal(t, Config{
			Timeout:             10 * time.Second,
			UploadTimeout:       5 * time.Minute,
			MaxIdleConns:        20,
			MaxIdleConnsPerHost: 4,
			IdleConnTimeout:     time.Minute,
			TLSHandshakeTimeout: 3 * time.Second,
			RateLimit:           2.5,
			RateBurst:           5,
			UserAgent:           "demo/1.0",
			Proxy:               &ProxyItem{Host: "proxy.local", Port: "3128", HTTPOnly: true},
		}, cfg)
	})
	t.Run("partial", func(t *testing.T) {
		cfg, err := LoadConfig(strings.NewReader("timeout: 2s\n"))

		require.NoError(t, err)
		expected := DefaultConfig()
		expected.Timeout = 2 * time.Second
		assert.Equal(t, expected, cfg)
	})
	t.Run("unknown field", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("timeuot: 2s\n"))

		assert.ErrorContains(t, err, "decoding config")
	})
	t.Run("bad duration", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("timeout: soon\n"))

		assert.ErrorContains(t, err, "decoding config")
	})
	t.Run("invalid", func(t *testing.T) {
		_, err := LoadConfig(strings.NewReader("timeout: -1s\nrate_limit: -2\nproxy:\n  port: \"80\"\n"))

		var fields FieldErrors
		require.ErrorAs(t, err, &fields)
		m := fields.Fields()
		assert.Len(t, m, 3)
		assert.Contains(t, m, "timeout")
		assert.Contains(t, m, "rate_limit")
		assert.Equal(t, "This field is required", m["host"])
	})
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.UserAgent = strings.Repeat("x", 257)
	cfg.MaxIdleConns = -1
	err := cfg.Validate()

	var fields FieldErrors
	require.ErrorAs(t, err, &fields)
	assert.Equal(t, []string{"max_idle_conns", "user_agent"}, fieldNames(fields))
	assert.Contains(t, fields.Fields()["max_idle_conns"], "0")
	assert.Contains(t, err.Error(), "user_agent: ")
}

func fieldNames(fe FieldErrors) []string {
	names := make([]string, len(fe))
	for i, f := range fe {
		names[i] = f.Field
	}
	return names
}
