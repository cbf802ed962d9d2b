// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"net"
	"net/http"
	"net/url"
	"strconv"

	"golang.org/x/net/http/httpproxy"
)

// DefaultProxyPort is used when a ProxyItem's port is not a valid port
// number.
const DefaultProxyPort = 8888

// A ProxyItem identifies an HTTP proxy. Two items are equal if their
// hosts and ports are equal; HTTPOnly is not compared.
type ProxyItem struct {
	Host string `yaml:"host" validate:"required"`
	Port string `yaml:"port"`
	// HTTPOnly restricts the proxy to plain http URLs. Requests to
	// https URLs connect directly.
	HTTPOnly bool `yaml:"http_only"`
}

// Equal reports whether p and q identify the same proxy.
func (p ProxyItem) Equal(q ProxyItem) bool {
	return p.Host == q.Host && p.Port == q.Port
}

// URL returns the proxy URL. A port which does not parse as a port
// number is replaced by DefaultProxyPort.
func (p ProxyItem) URL() *url.URL {
	port, err := strconv.ParseUint(p.Port, 10, 16)
	if err != nil || port == 0 {
		port = DefaultProxyPort
	}

	return &url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(p.Host, strconv.FormatUint(port, 10)),
	}
}

func (p ProxyItem) proxyFunc() func(*http.Request) (*url.URL, error) {
	proxy := p.URL().String()
	cfg := httpproxy.Config{HTTPProxy: proxy}
	if !p.HTTPOnly {
		cfg.HTTPSProxy = proxy
	}
	f := cfg.ProxyFunc()
	return func(r *http.Request) (*url.URL, error) {
		return f(r.URL)
	}
}

func equalProxy(p, q *ProxyItem) bool {
	if p == nil || q == nil {
		return p == q
	}
	return p.Equal(*q)
}
