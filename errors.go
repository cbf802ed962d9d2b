// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"net/http"
	"net/url"
	"strings"
)

func urlErrorWrap(req *http.Request, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(req.Method),
		URL: sanitizeURL(req.URL),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}
