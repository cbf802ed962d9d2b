// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"bytes"
	"compress/gzip"
)

// GzipCompress replaces body with its gzip compressed form and reports
// whether compression succeeded. On failure body is left unchanged.
//
// GzipCompress is a ready-made Capabilities.CompressBody.
func GzipCompress(body *[]byte) bool {
	if body == nil || len(*body) == 0 {
		return false
	}

	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(*body); err != nil {
		return false
	}
	if err := w.Close(); err != nil {
		return false
	}

	*body = buf.Bytes()
	return true
}
