// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"bytes"

	"github.com/palantir/pkg/safejson"

	"github.com/gogama/requests/params"
)

// A ParameterEncoding selects how body parameters are encoded into the
// request body.
type ParameterEncoding int

const (
	// URLEncoding encodes the parameters as a form body, with keys in
	// lexical order.
	URLEncoding ParameterEncoding = iota
	// JSONEncoding encodes the parameters as a compact JSON object.
	JSONEncoding
	// JSONPrettyEncoding encodes the parameters as a JSON object
	// indented by two spaces.
	JSONPrettyEncoding
)

const (
	formContentType = "application/x-www-form-urlencoded; charset=utf-8"
	jsonContentType = "application/json"
)

var encodingNames = []string{
	"URLEncoding",
	"JSONEncoding",
	"JSONPrettyEncoding",
}

// String returns the name of the encoding.
func (e ParameterEncoding) String() string {
	if e < 0 || int(e) >= len(encodingNames) {
		return "ParameterEncoding(invalid)"
	}
	return encodingNames[e]
}

// encode encodes m into a request body and returns the body with its
// content type. A nil body means the request has no body: m is empty
// for URLEncoding, or nil for the JSON encodings.
func (e ParameterEncoding) encode(m map[string]any) ([]byte, string, error) {
	switch e {
	case JSONEncoding, JSONPrettyEncoding:
		if m == nil {
			return nil, "", nil
		}
		var buf bytes.Buffer
		enc := safejson.Encoder(&buf)
		if e == JSONPrettyEncoding {
			enc.SetIndent("", "  ")
		}
		if err := enc.Encode(m); err != nil {
			return nil, "", err
		}
		return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), jsonContentType, nil
	default:
		q := params.Encode(m, params.Lexical)
		if q == "" {
			return nil, "", nil
		}
		return []byte(q), formContentType, nil
	}
}
