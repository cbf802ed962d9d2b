// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package params encodes request parameter mappings into deterministic
// query strings and form bodies, and provides the map algebra used when
// combining request parameters and headers.
//
// Encoding is key-sorted, so two equal mappings always produce the same
// bytes:
//
//	params.Encode(map[string]any{"b": 2, "a": []any{1, 2}}, nil)
//	// "a%5B%5D=1&a%5B%5D=2&b=2"
//
// Subtract and Merge combine mappings without modifying their inputs.
// Subtract drops keys already claimed by another mapping (for example
// common parameters already present in a request's own query), while
// Merge is a right-biased union (for example default headers overridden
// by request headers).
package params
