// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"net/url"
	"strings"
	"unicode"
)

// sensitiveParams contains the words which make a query parameter
// sensitive. A parameter name is split into words at the separators
// "_", "-" and "." and where a lower case letter is followed by an
// upper case one. "access_token" and "authToken" are sensitive but
// "monkey" is not.
var sensitiveParams = map[string]bool{
	"apikey":      true,
	"auth":        true,
	"credential":  true,
	"credentials": true,
	"key":         true,
	"passwd":      true,
	"password":    true,
	"secret":      true,
	"sig":         true,
	"sign":        true,
	"signature":   true,
	"token":       true,
}

// sanitizeURL returns u as a string with the values of sensitive query
// parameters replaced by "[REDACTED]".
func sanitizeURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	q := u.Query()
	redacted := false
	for param := range q {
		if isSensitiveParam(param) {
			q.Set(param, "[REDACTED]")
			redacted = true
		}
	}
	if !redacted {
		return u.String()
	}

	safe := *u
	safe.RawQuery = q.Encode()
	return safe.String()
}

// sanitizeRawURL is sanitizeURL for a URL which has not been parsed.
// An unparsable URL is dropped entirely.
func sanitizeRawURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[UNPARSABLE]"
	}
	return sanitizeURL(u)
}

func isSensitiveParam(param string) bool {
	for _, word := range paramWords(param) {
		if sensitiveParams[strings.ToLower(word)] {
			return true
		}
	}
	return false
}

func paramWords(param string) []string {
	var words []string
	begin := 0
	prev := rune(0)
	for i, c := range param {
		switch {
		case c == '_' || c == '-' || c == '.':
			if begin < i {
				words = append(words, param[begin:i])
			}
			begin = i + 1
		case unicode.IsUpper(c) && unicode.IsLower(prev):
			words = append(words, param[begin:i])
			begin = i
		}
		prev = c
	}
	if begin < len(param) {
		words = append(words, param[begin:])
	}
	return words
}
