// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/palantir/pkg/safejson"

	"github.com/gogama/requests/request"
)

// ErrEmptyResponse is wrapped by the SerializationError of a response
// which has no body but should have one.
var ErrEmptyResponse = errors.New("empty response body")

// A SerializationError is the error of a request whose response body
// could not be decoded as JSON. The response itself is still delivered
// to the completion handler.
type SerializationError struct {
	// StatusCode is the status code of the response.
	StatusCode int
	// Body is the response body, after preprocessing.
	Body []byte
	// Err is the decoding error.
	Err error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("requests: cannot decode response body (status %d): %v", e.StatusCode, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// decode returns the parsed body of the final attempt of a request, or
// its error.
func (s *Session) decode(a *request.Attempt) (any, error) {
	if a.Err != nil {
		return nil, a.Err
	}

	body := a.Body
	if len(body) > 0 {
		processed := append([]byte(nil), body...)
		if s.caps.PreprocessResponseBody(&processed, a.Response) {
			body = processed
		}
	}
	if len(body) == 0 {
		if emptyAllowed(a.Request.Method, a.StatusCode()) {
			return nil, nil
		}
		return nil, &SerializationError{StatusCode: a.StatusCode(), Err: ErrEmptyResponse}
	}

	var v any
	if err := safejson.Unmarshal(body, &v); err != nil {
		return nil, &SerializationError{StatusCode: a.StatusCode(), Body: body, Err: err}
	}
	return v, nil
}

func emptyAllowed(method string, status int) bool {
	return method == http.MethodHead ||
		status == http.StatusNoContent ||
		status == http.StatusResetContent
}
