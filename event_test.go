// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents(t *testing.T) {
	assert.Len(t, eventNames, numEvents)
	assert.Len(t, Events(), numEvents)
	events := Events()
	assert.Equal(t, BeforeAttempt, events[BeforeAttempt])
	assert.Equal(t, AfterAttempt, events[AfterAttempt])
	assert.Equal(t, BeforeRetry, events[BeforeRetry])
	assert.Equal(t, AfterCompletion, events[AfterCompletion])
	assert.Equal(t, AfterCancel, events[AfterCancel])
}

func TestEvent_Name(t *testing.T) {
	assert.Equal(t, "BeforeAttempt", BeforeAttempt.Name())
	assert.Equal(t, "AfterAttempt", AfterAttempt.Name())
	assert.Equal(t, "BeforeRetry", BeforeRetry.Name())
	assert.Equal(t, "AfterCompletion", AfterCompletion.Name())
	assert.Equal(t, "AfterCancel", AfterCancel.String())
}
