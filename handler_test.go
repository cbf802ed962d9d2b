// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"fmt"
	"testing"

	"github.com/gogama/requests/request"
	"github.com/stretchr/testify/assert"
)

func TestHandlerGroup(t *testing.T) {
	var evts []string
	var attempts []*request.Attempt
	h1 := &testHandler{seq: 1, evts: &evts, attempts: &attempts}
	h2 := &testHandler{seq: 2, evts: &evts, attempts: &attempts}
	g := &HandlerGroup{}
	t.Run("PushBack", func(t *testing.T) {
		assert.Panics(t, func() { g.PushBack(BeforeAttempt, nil) })
		assert.Panics(t, func() { g.PushBack(Event(123), h1) })
		g.PushBack(BeforeAttempt, h1)
		g.PushBack(BeforeAttempt, h2)
		g.PushBack(AfterAttempt, h1)
	})
	t.Run("run", func(t *testing.T) {
		a1 := &request.Attempt{Index: 1}
		a2 := &request.Attempt{Index: 2}
		assert.Empty(t, evts)
		assert.Empty(t, attempts)
		g.run(AfterCancel, a1)
		assert.Empty(t, evts)
		assert.Empty(t, attempts)
		g.run(BeforeAttempt, a1)
		assert.Equal(t, []string{"1.BeforeAttempt", "2.BeforeAttempt"}, evts)
		assert.Equal(t, []*request.Attempt{a1, a1}, attempts)
		evts = evts[:0]
		attempts = attempts[:0]
		g.run(AfterAttempt, a2)
		assert.Equal(t, []string{"1.AfterAttempt"}, evts)
		assert.Equal(t, []*request.Attempt{a2}, attempts)
	})
	t.Run("empty group", func(t *testing.T) {
		assert.NotPanics(t, func() { (&HandlerGroup{}).run(AfterCompletion, &request.Attempt{}) })
	})
}

type testHandler struct {
	seq      int
	evts     *[]string
	attempts *[]*request.Attempt
}

func (h *testHandler) Handle(evt Event, a *request.Attempt) {
	*h.evts = append(*h.evts, fmt.Sprintf("%d.%s", h.seq, evt))
	*h.attempts = append(*h.attempts, a)
}

func TestHandlerFunc(t *testing.T) {
	var _evt Event
	var _a *request.Attempt
	var f = func(evt Event, a *request.Attempt) {
		_evt = evt
		_a = a
	}
	h := HandlerFunc(f)
	a := &request.Attempt{}
	h.Handle(BeforeRetry, a)

	assert.Equal(t, BeforeRetry, _evt)
	assert.Same(t, a, _a)
}
