// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"sync"
)

// A Dispatcher runs callbacks on behalf of a Request: completion
// handlers and progress callbacks.
type Dispatcher interface {
	Dispatch(f func())
}

// The DispatcherFunc type is an adapter to allow the use of ordinary
// functions as dispatchers.
type DispatcherFunc func(f func())

// Dispatch calls d(f).
func (d DispatcherFunc) Dispatch(f func()) {
	d(f)
}

// Inline runs every callback immediately on the calling goroutine.
var Inline Dispatcher = DispatcherFunc(func(f func()) { f() })

// A Queue is a Dispatcher which runs callbacks one at a time, in the
// order they were dispatched, on a goroutine of its own.
type Queue struct {
	lock   sync.Mutex
	cond   *sync.Cond
	fs     []func()
	closed bool
	done   chan struct{}
}

// NewQueue starts a new Queue. Call Close to stop it.
func NewQueue() *Queue {
	q := &Queue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.lock)
	go q.loop()
	return q
}

// Dispatch adds f to the back of the queue. It never blocks. Callbacks
// dispatched after Close are dropped.
func (q *Queue) Dispatch(f func()) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if q.closed {
		return
	}
	q.fs = append(q.fs, f)
	q.cond.Signal()
}

// Close stops accepting callbacks and waits until every callback
// already dispatched has run.
func (q *Queue) Close() {
	q.lock.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.lock.Unlock()
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for {
		q.lock.Lock()
		for len(q.fs) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.fs) == 0 {
			q.lock.Unlock()
			return
		}
		f := q.fs[0]
		q.fs[0] = nil
		q.fs = q.fs[1:]
		q.lock.Unlock()
		f()
	}
}
