// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import "context"

type priorityKey struct{}

// WithPriority returns a copy of ctx carrying an attempt's scheduling
// priority. A custom HTTP doer can read it back with PriorityFrom to
// order the attempts it sends.
func WithPriority(ctx context.Context, p float32) context.Context {
	return context.WithValue(ctx, priorityKey{}, p)
}

// PriorityFrom returns the scheduling priority carried by ctx, and
// whether one was present.
func PriorityFrom(ctx context.Context) (float32, bool) {
	p, ok := ctx.Value(priorityKey{}).(float32)
	return p, ok
}
