// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"io"
)

// Progress reports how many bytes of a request or response body have
// been transferred.
type Progress struct {
	// Completed is the number of bytes transferred so far.
	Completed int64
	// Total is the expected total number of bytes, or -1 if unknown.
	Total int64
}

// Fraction returns Completed as a fraction of Total, between 0 and 1.
// It returns 0 if Total is unknown or zero.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Completed) / float64(p.Total)
	if f > 1 {
		return 1
	}
	return f
}

// NewProgressReader returns a reader that reads from r and calls
// report with the running byte count after every read that returns
// data. Parameter total is the expected size of r, or -1 if unknown.
//
// If report is nil, r is returned as is.
func NewProgressReader(r io.Reader, total int64, report func(Progress)) io.Reader {
	if report == nil {
		return r
	}
	if total < 0 {
		total = -1
	}
	return &progressReader{r: r, total: total, report: report}
}

type progressReader struct {
	r         io.Reader
	completed int64
	total     int64
	report    func(Progress)
}

func (pr *progressReader) Read(p []byte) (int, error) {
	n, err := pr.r.Read(p)
	if n > 0 {
		pr.completed += int64(n)
		pr.report(Progress{Completed: pr.completed, Total: pr.total})
	}
	return n, err
}
