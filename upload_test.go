// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"bytes"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gogama/requests/request"
)

type readPart struct {
	name        string
	fileName    string
	contentType string
	data        string
}

func readMultipart(t *testing.T, body []byte, contentType string) []readPart {
	t.Helper()
	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	require.Equal(t, "multipart/form-data", mediaType)

	var parts []readPart
	r := multipart.NewReader(bytes.NewReader(body), params["boundary"])
	for {
		p, err := r.NextPart()
		if err == io.EOF {
			return parts
		}
		require.NoError(t, err)
		data, err := io.ReadAll(p)
		require.NoError(t, err)
		parts = append(parts, readPart{
			name:        p.FormName(),
			fileName:    p.FileName(),
			contentType: p.Header.Get("Content-Type"),
			data:        string(data),
		})
	}
}

func TestEncodeMultipart(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "doc.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"a":1}`), 0o600))
	pngPath := filepath.Join(dir, "image")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\x0dIHDR")
	require.NoError(t, os.WriteFile(pngPath, png, 0o600))
	now := time.Unix(1700000000, 42)

	body, contentType, err := encodeMultipart(
		map[string]any{"title": "beach", "count": 2, "public": true},
		[]part{
			{data: []byte("plain"), name: "note"},
			{data: []byte("raw"), name: "blob", mimeType: "application/octet-stream"},
			{data: []byte("hi"), name: "text", fileName: "hi.txt", mimeType: "text/plain"},
			{file: true, path: jsonPath, name: "doc"},
			{file: true, path: pngPath, name: "image"},
			{file: true, path: jsonPath, name: "stamped", mimeType: "application/json"},
			{file: true, path: jsonPath, name: "named", fileName: "mine.json", mimeType: "application/json"},
		},
		now,
	)
	require.NoError(t, err)

	assert.Equal(t, []readPart{
		{name: "count", data: "2"},
		{name: "public", data: "true"},
		{name: "title", data: "beach"},
		{name: "note", data: "plain"},
		{name: "blob", contentType: "application/octet-stream", data: "raw"},
		{name: "text", fileName: "hi.txt", contentType: "text/plain", data: "hi"},
		{name: "doc", fileName: "doc.json", contentType: "application/json", data: `{"a":1}`},
		{name: "image", fileName: "image", contentType: "image/png", data: string(png)},
		{name: "stamped", fileName: "1700000000000000042", contentType: "application/json", data: `{"a":1}`},
		{name: "named", fileName: "mine.json", contentType: "application/json", data: `{"a":1}`},
	}, readMultipart(t, body, contentType))

	_, _, err = encodeMultipart(nil, []part{{file: true, path: filepath.Join(dir, "missing")}}, now)
	assert.Error(t, err)
}

func TestEncodeMultipart_StampedNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.json")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	now := time.Unix(1700000000, 0)

	body, contentType, err := encodeMultipart(nil, []part{
		{file: true, path: path, name: "f1", mimeType: "application/json"},
		{file: true, path: path, name: "f2", mimeType: "application/json"},
		{file: true, path: path, name: "f3", fileName: "f3.json", mimeType: "application/json"},
		{file: true, path: path, name: "f4", mimeType: "application/json"},
	}, now)
	require.NoError(t, err)

	var names []string
	for _, p := range readMultipart(t, body, contentType) {
		names = append(names, p.fileName)
	}
	assert.Equal(t, []string{
		"1700000000000000000",
		"1700000000000000001",
		"f3.json",
		"1700000000000000002",
	}, names)
}

func TestEscapeQuotes(t *testing.T) {
	assert.Equal(t, `a\"b\\c`, escapeQuotes(`a"b\c`))
	assert.Equal(t, "plain", escapeQuotes("plain"))
}

func TestUpload(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.UploadTimeout = 7 * time.Minute
		s := newTestSession(t, WithHTTPDoer(newMockHTTPDoer(t)), WithConfig(cfg))

		b := s.Upload(testURL)

		assert.Equal(t, "POST", b.d.method)
		assert.Equal(t, 7*time.Minute, b.d.timeout)
		assert.Equal(t, uploadKind, b.d.kind)
	})
	t.Run("not an upload", func(t *testing.T) {
		s := newTestSession(t, WithHTTPDoer(newMockHTTPDoer(t)))
		b := s.Request(testURL)

		assert.PanicsWithValue(t, "requests: AppendData called on a non-upload builder", func() {
			b.AppendData([]byte("x"), "x", "", "")
		})
		assert.Panics(t, func() { b.AppendFile("x", "x", "", "") })
		assert.Panics(t, func() { b.UploadProgress(nil, func(request.Progress) {}) })
	})
	t.Run("send", func(t *testing.T) {
		doer := newMockHTTPDoer(t)
		caps := &testCapabilities{
			gzip:     true,
			compress: GzipCompress,
			preprocess: func(*[]byte, map[string]any, map[string]string) bool {
				t.Error("upload body preprocessed")
				return false
			},
		}
		s := newTestSession(t, WithHTTPDoer(doer), WithCapabilities(caps))
		var req *http.Request
		var body []byte
		doer.On("Do", mock.Anything).Run(func(args mock.Arguments) {
			req = args.Get(0).(*http.Request)
			body, _ = io.ReadAll(req.Body)
		}).Return(jsonResponse(200, `{"ok":true}`), nil).Once()
		var lock sync.Mutex
		var reports []request.Progress

		r := s.Upload(testURL).
			Content(map[string]any{"album": "summer"}).
			Headers(map[string]string{"Content-Type": "text/plain"}).
			AppendData([]byte("photo bytes"), "photo", "beach.jpg", "image/jpeg").
			UploadProgress(nil, func(p request.Progress) {
				lock.Lock()
				defer lock.Unlock()
				reports = append(reports, p)
			}).
			Build()
		require.NotNil(t, r)
		o := awaitResponse(t, r)

		require.NoError(t, o.err)
		assert.Equal(t, "POST", req.Method)
		assert.Empty(t, req.Header.Get("Content-Encoding"))
		assert.Equal(t, []readPart{
			{name: "album", data: "summer"},
			{name: "photo", fileName: "beach.jpg", contentType: "image/jpeg", data: "photo bytes"},
		}, readMultipart(t, body, req.Header.Get("Content-Type")))
		lock.Lock()
		defer lock.Unlock()
		require.NotEmpty(t, reports)
		total := int64(len(body))
		assert.Equal(t, request.Progress{Completed: total, Total: total}, reports[len(reports)-1])
		assert.Equal(t, total, req.ContentLength)
	})
	t.Run("server", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "notes.txt")
		require.NoError(t, os.WriteFile(path, []byte("remember"), 0o600))
		s := newTestSession(t, WithHTTPDoer(httpServer.Client()))

		resp, body, err := s.Upload(httpServer.URL+"/upload").
			AppendFile(path, "notes", "", "").
			SyncResponse()

		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		m := body.(map[string]any)
		assert.Equal(t, "POST", m["method"])
		assert.Contains(t, m["body"], `filename="notes.txt"`)
		assert.Contains(t, m["body"], "remember")
	})
}
