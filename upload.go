// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/gogama/requests/request"
)

type uploadPayload struct {
	parts    []part
	progress progressCallback
}

// A part is one data or file part of a multipart upload.
type part struct {
	file     bool
	data     []byte
	path     string
	name     string
	fileName string
	mimeType string
}

// AppendData adds a data part to an upload. With an empty mimeType
// the data is sent as a plain form field named name. Otherwise it is
// sent with that content type, and with fileName if it is not empty.
//
// AppendData panics if b was not created by Session.Upload.
func (b *Builder) AppendData(data []byte, name, fileName, mimeType string) *Builder {
	u := b.mustUpload("AppendData")
	u.parts = append(u.parts, part{
		data:     data,
		name:     name,
		fileName: fileName,
		mimeType: mimeType,
	})
	return b
}

// AppendFile adds a file part to an upload. The file is read each
// time the request is materialized, so a file which cannot be read
// makes Build return nil.
//
// With an empty mimeType, the file name defaults to the base name of
// path and the content type is inferred from the file. With a
// mimeType but no fileName, the file name is a timestamp.
//
// AppendFile panics if b was not created by Session.Upload.
func (b *Builder) AppendFile(path, name, fileName, mimeType string) *Builder {
	u := b.mustUpload("AppendFile")
	u.parts = append(u.parts, part{
		file:     true,
		path:     path,
		name:     name,
		fileName: fileName,
		mimeType: mimeType,
	})
	return b
}

// UploadProgress sets a callback reporting how much of the request
// body has been sent. It runs on d, or inline if d is nil.
//
// UploadProgress panics if b was not created by Session.Upload.
func (b *Builder) UploadProgress(d Dispatcher, f func(request.Progress)) *Builder {
	u := b.mustUpload("UploadProgress")
	u.progress = progressCallback{d: d, f: f}
	return b
}

func (b *Builder) mustUpload(op string) *uploadPayload {
	if b.d.kind != uploadKind {
		panic("requests: " + op + " called on a non-upload builder")
	}
	return b.d.upload
}

// encodeMultipart writes fields, in key order, followed by data parts
// and then file parts, each in the order they were added, into a
// multipart/form-data body. A file part with a MIME type but no file
// name is named after now in nanoseconds, plus one for each such part
// before it, so the names are unique within the body.
func encodeMultipart(fields map[string]any, parts []part, now time.Time) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fieldString(fields[k])); err != nil {
			return nil, "", err
		}
	}

	ordered := make([]part, 0, len(parts))
	for _, p := range parts {
		if !p.file {
			ordered = append(ordered, p)
		}
	}
	for _, p := range parts {
		if p.file {
			ordered = append(ordered, p)
		}
	}

	stamp := now.UnixNano()
	for _, p := range ordered {
		if p.file {
			data, err := os.ReadFile(p.path)
			if err != nil {
				return nil, "", err
			}
			p.data = data
			if p.mimeType == "" {
				p.fileName = filepath.Base(p.path)
				p.mimeType = detectMIMEType(p.path, data)
			} else if p.fileName == "" {
				p.fileName = strconv.FormatInt(stamp, 10)
				stamp++
			}
		}
		if err := writePart(w, p); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), w.FormDataContentType(), nil
}

func writePart(w *multipart.Writer, p part) error {
	h := make(textproto.MIMEHeader)
	disposition := `form-data; name="` + escapeQuotes(p.name) + `"`
	if p.mimeType != "" && p.fileName != "" {
		disposition += `; filename="` + escapeQuotes(p.fileName) + `"`
	}
	h.Set("Content-Disposition", disposition)
	if p.mimeType != "" {
		h.Set("Content-Type", p.mimeType)
	}
	pw, err := w.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = pw.Write(p.data)
	return err
}

// detectMIMEType infers a content type from the file extension, and
// from the content if the extension is unknown.
func detectMIMEType(path string, data []byte) string {
	if t := mime.TypeByExtension(filepath.Ext(path)); t != "" {
		return t
	}
	return mimetype.Detect(data).String()
}

func fieldString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
