// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package params

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// A Sorter reports whether key a must sort before key b when
// parameters are encoded into a query string or form body.
//
// A nil Sorter means ascending lexical order.
type Sorter func(a, b string) bool

// Lexical is the default Sorter, ordering keys ascending by byte value.
func Lexical(a, b string) bool {
	return a < b
}

// A Pair is one escaped key/value component of an encoded query string.
type Pair struct {
	Key   string
	Value string
}

// String returns the "key=value" form of the pair.
func (p Pair) String() string {
	return p.Key + "=" + p.Value
}

// Encode encodes a parameter mapping into a query string without the
// leading '?'. Top-level keys are ordered by less, nested keys are
// always ordered lexically. An empty or nil mapping encodes to the
// empty string.
func Encode(m map[string]any, less Sorter) string {
	if len(m) == 0 {
		return ""
	}
	if less == nil {
		less = Lexical
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return less(keys[i], keys[j])
	})

	var b strings.Builder
	for _, k := range keys {
		for _, c := range Components(k, m[k]) {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(c.String())
		}
	}
	return b.String()
}

// Append appends the encoded form of m to base. The separator is '?'
// if base has no query component yet, otherwise '&'. If m encodes to
// the empty string, base is returned unchanged.
func Append(base string, m map[string]any, less Sorter) string {
	q := Encode(m, less)
	if q == "" {
		return base
	}
	if strings.Contains(base, "?") {
		return base + "&" + q
	}
	return base + "?" + q
}

// Subtract returns the entries of a whose keys are not present in b.
// The result is a new map; neither input is modified.
func Subtract[K comparable, V, W any](a map[K]V, b map[K]W) map[K]V {
	result := make(map[K]V, len(a))
	for k, v := range a {
		if _, ok := b[k]; !ok {
			result[k] = v
		}
	}
	return result
}

// Merge returns the union of a and b. When a key exists in both, the
// value from b wins. The result is a new map; neither input is
// modified.
func Merge[K comparable, V any](a, b map[K]V) map[K]V {
	result := make(map[K]V, len(a)+len(b))
	for k, v := range a {
		result[k] = v
	}
	for k, v := range b {
		result[k] = v
	}
	return result
}

// Components flattens one key/value entry into escaped query
// components.
//
// Maps produce "key[nested]" segments (nested keys in lexical order),
// slices and arrays produce "key[]" segments in element order, booleans
// encode as "1" and "0", and nil encodes as the empty string. Every
// other value is formatted with fmt.Sprint.
func Components(key string, value any) []Pair {
	var pairs []Pair
	components(key, value, &pairs)
	return pairs
}

func components(key string, value any, pairs *[]Pair) {
	switch x := value.(type) {
	case nil:
		*pairs = append(*pairs, Pair{Escape(key), ""})
	case string:
		*pairs = append(*pairs, Pair{Escape(key), Escape(x)})
	case bool:
		*pairs = append(*pairs, Pair{Escape(key), boolString(x)})
	case json.Number:
		*pairs = append(*pairs, Pair{Escape(key), Escape(x.String())})
	case map[string]any:
		for _, k := range sortedKeys(x) {
			components(key+"["+k+"]", x[k], pairs)
		}
	case []any:
		for _, v := range x {
			components(key+"[]", v, pairs)
		}
	default:
		v := reflect.ValueOf(value)
		switch v.Kind() {
		case reflect.Slice, reflect.Array:
			if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
				// []byte reads as text, not as a list of numbers.
				*pairs = append(*pairs, Pair{Escape(key), Escape(string(v.Bytes()))})
				return
			}
			for i := 0; i < v.Len(); i++ {
				components(key+"[]", v.Index(i).Interface(), pairs)
			}
		case reflect.Map:
			if v.Type().Key().Kind() != reflect.String {
				*pairs = append(*pairs, Pair{Escape(key), Escape(fmt.Sprint(value))})
				return
			}
			keys := make([]string, 0, v.Len())
			for _, k := range v.MapKeys() {
				keys = append(keys, k.String())
			}
			sort.Strings(keys)
			for _, k := range keys {
				mv := v.MapIndex(reflect.ValueOf(k).Convert(v.Type().Key()))
				components(key+"["+k+"]", mv.Interface(), pairs)
			}
		case reflect.Ptr:
			if v.IsNil() {
				components(key, nil, pairs)
				return
			}
			components(key, v.Elem().Interface(), pairs)
		default:
			*pairs = append(*pairs, Pair{Escape(key), Escape(fmt.Sprint(value))})
		}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

const upperhex = "0123456789ABCDEF"

// Escape percent-encodes s for use as a query key or value.
//
// The unreserved characters of RFC 3986 plus '/' and '?' are left
// as-is. Every other byte, including the general delimiters ":#[]@"
// and the sub-delimiters "!$&'()*+,;=", is percent-encoded, so a space
// becomes "%20" rather than "+".
func Escape(s string) string {
	n := 0
	for i := 0; i < len(s); i++ {
		if !unescaped(s[i]) {
			n++
		}
	}
	if n == 0 {
		return s
	}

	var b strings.Builder
	b.Grow(len(s) + 2*n)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if unescaped(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperhex[c>>4])
		b.WriteByte(upperhex[c&15])
	}
	return b.String()
}

func unescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '.', '_', '~', '/', '?':
		return true
	}
	return false
}
