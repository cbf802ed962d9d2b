// Copyright 2021 The requests Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package requests

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"gopkg.in/yaml.v3"
)

// Config holds the Session settings which are not behavior hooks.
// Durations are written as Go duration strings in YAML, for example
// "30s" or "3m".
type Config struct {
	// Timeout is the per-attempt timeout of normal requests which set
	// none themselves and get none from Capabilities.
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
	// UploadTimeout is the per-attempt timeout of upload requests which
	// set none themselves.
	UploadTimeout time.Duration `yaml:"upload_timeout" validate:"gt=0"`

	MaxIdleConns        int           `yaml:"max_idle_conns" validate:"gte=0"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host" validate:"gte=0"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout" validate:"gte=0"`
	TLSHandshakeTimeout time.Duration `yaml:"tls_handshake_timeout" validate:"gte=0"`

	// RateLimit caps the attempts per second across the whole Session.
	// Zero means unlimited.
	RateLimit float64 `yaml:"rate_limit" validate:"gte=0"`
	// RateBurst is the token bucket size used with RateLimit. Zero
	// means one.
	RateBurst int `yaml:"rate_burst" validate:"gte=0"`

	// UserAgent is set on requests which carry no User-Agent header.
	UserAgent string `yaml:"user_agent" validate:"max=256"`

	// Proxy is the initial proxy of the Session, or nil for a direct
	// connection.
	Proxy *ProxyItem `yaml:"proxy" validate:"omitempty"`
}

// DefaultConfig returns the configuration used by a Session created
// without WithConfig.
func DefaultConfig() Config {
	return Config{
		Timeout:             30 * time.Second,
		UploadTimeout:       180 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		UserAgent:           "requests",
	}
}

// LoadConfig reads a YAML configuration from r. Settings missing from
// the document keep their DefaultConfig values, unknown settings are
// an error, and the result is validated before it is returned.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the configuration. A non-nil error is of type
// FieldErrors unless the configuration could not be inspected at all.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		verrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}

		var fields FieldErrors
		for _, verror := range verrors {
			fields = append(fields, FieldError{
				Field: verror.Field(),
				Err:   customErrForTag(verror.Tag(), verror),
			})
		}
		return fields
	}

	return nil
}

var validate *validator.Validate
var translator ut.Translator

func init() {
	validate = validator.New()
	var ok bool
	translator, ok = ut.New(en.New(), en.New()).GetTranslator("en")
	if !ok {
		panic("requests: failed to get 'en' translator")
	}

	if err := en_translations.RegisterDefaultTranslations(validate, translator); err != nil {
		panic(err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}

		return name
	})
}

// FieldError is a single configuration setting which failed
// validation.
type FieldError struct {
	Field string
	Err   string
}

// FieldErrors is the collection of settings which failed validation.
type FieldErrors []FieldError

// Error returns a summary of all field errors.
func (fe FieldErrors) Error() string {
	parts := make([]string, len(fe))
	for i, f := range fe {
		parts[i] = f.Field + ": " + f.Err
	}
	return strings.Join(parts, "; ")
}

// Fields returns the field errors keyed by setting name.
func (fe FieldErrors) Fields() map[string]string {
	m := make(map[string]string, len(fe))
	for _, f := range fe {
		m[f.Field] = f.Err
	}
	return m
}

func customErrForTag(tag string, verror validator.FieldError) string {
	switch tag {
	case "required":
		return "This field is required"
	default:
		return verror.Translate(translator)
	}
}
