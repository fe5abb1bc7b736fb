// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// TransportError indicates a network or HTTP failure while talking to
// a review provider or the insight backend.
type TransportError struct {
	// Provider names the remote side, e.g. "google_play" or "gemini".
	Provider string

	// Op is the operation being performed, e.g. "pull page".
	Op string

	// Status is the HTTP status code, or 0 when the request never
	// completed.
	Status int

	Err error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s: status %d: %v", e.Provider, e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ParseError indicates a provider or backend response that could not be
// decoded into the expected shape.
type ParseError struct {
	// Source names the origin of the malformed payload.
	Source string

	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s response: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ConfigError indicates an invalid or incomplete configuration,
// detected before any network activity.
type ConfigError struct {
	// Field is the offending configuration key.
	Field string

	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ErrorLabel returns a short class label for an error, used for metrics
// and log fields.
func ErrorLabel(err error) string {
	if err == nil {
		return "none"
	}
	var transport *TransportError
	if errors.As(err, &transport) {
		if transport.Status == 429 {
			return "rate_limited"
		}
		return "transport"
	}
	var parse *ParseError
	if errors.As(err, &parse) {
		return "parse"
	}
	var config *ConfigError
	if errors.As(err, &config) {
		return "config"
	}
	return "other"
}
