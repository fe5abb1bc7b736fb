// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrub removes contact details from review text. Every piece
// of review text that leaves the pipeline, whether in a prompt to the
// insight backend or in a report quote, passes through here first.
package scrub

import "regexp"

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`\b\d{10}\b|\b\d{3}[-.]?\d{3}[-.]?\d{4}\b`)
)

// Text replaces email addresses with "[EMAIL]" and phone numbers with
// "[PHONE]". All other content is returned unchanged.
func Text(s string) string {
	s = emailPattern.ReplaceAllString(s, "[EMAIL]")
	s = phonePattern.ReplaceAllString(s, "[PHONE]")
	return s
}

// All applies Text to every element of texts and returns a new slice.
func All(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = Text(t)
	}
	return out
}
