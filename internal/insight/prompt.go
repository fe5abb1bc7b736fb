// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package insight

import (
	"bytes"
	"text/template"
)

// themePromptTmpl asks the backend for recurring themes over the
// sampled reviews. Counts are per sample; the caller scales them to the
// full corpus.
var themePromptTmpl = template.Must(template.New("themes").Parse(`You are analyzing customer reviews of a mobile app.

Identify the {{.TopK}} most prominent recurring themes across the reviews below. For each theme, report how many of these reviews mention it.

Respond with a JSON array only. Do not include any text outside the JSON. Each element must have this shape:
{"theme": "<short theme label>", "count": <number of reviews mentioning it>}

Reviews:
{{range .Reviews}}- {{.}}
{{end}}`))

// actionPromptTmpl asks the backend for concrete follow-up actions
// derived from negative reviews.
var actionPromptTmpl = template.Must(template.New("actions").Parse(`You are advising the developers of a mobile app.

The reviews below are negative. Propose up to {{.Count}} concrete, specific actions the team should take to address these complaints. Each action must be a single short sentence.

Respond with a JSON array of strings only. Do not include any text outside the JSON.

Reviews:
{{range .Reviews}}- {{.}}
{{end}}`))

// quotePromptTmpl asks the backend for representative verbatim quotes.
var quotePromptTmpl = template.Must(template.New("quotes").Parse(`You are summarizing customer reviews of a mobile app.

Select the {{.Count}} most representative quotes from the reviews below. Quote the review text verbatim; do not paraphrase.

Respond with a JSON array of strings only. Do not include any text outside the JSON.

Reviews:
{{range .Reviews}}- {{.}}
{{end}}`))

// promptData carries the fields the prompt templates interpolate.
type promptData struct {
	TopK    int
	Count   int
	Reviews []string
}

// renderPrompt executes a prompt template against its data.
func renderPrompt(tmpl *template.Template, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
