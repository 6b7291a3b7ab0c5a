package reconcile

import (
	"bytes"
	"fmt"
	"text/template"
)

// DefaultPrompt is the reconciliation prompt used when an entity type has none configured.
const DefaultPrompt = `You reconcile free-text values against a controlled vocabulary.
{{- if .Description}}

Vocabulary: {{.Description}}
{{- end}}
{{- if .Context}}

Domain context: {{.Context}}
{{- end}}

The vocabulary is given below as {{.Format}}. Only ids listed in it are valid.

{{.Table}}

The input values to reconcile, also as {{.Format}}:

{{.Input}}

Output ONLY valid JSON. Do not include any preamble or explanation. Start your
response directly with the opening brace { and end with the closing brace }.
The JSON must follow this shape:

{"results":[{"inputId":"<input id>","inputValue":"<input value>","candidates":[{"id":"<vocabulary id>","value":"<vocabulary label>","score":0.0,"reasons":["<short reason>"]}]}]}

Rules:
- Return at most {{.Limit}} candidates per input, best first.
- score is your confidence between 0 and 1.
- Never invent ids that are not in the vocabulary.
- If nothing fits, return an empty candidates list.`

// PromptData is the data passed to a reconciliation prompt template.
type PromptData struct {
	EntityType  string
	Description string
	Context     string
	Format      string
	Table       string
	Input       string
	Limit       int
}

// ParsePrompt compiles a prompt template. Empty text selects DefaultPrompt.
func ParsePrompt(name, text string) (*template.Template, error) {
	if text == "" {
		text = DefaultPrompt
	}
	tpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", name, err)
	}
	return tpl, nil
}

func renderPrompt(tpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}
