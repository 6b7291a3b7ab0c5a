// Package llmresponse validates structured LLM reconciliation completions.
package llmresponse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/reconciler/internal/domain"
	"github.com/kailas-cloud/reconciler/internal/domain/candidate"
)

// Response is the top-level completion object.
type Response struct {
	Results []Result `json:"results"`
}

// Result holds the candidates for one input value.
type Result struct {
	InputID    flexString  `json:"inputId"`
	InputValue string      `json:"inputValue"`
	Candidates []Candidate `json:"candidates"`
}

// Candidate is one proposed vocabulary entry.
type Candidate struct {
	ID      flexString  `json:"id"`
	Value   string      `json:"value"`
	Score   float64     `json:"score"`
	Reasons flexReasons `json:"reasons"`
}

// flexString accepts JSON strings and numbers. Models often emit numeric ids unquoted.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or number")
	}
	*f = flexString(n.String())
	return nil
}

// flexReasons accepts either a list of strings or a single string.
type flexReasons []string

func (f *flexReasons) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexReasons{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*f = list
	return nil
}

// Parse extracts and validates a Response from raw completion text.
// Markdown code fences and prose around the outermost JSON object are ignored.
// Every failure wraps domain.ErrLLMResponse.
func Parse(text string) (Response, error) {
	body := extractJSON(text)
	if body == "" {
		return Response{}, fmt.Errorf("%w: no json object in completion", domain.ErrLLMResponse)
	}

	var resp Response
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return Response{}, fmt.Errorf("%w: %w", domain.ErrLLMResponse, err)
	}
	if len(resp.Results) == 0 {
		return Response{}, fmt.Errorf("%w: empty results", domain.ErrLLMResponse)
	}
	for i, r := range resp.Results {
		for j, c := range r.Candidates {
			if math.IsNaN(c.Score) || c.Score < 0 || c.Score > 1 {
				return Response{}, fmt.Errorf("%w: results[%d].candidates[%d] score %s outside [0,1]",
					domain.ErrLLMResponse, i, j, strconv.FormatFloat(c.Score, 'g', -1, 64))
			}
		}
	}
	return resp, nil
}

func extractJSON(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end < start {
		return ""
	}
	return s[start : end+1]
}

// First returns the first result. Parse guarantees at least one.
func (r Response) First() Result {
	return r.Results[0]
}

// ToRows converts the result's candidates into rows against the lookup universe.
// labels maps universe ids to their labels; ids absent from it are skipped and
// returned in dropped. Duplicated ids keep their highest score. At most limit
// rows are returned when limit > 0.
func (r Result) ToRows(labels map[string]string, limit int) (rows []candidate.Row, dropped []string) {
	rows = make([]candidate.Row, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		id := strings.TrimSpace(string(c.ID))
		label, ok := labels[id]
		if !ok {
			dropped = append(dropped, id)
			continue
		}
		rows = append(rows, candidate.NewRow(id, label, c.Score).WithReasons(c.Reasons))
	}
	rows = candidate.SortAndTruncate(candidate.Merge(rows), limit)
	return rows, dropped
}
