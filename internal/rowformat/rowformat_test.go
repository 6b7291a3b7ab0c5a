package rowformat

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

func makeRecords(n int, label string) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{{Key: "id", Value: i + 1}, {Key: "label", Value: label}}
	}
	return out
}

func TestSelect(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    Format
	}{
		{"small table", makeRecords(10, strings.Repeat("x", 40)), FormatMarkdown},
		{"many rows", makeRecords(300, "x"), FormatJSON},
		{"nested list", []Record{{{Key: "id", Value: 1}, {Key: "tags", Value: []string{"a", "b"}}}}, FormatJSON},
		{"nested map", []Record{{{Key: "id", Value: map[string]any{"k": 1}}}}, FormatJSON},
		{"medium rows", makeRecords(120, "x"), FormatDelimited},
		{"wide text", makeRecords(20, strings.Repeat("x", 1100)), FormatDelimited},
		{"empty", nil, FormatMarkdown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Select(tc.records); got != tc.want {
				t.Errorf("Select = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestColumns_RejectsUnknownKey(t *testing.T) {
	_, err := Columns(makeRecords(1, "a"), map[string]string{"colour": "label"})
	if !errors.Is(err, domain.ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
	if !domain.IsCallerError(err) {
		t.Error("expected caller error")
	}
}

func TestColumns_Intersection(t *testing.T) {
	records := []Record{{{Key: "code", Value: "A1"}, {Key: "term", Value: "Sherd"}, {Key: "notes", Value: "n"}}}
	cols, err := Columns(records, map[string]string{"id": "code", "label": "term", "description": "missing"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 || cols[0] != (Column{Key: "id", Source: "code"}) || cols[1] != (Column{Key: "label", Source: "term"}) {
		t.Errorf("cols = %+v", cols)
	}
}

func TestColumns_DefaultMapping(t *testing.T) {
	cols, err := Columns([]Record{{{Key: "label", Value: "b"}, {Key: "id", Value: 1}, {Key: "x", Value: 2}}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 2 || cols[0].Key != "id" || cols[1].Key != "label" {
		t.Errorf("expected canonical order id,label; got %+v", cols)
	}

	cols, err = Columns([]Record{{{Key: "code", Value: "A1"}, {Key: "x", Value: 2}}}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cols) != 1 || cols[0] != (Column{Key: "id", Source: "code"}) {
		t.Errorf("expected first column as id, got %+v", cols)
	}
}

func TestEncode_Empty(t *testing.T) {
	for _, f := range []Format{"", FormatJSON, FormatMarkdown, FormatDelimited} {
		enc, err := Encode(nil, Options{Target: f})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", f, err)
		}
		if enc.Text != Placeholder {
			t.Errorf("%s: expected placeholder, got %q", f, enc.Text)
		}
	}
}

func TestEncode_JSONPreservesColumnOrder(t *testing.T) {
	records := []Record{
		{{Key: "label", Value: "Sherd"}, {Key: "id", Value: 12}, {Key: "description", Value: nil}},
	}
	enc, err := Encode(records, Options{Target: FormatJSON})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `[{"id":12,"label":"Sherd","description":null}]`
	if enc.Text != want {
		t.Errorf("Text = %s, want %s", enc.Text, want)
	}
	var decoded []map[string]any
	if err := json.Unmarshal([]byte(enc.Text), &decoded); err != nil {
		t.Fatalf("output is not valid json: %v", err)
	}
}

func TestEncode_MarkdownEscapes(t *testing.T) {
	records := []Record{
		{{Key: "id", Value: 1}, {Key: "label", Value: "a|b"}},
		{{Key: "id", Value: 2}, {Key: "label", Value: "line1\nline2"}},
	}
	enc, err := Encode(records, Options{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.Format != FormatMarkdown {
		t.Fatalf("expected markdown, got %s", enc.Format)
	}
	if !strings.Contains(enc.Text, `a\|b`) {
		t.Errorf("pipe not escaped:\n%s", enc.Text)
	}
	if strings.Contains(enc.Text, "line1\nline2") {
		t.Errorf("newline not escaped:\n%s", enc.Text)
	}
	if !strings.HasPrefix(enc.Text, "| id | label |") {
		t.Errorf("unexpected header:\n%s", enc.Text)
	}
}

func TestEncode_DelimitedQuotes(t *testing.T) {
	records := []Record{
		{{Key: "id", Value: 1}, {Key: "label", Value: "a|b"}},
		{{Key: "id", Value: 2}, {Key: "label", Value: "plain"}},
	}
	enc, err := Encode(records, Options{Target: FormatDelimited})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "id|label\n1|\"a|b\"\n2|plain"
	if enc.Text != want {
		t.Errorf("Text = %q, want %q", enc.Text, want)
	}
}

func TestEncode_CustomDelimiter(t *testing.T) {
	enc, err := Encode(makeRecords(2, "x"), Options{Target: FormatDelimited, Delimiter: ';'})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if enc.Text != "id;label\n1;x\n2;x" {
		t.Errorf("Text = %q", enc.Text)
	}
}

func TestEncode_InvalidMapping(t *testing.T) {
	_, err := Encode(makeRecords(1, "x"), Options{Mapping: map[string]string{"bogus": "id"}})
	if !errors.Is(err, domain.ErrInvalidColumn) {
		t.Fatalf("expected ErrInvalidColumn, got %v", err)
	}
}

func TestEncode_MappingMatchesNoColumn(t *testing.T) {
	for _, f := range []Format{"", FormatJSON, FormatMarkdown, FormatDelimited} {
		_, err := Encode(makeRecords(3, "x"), Options{Target: f, Mapping: map[string]string{"id": "code", "label": "term"}})
		if !errors.Is(err, domain.ErrInvalidColumn) {
			t.Errorf("%s: expected ErrInvalidColumn, got %v", f, err)
		}
	}
}

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"", "json", "markdown", "delimited"} {
		if _, err := ParseFormat(s); err != nil {
			t.Errorf("ParseFormat(%q): %v", s, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"s", "s"},
		{[]byte("b"), "b"},
		{true, "true"},
		{42, "42"},
		{3.5, "3.5"},
	}
	for _, tc := range tests {
		if got := Text(tc.in); got != tc.want {
			t.Errorf("Text(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
	if got := Text(fmt.Errorf("x")); got != "x" {
		t.Errorf("Text(error) = %q", got)
	}
}
