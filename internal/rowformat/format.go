// Package rowformat renders uniform records as compact text for LLM prompts.
// The encoding (JSON, markdown table or delimited text) is chosen from the
// shape and size of the data unless the caller pins one.
package rowformat

import (
	"fmt"
	"reflect"
	"time"
	"unicode/utf8"
)

// Format is a text encoding for a record set.
type Format string

const (
	FormatJSON      Format = "json"
	FormatMarkdown  Format = "markdown"
	FormatDelimited Format = "delimited"
)

// Selection limits.
const (
	JSONRowThreshold = 200
	MarkdownMaxRows  = 50
	MarkdownMaxChars = 20000

	DefaultDelimiter = '|'
	// Placeholder is emitted for an empty record set in every format.
	Placeholder = "(no rows)"
)

// ParseFormat validates a configured format name. Empty means automatic.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "", FormatJSON, FormatMarkdown, FormatDelimited:
		return f, nil
	default:
		return "", fmt.Errorf("unknown row format %q", s)
	}
}

// Field is one named value of a record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered set of fields.
type Record []Field

// Get returns the value stored under key.
func (r Record) Get(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Select picks a format from the data shape:
// any non-scalar value or more than JSONRowThreshold rows selects JSON;
// small tables select markdown; everything else is delimited.
func Select(records []Record) Format {
	if len(records) > JSONRowThreshold {
		return FormatJSON
	}
	var chars int
	for _, r := range records {
		for _, f := range r {
			if !isScalar(f.Value) {
				return FormatJSON
			}
			chars += utf8.RuneCountInString(Text(f.Value))
		}
	}
	if len(records) <= MarkdownMaxRows && chars <= MarkdownMaxChars {
		return FormatMarkdown
	}
	return FormatDelimited
}

func isScalar(v any) bool {
	if v == nil {
		return true
	}
	switch v.(type) {
	case []byte, time.Time:
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return false
	case reflect.Pointer:
		rv := reflect.ValueOf(v)
		return rv.IsNil() || isScalar(rv.Elem().Interface())
	default:
		return true
	}
}

// Text renders a scalar for markdown and delimited output.
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}
