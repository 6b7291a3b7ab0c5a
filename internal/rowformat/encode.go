package rowformat

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

// Options controls Encode.
type Options struct {
	// Target pins the format; empty selects from the data shape.
	Target    Format
	Mapping   map[string]string
	Delimiter rune
}

// Encoded is a rendered record set.
type Encoded struct {
	Format  Format
	Columns []string
	Text    string
}

// Encode projects records onto the canonical columns and renders them.
func Encode(records []Record, opts Options) (Encoded, error) {
	cols, err := Columns(records, opts.Mapping)
	if err != nil {
		return Encoded{}, err
	}
	format := opts.Target
	if format == "" {
		format = Select(records)
	}
	keys := make([]string, len(cols))
	for i, c := range cols {
		keys[i] = c.Key
	}
	enc := Encoded{Format: format, Columns: keys}
	if len(records) == 0 {
		enc.Text = Placeholder
		return enc, nil
	}
	if len(cols) == 0 {
		return Encoded{}, fmt.Errorf("%w: no mapped column present in %d records", domain.ErrInvalidColumn, len(records))
	}

	projected := Project(records, cols)
	switch format {
	case FormatJSON:
		enc.Text, err = encodeJSON(projected)
	case FormatMarkdown:
		enc.Text = encodeMarkdown(keys, projected)
	case FormatDelimited:
		delim := opts.Delimiter
		if delim == 0 {
			delim = DefaultDelimiter
		}
		enc.Text, err = encodeDelimited(keys, projected, delim)
	default:
		return Encoded{}, fmt.Errorf("unknown row format %q", format)
	}
	if err != nil {
		return Encoded{}, fmt.Errorf("encode %s: %w", format, err)
	}
	return enc, nil
}

// encodeJSON writes an array of objects preserving column order.
func encodeJSON(records []Record) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for j, f := range r {
			if j > 0 {
				buf.WriteByte(',')
			}
			k, err := json.Marshal(f.Key)
			if err != nil {
				return "", err
			}
			v, err := json.Marshal(f.Value)
			if err != nil {
				return "", fmt.Errorf("field %s: %w", f.Key, err)
			}
			buf.Write(k)
			buf.WriteByte(':')
			buf.Write(v)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

func encodeMarkdown(keys []string, records []Record) string {
	tw := table.NewWriter()
	header := make(table.Row, len(keys))
	for i, k := range keys {
		header[i] = k
	}
	tw.AppendHeader(header)
	for _, r := range records {
		row := make(table.Row, len(r))
		for i, f := range r {
			row[i] = Text(f.Value)
		}
		tw.AppendRow(row)
	}
	return tw.RenderMarkdown()
}

func encodeDelimited(keys []string, records []Record, delim rune) (string, error) {
	var sb strings.Builder
	w := csv.NewWriter(&sb)
	w.Comma = delim
	if err := w.Write(keys); err != nil {
		return "", err
	}
	line := make([]string, len(keys))
	for _, r := range records {
		for i, f := range r {
			line[i] = Text(f.Value)
		}
		if err := w.Write(line); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
