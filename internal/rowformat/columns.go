package rowformat

import (
	"fmt"
	"slices"
	"strings"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

// Canonical lists the logical column keys in output order.
var Canonical = []string{"id", "label", "value", "description", "language"}

// Column maps a logical output key to a source field.
type Column struct {
	Key    string
	Source string
}

// Columns resolves the output columns for records.
// mapping is logical key -> source field; keys outside Canonical are rejected.
// Kept columns are the canonical keys that are mapped and whose source appears
// in the first record. Without a mapping, canonical keys present in the first
// record map to themselves; if none are present the first field becomes "id".
func Columns(records []Record, mapping map[string]string) ([]Column, error) {
	for k := range mapping {
		if !slices.Contains(Canonical, k) {
			return nil, fmt.Errorf("%w: %q (allowed: %s)",
				domain.ErrInvalidColumn, k, strings.Join(Canonical, ", "))
		}
	}
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, nil
	}
	first := records[0]

	var cols []Column
	for _, key := range Canonical {
		src := key
		if mapping != nil {
			var ok bool
			if src, ok = mapping[key]; !ok {
				continue
			}
		}
		if _, ok := first.Get(src); ok {
			cols = append(cols, Column{Key: key, Source: src})
		}
	}
	if len(cols) == 0 && mapping == nil {
		cols = []Column{{Key: "id", Source: first[0].Key}}
	}
	return cols, nil
}

// Project reshapes records onto cols, in column order.
func Project(records []Record, cols []Column) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		p := make(Record, 0, len(cols))
		for _, c := range cols {
			v, _ := r.Get(c.Source)
			p = append(p, Field{Key: c.Key, Value: v})
		}
		out = append(out, p)
	}
	return out
}
