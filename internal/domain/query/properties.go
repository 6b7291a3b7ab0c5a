package query

import (
	"strconv"
	"strings"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

// Properties maps property ids to caller-supplied values.
// Strategies read the keys they recognize and ignore the rest.
type Properties map[string]string

// String returns the trimmed value for key; ok is false for absent or blank values.
func (p Properties) String(key string) (string, bool) {
	v, ok := p[key]
	if !ok {
		return "", false
	}
	v = Normalize(v)
	return v, v != ""
}

// Has reports whether key carries a non-blank value.
func (p Properties) Has(key string) bool {
	_, ok := p.String(key)
	return ok
}

// Int parses key as an integer. Absent keys return ok=false and no error.
func (p Properties) Int(key string) (int, bool, error) {
	v, ok := p.String(key)
	if !ok {
		return 0, false, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, domain.NewPropertyError(key, "not an integer: "+strconv.Quote(v))
	}
	return n, true, nil
}

// Float parses key as a decimal number; decimal commas are accepted.
func (p Properties) Float(key string) (float64, bool, error) {
	v, ok := p.String(key)
	if !ok {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return 0, false, domain.NewPropertyError(key, "not a number: "+strconv.Quote(v))
	}
	return f, true, nil
}
