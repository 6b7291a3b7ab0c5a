package query

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

// Query parameter limits.
const (
	// MaxTextLength is the maximum accepted query text length in bytes.
	MaxTextLength = 4096
	DefaultLimit  = 10
	MaxLimit      = 100
)

// Query is one validated reconciliation query.
type Query struct {
	text       string
	entityType string
	limit      int
	props      Properties
}

// New validates and normalizes a reconciliation query.
// Text is trimmed, NFC-normalized and whitespace-collapsed. A non-positive
// limit falls back to DefaultLimit; larger limits are clamped to MaxLimit.
func New(text, entityType string, limit int, props Properties) (Query, error) {
	text = Normalize(text)
	if text == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrInvalidQuery)
	}
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d bytes)", domain.ErrInvalidQuery, MaxTextLength)
	}
	entityType = strings.TrimSpace(entityType)
	if entityType == "" {
		return Query{}, fmt.Errorf("%w: type is required", domain.ErrInvalidQuery)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	if props == nil {
		props = Properties{}
	}
	return Query{text: text, entityType: entityType, limit: limit, props: props}, nil
}

// Text returns the normalized query text.
func (q Query) Text() string { return q.text }

// EntityType returns the requested entity type key.
func (q Query) EntityType() string { return q.entityType }

// Limit returns the maximum number of candidates to return.
func (q Query) Limit() int { return q.limit }

// Properties returns the caller-supplied structured properties.
func (q Query) Properties() Properties { return q.props }

// Normalize trims, NFC-normalizes and collapses internal whitespace.
// Spreadsheet exports frequently carry decomposed accents and doubled spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}
