// Package identifier normalizes bibliographic identifiers before exact lookup.
package identifier

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/reconciler/internal/domain"
)

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// NormalizeISBN keeps digits and X, uppercased. The result must be an ISBN-10
// or ISBN-13 by length; check digits are not verified.
func NormalizeISBN(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == 'x' || r == 'X':
			b.WriteRune('X')
		}
	}
	isbn := b.String()
	if len(isbn) != 10 && len(isbn) != 13 {
		return "", fmt.Errorf("%w: isbn %q must have 10 or 13 characters", domain.ErrInvalidIdentifier, raw)
	}
	return isbn, nil
}

// NormalizeDOI strips resolver prefixes and lowercases the DOI.
func NormalizeDOI(raw string) (string, error) {
	doi := strings.TrimSpace(raw)
	for _, p := range doiPrefixes {
		if len(doi) >= len(p) && strings.EqualFold(doi[:len(p)], p) {
			doi = strings.TrimSpace(doi[len(p):])
			break
		}
	}
	doi = strings.ToLower(doi)
	if !strings.HasPrefix(doi, "10.") {
		return "", fmt.Errorf("%w: doi %q must start with 10.", domain.ErrInvalidIdentifier, raw)
	}
	return doi, nil
}
