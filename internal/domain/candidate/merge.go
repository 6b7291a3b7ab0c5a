package candidate

import (
	"cmp"
	"slices"
)

// Merge deduplicates rows by id, keeping the highest similarity per id.
// Output order follows the first occurrence of each id. On equal similarity
// the earlier row wins. Blank label or description on the winner are filled
// from the row it replaced.
func Merge(rows ...[]Row) []Row {
	var total int
	for _, rs := range rows {
		total += len(rs)
	}
	index := make(map[string]int, total)
	merged := make([]Row, 0, total)

	for _, rs := range rows {
		for _, r := range rs {
			i, seen := index[r.id]
			if !seen {
				index[r.id] = len(merged)
				merged = append(merged, r)
				continue
			}
			prev := merged[i]
			if r.similarity > prev.similarity {
				merged[i] = fill(r, prev)
			} else {
				merged[i] = fill(prev, r)
			}
		}
	}
	return merged
}

func fill(winner, other Row) Row {
	if winner.label == "" {
		winner.label = other.label
	}
	if winner.description == "" {
		winner.description = other.description
	}
	if winner.distanceKm == nil {
		winner.distanceKm = other.distanceKm
	}
	return winner
}

// SortAndTruncate orders rows by similarity desc, then label asc, then id asc,
// and keeps the first limit rows. A non-positive limit keeps everything.
func SortAndTruncate(rows []Row, limit int) []Row {
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b Row) int {
		if c := cmp.Compare(b.similarity, a.similarity); c != 0 {
			return c
		}
		if c := cmp.Compare(a.label, b.label); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// IDs returns the distinct row ids in order.
func IDs(rows []Row) []string {
	ids := make([]string, 0, len(rows))
	seen := make(map[string]bool, len(rows))
	for _, r := range rows {
		if seen[r.id] {
			continue
		}
		seen[r.id] = true
		ids = append(ids, r.id)
	}
	return ids
}
