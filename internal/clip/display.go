package clip

import (
	"cmp"
	"slices"
	"strings"
)

// SortForDisplay returns a copy of entries in display order: pinned entries
// first, then unpinned, each group newest first by Timestamp. Entries with
// equal keys keep their storage order.
func SortForDisplay(entries []Entry) []Entry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		if a.Pinned != b.Pinned {
			if a.Pinned {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.Timestamp, a.Timestamp)
	})
	return sorted
}

// Filter returns the entries whose text contains query, ignoring case.
// An empty query matches everything.
func Filter(entries []Entry, query string) []Entry {
	q := strings.ToLower(query)
	matched := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Text), q) {
			matched = append(matched, e)
		}
	}
	return matched
}
