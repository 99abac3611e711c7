// Package sorttools implements the UrlSortTools helper exposed to the
// sort_pages_to_download hook (SPEC_FULL.md §4.5): it lets a hook reorder
// or drop pages queued for the next traversal round before the scheduler
// enqueues them.
package sorttools

import "sort"

// Tools holds a working set of URLs plus the ones removed from it, so a
// hook can later reinsert the removed ones at the head or tail of the
// final ordering.
type Tools struct {
	kept    []string
	removed []string
}

// New returns a Tools seeded with urls.
func New(urls []string) *Tools {
	kept := make([]string, len(urls))
	copy(kept, urls)
	return &Tools{kept: kept}
}

// Remove partitions the current kept set into URLs for which predicate
// returns false (stay in kept) and true (moved to the removed set, in
// encounter order).
func (t *Tools) Remove(predicate func(url string) bool) *Tools {
	var kept []string
	for _, u := range t.kept {
		if predicate(u) {
			t.removed = append(t.removed, u)
		} else {
			kept = append(kept, u)
		}
	}
	t.kept = kept
	return t
}

// SortAsc sorts the kept set in ascending lexicographic order.
func (t *Tools) SortAsc() *Tools {
	sort.Strings(t.kept)
	return t
}

// AddRemovedBefore prepends every previously removed URL, in removal order,
// to the head of the kept set, then clears the removed set.
func (t *Tools) AddRemovedBefore() *Tools {
	t.kept = append(append([]string{}, t.removed...), t.kept...)
	t.removed = nil
	return t
}

// AddRemovedAfter appends every previously removed URL, in removal order,
// to the tail of the kept set, then clears the removed set.
func (t *Tools) AddRemovedAfter() *Tools {
	t.kept = append(append([]string{}, t.kept...), t.removed...)
	t.removed = nil
	return t
}

// Result returns the final URL ordering.
func (t *Tools) Result() []string {
	return t.kept
}
