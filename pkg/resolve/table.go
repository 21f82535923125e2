package resolve

import "sort"

// RangeTable holds the construct ranges of one file, grouped by kind.
type RangeTable map[Kind][]ConstructRange

// Add records a range.
func (t RangeTable) Add(r ConstructRange) {
	t[r.Kind] = append(t[r.Kind], r)
}

// All returns every range ordered by start line, then kind.
func (t RangeTable) All() []ConstructRange {
	var all []ConstructRange
	for _, ranges := range t {
		all = append(all, ranges...)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].Start != all[j].Start {
			return all[i].Start < all[j].Start
		}
		return all[i].Kind < all[j].Kind
	})
	return all
}

// Enclosing returns the range that most tightly encloses line.
func (t RangeTable) Enclosing(line int) (ConstructRange, bool) {
	return tightest(t.All(), line)
}

// tightest picks, among ranges containing line, the one with the smallest
// span; equal spans go to the later start (the innermost construct).
func tightest(ranges []ConstructRange, line int) (ConstructRange, bool) {
	var best ConstructRange
	found := false

	for _, r := range ranges {
		if !r.Contains(line) {
			continue
		}
		if !found ||
			r.Span() < best.Span() ||
			(r.Span() == best.Span() && r.Start > best.Start) {
			best = r
			found = true
		}
	}

	return best, found
}
