// Package fix renders the annotations a run adds as a unified diff.
//
// allowfix only ever inserts whole lines, so the diff is built from the
// recorded insertions directly rather than by comparing file contents.
package fix

import (
	"fmt"
	"sort"
	"strings"
)

// contextLines is the number of unchanged lines shown around each change.
const contextLines = 3

// Insertion is one line added before line Before of the original content.
// Before may be len(original)+1 to append.
type Insertion struct {
	Before int
	Text   string
}

// LineKind tells context lines from added ones.
type LineKind int

const (
	// LineContext is an unchanged line.
	LineContext LineKind = iota

	// LineAdd is an inserted line.
	LineAdd
)

// Line is one line of a hunk, without its diff prefix.
type Line struct {
	Kind    LineKind
	Content string
}

// Hunk is a contiguous region of the diff.
type Hunk struct {
	OriginalStart int
	OriginalCount int
	ModifiedStart int
	ModifiedCount int
	Lines         []Line
}

// Diff is the unified diff of one file.
type Diff struct {
	Path      string
	Hunks     []Hunk
	Additions int
}

// NewDiff builds the diff of inserting insertions into original. It returns
// nil when there is nothing to insert.
func NewDiff(path string, original []string, insertions []Insertion) *Diff {
	if len(insertions) == 0 {
		return nil
	}

	ops := merge(original, insertions)
	hunks := group(ops)

	return &Diff{Path: path, Hunks: hunks, Additions: len(insertions)}
}

// HasChanges reports whether the diff adds anything.
func (d *Diff) HasChanges() bool {
	return d != nil && len(d.Hunks) > 0
}

// GitHeader returns the "diff --git" header line.
func (d *Diff) GitHeader() string {
	if d == nil {
		return ""
	}
	path := strings.TrimPrefix(d.Path, "/")
	return fmt.Sprintf("diff --git a/%s b/%s", path, path)
}

// String renders the diff in unified format, without the git header.
func (d *Diff) String() string {
	if !d.HasChanges() {
		return ""
	}

	path := strings.TrimPrefix(d.Path, "/")

	var b strings.Builder
	fmt.Fprintf(&b, "--- a/%s\n", path)
	fmt.Fprintf(&b, "+++ b/%s\n", path)

	for _, hunk := range d.Hunks {
		fmt.Fprintf(&b, "@@ -%d,%d +%d,%d @@\n",
			hunk.OriginalStart, hunk.OriginalCount,
			hunk.ModifiedStart, hunk.ModifiedCount)
		for _, line := range hunk.Lines {
			prefix := " "
			if line.Kind == LineAdd {
				prefix = "+"
			}
			b.WriteString(prefix + line.Content + "\n")
		}
	}

	return b.String()
}

// FullString renders the git header followed by the unified diff.
func (d *Diff) FullString() string {
	if !d.HasChanges() {
		return ""
	}
	return d.GitHeader() + "\n" + d.String()
}

// merge interleaves the added lines with the original ones.
func merge(original []string, insertions []Insertion) []Line {
	sorted := append([]Insertion(nil), insertions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Before < sorted[j].Before
	})

	ops := make([]Line, 0, len(original)+len(sorted))
	next := 0
	for n := 1; n <= len(original)+1; n++ {
		for next < len(sorted) && sorted[next].Before <= n {
			ops = append(ops, Line{Kind: LineAdd, Content: sorted[next].Text})
			next++
		}
		if n <= len(original) {
			ops = append(ops, Line{Kind: LineContext, Content: original[n-1]})
		}
	}
	for ; next < len(sorted); next++ {
		ops = append(ops, Line{Kind: LineAdd, Content: sorted[next].Text})
	}

	return ops
}

// group splits ops into hunks, merging changes whose context would overlap.
func group(ops []Line) []Hunk {
	type span struct{ start, end int }

	var changes []span
	for i, op := range ops {
		if op.Kind != LineAdd {
			continue
		}
		if n := len(changes); n > 0 && changes[n-1].end == i {
			changes[n-1].end = i + 1
			continue
		}
		changes = append(changes, span{start: i, end: i + 1})
	}

	var hunks []Hunk
	for i := 0; i < len(changes); {
		j := i + 1
		for j < len(changes) && changes[j].start-changes[j-1].end <= 2*contextLines {
			j++
		}
		hunks = append(hunks, hunk(ops, changes[i].start, changes[j-1].end))
		i = j
	}

	return hunks
}

func hunk(ops []Line, changeStart, changeEnd int) Hunk {
	start := max(changeStart-contextLines, 0)
	end := min(changeEnd+contextLines, len(ops))

	h := Hunk{OriginalStart: 1, ModifiedStart: 1}
	for _, op := range ops[:start] {
		if op.Kind == LineContext {
			h.OriginalStart++
		}
		h.ModifiedStart++
	}

	for _, op := range ops[start:end] {
		h.Lines = append(h.Lines, op)
		if op.Kind == LineContext {
			h.OriginalCount++
		}
		h.ModifiedCount++
	}

	return h
}
