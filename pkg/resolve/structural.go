package resolve

import (
	"context"
	"regexp"

	"github.com/yaklabco/allowfix/pkg/source"
)

// visibility matches an optional `pub`, `pub(crate)`, `pub(in path)` prefix.
const visibility = `^\s*(?:pub(?:\s*\([^)]*\))?\s+)?`

// headerPattern pairs a construct kind with the regex recognising its first line.
type headerPattern struct {
	kind   Kind
	re     *regexp.Regexp
	braced bool
}

//nolint:gochecknoglobals // Compiled once; read-only.
var headerPatterns = []headerPattern{
	{
		kind:   KindFunction,
		re:     regexp.MustCompile(visibility + `(?:default\s+)?(?:const\s+)?(?:async\s+)?(?:unsafe\s+)?(?:extern\s+(?:"[^"]*"\s+)?)?fn\s+\w+\s*[(<]`),
		braced: true,
	},
	{
		kind:   KindType,
		re:     regexp.MustCompile(visibility + `(?:unsafe\s+)?(?:struct|enum|union|trait)\s+\w+\s*(?:[{;(<:]|where\b|$)`),
		braced: true,
	},
	{
		kind:   KindStatic,
		re:     regexp.MustCompile(visibility + `static\s+(?:mut\s+)?\w+\s*[:=]`),
		braced: false,
	},
}

// Structural resolves constructs lexically, without a parser.
type Structural struct{}

// NewStructural returns the structural resolver.
func NewStructural() *Structural {
	return &Structural{}
}

// Resolve implements Resolver. The table is rebuilt from the file's current
// lines on every call.
func (s *Structural) Resolve(_ context.Context, file *source.File, line int) (InsertionPoint, bool, error) {
	table := BuildTable(file.Lines())

	r, ok := table.Enclosing(line)
	if !ok {
		return InsertionPoint{}, false, nil
	}

	point, err := pointAt(file, r.Start, r.Kind)
	if err != nil {
		return InsertionPoint{}, false, err
	}
	return point, true, nil
}

// BuildTable scans lines for construct headers and computes their ranges.
func BuildTable(lines []string) RangeTable {
	table := make(RangeTable)

	for idx, line := range lines {
		for _, pattern := range headerPatterns {
			if !pattern.re.MatchString(line) {
				continue
			}
			start := idx + 1
			end := start
			if pattern.braced {
				end = blockEnd(lines, idx)
			}
			table.Add(ConstructRange{Kind: pattern.kind, Start: start, End: end})
			break
		}
	}

	return table
}

// blockEnd returns the 1-based line on which the block opened at or after
// lines[header] closes. Balance is checked at the end of each line. A header
// that reaches a top-level `;` before any `{` is a bodiless declaration and
// ends on that line. An unterminated block is clamped to the last line.
func blockEnd(lines []string, header int) int {
	var (
		state  lexState
		braces int
		groups int
		opened bool
	)

	for idx := header; idx < len(lines); idx++ {
		terminated := false

		scanLine(lines[idx], &state, func(r rune) {
			switch r {
			case '{':
				braces++
				opened = true
			case '}':
				braces--
			case '(', '[':
				groups++
			case ')', ']':
				if groups > 0 {
					groups--
				}
			case ';':
				if !opened && groups == 0 {
					terminated = true
				}
			}
		})

		if opened && braces <= 0 {
			return idx + 1
		}
		if !opened && terminated {
			return idx + 1
		}
	}

	return len(lines)
}
