package check

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/yaklabco/allowfix/pkg/pathglob"
)

// DefaultPattern is the suppression text searched for.
const DefaultPattern = "allow(unused)"

// Suppression is one line carrying the searched-for attribute.
type Suppression struct {
	// Path is relative to the scan root, slash-separated.
	Path string
	Line int
	Text string
}

func (s Suppression) String() string {
	return fmt.Sprintf("%s:%d: %s", s.Path, s.Line, s.Text)
}

// ScanOptions controls Scan.
type ScanOptions struct {
	// Pattern is the literal text searched for. Empty means DefaultPattern.
	Pattern string

	// Include selects the files read. Empty means "**/*.rs".
	Include []string

	// Exclude prunes files and directories. "target/**" is always excluded.
	Exclude []string
}

// Scan walks root and returns every line of an included file that contains
// the pattern. Hidden directories are not entered.
func Scan(ctx context.Context, root string, opts ScanOptions) ([]Suppression, error) {
	pattern := opts.Pattern
	if pattern == "" {
		pattern = DefaultPattern
	}

	includePatterns := opts.Include
	if len(includePatterns) == 0 {
		includePatterns = []string{"**/*.rs"}
	}
	include, err := pathglob.Compile(includePatterns)
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}
	exclude, err := pathglob.Compile(append([]string{"target/**"}, opts.Exclude...))
	if err != nil {
		return nil, fmt.Errorf("exclude patterns: %w", err)
	}

	var found []Suppression

	err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			if os.IsPermission(walkErr) {
				return nil
			}
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if entry.IsDir() {
			if path != root && (strings.HasPrefix(entry.Name(), ".") || exclude.Match(rel)) {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() || exclude.Match(rel) || !include.Match(rel) {
			return nil
		}

		hits, err := scanFile(path, rel, pattern)
		if err != nil {
			return err
		}
		found = append(found, hits...)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].Path != found[j].Path {
			return found[i].Path < found[j].Path
		}
		return found[i].Line < found[j].Line
	})

	return found, nil
}

func scanFile(path, rel, pattern string) ([]Suppression, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", rel, err)
	}
	defer f.Close()

	var hits []Suppression
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for n := 1; scanner.Scan(); n++ {
		if line := scanner.Text(); strings.Contains(line, pattern) {
			hits = append(hits, Suppression{Path: rel, Line: n, Text: strings.TrimSpace(line)})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", rel, err)
	}

	return hits, nil
}
