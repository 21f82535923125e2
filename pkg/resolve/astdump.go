package resolve

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/yaklabco/allowfix/pkg/cargo"
	"github.com/yaklabco/allowfix/pkg/source"
)

const dumpCacheSize = 64

//nolint:gochecknoglobals // Compiled once; read-only.
var spanPattern = regexp.MustCompile(`span:\s*(.*):(\d+):(\d+):\s*(\d+):(\d+)`)

// DumpEntry is one relevant line of an AST dump: either a statement marker
// or a source span.
type DumpEntry struct {
	Statement bool
	File      string
	StartLine int
	EndLine   int
}

// ASTDump resolves a line to the start of its enclosing statement using the
// compiler's AST dump. Parsed dumps are cached per file path.
type ASTDump struct {
	executor cargo.Executor
	command  string
	cache    *lru.Cache[string, []DumpEntry]
}

// NewASTDump creates an AST dump resolver. An empty command uses
// cargo.DefaultASTCommand.
func NewASTDump(executor cargo.Executor, command string) (*ASTDump, error) {
	if command == "" {
		command = cargo.DefaultASTCommand
	}
	cache, err := lru.New[string, []DumpEntry](dumpCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create dump cache: %w", err)
	}
	return &ASTDump{executor: executor, command: command, cache: cache}, nil
}

// Resolve implements Resolver. A failing dump command is returned as an
// error wrapping cargo.ErrSubprocess.
func (a *ASTDump) Resolve(ctx context.Context, file *source.File, line int) (InsertionPoint, bool, error) {
	entries, err := a.entries(ctx, file.Path)
	if err != nil {
		return InsertionPoint{}, false, err
	}

	start, ok := FindStatement(entries, filepath.Base(file.Path), line)
	if !ok || start > file.Len() {
		return InsertionPoint{}, false, nil
	}

	point, err := pointAt(file, start, KindStatement)
	if err != nil {
		return InsertionPoint{}, false, err
	}
	return point, true, nil
}

// Invalidate drops the cached dump for path.
func (a *ASTDump) Invalidate(path string) {
	a.cache.Remove(path)
}

func (a *ASTDump) entries(ctx context.Context, path string) ([]DumpEntry, error) {
	if cached, ok := a.cache.Get(path); ok {
		return cached, nil
	}

	out, err := a.executor.Run(ctx, cargo.ASTDumpCommand(a.command, path))
	if err != nil {
		return nil, fmt.Errorf("dump AST of %s: %w", path, err)
	}

	entries := ParseDump(out)
	a.cache.Add(path, entries)
	return entries, nil
}

// ParseDump extracts statement markers and spans from dump output, in order.
// A line mentioning "stmt" (but not "stmts") is a statement marker.
func ParseDump(dump []byte) []DumpEntry {
	var entries []DumpEntry

	scanner := bufio.NewScanner(bytes.NewReader(dump))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		lower := strings.ToLower(line)

		if strings.Contains(lower, "stmt") && !strings.Contains(lower, "stmts") {
			entries = append(entries, DumpEntry{Statement: true})
			continue
		}

		match := spanPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		startLine, err := strconv.Atoi(match[2])
		if err != nil {
			continue
		}
		endLine, err := strconv.Atoi(match[4])
		if err != nil {
			continue
		}
		entries = append(entries, DumpEntry{
			File:      strings.TrimSpace(match[1]),
			StartLine: startLine,
			EndLine:   endLine,
		})
	}

	return entries
}

// FindStatement walks entries in order, remembering the start line of the
// first span after each statement marker. The first span that contains line,
// once a statement has been seen, yields the remembered start.
//
// Spans from other files (macro expansions) are skipped when base is set.
func FindStatement(entries []DumpEntry, base string, line int) (int, bool) {
	var (
		seen    bool
		pending bool
		start   int
	)

	for _, entry := range entries {
		if entry.Statement {
			seen = true
			pending = true
			continue
		}
		if !seen {
			continue
		}
		if base != "" && entry.File != "" && filepath.Base(entry.File) != base {
			continue
		}
		if pending {
			start = entry.StartLine
			pending = false
		}
		if entry.StartLine <= line && line <= entry.EndLine {
			return start, start > 0
		}
	}

	return 0, false
}
