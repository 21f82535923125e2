package resolve

import (
	"context"
	"fmt"

	"fortio.org/safecast"
	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/yaklabco/allowfix/pkg/source"
)

//nolint:gochecknoglobals // Read-only lookup.
var itemKinds = map[string]Kind{
	"function_item":           KindFunction,
	"function_signature_item": KindFunction,
	"struct_item":             KindType,
	"enum_item":               KindType,
	"union_item":              KindType,
	"trait_item":              KindType,
	"static_item":             KindStatic,
	"const_item":              KindStatic,
}

// TreeSitter resolves constructs from a tree-sitter-rust syntax tree built
// from the in-memory buffer.
type TreeSitter struct {
	language *sitter.Language
}

// NewTreeSitter returns the tree-sitter resolver.
func NewTreeSitter() *TreeSitter {
	return &TreeSitter{language: sitter.NewLanguage(rust.Language())}
}

// Resolve implements Resolver.
func (t *TreeSitter) Resolve(_ context.Context, file *source.File, line int) (InsertionPoint, bool, error) {
	ranges, err := t.Ranges(file.Bytes())
	if err != nil {
		return InsertionPoint{}, false, err
	}

	r, ok := tightest(ranges, line)
	if !ok {
		return InsertionPoint{}, false, nil
	}

	point, err := pointAt(file, r.Start, r.Kind)
	if err != nil {
		return InsertionPoint{}, false, err
	}
	return point, true, nil
}

// Ranges parses content and returns the line range of every item node.
func (t *TreeSitter) Ranges(content []byte) ([]ConstructRange, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("set rust language: %w", err)
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse rust source: %w", ErrParse)
	}
	defer tree.Close()

	var ranges []ConstructRange
	if err := collectItems(tree.RootNode(), &ranges); err != nil {
		return nil, err
	}
	return ranges, nil
}

func collectItems(node *sitter.Node, ranges *[]ConstructRange) error {
	if node == nil {
		return nil
	}

	if kind, ok := itemKinds[node.Kind()]; ok {
		start, err := safecast.Conv[int](node.StartPosition().Row)
		if err != nil {
			return fmt.Errorf("convert start row: %w", err)
		}
		end, err := safecast.Conv[int](node.EndPosition().Row)
		if err != nil {
			return fmt.Errorf("convert end row: %w", err)
		}
		*ranges = append(*ranges, ConstructRange{Kind: kind, Start: start + 1, End: end + 1})
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		if err := collectItems(node.Child(i), ranges); err != nil {
			return err
		}
	}
	return nil
}
