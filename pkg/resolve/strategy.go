package resolve

import (
	"fmt"
	"strings"

	"github.com/yaklabco/allowfix/pkg/cargo"
)

// Strategy names a Resolver implementation.
type Strategy string

const (
	StrategyStructural Strategy = "structural"
	StrategyAST        Strategy = "ast"
	StrategyTreeSitter Strategy = "treesitter"
)

// Strategies lists the valid strategy names.
func Strategies() []Strategy {
	return []Strategy{StrategyStructural, StrategyAST, StrategyTreeSitter}
}

// IsValid reports whether s names a known strategy.
func (s Strategy) IsValid() bool {
	switch s {
	case StrategyStructural, StrategyAST, StrategyTreeSitter:
		return true
	default:
		return false
	}
}

// ParseStrategy parses a strategy name. The empty string selects structural.
func ParseStrategy(name string) (Strategy, error) {
	s := Strategy(strings.ToLower(strings.TrimSpace(name)))
	if s == "" {
		return StrategyStructural, nil
	}
	if !s.IsValid() {
		return "", fmt.Errorf("unknown strategy %q; valid strategies: structural, ast, treesitter", name)
	}
	return s, nil
}

// Deps carries what the subprocess-backed strategies need.
type Deps struct {
	// Executor runs the AST dump command.
	Executor cargo.Executor

	// ASTCommand is the dump command template. Defaults to cargo.DefaultASTCommand.
	ASTCommand string
}

// New builds the resolver for strategy.
func New(strategy Strategy, deps Deps) (Resolver, error) {
	switch strategy {
	case StrategyStructural, "":
		return NewStructural(), nil
	case StrategyAST:
		if deps.Executor == nil {
			deps.Executor = cargo.ExecExecutor{}
		}
		return NewASTDump(deps.Executor, deps.ASTCommand)
	case StrategyTreeSitter:
		return NewTreeSitter(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", strategy)
	}
}
