// Package golang provides the Go tree-sitter binding for internal/syntax,
// grounded on the teacher's pkg/uast/languages.go registry (which wires
// github.com/alexaandru/go-sitter-forest/go through go-tree-sitter-bare).
// Shipped as a second language so the reducer can reduce a Go project
// (including, reflexively, itself) without requiring a Rust toolchain in
// the test environment.
package golang

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	golang "github.com/alexaandru/go-sitter-forest/go"

	"github.com/shrinklab/minimize/internal/syntax"
	"github.com/shrinklab/minimize/internal/syntax/tsadapter"
)

// Name is the language identifier used in configuration and CLI flags.
const Name = "go"

// Lang returns the tsadapter.Lang binding for Go.
func Lang() tsadapter.Lang {
	return tsadapter.Lang{
		Name:       Name,
		Language:   sitter.NewLanguage(golang.GetLanguage()),
		Classifier: classify,
	}
}

// classify realizes spec.md §3's scope rules against tree-sitter-go's
// grammar. Go has no separate impl blocks or nested module items: a
// method's receiver parameter list is folded into its own AstPath segment
// (e.g. "(s *Server).Handle"), and KindModule is never produced since a Go
// file declares exactly one package with no internal nesting to push and
// pop around — spec.md's module-item rule simply does not fire for this
// language, which is allowed; not every scope kind need appear in every
// language binding.
func classify(n *tsadapter.Node) (syntax.NodeKind, string) {
	switch n.Type() {
	case "method_declaration":
		return syntax.KindMethod, methodName(n)
	case "function_declaration":
		return syntax.KindFunction, tsadapter.FieldText(n, "name")
	default:
		return syntax.KindOther, ""
	}
}

// methodName renders "<receiver source text>.Name" (e.g. "(s *Server).Handle")
// from a method_declaration node,
// so two methods with the same name on different receivers address
// distinct AstPaths.
func methodName(n *tsadapter.Node) string {
	receiver := tsadapter.FieldText(n, "receiver")
	name := tsadapter.FieldText(n, "name")

	if receiver == "" {
		return name
	}

	return receiver + "." + name
}
