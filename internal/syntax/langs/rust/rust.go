// Package rust provides the Rust tree-sitter binding for internal/syntax,
// grounded on the teacher's pkg/uast/languages.go registry (which wires
// github.com/alexaandru/go-sitter-forest/rust through go-tree-sitter-bare)
// and on original_source/'s domain: cargo-minimize reduces Rust crates.
package rust

import (
	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/alexaandru/go-sitter-forest/rust"

	"github.com/shrinklab/minimize/internal/syntax"
	"github.com/shrinklab/minimize/internal/syntax/tsadapter"
)

// Name is the language identifier used in configuration and CLI flags.
const Name = "rust"

// Lang returns the tsadapter.Lang binding for Rust.
func Lang() tsadapter.Lang {
	return tsadapter.Lang{
		Name:       Name,
		Language:   sitter.NewLanguage(rust.GetLanguage()),
		Classifier: classify,
	}
}

// classify realizes spec.md §3's scope rules against tree-sitter-rust's
// concrete grammar:
//
//	function item       -> node kind "function_item", name field "name"
//	impl-item method     -> a "function_item" nested inside an "impl_item"
//	impl block            -> node kind "impl_item", addressed by the "type" field's token text
//	module item           -> node kind "mod_item", name field "name"
func classify(n *tsadapter.Node) (syntax.NodeKind, string) {
	switch n.Type() {
	case "mod_item":
		return syntax.KindModule, tsadapter.FieldText(n, "name")
	case "impl_item":
		selfType := tsadapter.FieldText(n, "type")

		return syntax.KindImplBlock, selfType
	case "function_item":
		if insideImpl(n) {
			return syntax.KindMethod, tsadapter.FieldText(n, "name")
		}

		return syntax.KindFunction, tsadapter.FieldText(n, "name")
	default:
		return syntax.KindOther, ""
	}
}

// insideImpl reports whether n (a function_item) is a direct child of an
// impl_item's declaration_list, i.e. it is a method rather than a free
// function. tree-sitter-rust nests impl methods under
// impl_item > declaration_list > function_item, so the immediate
// grammar-level parent check done via Children() at the impl_item node
// (see internal/astpath.Walk) is sufficient; this helper exists for
// classifiers that want to recognize method-ness from the node alone,
// using the declaration_list wrapper's type name.
func insideImpl(n *tsadapter.Node) bool {
	return tsadapter.ParentType(n) == "declaration_list" &&
		tsadapter.GrandparentType(n) == "impl_item"
}
