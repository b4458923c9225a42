// Package syntax defines the core's view of a parsed source tree (spec.md
// §3 "Syntactic tree") and the Parser/Formatter outward interfaces (spec.md
// §6) it is consumed through. The core treats Tree opaquely aside from the
// handful of operations spec.md requires: parse, re-serialize, deep-clone,
// and traverse with mutation and scope-aware callbacks. Concrete language
// bindings live under internal/syntax/langs.
package syntax

import "context"

// NodeKind identifies what a scope-opening node represents, used to drive
// AstPath segment construction the way spec.md §3 specifies:
//
//	function item       -> push the function's identifier
//	impl-item method     -> push the method's identifier
//	impl block            -> push a string derived from the self-type tokens
//	module item           -> push the module's identifier
type NodeKind int

const (
	// KindOther is any node that does not open a named scope.
	KindOther NodeKind = iota
	// KindFunction is a free function item.
	KindFunction
	// KindMethod is a method defined inside an impl block.
	KindMethod
	// KindImplBlock is an impl block, addressed by its self-type tokens.
	KindImplBlock
	// KindModule is a module item.
	KindModule
)

// Node is one node of a parsed tree, as exposed to the path-tracking
// traversal in package astpath and to passes that inspect or edit the tree.
type Node interface {
	// Kind classifies the node for AstPath purposes.
	Kind() NodeKind
	// ScopeName returns the identifier (or self-type rendering, for impl
	// blocks) used as the AstPath segment when Kind is not KindOther.
	// Undefined when Kind() == KindOther.
	ScopeName() string
	// Type returns the concrete grammar node type name (e.g.
	// "visibility_modifier", "function_item"), for passes that need to
	// recognize specific syntax the generic Kind does not distinguish.
	Type() string
	// Text returns the node's exact source text.
	Text() string
	// Children returns the node's direct named children in source order,
	// which is the order that establishes InitialCollection's candidate
	// ordering (spec.md §5).
	Children() []Node
}

// Tree is a parsed representation of one source file's text. The core
// assumes it can be parsed from text, re-serialized to text, deep-cloned,
// and traversed; it otherwise treats Tree opaquely.
type Tree interface {
	// Root returns the tree's root node for traversal.
	Root() Node
	// Clone performs a deep copy, so a pass may mutate the clone while the
	// pre-edit snapshot held by a FileChange remains untouched.
	Clone() Tree
	// Replace schedules node's source span to be replaced by text the next
	// time the tree is formatted. Concrete implementations apply scheduled
	// replacements as a byte-range rewrite of the original source, since
	// tree-sitter nodes are spans into immutable source text rather than a
	// mutable object graph; this is the idiomatic way passes built on
	// tree-sitter perform edits.
	Replace(node Node, text string)
}

// Parser parses source text into a Tree. A ParseError (internal/corekind)
// wraps any failure.
type Parser interface {
	Parse(ctx context.Context, text string) (Tree, error)
}

// Formatter re-serializes a Tree back to text, applying any edits scheduled
// with Tree.Replace. A FormatError (internal/corekind) wraps any failure.
type Formatter interface {
	Format(ctx context.Context, tree Tree) (string, error)
}
