package astpath

import "github.com/shrinklab/minimize/internal/syntax"

// Visit is called once per tree node during Walk, with the AstPath of the
// innermost scope active at that node (spec.md §9: "the stack's current
// content is the AstPath used for can_process queries").
type Visit func(node syntax.Node, path Path)

// Walk performs a depth-first traversal of root, maintaining the scope
// stack spec.md §3 describes: before descending into a function, method,
// impl block, or module, the appropriate name is pushed; after descending,
// it is popped. visit is invoked for every node, scope-opening or not, with
// the path active at that node.
//
// This is the Go-native replacement for the macro-generated visitor
// overrides spec.md §9 describes in the source language: one reusable
// traversal owns the stack, rather than duplicating push/recurse/pop across
// four near-identical callback methods.
func Walk(root syntax.Node, visit Visit) {
	walk(root, Root(), visit)
}

func walk(node syntax.Node, path Path, visit Visit) {
	current := path
	if node.Kind() != syntax.KindOther {
		current = path.Push(node.ScopeName())
	}

	visit(node, current)

	for _, child := range node.Children() {
		walk(child, current, visit)
	}
}
