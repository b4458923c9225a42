// Package privatize implements the one reduction technique this module
// ships out of the box: narrowing `pub` visibility to `pub(crate)`
// wherever doing so still reproduces the target issue. Grounded directly
// on original_source/src/passes/privatize.rs's Visitor/Privatize, ported
// from syn's visit_mut traversal to internal/astpath.Walk over a
// internal/syntax.Tree.
package privatize

import (
	"context"
	"strings"

	"github.com/shrinklab/minimize/internal/astpath"
	"github.com/shrinklab/minimize/internal/passctl"
	"github.com/shrinklab/minimize/internal/reduce"
	"github.com/shrinklab/minimize/internal/sourcefile"
	"github.com/shrinklab/minimize/internal/syntax"
)

// Name is this pass's identifier, used in config.PassesConfig.Order.
const Name = "privatize"

// visibilityNodeType is tree-sitter-rust's grammar node for a `pub` /
// `pub(crate)` / `pub(super)` modifier.
const visibilityNodeType = "visibility_modifier"

// Pass narrows public visibility one step at a time.
type Pass struct{}

// New returns a privatize pass.
func New() *Pass {
	return &Pass{}
}

// Name implements reduce.Pass.
func (*Pass) Name() string {
	return Name
}

// RefreshState implements reduce.Pass. Privatize carries no persistent
// state across files, matching original_source's default
// refresh_state implementation.
func (*Pass) RefreshState(context.Context) error {
	return nil
}

// ProcessFile implements reduce.Pass: walk the tree, and at every bare
// `pub` modifier the controller currently allows, schedule its
// replacement with `pub(crate)`.
func (*Pass) ProcessFile(ctx context.Context, tree syntax.Tree, change *sourcefile.FileChange, controller *passctl.Controller) (reduce.ProcessState, error) {
	changed := false

	astpath.Walk(tree.Root(), func(n syntax.Node, path astpath.Path) {
		if n.Type() != visibilityNodeType {
			return
		}

		if strings.TrimSpace(n.Text()) != "pub" {
			return
		}

		if controller.CanProcess(path) {
			tree.Replace(n, "pub(crate)")
			changed = true
		}
	})

	if !changed {
		return reduce.NoChange, nil
	}

	if err := change.Write(ctx, tree, nil); err != nil {
		return reduce.NoChange, err
	}

	return reduce.Changed, nil
}
