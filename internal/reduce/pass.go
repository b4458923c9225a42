// Package reduce defines the Pass interface (spec.md §4.4): the extension
// point through which a single reduction technique (privatize, delete
// unused items, collapse function bodies, ...) participates in a run.
// Grounded on original_source/src/processor/mod.rs's Processor trait,
// which this interface ports directly, keeping its three-state
// ProcessState result and its refresh_state/process_file/name shape.
package reduce

import (
	"context"

	"github.com/shrinklab/minimize/internal/passctl"
	"github.com/shrinklab/minimize/internal/sourcefile"
	"github.com/shrinklab/minimize/internal/syntax"
)

// ProcessState reports what a single ProcessFile trial did to a file,
// mirroring original_source's ProcessState enum.
type ProcessState int

const (
	// NoChange means the pass inspected the file and produced no edit.
	NoChange ProcessState = iota
	// Changed means the pass wrote an edit and the controller should
	// drive the verify/commit-or-rollback cycle around it.
	Changed
	// FileInvalidated means the pass determined the file's cached tree no
	// longer reflects reality. The driver ends this pass's trials on the
	// file for the current round, marks it invalidated, and calls
	// RefreshState before running a further round.
	FileInvalidated
)

// Pass is one reduction technique. ProcessFile is invoked once per trial,
// repeatedly for each candidate file in a round until that file's
// controller finishes; within each call, it walks the file's tree and uses
// the bound passctl.Controller to decide which candidate sites it is
// allowed to touch this trial (spec.md §4.3/§4.4).
type Pass interface {
	// Name identifies the pass in logs, config (Passes.Enabled), and
	// dependency declarations.
	Name() string

	// RefreshState is called when the driver determines this pass's view
	// of the project may be stale (spec.md §4.4, "round loop"). The
	// default behavior for passes with no persistent state is a no-op.
	RefreshState(ctx context.Context) error

	// ProcessFile attempts one trial against a single file: walk tree,
	// consult controller.CanProcess at each candidate site, and either
	// write an edited tree via change.Write or report NoChange.
	ProcessFile(ctx context.Context, tree syntax.Tree, change *sourcefile.FileChange, controller *passctl.Controller) (ProcessState, error)
}

// DependencySource is implemented by a Pass that must run after other
// named passes have reached a fixed point (spec.md §9's pass-ordering
// extension point, realized via pkg/toposort in internal/driver). A Pass
// that does not implement this runs in the order it was registered.
type DependencySource interface {
	DependsOn() []string
}
