// Package passctl implements PassController (spec.md §4.3): the per-file
// delta-debugging state machine that decides, across repeated verifier
// trials within one file, which subset of a pass's candidate edit sites to
// modify next. Grounded on original_source/src/processor/mod.rs's
// PassController/PassControllerState/AstPath, which this package ports to
// Go as a tagged variant (spec.md §9: "implementers must use a tagged
// variant rather than dynamic dispatch"). The source's does_not_reproduce
// branch from Bisecting is marked `todo!()`; this package implements the
// ddmin-style narrowing spec.md §4.3/§9 specifies in its place.
package passctl

import (
	"sort"
	"strings"

	"github.com/shrinklab/minimize/internal/astpath"
	"github.com/shrinklab/minimize/internal/corekind"
)

// state tags the three PassControllerState cases (spec.md §3). Modeled as
// an enum discriminant alongside the case-specific fields below, rather
// than one interface per case, since Go has no sum types and this keeps
// the "replace the whole state wholesale" discipline spec.md §9 asks for
// explicit in one struct rather than spread across dynamic dispatch.
type state int

const (
	stateInitialCollection state = iota
	stateBisecting
	stateSuccess
)

// Controller is one PassController instance, scoped to a single file
// under a single pass application.
type Controller struct {
	st state

	// InitialCollection fields.
	candidates []astpath.Path

	// Bisecting fields. current is keyed by astpath.Path.Key() since Path
	// is not itself comparable (it wraps a slice); membership tests and
	// set operations go through this map.
	current  map[string]astpath.Path
	worklist [][]astpath.Path
	// currentOrder holds current's members in the order the subset was
	// formed, so a further split keeps traversal order.
	currentOrder []astpath.Path

}

// New returns a fresh Controller starting in InitialCollection.
func New() *Controller {
	return &Controller{st: stateInitialCollection}
}

// Signature returns a stable identifier for the subset a trial is about to
// test: every candidate during InitialCollection, or the active Bisecting
// subset. Valid once CanProcess has been called for every candidate site in
// the current trial's tree walk, and before Reproduces/DoesNotReproduce is
// called. internal/driver logs this alongside each verifier call for
// diagnosing a bisection trace; it is deliberately not used to skip a
// verifier call, since the subset alone says nothing about the rest of the
// project's current condition (spec.md §5, §6).
func (c *Controller) Signature() string {
	switch c.st {
	case stateInitialCollection:
		return signatureOf(c.candidates)
	case stateBisecting:
		return signatureOf(c.currentSlice())
	default:
		return ""
	}
}

func signatureOf(subset []astpath.Path) string {
	keys := make([]string, len(subset))
	for i, p := range subset {
		keys[i] = p.Key()
	}

	sort.Strings(keys)

	return strings.Join(keys, "\x1e")
}

// CanProcess implements spec.md §4.3's can_process. Called by the pass at
// every candidate edit site during its traversal.
func (c *Controller) CanProcess(path astpath.Path) bool {
	switch c.st {
	case stateInitialCollection:
		c.candidates = append(c.candidates, path)

		return true
	case stateBisecting:
		_, ok := c.current[path.Key()]

		return ok
	case stateSuccess:
		corekind.Invariant(false, "CanProcess called after PassController reached Success")

		return false
	default:
		corekind.Invariant(false, "unreachable PassController state")

		return false
	}
}

// Reproduces implements spec.md §4.3's reproduces: the driver calls this
// after writing a trial and observing the verifier still reproduces the
// issue.
func (c *Controller) Reproduces() {
	switch c.st {
	case stateInitialCollection:
		c.st = stateSuccess
	case stateBisecting:
		if len(c.worklist) == 0 {
			c.st = stateSuccess

			return
		}

		c.popWorklist()
	case stateSuccess:
		corekind.Invariant(false, "Reproduces called after PassController reached Success")
	default:
		corekind.Invariant(false, "unreachable PassController state")
	}
}

// DoesNotReproduce implements spec.md §4.3's does_not_reproduce, including
// the Bisecting-state narrowing the source left as a TODO (spec.md §9,
// Open Questions): split the current subset in half, keep the first half
// as the new current, push the second half onto the worklist. Halving
// bounds the controller to O(n log n) verifier calls across a run (spec.md
// §8 "Termination"), and preserves traversal order within each half
// (spec.md §5: "material because does_not_reproduce splits on the
// sequence").
func (c *Controller) DoesNotReproduce() {
	switch c.st {
	case stateInitialCollection:
		first, second := splitHalf(c.candidates)
		c.candidates = nil
		c.st = stateBisecting
		c.setCurrent(first)

		if len(second) > 0 {
			c.worklist = append(c.worklist, second)
		}

		c.settleEmptyCurrent()
	case stateBisecting:
		cur := c.currentSlice()
		if len(cur) <= 1 {
			// A singleton (or already-empty) subset that does not
			// reproduce has been isolated as the cause; it stays excluded
			// (spec.md scenario 5: "eventually ... rejects C"). Move on to
			// the next worklist item.
			c.advanceWorklist()

			return
		}

		first, second := splitHalf(cur)
		c.setCurrent(first)
		c.worklist = append(c.worklist, second)
		c.settleEmptyCurrent()
	case stateSuccess:
		corekind.Invariant(false, "DoesNotReproduce called after PassController reached Success")
	default:
		corekind.Invariant(false, "unreachable PassController state")
	}
}

// NoChange implements spec.md §4.3's no_change: the pass produced no
// change at all in this trial.
func (c *Controller) NoChange() {
	switch c.st {
	case stateInitialCollection:
		corekind.Invariant(len(c.candidates) == 0,
			"NoChange reported from InitialCollection with non-empty candidates")
		c.st = stateSuccess
	case stateBisecting:
		corekind.Invariant(false, "NoChange reported while Bisecting")
	case stateSuccess:
		// Idempotent no-op (spec.md §4.3).
	default:
		corekind.Invariant(false, "unreachable PassController state")
	}
}

// IsFinished reports whether the controller has reached Success.
func (c *Controller) IsFinished() bool {
	return c.st == stateSuccess
}

// popWorklist pops the next pending subset into current, used when a
// Bisecting trial reproduces and the locked-in subset is committed.
func (c *Controller) popWorklist() {
	next := c.worklist[len(c.worklist)-1]
	c.worklist = c.worklist[:len(c.worklist)-1]
	c.setCurrent(next)
	c.settleEmptyCurrent()
}

// advanceWorklist discards the rejected current subset (it is excluded for
// good: DoesNotReproduce on a singleton means that candidate, alone, is not
// the cause of non-reproduction only in combination with what's already
// committed — it is simply not re-tried) and pulls the next pending
// subset, or finishes if none remain.
func (c *Controller) advanceWorklist() {
	if len(c.worklist) == 0 {
		c.st = stateSuccess

		return
	}

	c.popWorklist()
}

// setCurrent installs subset as the active Bisecting subset.
func (c *Controller) setCurrent(subset []astpath.Path) {
	m := make(map[string]astpath.Path, len(subset))
	for _, p := range subset {
		m[p.Key()] = p
	}

	c.current = m
	c.currentOrder = subset
}

// settleEmptyCurrent enforces spec.md §3's Bisecting invariant: current is
// always non-empty while Bisecting; an empty current forces a move to
// Success or the next worklist item.
func (c *Controller) settleEmptyCurrent() {
	if len(c.current) > 0 {
		return
	}

	if len(c.worklist) == 0 {
		c.st = stateSuccess

		return
	}

	c.popWorklist()
}

// currentSlice returns a copy of the active Bisecting subset, in the
// order it was formed by splitHalf.
func (c *Controller) currentSlice() []astpath.Path {
	out := make([]astpath.Path, len(c.currentOrder))
	copy(out, c.currentOrder)

	return out
}

// splitHalf splits candidates into two halves, the first sized
// len(candidates)/2, preserving relative order within each half (spec.md
// §5: order is material since it is what does_not_reproduce splits on).
func splitHalf(candidates []astpath.Path) (first, second []astpath.Path) {
	half := len(candidates) / 2

	firstHalf := make([]astpath.Path, half)
	copy(firstHalf, candidates[:half])

	secondHalf := make([]astpath.Path, len(candidates)-half)
	copy(secondHalf, candidates[half:])

	return firstHalf, secondHalf
}
