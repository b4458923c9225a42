// Package astpath implements the AstPath addressing scheme (spec.md §3) and
// the generic traversal-with-path-stack helper that passes use to build one
// (spec.md §9, "Path tracking via code generation" — realized here as a
// reusable visitor since Go has no macros to duplicate push/recurse/pop
// across callbacks).
package astpath

import "strings"

// Path identifies a location within one file's tree by the ordered sequence
// of scope names encountered while descending to it: function identifier,
// method identifier, impl-block self-type tokens, module identifier. Two
// Paths are equal iff their segment sequences are equal. A Path is only
// meaningful within one file and one pass run; it is not stable across
// edits that rename scopes (spec.md §3).
type Path struct {
	segments []string
}

// New builds a Path from its segments. The caller's slice is copied so the
// returned Path is safe to retain independent of the caller's stack.
func New(segments []string) Path {
	cp := make([]string, len(segments))
	copy(cp, segments)

	return Path{segments: cp}
}

// Root is the empty path, the location of top-level items not nested in any
// named scope.
func Root() Path {
	return Path{}
}

// Equal reports whether two paths address the same location.
func (p Path) Equal(other Path) bool {
	if len(p.segments) != len(other.segments) {
		return false
	}

	for i, seg := range p.segments {
		if seg != other.segments[i] {
			return false
		}
	}

	return true
}

// Key returns a value suitable for use as a map key, since Path itself
// contains a slice and is not comparable with ==.
func (p Path) Key() string {
	return strings.Join(p.segments, "\x1f")
}

// Segments returns the path's segments. The returned slice must not be
// mutated by the caller.
func (p Path) Segments() []string {
	return p.segments
}

// String renders the path as a dotted diagnostic string, e.g. "mymod.MyType.method".
func (p Path) String() string {
	return strings.Join(p.segments, ".")
}

// Push returns a new Path with name appended as the innermost scope.
func (p Path) Push(name string) Path {
	next := make([]string, len(p.segments), len(p.segments)+1)
	copy(next, p.segments)
	next = append(next, name)

	return Path{segments: next}
}
