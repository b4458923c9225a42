// Package sourcefile implements spec.md §4.1/§4.2: SourceFile, the single
// gateway for file I/O, and FileChange, the scoped transactional edit
// bound to it. Grounded on original_source/src/processor/files.rs, whose
// SourceFile/FileChange/Changes types this package mirrors in Go idiom,
// and on the teacher's sergi/go-diff usage (pkg/framework/diff_pipeline.go)
// for FileChange's diagnostic diff.
package sourcefile

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/shrinklab/minimize/internal/corekind"
	"github.com/shrinklab/minimize/internal/syntax"
)

// SourceFile owns one file's on-disk path, its cached text, and its cached
// parsed tree. It is the only type in this module that touches the
// filesystem. Invariant (spec.md §3): outside a live FileChange scope, the
// cached text and tree both equal what is on disk.
type SourceFile struct {
	path      string
	parser    syntax.Parser
	formatter syntax.Formatter

	text string
	tree syntax.Tree
}

// Open reads path from disk and parses it, caching both. Returns a
// corekind.ErrIOError-wrapped error if the file cannot be read, or a
// corekind.ErrParseError-wrapped error if it is not a valid source file for
// parser.
func Open(ctx context.Context, path string, parser syntax.Parser, formatter syntax.Formatter) (*SourceFile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is supplied by internal/discover, not user input at this layer
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", corekind.ErrIOError, path, err)
	}

	text := string(data)

	tree, err := parser.Parse(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &SourceFile{
		path:      path,
		parser:    parser,
		formatter: formatter,
		text:      text,
		tree:      tree,
	}, nil
}

// Path returns the underlying path for read-only diagnostic use. Does not
// touch the filesystem.
func (f *SourceFile) Path() string {
	return f.path
}

// Text returns the cached source text.
func (f *SourceFile) Text() string {
	return f.text
}

// Tree returns the cached parsed tree.
func (f *SourceFile) Tree() syntax.Tree {
	return f.tree
}

// Parser returns the parser this file was opened with, so a trial can
// re-parse the pre-edit text into a fresh working tree (spec.md §9,
// "Per-file re-parsing between trials").
func (f *SourceFile) Parser() syntax.Parser {
	return f.parser
}

// write formats newTree, writes the result to disk, and updates the cached
// text and tree to match — all-or-nothing: on any failure the caches are
// left unchanged. Only called through FileChange.Write and rollback/commit
// restoration, never directly by a pass.
func (f *SourceFile) write(ctx context.Context, newTree syntax.Tree) error {
	text, err := f.formatter.Format(ctx, newTree)
	if err != nil {
		return fmt.Errorf("formatting %s: %w", f.path, err)
	}

	if err := os.WriteFile(f.path, []byte(text), 0o644); err != nil { //nolint:gosec,mnd // reduced-project source files, not secrets
		return fmt.Errorf("%w: writing %s: %w", corekind.ErrIOError, f.path, err)
	}

	f.text = text
	f.tree = newTree

	return nil
}

// TryChange snapshots the file's current text and tree into a new
// FileChange bound to this file and to changes. Cheap: the text and tree
// are held by reference, not copied, and there is no I/O.
func (f *SourceFile) TryChange(changes *Changes) *FileChange {
	return &FileChange{
		file:       f,
		changes:    changes,
		beforeText: f.text,
		beforeTree: f.tree,
		hasWritten: false,
	}
}

// FileChange is a short-lived transaction bound to one SourceFile and one
// Changes aggregator (spec.md §4.2). It must be terminated by exactly one
// of Commit or Rollback; Close enforces this on every exit path, including
// panics and early returns from errors.
type FileChange struct {
	file       *SourceFile
	changes    *Changes
	beforeText string
	beforeTree syntax.Tree
	hasWritten bool
	closed     bool
}

// BeforeContent returns the pre-edit text and tree, for the pass to
// re-parse or diff against.
func (c *FileChange) BeforeContent() (string, syntax.Tree) {
	return c.beforeText, c.beforeTree
}

// Path returns the bound file's path, for diagnostics.
func (c *FileChange) Path() string {
	return c.file.Path()
}

// Write delegates to SourceFile.write and marks the change as written. May
// be called more than once; each call replaces the on-disk state. Logs the
// bytes added and removed against the pre-edit text at Debug level.
func (c *FileChange) Write(ctx context.Context, newTree syntax.Tree, logger *slog.Logger) error {
	if err := c.file.write(ctx, newTree); err != nil {
		return err
	}

	c.hasWritten = true

	if logger != nil && logger.Enabled(ctx, slog.LevelDebug) {
		logger.DebugContext(ctx, "file change written",
			slog.String("path", c.file.Path()),
			slog.String("diff", diffSummary(c.beforeText, c.file.Text())))
	}

	return nil
}

// Rollback asserts a write has occurred, restores the pre-edit tree by
// writing it back, clears the written flag, and consumes the change.
func (c *FileChange) Rollback(ctx context.Context) error {
	if !c.hasWritten {
		return fmt.Errorf("%w: rollback called without a prior write on %s", corekind.ErrInvariantViolation, c.file.Path())
	}

	if err := c.file.write(ctx, c.beforeTree); err != nil {
		return err
	}

	c.hasWritten = false
	c.closed = true

	return nil
}

// Commit asserts a write has occurred, flips the shared Changes flag to
// dirty, clears the written flag, and consumes the change.
func (c *FileChange) Commit() error {
	if !c.hasWritten {
		return fmt.Errorf("%w: commit called without a prior write on %s", corekind.ErrInvariantViolation, c.file.Path())
	}

	c.changes.markDirty()
	c.hasWritten = false
	c.closed = true

	return nil
}

// Close is the FileChange scope-exit safety net (spec.md §4.2 "Scope
// exit"). If the change was already consumed via Commit/Rollback, it is a
// no-op. If it is dropped while a write is still outstanding — a
// programmer error, since every write must be followed by exactly one
// commit or rollback — Close best-effort restores the pre-edit text to
// disk and returns an ErrInvariantViolation-wrapped error, unless fatal is
// already set (another fatal error is unwinding the stack, in which case
// the restore still happens but the violation is not itself surfaced).
func (c *FileChange) Close(fatal bool) error {
	if c.closed || !c.hasWritten {
		c.closed = true

		return nil
	}

	_ = os.WriteFile(c.file.path, []byte(c.beforeText), 0o644) //nolint:gosec,mnd,errcheck // best-effort restore on an already-failing path

	c.file.text = c.beforeText
	c.file.tree = c.beforeTree
	c.hasWritten = false
	c.closed = true

	if fatal {
		return nil
	}

	return fmt.Errorf("%w: %s had an uncommitted write at scope exit", corekind.ErrInvariantViolation, c.file.Path())
}

// Changes is a single "did any file commit this round" flag (spec.md
// §4.3), reset once per driver round and read only after the round.
type Changes struct {
	dirty bool
}

// NewChanges returns a fresh, clean Changes aggregator.
func NewChanges() *Changes {
	return &Changes{}
}

func (c *Changes) markDirty() {
	c.dirty = true
}

// HadChanges reports whether any bound FileChange committed during this
// round.
func (c *Changes) HadChanges() bool {
	return c.dirty
}

// diffSummary renders the inserted and deleted byte counts between two texts
// ("+N/-M bytes") using sergi/go-diff, for structured log lines rather than full patch
// bodies (adapted from the teacher's diff usage in
// pkg/framework/diff_pipeline.go).
func diffSummary(before, after string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(before, after, false)

	added, removed := 0, 0

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			added += len(d.Text)
		case diffmatchpatch.DiffDelete:
			removed += len(d.Text)
		case diffmatchpatch.DiffEqual:
		}
	}

	return fmt.Sprintf("+%d/-%d bytes", added, removed)
}
