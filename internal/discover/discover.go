// Package discover finds candidate source files under a project root for
// internal/driver to run passes against. Deliberately thin: spec.md §6
// lists file discovery as an "external collaborator" concern, not a
// module of the reduction core; this is a filepath.WalkDir extension
// filter, not a content-based language detector.
package discover

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
)

// Files walks root and returns every regular file whose extension (with
// leading dot) is in exts, sorted for deterministic pass ordering (spec.md
// §5: traversal order is material).
func Files(root string, exts []string) ([]string, error) {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[ext] = true
	}

	var out []string

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", path, err)
		}

		if d.IsDir() {
			if skipDir(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		if allowed[filepath.Ext(path)] {
			out = append(out, path)
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discovering source files under %s: %w", root, err)
	}

	sort.Strings(out)

	return out, nil
}

// skipDir reports directories that never hold reducible source: version
// control metadata and build output that would otherwise slow traversal
// or, worse, get edited by mistake.
func skipDir(name string) bool {
	switch name {
	case ".git", "target", "node_modules", "vendor":
		return true
	default:
		return false
	}
}
