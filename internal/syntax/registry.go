package syntax

import (
	"fmt"

	"github.com/shrinklab/minimize/internal/syntax/langs/golang"
	"github.com/shrinklab/minimize/internal/syntax/langs/rust"
	"github.com/shrinklab/minimize/internal/syntax/tsadapter"
)

// Binding bundles a ready-to-use Parser and Formatter for one language,
// plus the file extensions internal/discover should route to it.
type Binding struct {
	Language   string
	Parser     Parser
	Formatter  Formatter
	Extensions []string
}

// Registry resolves a language name to its Binding. The default registry
// (DefaultRegistry) carries the two language bindings this module ships
// (spec.md treats the concrete language as pluggable, §6 "Parser
// interface (outward)"); callers embedding this core for another language
// provide their own.
type Registry struct {
	byLanguage map[string]Binding
	byExt      map[string]Binding
}

// NewRegistry builds a Registry from the given bindings.
func NewRegistry(bindings ...Binding) *Registry {
	r := &Registry{
		byLanguage: make(map[string]Binding, len(bindings)),
		byExt:      make(map[string]Binding),
	}

	for _, b := range bindings {
		r.byLanguage[b.Language] = b
		for _, ext := range b.Extensions {
			r.byExt[ext] = b
		}
	}

	return r
}

// DefaultRegistry returns the registry carrying this module's built-in Rust
// and Go bindings.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Binding{
			Language:   rust.Name,
			Parser:     tsadapter.NewParser(rust.Lang()),
			Formatter:  tsadapter.NewFormatter(),
			Extensions: []string{".rs"},
		},
		Binding{
			Language:   golang.Name,
			Parser:     tsadapter.NewParser(golang.Lang()),
			Formatter:  tsadapter.NewFormatter(),
			Extensions: []string{".go"},
		},
	)
}

// ErrUnsupportedLanguage is returned when no binding matches a requested
// language name or file extension.
var ErrUnsupportedLanguage = fmt.Errorf("unsupported language")

// ForLanguage resolves a binding by language name.
func (r *Registry) ForLanguage(name string) (Binding, error) {
	b, ok := r.byLanguage[name]
	if !ok {
		return Binding{}, fmt.Errorf("%w: %s", ErrUnsupportedLanguage, name)
	}

	return b, nil
}

// ForExtension resolves a binding by file extension (including the leading dot).
func (r *Registry) ForExtension(ext string) (Binding, error) {
	b, ok := r.byExt[ext]
	if !ok {
		return Binding{}, fmt.Errorf("%w: extension %s", ErrUnsupportedLanguage, ext)
	}

	return b, nil
}

// Extensions returns every file extension any registered binding handles,
// for internal/discover to filter on.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}

	return exts
}
