// Package tsadapter implements internal/syntax.Tree/Parser/Formatter on top
// of tree-sitter, shared by the per-language adapters under
// internal/syntax/langs. Grounded on the teacher's pkg/uast, which parses
// with github.com/alexaandru/go-tree-sitter-bare and the go-sitter-forest
// grammar bundle; trimmed here to the single operation this core actually
// needs (classify scope-opening nodes, read/replace node text), rather than
// the teacher's full DSL-mapping UAST conversion.
package tsadapter

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/shrinklab/minimize/internal/corekind"
	"github.com/shrinklab/minimize/internal/syntax"
)

// Classifier maps a raw tree-sitter node to the generic syntax.NodeKind and,
// for scope-opening nodes, the AstPath segment name. It is the only
// per-language knowledge this package needs; spec.md §3 fixes the four
// scope kinds, languages differ only in which grammar node types realize
// them and where the name lives.
type Classifier func(n *Node) (syntax.NodeKind, string)

// Lang bundles everything a language binding contributes: its tree-sitter
// grammar and its scope classifier.
type Lang struct {
	Name       string
	Language   *sitter.Language
	Classifier Classifier
}

// Parser is a syntax.Parser backed by one tree-sitter grammar.
type Parser struct {
	lang Lang
	pool sync.Pool
}

// NewParser constructs a Parser for the given language binding.
func NewParser(lang Lang) *Parser {
	return &Parser{
		lang: lang,
		pool: sync.Pool{
			New: func() any {
				p := sitter.NewParser()
				p.SetLanguage(lang.Language)

				return p
			},
		},
	}
}

// Parse implements syntax.Parser.
func (p *Parser) Parse(ctx context.Context, text string) (syntax.Tree, error) {
	tsParser, ok := p.pool.Get().(*sitter.Parser)
	if !ok {
		return nil, fmt.Errorf("%w: parser pool returned unexpected type", corekind.ErrParseError)
	}
	defer p.pool.Put(tsParser)

	source := []byte(text)

	tree, err := tsParser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", corekind.ErrParseError, err)
	}

	root := tree.RootNode()
	if root.IsNull() {
		return nil, fmt.Errorf("%w: empty parse tree", corekind.ErrParseError)
	}

	return &Tree{
		lang:   p.lang,
		tsTree: tree,
		source: source,
		edits:  map[string]string{},
	}, nil
}

// parseOnce parses text with a dedicated, unpooled parser instance. Used by
// Tree.Clone, which is not on the hot path that the Parser's pool targets.
func parseOnce(lang Lang, text string) (*sitter.Tree, error) {
	tsParser := sitter.NewParser()
	tsParser.SetLanguage(lang.Language)

	tree, err := tsParser.ParseString(context.Background(), nil, []byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", corekind.ErrParseError, err)
	}

	if tree.RootNode().IsNull() {
		return nil, fmt.Errorf("%w: empty parse tree", corekind.ErrParseError)
	}

	return tree, nil
}

// Formatter re-serializes a Tree, applying any edits scheduled via
// Tree.Replace as a non-overlapping byte-range rewrite of the original
// source. Tree-sitter nodes are spans into immutable source bytes, so this
// is the idiomatic pretty-printer substitute for tools built on it: there is
// no mutable object graph to re-walk, only text surgery over recorded spans.
type Formatter struct{}

// NewFormatter constructs a Formatter. Stateless; one instance may be
// shared across trees and languages.
func NewFormatter() *Formatter {
	return &Formatter{}
}

// Format implements syntax.Formatter.
func (f *Formatter) Format(_ context.Context, tree syntax.Tree) (string, error) {
	t, ok := tree.(*Tree)
	if !ok {
		return "", fmt.Errorf("%w: tree not produced by tsadapter", corekind.ErrFormatError)
	}

	return t.render(), nil
}

// Tree is a syntax.Tree backed by one parsed tree-sitter document plus a set
// of pending byte-range replacements scheduled by a pass via Replace.
type Tree struct {
	lang   Lang
	tsTree *sitter.Tree
	source []byte
	// edits maps "start:end" byte-range keys to replacement text. Keyed by
	// range rather than by Node, since Node values produced from Clone are
	// distinct wrappers over equivalent spans.
	edits map[string]string
}

// Root implements syntax.Tree.
func (t *Tree) Root() syntax.Node {
	return &Node{tree: t, raw: t.tsTree.RootNode()}
}

// Clone implements syntax.Tree. Re-parses the tree's own rendered text,
// which is always well-formed since Replace only ever substitutes whole
// node spans with caller-supplied text (spec.md §9 allows re-parsing the
// snapshot instead of deep-cloning an in-memory graph, "provided semantic
// equivalence is preserved"). On a parse failure of rendered (already
// edited) text, which should not happen for well-formed replacements, Clone
// falls back to an unedited copy of the original parse rather than panic,
// since Clone itself has no error return.
func (t *Tree) Clone() syntax.Tree {
	rendered := t.render()

	tree, err := parseOnce(t.lang, rendered)
	if err != nil {
		tree, err = parseOnce(t.lang, string(t.source))
		if err != nil {
			return t
		}

		return &Tree{lang: t.lang, tsTree: tree, source: t.source, edits: map[string]string{}}
	}

	return &Tree{lang: t.lang, tsTree: tree, source: []byte(rendered), edits: map[string]string{}}
}

// Replace implements syntax.Tree.
func (t *Tree) Replace(node syntax.Node, text string) {
	n, ok := node.(*Node)
	if !ok {
		return
	}

	key := rangeKey(n.raw.StartByte(), n.raw.EndByte())
	t.edits[key] = text
}

type span struct {
	start, end uint
	text       string
}

// render applies all scheduled edits to the original source in start-byte
// order, left to right. Overlapping edits are not expected (spec.md's
// candidate sites are disjoint scope-relative locations); a later edit that
// starts before an earlier one's end is skipped rather than corrupting
// output.
func (t *Tree) render() string {
	if len(t.edits) == 0 {
		return string(t.source)
	}

	spans := make([]span, 0, len(t.edits))

	for key, text := range t.edits {
		start, end := parseRangeKey(key)
		spans = append(spans, span{start: start, end: end, text: text})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	var b strings.Builder

	cursor := uint(0)

	for _, s := range spans {
		if s.start < cursor {
			continue
		}

		b.Write(t.source[cursor:s.start])
		b.WriteString(s.text)

		cursor = s.end
	}

	b.Write(t.source[cursor:])

	return b.String()
}

func rangeKey(start, end uint) string {
	return fmt.Sprintf("%d:%d", start, end)
}

func parseRangeKey(key string) (uint, uint) {
	var start, end uint

	_, _ = fmt.Sscanf(key, "%d:%d", &start, &end)

	return start, end
}

// Node is a syntax.Node backed by a raw tree-sitter node plus the tree it
// belongs to, so Text/Children can read the tree's source bytes.
type Node struct {
	tree *Tree
	raw  sitter.Node
	// parentType/grandparentType record the grammar node type of this
	// node's immediate named parent/grandparent, captured when the node is
	// produced by Children(). Tracked here rather than queried from
	// tree-sitter directly, since classifiers only ever need to recognize
	// shallow nesting (e.g. "is this function_item inside an impl_item's
	// declaration_list") and the traversal that builds Node values already
	// has that context on hand.
	parentType      string
	grandparentType string
}

// Kind implements syntax.Node.
func (n *Node) Kind() syntax.NodeKind {
	kind, _ := n.tree.lang.Classifier(n)

	return kind
}

// ScopeName implements syntax.Node.
func (n *Node) ScopeName() string {
	_, name := n.tree.lang.Classifier(n)

	return name
}

// Type implements syntax.Node.
func (n *Node) Type() string {
	return n.raw.Type()
}

// Text implements syntax.Node.
func (n *Node) Text() string {
	start, end := n.raw.StartByte(), n.raw.EndByte()
	if end > uint(len(n.tree.source)) || start > end {
		return ""
	}

	return string(n.tree.source[start:end])
}

// Children implements syntax.Node.
func (n *Node) Children() []syntax.Node {
	count := n.raw.NamedChildCount()
	out := make([]syntax.Node, 0, count)

	for i := range count {
		child := n.raw.NamedChild(i)
		if child.IsNull() {
			continue
		}

		out = append(out, &Node{
			tree:            n.tree,
			raw:             child,
			parentType:      n.Type(),
			grandparentType: n.parentType,
		})
	}

	return out
}

// ParentType returns the grammar node type of n's immediate named parent,
// or "" at the root or when n was not produced via Node.Children.
func ParentType(n *Node) string {
	return n.parentType
}

// GrandparentType returns the grammar node type of n's parent's parent.
func GrandparentType(n *Node) string {
	return n.grandparentType
}

// FieldText returns the text of node's child in the named grammar field, or
// "" if absent. Used by Classifiers to read a function/method/module's
// identifier field without needing full Node children iteration.
func FieldText(n *Node, field string) string {
	child := n.raw.ChildByFieldName(field)
	if child.IsNull() {
		return ""
	}

	start, end := child.StartByte(), child.EndByte()
	if end > uint(len(n.tree.source)) || start > end {
		return ""
	}

	return string(n.tree.source[start:end])
}
