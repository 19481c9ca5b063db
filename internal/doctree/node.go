// Package doctree defines the normalized document tree: a closed set of
// immutable node variants produced by extraction and reshaped by transforms.
//
// Nodes are never mutated after construction. A "modification" is always a
// shallow struct copy with some fields replaced; maps are cloned on write so
// subtrees can be shared freely between input and output documents.
package doctree

import "errors"

// ErrStructure reports a violated structural invariant (bullet level out of
// order, heading shallower than the section being built, and so on). It is
// always fatal and never retried.
var ErrStructure = errors.New("structural violation")

// Kind identifies a node variant. The set is closed: dispatch code
// enumerates it exhaustively.
type Kind string

const (
	KindTextRun         Kind = "text_run"
	KindTextLine        Kind = "text_line"
	KindLink            Kind = "link"
	KindChip            Kind = "chip"
	KindReference       Kind = "reference"
	KindReferenceTarget Kind = "reference_target"
	KindParagraph       Kind = "paragraph"
	KindHeading         Kind = "heading"
	KindBulletItem      Kind = "bullet_item"
	KindBulletList      Kind = "bullet_list"
	KindTable           Kind = "table"
	KindSection         Kind = "section"
	KindNotesAppendix   Kind = "notes_appendix"
	KindDocContent      Kind = "doc_content"
	KindSharedData      Kind = "shared_data"
	KindDocument        Kind = "document"
)

// TagsAttr is the Attrs key under which tag sets live.
const TagsAttr = "tags"

// Elem carries the metadata every node has: free-form attributes and raw
// style properties. A missing key means "not specified", never a default.
type Elem struct {
	Attrs map[string]any
	Style map[string]string
}

// Node is any value in the document tree.
type Node interface {
	Kind() Kind
	// Meta returns the node's shared attribute/style metadata.
	Meta() Elem
	// WithMeta returns a copy of the node with its metadata replaced.
	WithMeta(Elem) Node
	// PlainText linearizes the node to text. The rendering is deterministic
	// and is a primary golden-test target.
	PlainText() string
	isNode()
}

// ParaElem is a node that appears inside a paragraph or line.
type ParaElem interface {
	Node
	isParaElem()
}

// Structural is a node that appears as a document block.
type Structural interface {
	Node
	isStructural()
}

// WithAttr returns a copy of e with one attribute set.
func (e Elem) WithAttr(key string, val any) Elem {
	attrs := make(map[string]any, len(e.Attrs)+1)
	for k, v := range e.Attrs {
		attrs[k] = v
	}
	attrs[key] = val
	e.Attrs = attrs
	return e
}

// WithoutAttr returns a copy of e with one attribute removed.
func (e Elem) WithoutAttr(key string) Elem {
	if _, ok := e.Attrs[key]; !ok {
		return e
	}
	attrs := make(map[string]any, len(e.Attrs))
	for k, v := range e.Attrs {
		if k != key {
			attrs[k] = v
		}
	}
	if len(attrs) == 0 {
		attrs = nil
	}
	e.Attrs = attrs
	return e
}

// Tags returns the node's tag set. The returned map must not be modified.
func (e Elem) Tags() map[string]bool {
	tags, _ := e.Attrs[TagsAttr].(map[string]bool)
	return tags
}

// WithTags returns a copy of e with the tag set replaced. An empty set
// removes the attribute entirely.
func (e Elem) WithTags(tags map[string]bool) Elem {
	if len(tags) == 0 {
		return e.WithoutAttr(TagsAttr)
	}
	return e.WithAttr(TagsAttr, tags)
}

// TextRun is a plain fragment of text.
type TextRun struct {
	Elem
	Text string
}

// TextLine groups the fragments of one physical line. A TextLine never
// contains another TextLine as a direct child.
type TextLine struct {
	Elem
	Elements []ParaElem
}

// Link is a hyperlinked fragment of text.
type Link struct {
	Elem
	Text string
	URL  string
}

// Chip is a rich reference, distinguished in the source markup by a
// specific color-and-underline style.
type Chip struct {
	Elem
	Text string
	URL  string
}

// Reference is a footnote or comment superscript.
type Reference struct {
	Elem
	Text string
	URL  string
}

// ReferenceTarget is the anchor a Reference points at, keyed by the
// anchor's identifier.
type ReferenceTarget struct {
	Elem
	Text  string
	RefID string
}

// Paragraph is a block of paragraph elements. Extraction guarantees the
// final element is a TextRun holding the terminating line break.
type Paragraph struct {
	Elem
	// LeftOffset is the visual indent in points; zero when unspecified.
	LeftOffset int
	Elements   []ParaElem
}

// Heading is a paragraph with an outline level, 1 being topmost.
type Heading struct {
	Paragraph
	Level int
}

// BulletItem is a paragraph that is one entry of a bullet list. Nested
// items always have a Level strictly greater than their parent's.
type BulletItem struct {
	Paragraph
	Level     int
	ListType  string
	ListClass string
	Nested    []*BulletItem
}

// BulletList is a sequence of bullet items.
type BulletList struct {
	Elem
	Items []*BulletItem
}

// Table is a row-major grid of cells. Rows may have differing lengths;
// each cell is a fully valid DocContent.
type Table struct {
	Elem
	Rows [][]*DocContent
}

// Section groups structural elements under an optional heading. Sections
// are synthetic: only the section-nesting transform produces them.
type Section struct {
	Elem
	Heading *Heading
	Content []Structural
}

// NotesAppendix is the footnote/comment text block at the end of a
// document.
type NotesAppendix struct {
	Elem
	Elements []*Paragraph
}

// DocContent is a sequence of structural elements: a table cell's content
// or the whole document body.
type DocContent struct {
	Elem
	Elements []Structural
}

// SharedData holds minimally parsed style rules keyed by selector, used to
// resolve class-based styling not present inline.
type SharedData struct {
	Elem
	StyleRules map[string]map[string]string
}

// Document is the root of every extracted document.
type Document struct {
	Elem
	Shared  *SharedData
	Content *DocContent
}

func (*TextRun) Kind() Kind         { return KindTextRun }
func (*TextLine) Kind() Kind        { return KindTextLine }
func (*Link) Kind() Kind            { return KindLink }
func (*Chip) Kind() Kind            { return KindChip }
func (*Reference) Kind() Kind       { return KindReference }
func (*ReferenceTarget) Kind() Kind { return KindReferenceTarget }
func (*Paragraph) Kind() Kind       { return KindParagraph }
func (*Heading) Kind() Kind         { return KindHeading }
func (*BulletItem) Kind() Kind      { return KindBulletItem }
func (*BulletList) Kind() Kind      { return KindBulletList }
func (*Table) Kind() Kind           { return KindTable }
func (*Section) Kind() Kind         { return KindSection }
func (*NotesAppendix) Kind() Kind   { return KindNotesAppendix }
func (*DocContent) Kind() Kind      { return KindDocContent }
func (*SharedData) Kind() Kind      { return KindSharedData }
func (*Document) Kind() Kind        { return KindDocument }

func (n *TextRun) Meta() Elem         { return n.Elem }
func (n *TextLine) Meta() Elem        { return n.Elem }
func (n *Link) Meta() Elem            { return n.Elem }
func (n *Chip) Meta() Elem            { return n.Elem }
func (n *Reference) Meta() Elem       { return n.Elem }
func (n *ReferenceTarget) Meta() Elem { return n.Elem }
func (n *Paragraph) Meta() Elem       { return n.Elem }
func (n *BulletList) Meta() Elem      { return n.Elem }
func (n *Table) Meta() Elem           { return n.Elem }
func (n *Section) Meta() Elem         { return n.Elem }
func (n *NotesAppendix) Meta() Elem   { return n.Elem }
func (n *DocContent) Meta() Elem      { return n.Elem }
func (n *SharedData) Meta() Elem      { return n.Elem }
func (n *Document) Meta() Elem        { return n.Elem }

func (n *TextRun) WithMeta(m Elem) Node         { c := *n; c.Elem = m; return &c }
func (n *TextLine) WithMeta(m Elem) Node        { c := *n; c.Elem = m; return &c }
func (n *Link) WithMeta(m Elem) Node            { c := *n; c.Elem = m; return &c }
func (n *Chip) WithMeta(m Elem) Node            { c := *n; c.Elem = m; return &c }
func (n *Reference) WithMeta(m Elem) Node       { c := *n; c.Elem = m; return &c }
func (n *ReferenceTarget) WithMeta(m Elem) Node { c := *n; c.Elem = m; return &c }
func (n *Paragraph) WithMeta(m Elem) Node       { c := *n; c.Elem = m; return &c }
func (n *Heading) WithMeta(m Elem) Node         { c := *n; c.Elem = m; return &c }
func (n *BulletItem) WithMeta(m Elem) Node      { c := *n; c.Elem = m; return &c }
func (n *BulletList) WithMeta(m Elem) Node      { c := *n; c.Elem = m; return &c }
func (n *Table) WithMeta(m Elem) Node           { c := *n; c.Elem = m; return &c }
func (n *Section) WithMeta(m Elem) Node         { c := *n; c.Elem = m; return &c }
func (n *NotesAppendix) WithMeta(m Elem) Node   { c := *n; c.Elem = m; return &c }
func (n *DocContent) WithMeta(m Elem) Node      { c := *n; c.Elem = m; return &c }
func (n *SharedData) WithMeta(m Elem) Node      { c := *n; c.Elem = m; return &c }
func (n *Document) WithMeta(m Elem) Node        { c := *n; c.Elem = m; return &c }

func (*TextRun) isNode()         {}
func (*TextLine) isNode()        {}
func (*Link) isNode()            {}
func (*Chip) isNode()            {}
func (*Reference) isNode()       {}
func (*ReferenceTarget) isNode() {}
func (*Paragraph) isNode()       {}
func (*BulletList) isNode()      {}
func (*Table) isNode()           {}
func (*Section) isNode()         {}
func (*NotesAppendix) isNode()   {}
func (*DocContent) isNode()      {}
func (*SharedData) isNode()      {}
func (*Document) isNode()        {}

func (*TextRun) isParaElem()         {}
func (*TextLine) isParaElem()        {}
func (*Link) isParaElem()            {}
func (*Chip) isParaElem()            {}
func (*Reference) isParaElem()       {}
func (*ReferenceTarget) isParaElem() {}

func (*Paragraph) isStructural()     {}
func (*BulletList) isStructural()    {}
func (*Table) isStructural()         {}
func (*Section) isStructural()       {}
func (*NotesAppendix) isStructural() {}

// Walk calls fn for n and every node reachable from it, depth-first in
// document order. Returning false from fn stops the walk.
func Walk(n Node, fn func(Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	switch v := n.(type) {
	case *TextLine:
		for _, e := range v.Elements {
			if !Walk(e, fn) {
				return false
			}
		}
	case *Paragraph:
		for _, e := range v.Elements {
			if !Walk(e, fn) {
				return false
			}
		}
	case *Heading:
		for _, e := range v.Elements {
			if !Walk(e, fn) {
				return false
			}
		}
	case *BulletItem:
		for _, e := range v.Elements {
			if !Walk(e, fn) {
				return false
			}
		}
		for _, it := range v.Nested {
			if !Walk(it, fn) {
				return false
			}
		}
	case *BulletList:
		for _, it := range v.Items {
			if !Walk(it, fn) {
				return false
			}
		}
	case *Table:
		for _, row := range v.Rows {
			for _, cell := range row {
				if !Walk(cell, fn) {
					return false
				}
			}
		}
	case *Section:
		if v.Heading != nil {
			if !Walk(v.Heading, fn) {
				return false
			}
		}
		for _, e := range v.Content {
			if !Walk(e, fn) {
				return false
			}
		}
	case *NotesAppendix:
		for _, p := range v.Elements {
			if !Walk(p, fn) {
				return false
			}
		}
	case *DocContent:
		for _, e := range v.Elements {
			if !Walk(e, fn) {
				return false
			}
		}
	case *Document:
		if v.Shared != nil {
			if !Walk(v.Shared, fn) {
				return false
			}
		}
		if v.Content != nil {
			if !Walk(v.Content, fn) {
				return false
			}
		}
	}
	return true
}
