// Package transform is the recursive engine that rewrites document trees.
//
// A Transformer is a bundle of optional hook functions. The engine walks a
// tree depth-first; for every node it first runs the universal Element
// hook, then routes to the variant hook, falling back to the variant's
// exported *Default method when no hook is set. Defaults rebuild the node
// by recursing into its children, so a zero Transformer is the identity.
//
// Variant hooks replace the default behavior entirely; a hook that wants
// the default recursion calls the matching *Default method itself. The
// per-item hooks (ParaItem, ContentItem, ListItem, NestedItem, Cell,
// NoteItem) fire from inside the defaults for every child of the matching
// container, so filtering transforms need no container bookkeeping.
// Returning (nil, nil) from any hook deletes the node; that is the only
// deletion mechanism.
//
// Hooks never mutate nodes in place. Every rewrite is a shallow copy with
// fields replaced, so input and output documents share unchanged subtrees.
package transform

import (
	"fmt"

	"github.com/docshape/docshape/internal/doctree"
)

// Transformer holds the hook set for one transformation pass. All fields
// are optional; the zero value is the identity transform.
type Transformer struct {
	// Element runs first for every node, before variant dispatch. Its
	// result replaces the node for the rest of the pass.
	Element func(*Context, doctree.Node) (doctree.Node, error)

	TextRun         func(*Context, *doctree.TextRun) (doctree.ParaElem, error)
	TextLine        func(*Context, *doctree.TextLine) (doctree.ParaElem, error)
	Link            func(*Context, *doctree.Link) (doctree.ParaElem, error)
	Chip            func(*Context, *doctree.Chip) (doctree.ParaElem, error)
	Reference       func(*Context, *doctree.Reference) (doctree.ParaElem, error)
	ReferenceTarget func(*Context, *doctree.ReferenceTarget) (doctree.ParaElem, error)

	Paragraph  func(*Context, *doctree.Paragraph) (doctree.Structural, error)
	Heading    func(*Context, *doctree.Heading) (doctree.Structural, error)
	BulletItem func(*Context, *doctree.BulletItem) (doctree.Structural, error)

	BulletList    func(*Context, *doctree.BulletList) (doctree.Structural, error)
	Table         func(*Context, *doctree.Table) (doctree.Structural, error)
	Section       func(*Context, *doctree.Section) (doctree.Structural, error)
	NotesAppendix func(*Context, *doctree.NotesAppendix) (doctree.Structural, error)

	DocContent func(*Context, *doctree.DocContent) (*doctree.DocContent, error)
	SharedData func(*Context, *doctree.SharedData) (*doctree.SharedData, error)
	Document   func(*Context, *doctree.Document) (*doctree.Document, error)

	// Per-item hooks, fired by the container defaults for each child.
	ParaItem    func(ctx *Context, i int, e doctree.ParaElem) (doctree.ParaElem, error)
	ContentItem func(ctx *Context, i int, e doctree.Structural) (doctree.Structural, error)
	ListItem    func(ctx *Context, i int, it *doctree.BulletItem) (*doctree.BulletItem, error)
	NestedItem  func(ctx *Context, i int, it *doctree.BulletItem) (*doctree.BulletItem, error)
	Cell        func(ctx *Context, row, col int, cell *doctree.DocContent) (*doctree.DocContent, error)
	NoteItem    func(ctx *Context, i int, p *doctree.Paragraph) (*doctree.Paragraph, error)
}

// Apply transforms a whole document. A nil result means the pass deleted
// the document root.
func (t *Transformer) Apply(doc *doctree.Document) (*doctree.Document, error) {
	n, err := t.Node(doc)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	out, ok := n.(*doctree.Document)
	if !ok {
		return nil, fmt.Errorf("%w: document pass produced %s", ErrDispatch, n.Kind())
	}
	return out, nil
}

// Node transforms any tree value with a fresh context.
func (t *Transformer) Node(n doctree.Node) (doctree.Node, error) {
	ctx := &Context{}
	ctx.push(n, FieldLabel("root"))
	out, err := t.transform(ctx, n)
	if perr := ctx.pop(n); err == nil && perr != nil {
		err = perr
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// transform is the dispatch core: Element hook first, then the variant
// hook or default. The variant set is closed; anything else is fatal.
func (t *Transformer) transform(ctx *Context, n doctree.Node) (doctree.Node, error) {
	if t.Element != nil {
		r, err := t.Element(ctx, n)
		if err != nil {
			return nil, err
		}
		if r == nil {
			return nil, nil
		}
		n = r
	}
	switch v := n.(type) {
	case *doctree.TextRun:
		if t.TextRun != nil {
			return t.TextRun(ctx, v)
		}
		return v, nil
	case *doctree.TextLine:
		if t.TextLine != nil {
			return t.TextLine(ctx, v)
		}
		return t.TextLineDefault(ctx, v)
	case *doctree.Link:
		if t.Link != nil {
			return t.Link(ctx, v)
		}
		return v, nil
	case *doctree.Chip:
		if t.Chip != nil {
			return t.Chip(ctx, v)
		}
		return v, nil
	case *doctree.Reference:
		if t.Reference != nil {
			return t.Reference(ctx, v)
		}
		return v, nil
	case *doctree.ReferenceTarget:
		if t.ReferenceTarget != nil {
			return t.ReferenceTarget(ctx, v)
		}
		return v, nil
	case *doctree.Heading:
		if t.Heading != nil {
			return t.Heading(ctx, v)
		}
		return t.HeadingDefault(ctx, v)
	case *doctree.BulletItem:
		if t.BulletItem != nil {
			return t.BulletItem(ctx, v)
		}
		return t.BulletItemDefault(ctx, v)
	case *doctree.Paragraph:
		if t.Paragraph != nil {
			return t.Paragraph(ctx, v)
		}
		return t.ParagraphDefault(ctx, v)
	case *doctree.BulletList:
		if t.BulletList != nil {
			return t.BulletList(ctx, v)
		}
		return t.BulletListDefault(ctx, v)
	case *doctree.Table:
		if t.Table != nil {
			return t.Table(ctx, v)
		}
		return t.TableDefault(ctx, v)
	case *doctree.Section:
		if t.Section != nil {
			return t.Section(ctx, v)
		}
		return t.SectionDefault(ctx, v)
	case *doctree.NotesAppendix:
		if t.NotesAppendix != nil {
			return t.NotesAppendix(ctx, v)
		}
		return t.NotesAppendixDefault(ctx, v)
	case *doctree.DocContent:
		if t.DocContent != nil {
			return t.DocContent(ctx, v)
		}
		return t.DocContentDefault(ctx, v)
	case *doctree.SharedData:
		if t.SharedData != nil {
			return t.SharedData(ctx, v)
		}
		return v, nil
	case *doctree.Document:
		if t.Document != nil {
			return t.Document(ctx, v)
		}
		return t.DocumentDefault(ctx, v)
	}
	return nil, fmt.Errorf("%w: %T", ErrDispatch, n)
}

// TextLineDefault rebuilds a line by transforming each inline element.
func (t *Transformer) TextLineDefault(ctx *Context, v *doctree.TextLine) (*doctree.TextLine, error) {
	elems, err := t.paraElems(ctx, v.Elements)
	if err != nil {
		return nil, err
	}
	out := *v
	out.Elements = elems
	return &out, nil
}

// ParagraphDefault rebuilds a paragraph by transforming each inline
// element.
func (t *Transformer) ParagraphDefault(ctx *Context, v *doctree.Paragraph) (*doctree.Paragraph, error) {
	elems, err := t.paraElems(ctx, v.Elements)
	if err != nil {
		return nil, err
	}
	out := *v
	out.Elements = elems
	return &out, nil
}

// HeadingDefault rebuilds a heading the way ParagraphDefault rebuilds a
// paragraph, keeping the level.
func (t *Transformer) HeadingDefault(ctx *Context, v *doctree.Heading) (*doctree.Heading, error) {
	elems, err := t.paraElems(ctx, v.Elements)
	if err != nil {
		return nil, err
	}
	out := *v
	out.Elements = elems
	return &out, nil
}

// BulletItemDefault rebuilds a bullet item: inline elements first, then
// the nested item subtree via the NestedItem per-item hook.
func (t *Transformer) BulletItemDefault(ctx *Context, v *doctree.BulletItem) (*doctree.BulletItem, error) {
	elems, err := t.paraElems(ctx, v.Elements)
	if err != nil {
		return nil, err
	}
	nested, err := t.bulletItems(ctx, v.Nested, t.NestedItem)
	if err != nil {
		return nil, err
	}
	out := *v
	out.Elements = elems
	out.Nested = nested
	return &out, nil
}

// BulletListDefault rebuilds a list via the ListItem per-item hook.
func (t *Transformer) BulletListDefault(ctx *Context, v *doctree.BulletList) (*doctree.BulletList, error) {
	items, err := t.bulletItems(ctx, v.Items, t.ListItem)
	if err != nil {
		return nil, err
	}
	out := *v
	out.Items = items
	return &out, nil
}

// TableDefault rebuilds the cell grid via the Cell per-item hook. A
// deleted cell shortens its row; rows themselves are never removed.
func (t *Transformer) TableDefault(ctx *Context, v *doctree.Table) (*doctree.Table, error) {
	rows := make([][]*doctree.DocContent, 0, len(v.Rows))
	for r, row := range v.Rows {
		cells := make([]*doctree.DocContent, 0, len(row))
		for c, cell := range row {
			ctx.push(cell, CellLabel(r, c))
			nc, err := t.cellChild(ctx, r, c, cell)
			if perr := ctx.pop(cell); err == nil && perr != nil {
				err = perr
			}
			if err != nil {
				return nil, err
			}
			if nc != nil {
				cells = append(cells, nc)
			}
		}
		rows = append(rows, cells)
	}
	out := *v
	out.Rows = rows
	return &out, nil
}

// SectionDefault rebuilds the heading field, then the content list via
// the ContentItem per-item hook.
func (t *Transformer) SectionDefault(ctx *Context, v *doctree.Section) (*doctree.Section, error) {
	out := *v
	if v.Heading != nil {
		ctx.push(v.Heading, FieldLabel("heading"))
		n, err := t.transform(ctx, v.Heading)
		if perr := ctx.pop(v.Heading); err == nil && perr != nil {
			err = perr
		}
		if err != nil {
			return nil, err
		}
		if n == nil {
			out.Heading = nil
		} else {
			h, ok := n.(*doctree.Heading)
			if !ok {
				return nil, fmt.Errorf("%w: %s in a heading slot", ErrDispatch, n.Kind())
			}
			out.Heading = h
		}
	}
	content, err := t.structElems(ctx, v.Content)
	if err != nil {
		return nil, err
	}
	out.Content = content
	return &out, nil
}

// NotesAppendixDefault rebuilds the note list via the NoteItem per-item
// hook.
func (t *Transformer) NotesAppendixDefault(ctx *Context, v *doctree.NotesAppendix) (*doctree.NotesAppendix, error) {
	notes := make([]*doctree.Paragraph, 0, len(v.Elements))
	for i, p := range v.Elements {
		ctx.push(p, IndexLabel(i))
		np, err := t.noteChild(ctx, i, p)
		if perr := ctx.pop(p); err == nil && perr != nil {
			err = perr
		}
		if err != nil {
			return nil, err
		}
		if np != nil {
			notes = append(notes, np)
		}
	}
	out := *v
	out.Elements = notes
	return &out, nil
}

// DocContentDefault rebuilds the structural child list via the
// ContentItem per-item hook.
func (t *Transformer) DocContentDefault(ctx *Context, v *doctree.DocContent) (*doctree.DocContent, error) {
	elems, err := t.structElems(ctx, v.Elements)
	if err != nil {
		return nil, err
	}
	out := *v
	out.Elements = elems
	return &out, nil
}

// DocumentDefault rebuilds the shared-data and content fields. Deleting
// either leaves the field nil.
func (t *Transformer) DocumentDefault(ctx *Context, v *doctree.Document) (*doctree.Document, error) {
	out := *v
	if v.Shared != nil {
		ctx.push(v.Shared, FieldLabel("shared"))
		n, err := t.transform(ctx, v.Shared)
		if perr := ctx.pop(v.Shared); err == nil && perr != nil {
			err = perr
		}
		if err != nil {
			return nil, err
		}
		if n == nil {
			out.Shared = nil
		} else {
			sd, ok := n.(*doctree.SharedData)
			if !ok {
				return nil, fmt.Errorf("%w: %s in the shared-data slot", ErrDispatch, n.Kind())
			}
			out.Shared = sd
		}
	}
	if v.Content != nil {
		ctx.push(v.Content, FieldLabel("content"))
		n, err := t.transform(ctx, v.Content)
		if perr := ctx.pop(v.Content); err == nil && perr != nil {
			err = perr
		}
		if err != nil {
			return nil, err
		}
		if n == nil {
			out.Content = nil
		} else {
			dc, ok := n.(*doctree.DocContent)
			if !ok {
				return nil, fmt.Errorf("%w: %s in the content slot", ErrDispatch, n.Kind())
			}
			out.Content = dc
		}
	}
	return &out, nil
}

func (t *Transformer) paraElems(ctx *Context, elems []doctree.ParaElem) ([]doctree.ParaElem, error) {
	out := make([]doctree.ParaElem, 0, len(elems))
	for i, e := range elems {
		ctx.push(e, IndexLabel(i))
		item, err := t.paraChild(ctx, i, e)
		if perr := ctx.pop(e); err == nil && perr != nil {
			err = perr
		}
		if err != nil {
			return nil, err
		}
		if item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (t *Transformer) paraChild(ctx *Context, i int, e doctree.ParaElem) (doctree.ParaElem, error) {
	n, err := t.transform(ctx, e)
	if err != nil || n == nil {
		return nil, err
	}
	item, ok := n.(doctree.ParaElem)
	if !ok {
		return nil, fmt.Errorf("%w: %s in an inline slot", ErrDispatch, n.Kind())
	}
	if t.ParaItem != nil {
		return t.ParaItem(ctx, i, item)
	}
	return item, nil
}

func (t *Transformer) structElems(ctx *Context, elems []doctree.Structural) ([]doctree.Structural, error) {
	out := make([]doctree.Structural, 0, len(elems))
	for i, e := range elems {
		ctx.push(e, IndexLabel(i))
		item, err := t.structChild(ctx, i, e)
		if perr := ctx.pop(e); err == nil && perr != nil {
			err = perr
		}
		if err != nil {
			return nil, err
		}
		if item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (t *Transformer) structChild(ctx *Context, i int, e doctree.Structural) (doctree.Structural, error) {
	n, err := t.transform(ctx, e)
	if err != nil || n == nil {
		return nil, err
	}
	item, ok := n.(doctree.Structural)
	if !ok {
		return nil, fmt.Errorf("%w: %s in a structural slot", ErrDispatch, n.Kind())
	}
	if t.ContentItem != nil {
		return t.ContentItem(ctx, i, item)
	}
	return item, nil
}

func (t *Transformer) bulletItems(ctx *Context, items []*doctree.BulletItem, hook func(*Context, int, *doctree.BulletItem) (*doctree.BulletItem, error)) ([]*doctree.BulletItem, error) {
	out := make([]*doctree.BulletItem, 0, len(items))
	for i, it := range items {
		ctx.push(it, IndexLabel(i))
		item, err := t.bulletChild(ctx, i, it, hook)
		if perr := ctx.pop(it); err == nil && perr != nil {
			err = perr
		}
		if err != nil {
			return nil, err
		}
		if item != nil {
			out = append(out, item)
		}
	}
	return out, nil
}

func (t *Transformer) bulletChild(ctx *Context, i int, it *doctree.BulletItem, hook func(*Context, int, *doctree.BulletItem) (*doctree.BulletItem, error)) (*doctree.BulletItem, error) {
	n, err := t.transform(ctx, it)
	if err != nil || n == nil {
		return nil, err
	}
	item, ok := n.(*doctree.BulletItem)
	if !ok {
		return nil, fmt.Errorf("%w: %s in a bullet-item slot", ErrDispatch, n.Kind())
	}
	if hook != nil {
		return hook(ctx, i, item)
	}
	return item, nil
}

func (t *Transformer) cellChild(ctx *Context, row, col int, cell *doctree.DocContent) (*doctree.DocContent, error) {
	n, err := t.transform(ctx, cell)
	if err != nil || n == nil {
		return nil, err
	}
	dc, ok := n.(*doctree.DocContent)
	if !ok {
		return nil, fmt.Errorf("%w: %s in a table-cell slot", ErrDispatch, n.Kind())
	}
	if t.Cell != nil {
		return t.Cell(ctx, row, col, dc)
	}
	return dc, nil
}

func (t *Transformer) noteChild(ctx *Context, i int, p *doctree.Paragraph) (*doctree.Paragraph, error) {
	n, err := t.transform(ctx, p)
	if err != nil || n == nil {
		return nil, err
	}
	np, ok := n.(*doctree.Paragraph)
	if !ok {
		return nil, fmt.Errorf("%w: %s in a notes slot", ErrDispatch, n.Kind())
	}
	if t.NoteItem != nil {
		return t.NoteItem(ctx, i, np)
	}
	return np, nil
}
