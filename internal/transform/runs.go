package transform

import (
	"github.com/docshape/docshape/internal/doctree"
)

// MergeRuns concatenates adjacent plain text runs that carry the same
// metadata, inside every paragraph-like container and every line.
func MergeRuns() *Transformer {
	t := &Transformer{}
	t.Paragraph = func(ctx *Context, n *doctree.Paragraph) (doctree.Structural, error) {
		p, err := t.ParagraphDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *p
		out.Elements = mergeRuns(p.Elements)
		return &out, nil
	}
	t.Heading = func(ctx *Context, n *doctree.Heading) (doctree.Structural, error) {
		h, err := t.HeadingDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *h
		out.Elements = mergeRuns(h.Elements)
		return &out, nil
	}
	t.BulletItem = func(ctx *Context, n *doctree.BulletItem) (doctree.Structural, error) {
		it, err := t.BulletItemDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *it
		out.Elements = mergeRuns(it.Elements)
		return &out, nil
	}
	t.TextLine = func(ctx *Context, n *doctree.TextLine) (doctree.ParaElem, error) {
		l, err := t.TextLineDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *l
		out.Elements = mergeRuns(l.Elements)
		return &out, nil
	}
	return t
}

func mergeRuns(elems []doctree.ParaElem) []doctree.ParaElem {
	out := make([]doctree.ParaElem, 0, len(elems))
	for _, e := range elems {
		run, ok := e.(*doctree.TextRun)
		if ok && len(out) > 0 {
			if prev, isRun := out[len(out)-1].(*doctree.TextRun); isRun && sameRunMeta(prev, run) {
				m := *prev
				m.Text = prev.Text + run.Text
				out[len(out)-1] = &m
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// sameRunMeta compares only the metadata of two runs, by comparing empty
// copies structurally.
func sameRunMeta(a, b *doctree.TextRun) bool {
	return doctree.Equal(&doctree.TextRun{Elem: a.Elem}, &doctree.TextRun{Elem: b.Elem})
}

// GroupLines gathers each physical line of a paragraph into one TextLine:
// a run holding exactly a newline ends the line it closes. Pre-existing
// lines are flattened into the stream first, so nested lines never
// survive the pass.
func GroupLines() *Transformer {
	t := &Transformer{}
	group := func(elems []doctree.ParaElem) []doctree.ParaElem {
		flat := flattenLines(elems)
		var out []doctree.ParaElem
		var line []doctree.ParaElem
		for _, e := range flat {
			line = append(line, e)
			if run, ok := e.(*doctree.TextRun); ok && run.Text == "\n" {
				out = append(out, &doctree.TextLine{Elements: line})
				line = nil
			}
		}
		if len(line) > 0 {
			out = append(out, &doctree.TextLine{Elements: line})
		}
		return out
	}
	t.Paragraph = func(ctx *Context, n *doctree.Paragraph) (doctree.Structural, error) {
		p, err := t.ParagraphDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *p
		out.Elements = group(p.Elements)
		return &out, nil
	}
	t.Heading = func(ctx *Context, n *doctree.Heading) (doctree.Structural, error) {
		h, err := t.HeadingDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *h
		out.Elements = group(h.Elements)
		return &out, nil
	}
	t.BulletItem = func(ctx *Context, n *doctree.BulletItem) (doctree.Structural, error) {
		it, err := t.BulletItemDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *it
		out.Elements = group(it.Elements)
		return &out, nil
	}
	return t
}

func flattenLines(elems []doctree.ParaElem) []doctree.ParaElem {
	var out []doctree.ParaElem
	for _, e := range elems {
		if line, ok := e.(*doctree.TextLine); ok {
			out = append(out, flattenLines(line.Elements)...)
			continue
		}
		out = append(out, e)
	}
	return out
}
