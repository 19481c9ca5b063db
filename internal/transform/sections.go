package transform

import (
	"fmt"

	"github.com/docshape/docshape/internal/doctree"
)

// NestSections folds a flat block sequence with mixed-level headings into
// a section hierarchy. Blocks before the first heading stay verbatim as
// an intro prefix; every heading opens a section that absorbs the blocks
// following it, up to the next heading of the same level.
func NestSections() *Transformer {
	t := &Transformer{}
	t.DocContent = func(ctx *Context, n *doctree.DocContent) (*doctree.DocContent, error) {
		dc, err := t.DocContentDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		top, err := structure(1, nil, dc.Elements)
		if err != nil {
			return nil, err
		}
		out := *dc
		out.Elements = top.Content
		return &out, nil
	}
	return t
}

// structure builds the section for one heading scope. heading is the
// already-consumed heading that owns items, nil at the top; level is the
// heading level whose occurrences inside items open child sections.
//
// Scanning runs backward: each level-L heading in items absorbs the
// blocks between itself and the next level-L heading into a child built
// at L+1. A leading run that follows a deeper heading gets a heading-less
// child section. A heading more than one step shallower than the scope
// being built means the source skipped levels: the call wraps itself in a
// heading-less layer and rebuilds one level nearer the heading, once per
// skipped level.
func structure(level int, heading *doctree.Heading, items []doctree.Structural) (*doctree.Section, error) {
	if heading != nil && heading.Level < level-1 {
		inner, err := structure(level-1, heading, items)
		if err != nil {
			return nil, err
		}
		return &doctree.Section{Content: []doctree.Structural{inner}}, nil
	}

	sec := &doctree.Section{Heading: heading}

	first := len(items)
	for i, it := range items {
		if _, ok := it.(*doctree.Heading); ok {
			first = i
			break
		}
	}
	intro := items[:first]
	rest := items[first:]

	var children []doctree.Structural
	end := len(rest)
	for i := len(rest) - 1; i >= 0; i-- {
		h, ok := rest[i].(*doctree.Heading)
		if !ok {
			continue
		}
		if h.Level < level {
			return nil, fmt.Errorf("%w: level %d heading inside a level %d section",
				doctree.ErrStructure, h.Level, level)
		}
		if h.Level != level {
			continue
		}
		child, err := structure(level+1, h, rest[i+1:end])
		if err != nil {
			return nil, err
		}
		children = append([]doctree.Structural{child}, children...)
		end = i
	}
	if end > 0 {
		child, err := structure(level+1, nil, rest[:end])
		if err != nil {
			return nil, err
		}
		children = append([]doctree.Structural{child}, children...)
	}

	sec.Content = append(append([]doctree.Structural{}, intro...), children...)
	return sec, nil
}
