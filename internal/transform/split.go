package transform

import (
	"regexp"

	"github.com/docshape/docshape/internal/doctree"
)

// SplitConfig drives a text-splitting pass. Pattern must contain capture
// groups; every group of every match becomes one copy of the original
// element carrying that group's text. Match, when set, limits splitting
// to the elements it accepts. PieceTags[i] is added to the piece at
// position i across the whole flattened group sequence; Tags is added to
// every piece. An element with zero matches is dropped unless
// AllowNoMatches keeps it verbatim.
type SplitConfig struct {
	Pattern        *regexp.Regexp
	Match          *Matcher
	Tags           []string
	PieceTags      [][]string
	AllowNoMatches bool
}

// SplitText splits the text of matching inline elements by the
// configured pattern, replacing each element with one sibling per
// captured group.
func SplitText(cfg SplitConfig) *Transformer {
	t := &Transformer{}
	split := func(elems []doctree.ParaElem) []doctree.ParaElem {
		var out []doctree.ParaElem
		for _, e := range elems {
			pieces, ok := cfg.splitElem(e)
			if !ok {
				out = append(out, e)
				continue
			}
			out = append(out, pieces...)
		}
		return out
	}
	t.Paragraph = func(ctx *Context, n *doctree.Paragraph) (doctree.Structural, error) {
		p, err := t.ParagraphDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *p
		out.Elements = split(p.Elements)
		return &out, nil
	}
	t.Heading = func(ctx *Context, n *doctree.Heading) (doctree.Structural, error) {
		h, err := t.HeadingDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *h
		out.Elements = split(h.Elements)
		return &out, nil
	}
	t.BulletItem = func(ctx *Context, n *doctree.BulletItem) (doctree.Structural, error) {
		it, err := t.BulletItemDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *it
		out.Elements = split(it.Elements)
		return &out, nil
	}
	t.TextLine = func(ctx *Context, n *doctree.TextLine) (doctree.ParaElem, error) {
		l, err := t.TextLineDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		out := *l
		out.Elements = split(l.Elements)
		return &out, nil
	}
	return t
}

// splitElem returns the pieces an element splits into. The second result
// is false when the element is not a split candidate and must pass
// through untouched.
func (cfg *SplitConfig) splitElem(e doctree.ParaElem) ([]doctree.ParaElem, bool) {
	text, ok := elemText(e)
	if !ok {
		return nil, false
	}
	if cfg.Match != nil && !cfg.Match.matchLocal(e) {
		return nil, false
	}

	var groups []string
	for _, m := range cfg.Pattern.FindAllStringSubmatch(text, -1) {
		groups = append(groups, m[1:]...)
	}
	if len(groups) == 0 {
		if cfg.AllowNoMatches {
			return nil, false
		}
		return nil, true
	}

	pieces := make([]doctree.ParaElem, 0, len(groups))
	for i, g := range groups {
		piece := withText(e, g)
		add := cfg.Tags
		if i < len(cfg.PieceTags) {
			add = append(append([]string{}, add...), cfg.PieceTags[i]...)
		}
		if len(add) > 0 {
			merged := TagUpdate{Add: add}.apply(piece.Meta().Tags())
			piece = piece.WithMeta(piece.Meta().WithTags(merged)).(doctree.ParaElem)
		}
		pieces = append(pieces, piece)
	}
	return pieces, true
}

// elemText returns the splittable text of an inline element. Lines and
// reference targets are not split candidates.
func elemText(e doctree.ParaElem) (string, bool) {
	switch v := e.(type) {
	case *doctree.TextRun:
		return v.Text, true
	case *doctree.Link:
		return v.Text, true
	case *doctree.Chip:
		return v.Text, true
	case *doctree.Reference:
		return v.Text, true
	}
	return "", false
}

// withText copies an inline element with its text replaced.
func withText(e doctree.ParaElem, text string) doctree.ParaElem {
	switch v := e.(type) {
	case *doctree.TextRun:
		c := *v
		c.Text = text
		return &c
	case *doctree.Link:
		c := *v
		c.Text = text
		return &c
	case *doctree.Chip:
		c := *v
		c.Text = text
		return &c
	case *doctree.Reference:
		c := *v
		c.Text = text
		return &c
	}
	return e
}
