package transform

import (
	"github.com/docshape/docshape/internal/doctree"
)

// Span is a half-open position range with list-slice semantics: nil
// bounds are open ends and negative bounds count from the end of the
// child list.
type Span struct {
	Start *int
	End   *int
}

// Contains reports whether index i of a list of the given length falls
// inside the span.
func (s *Span) Contains(i, length int) bool {
	if s == nil {
		return true
	}
	start := 0
	if s.Start != nil {
		start = normalizeBound(*s.Start, length)
	}
	end := length
	if s.End != nil {
		end = normalizeBound(*s.End, length)
	}
	return i >= start && i < end
}

func normalizeBound(b, length int) int {
	if b < 0 {
		b += length
	}
	if b < 0 {
		return 0
	}
	if b > length {
		return length
	}
	return b
}

// Matcher is a declarative node predicate: variant kinds, tag-set
// requirements (alternative sets, any one of which must be a subset of
// the node's tags), rejected tags, position spans relative to the
// immediate parent, an ancestor-chain constraint, and a descendant
// constraint. Zero-value fields do not constrain.
type Matcher struct {
	Kinds   []doctree.Kind
	Require [][]string
	Reject  []string

	// Row constrains row-like positions: the cell row inside a table,
	// or the index inside a block container. Col constrains the cell
	// column inside a table, or the index inside a paragraph or line.
	Row *Span
	Col *Span

	// Ancestors must each match some ancestor, consumed nearest the
	// root first, with gaps allowed. Only kind and tag constraints
	// apply to ancestors.
	Ancestors []Matcher

	// Descendant must match at least one node strictly below this one.
	Descendant *Matcher
}

// Match evaluates the full predicate for the node currently being
// visited.
func (m *Matcher) Match(ctx *Context, n doctree.Node) bool {
	if !m.matchLocal(n) {
		return false
	}
	if !m.matchPosition(ctx) {
		return false
	}
	if !m.matchAncestors(ctx.Ancestors()) {
		return false
	}
	if m.Descendant != nil && !m.matchDescendant(n) {
		return false
	}
	return true
}

// matchLocal evaluates the kind and tag constraints alone.
func (m *Matcher) matchLocal(n doctree.Node) bool {
	if len(m.Kinds) > 0 {
		found := false
		for _, k := range m.Kinds {
			if n.Kind() == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	tags := n.Meta().Tags()
	for _, rej := range m.Reject {
		if tags[rej] {
			return false
		}
	}
	if len(m.Require) > 0 {
		matched := false
		for _, set := range m.Require {
			all := true
			for _, tag := range set {
				if !tags[tag] {
					all = false
					break
				}
			}
			if all {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func (m *Matcher) matchPosition(ctx *Context) bool {
	if m.Row == nil && m.Col == nil {
		return true
	}
	label, ok := ctx.Last()
	if !ok {
		return false
	}
	parent := ctx.Parent()
	switch label.Kind {
	case LabelCell:
		table, ok := parent.(*doctree.Table)
		if !ok {
			return false
		}
		if !m.Row.Contains(label.Row, len(table.Rows)) {
			return false
		}
		rowLen := 0
		if label.Row < len(table.Rows) {
			rowLen = len(table.Rows[label.Row])
		}
		return m.Col.Contains(label.Col, rowLen)
	case LabelIndex:
		length := childCount(parent)
		switch parent.(type) {
		case *doctree.Paragraph, *doctree.Heading, *doctree.BulletItem, *doctree.TextLine:
			// Inline slots are columns.
			return m.Row == nil && m.Col.Contains(label.Index, length)
		default:
			// Block slots are rows.
			return m.Col == nil && m.Row.Contains(label.Index, length)
		}
	}
	return false
}

func childCount(parent doctree.Node) int {
	switch p := parent.(type) {
	case *doctree.TextLine:
		return len(p.Elements)
	case *doctree.Heading:
		return len(p.Elements)
	case *doctree.BulletItem:
		return len(p.Elements)
	case *doctree.Paragraph:
		return len(p.Elements)
	case *doctree.BulletList:
		return len(p.Items)
	case *doctree.Section:
		return len(p.Content)
	case *doctree.NotesAppendix:
		return len(p.Elements)
	case *doctree.DocContent:
		return len(p.Elements)
	}
	return 0
}

// matchAncestors walks the ancestor chain root-first, consuming the
// constraint matchers as a loose subsequence.
func (m *Matcher) matchAncestors(ancestors []doctree.Node) bool {
	if len(m.Ancestors) == 0 {
		return true
	}
	next := 0
	for _, a := range ancestors {
		if next == len(m.Ancestors) {
			break
		}
		if m.Ancestors[next].matchLocal(a) {
			next++
		}
	}
	return next == len(m.Ancestors)
}

func (m *Matcher) matchDescendant(n doctree.Node) bool {
	found := false
	doctree.Walk(n, func(d doctree.Node) bool {
		if d == n {
			return true
		}
		if m.Descendant.matchLocal(d) {
			found = true
			return false
		}
		return true
	})
	return found
}

// TagUpdate is a declarative tag-set edit: removals apply first, then
// additions. Removing "*" clears the whole set.
type TagUpdate struct {
	Add    []string
	Remove []string
}

func (u TagUpdate) apply(tags map[string]bool) map[string]bool {
	out := make(map[string]bool, len(tags)+len(u.Add))
	for t := range tags {
		out[t] = true
	}
	for _, r := range u.Remove {
		if r == "*" {
			out = make(map[string]bool, len(u.Add))
			break
		}
		delete(out, r)
	}
	for _, a := range u.Add {
		out[a] = true
	}
	return out
}

// TagElements applies a tag update to every node the matcher accepts.
func TagElements(m Matcher, up TagUpdate) *Transformer {
	return &Transformer{
		Element: func(ctx *Context, n doctree.Node) (doctree.Node, error) {
			if !m.Match(ctx, n) {
				return n, nil
			}
			meta := n.Meta()
			return n.WithMeta(meta.WithTags(up.apply(meta.Tags()))), nil
		},
	}
}

// Filter deletes every node the matcher accepts. Children of a deleted
// node go with it.
func Filter(m Matcher) *Transformer {
	return &Transformer{
		Element: func(ctx *Context, n doctree.Node) (doctree.Node, error) {
			if m.Match(ctx, n) {
				return nil, nil
			}
			return n, nil
		},
	}
}
