package transform

import (
	"fmt"

	"github.com/docshape/docshape/internal/doctree"
)

// MergeBulletLists folds runs of adjacent sibling lists into one list,
// concatenating their item sequences. Consecutive list scopes in source
// markup are one logical list; a non-list element between two lists keeps
// them apart. Item levels are not re-ranked after the merge: when merged
// lists measured indentation in different units, each item keeps the
// level its own source list assigned.
func MergeBulletLists() *Transformer {
	t := &Transformer{}
	t.DocContent = func(ctx *Context, n *doctree.DocContent) (*doctree.DocContent, error) {
		merged := *n
		merged.Elements = mergeAdjacentLists(n.Elements)
		return t.DocContentDefault(ctx, &merged)
	}
	t.Section = func(ctx *Context, n *doctree.Section) (doctree.Structural, error) {
		merged := *n
		merged.Content = mergeAdjacentLists(n.Content)
		return t.SectionDefault(ctx, &merged)
	}
	return t
}

func mergeAdjacentLists(elems []doctree.Structural) []doctree.Structural {
	out := make([]doctree.Structural, 0, len(elems))
	for _, e := range elems {
		list, ok := e.(*doctree.BulletList)
		if ok && len(out) > 0 {
			if prev, isList := out[len(out)-1].(*doctree.BulletList); isList {
				m := *prev
				m.Items = append(append([]*doctree.BulletItem{}, prev.Items...), list.Items...)
				out[len(out)-1] = &m
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

// NestBullets turns each list's flat, leveled item sequence into a tree:
// items deeper than a level-0 item become that item's nested subtree,
// recursively. A leading run of items deeper than the list's top level
// gets a synthetic placeholder parent.
func NestBullets() *Transformer {
	t := &Transformer{}
	t.BulletList = func(ctx *Context, n *doctree.BulletList) (doctree.Structural, error) {
		list, err := t.BulletListDefault(ctx, n)
		if err != nil {
			return nil, err
		}
		items, err := nestItems(0, list.Items)
		if err != nil {
			return nil, err
		}
		out := *list
		out.Items = items
		return &out, nil
	}
	return t
}

// nestItems groups a flat item slice under its level-L boundary items,
// scanning backward: each boundary absorbs everything between itself and
// the next boundary as its nested subtree, built one level deeper. Items
// are required to sit at level L or deeper; a leading run deeper than L
// is parented under a synthetic placeholder item.
func nestItems(level int, items []*doctree.BulletItem) ([]*doctree.BulletItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	for _, it := range items {
		if it.Level < level {
			return nil, fmt.Errorf("%w: bullet item at level %d inside a level %d group",
				doctree.ErrStructure, it.Level, level)
		}
	}
	var out []*doctree.BulletItem
	end := len(items)
	for i := len(items) - 1; i >= 0; i-- {
		if items[i].Level != level {
			continue
		}
		nested, err := nestItems(level+1, items[i+1:end])
		if err != nil {
			return nil, err
		}
		c := *items[i]
		c.Nested = nested
		out = append([]*doctree.BulletItem{&c}, out...)
		end = i
	}
	if end > 0 {
		nested, err := nestItems(level+1, items[:end])
		if err != nil {
			return nil, err
		}
		placeholder := &doctree.BulletItem{
			Paragraph: doctree.Paragraph{LeftOffset: -1},
			Level:     level,
			ListType:  "empty",
			Nested:    nested,
		}
		out = append([]*doctree.BulletItem{placeholder}, out...)
	}
	return out, nil
}
