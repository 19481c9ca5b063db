package doctree

import (
	"encoding/json"
	"fmt"
)

// ToMap converts a node recursively into plain nested maps, slices and
// primitives. A "type" discriminator is always present; fields equal to
// their zero value are omitted to keep output compact; tag sets become
// maps to true. encoding/json sorts map keys, so marshalling the result
// is deterministic byte for byte.
func ToMap(n Node) map[string]any {
	if n == nil {
		return nil
	}
	m := map[string]any{"type": string(n.Kind())}
	meta := n.Meta()
	if len(meta.Attrs) > 0 {
		m["attrs"] = attrsToMap(meta.Attrs)
	}
	if len(meta.Style) > 0 {
		style := make(map[string]any, len(meta.Style))
		for k, v := range meta.Style {
			style[k] = v
		}
		m["style"] = style
	}
	switch v := n.(type) {
	case *TextRun:
		putStr(m, "text", v.Text)
	case *TextLine:
		putParaElems(m, v.Elements)
	case *Link:
		putStr(m, "text", v.Text)
		putStr(m, "url", v.URL)
	case *Chip:
		putStr(m, "text", v.Text)
		putStr(m, "url", v.URL)
	case *Reference:
		putStr(m, "text", v.Text)
		putStr(m, "url", v.URL)
	case *ReferenceTarget:
		putStr(m, "text", v.Text)
		putStr(m, "ref_id", v.RefID)
	case *Heading:
		putInt(m, "left_offset", v.LeftOffset)
		putParaElems(m, v.Elements)
		putInt(m, "level", v.Level)
	case *BulletItem:
		putInt(m, "left_offset", v.LeftOffset)
		putParaElems(m, v.Elements)
		putInt(m, "level", v.Level)
		putStr(m, "list_type", v.ListType)
		putStr(m, "list_class", v.ListClass)
		if len(v.Nested) > 0 {
			nested := make([]any, len(v.Nested))
			for i, it := range v.Nested {
				nested[i] = ToMap(it)
			}
			m["nested"] = nested
		}
	case *Paragraph:
		putInt(m, "left_offset", v.LeftOffset)
		putParaElems(m, v.Elements)
	case *BulletList:
		if len(v.Items) > 0 {
			items := make([]any, len(v.Items))
			for i, it := range v.Items {
				items[i] = ToMap(it)
			}
			m["items"] = items
		}
	case *Table:
		if len(v.Rows) > 0 {
			rows := make([]any, len(v.Rows))
			for i, row := range v.Rows {
				cells := make([]any, len(row))
				for j, cell := range row {
					cells[j] = ToMap(cell)
				}
				rows[i] = cells
			}
			m["rows"] = rows
		}
	case *Section:
		if v.Heading != nil {
			m["heading"] = ToMap(v.Heading)
		}
		putStructurals(m, "content", v.Content)
	case *NotesAppendix:
		if len(v.Elements) > 0 {
			elems := make([]any, len(v.Elements))
			for i, p := range v.Elements {
				elems[i] = ToMap(p)
			}
			m["elements"] = elems
		}
	case *DocContent:
		putStructurals(m, "elements", v.Elements)
	case *SharedData:
		if len(v.StyleRules) > 0 {
			rules := make(map[string]any, len(v.StyleRules))
			for sel, props := range v.StyleRules {
				pm := make(map[string]any, len(props))
				for k, val := range props {
					pm[k] = val
				}
				rules[sel] = pm
			}
			m["style_rules"] = rules
		}
	case *Document:
		if v.Shared != nil {
			if sm := ToMap(v.Shared); len(sm) > 1 {
				m["shared"] = sm
			}
		}
		if v.Content != nil {
			if cm := ToMap(v.Content); len(cm) > 1 {
				m["content"] = cm
			}
		}
	}
	return m
}

// MarshalJSON renders a node through its map projection so that JSON
// output is stable and key-sorted.
func MarshalJSON(n Node) ([]byte, error) {
	return json.Marshal(ToMap(n))
}

func attrsToMap(attrs map[string]any) map[string]any {
	out := make(map[string]any, len(attrs))
	for k, v := range attrs {
		if set, ok := v.(map[string]bool); ok {
			sm := make(map[string]any, len(set))
			for tag := range set {
				sm[tag] = true
			}
			out[k] = sm
			continue
		}
		out[k] = v
	}
	return out
}

func putStr(m map[string]any, key, val string) {
	if val != "" {
		m[key] = val
	}
}

func putInt(m map[string]any, key string, val int) {
	if val != 0 {
		m[key] = val
	}
}

func putParaElems(m map[string]any, elems []ParaElem) {
	if len(elems) == 0 {
		return
	}
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = ToMap(e)
	}
	m["elements"] = out
}

func putStructurals(m map[string]any, key string, elems []Structural) {
	if len(elems) == 0 {
		return
	}
	out := make([]any, len(elems))
	for i, e := range elems {
		out[i] = ToMap(e)
	}
	m[key] = out
}

// FromMap reconstructs a node from its map projection. Fields omitted as
// defaults come back as their zero values, so FromMap(ToMap(n)) is
// structurally equal to n.
func FromMap(m map[string]any) (Node, error) {
	if m == nil {
		return nil, fmt.Errorf("from map: nil projection")
	}
	kind, _ := m["type"].(string)
	meta, err := metaFromMap(m)
	if err != nil {
		return nil, err
	}
	switch Kind(kind) {
	case KindTextRun:
		return &TextRun{Elem: meta, Text: str(m, "text")}, nil
	case KindTextLine:
		elems, err := paraElemsFromMap(m, "elements")
		if err != nil {
			return nil, err
		}
		return &TextLine{Elem: meta, Elements: elems}, nil
	case KindLink:
		return &Link{Elem: meta, Text: str(m, "text"), URL: str(m, "url")}, nil
	case KindChip:
		return &Chip{Elem: meta, Text: str(m, "text"), URL: str(m, "url")}, nil
	case KindReference:
		return &Reference{Elem: meta, Text: str(m, "text"), URL: str(m, "url")}, nil
	case KindReferenceTarget:
		return &ReferenceTarget{Elem: meta, Text: str(m, "text"), RefID: str(m, "ref_id")}, nil
	case KindParagraph:
		p, err := paragraphFromMap(m, meta)
		if err != nil {
			return nil, err
		}
		return p, nil
	case KindHeading:
		p, err := paragraphFromMap(m, meta)
		if err != nil {
			return nil, err
		}
		return &Heading{Paragraph: *p, Level: num(m, "level")}, nil
	case KindBulletItem:
		return bulletItemFromMap(m, meta)
	case KindBulletList:
		raw, err := anySlice(m, "items")
		if err != nil {
			return nil, err
		}
		items := make([]*BulletItem, 0, len(raw))
		for _, rm := range raw {
			im, err := childMap(rm)
			if err != nil {
				return nil, err
			}
			itemMeta, err := metaFromMap(im)
			if err != nil {
				return nil, err
			}
			it, err := bulletItemFromMap(im, itemMeta)
			if err != nil {
				return nil, err
			}
			items = append(items, it)
		}
		return &BulletList{Elem: meta, Items: items}, nil
	case KindTable:
		raw, err := anySlice(m, "rows")
		if err != nil {
			return nil, err
		}
		var rows [][]*DocContent
		for _, rrow := range raw {
			cellsRaw, ok := rrow.([]any)
			if !ok {
				return nil, fmt.Errorf("from map: table row is %T, want list", rrow)
			}
			row := make([]*DocContent, 0, len(cellsRaw))
			for _, rc := range cellsRaw {
				cm, err := childMap(rc)
				if err != nil {
					return nil, err
				}
				cell, err := docContentFromMap(cm)
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			}
			rows = append(rows, row)
		}
		return &Table{Elem: meta, Rows: rows}, nil
	case KindSection:
		sec := &Section{Elem: meta}
		if hr, ok := m["heading"]; ok {
			hm, err := childMap(hr)
			if err != nil {
				return nil, err
			}
			h, err := FromMap(hm)
			if err != nil {
				return nil, err
			}
			heading, ok := h.(*Heading)
			if !ok {
				return nil, fmt.Errorf("from map: section heading is %s, want heading", h.Kind())
			}
			sec.Heading = heading
		}
		content, err := structuralsFromMap(m, "content")
		if err != nil {
			return nil, err
		}
		sec.Content = content
		return sec, nil
	case KindNotesAppendix:
		raw, err := anySlice(m, "elements")
		if err != nil {
			return nil, err
		}
		notes := make([]*Paragraph, 0, len(raw))
		for _, rp := range raw {
			pm, err := childMap(rp)
			if err != nil {
				return nil, err
			}
			n, err := FromMap(pm)
			if err != nil {
				return nil, err
			}
			p, ok := n.(*Paragraph)
			if !ok {
				return nil, fmt.Errorf("from map: notes element is %s, want paragraph", n.Kind())
			}
			notes = append(notes, p)
		}
		return &NotesAppendix{Elem: meta, Elements: notes}, nil
	case KindDocContent:
		c, err := docContentFromMap(m)
		if err != nil {
			return nil, err
		}
		c.Elem = meta
		return c, nil
	case KindSharedData:
		return sharedFromMap(m, meta)
	case KindDocument:
		doc := &Document{Elem: meta, Shared: &SharedData{}, Content: &DocContent{}}
		if sr, ok := m["shared"]; ok {
			sm, err := childMap(sr)
			if err != nil {
				return nil, err
			}
			smMeta, err := metaFromMap(sm)
			if err != nil {
				return nil, err
			}
			shared, err := sharedFromMap(sm, smMeta)
			if err != nil {
				return nil, err
			}
			doc.Shared = shared
		}
		if cr, ok := m["content"]; ok {
			cm, err := childMap(cr)
			if err != nil {
				return nil, err
			}
			cMeta, err := metaFromMap(cm)
			if err != nil {
				return nil, err
			}
			content, err := docContentFromMap(cm)
			if err != nil {
				return nil, err
			}
			content.Elem = cMeta
			doc.Content = content
		}
		return doc, nil
	}
	return nil, fmt.Errorf("from map: unknown node type %q", kind)
}

func metaFromMap(m map[string]any) (Elem, error) {
	var meta Elem
	if raw, ok := m["attrs"]; ok {
		am, ok := raw.(map[string]any)
		if !ok {
			return meta, fmt.Errorf("from map: attrs is %T, want map", raw)
		}
		attrs := make(map[string]any, len(am))
		for k, v := range am {
			if k == TagsAttr {
				if tm, ok := v.(map[string]any); ok {
					tags := make(map[string]bool, len(tm))
					for tag := range tm {
						tags[tag] = true
					}
					attrs[k] = tags
					continue
				}
			}
			attrs[k] = v
		}
		meta.Attrs = attrs
	}
	if raw, ok := m["style"]; ok {
		sm, ok := raw.(map[string]any)
		if !ok {
			return meta, fmt.Errorf("from map: style is %T, want map", raw)
		}
		style := make(map[string]string, len(sm))
		for k, v := range sm {
			s, ok := v.(string)
			if !ok {
				return meta, fmt.Errorf("from map: style %q is %T, want string", k, v)
			}
			style[k] = s
		}
		meta.Style = style
	}
	return meta, nil
}

func paragraphFromMap(m map[string]any, meta Elem) (*Paragraph, error) {
	elems, err := paraElemsFromMap(m, "elements")
	if err != nil {
		return nil, err
	}
	return &Paragraph{Elem: meta, LeftOffset: num(m, "left_offset"), Elements: elems}, nil
}

func bulletItemFromMap(m map[string]any, meta Elem) (*BulletItem, error) {
	p, err := paragraphFromMap(m, meta)
	if err != nil {
		return nil, err
	}
	item := &BulletItem{
		Paragraph: *p,
		Level:     num(m, "level"),
		ListType:  str(m, "list_type"),
		ListClass: str(m, "list_class"),
	}
	raw, err := anySlice(m, "nested")
	if err != nil {
		return nil, err
	}
	for _, rn := range raw {
		nm, err := childMap(rn)
		if err != nil {
			return nil, err
		}
		nMeta, err := metaFromMap(nm)
		if err != nil {
			return nil, err
		}
		nested, err := bulletItemFromMap(nm, nMeta)
		if err != nil {
			return nil, err
		}
		item.Nested = append(item.Nested, nested)
	}
	return item, nil
}

func docContentFromMap(m map[string]any) (*DocContent, error) {
	meta, err := metaFromMap(m)
	if err != nil {
		return nil, err
	}
	elems, err := structuralsFromMap(m, "elements")
	if err != nil {
		return nil, err
	}
	return &DocContent{Elem: meta, Elements: elems}, nil
}

func sharedFromMap(m map[string]any, meta Elem) (*SharedData, error) {
	shared := &SharedData{Elem: meta}
	raw, ok := m["style_rules"]
	if !ok {
		return shared, nil
	}
	rm, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("from map: style_rules is %T, want map", raw)
	}
	rules := make(map[string]map[string]string, len(rm))
	for sel, rprops := range rm {
		pm, ok := rprops.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("from map: style rule %q is %T, want map", sel, rprops)
		}
		props := make(map[string]string, len(pm))
		for k, v := range pm {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("from map: style rule %q property %q is %T, want string", sel, k, v)
			}
			props[k] = s
		}
		rules[sel] = props
	}
	shared.StyleRules = rules
	return shared, nil
}

func paraElemsFromMap(m map[string]any, key string) ([]ParaElem, error) {
	raw, err := anySlice(m, key)
	if err != nil {
		return nil, err
	}
	elems := make([]ParaElem, 0, len(raw))
	for _, re := range raw {
		em, err := childMap(re)
		if err != nil {
			return nil, err
		}
		n, err := FromMap(em)
		if err != nil {
			return nil, err
		}
		pe, ok := n.(ParaElem)
		if !ok {
			return nil, fmt.Errorf("from map: %s is not a paragraph element", n.Kind())
		}
		elems = append(elems, pe)
	}
	if len(elems) == 0 {
		return nil, nil
	}
	return elems, nil
}

func structuralsFromMap(m map[string]any, key string) ([]Structural, error) {
	raw, err := anySlice(m, key)
	if err != nil {
		return nil, err
	}
	elems := make([]Structural, 0, len(raw))
	for _, re := range raw {
		em, err := childMap(re)
		if err != nil {
			return nil, err
		}
		n, err := FromMap(em)
		if err != nil {
			return nil, err
		}
		se, ok := n.(Structural)
		if !ok {
			return nil, fmt.Errorf("from map: %s is not a structural element", n.Kind())
		}
		elems = append(elems, se)
	}
	if len(elems) == 0 {
		return nil, nil
	}
	return elems, nil
}

func childMap(v any) (map[string]any, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("from map: child is %T, want map", v)
	}
	return m, nil
}

func anySlice(m map[string]any, key string) ([]any, error) {
	raw, ok := m[key]
	if !ok {
		return nil, nil
	}
	s, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("from map: %s is %T, want list", key, raw)
	}
	return s, nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func num(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
