package doctree

import "reflect"

// Equal reports whether two nodes are structurally equal: same variant and
// all fields recursively equal. Nil and empty maps/slices compare equal,
// since an absent key or child list carries no information.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	if !metaEqual(a.Meta(), b.Meta()) {
		return false
	}
	switch va := a.(type) {
	case *TextRun:
		return va.Text == b.(*TextRun).Text
	case *TextLine:
		return paraElemsEqual(va.Elements, b.(*TextLine).Elements)
	case *Link:
		vb := b.(*Link)
		return va.Text == vb.Text && va.URL == vb.URL
	case *Chip:
		vb := b.(*Chip)
		return va.Text == vb.Text && va.URL == vb.URL
	case *Reference:
		vb := b.(*Reference)
		return va.Text == vb.Text && va.URL == vb.URL
	case *ReferenceTarget:
		vb := b.(*ReferenceTarget)
		return va.Text == vb.Text && va.RefID == vb.RefID
	case *Heading:
		vb := b.(*Heading)
		return va.Level == vb.Level && paragraphEqual(&va.Paragraph, &vb.Paragraph)
	case *BulletItem:
		vb := b.(*BulletItem)
		if va.Level != vb.Level || va.ListType != vb.ListType || va.ListClass != vb.ListClass {
			return false
		}
		if !paragraphEqual(&va.Paragraph, &vb.Paragraph) {
			return false
		}
		if len(va.Nested) != len(vb.Nested) {
			return false
		}
		for i := range va.Nested {
			if !Equal(va.Nested[i], vb.Nested[i]) {
				return false
			}
		}
		return true
	case *Paragraph:
		return paragraphEqual(va, b.(*Paragraph))
	case *BulletList:
		vb := b.(*BulletList)
		if len(va.Items) != len(vb.Items) {
			return false
		}
		for i := range va.Items {
			if !Equal(va.Items[i], vb.Items[i]) {
				return false
			}
		}
		return true
	case *Table:
		vb := b.(*Table)
		if len(va.Rows) != len(vb.Rows) {
			return false
		}
		for i := range va.Rows {
			if len(va.Rows[i]) != len(vb.Rows[i]) {
				return false
			}
			for j := range va.Rows[i] {
				if !Equal(va.Rows[i][j], vb.Rows[i][j]) {
					return false
				}
			}
		}
		return true
	case *Section:
		vb := b.(*Section)
		if (va.Heading == nil) != (vb.Heading == nil) {
			return false
		}
		if va.Heading != nil && !Equal(va.Heading, vb.Heading) {
			return false
		}
		return structuralsEqual(va.Content, vb.Content)
	case *NotesAppendix:
		vb := b.(*NotesAppendix)
		if len(va.Elements) != len(vb.Elements) {
			return false
		}
		for i := range va.Elements {
			if !Equal(va.Elements[i], vb.Elements[i]) {
				return false
			}
		}
		return true
	case *DocContent:
		return structuralsEqual(va.Elements, b.(*DocContent).Elements)
	case *SharedData:
		return rulesEqual(va.StyleRules, b.(*SharedData).StyleRules)
	case *Document:
		// A nil Shared or Content carries no information, same as an
		// absent map key, so it compares equal to an empty one.
		vb := b.(*Document)
		as, bs := va.Shared, vb.Shared
		if as == nil {
			as = &SharedData{}
		}
		if bs == nil {
			bs = &SharedData{}
		}
		if !Equal(as, bs) {
			return false
		}
		ac, bc := va.Content, vb.Content
		if ac == nil {
			ac = &DocContent{}
		}
		if bc == nil {
			bc = &DocContent{}
		}
		return Equal(ac, bc)
	}
	return false
}

func paragraphEqual(a, b *Paragraph) bool {
	return a.LeftOffset == b.LeftOffset && paraElemsEqual(a.Elements, b.Elements)
}

func paraElemsEqual(a, b []ParaElem) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func structuralsEqual(a, b []Structural) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func metaEqual(a, b Elem) bool {
	if len(a.Attrs) != len(b.Attrs) || len(a.Style) != len(b.Style) {
		return false
	}
	for k, av := range a.Attrs {
		bv, ok := b.Attrs[k]
		if !ok || !attrValueEqual(av, bv) {
			return false
		}
	}
	for k, av := range a.Style {
		if bv, ok := b.Style[k]; !ok || av != bv {
			return false
		}
	}
	return true
}

func attrValueEqual(a, b any) bool {
	// Numeric attrs may come back from a decoded projection widened to
	// float64; compare by value, not representation.
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return reflect.DeepEqual(a, b)
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func rulesEqual(a, b map[string]map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for sel, props := range a {
		bp, ok := b[sel]
		if !ok || len(props) != len(bp) {
			return false
		}
		for k, v := range props {
			if bp[k] != v {
				return false
			}
		}
	}
	return true
}
