package doctree

import "fmt"

// Validate checks the model invariants a well-formed tree must hold:
// a TextLine never directly contains another TextLine, nested bullet items
// carry a level strictly greater than their parent's, and a section's
// content holds no heading at the section's own level. The first violation
// found is returned wrapped in ErrStructure.
func Validate(n Node) error {
	var violation error
	Walk(n, func(cur Node) bool {
		switch v := cur.(type) {
		case *TextLine:
			for _, e := range v.Elements {
				if _, ok := e.(*TextLine); ok {
					violation = fmt.Errorf("%w: text line nested inside a text line", ErrStructure)
					return false
				}
			}
		case *BulletItem:
			for _, it := range v.Nested {
				if it.Level <= v.Level {
					violation = fmt.Errorf("%w: nested bullet level %d under parent level %d",
						ErrStructure, it.Level, v.Level)
					return false
				}
			}
		case *Section:
			if v.Heading == nil {
				return true
			}
			for _, e := range v.Content {
				if h, ok := e.(*Heading); ok && h.Level <= v.Heading.Level {
					violation = fmt.Errorf("%w: heading level %d inside section at level %d",
						ErrStructure, h.Level, v.Heading.Level)
					return false
				}
			}
		}
		return true
	})
	return violation
}
