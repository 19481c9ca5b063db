package sink

import (
	"github.com/docshape/docshape/internal/doctree"
)

// TextSink renders the document as plain text.
type TextSink struct{}

func (s *TextSink) Format() string { return "text" }

func (s *TextSink) Render(doc *doctree.Document) ([]byte, error) {
	return []byte(doc.PlainText()), nil
}
