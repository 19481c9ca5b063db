package sink

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/docshape/docshape/internal/doctree"
)

// JSONSink renders the document's map projection as JSON. Keys come out
// sorted, so identical documents produce identical bytes.
type JSONSink struct {
	Indent bool
}

func (s *JSONSink) Format() string { return "json" }

func (s *JSONSink) Render(doc *doctree.Document) ([]byte, error) {
	raw, err := doctree.MarshalJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	if !s.Indent {
		return raw, nil
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("indent json: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
