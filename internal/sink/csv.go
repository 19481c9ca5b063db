package sink

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/docshape/docshape/internal/doctree"
)

// CSVSink renders every table in the document as CSV rows. Tables are
// emitted in document order, separated by a blank line. A document with
// no tables renders to an empty byte slice.
type CSVSink struct{}

func (s *CSVSink) Format() string { return "csv" }

func (s *CSVSink) Render(doc *doctree.Document) ([]byte, error) {
	var tables []*doctree.Table
	doctree.Walk(doc, func(n doctree.Node) bool {
		if t, ok := n.(*doctree.Table); ok {
			tables = append(tables, t)
		}
		return true
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for i, t := range tables {
		if i > 0 {
			w.Flush()
			buf.WriteByte('\n')
		}
		for _, row := range t.Rows {
			record := make([]string, len(row))
			for j, cell := range row {
				record[j] = strings.TrimRight(cell.PlainText(), "\n")
			}
			if err := w.Write(record); err != nil {
				return nil, fmt.Errorf("render csv: %w", err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("render csv: %w", err)
	}
	return buf.Bytes(), nil
}
