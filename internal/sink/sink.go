// Package sink renders transformed documents into output formats.
package sink

import (
	"fmt"

	"github.com/docshape/docshape/internal/doctree"
)

// Sink renders a document into one output format.
type Sink interface {
	Format() string
	Render(doc *doctree.Document) ([]byte, error)
}

// Formats lists the supported output format names.
var Formats = []string{"json", "text", "csv"}

// ForFormat returns the sink for a format name.
func ForFormat(name string) (Sink, error) {
	switch name {
	case "json":
		return &JSONSink{Indent: true}, nil
	case "text":
		return &TextSink{}, nil
	case "csv":
		return &CSVSink{}, nil
	}
	return nil, fmt.Errorf("unsupported output format: %s", name)
}

// IsSupportedFormat checks a format name against the registry.
func IsSupportedFormat(name string) bool {
	for _, f := range Formats {
		if f == name {
			return true
		}
	}
	return false
}
