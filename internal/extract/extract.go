package extract

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/docshape/docshape/internal/doctree"
)

// Extractor converts raw document bytes into a Document.
type Extractor interface {
	Extract(r io.Reader, filename string) (*doctree.Document, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".md":   true,
	".docx": true,
	".pdf":  true,
}

// ForFile returns the appropriate extractor for a filename.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".html", ".htm":
		return &HTMLExtractor{}, nil
	case ".md", ".markdown":
		return &MarkdownExtractor{}, nil
	case ".docx":
		return &DOCXExtractor{}, nil
	case ".pdf":
		return &PDFExtractor{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".markdown" {
		return true
	}
	return SupportedExtensions[ext]
}
