package extract

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/docshape/docshape/internal/doctree"
	"github.com/fumiama/go-docx"
)

// DOCXExtractor builds a Document from .docx files.
type DOCXExtractor struct{}

func (p *DOCXExtractor) Extract(r io.Reader, _ string) (*doctree.Document, error) {
	// go-docx needs a ReadSeeker+size, so write to temp file.
	tmp, err := os.CreateTemp("", "docshape-docx-*.docx")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	size, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write temp file: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	wordDoc, err := docx.Parse(tmp, int64(size))
	tmp.Close()
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	doc := &doctree.Document{Shared: &doctree.SharedData{}, Content: &doctree.DocContent{}}
	for _, item := range wordDoc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		text := docxParagraphText(para)
		if text == "" {
			continue
		}

		p := &doctree.Paragraph{Elements: []doctree.ParaElem{
			&doctree.TextRun{Text: text},
			&doctree.TextRun{Text: "\n"},
		}}
		if level := docxHeadingLevel(para); level > 0 {
			doc.Content.Elements = append(doc.Content.Elements, &doctree.Heading{
				Paragraph: *p,
				Level:     level,
			})
			continue
		}
		doc.Content.Elements = append(doc.Content.Elements, p)
	}
	return doc, nil
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := para.Properties.Style.Val
	for level := 1; level <= 6; level++ {
		if strings.EqualFold(style, fmt.Sprintf("Heading%d", level)) ||
			strings.EqualFold(style, fmt.Sprintf("heading %d", level)) {
			return level
		}
	}
	return 0
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		run, ok := child.(*docx.Run)
		if !ok {
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
