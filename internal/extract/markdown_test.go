package extract

import (
	"strings"
	"testing"

	"github.com/docshape/docshape/internal/doctree"
)

func TestMarkdownExtract(t *testing.T) {
	src := `# Title

Hello world.

- one
- two
  - deep
`
	ex := &MarkdownExtractor{}
	doc, err := ex.Extract(strings.NewReader(src), "doc.md")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(doc.Content.Elements) != 3 {
		t.Fatalf("got %d blocks, want 3", len(doc.Content.Elements))
	}

	h, ok := doc.Content.Elements[0].(*doctree.Heading)
	if !ok {
		t.Fatalf("block 0 is %T, want *Heading", doc.Content.Elements[0])
	}
	if h.Level != 1 || h.PlainText() != "Title\n" {
		t.Errorf("heading = level %d text %q", h.Level, h.PlainText())
	}

	p, ok := doc.Content.Elements[1].(*doctree.Paragraph)
	if !ok {
		t.Fatalf("block 1 is %T, want *Paragraph", doc.Content.Elements[1])
	}
	if got := p.PlainText(); got != "Hello world.\n" {
		t.Errorf("paragraph = %q", got)
	}

	list, ok := doc.Content.Elements[2].(*doctree.BulletList)
	if !ok {
		t.Fatalf("block 2 is %T, want *BulletList", doc.Content.Elements[2])
	}
	if len(list.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(list.Items))
	}
	// Nested source lists flatten to leveled items, same shape as the
	// offset-ranked items the markup extractor produces.
	wantLevels := []int{0, 0, 1}
	wantTexts := []string{"one\n", "two\n", "deep\n"}
	for i, item := range list.Items {
		if item.Level != wantLevels[i] {
			t.Errorf("item %d level = %d, want %d", i, item.Level, wantLevels[i])
		}
		if got := item.PlainText(); got != wantTexts[i] {
			t.Errorf("item %d text = %q, want %q", i, got, wantTexts[i])
		}
	}
}

func TestMarkdownLink(t *testing.T) {
	ex := &MarkdownExtractor{}
	doc, err := ex.Extract(strings.NewReader("see [the site](https://example.com)\n"), "doc.md")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	p := doc.Content.Elements[0].(*doctree.Paragraph)

	// One run, one link, one terminating newline, in source order. The
	// link text must not also appear inside the run.
	if len(p.Elements) != 3 {
		t.Fatalf("got %d elements, want 3: %q", len(p.Elements), p.PlainText())
	}
	run, ok := p.Elements[0].(*doctree.TextRun)
	if !ok || run.Text != "see " {
		t.Errorf("element 0 = %#v, want run %q", p.Elements[0], "see ")
	}
	link, ok := p.Elements[1].(*doctree.Link)
	if !ok {
		t.Fatalf("element 1 is %T, want *Link", p.Elements[1])
	}
	if link.Text != "the site" || link.URL != "https://example.com" {
		t.Errorf("link = %q -> %q", link.Text, link.URL)
	}
	if got := p.PlainText(); got != "see [the site](https://example.com)\n" {
		t.Errorf("text = %q", got)
	}
}
