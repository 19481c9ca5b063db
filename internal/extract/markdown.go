package extract

import (
	"io"

	"github.com/docshape/docshape/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownExtractor builds a Document from Markdown using goldmark.
// Markdown has no style layer, so shared data stays empty; list levels
// come from the source's own nesting rather than visual offsets.
type MarkdownExtractor struct{}

func (p *MarkdownExtractor) Extract(r io.Reader, _ string) (*doctree.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	root := md.Parser().Parse(text.NewReader(src))

	doc := &doctree.Document{Shared: &doctree.SharedData{}, Content: &doctree.DocContent{}}
	for n := root.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			doc.Content.Elements = append(doc.Content.Elements, &doctree.Heading{
				Paragraph: *mdParagraph(node, src),
				Level:     node.Level,
			})
		case *ast.List:
			list := &doctree.BulletList{}
			mdListItems(node, src, 0, &list.Items)
			doc.Content.Elements = append(doc.Content.Elements, list)
		default:
			if p := mdParagraph(n, src); len(p.Elements) > 1 {
				doc.Content.Elements = append(doc.Content.Elements, p)
			}
		}
	}
	return doc, nil
}

// mdParagraph renders a block node's inline content as one paragraph,
// terminated by the explicit newline run every paragraph carries.
func mdParagraph(n ast.Node, src []byte) *doctree.Paragraph {
	p := &doctree.Paragraph{}
	if n.FirstChild() == nil {
		// Leaf blocks such as code blocks carry raw lines only.
		if t := mdRawLines(n, src); t != "" {
			p.Elements = append(p.Elements, &doctree.TextRun{Text: t})
		}
	} else {
		p.Elements = mdInline(n, src, nil)
	}
	p.Elements = append(p.Elements, &doctree.TextRun{Text: "\n"})
	return p
}

// mdInline walks a block's inline children in source order. Text
// stretches become runs and links become Link elements; emphasis and
// other wrappers flatten into their contents.
func mdInline(n ast.Node, src []byte, out []doctree.ParaElem) []doctree.ParaElem {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch v := c.(type) {
		case *ast.Link:
			out = append(out, &doctree.Link{
				Text: string(v.Text(src)),
				URL:  string(v.Destination),
			})
		case *ast.AutoLink:
			url := string(v.URL(src))
			out = append(out, &doctree.Link{Text: url, URL: url})
		case *ast.Text:
			out = appendMDRun(out, string(v.Value(src)))
			if v.SoftLineBreak() || v.HardLineBreak() {
				out = appendMDRun(out, " ")
			}
		default:
			out = mdInline(c, src, out)
		}
	}
	return out
}

// appendMDRun extends the trailing run instead of opening a new one, so
// emphasis boundaries inside a sentence do not fragment the text.
func appendMDRun(out []doctree.ParaElem, s string) []doctree.ParaElem {
	if s == "" {
		return out
	}
	if len(out) > 0 {
		if run, ok := out[len(out)-1].(*doctree.TextRun); ok {
			run.Text += s
			return out
		}
	}
	return append(out, &doctree.TextRun{Text: s})
}

// mdListItems flattens a list (and any nested lists) into leveled items;
// the bullet-nesting transform rebuilds the tree from the levels, the
// same as for extracted markup.
func mdListItems(list *ast.List, src []byte, level int, out *[]*doctree.BulletItem) {
	listType := "bullet"
	if list.IsOrdered() {
		listType = "ordered"
	}
	for li := list.FirstChild(); li != nil; li = li.NextSibling() {
		item := &doctree.BulletItem{Level: level, ListType: listType}
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			if _, ok := c.(*ast.List); ok {
				continue
			}
			item.Elements = mdInline(c, src, item.Elements)
		}
		item.Elements = append(item.Elements, &doctree.TextRun{Text: "\n"})
		*out = append(*out, item)
		for c := li.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				mdListItems(nested, src, level+1, out)
			}
		}
	}
}

// mdRawLines gets the raw source lines of a childless leaf block.
func mdRawLines(n ast.Node, src []byte) string {
	var out []byte
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		out = append(out, seg.Value(src)...)
	}
	return string(trimRightNewlines(out))
}

func trimRightNewlines(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
