package doctree

import "strings"

// Plain-text rendering. Links, chips and references render as [text] or
// [text](url); table cells are tab-separated with \v opening each row
// after the first and \n\n terminating the table; sections separate
// heading and body with \n and terminate with \f; nested bullet items
// indent two spaces per level.

func (n *TextRun) PlainText() string { return n.Text }

func (n *TextLine) PlainText() string {
	var b strings.Builder
	for _, e := range n.Elements {
		b.WriteString(e.PlainText())
	}
	return b.String()
}

func (n *Link) PlainText() string { return bracketed(n.Text, n.URL) }

func (n *Chip) PlainText() string { return bracketed(n.Text, n.URL) }

func (n *Reference) PlainText() string { return bracketed(n.Text, n.URL) }

func (n *ReferenceTarget) PlainText() string { return n.Text }

func (n *Paragraph) PlainText() string {
	var b strings.Builder
	for _, e := range n.Elements {
		b.WriteString(e.PlainText())
	}
	return b.String()
}

func (n *BulletItem) PlainText() string {
	var b strings.Builder
	b.WriteString(n.Paragraph.PlainText())
	for _, it := range n.Nested {
		b.WriteString(indentLines(it.PlainText(), "  "))
	}
	return b.String()
}

func (n *BulletList) PlainText() string {
	var b strings.Builder
	for _, it := range n.Items {
		b.WriteString(it.PlainText())
	}
	return b.String()
}

func (n *Table) PlainText() string {
	var b strings.Builder
	for i, row := range n.Rows {
		if i > 0 {
			b.WriteString("\v")
		}
		for j, cell := range row {
			if j > 0 {
				b.WriteString("\t")
			}
			// The cell's paragraphs carry their own terminating
			// newlines, which would land on the delimiters.
			b.WriteString(strings.TrimRight(cell.PlainText(), "\n"))
		}
	}
	b.WriteString("\n\n")
	return b.String()
}

func (n *Section) PlainText() string {
	var b strings.Builder
	if n.Heading != nil {
		b.WriteString(n.Heading.PlainText())
	}
	b.WriteString("\n")
	for _, e := range n.Content {
		b.WriteString(e.PlainText())
	}
	b.WriteString("\f")
	return b.String()
}

func (n *NotesAppendix) PlainText() string {
	var b strings.Builder
	for _, p := range n.Elements {
		b.WriteString(p.PlainText())
	}
	return b.String()
}

func (n *DocContent) PlainText() string {
	var b strings.Builder
	for _, e := range n.Elements {
		b.WriteString(e.PlainText())
	}
	return b.String()
}

func (n *SharedData) PlainText() string { return "" }

func (n *Document) PlainText() string {
	if n.Content == nil {
		return "\n"
	}
	return n.Content.PlainText() + "\n"
}

func bracketed(text, url string) string {
	if url == "" {
		return "[" + text + "]"
	}
	return "[" + text + "](" + url + ")"
}

// indentLines prefixes every non-empty line of s with the given indent.
func indentLines(s, indent string) string {
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n")
		}
		if line != "" {
			b.WriteString(indent)
			b.WriteString(line)
		}
	}
	return b.String()
}
