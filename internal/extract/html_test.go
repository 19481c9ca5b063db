package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/docshape/docshape/internal/doctree"
)

func extractString(t *testing.T, markup string) *doctree.Document {
	t.Helper()
	doc, err := ExtractHTML(strings.NewReader(markup))
	if err != nil {
		t.Fatalf("ExtractHTML: %v", err)
	}
	return doc
}

func TestExtractMinimalDocument(t *testing.T) {
	doc := extractString(t, `<html><body><p>some text</p></body></html>`)

	want := &doctree.Document{
		Shared: &doctree.SharedData{},
		Content: &doctree.DocContent{
			Elements: []doctree.Structural{
				&doctree.Paragraph{Elements: []doctree.ParaElem{
					&doctree.TextRun{Text: "some text"},
					&doctree.TextRun{Text: "\n"},
				}},
			},
		},
	}
	if !doctree.Equal(doc, want) {
		t.Errorf("got %s, want %s", mustJSON(t, doc), mustJSON(t, want))
	}
}

func TestExtractStyleRules(t *testing.T) {
	doc := extractString(t, `<html><head><style>.c1{color:#ff0000}</style></head><body></body></html>`)
	if doc.Shared == nil {
		t.Fatal("no shared data")
	}
	if got := doc.Shared.StyleRules[".c1"]["color"]; got != "#ff0000" {
		t.Errorf(".c1 color = %q, want #ff0000", got)
	}
}

func TestExtractHeading(t *testing.T) {
	doc := extractString(t, `<html><body><h2>Title</h2></body></html>`)
	h, ok := doc.Content.Elements[0].(*doctree.Heading)
	if !ok {
		t.Fatalf("got %T, want *Heading", doc.Content.Elements[0])
	}
	if h.Level != 2 {
		t.Errorf("level = %d, want 2", h.Level)
	}
	if got := h.PlainText(); got != "Title\n" {
		t.Errorf("text = %q, want %q", got, "Title\n")
	}
}

func TestExtractInlineRuns(t *testing.T) {
	markup := `<html><body><p>` +
		`<span style="color:#1155cc;text-decoration:underline"><a href="https://doc.example">My Doc</a></span>` +
		`<span><a href="https://plain.example">plain</a></span>` +
		`<sup><a href="#ftnt1">[1]</a></sup>` +
		`</p></body></html>`
	doc := extractString(t, markup)

	p := doc.Content.Elements[0].(*doctree.Paragraph)
	if len(p.Elements) != 4 {
		t.Fatalf("got %d elements, want 4 (three runs + terminator)", len(p.Elements))
	}

	chip, ok := p.Elements[0].(*doctree.Chip)
	if !ok {
		t.Fatalf("element 0 is %T, want *Chip", p.Elements[0])
	}
	if chip.Text != "My Doc" || chip.URL != "https://doc.example" {
		t.Errorf("chip = %q %q", chip.Text, chip.URL)
	}

	link, ok := p.Elements[1].(*doctree.Link)
	if !ok {
		t.Fatalf("element 1 is %T, want *Link", p.Elements[1])
	}
	if link.Text != "plain" || link.URL != "https://plain.example" {
		t.Errorf("link = %q %q", link.Text, link.URL)
	}

	ref, ok := p.Elements[2].(*doctree.Reference)
	if !ok {
		t.Fatalf("element 2 is %T, want *Reference", p.Elements[2])
	}
	if ref.Text != "[1]" || ref.URL != "#ftnt1" {
		t.Errorf("reference = %q %q", ref.Text, ref.URL)
	}
}

func TestExtractReferenceTarget(t *testing.T) {
	doc := extractString(t, `<html><body><p><a id="ftnt1">anchor</a>note text</p></body></html>`)
	p := doc.Content.Elements[0].(*doctree.Paragraph)

	tgt, ok := p.Elements[0].(*doctree.ReferenceTarget)
	if !ok {
		t.Fatalf("element 0 is %T, want *ReferenceTarget", p.Elements[0])
	}
	if tgt.RefID != "ftnt1" || tgt.Text != "anchor" {
		t.Errorf("target = %q %q", tgt.RefID, tgt.Text)
	}
	if _, ok := tgt.Attrs["id"]; ok {
		t.Error("anchor id should not survive as an attribute")
	}

	run, ok := p.Elements[1].(*doctree.TextRun)
	if !ok || run.Text != "note text" {
		t.Errorf("element 1 = %#v, want TextRun %q", p.Elements[1], "note text")
	}
}

func TestExtractLineBreak(t *testing.T) {
	doc := extractString(t, `<html><body><p>first<br>second</p></body></html>`)
	p := doc.Content.Elements[0].(*doctree.Paragraph)

	var texts []string
	for _, e := range p.Elements {
		texts = append(texts, e.(*doctree.TextRun).Text)
	}
	want := []string{"first", "\n", "second", "\n"}
	if len(texts) != len(want) {
		t.Fatalf("got runs %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Errorf("run %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestExtractWhitespaceCollapsed(t *testing.T) {
	doc := extractString(t, "<html><body><p><span>a\n   b</span></p></body></html>")
	p := doc.Content.Elements[0].(*doctree.Paragraph)
	run := p.Elements[0].(*doctree.TextRun)
	if run.Text != "a b" {
		t.Errorf("text = %q, want %q", run.Text, "a b")
	}
}

func TestExtractListLevels(t *testing.T) {
	markup := `<html><body><ul class="lst-kix_1">` +
		`<li style="margin-left:36pt">one</li>` +
		`<li style="margin-left:72pt">two</li>` +
		`<li style="margin-left:36pt">three</li>` +
		`</ul></body></html>`
	doc := extractString(t, markup)

	list, ok := doc.Content.Elements[0].(*doctree.BulletList)
	if !ok {
		t.Fatalf("got %T, want *BulletList", doc.Content.Elements[0])
	}
	if len(list.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(list.Items))
	}
	// Levels are the rank of each offset among the distinct offsets seen.
	wantLevels := []int{0, 1, 0}
	for i, item := range list.Items {
		if item.Level != wantLevels[i] {
			t.Errorf("item %d level = %d, want %d", i, item.Level, wantLevels[i])
		}
		if item.ListType != "bullet" {
			t.Errorf("item %d list type = %q", i, item.ListType)
		}
		if item.ListClass != "lst-kix_1" {
			t.Errorf("item %d list class = %q", i, item.ListClass)
		}
	}
	if list.Items[1].LeftOffset != 72 {
		t.Errorf("item 1 offset = %d, want 72", list.Items[1].LeftOffset)
	}
}

func TestExtractNestedListInsideItem(t *testing.T) {
	markup := `<html><body><ul>` +
		`<li>top<ul><li>deep</li></ul></li>` +
		`<li>next</li>` +
		`</ul></body></html>`
	doc := extractString(t, markup)

	list, ok := doc.Content.Elements[0].(*doctree.BulletList)
	if !ok {
		t.Fatalf("got %T, want *BulletList", doc.Content.Elements[0])
	}
	if len(list.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(list.Items))
	}
	wantText := []string{"top\n", "deep\n", "next\n"}
	// Without indent styles the markup depth decides the level.
	wantLevels := []int{0, 1, 0}
	for i, item := range list.Items {
		if got := item.PlainText(); got != wantText[i] {
			t.Errorf("item %d text = %q, want %q", i, got, wantText[i])
		}
		if item.Level != wantLevels[i] {
			t.Errorf("item %d level = %d, want %d", i, item.Level, wantLevels[i])
		}
	}
}

func TestExtractOrderedList(t *testing.T) {
	doc := extractString(t, `<html><body><ol><li>first</li></ol></body></html>`)
	list := doc.Content.Elements[0].(*doctree.BulletList)
	if list.Items[0].ListType != "ordered" {
		t.Errorf("list type = %q, want ordered", list.Items[0].ListType)
	}
}

func TestExtractTable(t *testing.T) {
	markup := `<html><body><table><tbody>` +
		`<tr><td><p>a</p></td><td><p>b</p></td></tr>` +
		`<tr><td><p>c</p></td></tr>` +
		`</tbody></table></body></html>`
	doc := extractString(t, markup)

	table, ok := doc.Content.Elements[0].(*doctree.Table)
	if !ok {
		t.Fatalf("got %T, want *Table", doc.Content.Elements[0])
	}
	if len(table.Rows) != 2 || len(table.Rows[0]) != 2 || len(table.Rows[1]) != 1 {
		t.Fatalf("row shape = %dx[%d %d]", len(table.Rows), len(table.Rows[0]), len(table.Rows[1]))
	}
	if got := table.PlainText(); got != "a\tb\vc\n\n" {
		t.Errorf("table text = %q, want %q", got, "a\tb\vc\n\n")
	}
}

func TestExtractNotesAppendix(t *testing.T) {
	doc := extractString(t, `<html><body><div><p>footnote one</p><p>footnote two</p></div></body></html>`)
	notes, ok := doc.Content.Elements[0].(*doctree.NotesAppendix)
	if !ok {
		t.Fatalf("got %T, want *NotesAppendix", doc.Content.Elements[0])
	}
	if len(notes.Elements) != 2 {
		t.Fatalf("got %d notes, want 2", len(notes.Elements))
	}
	if got := notes.Elements[0].PlainText(); got != "footnote one\n" {
		t.Errorf("note 0 = %q", got)
	}
}

func TestExtractMalformed(t *testing.T) {
	cases := []struct {
		name   string
		markup string
	}{
		{"top-level paragraph", `<p>text</p>`},
		{"close at top level", `<html></html></html>`},
		{"unbalanced at end", `<html><body><p>text`},
		{"mismatched close", `<html><body><p>text</body></html>`},
		{"duplicate head", `<html><head></head><head></head></html>`},
		{"duplicate body", `<html><body></body><body></body></html>`},
		{"second anchor in run", `<html><body><p><span><a href="#a">x</a><a href="#b">y</a></span></p></body></html>`},
		{"cell outside row", `<html><body><table><td><p>x</p></td></table></body></html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ExtractHTML(strings.NewReader(tc.markup))
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("err = %v, want ErrMalformed", err)
			}
		})
	}
}

func TestExtractUnknownScopesDiscarded(t *testing.T) {
	doc := extractString(t, `<html><body><video><p>inside</p></video><p>after</p></body></html>`)
	if len(doc.Content.Elements) != 1 {
		t.Fatalf("got %d elements, want 1", len(doc.Content.Elements))
	}
	if got := doc.Content.Elements[0].PlainText(); got != "after\n" {
		t.Errorf("text = %q, want %q", got, "after\n")
	}
}

func TestForFile(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"report.html", "*extract.HTMLExtractor"},
		{"README.md", "*extract.MarkdownExtractor"},
		{"letter.docx", "*extract.DOCXExtractor"},
		{"paper.PDF", "*extract.PDFExtractor"},
	}
	for _, tc := range cases {
		ex, err := ForFile(tc.name)
		if err != nil {
			t.Fatalf("ForFile(%q): %v", tc.name, err)
		}
		if got := typeName(ex); got != tc.want {
			t.Errorf("ForFile(%q) = %s, want %s", tc.name, got, tc.want)
		}
	}
	if _, err := ForFile("image.png"); err == nil {
		t.Error("ForFile(png) should fail")
	}
	if IsSupportedExtension("notes.markdown") != true {
		t.Error(".markdown should be supported")
	}
}
