package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docshape/docshape/internal/doctree"
	"golang.org/x/net/html"
)

// A frame is one open markup scope. The driver keeps a stack of frames
// and delegates every tokenizer event to the top one. A frame reacts to a
// nested opening tag by ignoring it, recording inline data, or returning
// a child frame for the driver to push; it reacts to a closing tag by
// staying open or reporting itself done so the driver pops it. Parents
// keep references to the child frames they spawned and convert them to
// tree nodes only when they convert themselves.
type frame interface {
	open(tag string, attrs []html.Attribute) (frame, error)
	close(tag string) (bool, error)
	text(data string)
}

// inlineFrame additionally converts to a paragraph element.
type inlineFrame interface {
	frame
	paraElem() (doctree.ParaElem, error)
}

// structFrame additionally converts to a structural element.
type structFrame interface {
	frame
	structural() (doctree.Structural, error)
}

// inlineWrapTags are formatting tags that open no scope of their own
// inside an inline run; their content flows into the enclosing run.
var inlineWrapTags = map[string]bool{
	"span": true, "b": true, "i": true, "em": true,
	"strong": true, "u": true, "s": true, "code": true,
}

func unexpectedClose(tag, scope string) error {
	return fmt.Errorf("%w: unexpected closing tag </%s> in <%s> scope", ErrMalformed, tag, scope)
}

// elemMeta builds node metadata from a tag's attributes: the style
// attribute is parsed into properties, class and id are kept as attrs.
func elemMeta(attrs []html.Attribute) doctree.Elem {
	var meta doctree.Elem
	for _, a := range attrs {
		switch a.Key {
		case "style":
			meta.Style = parseInlineStyle(a.Val)
		case "class", "id":
			if a.Val == "" {
				continue
			}
			if meta.Attrs == nil {
				meta.Attrs = map[string]any{}
			}
			meta.Attrs[a.Key] = a.Val
		}
	}
	return meta
}

func attrVal(attrs []html.Attribute, key string) (string, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// discardFrame swallows an unrecognized scope and everything inside it,
// keeping the stack balanced.
type discardFrame struct {
	tag   string
	depth int
}

func (f *discardFrame) open(tag string, _ []html.Attribute) (frame, error) {
	f.depth++
	return nil, nil
}

func (f *discardFrame) close(tag string) (bool, error) {
	if f.depth > 0 {
		f.depth--
		return false, nil
	}
	if tag != f.tag {
		return false, unexpectedClose(tag, f.tag)
	}
	return true, nil
}

func (f *discardFrame) text(string) {}

// rootFrame handles the top-level document scope. It admits at most one
// head scope and one body scope and synthesizes the final Document.
type rootFrame struct {
	head *headFrame
	body *contentFrame
}

func (f *rootFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	switch tag {
	case "head":
		if f.head != nil {
			return nil, fmt.Errorf("%w: duplicate <head> scope", ErrMalformed)
		}
		f.head = &headFrame{}
		return f.head, nil
	case "body":
		if f.body != nil {
			return nil, fmt.Errorf("%w: duplicate <body> scope", ErrMalformed)
		}
		f.body = newContentFrame(elemMeta(attrs), "body")
		return f.body, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *rootFrame) close(tag string) (bool, error) {
	if tag != "html" {
		return false, unexpectedClose(tag, "html")
	}
	return true, nil
}

func (f *rootFrame) text(string) {}

// document converts accumulated state into the extracted Document.
// Missing head or body scopes default to empty shared data and content.
func (f *rootFrame) document() (*doctree.Document, error) {
	doc := &doctree.Document{Shared: &doctree.SharedData{}, Content: &doctree.DocContent{}}
	if f.head != nil {
		doc.Shared = f.head.shared()
	}
	if f.body != nil {
		content, err := f.body.content()
		if err != nil {
			return nil, err
		}
		doc.Content = content
	}
	return doc, nil
}

// headFrame accumulates raw stylesheet text while a nested style scope is
// open and parses it into selector-keyed rules on conversion.
type headFrame struct {
	css     strings.Builder
	inStyle bool
}

func (f *headFrame) open(tag string, _ []html.Attribute) (frame, error) {
	if tag == "style" {
		f.inStyle = true
		return nil, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *headFrame) close(tag string) (bool, error) {
	switch tag {
	case "style":
		f.inStyle = false
		return false, nil
	case "head":
		return true, nil
	}
	return false, unexpectedClose(tag, "head")
}

func (f *headFrame) text(data string) {
	if f.inStyle {
		f.css.WriteString(data)
	}
}

func (f *headFrame) shared() *doctree.SharedData {
	return &doctree.SharedData{StyleRules: parseStyleRules(f.css.String())}
}

// contentFrame collects structural children for the document body or a
// table cell.
type contentFrame struct {
	meta     doctree.Elem
	closers  map[string]bool
	children []structFrame
}

func newContentFrame(meta doctree.Elem, closers ...string) *contentFrame {
	set := make(map[string]bool, len(closers))
	for _, c := range closers {
		set[c] = true
	}
	return &contentFrame{meta: meta, closers: set}
}

func (f *contentFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	var child structFrame
	switch tag {
	case "p":
		child = newParagraphFrame(tag, attrs)
	case "h1", "h2", "h3", "h4", "h5", "h6":
		child = &headingFrame{
			paragraphFrame: *newParagraphFrame(tag, attrs),
			level:          int(tag[1] - '0'),
		}
	case "table":
		child = &tableFrame{meta: elemMeta(attrs)}
	case "ul", "ol":
		child = newListFrame(tag, attrs)
	case "div":
		// Body-level divs hold the footnote/comment appendix; the
		// exporter emits no other divs between blocks.
		child = &notesFrame{meta: elemMeta(attrs)}
	case "a":
		// A hyperlink between blocks is a bookmark anchor; it exists
		// only to keep the stack balanced and its content is dropped.
		return &discardFrame{tag: tag}, nil
	default:
		return &discardFrame{tag: tag}, nil
	}
	f.children = append(f.children, child)
	return child, nil
}

func (f *contentFrame) close(tag string) (bool, error) {
	if f.closers[tag] {
		return true, nil
	}
	return false, unexpectedClose(tag, "content")
}

func (f *contentFrame) text(string) {}

func (f *contentFrame) content() (*doctree.DocContent, error) {
	content := &doctree.DocContent{Elem: f.meta}
	for _, child := range f.children {
		node, err := child.structural()
		if err != nil {
			return nil, err
		}
		content.Elements = append(content.Elements, node)
	}
	return content, nil
}

// paragraphFrame accumulates the inline frames of one paragraph scope.
// On close it appends a final literal newline run, so every paragraph
// explicitly carries its terminating break.
type paragraphFrame struct {
	tag    string
	meta   doctree.Elem
	offset int
	inline []inlineFrame
}

func newParagraphFrame(tag string, attrs []html.Attribute) *paragraphFrame {
	meta := elemMeta(attrs)
	return &paragraphFrame{tag: tag, meta: meta, offset: leftOffset(meta.Style)}
}

func (f *paragraphFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	switch {
	case tag == "br":
		f.inline = append(f.inline, literalRun{"\n"})
		return nil, nil
	case tag == "sup":
		rf := newRunFrame(tag, attrs)
		rf.asReference = true
		f.inline = append(f.inline, rf)
		return rf, nil
	case tag == "a":
		// A bare anchor outside any inline run marks a reference
		// target, keyed by its identifier.
		id, _ := attrVal(attrs, "id")
		tf := &targetFrame{meta: elemMeta(attrs), refID: id}
		f.inline = append(f.inline, tf)
		return tf, nil
	case inlineWrapTags[tag]:
		rf := newRunFrame(tag, attrs)
		f.inline = append(f.inline, rf)
		return rf, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *paragraphFrame) close(tag string) (bool, error) {
	if tag != f.tag {
		return false, unexpectedClose(tag, f.tag)
	}
	f.inline = append(f.inline, literalRun{"\n"})
	return true, nil
}

func (f *paragraphFrame) text(data string) {
	// Raw text outside any inline run is wrapped in a synthetic run;
	// whitespace-only stretches between runs carry no content.
	if strings.TrimSpace(data) == "" {
		return
	}
	rf := newRunFrame("", nil)
	rf.text(data)
	f.inline = append(f.inline, rf)
}

func (f *paragraphFrame) paragraph() (*doctree.Paragraph, error) {
	p := &doctree.Paragraph{Elem: f.meta, LeftOffset: f.offset}
	for _, in := range f.inline {
		e, err := in.paraElem()
		if err != nil {
			return nil, err
		}
		p.Elements = append(p.Elements, e)
	}
	return p, nil
}

func (f *paragraphFrame) structural() (doctree.Structural, error) {
	return f.paragraph()
}

// literalRun is a pre-built text fragment, used for line breaks and
// paragraph terminators that must bypass whitespace collapsing.
type literalRun struct {
	s string
}

func (literalRun) open(tag string, _ []html.Attribute) (frame, error) {
	return &discardFrame{tag: tag}, nil
}

func (literalRun) close(tag string) (bool, error) { return true, nil }

func (literalRun) text(string) {}

func (r literalRun) paraElem() (doctree.ParaElem, error) {
	return &doctree.TextRun{Text: r.s}, nil
}

// runFrame is the inline-text frame. It accumulates whitespace-collapsed
// text fragments and classifies itself on conversion: chip-styled runs
// become Chips, runs that recorded an anchor become Links, superscript
// scopes become References, anything else a TextRun.
type runFrame struct {
	tag         string
	meta        doctree.Elem
	frags       []string
	url         string
	hasAnchor   bool
	anchorOpen  bool
	wrappers    int
	asReference bool
}

func newRunFrame(tag string, attrs []html.Attribute) *runFrame {
	return &runFrame{tag: tag, meta: elemMeta(attrs)}
}

func (f *runFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	switch {
	case tag == "a":
		if f.hasAnchor {
			return nil, fmt.Errorf("%w: second anchor in one inline run", ErrMalformed)
		}
		f.url, _ = attrVal(attrs, "href")
		f.hasAnchor = true
		f.anchorOpen = true
		return nil, nil
	case tag == "br":
		f.frags = append(f.frags, "\n")
		return nil, nil
	case inlineWrapTags[tag] || tag == "sup":
		f.wrappers++
		return nil, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *runFrame) close(tag string) (bool, error) {
	switch {
	case tag == "a" && f.anchorOpen:
		f.anchorOpen = false
		return false, nil
	case f.wrappers > 0 && (inlineWrapTags[tag] || tag == "sup"):
		f.wrappers--
		return false, nil
	case tag == f.tag:
		return true, nil
	}
	return false, unexpectedClose(tag, f.tag)
}

func (f *runFrame) text(data string) {
	f.frags = append(f.frags, collapseWhitespace(data))
}

func (f *runFrame) paraElem() (doctree.ParaElem, error) {
	text := strings.Join(f.frags, "")
	switch {
	case f.asReference:
		return &doctree.Reference{Elem: f.meta, Text: text, URL: f.url}, nil
	case isChipStyle(f.meta.Style):
		return &doctree.Chip{Elem: f.meta, Text: text, URL: f.url}, nil
	case f.hasAnchor:
		return &doctree.Link{Elem: f.meta, Text: text, URL: f.url}, nil
	}
	return &doctree.TextRun{Elem: f.meta, Text: text}, nil
}

// targetFrame is a bare anchor inside a paragraph: a cross-reference
// target keyed by the anchor's identifier attribute.
type targetFrame struct {
	meta     doctree.Elem
	refID    string
	frags    []string
	wrappers int
}

func (f *targetFrame) open(tag string, _ []html.Attribute) (frame, error) {
	if inlineWrapTags[tag] {
		f.wrappers++
		return nil, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *targetFrame) close(tag string) (bool, error) {
	if f.wrappers > 0 && inlineWrapTags[tag] {
		f.wrappers--
		return false, nil
	}
	if tag != "a" {
		return false, unexpectedClose(tag, "a")
	}
	return true, nil
}

func (f *targetFrame) text(data string) {
	f.frags = append(f.frags, collapseWhitespace(data))
}

func (f *targetFrame) paraElem() (doctree.ParaElem, error) {
	return &doctree.ReferenceTarget{
		Elem:  f.meta.WithoutAttr("id"),
		Text:  strings.Join(f.frags, ""),
		RefID: f.refID,
	}, nil
}

// headingFrame is a paragraph frame that also carries an outline level.
type headingFrame struct {
	paragraphFrame
	level int
}

func (f *headingFrame) structural() (doctree.Structural, error) {
	p, err := f.paragraph()
	if err != nil {
		return nil, err
	}
	return &doctree.Heading{Paragraph: *p, Level: f.level}, nil
}

// bulletItemFrame is a paragraph frame inside a list scope. The list
// frame above assigns levels; nesting into a tree happens later in the
// bullet-nesting transform, not here. A list opened inside the item gets
// its own list frame, and its items are flattened into the enclosing
// list one markup depth deeper.
type bulletItemFrame struct {
	paragraphFrame
	listTag   string
	listClass string
	nested    []*listFrame
}

func (f *bulletItemFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	if tag == "ul" || tag == "ol" {
		nl := newListFrame(tag, attrs)
		f.nested = append(f.nested, nl)
		return nl, nil
	}
	return f.paragraphFrame.open(tag, attrs)
}

func (f *bulletItemFrame) item() (*doctree.BulletItem, error) {
	p, err := f.paragraph()
	if err != nil {
		return nil, err
	}
	listType := "bullet"
	if f.listTag == "ol" {
		listType = "ordered"
	}
	return &doctree.BulletItem{
		Paragraph: *p,
		ListType:  listType,
		ListClass: f.listClass,
	}, nil
}

func (f *bulletItemFrame) structural() (doctree.Structural, error) {
	return f.item()
}

// listFrame collects the items of one bullet or ordered list scope. On
// conversion, item levels are the rank of each item's left offset among
// the distinct offsets observed in this list, sorted ascending. There is
// no fixed points-per-level formula.
type listFrame struct {
	tag   string
	meta  doctree.Elem
	class string
	items []*bulletItemFrame
}

func newListFrame(tag string, attrs []html.Attribute) *listFrame {
	class, _ := attrVal(attrs, "class")
	return &listFrame{tag: tag, meta: elemMeta(attrs), class: class}
}

func (f *listFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	if tag == "li" {
		item := &bulletItemFrame{
			paragraphFrame: *newParagraphFrame(tag, attrs),
			listTag:        f.tag,
			listClass:      f.class,
		}
		f.items = append(f.items, item)
		return item, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *listFrame) close(tag string) (bool, error) {
	if tag != f.tag {
		return false, unexpectedClose(tag, f.tag)
	}
	return true, nil
}

func (f *listFrame) text(string) {}

// flatten emits the list's item frames in document order, recursing into
// lists nested inside items one depth deeper.
func (f *listFrame) flatten(depth int, frames *[]*bulletItemFrame, depths *[]int) {
	for _, itf := range f.items {
		*frames = append(*frames, itf)
		*depths = append(*depths, depth)
		for _, nl := range itf.nested {
			nl.flatten(depth+1, frames, depths)
		}
	}
}

func (f *listFrame) structural() (doctree.Structural, error) {
	var frames []*bulletItemFrame
	var depths []int
	f.flatten(0, &frames, &depths)

	list := &doctree.BulletList{Elem: f.meta}
	offsets := make(map[int]bool)
	items := make([]*doctree.BulletItem, 0, len(frames))
	for _, itf := range frames {
		item, err := itf.item()
		if err != nil {
			return nil, err
		}
		offsets[item.LeftOffset] = true
		items = append(items, item)
	}

	distinct := make([]int, 0, len(offsets))
	for off := range offsets {
		distinct = append(distinct, off)
	}
	sort.Ints(distinct)
	rank := make(map[int]int, len(distinct))
	for i, off := range distinct {
		rank[off] = i
	}
	// Markup depth is a floor under the offset rank, so nested lists
	// without indent styles still come out one level deeper.
	for i, item := range items {
		level := rank[item.LeftOffset]
		if level < depths[i] {
			level = depths[i]
		}
		item.Level = level
	}
	list.Items = items
	return list, nil
}

// tableFrame builds a row-major grid; each cell is a full content frame.
type tableFrame struct {
	meta doctree.Elem
	rows [][]*contentFrame
}

func (f *tableFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	switch tag {
	case "tr":
		f.rows = append(f.rows, nil)
		return nil, nil
	case "td", "th":
		if len(f.rows) == 0 {
			return nil, fmt.Errorf("%w: table cell outside a row", ErrMalformed)
		}
		cell := newContentFrame(elemMeta(attrs), "td", "th")
		f.rows[len(f.rows)-1] = append(f.rows[len(f.rows)-1], cell)
		return cell, nil
	case "thead", "tbody", "tfoot", "colgroup":
		return nil, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *tableFrame) close(tag string) (bool, error) {
	switch tag {
	case "table":
		return true, nil
	case "tr", "thead", "tbody", "tfoot", "colgroup":
		return false, nil
	}
	return false, unexpectedClose(tag, "table")
}

func (f *tableFrame) text(string) {}

func (f *tableFrame) structural() (doctree.Structural, error) {
	table := &doctree.Table{Elem: f.meta}
	for _, row := range f.rows {
		cells := make([]*doctree.DocContent, 0, len(row))
		for _, cf := range row {
			cell, err := cf.content()
			if err != nil {
				return nil, err
			}
			cells = append(cells, cell)
		}
		table.Rows = append(table.Rows, cells)
	}
	return table, nil
}

// notesFrame collects the paragraphs of a footnote/comment appendix.
type notesFrame struct {
	meta  doctree.Elem
	paras []*paragraphFrame
}

func (f *notesFrame) open(tag string, attrs []html.Attribute) (frame, error) {
	if tag == "p" {
		pf := newParagraphFrame(tag, attrs)
		f.paras = append(f.paras, pf)
		return pf, nil
	}
	return &discardFrame{tag: tag}, nil
}

func (f *notesFrame) close(tag string) (bool, error) {
	if tag != "div" {
		return false, unexpectedClose(tag, "div")
	}
	return true, nil
}

func (f *notesFrame) text(string) {}

func (f *notesFrame) structural() (doctree.Structural, error) {
	notes := &doctree.NotesAppendix{Elem: f.meta}
	for _, pf := range f.paras {
		p, err := pf.paragraph()
		if err != nil {
			return nil, err
		}
		notes.Elements = append(notes.Elements, p)
	}
	return notes, nil
}
