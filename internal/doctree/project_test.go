package doctree

import (
	"encoding/json"
	"testing"
)

func sampleDocument() *Document {
	return &Document{
		Shared: &SharedData{StyleRules: map[string]map[string]string{
			".c0": {"font-weight": "700"},
		}},
		Content: &DocContent{Elements: []Structural{
			&Heading{Paragraph: *textPara("Title", "\n"), Level: 1},
			&Paragraph{Elements: []ParaElem{
				&TextRun{Text: "see "},
				&Link{Text: "docs", URL: "https://example.com"},
				&Chip{Text: "Q3 plan", URL: "https://example.com/plan"},
				&Reference{Text: "[1]", URL: "#ftnt1"},
				&ReferenceTarget{RefID: "ftnt1"},
				&TextRun{Text: "\n"},
			}},
			&BulletList{Items: []*BulletItem{
				{
					Paragraph: *textPara("first", "\n"),
					ListType:  "bullet",
					ListClass: "lst-1",
					Nested: []*BulletItem{
						{Paragraph: *textPara("deep", "\n"), Level: 1, ListType: "bullet"},
					},
				},
			}},
			&Table{Rows: [][]*DocContent{
				{
					{Elements: []Structural{textPara("a", "\n")}},
					{Elements: []Structural{textPara("b", "\n")}},
				},
				{
					{Elements: []Structural{textPara("c", "\n")}},
				},
			}},
			&Section{
				Heading: &Heading{Paragraph: *textPara("Sec", "\n"), Level: 2},
				Content: []Structural{textPara("body", "\n")},
			},
			&NotesAppendix{Elements: []*Paragraph{textPara("note", "\n")}},
		}},
	}
}

func TestToMap_TypeDiscriminatorAndOmission(t *testing.T) {
	m := ToMap(&TextRun{Text: "x"})
	if m["type"] != "text_run" {
		t.Errorf("expected type text_run, got %v", m["type"])
	}
	if _, ok := m["attrs"]; ok {
		t.Error("empty attrs must be omitted")
	}
	if _, ok := m["style"]; ok {
		t.Error("empty style must be omitted")
	}

	// Zero-valued fields are omitted.
	m = ToMap(&Paragraph{})
	if _, ok := m["elements"]; ok {
		t.Error("empty elements must be omitted")
	}
	if _, ok := m["left_offset"]; ok {
		t.Error("zero left_offset must be omitted")
	}
}

func TestToMap_TagSetBecomesTrueMap(t *testing.T) {
	run := &TextRun{Elem: Elem{}.WithTags(map[string]bool{"kept": true}), Text: "x"}
	m := ToMap(run)
	attrs, ok := m["attrs"].(map[string]any)
	if !ok {
		t.Fatalf("attrs missing: %v", m)
	}
	tags, ok := attrs["tags"].(map[string]any)
	if !ok {
		t.Fatalf("tags not projected as map: %v", attrs["tags"])
	}
	if tags["kept"] != true {
		t.Errorf("expected tags.kept=true, got %v", tags)
	}
}

func TestRoundTrip_Document(t *testing.T) {
	doc := sampleDocument()
	back, err := FromMap(ToMap(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Equal(doc, back) {
		t.Error("FromMap(ToMap(doc)) is not structurally equal to doc")
	}
}

func TestRoundTrip_ThroughJSONBytes(t *testing.T) {
	doc := sampleDocument()
	data, err := MarshalJSON(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	back, err := FromMap(m)
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if !Equal(doc, back) {
		t.Error("JSON round trip changed the document")
	}
}

func TestRoundTrip_DefaultsReconstruct(t *testing.T) {
	// A paragraph with all-default fields survives projection.
	p := &Paragraph{}
	back, err := FromMap(ToMap(p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Equal(p, back) {
		t.Error("defaulted paragraph did not reconstruct equal")
	}
}

func TestRoundTrip_NilDocumentChildren(t *testing.T) {
	// ToMap omits a nil Shared and Content; FromMap rebuilds them empty.
	doc := &Document{}
	back, err := FromMap(ToMap(doc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !Equal(doc, back) {
		t.Error("document with nil children did not reconstruct equal")
	}
}

func TestMarshalJSON_Deterministic(t *testing.T) {
	doc := sampleDocument()
	first, err := MarshalJSON(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := MarshalJSON(doc)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		if string(next) != string(first) {
			t.Fatal("marshalling the same document twice produced different bytes")
		}
	}
}

func TestFromMap_UnknownType(t *testing.T) {
	if _, err := FromMap(map[string]any{"type": "mystery"}); err == nil {
		t.Error("expected error for unknown node type")
	}
}

func TestFromMap_JSONNumbersWiden(t *testing.T) {
	// Numbers decoded from JSON arrive as float64 and must restore as ints.
	m := map[string]any{"type": "heading", "level": float64(3), "left_offset": float64(36)}
	n, err := FromMap(m)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h, ok := n.(*Heading)
	if !ok {
		t.Fatalf("expected heading, got %T", n)
	}
	if h.Level != 3 || h.LeftOffset != 36 {
		t.Errorf("expected level 3 offset 36, got %d/%d", h.Level, h.LeftOffset)
	}
}
