package transform

import (
	"testing"

	"github.com/docshape/docshape/internal/doctree"
)

func TestStructureDescending(t *testing.T) {
	// An H1 followed by an H2 nests the H2 section inside the H1 one.
	h1, h2 := heading(1, "x"), heading(2, "y")
	top, err := structure(1, nil, []doctree.Structural{h1, h2})
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if len(top.Content) != 1 {
		t.Fatalf("got %d top sections, want 1", len(top.Content))
	}
	outer := top.Content[0].(*doctree.Section)
	if outer.Heading == nil || outer.Heading.Level != 1 {
		t.Fatalf("outer heading = %v", outer.Heading)
	}
	if len(outer.Content) != 1 {
		t.Fatalf("outer content = %d blocks, want 1", len(outer.Content))
	}
	inner := outer.Content[0].(*doctree.Section)
	if inner.Heading == nil || inner.Heading.Level != 2 {
		t.Errorf("inner heading = %v", inner.Heading)
	}
}

func TestStructureSkippedLevel(t *testing.T) {
	// An H2 before the first H1 gets a heading-less wrapper section as a
	// sibling of the H1 section.
	h2, h1 := heading(2, "x"), heading(1, "y")
	top, err := structure(1, nil, []doctree.Structural{h2, h1})
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if len(top.Content) != 2 {
		t.Fatalf("got %d top sections, want 2", len(top.Content))
	}
	wrapper := top.Content[0].(*doctree.Section)
	if wrapper.Heading != nil {
		t.Error("wrapper should have no heading")
	}
	if len(wrapper.Content) != 1 {
		t.Fatalf("wrapper content = %d blocks, want 1", len(wrapper.Content))
	}
	x := wrapper.Content[0].(*doctree.Section)
	if x.Heading == nil || x.Heading.Level != 2 {
		t.Errorf("wrapped section heading = %v", x.Heading)
	}
	y := top.Content[1].(*doctree.Section)
	if y.Heading == nil || y.Heading.Level != 1 {
		t.Errorf("sibling section heading = %v", y.Heading)
	}
}

func TestStructureIntroPreserved(t *testing.T) {
	intro := para("before any heading")
	body := para("body")
	top, err := structure(1, nil, []doctree.Structural{intro, heading(1, "x"), body})
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if len(top.Content) != 2 {
		t.Fatalf("got %d top blocks, want 2", len(top.Content))
	}
	if !doctree.Equal(top.Content[0], intro) {
		t.Error("intro block not preserved verbatim")
	}
	sec := top.Content[1].(*doctree.Section)
	if len(sec.Content) != 1 || !doctree.Equal(sec.Content[0], body) {
		t.Error("heading did not absorb its body")
	}
}

func TestStructureNoHeadings(t *testing.T) {
	items := []doctree.Structural{para("a"), para("b")}
	top, err := structure(1, nil, items)
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	if len(top.Content) != 2 {
		t.Fatalf("got %d blocks, want 2", len(top.Content))
	}
	for i := range items {
		if !doctree.Equal(top.Content[i], items[i]) {
			t.Errorf("block %d changed", i)
		}
	}
}

func TestStructureDeepSkip(t *testing.T) {
	// H1 followed directly by H3: the H3 section ends up two layers down,
	// under one heading-less intermediate.
	top, err := structure(1, nil, []doctree.Structural{heading(1, "x"), heading(3, "z")})
	if err != nil {
		t.Fatalf("structure: %v", err)
	}
	h1 := top.Content[0].(*doctree.Section)
	mid := h1.Content[0].(*doctree.Section)
	if mid.Heading != nil {
		t.Fatal("intermediate layer should have no heading")
	}
	h3 := mid.Content[0].(*doctree.Section)
	if h3.Heading == nil || h3.Heading.Level != 3 {
		t.Errorf("deep section heading = %v", h3.Heading)
	}
}

func TestNestSectionsTransform(t *testing.T) {
	in := doc(heading(1, "x"), para("body"), heading(2, "y"))
	out, err := NestSections().Apply(in)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out.Content.Elements) != 1 {
		t.Fatalf("got %d top blocks, want 1", len(out.Content.Elements))
	}
	sec := out.Content.Elements[0].(*doctree.Section)
	if sec.Heading == nil || sec.Heading.Level != 1 {
		t.Fatalf("top section heading = %v", sec.Heading)
	}
	if len(sec.Content) != 2 {
		t.Fatalf("section content = %d blocks, want 2", len(sec.Content))
	}
	if _, ok := sec.Content[0].(*doctree.Paragraph); !ok {
		t.Errorf("first content block is %T, want *Paragraph", sec.Content[0])
	}
	if sub, ok := sec.Content[1].(*doctree.Section); !ok || sub.Heading.Level != 2 {
		t.Errorf("second content block = %#v", sec.Content[1])
	}
}
