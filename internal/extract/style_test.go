package extract

import (
	"reflect"
	"testing"
)

func TestParseInlineStyle(t *testing.T) {
	got := parseInlineStyle("color: #1155cc; text-decoration: underline;")
	want := map[string]string{
		"color":           "#1155cc",
		"text-decoration": "underline",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("parseInlineStyle = %v, want %v", got, want)
	}

	if got := parseInlineStyle("  "); got != nil {
		t.Errorf("blank style = %v, want nil", got)
	}
	if got := parseInlineStyle("color:;:red;"); got != nil {
		t.Errorf("empty declarations = %v, want nil", got)
	}
}

func TestParseStyleRules(t *testing.T) {
	css := `
		.c1 { color: #ff0000; font-weight: bold }
		p
		.c2 { margin-left: 36pt }
	`
	rules := parseStyleRules(css)
	if len(rules) != 2 {
		t.Fatalf("got %d rules, want 2", len(rules))
	}
	if rules[".c1"]["color"] != "#ff0000" {
		t.Errorf(".c1 color = %q", rules[".c1"]["color"])
	}
	// Selector whitespace collapses so keys stay stable.
	if rules["p .c2"]["margin-left"] != "36pt" {
		t.Errorf("p .c2 margin-left = %q", rules["p .c2"]["margin-left"])
	}

	if got := parseStyleRules("no rules here"); got != nil {
		t.Errorf("ruleless css = %v, want nil", got)
	}
}

func TestLeftOffset(t *testing.T) {
	cases := []struct {
		style map[string]string
		want  int
	}{
		{nil, 0},
		{map[string]string{"margin-left": "36pt"}, 36},
		{map[string]string{"margin-left": " 72pt "}, 72},
		{map[string]string{"margin-left": "18.5pt"}, 18},
		{map[string]string{"margin-left": "wide"}, 0},
	}
	for _, tc := range cases {
		if got := leftOffset(tc.style); got != tc.want {
			t.Errorf("leftOffset(%v) = %d, want %d", tc.style, got, tc.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	if got := collapseWhitespace("a\n  b\t c"); got != "a b c" {
		t.Errorf("collapseWhitespace = %q", got)
	}
}

func TestIsChipStyle(t *testing.T) {
	chip := map[string]string{"color": "#1155cc", "text-decoration": "underline"}
	if !isChipStyle(chip) {
		t.Error("chip style not recognized")
	}
	if isChipStyle(map[string]string{"color": "#1155cc"}) {
		t.Error("color alone should not make a chip")
	}
	if isChipStyle(map[string]string{"color": "#000000", "text-decoration": "underline"}) {
		t.Error("underline alone should not make a chip")
	}
}
