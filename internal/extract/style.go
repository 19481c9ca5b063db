package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// cssRuleRe pulls `selector { body }` blocks out of a stylesheet.
	cssRuleRe = regexp.MustCompile(`(?s)([^{}]+)\{([^{}]*)\}`)
	// styleDeclRe pulls `key: value` declarations out of an inline style
	// string; values run to the next semicolon or end of string.
	styleDeclRe = regexp.MustCompile(`([^:;]+):([^;]*)`)
	// wsRe collapses whitespace runs, including embedded newlines.
	wsRe = regexp.MustCompile(`\s+`)
)

// parseStyleRules parses raw stylesheet text into a selector-keyed rule
// map. Whitespace runs in selectors collapse to a single space so keys
// stay stable across formatting differences.
func parseStyleRules(css string) map[string]map[string]string {
	rules := make(map[string]map[string]string)
	for _, m := range cssRuleRe.FindAllStringSubmatch(css, -1) {
		selector := wsRe.ReplaceAllString(strings.TrimSpace(m[1]), " ")
		if selector == "" {
			continue
		}
		props := parseInlineStyle(m[2])
		if len(props) == 0 {
			continue
		}
		rules[selector] = props
	}
	if len(rules) == 0 {
		return nil
	}
	return rules
}

// parseInlineStyle parses a semicolon-separated `key:value` style string.
// Keys and values are trimmed of surrounding whitespace; empty entries
// are dropped.
func parseInlineStyle(s string) map[string]string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	props := make(map[string]string)
	for _, m := range styleDeclRe.FindAllStringSubmatch(s, -1) {
		key := strings.TrimSpace(m[1])
		val := strings.TrimSpace(m[2])
		if key == "" || val == "" {
			continue
		}
		props[key] = val
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// collapseWhitespace folds every run of whitespace, newlines included,
// into one space.
func collapseWhitespace(s string) string {
	return wsRe.ReplaceAllString(s, " ")
}

// leftOffset reads a style's margin-left as whole points. Returns 0 when
// absent or unparseable.
func leftOffset(style map[string]string) int {
	raw, ok := style["margin-left"]
	if !ok {
		return 0
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "pt")
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return int(n)
}

// Word processors export rich "smart chip" references as text in a fixed
// accent color with an underline; that pair of properties is what
// distinguishes a chip from an ordinary styled run.
const chipColor = "#1155cc"

func isChipStyle(style map[string]string) bool {
	if style["color"] != chipColor {
		return false
	}
	return strings.Contains(style["text-decoration"], "underline")
}
