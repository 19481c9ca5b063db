package extract

import (
	"errors"
	"fmt"
	"io"

	"github.com/docshape/docshape/internal/doctree"
	"golang.org/x/net/html"
)

// ErrMalformed reports input markup the state machine cannot accept:
// unbalanced tags, an unexpected closing tag, or a duplicate exclusive
// scope. Extraction aborts; there is no silent recovery.
var ErrMalformed = errors.New("malformed markup")

// voidTags never carry content or a closing tag. The driver skips them
// except for line breaks, which the open frame consumes in place.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// HTMLExtractor converts word-processor HTML exports into a Document.
type HTMLExtractor struct{}

func (HTMLExtractor) Extract(r io.Reader, _ string) (*doctree.Document, error) {
	return ExtractHTML(r)
}

// ExtractHTML runs the frame-stack state machine over the tokenizer's
// linear event stream. No generic markup tree is ever materialized: each
// open tag either pushes a frame or is consumed by the current one, and
// frames convert themselves bottom-up once the stream ends.
func ExtractHTML(r io.Reader) (*doctree.Document, error) {
	z := html.NewTokenizer(r)
	var stack []frame
	var root *rootFrame

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return nil, fmt.Errorf("tokenize: %w", err)
			}
			if len(stack) > 0 {
				return nil, fmt.Errorf("%w: %d scopes still open at end of input", ErrMalformed, len(stack))
			}
			if root == nil {
				return nil, fmt.Errorf("%w: no document scope found", ErrMalformed)
			}
			return root.document()

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			tag := tok.Data
			if voidTags[tag] || tt == html.SelfClosingTagToken {
				// Void scopes get no closing event; only a line break
				// means anything to a frame.
				if tag == "br" && len(stack) > 0 {
					if _, err := stack[len(stack)-1].open(tag, tok.Attr); err != nil {
						return nil, err
					}
				}
				continue
			}
			if len(stack) == 0 {
				if tag != "html" {
					return nil, fmt.Errorf("%w: unexpected top-level tag <%s>", ErrMalformed, tag)
				}
				root = &rootFrame{}
				stack = append(stack, root)
				continue
			}
			child, err := stack[len(stack)-1].open(tag, tok.Attr)
			if err != nil {
				return nil, err
			}
			if child != nil {
				stack = append(stack, child)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if len(stack) == 0 {
				return nil, fmt.Errorf("%w: unexpected closing tag </%s> at top level", ErrMalformed, tag)
			}
			done, err := stack[len(stack)-1].close(tag)
			if err != nil {
				return nil, err
			}
			if done {
				stack = stack[:len(stack)-1]
			}

		case html.TextToken:
			if len(stack) > 0 {
				stack[len(stack)-1].text(string(z.Text()))
			}
		}
	}
}
