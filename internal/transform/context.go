package transform

import (
	"errors"
	"fmt"

	"github.com/docshape/docshape/internal/doctree"
)

var (
	// ErrDispatch reports a node variant the engine cannot route: the type
	// set is closed, so an unknown variant or a node landing in a slot of
	// the wrong capability is a bug in the calling transform.
	ErrDispatch = errors.New("dispatch: unsupported node variant")

	// ErrContext reports a corrupted path stack: a pop did not see the
	// value the matching push recorded. Correct hook code never raises it.
	ErrContext = errors.New("context stack corrupted")
)

// LabelKind discriminates path label variants.
type LabelKind int

const (
	// LabelIndex is a position in a child list.
	LabelIndex LabelKind = iota
	// LabelCell is a (row, col) table coordinate.
	LabelCell
	// LabelField is a named single-value field like "heading".
	LabelField
)

// Label is one step of the path from the document root to a node: a list
// index, a table cell coordinate, or a field name.
type Label struct {
	Kind     LabelKind
	Index    int
	Row, Col int
	Field    string
}

func IndexLabel(i int) Label       { return Label{Kind: LabelIndex, Index: i} }
func CellLabel(row, col int) Label { return Label{Kind: LabelCell, Row: row, Col: col} }
func FieldLabel(name string) Label { return Label{Kind: LabelField, Field: name} }

func (l Label) String() string {
	switch l.Kind {
	case LabelCell:
		return fmt.Sprintf("(%d,%d)", l.Row, l.Col)
	case LabelField:
		return l.Field
	}
	return fmt.Sprintf("%d", l.Index)
}

// Context tracks the path from the root of the transformation to the node
// currently being visited. Before descending into a child, the engine
// pushes the child's pre-transform value together with its path label, so
// while a hook runs the top of the stack is the node the hook received.
// Hooks read the context; only the engine may push or pop.
type Context struct {
	nodes  []doctree.Node
	labels []Label
}

// Depth is the number of entries on the path stack, the current node
// included.
func (c *Context) Depth() int { return len(c.nodes) }

// Path returns a copy of the descent labels, root first. The last label
// locates the current node inside its parent.
func (c *Context) Path() []Label {
	out := make([]Label, len(c.labels))
	copy(out, c.labels)
	return out
}

// Ancestors returns a copy of the ancestor chain, root first, excluding
// the node currently being visited.
func (c *Context) Ancestors() []doctree.Node {
	if len(c.nodes) == 0 {
		return nil
	}
	out := make([]doctree.Node, len(c.nodes)-1)
	copy(out, c.nodes[:len(c.nodes)-1])
	return out
}

// Parent returns the immediate parent of the node being visited, or nil
// when there is none.
func (c *Context) Parent() doctree.Node {
	if len(c.nodes) < 2 {
		return nil
	}
	return c.nodes[len(c.nodes)-2]
}

// Last returns the label locating the current node inside its parent, or
// false at the root.
func (c *Context) Last() (Label, bool) {
	if len(c.labels) == 0 {
		return Label{}, false
	}
	return c.labels[len(c.labels)-1], true
}

func (c *Context) push(child doctree.Node, l Label) {
	c.nodes = append(c.nodes, child)
	c.labels = append(c.labels, l)
}

// pop removes the top entry and verifies it is the same value push
// recorded. Nodes are pointers, so this is an identity check that catches
// unbalanced push/pop sequences immediately.
func (c *Context) pop(child doctree.Node) error {
	if len(c.nodes) == 0 {
		return fmt.Errorf("%w: pop of empty stack", ErrContext)
	}
	top := c.nodes[len(c.nodes)-1]
	c.nodes = c.nodes[:len(c.nodes)-1]
	c.labels = c.labels[:len(c.labels)-1]
	if top != child {
		return fmt.Errorf("%w: popped %s, expected %s", ErrContext, top.Kind(), child.Kind())
	}
	return nil
}
