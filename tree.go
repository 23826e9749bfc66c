package consumer

import (
	"fmt"
	"strconv"
	"strings"
)

// Match is the generic syntax tree produced by a successful parse: either a
// token holding literal text, or a node holding an ordered list of child
// matches, optionally tagged with the label of the rule that produced it.
type Match struct {
	node       bool
	label      string
	text       string
	children   []*Match
	start, end int
}

const noSpan = -1

func newToken(text string, start, end int) *Match {
	return &Match{text: text, start: start, end: end}
}

// syntheticToken has no span: its text does not correspond to input
// (e.g. a Replace substitution over a zero-length match).
func syntheticToken(text string) *Match {
	return &Match{text: text, start: noSpan, end: noSpan}
}

// newNode derives the node span from the first and last child carrying one.
func newNode(label string, children []*Match) *Match {
	res := &Match{node: true, label: label, children: children, start: noSpan, end: noSpan}
	for _, c := range children {
		if c.start != noSpan {
			res.start = c.start
			break
		}
	}
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].end != noSpan {
			res.end = children[i].end
			break
		}
	}
	return res
}

// IsNode reports whether the match is a node rather than a token.
func (m *Match) IsNode() bool {
	return m.node
}

// Label returns the label of the rule that produced the node, or an empty
// string for tokens and unlabelled nodes.
func (m *Match) Label() string {
	return m.label
}

// Text returns the token text. It is empty for nodes.
func (m *Match) Text() string {
	return m.text
}

// Children returns the node's child matches in order. It is nil for tokens.
func (m *Match) Children() []*Match {
	return m.children
}

// Span returns the half-open code-point range of the original input covered
// by the match. ok is false for synthetic tokens and empty nodes, which
// cover no input.
func (m *Match) Span() (start, end int, ok bool) {
	if m.start == noSpan {
		return 0, 0, false
	}
	return m.start, m.end, true
}

// Transform is a user callback mapping a labelled node's child values to an
// application value. Returning a nil value discards the node's result.
type Transform func(label string, values []interface{}) (interface{}, error)

// Transform folds the match tree bottom-up into an application value.
// A token yields its text, a labelled node yields the callback's result for
// its collected child values, and an unlabelled node passes its child
// values up to the nearest labelled ancestor. Nil child results are
// discarded. A callback error that is not already an *Error is wrapped
// with the originating node's offset.
func (m *Match) Transform(fn Transform) (interface{}, error) {
	if !m.node {
		return m.text, nil
	}

	values, e := m.transformChildren(fn)
	if e != nil {
		return nil, e
	}
	if m.label == "" {
		return values, nil
	}

	res, e := fn(m.label, values)
	if e != nil {
		return nil, m.annotateError(e)
	}
	return res, nil
}

// annotateError adds the node's offset to a callback error that does not
// already carry one.
func (m *Match) annotateError(e error) error {
	ee, is := e.(*Error)
	if is && ee.Offset >= 0 {
		return ee
	}

	offset := noSpan
	if m.start != noSpan {
		offset = m.start
	}
	if !is {
		return transformError(e, offset)
	}

	res := *ee
	res.Offset = offset
	if offset >= 0 {
		res.Message = fmt.Sprintf("%s at %d", res.Message, offset)
	}
	return &res
}

func (m *Match) transformChildren(fn Transform) ([]interface{}, error) {
	values := make([]interface{}, 0, len(m.children))
	for _, c := range m.children {
		v, e := c.Transform(fn)
		if e != nil {
			return nil, e
		}

		if c.node && c.label == "" {
			values = append(values, v.([]interface{})...)
		} else if v != nil {
			values = append(values, v)
		}
	}
	return values, nil
}

// Description returns a human-readable rendering of the matched tree:
// tokens as quoted text, nodes as parenthesized child lists prefixed with
// the node label, if any. Intended for diagnostics and snapshot tests.
func (m *Match) Description() string {
	if !m.node {
		return strconv.Quote(m.text)
	}

	parts := make([]string, 0, len(m.children)+1)
	if m.label != "" {
		parts = append(parts, m.label)
	}
	for _, c := range m.children {
		parts = append(parts, c.Description())
	}
	return "(" + strings.Join(parts, " ") + ")"
}

// leafText appends the in-order concatenation of all leaf token texts.
func (m *Match) leafText(b *strings.Builder) {
	if !m.node {
		b.WriteString(m.text)
		return
	}
	for _, c := range m.children {
		c.leafText(b)
	}
}
