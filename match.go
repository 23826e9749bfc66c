package consumer

import (
	"fmt"
	"strings"
)

// matcher holds the state of one Match call: the input as a random-access
// sequence of code points, the cursor, the label binding table populated as
// Label rules are first visited, and the best-failure state used for
// diagnostics across backtracked branches.
type matcher struct {
	input    []rune
	pos      int
	bindings map[string]*Consumer
	bestPos  int
	expected *Consumer

	// discarded stopping failures of successful repetitions, kept apart
	// from the best failure: they only matter for diagnosing trailing
	// input after an otherwise successful match
	trailPos      int
	trailExpected *Consumer
}

func newMatcher(text string) *matcher {
	return &matcher{
		input:    []rune(text),
		bindings: make(map[string]*Consumer),
		bestPos:  -1,
		trailPos: -1,
	}
}

// fail records a failed attempt of c at the cursor as the best failure if
// it progressed further than any previous one. Ties keep the first failure
// encountered.
func (m *matcher) fail(c *Consumer) {
	if m.pos > m.bestPos {
		m.bestPos = m.pos
		m.expected = c
	}
}

type failureState struct {
	bestPos  int
	expected *Consumer
}

func (m *matcher) failureSnapshot() failureState {
	return failureState{m.bestPos, m.expected}
}

func (m *matcher) restoreFailure(fs failureState) {
	if m.bestPos > m.trailPos && (m.bestPos != fs.bestPos || m.expected != fs.expected) {
		m.trailPos = m.bestPos
		m.trailExpected = m.expected
	}
	m.bestPos = fs.bestPos
	m.expected = fs.expected
}

// Match evaluates the grammar against text from offset 0. The whole input
// must be consumed: a match that stops early fails with an
// UnexpectedTokenError at the stopping offset even though a prefix matched.
func (c *Consumer) Match(text string) (*Match, error) {
	m := newMatcher(text)
	res, ok := m.tryMatch(c)
	if ok {
		if m.pos >= len(m.input) {
			return res, nil
		}
		var expected *Consumer
		if m.bestPos == m.pos {
			expected = m.expected
		} else if m.trailPos == m.pos {
			expected = m.trailExpected
		}
		return nil, unexpectedTokenError(expected, m.pos, string(m.input[m.pos:]))
	}

	offset := m.bestPos
	if offset < 0 {
		offset = 0
	}
	remaining := string(m.input[offset:])
	if m.expected == nil {
		return nil, unexpectedTokenError(nil, offset, remaining)
	}
	return nil, expectedError(m.expected, offset, remaining)
}

// tryMatch evaluates one rule at the cursor. On failure the cursor is left
// where it was and the deepest failure is recorded in the matcher;
// failures from backtracked branches are never returned as errors.
func (m *matcher) tryMatch(c *Consumer) (*Match, bool) {
	switch c.kind {
	case stringConsumer:
		return m.matchString(c)

	case charsetConsumer:
		if m.pos < len(m.input) && c.charset.Contains(m.input[m.pos]) {
			tok := newToken(string(m.input[m.pos]), m.pos, m.pos+1)
			m.pos++
			return tok, true
		}
		m.fail(c)
		return nil, false

	case anyConsumer:
		for _, cc := range c.consumers {
			if res, ok := m.tryMatch(cc); ok {
				return res, true
			}
		}
		return nil, false

	case sequenceConsumer:
		return m.matchSequence(c)

	case optionalConsumer:
		if res, ok := m.tryMatch(c.inner); ok {
			return res, true
		}
		return newNode("", nil), true

	case oneOrMoreConsumer:
		return m.matchOneOrMore(c)

	case flattenConsumer:
		return m.matchFlatten(c)

	case discardConsumer:
		if _, ok := m.tryMatch(c.inner); !ok {
			return nil, false
		}
		return newNode("", nil), true

	case replaceConsumer:
		res, ok := m.tryMatch(c.inner)
		if !ok {
			return nil, false
		}
		if start, end, spanned := res.Span(); spanned {
			return newToken(c.text, start, end), true
		}
		return syntheticToken(c.text), true

	case labelConsumer:
		// the rule is bound including its label, so that a Reference
		// produces labelled nodes the transform callback can see
		m.bindings[c.name] = c
		res, ok := m.tryMatch(c.inner)
		if !ok {
			return nil, false
		}
		if res.node && res.label == "" {
			return newNode(c.name, res.children), true
		}
		return newNode(c.name, []*Match{res}), true

	case referenceConsumer:
		target := m.bindings[c.name]
		if target == nil {
			panic(fmt.Sprintf("consumer: unresolved reference %q", c.name))
		}
		return m.tryMatch(target)
	}

	panic(fmt.Sprintf("consumer: unknown rule kind %d", c.kind))
}

func (m *matcher) matchString(c *Consumer) (*Match, bool) {
	start := m.pos
	for _, r := range c.runes {
		if m.pos >= len(m.input) || m.input[m.pos] != r {
			// the failure belongs to the offset the literal started at
			m.pos = start
			m.fail(c)
			return nil, false
		}
		m.pos++
	}
	return newToken(c.text, start, m.pos), true
}

func (m *matcher) matchSequence(c *Consumer) (*Match, bool) {
	start := m.pos
	children := make([]*Match, 0, len(c.consumers))
	for _, cc := range c.consumers {
		res, ok := m.tryMatch(cc)
		if !ok {
			// a failed element that can match zero length stays a
			// best-failure candidate but does not abort the sequence
			if isOptional(cc) {
				continue
			}
			m.pos = start
			return nil, false
		}
		children = appendMatch(children, res)
	}
	return newNode("", children), true
}

func (m *matcher) matchOneOrMore(c *Consumer) (*Match, bool) {
	inner := c.inner

	// run-scan fast paths: recursing into the full dispatch per code point
	// is too slow for character and literal runs
	if inner.kind == charsetConsumer {
		start := m.pos
		if !m.scanRun(inner.charset, inner) {
			return nil, false
		}
		children := make([]*Match, 0, m.pos-start)
		for i := start; i < m.pos; i++ {
			children = append(children, newToken(string(m.input[i]), i, i+1))
		}
		return newNode("", children), true
	}
	if inner.kind == stringConsumer && len(inner.runes) > 0 {
		children := make([]*Match, 0, 4)
		for {
			fs := m.failureSnapshot()
			res, ok := m.matchString(inner)
			if !ok {
				if len(children) > 0 {
					m.restoreFailure(fs)
				}
				break
			}
			children = append(children, res)
		}
		if len(children) == 0 {
			return nil, false
		}
		return newNode("", children), true
	}

	children := make([]*Match, 0, 4)
	advanced := false
	for {
		last := m.pos
		fs := m.failureSnapshot()
		res, ok := m.tryMatch(inner)
		if !ok || m.pos == last {
			// a zero-length match would repeat forever; stop without it.
			// The stopping failure of a successful repetition is not a
			// diagnostic candidate: a later failure at the same offset in
			// an enclosing sequence is the one worth reporting
			if !ok && advanced {
				m.restoreFailure(fs)
			}
			break
		}
		advanced = true
		children = appendMatch(children, res)
	}
	if !advanced {
		return nil, false
	}
	return newNode("", children), true
}

func (m *matcher) matchFlatten(c *Consumer) (*Match, bool) {
	start := m.pos
	inner := c.inner

	// mirror the oneOrMore run-scan fast paths: no point building a tree
	// just to collapse it
	if inner.kind == stringConsumer {
		return m.matchString(inner)
	}
	if inner.kind == oneOrMoreConsumer {
		switch {
		case inner.inner.kind == charsetConsumer:
			if !m.scanRun(inner.inner.charset, inner.inner) {
				return nil, false
			}
			return newToken(string(m.input[start:m.pos]), start, m.pos), true

		case inner.inner.kind == stringConsumer && len(inner.inner.runes) > 0:
			for {
				fs := m.failureSnapshot()
				if _, ok := m.matchString(inner.inner); !ok {
					if m.pos > start {
						m.restoreFailure(fs)
					}
					break
				}
			}
			if m.pos == start {
				return nil, false
			}
			return newToken(string(m.input[start:m.pos]), start, m.pos), true
		}
	}

	res, ok := m.tryMatch(inner)
	if !ok {
		return nil, false
	}
	var b strings.Builder
	res.leafText(&b)
	return newToken(b.String(), start, m.pos), true
}

// scanRun advances the cursor over a maximal run of code points in set.
// An empty run is a failure attributed to c.
func (m *matcher) scanRun(set *Charset, c *Consumer) bool {
	start := m.pos
	for m.pos < len(m.input) && set.Contains(m.input[m.pos]) {
		m.pos++
	}
	if m.pos == start {
		m.fail(c)
		return false
	}
	if m.pos < len(m.input) && m.pos > m.trailPos {
		m.trailPos = m.pos
		m.trailExpected = c
	}
	return true
}

// appendMatch appends a child match, splicing the children of unlabelled
// nodes into the parent to avoid wrapper nesting.
func appendMatch(children []*Match, res *Match) []*Match {
	if res.node && res.label == "" {
		return append(children, res.children...)
	}
	return append(children, res)
}
