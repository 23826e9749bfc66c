package consumer

import (
	"strings"
	"testing"
)

type matchSample struct {
	src  string
	tree string
}

type matchErrSample struct {
	src      string
	code     int
	offset   int
	expected string // description of the expected rule, "" if none
}

func testMatchSamples(t *testing.T, c *Consumer, samples []matchSample) {
	t.Helper()
	for i, s := range samples {
		m, e := c.Match(s.src)
		if e != nil {
			t.Errorf("sample #%d (%q): got error: %s", i, s.src, e.Error())
			continue
		}

		if m.Description() != s.tree {
			t.Errorf("sample #%d (%q): expecting %s, got %s", i, s.src, s.tree, m.Description())
		}
	}
}

func testMatchErrSamples(t *testing.T, c *Consumer, samples []matchErrSample) {
	t.Helper()
	for i, s := range samples {
		_, e := c.Match(s.src)
		if e == nil {
			t.Errorf("sample #%d (%q): expecting error, got success", i, s.src)
			continue
		}

		ee, is := e.(*Error)
		if !is {
			t.Errorf("sample #%d (%q): unexpected error: %s", i, s.src, e.Error())
			continue
		}

		if ee.Code != s.code || ee.Offset != s.offset {
			t.Errorf("sample #%d (%q): expecting code %d at %d, got code %d at %d (%s)",
				i, s.src, s.code, s.offset, ee.Code, ee.Offset, ee.Error())
			continue
		}

		expected := ""
		if ee.Expected != nil {
			expected = ee.Expected.Description()
		}
		if expected != s.expected {
			t.Errorf("sample #%d (%q): expecting %q as expectation, got %q", i, s.src, s.expected, expected)
		}
	}
}

func TestStringMatch(t *testing.T) {
	for _, src := range []string{"", "foo", "héllo, мир"} {
		m, e := String(src).Match(src)
		if e != nil {
			t.Fatalf("%q: got error: %s", src, e.Error())
		}
		if m.Text() != src {
			t.Errorf("%q: wrong token text %q", src, m.Text())
		}
		start, end, ok := m.Span()
		if !ok || start != 0 || end != len([]rune(src)) {
			t.Errorf("%q: wrong span [%d, %d)", src, start, end)
		}
	}
}

func TestSequence(t *testing.T) {
	c := Sequence(String("foo"), String("bar"))

	m, e := c.Match("foobar")
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	children := m.Children()
	if len(children) != 2 {
		t.Fatalf("expecting 2 children, got %d", len(children))
	}
	for i, want := range []struct {
		text       string
		start, end int
	}{{"foo", 0, 3}, {"bar", 3, 6}} {
		start, end, ok := children[i].Span()
		if children[i].Text() != want.text || !ok || start != want.start || end != want.end {
			t.Errorf("child #%d: got %q [%d, %d)", i, children[i].Text(), start, end)
		}
	}

	testMatchErrSamples(t, c, []matchErrSample{
		{"foo", ExpectedError, 3, `"bar"`},
		{"fooba", ExpectedError, 3, `"bar"`},
		{"fox", ExpectedError, 0, `"foo"`},
	})
}

func TestAnyPicksFirstSuccess(t *testing.T) {
	c := Any(String("fo"), String("foo"))
	_, e := c.Match("foo")
	ee, is := e.(*Error)
	if !is || ee.Code != UnexpectedTokenError || ee.Offset != 2 {
		t.Fatalf("expecting unexpected token at 2, got %v", e)
	}
}

func TestOptionalNeverFails(t *testing.T) {
	inners := []*Consumer{String("foo"), CharacterIn("ab"), Sequence(String("x"), String("y"))}
	for _, inner := range inners {
		c := Sequence(Optional(inner), Flatten(ZeroOrMore(AnyCharacterExcept(""))))
		for _, src := range []string{"", "foo", "zzz", "a", "xy", "x"} {
			if _, e := c.Match(src); e != nil {
				t.Errorf("optional(%s) on %q: got error: %s", inner.Description(), src, e.Error())
			}
		}
	}
}

func TestZeroOrMore(t *testing.T) {
	c := ZeroOrMore(String("foo"))
	testMatchSamples(t, c, []matchSample{
		{"", "()"},
		{"foofoo", `("foo" "foo")`},
	})
}

func TestOneOrMore(t *testing.T) {
	testMatchErrSamples(t, OneOrMore(String("foo")), []matchErrSample{
		{"", ExpectedError, 0, `"foo"`},
		{"bar", ExpectedError, 0, `"foo"`},
	})

	// repetition stops at the first zero-length match
	c := Sequence(OneOrMore(Optional(String("a"))), String("b"))
	testMatchSamples(t, c, []matchSample{
		{"aab", `("a" "a" "b")`},
		// a zero-length first repetition fails the oneOrMore, but a failed
		// element that can match zero length does not abort the sequence
		{"b", `("b")`},
	})

	// the general loop must behave like the charset fast path
	runs := OneOrMore(CharacterInRange('0', '9'))
	testMatchSamples(t, runs, []matchSample{
		{"405", `("4" "0" "5")`},
	})
}

func TestFlatten(t *testing.T) {
	digit := CharacterInRange('0', '9')

	type flatSample struct {
		c          *Consumer
		src        string
		text       string
		start, end int
	}

	samples := []flatSample{
		{Flatten(Optional(String("foo"))), "", "", 0, 0},
		{Flatten(OneOrMore(digit)), "405", "405", 0, 3},
		{Flatten(OneOrMore(String("ab"))), "abab", "abab", 0, 4},
		{Flatten(Sequence(String("a"), OneOrMore(digit))), "a17", "a17", 0, 3},
		{Flatten(Sequence(Discard(String("x")), String("y"))), "xy", "y", 0, 2},
		{Flatten(Sequence(String("a"), Replace(String("b"), "BB"))), "ab", "aBB", 0, 2},
	}

	for i, s := range samples {
		m, e := s.c.Match(s.src)
		if e != nil {
			t.Errorf("sample #%d (%q): got error: %s", i, s.src, e.Error())
			continue
		}
		if m.IsNode() || m.Text() != s.text {
			t.Errorf("sample #%d (%q): expecting token %q, got %s", i, s.src, s.text, m.Description())
		}
		start, end, ok := m.Span()
		if !ok || start != s.start || end != s.end {
			t.Errorf("sample #%d (%q): expecting span [%d, %d), got [%d, %d)", i, s.src, s.start, s.end, start, end)
		}
	}
}

func TestDiscard(t *testing.T) {
	c := Sequence(Discard(String("foo")), String("bar"))
	m, e := c.Match("foobar")
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	if m.Description() != `("bar")` {
		t.Errorf("expecting (\"bar\"), got %s", m.Description())
	}
	start, end, ok := m.Children()[0].Span()
	if !ok || start != 3 || end != 6 {
		t.Errorf("wrong span [%d, %d)", start, end)
	}
}

func TestReplace(t *testing.T) {
	m, e := Replace(String("foo"), "F").Match("foo")
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	start, end, ok := m.Span()
	if m.Text() != "F" || !ok || start != 0 || end != 3 {
		t.Errorf("expecting token \"F\" [0, 3), got %q [%d, %d)", m.Text(), start, end)
	}

	// replacing a zero-length match produces a synthetic token with no span
	m, e = Sequence(Replace(Optional(String("x")), "!"), String("a")).Match("a")
	if e != nil {
		t.Fatalf("got error: %s", e.Error())
	}
	if _, _, ok = m.Children()[0].Span(); ok {
		t.Errorf("expecting no span on a synthetic token")
	}
}

func TestLabel(t *testing.T) {
	// a token result is wrapped as the label node's single child
	c := Label("word", String("foo"))
	testMatchSamples(t, c, []matchSample{{"foo", `(word "foo")`}})

	// an unlabelled node result gives its children to the label node
	c = Label("pair", Sequence(String("a"), String("b")))
	testMatchSamples(t, c, []matchSample{{"ab", `(pair "a" "b")`}})

	// a labelled node result stays a single child
	c = Label("outer", Label("inner", String("x")))
	testMatchSamples(t, c, []matchSample{{"x", `(outer (inner "x"))`}})
}

func TestLongestFailureWins(t *testing.T) {
	c := Any(
		Sequence(String("foo"), String("bar")),
		Sequence(OneOrMore(String("foo")), String("baz")),
	)

	testMatchErrSamples(t, c, []matchErrSample{
		{"foofoobar", ExpectedError, 6, `"baz"`},
	})

	// ties keep the first alternative's failure
	c = Any(
		Sequence(String("foo"), String("bar")),
		Sequence(String("foo"), String("baz")),
	)
	testMatchErrSamples(t, c, []matchErrSample{
		{"foo???", ExpectedError, 3, `"bar"`},
	})
}

func TestTrailingInput(t *testing.T) {
	_, e := String("foo").Match("foobar")
	ee, is := e.(*Error)
	if !is || ee.Code != UnexpectedTokenError || ee.Offset != 3 {
		t.Fatalf("expecting unexpected token at 3, got %v", e)
	}
	if ee.Remaining != "bar" {
		t.Errorf("expecting remaining \"bar\", got %q", ee.Remaining)
	}
	if ee.Error() != `Unexpected token "bar" at 3` {
		t.Errorf("unexpected message: %s", ee.Error())
	}

	// the expectation at the stopping offset is included when known
	c := Sequence(String("a"), ZeroOrMore(String("b")))
	_, e = c.Match("abc")
	ee = e.(*Error)
	if ee.Code != UnexpectedTokenError || ee.Offset != 2 {
		t.Fatalf("expecting unexpected token at 2, got %s", ee.Error())
	}
	if ee.Expected == nil || ee.Expected.Description() != `"b"` {
		t.Errorf("expecting \"b\" as expectation, got %v", ee.Expected)
	}
}

func TestRecursiveReference(t *testing.T) {
	// nested parentheses around a single digit
	digit := CharacterInRange('0', '9')
	group := Label("group", Sequence(
		Discard(Character('(')),
		Any(digit, Reference("group")),
		Discard(Character(')')),
	))

	testMatchSamples(t, group, []matchSample{
		{"(5)", `(group "5")`},
		{"(((5)))", `(group (group (group "5")))`},
	})
	testMatchErrSamples(t, group, []matchErrSample{
		{"((5)", ExpectedError, 4, `')'`},
	})
}

func TestUnresolvedReferencePanics(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expecting panic on unresolved reference")
		}
		if !strings.Contains(r.(string), "nope") {
			t.Errorf("panic message does not name the reference: %v", r)
		}
	}()

	_, _ = Sequence(String("a"), Reference("nope")).Match("ab")
}

func TestErrorMessages(t *testing.T) {
	type sample struct {
		c   *Consumer
		src string
		msg string
	}

	samples := []sample{
		{Sequence(String("foo"), String("bar")), "foo", `Expected "bar" at 3`},
		{Sequence(String("foo"), String("bar")), "foo baz", `Unexpected token " " at 3 (expected "bar")`},
		{Sequence(String("foo"), String("bar")), "fooba", `Unexpected token "ba" at 3 (expected "bar")`},
		{String("foo"), "foo bar", `Unexpected token " " at 3`},
	}

	for i, s := range samples {
		_, e := s.c.Match(s.src)
		if e == nil {
			t.Errorf("sample #%d: expecting error, got success", i)
			continue
		}
		if e.Error() != s.msg {
			t.Errorf("sample #%d: expecting message %q, got %q", i, s.msg, e.Error())
		}
	}
}

func TestLineCol(t *testing.T) {
	text := "ab\ncd\ne"
	type sample struct {
		offset    int
		line, col int
	}

	samples := []sample{
		{0, 1, 1}, {1, 1, 2}, {2, 1, 3}, {3, 2, 1}, {5, 2, 3}, {6, 3, 1}, {7, 3, 2},
	}

	for i, s := range samples {
		line, col := LineCol(text, s.offset)
		if line != s.line || col != s.col {
			t.Errorf("sample #%d: expecting %d:%d, got %d:%d", i, s.line, s.col, line, col)
		}
	}
}
