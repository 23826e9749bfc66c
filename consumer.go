/*
Package consumer is a parser-combinator library.

A grammar is assembled as an immutable Consumer value using the package
constructors (String, Sequence, Any, Optional, OneOrMore, ...) and is then
matched against input text with the Match method, producing a generic
syntax tree of tokens and labelled nodes. A second pass, Match.Transform,
folds the tree bottom-up into application-specific values through a user
callback keyed on rule labels.

Typical usage is:

1. Build a Consumer for the grammar. Labelled rules (Label) may be referred
to recursively by name (Reference), which makes mutually recursive grammars
possible without backpatching.

2. Call Match on input text. A failed match returns an *Error carrying the
offset and the rule whose failure progressed furthest through the input.

3. Call Transform on the resulting Match with a callback that converts the
child values of each labelled node into an application value.

Consumer values are immutable after construction and may be shared freely
between concurrent Match calls.
*/
package consumer

import (
	"strconv"
	"strings"
)

type consumerKind int

const (
	stringConsumer consumerKind = iota
	charsetConsumer
	anyConsumer
	sequenceConsumer
	optionalConsumer
	oneOrMoreConsumer
	flattenConsumer
	discardConsumer
	replaceConsumer
	labelConsumer
	referenceConsumer
)

// Consumer is a grammar rule: a recursive immutable value describing what
// input is acceptable at a point. Consumers are built with the package
// constructors and must not be modified after construction.
type Consumer struct {
	kind      consumerKind
	text      string      // literal for stringConsumer, replacement for replaceConsumer
	runes     []rune      // literal code points for stringConsumer
	charset   *Charset    // charsetConsumer
	consumers []*Consumer // anyConsumer, sequenceConsumer
	inner     *Consumer   // unary kinds
	name      string      // labelConsumer, referenceConsumer
}

// String creates a rule matching a literal sequence of code points.
// An empty literal always matches without consuming input.
func String(text string) *Consumer {
	return &Consumer{kind: stringConsumer, text: text, runes: []rune(text)}
}

// CharsetConsumer creates a rule matching a single code point of the set.
func CharsetConsumer(set *Charset) *Consumer {
	return &Consumer{kind: charsetConsumer, charset: set}
}

// Character creates a rule matching exactly the code point r.
func Character(r rune) *Consumer {
	return CharsetConsumer(NewCharsetRange(r, r))
}

// CharacterIn creates a rule matching any single code point of chars.
func CharacterIn(chars string) *Consumer {
	return CharsetConsumer(NewCharset(chars))
}

// CharacterInRange creates a rule matching a single code point in lo...hi.
func CharacterInRange(lo, hi rune) *Consumer {
	return CharsetConsumer(NewCharsetRange(lo, hi))
}

// AnyCharacterExcept creates a rule matching any single code point not
// listed in chars.
func AnyCharacterExcept(chars string) *Consumer {
	return CharsetConsumer(NewCharset(chars).Inverted())
}

// Any creates an ordered alternation: alternatives are tried in listed
// order and the first success wins.
func Any(consumers ...*Consumer) *Consumer {
	return &Consumer{kind: anyConsumer, consumers: consumers}
}

// Sequence creates an ordered concatenation of rules.
func Sequence(consumers ...*Consumer) *Consumer {
	return &Consumer{kind: sequenceConsumer, consumers: consumers}
}

// Optional creates a rule matching c zero or one times. It never fails.
func Optional(c *Consumer) *Consumer {
	return &Consumer{kind: optionalConsumer, inner: c}
}

// OneOrMore creates a rule matching c one or more times. Repetition stops
// at the first failure or the first zero-length match of c.
func OneOrMore(c *Consumer) *Consumer {
	return &Consumer{kind: oneOrMoreConsumer, inner: c}
}

// ZeroOrMore creates a rule matching c any number of times, including zero.
func ZeroOrMore(c *Consumer) *Consumer {
	return Optional(OneOrMore(c))
}

// Flatten creates a rule that collapses everything matched by c into a
// single token whose text is the concatenation of all matched leaf texts.
func Flatten(c *Consumer) *Consumer {
	return &Consumer{kind: flattenConsumer, inner: c}
}

// Discard creates a rule that matches c and drops its result, keeping only
// the cursor advancement.
func Discard(c *Consumer) *Consumer {
	return &Consumer{kind: discardConsumer, inner: c}
}

// Replace creates a rule that matches c and substitutes a single token with
// the fixed replacement text, keeping the span of the original match.
func Replace(c *Consumer, replacement string) *Consumer {
	return &Consumer{kind: replaceConsumer, inner: c, text: replacement}
}

// Label names a rule. The name tags the node produced by the rule for
// transformation and makes the rule addressable by Reference.
func Label(name string, c *Consumer) *Consumer {
	return &Consumer{kind: labelConsumer, inner: c, name: name}
}

// Reference creates a placeholder resolved at match time to the rule most
// recently bound under name by a Label. Dereferencing a name that no Label
// has bound yet is a grammar-construction defect and panics.
func Reference(name string) *Consumer {
	return &Consumer{kind: referenceConsumer, name: name}
}

// Interleaved creates a rule matching one or more items separated by
// separator, equal to Sequence(ZeroOrMore(Sequence(item, separator)), item).
func Interleaved(item, separator *Consumer) *Consumer {
	return Sequence(ZeroOrMore(Sequence(item, separator)), item)
}

// Or combines two rules into an alternation. Unlike Any it flattens nested
// alternation lists and merges adjacent charset operands into a single
// charset, which keeps alternations compact in both matching cost and
// error messages.
func (c *Consumer) Or(other *Consumer) *Consumer {
	operands := make([]*Consumer, 0, 2)
	operands = appendOperands(operands, c)
	operands = appendOperands(operands, other)

	merged := operands[:1]
	for _, op := range operands[1:] {
		last := merged[len(merged)-1]
		if last.kind == charsetConsumer && op.kind == charsetConsumer {
			merged[len(merged)-1] = CharsetConsumer(last.charset.Union(op.charset))
		} else {
			merged = append(merged, op)
		}
	}

	if len(merged) == 1 {
		return merged[0]
	}
	return Any(merged...)
}

func appendOperands(operands []*Consumer, c *Consumer) []*Consumer {
	if c.kind == anyConsumer {
		return append(operands, c.consumers...)
	}
	return append(operands, c)
}

// isOptional reports whether a rule can match zero-length input. The answer
// is static: a Reference is reported as non-optional even if the rule it
// resolves to at match time is.
func isOptional(c *Consumer) bool {
	switch c.kind {
	case stringConsumer:
		return len(c.runes) == 0
	case optionalConsumer:
		return true
	case anyConsumer:
		for _, cc := range c.consumers {
			if isOptional(cc) {
				return true
			}
		}
		return false
	case sequenceConsumer:
		for _, cc := range c.consumers {
			if !isOptional(cc) {
				return false
			}
		}
		return true
	case oneOrMoreConsumer, flattenConsumer, discardConsumer, replaceConsumer, labelConsumer:
		return isOptional(c.inner)
	default:
		return false
	}
}

// Description returns a human-readable rendering of the rule, used in
// diagnostics. Labels and references render as their name, a sequence
// renders as its first non-optional member (that is what a failure there
// is expecting), and wrapper rules render as their inner rule.
func (c *Consumer) Description() string {
	switch c.kind {
	case stringConsumer:
		return strconv.Quote(c.text)
	case charsetConsumer:
		return charsetDescription(c.charset)
	case anyConsumer:
		descriptions := make([]string, 0, len(c.consumers))
		seen := make(map[string]bool)
		for _, cc := range c.consumers {
			d := cc.Description()
			if !seen[d] {
				seen[d] = true
				descriptions = append(descriptions, d)
			}
		}
		return joinOr(descriptions)
	case sequenceConsumer:
		for _, cc := range c.consumers {
			if !isOptional(cc) {
				return cc.Description()
			}
		}
		if len(c.consumers) > 0 {
			return c.consumers[0].Description()
		}
		return strconv.Quote("")
	case optionalConsumer, oneOrMoreConsumer, flattenConsumer, discardConsumer, replaceConsumer:
		return c.inner.Description()
	case labelConsumer, referenceConsumer:
		return c.name
	default:
		return ""
	}
}

func charsetDescription(s *Charset) string {
	parts := make([]string, 0)
	for _, r := range s.Ranges() {
		if r.Lo == r.Hi {
			parts = append(parts, strconv.QuoteRune(r.Lo))
		} else {
			parts = append(parts, strconv.QuoteRune(r.Lo)+"-"+strconv.QuoteRune(r.Hi))
		}
	}
	res := joinOr(parts)
	if s.IsInverted() {
		res = "any character except " + res
	}
	return res
}

// joinOr joins alternatives with commas and a trailing "or".
func joinOr(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " or " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " or " + parts[len(parts)-1]
	}
}
