package consumer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Error classes used by this package and by grammars built on it,
// each class contains up to 99 error codes:
const (
	MatchErrors     = 101 // used by the matching engine
	TransformErrors = 201 // used by Match.Transform
	GrammarErrors   = 301 // reserved for grammar packages built on consumer
)

// Error codes used by the matching engine and transform evaluator:
const (
	// ExpectedError indicates that a rule failed to match at a position.
	ExpectedError = MatchErrors + iota

	// UnexpectedTokenError indicates trailing input after an otherwise
	// successful top-level match.
	UnexpectedTokenError
)

// TransformError indicates an error raised by a transform callback,
// available through Unwrap.
const TransformError = TransformErrors

// Error is the error type returned by Match and Transform.
type Error struct {
	// Code contains non-zero error code.
	Code int

	// Message contains the rendered diagnostic.
	Message string

	// Expected contains the rule whose failure progressed furthest through
	// the input, or nil if no expectation is known.
	Expected *Consumer

	// Offset contains the failure offset in code points, or -1 if unknown.
	Offset int

	// Remaining contains the unconsumed input tail at the failure point.
	Remaining string

	// Err contains the wrapped transform callback error, or nil.
	Err error
}

// Error returns Error.Message.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the wrapped transform callback error, if any.
func (e *Error) Unwrap() error {
	return e.Err
}

// Incomplete reports whether the failure is a match failure at the very end
// of input, i.e. the input is a proper prefix of something the grammar
// accepts. REPLs use this to prompt for a continuation line.
func (e *Error) Incomplete() bool {
	return e.Code == ExpectedError && e.Remaining == ""
}

// FormatError creates an Error with no position information; grammar
// packages use it for their own error codes. params will be added to the
// error message using fmt.Sprintf. An error returned by a transform
// callback is annotated with the offset of the node it came from.
func FormatError(code int, msg string, params ...any) *Error {
	if len(params) > 0 {
		msg = fmt.Sprintf(msg, params...)
	}
	return &Error{Code: code, Message: msg, Offset: -1}
}

func expectedError(expected *Consumer, offset int, remaining string) *Error {
	var msg string
	if remaining == "" {
		msg = fmt.Sprintf("Expected %s at %d", expected.Description(), offset)
	} else {
		msg = fmt.Sprintf("Unexpected token %q at %d (expected %s)",
			tokenPreview(remaining), offset, expected.Description())
	}
	return &Error{Code: ExpectedError, Message: msg, Expected: expected, Offset: offset, Remaining: remaining}
}

func unexpectedTokenError(expected *Consumer, offset int, remaining string) *Error {
	var msg string
	switch {
	case expected != nil && remaining != "":
		msg = fmt.Sprintf("Unexpected token %q at %d (expected %s)",
			tokenPreview(remaining), offset, expected.Description())
	case remaining != "":
		msg = fmt.Sprintf("Unexpected token %q at %d", tokenPreview(remaining), offset)
	default:
		msg = fmt.Sprintf("Unexpected token at %d", offset)
	}
	return &Error{Code: UnexpectedTokenError, Message: msg, Expected: expected, Offset: offset, Remaining: remaining}
}

func transformError(err error, offset int) *Error {
	msg := err.Error()
	if offset >= 0 {
		msg = fmt.Sprintf("%s at %d", msg, offset)
	}
	return &Error{Code: TransformError, Message: msg, Offset: offset, Err: err}
}

// tokenPreview returns a short preview of the next input token: the text up
// to the next whitespace character, or that whitespace character itself if
// it is immediately next.
func tokenPreview(remaining string) string {
	r, _ := utf8.DecodeRuneInString(remaining)
	if unicode.IsSpace(r) {
		return string(r)
	}
	i := strings.IndexFunc(remaining, unicode.IsSpace)
	if i < 0 {
		return remaining
	}
	return remaining[:i]
}

// LineCol converts a code-point offset into 1-based line and column
// numbers, for diagnostics against multi-line input.
func LineCol(text string, offset int) (line, col int) {
	line = 1
	col = 1
	for _, r := range text {
		if offset <= 0 {
			break
		}
		offset--
		if r == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}
