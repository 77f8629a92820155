// Package compileerr implements the error taxonomy of spec.md §7: a
// single SentraError-shaped struct (see the teacher's internal/errors
// package) carrying a Kind, a message, and a Span into the offending
// source text, plus the EvaluationError and aggregate error forms used
// elsewhere in the compiler.
package compileerr

import (
	"fmt"
	"strings"
)

// Kind enumerates the §7 taxonomy. CompilationError is the root; every
// other compile-time kind is one of its children for the purposes of
// errors.Is-style matching via Kind equality.
type Kind string

const (
	KindCompilationError       Kind = "CompilationError"
	KindUndefinedParameter     Kind = "UndefinedParameterError"
	KindUndefinedUnit          Kind = "UndefinedUnitError"
	KindUndefinedFunction      Kind = "UndefinedFunctionError"
	KindInvalidType            Kind = "InvalidTypeError"
	KindInvalidDimensionality  Kind = "InvalidDimensionalityError"
	KindInvalidOperation       Kind = "InvalidOperationError"
	KindInvalidValue           Kind = "InvalidValueError"
	KindNotDefinedUnit         Kind = "NotDefinedUnitError"
	KindEvaluationError        Kind = "EvaluationError"
)

// Span locates a sub-range of a single expression's source text.
type Span struct {
	Source string
	Start  int
	End    int
}

func (s Span) text() string {
	if s.Start < 0 || s.End > len(s.Source) || s.Start > s.End {
		return ""
	}
	return s.Source[s.Start:s.End]
}

// Error is the concrete error type raised by the lexer, parser, and
// expression compiler. It is always recoverable: nothing in this
// repository panics across a package boundary without converting back
// to an Error first (see exprparser and typedexpr "Compile" entry
// points).
type Error struct {
	Kind       Kind
	Message    string
	Span       Span
	Suggestion string
	cause      error
}

func New(kind Kind, span Span, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Span: span}
}

// WithSuggestion attaches a nearest-match suggestion, as spec.md §4.2
// calls for when an identifier fails to resolve.
func (e *Error) WithSuggestion(name string) *Error {
	e.Suggestion = name
	return e
}

func (e *Error) WithCause(cause error) *Error {
	e.cause = cause
	return e
}

func (e *Error) Unwrap() error {
	return e.cause
}

func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s", e.Kind, e.Message)
	if text := e.Span.text(); text != "" {
		fmt.Fprintf(&sb, "\n  %s\n  %s%s", e.Span.Source,
			strings.Repeat(" ", e.Span.Start), strings.Repeat("^", max(1, e.Span.End-e.Span.Start)))
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, "\n  did you mean %q?", e.Suggestion)
	}
	if e.cause != nil {
		fmt.Fprintf(&sb, "\n  caused by: %v", e.cause)
	}
	return sb.String()
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Evaluation wraps an otherwise well-typed expression failing at
// evaluation time (division by zero on non-constant input, log of a
// non-positive value, ...).
func Evaluation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindEvaluationError, Message: fmt.Sprintf(format, args...)}
}
