package simpleschema

import (
	"errors"
	"fmt"
	"strings"
)

// Constraint names reported in Violations (exported consts for IDE completion
// and stable matching by callers).
const (
	ConstraintRequired     = "required"
	ConstraintType         = "type"
	ConstraintCardinality  = "cardinality"
	ConstraintMin          = "min"
	ConstraintMinLength    = "min_length"
	ConstraintEnsureExists = "ensure_exists"
	ConstraintUnknownKey   = "unknown_key"
)

// Violation is a single reported mismatch between a document and its schema.
type Violation struct {
	Path       string // dotted path with indices, e.g. testsuites.testsuite[0].tests
	Constraint string // one of the constants above
	Message    string
	Cause      error // optional underlying error (e.g. a time parse failure)
}

// Violations is an ordered collection of validation errors that implements
// error. Validate never short-circuits: the slice carries every mismatch
// found in document order.
type Violations []Violation

// Error summarizes the first few violations.
func (vs Violations) Error() string {
	if len(vs) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(vs)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		v := vs[i]
		fmt.Fprintf(b, "%s at %s", v.Constraint, v.Path)
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendViolations appends violations to the destination, initializing the
// slice when needed.
func AppendViolations(dst Violations, more ...Violation) Violations {
	if dst == nil {
		dst = Violations{}
	}
	return append(dst, more...)
}

// AsViolations extracts Violations from an error using errors.As internally.
func AsViolations(err error) (Violations, bool) {
	if err == nil {
		return nil, false
	}
	var vs Violations
	if errors.As(err, &vs) {
		return vs, true
	}
	return nil, false
}

// ParseError reports malformed schema text. A failed parse is always fatal:
// no partial Model is returned alongside it.
type ParseError struct {
	Line    int // 1-based line in the schema text, 0 when not line-specific
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("schema: line %d: %s", e.Line, e.Message)
	}
	return "schema: " + e.Message
}

func parseErrorf(line int, format string, a ...any) error {
	return &ParseError{Line: line, Message: fmt.Sprintf(format, a...)}
}
