// Package lexer turns schema description text into indentation-classified
// lines and splits declaration headers into fields. It knows nothing about
// the grammar itself; that lives in the root package.
package lexer

import (
	"fmt"
	"strings"
)

// Line is one significant line of schema text. Blank lines and full-line
// comments never reach the parser.
type Line struct {
	Num   int    // 1-based line number in the source text
	Depth int    // nesting depth derived from indentation
	Text  string // content with indentation stripped
}

// Error is a lexical error with its source line.
type Error struct {
	Line int
	Msg  string
}

func (e *Error) Error() string { return fmt.Sprintf("line %d: %s", e.Line, e.Msg) }

func errorf(line int, format string, a ...any) error {
	return &Error{Line: line, Msg: fmt.Sprintf(format, a...)}
}

// Scan splits text into significant lines and computes nesting depth. The
// indentation unit is inferred from the first indented line; every other
// indent must be a whole multiple of it, and depth may grow by at most one
// level per line.
func Scan(text string) ([]Line, error) {
	var out []Line
	unit := 0
	prevDepth := 0
	for i, raw := range strings.Split(text, "\n") {
		num := i + 1
		line := strings.TrimRight(raw, "\r")
		indent := 0
		for indent < len(line) && line[indent] == ' ' {
			indent++
		}
		rest := line[indent:]
		if rest == "" || strings.HasPrefix(rest, "#") {
			continue
		}
		if strings.HasPrefix(rest, "\t") || strings.Contains(line[:indent], "\t") {
			return nil, errorf(num, "tab in indentation")
		}
		depth := 0
		if indent > 0 {
			if unit == 0 {
				unit = indent
			}
			if indent%unit != 0 {
				return nil, errorf(num, "inconsistent indentation: %d spaces is not a multiple of %d", indent, unit)
			}
			depth = indent / unit
		}
		if depth > prevDepth+1 {
			return nil, errorf(num, "inconsistent indentation: depth jumps from %d to %d", prevDepth, depth)
		}
		prevDepth = depth
		out = append(out, Line{Num: num, Depth: depth, Text: rest})
	}
	return out, nil
}

// Fields splits a declaration header on spaces, keeping double-quoted spans
// intact. Quote characters are removed; the quoted content (including spaces)
// is preserved, so `description="two words"` yields one field
// `description=two words`.
func Fields(num int, s string) ([]string, error) {
	var out []string
	var b strings.Builder
	inQuote := false
	flush := func() {
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ' ' && !inQuote:
			flush()
		default:
			b.WriteRune(r)
		}
	}
	if inQuote {
		return nil, errorf(num, "unterminated quote")
	}
	flush()
	return out, nil
}
