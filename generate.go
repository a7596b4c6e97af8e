package simpleschema

import (
	"math"
	"strings"
	"time"

	"github.com/commonenv/simpleschema/codec"
)

// sampleTime keeps generated documents deterministic.
var sampleTime = time.Date(2006, 1, 2, 15, 4, 5, 0, time.UTC)

// Generate produces a template document that satisfies the model: every
// mandatory field populated with an in-range value, repeated elements emitted
// as single-item sequences, optional fields omitted. The result validates
// against the model with zero violations (existence checks aside, which are
// up to the caller's oracle).
func Generate(m *Model) map[string]any {
	doc := make(map[string]any, len(m.roots))
	for _, n := range m.roots {
		if n.Cardinality == Optional {
			continue
		}
		doc[n.Key()] = generateOccurrences(n)
	}
	return doc
}

// GenerateNode produces a template value for a single element, ignoring its
// occurrence marker.
func GenerateNode(n *Node) any { return generateValue(n) }

func generateOccurrences(n *Node) any {
	if n.Cardinality == Repeated {
		return []any{generateValue(n)}
	}
	return generateValue(n)
}

func generateValue(n *Node) any {
	if n.IsScalar() {
		return generateScalar(n)
	}
	m := make(map[string]any, len(n.Children))
	for _, c := range n.Children {
		if c.Cardinality == Optional {
			continue
		}
		m[c.Key()] = generateOccurrences(c)
	}
	return m
}

func generateScalar(n *Node) any {
	switch n.Type {
	case TypeInt:
		if n.Min != nil {
			// a fractional bound still admits only integers at or above it
			return int64(math.Ceil(*n.Min))
		}
		return int64(0)
	case TypeNumber:
		if n.Min != nil {
			return *n.Min
		}
		return float64(0)
	case TypeDatetime:
		return codec.FormatDatetime(sampleTime)
	case TypeDuration:
		return codec.FormatDuration(0)
	case TypeURI:
		return padToMinLength("https://example.com/"+n.Name, n.MinLength)
	case TypeFilename:
		return padToMinLength(n.Name+".txt", n.MinLength)
	default:
		return padToMinLength(n.Name, n.MinLength)
	}
}

func padToMinLength(s string, min *int) string {
	if min != nil && len(s) < *min {
		s += strings.Repeat("x", *min-len(s))
	}
	return s
}
