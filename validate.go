package simpleschema

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"github.com/commonenv/simpleschema/codec"
)

// Oracle answers filesystem-existence questions for ensure_exists
// constraints. It is an injected capability: the validator itself performs no
// I/O, so callers may validate independent documents concurrently against one
// Model.
type Oracle interface {
	Exists(ctx context.Context, name string) bool
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, name string) bool

func (f OracleFunc) Exists(ctx context.Context, name string) bool { return f(ctx, name) }

// UnknownPolicy controls how document keys absent from the schema are
// handled.
type UnknownPolicy int

const (
	UnknownIgnore UnknownPolicy = iota // Extra keys pass silently.
	UnknownReport                      // Extra keys are reported as violations.
)

// ValidateOption configures Validate.
type ValidateOption func(*validateOpt)

type validateOpt struct {
	oracle  Oracle
	unknown UnknownPolicy
}

// WithOracle injects the existence capability consulted by ensure_exists
// constraints. Without an oracle, existence checks are skipped.
func WithOracle(o Oracle) ValidateOption {
	return func(v *validateOpt) { v.oracle = o }
}

// WithUnknownKeys sets the policy for document keys the schema does not
// declare. The default is UnknownIgnore.
func WithUnknownKeys(p UnknownPolicy) ValidateOption {
	return func(v *validateOpt) { v.unknown = p }
}

// Validate walks document and model in lock-step and returns nil on success
// or the full, ordered set of Violations. It never stops at the first
// mismatch.
func Validate(ctx context.Context, doc any, m *Model, opts ...ValidateOption) error {
	v := newValidator(ctx, opts)
	root, ok := doc.(map[string]any)
	if !ok {
		v.add(Path{}.Violation(ConstraintType, fmt.Sprintf("expected mapping document, got %s", valueKind(doc))))
		return v.result()
	}
	known := make(map[string]bool, len(m.roots))
	for _, n := range m.roots {
		known[n.Key()] = true
		v.occurrences(n, root, Path{})
	}
	v.unknownKeys(root, known, Path{})
	return v.result()
}

// ValidateNode validates a single value against one element of a Model,
// ignoring the element's own occurrence marker. Violation paths are rooted at
// the element's name.
func ValidateNode(ctx context.Context, value any, n *Node, opts ...ValidateOption) error {
	v := newValidator(ctx, opts)
	v.node(n, value, Path{}.Field(n.Key()))
	return v.result()
}

// ---- walker ----

type validator struct {
	ctx context.Context
	opt validateOpt
	vs  Violations
}

func newValidator(ctx context.Context, opts []ValidateOption) *validator {
	v := &validator{ctx: ctx}
	for _, o := range opts {
		o(&v.opt)
	}
	return v
}

func (v *validator) add(viol Violation) { v.vs = AppendViolations(v.vs, viol) }

func (v *validator) result() error {
	if len(v.vs) == 0 {
		return nil
	}
	return v.vs
}

// occurrences resolves presence and cardinality of n inside the mapping m,
// then validates each occurrence.
func (v *validator) occurrences(n *Node, m map[string]any, parent Path) {
	path := parent.Field(n.Key())
	val, present := m[n.Key()]
	if val == nil {
		present = false
	}
	switch n.Cardinality {
	case Repeated:
		if !present {
			return // zero occurrences conform
		}
		seq, ok := val.([]any)
		if !ok {
			v.add(path.Violation(ConstraintCardinality, fmt.Sprintf("expected sequence, got %s", valueKind(val))))
			return
		}
		for i, item := range seq {
			v.node(n, item, path.Index(i))
		}
	case Optional:
		if !present {
			return
		}
		v.node(n, val, path)
	default: // One
		if !present {
			v.add(path.Violation(ConstraintRequired, fmt.Sprintf("missing required %s", n.Kind)))
			return
		}
		v.node(n, val, path)
	}
}

// node validates a single occurrence of n.
func (v *validator) node(n *Node, val any, path Path) {
	if n.IsScalar() {
		v.scalar(n, val, path)
		return
	}
	m, ok := val.(map[string]any)
	if !ok {
		if _, isSeq := val.([]any); isSeq {
			v.add(path.Violation(ConstraintCardinality, "unexpected sequence"))
			return
		}
		v.add(path.Violation(ConstraintType, fmt.Sprintf("expected mapping, got %s", valueKind(val))))
		return
	}
	known := make(map[string]bool, len(n.Children))
	for _, c := range n.Children {
		known[c.Key()] = true
		v.occurrences(c, m, path)
	}
	v.unknownKeys(m, known, path)
}

func (v *validator) unknownKeys(m map[string]any, known map[string]bool, path Path) {
	if v.opt.unknown != UnknownReport {
		return
	}
	extra := make([]string, 0, 2)
	for k := range m {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		v.add(path.Field(k).Violation(ConstraintUnknownKey, "key not declared in schema"))
	}
}

// ---- scalar checks ----

func (v *validator) scalar(n *Node, val any, path Path) {
	switch n.Type {
	case TypeString:
		s, ok := val.(string)
		if !ok {
			v.add(path.Violation(ConstraintType, fmt.Sprintf("expected string, got %s", valueKind(val))))
			return
		}
		v.checkMinLength(n, s, path)
	case TypeFilename:
		s, ok := val.(string)
		if !ok {
			v.add(path.Violation(ConstraintType, fmt.Sprintf("expected filename, got %s", valueKind(val))))
			return
		}
		v.checkMinLength(n, s, path)
		v.checkExists(n, s, path)
	case TypeURI:
		s, ok := val.(string)
		if !ok {
			v.add(path.Violation(ConstraintType, fmt.Sprintf("expected uri, got %s", valueKind(val))))
			return
		}
		v.checkMinLength(n, s, path)
		if _, err := codec.ParseURI(s); err != nil {
			v.add(Violation{Path: path.String(), Constraint: ConstraintType, Message: fmt.Sprintf("malformed uri %q", s), Cause: err})
		}
	case TypeInt:
		f, integral, ok := asNumber(val)
		if !ok || !integral {
			v.add(path.Violation(ConstraintType, fmt.Sprintf("expected int, got %s", valueKind(val))))
			return
		}
		v.checkMin(n, f, path)
	case TypeNumber:
		f, _, ok := asNumber(val)
		if !ok {
			v.add(path.Violation(ConstraintType, fmt.Sprintf("expected number, got %s", valueKind(val))))
			return
		}
		v.checkMin(n, f, path)
	case TypeDatetime:
		switch t := val.(type) {
		case time.Time:
			// yaml decodes timestamp scalars natively
		case string:
			if _, err := codec.ParseDatetime(t); err != nil {
				v.add(Violation{Path: path.String(), Constraint: ConstraintType, Message: fmt.Sprintf("malformed datetime %q", t), Cause: err})
			}
		default:
			v.add(path.Violation(ConstraintType, fmt.Sprintf("expected datetime, got %s", valueKind(val))))
		}
	case TypeDuration:
		if f, _, ok := asNumber(val); ok {
			if _, err := codec.Seconds(f); err != nil {
				v.add(path.Violation(ConstraintType, "negative duration"))
			}
			return
		}
		s, ok := val.(string)
		if !ok {
			v.add(path.Violation(ConstraintType, fmt.Sprintf("expected duration, got %s", valueKind(val))))
			return
		}
		if _, err := codec.ParseDuration(s); err != nil {
			v.add(Violation{Path: path.String(), Constraint: ConstraintType, Message: fmt.Sprintf("malformed duration %q", s), Cause: err})
		}
	default:
		v.add(path.Violation(ConstraintType, fmt.Sprintf("expected scalar, got %s", valueKind(val))))
	}
}

func (v *validator) checkMin(n *Node, got float64, path Path) {
	if n.Min != nil && got < *n.Min {
		v.add(path.Violation(ConstraintMin, formatNumber(got)+" < "+formatNumber(*n.Min)))
	}
}

func (v *validator) checkMinLength(n *Node, s string, path Path) {
	if n.MinLength != nil && len(s) < *n.MinLength {
		v.add(path.Violation(ConstraintMinLength, fmt.Sprintf("length %d < %d", len(s), *n.MinLength)))
	}
}

// checkExists consults the oracle. An absent ensure_exists constraint on a
// filename defaults to true; an explicit ensure_exists=false disables the
// check entirely.
func (v *validator) checkExists(n *Node, name string, path Path) {
	if n.EnsureExists != nil && !*n.EnsureExists {
		return
	}
	if v.opt.oracle == nil {
		return
	}
	if !v.opt.oracle.Exists(v.ctx, name) {
		v.add(path.Violation(ConstraintEnsureExists, fmt.Sprintf("%q does not exist", name)))
	}
}

// ---- value helpers ----

// asNumber widens the numeric representations produced by JSON and YAML
// decoders. integral reports whether the value carries no fractional part.
func asNumber(val any) (f float64, integral bool, ok bool) {
	switch n := val.(type) {
	case int:
		return float64(n), true, true
	case int32:
		return float64(n), true, true
	case int64:
		return float64(n), true, true
	case uint64:
		return float64(n), true, true
	case float32:
		f = float64(n)
		return f, f == math.Trunc(f), true
	case float64:
		return n, n == math.Trunc(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return float64(i), true, true
		}
		if fl, err := n.Float64(); err == nil {
			return fl, fl == math.Trunc(fl), true
		}
		return 0, false, false
	default:
		return 0, false, false
	}
}

// formatNumber renders a number the way it reads in a schema or document:
// integral values without a fractional part.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func valueKind(val any) string {
	switch val.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case map[string]any:
		return "mapping"
	case []any:
		return "sequence"
	case time.Time:
		return "datetime"
	default:
		if _, _, ok := asNumber(val); ok {
			return "number"
		}
		return fmt.Sprintf("%T", val)
	}
}
