package simpleschema

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"github.com/commonenv/simpleschema/internal/lexer"
)

// ParseOption configures Parse.
type ParseOption func(*parseOpt)

type parseOpt struct {
	types map[string]*Node
	order []string
}

// WithNamedTypes seeds the symbol table with externally defined named types,
// letting a schema reference definitions from another Model (for example
// m.NamedTypes() of a previously parsed schema).
func WithNamedTypes(types map[string]*Node) ParseOption {
	return func(o *parseOpt) {
		names := make([]string, 0, len(types))
		for name := range types {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, ok := o.types[name]; ok {
				continue
			}
			o.types[name] = types[name]
			o.order = append(o.order, name)
		}
	}
}

// Parse builds an immutable Model from schema description text. It fails with
// a *ParseError on inconsistent indentation, duplicate sibling names,
// unresolved type references, and malformed constraint values; no partial
// Model is ever returned.
func Parse(text string, opts ...ParseOption) (*Model, error) {
	opt := parseOpt{types: map[string]*Node{}}
	for _, o := range opts {
		o(&opt)
	}

	lines, err := lexer.Scan(text)
	if err != nil {
		return nil, liftLexerError(err)
	}

	tops, err := nest(lines)
	if err != nil {
		return nil, err
	}

	p := &parser{types: opt.types, order: opt.order}
	var roots []*Node
	for _, raw := range tops {
		switch {
		case strings.HasPrefix(raw.ln.Text, "("):
			name, def, err := p.parseNamedType(raw)
			if err != nil {
				return nil, err
			}
			if _, dup := p.types[name]; dup {
				return nil, parseErrorf(raw.ln.Num, "duplicate named type %q", name)
			}
			p.types[name] = def
			p.order = append(p.order, name)
		case strings.HasPrefix(raw.ln.Text, "<"):
			n, err := p.parseElement(raw)
			if err != nil {
				return nil, err
			}
			for _, r := range roots {
				if r.Name == n.Name {
					return nil, parseErrorf(raw.ln.Num, "duplicate element %q at top level", n.Name)
				}
			}
			roots = append(roots, n)
		case strings.HasPrefix(raw.ln.Text, "["):
			return nil, parseErrorf(raw.ln.Num, "attribute not allowed at top level")
		default:
			return nil, parseErrorf(raw.ln.Num, "expected element, attribute, or named type definition")
		}
	}

	// top-level elements form a sibling scope too
	if err := checkVariantGroups(roots); err != nil {
		return nil, err
	}

	return &Model{roots: roots, types: p.types, order: p.order}, nil
}

func liftLexerError(err error) error {
	var le *lexer.Error
	if errors.As(err, &le) {
		return &ParseError{Line: le.Line, Message: le.Msg}
	}
	return &ParseError{Message: err.Error()}
}

// ---- line nesting ----

type rawNode struct {
	ln       lexer.Line
	children []*rawNode
}

// nest folds the flat, depth-annotated line list into a tree. The lexer
// guarantees depth never grows by more than one level per line.
func nest(lines []lexer.Line) ([]*rawNode, error) {
	var tops []*rawNode
	var stack []*rawNode // stack[d] is the open node at depth d
	for _, ln := range lines {
		r := &rawNode{ln: ln}
		if ln.Depth == 0 {
			tops = append(tops, r)
			stack = stack[:0]
			stack = append(stack, r)
			continue
		}
		if ln.Depth > len(stack) {
			return nil, parseErrorf(ln.Num, "inconsistent indentation")
		}
		parent := stack[ln.Depth-1]
		parent.children = append(parent.children, r)
		stack = stack[:ln.Depth]
		stack = append(stack, r)
	}
	return tops, nil
}

// ---- grammar ----

type parser struct {
	types map[string]*Node
	order []string
}

func (p *parser) parseNamedType(raw *rawNode) (string, *Node, error) {
	num := raw.ln.Num
	text := raw.ln.Text
	if !strings.HasSuffix(text, "):") {
		return "", nil, parseErrorf(num, "named type definition must end with \"):\"")
	}
	name := strings.TrimSuffix(strings.TrimPrefix(text, "("), "):")
	if !validName(name) {
		return "", nil, parseErrorf(num, "invalid named type name %q", name)
	}
	def := &Node{Kind: KindElement, Name: name, Line: num}
	if err := p.parseChildren(def, raw.children); err != nil {
		return "", nil, err
	}
	return name, def, nil
}

func (p *parser) parseElement(raw *rawNode) (*Node, error) {
	num := raw.ln.Num
	text := raw.ln.Text
	hasColon := strings.HasSuffix(text, ":")
	header := strings.TrimSuffix(text, ":")
	if !strings.HasPrefix(header, "<") || !strings.HasSuffix(header, ">") {
		return nil, parseErrorf(num, "malformed element declaration %q", text)
	}
	fields, err := lexer.Fields(num, header[1:len(header)-1])
	if err != nil {
		return nil, liftLexerError(err)
	}
	n, err := p.buildNode(KindElement, fields, num)
	if err != nil {
		return nil, err
	}

	if len(raw.children) > 0 {
		if !hasColon {
			return nil, parseErrorf(num, "element %q has children but no trailing ':'", n.Name)
		}
		if n.IsScalar() {
			return nil, parseErrorf(num, "scalar element %q cannot have children", n.Name)
		}
		if err := p.parseChildren(n, raw.children); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func (p *parser) parseAttribute(raw *rawNode) (*Node, error) {
	num := raw.ln.Num
	text := raw.ln.Text
	if !strings.HasPrefix(text, "[") || !strings.HasSuffix(text, "]") {
		return nil, parseErrorf(num, "malformed attribute declaration %q", text)
	}
	if len(raw.children) > 0 {
		return nil, parseErrorf(raw.children[0].ln.Num, "attribute cannot have children")
	}
	fields, err := lexer.Fields(num, text[1:len(text)-1])
	if err != nil {
		return nil, liftLexerError(err)
	}
	return p.buildNode(KindAttribute, fields, num)
}

// parseChildren parses a child block into n, merging any named-type fields n
// references ahead of its own, and enforces sibling-name uniqueness and
// variant-group shape agreement.
func (p *parser) parseChildren(n *Node, raws []*rawNode) error {
	var own []*Node
	for _, raw := range raws {
		var c *Node
		var err error
		switch {
		case strings.HasPrefix(raw.ln.Text, "<"):
			c, err = p.parseElement(raw)
		case strings.HasPrefix(raw.ln.Text, "["):
			c, err = p.parseAttribute(raw)
		case strings.HasPrefix(raw.ln.Text, "("):
			err = parseErrorf(raw.ln.Num, "named type definition only allowed at top level")
		default:
			err = parseErrorf(raw.ln.Num, "expected element or attribute declaration")
		}
		if err != nil {
			return err
		}
		own = append(own, c)
	}

	// An element extending a named type gets the base fields first.
	merged := n.Children
	merged = append(merged, own...)
	n.Children = merged

	seen := make(map[string]int, len(merged))
	for _, c := range merged {
		if prev, dup := seen[c.Name]; dup {
			return parseErrorf(c.Line, "duplicate name %q in scope (previously declared on line %d)", c.Name, prev)
		}
		seen[c.Name] = c.Line
	}
	return checkVariantGroups(merged)
}

// checkVariantGroups verifies that siblings sharing a fundamental_name tag
// agree structurally, so a document holding either variant validates against
// one contract.
func checkVariantGroups(children []*Node) error {
	groups := map[string]*Node{}
	for _, c := range children {
		if c.Fundamental == "" {
			continue
		}
		first, ok := groups[c.Fundamental]
		if !ok {
			groups[c.Fundamental] = c
			continue
		}
		if !sameShape(first, c) {
			return parseErrorf(c.Line, "variant %q of %q differs in structure from %q", c.Name, c.Fundamental, first.Name)
		}
	}
	return nil
}

func sameShape(a, b *Node) bool {
	if a.Kind != b.Kind || a.Type != b.Type || a.Cardinality != b.Cardinality {
		return false
	}
	if len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		ca, cb := a.Children[i], b.Children[i]
		if ca.Name != cb.Name || !sameShape(ca, cb) {
			return false
		}
	}
	return true
}

// buildNode interprets the fields of a declaration header: name, optional
// type or named-type reference, key=value constraints, and an occurrence
// marker.
func (p *parser) buildNode(kind Kind, fields []string, num int) (*Node, error) {
	if len(fields) == 0 {
		return nil, parseErrorf(num, "missing name in declaration")
	}
	n := &Node{Kind: kind, Name: fields[0], Line: num}
	if !validName(n.Name) {
		return nil, parseErrorf(num, "invalid name %q", n.Name)
	}

	typeTok := ""
	cardSet := false
	constraints := make([][2]string, 0, 4)
	for _, f := range fields[1:] {
		switch {
		case f == "?" || f == "*":
			if cardSet {
				return nil, parseErrorf(num, "duplicate occurrence marker on %q", n.Name)
			}
			if f == "*" {
				if kind == KindAttribute {
					return nil, parseErrorf(num, "attribute %q cannot be repeated", n.Name)
				}
				n.Cardinality = Repeated
			} else {
				n.Cardinality = Optional
			}
			cardSet = true
		case strings.Contains(f, "="):
			k, v, _ := strings.Cut(f, "=")
			constraints = append(constraints, [2]string{k, v})
		default:
			if typeTok != "" {
				return nil, parseErrorf(num, "unexpected token %q after type %q", f, typeTok)
			}
			typeTok = f
		}
	}

	if err := p.resolveType(n, typeTok, num); err != nil {
		return nil, err
	}
	for _, kv := range constraints {
		if err := applyConstraint(n, kv[0], kv[1], num); err != nil {
			return nil, err
		}
	}
	return n, nil
}

// resolveType assigns the builtin scalar type, resolves a named-type
// reference, or leaves the node as a container. References must resolve to a
// previously or externally defined named type.
func (p *parser) resolveType(n *Node, tok string, num int) error {
	if tok == "" {
		if n.Kind == KindAttribute {
			n.Type = TypeString // attributes default to string
		}
		return nil
	}
	if t, ok := scalarTypes[tok]; ok {
		n.Type = t
		return nil
	}
	if n.Kind == KindAttribute {
		return parseErrorf(num, "attribute %q must have a scalar type, not %q", n.Name, tok)
	}
	def, ok := p.types[tok]
	if !ok {
		return parseErrorf(num, "undefined named type %q", tok)
	}
	n.Type = TypeReference
	n.TypeRef = tok
	n.Children = append(n.Children, def.Children...)
	return nil
}

func applyConstraint(n *Node, key, val string, num int) error {
	switch key {
	case "description":
		n.Description = val
	case "name":
		n.Alias = val
	case "fundamental_name":
		n.Fundamental = val
	case "min":
		if n.Type != TypeInt && n.Type != TypeNumber {
			return parseErrorf(num, "min constraint on non-numeric field %q", n.Name)
		}
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return parseErrorf(num, "malformed min value %q on %q", val, n.Name)
		}
		n.Min = &f
	case "min_length":
		switch n.Type {
		case TypeString, TypeFilename, TypeURI:
		default:
			return parseErrorf(num, "min_length constraint on non-string field %q", n.Name)
		}
		l, err := strconv.Atoi(val)
		if err != nil || l < 0 {
			return parseErrorf(num, "malformed min_length value %q on %q", val, n.Name)
		}
		n.MinLength = &l
	case "ensure_exists":
		if n.Type != TypeFilename {
			return parseErrorf(num, "ensure_exists constraint on non-filename field %q", n.Name)
		}
		switch strings.ToLower(val) {
		case "true":
			b := true
			n.EnsureExists = &b
		case "false":
			b := false
			n.EnsureExists = &b
		default:
			return parseErrorf(num, "malformed ensure_exists value %q on %q", val, n.Name)
		}
	default:
		// The constraint vocabulary is extensible; unknown keys are carried.
		if n.Extra == nil {
			n.Extra = map[string]string{}
		}
		n.Extra[key] = val
	}
	return nil
}

func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}
