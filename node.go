package simpleschema

// Kind distinguishes the two node flavors of the description language.
type Kind int

const (
	KindElement   Kind = iota // <name ...>: possibly nested container
	KindAttribute             // [name ...] scalar field, no children
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// Type enumerates the scalar types the description language recognizes.
// TypeNone marks a pure container element; TypeReference marks an element
// whose shape comes from a Named Type Definition.
type Type int

const (
	TypeNone Type = iota
	TypeString
	TypeInt
	TypeNumber
	TypeDatetime
	TypeDuration
	TypeURI
	TypeFilename
	TypeReference
)

var typeNames = map[Type]string{
	TypeNone:      "",
	TypeString:    "string",
	TypeInt:       "int",
	TypeNumber:    "number",
	TypeDatetime:  "datetime",
	TypeDuration:  "duration",
	TypeURI:       "uri",
	TypeFilename:  "filename",
	TypeReference: "reference",
}

func (t Type) String() string { return typeNames[t] }

// scalarTypes maps the type tokens of the description language. Named type
// references are resolved separately against the symbol table.
var scalarTypes = map[string]Type{
	"string":   TypeString,
	"int":      TypeInt,
	"number":   TypeNumber,
	"datetime": TypeDatetime,
	"duration": TypeDuration,
	"uri":      TypeURI,
	"filename": TypeFilename,
}

// Cardinality is the occurrence marker of a node.
type Cardinality int

const (
	One      Cardinality = iota // exactly one (default)
	Optional                    // ? zero or one
	Repeated                    // * zero or more
)

func (c Cardinality) String() string {
	switch c {
	case Optional:
		return "?"
	case Repeated:
		return "*"
	default:
		return ""
	}
}

// Node is one typed field or container of a schema. Nodes are built by Parse
// and never mutated afterwards; a Model may be shared freely across
// goroutines.
type Node struct {
	Kind        Kind
	Name        string
	Type        Type
	TypeRef     string // named type this node references or extends, if any
	Cardinality Cardinality

	// Recognized constraints. Pointer fields are nil when the constraint is
	// absent from the schema text.
	Description  string
	Alias        string // name= display/serialization alias
	Fundamental  string // fundamental_name= variant group tag
	Min          *float64
	MinLength    *int
	EnsureExists *bool

	// Extra holds unrecognized key=value constraints verbatim. The constraint
	// vocabulary is extensible; unknown keys are carried, not rejected.
	Extra map[string]string

	Children []*Node

	// Line is the 1-based schema-text line the node was declared on.
	Line int
}

// Key returns the field name the node matches in a document: the name= alias
// when present, the declared name otherwise.
func (n *Node) Key() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// IsScalar reports whether the node holds a scalar value rather than nested
// children. Attributes are always scalar; elements are scalar when they carry
// a builtin type and no children.
func (n *Node) IsScalar() bool {
	if n.Kind == KindAttribute {
		return true
	}
	return len(n.Children) == 0 && n.Type != TypeNone && n.Type != TypeReference
}

// Child returns the child with the given declared name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Model is the result of a successful Parse: the ordered top-level elements
// plus the symbol table of named type definitions. Read-only after
// construction.
type Model struct {
	roots []*Node
	types map[string]*Node
	order []string // named type definition order, for deterministic walks
}

// Roots returns the top-level elements in declaration order.
func (m *Model) Roots() []*Node { return m.roots }

// Element returns the top-level element with the given declared name, or nil.
func (m *Model) Element(name string) *Node {
	for _, r := range m.roots {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// NamedType returns the named type definition registered under name, or nil.
func (m *Model) NamedType(name string) *Node { return m.types[name] }

// NamedTypes returns the symbol table in declaration order. The returned map
// and nodes must not be mutated.
func (m *Model) NamedTypes() map[string]*Node {
	out := make(map[string]*Node, len(m.types))
	for _, k := range m.order {
		out[k] = m.types[k]
	}
	return out
}
