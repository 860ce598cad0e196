package liberty

import (
	"fmt"
	"strconv"
)

// Library is a parsed Liberty source: an ordered list of top-level groups.
// A file normally holds exactly one library(...) group, but the parser
// preserves whatever the source contains.
type Library struct {
	Groups []*Group
}

// Group is one group statement: a type tag, zero or more names, and the
// attributes and nested groups declared inside its braces, in source order.
type Group struct {
	typ    string
	names  []Value
	attrs  []*Attr
	groups []*Group
}

// GroupType returns the group's type tag (e.g. "cell", "pin", "timing").
func (g *Group) GroupType() string { return g.typ }

// Names returns the group's declared names in order.
func (g *Group) Names() []string {
	names := make([]string, len(g.names))
	for i, n := range g.names {
		names[i] = n.Text()
	}
	return names
}

// Name returns the group's first name, or "" if it has none.
func (g *Group) Name() string {
	if len(g.names) == 0 {
		return ""
	}
	return g.names[0].Text()
}

// Groups returns the nested groups in source order.
func (g *Group) Groups() []*Group { return g.groups }

// Attrs returns the group's attributes in source order.
func (g *Group) Attrs() []*Attr { return g.attrs }

// FindAttr looks up an attribute by name. The second return reports
// whether the attribute exists.
func (g *Group) FindAttr(name string) (*Attr, bool) {
	for _, a := range g.attrs {
		if a.name == name {
			return a, true
		}
	}
	return nil, false
}

// CreateSimpleAttr adds a new simple attribute to the group.
// It is an error if an attribute with the same name already exists.
func (g *Group) CreateSimpleAttr(name string) (*Attr, error) {
	if _, ok := g.FindAttr(name); ok {
		return nil, fmt.Errorf("attribute %q already exists in group %s", name, g.typ)
	}
	a := &Attr{name: name, kind: SimpleAttr}
	g.attrs = append(g.attrs, a)
	return a, nil
}

// CreateComplexAttr adds a new complex (multi-value) attribute to the group.
// It is an error if an attribute with the same name already exists.
func (g *Group) CreateComplexAttr(name string) (*Attr, error) {
	if _, ok := g.FindAttr(name); ok {
		return nil, fmt.Errorf("attribute %q already exists in group %s", name, g.typ)
	}
	a := &Attr{name: name, kind: ComplexAttr}
	g.attrs = append(g.attrs, a)
	return a, nil
}

// DeleteAttr removes the named attribute from the group.
// It is an error if no such attribute exists.
func (g *Group) DeleteAttr(name string) error {
	for i, a := range g.attrs {
		if a.name == name {
			g.attrs = append(g.attrs[:i], g.attrs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("attribute %q not found in group %s", name, g.typ)
}

// AttrKind distinguishes simple (single-value) from complex (value-list)
// attributes.
type AttrKind int

const (
	SimpleAttr AttrKind = iota
	ComplexAttr
)

// Attr is one attribute statement inside a group.
type Attr struct {
	name   string
	kind   AttrKind
	simple Value   // simple attributes only
	values []Value // complex attributes only
}

// Name returns the attribute name.
func (a *Attr) Name() string { return a.name }

// Kind returns whether the attribute is simple or complex.
func (a *Attr) Kind() AttrKind { return a.kind }

// StringValue returns a simple attribute's value as a string.
func (a *Attr) StringValue() (string, error) {
	if a.kind != SimpleAttr {
		return "", fmt.Errorf("attribute %q is not a simple attribute", a.name)
	}
	return a.simple.Text(), nil
}

// FloatValue returns a simple attribute's value parsed as a float.
func (a *Attr) FloatValue() (float64, error) {
	if a.kind != SimpleAttr {
		return 0, fmt.Errorf("attribute %q is not a simple attribute", a.name)
	}
	return a.simple.Float()
}

// IntValue returns a simple attribute's value parsed as an integer.
// Fractional values are truncated, matching the behavior of reading a
// float-valued attribute through an int accessor.
func (a *Attr) IntValue() (int64, error) {
	f, err := a.FloatValue()
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// Values returns a complex attribute's value sequence in order.
func (a *Attr) Values() []Value {
	if a.kind != ComplexAttr {
		return nil
	}
	return a.values
}

// AddStringValue appends a quoted string value to a complex attribute.
func (a *Attr) AddStringValue(s string) error {
	if a.kind != ComplexAttr {
		return fmt.Errorf("attribute %q is not a complex attribute", a.name)
	}
	a.values = append(a.values, Value{Kind: StringValue, Str: s})
	return nil
}

// AddFloatValue appends a numeric value to a complex attribute.
func (a *Attr) AddFloatValue(f float64) error {
	if a.kind != ComplexAttr {
		return fmt.Errorf("attribute %q is not a complex attribute", a.name)
	}
	a.values = append(a.values, Value{Kind: NumberValue, Num: f})
	return nil
}

// SetStringValue replaces a simple attribute's value with a quoted string.
func (a *Attr) SetStringValue(s string) error {
	if a.kind != SimpleAttr {
		return fmt.Errorf("attribute %q is not a simple attribute", a.name)
	}
	a.simple = Value{Kind: StringValue, Str: s}
	return nil
}

// SetFloatValue replaces a simple attribute's value with a number.
func (a *Attr) SetFloatValue(f float64) error {
	if a.kind != SimpleAttr {
		return fmt.Errorf("attribute %q is not a simple attribute", a.name)
	}
	a.simple = Value{Kind: NumberValue, Num: f}
	return nil
}

// ValueKind is the lexical class of an attribute value.
type ValueKind int

const (
	StringValue ValueKind = iota // quoted string
	NumberValue                  // numeric literal
	IdentValue                   // bare identifier (input, ff, true, ...)
)

// Value is a single attribute value as it appeared in the source.
// Number values keep their original spelling in Raw so rewriting a file
// does not churn untouched numeric text.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Raw  string
}

// Text returns the value as a string: the string/identifier text, or the
// numeric spelling for numbers.
func (v Value) Text() string {
	switch v.Kind {
	case NumberValue:
		if v.Raw != "" {
			return v.Raw
		}
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	default:
		return v.Str
	}
}

// Float returns the value parsed as a float.
func (v Value) Float() (float64, error) {
	switch v.Kind {
	case NumberValue:
		return v.Num, nil
	default:
		f, err := strconv.ParseFloat(v.Str, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not a number", v.Str)
		}
		return f, nil
	}
}
