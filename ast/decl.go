package ast

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/mheilman/lesscpy/scope"
)

// Block is a selector plus its declaration list, captured as of its own
// scope frame. A block becomes reusable by selector-name call once the
// reducer registers it in the enclosing frame.
type Block struct {
	Ident *Identifier
	Decls []Node
	Line  int

	parsed bool
}

// NewBlock returns a block over an already-composed identifier.
func NewBlock(ident *Identifier, decls []Node, line int) *Block {
	return &Block{Ident: ident, Decls: decls, Line: line}
}

// Raw returns the block's scope lookup key.
func (b *Block) Raw() string { return b.Ident.Raw() }

// Parse resolves the block's declarations against sc. Resolution is
// best-effort: a failing declaration is kept raw and its error is joined
// into the returned error so siblings still resolve.
func (b *Block) Parse(sc *scope.Scope) (Node, error) {
	if b.parsed {
		return b, nil
	}
	b.parsed = true
	var errs []error
	for i, d := range b.Decls {
		switch d := d.(type) {
		case *Variable:
			// Registered with the scope when its production fired.
		case *Block, *Mixin:
			// Nested blocks and mixins finalized at their own close.
		default:
			n, err := d.Parse(sc)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			b.Decls[i] = n
		}
	}
	return b, errors.Join(errs...)
}

// Copy returns an independent duplicate of the block rebased on the
// selector context of sc. The copy is value-scoped: declarations already
// resolved against the source's own frame keep those values; only the
// selector context rebases, and still-unresolved state (mixin body
// declarations, deferred calls) resolves against the caller's scope.
func (b *Block) Copy(sc *scope.Scope) (*Block, error) {
	ident := b.Ident.Clone()
	if _, err := ident.Parse(sc); err != nil {
		return nil, err
	}
	dup := &Block{Ident: ident, Line: b.Line, parsed: true}
	var errs []error
	for _, d := range b.Decls {
		switch d := d.(type) {
		case *Property:
			p := d.Clone()
			if _, err := p.Parse(sc); err != nil {
				errs = append(errs, err)
			}
			dup.Decls = append(dup.Decls, p)
		case *Block:
			// Rebase the nested block against the copy's selector.
			inner := sc.Current()
			sc.SetCurrent(ident)
			nb, err := d.rawCopy().Copy(sc)
			sc.SetCurrent(inner)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			dup.Decls = append(dup.Decls, nb)
		case *Deferred:
			n, err := d.Parse(sc)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if l, ok := n.(List); ok {
				dup.Decls = append(dup.Decls, l...)
			} else {
				dup.Decls = append(dup.Decls, n)
			}
		case *Variable, *Mixin:
			// Definitions do not re-emit.
		default:
			dup.Decls = append(dup.Decls, d)
		}
	}
	return dup, errors.Join(errs...)
}

// CopyInner returns value-scoped copies of the block's declarations,
// inlining them into whatever rule is being reduced. Nested blocks rebase
// against the caller's selector context rather than the source block's;
// resolved property values carry over from the source's own frame.
func (b *Block) CopyInner(sc *scope.Scope) (List, error) {
	var out List
	var errs []error
	for _, d := range b.Decls {
		switch d := d.(type) {
		case *Property:
			p := d.Clone()
			if _, err := p.Parse(sc); err != nil {
				errs = append(errs, err)
			}
			out = append(out, p)
		case *Block:
			nb, err := d.rawCopy().Copy(sc)
			if err != nil {
				errs = append(errs, err)
			}
			if nb != nil {
				out = append(out, nb)
			}
		case *Deferred:
			n, err := d.Parse(sc)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if l, ok := n.(List); ok {
				out = append(out, l...)
			} else {
				out = append(out, n)
			}
		case *Variable, *Mixin:
			// Definitions do not re-emit.
		default:
			out = append(out, d)
		}
	}
	return out, errors.Join(errs...)
}

// rawCopy returns an unparsed clone of the block sharing raw declaration
// state.
func (b *Block) rawCopy() *Block {
	decls := make([]Node, len(b.Decls))
	copy(decls, b.Decls)
	return &Block{Ident: b.Ident.Clone(), Decls: decls, Line: b.Line}
}

func (b *Block) String() string {
	var buf bytes.Buffer
	buf.WriteString(b.Ident.String())
	buf.WriteString(" { ")
	for _, d := range b.Decls {
		buf.WriteString(d.String())
		buf.WriteString("; ")
	}
	buf.WriteString("}")
	return buf.String()
}

// Param is one formal parameter of a mixin: a variable name with an
// optional default value.
type Param struct {
	Name    string
	Default Node
}

// Mixin is a named, parameterized declaration template. The body is kept
// unresolved; Call binds arguments in a fresh child frame and re-resolves
// the body against it per invocation.
type Mixin struct {
	Ident  *Identifier
	Params []Param
	Body   []Node
	Line   int
}

// NewMixin derives the formal parameter list from the argument nodes of
// the open-mixin production: a bare variable reference declares a
// positional parameter, a keyword argument declares a parameter with a
// default.
func NewMixin(ident *Identifier, args []Node, body []Node, line int) *Mixin {
	m := &Mixin{Ident: ident, Body: body, Line: line}
	for _, a := range args {
		switch a := a.(type) {
		case *VarRef:
			m.Params = append(m.Params, Param{Name: a.Name})
		case *Variable:
			m.Params = append(m.Params, Param{Name: a.Name(), Default: a.RawValue()})
		default:
			// A literal formal consumes a positional slot without binding.
			m.Params = append(m.Params, Param{})
		}
	}
	return m
}

// Raw returns the mixin's scope lookup key.
func (m *Mixin) Raw() string { return m.Ident.Raw() }

// Parse is a no-op: the body stays unresolved until the mixin is called.
func (m *Mixin) Parse(sc *scope.Scope) (Node, error) { return m, nil }

// Call binds args to the mixin's parameters in a fresh child frame and
// re-resolves the body against it, returning the expanded declaration
// sequence. Binding is positional first, then keyword pairs override the
// parameter they name. The frame also carries @arguments, the full bound
// argument list in parameter order.
func (m *Mixin) Call(sc *scope.Scope, args []Node) (List, error) {
	sc.Push()
	defer sc.Pop()

	bound := make([]Node, len(m.Params))

	// Seed defaults.
	for i, p := range m.Params {
		if p.Default != nil {
			bound[i] = p.Default
		}
	}

	// Positional arguments fill parameter slots in order.
	pos := 0
	for _, a := range args {
		if _, ok := a.(*Variable); ok {
			continue
		}
		if pos >= len(m.Params) {
			return nil, fmt.Errorf("mixin `%s` takes %d arguments, got %d", m.Raw(), len(m.Params), len(args))
		}
		bound[pos] = a
		pos++
	}

	// Keyword arguments override by name.
	for _, a := range args {
		kw, ok := a.(*Variable)
		if !ok {
			continue
		}
		found := false
		for i, p := range m.Params {
			if p.Name == kw.Name() {
				bound[i] = kw.RawValue()
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("mixin `%s` has no parameter %s", m.Raw(), kw.Name())
		}
	}

	// Bind: evaluate each argument against the caller's scope and add the
	// binding to the call frame.
	var all List
	for i, p := range m.Params {
		if bound[i] == nil {
			if p.Name == "" {
				continue
			}
			return nil, fmt.Errorf("mixin `%s` missing argument %s", m.Raw(), p.Name)
		}
		val, err := bound[i].Parse(sc)
		if err != nil {
			return nil, err
		}
		all = append(all, val)
		if p.Name != "" {
			sc.AddVariable(newBoundVariable(p.Name, val))
		}
	}
	sc.AddVariable(newBoundVariable("@arguments", all))

	return m.expand(sc)
}

// expand re-resolves the body declarations against the call frame.
func (m *Mixin) expand(sc *scope.Scope) (List, error) {
	var out List
	var errs []error
	for _, d := range m.Body {
		switch d := d.(type) {
		case *Variable:
			v := d.Clone()
			if _, err := v.Parse(sc); err != nil {
				errs = append(errs, err)
			}
			sc.AddVariable(v)
		case *Mixin:
			sc.AddMixin(d)
		case *Property:
			p := d.Clone()
			if _, err := p.Parse(sc); err != nil {
				errs = append(errs, err)
			}
			out = append(out, p)
		case *Block:
			b, err := d.rawCopy().Copy(sc)
			if err != nil {
				errs = append(errs, err)
			}
			if b != nil {
				out = append(out, b)
			}
		case *Deferred:
			n, err := d.Parse(sc)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if l, ok := n.(List); ok {
				out = append(out, l...)
			} else {
				out = append(out, n)
			}
		case List:
			n, err := d.Parse(sc)
			if err != nil {
				errs = append(errs, err)
			}
			out = append(out, n.(List)...)
		default:
			n, err := d.Parse(sc)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			out = append(out, n)
		}
	}
	return out, errors.Join(errs...)
}

func (m *Mixin) String() string {
	var buf bytes.Buffer
	buf.WriteString(m.Ident.String())
	buf.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(p.Name)
		if p.Default != nil {
			buf.WriteString(": " + p.Default.String())
		}
	}
	buf.WriteString(") { ... }")
	return buf.String()
}

// Deferred is a call recorded inside a mixin body. The target is either a
// resolved *Mixin or, when the name was unknown at record time, the raw
// *Identifier; resolution happens when the enclosing mixin is invoked with
// concrete argument values.
type Deferred struct {
	Target Node
	Args   []Node
	Line   int
}

// Parse resolves and invokes the deferred call against sc. The result is
// the expanded declaration List.
func (d *Deferred) Parse(sc *scope.Scope) (Node, error) {
	switch t := d.Target.(type) {
	case *Mixin:
		return t.Call(sc, d.Args)
	case *Identifier:
		if m, ok := sc.LookupMixin(t.Raw()).(*Mixin); ok && m != nil {
			return m.Call(sc, d.Args)
		}
		if len(d.Args) == 0 {
			if b, ok := sc.LookupBlock(t.Raw()).(*Block); ok && b != nil {
				return b.CopyInner(sc)
			}
		}
		return nil, fmt.Errorf("call unknown mixin `%s`", t.Raw())
	}
	return nil, fmt.Errorf("malformed deferred call")
}

func (d *Deferred) String() string {
	name := ""
	switch t := d.Target.(type) {
	case *Mixin:
		name = t.Raw()
	case *Identifier:
		name = t.Raw()
	}
	var buf bytes.Buffer
	buf.WriteString(name)
	buf.WriteString("(")
	for i, a := range d.Args {
		if i > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(a.String())
	}
	buf.WriteString(")")
	return buf.String()
}

// Variable is a name bound to a value expression. Once added to a frame it
// is visible to every lookup that fires after it in source order.
type Variable struct {
	name     string
	value    []Node
	resolved Node
	Line     int
}

// NewVariable returns an unresolved variable declaration.
func NewVariable(name string, value []Node, line int) *Variable {
	return &Variable{name: name, value: value, Line: line}
}

func newBoundVariable(name string, resolved Node) *Variable {
	return &Variable{name: name, resolved: resolved}
}

// Name returns the variable name including the leading '@'.
func (v *Variable) Name() string { return v.name }

// RawValue returns the unresolved value expression.
func (v *Variable) RawValue() Node {
	if len(v.value) == 1 {
		return v.value[0]
	}
	return List(v.value)
}

// Parse evaluates the value expression against sc.
func (v *Variable) Parse(sc *scope.Scope) (Node, error) {
	if v.resolved != nil {
		return v, nil
	}
	var out List
	var errs []error
	for _, n := range v.value {
		r, err := n.Parse(sc)
		if err != nil {
			errs = append(errs, err)
			r = n
		}
		out = append(out, r)
	}
	if len(out) == 1 {
		v.resolved = out[0]
	} else {
		v.resolved = out
	}
	return v, errors.Join(errs...)
}

// Resolved returns the evaluated value, or the raw expression if the
// variable has not been resolved yet.
func (v *Variable) Resolved() Node {
	if v.resolved != nil {
		return v.resolved
	}
	return v.RawValue()
}

// Clone returns an unresolved copy. Mixin calls clone body variables so
// each invocation re-resolves against its own frame.
func (v *Variable) Clone() *Variable {
	value := make([]Node, len(v.value))
	copy(value, v.value)
	c := &Variable{name: v.name, value: value, Line: v.Line}
	if v.value == nil {
		c.resolved = v.resolved
	}
	return c
}

func (v *Variable) String() string {
	return v.name + ": " + v.Resolved().String()
}

// Property is a single style declaration: a key, a style-value list, and
// an optional !important marker.
type Property struct {
	Key       string
	Values    []Node
	Important bool
	Line      int

	resolved List
}

// NewProperty returns an unresolved property declaration.
func NewProperty(key string, values []Node, important bool, line int) *Property {
	return &Property{Key: key, Values: values, Important: important, Line: line}
}

// Parse evaluates the style values against sc. Resolution happens once;
// the values bind to the scope as of the first Parse. A failing value
// keeps its raw form so the declaration stays printable.
func (p *Property) Parse(sc *scope.Scope) (Node, error) {
	if p.resolved != nil {
		return p, nil
	}
	var errs []error
	for _, n := range p.Values {
		r, err := n.Parse(sc)
		if err != nil {
			errs = append(errs, err)
			r = n
		}
		if l, ok := r.(List); ok {
			p.resolved = append(p.resolved, l...)
			continue
		}
		p.resolved = append(p.resolved, r)
	}
	return p, errors.Join(errs...)
}

// Resolved returns the evaluated style values, or the raw values if the
// property has not been resolved yet.
func (p *Property) Resolved() []Node {
	if p.resolved != nil {
		return p.resolved
	}
	return p.Values
}

// Clone returns a copy sharing the raw value nodes. Resolved values carry
// over, so a property that already bound against its declaring frame stays
// bound; an unresolved clone (a mixin body property) re-resolves on Parse.
func (p *Property) Clone() *Property {
	values := make([]Node, len(p.Values))
	copy(values, p.Values)
	c := &Property{Key: p.Key, Values: values, Important: p.Important, Line: p.Line}
	if p.resolved != nil {
		c.resolved = make(List, len(p.resolved))
		copy(c.resolved, p.resolved)
	}
	return c
}

func (p *Property) String() string {
	var buf bytes.Buffer
	buf.WriteString(p.Key)
	buf.WriteString(": ")
	buf.WriteString(joinValues(p.Resolved()))
	if p.Important {
		buf.WriteString(" !important")
	}
	return buf.String()
}

// joinValues renders a style-value list with single spaces between values
// and no space after a comma's preceding value.
func joinValues(values []Node) string {
	var buf bytes.Buffer
	for i, n := range values {
		if w, ok := n.(*Word); ok && w.Text == "," {
			buf.WriteString(",")
			continue
		}
		if i > 0 {
			buf.WriteString(" ")
		}
		buf.WriteString(n.String())
	}
	return buf.String()
}
