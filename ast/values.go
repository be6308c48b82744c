package ast

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mheilman/lesscpy/scope"
)

// Word is a bare word in value or selector position: an ident, a keyword,
// or punctuation carried through verbatim.
type Word struct {
	Text string
}

// Parse returns the word unchanged.
func (w *Word) Parse(sc *scope.Scope) (Node, error) { return w, nil }

func (w *Word) String() string { return w.Text }

var interpRe = regexp.MustCompile(`@\{([a-zA-Z0-9_-]+)\}`)

// String is a quoted string literal, possibly carrying @{name}
// interpolations.
type String struct {
	Text   string
	Ending rune
}

// Parse substitutes every @{name} interpolation with the variable's value
// from sc. Names with no binding are left in place.
func (s *String) Parse(sc *scope.Scope) (Node, error) {
	if !strings.Contains(s.Text, "@{") {
		return s, nil
	}
	text := interpRe.ReplaceAllStringFunc(s.Text, func(m string) string {
		name := "@" + m[2:len(m)-1]
		v, ok := sc.LookupVariable(name).(*Variable)
		if !ok || v == nil {
			return m
		}
		return unquote(v.Resolved())
	})
	return &String{Text: text, Ending: s.Ending}, nil
}

func (s *String) String() string {
	return string(s.Ending) + s.Text + string(s.Ending)
}

// Number is a numeric literal with an optional unit ("px", "%", ...).
type Number struct {
	Value float64
	Unit  string
}

// Parse returns the number unchanged.
func (n *Number) Parse(sc *scope.Scope) (Node, error) { return n, nil }

func (n *Number) String() string {
	return fmtFloat(n.Value) + n.Unit
}

// fmtFloat renders a float without trailing zeros.
func fmtFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Color is a hex color literal, normalized to lowercase. The original
// 3- or 6-digit shape is preserved for output.
type Color struct {
	R, G, B uint8
	raw     string
}

// NewColor validates and canonicalizes a raw hex literal. Malformed
// literals fail with a value-format error; the reducer downgrades that to
// a warning and keeps the raw text.
func NewColor(raw string) (*Color, error) {
	s := strings.ToLower(strings.TrimPrefix(raw, "#"))
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return nil, fmt.Errorf("illegal color value `%s`", raw)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("illegal color value `%s`", raw)
	}
	return &Color{
		R:   uint8(v >> 16),
		G:   uint8(v >> 8),
		B:   uint8(v),
		raw: strings.ToLower(raw),
	}, nil
}

func rgb(r, g, b int) *Color {
	c := &Color{R: clampChannel(r), G: clampChannel(g), B: clampChannel(b)}
	c.raw = fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	return c
}

func clampChannel(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Parse returns the color unchanged.
func (c *Color) Parse(sc *scope.Scope) (Node, error) { return c, nil }

func (c *Color) String() string { return c.raw }

// VarRef is a reference to a variable in value position.
type VarRef struct {
	Name string
	Line int
}

// Parse resolves the reference top-down through sc. An undefined name is
// an error; the caller decides the severity.
func (r *VarRef) Parse(sc *scope.Scope) (Node, error) {
	v, ok := sc.LookupVariable(r.Name).(*Variable)
	if !ok || v == nil {
		return r, fmt.Errorf("undefined variable %s", r.Name)
	}
	if _, err := v.Parse(sc); err != nil {
		return r, err
	}
	return v.Resolved(), nil
}

func (r *VarRef) String() string { return r.Name }

// Expression is a binary arithmetic node. Operands reduce with the fixed
// precedence table ('+' '-' below '*' '/', all left-associative).
type Expression struct {
	Op    string
	Left  Node
	Right Node
}

// Parse evaluates both operands and applies the operator. Numeric and
// color operands compute; anything else joins textually, which covers
// shorthand values like "12px/1.5".
func (e *Expression) Parse(sc *scope.Scope) (Node, error) {
	left, err := e.Left.Parse(sc)
	if err != nil {
		return e, err
	}
	right, err := e.Right.Parse(sc)
	if err != nil {
		return e, err
	}
	return operate(e.Op, left, right)
}

func (e *Expression) String() string {
	return e.Left.String() + " " + e.Op + " " + e.Right.String()
}

// operate applies op to two resolved operands.
func operate(op string, left, right Node) (Node, error) {
	switch l := left.(type) {
	case *Number:
		switch r := right.(type) {
		case *Number:
			unit := l.Unit
			if unit == "" {
				unit = r.Unit
			}
			v, err := arith(op, l.Value, r.Value)
			if err != nil {
				return nil, err
			}
			return &Number{Value: v, Unit: unit}, nil
		case *Color:
			return numColorOp(op, l, r)
		}
	case *Color:
		switch r := right.(type) {
		case *Number:
			return colorOp(op, l, r)
		case *Color:
			g1, err := arith(op, float64(l.G), float64(r.G))
			if err != nil {
				return nil, err
			}
			b1, err := arith(op, float64(l.B), float64(r.B))
			if err != nil {
				return nil, err
			}
			r1, err := arith(op, float64(l.R), float64(r.R))
			if err != nil {
				return nil, err
			}
			return rgb(int(r1), int(g1), int(b1)), nil
		}
	}
	return &Word{Text: left.String() + op + right.String()}, nil
}

// colorOp applies op channel-wise with the color on the left.
func colorOp(op string, c *Color, n *Number) (Node, error) {
	r, err := arith(op, float64(c.R), n.Value)
	if err != nil {
		return nil, err
	}
	g, err := arith(op, float64(c.G), n.Value)
	if err != nil {
		return nil, err
	}
	b, err := arith(op, float64(c.B), n.Value)
	if err != nil {
		return nil, err
	}
	return rgb(int(r), int(g), int(b)), nil
}

// numColorOp applies op channel-wise with the number on the left, which
// matters for the non-commutative operators.
func numColorOp(op string, n *Number, c *Color) (Node, error) {
	r, err := arith(op, n.Value, float64(c.R))
	if err != nil {
		return nil, err
	}
	g, err := arith(op, n.Value, float64(c.G))
	if err != nil {
		return nil, err
	}
	b, err := arith(op, n.Value, float64(c.B))
	if err != nil {
		return nil, err
	}
	return rgb(int(r), int(g), int(b)), nil
}

func arith(op string, l, r float64) (float64, error) {
	switch op {
	case "+":
		return l + r, nil
	case "-":
		return l - r, nil
	case "*":
		return l * r, nil
	case "/":
		if r == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return l / r, nil
	}
	return 0, fmt.Errorf("unknown operator %q", op)
}

// Negate wraps a parenthesized sub-expression negated with a leading '-'.
type Negate struct {
	Expr Node
}

func (*Negate) node() {}

// Parse evaluates the inner expression and flips its sign.
func (n *Negate) Parse(sc *scope.Scope) (Node, error) {
	inner, err := n.Expr.Parse(sc)
	if err != nil {
		return n, err
	}
	if num, ok := inner.(*Number); ok {
		return &Number{Value: -num.Value, Unit: num.Unit}, nil
	}
	return &Word{Text: "-(" + inner.String() + ")"}, nil
}

func (n *Negate) String() string { return "-(" + n.Expr.String() + ")" }

// Call is a CSS function call such as rgba(0, 0, 0, 0.5). Arguments
// resolve against the scope; the call itself renders through.
type Call struct {
	Name string
	Args []Node
}

// Parse resolves the arguments in place.
func (c *Call) Parse(sc *scope.Scope) (Node, error) {
	args := make([]Node, len(c.Args))
	for i, a := range c.Args {
		r, err := a.Parse(sc)
		if err != nil {
			return c, err
		}
		args[i] = r
	}
	return &Call{Name: c.Name, Args: args}, nil
}

func (c *Call) String() string {
	return c.Name + "(" + joinValues(c.Args) + ")"
}

// Format is the interpolated-string call form %("fmt", args...). The
// format directives are %s (unquoted), %d (numeric) and %a (verbatim).
type Format struct {
	Fmt  *String
	Args []Node
}

// Parse resolves the arguments and substitutes them into the format
// string left to right.
func (f *Format) Parse(sc *scope.Scope) (Node, error) {
	fmtNode, err := f.Fmt.Parse(sc)
	if err != nil {
		return f, err
	}
	text := fmtNode.(*String).Text

	args := make([]Node, 0, len(f.Args))
	for _, a := range f.Args {
		r, err := a.Parse(sc)
		if err != nil {
			return f, err
		}
		args = append(args, r)
	}

	var buf bytes.Buffer
	ai := 0
	for i := 0; i < len(text); i++ {
		if text[i] != '%' || i+1 >= len(text) {
			buf.WriteByte(text[i])
			continue
		}
		verb := text[i+1]
		if verb != 's' && verb != 'd' && verb != 'a' {
			buf.WriteByte(text[i])
			continue
		}
		i++
		if ai >= len(args) {
			continue
		}
		arg := args[ai]
		ai++
		switch verb {
		case 's':
			buf.WriteString(unquote(arg))
		case 'd':
			if n, ok := arg.(*Number); ok {
				buf.WriteString(fmtFloat(n.Value) + n.Unit)
			} else {
				buf.WriteString(unquote(arg))
			}
		case 'a':
			buf.WriteString(arg.String())
		}
	}
	return &String{Text: buf.String(), Ending: '"'}, nil
}

func (f *Format) String() string {
	var buf bytes.Buffer
	buf.WriteString("%(")
	buf.WriteString(f.Fmt.String())
	for _, a := range f.Args {
		buf.WriteString(", ")
		buf.WriteString(a.String())
	}
	buf.WriteString(")")
	return buf.String()
}

// Escape is the '~' escape form: the inner string renders without quotes
// after interpolation.
type Escape struct {
	Inner Node
}

// Parse resolves the inner value and strips its quotes.
func (e *Escape) Parse(sc *scope.Scope) (Node, error) {
	inner, err := e.Inner.Parse(sc)
	if err != nil {
		return e, err
	}
	return &Word{Text: unquote(inner)}, nil
}

func (e *Escape) String() string { return "~" + e.Inner.String() }

// unquote renders a node without surrounding quotes.
func unquote(n Node) string {
	if s, ok := n.(*String); ok {
		return s.Text
	}
	return n.String()
}
