package ast_test

import (
	"strings"
	"testing"

	"github.com/mheilman/lesscpy/ast"
	"github.com/mheilman/lesscpy/scope"
)

// Ensure selector identifiers compose against the enclosing context:
// groups cross, "&" splices the parent in place.
func TestIdentifier_Parse(t *testing.T) {
	var tests = []struct {
		parent []string
		own    []string
		v      string
	}{
		{parent: nil, own: []string{".a"}, v: `.a`},
		{parent: []string{".p"}, own: []string{".a"}, v: `.p .a`},
		{parent: []string{".p"}, own: []string{"&", ":", "hover"}, v: `.p:hover`},
		{parent: []string{".p"}, own: []string{"&", ".b"}, v: `.p.b`},
		{parent: []string{".p", ",", ".q"}, own: []string{".a", ",", ".b"}, v: `.p .a, .p .b, .q .a, .q .b`},
		{parent: []string{".p"}, own: []string{">", ".a"}, v: `.p > .a`},
	}

	for i, tt := range tests {
		sc := scope.New()
		if tt.parent != nil {
			parent := ast.NewIdentifier(tt.parent, 0)
			parent.Parse(sc)
			sc.Push()
			sc.SetCurrent(parent)
		}
		id := ast.NewIdentifier(tt.own, 0)
		if _, err := id.Parse(sc); err != nil {
			t.Errorf("%d. unexpected error: %v", i, err)
			continue
		}
		if id.String() != tt.v {
			t.Errorf("%d. exp=%q, got=%q", i, tt.v, id.String())
		}
	}
}

// Ensure the raw lookup key is independent of the selector context.
func TestIdentifier_Raw(t *testing.T) {
	sc := scope.New()
	parent := ast.NewIdentifier([]string{".p"}, 0)
	parent.Parse(sc)
	sc.Push()
	sc.SetCurrent(parent)

	id := ast.NewIdentifier([]string{".mixin"}, 0)
	id.Parse(sc)
	if id.Raw() != ".mixin" {
		t.Fatalf("raw key must ignore context: got=%q", id.Raw())
	}
	if id.String() != ".p .mixin" {
		t.Fatalf("composed: exp=%q, got=%q", ".p .mixin", id.String())
	}
}

func mustProperty(t *testing.T, key string, values ...ast.Node) *ast.Property {
	t.Helper()
	return ast.NewProperty(key, values, false, 0)
}

// Ensure calling a mixin binds positionally, seeds defaults, honors
// keyword overrides, and exposes @arguments.
func TestMixin_Call(t *testing.T) {
	ident := ast.NewIdentifier([]string{".m"}, 0)
	params := []ast.Node{
		&ast.VarRef{Name: "@w"},
		ast.NewVariable("@h", []ast.Node{&ast.Number{Value: 2, Unit: "px"}}, 0),
	}
	body := []ast.Node{
		mustProperty(t, "width", &ast.VarRef{Name: "@w"}),
		mustProperty(t, "height", &ast.VarRef{Name: "@h"}),
		mustProperty(t, "all", &ast.VarRef{Name: "@arguments"}),
	}
	m := ast.NewMixin(ident, params, body, 0)

	sc := scope.New()
	out, err := m.Call(sc, []ast.Node{&ast.Number{Value: 1, Unit: "px"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "width: 1px height: 2px all: 1px 2px" {
		t.Fatalf("default binding: got=%q", got)
	}

	out, err = m.Call(sc, []ast.Node{
		&ast.Number{Value: 1, Unit: "px"},
		ast.NewVariable("@h", []ast.Node{&ast.Number{Value: 9, Unit: "px"}}, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "width: 1px height: 9px all: 1px 9px" {
		t.Fatalf("keyword override: got=%q", got)
	}

	if sc.Depth() != 1 {
		t.Fatalf("call frame leaked, depth=%d", sc.Depth())
	}
}

// Ensure argument mismatches fail with a mixin-shaped message.
func TestMixin_CallErrors(t *testing.T) {
	ident := ast.NewIdentifier([]string{".m"}, 0)
	m := ast.NewMixin(ident, []ast.Node{&ast.VarRef{Name: "@w"}}, nil, 0)
	sc := scope.New()

	if _, err := m.Call(sc, nil); err == nil || !strings.Contains(err.Error(), "missing argument @w") {
		t.Fatalf("missing argument: got=%v", err)
	}
	args := []ast.Node{&ast.Number{Value: 1}, &ast.Number{Value: 2}}
	if _, err := m.Call(sc, args); err == nil || !strings.Contains(err.Error(), "takes 1 arguments") {
		t.Fatalf("arity: got=%v", err)
	}
	kw := []ast.Node{ast.NewVariable("@nope", []ast.Node{&ast.Number{Value: 1}}, 0)}
	if _, err := m.Call(sc, kw); err == nil || !strings.Contains(err.Error(), "no parameter @nope") {
		t.Fatalf("unknown keyword: got=%v", err)
	}
}

// Ensure variables declared in a mixin body re-bind on every call.
func TestMixin_BodyVariables(t *testing.T) {
	ident := ast.NewIdentifier([]string{".m"}, 0)
	params := []ast.Node{&ast.VarRef{Name: "@base"}}
	body := []ast.Node{
		ast.NewVariable("@double", []ast.Node{
			&ast.Expression{Op: "*", Left: &ast.VarRef{Name: "@base"}, Right: &ast.Number{Value: 2}},
		}, 0),
		mustProperty(t, "width", &ast.VarRef{Name: "@double"}),
	}
	m := ast.NewMixin(ident, params, body, 0)

	sc := scope.New()
	out, err := m.Call(sc, []ast.Node{&ast.Number{Value: 3, Unit: "em"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "width: 6em" {
		t.Fatalf("first call: got=%q", got)
	}

	out, err = m.Call(sc, []ast.Node{&ast.Number{Value: 5, Unit: "em"}})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "width: 10em" {
		t.Fatalf("second call must re-bind: got=%q", got)
	}
}

// Ensure a deferred call inside a mixin body resolves when the enclosing
// mixin is invoked, seeing the caller's bindings.
func TestDeferred_Parse(t *testing.T) {
	sc := scope.New()

	inner := ast.NewMixin(
		ast.NewIdentifier([]string{".inner"}, 0),
		[]ast.Node{&ast.VarRef{Name: "@c"}},
		[]ast.Node{mustProperty(t, "color", &ast.VarRef{Name: "@c"})},
		0,
	)
	sc.AddMixin(inner)

	outer := ast.NewMixin(
		ast.NewIdentifier([]string{".outer"}, 0),
		[]ast.Node{&ast.VarRef{Name: "@c"}},
		[]ast.Node{&ast.Deferred{Target: inner, Args: []ast.Node{&ast.VarRef{Name: "@c"}}}},
		0,
	)
	sc.AddMixin(outer)

	red, _ := ast.NewColor("#f00")
	out, err := outer.Call(sc, []ast.Node{red})
	if err != nil {
		t.Fatal(err)
	}
	if got := out.String(); got != "color: #f00" {
		t.Fatalf("deferred expansion: got=%q", got)
	}

	// A deferred identifier that never resolves is an error.
	d := &ast.Deferred{Target: ast.NewIdentifier([]string{".ghost"}, 0)}
	if _, err := d.Parse(sc); err == nil || !strings.Contains(err.Error(), "call unknown mixin `.ghost`") {
		t.Fatalf("unknown deferred: got=%v", err)
	}
}

// Ensure a block copy re-resolves against the destination context.
func TestBlock_Copy(t *testing.T) {
	sc := scope.New()

	ident := ast.NewIdentifier([]string{".src"}, 0)
	ident.Parse(sc)
	sc.Push()
	sc.SetCurrent(ident)
	prop := mustProperty(t, "width", &ast.Number{Value: 10, Unit: "px"})
	prop.Parse(sc)
	sc.Pop()
	block := ast.NewBlock(ident, []ast.Node{prop}, 0)
	block.Parse(sc)
	sc.AddBlock(block)

	dst := ast.NewIdentifier([]string{".dst"}, 0)
	dst.Parse(sc)
	sc.Push()
	sc.SetCurrent(dst)
	cp, err := block.Copy(sc)
	sc.Pop()
	if err != nil {
		t.Fatal(err)
	}
	if cp.Ident.String() != ".dst .src" {
		t.Fatalf("copy ident: exp=%q, got=%q", ".dst .src", cp.Ident.String())
	}
	if len(cp.Decls) != 1 || cp.Decls[0].String() != "width: 10px" {
		t.Fatalf("copy decls: got=%v", cp.Decls)
	}
	// The source block must be untouched.
	if block.Ident.String() != ".src" {
		t.Fatalf("source mutated: %q", block.Ident.String())
	}
}
