package parser_test

import (
	"strings"
	"testing"

	"github.com/mheilman/lesscpy/parser"
	"github.com/mheilman/lesscpy/printer"
)

// compile runs src through a fresh parser and renders the result.
func compile(t *testing.T, src string) (string, *parser.Parser) {
	t.Helper()
	p := parser.New()
	units, err := p.Parse(strings.NewReader(src), "test.less")
	if err != nil {
		t.Fatalf("fatal parse error: %v", err)
	}
	out, err := printer.New().String(units)
	if err != nil {
		t.Fatalf("print error: %v", err)
	}
	return out, p
}

// Ensure whole stylesheets reduce to the expected CSS.
func TestParser_Compile(t *testing.T) {
	var tests = []struct {
		s   string
		css string
	}{
		{
			s:   `a { color: red; }`,
			css: "a {\n  color: red;\n}\n",
		},
		{
			// Whitespace is insignificant around structure.
			s:   `a{b:c;}`,
			css: "a {\n  b: c;\n}\n",
		},
		{
			s:   `@charset "utf-8";`,
			css: "@charset \"utf-8\";\n",
		},
		{
			s:   `a { width: 2 + 3 * 4; }`,
			css: "a {\n  width: 14;\n}\n",
		},
		{
			s:   `a { width: (2 + 3) * 4px; }`,
			css: "a {\n  width: 20px;\n}\n",
		},
		{
			s:   `a { margin: -(2px + 3px); }`,
			css: "a {\n  margin: -5px;\n}\n",
		},
		{
			s:   `@w: 10px; a { width: @w; }`,
			css: "a {\n  width: 10px;\n}\n",
		},
		{
			s:   `a { margin: 0 auto; }`,
			css: "a {\n  margin: 0 auto;\n}\n",
		},
		{
			s:   `a { font-family: Arial, sans-serif; }`,
			css: "a {\n  font-family: Arial, sans-serif;\n}\n",
		},
		{
			s:   `a { color: red !important; }`,
			css: "a {\n  color: red !important;\n}\n",
		},
		{
			// IE star hack merges into the property key.
			s:   `a { *width: 1px; }`,
			css: "a {\n  *width: 1px;\n}\n",
		},
		{
			s:   `.a { width: 2px; .b { width: 1px; } }`,
			css: ".a {\n  width: 2px;\n}\n.a .b {\n  width: 1px;\n}\n",
		},
		{
			s:   `.a { &:hover { color: red; } }`,
			css: ".a:hover {\n  color: red;\n}\n",
		},
		{
			s:   `.a, .b { .c { color: red; } }`,
			css: ".a .c, .b .c {\n  color: red;\n}\n",
		},
		{
			s:   `.m(@c) { color: @c; } .a { .m(#fff); }`,
			css: ".a {\n  color: #fff;\n}\n",
		},
		{
			s:   `.m(@w: 1px, @h: 2px) { width: @w; height: @h; } .a { .m(@h: 9px); }`,
			css: ".a {\n  width: 1px;\n  height: 9px;\n}\n",
		},
		{
			// A call inside a mixin body defers until the outer call
			// provides concrete values.
			s:   `.inner(@c) { color: @c; } .outer(@c) { .inner(@c); } .a { .outer(#f00); }`,
			css: ".a {\n  color: #f00;\n}\n",
		},
		{
			// Bare identifier reuse inlines the block's declarations.
			s:   `.a { width: 1px; } .b { .a; }`,
			css: ".a {\n  width: 1px;\n}\n.b {\n  width: 1px;\n}\n",
		},
		{
			// Parenthesized reuse falls back to the block when no
			// mixin matches.
			s:   `.a { width: 1px; } .b { .a(); }`,
			css: ".a {\n  width: 1px;\n}\n.b {\n  width: 1px;\n}\n",
		},
		{
			s:   "@name: banner; a { content: \"@{name}!\"; }",
			css: "a {\n  content: \"banner!\";\n}\n",
		},
		{
			s:   `a { filter: ~"ms:alwaysHasItsOwnSyntax()"; }`,
			css: "a {\n  filter: ms:alwaysHasItsOwnSyntax();\n}\n",
		},
		{
			s:   `@media print { .a { color: red; } }`,
			css: "@media print {\n  .a {\n    color: red;\n  }\n}\n",
		},
		{
			s:   `@media (min-width: 600px) { .a { color: red; } }`,
			css: "@media (min-width: 600px) {\n  .a {\n    color: red;\n  }\n}\n",
		},
		{
			s:   `a { background: url(img/dot.png) no-repeat; }`,
			css: "a {\n  background: url(img/dot.png) no-repeat;\n}\n",
		},
		{
			// Comments vanish.
			s:   "/* note */ a { // inline\n color: red; }",
			css: "a {\n  color: red;\n}\n",
		},
	}

	for i, tt := range tests {
		css, p := compile(t, tt.s)
		if css != tt.css {
			t.Errorf("%d. <%q>\n\nexp: %q\n\ngot: %q", i, tt.s, tt.css, css)
		}
		for _, d := range p.Diagnostics() {
			t.Errorf("%d. <%q> unexpected diagnostic: %s", i, tt.s, d)
		}
		if p.Scope().Depth() != 1 {
			t.Errorf("%d. <%q> scope depth: exp=1, got=%d", i, tt.s, p.Scope().Depth())
		}
	}
}

// Ensure inner frames shadow outer variables and die with their block.
func TestParser_Shadowing(t *testing.T) {
	css, p := compile(t, `@w: 1px; a { @w: 2px; width: @w; } b { width: @w; }`)
	exp := "a {\n  width: 2px;\n}\nb {\n  width: 1px;\n}\n"
	if css != exp {
		t.Fatalf("exp=%q, got=%q", exp, css)
	}
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
}

// Ensure the selector context dies with its block: a top-level call
// after a block closes must not nest under that block's selector.
func TestParser_ContextDiesWithBlock(t *testing.T) {
	css, p := compile(t, `.m() { .x { color: red; } } .a { k: v; } .m();`)
	exp := ".a {\n  k: v;\n}\n.x {\n  color: red;\n}\n"
	if css != exp {
		t.Fatalf("exp=%q, got=%q", exp, css)
	}
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
}

// Ensure block reuse keeps values bound in the source block's own frame,
// including variables local to that frame.
func TestParser_BlockReuseLocalVariable(t *testing.T) {
	css, p := compile(t, `.a { @v: 1px; width: @v; } .b { .a; }`)
	exp := ".a {\n  width: 1px;\n}\n.b {\n  width: 1px;\n}\n"
	if css != exp {
		t.Fatalf("exp=%q, got=%q", exp, css)
	}
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
}

// Ensure a call to an unknown name produces one diagnostic and the
// sibling declarations survive.
func TestParser_UnresolvedCall(t *testing.T) {
	css, p := compile(t, `.a { .ghost; width: 1px; }`)
	exp := ".a {\n  width: 1px;\n}\n"
	if css != exp {
		t.Fatalf("exp=%q, got=%q", exp, css)
	}
	diags := p.Diagnostics()
	if len(diags) != 1 {
		t.Fatalf("diagnostics: exp=1, got=%d (%v)", len(diags), diags)
	}
	if diags[0].Severity != parser.SeverityError {
		t.Fatalf("severity: exp=error, got=%s", diags[0].Severity)
	}
	if !strings.Contains(diags[0].Message, "call unknown block `.ghost`") {
		t.Fatalf("message: got=%q", diags[0].Message)
	}
	if p.Err() == nil {
		t.Fatal("Err must report error-severity diagnostics")
	}
}

// Ensure an undefined variable reference is reported and the rest of the
// rule still renders.
func TestParser_UndefinedVariable(t *testing.T) {
	css, p := compile(t, `a { width: @nope; color: red; }`)
	if !strings.Contains(css, "color: red;") {
		t.Fatalf("sibling lost: %q", css)
	}
	found := false
	for _, d := range p.Diagnostics() {
		if strings.Contains(d.Message, "undefined variable @nope") {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing diagnostic, got=%v", p.Diagnostics())
	}
}

// Ensure a stray closing brace is reported and parsing resumes.
func TestParser_StrayBrace(t *testing.T) {
	css, p := compile(t, `} a { color: red; }`)
	exp := "a {\n  color: red;\n}\n"
	if css != exp {
		t.Fatalf("exp=%q, got=%q", exp, css)
	}
	if len(p.Diagnostics()) != 1 {
		t.Fatalf("diagnostics: exp=1, got=%v", p.Diagnostics())
	}
	if p.Scope().Depth() != 1 {
		t.Fatalf("scope depth: exp=1, got=%d", p.Scope().Depth())
	}
}

// Ensure malformed declarations are discarded up to the end of the
// declaration while the enclosing block survives.
func TestParser_Recovery(t *testing.T) {
	css, p := compile(t, "a { color: red !banana; width: 1px; }")
	if !strings.Contains(css, "width: 1px;") {
		t.Fatalf("sibling lost: %q", css)
	}
	if len(p.Diagnostics()) == 0 {
		t.Fatal("expected at least one diagnostic")
	}
	if p.Scope().Depth() != 1 {
		t.Fatalf("scope depth: exp=1, got=%d", p.Scope().Depth())
	}
}

// Ensure a mixin declaration emits nothing by itself.
func TestParser_MixinEmitsNothing(t *testing.T) {
	css, p := compile(t, `.m(@c) { color: @c; }`)
	if css != "" {
		t.Fatalf("exp empty output, got=%q", css)
	}
	if len(p.Diagnostics()) != 0 {
		t.Fatalf("unexpected diagnostics: %v", p.Diagnostics())
	}
}

// Ensure calling a mixin immediately and calling it through a one-level
// wrapper produce the same declarations.
func TestParser_DeferredEquivalence(t *testing.T) {
	direct, _ := compile(t, `.m(@w) { width: @w; } .a { .m(4px); }`)
	wrapped, _ := compile(t, `.m(@w) { width: @w; } .wrap(@w) { .m(@w); } .a { .wrap(4px); }`)
	d := strings.TrimPrefix(direct, "")
	if !strings.Contains(wrapped, d[strings.Index(d, ".a"):]) {
		t.Fatalf("deferred expansion differs:\ndirect:  %q\nwrapped: %q", direct, wrapped)
	}
}
