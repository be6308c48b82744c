package printer_test

import (
	"strings"
	"testing"

	"github.com/mheilman/lesscpy/ast"
	"github.com/mheilman/lesscpy/printer"
)

func rule(sel string, decls ...ast.Node) *ast.Block {
	return ast.NewBlock(ast.NewIdentifier([]string{sel}, 0), decls, 0)
}

func prop(key string, values ...ast.Node) *ast.Property {
	return ast.NewProperty(key, values, false, 0)
}

// Ensure readable output renders rules with indentation and hoists
// nested rules after their parent.
func TestPrinter_Readable(t *testing.T) {
	units := ast.List{
		&ast.Statement{Name: "@charset", Parts: []ast.Node{&ast.String{Text: "utf-8", Ending: '"'}}},
		rule(".a",
			prop("width", &ast.Number{Value: 10, Unit: "px"}),
			rule(".a .b", prop("color", &ast.Word{Text: "red"})),
		),
	}

	out, err := printer.New().String(units)
	if err != nil {
		t.Fatal(err)
	}
	exp := "@charset \"utf-8\";\n" +
		".a {\n  width: 10px;\n}\n" +
		".a .b {\n  color: red;\n}\n"
	if out != exp {
		t.Fatalf("exp=%q, got=%q", exp, out)
	}
}

// Ensure rules with no printable declarations are dropped.
func TestPrinter_EmptyRule(t *testing.T) {
	units := ast.List{rule(".empty")}
	out, err := printer.New().String(units)
	if err != nil {
		t.Fatal(err)
	}
	if out != "" {
		t.Fatalf("exp empty, got=%q", out)
	}
}

// Ensure at-rule containers render their children nested inside braces.
func TestPrinter_AtContainer(t *testing.T) {
	units := ast.List{
		rule("@media print",
			rule(".a", prop("color", &ast.Word{Text: "red"})),
		),
	}
	out, err := printer.New().String(units)
	if err != nil {
		t.Fatal(err)
	}
	exp := "@media print {\n  .a {\n    color: red;\n  }\n}\n"
	if out != exp {
		t.Fatalf("exp=%q, got=%q", exp, out)
	}
}

// Ensure the minified mode collapses whitespace.
func TestPrinter_Minify(t *testing.T) {
	units := ast.List{
		rule(".a",
			prop("width", &ast.Number{Value: 10, Unit: "px"}),
			prop("color", &ast.Word{Text: "red"}),
		),
	}
	p := &printer.Printer{Minify: true}
	out, err := p.String(units)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "\n") || strings.Contains(out, "  ") {
		t.Fatalf("minified output still has layout whitespace: %q", out)
	}
	if !strings.Contains(out, ".a{") {
		t.Fatalf("unexpected minified shape: %q", out)
	}
}
