// Package printer renders a resolved unit list as CSS text, either
// readable or minified.
package printer

import (
	"bytes"
	"io"
	"strings"

	"github.com/tdewolff/minify/v2"
	mincss "github.com/tdewolff/minify/v2/css"

	"github.com/mheilman/lesscpy/ast"
)

// Printer renders unit lists. The zero value prints readable CSS with a
// two-space indent.
type Printer struct {
	// Indent is the per-level indentation. Empty means two spaces.
	Indent string
	// Minify runs the rendered text through a CSS minifier.
	Minify bool
}

// New returns a readable-output printer.
func New() *Printer { return &Printer{} }

// Fprint renders units to w.
func (p *Printer) Fprint(w io.Writer, units ast.List) error {
	var buf bytes.Buffer
	for _, u := range units {
		p.printUnit(&buf, u)
	}
	if p.Minify {
		m := minify.New()
		m.AddFunc("text/css", mincss.Minify)
		out, err := m.String("text/css", buf.String())
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, out)
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// String renders units to a string.
func (p *Printer) String(units ast.List) (string, error) {
	var buf bytes.Buffer
	if err := p.Fprint(&buf, units); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (p *Printer) indent() string {
	if p.Indent == "" {
		return "  "
	}
	return p.Indent
}

func (p *Printer) printUnit(buf *bytes.Buffer, n ast.Node) {
	switch n := n.(type) {
	case *ast.Statement:
		buf.WriteString(n.String())
		buf.WriteString("\n")
	case *ast.Block:
		p.printBlock(buf, n, "")
	case ast.List:
		for _, u := range n {
			p.printUnit(buf, u)
		}
	case *ast.Property:
		// A property expanded at the top level has no rule to live
		// in; emit it bare so the output stays inspectable.
		buf.WriteString(n.String())
		buf.WriteString(";\n")
	}
}

// printBlock renders one rule. Nested rules are hoisted after their
// parent with their already-composed selectors, except under an at-rule
// container, where they render inside the container's braces.
func (p *Printer) printBlock(buf *bytes.Buffer, b *ast.Block, prefix string) {
	props, nested := splitDecls(b.Decls)

	if isAtContainer(b) {
		buf.WriteString(prefix)
		buf.WriteString(b.Ident.String())
		buf.WriteString(" {\n")
		for _, d := range props {
			p.printDecl(buf, d, prefix+p.indent())
		}
		for _, nb := range nested {
			p.printBlock(buf, nb, prefix+p.indent())
		}
		buf.WriteString(prefix)
		buf.WriteString("}\n")
		return
	}

	if len(props) > 0 {
		buf.WriteString(prefix)
		buf.WriteString(b.Ident.String())
		buf.WriteString(" {\n")
		for _, d := range props {
			p.printDecl(buf, d, prefix+p.indent())
		}
		buf.WriteString(prefix)
		buf.WriteString("}\n")
	}
	for _, nb := range nested {
		p.printBlock(buf, nb, prefix)
	}
}

func (p *Printer) printDecl(buf *bytes.Buffer, n ast.Node, prefix string) {
	buf.WriteString(prefix)
	buf.WriteString(n.String())
	switch n.(type) {
	case *ast.Statement:
		buf.WriteString("\n")
	default:
		buf.WriteString(";\n")
	}
}

// splitDecls partitions a declaration list into printable declarations
// and nested rules, flattening expanded call results in place.
func splitDecls(decls []ast.Node) (props []ast.Node, nested []*ast.Block) {
	for _, d := range decls {
		switch d := d.(type) {
		case nil:
		case *ast.Block:
			nested = append(nested, d)
		case ast.List:
			pp, nn := splitDecls(d)
			props = append(props, pp...)
			nested = append(nested, nn...)
		case *ast.Variable, *ast.Mixin, *ast.Deferred:
			// Definitions and unresolved deferrals do not render.
		default:
			props = append(props, d)
		}
	}
	return props, nested
}

// isAtContainer reports whether the block is an at-rule container such
// as @media or @keyframes.
func isAtContainer(b *ast.Block) bool {
	groups := b.Ident.Groups()
	return len(groups) > 0 && strings.HasPrefix(groups[0], "@")
}
