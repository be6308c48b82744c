package parser

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mheilman/lesscpy/ast"
	"github.com/mheilman/lesscpy/token"
)

// maxImportDepth bounds the recursive import chain. The root target sits
// at level 0; the check fires before a child parser would be created.
const maxImportDepth = 8

// ErrImportDepth is the fatal error returned when the recursive import
// chain exceeds maxImportDepth levels. Unlike every other problem it
// aborts the compile, since an import cycle would otherwise recurse
// forever.
var ErrImportDepth = errors.New("import depth limit exceeded")

// parseStatement reduces a simple at-statement (@charset, @namespace)
// into a passthrough node. The at token has been consumed.
func (p *Parser) parseStatement(at *token.Token) ast.Node {
	prelude, _ := p.bufferPrelude()
	parts := p.parseStyleList(NewTokenScanner(prelude))
	return &ast.Statement{Name: at.Value, Parts: parts, Line: at.Pos.Line}
}

// parseImport reduces an @import statement. A target with a .less
// extension (or none) compiles recursively through an independent parser
// and splices its units and global scope into this compile; any other
// extension passes through as a plain CSS statement. A missing file is a
// warning, not an error.
func (p *Parser) parseImport(at *token.Token) (ast.Node, error) {
	prelude, _ := p.bufferPrelude()
	line := at.Pos.Line

	ipath, ok := importPath(prelude)
	if !ok {
		p.errorf(line, "malformed @import")
		return nil, nil
	}

	ext := filepath.Ext(ipath)
	switch ext {
	case "":
		ipath += ".less"
	case ".less":
	default:
		// Plain CSS import, emit as-is.
		parts := p.parseStyleList(NewTokenScanner(prelude))
		return &ast.Statement{Name: at.Value, Parts: parts, Line: line}, nil
	}

	if p.importLevel+1 > maxImportDepth {
		return nil, fmt.Errorf("%s:%d: %w", p.target, line, ErrImportDepth)
	}

	full := ipath
	if !strings.HasPrefix(ipath, "/") {
		full = filepath.Join(filepath.Dir(p.target), ipath)
	}
	if _, err := p.fls.Stat(full); err != nil {
		p.warnf(line, "cannot import '%s', file not found", ipath)
		return nil, nil
	}
	f, err := p.fls.Open(full)
	if err != nil {
		p.warnf(line, "cannot import '%s': %s", ipath, err)
		return nil, nil
	}
	defer f.Close()

	child := New(
		WithFilesystem(p.fls),
		WithLogger(p.logger),
		Verbose(p.verbose),
		withImportLevel(p.importLevel+1),
	)
	units, err := child.Parse(f, full)
	p.diags = append(p.diags, child.diags...)
	if err != nil {
		return units, err
	}

	// Splice the imported file's global frame into the current frame.
	// Names already declared here win over imported ones.
	p.scope.Update(child.scope)
	return units, nil
}

// importPath extracts the import target from the statement's prelude.
func importPath(prelude []*token.Token) (string, bool) {
	ts := NewTokenScanner(prelude)
	tok := nextNonWS(ts)
	if tok == nil {
		return "", false
	}
	switch tok.Type {
	case token.STRING, token.ISTRING:
		return tok.Value, true
	case token.URI:
		return strings.Trim(tok.Value, `"'`), true
	}
	return "", false
}
