// Package parser implements the grammar-driven reduction engine for the
// LESS superset of CSS.
//
// Parsing is a single interleaved pass: AST nodes are built bottom-up from
// the token stream while semantic resolution happens as a side effect of
// each production. A variable declaration is added to the scope the
// instant its production fires; a block open pushes a frame and installs
// the selector context before any of the body's declarations are reduced;
// a block close resolves the block against the completed frame and pops
// it on every exit path. Resolution order is therefore source order, which
// gives the language its declare-before-use frame scoping.
package parser

import (
	"io"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/rs/zerolog"

	"github.com/mheilman/lesscpy/ast"
	"github.com/mheilman/lesscpy/scanner"
	"github.com/mheilman/lesscpy/scope"
	"github.com/mheilman/lesscpy/token"
)

// TokenStream is the token source contract consumed by the reducer. The
// grammar needs one token of look-ahead, served through Unscan.
type TokenStream interface {
	Current() *token.Token
	Scan() *token.Token
	Unscan()
}

// Parser compiles one target file. Recursive imports spawn independent
// Parser instances with their own scope and token source.
type Parser struct {
	scope  *scope.Scope
	fls    billy.Filesystem
	logger zerolog.Logger

	target      string
	importLevel int
	verbose     bool

	s     TokenStream
	diags []*Diagnostic
}

// Option configures a Parser.
type Option func(*Parser)

// New returns a parser against the host filesystem rooted at /.
func New(opts ...Option) *Parser {
	p := &Parser{
		scope:  scope.New(),
		fls:    osfs.New("/"),
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WithFilesystem sets the filesystem used to resolve imports.
func WithFilesystem(fls billy.Filesystem) Option {
	return func(p *Parser) { p.fls = fls }
}

// WithLogger sets the logger used for verbose compile tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// Verbose enables per-diagnostic logging.
func Verbose(v bool) Option {
	return func(p *Parser) { p.verbose = v }
}

func withImportLevel(lvl int) Option {
	return func(p *Parser) { p.importLevel = lvl }
}

// Scope returns the parser's scope stack. After a successful Parse the
// stack holds exactly the populated global frame.
func (p *Parser) Scope() *scope.Scope { return p.scope }

// Diagnostics returns every diagnostic recorded during the compile,
// including those of recursively imported files.
func (p *Parser) Diagnostics() []*Diagnostic { return p.diags }

// Err returns the accumulated error-severity diagnostics as an error, or
// nil if only warnings (or nothing) occurred.
func (p *Parser) Err() error {
	var list ErrorList
	for _, d := range p.diags {
		if d.Severity == SeverityError {
			list = append(list, d)
		}
	}
	if len(list) == 0 {
		return nil
	}
	return list
}

// ParseFile compiles the named file from the parser's filesystem.
func (p *Parser) ParseFile(filename string) (ast.List, error) {
	f, err := p.fls.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return p.Parse(f, filename)
}

// Parse compiles r into an ordered sequence of top-level unit nodes and
// populates the global scope frame. The returned error is fatal (import
// recursion depth); all other problems accumulate as diagnostics and the
// partial unit list is still produced.
func (p *Parser) Parse(r io.Reader, filename string) (ast.List, error) {
	p.target = filename
	sc := scanner.New(r)
	p.s = sc
	if p.verbose {
		p.logger.Debug().Str("file", filename).Int("level", p.importLevel).Msg("compiling target")
	}

	units, err := p.parseUnits()

	// Fold scan-level problems into the diagnostics list.
	for _, e := range sc.Errors {
		p.warnf(e.Pos.Line, "%s", e.Message)
	}
	return units, err
}

// parseUnits reduces the top-level unit sequence, flattening expanded
// calls and discarding empty reductions.
func (p *Parser) parseUnits() (ast.List, error) {
	var units ast.List
	for {
		tok := p.scanSkipWS()
		switch tok.Type {
		case token.EOF:
			return units, nil
		case token.CHARSET, token.NAMESPACE:
			units = appendUnit(units, p.parseStatement(tok))
		case token.IMPORT:
			n, err := p.parseImport(tok)
			if err != nil {
				return units, err
			}
			units = appendUnit(units, n)
		case token.RBRACE:
			p.errorf(tok.Pos.Line, "unexpected `}`")
		case token.ILLEGAL:
			p.errorf(tok.Pos.Line, "syntax error, token: `%s`", tok.Value)
			p.recoverDeclaration()
		default:
			p.s.Unscan()
			n, err := p.parseDeclish()
			if err != nil {
				return units, err
			}
			units = appendUnit(units, n)
		}
	}
}

// appendUnit flattens a reduction result into the unit list, dropping
// empty reductions.
func appendUnit(units ast.List, n ast.Node) ast.List {
	switch n := n.(type) {
	case nil:
		return units
	case ast.List:
		return append(units, n...)
	default:
		return append(units, n)
	}
}

// parseDeclish reduces one construct that starts like a declaration: a
// variable declaration, a property declaration, a block or mixin
// declaration, or a mixin/block call. The prelude tokens are buffered up
// to the first `;` or `{` and re-parsed through a fixed TokenScanner once
// the shape is known.
func (p *Parser) parseDeclish() (ast.Node, error) {
	prelude, stop := p.bufferPrelude()

	switch stop {
	case token.LBRACE:
		return p.parseBlockish(prelude)
	case token.SEMICOLON:
		return p.reduceSimple(prelude), nil
	case token.RBRACE, token.EOF:
		// A construct with no terminator. Tolerate a trailing
		// property with a missing semicolon; anything else is a
		// syntax error already reported by bufferPrelude's caller.
		if len(prelude) > 0 {
			return p.reduceSimple(prelude), nil
		}
		return nil, nil
	}
	return nil, nil
}

// bufferPrelude collects tokens until a shape decision is possible. The
// stopping token is consumed but not included. An RBRACE stop is pushed
// back so the enclosing body sees its own terminator.
func (p *Parser) bufferPrelude() ([]*token.Token, token.Type) {
	var buf []*token.Token
	for {
		tok := p.s.Scan()
		switch tok.Type {
		case token.SEMICOLON, token.LBRACE, token.EOF:
			return buf, tok.Type
		case token.RBRACE:
			p.s.Unscan()
			return buf, token.RBRACE
		}
		buf = append(buf, tok)
	}
}

// reduceSimple reduces a semicolon-terminated construct from its buffered
// prelude: variable declaration, property declaration, call-with-
// parentheses, or bare-identifier block reuse.
func (p *Parser) reduceSimple(prelude []*token.Token) ast.Node {
	ts := NewTokenScanner(prelude)
	first := nextNonWS(ts)
	if first == nil {
		return nil
	}

	// variable_decl : variable ':' style_list ';'
	if first.Type == token.VARIABLE {
		if tok := nextNonWS(ts); tok != nil && tok.Type == token.COLON {
			return p.reduceVariableDecl(first, ts)
		}
		ts.Reset()
		return p.reduceCall(prelude, ts)
	}

	// property_decl : prop_open style_list ';' (with the IE '*' hack)
	if isPropertyOpen(prelude) {
		ts.Reset()
		return p.reduceProperty(ts)
	}

	// call_mixin / block_decl : identifier ...
	ts.Reset()
	return p.reduceCall(prelude, ts)
}

// isPropertyOpen reports whether the prelude opens like a property
// declaration: an optional leading '*', one word, then a colon. Selector
// pseudo-filters never match because their colon follows a class, hash,
// filter, or combinator part.
func isPropertyOpen(prelude []*token.Token) bool {
	i := 0
	skip := func() {
		for i < len(prelude) && prelude[i].Type == token.WHITESPACE {
			i++
		}
	}
	skip()
	if i < len(prelude) && prelude[i].Type == token.DELIM && prelude[i].Value == "*" {
		i++
		skip()
	}
	if i >= len(prelude) || prelude[i].Type != token.IDENT {
		return false
	}
	i++
	skip()
	return i < len(prelude) && prelude[i].Type == token.COLON
}

// reduceVariableDecl fires the variable declaration production: the
// variable becomes visible to every reduction after it in the current
// frame. Inside a mixin body the raw declaration node is also emitted so
// the body re-binds it per invocation.
func (p *Parser) reduceVariableDecl(name *token.Token, ts *TokenScanner) ast.Node {
	values := p.parseStyleList(ts)
	v := ast.NewVariable(name.Value, values, name.Pos.Line)
	if p.scope.InMixin() {
		p.scope.AddVariable(v)
		return v
	}
	if _, err := v.Parse(p.scope); err != nil {
		p.errorf(name.Pos.Line, "%s", err)
	}
	p.scope.AddVariable(v)
	return nil
}

// reduceProperty fires the property declaration production.
func (p *Parser) reduceProperty(ts *TokenScanner) ast.Node {
	key := ""
	tok := nextNonWS(ts)
	if tok.Type == token.DELIM && tok.Value == "*" {
		// IE star hack: the asterisk merges into the property key.
		key = "*"
		tok = nextNonWS(ts)
	}
	key += tok.Value
	line := tok.Pos.Line
	nextNonWS(ts) // colon

	values := p.parseStyleList(ts)
	important := false
	if len(values) > 0 {
		if w, ok := values[len(values)-1].(*ast.Word); ok && w.Text == "!important" {
			important = true
			values = values[:len(values)-1]
		}
	}

	prop := ast.NewProperty(key, values, important, line)
	return prop
}

// reduceCall fires the mixin/block call productions from a buffered
// prelude: `name(args);` or the bare `name;` block reuse.
func (p *Parser) reduceCall(prelude []*token.Token, ts *TokenScanner) ast.Node {
	identToks, argToks, hasParens := splitCallParens(prelude)
	ident := parseIdentifierTokens(NewTokenScanner(identToks))
	if len(ident.Parts) == 0 {
		p.errorf(lineOf(prelude), "unexpected `%s`", prelude[0].String())
		return nil
	}
	line := lineOf(prelude)

	if hasParens {
		args := p.parseMixinArgs(NewTokenScanner(argToks))
		return p.callMixin(ident, args, line)
	}
	return p.callBare(ident, line)
}

// callMixin implements the call-with-parentheses resolution protocol.
func (p *Parser) callMixin(ident *ast.Identifier, args []ast.Node, line int) ast.Node {
	if m, ok := p.scope.LookupMixin(ident.Raw()).(*ast.Mixin); ok && m != nil {
		// Inside a mixin body the argument expressions may reference
		// the enclosing mixin's own parameters; defer until that
		// mixin is invoked with concrete values.
		if p.scope.InMixin() {
			return &ast.Deferred{Target: m, Args: args, Line: line}
		}
		out, err := m.Call(p.scope, args)
		if err != nil {
			p.errorf(line, "%s", err)
			return nil
		}
		return out
	}
	if len(args) == 0 {
		// Fallback to block reuse: allow calls of name() to blocks.
		if b, ok := p.scope.LookupBlock(ident.Raw()).(*ast.Block); ok && b != nil {
			cp, err := b.CopyInner(p.scope)
			if err != nil {
				p.errorf(line, "%s", err)
			}
			return cp
		}
	}
	if p.scope.InMixin() {
		// The name may resolve once the enclosing mixin's caller
		// provides additional scope.
		return &ast.Deferred{Target: ident, Args: args, Line: line}
	}
	p.errorf(line, "call unknown mixin `%s`", ident.Raw())
	return nil
}

// callBare implements the bare-identifier reuse protocol: block first,
// then mixin with an empty argument list.
func (p *Parser) callBare(ident *ast.Identifier, line int) ast.Node {
	if b, ok := p.scope.LookupBlock(ident.Raw()).(*ast.Block); ok && b != nil {
		cp, err := b.CopyInner(p.scope)
		if err != nil {
			p.errorf(line, "%s", err)
		}
		return cp
	}
	if m, ok := p.scope.LookupMixin(ident.Raw()).(*ast.Mixin); ok && m != nil {
		if p.scope.InMixin() {
			return &ast.Deferred{Target: m, Line: line}
		}
		out, err := m.Call(p.scope, nil)
		if err != nil {
			p.errorf(line, "%s", err)
			return nil
		}
		return out
	}
	p.errorf(line, "call unknown block `%s`", ident.Raw())
	return nil
}

// parseBlockish reduces a brace construct from its prelude: a mixin
// declaration when a class or id name ends with a parenthesized formal
// list, a block declaration otherwise. Parenthesized selector fragments
// (media queries, :not(...)) stay selectors. The opening brace has been
// consumed.
func (p *Parser) parseBlockish(prelude []*token.Token) (ast.Node, error) {
	identToks, argToks, hasParens := splitCallParens(prelude)
	if hasParens && isMixinName(identToks) {
		return p.parseMixinDecl(identToks, argToks)
	}
	return p.parseBlockDecl(prelude)
}

// isMixinName reports whether the tokens name something callable: a
// single class or id selector.
func isMixinName(toks []*token.Token) bool {
	seen := false
	for _, t := range toks {
		if t.Type == token.WHITESPACE {
			continue
		}
		if seen {
			return false
		}
		if t.Type != token.CLASS && t.Type != token.HASH {
			return false
		}
		seen = true
	}
	return seen
}

// parseBlockDecl reduces a block declaration. The open production
// composes the selector against the enclosing context, pushes the body
// frame, and installs the selector on it; the close production
// resolves the block against the completed frame, pops it, and registers
// the block in the enclosing frame.
func (p *Parser) parseBlockDecl(prelude []*token.Token) (ast.Node, error) {
	ident := parseIdentifierTokens(NewTokenScanner(prelude))
	line := lineOf(prelude)
	ident.Parse(p.scope)
	p.scope.Push()
	// The selector context lives on the body frame and dies with it.
	p.scope.SetCurrent(ident)

	block, err := func() (*ast.Block, error) {
		defer p.scope.Pop()

		decls, err := p.parseDeclarations()
		if err != nil {
			return nil, err
		}
		block := ast.NewBlock(ident, decls, line)
		if !p.scope.InMixin() {
			if _, err := block.Parse(p.scope); err != nil {
				p.errorf(line, "%s", err)
			}
		}
		return block, nil
	}()
	if err != nil || block == nil {
		return nil, err
	}

	p.scope.AddBlock(block)
	return block, nil
}

// parseMixinDecl reduces a mixin declaration. The body frame carries the
// inside-mixin-body flag, so calls reduced within it defer instead of
// expanding. The mixin registers in the enclosing frame after the body
// frame pops and produces no output of its own.
func (p *Parser) parseMixinDecl(identToks, argToks []*token.Token) (ast.Node, error) {
	ident := parseIdentifierTokens(NewTokenScanner(identToks))
	line := lineOf(identToks)
	ident.Parse(p.scope)
	args := p.parseMixinArgs(NewTokenScanner(argToks))

	p.scope.Push()
	p.scope.SetInMixin(true)

	mixin, err := func() (*ast.Mixin, error) {
		defer p.scope.Pop()

		body, err := p.parseDeclarations()
		if err != nil {
			return nil, err
		}
		return ast.NewMixin(ident, args, body, line), nil
	}()
	if err != nil || mixin == nil {
		return nil, err
	}

	p.scope.AddMixin(mixin)
	return nil, nil
}

// parseDeclarations reduces a brace body's declaration list up to and
// including the closing brace. Malformed declarations are discarded to
// the next `;` or the body's closing brace and reduction resumes; the
// body frame itself is owned (and popped) by the caller.
func (p *Parser) parseDeclarations() ([]ast.Node, error) {
	var decls []ast.Node
	for {
		tok := p.scanSkipWS()
		switch tok.Type {
		case token.RBRACE:
			return decls, nil
		case token.EOF:
			p.errorf(tok.Pos.Line, "unexpected EOF inside block")
			return decls, nil
		case token.IMPORT:
			n, err := p.parseImport(tok)
			if err != nil {
				return decls, err
			}
			decls = appendUnit(decls, n)
		case token.ILLEGAL:
			p.errorf(tok.Pos.Line, "syntax error, token: `%s`", tok.Value)
			p.recoverDeclaration()
		default:
			p.s.Unscan()
			n, err := p.parseDeclish()
			if err != nil {
				return decls, err
			}
			decls = appendUnit(decls, n)
		}
	}
}

// recoverDeclaration discards tokens until the end of the malformed
// declaration or the body's closing brace.
func (p *Parser) recoverDeclaration() {
	for {
		tok := p.s.Scan()
		switch tok.Type {
		case token.SEMICOLON, token.EOF:
			return
		case token.RBRACE:
			p.s.Unscan()
			return
		}
	}
}

// scanSkipWS returns the next non-whitespace token.
func (p *Parser) scanSkipWS() *token.Token {
	for {
		tok := p.s.Scan()
		if tok.Type != token.WHITESPACE {
			return tok
		}
	}
}

// splitCallParens splits a prelude of the shape `ident ( args )` into the
// identifier tokens and the argument tokens. The parenthesized list must
// close the prelude for the split to apply; a parenthesized media query
// fragment in selector position does not.
func splitCallParens(prelude []*token.Token) (identToks, argToks []*token.Token, ok bool) {
	end := len(prelude) - 1
	for end >= 0 && prelude[end].Type == token.WHITESPACE {
		end--
	}
	if end < 1 || prelude[end].Type != token.RPAREN {
		return prelude, nil, false
	}
	depth := 0
	for i := end; i >= 0; i-- {
		switch prelude[i].Type {
		case token.RPAREN:
			depth++
		case token.LPAREN:
			depth--
			if depth == 0 {
				if i == 0 {
					return prelude, nil, false
				}
				return prelude[:i], prelude[i+1 : end], true
			}
		}
	}
	return prelude, nil, false
}

// lineOf returns the line of the first meaningful token.
func lineOf(toks []*token.Token) int {
	for _, t := range toks {
		if t.Type != token.WHITESPACE {
			return t.Pos.Line
		}
	}
	return 0
}
