package parser

import (
	"github.com/mheilman/lesscpy/ast"
	"github.com/mheilman/lesscpy/token"
)

// precedence of the binary operators. Addition binds below
// multiplication; every operator is left-associative.
var precedence = map[string]int{
	"+": 1,
	"-": 1,
	"*": 2,
	"/": 2,
}

// parseStyleList reduces a whitespace and comma separated list of style
// values to the end of the buffered declaration. Commas survive as
// literal words so the list re-emits in its source shape.
func (p *Parser) parseStyleList(ts TokenStream) []ast.Node {
	var values []ast.Node
	for {
		tok := nextNonWS(ts)
		if tok == nil {
			return values
		}
		switch tok.Type {
		case token.COMMA:
			values = append(values, &ast.Word{Text: ","})
		case token.IMPORTANT:
			values = append(values, &ast.Word{Text: "!important"})
		default:
			ts.Unscan()
			v := p.parseStyle(ts)
			if v == nil {
				ts.Scan()
				continue
			}
			values = append(values, v)
		}
	}
}

// parseStyle reduces one style value.
func (p *Parser) parseStyle(ts TokenStream) ast.Node {
	tok := nextNonWS(ts)
	if tok == nil {
		return nil
	}
	switch tok.Type {
	case token.STRING, token.ISTRING:
		return &ast.String{Text: tok.Value, Ending: tok.Ending}
	case token.URI, token.FILTER:
		return &ast.Word{Text: tok.String()}
	case token.FORMAT:
		return p.parseFormat(ts, tok)
	case token.NUMBER, token.COLOR, token.VARIABLE, token.LPAREN:
		ts.Unscan()
		return p.parseExpr(ts, 0)
	case token.ARGUMENTS:
		return &ast.VarRef{Name: tok.Value, Line: tok.Pos.Line}
	case token.IDENT:
		return p.parseWordish(ts, tok)
	case token.DELIM:
		switch tok.Value {
		case "~":
			return p.parseEscape(ts)
		case "-":
			ts.Unscan()
			return p.parseExpr(ts, 0)
		default:
			return &ast.Word{Text: tok.Value}
		}
	default:
		return &ast.Word{Text: tok.String()}
	}
}

// parseWordish reduces a value opening with a word: a function call when
// a parenthesis follows directly, a textual ratio when a slash does, and
// a plain word otherwise.
func (p *Parser) parseWordish(ts TokenStream, word *token.Token) ast.Node {
	next := ts.Scan()
	switch {
	case next.Type == token.LPAREN:
		return &ast.Call{Name: word.Value, Args: p.parseCallArgs(ts)}
	case next.Type == token.DELIM && next.Value == "/":
		right := p.parseStyle(ts)
		if right == nil {
			return &ast.Word{Text: word.Value + "/"}
		}
		return &ast.Expression{Op: "/", Left: &ast.Word{Text: word.Value}, Right: right}
	}
	ts.Unscan()
	return &ast.Word{Text: word.Value}
}

// parseEscape reduces the '~' escape. Only a string may follow; a bare
// tilde in value position stays a combinator-looking word.
func (p *Parser) parseEscape(ts TokenStream) ast.Node {
	next := nextNonWS(ts)
	if next == nil {
		return &ast.Word{Text: "~"}
	}
	if next.Type != token.STRING && next.Type != token.ISTRING {
		ts.Unscan()
		return &ast.Word{Text: "~"}
	}
	return &ast.Escape{Inner: &ast.String{Text: next.Value, Ending: next.Ending}}
}

// parseFormat reduces the %("fmt", args...) call form. The opening
// FORMAT token has been consumed.
func (p *Parser) parseFormat(ts TokenStream, open *token.Token) ast.Node {
	args := p.parseCallArgs(ts)
	// Comma words are list punctuation, not arguments.
	vals := args[:0]
	for _, a := range args {
		if w, ok := a.(*ast.Word); ok && w.Text == "," {
			continue
		}
		vals = append(vals, a)
	}
	if len(vals) == 0 {
		p.errorf(open.Pos.Line, "malformed format call")
		return nil
	}
	fs, ok := vals[0].(*ast.String)
	if !ok {
		p.errorf(open.Pos.Line, "format call requires a string format")
		return nil
	}
	return &ast.Format{Fmt: fs, Args: vals[1:]}
}

// parseCallArgs reduces a call argument list through the closing
// parenthesis. Commas are kept as literal words so calls re-emit in
// their source shape.
func (p *Parser) parseCallArgs(ts TokenStream) []ast.Node {
	var args []ast.Node
	for {
		tok := nextNonWS(ts)
		if tok == nil || tok.Type == token.RPAREN {
			return args
		}
		if tok.Type == token.COMMA {
			args = append(args, &ast.Word{Text: ","})
			continue
		}
		ts.Unscan()
		v := p.parseStyle(ts)
		if v == nil {
			ts.Scan()
			continue
		}
		args = append(args, v)
	}
}

// parseExpr reduces a binary expression with precedence climbing.
func (p *Parser) parseExpr(ts TokenStream, min int) ast.Node {
	left := p.parseFactor(ts)
	if left == nil {
		return nil
	}
	for {
		tok := nextNonWS(ts)
		if tok == nil {
			return left
		}
		if tok.Type != token.DELIM {
			ts.Unscan()
			return left
		}
		prec, ok := precedence[tok.Value]
		if !ok || prec < min {
			ts.Unscan()
			return left
		}
		right := p.parseExpr(ts, prec+1)
		if right == nil {
			return left
		}
		left = &ast.Expression{Op: tok.Value, Left: left, Right: right}
	}
}

// parseFactor reduces one expression operand.
func (p *Parser) parseFactor(ts TokenStream) ast.Node {
	tok := nextNonWS(ts)
	if tok == nil {
		return nil
	}
	switch tok.Type {
	case token.NUMBER:
		return &ast.Number{Value: tok.Number, Unit: tok.Unit}
	case token.COLOR:
		c, err := ast.NewColor(tok.Value)
		if err != nil {
			p.errorf(tok.Pos.Line, "%s", err)
			return &ast.Word{Text: tok.Value}
		}
		return c
	case token.VARIABLE:
		return &ast.VarRef{Name: tok.Value, Line: tok.Pos.Line}
	case token.LPAREN:
		inner := p.parseExpr(ts, 0)
		p.expectRParen(ts)
		return inner
	case token.IDENT:
		return p.parseWordish(ts, tok)
	case token.DELIM:
		if tok.Value == "-" {
			return p.parseNegated(ts)
		}
		return &ast.Word{Text: tok.Value}
	}
	return &ast.Word{Text: tok.String()}
}

// parseNegated reduces a unary minus: a negated parenthesized expression
// or a negated variable reference. Anything else keeps the minus as a
// literal word.
func (p *Parser) parseNegated(ts TokenStream) ast.Node {
	next := nextNonWS(ts)
	if next == nil {
		return &ast.Word{Text: "-"}
	}
	switch next.Type {
	case token.LPAREN:
		inner := p.parseExpr(ts, 0)
		p.expectRParen(ts)
		if inner == nil {
			return &ast.Word{Text: "-"}
		}
		return &ast.Negate{Expr: inner}
	case token.VARIABLE:
		return &ast.Negate{Expr: &ast.VarRef{Name: next.Value, Line: next.Pos.Line}}
	}
	ts.Unscan()
	return &ast.Word{Text: "-"}
}

// expectRParen consumes a closing parenthesis, tolerating its absence in
// a truncated buffer.
func (p *Parser) expectRParen(ts TokenStream) {
	tok := nextNonWS(ts)
	if tok == nil {
		return
	}
	if tok.Type != token.RPAREN {
		ts.Unscan()
	}
}

// parseMixinArgs reduces a mixin's parenthesized list, serving both the
// formal parameters of a declaration and the actual arguments of a call.
// A `@name: value` pair becomes a variable declaration node (a default
// on the formal side, a keyword argument on the call side); a bare
// `@name` becomes a reference; everything else is a positional value.
func (p *Parser) parseMixinArgs(ts *TokenScanner) []ast.Node {
	var args []ast.Node
	for {
		tok := nextNonWS(ts)
		if tok == nil {
			return args
		}
		switch tok.Type {
		case token.COMMA:
			// separator
		case token.ARGUMENTS:
			args = append(args, &ast.VarRef{Name: tok.Value, Line: tok.Pos.Line})
		case token.VARIABLE:
			next := nextNonWS(ts)
			if next != nil && next.Type == token.COLON {
				values := p.parseKwargValue(ts)
				args = append(args, ast.NewVariable(tok.Value, values, tok.Pos.Line))
				continue
			}
			if next != nil {
				ts.Unscan()
			}
			args = append(args, &ast.VarRef{Name: tok.Value, Line: tok.Pos.Line})
		default:
			ts.Unscan()
			v := p.parseStyle(ts)
			if v == nil {
				ts.Scan()
				continue
			}
			args = append(args, v)
		}
	}
}

// parseKwargValue reduces the value of a `@name: value` pair up to the
// next comma or the end of the list.
func (p *Parser) parseKwargValue(ts *TokenScanner) []ast.Node {
	var values []ast.Node
	for {
		tok := nextNonWS(ts)
		if tok == nil || tok.Type == token.COMMA {
			return values
		}
		ts.Unscan()
		v := p.parseStyle(ts)
		if v == nil {
			ts.Scan()
			continue
		}
		values = append(values, v)
	}
}
