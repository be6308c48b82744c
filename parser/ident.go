package parser

import (
	"github.com/mheilman/lesscpy/ast"
	"github.com/mheilman/lesscpy/token"
)

// parseIdentifierTokens reduces a selector or name from buffered prelude
// tokens. Every token contributes its literal text as a part; whitespace
// collapses to a single spacing part so the identifier can later
// normalize combinators and group boundaries.
func parseIdentifierTokens(ts *TokenScanner) *ast.Identifier {
	var parts []string
	line := 0
	seen := false
	for {
		tok := ts.Scan()
		if tok.Type == token.EOF {
			break
		}
		if tok.Type == token.WHITESPACE {
			if len(parts) > 0 {
				parts = append(parts, " ")
			}
			continue
		}
		if !seen {
			line = tok.Pos.Line
			seen = true
		}
		parts = append(parts, tok.String())
	}
	// Drop a trailing spacer.
	for len(parts) > 0 && parts[len(parts)-1] == " " {
		parts = parts[:len(parts)-1]
	}
	return ast.NewIdentifier(parts, line)
}
