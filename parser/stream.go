package parser

import "github.com/mheilman/lesscpy/token"

// TokenScanner is a TokenStream over a fixed token slice. The reducer
// buffers a declaration's prelude, decides its shape, and re-parses the
// buffer through one of these.
type TokenScanner struct {
	toks []*token.Token
	i    int
}

// NewTokenScanner returns a stream over toks.
func NewTokenScanner(toks []*token.Token) *TokenScanner {
	return &TokenScanner{toks: toks}
}

// Scan returns the next token, or an EOF token past the end. Scanning
// past the end still advances so Scan and Unscan stay symmetric.
func (ts *TokenScanner) Scan() *token.Token {
	if ts.i < len(ts.toks) {
		tok := ts.toks[ts.i]
		ts.i++
		return tok
	}
	ts.i++
	return &token.Token{Type: token.EOF}
}

// Unscan moves the stream back one token.
func (ts *TokenScanner) Unscan() {
	if ts.i > 0 {
		ts.i--
	}
}

// Current returns the last scanned token.
func (ts *TokenScanner) Current() *token.Token {
	if ts.i == 0 {
		return nil
	}
	if ts.i-1 < len(ts.toks) {
		return ts.toks[ts.i-1]
	}
	return &token.Token{Type: token.EOF}
}

// Reset rewinds the stream to the first token.
func (ts *TokenScanner) Reset() { ts.i = 0 }

// nextNonWS returns the next non-whitespace token from ts, or nil at the
// end of the stream.
func nextNonWS(ts TokenStream) *token.Token {
	for {
		tok := ts.Scan()
		switch tok.Type {
		case token.WHITESPACE:
		case token.EOF:
			return nil
		default:
			return tok
		}
	}
}
