package token

// Type identifies the lexical class of a token.
type Type int

const (
	// Special tokens
	ILLEGAL Type = iota
	EOF
	WHITESPACE

	// Literals
	IDENT     // color, solid, sans-serif
	NUMBER    // 12, 1.5, 20px, 100% (unit kept in Unit)
	STRING    // "foo", 'foo'
	ISTRING   // "a @{var} b" (interpolated string)
	COLOR     // #fff, #a0b1c2
	CLASS     // .mixin
	HASH      // #header (a hash that is not a valid color)
	VARIABLE  // @width
	URI       // url(...)
	FILTER    // [type=text]
	FORMAT    // %( (interpolated format call open)
	ARGUMENTS // @arguments
	IMPORTANT // !important

	// At-rules understood by the grammar
	CHARSET   // @charset
	NAMESPACE // @namespace
	IMPORT    // @import
	MEDIA     // @media
	PAGE      // @page
	FONTFACE  // @font-face
	ATKEYWORD // any other @-rule (@keyframes, @supports, ...)

	// Structure
	COLON     // :
	SEMICOLON // ;
	COMMA     // ,
	LBRACE    // {
	RBRACE    // }
	LPAREN    // (
	RPAREN    // )

	// Everything else is a single-character delimiter: + - * / > ~ & = %
	DELIM
)

var names = [...]string{
	ILLEGAL:    "ILLEGAL",
	EOF:        "EOF",
	WHITESPACE: "WHITESPACE",
	IDENT:      "IDENT",
	NUMBER:     "NUMBER",
	STRING:     "STRING",
	ISTRING:    "ISTRING",
	COLOR:      "COLOR",
	CLASS:      "CLASS",
	HASH:       "HASH",
	VARIABLE:   "VARIABLE",
	URI:        "URI",
	FILTER:     "FILTER",
	FORMAT:     "FORMAT",
	ARGUMENTS:  "ARGUMENTS",
	IMPORTANT:  "IMPORTANT",
	CHARSET:    "CHARSET",
	NAMESPACE:  "NAMESPACE",
	IMPORT:     "IMPORT",
	MEDIA:      "MEDIA",
	PAGE:       "PAGE",
	FONTFACE:   "FONTFACE",
	ATKEYWORD:  "ATKEYWORD",
	COLON:      "COLON",
	SEMICOLON:  "SEMICOLON",
	COMMA:      "COMMA",
	LBRACE:     "LBRACE",
	RBRACE:     "RBRACE",
	LPAREN:     "LPAREN",
	RPAREN:     "RPAREN",
	DELIM:      "DELIM",
}

// String returns the name of the token type.
func (t Type) String() string {
	if t >= 0 && t < Type(len(names)) {
		return names[t]
	}
	return ""
}

// Token is a single lexical token. Value holds the literal text as scanned
// (minus quotes for STRING/ISTRING, minus the "url("/")" wrapper for URI).
// Number and Unit are only meaningful for NUMBER tokens.
type Token struct {
	Type   Type
	Value  string
	Number float64
	Unit   string // "px", "em", "%" or ""
	Ending rune   // quote character for STRING/ISTRING
	Pos    Pos
}

// String returns the literal text of the token, suitable for re-emission.
func (t *Token) String() string {
	switch t.Type {
	case STRING, ISTRING:
		return string(t.Ending) + t.Value + string(t.Ending)
	case URI:
		return "url(" + t.Value + ")"
	case COLON:
		return ":"
	case SEMICOLON:
		return ";"
	case COMMA:
		return ","
	case LBRACE:
		return "{"
	case RBRACE:
		return "}"
	case LPAREN:
		return "("
	case RPAREN:
		return ")"
	case IMPORTANT:
		return "!important"
	case EOF:
		return ""
	}
	return t.Value
}

// Pos specifies the line and character position of a token.
// The Char and Line are both zero-based indexes.
type Pos struct {
	Char int
	Line int
}
