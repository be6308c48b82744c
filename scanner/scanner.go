package scanner

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/mheilman/lesscpy/token"
)

// eof represents an EOF file byte.
var eof rune = -1

// atKeywords maps reserved at-rule names to their token types. Any @-name
// not listed here and not a generic at-rule scans as a LESS variable.
var atKeywords = map[string]token.Type{
	"charset":   token.CHARSET,
	"namespace": token.NAMESPACE,
	"import":    token.IMPORT,
	"media":     token.MEDIA,
	"page":      token.PAGE,
	"font-face": token.FONTFACE,
	"arguments": token.ARGUMENTS,
}

// genericAtRules are passed through untouched as at-keywords.
var genericAtRules = map[string]bool{
	"keyframes":         true,
	"-moz-keyframes":    true,
	"-webkit-keyframes": true,
	"-o-keyframes":      true,
	"supports":          true,
	"document":          true,
	"viewport":          true,
}

// Scanner tokenizes LESS source text.
//
// This implementation only allows UTF-8 encoding. Comments (both CSS block
// comments and LESS line comments) are consumed and discarded.
type Scanner struct {
	// Errors contains a list of all errors that occur during scanning.
	Errors []*Error

	rd  io.RuneReader
	pos token.Pos

	buf    [4]rune      // circular buffer for runes
	bufpos [4]token.Pos // circular buffer for position
	bufi   int          // circular buffer index
	bufn   int          // number of buffered characters

	tokbuf [4]*token.Token // circular buffer for emitted tokens
	tokbi  int
	tokbn  int
}

// New returns a new instance of Scanner.
func New(r io.Reader) *Scanner {
	return &Scanner{
		rd: bufio.NewReader(r),
	}
}

// Current returns the most recently scanned token.
func (s *Scanner) Current() *token.Token {
	if tok := s.tokbuf[s.tokbi]; tok != nil {
		return tok
	}
	return &token.Token{Type: token.EOF}
}

// Unscan pushes the previously scanned token back onto the stream.
func (s *Scanner) Unscan() {
	s.tokbi = ((s.tokbi + len(s.tokbuf) - 1) % len(s.tokbuf))
	s.tokbn++
}

// Scan returns the next token from the stream.
func (s *Scanner) Scan() *token.Token {
	// Serve tokens pushed back by Unscan first.
	if s.tokbn > 0 {
		s.tokbi = ((s.tokbi + 1) % len(s.tokbuf))
		s.tokbn--
		return s.Current()
	}
	tok := s.scan()
	s.tokbi = ((s.tokbi + 1) % len(s.tokbuf))
	s.tokbuf[s.tokbi] = tok
	return tok
}

func (s *Scanner) scan() *token.Token {
	for {
		ch := s.read()
		pos := s.Pos()

		switch {
		case ch == eof:
			return &token.Token{Type: token.EOF, Pos: pos}
		case isWhitespace(ch):
			return s.scanWhitespace()
		case ch == '"' || ch == '\'':
			return s.scanString()
		case ch == '#':
			return s.scanHash()
		case ch == '@':
			return s.scanAt()
		case ch == '.':
			// A full stop starts a number, a class name, or is a plain delim.
			if ch1 := s.read(); isDigit(ch1) {
				s.unread(2)
				return s.scanNumeric(pos)
			} else if isNameStart(ch1) || ch1 == '-' {
				name := s.scanName()
				return &token.Token{Type: token.CLASS, Value: "." + name, Pos: pos}
			}
			s.unread(1)
			return &token.Token{Type: token.DELIM, Value: ".", Pos: pos}
		case ch == '/':
			// Both comment styles are dropped; restart from past the end.
			if ch1 := s.read(); ch1 == '*' {
				s.scanComment()
				continue
			} else if ch1 == '/' {
				s.scanLineComment()
				continue
			}
			s.unread(1)
			return &token.Token{Type: token.DELIM, Value: "/", Pos: pos}
		case ch == '%':
			if ch1 := s.read(); ch1 == '(' {
				return &token.Token{Type: token.FORMAT, Value: "%(", Pos: pos}
			}
			s.unread(1)
			return &token.Token{Type: token.DELIM, Value: "%", Pos: pos}
		case ch == '!':
			return s.scanImportant(pos)
		case ch == '[':
			return s.scanFilter(pos)
		case ch == ':':
			return &token.Token{Type: token.COLON, Pos: pos}
		case ch == ';':
			return &token.Token{Type: token.SEMICOLON, Pos: pos}
		case ch == ',':
			return &token.Token{Type: token.COMMA, Pos: pos}
		case ch == '{':
			return &token.Token{Type: token.LBRACE, Pos: pos}
		case ch == '}':
			return &token.Token{Type: token.RBRACE, Pos: pos}
		case ch == '(':
			return &token.Token{Type: token.LPAREN, Pos: pos}
		case ch == ')':
			return &token.Token{Type: token.RPAREN, Pos: pos}
		case ch == '-':
			// A hyphen can begin a negative number or a hyphenated
			// identifier. On its own it is a minus delim.
			if ch1 := s.read(); isDigit(ch1) || ch1 == '.' {
				s.unread(2)
				return s.scanNumeric(pos)
			}
			s.unread(1)
			if s.peekIdent() {
				return s.scanIdent()
			}
			return &token.Token{Type: token.DELIM, Value: "-", Pos: pos}
		case ch == '+':
			if ch1 := s.read(); isDigit(ch1) || ch1 == '.' {
				s.unread(2)
				return s.scanNumeric(pos)
			}
			s.unread(1)
			return &token.Token{Type: token.DELIM, Value: "+", Pos: pos}
		case isDigit(ch):
			s.unread(1)
			return s.scanNumeric(pos)
		case isNameStart(ch) || ch == '\\':
			return s.scanIdent()
		case ch == '*' || ch == '>' || ch == '~' || ch == '&' || ch == '=':
			return &token.Token{Type: token.DELIM, Value: string(ch), Pos: pos}
		}
		return &token.Token{Type: token.DELIM, Value: string(ch), Pos: pos}
	}
}

// scanWhitespace consumes the current code point and all subsequent whitespace.
func (s *Scanner) scanWhitespace() *token.Token {
	pos := s.Pos()
	var buf bytes.Buffer
	_, _ = buf.WriteRune(s.curr())
	for {
		ch := s.read()
		if ch == eof {
			break
		} else if !isWhitespace(ch) {
			s.unread(1)
			break
		}
		_, _ = buf.WriteRune(ch)
	}
	return &token.Token{Type: token.WHITESPACE, Value: buf.String(), Pos: pos}
}

// scanString consumes a quoted string. A string containing at least one
// "@{name}" interpolation scans as an ISTRING so the grammar can resolve it
// against the scope later.
func (s *Scanner) scanString() *token.Token {
	pos, ending := s.Pos(), s.curr()
	var buf bytes.Buffer
	for {
		ch := s.read()
		if ch == eof || ch == ending {
			typ := token.STRING
			if strings.Contains(buf.String(), "@{") {
				typ = token.ISTRING
			}
			return &token.Token{Type: typ, Value: buf.String(), Ending: ending, Pos: pos}
		} else if ch == '\n' {
			s.unread(1)
			s.Errors = append(s.Errors, &Error{Message: "unterminated string", Pos: pos})
			return &token.Token{Type: token.STRING, Value: buf.String(), Ending: ending, Pos: pos}
		} else if ch == '\\' {
			if next := s.read(); next == eof {
				continue
			} else {
				_, _ = buf.WriteRune('\\')
				_, _ = buf.WriteRune(next)
			}
		} else {
			_, _ = buf.WriteRune(ch)
		}
	}
}

// scanHash consumes a hash token. A hash whose name is three or six hex
// digits is a color literal; anything else is an id selector.
func (s *Scanner) scanHash() *token.Token {
	pos := s.Pos()
	if ch := s.read(); !isName(ch) {
		s.unread(1)
		return &token.Token{Type: token.DELIM, Value: "#", Pos: pos}
	}
	name := s.scanName()
	if isHexColor(name) {
		return &token.Token{Type: token.COLOR, Value: "#" + name, Pos: pos}
	}
	return &token.Token{Type: token.HASH, Value: "#" + name, Pos: pos}
}

// scanAt consumes an at-token: a reserved at-rule keyword, a generic
// at-rule, or a LESS variable.
func (s *Scanner) scanAt() *token.Token {
	pos := s.Pos()
	if ch := s.read(); !isName(ch) {
		s.unread(1)
		return &token.Token{Type: token.DELIM, Value: "@", Pos: pos}
	}
	name := s.scanName()
	if typ, ok := atKeywords[strings.ToLower(name)]; ok {
		return &token.Token{Type: typ, Value: "@" + name, Pos: pos}
	}
	if genericAtRules[strings.ToLower(name)] {
		return &token.Token{Type: token.ATKEYWORD, Value: "@" + name, Pos: pos}
	}
	return &token.Token{Type: token.VARIABLE, Value: "@" + name, Pos: pos}
}

// scanImportant consumes "!important", tolerating interior whitespace.
// A '!' followed by anything else is malformed and scans as ILLEGAL.
func (s *Scanner) scanImportant(pos token.Pos) *token.Token {
	for {
		if ch := s.read(); isWhitespace(ch) {
			continue
		}
		s.unread(1)
		break
	}
	if s.read(); s.peekIdent() {
		name := s.scanName()
		if strings.EqualFold(name, "important") {
			return &token.Token{Type: token.IMPORTANT, Value: "!important", Pos: pos}
		}
		s.Errors = append(s.Errors, &Error{Message: "expected !important, got !" + name, Pos: pos})
		return &token.Token{Type: token.ILLEGAL, Value: "!" + name, Pos: pos}
	}
	s.unread(1)
	return &token.Token{Type: token.DELIM, Value: "!", Pos: pos}
}

// scanFilter consumes an attribute filter up to and including the closing
// bracket, e.g. "[type='text']".
func (s *Scanner) scanFilter(pos token.Pos) *token.Token {
	var buf bytes.Buffer
	_, _ = buf.WriteRune('[')
	for {
		ch := s.read()
		if ch == eof {
			s.Errors = append(s.Errors, &Error{Message: "unterminated attribute filter", Pos: pos})
			break
		}
		_, _ = buf.WriteRune(ch)
		if ch == ']' {
			break
		}
	}
	return &token.Token{Type: token.FILTER, Value: buf.String(), Pos: pos}
}

// scanNumeric consumes a numeric token including any trailing unit or
// percent sign.
func (s *Scanner) scanNumeric(pos token.Pos) *token.Token {
	num, repr := s.scanNumber()

	// A number immediately followed by an identifier is a dimension.
	if s.read(); s.peekIdent() {
		unit := s.scanName()
		return &token.Token{Type: token.NUMBER, Value: repr + unit, Number: num, Unit: unit, Pos: pos}
	}
	s.unread(1)

	if ch := s.read(); ch == '%' {
		return &token.Token{Type: token.NUMBER, Value: repr + "%", Number: num, Unit: "%", Pos: pos}
	}
	s.unread(1)

	return &token.Token{Type: token.NUMBER, Value: repr, Number: num, Pos: pos}
}

// scanNumber consumes a number.
func (s *Scanner) scanNumber() (num float64, repr string) {
	var buf bytes.Buffer

	// If initial code point is + or - then store it.
	if ch := s.read(); ch == '+' || ch == '-' {
		_, _ = buf.WriteRune(ch)
	} else {
		s.unread(1)
	}

	// Read as many digits as possible.
	_, _ = buf.WriteString(s.scanDigits())

	// If next code points are a full stop and digit then consume them.
	if ch0 := s.read(); ch0 == '.' {
		if ch1 := s.read(); isDigit(ch1) {
			_, _ = buf.WriteRune(ch0)
			_, _ = buf.WriteRune(ch1)
			_, _ = buf.WriteString(s.scanDigits())
		} else {
			s.unread(2)
		}
	} else {
		s.unread(1)
	}

	num, _ = strconv.ParseFloat(buf.String(), 64)
	return num, buf.String()
}

// scanDigits consume a contiguous series of digits.
func (s *Scanner) scanDigits() string {
	var buf bytes.Buffer
	for {
		if ch := s.read(); isDigit(ch) {
			_, _ = buf.WriteRune(ch)
		} else {
			s.unread(1)
			break
		}
	}
	return buf.String()
}

// scanComment consumes all characters up to "*/", inclusive.
// This function assumes that the initial "/*" have just been consumed.
func (s *Scanner) scanComment() {
	for {
		ch0 := s.read()
		if ch0 == eof {
			break
		} else if ch0 == '*' {
			if ch1 := s.read(); ch1 == '/' {
				break
			} else {
				s.unread(1)
			}
		}
	}
}

// scanLineComment consumes all characters up to the next newline, exclusive.
// This function assumes that the initial "//" have just been consumed.
func (s *Scanner) scanLineComment() {
	for {
		ch := s.read()
		if ch == eof {
			break
		} else if ch == '\n' {
			s.unread(1)
			break
		}
	}
}

// scanName consumes a name.
// Consumes contiguous name code points and escaped code points.
func (s *Scanner) scanName() string {
	var buf bytes.Buffer
	s.unread(1)
	for {
		if ch := s.read(); isName(ch) {
			_, _ = buf.WriteRune(ch)
		} else if s.peekEscape() {
			_, _ = buf.WriteRune(s.scanEscape())
		} else {
			s.unread(1)
			return buf.String()
		}
	}
}

// scanIdent consumes an ident-like token.
// This function can return an ident or a url token.
func (s *Scanner) scanIdent() *token.Token {
	pos := s.Pos()
	v := s.scanName()

	// Check if this is the start of a url token.
	if strings.ToLower(v) == "url" {
		if ch := s.read(); ch == '(' {
			return s.scanURL(pos)
		}
		s.unread(1)
	}

	return &token.Token{Type: token.IDENT, Value: v, Pos: pos}
}

// scanURL consumes the contents of a URL function.
// This function assumes that the "url(" has just been consumed.
func (s *Scanner) scanURL(pos token.Pos) *token.Token {
	var buf bytes.Buffer
	for {
		ch := s.read()
		if ch == ')' || ch == eof {
			return &token.Token{Type: token.URI, Value: strings.TrimSpace(buf.String()), Pos: pos}
		} else if ch == '"' || ch == '\'' {
			tok := s.scanString()
			_, _ = buf.WriteString(tok.String())
		} else {
			_, _ = buf.WriteRune(ch)
		}
	}
}

// scanEscape consumes an escaped code point.
func (s *Scanner) scanEscape() rune {
	var buf bytes.Buffer
	ch := s.read()
	if isHexDigit(ch) {
		_, _ = buf.WriteRune(ch)
		for i := 0; i < 5; i++ {
			if next := s.read(); next == eof || isWhitespace(next) {
				break
			} else if !isHexDigit(next) {
				s.unread(1)
				break
			} else {
				_, _ = buf.WriteRune(next)
			}
		}
		v, _ := strconv.ParseInt(buf.String(), 16, 0)
		return rune(v)
	} else if ch == eof {
		return '�'
	}
	return ch
}

// peekEscape checks if the next code points are a valid escape.
func (s *Scanner) peekEscape() bool {
	if s.curr() != '\\' {
		return false
	}
	next := s.read()
	s.unread(1)
	return next != '\n'
}

// peekIdent checks if the next code points are a valid identifier.
func (s *Scanner) peekIdent() bool {
	if s.curr() == '-' {
		ch := s.read()
		s.unread(1)
		return isNameStart(ch) || s.peekEscape()
	} else if isNameStart(s.curr()) {
		return true
	} else if s.curr() == '\\' && s.peekEscape() {
		return true
	}
	return false
}

// read reads the next rune from the reader.
// This function will initially check for any characters that have been pushed
// back onto the lookahead buffer and return those. Otherwise it will read from
// the reader and do preprocessing to convert newline characters and NULL.
func (s *Scanner) read() rune {
	// If we have runes on our internal lookahead buffer then return those.
	if s.bufn > 0 {
		s.bufi = ((s.bufi + 1) % len(s.buf))
		s.bufn--
		return s.buf[s.bufi]
	}

	// Otherwise read from the reader.
	ch, _, err := s.rd.ReadRune()
	pos := s.Pos()
	if err != nil {
		ch = eof
	} else {
		// Normalize FF, CR and CRLF to LF.
		if ch == '\f' {
			ch = '\n'
		}
		if ch == '\r' {
			if ch, _, err := s.rd.ReadRune(); err != nil {
				// nop
			} else if ch != '\n' {
				s.unread(1)
			}
			ch = '\n'
		}
		if ch == '\000' {
			ch = '�'
		}

		// Track scanner position.
		if ch == '\n' {
			pos.Line++
			pos.Char = 0
		} else {
			pos.Char++
		}
	}

	// Add to circular buffer.
	s.bufi = ((s.bufi + 1) % len(s.buf))
	s.buf[s.bufi] = ch
	s.bufpos[s.bufi] = pos
	return ch
}

// unread adds the previous n code points back onto the buffer.
func (s *Scanner) unread(n int) {
	for i := 0; i < n; i++ {
		s.bufi = ((s.bufi + len(s.buf) - 1) % len(s.buf))
		s.bufn++
	}
}

// curr reads the current code point.
func (s *Scanner) curr() rune {
	return s.buf[s.bufi]
}

// Pos reads the current position of the scanner.
func (s *Scanner) Pos() token.Pos {
	return s.bufpos[s.bufi]
}

// isWhitespace returns true if the rune is a space, tab, or newline.
func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n'
}

// isLetter returns true if the rune is a letter.
func isLetter(ch rune) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// isDigit returns true if the rune is a digit.
func isDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9')
}

// isHexDigit returns true if the rune is a hex digit.
func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// isNonASCII returns true if the rune is greater than U+0080.
func isNonASCII(ch rune) bool {
	return ch >= '\u0080'
}

// isNameStart returns true if the rune can start a name.
func isNameStart(ch rune) bool {
	return isLetter(ch) || isNonASCII(ch) || ch == '_'
}

// isName returns true if the character is a name code point.
func isName(ch rune) bool {
	return isNameStart(ch) || isDigit(ch) || ch == '-'
}

// isHexColor returns true if the name is a 3- or 6-digit hex color body.
func isHexColor(name string) bool {
	if len(name) != 3 && len(name) != 6 {
		return false
	}
	for _, ch := range name {
		if !isHexDigit(ch) {
			return false
		}
	}
	return true
}

// Error represents a scan error.
type Error struct {
	Message string
	Pos     token.Pos
}

// Error returns the formatted string error message.
func (e *Error) Error() string {
	return e.Message
}
