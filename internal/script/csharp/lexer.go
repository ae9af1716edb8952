// Package csharp is a tolerant structural reader for the subset of C# used
// by user scripts. It recovers using directives, type declarations with
// their members and attributes, and top-level statements. Method bodies and
// expressions are kept as token ranges and never interpreted.
package csharp

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind classifies a token.
type Kind int

const (
	EOF Kind = iota
	Ident
	Number
	String
	Char
	Punct
	DocComment
	Directive
)

func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Ident:
		return "Ident"
	case Number:
		return "Number"
	case String:
		return "String"
	case Char:
		return "Char"
	case Punct:
		return "Punct"
	case DocComment:
		return "DocComment"
	case Directive:
		return "Directive"
	default:
		return "Unknown"
	}
}

// Token is a lexical unit. Text is the raw source slice; Value holds the
// decoded contents of string and char literals, the text after "///" for
// doc comments, and the identifier without a leading '@'.
type Token struct {
	Kind  Kind
	Text  string
	Value string
	Pos   int
	End   int
	Line  int
}

// Is reports whether the token is punctuation or an identifier with the
// given text.
func (t Token) Is(text string) bool {
	return (t.Kind == Punct || t.Kind == Ident) && t.Text == text
}

// multi-character operators, longest first. '>' is never combined with a
// following '>' so nested generic arguments close one at a time.
var operators = []string{
	"<<=", "??=", "...",
	"=>", "==", "!=", "<=", ">=", "&&", "||", "??", "?.", "::",
	"++", "--", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<", "->", "..",
}

type lexer struct {
	src  string
	pos  int
	line int
	out  []Token
}

// Lex splits src into tokens. Ordinary comments and whitespace are
// dropped. Unterminated literals and comments run to the end of input
// rather than failing.
func Lex(src string) []Token {
	l := &lexer{src: strings.TrimPrefix(src, "\ufeff"), line: 1}
	offset := len(src) - len(l.src)
	l.run()
	if offset > 0 {
		for i := range l.out {
			l.out[i].Pos += offset
			l.out[i].End += offset
		}
	}
	return l.out
}

func (l *lexer) run() {
	lineStart := true
	for l.pos < len(l.src) {
		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.line++
			l.pos++
			lineStart = true
			continue
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.pos++
			continue
		case c == '#' && lineStart:
			l.directive()
		case strings.HasPrefix(l.src[l.pos:], "///") && !strings.HasPrefix(l.src[l.pos:], "////"):
			l.docComment()
		case strings.HasPrefix(l.src[l.pos:], "//"):
			l.skipLine()
		case strings.HasPrefix(l.src[l.pos:], "/*"):
			l.blockComment()
		case c == '"' && strings.HasPrefix(l.src[l.pos:], `"""`):
			l.rawString(l.pos, l.pos)
		case c == '"':
			l.quoted(l.pos, l.pos+1, false)
		case c == '@' && l.peekAt(1) == '"':
			l.verbatim(l.pos, l.pos+2)
		case c == '@' && l.peekAt(1) == '$' && l.peekAt(2) == '"':
			l.verbatim(l.pos, l.pos+3)
		case c == '$':
			l.dollar()
		case c == '\'':
			l.char()
		case c >= '0' && c <= '9', c == '.' && isDigit(l.peekAt(1)):
			l.number()
		case c == '@' || c == '_' || c >= utf8.RuneSelf || isLetter(c):
			if !l.ident() {
				l.punct()
			}
		default:
			l.punct()
		}
		lineStart = false
	}
	l.emit(EOF, l.pos, "")
}

func (l *lexer) peekAt(n int) byte {
	if l.pos+n < len(l.src) {
		return l.src[l.pos+n]
	}
	return 0
}

func (l *lexer) emit(kind Kind, start int, value string) {
	l.out = append(l.out, Token{
		Kind:  kind,
		Text:  l.src[start:l.pos],
		Value: value,
		Pos:   start,
		End:   l.pos,
		Line:  l.line - strings.Count(l.src[start:l.pos], "\n"),
	})
}

func (l *lexer) countLines(from int) {
	l.line += strings.Count(l.src[from:l.pos], "\n")
}

func (l *lexer) lineEnd() int {
	if i := strings.IndexByte(l.src[l.pos:], '\n'); i >= 0 {
		return l.pos + i
	}
	return len(l.src)
}

func (l *lexer) skipLine() {
	l.pos = l.lineEnd()
}

func (l *lexer) directive() {
	start := l.pos
	l.pos = l.lineEnd()
	l.emit(Directive, start, strings.TrimSpace(l.src[start+1:l.pos]))
}

func (l *lexer) docComment() {
	start := l.pos
	l.pos = l.lineEnd()
	text := strings.TrimRight(l.src[start+3:l.pos], "\r")
	l.emit(DocComment, start, strings.TrimSpace(text))
}

func (l *lexer) blockComment() {
	start := l.pos
	end := strings.Index(l.src[l.pos+2:], "*/")
	if end < 0 {
		l.pos = len(l.src)
	} else {
		l.pos += end + 4
	}
	l.countLines(start)
}

// quoted scans a regular "..." literal whose body starts at from.
func (l *lexer) quoted(start, from int, interpolated bool) {
	var b strings.Builder
	i := from
	depth := 0
	for i < len(l.src) {
		c := l.src[i]
		if c == '\n' && depth == 0 {
			break
		}
		if interpolated {
			if c == '{' {
				if depth == 0 && i+1 < len(l.src) && l.src[i+1] == '{' {
					b.WriteByte('{')
					i += 2
					continue
				}
				depth++
			} else if c == '}' && depth > 0 {
				depth--
			}
		}
		if c == '\\' && i+1 < len(l.src) {
			r, n := unescape(l.src[i+1:])
			b.WriteString(r)
			i += 1 + n
			continue
		}
		if c == '"' && depth == 0 {
			i++
			break
		}
		b.WriteByte(c)
		i++
	}
	l.pos = i
	l.countLines(start)
	l.emit(String, start, b.String())
}

// verbatim scans an @"..." literal, where "" is an escaped quote.
func (l *lexer) verbatim(start, from int) {
	var b strings.Builder
	i := from
	for i < len(l.src) {
		c := l.src[i]
		if c == '"' {
			if i+1 < len(l.src) && l.src[i+1] == '"' {
				b.WriteByte('"')
				i += 2
				continue
			}
			i++
			break
		}
		b.WriteByte(c)
		i++
	}
	l.pos = i
	l.countLines(start)
	l.emit(String, start, b.String())
}

// rawString scans a """...""" literal opened at from. The closing
// delimiter must be at least as long as the opening one.
func (l *lexer) rawString(start, from int) {
	n := 0
	for from+n < len(l.src) && l.src[from+n] == '"' {
		n++
	}
	delim := strings.Repeat(`"`, n)
	body := from + n
	end := strings.Index(l.src[body:], delim)
	var value string
	if end < 0 {
		value = l.src[body:]
		l.pos = len(l.src)
	} else {
		value = l.src[body : body+end]
		l.pos = body + end + n
	}
	l.countLines(start)
	l.emit(String, start, trimRawIndent(value))
}

func trimRawIndent(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	lines := strings.Split(s, "\n")
	if strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	if len(lines) == 0 {
		return ""
	}
	last := lines[len(lines)-1]
	indent := ""
	if strings.TrimSpace(last) == "" {
		indent = last
		lines = lines[:len(lines)-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(strings.TrimPrefix(line, indent), "\r")
	}
	return strings.Join(lines, "\n")
}

func (l *lexer) dollar() {
	start := l.pos
	i := l.pos
	for i < len(l.src) && l.src[i] == '$' {
		i++
	}
	switch {
	case strings.HasPrefix(l.src[i:], `"""`):
		l.rawString(start, i)
	case strings.HasPrefix(l.src[i:], `@"`):
		l.verbatim(start, i+2)
	case i < len(l.src) && l.src[i] == '"':
		l.quoted(start, i+1, true)
	default:
		l.punct()
	}
}

func (l *lexer) char() {
	start := l.pos
	i := l.pos + 1
	var value string
	if i < len(l.src) && l.src[i] == '\\' {
		r, n := unescape(l.src[i+1:])
		value = r
		i += 1 + n
	} else if i < len(l.src) {
		_, size := utf8.DecodeRuneInString(l.src[i:])
		value = l.src[i : i+size]
		i += size
	}
	if i < len(l.src) && l.src[i] == '\'' {
		l.pos = i + 1
		l.emit(Char, start, value)
		return
	}
	// Not valid C#, but condition strings quote text with single quotes.
	rest := l.src[start+1 : l.lineEnd()]
	if end := strings.IndexByte(rest, '\''); end >= 0 {
		l.pos = start + 1 + end + 1
		l.emit(String, start, rest[:end])
		return
	}
	l.pos = i
	l.emit(Char, start, value)
}

func unescape(s string) (string, int) {
	if s == "" {
		return `\`, 0
	}
	switch s[0] {
	case 'n':
		return "\n", 1
	case 't':
		return "\t", 1
	case 'r':
		return "\r", 1
	case '0':
		return "\x00", 1
	case '\\':
		return `\`, 1
	case '"':
		return `"`, 1
	case '\'':
		return "'", 1
	case 'u':
		if len(s) >= 5 {
			if r, ok := hexRune(s[1:5]); ok {
				return string(r), 5
			}
		}
	case 'x':
		n := 1
		for n < len(s) && n < 5 && isHex(s[n]) {
			n++
		}
		if r, ok := hexRune(s[1:n]); ok {
			return string(r), n
		}
	}
	return s[:1], 1
}

func hexRune(s string) (rune, bool) {
	if s == "" {
		return 0, false
	}
	var r rune
	for i := 0; i < len(s); i++ {
		if !isHex(s[i]) {
			return 0, false
		}
		r = r*16 + rune(hexVal(s[i]))
	}
	return r, true
}

func (l *lexer) number() {
	start := l.pos
	i := l.pos
	if l.src[i] == '0' && i+1 < len(l.src) && (l.src[i+1] == 'x' || l.src[i+1] == 'X' || l.src[i+1] == 'b' || l.src[i+1] == 'B') {
		i += 2
		for i < len(l.src) && (isHex(l.src[i]) || l.src[i] == '_') {
			i++
		}
	} else {
		for i < len(l.src) && (isDigit(l.src[i]) || l.src[i] == '_') {
			i++
		}
		if i+1 < len(l.src) && l.src[i] == '.' && isDigit(l.src[i+1]) {
			i++
			for i < len(l.src) && (isDigit(l.src[i]) || l.src[i] == '_') {
				i++
			}
		}
		if i < len(l.src) && (l.src[i] == 'e' || l.src[i] == 'E') {
			j := i + 1
			if j < len(l.src) && (l.src[j] == '+' || l.src[j] == '-') {
				j++
			}
			if j < len(l.src) && isDigit(l.src[j]) {
				i = j
				for i < len(l.src) && isDigit(l.src[i]) {
					i++
				}
			}
		}
	}
	for i < len(l.src) && strings.IndexByte("fFdDmMuUlL", l.src[i]) >= 0 {
		i++
	}
	l.pos = i
	l.emit(Number, start, "")
}

func (l *lexer) ident() bool {
	start := l.pos
	i := l.pos
	if l.src[i] == '@' {
		i++
	}
	nameStart := i
	for i < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[i:])
		if r == '_' || unicode.IsLetter(r) || (i > nameStart && unicode.IsDigit(r)) {
			i += size
			continue
		}
		break
	}
	if i == nameStart {
		return false
	}
	l.pos = i
	l.emit(Ident, start, l.src[nameStart:i])
	return true
}

func (l *lexer) punct() {
	start := l.pos
	rest := l.src[l.pos:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			l.pos += len(op)
			l.emit(Punct, start, "")
			return
		}
	}
	_, size := utf8.DecodeRuneInString(rest)
	l.pos += size
	l.emit(Punct, start, "")
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }
func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) int {
	switch {
	case isDigit(c):
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
