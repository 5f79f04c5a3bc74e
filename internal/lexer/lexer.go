// Package lexer implements the scanner: source text in, a flat token
// stream out.
package lexer

import (
	"github.com/opalscript/lumen/internal/langerr"
	"github.com/opalscript/lumen/internal/token"
)

// Scanner converts source text into tokens with a single forward pass.
type Scanner struct {
	source  string
	start   int
	current int
	line    int
	tokens  []token.Token
}

// New returns a Scanner over source, ready to Scan.
func New(source string) *Scanner {
	return &Scanner{source: source, line: 1}
}

// Scan runs the scanner to completion and returns the token stream,
// always terminated by exactly one EOF token. It returns the first
// scanner error encountered, if any.
func (s *Scanner) Scan() ([]token.Token, error) {
	for !s.atEnd() {
		s.start = s.current
		if err := s.scanToken(); err != nil {
			return nil, err
		}
	}
	s.tokens = append(s.tokens, token.Token{Kind: token.EOF, Lexeme: "", Line: s.line})
	return s.tokens, nil
}

func (s *Scanner) atEnd() bool {
	return s.current >= len(s.source)
}

func (s *Scanner) advance() byte {
	c := s.source[s.current]
	s.current++
	return c
}

func (s *Scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.current]
}

func (s *Scanner) peekNext() byte {
	if s.current+1 >= len(s.source) {
		return 0
	}
	return s.source[s.current+1]
}

// match consumes the next character if it equals want.
func (s *Scanner) match(want byte) bool {
	if s.atEnd() || s.source[s.current] != want {
		return false
	}
	s.current++
	return true
}

func (s *Scanner) add(kind token.Kind) {
	s.tokens = append(s.tokens, token.Token{
		Kind:   kind,
		Lexeme: s.source[s.start:s.current],
		Line:   s.line,
	})
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool { return isAlpha(c) || isDigit(c) }

func (s *Scanner) scanToken() error {
	c := s.advance()
	switch c {
	case '(':
		s.add(token.LEFT_PAREN)
	case ')':
		s.add(token.RIGHT_PAREN)
	case '{':
		s.add(token.LEFT_BRACE)
	case '}':
		s.add(token.RIGHT_BRACE)
	case ',':
		s.add(token.COMMA)
	case '.':
		s.add(token.DOT)
	case ';':
		s.add(token.SEMICOLON)
	case ':':
		s.add(token.COLON)
	case '?':
		s.add(token.QUESTION)
	case '*':
		s.add(token.STAR)
	case '/':
		s.add(token.SLASH)
	case '+':
		if s.match('=') {
			s.add(token.PLUS_EQUAL)
		} else {
			s.add(token.PLUS)
		}
	case '-':
		if s.match('=') {
			s.add(token.MINUS_EQUAL)
		} else {
			s.add(token.MINUS)
		}
	case '!':
		if s.match('=') {
			s.add(token.BANG_EQUAL)
		} else {
			s.add(token.BANG)
		}
	case '=':
		if s.match('=') {
			s.add(token.EQUAL_EQUAL)
		} else {
			s.add(token.EQUAL)
		}
	case '<':
		if s.match('=') {
			s.add(token.LESS_EQUAL)
		} else {
			s.add(token.LESS)
		}
	case '>':
		if s.match('=') {
			s.add(token.GREATER_EQUAL)
		} else {
			s.add(token.GREATER)
		}
	case '#':
		for s.peek() != '\n' && !s.atEnd() {
			s.advance()
		}
	case ' ', '\r', '\t':
		// discard
	case '\n':
		s.line++
	case '"':
		return s.scanString()
	default:
		switch {
		case isDigit(c):
			s.scanNumber()
		case isAlpha(c):
			s.scanIdentifier()
		default:
			return langerr.NewScan(s.line, "Unexpected character")
		}
	}
	return nil
}

func (s *Scanner) scanString() error {
	openLine := s.line
	for s.peek() != '"' && !s.atEnd() {
		if s.peek() == '\n' {
			s.line++
		}
		s.advance()
	}
	if s.atEnd() {
		return langerr.NewScan(openLine, "Unterminated string")
	}
	s.advance() // closing quote
	s.tokens = append(s.tokens, token.Token{
		Kind:   token.STRING,
		Lexeme: s.source[s.start:s.current],
		Line:   openLine,
	})
	return nil
}

func (s *Scanner) scanNumber() {
	for isDigit(s.peek()) {
		s.advance()
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.advance()
		for isDigit(s.peek()) {
			s.advance()
		}
	}
	s.add(token.NUMBER)
}

func (s *Scanner) scanIdentifier() {
	for isAlphaNumeric(s.peek()) {
		s.advance()
	}
	text := s.source[s.start:s.current]
	if kind, ok := token.Keywords[text]; ok {
		s.add(kind)
		return
	}
	s.add(token.IDENTIFIER)
}
