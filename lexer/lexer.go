// Package lexer turns source bytes into a stream of tokens.
package lexer

import (
	"github.com/fungcc/fungcc/token"
)

// Scanner holds our object-state: the source buffer and our current
// read position within it. Tokens returned by Scanner hold lexemes
// that are slices of source, so the Scanner - and anything that reads
// from it - must not outlive source.
type Scanner struct {
	source string
	pos    int
	line   int
	column int
}

// New creates a Scanner over source.
func New(source string) *Scanner {
	return &Scanner{source: source, line: 1, column: 1}
}

// Peek returns the token that Next would return, without advancing.
//
// Mirrors the original implementation's lexer_peek_token, which copies
// the whole scanner struct by value and re-runs the scan on the copy;
// Go's value-type struct assignment makes that idiom free to port
// directly.
func (s *Scanner) Peek() token.Token {
	lookahead := *s
	return lookahead.Next()
}

// Next returns the next token and advances past it.
func (s *Scanner) Next() token.Token {
	s.skipWhitespaceAndComments()

	startLine, startColumn := s.line, s.column
	c, ok := s.current()

	if !ok {
		return s.makeToken(token.EOF, s.pos, startLine, startColumn)
	}

	if isIdentifierStart(c) {
		start := s.pos
		s.advance()
		for {
			c, ok := s.current()
			if !ok || !isIdentifierPart(c) {
				break
			}
			s.advance()
		}
		lexeme := s.source[start:s.pos]
		return token.Token{
			Kind:   token.LookupIdentifier(lexeme),
			Lexeme: lexeme,
			Line:   startLine,
			Column: startColumn,
		}
	}

	if isDigit(c) {
		start := s.pos
		s.advance()
		s.scanDecimal()
		return s.makeToken(token.Number, start, startLine, startColumn)
	}

	if c == '"' {
		start := s.pos
		s.advance()
		s.scanString()
		return s.makeToken(token.String, start, startLine, startColumn)
	}

	start := s.pos
	s.advance()

	switch c {
	case '(':
		return s.makeToken(token.LParen, start, startLine, startColumn)
	case ')':
		return s.makeToken(token.RParen, start, startLine, startColumn)
	case '{':
		return s.makeToken(token.LBrace, start, startLine, startColumn)
	case '}':
		return s.makeToken(token.RBrace, start, startLine, startColumn)
	case ';':
		return s.makeToken(token.Semicolon, start, startLine, startColumn)
	case ',':
		return s.makeToken(token.Comma, start, startLine, startColumn)
	case '*':
		return s.makeToken(token.Asterisk, start, startLine, startColumn)
	case '+':
		return s.makeToken(token.Plus, start, startLine, startColumn)
	case '-':
		return s.makeToken(token.Minus, start, startLine, startColumn)
	case '/':
		return s.makeToken(token.Slash, start, startLine, startColumn)
	case '=':
		if next, ok := s.current(); ok && next == '=' {
			s.advance()
			return s.makeToken(token.Equal, start, startLine, startColumn)
		}
		return s.makeToken(token.Assign, start, startLine, startColumn)
	}

	return s.makeToken(token.Unknown, start, startLine, startColumn)
}

func (s *Scanner) makeToken(kind token.Kind, start, line, column int) token.Token {
	return token.Token{Kind: kind, Lexeme: s.source[start:s.pos], Line: line, Column: column}
}

// current returns the byte at pos and whether pos is within bounds.
func (s *Scanner) current() (byte, bool) {
	if s.pos >= len(s.source) {
		return 0, false
	}
	return s.source[s.pos], true
}

// peekAt returns the byte offset bytes ahead of pos, or (0, false) if
// that's past the end of the buffer.
func (s *Scanner) peekAt(offset int) (byte, bool) {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0, false
	}
	return s.source[p], true
}

func (s *Scanner) advance() {
	if s.pos >= len(s.source) {
		return
	}
	c := s.source[s.pos]
	s.pos++
	if c == '\n' {
		s.line++
		s.column = 1
	} else {
		s.column++
	}
}

func (s *Scanner) skipWhitespaceAndComments() {
	for {
		c, ok := s.current()
		if !ok {
			return
		}

		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			s.advance()
			continue
		}

		if c == '/' {
			if n, ok := s.peekAt(1); ok && n == '/' {
				for {
					c, ok := s.current()
					if !ok || c == '\n' {
						break
					}
					s.advance()
				}
				continue
			}
			if n, ok := s.peekAt(1); ok && n == '*' {
				s.advance() // '/'
				s.advance() // '*'
				for {
					c, ok := s.current()
					if !ok {
						break
					}
					if c == '*' {
						if n, ok := s.peekAt(1); ok && n == '/' {
							s.advance()
							s.advance()
							break
						}
					}
					s.advance()
				}
				continue
			}
		}

		return
	}
}

// scanDecimal consumes the rest of a number literal: the remaining
// integer digits (the caller has consumed only the first one), then the
// fractional part, if present ('.' followed by at least one digit).
func (s *Scanner) scanDecimal() {
	for {
		c, ok := s.current()
		if !ok || !isDigit(c) {
			break
		}
		s.advance()
	}

	if c, ok := s.current(); ok && c == '.' {
		if n, ok := s.peekAt(1); ok && isDigit(n) {
			s.advance()
			for {
				c, ok := s.current()
				if !ok || !isDigit(c) {
					break
				}
				s.advance()
			}
		}
	}
}

// scanString consumes up to and including the closing quote. A
// backslash escapes the following byte verbatim - no semantic
// decoding happens here. If EOF arrives first, the token is produced
// with whatever span was consumed; an unterminated string is not
// flagged by the Scanner.
func (s *Scanner) scanString() {
	for {
		c, ok := s.current()
		if !ok {
			return
		}
		if c == '"' {
			s.advance()
			return
		}
		if c == '\\' {
			if _, ok := s.peekAt(1); ok {
				s.advance()
			}
		}
		s.advance()
	}
}

func isIdentifierStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentifierPart(c byte) bool {
	return isIdentifierStart(c) || isDigit(c)
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
