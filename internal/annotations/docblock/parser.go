// Package docblock parses annotations written in docblock syntax, such as
//
//	@Source("db", "robots")
//	@Index(columns={"name", "type"}, type="unique")
//	@Column(type="string", size=70, nullable=false)
//
// and reads them from the doc comments of Go struct declarations.
package docblock

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/conduit-lang/modelmeta/internal/annotations"
)

// Parse extracts every annotation from a docblock in declaration order
func Parse(text, file string) ([]*annotations.Annotation, error) {
	return parseAt(text, file, 1)
}

func parseAt(text, file string, line int) ([]*annotations.Annotation, error) {
	tokens, lexErrs := NewLexerAt(text, file, line).ScanTokens()
	if len(lexErrs) > 0 {
		errs := make([]error, len(lexErrs))
		for i, e := range lexErrs {
			errs[i] = e
		}
		return nil, errors.Join(errs...)
	}

	p := &parser{tokens: tokens, file: file}
	return p.parse()
}

// ParseCollection parses a docblock into an annotation collection
func ParseCollection(text, file string) (annotations.Collection, error) {
	items, err := Parse(text, file)
	if err != nil {
		return annotations.Collection{}, err
	}
	return annotations.NewCollection(items...), nil
}

type parser struct {
	tokens  []Token
	current int
	file    string
}

func (p *parser) parse() ([]*annotations.Annotation, error) {
	var out []*annotations.Annotation
	for !p.check(TOKEN_EOF) {
		a, err := p.parseAnnotation()
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (p *parser) parseAnnotation() (*annotations.Annotation, error) {
	if _, err := p.consume(TOKEN_AT, "expected '@'"); err != nil {
		return nil, err
	}
	name, err := p.consume(TOKEN_IDENTIFIER, "expected annotation name")
	if err != nil {
		return nil, err
	}

	a := &annotations.Annotation{Name: name.Literal.(string)}
	if p.match(TOKEN_LPAREN) {
		args, err := p.parseArguments(TOKEN_RPAREN)
		if err != nil {
			return nil, err
		}
		a.Args = args
	}
	return a, nil
}

// parseArguments parses a comma separated argument list up to and
// including the closing token. A trailing comma is allowed.
func (p *parser) parseArguments(closing TokenType) (annotations.Arguments, error) {
	var args annotations.Arguments
	for !p.match(closing) {
		if p.check(TOKEN_EOF) {
			return args, p.errorAt(p.peek(), fmt.Sprintf("expected '%s'", closing))
		}

		if p.isKey() {
			key := p.advance()
			p.advance() // '=' or ':'
			value, err := p.parseValue()
			if err != nil {
				return args, err
			}
			args.Set(keyName(key), value)
		} else {
			value, err := p.parseValue()
			if err != nil {
				return args, err
			}
			args.Append(value)
		}

		if !p.match(TOKEN_COMMA) && !p.check(closing) {
			return args, p.errorAt(p.peek(), fmt.Sprintf("expected ',' or '%s'", closing))
		}
	}
	return args, nil
}

func (p *parser) parseValue() (any, error) {
	tok := p.advance()
	switch tok.Type {
	case TOKEN_STRING_LITERAL, TOKEN_INT_LITERAL, TOKEN_FLOAT_LITERAL:
		return tok.Literal, nil
	case TOKEN_TRUE:
		return true, nil
	case TOKEN_FALSE:
		return false, nil
	case TOKEN_NULL:
		return nil, nil
	case TOKEN_IDENTIFIER:
		return tok.Lexeme, nil
	case TOKEN_LBRACE:
		return p.parseList(TOKEN_RBRACE)
	case TOKEN_LBRACKET:
		return p.parseList(TOKEN_RBRACKET)
	case TOKEN_AT:
		p.current--
		return p.parseAnnotation()
	default:
		return nil, p.errorAt(tok, fmt.Sprintf("unexpected %s", tok.Type))
	}
}

// parseList parses {...} and [...] values. Lists with only positional items
// become []any; lists with any key become map[string]any, positional items
// keyed by their index.
func (p *parser) parseList(closing TokenType) (any, error) {
	args, err := p.parseArguments(closing)
	if err != nil {
		return nil, err
	}
	keys := args.Keys()
	if len(keys) == 0 {
		return args.Positionals(), nil
	}

	m := make(map[string]any, args.Len())
	for i, v := range args.Positionals() {
		m[strconv.Itoa(i)] = v
	}
	for _, k := range keys {
		m[k] = args.Get(k)
	}
	return m, nil
}

// isKey reports whether the next tokens form "key =" or "key :"
func (p *parser) isKey() bool {
	if !p.check(TOKEN_IDENTIFIER) && !p.check(TOKEN_STRING_LITERAL) {
		return false
	}
	if p.current+1 >= len(p.tokens) {
		return false
	}
	next := p.tokens[p.current+1].Type
	return next == TOKEN_EQUAL || next == TOKEN_COLON
}

func keyName(tok Token) string {
	if s, ok := tok.Literal.(string); ok {
		return s
	}
	return tok.Lexeme
}

func (p *parser) peek() Token {
	return p.tokens[p.current]
}

func (p *parser) advance() Token {
	tok := p.tokens[p.current]
	if tok.Type != TOKEN_EOF {
		p.current++
	}
	return tok
}

func (p *parser) check(t TokenType) bool {
	return p.peek().Type == t
}

func (p *parser) match(t TokenType) bool {
	if !p.check(t) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(t TokenType, message string) (Token, error) {
	if p.check(t) {
		return p.advance(), nil
	}
	return Token{}, p.errorAt(p.peek(), message)
}

func (p *parser) errorAt(tok Token, message string) error {
	return LexError{Message: message, Line: tok.Line, Column: tok.Column, File: p.file}
}
