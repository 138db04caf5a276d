package docblock

import "fmt"

// TokenType represents the type of a docblock annotation token
type TokenType int

const (
	TOKEN_EOF TokenType = iota
	TOKEN_AT
	TOKEN_IDENTIFIER
	TOKEN_STRING_LITERAL
	TOKEN_INT_LITERAL
	TOKEN_FLOAT_LITERAL
	TOKEN_TRUE
	TOKEN_FALSE
	TOKEN_NULL
	TOKEN_LPAREN
	TOKEN_RPAREN
	TOKEN_LBRACE
	TOKEN_RBRACE
	TOKEN_LBRACKET
	TOKEN_RBRACKET
	TOKEN_COMMA
	TOKEN_EQUAL
	TOKEN_COLON
)

var tokenNames = map[TokenType]string{
	TOKEN_EOF:            "EOF",
	TOKEN_AT:             "@",
	TOKEN_IDENTIFIER:     "identifier",
	TOKEN_STRING_LITERAL: "string",
	TOKEN_INT_LITERAL:    "integer",
	TOKEN_FLOAT_LITERAL:  "float",
	TOKEN_TRUE:           "true",
	TOKEN_FALSE:          "false",
	TOKEN_NULL:           "null",
	TOKEN_LPAREN:         "(",
	TOKEN_RPAREN:         ")",
	TOKEN_LBRACE:         "{",
	TOKEN_RBRACE:         "}",
	TOKEN_LBRACKET:       "[",
	TOKEN_RBRACKET:       "]",
	TOKEN_COMMA:          ",",
	TOKEN_EQUAL:          "=",
	TOKEN_COLON:          ":",
}

// String returns a readable token type name
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return "unknown"
}

var keywords = map[string]TokenType{
	"true":  TOKEN_TRUE,
	"false": TOKEN_FALSE,
	"null":  TOKEN_NULL,
}

// Token is a lexical token of an annotation expression
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal interface{}
	Line    int
	Column  int
}

// LexError represents a lexical or syntax error inside a docblock
type LexError struct {
	Message string
	Line    int
	Column  int
	File    string
}

// Error implements the error interface
func (e LexError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Line, e.Column, e.Message)
}
