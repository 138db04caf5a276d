package docblock

import (
	"strconv"
	"strings"
	"unicode"
)

// Lexer tokenizes the annotations embedded in a docblock. Free text between
// annotations is skipped; only text following an '@' that starts a word is
// tokenized, up to the matching closing parenthesis.
type Lexer struct {
	source      []rune     // Docblock text as runes
	start       int        // Start position of current token
	current     int        // Current position in source
	line        int        // Current line number
	column      int        // Current column number
	startColumn int        // Column where current token started
	depth       int        // Parenthesis depth, 0 outside an argument list
	file        string     // Source file path, for error messages
	tokens      []Token    // Collected tokens
	errors      []LexError // Collected errors
}

// NewLexer creates a new Lexer for the given docblock text
func NewLexer(source, file string) *Lexer {
	return NewLexerAt(source, file, 1)
}

// NewLexerAt creates a Lexer whose first line is reported as line
func NewLexerAt(source, file string, line int) *Lexer {
	return &Lexer{
		source:      []rune(source),
		line:        line,
		column:      1,
		startColumn: 1,
		file:        file,
		tokens:      make([]Token, 0, 16),
	}
}

// ScanTokens scans all annotation tokens and returns them with any errors
func (l *Lexer) ScanTokens() ([]Token, []LexError) {
	for !l.isAtEnd() {
		l.start = l.current
		l.startColumn = l.column
		if l.depth == 0 {
			l.scanText()
		} else {
			l.scanToken()
		}
	}

	if l.depth > 0 {
		l.addError("Unterminated annotation argument list")
	}

	l.tokens = append(l.tokens, Token{
		Type:   TOKEN_EOF,
		Line:   l.line,
		Column: l.column,
	})

	return l.tokens, l.errors
}

// scanText skips free text until an annotation starts
func (l *Lexer) scanText() {
	atBoundary := l.current == 0 || l.isBoundary(l.source[l.current-1])
	r := l.advance()
	if r != '@' || !atBoundary || !l.isAlpha(l.peek()) {
		return
	}
	l.addToken(TOKEN_AT, nil)

	l.start = l.current
	l.startColumn = l.column
	for l.isNameRune(l.peek()) {
		l.advance()
	}
	l.addToken(TOKEN_IDENTIFIER, strings.TrimRight(string(l.source[l.start:l.current]), "."))

	if l.peek() == '(' {
		l.start = l.current
		l.startColumn = l.column
		l.advance()
		l.addToken(TOKEN_LPAREN, nil)
		l.depth = 1
	}
}

// scanToken scans a single token inside an argument list
func (l *Lexer) scanToken() {
	r := l.advance()

	switch r {
	case ' ', '\t', '\r', '\n', '*':
		// Whitespace and docblock gutters
	case '(':
		l.depth++
		l.addToken(TOKEN_LPAREN, nil)
	case ')':
		l.depth--
		l.addToken(TOKEN_RPAREN, nil)
	case '{':
		l.addToken(TOKEN_LBRACE, nil)
	case '}':
		l.addToken(TOKEN_RBRACE, nil)
	case '[':
		l.addToken(TOKEN_LBRACKET, nil)
	case ']':
		l.addToken(TOKEN_RBRACKET, nil)
	case ',':
		l.addToken(TOKEN_COMMA, nil)
	case '=':
		l.addToken(TOKEN_EQUAL, nil)
	case ':':
		l.addToken(TOKEN_COLON, nil)
	case '@':
		// Nested annotation, its name is scanned as an identifier
		l.addToken(TOKEN_AT, nil)
	case '"', '\'':
		l.scanString(r)
	default:
		switch {
		case l.isDigit(r), r == '-' && l.isDigit(l.peek()):
			l.scanNumber()
		case l.isAlpha(r):
			l.scanIdentifier()
		default:
			l.addError("Unexpected character: " + string(r))
		}
	}
}

// scanString scans a quoted string literal, handling escape sequences
func (l *Lexer) scanString(quote rune) {
	startLine := l.line
	var builder strings.Builder

	for !l.isAtEnd() && l.peek() != quote {
		if l.peek() == '\\' {
			l.advance()
			if l.isAtEnd() {
				break
			}
			escaped := l.advance()
			switch escaped {
			case 'n':
				builder.WriteRune('\n')
			case 't':
				builder.WriteRune('\t')
			case '\\', '"', '\'':
				builder.WriteRune(escaped)
			default:
				builder.WriteRune('\\')
				builder.WriteRune(escaped)
			}
			continue
		}
		builder.WriteRune(l.advance())
	}

	if l.isAtEnd() {
		l.addError("Unterminated string starting at line " + strconv.Itoa(startLine))
		return
	}

	// Closing quote
	l.advance()

	l.addToken(TOKEN_STRING_LITERAL, builder.String())
}

// scanNumber scans an integer or float literal
func (l *Lexer) scanNumber() {
	for l.isDigit(l.peek()) {
		l.advance()
	}

	isFloat := false
	if l.peek() == '.' && l.isDigit(l.peekNext()) {
		isFloat = true
		l.advance()
		for l.isDigit(l.peek()) {
			l.advance()
		}
	}

	lexeme := string(l.source[l.start:l.current])
	if isFloat {
		value, err := strconv.ParseFloat(lexeme, 64)
		if err != nil {
			l.addError("Invalid float literal: " + err.Error())
			return
		}
		l.addToken(TOKEN_FLOAT_LITERAL, value)
		return
	}

	value, err := strconv.ParseInt(lexeme, 10, 64)
	if err != nil {
		l.addError("Invalid integer literal: " + err.Error())
		return
	}
	l.addToken(TOKEN_INT_LITERAL, int(value))
}

// scanIdentifier scans a bare identifier or keyword. Namespaced names such
// as App\Models\Users or billing.Invoice are accepted.
func (l *Lexer) scanIdentifier() {
	for l.isNameRune(l.peek()) {
		l.advance()
	}

	lexeme := string(l.source[l.start:l.current])
	if tokenType, ok := keywords[strings.ToLower(lexeme)]; ok {
		l.addToken(tokenType, nil)
		return
	}
	l.addToken(TOKEN_IDENTIFIER, lexeme)
}

func (l *Lexer) isAtEnd() bool {
	return l.current >= len(l.source)
}

func (l *Lexer) advance() rune {
	if l.isAtEnd() {
		return 0
	}
	r := l.source[l.current]
	l.current++
	if r == '\n' {
		l.line++
		l.column = 1
	} else {
		l.column++
	}
	return r
}

func (l *Lexer) peek() rune {
	if l.isAtEnd() {
		return 0
	}
	return l.source[l.current]
}

func (l *Lexer) peekNext() rune {
	if l.current+1 >= len(l.source) {
		return 0
	}
	return l.source[l.current+1]
}

func (l *Lexer) isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (l *Lexer) isAlpha(r rune) bool {
	return unicode.IsLetter(r) || r == '_'
}

func (l *Lexer) isNameRune(r rune) bool {
	return l.isAlpha(r) || l.isDigit(r) || r == '\\' || r == '.'
}

// isBoundary reports whether an annotation may start after r
func (l *Lexer) isBoundary(r rune) bool {
	return unicode.IsSpace(r) || r == '*' || r == '/'
}

func (l *Lexer) addToken(tokenType TokenType, literal interface{}) {
	l.tokens = append(l.tokens, Token{
		Type:    tokenType,
		Lexeme:  string(l.source[l.start:l.current]),
		Literal: literal,
		Line:    l.line,
		Column:  l.startColumn,
	})
}

func (l *Lexer) addError(message string) {
	l.errors = append(l.errors, LexError{
		Message: message,
		Line:    l.line,
		Column:  l.column,
		File:    l.file,
	})
}
