package parser

import (
	"errors"
	"strconv"
)

// keywords are reserved words counted as separate tokens; no distinction is
// made between keywords and operators. Keyword prefix disambiguation relies
// on front-to-back traversal: a keyword that is a prefix of another keyword
// must come later in the table. Position i maps to TokenType(i + 1).
var keywords = []string{
	"(",
	")",
	"defun",
	"let",
	"+",
	"-",
	"*",
	"/",
	"ifzero",
	"ifneg",
	"print",
	"readi32",
	"readf32",
}

// A contiguous run of separators collapses and vanishes before reaching the
// token stream.
func isSeparator(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n':
		return true
	}
	return false
}

// Identifier charset: 0-9 A-Z _ a-z.
func isIdentifierByte(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'A' <= c && c <= 'Z':
		return true
	case c == '_':
		return true
	case 'a' <= c && c <= 'z':
		return true
	}
	return false
}

// Bytes allowed inside a numeric literal: 0-9 A-F a-f.
func isLiteralByte(c byte) bool {
	switch {
	case '0' <= c && c <= '9':
		return true
	case 'A' <= c && c <= 'F':
		return true
	case 'a' <= c && c <= 'f':
		return true
	}
	return false
}

func isSignByte(c byte) bool {
	return c == '+' || c == '-'
}

// identifierAt reports whether position i holds an identifier byte; past the
// end of input counts as no.
func identifierAt(s string, i int) bool {
	return i < len(s) && isIdentifierByte(s[i])
}

func signAt(s string, i int) bool {
	return i < len(s) && isSignByte(s[i])
}

func dotAt(s string, i int) bool {
	return i < len(s) && s[i] == '.'
}

// Tokenize turns a source buffer into a token sequence, tracking rows and
// columns. Rows are one-based, columns zero-based and byte-counted.
func Tokenize(src string) ([]Token, error) {
	var tokens []Token
	row, col := 1, 0

	i := 0
	for i < len(src) {
		if isSeparator(src[i]) {
			if src[i] == '\n' {
				row++
				col = 0
			} else {
				col++
			}
			i++
			continue
		}

		tok, width := scanToken(src[i:])
		if tok.Type == tokenUnknown {
			return nil, errorAt(Position{Row: row, Col: col}, errors.New("syntax error"))
		}
		tok.Pos = Position{Row: row, Col: col}
		tokens = append(tokens, tok)
		col += width
		i += width
	}

	return tokens, nil
}

// scanToken recognises the single context-free token starting the given
// stream. Categories in decreasing precedence: literals > keywords >
// identifiers > unknown. Returns the token and the byte width consumed.
func scanToken(s string) (Token, int) {
	// Numeric literal attempt. A literal may start with a sign and carry a
	// hex prefix; any subsequent sign or decimal point voids the literal.
	end := 0
	hasSign := signAt(s, 0)
	negative := hasSign && s[0] == '-'
	hex := false

	if hasSign {
		end++
	}
	if end+1 < len(s) && s[end] == '0' && (s[end+1] == 'x' || s[end+1] == 'X') {
		end += 2
		hex = true
	}
	for end < len(s) && isLiteralByte(s[end]) {
		end++
	}
	if dotAt(s, end) {
		end++
		for end < len(s) && isLiteralByte(s[end]) {
			end++
		}
	}

	// Heuristics to tell literals from literal-prefixed identifiers: a
	// literal ending in an identifier-allowed byte must not be followed by
	// another identifier-allowed byte.
	if end > 0 && !signAt(s, end) && !dotAt(s, end) &&
		(!isIdentifierByte(s[end-1]) || !identifierAt(s, end)) {
		lexeme := s[:end]

		if hex {
			digits := end
			offset := 2 // hex prefix
			if hasSign {
				offset = 3 // sign and hex prefix
			}
			if offset < digits {
				if u, err := strconv.ParseUint(lexeme[offset:], 16, 32); err == nil {
					v := int32(u)
					if negative {
						v = -v
					}
					return Token{Type: tokenLiteralI32, Lexeme: lexeme, I32: v}, end
				}
			}
		} else {
			if v, err := strconv.ParseInt(lexeme, 10, 32); err == nil {
				return Token{Type: tokenLiteralI32, Lexeme: lexeme, I32: int32(v)}, end
			}
		}

		// Either a decimal or hexadecimal float. The hex form follows Go's
		// dialect: the mantissa must carry a binary 'p' exponent, which this
		// charset cannot express, so hex floats in practice reduce to the
		// decimal form.
		if f, err := strconv.ParseFloat(lexeme, 32); err == nil {
			return Token{Type: tokenLiteralF32, Lexeme: lexeme, F32: float32(f)}, end
		}
	}

	// Keyword check, front-to-back. A keyword ending in an identifier byte
	// is accepted only when the byte after it is not an identifier byte.
	for i, kw := range keywords {
		if len(s) < len(kw) || s[:len(kw)] != kw {
			continue
		}
		if isIdentifierByte(kw[len(kw)-1]) && identifierAt(s, len(kw)) {
			continue
		}
		return Token{Type: TokenType(i + 1), Lexeme: kw}, len(kw)
	}

	// Identifier.
	end = 0
	for end < len(s) && isIdentifierByte(s[end]) {
		end++
	}
	if end > 0 {
		return Token{Type: tokenIdentifier, Lexeme: s[:end]}, end
	}

	// Something unexpected.
	return Token{Type: tokenUnknown}, 0
}
