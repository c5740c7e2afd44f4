package expr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type tokenKind int

const (
	tokenIdentifier tokenKind = iota
	tokenString
	tokenNumber
	tokenBool
	tokenNull
	tokenOperator
	tokenLParen
	tokenRParen
	tokenLBracket
	tokenRBracket
	tokenDot
	tokenComma
)

type token struct {
	kind tokenKind
	raw  string
	pos  int
}

// operators are matched longest first.
var operators = []string{
	"===", "!==",
	"==", "!=", "<=", ">=", "&&", "||",
	"<", ">", "+", "-", "*", "/", "%", "!",
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	i := 0

	for i < len(input) {
		ch := input[i]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			i++
			continue
		}

		switch ch {
		case '(':
			tokens = append(tokens, token{kind: tokenLParen, raw: "(", pos: i})
			i++
			continue
		case ')':
			tokens = append(tokens, token{kind: tokenRParen, raw: ")", pos: i})
			i++
			continue
		case '[':
			tokens = append(tokens, token{kind: tokenLBracket, raw: "[", pos: i})
			i++
			continue
		case ']':
			tokens = append(tokens, token{kind: tokenRBracket, raw: "]", pos: i})
			i++
			continue
		case ',':
			tokens = append(tokens, token{kind: tokenComma, raw: ",", pos: i})
			i++
			continue
		case '.':
			if i+1 < len(input) && isDigit(input[i+1]) {
				break
			}
			tokens = append(tokens, token{kind: tokenDot, raw: ".", pos: i})
			i++
			continue
		case '"', '\'':
			value, next, err := scanString(input, i)
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, token{kind: tokenString, raw: value, pos: i})
			i = next
			continue
		}

		if op := matchOperator(input[i:]); op != "" {
			tokens = append(tokens, token{kind: tokenOperator, raw: op, pos: i})
			i += len(op)
			continue
		}

		start := i
		switch {
		case isDigit(ch) || ch == '.':
			for i < len(input) && (isDigit(input[i]) || input[i] == '.' || input[i] == 'e' || input[i] == 'E' ||
				((input[i] == '+' || input[i] == '-') && (input[i-1] == 'e' || input[i-1] == 'E'))) {
				i++
			}
			tokens = append(tokens, token{kind: tokenNumber, raw: input[start:i], pos: start})
		case isIdentStart(ch):
			for i < len(input) && isIdentPart(input[i]) {
				i++
			}
			raw := input[start:i]
			switch raw {
			case "true", "false":
				tokens = append(tokens, token{kind: tokenBool, raw: raw, pos: start})
			case "null", "nil", "undefined":
				tokens = append(tokens, token{kind: tokenNull, raw: "null", pos: start})
			default:
				tokens = append(tokens, token{kind: tokenIdentifier, raw: raw, pos: start})
			}
		default:
			return nil, fmt.Errorf("expr: unexpected character %q at %d", ch, i)
		}
	}

	return tokens, nil
}

func scanString(input string, start int) (string, int, error) {
	quote := input[start]
	i := start + 1
	escaped := false
	for i < len(input) {
		c := input[i]
		i++
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' {
			escaped = true
			continue
		}
		if c != quote {
			continue
		}
		body := input[start+1 : i-1]
		if quote == '\'' {
			body = strings.ReplaceAll(strings.ReplaceAll(body, `\'`, `'`), `"`, `\"`)
		}
		value, err := strconv.Unquote(`"` + body + `"`)
		if err != nil {
			return "", 0, fmt.Errorf("expr: invalid string literal: %w", err)
		}
		return value, i, nil
	}
	return "", 0, errors.New("expr: unterminated string literal")
}

func matchOperator(rest string) string {
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			return op
		}
	}
	return ""
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }
