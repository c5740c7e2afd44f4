package expr

import (
	"fmt"
	"strconv"
)

type node interface{}

type literalNode struct{ value any }

type identNode struct{ name string }

type memberNode struct {
	target node
	name   string
}

type indexNode struct {
	target node
	index  node
}

type callNode struct {
	callee node
	args   []node
}

type listNode struct{ items []node }

type unaryNode struct {
	op      string
	operand node
}

type binaryNode struct {
	op          string
	left, right node
}

type tokenStream struct {
	tokens []token
	pos    int
}

func (s *tokenStream) peek() *token {
	if s.pos >= len(s.tokens) {
		return nil
	}
	return &s.tokens[s.pos]
}

func (s *tokenStream) consume() *token {
	tok := s.peek()
	if tok != nil {
		s.pos++
	}
	return tok
}

func (s *tokenStream) matchOperator(ops ...string) (string, bool) {
	tok := s.peek()
	if tok == nil || tok.kind != tokenOperator {
		return "", false
	}
	for _, op := range ops {
		if tok.raw == op {
			s.pos++
			return op, true
		}
	}
	return "", false
}

func (s *tokenStream) match(kind tokenKind) bool {
	tok := s.peek()
	if tok == nil || tok.kind != kind {
		return false
	}
	s.pos++
	return true
}

func (s *tokenStream) expect(kind tokenKind, what string) error {
	if s.match(kind) {
		return nil
	}
	if tok := s.peek(); tok != nil {
		return fmt.Errorf("expr: expected %s at %d, got %q", what, tok.pos, tok.raw)
	}
	return fmt.Errorf("expr: expected %s at end of input", what)
}

func parse(tokens []token) (node, error) {
	stream := &tokenStream{tokens: tokens}
	out, err := parseBinary(stream, 0)
	if err != nil {
		return nil, err
	}
	if tok := stream.peek(); tok != nil {
		return nil, fmt.Errorf("expr: unexpected token %q at %d", tok.raw, tok.pos)
	}
	return out, nil
}

// precedence lists binary operators from loosest to tightest.
var precedence = [][]string{
	{"||"},
	{"&&"},
	{"==", "!=", "===", "!=="},
	{"<", "<=", ">", ">="},
	{"+", "-"},
	{"*", "/", "%"},
}

func parseBinary(stream *tokenStream, level int) (node, error) {
	if level == len(precedence) {
		return parseUnary(stream)
	}
	left, err := parseBinary(stream, level+1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := stream.matchOperator(precedence[level]...)
		if !ok {
			return left, nil
		}
		right, err := parseBinary(stream, level+1)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func parseUnary(stream *tokenStream) (node, error) {
	if op, ok := stream.matchOperator("!", "-", "+"); ok {
		operand, err := parseUnary(stream)
		if err != nil {
			return nil, err
		}
		return unaryNode{op: op, operand: operand}, nil
	}
	return parsePostfix(stream)
}

func parsePostfix(stream *tokenStream) (node, error) {
	current, err := parsePrimary(stream)
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case stream.match(tokenDot):
			tok := stream.consume()
			if tok == nil || (tok.kind != tokenIdentifier && tok.kind != tokenBool && tok.kind != tokenNull) {
				return nil, fmt.Errorf("expr: expected member name after '.'")
			}
			current = memberNode{target: current, name: tok.raw}
		case stream.match(tokenLBracket):
			index, err := parseBinary(stream, 0)
			if err != nil {
				return nil, err
			}
			if err := stream.expect(tokenRBracket, "']'"); err != nil {
				return nil, err
			}
			current = indexNode{target: current, index: index}
		case stream.match(tokenLParen):
			args, err := parseList(stream, tokenRParen, "')'")
			if err != nil {
				return nil, err
			}
			current = callNode{callee: current, args: args}
		default:
			return current, nil
		}
	}
}

func parseList(stream *tokenStream, closing tokenKind, what string) ([]node, error) {
	var items []node
	if stream.match(closing) {
		return items, nil
	}
	for {
		item, err := parseBinary(stream, 0)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if stream.match(tokenComma) {
			continue
		}
		if err := stream.expect(closing, what); err != nil {
			return nil, err
		}
		return items, nil
	}
}

func parsePrimary(stream *tokenStream) (node, error) {
	tok := stream.consume()
	if tok == nil {
		return nil, fmt.Errorf("expr: unexpected end of expression")
	}

	switch tok.kind {
	case tokenLParen:
		inner, err := parseBinary(stream, 0)
		if err != nil {
			return nil, err
		}
		if err := stream.expect(tokenRParen, "')'"); err != nil {
			return nil, err
		}
		return inner, nil
	case tokenLBracket:
		items, err := parseList(stream, tokenRBracket, "']'")
		if err != nil {
			return nil, err
		}
		return listNode{items: items}, nil
	case tokenString:
		return literalNode{value: tok.raw}, nil
	case tokenNumber:
		value, err := strconv.ParseFloat(tok.raw, 64)
		if err != nil {
			return nil, fmt.Errorf("expr: invalid number %q", tok.raw)
		}
		return literalNode{value: value}, nil
	case tokenBool:
		return literalNode{value: tok.raw == "true"}, nil
	case tokenNull:
		return literalNode{value: nil}, nil
	case tokenIdentifier:
		return identNode{name: tok.raw}, nil
	default:
		return nil, fmt.Errorf("expr: unexpected token %q at %d", tok.raw, tok.pos)
	}
}
