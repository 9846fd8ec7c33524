package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/cockroachdb/errors"
)

// Parse turns a point-award expression like `min(purchase_amount, 500) * 2`
// into a Node tree. Supported: the four arithmetic operators with standard
// precedence, unary minus, parentheses, numeric literals, payload field
// references, and the function set min/max/floor/ceil/round.
func Parse(input string) (Node, error) {
	tokens, err := tokenize(input)
	if err != nil {
		return Node{}, err
	}
	if len(tokens) == 0 {
		return Node{}, ErrEmptyFormula
	}

	p := parser{tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return Node{}, err
	}
	if !p.atEnd() {
		return Node{}, errors.Wrap(ErrUnexpectedToken,
			fmt.Sprintf("trailing %q", p.peek().value))
	}
	return node, nil
}

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenIdent
	tokenOperator
	tokenLeftParen
	tokenRightParen
	tokenComma
)

type token struct {
	kind  tokenKind
	value string
}

func tokenize(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)

	for i := 0; i < len(runes); {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{tokenLeftParen, "("})
			i++
		case r == ')':
			tokens = append(tokens, token{tokenRightParen, ")"})
			i++
		case r == ',':
			tokens = append(tokens, token{tokenComma, ","})
			i++
		case r == '+' || r == '-' || r == '*' || r == '/':
			tokens = append(tokens, token{tokenOperator, string(r)})
			i++
		case unicode.IsDigit(r) || r == '.':
			start := i
			for i < len(runes) && (unicode.IsDigit(runes[i]) || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{tokenNumber, string(runes[start:i])})
		case unicode.IsLetter(r) || r == '_':
			start := i
			for i < len(runes) &&
				(unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_' || runes[i] == '.') {
				i++
			}
			tokens = append(tokens, token{tokenIdent, string(runes[start:i])})
		default:
			return nil, errors.Wrap(ErrUnexpectedToken, fmt.Sprintf("character %q", r))
		}
	}
	return tokens, nil
}

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) atEnd() bool {
	return p.pos >= len(p.tokens)
}

func (p *parser) peek() token {
	return p.tokens[p.pos]
}

func (p *parser) next() token {
	t := p.tokens[p.pos]
	p.pos++
	return t
}

func (p *parser) parseExpression() (Node, error) {
	left, err := p.parseTerm()
	if err != nil {
		return Node{}, err
	}

	for !p.atEnd() && p.peek().kind == tokenOperator &&
		(p.peek().value == "+" || p.peek().value == "-") {
		op := p.next().value
		right, err := p.parseTerm()
		if err != nil {
			return Node{}, err
		}
		function := FuncAdd
		if op == "-" {
			function = FuncSubtract
		}
		left = Node{Function: function, Children: []Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseTerm() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return Node{}, err
	}

	for !p.atEnd() && p.peek().kind == tokenOperator &&
		(p.peek().value == "*" || p.peek().value == "/") {
		op := p.next().value
		right, err := p.parseUnary()
		if err != nil {
			return Node{}, err
		}
		function := FuncMultiply
		if op == "/" {
			function = FuncDivide
		}
		left = Node{Function: function, Children: []Node{left, right}}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if !p.atEnd() && p.peek().kind == tokenOperator && p.peek().value == "-" {
		p.next()
		child, err := p.parseUnary()
		if err != nil {
			return Node{}, err
		}
		return Node{Function: FuncNegate, Children: []Node{child}}, nil
	}
	return p.parsePrimary()
}

var functionsByName = map[string]Function{
	"min":   FuncMin,
	"max":   FuncMax,
	"floor": FuncFloor,
	"ceil":  FuncCeil,
	"round": FuncRound,
}

func (p *parser) parsePrimary() (Node, error) {
	if p.atEnd() {
		return Node{}, ErrUnexpectedEnd
	}

	switch t := p.next(); t.kind {
	case tokenNumber:
		value, err := strconv.ParseFloat(t.value, 64)
		if err != nil {
			return Node{}, errors.Wrap(ErrUnexpectedToken, fmt.Sprintf("bad number %q", t.value))
		}
		return NewNodeConstant(value), nil

	case tokenLeftParen:
		node, err := p.parseExpression()
		if err != nil {
			return Node{}, err
		}
		if err := p.expect(tokenRightParen); err != nil {
			return Node{}, err
		}
		return node, nil

	case tokenIdent:
		if p.atEnd() || p.peek().kind != tokenLeftParen {
			return NewNodeField(t.value), nil
		}
		return p.parseCall(t.value)

	default:
		return Node{}, errors.Wrap(ErrUnexpectedToken, fmt.Sprintf("%q", t.value))
	}
}

func (p *parser) parseCall(name string) (Node, error) {
	function, ok := functionsByName[strings.ToLower(name)]
	if !ok {
		return Node{}, errors.Wrap(ErrUnknownFunction, name)
	}

	// consume '('
	p.next()

	var args []Node
	if !p.atEnd() && p.peek().kind != tokenRightParen {
		for {
			arg, err := p.parseExpression()
			if err != nil {
				return Node{}, err
			}
			args = append(args, arg)
			if p.atEnd() || p.peek().kind != tokenComma {
				break
			}
			p.next()
		}
	}
	if err := p.expect(tokenRightParen); err != nil {
		return Node{}, err
	}

	switch function {
	case FuncMin, FuncMax:
		if len(args) < 2 {
			return Node{}, errors.Wrap(ErrWrongArgumentCount,
				fmt.Sprintf("%s expects at least 2 arguments, got %d", name, len(args)))
		}
	case FuncFloor, FuncCeil, FuncRound:
		if len(args) != 1 {
			return Node{}, errors.Wrap(ErrWrongArgumentCount,
				fmt.Sprintf("%s expects exactly 1 argument, got %d", name, len(args)))
		}
	}

	return Node{Function: function, Children: args}, nil
}

func (p *parser) expect(kind tokenKind) error {
	if p.atEnd() {
		if kind == tokenRightParen {
			return ErrUnbalancedParens
		}
		return ErrUnexpectedEnd
	}
	if p.peek().kind != kind {
		return errors.Wrap(ErrUnexpectedToken, fmt.Sprintf("%q", p.peek().value))
	}
	p.next()
	return nil
}
