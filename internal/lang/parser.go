package lang

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Parser implements the grammar of spec.md §4.1: precedence (weakest to
// strongest) or, and, not, comparison/contains/matches/is, primary.
// Diagnostics are accumulated rather than thrown; the caller decides what
// "invalid" means (any diagnostic at all).
type Parser struct {
	tokens []Token
	pos    int
	diags  []Diagnostic
}

// Parse tokenizes and parses source, returning the resulting AST (nil if
// unusable) and every diagnostic collected along the way. A predicate with
// any diagnostic at all is invalid.
func Parse(source string) (Node, []Diagnostic) {
	tokens, err := Tokenize(source)
	if err != nil {
		le := err.(*LexError)
		return nil, []Diagnostic{{Kind: Lex, Message: le.Message, Line: le.Line, Col: le.Col}}
	}

	p := &Parser{tokens: tokens}
	root := p.parseOr()
	if p.current().Type != TokenEOF {
		p.errorf(Syntax, "unexpected token %q after expression", p.current().Value)
	}
	return root, p.diags
}

func (p *Parser) current() Token {
	if p.pos >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos]
}

func (p *Parser) advance() Token {
	t := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(kind DiagnosticKind, format string, args ...any) {
	t := p.current()
	p.diags = append(p.diags, Diagnostic{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Line:    t.Line,
		Col:     t.Col,
	})
}

// resync skips tokens until a plausible recovery point (and/or/RParen/EOF)
// so a single bad clause doesn't suppress every later diagnostic.
func (p *Parser) resync() {
	for {
		switch p.current().Type {
		case TokenAnd, TokenOr, TokenRParen, TokenEOF:
			return
		default:
			p.advance()
		}
	}
}

func (p *Parser) parseOr() Node {
	left := p.parseAnd()
	for p.current().Type == TokenOr {
		tok := p.advance()
		right := p.parseAnd()
		left = NewOrNode(left, right, Position{tok.Line, tok.Col})
	}
	return left
}

func (p *Parser) parseAnd() Node {
	left := p.parseNot()
	for p.current().Type == TokenAnd {
		tok := p.advance()
		right := p.parseNot()
		left = NewAndNode(left, right, Position{tok.Line, tok.Col})
	}
	return left
}

func (p *Parser) parseNot() Node {
	if p.current().Type == TokenNot {
		tok := p.advance()
		child := p.parseNot()
		return NewNegateNode(child, Position{tok.Line, tok.Col})
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() Node {
	left := p.parsePrimary()

	switch p.current().Type {
	case TokenEq, TokenNe, TokenLt, TokenLe, TokenGt, TokenGe:
		tok := p.advance()
		right := p.parsePrimary()
		return NewCompareNode(compareOpFor(tok.Type), left, right, Position{tok.Line, tok.Col})

	case TokenContains:
		tok := p.advance()
		right := p.parsePrimary()
		return NewContainsNode(left, right, Position{tok.Line, tok.Col})

	case TokenMatches:
		tok := p.advance()
		ident, ok := left.(*IdentifierNode)
		if !ok {
			p.errorf(Semantic, "left operand of matches must be an identifier")
		}
		regexNode := p.parseRegexOperand()
		if ident == nil {
			ident = NewIdentifierNode("", Position{tok.Line, tok.Col})
		}
		return NewMatchNode(ident, regexNode, Position{tok.Line, tok.Col})

	case TokenIs:
		tok := p.advance()
		op := OpIs
		if p.current().Type == TokenNot {
			p.advance()
			op = OpIsNot
		}
		right := p.parsePrimary()
		return NewCompareNode(op, left, right, Position{tok.Line, tok.Col})
	}

	return left
}

func (p *Parser) parseRegexOperand() *RegexNode {
	tok := p.current()
	if tok.Type != TokenRegex {
		p.errorf(Semantic, "%s", errRegexRightMustBeLit.Error())
		p.advance()
		return NewRegexNode("", "", nil, Position{tok.Line, tok.Col})
	}
	p.advance()
	return p.buildRegexNode(tok)
}

func (p *Parser) buildRegexNode(tok Token) *RegexNode {
	pattern, flags, _ := strings.Cut(tok.Value, "\x00")
	compiled, err := compileRegex(pattern, flags)
	if err != nil {
		p.diags = append(p.diags, Diagnostic{
			Kind:    Semantic,
			Message: err.Error(),
			Line:    tok.Line,
			Col:     tok.Col,
		})
	}
	return NewRegexNode(pattern, flags, compiled, Position{tok.Line, tok.Col})
}

func compareOpFor(t TokenType) CompareOp {
	switch t {
	case TokenEq:
		return OpEq
	case TokenNe:
		return OpNe
	case TokenLt:
		return OpLt
	case TokenLe:
		return OpLe
	case TokenGt:
		return OpGt
	case TokenGe:
		return OpGe
	}
	return OpEq
}

func (p *Parser) parsePrimary() Node {
	tok := p.current()
	pos := Position{tok.Line, tok.Col}

	switch tok.Type {
	case TokenLParen:
		p.advance()
		inner := p.parseOr()
		if p.current().Type != TokenRParen {
			p.errorf(Syntax, "expected ')'")
			p.resync()
		} else {
			p.advance()
		}
		return inner

	case TokenLBrace:
		return p.parseLiteralSet()

	case TokenString:
		p.advance()
		return NewStringLitNode(tok.Value, pos)

	case TokenNumber:
		p.advance()
		// Parsed through decimal.Decimal and converted to float64 right
		// away, per spec.md §3's numeric representation; every later stage,
		// including the optimizer's contradiction/tautology pass (§4.4
		// rule 4, e.g. "x = 3 and x = 4"), compares the float64 values.
		d, err := decimal.NewFromString(tok.Value)
		if err != nil {
			p.errorf(Syntax, "invalid number literal %q", tok.Value)
			return NewNumberLitNode(0, pos)
		}
		n, _ := d.Float64()
		return NewNumberLitNode(n, pos)

	case TokenRegex:
		p.advance()
		return p.buildRegexNode(tok)

	case TokenTrue:
		p.advance()
		return NewConstantNode(ConstTrue, pos)
	case TokenFalse:
		p.advance()
		return NewConstantNode(ConstFalse, pos)
	case TokenNull:
		p.advance()
		return NewConstantNode(ConstNull, pos)
	case TokenEmpty:
		p.advance()
		return NewConstantNode(ConstEmpty, pos)
	case TokenUndefined:
		p.advance()
		return NewConstantNode(ConstUndefined, pos)

	case TokenIdentifier:
		p.advance()
		return NewIdentifierNode(tok.Value, pos)

	default:
		p.errorf(Syntax, "unexpected token %q", tok.Value)
		p.resync()
		return NewConstantNode(ConstUndefined, pos)
	}
}

// parseLiteralSet parses "{" member* "}", members separated by optional
// whitespace or commas. Identifier literals are rejected with a semantic
// error, not a syntax error, per spec.md §4.1.
func (p *Parser) parseLiteralSet() Node {
	open := p.advance() // '{'
	pos := Position{open.Line, open.Col}

	var members []Node
	for p.current().Type != TokenRBrace && p.current().Type != TokenEOF {
		if p.current().Type == TokenComma {
			p.advance()
			continue
		}
		if p.current().Type == TokenIdentifier {
			p.errorf(Semantic, "%s", errSetMemberIdentifier.Error())
			p.advance()
			continue
		}
		members = append(members, p.parsePrimary())
	}
	if p.current().Type != TokenRBrace {
		p.errorf(Syntax, "expected '}'")
	} else {
		p.advance()
	}

	set, err := NewLiteralSetNode(members, pos)
	if err != nil {
		p.diags = append(p.diags, Diagnostic{Kind: Semantic, Message: err.Error(), Line: pos.Line, Col: pos.Col})
		return &LiteralSetNode{pos: pos, text: "{}", repr: buildSetRepr(nil)}
	}
	return set
}

// compileRegex translates the {i,m,s,u,l} flag set onto Go's RE2 inline
// flags. 'u' (unicode) and 'l' (locale) have no RE2 equivalent: Go's
// regexp package is already Unicode-aware by default and RE2 has no
// locale-sensitive classes, so both are accepted as documented no-ops
// rather than rejected.
func compileRegex(pattern, flags string) (*regexp.Regexp, error) {
	var reFlags []byte
	for _, f := range flags {
		switch f {
		case 'i', 'm', 's':
			reFlags = append(reFlags, byte(f))
		case 'u', 'l':
			// no-op, see doc comment above
		default:
			return nil, fmt.Errorf("%w: %q", errUnknownRegexFlag, string(f))
		}
	}
	src := pattern
	if len(reFlags) > 0 {
		src = "(?" + string(reFlags) + ")" + pattern
	}
	return regexp.Compile(src)
}
