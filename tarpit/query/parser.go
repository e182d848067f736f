package query

import (
	"strings"

	"github.com/nonibytes/tarpit/tarpit/value"
)

// Schema is the view of the field table the parser needs. It is an
// interface so this package does not depend on the store.
type Schema interface {
	HasField(name string) bool
	Sortable(name string) bool
	KeyFields() []string
}

// Parser turns query text into an expression tree
type Parser struct {
	schema Schema
}

// NewParser creates a parser checking fields against schema. A nil schema
// accepts any field name and recognizes no kv literals.
func NewParser(schema Schema) *Parser {
	return &Parser{schema: schema}
}

// Parse parses a query string without a schema
func Parse(input string) (Expr, error) {
	return NewParser(nil).Parse(input)
}

// Parse parses a query string into an expression AST
func (ps *Parser) Parse(input string) (Expr, error) {
	var keys []string
	if ps.schema != nil {
		keys = ps.schema.KeyFields()
	}
	tokens, err := Lex(input, keys)
	if err != nil {
		return nil, err
	}

	p := &parser{tokens: tokens, pos: 0, schema: ps.schema}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.match(TokEOF) {
		return nil, parseError(p.current().Pos, "unexpected "+p.current().Kind.String()+"; expected 'and', 'or' or end of query")
	}
	return expr, nil
}

type parser struct {
	tokens []Token
	pos    int
	schema Schema
}

func (p *parser) parseExpr() (Expr, error) {
	return p.parseOr()
}

func (p *parser) parseOr() (Expr, error) {
	first, err := p.parseAnd()
	if err != nil {
		return nil, err
	}

	terms := []Expr{first}
	for p.match(TokOr) {
		p.advance()
		term, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}

	if len(terms) == 1 {
		return first, nil
	}
	return Or{Terms: terms}, nil
}

func (p *parser) parseAnd() (Expr, error) {
	first, err := p.parseFactor()
	if err != nil {
		return nil, err
	}

	factors := []Expr{first}
	for p.match(TokAnd) {
		p.advance()
		factor, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		factors = append(factors, factor)
	}

	if len(factors) == 1 {
		return first, nil
	}
	return And{Terms: factors}, nil
}

func (p *parser) parseFactor() (Expr, error) {
	if p.match(TokBang) || p.match(TokNot) {
		p.advance()
		if !p.match(TokLParen) {
			return nil, parseError(p.current().Pos, "expected (")
		}
		inner, err := p.parseGroup()
		if err != nil {
			return nil, err
		}
		return Not{Inner: inner}, nil
	}

	if p.match(TokLParen) {
		return p.parseGroup()
	}

	return p.parseComparison()
}

// parseGroup parses "(" expression ")"
func (p *parser) parseGroup() (Expr, error) {
	p.advance()
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.match(TokRParen) {
		return nil, parseError(p.current().Pos, "expected )")
	}
	p.advance()
	return expr, nil
}

func (p *parser) parseComparison() (Expr, error) {
	tok := p.current()
	switch tok.Kind {
	case TokInt, TokString:
		return p.parseLiteralFirst()
	case TokSymbol:
		return p.parseSymbolFirst()
	case TokKV:
		p.advance()
		return Compare{Op: CmpEq, Field: tok.Value, Value: value.Int(tok.Num)}, nil
	case TokEOF:
		return nil, parseError(tok.Pos, "expected expression")
	default:
		return nil, parseError(tok.Pos, "expected expression, got "+tok.Kind.String())
	}
}

// parseLiteralFirst handles "literal relop symbol [relop literal]". The
// single form is mirrored so the field is always on the left; the chained
// form collapses into a Range.
func (p *parser) parseLiteralFirst() (Expr, error) {
	litTok := p.current()
	p.advance()

	opTok := p.current()
	if !opTok.Kind.IsRelop() {
		return nil, parseError(opTok.Pos, "expected comparison operator")
	}
	p.advance()

	symTok := p.current()
	if symTok.Kind != TokSymbol {
		return nil, parseError(symTok.Pos, "expected symbol")
	}
	p.advance()
	if err := p.checkField(symTok); err != nil {
		return nil, err
	}

	op := relopToCmp(opTok.Kind)
	if op.Ordering() {
		if err := p.checkSortable(symTok.Value, opTok.Pos); err != nil {
			return nil, err
		}
	}
	lit := literalValue(litTok)

	if !p.current().Kind.IsRelop() {
		return Compare{Op: op.Mirror(), Field: symTok.Value, Value: lit}, nil
	}

	op2Tok := p.current()
	op2 := relopToCmp(op2Tok.Kind)
	if !sameDirection(op, op2) {
		return nil, parseError(op2Tok.Pos, "comparison chain must use two '<' or two '>' operators")
	}
	p.advance()

	lit2Tok := p.current()
	if lit2Tok.Kind != TokInt && lit2Tok.Kind != TokString {
		return nil, parseError(lit2Tok.Pos, "expected string or integer")
	}
	p.advance()
	lit2 := literalValue(lit2Tok)

	r := Range{Field: symTok.Value}
	if op == CmpLt || op == CmpLte {
		r.Low, r.LowInclusive = lit, op == CmpLte
		r.High, r.HighInclusive = lit2, op2 == CmpLte
	} else {
		r.Low, r.LowInclusive = lit2, op2 == CmpGte
		r.High, r.HighInclusive = lit, op == CmpGte
	}
	if value.Compare(r.Low, r.High) > 0 {
		return nil, semanticError(lit2Tok.Pos, "low end of comparison range is greater than high end")
	}
	return r, nil
}

func (p *parser) parseSymbolFirst() (Expr, error) {
	symTok := p.current()
	p.advance()
	if err := p.checkField(symTok); err != nil {
		return nil, err
	}
	field := symTok.Value

	opTok := p.current()
	switch opTok.Kind {
	case TokLt, TokLte, TokEq, TokNe, TokGte, TokGt:
		p.advance()
		op := relopToCmp(opTok.Kind)
		if op.Ordering() {
			if err := p.checkSortable(field, opTok.Pos); err != nil {
				return nil, err
			}
		}
		litTok := p.current()
		if litTok.Kind != TokInt && litTok.Kind != TokString {
			return nil, parseError(litTok.Pos, "expected string or integer")
		}
		p.advance()
		return Compare{Op: op, Field: field, Value: literalValue(litTok)}, nil

	case TokIsNull:
		p.advance()
		return IsNull{Field: field}, nil

	case TokNotNull:
		p.advance()
		return Not{Inner: IsNull{Field: field}}, nil

	case TokIsIn, TokIsNotIn:
		p.advance()
		expr, err := p.parseInList(field)
		if err != nil {
			return nil, err
		}
		if opTok.Kind == TokIsNotIn {
			return Not{Inner: expr}, nil
		}
		return expr, nil

	case TokLike, TokNotLike:
		p.advance()
		patTok := p.current()
		switch patTok.Kind {
		case TokString:
		case TokInt:
			return nil, semanticError(patTok.Pos, "like pattern must be a quoted string")
		default:
			return nil, parseError(patTok.Pos, "expected quoted pattern")
		}
		p.advance()
		var expr Expr = Like{Field: field, Pattern: CompilePattern(patTok.Value)}
		if opTok.Kind == TokNotLike {
			expr = Not{Inner: expr}
		}
		return expr, nil

	default:
		return nil, parseError(opTok.Pos, "expected relation operator or 'is', 'in', 'like', or 'not'")
	}
}

// parseInList reads the items after "in (" up to and including ")". The
// bare symbol null makes the field nullable instead of adding a member.
func (p *parser) parseInList(field string) (Expr, error) {
	var items []Token
	for {
		item := p.current()
		switch item.Kind {
		case TokInt, TokString, TokSymbol:
		default:
			return nil, parseError(item.Pos, "expected literal or symbol")
		}
		p.advance()
		items = append(items, item)

		if p.match(TokComma) {
			p.advance()
			continue
		}
		if p.match(TokRParen) {
			p.advance()
			break
		}
		return nil, parseError(p.current().Pos, "expected , or )")
	}

	nullable := false
	seen := make(map[string]bool)
	var values []value.Value
	for _, item := range items {
		if item.Kind == TokSymbol && strings.EqualFold(item.Value, "null") {
			nullable = true
			continue
		}
		// members that compare equal are one member; the first spelling wins
		v := literalValue(item)
		if seen[v.Text()] {
			continue
		}
		seen[v.Text()] = true
		values = append(values, v)
	}

	switch {
	case nullable && len(values) > 0:
		return Or{Terms: []Expr{IsNull{Field: field}, IsIn{Field: field, Values: values}}}, nil
	case nullable:
		return IsNull{Field: field}, nil
	default:
		return IsIn{Field: field, Values: values}, nil
	}
}

func (p *parser) checkField(tok Token) error {
	if p.schema != nil && !p.schema.HasField(tok.Value) {
		return semanticError(tok.Pos, "unknown field "+tok.Value)
	}
	return nil
}

func (p *parser) checkSortable(field string, pos int) error {
	if p.schema != nil && !p.schema.Sortable(field) {
		return semanticError(pos, field+" does not allow less-than/greater-than comparisons")
	}
	return nil
}

func (p *parser) current() Token {
	if p.pos < len(p.tokens) {
		return p.tokens[p.pos]
	}
	if len(p.tokens) > 0 {
		return p.tokens[len(p.tokens)-1]
	}
	return Token{Kind: TokEOF}
}

func (p *parser) advance() {
	if p.pos < len(p.tokens) {
		p.pos++
	}
}

func (p *parser) match(kind TokenKind) bool {
	return p.current().Kind == kind
}

func literalValue(tok Token) value.Value {
	if tok.Kind == TokInt {
		return value.Int(tok.Num)
	}
	return value.String(tok.Value)
}

func relopToCmp(kind TokenKind) CmpOp {
	switch kind {
	case TokLt:
		return CmpLt
	case TokLte:
		return CmpLte
	case TokNe:
		return CmpNe
	case TokGte:
		return CmpGte
	case TokGt:
		return CmpGt
	default:
		return CmpEq
	}
}

func sameDirection(a, b CmpOp) bool {
	less := func(op CmpOp) bool { return op == CmpLt || op == CmpLte }
	greater := func(op CmpOp) bool { return op == CmpGt || op == CmpGte }
	return (less(a) && less(b)) || (greater(a) && greater(b))
}
