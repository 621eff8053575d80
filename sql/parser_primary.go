package sql

import (
	"strings"

	"github.com/vegasq/memsql/value"
)

func (p *Parser) parsePrimary() (Expr, error) {
	t := p.cur()
	switch {
	case t.Type == TokNumber:
		p.advance()
		return &LiteralExpr{Value: parseNumberLiteral(t.Value)}, nil
	case t.Type == TokString:
		p.advance()
		return &LiteralExpr{Value: value.NewString(t.Value)}, nil
	case t.Type == TokDateLiteral:
		p.advance()
		v, err := value.Coerce(value.NewString(t.Value), value.Date)
		if err != nil {
			return nil, &ParseError{Msg: err.Error(), Span: t.Span}
		}
		return &LiteralExpr{Value: v}, nil
	case t.Type == TokTimestampLiteral:
		p.advance()
		v, err := value.Coerce(value.NewString(t.Value), value.Timestamp)
		if err != nil {
			return nil, &ParseError{Msg: err.Error(), Span: t.Span}
		}
		return &LiteralExpr{Value: v}, nil
	case t.Type == TokTimeLiteral:
		p.advance()
		v, err := value.Coerce(value.NewString(t.Value), value.Time)
		if err != nil {
			return nil, &ParseError{Msg: err.Error(), Span: t.Span}
		}
		return &LiteralExpr{Value: v}, nil
	case t.Type == TokIntervalLiteral:
		p.advance()
		return &LiteralExpr{Value: parseIntervalLiteral(t.Value)}, nil
	case t.Type == TokKeyword && t.Value == "TRUE":
		p.advance()
		return &LiteralExpr{Value: value.NewBool(true)}, nil
	case t.Type == TokKeyword && t.Value == "FALSE":
		p.advance()
		return &LiteralExpr{Value: value.NewBool(false)}, nil
	case t.Type == TokKeyword && t.Value == "NULL":
		p.advance()
		return &LiteralExpr{Value: value.NewNull()}, nil
	case t.Type == TokKeyword && t.Value == "CASE":
		return p.parseCase()
	case t.Type == TokKeyword && t.Value == "NOT" && p.peekIsKeyword(1, "EXISTS"):
		p.advance()
		p.advance()
		return p.parseExistsTail(true)
	case t.Type == TokKeyword && t.Value == "EXISTS":
		p.advance()
		return p.parseExistsTail(false)
	case t.Type == TokPunct && t.Value == "*":
		p.advance()
		return &StarExpr{}, nil
	case t.Type == TokPunct && t.Value == "(":
		return p.parseParenExpr()
	case t.Type == TokIdent:
		return p.parseIdentLed()
	case t.Type == TokKeyword && isTypeKeyword(t.Value):
		// a bare type keyword cannot start an expression (casts go through
		// CAST or ::), so it is rejected with a parse error.
		return nil, p.errorf("unexpected type keyword %q", t.Value)
	default:
		return nil, p.errorf("unexpected token %q", t.Value)
	}
}

func (p *Parser) peekIsKeyword(ahead int, kw string) bool {
	idx := p.pos + ahead
	if idx >= len(p.toks) {
		return false
	}
	t := p.toks[idx]
	return t.Type == TokKeyword && t.Value == kw
}

func (p *Parser) parseExistsTail(negate bool) (Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	sub, err := p.parseSelectStmt()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &ExistsExpr{Query: sub, Negate: negate}, nil
}

func (p *Parser) parseParenExpr() (Expr, error) {
	p.advance() // (
	if p.isKeyword("SELECT") || p.isKeyword("WITH") {
		sub, err := p.parseSelectStmt()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &ScalarSubqueryExpr{Query: sub}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *Parser) parseCase() (Expr, error) {
	p.advance() // CASE
	ce := &CaseExpr{}
	if !p.isKeyword("WHEN") {
		operand, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Operand = operand
	}
	for p.consumeKeyword("WHEN") {
		var cond Expr
		var err error
		if ce.Operand != nil {
			cond, err = p.parseExpr()
		} else {
			cond, err = p.parseExpr()
		}
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("THEN"); err != nil {
			return nil, err
		}
		result, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Whens = append(ce.Whens, WhenClause{Cond: cond, Result: result})
	}
	if len(ce.Whens) == 0 {
		return nil, p.errorf("CASE requires at least one WHEN clause")
	}
	if p.consumeKeyword("ELSE") {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		ce.Else = e
	}
	if err := p.expectKeyword("END"); err != nil {
		return nil, err
	}
	return ce, nil
}

// parseIdentLed handles an identifier starting an expression: a bare
// column reference (possibly table-qualified or `t.*`), a CAST/TRY_CAST
// pseudo-function, or a function call (optionally a window function with
// a trailing OVER clause).
func (p *Parser) parseIdentLed() (Expr, error) {
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	upper := strings.ToUpper(name)
	if (upper == "CAST" || upper == "TRY_CAST") && p.isPunct("(") {
		return p.parseCastFunc(upper == "CAST")
	}
	if p.isPunct("(") {
		return p.parseFuncCallTail(name)
	}
	if p.consumePunct(".") {
		if p.isPunct("*") {
			p.advance()
			return &StarExpr{Table: name}, nil
		}
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &ColumnRefExpr{Table: name, Name: col}, nil
	}
	return &ColumnRefExpr{Name: name}, nil
}

func (p *Parser) parseCastFunc(strict bool) (Expr, error) {
	p.advance() // (
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	tn, err := p.parseTypeName()
	if err != nil {
		return nil, err
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &CastExpr{X: x, Type: tn, Strict: strict}, nil
}

func (p *Parser) parseFuncCallTail(name string) (Expr, error) {
	p.advance() // (
	fc := &FuncCallExpr{Name: strings.ToUpper(name)}
	if p.isPunct("*") {
		p.advance()
		fc.Star = true
	} else if !p.isPunct(")") {
		if p.consumeKeyword("DISTINCT") {
			fc.Distinct = true
		}
		for {
			// POSITION(a IN b) / EXTRACT(field FROM x) special two-argument forms
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if p.consumeKeyword("IN") {
				rhs, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				fc.Args = append(fc.Args, arg, rhs)
			} else if p.consumeKeyword("FROM") {
				// The field name (YEAR, MONTH, DOW, ...) parses as a bare
				// column reference; rewrite it to the string literal EXTRACT
				// and DATE_TRUNC expect as their first argument.
				if ref, ok := arg.(*ColumnRefExpr); ok && ref.Table == "" {
					arg = &LiteralExpr{Value: value.NewString(strings.ToUpper(ref.Name))}
				}
				rhs, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				fc.Args = append(fc.Args, arg, rhs)
			} else {
				fc.Args = append(fc.Args, arg)
			}
			if p.consumePunct(",") {
				continue
			}
			break
		}
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	if p.consumeKeyword("OVER") {
		ws, err := p.parseWindowSpec()
		if err != nil {
			return nil, err
		}
		fc.Window = ws
	}
	return fc, nil
}

func (p *Parser) parseWindowSpec() (*WindowSpec, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	ws := &WindowSpec{}
	if p.consumeKeyword("PARTITION") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			ws.PartitionBy = append(ws.PartitionBy, e)
			if p.consumePunct(",") {
				continue
			}
			break
		}
	}
	if p.consumeKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		ws.OrderBy = items
	}
	if p.isKeyword("ROWS") || p.isKeyword("RANGE") {
		frame, err := p.parseFrameSpec()
		if err != nil {
			return nil, err
		}
		ws.Frame = frame
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return ws, nil
}

func (p *Parser) parseFrameSpec() (*FrameSpec, error) {
	isRange := p.isKeyword("RANGE")
	p.advance() // ROWS or RANGE
	fs := &FrameSpec{Range: isRange}
	if p.consumeKeyword("BETWEEN") {
		start, err := p.parseFrameBound()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("AND"); err != nil {
			return nil, err
		}
		end, err := p.parseFrameBound()
		if err != nil {
			return nil, err
		}
		fs.Start, fs.End = start, end
	} else {
		start, err := p.parseFrameBound()
		if err != nil {
			return nil, err
		}
		fs.Start = start
		fs.End = FrameBound{Type: BoundCurrentRow}
	}
	return fs, nil
}

func (p *Parser) parseFrameBound() (FrameBound, error) {
	if p.consumeKeyword("UNBOUNDED") {
		if p.consumeKeyword("PRECEDING") {
			return FrameBound{Type: BoundUnboundedPreceding}, nil
		}
		if p.consumeKeyword("FOLLOWING") {
			return FrameBound{Type: BoundUnboundedFollowing}, nil
		}
		return FrameBound{}, p.errorf("expected PRECEDING or FOLLOWING after UNBOUNDED")
	}
	if p.consumeKeyword("CURRENT") {
		if err := p.expectKeyword("ROW"); err != nil {
			return FrameBound{}, err
		}
		return FrameBound{Type: BoundCurrentRow}, nil
	}
	n, err := p.parseIntLiteral()
	if err != nil {
		return FrameBound{}, err
	}
	if p.consumeKeyword("PRECEDING") {
		return FrameBound{Type: BoundPreceding, N: n}, nil
	}
	if p.consumeKeyword("FOLLOWING") {
		return FrameBound{Type: BoundFollowing, N: n}, nil
	}
	return FrameBound{}, p.errorf("expected PRECEDING or FOLLOWING")
}

func parseIntervalLiteral(s string) value.Value {
	// Accepts "N unit" (e.g. "3 days", "1 year") per common SQL surface.
	fields := strings.Fields(strings.ToLower(s))
	iv := value.IntervalValue{}
	if len(fields) < 2 {
		return value.NewInterval(iv)
	}
	var n int64
	for _, r := range fields[0] {
		if r < '0' || r > '9' {
			if r == '-' {
				continue
			}
		}
	}
	n = parseIntervalNum(fields[0])
	unit := strings.TrimSuffix(fields[1], "s")
	switch unit {
	case "year":
		iv.Years = int32(n)
	case "month":
		iv.Months = int32(n)
	case "day":
		iv.Days = int32(n)
	case "hour":
		iv.Micros = n * 3600_000_000
	case "minute":
		iv.Micros = n * 60_000_000
	case "second":
		iv.Micros = n * 1_000_000
	}
	return value.NewInterval(iv)
}

func parseIntervalNum(s string) int64 {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	var n int64
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int64(r-'0')
	}
	if neg {
		return -n
	}
	return n
}
