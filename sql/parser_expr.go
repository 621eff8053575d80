package sql

// Expression parsing: Pratt-style precedence climbing over the chain
// OR -> AND -> NOT -> comparison -> || -> + - -> * / % -> unary -> :: ->
// primary, matching spec §4.5's stated precedence table and grounded on
// the query/parser_expression.go recursive chain (parseOr,
// parseAnd, parseComparison, parseAdditive, parseMultiplicative,
// parseUnary, parsePrimary).

func (p *Parser) parseExpr() (Expr, error) {
	p.depth++
	defer func() { p.depth-- }()
	if p.depth > MaxExpressionDepth {
		return nil, p.errorf("expression nesting too deep")
	}
	return p.parseOr()
}

func (p *Parser) parseOr() (Expr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("OR") {
		p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "OR", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (Expr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("AND") {
		p.advance()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "AND", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (Expr, error) {
	if p.isKeyword("NOT") {
		p.advance()
		x, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: "NOT", X: x}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (Expr, error) {
	left, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isPunct("=") || p.isPunct("<>") || p.isPunct("!=") ||
			p.isPunct("<") || p.isPunct("<=") || p.isPunct(">") || p.isPunct(">="):
			op := p.advance().Value
			right, err := p.parseConcat()
			if err != nil {
				return nil, err
			}
			left = &BinaryExpr{Op: op, Left: left, Right: right}
		case p.isKeyword("IS"):
			p.advance()
			neg := p.consumeKeyword("NOT")
			if p.consumeKeyword("DISTINCT") {
				if err := p.expectKeyword("FROM"); err != nil {
					return nil, err
				}
				right, err := p.parseConcat()
				if err != nil {
					return nil, err
				}
				left = &IsDistinctExpr{Left: left, Right: right, Negate: neg}
				continue
			}
			if err := p.expectKeyword("NULL"); err != nil {
				return nil, err
			}
			left = &IsNullExpr{X: left, Negate: neg}
		case p.isKeyword("NOT"):
			// NOT IN / NOT BETWEEN / NOT LIKE
			save := p.pos
			p.advance()
			switch {
			case p.isKeyword("IN"):
				p.advance()
				left, err = p.parseInTail(left, true)
				if err != nil {
					return nil, err
				}
			case p.isKeyword("BETWEEN"):
				p.advance()
				left, err = p.parseBetweenTail(left, true)
				if err != nil {
					return nil, err
				}
			case p.isKeyword("LIKE"):
				p.advance()
				left, err = p.parseLikeTail(left, true)
				if err != nil {
					return nil, err
				}
			default:
				p.pos = save
				return left, nil
			}
		case p.isKeyword("IN"):
			p.advance()
			left, err = p.parseInTail(left, false)
			if err != nil {
				return nil, err
			}
		case p.isKeyword("BETWEEN"):
			p.advance()
			left, err = p.parseBetweenTail(left, false)
			if err != nil {
				return nil, err
			}
		case p.isKeyword("LIKE"):
			p.advance()
			left, err = p.parseLikeTail(left, false)
			if err != nil {
				return nil, err
			}
		default:
			return left, nil
		}
	}
}

func (p *Parser) parseInTail(left Expr, negate bool) (Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	if p.isKeyword("SELECT") || p.isKeyword("WITH") {
		sub, err := p.parseSelectStmt()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return &InSubqueryExpr{X: left, Query: sub, Negate: negate}, nil
	}
	var list []Expr
	for {
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		list = append(list, e)
		if p.consumePunct(",") {
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return &InListExpr{X: left, List: list, Negate: negate}, nil
}

func (p *Parser) parseBetweenTail(left Expr, negate bool) (Expr, error) {
	lower, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("AND"); err != nil {
		return nil, err
	}
	upper, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return &BetweenExpr{X: left, Lower: lower, Upper: upper, Negate: negate}, nil
}

func (p *Parser) parseLikeTail(left Expr, negate bool) (Expr, error) {
	pat, err := p.parseConcat()
	if err != nil {
		return nil, err
	}
	return &LikeExpr{X: left, Pattern: pat, Negate: negate}, nil
}

func (p *Parser) parseConcat() (Expr, error) {
	left, err := p.parseAddSub()
	if err != nil {
		return nil, err
	}
	for p.isPunct("||") {
		p.advance()
		right, err := p.parseAddSub()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: "||", Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAddSub() (Expr, error) {
	left, err := p.parseMulDiv()
	if err != nil {
		return nil, err
	}
	for p.isPunct("+") || p.isPunct("-") {
		op := p.advance().Value
		right, err := p.parseMulDiv()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMulDiv() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("*") || p.isPunct("/") || p.isPunct("%") {
		op := p.advance().Value
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpr{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (Expr, error) {
	if p.isPunct("+") || p.isPunct("-") {
		op := p.advance().Value
		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Op: op, X: x}, nil
	}
	return p.parseCast()
}

func (p *Parser) parseCast() (Expr, error) {
	left, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for p.isPunct("::") {
		p.advance()
		tn, err := p.parseTypeName()
		if err != nil {
			return nil, err
		}
		left = &CastExpr{X: left, Type: tn, Strict: true}
	}
	return left, nil
}
