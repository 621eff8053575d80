package sql

import "strings"

// parseSelectStmt parses a full SELECT statement: optional WITH [RECURSIVE]
// CTEs, a set-operator tree of SelectCore blocks (INTERSECT binds tighter
// than UNION/EXCEPT per spec §4.5), and the statement-level ORDER BY /
// LIMIT / OFFSET that apply to the combined result.
func (p *Parser) parseSelectStmt() (*SelectStmt, error) {
	stmt := &SelectStmt{}
	if p.consumeKeyword("WITH") {
		recursive := p.consumeKeyword("RECURSIVE")
		for {
			cte, err := p.parseCTE(recursive)
			if err != nil {
				return nil, err
			}
			stmt.CTEs = append(stmt.CTEs, cte)
			if p.consumePunct(",") {
				continue
			}
			break
		}
	}
	body, err := p.parseSetOpUnion()
	if err != nil {
		return nil, err
	}
	stmt.Body = body
	if p.consumeKeyword("ORDER") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderByList()
		if err != nil {
			return nil, err
		}
		stmt.OrderBy = items
	}
	if p.consumeKeyword("LIMIT") {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Limit = &n
	}
	if p.consumeKeyword("OFFSET") {
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Offset = &n
	}
	return stmt, nil
}

func (p *Parser) parseCTE(recursive bool) (CTE, error) {
	name, err := p.expectIdent()
	if err != nil {
		return CTE{}, err
	}
	cte := CTE{Name: name, Recursive: recursive}
	if p.consumePunct("(") {
		for {
			col, err := p.expectIdent()
			if err != nil {
				return CTE{}, err
			}
			cte.Columns = append(cte.Columns, col)
			if p.consumePunct(",") {
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return CTE{}, err
		}
	}
	if err := p.expectKeyword("AS"); err != nil {
		return CTE{}, err
	}
	if err := p.expectPunct("("); err != nil {
		return CTE{}, err
	}
	q, err := p.parseSelectStmt()
	if err != nil {
		return CTE{}, err
	}
	cte.Query = q
	if err := p.expectPunct(")"); err != nil {
		return CTE{}, err
	}
	return cte, nil
}

// Set-operator precedence: INTERSECT binds tighter than UNION/EXCEPT, all
// left-associative.
func (p *Parser) parseSetOpUnion() (SetOpTerm, error) {
	left, err := p.parseSetOpIntersect()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("UNION") || p.isKeyword("EXCEPT") {
		op := SetOpUnion
		if p.isKeyword("EXCEPT") {
			op = SetOpExcept
		}
		p.advance()
		all := p.consumeKeyword("ALL")
		right, err := p.parseSetOpIntersect()
		if err != nil {
			return nil, err
		}
		left = &SetOpNode{Op: op, All: all, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseSetOpIntersect() (SetOpTerm, error) {
	left, err := p.parseSetOpPrimary()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("INTERSECT") {
		p.advance()
		all := p.consumeKeyword("ALL")
		right, err := p.parseSetOpPrimary()
		if err != nil {
			return nil, err
		}
		left = &SetOpNode{Op: SetOpIntersect, All: all, Left: left, Right: right}
	}
	return left, nil
}

func (p *Parser) parseSetOpPrimary() (SetOpTerm, error) {
	if p.consumePunct("(") {
		inner, err := p.parseSetOpUnion()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.parseSelectCore()
}

func (p *Parser) parseSelectCore() (*SelectCore, error) {
	if err := p.expectKeyword("SELECT"); err != nil {
		return nil, err
	}
	core := &SelectCore{}
	core.Distinct = p.consumeKeyword("DISTINCT")
	p.consumeKeyword("ALL")

	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		core.SelectList = append(core.SelectList, item)
		if p.consumePunct(",") {
			continue
		}
		break
	}

	if p.consumeKeyword("FROM") {
		from, err := p.parseFromClause()
		if err != nil {
			return nil, err
		}
		core.From = from
	}
	if p.consumeKeyword("WHERE") {
		w, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		core.Where = w
	}
	if p.consumeKeyword("GROUP") {
		if err := p.expectKeyword("BY"); err != nil {
			return nil, err
		}
		gb, err := p.parseGroupByClause()
		if err != nil {
			return nil, err
		}
		core.GroupBy = gb
	}
	if p.consumeKeyword("HAVING") {
		h, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		core.Having = h
	}
	if p.consumeKeyword("QUALIFY") {
		q, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		core.Qualify = q
	}
	return core, nil
}

func (p *Parser) parseSelectItem() (SelectItem, error) {
	if p.isPunct("*") {
		p.advance()
		return SelectItem{Expr: &StarExpr{}}, nil
	}
	// t.* lookahead: identifier, dot, star
	if p.cur().Type == TokIdent && p.peekIsPunct(1, ".") && p.peekIsPunct(2, "*") {
		tbl := p.advance().Value
		p.advance() // .
		p.advance() // *
		return SelectItem{Expr: &StarExpr{Table: tbl}}, nil
	}
	e, err := p.parseExpr()
	if err != nil {
		return SelectItem{}, err
	}
	item := SelectItem{Expr: e}
	if p.consumeKeyword("AS") {
		alias, err := p.expectIdent()
		if err != nil {
			return SelectItem{}, err
		}
		item.Alias = alias
	} else if p.cur().Type == TokIdent {
		item.Alias = p.advance().Value
	}
	return item, nil
}

func (p *Parser) peekIsPunct(ahead int, s string) bool {
	idx := p.pos + ahead
	if idx >= len(p.toks) {
		return false
	}
	t := p.toks[idx]
	return t.Type == TokPunct && t.Value == s
}

// ---- FROM / JOIN ----

func (p *Parser) parseFromClause() (FromItem, error) {
	left, err := p.parseTableWithJoins()
	if err != nil {
		return nil, err
	}
	for p.consumePunct(",") {
		right, err := p.parseTableWithJoins()
		if err != nil {
			return nil, err
		}
		left = &JoinClause{Left: left, Right: right, Type: JoinCross}
	}
	return left, nil
}

func (p *Parser) parseTableWithJoins() (FromItem, error) {
	left, err := p.parseFromPrimary()
	if err != nil {
		return nil, err
	}
	for {
		joinType, natural, ok, err := p.peekJoin()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		right, err := p.parseFromPrimary()
		if err != nil {
			return nil, err
		}
		jc := &JoinClause{Left: left, Right: right, Type: joinType, Natural: natural}
		if !natural && joinType != JoinCross {
			if p.consumeKeyword("USING") {
				if err := p.expectPunct("("); err != nil {
					return nil, err
				}
				for {
					col, err := p.expectIdent()
					if err != nil {
						return nil, err
					}
					jc.Using = append(jc.Using, col)
					if p.consumePunct(",") {
						continue
					}
					break
				}
				if err := p.expectPunct(")"); err != nil {
					return nil, err
				}
			} else if p.consumeKeyword("ON") {
				on, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				jc.On = on
			}
		}
		left = jc
	}
	return left, nil
}

// peekJoin consumes a join keyword sequence (if present) and reports the
// resulting join type; returns ok=false and consumes nothing if the
// current token doesn't start a join.
func (p *Parser) peekJoin() (JoinType, bool, bool, error) {
	natural := p.isKeyword("NATURAL")
	save := p.pos
	if natural {
		p.advance()
	}
	switch {
	case p.consumeKeyword("INNER"):
		if err := p.expectKeyword("JOIN"); err != nil {
			p.pos = save
			return 0, false, false, nil
		}
		return JoinInner, natural, true, nil
	case p.consumeKeyword("LEFT"):
		p.consumeKeyword("OUTER")
		if err := p.expectKeyword("JOIN"); err != nil {
			p.pos = save
			return 0, false, false, nil
		}
		return JoinLeft, natural, true, nil
	case p.consumeKeyword("RIGHT"):
		p.consumeKeyword("OUTER")
		if err := p.expectKeyword("JOIN"); err != nil {
			p.pos = save
			return 0, false, false, nil
		}
		return JoinRight, natural, true, nil
	case p.consumeKeyword("FULL"):
		p.consumeKeyword("OUTER")
		if err := p.expectKeyword("JOIN"); err != nil {
			p.pos = save
			return 0, false, false, nil
		}
		return JoinFull, natural, true, nil
	case p.consumeKeyword("CROSS"):
		if err := p.expectKeyword("JOIN"); err != nil {
			p.pos = save
			return 0, false, false, nil
		}
		return JoinCross, false, true, nil
	case p.consumeKeyword("JOIN"):
		return JoinInner, natural, true, nil
	default:
		if natural {
			p.pos = save
		}
		return 0, false, false, nil
	}
}

func (p *Parser) parseFromPrimary() (FromItem, error) {
	var item FromItem
	var err error
	if p.consumePunct("(") {
		if p.isKeyword("SELECT") || p.isKeyword("WITH") {
			q, err2 := p.parseSelectStmt()
			if err2 != nil {
				return nil, err2
			}
			if err2 := p.expectPunct(")"); err2 != nil {
				return nil, err2
			}
			alias := ""
			if p.consumeKeyword("AS") {
				alias, err = p.expectIdent()
				if err != nil {
					return nil, err
				}
			} else if p.cur().Type == TokIdent {
				alias = p.advance().Value
			}
			item = &SubqueryRef{Query: q, Alias: alias}
		} else {
			item, err = p.parseTableWithJoins()
			if err != nil {
				return nil, err
			}
			if err := p.expectPunct(")"); err != nil {
				return nil, err
			}
		}
	} else {
		name, err2 := p.expectIdent()
		if err2 != nil {
			return nil, err2
		}
		tr := &TableRef{Name: name}
		if p.consumeKeyword("AS") {
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			tr.Alias = alias
		} else if p.cur().Type == TokIdent && !p.isKeyword("PIVOT") && !p.isKeyword("UNPIVOT") {
			tr.Alias = p.advance().Value
		}
		item = tr
	}
	return p.parsePivotSuffix(item)
}

func (p *Parser) parsePivotSuffix(item FromItem) (FromItem, error) {
	if p.consumeKeyword("PIVOT") {
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		aggName, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		aggArg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("FOR"); err != nil {
			return nil, err
		}
		forCol, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("IN"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var vals []Expr
		for {
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			vals = append(vals, v)
			if p.consumePunct(",") {
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		pv := &PivotItem{Source: item, AggName: strings.ToUpper(aggName), AggArg: aggArg, ForCol: forCol, InValues: vals}
		if p.consumeKeyword("AS") {
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			pv.Alias = alias
		} else if p.cur().Type == TokIdent {
			pv.Alias = p.advance().Value
		}
		return pv, nil
	}
	if p.consumeKeyword("UNPIVOT") {
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		valueCol, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("FOR"); err != nil {
			return nil, err
		}
		forCol, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expectKeyword("IN"); err != nil {
			return nil, err
		}
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		var cols []string
		for {
			c, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			cols = append(cols, c)
			if p.consumePunct(",") {
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		up := &UnpivotItem{Source: item, ValueCol: valueCol, ForCol: forCol, InColumns: cols}
		if p.consumeKeyword("AS") {
			alias, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			up.Alias = alias
		} else if p.cur().Type == TokIdent {
			up.Alias = p.advance().Value
		}
		return up, nil
	}
	return item, nil
}

// ---- GROUP BY ----

func (p *Parser) parseGroupByClause() (*GroupByClause, error) {
	gb := &GroupByClause{Kind: GroupByPlain}
	switch {
	case p.consumeKeyword("ROLLUP"):
		gb.Kind = GroupByRollup
		cols, err := p.parseParenExprList()
		if err != nil {
			return nil, err
		}
		gb.Columns = cols
		return gb, nil
	case p.consumeKeyword("CUBE"):
		gb.Kind = GroupByCube
		cols, err := p.parseParenExprList()
		if err != nil {
			return nil, err
		}
		gb.Columns = cols
		return gb, nil
	case p.consumeKeyword("GROUPING"):
		if err := p.expectKeyword("SETS"); err != nil {
			return nil, err
		}
		gb.Kind = GroupBySets
		if err := p.expectPunct("("); err != nil {
			return nil, err
		}
		for {
			var set []Expr
			if p.consumePunct("(") {
				if !p.isPunct(")") {
					for {
						e, err := p.parseExpr()
						if err != nil {
							return nil, err
						}
						set = append(set, e)
						if p.consumePunct(",") {
							continue
						}
						break
					}
				}
				if err := p.expectPunct(")"); err != nil {
					return nil, err
				}
			} else {
				e, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				set = append(set, e)
			}
			gb.Sets = append(gb.Sets, set)
			if p.consumePunct(",") {
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return gb, nil
	default:
		for {
			e, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			gb.Columns = append(gb.Columns, e)
			if p.consumePunct(",") {
				continue
			}
			break
		}
		return gb, nil
	}
}

func (p *Parser) parseParenExprList() ([]Expr, error) {
	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	var list []Expr
	if !p.isPunct(")") {
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
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return list, nil
}

// ---- ORDER BY ----

func (p *Parser) parseOrderByList() ([]OrderByItem, error) {
	var items []OrderByItem
	for {
		item, err := p.parseOrderByItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.consumePunct(",") {
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseOrderByItem() (OrderByItem, error) {
	var item OrderByItem
	if p.cur().Type == TokNumber && !strings.ContainsAny(p.cur().Value, ".eE") {
		n, err := p.parseIntLiteral()
		if err != nil {
			return OrderByItem{}, err
		}
		item.Ordinal = int(n)
	} else {
		e, err := p.parseExpr()
		if err != nil {
			return OrderByItem{}, err
		}
		item.Expr = e
	}
	if p.consumeKeyword("ASC") {
		item.Desc = false
	} else if p.consumeKeyword("DESC") {
		item.Desc = true
	}
	if p.consumeKeyword("NULLS") {
		if p.consumeKeyword("FIRST") {
			t := true
			item.NullsFirst = &t
		} else if p.consumeKeyword("LAST") {
			f := false
			item.NullsFirst = &f
		} else {
			return OrderByItem{}, p.errorf("expected FIRST or LAST after NULLS")
		}
	}
	return item, nil
}
