package sql

// parseCreate dispatches CREATE TABLE and CREATE [OR REPLACE] VIEW.
func (p *Parser) parseCreate() (Statement, error) {
	if err := p.expectKeyword("CREATE"); err != nil {
		return nil, err
	}
	orReplace := false
	if p.isKeyword("OR") {
		p.advance()
		if err := p.expectKeyword("REPLACE"); err != nil {
			return nil, err
		}
		orReplace = true
	}
	switch {
	case p.consumeKeyword("TABLE"):
		return p.parseCreateTable()
	case p.consumeKeyword("VIEW"):
		return p.parseCreateView(orReplace)
	default:
		return nil, p.errorf("expected TABLE or VIEW after CREATE")
	}
}

func (p *Parser) parseCreateTable() (*CreateTableStmt, error) {
	stmt := &CreateTableStmt{}
	if p.consumeKeyword("IF") {
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt.Name = name

	if p.consumeKeyword("AS") {
		q, err := p.parseSelectStmt()
		if err != nil {
			return nil, err
		}
		stmt.AsSelect = q
		return stmt, nil
	}

	if err := p.expectPunct("("); err != nil {
		return nil, err
	}
	for {
		col, err := p.parseColumnDefAst()
		if err != nil {
			return nil, err
		}
		stmt.Columns = append(stmt.Columns, col)
		if p.consumePunct(",") {
			continue
		}
		break
	}
	if err := p.expectPunct(")"); err != nil {
		return nil, err
	}
	return stmt, nil
}

func (p *Parser) parseColumnDefAst() (ColumnDefAst, error) {
	name, err := p.expectIdent()
	if err != nil {
		return ColumnDefAst{}, err
	}
	tn, err := p.parseTypeName()
	if err != nil {
		return ColumnDefAst{}, err
	}
	col := ColumnDefAst{Name: name, Type: tn}
	for {
		switch {
		case p.consumeKeyword("NOT"):
			if err := p.expectKeyword("NULL"); err != nil {
				return ColumnDefAst{}, err
			}
			col.Constraints = append(col.Constraints, ColNotNull)
		case p.consumeKeyword("UNIQUE"):
			col.Constraints = append(col.Constraints, ColUnique)
		case p.consumeKeyword("PRIMARY"):
			if err := p.expectKeyword("KEY"); err != nil {
				return ColumnDefAst{}, err
			}
			col.Constraints = append(col.Constraints, ColPrimaryKey)
		case p.consumeKeyword("DEFAULT"):
			e, err := p.parseDefaultExpr()
			if err != nil {
				return ColumnDefAst{}, err
			}
			col.Default = e
		case p.consumeKeyword("CHECK"):
			if err := p.expectPunct("("); err != nil {
				return ColumnDefAst{}, err
			}
			e, err := p.parseExpr()
			if err != nil {
				return ColumnDefAst{}, err
			}
			if err := p.expectPunct(")"); err != nil {
				return ColumnDefAst{}, err
			}
			col.Constraints = append(col.Constraints, ColCheck)
			col.Check = e
		default:
			return col, nil
		}
	}
}

// parseDefaultExpr parses the DEFAULT expression, which is usually a bare
// literal or a unary-minus literal but may be any scalar expression the
// executor can fold at DDL time (e.g. DEFAULT (1 + 1) or DEFAULT NOW()).
func (p *Parser) parseDefaultExpr() (Expr, error) {
	return p.parseUnary()
}

func (p *Parser) parseCreateView(orReplace bool) (*CreateViewStmt, error) {
	stmt := &CreateViewStmt{OrReplace: orReplace}
	if p.consumeKeyword("IF") {
		if err := p.expectKeyword("NOT"); err != nil {
			return nil, err
		}
		if err := p.expectKeyword("EXISTS"); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt.Name = name
	if p.consumePunct("(") {
		for {
			col, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, col)
			if p.consumePunct(",") {
				continue
			}
			break
		}
		if err := p.expectPunct(")"); err != nil {
			return nil, err
		}
	}
	if err := p.expectKeyword("AS"); err != nil {
		return nil, err
	}
	q, err := p.parseSelectStmt()
	if err != nil {
		return nil, err
	}
	stmt.Query = q
	return stmt, nil
}

// parseDrop dispatches DROP TABLE and DROP VIEW.
func (p *Parser) parseDrop() (Statement, error) {
	if err := p.expectKeyword("DROP"); err != nil {
		return nil, err
	}
	switch {
	case p.consumeKeyword("TABLE"):
		ifExists := false
		if p.consumeKeyword("IF") {
			if err := p.expectKeyword("EXISTS"); err != nil {
				return nil, err
			}
			ifExists = true
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DropTableStmt{Name: name, IfExists: ifExists}, nil
	case p.consumeKeyword("VIEW"):
		ifExists := false
		if p.consumeKeyword("IF") {
			if err := p.expectKeyword("EXISTS"); err != nil {
				return nil, err
			}
			ifExists = true
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DropViewStmt{Name: name, IfExists: ifExists}, nil
	default:
		return nil, p.errorf("expected TABLE or VIEW after DROP")
	}
}

// parseAlter handles ALTER TABLE name {ADD COLUMN|DROP COLUMN|RENAME COLUMN
// ... TO ...|RENAME TO ...}.
func (p *Parser) parseAlter() (*AlterTableStmt, error) {
	if err := p.expectKeyword("ALTER"); err != nil {
		return nil, err
	}
	if err := p.expectKeyword("TABLE"); err != nil {
		return nil, err
	}
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	stmt := &AlterTableStmt{Name: name}
	switch {
	case p.consumeKeyword("ADD"):
		p.consumeKeyword("COLUMN")
		col, err := p.parseColumnDefAst()
		if err != nil {
			return nil, err
		}
		stmt.Kind = AlterAddColumn
		stmt.ColumnDef = col
	case p.consumeKeyword("DROP"):
		p.consumeKeyword("COLUMN")
		col, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		stmt.Kind = AlterDropColumn
		stmt.ColumnName = col
	case p.consumeKeyword("RENAME"):
		if p.consumeKeyword("COLUMN") {
			oldName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			if err := p.expectKeyword("TO"); err != nil {
				return nil, err
			}
			newName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.Kind = AlterRenameColumn
			stmt.ColumnName = oldName
			stmt.NewName = newName
		} else if p.consumeKeyword("TO") {
			newName, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			stmt.Kind = AlterRenameTable
			stmt.NewName = newName
		} else {
			return nil, p.errorf("expected COLUMN or TO after RENAME")
		}
	default:
		return nil, p.errorf("expected ADD, DROP or RENAME after ALTER TABLE")
	}
	return stmt, nil
}
