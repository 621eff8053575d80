package sql

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vegasq/memsql/value"
)

// ParseError carries the offending span, per spec §7.
type ParseError struct {
	Msg  string
	Span Span
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse error at %d: %s", e.Span.Start, e.Msg) }

// Parser is a recursive-descent parser with Pratt-style precedence
// climbing for expressions, grounded on the query/parser.go and
// query/parser_expression.go shape (peek/expect/advance over a flat token
// slice) and extended to the full statement grammar of spec §4.5.
type Parser struct {
	toks  []Token
	pos   int
	depth int
}

// Parse lexes and parses a single SQL statement (a trailing `;` is
// optional and ignored).
func Parse(sqlText string) (Statement, error) {
	if len(sqlText) > MaxQueryLength {
		return nil, &ParseError{Msg: "query too long"}
	}
	toks, err := Tokens(sqlText)
	if err != nil {
		return nil, err
	}
	if len(toks) > MaxTokens {
		return nil, &ParseError{Msg: "too many tokens"}
	}
	p := &Parser{toks: toks}
	stmt, err := p.parseStatement()
	if err != nil {
		return nil, err
	}
	p.consumePunct(";")
	if !p.atEOF() {
		return nil, p.errorf("unexpected trailing input")
	}
	return stmt, nil
}

func (p *Parser) cur() Token  { return p.toks[p.pos] }
func (p *Parser) atEOF() bool { return p.cur().Type == TokEOF }

func (p *Parser) advance() Token {
	t := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) errorf(format string, args ...any) error {
	return &ParseError{Msg: fmt.Sprintf(format, args...), Span: p.cur().Span}
}

func (p *Parser) isKeyword(kw string) bool {
	t := p.cur()
	return t.Type == TokKeyword && t.Value == kw
}

func (p *Parser) isPunct(s string) bool {
	t := p.cur()
	return t.Type == TokPunct && t.Value == s
}

func (p *Parser) consumeKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) consumePunct(s string) bool {
	if p.isPunct(s) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) expectKeyword(kw string) error {
	if !p.consumeKeyword(kw) {
		return p.errorf("expected %s", kw)
	}
	return nil
}

func (p *Parser) expectPunct(s string) error {
	if !p.consumePunct(s) {
		return p.errorf("expected %q, got %q", s, p.cur().Value)
	}
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	t := p.cur()
	if t.Type != TokIdent {
		return "", p.errorf("expected identifier, got %q", t.Value)
	}
	p.advance()
	return t.Value, nil
}

// parseStatement dispatches on the leading keyword.
func (p *Parser) parseStatement() (Statement, error) {
	switch {
	case p.isKeyword("SELECT") || p.isKeyword("WITH"):
		return p.parseSelectStmt()
	case p.isKeyword("INSERT"):
		return p.parseInsert()
	case p.isKeyword("UPDATE"):
		return p.parseUpdate()
	case p.isKeyword("DELETE"):
		return p.parseDelete()
	case p.isKeyword("MERGE"):
		return p.parseMerge()
	case p.isKeyword("CREATE"):
		return p.parseCreate()
	case p.isKeyword("DROP"):
		return p.parseDrop()
	case p.isKeyword("ALTER"):
		return p.parseAlter()
	case p.isKeyword("BEGIN"):
		p.advance()
		p.consumeKeyword("TRANSACTION")
		return &BeginStmt{}, nil
	case p.isKeyword("COMMIT"):
		p.advance()
		return &CommitStmt{}, nil
	case p.isKeyword("ROLLBACK"):
		p.advance()
		if p.consumeKeyword("TO") {
			p.consumeKeyword("SAVEPOINT")
			name, err := p.expectIdent()
			if err != nil {
				return nil, err
			}
			return &RollbackToStmt{Name: name}, nil
		}
		return &RollbackStmt{}, nil
	case p.isKeyword("SAVEPOINT"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &SavepointStmt{Name: name}, nil
	case p.isKeyword("RELEASE"):
		p.advance()
		p.consumeKeyword("SAVEPOINT")
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &ReleaseStmt{Name: name}, nil
	case p.isKeyword("SHOW"):
		p.advance()
		if err := p.expectKeyword("TABLES"); err != nil {
			return nil, err
		}
		return &ShowTablesStmt{}, nil
	case p.isKeyword("DESCRIBE"):
		p.advance()
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		return &DescribeStmt{Name: name}, nil
	case p.isKeyword("EXPLAIN"):
		p.advance()
		inner, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		return &ExplainStmt{Inner: inner}, nil
	default:
		return nil, p.errorf("unexpected token %q", p.cur().Value)
	}
}

// parseName accepts an identifier token (bare or double-quoted) for name
// contexts such as a table name or column alias; a keyword token is
// rejected, so a reserved word can only be used here when quoted.
func (p *Parser) parseName() (string, error) {
	return p.expectIdent()
}

// ---- literals ----

func parseNumberLiteral(s string) value.Value {
	if strings.ContainsAny(s, ".eE") {
		f, _ := strconv.ParseFloat(s, 64)
		return value.NewFloat(f)
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		f, _ := strconv.ParseFloat(s, 64)
		return value.NewFloat(f)
	}
	return value.NewInt(i)
}

func typeNameFromKeyword(kw string, p int32, s int32) TypeName {
	return TypeName{Base: strings.ToUpper(kw), P: p, S: s}
}

// DataTypeFromName maps a parsed TypeName to value.DataType (spec §6).
func DataTypeFromName(t TypeName) value.DataType {
	switch t.Base {
	case "BOOLEAN":
		return value.Boolean
	case "INTEGER", "BIGINT":
		return value.Int64
	case "DOUBLE", "FLOAT":
		return value.Float64
	case "VARCHAR", "TEXT":
		return value.Utf8
	case "DATE":
		return value.Date
	case "TIMESTAMP":
		return value.Timestamp
	case "TIME":
		return value.Time
	case "INTERVAL":
		return value.Interval
	case "DECIMAL":
		return value.Decimal
	default:
		return value.Utf8
	}
}

func isTypeKeyword(kw string) bool {
	switch kw {
	case "BOOLEAN", "INTEGER", "BIGINT", "DOUBLE", "FLOAT", "VARCHAR", "TEXT",
		"DATE", "TIMESTAMP", "TIME", "INTERVAL", "DECIMAL":
		return true
	}
	return false
}

func (p *Parser) parseTypeName() (TypeName, error) {
	t := p.cur()
	if t.Type != TokKeyword || !isTypeKeyword(t.Value) {
		return TypeName{}, p.errorf("expected type name, got %q", t.Value)
	}
	p.advance()
	if t.Value == "DECIMAL" && p.consumePunct("(") {
		prec, err := p.parseIntLiteral()
		if err != nil {
			return TypeName{}, err
		}
		s := int64(0)
		if p.consumePunct(",") {
			s, err = p.parseIntLiteral()
			if err != nil {
				return TypeName{}, err
			}
		}
		if err := p.expectPunct(")"); err != nil {
			return TypeName{}, err
		}
		return typeNameFromKeyword(t.Value, int32(prec), int32(s)), nil
	}
	return typeNameFromKeyword(t.Value, 0, 0), nil
}

func (p *Parser) parseIntLiteral() (int64, error) {
	t := p.cur()
	if t.Type != TokNumber {
		return 0, p.errorf("expected integer, got %q", t.Value)
	}
	p.advance()
	n, err := strconv.ParseInt(t.Value, 10, 64)
	if err != nil {
		return 0, p.errorf("invalid integer %q", t.Value)
	}
	return n, nil
}
