package sql

import "testing"

func TestParse_SelectBasic(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantErr bool
	}{
		{"star", "SELECT * FROM t", false},
		{"with where", "SELECT a, b FROM t WHERE a > 1", false},
		{"alias", "SELECT a AS x FROM t", false},
		{"group by having", "SELECT a, COUNT(*) FROM t GROUP BY a HAVING COUNT(*) > 1", false},
		{"order limit offset", "SELECT a FROM t ORDER BY a DESC LIMIT 10 OFFSET 5", false},
		{"join on", "SELECT * FROM a JOIN b ON a.id = b.id", false},
		{"left join", "SELECT * FROM a LEFT JOIN b ON a.id = b.id", false},
		{"natural join", "SELECT * FROM a NATURAL JOIN b", false},
		{"using join", "SELECT * FROM a JOIN b USING (id)", false},
		{"union", "SELECT a FROM t UNION SELECT a FROM u", false},
		{"union all", "SELECT a FROM t UNION ALL SELECT a FROM u", false},
		{"cte", "WITH x AS (SELECT 1 AS a) SELECT a FROM x", false},
		{"recursive cte", "WITH RECURSIVE x AS (SELECT 1 AS a UNION ALL SELECT a + 1 FROM x WHERE a < 5) SELECT a FROM x", false},
		{"subquery in from", "SELECT a FROM (SELECT 1 AS a) t", false},
		{"exists", "SELECT * FROM t WHERE EXISTS (SELECT 1 FROM u WHERE u.id = t.id)", false},
		{"window", "SELECT ROW_NUMBER() OVER (PARTITION BY a ORDER BY b) FROM t", false},
		{"window frame", "SELECT SUM(a) OVER (ORDER BY b ROWS BETWEEN 1 PRECEDING AND CURRENT ROW) FROM t", false},
		{"case", "SELECT CASE WHEN a > 1 THEN 'x' ELSE 'y' END FROM t", false},
		{"cast op", "SELECT a::INTEGER FROM t", false},
		{"cast func", "SELECT CAST(a AS INTEGER) FROM t", false},
		{"between", "SELECT * FROM t WHERE a BETWEEN 1 AND 10", false},
		{"in list", "SELECT * FROM t WHERE a IN (1, 2, 3)", false},
		{"like", "SELECT * FROM t WHERE a LIKE '%x%'", false},
		{"is null", "SELECT * FROM t WHERE a IS NOT NULL", false},
		{"distinct from", "SELECT * FROM t WHERE a IS DISTINCT FROM b", false},
		{"rollup", "SELECT a, b, SUM(c) FROM t GROUP BY ROLLUP(a, b)", false},
		{"grouping sets", "SELECT a, b FROM t GROUP BY GROUPING SETS ((a), (b), ())", false},
		{"qualify", "SELECT a, ROW_NUMBER() OVER (ORDER BY a) AS rn FROM t QUALIFY rn = 1", false},
		{"pivot", "SELECT * FROM t PIVOT (SUM(amount) FOR quarter IN ('Q1', 'Q2'))", false},
		{"missing from", "SELECT", true},
		{"trailing garbage", "SELECT 1 FROM t ALIAS EXTRA", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.query)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse(%q) error = %v, wantErr %v", tt.query, err, tt.wantErr)
			}
		})
	}
}

func TestParse_DML(t *testing.T) {
	tests := []string{
		"INSERT INTO t (a, b) VALUES (1, 2)",
		"INSERT INTO t (a, b) VALUES (1, 2), (3, 4)",
		"INSERT INTO t SELECT a, b FROM u",
		"UPDATE t SET a = 1 WHERE b = 2",
		"DELETE FROM t WHERE a = 1",
		"MERGE INTO t USING u ON t.id = u.id WHEN MATCHED THEN UPDATE SET a = u.a WHEN NOT MATCHED THEN INSERT (id, a) VALUES (u.id, u.a)",
	}
	for _, q := range tests {
		if _, err := Parse(q); err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", q, err)
		}
	}
}

func TestParse_DDL(t *testing.T) {
	tests := []string{
		"CREATE TABLE t (a INTEGER NOT NULL, b VARCHAR DEFAULT 'x', c INTEGER CHECK (c > 0))",
		"CREATE TABLE IF NOT EXISTS t (a INTEGER)",
		"CREATE TABLE t AS SELECT a FROM u",
		"DROP TABLE IF EXISTS t",
		"ALTER TABLE t ADD COLUMN c INTEGER",
		"ALTER TABLE t DROP COLUMN c",
		"ALTER TABLE t RENAME COLUMN a TO b",
		"ALTER TABLE t RENAME TO u",
		"CREATE VIEW v AS SELECT a FROM t",
		"CREATE OR REPLACE VIEW v AS SELECT a FROM t",
		"DROP VIEW IF EXISTS v",
	}
	for _, q := range tests {
		if _, err := Parse(q); err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", q, err)
		}
	}
}

func TestParse_Transactions(t *testing.T) {
	tests := []string{
		"BEGIN",
		"BEGIN TRANSACTION",
		"COMMIT",
		"ROLLBACK",
		"SAVEPOINT sp1",
		"RELEASE sp1",
		"ROLLBACK TO sp1",
		"ROLLBACK TO SAVEPOINT sp1",
		"SHOW TABLES",
		"DESCRIBE t",
		"EXPLAIN SELECT * FROM t",
	}
	for _, q := range tests {
		stmt, err := Parse(q)
		if err != nil {
			t.Errorf("Parse(%q) unexpected error: %v", q, err)
			continue
		}
		if stmt == nil {
			t.Errorf("Parse(%q) returned nil statement", q)
		}
	}
}

func TestParse_ExpressionPrecedence(t *testing.T) {
	stmt, err := Parse("SELECT 1 + 2 * 3 FROM t")
	if err != nil {
		t.Fatal(err)
	}
	ss := stmt.(*SelectStmt)
	core := ss.Body.(*SelectCore)
	bin, ok := core.SelectList[0].Expr.(*BinaryExpr)
	if !ok {
		t.Fatalf("expected top-level BinaryExpr, got %T", core.SelectList[0].Expr)
	}
	if bin.Op != "+" {
		t.Errorf("top operator = %q, want +", bin.Op)
	}
	rhs, ok := bin.Right.(*BinaryExpr)
	if !ok || rhs.Op != "*" {
		t.Errorf("right side should be a * BinaryExpr, got %#v", bin.Right)
	}
}

func TestParse_SetOpPrecedence(t *testing.T) {
	stmt, err := Parse("SELECT a FROM t UNION SELECT a FROM u INTERSECT SELECT a FROM v")
	if err != nil {
		t.Fatal(err)
	}
	ss := stmt.(*SelectStmt)
	top, ok := ss.Body.(*SetOpNode)
	if !ok || top.Op != SetOpUnion {
		t.Fatalf("expected top-level UNION, got %#v", ss.Body)
	}
	if _, ok := top.Right.(*SetOpNode); !ok {
		t.Errorf("INTERSECT should bind tighter, nesting under UNION's right side")
	}
}
