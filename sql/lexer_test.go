package sql

import "testing"

func TestLexer_Tokens(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{"simple select", "SELECT 1", 3, false},
		{"string literal", "SELECT 'hi'", 3, false},
		{"quoted ident", `SELECT "my col" FROM t`, 5, false},
		{"unterminated string", "SELECT 'hi", 0, true},
		{"unterminated block comment", "SELECT /* oops", 0, true},
		{"line comment skipped", "SELECT 1 -- trailing\n", 3, false},
		{"nested block comment", "SELECT /* a /* b */ c */ 1", 3, false},
		{"not equal", "a != b", 4, false},
		{"bare bang errors", "a ! b", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Tokens(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Tokens() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(toks) != tt.wantLen {
				t.Errorf("Tokens() len = %d, want %d (%v)", len(toks), tt.wantLen, toks)
			}
			if toks[len(toks)-1].Type != TokEOF {
				t.Errorf("last token should be EOF, got %v", toks[len(toks)-1])
			}
		})
	}
}

func TestLexer_NumberForms(t *testing.T) {
	toks, err := Tokens("1 1.5 1e10 1.5e-3")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"1", "1.5", "1e10", "1.5e-3"}
	for i, w := range want {
		if toks[i].Value != w {
			t.Errorf("token %d = %q, want %q", i, toks[i].Value, w)
		}
	}
}

func TestLexer_DateLiteral(t *testing.T) {
	toks, err := Tokens("DATE '2024-01-01'")
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Type != TokDateLiteral {
		t.Fatalf("want TokDateLiteral, got %v", toks[0].Type)
	}
	if toks[0].Value != "2024-01-01" {
		t.Errorf("value = %q", toks[0].Value)
	}
}

func TestLexer_EscapedQuote(t *testing.T) {
	toks, err := Tokens(`'it''s'`)
	if err != nil {
		t.Fatal(err)
	}
	if toks[0].Value != "it's" {
		t.Errorf("value = %q, want it's", toks[0].Value)
	}
}
