package lexer

import "testing"

func TestNextTokenBasicSelect(t *testing.T) {
	input := `SELECT id, name FROM users WHERE age >= 18 AND active = true;`

	expected := []struct {
		typ     TokenType
		literal string
	}{
		{SELECT, "SELECT"},
		{IDENT, "id"},
		{COMMA, ","},
		{IDENT, "name"},
		{FROM, "FROM"},
		{IDENT, "users"},
		{WHERE, "WHERE"},
		{IDENT, "age"},
		{GTE, ">="},
		{NUMBER, "18"},
		{AND, "AND"},
		{IDENT, "active"},
		{ASSIGN, "="},
		{IDENT, "true"},
		{SEMICOLON, ";"},
		{EOF, ""},
	}

	l := New(input)
	for i, want := range expected {
		tok := l.NextToken()
		if tok.Type != want.typ {
			t.Fatalf("token %d: type=%s, want=%s (literal=%q)", i, tok.Type, want.typ, tok.Literal)
		}
		if tok.Literal != want.literal {
			t.Fatalf("token %d: literal=%q, want=%q", i, tok.Literal, want.literal)
		}
	}
}

func TestNextTokenNegativeNumber(t *testing.T) {
	l := New("WHERE balance < -10.5")
	l.NextToken() // WHERE
	l.NextToken() // balance
	l.NextToken() // <
	tok := l.NextToken()
	if tok.Type != NUMBER || tok.Literal != "-10.5" {
		t.Fatalf("got %v, want NUMBER -10.5", tok)
	}
}

func TestNextTokenQualifiedIdentifier(t *testing.T) {
	l := New("users.id")
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "users.id" {
		t.Fatalf("got %v, want IDENT users.id", tok)
	}
}

func TestNextTokenStringEscape(t *testing.T) {
	l := New(`'it''s'` + ` 'a\'b'`)
	tok := l.NextToken()
	if tok.Type != STRING {
		t.Fatalf("got %v, want STRING", tok)
	}
	l.NextToken() // 's': a doubled quote closes and reopens the literal
	tok = l.NextToken()
	if tok.Type != STRING || tok.Literal != "a'b" {
		t.Fatalf("got %v, want STRING a'b", tok)
	}
}

func TestNextTokenNotEqualForms(t *testing.T) {
	for _, src := range []string{"<>", "!="} {
		l := New(src)
		tok := l.NextToken()
		if tok.Type != NOT_EQ {
			t.Fatalf("%s: got %v, want NOT_EQ", src, tok)
		}
	}
}

func TestLookupIdentKeyword(t *testing.T) {
	if LookupIdent("SELECT") != SELECT {
		t.Fatalf("expected SELECT keyword")
	}
	if LookupIdent("my_table") != IDENT {
		t.Fatalf("expected IDENT for non-keyword")
	}
}
