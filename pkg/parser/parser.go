// Package parser implements a recursive-descent parser that turns a
// token stream from pkg/lexer into the AST defined by pkg/ast.
package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/lexer"
	"github.com/Chahine-tech/rowql/pkg/value"
)

// SyntaxError reports a parse failure with the offending token's
// position, mirroring the positional error reporting style used
// throughout the engine's error handling.
type SyntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}

func NewSyntaxError(msg string, tok lexer.Token) *SyntaxError {
	return &SyntaxError{Message: msg, Line: tok.Line, Column: tok.Column}
}

// Parser is a single-use recursive-descent parser over one statement's
// worth of tokens.
type Parser struct {
	l *lexer.Lexer

	curToken  lexer.Token
	peekToken lexer.Token

	tokenCount int
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses a single statement from src.
func Parse(src string) (ast.Statement, error) {
	p := New(lexer.New(src))
	return p.ParseStatement()
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	p.tokenCount++
}

func (p *Parser) curTokenIs(t lexer.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t lexer.TokenType) bool { return p.peekToken.Type == t }

// ParseStatement dispatches on the current leading token to the
// statement-specific parse function.
func (p *Parser) ParseStatement() (ast.Statement, error) {
	var stmt ast.Statement
	var err error

	switch p.curToken.Type {
	case lexer.SELECT:
		stmt, err = p.parseSelectStatement()
	case lexer.INSERT:
		stmt, err = p.parseInsertStatement()
	case lexer.UPDATE:
		stmt, err = p.parseUpdateStatement()
	case lexer.DELETE:
		stmt, err = p.parseDeleteStatement()
	case lexer.CREATE:
		stmt, err = p.parseCreateStatement()
	case lexer.DROP:
		stmt, err = p.parseDropStatement()
	case lexer.ALTER:
		stmt, err = p.parseAlterStatement()
	case lexer.BEGIN:
		p.nextToken()
		if p.curTokenIs(lexer.TRANSACTION) {
			p.nextToken()
		}
		stmt, err = &ast.BeginStatement{}, nil
	case lexer.COMMIT:
		p.nextToken()
		if p.curTokenIs(lexer.TRANSACTION) {
			p.nextToken()
		}
		stmt, err = &ast.CommitStatement{}, nil
	case lexer.ROLLBACK:
		p.nextToken()
		if p.curTokenIs(lexer.TRANSACTION) {
			p.nextToken()
		}
		stmt, err = &ast.RollbackStatement{}, nil
	case lexer.EXPLAIN:
		stmt, err = p.parseExplainStatement()
	case lexer.DESCRIBE:
		stmt, err = p.parseDescribeStatement()
	default:
		return nil, NewSyntaxError(fmt.Sprintf("unexpected token %s", p.curToken.Type), p.curToken)
	}
	if err != nil {
		return nil, err
	}

	// Optional trailing semicolon.
	if p.curTokenIs(lexer.SEMICOLON) {
		p.nextToken()
	}
	if !p.curTokenIs(lexer.EOF) {
		return nil, NewSyntaxError(fmt.Sprintf("unexpected trailing token %s", p.curToken.Type), p.curToken)
	}
	return stmt, nil
}

// ---- EXPLAIN / DESCRIBE ----

func (p *Parser) parseExplainStatement() (ast.Statement, error) {
	p.nextToken() // consume EXPLAIN
	inner, err := p.parseExplainable()
	if err != nil {
		return nil, err
	}
	return &ast.ExplainStatement{Statement: inner}, nil
}

// parseExplainable parses the single statement EXPLAIN wraps.
func (p *Parser) parseExplainable() (ast.Statement, error) {
	switch p.curToken.Type {
	case lexer.SELECT:
		return p.parseSelectStatement()
	case lexer.INSERT:
		return p.parseInsertStatement()
	case lexer.UPDATE:
		return p.parseUpdateStatement()
	case lexer.DELETE:
		return p.parseDeleteStatement()
	default:
		return nil, NewSyntaxError(fmt.Sprintf("EXPLAIN does not support %s", p.curToken.Type), p.curToken)
	}
}

func (p *Parser) parseDescribeStatement() (ast.Statement, error) {
	p.nextToken() // consume DESCRIBE
	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name after DESCRIBE", p.curToken)
	}
	name := p.curToken.Literal
	p.nextToken()
	return &ast.DescribeStatement{Table: name}, nil
}

// ---- Transactions: handled inline in ParseStatement above ----

// ---- SELECT ----

func (p *Parser) parseSelectStatement() (*ast.SelectStatement, error) {
	stmt := &ast.SelectStatement{}
	p.nextToken() // consume SELECT

	if p.curTokenIs(lexer.DISTINCT) {
		stmt.Distinct = true
		p.nextToken()
	}

	items, err := p.parseSelectList()
	if err != nil {
		return nil, err
	}
	stmt.Columns = items

	if p.curTokenIs(lexer.FROM) {
		p.nextToken()
		table, err := p.parseTableReference()
		if err != nil {
			return nil, err
		}
		stmt.From = table

		for p.curTokenIs(lexer.JOIN) || p.curTokenIs(lexer.INNER) || p.curTokenIs(lexer.LEFT) || p.curTokenIs(lexer.RIGHT) {
			join, err := p.parseJoinClause()
			if err != nil {
				return nil, err
			}
			stmt.Joins = append(stmt.Joins, *join)
		}
	}

	if p.curTokenIs(lexer.WHERE) {
		p.nextToken()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}

	if p.curTokenIs(lexer.GROUP) {
		p.nextToken()
		if err := p.expectCur(lexer.BY); err != nil {
			return nil, err
		}
		p.nextToken()
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			stmt.GroupBy = append(stmt.GroupBy, expr)
			if p.curTokenIs(lexer.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}

	if p.curTokenIs(lexer.HAVING) {
		p.nextToken()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Having = cond
	}

	if p.curTokenIs(lexer.ORDER) {
		p.nextToken()
		if err := p.expectCur(lexer.BY); err != nil {
			return nil, err
		}
		p.nextToken()
		for {
			expr, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			desc := false
			if p.curTokenIs(lexer.ASC) {
				p.nextToken()
			} else if p.curTokenIs(lexer.DESC) {
				desc = true
				p.nextToken()
			}
			stmt.OrderBy = append(stmt.OrderBy, ast.OrderByItem{Expr: expr, Desc: desc})
			if p.curTokenIs(lexer.COMMA) {
				p.nextToken()
				continue
			}
			break
		}
	}

	if p.curTokenIs(lexer.LIMIT) {
		p.nextToken()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Limit = &n
	}

	if p.curTokenIs(lexer.OFFSET) {
		p.nextToken()
		n, err := p.parseIntLiteral()
		if err != nil {
			return nil, err
		}
		stmt.Offset = &n
	}

	if p.curTokenIs(lexer.UNION) {
		p.nextToken()
		all := false
		if p.curTokenIs(lexer.ALL) {
			all = true
			p.nextToken()
		}
		if !p.curTokenIs(lexer.SELECT) {
			return nil, NewSyntaxError("expected SELECT after UNION", p.curToken)
		}
		rhs, err := p.parseSelectStatement()
		if err != nil {
			return nil, err
		}
		stmt.Union = rhs
		stmt.UnionAll = all
	}

	return stmt, nil
}

func (p *Parser) expectCur(t lexer.TokenType) error {
	if !p.curTokenIs(t) {
		return NewSyntaxError(fmt.Sprintf("expected %s, got %s", t, p.curToken.Type), p.curToken)
	}
	return nil
}

func (p *Parser) parseIntLiteral() (int, error) {
	if !p.curTokenIs(lexer.NUMBER) {
		return 0, NewSyntaxError("expected integer literal", p.curToken)
	}
	n, err := strconv.Atoi(p.curToken.Literal)
	if err != nil {
		return 0, NewSyntaxError("invalid integer literal: "+p.curToken.Literal, p.curToken)
	}
	p.nextToken()
	return n, nil
}

func (p *Parser) parseSelectList() ([]ast.SelectItem, error) {
	var items []ast.SelectItem
	for {
		item, err := p.parseSelectItem()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	return items, nil
}

func (p *Parser) parseSelectItem() (ast.SelectItem, error) {
	if p.curTokenIs(lexer.ASTERISK) {
		p.nextToken()
		return ast.SelectItem{Star: true}, nil
	}
	expr, err := p.parseExpression()
	if err != nil {
		return ast.SelectItem{}, err
	}
	item := ast.SelectItem{Expr: expr}
	if p.curTokenIs(lexer.AS) {
		p.nextToken()
		if !p.curTokenIs(lexer.IDENT) {
			return ast.SelectItem{}, NewSyntaxError("expected alias after AS", p.curToken)
		}
		item.Alias = p.curToken.Literal
		p.nextToken()
	} else if p.curTokenIs(lexer.IDENT) {
		// bare alias: SELECT a b FROM t
		item.Alias = p.curToken.Literal
		p.nextToken()
	}
	return item, nil
}

func (p *Parser) parseTableReference() (*ast.TableReference, error) {
	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name", p.curToken)
	}
	ref := &ast.TableReference{Name: p.curToken.Literal}
	p.nextToken()
	if p.curTokenIs(lexer.AS) {
		p.nextToken()
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected alias after AS", p.curToken)
		}
		ref.Alias = p.curToken.Literal
		p.nextToken()
	} else if p.curTokenIs(lexer.IDENT) {
		ref.Alias = p.curToken.Literal
		p.nextToken()
	}
	return ref, nil
}

func (p *Parser) parseJoinClause() (*ast.JoinClause, error) {
	jt := ast.InnerJoin
	switch p.curToken.Type {
	case lexer.LEFT:
		jt = ast.LeftJoin
		p.nextToken()
		if p.curTokenIs(lexer.JOIN) {
			p.nextToken()
		}
	case lexer.RIGHT:
		jt = ast.RightJoin
		p.nextToken()
		if p.curTokenIs(lexer.JOIN) {
			p.nextToken()
		}
	case lexer.INNER:
		p.nextToken()
		if err := p.expectCur(lexer.JOIN); err != nil {
			return nil, err
		}
		p.nextToken()
	case lexer.JOIN:
		p.nextToken()
	}

	table, err := p.parseTableReference()
	if err != nil {
		return nil, err
	}
	if err := p.expectCur(lexer.ON); err != nil {
		return nil, err
	}
	p.nextToken()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	return &ast.JoinClause{JoinType: jt, Table: *table, Condition: cond}, nil
}

// ---- Expression parsing: OR < AND < NOT(prefix) < comparison < additive < multiplicative < unary < primary ----

func (p *Parser) parseExpression() (ast.Expression, error) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(lexer.OR) {
		p.nextToken()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: ast.OpOr, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(lexer.AND) {
		p.nextToken()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: ast.OpAnd, Right: right}
	}
	return left, nil
}

func (p *Parser) parseNot() (ast.Expression, error) {
	if p.curTokenIs(lexer.NOT) {
		p.nextToken()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: ast.OpNot, Operand: operand}, nil
	}
	return p.parseComparison()
}

func (p *Parser) parseComparison() (ast.Expression, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}

	switch p.curToken.Type {
	case lexer.ASSIGN, lexer.NOT_EQ, lexer.LT, lexer.LTE, lexer.GT, lexer.GTE:
		op := binaryOpFor(p.curToken.Type)
		p.nextToken()
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.BinaryExpression{Left: left, Operator: op, Right: right}, nil

	case lexer.LIKE:
		p.nextToken()
		pattern, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.LikeExpression{Expr: left, Pattern: pattern}, nil

	case lexer.NOT:
		return p.parseNotSuffix(left)

	case lexer.IN:
		return p.parseIn(left, false)

	case lexer.BETWEEN:
		return p.parseBetween(left, false)

	case lexer.IS:
		p.nextToken()
		not := false
		if p.curTokenIs(lexer.NOT) {
			not = true
			p.nextToken()
		}
		if err := p.expectCur(lexer.NULL); err != nil {
			return nil, err
		}
		p.nextToken()
		return &ast.IsNullExpression{Expr: left, Not: not}, nil
	}

	return left, nil
}

// parseNotSuffix handles "expr NOT IN (...)", "expr NOT BETWEEN a AND b",
// "expr NOT LIKE pattern" — postfix NOT forms distinct from prefix NOT.
func (p *Parser) parseNotSuffix(left ast.Expression) (ast.Expression, error) {
	p.nextToken() // consume NOT
	switch p.curToken.Type {
	case lexer.IN:
		return p.parseIn(left, true)
	case lexer.BETWEEN:
		return p.parseBetween(left, true)
	case lexer.LIKE:
		p.nextToken()
		pattern, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		return &ast.LikeExpression{Expr: left, Pattern: pattern, Not: true}, nil
	}
	return nil, NewSyntaxError(fmt.Sprintf("expected IN, BETWEEN, or LIKE after NOT, got %s", p.curToken.Type), p.curToken)
}

func (p *Parser) parseIn(left ast.Expression, not bool) (ast.Expression, error) {
	p.nextToken() // consume IN
	if err := p.expectCur(lexer.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()

	if p.curTokenIs(lexer.SELECT) {
		sub, err := p.parseSelectStatement()
		if err != nil {
			return nil, err
		}
		if err := p.expectCur(lexer.RPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
		return &ast.InExpression{Left: left, Subquery: sub, Not: not}, nil
	}

	var values []ast.Expression
	for !p.curTokenIs(lexer.RPAREN) {
		v, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken() // consume )
	return &ast.InExpression{Left: left, Values: values, Not: not}, nil
}

func (p *Parser) parseBetween(left ast.Expression, not bool) (ast.Expression, error) {
	p.nextToken() // consume BETWEEN
	low, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	if err := p.expectCur(lexer.AND); err != nil {
		return nil, err
	}
	p.nextToken()
	high, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	return &ast.BetweenExpression{Expr: left, Low: low, High: high, Not: not}, nil
}

func binaryOpFor(t lexer.TokenType) ast.BinaryOperator {
	switch t {
	case lexer.ASSIGN:
		return ast.OpEq
	case lexer.NOT_EQ:
		return ast.OpNotEq
	case lexer.LT:
		return ast.OpLt
	case lexer.LTE:
		return ast.OpLte
	case lexer.GT:
		return ast.OpGt
	case lexer.GTE:
		return ast.OpGte
	}
	return ""
}

func (p *Parser) parseAdditive() (ast.Expression, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(lexer.PLUS) || p.curTokenIs(lexer.MINUS) {
		op := ast.OpPlus
		if p.curTokenIs(lexer.MINUS) {
			op = ast.OpMinus
		}
		p.nextToken()
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseMultiplicative() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.curTokenIs(lexer.ASTERISK) || p.curTokenIs(lexer.SLASH) {
		op := ast.OpMul
		if p.curTokenIs(lexer.SLASH) {
			op = ast.OpDiv
		}
		p.nextToken()
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpression{Left: left, Operator: op, Right: right}
	}
	return left, nil
}

func (p *Parser) parseUnary() (ast.Expression, error) {
	if p.curTokenIs(lexer.MINUS) {
		p.nextToken()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpression{Operator: ast.OpNeg, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	switch p.curToken.Type {
	case lexer.NUMBER:
		lit := p.curToken.Literal
		p.nextToken()
		if strings.Contains(lit, ".") {
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, NewSyntaxError("invalid float literal: "+lit, p.curToken)
			}
			return &ast.Literal{Value: value.NewFloat(f)}, nil
		}
		n, err := strconv.ParseInt(lit, 10, 64)
		if err != nil {
			return nil, NewSyntaxError("invalid integer literal: "+lit, p.curToken)
		}
		return &ast.Literal{Value: value.NewInteger(n)}, nil

	case lexer.STRING:
		lit := p.curToken.Literal
		p.nextToken()
		return &ast.Literal{Value: value.NewText(lit)}, nil

	case lexer.NULL:
		p.nextToken()
		return &ast.Literal{Value: value.NewNull()}, nil

	case lexer.IDENT:
		return p.parseIdentOrCall()

	case lexer.EXISTS:
		p.nextToken()
		if err := p.expectCur(lexer.LPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
		sub, err := p.parseSelectStatement()
		if err != nil {
			return nil, err
		}
		if err := p.expectCur(lexer.RPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
		return &ast.ExistsExpression{Subquery: sub}, nil

	case lexer.LPAREN:
		p.nextToken()
		if p.curTokenIs(lexer.SELECT) {
			sub, err := p.parseSelectStatement()
			if err != nil {
				return nil, err
			}
			if err := p.expectCur(lexer.RPAREN); err != nil {
				return nil, err
			}
			p.nextToken()
			return &ast.ScalarSubquery{Subquery: sub}, nil
		}
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if err := p.expectCur(lexer.RPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
		return inner, nil
	}

	return nil, NewSyntaxError(fmt.Sprintf("unexpected token %s in expression", p.curToken.Type), p.curToken)
}

var aggregateFunctions = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
}

func (p *Parser) parseIdentOrCall() (ast.Expression, error) {
	name := p.curToken.Literal
	upper := strings.ToUpper(name)

	if aggregateFunctions[upper] && p.peekTokenIs(lexer.LPAREN) {
		p.nextToken() // consume name
		p.nextToken() // consume (
		call := &ast.FunctionCall{Name: upper}
		if p.curTokenIs(lexer.ASTERISK) {
			call.Star = true
			p.nextToken()
		} else {
			if p.curTokenIs(lexer.DISTINCT) {
				call.Distinct = true
				p.nextToken()
			}
			arg, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			call.Arg = arg
		}
		if err := p.expectCur(lexer.RPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
		return call, nil
	}

	p.nextToken()
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		return &ast.ColumnReference{Table: name[:dot], Column: name[dot+1:]}, nil
	}
	return &ast.ColumnReference{Column: name}, nil
}

// TokenCount reports how many tokens this parser has consumed, mirroring
// the lightweight parse-metrics the engine surfaces in logs.
func (p *Parser) TokenCount() int { return p.tokenCount }
