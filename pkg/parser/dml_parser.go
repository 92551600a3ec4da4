package parser

import (
	"fmt"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/lexer"
)

func (p *Parser) parseInsertStatement() (*ast.InsertStatement, error) {
	stmt := &ast.InsertStatement{}

	if err := p.expectCur(lexer.INSERT); err != nil {
		return nil, err
	}
	p.nextToken()
	if err := p.expectCur(lexer.INTO); err != nil {
		return nil, err
	}
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name", p.curToken)
	}
	stmt.Table = p.curToken.Literal
	p.nextToken()

	if p.curTokenIs(lexer.LPAREN) {
		cols, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		stmt.Columns = cols
	}

	if err := p.expectCur(lexer.VALUES); err != nil {
		return nil, err
	}
	p.nextToken()

	for {
		row, err := p.parseValueTuple()
		if err != nil {
			return nil, err
		}
		stmt.Rows = append(stmt.Rows, row)
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	return stmt, nil
}

func (p *Parser) parseValueTuple() ([]ast.Expression, error) {
	if err := p.expectCur(lexer.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()

	var row []ast.Expression
	for !p.curTokenIs(lexer.RPAREN) {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		row = append(row, expr)
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken() // consume )
	return row, nil
}

func (p *Parser) parseUpdateStatement() (*ast.UpdateStatement, error) {
	stmt := &ast.UpdateStatement{}

	if err := p.expectCur(lexer.UPDATE); err != nil {
		return nil, err
	}
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name", p.curToken)
	}
	stmt.Table = p.curToken.Literal
	p.nextToken()

	if err := p.expectCur(lexer.SET); err != nil {
		return nil, err
	}
	p.nextToken()

	for {
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected column name in SET clause", p.curToken)
		}
		col := p.curToken.Literal
		p.nextToken()
		if err := p.expectCur(lexer.ASSIGN); err != nil {
			return nil, err
		}
		p.nextToken()
		val, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, ast.Assignment{Column: col, Value: val})
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			continue
		}
		break
	}

	if p.curTokenIs(lexer.WHERE) {
		p.nextToken()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}

	return stmt, nil
}

func (p *Parser) parseDeleteStatement() (*ast.DeleteStatement, error) {
	stmt := &ast.DeleteStatement{}

	if err := p.expectCur(lexer.DELETE); err != nil {
		return nil, err
	}
	p.nextToken()
	if err := p.expectCur(lexer.FROM); err != nil {
		return nil, err
	}
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		return nil, fmt.Errorf("expected table name, got %s", p.curToken.Type)
	}
	stmt.Table = p.curToken.Literal
	p.nextToken()

	if p.curTokenIs(lexer.WHERE) {
		p.nextToken()
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		stmt.Where = cond
	}

	return stmt, nil
}
