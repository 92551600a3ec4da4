package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/lexer"
)

// parseCreateStatement handles CREATE TABLE and CREATE [UNIQUE] INDEX.
func (p *Parser) parseCreateStatement() (ast.Statement, error) {
	p.nextToken() // consume CREATE

	switch p.curToken.Type {
	case lexer.TABLE:
		return p.parseCreateTableStatement()
	case lexer.INDEX, lexer.UNIQUE:
		return p.parseCreateIndexStatement()
	default:
		return nil, NewSyntaxError(fmt.Sprintf("unsupported CREATE statement: CREATE %s", p.curToken.Literal), p.curToken)
	}
}

func (p *Parser) parseCreateTableStatement() (*ast.CreateTableStatement, error) {
	stmt := &ast.CreateTableStatement{}

	if err := p.expectCur(lexer.TABLE); err != nil {
		return nil, err
	}
	p.nextToken()

	if p.curTokenIs(lexer.IF) {
		p.nextToken()
		if err := p.expectCur(lexer.NOT); err != nil {
			return nil, err
		}
		p.nextToken()
		if err := p.expectCur(lexer.EXISTS); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
		p.nextToken()
	}

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name", p.curToken)
	}
	stmt.Table = p.curToken.Literal
	p.nextToken()

	if err := p.expectCur(lexer.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()

	for !p.curTokenIs(lexer.RPAREN) && !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.PRIMARY) || p.curTokenIs(lexer.FOREIGN) ||
			p.curTokenIs(lexer.UNIQUE) || p.curTokenIs(lexer.CONSTRAINT) {
			constraint, err := p.parseTableConstraint()
			if err != nil {
				return nil, err
			}
			stmt.Constraints = append(stmt.Constraints, constraint)
		} else {
			column, err := p.parseColumnDefinition()
			if err != nil {
				return nil, err
			}
			stmt.Columns = append(stmt.Columns, column)
		}

		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
		} else if !p.curTokenIs(lexer.RPAREN) {
			return nil, NewSyntaxError(fmt.Sprintf("expected ',' or ')', got %s", p.curToken.Type), p.curToken)
		}
	}

	if err := p.expectCur(lexer.RPAREN); err != nil {
		return nil, err
	}
	p.nextToken()

	return stmt, nil
}

// parseColumnDefinition parses "name TYPE[(len[,scale])] [constraints...]".
// Constraints may appear in any order, matching real CREATE TABLE grammar.
func (p *Parser) parseColumnDefinition() (*ast.ColumnDefinition, error) {
	col := &ast.ColumnDefinition{}

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected column name", p.curToken)
	}
	col.Name = p.curToken.Literal
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected data type", p.curToken)
	}
	col.DataType = strings.ToUpper(p.curToken.Literal)
	p.nextToken()

	if p.curTokenIs(lexer.LPAREN) {
		p.nextToken()
		if !p.curTokenIs(lexer.NUMBER) {
			return nil, NewSyntaxError("expected number for type length", p.curToken)
		}
		length, err := strconv.Atoi(p.curToken.Literal)
		if err != nil {
			return nil, NewSyntaxError("invalid length: "+p.curToken.Literal, p.curToken)
		}
		col.Length = length
		p.nextToken()

		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
			if !p.curTokenIs(lexer.NUMBER) {
				return nil, NewSyntaxError("expected number for type scale", p.curToken)
			}
			scale, err := strconv.Atoi(p.curToken.Literal)
			if err != nil {
				return nil, NewSyntaxError("invalid scale: "+p.curToken.Literal, p.curToken)
			}
			col.Precision = col.Length
			col.Scale = scale
			p.nextToken()
		}

		if err := p.expectCur(lexer.RPAREN); err != nil {
			return nil, err
		}
		p.nextToken()
	}

	for {
		switch p.curToken.Type {
		case lexer.NOT:
			p.nextToken()
			if err := p.expectCur(lexer.NULL); err != nil {
				return nil, err
			}
			col.NotNull = true
			p.nextToken()

		case lexer.NULL:
			p.nextToken()

		case lexer.PRIMARY:
			p.nextToken()
			if err := p.expectCur(lexer.KEY); err != nil {
				return nil, err
			}
			col.PrimaryKey = true
			p.nextToken()

		case lexer.UNIQUE:
			col.Unique = true
			p.nextToken()

		case lexer.DEFAULT:
			p.nextToken()
			defaultExpr, err := p.parseExpression()
			if err != nil {
				return nil, fmt.Errorf("failed to parse DEFAULT value: %w", err)
			}
			col.Default = defaultExpr

		case lexer.REFERENCES:
			fkRef, err := p.parseForeignKeyReference()
			if err != nil {
				return nil, err
			}
			col.References = fkRef

		default:
			return col, nil
		}
	}
}

func (p *Parser) parseTableConstraint() (*ast.TableConstraint, error) {
	constraint := &ast.TableConstraint{}

	if p.curTokenIs(lexer.CONSTRAINT) {
		p.nextToken()
		if p.curTokenIs(lexer.IDENT) {
			constraint.Name = p.curToken.Literal
			p.nextToken()
		}
	}

	switch p.curToken.Type {
	case lexer.PRIMARY:
		constraint.ConstraintType = "PRIMARY_KEY"
		p.nextToken()
		if err := p.expectCur(lexer.KEY); err != nil {
			return nil, err
		}
		p.nextToken()
		cols, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		constraint.Columns = cols

	case lexer.FOREIGN:
		constraint.ConstraintType = "FOREIGN_KEY"
		p.nextToken()
		if err := p.expectCur(lexer.KEY); err != nil {
			return nil, err
		}
		p.nextToken()
		cols, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		constraint.Columns = cols

		fkRef, err := p.parseForeignKeyReference()
		if err != nil {
			return nil, err
		}
		constraint.References = fkRef

	case lexer.UNIQUE:
		constraint.ConstraintType = "UNIQUE"
		p.nextToken()
		if p.curTokenIs(lexer.KEY) {
			p.nextToken()
		}
		cols, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		constraint.Columns = cols

	default:
		return nil, NewSyntaxError(fmt.Sprintf("unexpected constraint type: %s", p.curToken.Type), p.curToken)
	}

	return constraint, nil
}

func (p *Parser) parseColumnList() ([]string, error) {
	if err := p.expectCur(lexer.LPAREN); err != nil {
		return nil, err
	}
	p.nextToken()

	var cols []string
	for !p.curTokenIs(lexer.RPAREN) {
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected column name", p.curToken)
		}
		cols = append(cols, p.curToken.Literal)
		p.nextToken()
		if p.curTokenIs(lexer.COMMA) {
			p.nextToken()
		}
	}
	p.nextToken() // consume )
	return cols, nil
}

func (p *Parser) parseForeignKeyReference() (*ast.ForeignKeyReference, error) {
	if err := p.expectCur(lexer.REFERENCES); err != nil {
		return nil, err
	}
	p.nextToken()

	fkRef := &ast.ForeignKeyReference{}

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name after REFERENCES", p.curToken)
	}
	fkRef.Table = p.curToken.Literal
	p.nextToken()

	if p.curTokenIs(lexer.LPAREN) {
		cols, err := p.parseColumnList()
		if err != nil {
			return nil, err
		}
		fkRef.Columns = cols
	}

	for p.curTokenIs(lexer.ON) {
		p.nextToken()
		switch p.curToken.Type {
		case lexer.DELETE:
			p.nextToken()
			action, err := p.parseReferentialAction()
			if err != nil {
				return nil, err
			}
			fkRef.OnDelete = action
		case lexer.UPDATE:
			p.nextToken()
			action, err := p.parseReferentialAction()
			if err != nil {
				return nil, err
			}
			fkRef.OnUpdate = action
		default:
			return nil, NewSyntaxError(fmt.Sprintf("expected DELETE or UPDATE after ON, got %s", p.curToken.Type), p.curToken)
		}
	}

	return fkRef, nil
}

// parseReferentialAction parses CASCADE, RESTRICT, SET NULL, NO ACTION.
func (p *Parser) parseReferentialAction() (string, error) {
	switch p.curToken.Type {
	case lexer.CASCADE:
		p.nextToken()
		return "CASCADE", nil
	case lexer.RESTRICT:
		p.nextToken()
		return "RESTRICT", nil
	case lexer.SET:
		p.nextToken()
		if p.curTokenIs(lexer.NULL) {
			p.nextToken()
			return "SET NULL", nil
		}
		if p.curTokenIs(lexer.DEFAULT) {
			p.nextToken()
			return "SET DEFAULT", nil
		}
		return "", NewSyntaxError("expected NULL or DEFAULT after SET", p.curToken)
	case lexer.IDENT:
		// NO is not a keyword token, so NO ACTION arrives as IDENT "NO".
		if !strings.EqualFold(p.curToken.Literal, "NO") {
			return "", NewSyntaxError(fmt.Sprintf("expected referential action, got %s", p.curToken.Type), p.curToken)
		}
		p.nextToken()
		if err := p.expectCur(lexer.ACTION); err != nil {
			return "", err
		}
		p.nextToken()
		return "NO ACTION", nil
	default:
		return "", NewSyntaxError(fmt.Sprintf("expected referential action, got %s", p.curToken.Type), p.curToken)
	}
}

// parseDropStatement handles DROP TABLE and DROP INDEX.
func (p *Parser) parseDropStatement() (ast.Statement, error) {
	p.nextToken() // consume DROP

	switch p.curToken.Type {
	case lexer.TABLE:
		p.nextToken()
		stmt := &ast.DropTableStatement{}
		if p.curTokenIs(lexer.IF) {
			p.nextToken()
			if err := p.expectCur(lexer.EXISTS); err != nil {
				return nil, err
			}
			stmt.IfExists = true
			p.nextToken()
		}
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected table name", p.curToken)
		}
		stmt.Table = p.curToken.Literal
		p.nextToken()
		return stmt, nil

	case lexer.INDEX:
		p.nextToken()
		stmt := &ast.DropIndexStatement{}
		if p.curTokenIs(lexer.IF) {
			p.nextToken()
			if err := p.expectCur(lexer.EXISTS); err != nil {
				return nil, err
			}
			stmt.IfExists = true
			p.nextToken()
		}
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected index name", p.curToken)
		}
		stmt.IndexName = p.curToken.Literal
		p.nextToken()
		if p.curTokenIs(lexer.ON) {
			p.nextToken()
			if p.curTokenIs(lexer.IDENT) {
				p.nextToken()
			}
		}
		return stmt, nil

	default:
		return nil, NewSyntaxError(fmt.Sprintf("expected TABLE or INDEX after DROP, got %s", p.curToken.Type), p.curToken)
	}
}

// parseAlterStatement handles ALTER TABLE ADD|DROP|RENAME COLUMN.
func (p *Parser) parseAlterStatement() (*ast.AlterTableStatement, error) {
	stmt := &ast.AlterTableStatement{}

	if err := p.expectCur(lexer.ALTER); err != nil {
		return nil, err
	}
	p.nextToken()

	if err := p.expectCur(lexer.TABLE); err != nil {
		return nil, err
	}
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name", p.curToken)
	}
	stmt.Table = p.curToken.Literal
	p.nextToken()

	action, err := p.parseAlterAction()
	if err != nil {
		return nil, err
	}
	stmt.Action = action

	return stmt, nil
}

func (p *Parser) parseAlterAction() (*ast.AlterAction, error) {
	action := &ast.AlterAction{}

	switch p.curToken.Type {
	case lexer.ADD:
		action.ActionType = "ADD"
		p.nextToken()
		if p.curTokenIs(lexer.COLUMN) {
			p.nextToken()
		}
		col, err := p.parseColumnDefinition()
		if err != nil {
			return nil, err
		}
		action.Column = col

	case lexer.DROP:
		action.ActionType = "DROP"
		p.nextToken()
		if p.curTokenIs(lexer.COLUMN) {
			p.nextToken()
		}
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected column name", p.curToken)
		}
		action.ColumnName = p.curToken.Literal
		p.nextToken()

	case lexer.RENAME:
		action.ActionType = "RENAME"
		p.nextToken()
		if p.curTokenIs(lexer.COLUMN) {
			p.nextToken()
		}
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected column name", p.curToken)
		}
		action.ColumnName = p.curToken.Literal
		p.nextToken()
		if err := p.expectCur(lexer.TO); err != nil {
			return nil, err
		}
		p.nextToken()
		if !p.curTokenIs(lexer.IDENT) {
			return nil, NewSyntaxError("expected new column name", p.curToken)
		}
		action.NewName = p.curToken.Literal
		p.nextToken()

	default:
		return nil, NewSyntaxError(fmt.Sprintf("expected ADD, DROP, or RENAME, got %s", p.curToken.Type), p.curToken)
	}

	return action, nil
}

// parseCreateIndexStatement parses CREATE [UNIQUE] INDEX name ON table (cols...).
func (p *Parser) parseCreateIndexStatement() (*ast.CreateIndexStatement, error) {
	stmt := &ast.CreateIndexStatement{}

	if p.curTokenIs(lexer.UNIQUE) {
		stmt.Unique = true
		p.nextToken()
	}

	if err := p.expectCur(lexer.INDEX); err != nil {
		return nil, err
	}
	p.nextToken()

	if p.curTokenIs(lexer.IF) {
		p.nextToken()
		if err := p.expectCur(lexer.NOT); err != nil {
			return nil, err
		}
		p.nextToken()
		if err := p.expectCur(lexer.EXISTS); err != nil {
			return nil, err
		}
		stmt.IfNotExists = true
		p.nextToken()
	}

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected index name", p.curToken)
	}
	stmt.IndexName = p.curToken.Literal
	p.nextToken()

	if err := p.expectCur(lexer.ON); err != nil {
		return nil, err
	}
	p.nextToken()

	if !p.curTokenIs(lexer.IDENT) {
		return nil, NewSyntaxError("expected table name", p.curToken)
	}
	stmt.Table = p.curToken.Literal
	p.nextToken()

	cols, err := p.parseColumnList()
	if err != nil {
		return nil, err
	}
	stmt.Columns = cols

	return stmt, nil
}
