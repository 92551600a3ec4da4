// Package session ties the lexer, parser, planner, executor, transaction
// manager and storage engine together behind one ProcessQuery entry point,
// mirroring the donor's single process_query(query) -> Result<String, String>
// surface: every statement becomes one input string and one rendered
// output string (or an error).
package session

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/catalog"
	"github.com/Chahine-tech/rowql/pkg/eval"
	"github.com/Chahine-tech/rowql/pkg/executor"
	"github.com/Chahine-tech/rowql/pkg/parser"
	"github.com/Chahine-tech/rowql/pkg/planner"
	"github.com/Chahine-tech/rowql/pkg/storage"
	"github.com/Chahine-tech/rowql/pkg/txn"
)

// Session owns the single in-process Database and serializes every query
// against it with one mutex, matching the donor's process-wide
// Mutex<Database> guard around its OnceLock-initialized global.
type Session struct {
	mu      sync.Mutex
	db      *catalog.Database
	store   storage.Engine
	tx      *txn.Manager
	audit   AuditLogger
	autoRun bool // persist to storage after every mutating statement
}

// AuditLogger receives one entry per processed statement: an entryID
// that is the active transaction's id when one is open (so every
// statement inside it correlates to the same entry) or a fresh one
// otherwise, how long the statement took, and its outcome. pkg/monitor's
// watcher tails whatever file it is wired to write to. A nil logger is a
// valid no-op.
type AuditLogger interface {
	Log(query string, entryID string, duration time.Duration, err error)
}

// New loads whatever database the storage engine already holds and
// returns a ready-to-use Session. store may be nil, in which case nothing
// is loaded or persisted (purely in-memory operation).
func New(store storage.Engine, audit AuditLogger) (*Session, error) {
	s := &Session{store: store, tx: txn.New(), audit: audit, autoRun: true}
	if store != nil {
		db, err := store.Load()
		if err != nil {
			return nil, err
		}
		s.db = db
	} else {
		s.db = catalog.NewDatabase()
	}
	return s, nil
}

// ProcessQuery parses, plans/executes, and renders exactly one statement,
// persisting the resulting database state (outside of an open
// transaction) if a storage engine is configured.
func (s *Session) ProcessQuery(query string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	result, err := s.processLocked(query)
	if s.audit != nil {
		entryID := uuid.New().String()
		if id, ok := s.tx.ID(); ok {
			entryID = id.String()
		}
		s.audit.Log(query, entryID, time.Since(start), err)
	}
	return result, err
}

func (s *Session) processLocked(query string) (string, error) {
	stmt, err := parser.Parse(query)
	if err != nil {
		return "", err
	}

	switch st := stmt.(type) {
	case *ast.BeginStatement:
		if err := s.tx.Begin(s.db); err != nil {
			return "", err
		}
		return "Transaction begun", nil

	case *ast.CommitStatement:
		if err := s.tx.Commit(); err != nil {
			return "", err
		}
		s.persist()
		return "Transaction committed", nil

	case *ast.RollbackStatement:
		if err := s.tx.Rollback(s.db); err != nil {
			return "", err
		}
		return "Transaction rolled back", nil

	case *ast.CreateTableStatement:
		if err := s.db.CreateTable(st); err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		return fmt.Sprintf("Table '%s' created", st.Table), nil

	case *ast.DropTableStatement:
		if err := s.db.DropTable(st.Table, st.IfExists); err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		return fmt.Sprintf("Table '%s' dropped", st.Table), nil

	case *ast.AlterTableStatement:
		if err := s.db.AlterTable(st); err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		return alterTableResponse(st.Action), nil

	case *ast.CreateIndexStatement:
		if err := s.db.CreateIndex(st); err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		column := ""
		if len(st.Columns) > 0 {
			column = st.Columns[0]
		}
		return fmt.Sprintf("Index '%s' created on %s.%s", st.IndexName, st.Table, column), nil

	case *ast.DropIndexStatement:
		if err := s.db.DropIndex(st.IndexName, st.IfExists); err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		return fmt.Sprintf("Index '%s' dropped", st.IndexName), nil

	case *ast.InsertStatement:
		ex := executor.New(s.db)
		n, err := ex.ExecuteInsert(st)
		if err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		return fmt.Sprintf("%d row(s) inserted", n), nil

	case *ast.UpdateStatement:
		ex := executor.New(s.db)
		n, err := ex.ExecuteUpdate(st)
		if err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		return fmt.Sprintf("%d row(s) updated", n), nil

	case *ast.DeleteStatement:
		ex := executor.New(s.db)
		n, err := ex.ExecuteDelete(st)
		if err != nil {
			return "", err
		}
		s.persistUnlessInTx()
		return fmt.Sprintf("%d row(s) deleted", n), nil

	case *ast.SelectStatement:
		ex := executor.New(s.db)
		res, err := ex.Execute(st)
		if err != nil {
			return "", err
		}
		return renderResult(res), nil

	case *ast.ExplainStatement:
		sel, ok := st.Statement.(*ast.SelectStatement)
		if !ok {
			return "", fmt.Errorf("EXPLAIN only supports SELECT statements")
		}
		ex := executor.New(s.db)
		plan, err := ex.Plan(sel)
		if err != nil {
			return "", err
		}
		return planner.Explain(plan), nil

	case *ast.DescribeStatement:
		return s.describeTable(st.Table)

	default:
		return "", fmt.Errorf("session: unsupported statement %T", stmt)
	}
}

// alterTableResponse renders the human phrase for one ALTER TABLE
// sub-action: ADD/DROP/RENAME each get their own exact wording.
func alterTableResponse(action *ast.AlterAction) string {
	switch action.ActionType {
	case "ADD":
		return fmt.Sprintf("Column '%s' added", action.Column.Name)
	case "DROP":
		return fmt.Sprintf("Column '%s' dropped", action.ColumnName)
	case "RENAME":
		return fmt.Sprintf("Column '%s' renamed to '%s'", action.ColumnName, action.NewName)
	default:
		return fmt.Sprintf("Column '%s' altered", action.ColumnName)
	}
}

func (s *Session) describeTable(name string) (string, error) {
	table, ok := s.db.GetTable(name)
	if !ok {
		return "", fmt.Errorf("table '%s' does not exist", name)
	}

	var sb strings.Builder
	sb.WriteString("Name\tType\tNullable\tPrimary\tUnique\tDefault\tForeignKey\n")
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteString("\n")
	for _, col := range table.Columns {
		sb.WriteString(col.Name)
		sb.WriteByte('\t')
		sb.WriteString(col.DataType.String())
		sb.WriteByte('\t')
		sb.WriteString(strconv.FormatBool(!col.NotNull))
		sb.WriteByte('\t')
		sb.WriteString(strconv.FormatBool(col.PrimaryKey))
		sb.WriteByte('\t')
		sb.WriteString(strconv.FormatBool(col.Unique))
		sb.WriteByte('\t')
		if col.Default != nil {
			sb.WriteString(col.Default.String())
		} else {
			sb.WriteString("NULL")
		}
		sb.WriteByte('\t')
		if col.References != nil {
			fmt.Fprintf(&sb, "%s(%s)", col.References.Table, col.References.Column)
		}
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}

// renderResult formats a SELECT result as a tab-separated header, a
// 40-dash separator, and one tab-separated line per row, matching
// the donor's execute_select rendering exactly.
func renderResult(res *eval.Result) string {
	var sb strings.Builder
	for _, col := range res.Columns {
		sb.WriteString(col)
		sb.WriteByte('\t')
	}
	sb.WriteByte('\n')
	sb.WriteString(strings.Repeat("-", 40))
	sb.WriteByte('\n')
	for _, row := range res.Rows {
		for _, v := range row {
			sb.WriteString(v.String())
			sb.WriteByte('\t')
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// persistUnlessInTx saves the database immediately, unless a transaction
// is open — in that case persistence is deferred until Commit so a
// rolled-back transaction never reaches disk.
func (s *Session) persistUnlessInTx() {
	if s.tx.Active() {
		return
	}
	s.persist()
}

func (s *Session) persist() {
	if s.store == nil || !s.autoRun {
		return
	}
	_ = s.store.Save(s.db)
}
