package monitor

import (
	"context"
	"testing"
	"time"

	"github.com/Chahine-tech/rowql/pkg/ast"
)

func TestProcessLineParsesValidEntry(t *testing.T) {
	p := NewLogProcessor()

	var got *ProcessedQuery
	p.SetQueryHandler(func(pq *ProcessedQuery) { got = pq })

	line := time.Now().Format(time.RFC3339Nano) + "\tentry-1\t0.002500\tOK\tSELECT * FROM users\n"
	p.processLine(line)

	if got == nil {
		t.Fatal("expected handler to be invoked")
	}
	if got.Query != "SELECT * FROM users" {
		t.Fatalf("unexpected query: %q", got.Query)
	}
	if got.EntryID != "entry-1" {
		t.Fatalf("unexpected entry ID: %q", got.EntryID)
	}
	if _, ok := got.Statement.(*ast.SelectStatement); !ok {
		t.Fatalf("expected parsed SELECT statement, got %T", got.Statement)
	}
	if got.Err != nil {
		t.Fatalf("expected no error, got %v", got.Err)
	}

	snap := p.GetStatistics().GetSnapshot()
	if snap.SelectCount != 1 || snap.ParsedQueries != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestProcessLineRecordsErrorStatus(t *testing.T) {
	p := NewLogProcessor()

	var got *ProcessedQuery
	p.SetQueryHandler(func(pq *ProcessedQuery) { got = pq })

	line := time.Now().Format(time.RFC3339Nano) + "\tentry-2\t0.000100\tERROR: table 'ghost' does not exist\tSELECT * FROM ghost\n"
	p.processLine(line)

	if got == nil || got.Err == nil {
		t.Fatalf("expected an error on the processed query, got %+v", got)
	}
	if got.Err.Error() != "table 'ghost' does not exist" {
		t.Fatalf("unexpected error text: %q", got.Err.Error())
	}
}

func TestProcessLineSkipsMalformedEntries(t *testing.T) {
	p := NewLogProcessor()
	p.processLine("not a valid audit line")

	snap := p.GetStatistics().GetSnapshot()
	if snap.SkippedLines != 1 {
		t.Fatalf("expected 1 skipped line, got %d", snap.SkippedLines)
	}
}

func TestStartConsumesChannelUntilClosed(t *testing.T) {
	p := NewLogProcessor()
	lines := make(chan string, 2)
	lines <- time.Now().Format(time.RFC3339Nano) + "\tentry-3\t0.01\tOK\tINSERT INTO users VALUES (1)\n"
	lines <- time.Now().Format(time.RFC3339Nano) + "\tentry-4\t0.02\tOK\tDELETE FROM users\n"
	close(lines)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	p.Start(ctx, lines)

	snap := p.GetStatistics().GetSnapshot()
	if snap.InsertCount != 1 || snap.DeleteCount != 1 {
		t.Fatalf("unexpected snapshot after draining channel: %+v", snap)
	}
}

func TestStatisticsSlowQueryThreshold(t *testing.T) {
	stats := NewStatistics()
	stats.SetSlowThreshold(0.5)

	stats.RecordQuery(&ProcessedQuery{Duration: 0.1})
	stats.RecordQuery(&ProcessedQuery{Duration: 0.9})

	snap := stats.GetSnapshot()
	if snap.SlowQueries != 1 {
		t.Fatalf("expected 1 slow query, got %d", snap.SlowQueries)
	}
	if snap.TotalLines != 2 {
		t.Fatalf("expected 2 total lines, got %d", snap.TotalLines)
	}
}
