package monitor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Chahine-tech/rowql/pkg/ast"
	"github.com/Chahine-tech/rowql/pkg/parser"
)

// LogProcessor consumes audit log lines written by FileAuditLogger
// (one per query pkg/session processes) and turns each into a
// ProcessedQuery, re-parsing the original SQL text so alert rules can
// inspect its statement shape.
type LogProcessor struct {
	queryHandler func(*ProcessedQuery)
	stats        *Statistics
	mu           sync.RWMutex
}

// ProcessedQuery is one audit log entry, re-parsed for rule inspection.
type ProcessedQuery struct {
	Timestamp time.Time
	EntryID   string
	Query     string
	Duration  float64 // seconds
	Err       error

	Statement ast.Statement
}

// NewLogProcessor creates a processor with no handler attached yet.
func NewLogProcessor() *LogProcessor {
	return &LogProcessor{stats: NewStatistics()}
}

// SetQueryHandler sets the callback invoked for every processed query.
func (p *LogProcessor) SetQueryHandler(handler func(*ProcessedQuery)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queryHandler = handler
}

// Start consumes lines from the channel until it closes or ctx is done.
func (p *LogProcessor) Start(ctx context.Context, lines <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			p.processLine(line)
		}
	}
}

// processLine parses one audit log line in the format written by
// FileAuditLogger: "<RFC3339 timestamp>\t<entry ID>\t<duration
// seconds>\t<OK|ERROR: msg>\t<query>".
func (p *LogProcessor) processLine(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}

	parts := strings.SplitN(line, "\t", 5)
	if len(parts) != 5 {
		p.stats.IncrementSkipped()
		return
	}

	ts, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		ts = time.Now()
	}
	duration, _ := strconv.ParseFloat(parts[2], 64)
	query := parts[4]

	pq := &ProcessedQuery{Timestamp: ts, EntryID: parts[1], Query: query, Duration: duration}
	if strings.HasPrefix(parts[3], "ERROR:") {
		pq.Err = fmt.Errorf("%s", strings.TrimSpace(strings.TrimPrefix(parts[3], "ERROR:")))
	}

	if stmt, err := parser.Parse(query); err == nil {
		pq.Statement = stmt
		p.stats.IncrementParsed()
	} else {
		p.stats.IncrementParseFailed()
	}

	p.stats.RecordQuery(pq)

	p.mu.RLock()
	handler := p.queryHandler
	p.mu.RUnlock()
	if handler != nil {
		handler(pq)
	}
}

// GetStatistics returns the processor's running statistics.
func (p *LogProcessor) GetStatistics() *Statistics {
	return p.stats
}

// Statistics tracks audit log processing counts, grouped by statement
// type, plus slow-query counting against a configurable threshold.
type Statistics struct {
	mu sync.RWMutex

	TotalLines    int64
	ParsedQueries int64
	FailedParses  int64
	SkippedLines  int64

	TotalDuration float64
	SlowQueries   int64
	SlowThreshold float64

	SelectCount int64
	InsertCount int64
	UpdateCount int64
	DeleteCount int64
	OtherCount  int64

	StartTime     time.Time
	LastQueryTime time.Time
}

// NewStatistics creates a tracker with a 1-second default slow threshold.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now(), SlowThreshold: 1.0}
}

func (s *Statistics) SetSlowThreshold(threshold float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SlowThreshold = threshold
}

func (s *Statistics) IncrementParsed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ParsedQueries++
}

func (s *Statistics) IncrementParseFailed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FailedParses++
}

func (s *Statistics) IncrementSkipped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SkippedLines++
}

// RecordQuery folds one processed query into the running statistics.
func (s *Statistics) RecordQuery(pq *ProcessedQuery) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.TotalLines++
	s.TotalDuration += pq.Duration
	s.LastQueryTime = pq.Timestamp

	if pq.Duration >= s.SlowThreshold {
		s.SlowQueries++
	}

	switch pq.Statement.(type) {
	case *ast.SelectStatement:
		s.SelectCount++
	case *ast.InsertStatement:
		s.InsertCount++
	case *ast.UpdateStatement:
		s.UpdateCount++
	case *ast.DeleteStatement:
		s.DeleteCount++
	default:
		if pq.Statement != nil {
			s.OtherCount++
		}
	}
}

// GetSnapshot returns a point-in-time copy of the statistics.
func (s *Statistics) GetSnapshot() StatSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return StatSnapshot{
		TotalLines:    s.TotalLines,
		ParsedQueries: s.ParsedQueries,
		FailedParses:  s.FailedParses,
		SkippedLines:  s.SkippedLines,
		TotalDuration: s.TotalDuration,
		SlowQueries:   s.SlowQueries,
		SlowThreshold: s.SlowThreshold,
		SelectCount:   s.SelectCount,
		InsertCount:   s.InsertCount,
		UpdateCount:   s.UpdateCount,
		DeleteCount:   s.DeleteCount,
		OtherCount:    s.OtherCount,
		StartTime:     s.StartTime,
		LastQueryTime: s.LastQueryTime,
		Uptime:        time.Since(s.StartTime),
	}
}

// StatSnapshot is an immutable copy of Statistics for safe external use.
type StatSnapshot struct {
	TotalLines    int64
	ParsedQueries int64
	FailedParses  int64
	SkippedLines  int64
	TotalDuration float64
	SlowQueries   int64
	SlowThreshold float64
	SelectCount   int64
	InsertCount   int64
	UpdateCount   int64
	DeleteCount   int64
	OtherCount    int64
	StartTime     time.Time
	LastQueryTime time.Time
	Uptime        time.Duration
}

func (s StatSnapshot) String() string {
	avgDuration := 0.0
	if s.ParsedQueries > 0 {
		avgDuration = s.TotalDuration / float64(s.ParsedQueries)
	}

	return fmt.Sprintf(`Statistics:
  Total Lines:     %d
  Parsed Queries:  %d
  Failed Parses:   %d
  Skipped Lines:   %d

  Query Types:
    SELECT:        %d
    INSERT:        %d
    UPDATE:        %d
    DELETE:        %d
    OTHER:         %d

  Performance:
    Total Duration: %.2fs
    Avg Duration:   %.4fs
    Slow Queries:   %d (threshold: %.2fs)

  Timing:
    Uptime:         %s
    Last Query:     %s`,
		s.TotalLines,
		s.ParsedQueries,
		s.FailedParses,
		s.SkippedLines,
		s.SelectCount,
		s.InsertCount,
		s.UpdateCount,
		s.DeleteCount,
		s.OtherCount,
		s.TotalDuration,
		avgDuration,
		s.SlowQueries,
		s.SlowThreshold,
		s.Uptime.Round(time.Second),
		s.LastQueryTime.Format("2006-01-02 15:04:05"),
	)
}
