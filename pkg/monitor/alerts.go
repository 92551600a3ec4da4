package monitor

import (
	"fmt"
	"sync"
	"time"

	"github.com/Chahine-tech/rowql/pkg/ast"
)

// AlertLevel represents the severity of an alert
type AlertLevel int

const (
	AlertInfo AlertLevel = iota
	AlertWarning
	AlertError
	AlertCritical
)

func (a AlertLevel) String() string {
	switch a {
	case AlertInfo:
		return "INFO"
	case AlertWarning:
		return "WARNING"
	case AlertError:
		return "ERROR"
	case AlertCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Alert represents a monitoring alert
type Alert struct {
	Level     AlertLevel
	Type      string
	Message   string
	Query     *ProcessedQuery
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// AlertRule defines conditions for triggering alerts
type AlertRule interface {
	Check(pq *ProcessedQuery) *Alert
	Name() string
}

// AlertManager manages alert rules and notifications
type AlertManager struct {
	rules    []AlertRule
	handlers []AlertHandler
	mu       sync.RWMutex

	// Alert statistics
	alertCount map[AlertLevel]int64
	statsMu    sync.RWMutex
}

// AlertHandler handles alerts when they are triggered
type AlertHandler func(*Alert)

// NewAlertManager creates a new alert manager
func NewAlertManager() *AlertManager {
	return &AlertManager{
		rules:      []AlertRule{},
		handlers:   []AlertHandler{},
		alertCount: make(map[AlertLevel]int64),
	}
}

// AddRule adds an alert rule
func (am *AlertManager) AddRule(rule AlertRule) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.rules = append(am.rules, rule)
}

// AddHandler adds an alert handler
func (am *AlertManager) AddHandler(handler AlertHandler) {
	am.mu.Lock()
	defer am.mu.Unlock()
	am.handlers = append(am.handlers, handler)
}

// Check checks all rules against a processed query
func (am *AlertManager) Check(pq *ProcessedQuery) {
	am.mu.RLock()
	rules := am.rules
	handlers := am.handlers
	am.mu.RUnlock()

	for _, rule := range rules {
		if alert := rule.Check(pq); alert != nil {
			am.statsMu.Lock()
			am.alertCount[alert.Level]++
			am.statsMu.Unlock()

			for _, handler := range handlers {
				handler(alert)
			}
		}
	}
}

// GetAlertCounts returns the count of alerts by level
func (am *AlertManager) GetAlertCounts() map[AlertLevel]int64 {
	am.statsMu.RLock()
	defer am.statsMu.RUnlock()

	counts := make(map[AlertLevel]int64)
	for level, count := range am.alertCount {
		counts[level] = count
	}
	return counts
}

// SlowQueryRule alerts on queries exceeding a duration threshold.
type SlowQueryRule struct {
	Threshold float64 // in seconds
}

func (r *SlowQueryRule) Name() string {
	return "SlowQueryRule"
}

func (r *SlowQueryRule) Check(pq *ProcessedQuery) *Alert {
	if pq.Duration < r.Threshold {
		return nil
	}
	level := AlertWarning
	if pq.Duration >= r.Threshold*2 {
		level = AlertError
	}
	if pq.Duration >= r.Threshold*5 {
		level = AlertCritical
	}

	return &Alert{
		Level:     level,
		Type:      "SLOW_QUERY",
		Message:   fmt.Sprintf("Query took %.2fs (threshold: %.2fs)", pq.Duration, r.Threshold),
		Query:     pq,
		Timestamp: pq.Timestamp,
		Metadata: map[string]interface{}{
			"duration":  pq.Duration,
			"threshold": r.Threshold,
		},
	}
}

// ParseErrorRule alerts when an audited query could not be re-parsed.
// Statements that parse but fail during execution do not trigger it.
type ParseErrorRule struct{}

func (r *ParseErrorRule) Name() string {
	return "ParseErrorRule"
}

func (r *ParseErrorRule) Check(pq *ProcessedQuery) *Alert {
	if pq.Statement != nil || pq.Query == "" {
		return nil
	}
	return &Alert{
		Level:     AlertWarning,
		Type:      "PARSE_ERROR",
		Message:   "Failed to parse audited query",
		Query:     pq,
		Timestamp: pq.Timestamp,
	}
}

// FullTableScanRule alerts on statements with no WHERE clause: a SELECT
// that will scan the whole table, or an UPDATE/DELETE that will touch
// every row.
type FullTableScanRule struct{}

func (r *FullTableScanRule) Name() string {
	return "FullTableScanRule"
}

func (r *FullTableScanRule) Check(pq *ProcessedQuery) *Alert {
	switch st := pq.Statement.(type) {
	case *ast.SelectStatement:
		if st.Where == nil {
			return &Alert{
				Level:     AlertWarning,
				Type:      "FULL_TABLE_SCAN",
				Message:   "SELECT query without WHERE clause may cause a full table scan",
				Query:     pq,
				Timestamp: pq.Timestamp,
			}
		}
	case *ast.UpdateStatement:
		if st.Where == nil {
			return &Alert{
				Level:     AlertError,
				Type:      "UNSAFE_UPDATE",
				Message:   "UPDATE query without WHERE clause will affect all rows",
				Query:     pq,
				Timestamp: pq.Timestamp,
			}
		}
	case *ast.DeleteStatement:
		if st.Where == nil {
			return &Alert{
				Level:     AlertError,
				Type:      "UNSAFE_DELETE",
				Message:   "DELETE query without WHERE clause will remove all rows",
				Query:     pq,
				Timestamp: pq.Timestamp,
			}
		}
	}
	return nil
}

// RepeatedViolationRule alerts when the same query error recurs at least
// Limit times within Window, e.g. an application hammering a constraint
// it never checks client-side. Grounded on pkg/config's AuditConfig
// RepeatedViolationWindow/RepeatedViolationLimit fields.
type RepeatedViolationRule struct {
	Window time.Duration
	Limit  int

	mu      sync.Mutex
	history map[string][]time.Time
}

func (r *RepeatedViolationRule) Name() string {
	return "RepeatedViolationRule"
}

func (r *RepeatedViolationRule) Check(pq *ProcessedQuery) *Alert {
	if pq.Err == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.history == nil {
		r.history = make(map[string][]time.Time)
	}

	key := pq.Err.Error()
	cutoff := pq.Timestamp.Add(-r.Window)
	occurrences := r.history[key]
	kept := occurrences[:0]
	for _, t := range occurrences {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, pq.Timestamp)
	r.history[key] = kept

	if len(kept) < r.Limit {
		return nil
	}

	return &Alert{
		Level:     AlertCritical,
		Type:      "REPEATED_VIOLATION",
		Message:   fmt.Sprintf("Error %q occurred %d times within %s", key, len(kept), r.Window),
		Query:     pq,
		Timestamp: pq.Timestamp,
		Metadata: map[string]interface{}{
			"occurrences": len(kept),
			"window":      r.Window.String(),
		},
	}
}

// ConsoleAlertHandler prints alerts to console
func ConsoleAlertHandler(alert *Alert) {
	fmt.Printf("[%s] %s: %s\n",
		alert.Level.String(),
		alert.Type,
		alert.Message)

	if alert.Query != nil {
		fmt.Printf("  Query: %s\n", truncateString(alert.Query.Query, 100))
		if alert.Query.Duration > 0 {
			fmt.Printf("  Duration: %.2fs\n", alert.Query.Duration)
		}
	}
	fmt.Println()
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
