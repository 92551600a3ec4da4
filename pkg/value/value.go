// Package value implements the tagged scalar type shared by every row,
// literal, and expression result in the engine.
package value

import "fmt"

// Kind identifies which variant of Value is populated.
type Kind int

const (
	Null Kind = iota
	Integer
	Float
	Text
	Boolean
	Date
	Time
	DateTime
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "NULL"
	case Integer:
		return "INTEGER"
	case Float:
		return "FLOAT"
	case Text:
		return "TEXT"
	case Boolean:
		return "BOOLEAN"
	case Date:
		return "DATE"
	case Time:
		return "TIME"
	case DateTime:
		return "DATETIME"
	default:
		return "UNKNOWN"
	}
}

// Value is a single scalar of one of the eight kinds the engine supports.
// Date/Time/DateTime are stored as their canonical string form, matching
// the wire/storage representation used throughout the engine.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

func NewNull() Value               { return Value{kind: Null} }
func NewInteger(i int64) Value      { return Value{kind: Integer, i: i} }
func NewFloat(f float64) Value      { return Value{kind: Float, f: f} }
func NewText(s string) Value        { return Value{kind: Text, s: s} }
func NewBoolean(b bool) Value       { return Value{kind: Boolean, b: b} }
func NewDate(s string) Value        { return Value{kind: Date, s: s} }
func NewTime(s string) Value        { return Value{kind: Time, s: s} }
func NewDateTime(s string) Value    { return Value{kind: DateTime, s: s} }

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsNull() bool  { return v.kind == Null }
func (v Value) Integer() int64 { return v.i }
func (v Value) Float() float64 { return v.f }
func (v Value) Text() string   { return v.s }
func (v Value) Boolean() bool  { return v.b }

// AsFloat64 returns the numeric value of an Integer or Float as a float64.
// It panics if called on a non-numeric Value; callers must guard with
// IsNumeric first.
func (v Value) AsFloat64() float64 {
	switch v.kind {
	case Integer:
		return float64(v.i)
	case Float:
		return v.f
	default:
		panic(fmt.Sprintf("value: AsFloat64 on non-numeric kind %s", v.kind))
	}
}

func (v Value) IsNumeric() bool {
	return v.kind == Integer || v.kind == Float
}

// String renders a value the way SELECT result output and error messages
// present it: NULL literally for Null, unquoted scalar text otherwise.
func (v Value) String() string {
	switch v.kind {
	case Null:
		return "NULL"
	case Integer:
		return fmt.Sprintf("%d", v.i)
	case Float:
		return formatFloat(v.f)
	case Text, Date, Time, DateTime:
		return v.s
	case Boolean:
		if v.b {
			return "true"
		}
		return "false"
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	return s
}

// Truthy implements the engine's predicate coercion: Null is false,
// Integer/Float are true for any non-zero magnitude, Boolean is itself,
// Text is true when non-empty, and every other kind (Date, Time,
// DateTime) is true since it is never stored empty.
func (v Value) Truthy() bool {
	switch v.kind {
	case Null:
		return false
	case Boolean:
		return v.b
	case Integer:
		return v.i != 0
	case Float:
		return v.f != 0
	case Text:
		return v.s != ""
	default:
		return true
	}
}

// Compare implements the engine's total order over Value, used by ORDER
// BY, index key ordering, and MIN/MAX. Null sorts below every non-null
// value and Null compares equal to Null. Integer and Float compare
// numerically across kinds. Text, Boolean, Date, Time, and DateTime
// compare via their string form. Any other mismatched-kind pair (e.g.
// Text vs Boolean) is deliberately treated as Equal: a stable fallback so
// sorts remain total without rejecting heterogeneous comparisons.
func Compare(a, b Value) int {
	if a.kind == Null && b.kind == Null {
		return 0
	}
	if a.kind == Null {
		return -1
	}
	if b.kind == Null {
		return 1
	}

	if a.IsNumeric() && b.IsNumeric() {
		af, bf := a.AsFloat64(), b.AsFloat64()
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		default:
			return 0
		}
	}

	if a.kind == b.kind {
		switch a.kind {
		case Text, Date, Time, DateTime:
			switch {
			case a.s < b.s:
				return -1
			case a.s > b.s:
				return 1
			default:
				return 0
			}
		case Boolean:
			switch {
			case !a.b && b.b:
				return -1
			case a.b && !b.b:
				return 1
			default:
				return 0
			}
		}
	}

	return 0
}

func Equal(a, b Value) bool { return Compare(a, b) == 0 }

// Less reports whether a sorts strictly before b under Compare.
func Less(a, b Value) bool { return Compare(a, b) < 0 }
