// Package value implements the tagged scalar variant at the heart of the
// engine's type system: the Value union, its DataType tags, three-valued
// comparison, and coercion/cast rules.
//
// Grounded on the query/types.go (ComparisonExpr.compare) and
// query/function_convert.go, generalized from Go's untyped interface{}
// comparisons to an explicit tagged union so NULL can be distinct from
// every value including itself, as required by three-valued logic.
package value

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DataType is the declared or runtime type tag of a Value.
type DataType int

const (
	Null DataType = iota
	Boolean
	Int64
	Float64
	Utf8
	Date
	Timestamp
	Time
	Interval
	Decimal
)

func (t DataType) String() string {
	switch t {
	case Null:
		return "NULL"
	case Boolean:
		return "BOOLEAN"
	case Int64:
		return "INTEGER"
	case Float64:
		return "DOUBLE"
	case Utf8:
		return "VARCHAR"
	case Date:
		return "DATE"
	case Timestamp:
		return "TIMESTAMP"
	case Time:
		return "TIME"
	case Interval:
		return "INTERVAL"
	case Decimal:
		return "DECIMAL"
	default:
		return "UNKNOWN"
	}
}

// IntervalValue is the 4-tuple (years, months, days, microseconds) carried by an
// Interval value.
type IntervalValue struct {
	Years, Months, Days int32
	Micros               int64
}

// Value is a tagged scalar. Only the field matching Type is meaningful.
type Value struct {
	Type    DataType
	Bool    bool
	I64     int64 // Int64, Date (days since epoch), Timestamp/Time (micros)
	F64     float64
	Str     string
	Iv      IntervalValue
	DecP    int32 // Decimal precision
	DecS    int32 // Decimal scale
}

// NewNull returns the NULL value.
func NewNull() Value { return Value{Type: Null} }

// NewBool wraps a bool.
func NewBool(b bool) Value { return Value{Type: Boolean, Bool: b} }

// NewInt wraps an int64.
func NewInt(i int64) Value { return Value{Type: Int64, I64: i} }

// NewFloat wraps a float64.
func NewFloat(f float64) Value { return Value{Type: Float64, F64: f} }

// NewString wraps a string.
func NewString(s string) Value { return Value{Type: Utf8, Str: s} }

// NewDate wraps a day-count since 1970-01-01.
func NewDate(days int32) Value { return Value{Type: Date, I64: int64(days)} }

// NewTimestamp wraps a microsecond count since 1970-01-01T00:00:00Z.
func NewTimestamp(micros int64) Value { return Value{Type: Timestamp, I64: micros} }

// NewTime wraps a microsecond-since-midnight count.
func NewTime(micros int64) Value { return Value{Type: Time, I64: micros} }

// NewInterval wraps an interval 4-tuple.
func NewInterval(iv IntervalValue) Value { return Value{Type: Interval, Iv: iv} }

// NewDecimal wraps a (precision, scale)-tagged float magnitude.
func NewDecimal(mag float64, p, s int32) Value {
	return Value{Type: Decimal, F64: mag, DecP: p, DecS: s}
}

// IsNull reports whether v is the NULL value.
func IsNull(v Value) bool { return v.Type == Null }

// TypeOf returns v's DataType tag.
func TypeOf(v Value) DataType { return v.Type }

const (
	epochDay  = 86400
	dayLayout = "2006-01-02"
	tsLayout1 = "2006-01-02 15:04:05"
	tsLayout2 = "2006-01-02 15:04:05.999999"
	timeLay1  = "15:04:05"
	timeLay2  = "15:04:05.999999"
)

// String renders v using the canonical textual forms from spec §7 (used by
// CSV/FFI output and by TYPEOF-adjacent debugging; NULL renders as "NULL"
// to match the FFI surface — callers that need the CSV empty-string form
// for NULL must special-case IsNull before calling String).
func (v Value) String() string {
	switch v.Type {
	case Null:
		return "NULL"
	case Boolean:
		if v.Bool {
			return "true"
		}
		return "false"
	case Int64:
		return strconv.FormatInt(v.I64, 10)
	case Float64:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case Decimal:
		return strconv.FormatFloat(v.F64, 'f', int(v.DecS), 64)
	case Utf8:
		return v.Str
	case Date:
		return epochDayToTime(int32(v.I64)).Format(dayLayout)
	case Timestamp:
		t := microsToTime(v.I64)
		if t.Nanosecond() == 0 {
			return t.Format(tsLayout1)
		}
		return strings.TrimRight(strings.TrimRight(t.Format(tsLayout2), "0"), ".")
	case Time:
		t := microsToTime(v.I64)
		if t.Nanosecond() == 0 {
			return t.Format(timeLay1)
		}
		return strings.TrimRight(strings.TrimRight(t.Format(timeLay2), "0"), ".")
	case Interval:
		return fmt.Sprintf("P%dY%dM%dDT%dS", v.Iv.Years, v.Iv.Months, v.Iv.Days, v.Iv.Micros)
	default:
		return ""
	}
}

func epochDayToTime(days int32) time.Time {
	return time.Unix(int64(days)*epochDay, 0).UTC()
}

func microsToTime(micros int64) time.Time {
	sec := micros / 1_000_000
	rem := micros % 1_000_000
	if rem < 0 {
		sec--
		rem += 1_000_000
	}
	return time.Unix(sec, rem*1000).UTC()
}

func timeToMicros(t time.Time) int64 {
	return t.Unix()*1_000_000 + int64(t.Nanosecond()/1000)
}

// ToTime converts a Date/Timestamp/Time value to its time.Time
// representation (UTC), for use by date/time scalar functions. ok is false
// for any other type.
func ToTime(v Value) (t time.Time, ok bool) {
	switch v.Type {
	case Date:
		return epochDayToTime(int32(v.I64)), true
	case Timestamp, Time:
		return microsToTime(v.I64), true
	default:
		return time.Time{}, false
	}
}

// DateFromTime truncates t (UTC) to a Date value.
func DateFromTime(t time.Time) Value {
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return NewDate(int32(midnight.Unix() / epochDay))
}

// TimestampFromTime converts t (UTC) to a Timestamp value.
func TimestampFromTime(t time.Time) Value { return NewTimestamp(timeToMicros(t)) }

// TodayDate returns NOW's Date value.
func TodayDate(now time.Time) Value {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return NewDate(int32(midnight.Unix() / epochDay))
}

// NowTimestamp returns NOW's Timestamp value.
func NowTimestamp(now time.Time) Value {
	return NewTimestamp(timeToMicros(now.UTC()))
}

// NowTime returns NOW's Time-of-day value.
func NowTime(now time.Time) Value {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return NewTime(timeToMicros(now.UTC()) - timeToMicros(midnight))
}

// isNumeric reports whether t is Int64, Float64, or Decimal.
func isNumeric(t DataType) bool {
	return t == Int64 || t == Float64 || t == Decimal
}

// asFloat returns v's numeric magnitude as a float64 (only valid when
// isNumeric(v.Type)).
func asFloat(v Value) float64 {
	switch v.Type {
	case Int64:
		return float64(v.I64)
	case Float64, Decimal:
		return v.F64
	default:
		return math.NaN()
	}
}

// TypeName returns the SQL-surface name for a DataType, used by the TYPEOF
// scalar function.
func TypeName(t DataType) string { return t.String() }
