package value

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CoerceError is returned by Coerce/Cast when a value cannot be converted
// to the target type under strict rules.
type CoerceError struct {
	From, To DataType
	Detail   string
}

func (e *CoerceError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("cannot coerce %s to %s: %s", e.From, e.To, e.Detail)
	}
	return fmt.Sprintf("cannot coerce %s to %s", e.From, e.To)
}

// Coerce converts v to target, following the coercion lattice in spec §4.1:
// Int64 -> Float64 -> Decimal; Utf8 parses to Date/Timestamp/Time by ISO-8601
// variants; numeric <-> Utf8 via lexical form; Boolean <-> Int64. NULL
// coerces to NULL of any type. Returns (NULL, nil) only for an explicit
// NULL input; all other failures return a *CoerceError.
func Coerce(v Value, target DataType) (Value, error) {
	if IsNull(v) {
		return NewNull(), nil
	}
	if v.Type == target {
		return v, nil
	}
	switch target {
	case Boolean:
		return coerceToBool(v)
	case Int64:
		return coerceToInt(v)
	case Float64:
		return coerceToFloat(v)
	case Decimal:
		f, err := coerceToFloat(v)
		if err != nil {
			return NewNull(), err
		}
		return NewDecimal(f.F64, 18, 4), nil
	case Utf8:
		return NewString(v.String()), nil
	case Date:
		return coerceToDate(v)
	case Timestamp:
		return coerceToTimestamp(v)
	case Time:
		return coerceToTime(v)
	default:
		return NewNull(), &CoerceError{From: v.Type, To: target}
	}
}

func coerceToBool(v Value) (Value, error) {
	switch v.Type {
	case Int64:
		return NewBool(v.I64 != 0), nil
	case Utf8:
		switch strings.ToLower(v.Str) {
		case "true", "t", "1":
			return NewBool(true), nil
		case "false", "f", "0":
			return NewBool(false), nil
		}
		return NewNull(), &CoerceError{From: v.Type, To: Boolean, Detail: v.Str}
	default:
		return NewNull(), &CoerceError{From: v.Type, To: Boolean}
	}
}

func coerceToInt(v Value) (Value, error) {
	switch v.Type {
	case Boolean:
		if v.Bool {
			return NewInt(1), nil
		}
		return NewInt(0), nil
	case Float64, Decimal:
		return NewInt(int64(v.F64)), nil
	case Utf8:
		i, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64)
		if err != nil {
			return NewNull(), &CoerceError{From: v.Type, To: Int64, Detail: v.Str}
		}
		return NewInt(i), nil
	default:
		return NewNull(), &CoerceError{From: v.Type, To: Int64}
	}
}

func coerceToFloat(v Value) (Value, error) {
	switch v.Type {
	case Int64:
		return NewFloat(float64(v.I64)), nil
	case Boolean:
		if v.Bool {
			return NewFloat(1), nil
		}
		return NewFloat(0), nil
	case Decimal:
		return NewFloat(v.F64), nil
	case Utf8:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return NewNull(), &CoerceError{From: v.Type, To: Float64, Detail: v.Str}
		}
		return NewFloat(f), nil
	default:
		return NewNull(), &CoerceError{From: v.Type, To: Float64}
	}
}

var dateFormats = []string{"2006-01-02"}
var tsFormats = []string{
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}
var timeFormats = []string{"15:04:05.999999", "15:04:05"}

func coerceToDate(v Value) (Value, error) {
	switch v.Type {
	case Utf8:
		t, err := time.Parse("2006-01-02", strings.TrimSpace(v.Str))
		if err != nil {
			return NewNull(), &CoerceError{From: v.Type, To: Date, Detail: v.Str}
		}
		return NewDate(int32(t.Unix() / epochDay)), nil
	case Timestamp:
		t := microsToTime(v.I64)
		midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		return NewDate(int32(midnight.Unix() / epochDay)), nil
	default:
		return NewNull(), &CoerceError{From: v.Type, To: Date}
	}
}

func coerceToTimestamp(v Value) (Value, error) {
	switch v.Type {
	case Utf8:
		s := strings.TrimSpace(v.Str)
		for _, layout := range tsFormats {
			if t, err := time.Parse(layout, s); err == nil {
				return NewTimestamp(timeToMicros(t)), nil
			}
		}
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return NewTimestamp(timeToMicros(t)), nil
		}
		return NewNull(), &CoerceError{From: v.Type, To: Timestamp, Detail: v.Str}
	case Date:
		return NewTimestamp(int64(v.I64) * epochDay * 1_000_000), nil
	default:
		return NewNull(), &CoerceError{From: v.Type, To: Timestamp}
	}
}

func coerceToTime(v Value) (Value, error) {
	switch v.Type {
	case Utf8:
		s := strings.TrimSpace(v.Str)
		for _, layout := range timeFormats {
			if t, err := time.Parse(layout, s); err == nil {
				midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
				return NewTime(timeToMicros(t) - timeToMicros(midnight)), nil
			}
		}
		return NewNull(), &CoerceError{From: v.Type, To: Time, Detail: v.Str}
	default:
		return NewNull(), &CoerceError{From: v.Type, To: Time}
	}
}

// Cast converts v to target. strict=true (CAST) errors on failure;
// strict=false (TRY_CAST) returns NULL instead.
func Cast(v Value, target DataType, strict bool) (Value, error) {
	r, err := Coerce(v, target)
	if err != nil {
		if strict {
			return NewNull(), err
		}
		return NewNull(), nil
	}
	return r, nil
}
