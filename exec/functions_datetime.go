package exec

import (
	"strings"
	"time"

	"github.com/vegasq/memsql/value"
)

// registerDateTimeFunctions wires the date/time dispatch table of spec §6.
// Date arithmetic uses the proleptic Gregorian calendar via Go's time
// package. Grounded on the query/function.go date-time family
// (NowFunction, ExtractFunction, ...), extended with the interval-aware
// DATE_SUB/DATE_DIFF/AGE entries original_source's dialect needed and the
// teacher's single-table parquet dialect never did.
func registerDateTimeFunctions(r *FunctionRegistry) {
	reg(r, "NOW", 0, 0, false, func(a []value.Value) (value.Value, error) {
		return value.NowTimestamp(time.Now()), nil
	})
	reg(r, "CURRENT_DATE", 0, 0, false, func(a []value.Value) (value.Value, error) {
		return value.TodayDate(time.Now()), nil
	})
	reg(r, "CURRENT_TIME", 0, 0, false, func(a []value.Value) (value.Value, error) {
		return value.NowTime(time.Now()), nil
	})
	reg(r, "EXTRACT", 2, 2, false, func(a []value.Value) (value.Value, error) {
		if value.IsNull(a[1]) {
			return value.NewNull(), nil
		}
		field, ok := asStr(a[0])
		t, tok := value.ToTime(a[1])
		if !ok || !tok {
			return value.NewNull(), argErr("EXTRACT")
		}
		return extractField(strings.ToUpper(field), t)
	})
	reg(r, "DATE_TRUNC", 2, 2, false, func(a []value.Value) (value.Value, error) {
		if value.IsNull(a[1]) {
			return value.NewNull(), nil
		}
		unit, ok := asStr(a[0])
		t, tok := value.ToTime(a[1])
		if !ok || !tok {
			return value.NewNull(), argErr("DATE_TRUNC")
		}
		trunc, err := truncTo(strings.ToUpper(unit), t)
		if err != nil {
			return value.NewNull(), err
		}
		if a[1].Type == value.Date {
			return value.DateFromTime(trunc), nil
		}
		return value.TimestampFromTime(trunc), nil
	})
	reg(r, "DATE_ADD", 2, 2, true, func(a []value.Value) (value.Value, error) {
		t, ok := value.ToTime(a[0])
		n, nok := asInt(a[1])
		if !ok || !nok {
			return value.NewNull(), argErr("DATE_ADD")
		}
		out := t.AddDate(0, 0, int(n))
		if a[0].Type == value.Date {
			return value.DateFromTime(out), nil
		}
		return value.TimestampFromTime(out), nil
	})
	reg(r, "DATE_SUB", 2, 2, true, func(a []value.Value) (value.Value, error) {
		t, ok := value.ToTime(a[0])
		if !ok {
			return value.NewNull(), argErr("DATE_SUB")
		}
		switch a[1].Type {
		case value.Interval:
			iv := a[1].Iv
			out := t.AddDate(-int(iv.Years), -int(iv.Months), -int(iv.Days)).Add(-time.Duration(iv.Micros) * time.Microsecond)
			if a[0].Type == value.Date {
				return value.DateFromTime(out), nil
			}
			return value.TimestampFromTime(out), nil
		case value.Int64, value.Float64, value.Decimal:
			n, _ := asInt(a[1])
			out := t.AddDate(0, 0, -int(n))
			if a[0].Type == value.Date {
				return value.DateFromTime(out), nil
			}
			return value.TimestampFromTime(out), nil
		default:
			return value.NewNull(), argErr("DATE_SUB")
		}
	})
	reg(r, "DATE_DIFF", 3, 3, true, func(a []value.Value) (value.Value, error) {
		unit, ok := asStr(a[0])
		ta, aok := value.ToTime(a[1])
		tb, bok := value.ToTime(a[2])
		if !ok || !aok || !bok {
			return value.NewNull(), argErr("DATE_DIFF")
		}
		d := tb.Sub(ta)
		switch strings.ToUpper(unit) {
		case "DAY", "DAYS":
			return value.NewInt(int64(d.Hours() / 24)), nil
		case "HOUR", "HOURS":
			return value.NewInt(int64(d.Hours())), nil
		case "MINUTE", "MINUTES":
			return value.NewInt(int64(d.Minutes())), nil
		case "SECOND", "SECONDS":
			return value.NewInt(int64(d.Seconds())), nil
		default:
			return value.NewInt(int64(d.Hours() / 24)), nil
		}
	})
	reg(r, "MAKE_DATE", 3, 3, true, func(a []value.Value) (value.Value, error) {
		y, ok1 := asInt(a[0])
		m, ok2 := asInt(a[1])
		d, ok3 := asInt(a[2])
		if !ok1 || !ok2 || !ok3 {
			return value.NewNull(), argErr("MAKE_DATE")
		}
		t := time.Date(int(y), time.Month(m), int(d), 0, 0, 0, 0, time.UTC)
		return value.DateFromTime(t), nil
	})
	reg(r, "TO_TIMESTAMP", 1, 1, true, func(a []value.Value) (value.Value, error) {
		secs, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("TO_TIMESTAMP")
		}
		return value.TimestampFromTime(time.Unix(int64(secs), 0).UTC()), nil
	})
	reg(r, "DAYNAME", 1, 1, true, func(a []value.Value) (value.Value, error) {
		t, ok := value.ToTime(a[0])
		if !ok {
			return value.NewNull(), argErr("DAYNAME")
		}
		return value.NewString(t.Weekday().String()), nil
	})
	reg(r, "MONTHNAME", 1, 1, true, func(a []value.Value) (value.Value, error) {
		t, ok := value.ToTime(a[0])
		if !ok {
			return value.NewNull(), argErr("MONTHNAME")
		}
		return value.NewString(t.Month().String()), nil
	})
	reg(r, "LAST_DAY", 1, 1, true, func(a []value.Value) (value.Value, error) {
		t, ok := value.ToTime(a[0])
		if !ok {
			return value.NewNull(), argErr("LAST_DAY")
		}
		firstNext := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		last := firstNext.AddDate(0, 0, -1)
		return value.DateFromTime(last), nil
	})
	reg(r, "EPOCH", 1, 1, true, func(a []value.Value) (value.Value, error) {
		t, ok := value.ToTime(a[0])
		if !ok {
			return value.NewNull(), argErr("EPOCH")
		}
		return value.NewInt(t.Unix()), nil
	})
	reg(r, "EPOCH_MS", 1, 1, true, func(a []value.Value) (value.Value, error) {
		t, ok := value.ToTime(a[0])
		if !ok {
			return value.NewNull(), argErr("EPOCH_MS")
		}
		return value.NewInt(t.UnixMilli()), nil
	})
	reg(r, "AGE", 1, 2, true, func(a []value.Value) (value.Value, error) {
		start, ok := value.ToTime(a[0])
		if !ok {
			return value.NewNull(), argErr("AGE")
		}
		end := time.Now().UTC()
		if len(a) == 2 {
			e, eok := value.ToTime(a[1])
			if !eok {
				return value.NewNull(), argErr("AGE")
			}
			start, end = e, start
		}
		d := end.Sub(start)
		return value.NewInterval(value.IntervalValue{Micros: d.Microseconds()}), nil
	})
}

func extractField(field string, t time.Time) (value.Value, error) {
	switch field {
	case "YEAR":
		return value.NewInt(int64(t.Year())), nil
	case "MONTH":
		return value.NewInt(int64(t.Month())), nil
	case "DAY":
		return value.NewInt(int64(t.Day())), nil
	case "HOUR":
		return value.NewInt(int64(t.Hour())), nil
	case "MINUTE":
		return value.NewInt(int64(t.Minute())), nil
	case "SECOND":
		return value.NewInt(int64(t.Second())), nil
	case "DOW":
		return value.NewInt(int64(t.Weekday())), nil
	case "QUARTER":
		return value.NewInt(int64((t.Month()-1)/3 + 1)), nil
	case "WEEK":
		_, wk := t.ISOWeek()
		return value.NewInt(int64(wk)), nil
	default:
		return value.NewNull(), argErr("EXTRACT: unknown field " + field)
	}
}

func truncTo(unit string, t time.Time) (time.Time, error) {
	switch unit {
	case "YEAR":
		return time.Date(t.Year(), 1, 1, 0, 0, 0, 0, time.UTC), nil
	case "MONTH":
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
	case "DAY":
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	case "HOUR":
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), 0, 0, 0, time.UTC), nil
	case "MINUTE":
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC), nil
	default:
		return time.Time{}, argErr("DATE_TRUNC: unknown unit " + unit)
	}
}
