package exec

import (
	"math"
	"sort"
	"strings"

	"github.com/vegasq/memsql/sql"
	"github.com/vegasq/memsql/value"
)

// aggregateNames is the set of C10 aggregate functions (spec §6), each
// usable both as a plain GROUP BY aggregate and, per §4.8 window-function
// rule, as a window function under an OVER clause.
var aggregateNames = map[string]bool{
	"COUNT": true, "SUM": true, "AVG": true, "MIN": true, "MAX": true,
	"STDDEV": true, "STDDEV_SAMP": true, "STDDEV_POP": true, "VARIANCE": true,
	"MEDIAN": true, "MODE": true, "STRING_AGG": true, "GROUP_CONCAT": true,
}

func isAggregateName(name string) bool {
	return aggregateNames[strings.ToUpper(name)]
}

// evalAggregate computes call over rows (one output group, or one window
// frame when called from window.go), grounded on the
// query/aggregate.go dual int/float accumulator shape and extended with
// original_source/src/aggregation.rs's STDDEV/VARIANCE/MEDIAN/MODE entries
// the dialect lacks.
func evalAggregate(e *Evaluator, call *sql.FuncCallExpr, rows []Row) (value.Value, error) {
	name := strings.ToUpper(call.Name)
	if name == "COUNT" && call.Star {
		return value.NewInt(int64(len(rows))), nil
	}
	if len(call.Args) == 0 {
		return value.NewNull(), &PlanError{Msg: call.Name + " requires an argument"}
	}
	inner := e.WithGroup(nil)

	if name == "STRING_AGG" || name == "GROUP_CONCAT" {
		sep := ","
		if len(call.Args) == 2 {
			sv, err := inner.Eval(call.Args[1], rows[0])
			if err == nil && sv.Type == value.Utf8 {
				sep = sv.Str
			}
		}
		var parts []string
		for _, row := range rows {
			v, err := inner.Eval(call.Args[0], row)
			if err != nil {
				return value.NewNull(), err
			}
			if value.IsNull(v) {
				continue
			}
			parts = append(parts, v.String())
		}
		return value.NewString(strings.Join(parts, sep)), nil
	}

	vals := make([]value.Value, 0, len(rows))
	for _, row := range rows {
		v, err := inner.Eval(call.Args[0], row)
		if err != nil {
			return value.NewNull(), err
		}
		if value.IsNull(v) {
			continue
		}
		vals = append(vals, v)
	}
	if call.Distinct {
		vals = dedupValues(vals)
	}

	switch name {
	case "COUNT":
		return value.NewInt(int64(len(vals))), nil
	case "SUM":
		if len(vals) == 0 {
			return value.NewNull(), nil
		}
		return sumValues(vals), nil
	case "AVG":
		if len(vals) == 0 {
			return value.NewNull(), nil
		}
		sum := sumValues(vals)
		sf, _ := asFloatArg(sum)
		return value.NewFloat(sf / float64(len(vals))), nil
	case "MIN":
		if len(vals) == 0 {
			return value.NewNull(), nil
		}
		best := vals[0]
		for _, v := range vals[1:] {
			if value.Cmp(v, best) == value.Less {
				best = v
			}
		}
		return best, nil
	case "MAX":
		if len(vals) == 0 {
			return value.NewNull(), nil
		}
		best := vals[0]
		for _, v := range vals[1:] {
			if value.Cmp(v, best) == value.Greater {
				best = v
			}
		}
		return best, nil
	case "STDDEV", "STDDEV_SAMP":
		return stddev(vals, true)
	case "STDDEV_POP":
		return stddev(vals, false)
	case "VARIANCE":
		return variance(vals, true)
	case "MEDIAN":
		return median(vals)
	case "MODE":
		return mode(vals)
	default:
		return value.NewNull(), &PlanError{Msg: "unknown aggregate: " + call.Name}
	}
}

func dedupValues(vals []value.Value) []value.Value {
	out := make([]value.Value, 0, len(vals))
	for _, v := range vals {
		dup := false
		for _, seen := range out {
			if value.EqualForGrouping(v, seen) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// sumValues accumulates as Int64 while every term is Int64 and no overflow
// occurs, promoting to Float64 otherwise (mirrors value/arith.go's Add).
func sumValues(vals []value.Value) value.Value {
	acc := value.NewInt(0)
	for _, v := range vals {
		acc = value.Add(acc, v)
	}
	return acc
}

func floatsOf(vals []value.Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if f, ok := asFloatArg(v); ok {
			out = append(out, f)
		}
	}
	return out
}

func variance(vals []value.Value, sample bool) (value.Value, error) {
	fs := floatsOf(vals)
	n := len(fs)
	if n == 0 || (sample && n < 2) {
		return value.NewNull(), nil
	}
	var mean float64
	for _, f := range fs {
		mean += f
	}
	mean /= float64(n)
	var ss float64
	for _, f := range fs {
		d := f - mean
		ss += d * d
	}
	denom := float64(n)
	if sample {
		denom = float64(n - 1)
	}
	return value.NewFloat(ss / denom), nil
}

func stddev(vals []value.Value, sample bool) (value.Value, error) {
	v, err := variance(vals, sample)
	if err != nil || value.IsNull(v) {
		return v, err
	}
	f, _ := asFloatArg(v)
	return value.NewFloat(math.Sqrt(f)), nil
}

func median(vals []value.Value) (value.Value, error) {
	fs := floatsOf(vals)
	if len(fs) == 0 {
		return value.NewNull(), nil
	}
	sort.Float64s(fs)
	n := len(fs)
	if n%2 == 1 {
		return value.NewFloat(fs[n/2]), nil
	}
	return value.NewFloat((fs[n/2-1] + fs[n/2]) / 2), nil
}

func mode(vals []value.Value) (value.Value, error) {
	if len(vals) == 0 {
		return value.NewNull(), nil
	}
	type bucket struct {
		v     value.Value
		count int
	}
	var buckets []bucket
	for _, v := range vals {
		found := false
		for i := range buckets {
			if value.EqualForGrouping(buckets[i].v, v) {
				buckets[i].count++
				found = true
				break
			}
		}
		if !found {
			buckets = append(buckets, bucket{v: v, count: 1})
		}
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.count > best.count {
			best = b
		}
	}
	return best.v, nil
}
