package exec

import (
	"math"

	"github.com/vegasq/memsql/value"
)

// registerMathFunctions wires the scalar math dispatch table of spec §6.
// Numeric functions use IEEE-754 semantics throughout, grounded on the
// teacher's query/function.go math-function family (AbsFunction,
// RoundFunction, ...).
func registerMathFunctions(r *FunctionRegistry) {
	reg(r, "ABS", 1, 1, true, func(a []value.Value) (value.Value, error) {
		if a[0].Type == value.Int64 {
			n := a[0].I64
			if n < 0 {
				n = -n
			}
			return value.NewInt(n), nil
		}
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("ABS")
		}
		return value.NewFloat(math.Abs(f)), nil
	})
	reg(r, "SIGN", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("SIGN")
		}
		switch {
		case f > 0:
			return value.NewInt(1), nil
		case f < 0:
			return value.NewInt(-1), nil
		default:
			return value.NewInt(0), nil
		}
	})
	reg(r, "ROUND", 1, 2, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("ROUND")
		}
		d := int64(0)
		if len(a) == 2 {
			dv, dok := asInt(a[1])
			if !dok {
				return value.NewNull(), argErr("ROUND")
			}
			d = dv
		}
		mult := math.Pow(10, float64(d))
		return value.NewFloat(math.Round(f*mult) / mult), nil
	})
	reg(r, "CEIL", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("CEIL")
		}
		return value.NewFloat(math.Ceil(f)), nil
	})
	reg(r, "FLOOR", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("FLOOR")
		}
		return value.NewFloat(math.Floor(f)), nil
	})
	reg(r, "POWER", 2, 2, true, func(a []value.Value) (value.Value, error) {
		x, ok1 := asFloatArg(a[0])
		y, ok2 := asFloatArg(a[1])
		if !ok1 || !ok2 {
			return value.NewNull(), argErr("POWER")
		}
		return value.NewFloat(math.Pow(x, y)), nil
	})
	reg(r, "SQRT", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("SQRT")
		}
		return value.NewFloat(math.Sqrt(f)), nil
	})
	reg(r, "EXP", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("EXP")
		}
		return value.NewFloat(math.Exp(f)), nil
	})
	reg(r, "LN", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("LN")
		}
		return value.NewFloat(math.Log(f)), nil
	})
	reg(r, "LOG", 1, 2, true, func(a []value.Value) (value.Value, error) {
		if len(a) == 1 {
			f, ok := asFloatArg(a[0])
			if !ok {
				return value.NewNull(), argErr("LOG")
			}
			return value.NewFloat(math.Log(f)), nil
		}
		base, ok1 := asFloatArg(a[0])
		x, ok2 := asFloatArg(a[1])
		if !ok1 || !ok2 {
			return value.NewNull(), argErr("LOG")
		}
		return value.NewFloat(math.Log(x) / math.Log(base)), nil
	})
	reg(r, "LOG2", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("LOG2")
		}
		return value.NewFloat(math.Log2(f)), nil
	})
	reg(r, "GREATEST", 1, -1, true, func(a []value.Value) (value.Value, error) {
		best := a[0]
		for _, v := range a[1:] {
			if value.Cmp(v, best) == value.Greater {
				best = v
			}
		}
		return best, nil
	})
	reg(r, "LEAST", 1, -1, true, func(a []value.Value) (value.Value, error) {
		best := a[0]
		for _, v := range a[1:] {
			if value.Cmp(v, best) == value.Less {
				best = v
			}
		}
		return best, nil
	})
	reg(r, "PI", 0, 0, false, func(a []value.Value) (value.Value, error) {
		return value.NewFloat(math.Pi), nil
	})
	reg(r, "SIN", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("SIN")
		}
		return value.NewFloat(math.Sin(f)), nil
	})
	reg(r, "COS", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("COS")
		}
		return value.NewFloat(math.Cos(f)), nil
	})
	reg(r, "TAN", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("TAN")
		}
		return value.NewFloat(math.Tan(f)), nil
	})
	reg(r, "DEGREES", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("DEGREES")
		}
		return value.NewFloat(f * 180 / math.Pi), nil
	})
	reg(r, "RADIANS", 1, 1, true, func(a []value.Value) (value.Value, error) {
		f, ok := asFloatArg(a[0])
		if !ok {
			return value.NewNull(), argErr("RADIANS")
		}
		return value.NewFloat(f * math.Pi / 180), nil
	})
	reg(r, "TYPEOF", 1, 1, false, func(a []value.Value) (value.Value, error) {
		return value.NewString(value.TypeName(value.TypeOf(a[0]))), nil
	})
}
