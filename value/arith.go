package value

import "math"

// Arithmetic on Value pairs. Division by zero yields NULL (spec §4.1);
// integer overflow promotes the result to Float64 (spec §9 Open Question,
// resolved in favor of the design's mandated choice). Any NULL operand
// propagates to NULL, matching the strict NULL-propagation policy for
// arithmetic operators.

// Add implements +.
func Add(a, b Value) Value {
	if IsNull(a) || IsNull(b) {
		return NewNull()
	}
	if a.Type == Int64 && b.Type == Int64 {
		sum := a.I64 + b.I64
		if (b.I64 > 0 && sum < a.I64) || (b.I64 < 0 && sum > a.I64) {
			return NewFloat(float64(a.I64) + float64(b.I64))
		}
		return NewInt(sum)
	}
	if isNumeric(a.Type) && isNumeric(b.Type) {
		return NewFloat(asFloat(a) + asFloat(b))
	}
	return NewNull()
}

// Sub implements -.
func Sub(a, b Value) Value {
	if IsNull(a) || IsNull(b) {
		return NewNull()
	}
	if a.Type == Int64 && b.Type == Int64 {
		diff := a.I64 - b.I64
		if (b.I64 < 0 && diff < a.I64) || (b.I64 > 0 && diff > a.I64) {
			return NewFloat(float64(a.I64) - float64(b.I64))
		}
		return NewInt(diff)
	}
	if isNumeric(a.Type) && isNumeric(b.Type) {
		return NewFloat(asFloat(a) - asFloat(b))
	}
	return NewNull()
}

// Mul implements *.
func Mul(a, b Value) Value {
	if IsNull(a) || IsNull(b) {
		return NewNull()
	}
	if a.Type == Int64 && b.Type == Int64 {
		if a.I64 == 0 || b.I64 == 0 {
			return NewInt(0)
		}
		prod := a.I64 * b.I64
		if prod/b.I64 != a.I64 || (b.I64 == -1 && a.I64 == math.MinInt64) {
			return NewFloat(float64(a.I64) * float64(b.I64))
		}
		return NewInt(prod)
	}
	if isNumeric(a.Type) && isNumeric(b.Type) {
		return NewFloat(asFloat(a) * asFloat(b))
	}
	return NewNull()
}

// Div implements / (always yields Float64 on numeric inputs per spec;
// division by zero yields NULL rather than an error or Inf).
func Div(a, b Value) Value {
	if IsNull(a) || IsNull(b) {
		return NewNull()
	}
	if !isNumeric(a.Type) || !isNumeric(b.Type) {
		return NewNull()
	}
	bf := asFloat(b)
	if bf == 0 {
		return NewNull()
	}
	return NewFloat(asFloat(a) / bf)
}

// Mod implements % (integer modulo when both sides are Int64, float
// remainder otherwise). Division by zero yields NULL.
func Mod(a, b Value) Value {
	if IsNull(a) || IsNull(b) {
		return NewNull()
	}
	if a.Type == Int64 && b.Type == Int64 {
		if b.I64 == 0 {
			return NewNull()
		}
		return NewInt(a.I64 % b.I64)
	}
	if isNumeric(a.Type) && isNumeric(b.Type) {
		bf := asFloat(b)
		if bf == 0 {
			return NewNull()
		}
		return NewFloat(math.Mod(asFloat(a), bf))
	}
	return NewNull()
}

// Neg implements unary -.
func Neg(a Value) Value {
	if IsNull(a) {
		return NewNull()
	}
	switch a.Type {
	case Int64:
		if a.I64 == math.MinInt64 {
			return NewFloat(-float64(a.I64))
		}
		return NewInt(-a.I64)
	case Float64, Decimal:
		return NewFloat(-a.F64)
	default:
		return NewNull()
	}
}

// Concat implements ||, coercing both sides to their textual form; NULL
// propagates.
func Concat(a, b Value) Value {
	if IsNull(a) || IsNull(b) {
		return NewNull()
	}
	return NewString(a.String() + b.String())
}
