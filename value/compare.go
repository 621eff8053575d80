package value

// Ordering is the result of a three-way comparison between two values.
type Ordering int

const (
	Less Ordering = iota
	Equal
	Greater
	Incomparable
)

// Tri is a three-valued logic result: True, False, or Unknown.
type Tri int

const (
	True Tri = iota
	False
	Unknown
)

// Not implements NOT under three-valued logic: NOT Unknown = Unknown.
func Not(t Tri) Tri {
	switch t {
	case True:
		return False
	case False:
		return True
	default:
		return Unknown
	}
}

// And implements short-circuiting three-valued AND.
func And(a, b Tri) Tri {
	if a == False || b == False {
		return False
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return True
}

// Or implements short-circuiting three-valued OR.
func Or(a, b Tri) Tri {
	if a == True || b == True {
		return True
	}
	if a == Unknown || b == Unknown {
		return Unknown
	}
	return False
}

// BoolToTri converts a native bool to a definite Tri.
func BoolToTri(b bool) Tri {
	if b {
		return True
	}
	return False
}

// Cmp compares two values per spec §4.1: mixed numeric types promote to
// Float64; comparisons across unrelated non-numeric types are Incomparable.
// Callers must check for NULL before calling Cmp — Cmp never special-cases
// NULL; EqThreeValued/CompareOp do that instead.
func Cmp(a, b Value) Ordering {
	if isNumeric(a.Type) && isNumeric(b.Type) {
		fa, fb := asFloat(a), asFloat(b)
		switch {
		case fa < fb:
			return Less
		case fa > fb:
			return Greater
		default:
			return Equal
		}
	}
	if a.Type != b.Type {
		// Boolean <-> Int64 coercion for comparison (false=0, true=1).
		if a.Type == Boolean && b.Type == Int64 {
			return Cmp(boolAsInt(a), b)
		}
		if a.Type == Int64 && b.Type == Boolean {
			return Cmp(a, boolAsInt(b))
		}
		return Incomparable
	}
	switch a.Type {
	case Boolean:
		if a.Bool == b.Bool {
			return Equal
		}
		if !a.Bool {
			return Less
		}
		return Greater
	case Utf8:
		if a.Str < b.Str {
			return Less
		}
		if a.Str > b.Str {
			return Greater
		}
		return Equal
	case Date, Timestamp, Time:
		if a.I64 < b.I64 {
			return Less
		}
		if a.I64 > b.I64 {
			return Greater
		}
		return Equal
	case Interval:
		av, bv := intervalMicros(a.Iv), intervalMicros(b.Iv)
		if av < bv {
			return Less
		}
		if av > bv {
			return Greater
		}
		return Equal
	default:
		return Incomparable
	}
}

func boolAsInt(v Value) Value {
	if v.Bool {
		return NewInt(1)
	}
	return NewInt(0)
}

// intervalMicros approximates an interval's total microseconds assuming
// 30-day months and 365-day years, used only for ordering comparisons.
func intervalMicros(iv IntervalValue) int64 {
	const day = int64(86400_000_000)
	return int64(iv.Years)*365*day + int64(iv.Months)*30*day + int64(iv.Days)*day + iv.Micros
}

// EqThreeValued implements eq_three_valued: NULL compared to anything
// (including NULL) yields Unknown.
func EqThreeValued(a, b Value) Tri {
	if IsNull(a) || IsNull(b) {
		return Unknown
	}
	switch Cmp(a, b) {
	case Equal:
		return True
	case Incomparable:
		return Unknown
	default:
		return False
	}
}

// DistinctFrom implements IS [NOT] DISTINCT FROM: a definite boolean even
// when one or both sides are NULL (NULL IS NOT DISTINCT FROM NULL = true).
func DistinctFrom(a, b Value) bool {
	if IsNull(a) && IsNull(b) {
		return false
	}
	if IsNull(a) != IsNull(b) {
		return true
	}
	return Cmp(a, b) != Equal
}

// CompareOp applies a comparison operator under three-valued logic. NULL on
// either side yields Unknown.
func CompareOp(op string, a, b Value) Tri {
	if IsNull(a) || IsNull(b) {
		return Unknown
	}
	c := Cmp(a, b)
	if c == Incomparable {
		return Unknown
	}
	switch op {
	case "=":
		return BoolToTri(c == Equal)
	case "<>", "!=":
		return BoolToTri(c != Equal)
	case "<":
		return BoolToTri(c == Less)
	case "<=":
		return BoolToTri(c == Less || c == Equal)
	case ">":
		return BoolToTri(c == Greater)
	case ">=":
		return BoolToTri(c == Greater || c == Equal)
	default:
		return Unknown
	}
}

// EqualForGrouping implements the "NULL equals NULL" equality used by
// DISTINCT, grouping keys, and set-op dedup (distinct from EqThreeValued,
// which treats NULL=NULL as Unknown for ordinary predicate evaluation).
func EqualForGrouping(a, b Value) bool {
	if IsNull(a) && IsNull(b) {
		return true
	}
	if IsNull(a) != IsNull(b) {
		return false
	}
	return Cmp(a, b) == Equal
}
