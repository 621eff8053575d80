package exec

import (
	"strings"

	"github.com/vegasq/memsql/value"
)

// registerStringFunctions wires the scalar string dispatch table of spec
// §6. Indices are 1-based and UTF-8 codepoint-based (not byte-based),
// grounded on the query/function.go string-function family
// (SubstringFunction, LeftFunction, ...), re-expressed over []rune instead
// of Go's byte-indexed strings.
func registerStringFunctions(r *FunctionRegistry) {
	reg(r, "LOWER", 1, 1, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("LOWER")
		}
		return value.NewString(strings.ToLower(s)), nil
	})
	reg(r, "UPPER", 1, 1, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("UPPER")
		}
		return value.NewString(strings.ToUpper(s)), nil
	})
	reg(r, "LENGTH", 1, 1, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("LENGTH")
		}
		return value.NewInt(int64(len([]rune(s)))), nil
	})
	reg(r, "TRIM", 1, 1, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("TRIM")
		}
		return value.NewString(strings.TrimSpace(s)), nil
	})
	reg(r, "LTRIM", 1, 1, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("LTRIM")
		}
		return value.NewString(strings.TrimLeft(s, " \t\n\r")), nil
	})
	reg(r, "RTRIM", 1, 1, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("RTRIM")
		}
		return value.NewString(strings.TrimRight(s, " \t\n\r")), nil
	})
	reg(r, "SUBSTRING", 2, 3, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		start, sok := asInt(a[1])
		if !ok || !sok {
			return value.NewNull(), argErr("SUBSTRING")
		}
		rs := []rune(s)
		length := int64(len(rs))
		if len(a) == 3 {
			n, nok := asInt(a[2])
			if !nok {
				return value.NewNull(), argErr("SUBSTRING")
			}
			length = n
		}
		return value.NewString(substr(rs, start, length)), nil
	})
	reg(r, "REPLACE", 3, 3, true, func(a []value.Value) (value.Value, error) {
		s, ok1 := asStr(a[0])
		old, ok2 := asStr(a[1])
		rep, ok3 := asStr(a[2])
		if !ok1 || !ok2 || !ok3 {
			return value.NewNull(), argErr("REPLACE")
		}
		return value.NewString(strings.ReplaceAll(s, old, rep)), nil
	})
	reg(r, "CONCAT", 0, -1, false, func(a []value.Value) (value.Value, error) {
		var b strings.Builder
		for _, v := range a {
			if value.IsNull(v) {
				continue
			}
			b.WriteString(v.String())
		}
		return value.NewString(b.String()), nil
	})
	reg(r, "CONCAT_WS", 1, -1, false, func(a []value.Value) (value.Value, error) {
		if value.IsNull(a[0]) {
			return value.NewNull(), nil
		}
		sep, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("CONCAT_WS")
		}
		var parts []string
		for _, v := range a[1:] {
			if value.IsNull(v) {
				continue
			}
			parts = append(parts, v.String())
		}
		return value.NewString(strings.Join(parts, sep)), nil
	})
	reg(r, "LEFT", 2, 2, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		n, nok := asInt(a[1])
		if !ok || !nok {
			return value.NewNull(), argErr("LEFT")
		}
		rs := []rune(s)
		if n < 0 {
			n = 0
		}
		if n > int64(len(rs)) {
			n = int64(len(rs))
		}
		return value.NewString(string(rs[:n])), nil
	})
	reg(r, "RIGHT", 2, 2, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		n, nok := asInt(a[1])
		if !ok || !nok {
			return value.NewNull(), argErr("RIGHT")
		}
		rs := []rune(s)
		if n < 0 {
			n = 0
		}
		if n > int64(len(rs)) {
			n = int64(len(rs))
		}
		return value.NewString(string(rs[int64(len(rs))-n:])), nil
	})
	reg(r, "REVERSE", 1, 1, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		if !ok {
			return value.NewNull(), argErr("REVERSE")
		}
		rs := []rune(s)
		for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
			rs[i], rs[j] = rs[j], rs[i]
		}
		return value.NewString(string(rs)), nil
	})
	reg(r, "REPEAT", 2, 2, true, func(a []value.Value) (value.Value, error) {
		s, ok := asStr(a[0])
		n, nok := asInt(a[1])
		if !ok || !nok || n < 0 {
			return value.NewNull(), argErr("REPEAT")
		}
		return value.NewString(strings.Repeat(s, int(n))), nil
	})
	reg(r, "LPAD", 2, 3, true, func(a []value.Value) (value.Value, error) {
		return pad(a, true)
	})
	reg(r, "RPAD", 2, 3, true, func(a []value.Value) (value.Value, error) {
		return pad(a, false)
	})
	reg(r, "POSITION", 2, 2, true, func(a []value.Value) (value.Value, error) {
		needle, ok1 := asStr(a[0])
		hay, ok2 := asStr(a[1])
		if !ok1 || !ok2 {
			return value.NewNull(), argErr("POSITION")
		}
		rs := []rune(hay)
		nd := []rune(needle)
		if len(nd) == 0 {
			return value.NewInt(1), nil
		}
		for i := 0; i+len(nd) <= len(rs); i++ {
			if string(rs[i:i+len(nd)]) == needle {
				return value.NewInt(int64(i + 1)), nil
			}
		}
		return value.NewInt(0), nil
	})
	reg(r, "STARTS_WITH", 2, 2, true, func(a []value.Value) (value.Value, error) {
		s, ok1 := asStr(a[0])
		p, ok2 := asStr(a[1])
		if !ok1 || !ok2 {
			return value.NewNull(), argErr("STARTS_WITH")
		}
		return value.NewBool(strings.HasPrefix(s, p)), nil
	})
	reg(r, "SPLIT_PART", 3, 3, true, func(a []value.Value) (value.Value, error) {
		s, ok1 := asStr(a[0])
		sep, ok2 := asStr(a[1])
		n, ok3 := asInt(a[2])
		if !ok1 || !ok2 || !ok3 || n < 1 {
			return value.NewNull(), argErr("SPLIT_PART")
		}
		parts := strings.Split(s, sep)
		if int(n) > len(parts) {
			return value.NewString(""), nil
		}
		return value.NewString(parts[n-1]), nil
	})
}

// substr implements 1-based, codepoint SUBSTRING(s, start, length).
func substr(rs []rune, start, length int64) string {
	if length < 0 {
		length = 0
	}
	end := start + length
	if start < 1 {
		start = 1
	}
	if end < start {
		return ""
	}
	lo := start - 1
	hi := end - 1
	n := int64(len(rs))
	if lo >= n {
		return ""
	}
	if hi > n {
		hi = n
	}
	if lo < 0 {
		lo = 0
	}
	return string(rs[lo:hi])
}

func pad(a []value.Value, left bool) (value.Value, error) {
	s, ok := asStr(a[0])
	n, nok := asInt(a[1])
	if !ok || !nok {
		return value.NewNull(), argErr("LPAD/RPAD")
	}
	fill := " "
	if len(a) == 3 {
		f, fok := asStr(a[2])
		if !fok {
			return value.NewNull(), argErr("LPAD/RPAD")
		}
		fill = f
	}
	rs := []rune(s)
	if int64(len(rs)) >= n {
		if n < 0 {
			n = 0
		}
		if left {
			return value.NewString(string(rs[int64(len(rs))-n:])), nil
		}
		return value.NewString(string(rs[:n])), nil
	}
	if fill == "" {
		return value.NewString(s), nil
	}
	fr := []rune(fill)
	need := n - int64(len(rs))
	padding := make([]rune, 0, need)
	for int64(len(padding)) < need {
		padding = append(padding, fr[int64(len(padding))%int64(len(fr))])
	}
	if left {
		return value.NewString(string(padding) + s), nil
	}
	return value.NewString(s + string(padding)), nil
}
