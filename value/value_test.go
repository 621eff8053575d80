package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqThreeValued_NullIsUnknown(t *testing.T) {
	assert.Equal(t, Unknown, EqThreeValued(NewNull(), NewNull()))
	assert.Equal(t, Unknown, EqThreeValued(NewNull(), NewInt(1)))
	assert.Equal(t, True, EqThreeValued(NewInt(1), NewInt(1)))
	assert.Equal(t, False, EqThreeValued(NewInt(1), NewInt(2)))
}

func TestDistinctFrom(t *testing.T) {
	assert.False(t, DistinctFrom(NewNull(), NewNull()))
	assert.True(t, DistinctFrom(NewNull(), NewInt(1)))
	assert.False(t, DistinctFrom(NewInt(5), NewInt(5)))
}

func TestCmpMixedNumericPromotesToFloat(t *testing.T) {
	assert.Equal(t, Equal, Cmp(NewInt(2), NewFloat(2.0)))
	assert.Equal(t, Less, Cmp(NewInt(1), NewFloat(1.5)))
}

func TestCmpIncomparable(t *testing.T) {
	assert.Equal(t, Incomparable, Cmp(NewString("x"), NewInt(1)))
}

func TestArithOverflowPromotesToFloat(t *testing.T) {
	max := NewInt(9223372036854775807)
	got := Add(max, NewInt(1))
	require.Equal(t, Float64, got.Type)
	assert.InDelta(t, 9223372036854775808.0, got.F64, 1)
}

func TestDivByZeroYieldsNull(t *testing.T) {
	assert.True(t, IsNull(Div(NewInt(1), NewInt(0))))
}

func TestCoerceStrictVsTryCast(t *testing.T) {
	_, err := Cast(NewString("not-a-number"), Int64, true)
	require.Error(t, err)
	v, err := Cast(NewString("not-a-number"), Int64, false)
	require.NoError(t, err)
	assert.True(t, IsNull(v))
}

func TestCoerceDateRoundTrip(t *testing.T) {
	d, err := Coerce(NewString("2024-03-15"), Date)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-15", d.String())
}

func TestNullMaskPopcount(t *testing.T) {
	m := NewNullMask()
	for i := 0; i < 20; i++ {
		m.Push(i%3 != 0)
	}
	assert.Equal(t, 20, m.Len())
	valid := m.CountValid()
	null := m.CountNull()
	assert.Equal(t, 20, valid+null)
	for i := 0; i < 20; i++ {
		assert.Equal(t, i%3 != 0, m.Get(i))
	}
}

func TestNullMaskSetAndTruncate(t *testing.T) {
	m := NewNullMask()
	for i := 0; i < 5; i++ {
		m.Push(true)
	}
	m.Set(2, false)
	assert.False(t, m.Get(2))
	m.Truncate(3)
	assert.Equal(t, 3, m.Len())
}
