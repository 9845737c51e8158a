package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEqual_SameKindSameValue(t *testing.T) {
	assert.True(t, Int(5).Equal(Int(5)))
	assert.True(t, Double(1.5).Equal(Double(1.5)))
	assert.True(t, String("a").Equal(String("a")))
	assert.True(t, Nil.Equal(Nil))
}

func TestEqual_DifferentKind(t *testing.T) {
	assert.False(t, Int(5).Equal(Double(5)))
}

func TestEqual_Set(t *testing.T) {
	a := Set(Int(1), Int(2))
	b := Set(Int(1), Int(2))
	c := Set(Int(2), Int(1))
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestEqual_Map(t *testing.T) {
	a := Map(map[string]Value{"x": Int(1)})
	b := Map(map[string]Value{"x": Int(1)})
	c := Map(map[string]Value{"x": Int(2)})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestEqual_TupleAndTable(t *testing.T) {
	assert.True(t, Tuple(1, 2, 3).Equal(Tuple(1, 2, 3)))
	assert.False(t, Tuple(1, 2).Equal(Tuple(1, 2, 3)))

	a := Table([][]float64{{1, 2}, {3, 4}})
	b := Table([][]float64{{1, 2}, {3, 4}})
	c := Table([][]float64{{1, 2}, {3, 5}})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestAccessors_KindMismatchReturnsFalse(t *testing.T) {
	v := Int(5)
	_, ok := v.AsDouble()
	assert.False(t, ok)
	i, ok := v.AsInt()
	assert.True(t, ok)
	assert.Equal(t, int64(5), i)
}

func TestString_Rendering(t *testing.T) {
	assert.Equal(t, "5", Int(5).String())
	assert.Equal(t, "nil", Nil.String())
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "(1 2 3)", Tuple(1, 2, 3).String())
	assert.Equal(t, "(a b)", Set(String("a"), String("b")).String())
}

func TestMap_IsCopiedOnConstruction(t *testing.T) {
	m := map[string]Value{"x": Int(1)}
	v := Map(m)
	m["x"] = Int(2)
	got, _ := v.AsMap()
	n, _ := got["x"].AsInt()
	assert.Equal(t, int64(1), n)
}
