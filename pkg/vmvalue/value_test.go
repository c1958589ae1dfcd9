package vmvalue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindLetters(t *testing.T) {
	cases := map[Kind]byte{
		KindNil: 'l', KindBoolean: 'b', KindNumber: 'n', KindString: 's',
		KindTable: 't', KindFunction: 'f', KindUserData: 'u',
		KindLightUserData: 'U', KindThread: 'd',
	}
	for k, want := range cases {
		require.Equal(t, want, k.Letter())
	}
}

func TestTableSetGetOverwritesInPlace(t *testing.T) {
	tbl := NewTable()
	tbl.Set(Str("a"), Int(1))
	tbl.Set(Str("b"), Int(2))
	tbl.Set(Str("a"), Int(3))

	pairs := tbl.Pairs()
	require.Len(t, pairs, 2)
	require.Equal(t, Str("a"), pairs[0].Key)
	require.Equal(t, Int(3), pairs[0].Val)

	v, ok := tbl.Get(Str("b"))
	require.True(t, ok)
	require.Equal(t, Int(2), v)
}

func TestTableFindByIdentity(t *testing.T) {
	inner := NewTable()
	outer := NewTable()
	outer.Set(Str("child"), inner)

	found, ok := outer.FindByIdentity(KindTable, inner.Identity())
	require.True(t, ok)
	require.Same(t, inner, found)

	_, ok = outer.FindByIdentity(KindFunction, inner.Identity())
	require.False(t, ok, "identity lookup must be scoped by kind, not just pointer value")
}

func TestMetatableOnlyForTableAndUserData(t *testing.T) {
	tbl := NewTable()
	tbl.Meta = NewTable()
	require.Same(t, tbl.Meta, Metatable(tbl))

	ud := &UserData{Size: 4}
	require.Nil(t, Metatable(ud))
	ud.Meta = NewTable()
	require.Same(t, ud.Meta, Metatable(ud))

	require.Nil(t, Metatable(Str("x")))
}

func TestNumberEqualityAcrossIntFloat(t *testing.T) {
	tbl := NewTable()
	tbl.Set(Int(2), Str("two"))
	v, ok := tbl.Get(Float(2.0))
	require.True(t, ok)
	require.Equal(t, Str("two"), v)
}
