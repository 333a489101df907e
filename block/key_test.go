package block

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyEqualityAndHash(t *testing.T) {
	a := NewKey(1, 2, 3, 4, 8, 2, 5)
	b := NewKey(1, 2, 3, 4, 8, 2, 5)
	require.Equal(t, a, b)
	require.Equal(t, a.Hash(), b.Hash())

	c := NewKey(1, 2, 3, 5, 8, 2, 5)
	require.NotEqual(t, a.Hash(), c.Hash())
	require.NotEqual(t, a, c)
}

func TestKeyAsMapKey(t *testing.T) {
	m := map[Key]int{}
	k := NewKey(0, 0, 0, 0, 4, 1, 1)
	m[k] = 7
	require.Equal(t, 7, m[NewKey(0, 0, 0, 0, 4, 1, 1)])
}
