package dof

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutInjective(t *testing.T) {
	for _, l := range []Layout{
		NewEdgeLayout(7, 5, 3),
		NewPhaseSpaceLayout(4, 6, 2, 4),
		NewPhaseSpaceLayout(3, 2, 1, 1),
	} {
		seen := make(map[int]Key, l.Size())
		for i := 0; i < l.NumSpatial; i++ {
			for n := 0; n < l.NumAngles; n++ {
				for g := 0; g < l.NumGroups; g++ {
					for s := 0; s < l.NumSub; s++ {
						k := Key{i, n, g, s}
						off := l.IndexKey(k)
						require.GreaterOrEqual(t, off, 0)
						require.Less(t, off, l.Size())
						prev, dup := seen[off]
						require.False(t, dup, "%v and %v share offset %d", prev, k, off)
						seen[off] = k
						assert.Equal(t, k, l.Key(off))
					}
				}
			}
		}
		assert.Len(t, seen, l.Size())
	}
}

func TestEdgeLayoutOffsets(t *testing.T) {
	l := NewEdgeLayout(10, 4, 3)
	// 2*Q*G*i + 2*G*n + 2*g + loc
	assert.Equal(t, 2*4*3*5+2*3*2+2*1+1, l.Index(5, 2, 1, 1))
	assert.Equal(t, 2*10*4*3, l.Size())

	p := NewPhaseSpaceLayout(10, 4, 3, 4)
	assert.Equal(t, 4*4*3*2+4*3*3+4*2+3, p.Index(2, 3, 2, 3))
}

func TestKeyOrdering(t *testing.T) {
	a := Key{1, 0, 0, 0}
	b := Key{0, 9, 9, 1}
	assert.True(t, b.Less(a))
	assert.False(t, a.Less(b))
	assert.True(t, Key{1, 2, 0, 1}.Less(Key{1, 2, 1, 0}))
	assert.False(t, a.Less(a))

	v := Values{a: 1, b: 2, Key{0, 9, 9, 0}: 3}
	assert.Equal(t, []Key{{0, 9, 9, 0}, b, a}, v.Keys())
	assert.Equal(t, 0.0, v.Get(Key{5, 5, 5, 5}))
	assert.True(t, v.Equal(Values{a: 1, b: 2, Key{0, 9, 9, 0}: 3}))
	assert.False(t, v.Equal(Values{a: 1, b: 2}))
}
