package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSizedSet_InsertWithCapacity(t *testing.T) {
	s := NewSizedSet[name](3)
	now := int64(0)
	s.Insert("a", now, now+10)
	assert.True(t, s.Contains("a"))
	s.Insert("b", now, now+10)
	assert.True(t, s.Contains("b"))
	s.Insert("c", now, now+10)
	assert.True(t, s.Contains("c"))
	s.Insert("d", now, now+10)
	assert.False(t, s.Contains("d"))
	assert.Equal(t, 3, s.Len())
}

func TestSizedSet_InsertPresentUpdatesStamp(t *testing.T) {
	s := NewSizedSet[name](1)
	s.Insert("a", 4, 10)
	s.Insert("a", 2, 20)
	st, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, Stamp{Written: 2, Expires: 20}, st)
}

func TestSizedSet_ZeroCapacityHoldsNothing(t *testing.T) {
	var s SizedSet[name]
	s.Insert("a", 0, 10)
	assert.Equal(t, 0, s.Len())
}

func TestSizedSet_Cleanup(t *testing.T) {
	s := NewSizedSet[name](3)
	s.Insert("a", 0, 1)
	s.Insert("b", 0, 2)
	s.Insert("c", 0, 3)

	s.Cleanup(0)
	assert.True(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.True(t, s.Contains("c"))

	s.Cleanup(1)
	assert.False(t, s.Contains("a"))
	assert.True(t, s.Contains("b"))
	assert.True(t, s.Contains("c"))

	s.Cleanup(2)
	assert.False(t, s.Contains("b"))
	assert.True(t, s.Contains("c"))

	s.Cleanup(3)
	assert.Equal(t, 0, s.Len())
}

func TestSizedSet_Merge(t *testing.T) {
	a := NewSizedSet[name](3)
	a.Insert("a", 0, 10)
	a.Insert("b", 1, 10)
	a.Insert("c", 2, 10)

	b := NewSizedSet[name](3)
	b.Insert("d", 3, 10)

	require.NoError(t, a.Merge(&b))
	assert.Equal(t, []name{"a", "b", "c"}, a.Items())

	c := NewSizedSet[name](3)
	c.Insert("d", 0, 10)
	require.NoError(t, a.Merge(&c))
	assert.Equal(t, []name{"a", "b", "d"}, a.Items(), "newest occupant c is evicted")
}

func TestSizedSet_EqualWriteTieBreaksOnValue(t *testing.T) {
	s := NewSizedSet[name](2)
	s.Insert("b", 0, 10)
	s.Insert("c", 0, 10)
	s.Insert("a", 0, 10)
	assert.Equal(t, []name{"a", "b"}, s.Items())
}

func TestSizedSet_Converges(t *testing.T) {
	got := converge(t, func() []SizedSet[name] {
		x := NewSizedSet[name](3)
		x.Insert("a", 0, 10)
		x.Insert("b", 4, 10)
		x.Insert("c", 8, 10)
		y := NewSizedSet[name](3)
		y.Insert("d", 1, 10)
		y.Insert("e", 5, 10)
		y.Insert("f", 9, 10)
		z := NewSizedSet[name](3)
		z.Insert("g", 2, 10)
		z.Insert("h", 6, 10)
		z.Insert("i", 7, 10)
		return []SizedSet[name]{x, y, z}
	})
	assert.Equal(t, []name{"a", "d", "g"}, got.Items())
	assert.Equal(t, 3, got.Len())
}

func TestSizedSet_Idempotent(t *testing.T) {
	s := NewSizedSet[name](2)
	s.Insert("a", 1, 5)
	s.Insert("b", 2, 6)
	require.NoError(t, s.Merge(&s))
	assert.Equal(t, []name{"a", "b"}, s.Items())
	st, _ := s.Get("a")
	assert.Equal(t, Stamp{Written: 1, Expires: 5}, st)
}
