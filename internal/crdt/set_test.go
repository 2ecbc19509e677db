package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGSet_Union(t *testing.T) {
	var a, b GSet[name]
	a.Add("x")
	b.Add("y")
	b.Add("x")

	require.NoError(t, a.Merge(&b))
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.Contains("y"))

	a.Cleanup(1 << 40)
	assert.Equal(t, 2, a.Len(), "grow-only sets never shrink")
}

func TestGSet_Converges(t *testing.T) {
	got := converge(t, func() []GSet[name] {
		s := make([]GSet[name], 3)
		s[0].Add("a")
		s[1].Add("b")
		s[2].Add("a")
		s[2].Add("c")
		return s
	})
	assert.Equal(t, 3, got.Len())
	assert.Equal(t, []name{"a", "b", "c"}, SortedItems(&got))
}

func TestExpiringSet_MergeKeepsLaterExpiry(t *testing.T) {
	var a, b ExpiringSet[name]
	a.Insert("x", 5)
	b.Insert("x", 9)
	b.Insert("y", 2)

	require.NoError(t, a.Merge(&b))
	e, ok := a.Expires("x")
	require.True(t, ok)
	assert.Equal(t, int64(9), e)
	assert.Equal(t, []name{"x", "y"}, a.Items())
}

func TestExpiringSet_InsertNeverShortens(t *testing.T) {
	var s ExpiringSet[name]
	s.Insert("x", 9)
	s.Insert("x", 3)
	e, _ := s.Expires("x")
	assert.Equal(t, int64(9), e)
}

func TestExpiringSet_CleanupBoundary(t *testing.T) {
	var s ExpiringSet[name]
	s.Insert("a", 1)
	s.Insert("b", 2)

	s.Cleanup(0)
	assert.Equal(t, 2, s.Len())

	s.Cleanup(1)
	assert.False(t, s.Contains("a"), "dropped at exactly its expiry turn")
	assert.True(t, s.Contains("b"))

	s.Cleanup(1)
	assert.Equal(t, 1, s.Len(), "repeated cleanup is idempotent")

	s.Cleanup(0)
	assert.True(t, s.Contains("b"), "an earlier now does not resurrect or drop")
}

func TestExpiringSet_Converges(t *testing.T) {
	got := converge(t, func() []ExpiringSet[name] {
		s := make([]ExpiringSet[name], 3)
		s[0].Insert("a", 4)
		s[1].Insert("a", 7)
		s[1].Insert("b", 1)
		s[2].Insert("c", 2)
		return s
	})
	e, _ := got.Expires("a")
	assert.Equal(t, int64(7), e)
	assert.Equal(t, 3, got.Len())
}
