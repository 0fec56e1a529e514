package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDedupSet_InsertionOrder(t *testing.T) {
	t.Parallel()
	set := NewDedupSet()

	require.True(t, set.Add("u1"))
	require.True(t, set.Add("u2"))
	require.False(t, set.Add("u2"))
	require.True(t, set.Add("u3"))
	require.False(t, set.Add("u1"))

	require.Equal(t, 3, set.Len())
	require.Equal(t, []string{"u1", "u2", "u3"}, set.Snapshot())
}

func TestDedupSet_RejectsEmpty(t *testing.T) {
	t.Parallel()
	set := NewDedupSet()
	require.False(t, set.Add(""))
	require.Equal(t, 0, set.Len())
}

func TestDedupSet_SnapshotIsCopy(t *testing.T) {
	t.Parallel()
	set := NewDedupSet()
	set.Add("u1")

	snap := set.Snapshot()
	snap[0] = "mutated"
	require.Equal(t, []string{"u1"}, set.Snapshot())
}
