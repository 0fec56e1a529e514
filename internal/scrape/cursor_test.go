package scrape

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCursor_OffsetSequence(t *testing.T) {
	t.Parallel()
	c := NewCursor(60, 0)

	var offsets []int
	for i := 0; i < 4; i++ {
		require.True(t, c.HasNext())
		offsets = append(offsets, c.Offset())
		c.Advance()
	}
	require.Equal(t, []int{0, 60, 120, 180}, offsets)

	c.Stop()
	require.False(t, c.HasNext())
}

func TestCursor_CurrentAddress(t *testing.T) {
	t.Parallel()
	c := NewCursor(60, 0)

	// First page carries no offset parameter at all.
	require.Equal(t, "https://sofifa.test/players?col=oa", c.CurrentAddress("https://sofifa.test/players?col=oa"))

	c.Advance()
	require.Equal(t, "https://sofifa.test/players?col=oa&offset=60", c.CurrentAddress("https://sofifa.test/players?col=oa"))
	require.Equal(t, "https://sofifa.test/players?offset=60", c.CurrentAddress("https://sofifa.test/players"))
}

func TestCursor_UpperBound(t *testing.T) {
	t.Parallel()
	c := NewCursor(60, 120)

	visited := 0
	for c.HasNext() {
		visited++
		c.Advance()
	}
	// Offsets 0, 60, and 120 are all within the bound.
	require.Equal(t, 3, visited)
}

func TestCursor_StopIsSticky(t *testing.T) {
	t.Parallel()
	c := NewCursor(10, 0)
	c.Stop()
	c.Advance()
	require.False(t, c.HasNext())
}
