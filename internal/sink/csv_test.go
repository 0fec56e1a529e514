package sink

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jobsalhi/sofifa-harvester/internal/scrape"
)

func TestRecordSink_SchemaLockedByFirstRecord(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "players.csv")
	sink, err := NewRecordSink(path, nil)
	require.NoError(t, err)

	require.NoError(t, sink.Write(scrape.Record{"a": "1", "b": "2"}))
	// Second record has a new key "c" (dropped) and misses "b" (empty cell).
	require.NoError(t, sink.Write(scrape.Record{"a": "3", "c": "4"}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Equal(t, []string{"a,b", "1,2", "3,"}, lines)
}

func TestRecordSink_PriorityOrdersColumns(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "players.csv")
	sink, err := NewRecordSink(path, []string{"player_id", "name", "age"})
	require.NoError(t, err)

	require.NoError(t, sink.Write(scrape.Record{
		"zzz_custom": "1",
		"name":       "L. Messi",
		"player_id":  "158023",
	}))
	require.Equal(t, []string{"player_id", "name", "zzz_custom"}, sink.Columns())
	require.NoError(t, sink.Close())
}

func TestRecordSink_RestartAppendsWithoutSecondHeader(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "players.csv")

	sink, err := NewRecordSink(path, nil)
	require.NoError(t, err)
	for _, name := range []string{"A", "B", "C"} {
		require.NoError(t, sink.Write(scrape.Record{"name": name, "player_id": name}))
	}
	require.NoError(t, sink.Close())

	// A fresh sink on the same file adopts the existing schema and appends.
	sink, err = NewRecordSink(path, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"name", "player_id"}, sink.Columns())
	require.NoError(t, sink.Write(scrape.Record{"name": "D", "player_id": "D"}))
	require.NoError(t, sink.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 5)
	require.Equal(t, "name,player_id", lines[0])
	require.Equal(t, "D,D", lines[4])
}

func TestRecordSink_CreatesOutputDir(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nested", "out", "clubs.csv")
	sink, err := NewRecordSink(path, nil)
	require.NoError(t, err)
	require.NoError(t, sink.Write(scrape.Record{"club_id": "5"}))
	require.NoError(t, sink.Close())

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestRecordSink_ColumnsNilBeforeFirstWrite(t *testing.T) {
	t.Parallel()
	sink, err := NewRecordSink(filepath.Join(t.TempDir(), "p.csv"), nil)
	require.NoError(t, err)
	require.Nil(t, sink.Columns())
	require.NoError(t, sink.Close())
}
