package export

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testColumns = []string{"id", "name", "score"}
	testRows    = []map[string]any{
		{"id": int64(1), "name": "alice", "score": 9.5},
		{"id": int64(2), "name": "bob, jr.", "score": nil},
	}
)

func TestParseFormat(t *testing.T) {
	for _, s := range []string{"json", "csv"} {
		f, err := ParseFormat(s)
		require.NoError(t, err)
		assert.Equal(t, Format(s), f)
	}

	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriteCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, Write(testColumns, testRows, FormatCSV, path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, testColumns, records[0])
	assert.Equal(t, []string{"1", "alice", "9.5"}, records[1])
	assert.Equal(t, []string{"2", "bob, jr.", ""}, records[2])
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, Write(testColumns, testRows, FormatJSON, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)

	// One object per line, keys in column order.
	assert.True(t, strings.HasPrefix(lines[0], `{"id":`), "line: %s", lines[0])

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "alice", first["name"])
	assert.Equal(t, float64(1), first["id"])

	var second map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Nil(t, second["score"])
}

func TestWriteEmptyResult(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, Write(testColumns, nil, FormatCSV, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "id,name,score\n", string(data))
}

func TestWriteUnwritableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "no-such-dir", "out.csv")
	err := Write(testColumns, testRows, FormatCSV, path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no partial file should exist")
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")
	require.NoError(t, Write(testColumns, testRows, FormatJSON, path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "x", FormatValue([]byte("x")))
	assert.Equal(t, "42", FormatValue(int64(42)))
	assert.Equal(t, "true", FormatValue(true))
}
