package commands

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kud1/file-viewer/internal/cli/config"
)

// testContext returns a command context with history disabled so tests
// never touch the user's home directory.
func testContext() context.Context {
	return context.WithValue(context.Background(), config.ContextKey(), &config.Config{
		PreviewLimit: config.DefaultPreviewLimit,
		OutputFormat: "table",
		NoHistory:    true,
	})
}

func runCommand(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	cmd.SetContext(testContext())
	err := cmd.Execute()
	return buf.String(), err
}

func writeTestCSV(t *testing.T, name string, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,label\n")
	for i := 1; i <= rows; i++ {
		fmt.Fprintf(&b, "%d,label_%d\n", i, i)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o600))
	return path
}

func TestQueryCommand_OneShot(t *testing.T) {
	path := writeTestCSV(t, "items.csv", 5)

	out, err := runCommand(t, NewQueryCommand(),
		"SELECT COUNT(*) AS n FROM items", "--load", path)
	require.NoError(t, err)

	assert.Contains(t, out, "n")
	assert.Contains(t, out, "5")
	assert.Contains(t, out, "(1 rows)")
}

func TestQueryCommand_JSONFormat(t *testing.T) {
	path := writeTestCSV(t, "items.csv", 2)

	out, err := runCommand(t, NewQueryCommand(),
		"SELECT id FROM items ORDER BY id", "--load", path, "--format", "json")
	require.NoError(t, err)

	assert.Contains(t, out, `"id"`)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "["))
}

func TestQueryCommand_ExportOut(t *testing.T) {
	path := writeTestCSV(t, "items.csv", 3)
	dest := filepath.Join(t.TempDir(), "result.csv")

	out, err := runCommand(t, NewQueryCommand(),
		"SELECT id, label FROM items ORDER BY id", "--load", path, "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 3 rows")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "id,label\n"))
}

func TestQueryCommand_InputFile(t *testing.T) {
	path := writeTestCSV(t, "items.csv", 4)
	sqlFile := filepath.Join(t.TempDir(), "report.sql")
	require.NoError(t, os.WriteFile(sqlFile, []byte("SELECT COUNT(*) AS n FROM items"), 0o600))

	out, err := runCommand(t, NewQueryCommand(),
		"--load", path, "--input", sqlFile)
	require.NoError(t, err)
	assert.Contains(t, out, "4")
}

func TestQueryCommand_EngineErrorVerbatim(t *testing.T) {
	path := writeTestCSV(t, "items.csv", 1)

	_, err := runCommand(t, NewQueryCommand(),
		"SELECT * FROM missing_table", "--load", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing_table")
}

func TestQueryCommand_MissingFile(t *testing.T) {
	_, err := runCommand(t, NewQueryCommand(),
		"SELECT 1", "--load", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestInspectCommand(t *testing.T) {
	path := writeTestCSV(t, "orders.csv", 12)

	out, err := runCommand(t, NewInspectCommand(), path, "--limit", "5")
	require.NoError(t, err)

	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "label")
	assert.Contains(t, out, "12 row(s) | 2 column(s) | 5 displayed")
}

func TestInspectCommand_CustomName(t *testing.T) {
	path := writeTestCSV(t, "orders.csv", 2)

	out, err := runCommand(t, NewInspectCommand(), path, "--name", "my_orders")
	require.NoError(t, err)
	assert.Contains(t, out, "my_orders")
}

func TestInspectCommand_Directory(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.csv", "b.csv"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name),
			[]byte("id,label\n1,x\n2,y\n"), 0o600))
	}

	out, err := runCommand(t, NewInspectCommand(), dir)
	require.NoError(t, err)
	assert.Contains(t, out, "4 row(s)")
}
