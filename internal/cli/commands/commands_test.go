// Package commands_test provides tests for CLI command creation.
package commands

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query [SQL]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"load", "format", "input", "out"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewInspectCommand(t *testing.T) {
	cmd := NewInspectCommand()

	assert.Equal(t, "inspect <path>", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"format", "limit", "name"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewOpenCommand(t *testing.T) {
	cmd := NewOpenCommand()

	assert.Equal(t, "open [path...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history [n]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("limit"), "flag limit should exist")

	var hasPrune bool
	for _, sub := range cmd.Commands() {
		if sub.Use == "prune" {
			hasPrune = true
		}
	}
	assert.True(t, hasPrune, "history should have a prune subcommand")
}

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand("1.2.3", "2026-01-01", "abc1234")

	assert.Equal(t, "version", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
}

func TestExportFormatFor(t *testing.T) {
	tests := []struct {
		path   string
		format string
		want   string
	}{
		{"out.csv", "table", "csv"},
		{"out.json", "table", "json"},
		{"out.jsonl", "table", "json"},
		{"out.txt", "json", "json"},
		{"out.txt", "table", "csv"},
		{"noext", "csv", "csv"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, exportFormatFor(tt.path, tt.format), "path=%s format=%s", tt.path, tt.format)
	}
}

func TestTruncateSQL(t *testing.T) {
	assert.Equal(t, "SELECT 1", truncateSQL("SELECT\n  1", 60))

	long := truncateSQL("SELECT a_very_long_column_list FROM a_very_long_table_name WHERE x = 1", 30)
	assert.Len(t, long, 30)

	// Truncation must not split a multi-byte rune.
	wide := truncateSQL("SELECT '日本語のとても長いコメント列' FROM ログ WHERE 地域 = '東京'", 20)
	assert.True(t, utf8.ValidString(wide), "truncated SQL must stay valid UTF-8")
	assert.Equal(t, 20, utf8.RuneCountInString(wide))
	assert.True(t, strings.HasSuffix(wide, "..."))
}
