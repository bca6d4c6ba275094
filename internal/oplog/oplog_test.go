package oplog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesOwnAndLastFiles(t *testing.T) {
	dir := t.TempDir()

	l, err := New(dir, "01-01-2026_10.00.00_DOGE")
	require.NoError(t, err)

	l.Log("buy order placed")
	l.Warn("partial fill")
	l.Close()

	own, err := os.ReadFile(filepath.Join(dir, "01-01-2026_10.00.00_DOGE.log"))
	require.NoError(t, err)
	last, err := os.ReadFile(filepath.Join(dir, "last-operation.log"))
	require.NoError(t, err)

	assert.Contains(t, string(own), "buy order placed")
	assert.Contains(t, string(own), "WARN")
	assert.Equal(t, string(own), string(last))
}

func TestNewTruncatesLastOperationFile(t *testing.T) {
	dir := t.TempDir()

	first, err := New(dir, "first_DOGE")
	require.NoError(t, err)
	first.Log("old operation line")
	first.Close()

	second, err := New(dir, "second_SHIB")
	require.NoError(t, err)
	second.Log("new operation line")
	second.Close()

	last, err := os.ReadFile(filepath.Join(dir, "last-operation.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(last), "old operation line")
	assert.Contains(t, string(last), "new operation line")
}

func TestDiscardLoggerIsSafe(t *testing.T) {
	l := NewDiscard()
	l.Log("nothing")
	l.Success("nothing")
	l.Warn("nothing")
	l.Error("nothing")
	l.LineBreak()
	l.Close()
}
