package filestorage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	base := t.TempDir()
	ls, err := NewLocalStorage(base, zerolog.Nop())
	require.NoError(t, err)
	ls.now = func() time.Time { return time.Date(2025, 3, 9, 23, 0, 0, 0, time.UTC) }

	rel, err := ls.Save("students.xlsx", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "2025-03-09"+string(filepath.Separator)))
	assert.Equal(t, ".xlsx", filepath.Ext(rel))

	data, err := os.ReadFile(filepath.Join(base, rel))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	require.NoError(t, ls.Delete(rel))
	_, err = os.Stat(filepath.Join(base, rel))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ls.Delete(rel), "deleting twice is fine")
}

func TestLocalStorage_DeleteRejectsEscapes(t *testing.T) {
	ls, err := NewLocalStorage(t.TempDir(), zerolog.Nop())
	require.NoError(t, err)

	assert.Error(t, ls.Delete("../outside.csv"))
	assert.Error(t, ls.Delete("/etc/passwd"))
}
