package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)

	dir := filepath.Join(t.TempDir(), "charts")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// no leftover probe file
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestValidateFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		err := v.ValidateFile(filepath.Join(dir, "missing.csv"))
		assert.ErrorContains(t, err, "does not exist")
	})

	t.Run("directory instead of file", func(t *testing.T) {
		err := v.ValidateFile(dir)
		assert.ErrorContains(t, err, "is a directory")
	})

	t.Run("readable file", func(t *testing.T) {
		path := filepath.Join(dir, "math.csv")
		require.NoError(t, os.WriteFile(path, []byte("id,grade\n"), 0644))
		assert.NoError(t, v.ValidateFile(path))
	})
}

func TestValidateGradeFile(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	t.Run("office temp file rejected", func(t *testing.T) {
		path := filepath.Join(dir, "~$math.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("junk"), 0644))
		assert.ErrorContains(t, v.ValidateGradeFile(path), "temporary")
	})

	t.Run("empty file rejected", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		require.NoError(t, os.WriteFile(path, nil, 0644))
		assert.ErrorContains(t, v.ValidateGradeFile(path), "empty")
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(dir, "physics.csv")
		require.NoError(t, os.WriteFile(path, []byte("id,grade\n2021,90\n"), 0644))
		assert.NoError(t, v.ValidateGradeFile(path))
	})
}
