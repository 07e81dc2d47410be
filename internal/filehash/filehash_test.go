package filehash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSum(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	b := filepath.Join(dir, "b")
	c := filepath.Join(dir, "c")
	require.NoError(t, os.WriteFile(a, []byte("level data"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("level data"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("level date"), 0o644))

	da, err := Sum(a)
	require.NoError(t, err)
	assert.Len(t, string(da), 64)

	fromReader, err := SumReader(strings.NewReader("level data"))
	require.NoError(t, err)
	assert.Equal(t, da, fromReader)

	db, err := Sum(b)
	require.NoError(t, err)
	assert.Equal(t, da, db)

	dc, err := Sum(c)
	require.NoError(t, err)
	assert.NotEqual(t, da, dc)
}

func TestSum_MissingFile(t *testing.T) {
	_, err := Sum(filepath.Join(t.TempDir(), "nope"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
