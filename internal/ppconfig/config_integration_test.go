package ppconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdpp.yaml")
	content := `
scratch_bytes: 2048
merge_size: 8
list_size: 6
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	d, err := LoadDefaults(path)
	require.NoError(t, err)
	assert.Equal(t, 2048, d.ScratchBytes)
	assert.Equal(t, 8, d.MergeSize)
	assert.Equal(t, 6, d.ListSize)

	c := New()
	c.Apply(d)
	assert.Equal(t, 2048, c.ScratchBytes)
	assert.Equal(t, 8, c.MergeSize)
	assert.Equal(t, 6, c.ListSize)
}

func TestLoadDefaultsMissingFile(t *testing.T) {
	_, err := LoadDefaults("/nonexistent/path/pdpp.yaml")
	require.Error(t, err)
}

func TestLoadDefaultsPartial(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pdpp.yaml")
	require.NoError(t, os.WriteFile(path, []byte("merge_size: 16\n"), 0644))

	d, err := LoadDefaults(path)
	require.NoError(t, err)

	c := New()
	c.Apply(d)
	assert.Equal(t, defaultScratchBytes, c.ScratchBytes, "unset fields keep the factory default")
	assert.Equal(t, 16, c.MergeSize)
}
