package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindFilesByExtension(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0o755))
	for _, name := range []string{"lamp.prefab.hcl", "notes.txt", "nested/spot.prefab.hcl"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := FindFilesByExtension(dir, ".prefab.hcl")

	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "lamp.prefab.hcl"),
		filepath.Join(dir, "nested", "spot.prefab.hcl"),
	}, files)
}

func TestFindFilesByExtension_EmptyExtensionPanics(t *testing.T) {
	t.Parallel()

	assert.Panics(t, func() {
		_, _ = FindFilesByExtension(".", "")
	})
}

func TestResolveSource(t *testing.T) {
	t.Parallel()

	got := ResolveSource(filepath.Join("scenes", "lamp.prefab.hcl"), "../prefabs/spot.prefab.hcl")
	assert.Equal(t, filepath.Join("prefabs", "spot.prefab.hcl"), got)

	abs := string(filepath.Separator) + filepath.Join("assets", "spot.prefab.hcl")
	assert.Equal(t, abs, ResolveSource("anything.prefab.hcl", abs))
}
