package fsutil

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestCopyFile_CreatesParents(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/src/a.txt", []byte("hello"), 0o644))

	require.NoError(t, CopyFile(fs, "/src/a.txt", "/out/deep/a.txt"))

	data, err := afero.ReadFile(fs, "/out/deep/a.txt")
	require.NoError(t, err)
	require.Equal(t, "hello", string(data))
}

func TestCopyFile_Truncates(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/a", []byte("new"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/b", []byte("much longer old content"), 0o644))

	require.NoError(t, CopyFile(fs, "/a", "/b"))

	data, err := afero.ReadFile(fs, "/b")
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestCopyTree_SkipsFiltered(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/content/index.md", []byte("# hi"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/content/img/logo.png", []byte("png"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/content/.git/HEAD", []byte("ref"), 0o644))

	skip := func(rel string, dir bool) bool {
		return strings.HasSuffix(rel, ".md") || (dir && rel == ".git")
	}
	require.NoError(t, CopyTree(fs, "/content", "/out", skip))

	ok, err := afero.Exists(fs, filepath.Join("/out", "img", "logo.png"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = afero.Exists(fs, filepath.Join("/out", "index.md"))
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = afero.Exists(fs, filepath.Join("/out", ".git", "HEAD"))
	require.NoError(t, err)
	require.False(t, ok)
}
