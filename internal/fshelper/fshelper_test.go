package fshelper

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, body := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestParsePathDirAndZip(t *testing.T) {
	root := t.TempDir()
	photos := filepath.Join(root, "photos")
	require.NoError(t, os.Mkdir(photos, 0755))
	writeZip(t, filepath.Join(root, "takeout-001.zip"), map[string]string{"Takeout/a.jpg": "x"})
	writeZip(t, filepath.Join(root, "takeout-002.zip"), map[string]string{"Takeout/b.jpg": "y"})

	fsyss, err := ParsePath([]string{photos, filepath.Join(root, "takeout-*.zip")})
	require.NoError(t, err)
	t.Cleanup(func() { CloseAll(fsyss) })

	require.Len(t, fsyss, 3)
	assert.Equal(t, photos, fsyss[0].Name())
	assert.IsType(t, &DirFS{}, fsyss[0])
	assert.IsType(t, &ZipFS{}, fsyss[1])

	ok, err := Exists(fsyss[1], "Takeout/a.jpg")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParsePathErrors(t *testing.T) {
	root := t.TempDir()

	_, err := ParsePath([]string{filepath.Join(root, "missing")})
	assert.ErrorContains(t, err, "path does not exist")

	plain := filepath.Join(root, "notes.txt")
	require.NoError(t, os.WriteFile(plain, []byte("hi"), 0644))
	_, err = ParsePath([]string{plain})
	assert.ErrorContains(t, err, "unsupported file type")

	bad := filepath.Join(root, "broken.zip")
	require.NoError(t, os.WriteFile(bad, []byte("not a zip"), 0644))
	_, err = ParsePath([]string{bad})
	assert.ErrorContains(t, err, "error opening zip file")
}

func TestListImages(t *testing.T) {
	fsys := fstest.MapFS{
		"b.png":              {Data: []byte("x")},
		"album/a.JPG":        {Data: []byte("x")},
		"album/a.JPG.json":   {Data: []byte("{}")},
		"album/._a.JPG":      {Data: []byte("x")},
		".thumbnails/t.jpg":  {Data: []byte("x")},
		"video/clip.mp4":     {Data: []byte("x")},
		"deep/nested/c.webp": {Data: []byte("x")},
	}

	images, err := ListImages(fsys)
	require.NoError(t, err)
	assert.Equal(t, []string{"album/a.JPG", "b.png", "deep/nested/c.webp"}, images)

	ok, err := Exists(fsys, "video/missing.mp4")
	require.NoError(t, err)
	assert.False(t, ok)
}
