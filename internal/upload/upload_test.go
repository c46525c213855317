package upload

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// real magic bytes so content sniffing passes
var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jpegHeader = []byte{0xFF, 0xD8, 0xFF, 0xE0}
)

func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("imagem", filename)
	require.NoError(t, err)

	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())

	fh, err := func() (*multipart.FileHeader, error) {
		_, header, err := req.FormFile("imagem")
		return header, err
	}()
	require.NoError(t, err)

	return fh
}

func TestSaveValidJPEG(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 2<<20)

	// ~1 MiB jpg
	content := append(append([]byte{}, jpegHeader...), bytes.Repeat([]byte{0x00}, 1<<20)...)

	rel, err := store.Save("postagens", fileHeader(t, "foto.jpg", content))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rel, "postagens/"))
	assert.True(t, strings.HasSuffix(rel, ".jpg"))

	stored, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestSaveRejectsGIF(t *testing.T) {
	store := NewStore(t.TempDir(), 2<<20)

	_, err := store.Save("postagens", fileHeader(t, "anim.gif", []byte("GIF89a....")))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestSaveRejectsMismatchedContent(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 2<<20)

	// .png extension but not image bytes
	_, err := store.Save("postagens", fileHeader(t, "fake.png", []byte("<html>not an image</html>")))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	// nothing may be written on rejection
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestSaveRejectsOversized(t *testing.T) {
	store := NewStore(t.TempDir(), 2<<20)

	// ~3 MiB png
	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 3<<20)...)

	_, err := store.Save("postagens", fileHeader(t, "grande.png", content))
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestSaveGeneratesUniqueNames(t *testing.T) {
	store := NewStore(t.TempDir(), 2<<20)

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 64)...)

	a, err := store.Save("usuarios", fileHeader(t, "avatar.png", content))
	require.NoError(t, err)

	b, err := store.Save("usuarios", fileHeader(t, "avatar.png", content))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, 2<<20)

	content := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0x00}, 64)...)

	rel, err := store.Save("usuarios", fileHeader(t, "avatar.png", content))
	require.NoError(t, err)

	require.NoError(t, store.Remove(rel))

	_, err = os.Stat(filepath.Join(dir, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))
}
