package upload

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("only jpg, jpeg or png images are allowed")
	ErrTooLarge        = errors.New("image exceeds the maximum allowed size")
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
}

// Store writes validated image uploads under a base directory, one
// subdirectory per resource ("postagens", "usuarios").
type Store struct {
	baseDir  string
	maxBytes int64
}

func NewStore(baseDir string, maxBytes int64) *Store {
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}

	return &Store{
		baseDir:  baseDir,
		maxBytes: maxBytes,
	}
}

// Save validates and stores one uploaded image, returning its path
// relative to the base directory. Nothing is written when validation
// fails.
func (s *Store) Save(resource string, fh *multipart.FileHeader) (string, error) {
	ext := strings.ToLower(filepath.Ext(fh.Filename))

	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", ErrUnsupportedType
	}

	if fh.Size > s.maxBytes {
		return "", ErrTooLarge
	}

	src, err := fh.Open()

	if err != nil {
		return "", err
	}

	defer src.Close()

	// sniff the real content type, the extension alone is not trusted
	head := make([]byte, 512)

	n, err := src.Read(head)

	if err != nil && err != io.EOF {
		return "", err
	}

	contentType := http.DetectContentType(head[:n])

	if _, ok := allowedContentTypes[contentType]; !ok {
		return "", ErrUnsupportedType
	}

	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	dir := filepath.Join(s.baseDir, resource)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	// timestamp plus random suffix keeps names collision resistant
	name := strconv.FormatInt(time.Now().UnixNano(), 10) + "-" + uuid.NewString()[:8] + ext

	dstPath := filepath.Join(dir, name)

	dst, err := os.Create(dstPath)

	if err != nil {
		return "", err
	}

	defer dst.Close()

	if _, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1)); err != nil {
		os.Remove(dstPath)
		return "", err
	}

	return filepath.ToSlash(filepath.Join(resource, name)), nil
}

// Remove deletes a previously stored file, used to roll back an upload
// whose record update failed.
func (s *Store) Remove(relPath string) error {
	return os.Remove(filepath.Join(s.baseDir, filepath.FromSlash(relPath)))
}
