// Package upload stores recipe images on local disk.
package upload

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"recipebox/internal/models"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/uploads/"

// File is one uploaded image held in memory.
type File struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Store validates images and writes them to dir as recipe-<uuid><ext>.
type Store struct {
	dir      string
	maxBytes int64
	maxFiles int
}

// NewStore creates a Store. maxBytes bounds each file, maxFiles the count per call.
func NewStore(dir string, maxBytes int64, maxFiles int) *Store {
	return &Store{dir: dir, maxBytes: maxBytes, maxFiles: maxFiles}
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// MaxBytes is the per-file size limit.
func (s *Store) MaxBytes() int64 { return s.maxBytes }

// ReadMultipart loads headers into memory, rejecting any file over the size limit.
func (s *Store) ReadMultipart(headers []*multipart.FileHeader) ([]File, error) {
	if len(headers) > s.maxFiles {
		return nil, models.NewValidationError(fmt.Sprintf("Too many files (max %d)", s.maxFiles))
	}
	files := make([]File, 0, len(headers))
	for _, h := range headers {
		if h.Size > s.maxBytes {
			return nil, models.NewValidationError(fmt.Sprintf("File %s too large (max %dMB)", h.Filename, s.maxBytes/(1024*1024)))
		}
		f, err := h.Open()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		content, err := io.ReadAll(io.LimitReader(f, s.maxBytes+1))
		_ = f.Close()
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		files = append(files, File{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Content:     content,
		})
	}
	return files, nil
}

// Save validates every file before writing any, then returns their public URIs
// in input order. On a write failure already written files are removed.
func (s *Store) Save(files []File) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	if len(files) > s.maxFiles {
		return nil, models.NewValidationError(fmt.Sprintf("Too many files (max %d)", s.maxFiles))
	}

	exts := make([]string, len(files))
	for i, f := range files {
		ext, err := s.check(f)
		if err != nil {
			return nil, err
		}
		exts[i] = ext
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, models.NewInternalError(err)
	}

	uris := make([]string, 0, len(files))
	written := make([]string, 0, len(files))
	for i, f := range files {
		name := "recipe-" + uuid.NewString() + exts[i]
		full := filepath.Join(s.dir, name)
		if err := os.WriteFile(full, f.Content, 0o644); err != nil {
			for _, p := range written {
				_ = os.Remove(p)
			}
			return nil, models.NewInternalError(err)
		}
		written = append(written, full)
		uris = append(uris, PublicPrefix+name)
	}
	return uris, nil
}

// Remove deletes files previously returned by Save. Unknown URIs are ignored.
func (s *Store) Remove(uris []string) {
	for _, uri := range uris {
		name, ok := strings.CutPrefix(uri, PublicPrefix)
		if !ok || name != path.Base(name) {
			continue
		}
		_ = os.Remove(filepath.Join(s.dir, name))
	}
}

// check returns the canonical extension for f, or a validation error.
func (s *Store) check(f File) (string, error) {
	if len(f.Content) == 0 {
		return "", models.NewValidationError("Empty file")
	}
	if int64(len(f.Content)) > s.maxBytes {
		return "", models.NewValidationError(fmt.Sprintf("File %s too large (max %dMB)", f.Filename, s.maxBytes/(1024*1024)))
	}

	ext := strings.ToLower(filepath.Ext(f.Filename))
	wantFormat, ok := formatForExt[ext]
	if !ok {
		return "", models.NewValidationError("Only jpg, png and webp images are allowed")
	}

	detected := http.DetectContentType(f.Content)
	if detected != mimeForFormat[wantFormat] {
		return "", models.NewValidationError("Image content does not match its extension")
	}

	if _, format, err := image.DecodeConfig(bytes.NewReader(f.Content)); err != nil || format != wantFormat {
		return "", models.NewValidationError("Invalid image file")
	}

	if wantFormat == "jpeg" {
		ext = ".jpg"
	}
	return ext, nil
}

var formatForExt = map[string]string{
	".jpg":  "jpeg",
	".jpeg": "jpeg",
	".png":  "png",
	".webp": "webp",
}

var mimeForFormat = map[string]string{
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"webp": "image/webp",
}
