package upload

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"enquiry-backend/pkg/apperr"

	"github.com/google/uuid"
)

// Options bounds what an ingestion run will accept
type Options struct {
	Dir                 string
	MaxFiles            int
	MaxBytesPerFile     int64
	AllowedContentTypes []string // exact types, or family wildcards like "image/*"
}

const (
	DefaultMaxFiles        = 10
	DefaultMaxBytesPerFile = 10 << 20 // 10 MiB
)

// DiskStore persists uploaded attachments to a local directory. Stored names
// are generated server-side; the client-supplied filename only contributes
// its extension.
type DiskStore struct {
	opts Options
}

// NewDiskStore creates the upload directory if needed and returns a store
func NewDiskStore(opts Options) (*DiskStore, error) {
	if opts.Dir == "" {
		opts.Dir = "uploads"
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.MaxBytesPerFile <= 0 {
		opts.MaxBytesPerFile = DefaultMaxBytesPerFile
	}
	if len(opts.AllowedContentTypes) == 0 {
		opts.AllowedContentTypes = []string{"image/*"}
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir %s: %w", opts.Dir, err)
	}

	return &DiskStore{opts: opts}, nil
}

// Dir returns the directory files are stored under, for static serving
func (s *DiskStore) Dir() string {
	return s.opts.Dir
}

// SaveAll validates every part before persisting any byte, then writes all
// parts and returns the generated filenames in submission order. Ingestion is
// all-or-nothing: any validation or write failure leaves zero files behind.
func (s *DiskStore) SaveAll(files []*multipart.FileHeader) ([]string, error) {
	if len(files) == 0 {
		return []string{}, nil
	}
	if len(files) > s.opts.MaxFiles {
		return nil, apperr.Validation(fmt.Sprintf("too many files: %d (max %d)", len(files), s.opts.MaxFiles))
	}

	for _, fh := range files {
		if err := s.validate(fh); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.write(fh)
		if err != nil {
			s.Remove(names)
			return nil, apperr.Storage(err)
		}
		names = append(names, name)
	}

	return names, nil
}

// Remove deletes previously stored files, ignoring missing ones
func (s *DiskStore) Remove(names []string) {
	for _, name := range names {
		path := filepath.Join(s.opts.Dir, filepath.Base(name))
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to remove uploaded file %s: %v", path, err)
		}
	}
}

func (s *DiskStore) validate(fh *multipart.FileHeader) error {
	if fh.Size > s.opts.MaxBytesPerFile {
		return apperr.Validation(fmt.Sprintf("file %s exceeds size limit of %d bytes", fh.Filename, s.opts.MaxBytesPerFile))
	}

	f, err := fh.Open()
	if err != nil {
		return apperr.Storage(err)
	}
	defer f.Close()

	// Sniff the payload instead of trusting the declared Content-Type header
	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return apperr.Storage(err)
	}
	contentType := http.DetectContentType(buf[:n])

	if !s.allowed(contentType) {
		return apperr.Validation(fmt.Sprintf("file %s has unsupported content type %s", fh.Filename, contentType))
	}

	return nil
}

func (s *DiskStore) allowed(contentType string) bool {
	for _, allowed := range s.opts.AllowedContentTypes {
		if family, ok := strings.CutSuffix(allowed, "/*"); ok {
			if strings.HasPrefix(contentType, family+"/") {
				return true
			}
		} else if contentType == allowed {
			return true
		}
	}
	return false
}

func (s *DiskStore) write(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	name := uuid.New().String() + ext

	dst, err := os.Create(filepath.Join(s.opts.Dir, name))
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", err
	}

	return name, nil
}
