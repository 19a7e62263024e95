package storage

import (
	"CodeCollab/models/postgres"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrTooLarge    = errors.New("file too large")
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

// FileStore keeps uploaded attachments flat in one directory under random names
type FileStore struct {
	dir     string
	maxSize int64
}

func NewFileStore(dir string, maxSize int64) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating upload dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir, maxSize: maxSize}, nil
}

// Save stores r and returns its attachment record. The stored name keeps the
// extension detected from the content, not the one supplied by the client.
func (f *FileStore) Save(originalName string, r io.Reader) (postgres.Attachment, error) {
	data, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return postgres.Attachment{}, fmt.Errorf("error reading upload: %w", err)
	}
	if int64(len(data)) > f.maxSize {
		return postgres.Attachment{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, f.maxSize)
	}

	mtype := mimetype.Detect(data)
	name := uuid.NewString() + mtype.Extension()
	if err := os.WriteFile(filepath.Join(f.dir, name), data, 0o644); err != nil {
		return postgres.Attachment{}, fmt.Errorf("error writing upload: %w", err)
	}
	return postgres.Attachment{
		Name:     filepath.Base(originalName),
		Path:     name,
		MimeType: mtype.String(),
		Size:     int64(len(data)),
	}, nil
}

// Open returns the stored file called name together with its detected mime type
func (f *FileStore) Open(name string) (*os.File, string, error) {
	clean := filepath.Base(filepath.Clean("/" + name))
	if name == "" || clean != name || strings.HasPrefix(clean, ".") {
		return nil, "", ErrInvalidName
	}
	file, err := os.Open(filepath.Join(f.dir, clean))
	if errors.Is(err, os.ErrNotExist) {
		return nil, "", ErrNotFound
	}
	if err != nil {
		return nil, "", err
	}

	// files shorter than the sniffed head are fine
	head := make([]byte, 3072)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		file.Close()
		return nil, "", fmt.Errorf("error reading %s: %w", clean, err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, "", err
	}
	return file, mimetype.Detect(head[:n]).String(), nil
}
