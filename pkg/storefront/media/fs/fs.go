package fs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/media"
)

// ErrObjectNotFound is returned when no file exists for an identifier.
var ErrObjectNotFound = errors.New("object not found")

// Backend is a filesystem implementation of the storefront.MediaStore interface
type Backend struct {
	mu        sync.RWMutex
	baseDir   string
	urlPrefix string
}

// Config options for the filesystem backend
type Config struct {
	BaseDir   string // Base directory for storing files
	URLPrefix string // Public URL prefix the files are served under
}

// New creates a new filesystem media backend
func New(config Config) (*Backend, error) {
	if config.BaseDir == "" {
		return nil, errors.New("base directory is required")
	}

	if err := os.MkdirAll(config.BaseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Backend{
		baseDir:   config.BaseDir,
		urlPrefix: config.URLPrefix,
	}, nil
}

var _ storefront.MediaStore = (*Backend)(nil)

// Upload writes content to a new file named after a fresh identifier
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params storefront.UploadParams) (*storefront.MediaObject, error) {
	id := media.NewIdentifier()
	name := media.ObjectName(id, params.Filename)
	filePath := filepath.Join(b.baseDir, name)

	b.mu.Lock()
	defer b.mu.Unlock()

	file, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	if _, err := io.Copy(file, reader); err != nil {
		file.Close()
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to close file: %w", err)
	}

	return &storefront.MediaObject{
		Identifier: id,
		SecureURL:  media.JoinURL(b.urlPrefix, name),
	}, nil
}

// Delete removes the file stored for identifier
func (b *Backend) Delete(ctx context.Context, identifier string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	filePath, err := b.find(identifier)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Open opens the file stored for identifier and detects its content type
func (b *Backend) Open(ctx context.Context, identifier string) (io.ReadCloser, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	filePath, err := b.find(identifier)
	if err != nil {
		return nil, "", err
	}

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return nil, "", ErrObjectNotFound
	} else if err != nil {
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}

	contentType := "application/octet-stream"
	buffer := make([]byte, 512)
	if n, err := file.Read(buffer); err == nil || n > 0 {
		contentType = http.DetectContentType(buffer[:n])
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		file.Close()
		return nil, "", fmt.Errorf("failed to rewind file: %w", err)
	}
	return file, contentType, nil
}

func (b *Backend) find(identifier string) (string, error) {
	if identifier == "" || identifier != filepath.Base(identifier) || strings.ContainsAny(identifier, "*?[\\") {
		return "", ErrObjectNotFound
	}
	matches, err := filepath.Glob(filepath.Join(b.baseDir, identifier+"*"))
	if err != nil {
		return "", fmt.Errorf("failed to look up file: %w", err)
	}
	for _, m := range matches {
		base := filepath.Base(m)
		if base == identifier || base[len(identifier)] == '.' {
			return m, nil
		}
	}
	return "", ErrObjectNotFound
}
