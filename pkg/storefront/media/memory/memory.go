package memory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/media"
)

// ErrObjectNotFound is returned when deleting or reading an unknown identifier.
var ErrObjectNotFound = errors.New("object not found")

type object struct {
	name        string
	contentType string
	data        []byte
}

// Backend is an in-memory implementation of the storefront.MediaStore interface
type Backend struct {
	mu        sync.RWMutex
	objects   map[string]object
	urlPrefix string
}

// New creates a new in-memory media backend. Secure URLs are built from urlPrefix.
func New(urlPrefix string) *Backend {
	return &Backend{
		objects:   make(map[string]object),
		urlPrefix: urlPrefix,
	}
}

var _ storefront.MediaStore = (*Backend)(nil)

// Upload stores content in memory
func (b *Backend) Upload(ctx context.Context, reader io.Reader, params storefront.UploadParams) (*storefront.MediaObject, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}

	id := media.NewIdentifier()
	name := media.ObjectName(id, params.Filename)

	b.mu.Lock()
	b.objects[id] = object{name: name, contentType: params.ContentType, data: data}
	b.mu.Unlock()

	return &storefront.MediaObject{
		Identifier: id,
		SecureURL:  media.JoinURL(b.urlPrefix, name),
	}, nil
}

// Delete removes content from memory
func (b *Backend) Delete(ctx context.Context, identifier string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.objects[identifier]; !ok {
		return ErrObjectNotFound
	}
	delete(b.objects, identifier)
	return nil
}

// Open returns the stored bytes and content type of an identifier.
func (b *Backend) Open(ctx context.Context, identifier string) (io.ReadCloser, string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	obj, ok := b.objects[identifier]
	if !ok {
		return nil, "", ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), obj.contentType, nil
}

// Len reports how many objects are stored.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.objects)
}

// Has reports whether identifier is stored.
func (b *Backend) Has(identifier string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.objects[identifier]
	return ok
}
