package storefront_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/repo/memory"
)

// recordingMedia logs every call so tests can assert ordering.
type recordingMedia struct {
	mu         sync.Mutex
	calls      []string
	next       int
	failUpload error
	failDelete error
}

func (m *recordingMedia) Upload(ctx context.Context, r io.Reader, params storefront.UploadParams) (*storefront.MediaObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "upload:"+params.Filename)
	if m.failUpload != nil {
		return nil, m.failUpload
	}
	if _, err := io.ReadAll(r); err != nil {
		return nil, err
	}
	m.next++
	id := fmt.Sprintf("img%d", m.next)
	return &storefront.MediaObject{Identifier: id, SecureURL: "https://media.test/v1/" + id + ".jpg"}, nil
}

func (m *recordingMedia) Delete(ctx context.Context, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "delete:"+identifier)
	return m.failDelete
}

func (m *recordingMedia) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

type countingObserver struct {
	mu           sync.Mutex
	uploadFailed []string
	deleteFailed []string
	mailFailures int
}

func (o *countingObserver) ImageUploadFailed(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.uploadFailed = append(o.uploadFailed, op)
}

func (o *countingObserver) ImageDeleteFailed(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleteFailed = append(o.deleteFailed, op)
}

func (o *countingObserver) MailSendFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mailFailures++
}

// stepClock advances one minute on every call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

type fixture struct {
	repo     *memory.Repository
	media    *recordingMedia
	observer *countingObserver
	clock    *stepClock
	catalog  *storefront.CatalogService
	content  *storefront.ContentService
	admin    *storefront.AdminService
	sitemap  *storefront.SiteIndexBuilder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repo:     memory.New(),
		media:    &recordingMedia{},
		observer: &countingObserver{},
		clock:    newStepClock(),
	}
	opts := []storefront.Option{
		storefront.WithRepository(f.repo),
		storefront.WithMediaStore(f.media),
		storefront.WithObserver(f.observer),
		storefront.WithClock(f.clock.Now),
		storefront.WithBcryptCost(bcrypt.MinCost),
	}

	var err error
	f.catalog, err = storefront.NewCatalogService(opts...)
	require.NoError(t, err)
	f.content, err = storefront.NewContentService(opts...)
	require.NoError(t, err)
	f.admin, err = storefront.NewAdminService(opts...)
	require.NoError(t, err)
	f.sitemap, err = storefront.NewSiteIndexBuilder(opts...)
	require.NoError(t, err)
	return f
}

func image(name string) *storefront.ImageUpload {
	return &storefront.ImageUpload{Filename: name, ContentType: "image/jpeg", Reader: strings.NewReader("jpeg-bytes")}
}
