package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"

	"github.com/tendant/simple-storefront/pkg/storefront"
	"github.com/tendant/simple-storefront/pkg/storefront/sessions"
)

// MediaOpener serves locally hosted images. The memory and fs media backends
// implement it; remote stores such as S3 serve their own URLs.
type MediaOpener interface {
	Open(ctx context.Context, identifier string) (io.ReadCloser, string, error)
}

// Config wires the services behind the HTTP surface
type Config struct {
	Catalog   *storefront.CatalogService
	Content   *storefront.ContentService
	Admin     *storefront.AdminService
	Contact   *storefront.ContactService
	SiteIndex *storefront.SiteIndexBuilder

	// Media is optional. When set, GET {MediaPath}/{name} serves uploaded images.
	Media MediaOpener
	// MediaPath defaults to /media.
	MediaPath string

	// BaseURL is the public site root used in the sitemap. When empty it is
	// derived from each request.
	BaseURL string

	SessionSecret string
	SessionTTL    time.Duration
	SecureCookies bool

	// Revocations records logged out sessions. Defaults to an in-process store.
	Revocations sessions.Store

	Logger *slog.Logger
}

// Handler serves the storefront, blog and admin routes
type Handler struct {
	catalog   *storefront.CatalogService
	content   *storefront.ContentService
	admin     *storefront.AdminService
	contact   *storefront.ContactService
	siteIndex *storefront.SiteIndexBuilder
	media     MediaOpener
	mediaPath string
	baseURL   string
	session   *session
	logger    *slog.Logger
}

// New creates a new handler
func New(cfg Config) (*Handler, error) {
	if cfg.Catalog == nil || cfg.Content == nil || cfg.Admin == nil || cfg.SiteIndex == nil {
		return nil, errors.New("catalog, content, admin and site index services are required")
	}
	if cfg.SessionSecret == "" {
		return nil, errors.New("session secret is required")
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 24 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Revocations == nil {
		cfg.Revocations = sessions.NewMemoryStore()
	}
	cfg.MediaPath = strings.TrimRight(cfg.MediaPath, "/")
	if cfg.MediaPath == "" {
		cfg.MediaPath = "/media"
	}
	if !strings.HasPrefix(cfg.MediaPath, "/") {
		cfg.MediaPath = "/" + cfg.MediaPath
	}

	return &Handler{
		catalog:   cfg.Catalog,
		content:   cfg.Content,
		admin:     cfg.Admin,
		contact:   cfg.Contact,
		siteIndex: cfg.SiteIndex,
		media:     cfg.Media,
		mediaPath: cfg.MediaPath,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		session: &session{
			auth:    jwtauth.New("HS256", []byte(cfg.SessionSecret), nil),
			ttl:     cfg.SessionTTL,
			secure:  cfg.SecureCookies,
			admin:   cfg.Admin,
			revoked: cfg.Revocations,
			logger:  cfg.Logger,
		},
		logger: cfg.Logger,
	}, nil
}

// Routes returns the public and admin routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.Home)
	r.Get("/search", h.Search)
	r.Get("/about", h.About)
	r.Get("/contact", h.ContactForm)
	r.Post("/contact", h.SubmitContact)
	r.Get("/cart", h.Cart)

	r.Get("/products", h.ListProducts)
	r.Get("/product/{id}", h.GetProduct)
	r.Post("/product/{id}/add_review", h.AddReview)

	r.Get("/blog", h.ListPosts)
	r.Get("/blog/{id}", h.GetPost)

	r.Get("/sitemap.xml", h.Sitemap)
	r.Get("/robots.txt", h.Robots)

	if h.media != nil {
		r.Get(h.mediaPath+"/{name}", h.Media)
	}

	r.Mount("/admin", h.adminRoutes())
	return r
}

func (h *Handler) adminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(jwtauth.Verify(h.session.auth, jwtauth.TokenFromCookie, jwtauth.TokenFromHeader))

	r.Get("/login", h.LoginForm)
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(h.session.require)

		r.Get("/logout", h.Logout)
		r.Post("/logout", h.Logout)
		r.Get("/dashboard", h.Dashboard)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.AdminListProducts)
			r.Post("/add", h.AdminCreateProduct)
			r.Get("/edit/{id}", h.AdminEditProductForm)
			r.Post("/edit/{id}", h.AdminUpdateProduct)
			r.Post("/delete/{id}", h.AdminDeleteProduct)
		})

		r.Route("/blog", func(r chi.Router) {
			r.Get("/", h.AdminListPosts)
			r.Post("/add", h.AdminCreatePost)
			r.Get("/edit/{id}", h.AdminEditPostForm)
			r.Post("/edit/{id}", h.AdminUpdatePost)
			r.Post("/delete/{id}", h.AdminDeletePost)
		})
	})
	return r
}

// siteURL is the public root used for absolute links
func (h *Handler) siteURL(r *http.Request) string {
	if h.baseURL != "" {
		return h.baseURL
	}
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}
