package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

const (
	homeProductLimit = 4
	homePostLimit    = 3
)

// HomeResponse is the landing page payload
type HomeResponse struct {
	Products  []*storefront.Product  `json:"products"`
	BlogPosts []*storefront.BlogPost `json:"blog_posts"`
}

// Home returns the first products and the latest posts
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), storefront.ListOptions{Limit: homeProductLimit})
	if err != nil {
		h.fail(w, r, err, "product", "")
		return
	}
	posts, err := h.content.ListPosts(r.Context(), storefront.ListOptions{Limit: homePostLimit})
	if err != nil {
		h.fail(w, r, err, "blog post", "")
		return
	}
	render.JSON(w, r, HomeResponse{Products: products, BlogPosts: posts})
}

// Search runs the site-wide text search over products and posts
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	results, err := storefront.Search(r.Context(), h.catalog, h.content, r.URL.Query().Get("query"))
	if err != nil {
		h.fail(w, r, err, "result", "")
		return
	}
	render.JSON(w, r, results)
}

// About returns the static about page
func (h *Handler) About(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]string{"page": "about"})
}

// ContactForm describes the contact form
func (h *Handler) ContactForm(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"page":   "contact",
		"fields": []string{"name", "email", "message"},
	})
}

// SubmitContact relays a contact form submission by mail
func (h *Handler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	if h.contact == nil {
		flash(w, r, http.StatusServiceUnavailable, "Contact form is not available.", "/contact", nil)
		return
	}
	if err := parseForm(w, r); err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid form submission.", "/contact", nil)
		return
	}

	err := h.contact.Submit(r.Context(), storefront.ContactMessage{
		Name:    r.FormValue("name"),
		Email:   r.FormValue("email"),
		Message: r.FormValue("message"),
	})
	if err != nil {
		h.fail(w, r, err, "message", "/contact")
		return
	}
	flash(w, r, http.StatusOK, "Your message has been sent! We will get back to you soon.", "/contact", nil)
}

// Cart returns the placeholder cart
func (h *Handler) Cart(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"items": []interface{}{},
		"total": "0",
	})
}

// ListProducts returns every product in store order
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListProducts(r.Context(), storefront.ListOptions{})
	if err != nil {
		h.fail(w, r, err, "product", "")
		return
	}
	render.JSON(w, r, map[string]interface{}{"products": products})
}

// GetProduct returns a product with its reviews and average rating
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetProductWithReviews(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "product", "/products")
		return
	}
	render.JSON(w, r, detail)
}

// AddReview appends a review to a product
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := parseForm(w, r); err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid form submission.", "/product/"+id, nil)
		return
	}

	review, err := h.catalog.AddReview(r.Context(), id, reviewInput(r))
	if err != nil {
		if errors.Is(err, storefront.ErrValidation) {
			flash(w, r, http.StatusUnprocessableEntity,
				"Name, rating (1-5), and comment are required for a review.", "/product/"+id, nil)
			return
		}
		h.fail(w, r, err, "product", "/products")
		return
	}
	flash(w, r, http.StatusCreated, "Your review has been added!", "/product/"+id, review)
}

// ListPosts returns every post newest first
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListPosts(r.Context(), storefront.ListOptions{})
	if err != nil {
		h.fail(w, r, err, "blog post", "")
		return
	}
	render.JSON(w, r, map[string]interface{}{"posts": posts})
}

// GetPost returns a single post
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "blog post", "/blog")
		return
	}
	render.JSON(w, r, post)
}

// Sitemap renders the XML site index
func (h *Handler) Sitemap(w http.ResponseWriter, r *http.Request) {
	entries, err := h.siteIndex.BuildSiteIndex(r.Context(), h.siteURL(r))
	if err != nil {
		h.fail(w, r, err, "sitemap", "")
		return
	}
	body, err := storefront.MarshalSitemap(entries)
	if err != nil {
		h.fail(w, r, err, "sitemap", "")
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Robots renders robots.txt pointing crawlers at the sitemap
func (h *Handler) Robots(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, fmt.Sprintf("User-agent: *\nAllow: /\nDisallow: /admin/\n\nSitemap: %s/sitemap.xml\n", h.siteURL(r)))
}

// Media streams a locally hosted image
func (h *Handler) Media(w http.ResponseWriter, r *http.Request) {
	identifier := storefront.ImageIdentifier(chi.URLParam(r, "name"))
	rc, contentType, err := h.media.Open(r.Context(), identifier)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	if contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("Failed to stream media", "identifier", identifier, "error", err)
	}
}
