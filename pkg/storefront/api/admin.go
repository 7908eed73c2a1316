package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

// DashboardResponse is the admin landing payload
type DashboardResponse struct {
	Username string `json:"username"`
	storefront.DashboardStats
}

// LoginForm reports whether a session is already active
func (h *Handler) LoginForm(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session.current(r.Context()); ok {
		flash(w, r, http.StatusOK, "Already logged in.", "/admin/dashboard", nil)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"page":   "login",
		"fields": []string{"username", "password"},
	})
}

// Login checks credentials and starts a session
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.session.current(r.Context()); ok {
		flash(w, r, http.StatusOK, "Already logged in.", "/admin/dashboard", nil)
		return
	}
	if err := parseForm(w, r); err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid form submission.", "/admin/login", nil)
		return
	}

	user, err := h.admin.Authenticate(r.Context(), r.FormValue("username"), r.FormValue("password"))
	if err != nil {
		h.fail(w, r, err, "user", "/admin/login")
		return
	}
	if err := h.session.issue(w, user); err != nil {
		h.fail(w, r, err, "user", "/admin/login")
		return
	}

	h.logger.Info("Admin logged in", "username", user.Username)
	flash(w, r, http.StatusOK, "Login successful!", "/admin/dashboard", nil)
}

// Logout ends the session and revokes its token
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.session.revoke(r.Context()); err != nil {
		h.logger.Error("Failed to revoke session", "error", err)
	}
	h.session.clear(w)
	flash(w, r, http.StatusOK, "You have been logged out.", "/admin/login", nil)
}

// Dashboard returns the product and post counts
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Dashboard(r.Context())
	if err != nil {
		h.fail(w, r, err, "dashboard", "")
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	render.JSON(w, r, DashboardResponse{Username: principal.Username, DashboardStats: *stats})
}

// AdminListProducts returns every product for management
func (h *Handler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	h.ListProducts(w, r)
}

// AdminCreateProduct adds a product with an optional image
func (h *Handler) AdminCreateProduct(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid form submission.", "/admin/products", nil)
		return
	}
	upload, closeUpload, err := formImage(r)
	if err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid image upload.", "", nil)
		return
	}
	defer closeUpload()

	product, err := h.catalog.CreateProduct(r.Context(), productFields(r), upload)
	if err != nil {
		h.fail(w, r, err, "product", "/admin/products")
		return
	}
	flash(w, r, http.StatusCreated, "Product added successfully!", "/admin/products", product)
}

// AdminEditProductForm returns the product being edited
func (h *Handler) AdminEditProductForm(w http.ResponseWriter, r *http.Request) {
	product, err := h.catalog.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "product", "/admin/products")
		return
	}
	render.JSON(w, r, product)
}

// AdminUpdateProduct rewrites a product and optionally replaces its image
func (h *Handler) AdminUpdateProduct(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid form submission.", "/admin/products", nil)
		return
	}
	upload, closeUpload, err := formImage(r)
	if err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid image upload.", "", nil)
		return
	}
	defer closeUpload()

	product, err := h.catalog.UpdateProduct(r.Context(), chi.URLParam(r, "id"), productFields(r), upload)
	if err != nil {
		h.fail(w, r, err, "product", "/admin/products")
		return
	}
	flash(w, r, http.StatusOK, "Product updated successfully!", "/admin/products", product)
}

// AdminDeleteProduct removes a product and its image
func (h *Handler) AdminDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "product", "/admin/products")
		return
	}
	flash(w, r, http.StatusOK, "Product deleted successfully!", "/admin/products", nil)
}

// AdminListPosts returns every post for management
func (h *Handler) AdminListPosts(w http.ResponseWriter, r *http.Request) {
	h.ListPosts(w, r)
}

// AdminCreatePost publishes a post authored by the current admin by default
func (h *Handler) AdminCreatePost(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid form submission.", "/admin/blog", nil)
		return
	}
	upload, closeUpload, err := formImage(r)
	if err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid image upload.", "", nil)
		return
	}
	defer closeUpload()

	principal, _ := PrincipalFromContext(r.Context())
	post, err := h.content.CreatePost(r.Context(), principal, postFields(r), upload)
	if err != nil {
		h.fail(w, r, err, "blog post", "/admin/blog")
		return
	}
	flash(w, r, http.StatusCreated, "Blog post added successfully!", "/admin/blog", post)
}

// AdminEditPostForm returns the post being edited
func (h *Handler) AdminEditPostForm(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err, "blog post", "/admin/blog")
		return
	}
	render.JSON(w, r, post)
}

// AdminUpdatePost rewrites a post and optionally replaces its image
func (h *Handler) AdminUpdatePost(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid form submission.", "/admin/blog", nil)
		return
	}
	upload, closeUpload, err := formImage(r)
	if err != nil {
		flash(w, r, http.StatusBadRequest, "Invalid image upload.", "", nil)
		return
	}
	defer closeUpload()

	post, err := h.content.UpdatePost(r.Context(), chi.URLParam(r, "id"), postFields(r), upload)
	if err != nil {
		h.fail(w, r, err, "blog post", "/admin/blog")
		return
	}
	flash(w, r, http.StatusOK, "Blog post updated successfully!", "/admin/blog", post)
}

// AdminDeletePost removes a post and its image
func (h *Handler) AdminDeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.content.DeletePost(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err, "blog post", "/admin/blog")
		return
	}
	flash(w, r, http.StatusOK, "Blog post deleted successfully!", "/admin/blog", nil)
}
