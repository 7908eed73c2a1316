package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/render"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

// Flash is the body of every mutating response and every error. Redirect
// names the page a browser client should move to next.
type Flash struct {
	Message  string      `json:"message"`
	Redirect string      `json:"redirect,omitempty"`
	Data     interface{} `json:"data,omitempty"`
}

func flash(w http.ResponseWriter, r *http.Request, status int, msg, redirect string, data interface{}) {
	render.Status(r, status)
	render.JSON(w, r, Flash{Message: msg, Redirect: redirect, Data: data})
}

// fail maps a service error onto a status code and flash message. noun names
// the record kind and fallback is the listing a client returns to.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, noun, fallback string) {
	var verr *storefront.ValidationError

	switch {
	case errors.Is(err, storefront.ErrInvalidIdentifier):
		flash(w, r, http.StatusBadRequest, "Invalid "+noun+".", fallback, nil)
	case errors.Is(err, storefront.ErrNotFound):
		flash(w, r, http.StatusNotFound, capitalize(noun)+" not found.", fallback, nil)
	case errors.As(err, &verr):
		flash(w, r, http.StatusUnprocessableEntity, capitalize(strings.ReplaceAll(verr.Field, "_", " "))+" "+verr.Reason+".", "", nil)
	case errors.Is(err, storefront.ErrImageUploadFailed):
		h.logger.Error("Image upload failed", "path", r.URL.Path, "error", err)
		flash(w, r, http.StatusBadGateway, "Failed to upload image.", "", nil)
	case errors.Is(err, storefront.ErrSendFailed):
		flash(w, r, http.StatusBadGateway, "Failed to send message. Please try again later.", "", nil)
	case errors.Is(err, storefront.ErrAuthFailed):
		flash(w, r, http.StatusUnauthorized, "Login failed. Check your username and password.", "", nil)
	default:
		h.logger.Error("Request failed", "path", r.URL.Path, "error", err)
		flash(w, r, http.StatusInternalServerError, "Internal server error.", "", nil)
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
