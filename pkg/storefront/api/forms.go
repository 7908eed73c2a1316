package api

import (
	"errors"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

// maxUploadSize bounds a form body including its image part
const maxUploadSize = 16 << 20

// parseForm accepts urlencoded and multipart bodies alike
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxUploadSize)
	}
	return r.ParseForm()
}

// formImage returns the optional "image" file part. The returned close
// function is never nil.
func formImage(r *http.Request) (*storefront.ImageUpload, func(), error) {
	noop := func() {}
	if r.MultipartForm == nil {
		return nil, noop, nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, noop, nil
	}
	if err != nil {
		return nil, noop, err
	}

	upload := &storefront.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Reader:      file,
	}
	return upload, func() { file.Close() }, nil
}

func productFields(r *http.Request) storefront.ProductFields {
	return storefront.ProductFields{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Price:       r.FormValue("price"),
		Category:    r.FormValue("category"),
	}
}

func postFields(r *http.Request) storefront.PostFields {
	return storefront.PostFields{
		Title:   r.FormValue("title"),
		Content: r.FormValue("content"),
		Author:  r.FormValue("author"),
	}
}

// reviewInput reads a review. A missing or malformed rating becomes 0 and is
// rejected by validation.
func reviewInput(r *http.Request) storefront.ReviewInput {
	rating, err := strconv.Atoi(strings.TrimSpace(r.FormValue("rating")))
	if err != nil {
		rating = 0
	}
	return storefront.ReviewInput{
		ReviewerName: r.FormValue("reviewer_name"),
		Rating:       rating,
		Comment:      r.FormValue("comment"),
	}
}
