package storefront

import (
	"path"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewID returns a fresh record identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed record identifier.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// ImageIdentifier derives the media identifier from a secure image URL:
// the last path segment without its extension.
func ImageIdentifier(imageURL string) string {
	if imageURL == "" {
		return ""
	}
	if i := strings.IndexAny(imageURL, "?#"); i >= 0 {
		imageURL = imageURL[:i]
	}
	base := path.Base(imageURL)
	if base == "." || base == "/" {
		return ""
	}
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return base
}
