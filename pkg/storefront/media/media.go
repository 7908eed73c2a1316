// Package media holds helpers shared by the MediaStore backends.
package media

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// NewIdentifier returns a fresh media identifier. Identifiers never contain a
// dot, so the identifier survives being read back from a URL's last segment.
func NewIdentifier() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Extension returns the lower-cased extension of an uploaded filename,
// including the leading dot, or "" when there is none.
func Extension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "." || strings.ContainsAny(ext, "/\\?#") {
		return ""
	}
	return ext
}

// ObjectName is the stored name of a media object.
func ObjectName(identifier, filename string) string {
	return identifier + Extension(filename)
}

// JoinURL appends name to a public URL prefix.
func JoinURL(prefix, name string) string {
	if prefix == "" {
		return "/" + name
	}
	return strings.TrimRight(prefix, "/") + "/" + name
}
