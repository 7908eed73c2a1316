package storefront

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidIdentifier indicates a malformed identifier, detected before any store access
	ErrInvalidIdentifier = errors.New("invalid identifier")

	// ErrNotFound is the common cause of every not-found error below
	ErrNotFound = errors.New("not found")

	// ErrProductNotFound indicates a product was not found
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)

	// ErrPostNotFound indicates a blog post was not found
	ErrPostNotFound = fmt.Errorf("blog post %w", ErrNotFound)

	// ErrUserNotFound indicates an admin user was not found
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)

	// ErrValidation indicates missing or out-of-range user input
	ErrValidation = errors.New("validation failed")

	// ErrImageUploadFailed indicates the media store rejected an upload; no record was written
	ErrImageUploadFailed = errors.New("image upload failed")

	// ErrImageDeleteFailed indicates a best-effort image deletion failed
	ErrImageDeleteFailed = errors.New("image delete failed")

	// ErrSendFailed indicates the mail transport failed
	ErrSendFailed = errors.New("mail send failed")

	// ErrAuthFailed indicates bad login credentials
	ErrAuthFailed = errors.New("authentication failed")

	// ErrAdminExists indicates bootstrap was refused because an admin already exists
	ErrAdminExists = errors.New("admin user already exists")

	// ErrUsernameTaken indicates a duplicate username at insert
	ErrUsernameTaken = errors.New("username already taken")
)

// ValidationError names the offending input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// ProductError represents an error related to product operations
type ProductError struct {
	ProductID string
	Op        string
	Err       error
}

func (e *ProductError) Error() string {
	return fmt.Sprintf("product operation %s failed for product %s: %v", e.Op, e.ProductID, e.Err)
}

func (e *ProductError) Unwrap() error {
	return e.Err
}

// PostError represents an error related to blog post operations
type PostError struct {
	PostID string
	Op     string
	Err    error
}

func (e *PostError) Error() string {
	return fmt.Sprintf("blog post operation %s failed for post %s: %v", e.Op, e.PostID, e.Err)
}

func (e *PostError) Unwrap() error {
	return e.Err
}

// MediaError represents an error returned by the media store
type MediaError struct {
	Identifier string
	Op         string
	Err        error
}

func (e *MediaError) Error() string {
	if e.Identifier == "" {
		return fmt.Sprintf("media operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("media operation %s failed for %s: %v", e.Op, e.Identifier, e.Err)
}

func (e *MediaError) Unwrap() error {
	return e.Err
}
