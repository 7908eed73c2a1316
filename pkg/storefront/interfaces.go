package storefront

import (
	"context"
	"io"
)

// UserRepository persists admin accounts.
type UserRepository interface {
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, user *AdminUser) error
	GetUserByID(ctx context.Context, id string) (*AdminUser, error)
	GetUserByUsername(ctx context.Context, username string) (*AdminUser, error)
}

// ProductRepository persists products.
type ProductRepository interface {
	CreateProduct(ctx context.Context, product *Product) error
	GetProduct(ctx context.Context, id string) (*Product, error)
	UpdateProduct(ctx context.Context, product *Product) error
	DeleteProduct(ctx context.Context, id string) error
	ListProducts(ctx context.Context, opts ListOptions) ([]*Product, error)
	// SearchProducts returns text matches ordered by descending relevance
	SearchProducts(ctx context.Context, query string) ([]*Product, error)
	CountProducts(ctx context.Context) (int64, error)
}

// PostRepository persists blog posts.
type PostRepository interface {
	CreatePost(ctx context.Context, post *BlogPost) error
	GetPost(ctx context.Context, id string) (*BlogPost, error)
	UpdatePost(ctx context.Context, post *BlogPost) error
	DeletePost(ctx context.Context, id string) error
	ListPosts(ctx context.Context, opts ListOptions) ([]*BlogPost, error)
	// SearchPosts returns text matches ordered by descending relevance
	SearchPosts(ctx context.Context, query string) ([]*BlogPost, error)
	CountPosts(ctx context.Context) (int64, error)
}

// ReviewRepository persists product reviews. Reviews are append-only.
type ReviewRepository interface {
	CreateReview(ctx context.Context, review *Review) error
	// ListReviews returns the reviews of a product newest first
	ListReviews(ctx context.Context, productID string) ([]*Review, error)
}

// Repository is the persistent store holding every collection.
// Each write applies to a single document atomically; nothing spans documents.
type Repository interface {
	UserRepository
	ProductRepository
	PostRepository
	ReviewRepository
}

// MediaStore hosts uploaded images.
type MediaStore interface {
	// Upload stores the image and returns its identifier and public URL
	Upload(ctx context.Context, reader io.Reader, params UploadParams) (*MediaObject, error)

	// Delete removes the image with the given identifier
	Delete(ctx context.Context, identifier string) error
}

// Mailer submits outbound email.
type Mailer interface {
	Send(ctx context.Context, mail Mail) error
}

// Observer is notified of degraded outcomes that do not fail an operation
// (or fail it without a store write). Implementations must not block.
type Observer interface {
	ImageUploadFailed(op string)
	ImageDeleteFailed(op string)
	MailSendFailed()
}
