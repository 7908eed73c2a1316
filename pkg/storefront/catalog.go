package storefront

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// CatalogService owns product CRUD, reviews and product search.
type CatalogService struct {
	repo   Repository
	images images
	logger *slog.Logger
	now    func() time.Time
}

// NewCatalogService creates a catalog service. A repository is required.
func NewCatalogService(opts ...Option) (*CatalogService, error) {
	o := buildOptions(opts)
	if o.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	return &CatalogService{
		repo:   o.repository,
		images: images{store: o.mediaStore, observer: o.observer, logger: o.logger},
		logger: o.logger,
		now:    o.now,
	}, nil
}

// ListProducts returns products in insertion order, or newest first with SortNewest.
func (s *CatalogService) ListProducts(ctx context.Context, opts ListOptions) ([]*Product, error) {
	products, err := s.repo.ListProducts(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*Product, error) {
	if !ValidID(id) {
		return nil, &ProductError{ProductID: id, Op: "get", Err: ErrInvalidIdentifier}
	}
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, &ProductError{ProductID: id, Op: "get", Err: err}
	}
	return product, nil
}

// CreateProduct validates the fields, uploads the optional image and stores
// the product. A failed upload leaves the store untouched.
func (s *CatalogService) CreateProduct(ctx context.Context, fields ProductFields, upload *ImageUpload) (*Product, error) {
	price, err := validateProductFields(fields)
	if err != nil {
		return nil, err
	}

	var imageURL string
	if upload.Present() {
		if imageURL, err = s.images.upload(ctx, "create_product", upload); err != nil {
			return nil, err
		}
	}

	product := &Product{
		ID:          NewID(),
		Name:        fields.Name,
		Description: fields.Description,
		Price:       price,
		Category:    fields.Category,
		ImageURL:    imageURL,
		DateAdded:   s.now(),
	}
	if err := s.repo.CreateProduct(ctx, product); err != nil {
		return nil, &ProductError{ProductID: product.ID, Op: "create", Err: err}
	}

	s.logger.Info("Product created", "id", product.ID, "name", product.Name)
	return product, nil
}

// UpdateProduct rewrites the product fields. When a new image is supplied the
// previous image is deleted before the upload; if that upload then fails the
// stored record is left as it was.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, fields ProductFields, upload *ImageUpload) (*Product, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	price, err := validateProductFields(fields)
	if err != nil {
		return nil, err
	}

	imageURL, err := s.images.replace(ctx, "update_product", id, product.ImageURL, upload)
	if err != nil {
		return nil, err
	}

	now := s.now()
	product.Name = fields.Name
	product.Description = fields.Description
	product.Price = price
	product.Category = fields.Category
	product.ImageURL = imageURL
	product.LastUpdated = &now

	if err := s.repo.UpdateProduct(ctx, product); err != nil {
		return nil, &ProductError{ProductID: id, Op: "update", Err: err}
	}
	return product, nil
}

// DeleteProduct removes the product's image (best-effort) and then the record.
func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if product.ImageURL != "" {
		s.images.release(ctx, "delete_product", id, product.ImageURL)
	}
	if err := s.repo.DeleteProduct(ctx, id); err != nil {
		return &ProductError{ProductID: id, Op: "delete", Err: err}
	}
	s.logger.Info("Product deleted", "id", id)
	return nil
}

// AddReview appends a review to an existing product.
func (s *CatalogService) AddReview(ctx context.Context, productID string, in ReviewInput) (*Review, error) {
	if !ValidID(productID) {
		return nil, &ProductError{ProductID: productID, Op: "add_review", Err: ErrInvalidIdentifier}
	}
	if err := validateReview(in); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetProduct(ctx, productID); err != nil {
		return nil, &ProductError{ProductID: productID, Op: "add_review", Err: err}
	}

	review := &Review{
		ID:           NewID(),
		ProductID:    productID,
		ReviewerName: in.ReviewerName,
		Rating:       in.Rating,
		Comment:      in.Comment,
		DatePosted:   s.now(),
	}
	if err := s.repo.CreateReview(ctx, review); err != nil {
		return nil, &ProductError{ProductID: productID, Op: "add_review", Err: err}
	}
	return review, nil
}

// GetProductWithReviews returns the product, its reviews newest first and
// the mean rating (0 without reviews). The mean is computed on every call.
func (s *CatalogService) GetProductWithReviews(ctx context.Context, id string) (*ProductDetail, error) {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListReviews(ctx, id)
	if err != nil {
		return nil, &ProductError{ProductID: id, Op: "list_reviews", Err: err}
	}
	if reviews == nil {
		reviews = []*Review{}
	}
	return &ProductDetail{
		Product:       product,
		Reviews:       reviews,
		AverageRating: AverageRating(reviews),
		ReviewCount:   len(reviews),
	}, nil
}

// AverageRating is the arithmetic mean of the ratings, or 0 for no reviews.
func AverageRating(reviews []*Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	total := 0
	for _, r := range reviews {
		total += r.Rating
	}
	return float64(total) / float64(len(reviews))
}

// SearchProducts runs a text search. A blank query matches nothing.
func (s *CatalogService) SearchProducts(ctx context.Context, query string) ([]*Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*Product{}, nil
	}
	products, err := s.repo.SearchProducts(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	if products == nil {
		products = []*Product{}
	}
	return products, nil
}

// CountProducts returns the number of products.
func (s *CatalogService) CountProducts(ctx context.Context) (int64, error) {
	return s.repo.CountProducts(ctx)
}

// IsNotFound reports whether err is any not-found condition.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
