package storefront

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog item.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url,omitempty"`
	DateAdded   time.Time       `json:"date_added"`
	LastUpdated *time.Time      `json:"last_updated,omitempty"`
}

// BlogPost is a blog article.
type BlogPost struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	Author      string     `json:"author"`
	ImageURL    string     `json:"image_url,omitempty"`
	DatePosted  time.Time  `json:"date_posted"`
	LastUpdated *time.Time `json:"last_updated,omitempty"`
}

// Review is a customer review attached to a product. Reviews are immutable.
type Review struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ReviewerName string    `json:"reviewer_name"`
	Rating       int       `json:"rating"`
	Comment      string    `json:"comment"`
	DatePosted   time.Time `json:"date_posted"`
}

// AdminUser is a back office account. Only the bcrypt hash of the password is kept.
type AdminUser struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}

// Principal identifies the admin performing an operation.
type Principal struct {
	ID       string
	Username string
}

// SortOrder selects the listing order of a repository query.
type SortOrder int

const (
	// SortInsertion returns records in store insertion order.
	SortInsertion SortOrder = iota
	// SortNewest returns records newest first by their creation timestamp.
	SortNewest
)

// ListOptions controls listing queries. Limit <= 0 means no cap.
type ListOptions struct {
	Limit int
	Sort  SortOrder
}

// ProductFields are the raw form fields of a product write.
type ProductFields struct {
	Name        string
	Description string
	Price       string
	Category    string
}

// PostFields are the raw form fields of a blog post write.
type PostFields struct {
	Title   string
	Content string
	Author  string
}

// ReviewInput is a review submission.
type ReviewInput struct {
	ReviewerName string
	Rating       int
	Comment      string
}

// ImageUpload is an uploaded image file. An upload with an empty Filename
// is treated as absent, the same as a nil upload.
type ImageUpload struct {
	Filename    string
	ContentType string
	Reader      io.Reader
}

// Present reports whether the upload carries a file.
func (u *ImageUpload) Present() bool {
	return u != nil && u.Filename != "" && u.Reader != nil
}

// ProductDetail is a product together with its reviews.
type ProductDetail struct {
	Product       *Product  `json:"product"`
	Reviews       []*Review `json:"reviews"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
}

// DashboardStats are the counters shown on the admin dashboard.
type DashboardStats struct {
	TotalProducts  int64 `json:"total_products"`
	TotalBlogPosts int64 `json:"total_blog_posts"`
}

// SearchResults holds the matches of a site-wide search.
type SearchResults struct {
	Query    string      `json:"query"`
	Products []*Product  `json:"product_results"`
	Posts    []*BlogPost `json:"blog_results"`
}

// ContactMessage is a contact form submission.
type ContactMessage struct {
	Name    string
	Email   string
	Message string
}

// Mail is an outbound message handed to a Mailer.
type Mail struct {
	Subject string
	From    string
	To      []string
	Body    string
}

// UploadParams describe an object handed to a MediaStore.
type UploadParams struct {
	Filename    string
	ContentType string
}

// MediaObject is the result of a successful media upload.
type MediaObject struct {
	Identifier string
	SecureURL  string
}
