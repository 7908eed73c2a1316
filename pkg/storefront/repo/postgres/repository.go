package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

//go:embed schema.sql
var schema string

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements storefront.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

var _ storefront.Repository = (*Repository)(nil)

// EnsureSchema creates the tables and search indexes if they are missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return r.handlePostgresError("ensure schema", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == "users_username_key" {
				return storefront.ErrUsernameTaken
			}
			return fmt.Errorf("duplicate entry")
		case "23514": // check_violation
			return fmt.Errorf("constraint %s violated in %s", pgErr.ConstraintName, operation)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}
	return fmt.Errorf("database error in %s: %w", operation, err)
}

// User operations

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, r.handlePostgresError("count users", err)
	}
	return n, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *storefront.AdminUser) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO users (id, username, password_hash) VALUES ($1, $2, $3)`,
		user.ID, user.Username, user.PasswordHash)
	if err != nil {
		return r.handlePostgresError("create user", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*storefront.AdminUser, error) {
	return r.getUser(ctx, `SELECT id, username, password_hash FROM users WHERE id = $1`, id)
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*storefront.AdminUser, error) {
	return r.getUser(ctx, `SELECT id, username, password_hash FROM users WHERE username = $1`, username)
}

func (r *Repository) getUser(ctx context.Context, query string, arg string) (*storefront.AdminUser, error) {
	var u storefront.AdminUser
	err := r.db.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storefront.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user", err)
	}
	return &u, nil
}

// Product operations

const productColumns = `id, name, description, price::text, category, image_url, date_added, last_updated`

func (r *Repository) CreateProduct(ctx context.Context, p *storefront.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, category, image_url, date_added, last_updated)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.ImageURL, p.DateAdded, p.LastUpdated)
	if err != nil {
		return r.handlePostgresError("create product", err)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*storefront.Product, error) {
	row := r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storefront.ErrProductNotFound
		}
		return nil, r.handlePostgresError("get product", err)
	}
	return p, nil
}

func (r *Repository) UpdateProduct(ctx context.Context, p *storefront.Product) error {
	query := `
		UPDATE products SET
			name = $2, description = $3, price = $4::numeric, category = $5,
			image_url = $6, last_updated = $7
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.ImageURL, p.LastUpdated)
	if err != nil {
		return r.handlePostgresError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return storefront.ErrProductNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return storefront.ErrProductNotFound
	}
	return nil
}

func (r *Repository) ListProducts(ctx context.Context, opts storefront.ListOptions) ([]*storefront.Product, error) {
	order := `seq ASC`
	if opts.Sort == storefront.SortNewest {
		order = `date_added DESC, seq DESC`
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY `+order+` LIMIT $1`, limitArg(opts.Limit))
	if err != nil {
		return nil, r.handlePostgresError("list products", err)
	}
	return collectProducts(rows)
}

func (r *Repository) SearchProducts(ctx context.Context, query string) ([]*storefront.Product, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+productColumns+`
		FROM products, plainto_tsquery('simple', $1) q
		WHERE search @@ q
		ORDER BY ts_rank(search, q) DESC`, query)
	if err != nil {
		return nil, r.handlePostgresError("search products", err)
	}
	return collectProducts(rows)
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&n); err != nil {
		return 0, r.handlePostgresError("count products", err)
	}
	return n, nil
}

// Blog post operations

const postColumns = `id, title, content, author, image_url, date_posted, last_updated`

func (r *Repository) CreatePost(ctx context.Context, p *storefront.BlogPost) error {
	query := `
		INSERT INTO blog_posts (id, title, content, author, image_url, date_posted, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		p.ID, p.Title, p.Content, p.Author, p.ImageURL, p.DatePosted, p.LastUpdated)
	if err != nil {
		return r.handlePostgresError("create blog post", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id string) (*storefront.BlogPost, error) {
	row := r.db.QueryRow(ctx, `SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id)
	p, err := scanPost(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storefront.ErrPostNotFound
		}
		return nil, r.handlePostgresError("get blog post", err)
	}
	return p, nil
}

func (r *Repository) UpdatePost(ctx context.Context, p *storefront.BlogPost) error {
	query := `
		UPDATE blog_posts SET title = $2, content = $3, image_url = $4, last_updated = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, p.ID, p.Title, p.Content, p.ImageURL, p.LastUpdated)
	if err != nil {
		return r.handlePostgresError("update blog post", err)
	}
	if tag.RowsAffected() == 0 {
		return storefront.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete blog post", err)
	}
	if tag.RowsAffected() == 0 {
		return storefront.ErrPostNotFound
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, opts storefront.ListOptions) ([]*storefront.BlogPost, error) {
	order := `seq ASC`
	if opts.Sort == storefront.SortNewest {
		order = `date_posted DESC, seq DESC`
	}
	rows, err := r.db.Query(ctx,
		`SELECT `+postColumns+` FROM blog_posts ORDER BY `+order+` LIMIT $1`, limitArg(opts.Limit))
	if err != nil {
		return nil, r.handlePostgresError("list blog posts", err)
	}
	return collectPosts(rows)
}

func (r *Repository) SearchPosts(ctx context.Context, query string) ([]*storefront.BlogPost, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+postColumns+`
		FROM blog_posts, plainto_tsquery('simple', $1) q
		WHERE search @@ q
		ORDER BY ts_rank(search, q) DESC`, query)
	if err != nil {
		return nil, r.handlePostgresError("search blog posts", err)
	}
	return collectPosts(rows)
}

func (r *Repository) CountPosts(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM blog_posts`).Scan(&n); err != nil {
		return 0, r.handlePostgresError("count blog posts", err)
	}
	return n, nil
}

// Review operations

func (r *Repository) CreateReview(ctx context.Context, review *storefront.Review) error {
	query := `
		INSERT INTO reviews (id, product_id, reviewer_name, rating, comment, date_posted)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.Exec(ctx, query,
		review.ID, review.ProductID, review.ReviewerName, review.Rating, review.Comment, review.DatePosted)
	if err != nil {
		return r.handlePostgresError("create review", err)
	}
	return nil
}

func (r *Repository) ListReviews(ctx context.Context, productID string) ([]*storefront.Review, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, product_id, reviewer_name, rating, comment, date_posted
		FROM reviews WHERE product_id = $1
		ORDER BY date_posted DESC, seq DESC`, productID)
	if err != nil {
		return nil, r.handlePostgresError("list reviews", err)
	}
	defer rows.Close()

	reviews := []*storefront.Review{}
	for rows.Next() {
		var rv storefront.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.ReviewerName, &rv.Rating, &rv.Comment, &rv.DatePosted); err != nil {
			return nil, r.handlePostgresError("scan review", err)
		}
		rv.DatePosted = rv.DatePosted.UTC()
		reviews = append(reviews, &rv)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list reviews", err)
	}
	return reviews, nil
}

// Scan helpers

func limitArg(limit int) *int64 {
	if limit <= 0 {
		return nil
	}
	n := int64(limit)
	return &n
}

func scanProduct(row pgx.Row) (*storefront.Product, error) {
	var p storefront.Product
	var price string
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.ImageURL, &p.DateAdded, &p.LastUpdated); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("failed to decode price of product %s: %w", p.ID, err)
	}
	p.Price = d
	p.DateAdded = p.DateAdded.UTC()
	if p.LastUpdated != nil {
		t := p.LastUpdated.UTC()
		p.LastUpdated = &t
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*storefront.Product, error) {
	defer rows.Close()

	products := []*storefront.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func scanPost(row pgx.Row) (*storefront.BlogPost, error) {
	var p storefront.BlogPost
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Author, &p.ImageURL, &p.DatePosted, &p.LastUpdated); err != nil {
		return nil, err
	}
	p.DatePosted = p.DatePosted.UTC()
	if p.LastUpdated != nil {
		t := p.LastUpdated.UTC()
		p.LastUpdated = &t
	}
	return &p, nil
}

func collectPosts(rows pgx.Rows) ([]*storefront.BlogPost, error) {
	defer rows.Close()

	posts := []*storefront.BlogPost{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}
