package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

// Repository implements storefront.Repository using in-memory storage
type Repository struct {
	mu sync.RWMutex

	users    map[string]*storefront.AdminUser
	products map[string]*storefront.Product
	posts    map[string]*storefront.BlogPost
	reviews  map[string][]*storefront.Review // product_id -> reviews in insertion order

	userOrder    []string
	productOrder []string
	postOrder    []string
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		users:    make(map[string]*storefront.AdminUser),
		products: make(map[string]*storefront.Product),
		posts:    make(map[string]*storefront.BlogPost),
		reviews:  make(map[string][]*storefront.Review),
	}
}

var _ storefront.Repository = (*Repository)(nil)

// User operations

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.users)), nil
}

func (r *Repository) CreateUser(ctx context.Context, user *storefront.AdminUser) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username {
			return storefront.ErrUsernameTaken
		}
	}
	userCopy := *user
	r.users[user.ID] = &userCopy
	r.userOrder = append(r.userOrder, user.ID)
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*storefront.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, storefront.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*storefront.AdminUser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.userOrder {
		if u := r.users[id]; u.Username == username {
			userCopy := *u
			return &userCopy, nil
		}
	}
	return nil, storefront.ErrUserNotFound
}

// Product operations

func (r *Repository) CreateProduct(ctx context.Context, product *storefront.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.products[product.ID] = copyProduct(product)
	r.productOrder = append(r.productOrder, product.ID)
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*storefront.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, storefront.ErrProductNotFound
	}
	return copyProduct(product), nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *storefront.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; !exists {
		return storefront.ErrProductNotFound
	}
	r.products[product.ID] = copyProduct(product)
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return storefront.ErrProductNotFound
	}
	delete(r.products, id)
	r.productOrder = removeID(r.productOrder, id)
	return nil
}

func (r *Repository) ListProducts(ctx context.Context, opts storefront.ListOptions) ([]*storefront.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*storefront.Product, 0, len(r.productOrder))
	for _, id := range r.productOrder {
		result = append(result, copyProduct(r.products[id]))
	}
	if opts.Sort == storefront.SortNewest {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].DateAdded.After(result[j].DateAdded)
		})
	}
	return limit(result, opts.Limit), nil
}

func (r *Repository) SearchProducts(ctx context.Context, query string) ([]*storefront.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := tokenize(query)
	var hits []scored[*storefront.Product]
	for _, id := range r.productOrder {
		p := r.products[id]
		if s := score(terms, p.Name, p.Description, p.Category); s > 0 {
			hits = append(hits, scored[*storefront.Product]{item: copyProduct(p), score: s})
		}
	}
	return ranked(hits), nil
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// Blog post operations

func (r *Repository) CreatePost(ctx context.Context, post *storefront.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.posts[post.ID] = copyPost(post)
	r.postOrder = append(r.postOrder, post.ID)
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id string) (*storefront.BlogPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, storefront.ErrPostNotFound
	}
	return copyPost(post), nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *storefront.BlogPost) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[post.ID]; !exists {
		return storefront.ErrPostNotFound
	}
	r.posts[post.ID] = copyPost(post)
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return storefront.ErrPostNotFound
	}
	delete(r.posts, id)
	r.postOrder = removeID(r.postOrder, id)
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, opts storefront.ListOptions) ([]*storefront.BlogPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*storefront.BlogPost, 0, len(r.postOrder))
	for _, id := range r.postOrder {
		result = append(result, copyPost(r.posts[id]))
	}
	if opts.Sort == storefront.SortNewest {
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].DatePosted.After(result[j].DatePosted)
		})
	}
	return limit(result, opts.Limit), nil
}

func (r *Repository) SearchPosts(ctx context.Context, query string) ([]*storefront.BlogPost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	terms := tokenize(query)
	var hits []scored[*storefront.BlogPost]
	for _, id := range r.postOrder {
		p := r.posts[id]
		if s := score(terms, p.Title, p.Content, p.Author); s > 0 {
			hits = append(hits, scored[*storefront.BlogPost]{item: copyPost(p), score: s})
		}
	}
	return ranked(hits), nil
}

func (r *Repository) CountPosts(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.posts)), nil
}

// Review operations

func (r *Repository) CreateReview(ctx context.Context, review *storefront.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reviewCopy := *review
	r.reviews[review.ProductID] = append(r.reviews[review.ProductID], &reviewCopy)
	return nil
}

func (r *Repository) ListReviews(ctx context.Context, productID string) ([]*storefront.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.reviews[productID]
	result := make([]*storefront.Review, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		reviewCopy := *stored[i]
		result = append(result, &reviewCopy)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].DatePosted.After(result[j].DatePosted)
	})
	return result, nil
}

// Helpers

func copyProduct(p *storefront.Product) *storefront.Product {
	c := *p
	if p.LastUpdated != nil {
		t := *p.LastUpdated
		c.LastUpdated = &t
	}
	return &c
}

func copyPost(p *storefront.BlogPost) *storefront.BlogPost {
	c := *p
	if p.LastUpdated != nil {
		t := *p.LastUpdated
		c.LastUpdated = &t
	}
	return &c
}

func removeID(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

type scored[T any] struct {
	item  T
	score int
}

func ranked[T any](hits []scored[T]) []T {
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})
	result := make([]T, 0, len(hits))
	for _, h := range hits {
		result = append(result, h.item)
	}
	return result
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// score counts occurrences of the query terms among the field tokens.
func score(terms []string, fields ...string) int {
	if len(terms) == 0 {
		return 0
	}
	want := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		want[t] = struct{}{}
	}
	total := 0
	for _, f := range fields {
		for _, tok := range tokenize(f) {
			if _, ok := want[tok]; ok {
				total++
			}
		}
	}
	return total
}
