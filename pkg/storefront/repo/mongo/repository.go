package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

const (
	usersCollection    = "users"
	productsCollection = "products"
	postsCollection    = "blog_posts"
	reviewsCollection  = "reviews"
)

// Repository implements storefront.Repository on MongoDB
type Repository struct {
	users    *mongo.Collection
	products *mongo.Collection
	posts    *mongo.Collection
	reviews  *mongo.Collection
}

// New creates a repository over the given database
func New(db *mongo.Database) *Repository {
	return &Repository{
		users:    db.Collection(usersCollection),
		products: db.Collection(productsCollection),
		posts:    db.Collection(postsCollection),
		reviews:  db.Collection(reviewsCollection),
	}
}

var _ storefront.Repository = (*Repository)(nil)

// EnsureIndexes creates the unique username index, the text search indexes
// and the review lookup index. It is safe to call on every start.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	if _, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("failed to create users index: %w", err)
	}

	if _, err := r.products.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "name", Value: "text"},
			{Key: "description", Value: "text"},
			{Key: "category", Value: "text"},
		},
	}); err != nil {
		return fmt.Errorf("failed to create products text index: %w", err)
	}

	if _, err := r.posts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "content", Value: "text"},
			{Key: "author", Value: "text"},
		},
	}); err != nil {
		return fmt.Errorf("failed to create blog_posts text index: %w", err)
	}

	if _, err := r.reviews.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "product_id", Value: 1}, {Key: "date_posted", Value: -1}},
	}); err != nil {
		return fmt.Errorf("failed to create reviews index: %w", err)
	}

	return nil
}

// User operations

func (r *Repository) CountUsers(ctx context.Context) (int64, error) {
	n, err := r.users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

func (r *Repository) CreateUser(ctx context.Context, user *storefront.AdminUser) error {
	doc, err := toUserDoc(user)
	if err != nil {
		return err
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return storefront.ErrUsernameTaken
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *Repository) GetUserByID(ctx context.Context, id string) (*storefront.AdminUser, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findUser(ctx, bson.M{"_id": oid})
}

func (r *Repository) GetUserByUsername(ctx context.Context, username string) (*storefront.AdminUser, error) {
	return r.findUser(ctx, bson.M{"username": username})
}

func (r *Repository) findUser(ctx context.Context, filter bson.M) (*storefront.AdminUser, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storefront.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toDomain(), nil
}

// Product operations

func (r *Repository) CreateProduct(ctx context.Context, product *storefront.Product) error {
	doc, err := toProductDoc(product)
	if err != nil {
		return err
	}
	if _, err := r.products.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

func (r *Repository) GetProduct(ctx context.Context, id string) (*storefront.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc productDoc
	if err := r.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storefront.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) UpdateProduct(ctx context.Context, product *storefront.Product) error {
	doc, err := toProductDoc(product)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"name":         doc.Name,
		"description":  doc.Description,
		"price":        doc.Price,
		"category":     doc.Category,
		"image_url":    doc.ImageURL,
		"last_updated": doc.LastUpdated,
	}}
	result, err := r.products.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if result.MatchedCount == 0 {
		return storefront.ErrProductNotFound
	}
	return nil
}

func (r *Repository) DeleteProduct(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.products.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return storefront.ErrProductNotFound
	}
	return nil
}

func (r *Repository) ListProducts(ctx context.Context, opts storefront.ListOptions) ([]*storefront.Product, error) {
	findOpts := listOptions(opts, "date_added")
	cursor, err := r.products.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return decodeProducts(ctx, cursor)
}

func (r *Repository) SearchProducts(ctx context.Context, query string) ([]*storefront.Product, error) {
	cursor, err := r.products.Find(ctx, textFilter(query), textOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	return decodeProducts(ctx, cursor)
}

func (r *Repository) CountProducts(ctx context.Context) (int64, error) {
	n, err := r.products.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// Blog post operations

func (r *Repository) CreatePost(ctx context.Context, post *storefront.BlogPost) error {
	doc, err := toPostDoc(post)
	if err != nil {
		return err
	}
	if _, err := r.posts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert blog post: %w", err)
	}
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id string) (*storefront.BlogPost, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc postDoc
	if err := r.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storefront.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get blog post: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *storefront.BlogPost) error {
	doc, err := toPostDoc(post)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{
		"title":        doc.Title,
		"content":      doc.Content,
		"image_url":    doc.ImageURL,
		"last_updated": doc.LastUpdated,
	}}
	result, err := r.posts.UpdateOne(ctx, bson.M{"_id": doc.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update blog post: %w", err)
	}
	if result.MatchedCount == 0 {
		return storefront.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete blog post: %w", err)
	}
	if result.DeletedCount == 0 {
		return storefront.ErrPostNotFound
	}
	return nil
}

func (r *Repository) ListPosts(ctx context.Context, opts storefront.ListOptions) ([]*storefront.BlogPost, error) {
	cursor, err := r.posts.Find(ctx, bson.M{}, listOptions(opts, "date_posted"))
	if err != nil {
		return nil, fmt.Errorf("failed to list blog posts: %w", err)
	}
	return decodePosts(ctx, cursor)
}

func (r *Repository) SearchPosts(ctx context.Context, query string) ([]*storefront.BlogPost, error) {
	cursor, err := r.posts.Find(ctx, textFilter(query), textOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to search blog posts: %w", err)
	}
	return decodePosts(ctx, cursor)
}

func (r *Repository) CountPosts(ctx context.Context) (int64, error) {
	n, err := r.posts.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count blog posts: %w", err)
	}
	return n, nil
}

// Review operations

func (r *Repository) CreateReview(ctx context.Context, review *storefront.Review) error {
	doc, err := toReviewDoc(review)
	if err != nil {
		return err
	}
	if _, err := r.reviews.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

func (r *Repository) ListReviews(ctx context.Context, productID string) ([]*storefront.Review, error) {
	pid, err := objectID(productID)
	if err != nil {
		return nil, err
	}
	findOpts := options.Find().SetSort(bson.D{{Key: "date_posted", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := r.reviews.Find(ctx, bson.M{"product_id": pid}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	var docs []reviewDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	reviews := make([]*storefront.Review, 0, len(docs))
	for i := range docs {
		reviews = append(reviews, docs[i].toDomain())
	}
	return reviews, nil
}

// Query helpers

// listOptions sorts by _id (insertion order) or by the date field newest first.
func listOptions(opts storefront.ListOptions, dateField string) *options.FindOptions {
	findOpts := options.Find()
	if opts.Sort == storefront.SortNewest {
		findOpts.SetSort(bson.D{{Key: dateField, Value: -1}, {Key: "_id", Value: -1}})
	} else {
		findOpts.SetSort(bson.D{{Key: "_id", Value: 1}})
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	return findOpts
}

func textFilter(query string) bson.M {
	return bson.M{"$text": bson.M{"$search": query}}
}

func textOptions() *options.FindOptions {
	score := bson.M{"score": bson.M{"$meta": "textScore"}}
	return options.Find().SetProjection(score).SetSort(score)
}

func decodeProducts(ctx context.Context, cursor *mongo.Cursor) ([]*storefront.Product, error) {
	var docs []productDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	products := make([]*storefront.Product, 0, len(docs))
	for i := range docs {
		products = append(products, docs[i].toDomain())
	}
	return products, nil
}

func decodePosts(ctx context.Context, cursor *mongo.Cursor) ([]*storefront.BlogPost, error) {
	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode blog posts: %w", err)
	}
	posts := make([]*storefront.BlogPost, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toDomain())
	}
	return posts, nil
}
