// Package repotest holds a behavioural test suite that every
// storefront.Repository implementation must pass.
package repotest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

// Factory returns an empty repository. It is called once per subtest.
type Factory func(t *testing.T) storefront.Repository

var base = time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)

// Run exercises users, products, posts and reviews against fresh repositories.
func Run(t *testing.T, newRepo Factory) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newRepo(t)) })
	t.Run("ProductCRUD", func(t *testing.T) { testProductCRUD(t, newRepo(t)) })
	t.Run("ProductListing", func(t *testing.T) { testProductListing(t, newRepo(t)) })
	t.Run("ProductSearch", func(t *testing.T) { testProductSearch(t, newRepo(t)) })
	t.Run("PostCRUD", func(t *testing.T) { testPostCRUD(t, newRepo(t)) })
	t.Run("PostListing", func(t *testing.T) { testPostListing(t, newRepo(t)) })
	t.Run("Reviews", func(t *testing.T) { testReviews(t, newRepo(t)) })
}

func testUsers(t *testing.T, repo storefront.Repository) {
	ctx := context.Background()

	n, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	user := &storefront.AdminUser{ID: storefront.NewID(), Username: "admin", PasswordHash: "$2a$hash"}
	require.NoError(t, repo.CreateUser(ctx, user))

	got, err := repo.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user, got)

	got, err = repo.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	dup := &storefront.AdminUser{ID: storefront.NewID(), Username: "admin", PasswordHash: "x"}
	assert.ErrorIs(t, repo.CreateUser(ctx, dup), storefront.ErrUsernameTaken)

	_, err = repo.GetUserByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, storefront.ErrUserNotFound)
	_, err = repo.GetUserByID(ctx, storefront.NewID())
	assert.ErrorIs(t, err, storefront.ErrUserNotFound)

	n, err = repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func newProduct(name, price string, added time.Time) *storefront.Product {
	return &storefront.Product{
		ID:          storefront.NewID(),
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Category:    "bakery",
		DateAdded:   added,
	}
}

func testProductCRUD(t *testing.T, repo storefront.Repository) {
	ctx := context.Background()

	p := newProduct("Cheesecake", "12.34", base)
	p.ImageURL = "https://media.test/abc.jpg"
	require.NoError(t, repo.CreateProduct(ctx, p))

	got, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
	assert.Equal(t, p.Description, got.Description)
	assert.True(t, p.Price.Equal(got.Price), "price %s != %s", p.Price, got.Price)
	assert.Equal(t, p.Category, got.Category)
	assert.Equal(t, p.ImageURL, got.ImageURL)
	assert.True(t, p.DateAdded.Equal(got.DateAdded))
	assert.Nil(t, got.LastUpdated)

	updated := base.Add(time.Hour)
	got.Name = "Cheesecake XL"
	got.Price = decimal.RequireFromString("20")
	got.ImageURL = ""
	got.LastUpdated = &updated
	require.NoError(t, repo.UpdateProduct(ctx, got))

	again, err := repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cheesecake XL", again.Name)
	assert.Equal(t, "20", again.Price.String())
	assert.Empty(t, again.ImageURL)
	require.NotNil(t, again.LastUpdated)
	assert.True(t, updated.Equal(*again.LastUpdated))
	assert.True(t, p.DateAdded.Equal(again.DateAdded))

	missing := newProduct("ghost", "1", base)
	assert.ErrorIs(t, repo.UpdateProduct(ctx, missing), storefront.ErrProductNotFound)
	_, err = repo.GetProduct(ctx, missing.ID)
	assert.ErrorIs(t, err, storefront.ErrProductNotFound)

	require.NoError(t, repo.DeleteProduct(ctx, p.ID))
	assert.ErrorIs(t, repo.DeleteProduct(ctx, p.ID), storefront.ErrProductNotFound)

	n, err := repo.CountProducts(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testProductListing(t *testing.T, repo storefront.Repository) {
	ctx := context.Background()

	// Insertion order differs from date order.
	names := []string{"first", "second", "third"}
	added := []time.Time{base.Add(2 * time.Hour), base, base.Add(time.Hour)}
	for i, name := range names {
		require.NoError(t, repo.CreateProduct(ctx, newProduct(name, "1", added[i])))
	}

	all, err := repo.ListProducts(ctx, storefront.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, names, productNames(all))

	capped, err := repo.ListProducts(ctx, storefront.ListOptions{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, productNames(capped))

	newest, err := repo.ListProducts(ctx, storefront.ListOptions{Sort: storefront.SortNewest})
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third", "second"}, productNames(newest))

	n, err := repo.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func testProductSearch(t *testing.T, repo storefront.Repository) {
	ctx := context.Background()

	strong := newProduct("Chocolate Brownie", "5", base)
	strong.Description = "a rich brownie with brownie crumbs"
	weak := newProduct("Brownie Bites", "3", base)
	weak.Description = "small squares"
	other := newProduct("Lemon Tart", "4", base)
	other.Description = "tangy"
	for _, p := range []*storefront.Product{weak, other, strong} {
		require.NoError(t, repo.CreateProduct(ctx, p))
	}

	found, err := repo.SearchProducts(ctx, "brownie")
	require.NoError(t, err)
	assert.Equal(t, []string{"Chocolate Brownie", "Brownie Bites"}, productNames(found))

	found, err = repo.SearchProducts(ctx, "pavlova")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func newPost(title string, posted time.Time) *storefront.BlogPost {
	return &storefront.BlogPost{
		ID:         storefront.NewID(),
		Title:      title,
		Content:    title + " body",
		Author:     "admin",
		DatePosted: posted,
	}
}

func testPostCRUD(t *testing.T, repo storefront.Repository) {
	ctx := context.Background()

	post := newPost("Spring menu", base)
	require.NoError(t, repo.CreatePost(ctx, post))

	got, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, got.Title)
	assert.Equal(t, post.Author, got.Author)
	assert.True(t, post.DatePosted.Equal(got.DatePosted))
	assert.Nil(t, got.LastUpdated)

	updated := base.Add(time.Minute)
	got.Content = "new body"
	got.ImageURL = "https://media.test/p.png"
	got.LastUpdated = &updated
	require.NoError(t, repo.UpdatePost(ctx, got))

	again, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "new body", again.Content)
	assert.Equal(t, "https://media.test/p.png", again.ImageURL)
	require.NotNil(t, again.LastUpdated)

	found, err := repo.SearchPosts(ctx, "spring")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, post.ID, found[0].ID)

	assert.ErrorIs(t, repo.UpdatePost(ctx, newPost("ghost", base)), storefront.ErrPostNotFound)
	require.NoError(t, repo.DeletePost(ctx, post.ID))
	assert.ErrorIs(t, repo.DeletePost(ctx, post.ID), storefront.ErrPostNotFound)
	_, err = repo.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, storefront.ErrPostNotFound)
}

func testPostListing(t *testing.T, repo storefront.Repository) {
	ctx := context.Background()

	for i, title := range []string{"old", "newest", "middle"} {
		offsets := []time.Duration{0, 2 * time.Hour, time.Hour}
		require.NoError(t, repo.CreatePost(ctx, newPost(title, base.Add(offsets[i]))))
	}

	newest, err := repo.ListPosts(ctx, storefront.ListOptions{Sort: storefront.SortNewest, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"newest", "middle"}, postTitles(newest))

	all, err := repo.ListPosts(ctx, storefront.ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"old", "newest", "middle"}, postTitles(all))

	n, err := repo.CountPosts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func testReviews(t *testing.T, repo storefront.Repository) {
	ctx := context.Background()

	cake := newProduct("Cake", "3", base)
	pie := newProduct("Pie", "3", base)
	require.NoError(t, repo.CreateProduct(ctx, cake))
	require.NoError(t, repo.CreateProduct(ctx, pie))

	reviews := []*storefront.Review{
		{ID: storefront.NewID(), ProductID: cake.ID, ReviewerName: "a", Rating: 5, Comment: "great", DatePosted: base},
		{ID: storefront.NewID(), ProductID: cake.ID, ReviewerName: "b", Rating: 2, Comment: "meh", DatePosted: base.Add(time.Hour)},
		{ID: storefront.NewID(), ProductID: pie.ID, ReviewerName: "c", Rating: 4, Comment: "good", DatePosted: base},
	}
	for _, r := range reviews {
		require.NoError(t, repo.CreateReview(ctx, r))
	}

	got, err := repo.ListReviews(ctx, cake.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ReviewerName)
	assert.Equal(t, 2, got[0].Rating)
	assert.Equal(t, "a", got[1].ReviewerName)
	assert.Equal(t, cake.ID, got[1].ProductID)
	assert.True(t, base.Equal(got[1].DatePosted))

	none, err := repo.ListReviews(ctx, storefront.NewID())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func productNames(products []*storefront.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	return names
}

func postTitles(posts []*storefront.BlogPost) []string {
	titles := make([]string, 0, len(posts))
	for _, p := range posts {
		titles = append(titles, p.Title)
	}
	return titles
}
