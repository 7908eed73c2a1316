package storefront_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-storefront/pkg/storefront"
)

func TestCatalogServiceCreation(t *testing.T) {
	_, err := storefront.NewCatalogService()
	assert.Error(t, err)

	_, err = storefront.NewContentService()
	assert.Error(t, err)

	_, err = storefront.NewSiteIndexBuilder()
	assert.Error(t, err)
}

func TestCreateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("stores product without image", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{
			Name: "Brownie", Description: "Fudgy", Price: "12.50", Category: "cake",
		}, nil)
		require.NoError(t, err)

		assert.True(t, storefront.ValidID(p.ID))
		assert.Equal(t, "12.5", p.Price.String())
		assert.Empty(t, p.ImageURL)
		assert.Nil(t, p.LastUpdated)
		assert.False(t, p.DateAdded.IsZero())

		got, err := f.catalog.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Name, got.Name)
		assert.Empty(t, f.media.Calls())
	})

	t.Run("stores uploaded image url", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("cake.jpg"))
		require.NoError(t, err)
		assert.Equal(t, "https://media.test/v1/img1.jpg", p.ImageURL)
	})

	t.Run("empty filename counts as no image", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, &storefront.ImageUpload{})
		require.NoError(t, err)
		assert.Empty(t, f.media.Calls())
	})

	tests := []struct {
		name   string
		fields storefront.ProductFields
		field  string
	}{
		{"negative price", storefront.ProductFields{Name: "x", Price: "-1"}, "price"},
		{"non numeric price", storefront.ProductFields{Name: "x", Price: "abc"}, "price"},
		{"missing price", storefront.ProductFields{Name: "x"}, "price"},
		{"blank name", storefront.ProductFields{Name: "   ", Price: "1"}, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.catalog.CreateProduct(ctx, tt.fields, image("a.jpg"))
			require.Error(t, err)

			var verr *storefront.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
			assert.ErrorIs(t, err, storefront.ErrValidation)

			n, _ := f.catalog.CountProducts(ctx)
			assert.Zero(t, n)
			assert.Empty(t, f.media.Calls(), "validation runs before upload")
		})
	}

	t.Run("upload failure writes nothing", func(t *testing.T) {
		f := newFixture(t)
		f.media.failUpload = errors.New("cdn down")

		_, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("cake.jpg"))
		require.Error(t, err)
		assert.ErrorIs(t, err, storefront.ErrImageUploadFailed)

		n, _ := f.catalog.CountProducts(ctx)
		assert.Zero(t, n)
		assert.Equal(t, []string{"create_product"}, f.observer.uploadFailed)
	})
}

func TestGetProduct_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.catalog.GetProduct(ctx, "nope")
	assert.ErrorIs(t, err, storefront.ErrInvalidIdentifier)

	_, err = f.catalog.GetProduct(ctx, storefront.NewID())
	assert.ErrorIs(t, err, storefront.ErrProductNotFound)
	assert.True(t, storefront.IsNotFound(err))

	var perr *storefront.ProductError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "get", perr.Op)
}

func TestUpdateProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces image by deleting the old one first", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("old.jpg"))
		require.NoError(t, err)

		updated, err := f.catalog.UpdateProduct(ctx, p.ID, storefront.ProductFields{Name: "Cake 2", Price: "4"}, image("new.jpg"))
		require.NoError(t, err)

		assert.Equal(t, []string{"upload:old.jpg", "delete:img1", "upload:new.jpg"}, f.media.Calls())
		assert.Equal(t, "https://media.test/v1/img2.jpg", updated.ImageURL)
		require.NotNil(t, updated.LastUpdated)
		assert.True(t, updated.LastUpdated.After(p.DateAdded))

		got, err := f.catalog.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cake 2", got.Name)
		assert.Equal(t, "4", got.Price.String())
		assert.Equal(t, p.DateAdded, got.DateAdded)
	})

	t.Run("keeps image when none supplied", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("old.jpg"))
		require.NoError(t, err)

		updated, err := f.catalog.UpdateProduct(ctx, p.ID, storefront.ProductFields{Name: "Cake", Price: "3"}, nil)
		require.NoError(t, err)
		assert.Equal(t, p.ImageURL, updated.ImageURL)
		assert.Equal(t, []string{"upload:old.jpg"}, f.media.Calls())
	})

	t.Run("failed upload leaves record unchanged", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("old.jpg"))
		require.NoError(t, err)

		f.media.failUpload = errors.New("cdn down")
		_, err = f.catalog.UpdateProduct(ctx, p.ID, storefront.ProductFields{Name: "Changed", Price: "9"}, image("new.jpg"))
		require.ErrorIs(t, err, storefront.ErrImageUploadFailed)

		got, err := f.catalog.GetProduct(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cake", got.Name)
		assert.Equal(t, p.ImageURL, got.ImageURL)
		assert.Nil(t, got.LastUpdated)
		assert.Contains(t, f.media.Calls(), "delete:img1")
	})

	t.Run("delete failure does not block update", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("old.jpg"))
		require.NoError(t, err)

		f.media.failDelete = errors.New("gone")
		updated, err := f.catalog.UpdateProduct(ctx, p.ID, storefront.ProductFields{Name: "Cake", Price: "3"}, image("new.jpg"))
		require.NoError(t, err)
		assert.NotEqual(t, p.ImageURL, updated.ImageURL)
		assert.Equal(t, []string{"update_product"}, f.observer.deleteFailed)
	})

	t.Run("validation failure leaves record unchanged", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, nil)
		require.NoError(t, err)

		_, err = f.catalog.UpdateProduct(ctx, p.ID, storefront.ProductFields{Name: "Cake", Price: "-5"}, nil)
		require.ErrorIs(t, err, storefront.ErrValidation)

		got, _ := f.catalog.GetProduct(ctx, p.ID)
		assert.Equal(t, "3", got.Price.String())
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalog.UpdateProduct(ctx, storefront.NewID(), storefront.ProductFields{Name: "x", Price: "1"}, nil)
		assert.ErrorIs(t, err, storefront.ErrNotFound)

		_, err = f.catalog.UpdateProduct(ctx, "bad-id", storefront.ProductFields{Name: "x", Price: "1"}, nil)
		assert.ErrorIs(t, err, storefront.ErrInvalidIdentifier)
	})
}

func TestDeleteProduct(t *testing.T) {
	ctx := context.Background()

	t.Run("deletes image then record", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("a.jpg"))
		require.NoError(t, err)

		require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
		assert.Equal(t, []string{"upload:a.jpg", "delete:img1"}, f.media.Calls())

		_, err = f.catalog.GetProduct(ctx, p.ID)
		assert.ErrorIs(t, err, storefront.ErrNotFound)
	})

	t.Run("image delete failure is swallowed", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, image("a.jpg"))
		require.NoError(t, err)

		f.media.failDelete = errors.New("gone")
		require.NoError(t, f.catalog.DeleteProduct(ctx, p.ID))
		assert.Equal(t, []string{"delete_product"}, f.observer.deleteFailed)

		n, _ := f.catalog.CountProducts(ctx)
		assert.Zero(t, n)
	})

	t.Run("missing product", func(t *testing.T) {
		f := newFixture(t)
		assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, storefront.NewID()), storefront.ErrNotFound)
		assert.ErrorIs(t, f.catalog.DeleteProduct(ctx, "x"), storefront.ErrInvalidIdentifier)
	})
}

func TestListProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: name, Price: "1"}, nil)
		require.NoError(t, err)
	}

	all, err := f.catalog.ListProducts(ctx, storefront.ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "a", all[0].Name)

	first, err := f.catalog.ListProducts(ctx, storefront.ListOptions{Limit: 4})
	require.NoError(t, err)
	require.Len(t, first, 4)
	assert.Equal(t, "d", first[3].Name)

	latest, err := f.catalog.ListProducts(ctx, storefront.ListOptions{Limit: 2, Sort: storefront.SortNewest})
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "e", latest[0].Name)
	assert.Equal(t, "d", latest[1].Name)
}

func TestReviews(t *testing.T) {
	ctx := context.Background()

	t.Run("average and ordering", func(t *testing.T) {
		f := newFixture(t)
		p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, nil)
		require.NoError(t, err)

		detail, err := f.catalog.GetProductWithReviews(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 0.0, detail.AverageRating)
		assert.NotNil(t, detail.Reviews)
		assert.Empty(t, detail.Reviews)

		for _, rating := range []int{5, 3, 4} {
			_, err := f.catalog.AddReview(ctx, p.ID, storefront.ReviewInput{ReviewerName: "Ana", Rating: rating, Comment: "ok"})
			require.NoError(t, err)
		}

		detail, err = f.catalog.GetProductWithReviews(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, 4.0, detail.AverageRating)
		assert.Equal(t, 3, detail.ReviewCount)
		require.Len(t, detail.Reviews, 3)
		assert.Equal(t, 4, detail.Reviews[0].Rating, "newest first")
		assert.Equal(t, 5, detail.Reviews[2].Rating)
	})

	t.Run("every valid rating is accepted", func(t *testing.T) {
		for rating := storefront.MinRating; rating <= storefront.MaxRating; rating++ {
			f := newFixture(t)
			p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, nil)
			require.NoError(t, err)

			_, err = f.catalog.AddReview(ctx, p.ID, storefront.ReviewInput{ReviewerName: "Ana", Rating: rating, Comment: "ok"})
			require.NoError(t, err)

			detail, err := f.catalog.GetProductWithReviews(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, float64(rating), detail.AverageRating)
		}
	})

	invalid := []struct {
		name  string
		input storefront.ReviewInput
	}{
		{"rating zero", storefront.ReviewInput{ReviewerName: "Ana", Rating: 0, Comment: "ok"}},
		{"rating six", storefront.ReviewInput{ReviewerName: "Ana", Rating: 6, Comment: "ok"}},
		{"empty name", storefront.ReviewInput{ReviewerName: "", Rating: 3, Comment: "ok"}},
		{"whitespace comment", storefront.ReviewInput{ReviewerName: "Ana", Rating: 3, Comment: "  "}},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			p, err := f.catalog.CreateProduct(ctx, storefront.ProductFields{Name: "Cake", Price: "3"}, nil)
			require.NoError(t, err)

			_, err = f.catalog.AddReview(ctx, p.ID, tt.input)
			assert.ErrorIs(t, err, storefront.ErrValidation)

			reviews, err := f.repo.ListReviews(ctx, p.ID)
			require.NoError(t, err)
			assert.Empty(t, reviews)
		})
	}

	t.Run("unknown product", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.catalog.AddReview(ctx, storefront.NewID(), storefront.ReviewInput{ReviewerName: "Ana", Rating: 3, Comment: "ok"})
		assert.ErrorIs(t, err, storefront.ErrProductNotFound)

		_, err = f.catalog.AddReview(ctx, "bad", storefront.ReviewInput{ReviewerName: "Ana", Rating: 3, Comment: "ok"})
		assert.ErrorIs(t, err, storefront.ErrInvalidIdentifier)
	})
}

func TestAverageRating(t *testing.T) {
	assert.Equal(t, 0.0, storefront.AverageRating(nil))
	assert.InDelta(t, 3.5, storefront.AverageRating([]*storefront.Review{{Rating: 3}, {Rating: 4}}), 1e-9)
}

func TestSearchProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, fields := range []storefront.ProductFields{
		{Name: "Chocolate Brownie", Description: "a rich brownie with brownie crumbs", Price: "5"},
		{Name: "Lemon Tart", Description: "tangy", Price: "4"},
		{Name: "Brownie Bites", Description: "small", Price: "3"},
	} {
		_, err := f.catalog.CreateProduct(ctx, fields, nil)
		require.NoError(t, err)
	}

	for _, q := range []string{"", "   "} {
		results, err := f.catalog.SearchProducts(ctx, q)
		require.NoError(t, err)
		assert.NotNil(t, results)
		assert.Empty(t, results)
	}

	results, err := f.catalog.SearchProducts(ctx, "brownie")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Chocolate Brownie", results[0].Name, "more matches rank first")
	assert.Equal(t, "Brownie Bites", results[1].Name)

	results, err = f.catalog.SearchProducts(ctx, "pavlova")
	require.NoError(t, err)
	assert.Empty(t, results)
}
