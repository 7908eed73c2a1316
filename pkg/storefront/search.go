package storefront

import (
	"context"
	"strings"
)

// Search runs the site-wide search over products and blog posts.
func Search(ctx context.Context, catalog *CatalogService, content *ContentService, query string) (*SearchResults, error) {
	query = strings.TrimSpace(query)
	products, err := catalog.SearchProducts(ctx, query)
	if err != nil {
		return nil, err
	}
	posts, err := content.SearchPosts(ctx, query)
	if err != nil {
		return nil, err
	}
	return &SearchResults{Query: query, Products: products, Posts: posts}, nil
}
