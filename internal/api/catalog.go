package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/merchbay/storefront/internal/domain/catalog"
)

// Products lists catalog products, optionally filtered by category and a
// free-text search term. Empty filters return the whole catalog.
func (c *Client) Products(ctx context.Context, category, search string) ([]catalog.Product, error) {
	q := url.Values{}
	if category != "" {
		q.Set("category", category)
	}
	if search != "" {
		q.Set("search", search)
	}
	path := "/products"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var products []catalog.Product
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// Product fetches one catalog entry.
func (c *Client) Product(ctx context.Context, id string) (catalog.Product, error) {
	var p catalog.Product
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(id), nil, &p); err != nil {
		return catalog.Product{}, fmt.Errorf("fetch product: %w", err)
	}
	return p, nil
}

// Reviews lists the reviews of a product.
func (c *Client) Reviews(ctx context.Context, productID string) ([]catalog.Review, error) {
	var reviews []catalog.Review
	path := "/products/" + url.PathEscape(productID) + "/reviews"
	if err := c.do(ctx, http.MethodGet, path, nil, &reviews); err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

type addReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment,omitempty"`
}

// AddReview posts a review for a product. Requires an installed token.
func (c *Client) AddReview(ctx context.Context, productID string, rating int, comment string) (catalog.Review, error) {
	if rating < 1 || rating > 5 {
		return catalog.Review{}, fmt.Errorf("rating must be between 1 and 5")
	}
	var review catalog.Review
	path := "/products/" + url.PathEscape(productID) + "/reviews"
	if err := c.do(ctx, http.MethodPost, path, addReviewRequest{Rating: rating, Comment: comment}, &review); err != nil {
		return catalog.Review{}, fmt.Errorf("add review: %w", err)
	}
	return review, nil
}
