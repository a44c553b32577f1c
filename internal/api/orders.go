package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/merchbay/storefront/internal/domain/catalog"
	"github.com/merchbay/storefront/internal/domain/order"
)

// Orders lists the authenticated user's order history, newest first.
func (c *Client) Orders(ctx context.Context) ([]order.Order, error) {
	var orders []order.Order
	if err := c.do(ctx, http.MethodGet, "/orders", nil, &orders); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// Favorites lists the authenticated user's favorite products.
func (c *Client) Favorites(ctx context.Context) ([]catalog.Product, error) {
	var products []catalog.Product
	if err := c.do(ctx, http.MethodGet, "/favorites", nil, &products); err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return products, nil
}

type addFavoriteRequest struct {
	ProductID string `json:"product_id"`
}

// AddFavorite marks a product as favorite.
func (c *Client) AddFavorite(ctx context.Context, productID string) error {
	if err := c.do(ctx, http.MethodPost, "/favorites", addFavoriteRequest{ProductID: productID}, nil); err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

// RemoveFavorite unmarks a favorite product.
func (c *Client) RemoveFavorite(ctx context.Context, productID string) error {
	if err := c.do(ctx, http.MethodDelete, "/favorites/"+url.PathEscape(productID), nil, nil); err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	return nil
}

// Notifications lists the authenticated user's notifications.
func (c *Client) Notifications(ctx context.Context) ([]order.Notification, error) {
	var notifications []order.Notification
	if err := c.do(ctx, http.MethodGet, "/notifications", nil, &notifications); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}
