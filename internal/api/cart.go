package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/merchbay/storefront/internal/domain/cart"
)

type addCartRequest struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartRequest struct {
	Quantity int `json:"quantity"`
}

// Cart fetches the full remote cart for the user.
func (c *Client) Cart(ctx context.Context, userID string) ([]cart.Line, error) {
	var lines []cart.Line
	if err := c.do(ctx, http.MethodGet, "/cart/"+url.PathEscape(userID), nil, &lines); err != nil {
		return nil, fmt.Errorf("fetch cart: %w", err)
	}
	return lines, nil
}

// AddCartItem creates or increments a cart line. The backend returns the
// resulting full cart, which is authoritative for quantities.
func (c *Client) AddCartItem(ctx context.Context, userID, productID string, quantity int) ([]cart.Line, error) {
	req := addCartRequest{UserID: userID, ProductID: productID, Quantity: quantity}
	var lines []cart.Line
	if err := c.do(ctx, http.MethodPost, "/cart", req, &lines); err != nil {
		return nil, fmt.Errorf("add cart item: %w", err)
	}
	return lines, nil
}

// UpdateCartItem sets the quantity of an existing line.
func (c *Client) UpdateCartItem(ctx context.Context, lineID string, quantity int) error {
	req := updateCartRequest{Quantity: quantity}
	if err := c.do(ctx, http.MethodPut, "/cart/"+url.PathEscape(lineID), req, nil); err != nil {
		return fmt.Errorf("update cart item: %w", err)
	}
	return nil
}

// RemoveCartItem deletes a line from the remote cart.
func (c *Client) RemoveCartItem(ctx context.Context, lineID string) error {
	if err := c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(lineID), nil, nil); err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return nil
}
