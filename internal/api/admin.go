package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/merchbay/storefront/internal/domain/catalog"
	"github.com/merchbay/storefront/internal/domain/order"
)

// CreateProduct adds a catalog entry. Requires an admin token.
func (c *Client) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	var created catalog.Product
	if err := c.do(ctx, http.MethodPost, "/admin/products", p, &created); err != nil {
		return catalog.Product{}, fmt.Errorf("create product: %w", err)
	}
	return created, nil
}

// UpdateProduct replaces a catalog entry. Requires an admin token.
func (c *Client) UpdateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	if p.ID == "" {
		return catalog.Product{}, fmt.Errorf("product id is required")
	}
	var updated catalog.Product
	if err := c.do(ctx, http.MethodPut, "/admin/products/"+url.PathEscape(p.ID), p, &updated); err != nil {
		return catalog.Product{}, fmt.Errorf("update product: %w", err)
	}
	return updated, nil
}

// DeleteProduct removes a catalog entry. Requires an admin token.
func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	if err := c.do(ctx, http.MethodDelete, "/admin/products/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// SalesReport aggregates orders placed in [from, to]. Requires an admin
// token.
func (c *Client) SalesReport(ctx context.Context, from, to time.Time) (order.SalesReport, error) {
	q := url.Values{}
	q.Set("from", from.Format(time.RFC3339))
	q.Set("to", to.Format(time.RFC3339))
	var report order.SalesReport
	if err := c.do(ctx, http.MethodGet, "/admin/reports/sales?"+q.Encode(), nil, &report); err != nil {
		return order.SalesReport{}, fmt.Errorf("fetch sales report: %w", err)
	}
	return report, nil
}
