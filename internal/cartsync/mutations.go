package cartsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/merchbay/storefront/internal/domain/cart"
	"github.com/merchbay/storefront/internal/metrics"
	"github.com/merchbay/storefront/internal/storage"
)

// AddItem puts quantity units of a product in the cart. While anonymous the
// line is created or incremented locally with no network call; once
// authenticated the remote service performs the add and its returned cart
// replaces the local one (the server decides resulting quantities).
func (s *Synchronizer) AddItem(ctx context.Context, productID string, quantity int) error {
	if productID == "" {
		metrics.ObserveMutation("add", "invalid")
		return fmt.Errorf("product id is required")
	}
	if quantity < 1 {
		metrics.ObserveMutation("add", "invalid")
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	switch s.state {
	case StateAuthenticating:
		s.mu.Unlock()
		metrics.ObserveMutation("add", "rejected")
		return ErrNotAuthenticated
	case StateAnonymous:
		if i := cart.IndexOfProduct(s.lines, productID); i >= 0 {
			s.lines[i].Quantity += quantity
			s.setCartLocked(ctx, s.lines)
		} else {
			s.setCartLocked(ctx, append(s.lines, cart.Line{ProductID: productID, Quantity: quantity}))
		}
		s.mu.Unlock()
		metrics.ObserveMutation("add", "ok")
		s.notify.Success("added to cart")
		return nil
	}
	userID := s.sess.UserID
	gen := s.gen
	s.mu.Unlock()

	lines, err := s.remote.AddCartItem(ctx, userID, productID, quantity)
	if err != nil {
		metrics.ObserveMutation("add", "error")
		s.notify.Error("could not add item to cart")
		return err
	}
	s.applyRemote(ctx, gen, lines)
	metrics.ObserveMutation("add", "ok")
	s.notify.Success("added to cart")
	return nil
}

// UpdateQuantity sets the quantity of a cart line. While anonymous the id
// addresses the product (lines have no server identity yet); once
// authenticated it is the remote line id, and the full cart is re-fetched
// after the update so the server stays authoritative.
func (s *Synchronizer) UpdateQuantity(ctx context.Context, id string, quantity int) error {
	if quantity < 1 {
		metrics.ObserveMutation("update", "invalid")
		return ErrInvalidQuantity
	}

	s.mu.Lock()
	switch s.state {
	case StateAuthenticating:
		s.mu.Unlock()
		metrics.ObserveMutation("update", "rejected")
		return ErrNotAuthenticated
	case StateAnonymous:
		i := cart.IndexOfProduct(s.lines, id)
		if i < 0 {
			s.mu.Unlock()
			metrics.ObserveMutation("update", "invalid")
			return fmt.Errorf("no cart line for product %s", id)
		}
		s.lines[i].Quantity = quantity
		s.setCartLocked(ctx, s.lines)
		s.mu.Unlock()
		metrics.ObserveMutation("update", "ok")
		s.notify.Success("cart updated")
		return nil
	}
	userID := s.sess.UserID
	gen := s.gen
	s.mu.Unlock()

	if err := s.remote.UpdateCartItem(ctx, id, quantity); err != nil {
		metrics.ObserveMutation("update", "error")
		s.notify.Error("could not update your cart")
		return err
	}
	lines, err := s.remote.Cart(ctx, userID)
	if err != nil {
		metrics.ObserveMutation("update", "error")
		s.notify.Error("could not update your cart")
		return err
	}
	s.applyRemote(ctx, gen, lines)
	metrics.ObserveMutation("update", "ok")
	s.notify.Success("cart updated")
	return nil
}

// RemoveItem deletes a cart line, addressed like UpdateQuantity.
func (s *Synchronizer) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	switch s.state {
	case StateAuthenticating:
		s.mu.Unlock()
		metrics.ObserveMutation("remove", "rejected")
		return ErrNotAuthenticated
	case StateAnonymous:
		i := cart.IndexOfProduct(s.lines, id)
		if i < 0 {
			s.mu.Unlock()
			metrics.ObserveMutation("remove", "invalid")
			return fmt.Errorf("no cart line for product %s", id)
		}
		s.setCartLocked(ctx, append(s.lines[:i], s.lines[i+1:]...))
		s.mu.Unlock()
		metrics.ObserveMutation("remove", "ok")
		s.notify.Success("removed from cart")
		return nil
	}
	userID := s.sess.UserID
	gen := s.gen
	s.mu.Unlock()

	if err := s.remote.RemoveCartItem(ctx, id); err != nil {
		metrics.ObserveMutation("remove", "error")
		s.notify.Error("could not update your cart")
		return err
	}
	lines, err := s.remote.Cart(ctx, userID)
	if err != nil {
		metrics.ObserveMutation("remove", "error")
		s.notify.Error("could not update your cart")
		return err
	}
	s.applyRemote(ctx, gen, lines)
	metrics.ObserveMutation("remove", "ok")
	s.notify.Success("removed from cart")
	return nil
}

// ClearCart empties the in-memory cart and removes the durable cart key. It
// never calls the remote service; it is used after checkout, when the
// backend has already emptied the remote cart as part of order creation.
func (s *Synchronizer) ClearCart(ctx context.Context) error {
	s.mu.Lock()
	s.lines = nil
	s.mu.Unlock()

	if err := s.durable.Delete(ctx, storage.KeyCartItems); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.log.WithError(err).Warn("remove stored cart failed")
	}
	metrics.ObserveMutation("clear", "ok")
	s.notify.Info("cart cleared")
	return nil
}
