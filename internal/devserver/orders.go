package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/merchbay/storefront/internal/domain/catalog"
	"github.com/merchbay/storefront/internal/domain/order"
)

// GET /orders
func (s *Server) handleListOrders(c *gin.Context) {
	s.mu.Lock()
	orders := append([]order.Order(nil), s.orders[c.GetString("user_id")]...)
	s.mu.Unlock()
	if orders == nil {
		orders = []order.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// GET /favorites
func (s *Server) handleListFavorites(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []catalog.Product{}
	for _, id := range s.favorites[c.GetString("user_id")] {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	c.JSON(http.StatusOK, out)
}

type favoriteInput struct {
	ProductID string `json:"product_id" binding:"required"`
}

// POST /favorites
func (s *Server) handleAddFavorite(c *gin.Context) {
	var input favoriteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	userID := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[input.ProductID]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
		return
	}
	for _, id := range s.favorites[userID] {
		if id == input.ProductID {
			c.Status(http.StatusNoContent)
			return
		}
	}
	s.favorites[userID] = append(s.favorites[userID], input.ProductID)
	c.Status(http.StatusNoContent)
}

// DELETE /favorites/:id
func (s *Server) handleRemoveFavorite(c *gin.Context) {
	userID := c.GetString("user_id")
	productID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	favs := s.favorites[userID]
	for i, id := range favs {
		if id == productID {
			s.favorites[userID] = append(favs[:i], favs[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}

// GET /notifications
func (s *Server) handleListNotifications(c *gin.Context) {
	s.mu.Lock()
	notifications := append([]order.Notification(nil), s.notifications[c.GetString("user_id")]...)
	s.mu.Unlock()
	if notifications == nil {
		notifications = []order.Notification{}
	}
	c.JSON(http.StatusOK, notifications)
}
