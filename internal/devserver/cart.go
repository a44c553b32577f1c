package devserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/merchbay/storefront/internal/domain/cart"
)

type cartItemInput struct {
	UserID    string `json:"user_id" binding:"required"`
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
}

type quantityInput struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// GET /cart/:id
func (s *Server) handleGetCart(c *gin.Context) {
	userID := c.Param("id")
	if userID != c.GetString("user_id") && !c.GetBool("is_admin") {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot read another user's cart"})
		return
	}

	s.mu.Lock()
	lines := append([]cart.Line(nil), s.carts[userID]...)
	s.mu.Unlock()
	if lines == nil {
		lines = []cart.Line{}
	}
	c.JSON(http.StatusOK, lines)
}

// POST /cart creates or increments a line and returns the resulting full
// cart; the server, not the client, decides the final quantity.
func (s *Server) handleAddCartItem(c *gin.Context) {
	var input cartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	if input.UserID != c.GetString("user_id") {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot modify another user's cart"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.products[input.ProductID]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product does not exist"})
		return
	}

	lines := s.carts[input.UserID]
	if i := cart.IndexOfProduct(lines, input.ProductID); i >= 0 {
		lines[i].Quantity += input.Quantity
	} else {
		lines = append(lines, cart.Line{
			LineID:    uuid.NewString(),
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.Price,
			Quantity:  input.Quantity,
			ImageRef:  product.ImageRef,
		})
	}
	s.carts[input.UserID] = lines
	c.JSON(http.StatusOK, lines)
}

// PUT /cart/:id
func (s *Server) handleUpdateCartItem(c *gin.Context) {
	var input quantityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	lineID := c.Param("id")
	userID := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].LineID == lineID {
			lines[i].Quantity = input.Quantity
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
}

// DELETE /cart/:id
func (s *Server) handleRemoveCartItem(c *gin.Context) {
	lineID := c.Param("id")
	userID := c.GetString("user_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.carts[userID]
	for i := range lines {
		if lines[i].LineID == lineID {
			s.carts[userID] = append(lines[:i], lines[i+1:]...)
			c.Status(http.StatusNoContent)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "cart line not found"})
}
