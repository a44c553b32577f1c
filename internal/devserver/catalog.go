package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/merchbay/storefront/internal/domain/catalog"
)

// GET /products?category=&search=
func (s *Server) handleListProducts(c *gin.Context) {
	category := c.Query("category")
	search := strings.ToLower(c.Query("search"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []catalog.Product{}
	for _, id := range s.productOrder {
		p, ok := s.products[id]
		if !ok {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		out = append(out, p)
	}
	c.JSON(http.StatusOK, out)
}

// GET /products/:id
func (s *Server) handleGetProduct(c *gin.Context) {
	s.mu.Lock()
	p, ok := s.products[c.Param("id")]
	s.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	c.JSON(http.StatusOK, p)
}

// GET /products/:id/reviews
func (s *Server) handleListReviews(c *gin.Context) {
	productID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[productID]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	reviews := append([]catalog.Review(nil), s.reviews[productID]...)
	if reviews == nil {
		reviews = []catalog.Review{}
	}
	c.JSON(http.StatusOK, reviews)
}

type reviewInput struct {
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// POST /products/:id/reviews
func (s *Server) handleAddReview(c *gin.Context) {
	var input reviewInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	productID := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	product, ok := s.products[productID]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	author := "anonymous"
	if u := s.usersByID[c.GetString("user_id")]; u != nil {
		author = u.Name
	}
	review := catalog.Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		Author:    author,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now(),
	}
	s.reviews[productID] = append(s.reviews[productID], review)

	// Keep the displayed rating in step with the reviews.
	var sum int
	for _, r := range s.reviews[productID] {
		sum += r.Rating
	}
	product.Rating = float64(sum) / float64(len(s.reviews[productID]))
	s.products[productID] = product

	c.JSON(http.StatusCreated, review)
}
