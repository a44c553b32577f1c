package devserver

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/merchbay/storefront/internal/domain/catalog"
	"github.com/merchbay/storefront/internal/domain/order"
)

type productInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	ImageRef    string  `json:"image_ref"`
}

// POST /admin/products
func (s *Server) handleCreateProduct(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	p := catalog.Product{
		ID:          uuid.NewString(),
		Name:        input.Name,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		ImageRef:    input.ImageRef,
	}

	s.mu.Lock()
	s.products[p.ID] = p
	s.productOrder = append(s.productOrder, p.ID)
	s.mu.Unlock()

	s.log.WithField("product_id", p.ID).Info("product created")
	c.JSON(http.StatusCreated, p)
}

// PUT /admin/products/:id
func (s *Server) handleUpdateProduct(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.products[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	existing.Name = input.Name
	existing.Description = input.Description
	existing.Category = input.Category
	existing.Price = input.Price
	existing.ImageRef = input.ImageRef
	s.products[id] = existing
	c.JSON(http.StatusOK, existing)
}

// DELETE /admin/products/:id
func (s *Server) handleDeleteProduct(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.products[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "product not found"})
		return
	}
	delete(s.products, id)
	for i, pid := range s.productOrder {
		if pid == id {
			s.productOrder = append(s.productOrder[:i], s.productOrder[i+1:]...)
			break
		}
	}
	c.Status(http.StatusNoContent)
}

// GET /admin/reports/sales?from=&to=
func (s *Server) handleSalesReport(c *gin.Context) {
	from, err := time.Parse(time.RFC3339, c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
		return
	}
	to, err := time.Parse(time.RFC3339, c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	report := order.SalesReport{From: from, To: to}
	byProduct := make(map[string]*order.ProductSales)
	for _, userOrders := range s.orders {
		for _, o := range userOrders {
			if o.PlacedAt.Before(from) || o.PlacedAt.After(to) {
				continue
			}
			report.Orders++
			report.Revenue += o.Total
			for _, line := range o.Lines {
				ps := byProduct[line.ProductID]
				if ps == nil {
					ps = &order.ProductSales{ProductID: line.ProductID, Name: line.Name}
					byProduct[line.ProductID] = ps
				}
				ps.Units += line.Quantity
				ps.Revenue += line.UnitPrice * float64(line.Quantity)
			}
		}
	}
	for _, ps := range byProduct {
		report.TopProducts = append(report.TopProducts, *ps)
	}
	sort.Slice(report.TopProducts, func(i, j int) bool {
		return report.TopProducts[i].Revenue > report.TopProducts[j].Revenue
	})
	c.JSON(http.StatusOK, report)
}
