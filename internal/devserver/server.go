// Package devserver is an in-memory stand-in for the MerchBay shop backend,
// covering the endpoints the storefront client consumes. It exists for local
// development and demos; it implements none of the real backend's business
// rules beyond what the client contract requires.
package devserver

import (
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/merchbay/storefront/internal/domain/cart"
	"github.com/merchbay/storefront/internal/domain/catalog"
	"github.com/merchbay/storefront/internal/domain/order"
	"github.com/merchbay/storefront/internal/metrics"
	"github.com/merchbay/storefront/pkg/logger"
)

type user struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Admin        bool
}

// Server holds all fixture state behind one mutex.
type Server struct {
	log    *logger.Logger
	secret []byte

	mu            sync.Mutex
	usersByEmail  map[string]*user
	usersByID     map[string]*user
	carts         map[string][]cart.Line
	products      map[string]catalog.Product
	productOrder  []string
	reviews       map[string][]catalog.Review
	orders        map[string][]order.Order
	favorites     map[string][]string
	notifications map[string][]order.Notification
}

// New creates a seeded fixture server signing tokens with secret.
func New(secret string, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewDefault("devserver")
	}
	s := &Server{
		log:           log,
		secret:        []byte(secret),
		usersByEmail:  make(map[string]*user),
		usersByID:     make(map[string]*user),
		carts:         make(map[string][]cart.Line),
		products:      make(map[string]catalog.Product),
		reviews:       make(map[string][]catalog.Review),
		orders:        make(map[string][]order.Order),
		favorites:     make(map[string][]string),
		notifications: make(map[string][]order.Notification),
	}
	s.seed()
	return s
}

// Router builds the HTTP surface.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), cors.Default(), requestMetrics())

	r.POST("/auth/login", s.handleLogin)
	r.POST("/auth/register", s.handleRegister)
	r.GET("/auth/profile", s.authRequired, s.handleProfile)

	r.GET("/cart/:id", s.authRequired, s.handleGetCart)
	r.POST("/cart", s.authRequired, s.handleAddCartItem)
	r.PUT("/cart/:id", s.authRequired, s.handleUpdateCartItem)
	r.DELETE("/cart/:id", s.authRequired, s.handleRemoveCartItem)

	r.GET("/products", s.handleListProducts)
	r.GET("/products/:id", s.handleGetProduct)
	r.GET("/products/:id/reviews", s.handleListReviews)
	r.POST("/products/:id/reviews", s.authRequired, s.handleAddReview)

	r.GET("/orders", s.authRequired, s.handleListOrders)
	r.GET("/favorites", s.authRequired, s.handleListFavorites)
	r.POST("/favorites", s.authRequired, s.handleAddFavorite)
	r.DELETE("/favorites/:id", s.authRequired, s.handleRemoveFavorite)
	r.GET("/notifications", s.authRequired, s.handleListNotifications)

	admin := r.Group("/admin", s.authRequired, s.adminRequired)
	admin.POST("/products", s.handleCreateProduct)
	admin.PUT("/products/:id", s.handleUpdateProduct)
	admin.DELETE("/products/:id", s.handleDeleteProduct)
	admin.GET("/reports/sales", s.handleSalesReport)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	return r
}

func requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status())
	}
}

// seed loads the demo catalog and two well-known accounts. The seed
// passwords are fixtures; do not reuse them anywhere real.
func (s *Server) seed() {
	s.addUser("Morgan Admin", "admin@merchbay.test", "letmein", true)
	shopper := s.addUser("Sam Shopper", "shopper@merchbay.test", "letmein", false)

	for _, p := range []catalog.Product{
		{ID: "tee-classic", Name: "Classic Tee", Description: "Heavyweight cotton tee with the MerchBay crest", Category: "apparel", Price: 24.00, ImageRef: "/img/tee-classic.png"},
		{ID: "hoodie-zip", Name: "Zip Hoodie", Description: "Fleece-lined zip hoodie", Category: "apparel", Price: 58.00, ImageRef: "/img/hoodie-zip.png"},
		{ID: "mug-enamel", Name: "Enamel Mug", Description: "Campfire enamel mug, 350ml", Category: "drinkware", Price: 16.50, ImageRef: "/img/mug-enamel.png"},
		{ID: "sticker-pack", Name: "Sticker Pack", Description: "Six die-cut vinyl stickers", Category: "accessories", Price: 7.00, ImageRef: "/img/sticker-pack.png"},
	} {
		s.products[p.ID] = p
		s.productOrder = append(s.productOrder, p.ID)
	}

	placed := time.Now().AddDate(0, 0, -12)
	s.orders[shopper.ID] = []order.Order{{
		ID: uuid.NewString(),
		Lines: []cart.Line{
			{LineID: uuid.NewString(), ProductID: "mug-enamel", Name: "Enamel Mug", UnitPrice: 16.50, Quantity: 2},
		},
		Total:    33.00,
		Status:   "delivered",
		PlacedAt: placed,
	}}
	s.notifications[shopper.ID] = []order.Notification{{
		ID:        uuid.NewString(),
		Message:   "Your order was delivered",
		Read:      false,
		CreatedAt: placed.AddDate(0, 0, 3),
	}}
}

func (s *Server) addUser(name, email, password string, admin bool) *user {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		// bcrypt only fails on oversized input; seeds are short.
		panic(err)
	}
	u := &user{ID: uuid.NewString(), Name: name, Email: email, PasswordHash: hash, Admin: admin}
	s.usersByEmail[email] = u
	s.usersByID[u.ID] = u
	return u
}
