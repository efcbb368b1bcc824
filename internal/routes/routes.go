package routes

import (
	"net/http"
	"time"

	"github.com/01moynul/storefront-golang/internal/cache"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Options configures the router's middleware. Cache backs Idempotency-Key
// tracking on checkout; Roles reads the caller's current role for admin
// routes.
type Options struct {
	Logger         zerolog.Logger
	CORSOrigin     string
	RateLimit      float64
	RateBurst      int
	Cache          cache.Cache
	IdempotencyTTL time.Duration
	Roles          middleware.RoleSource
}

func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()

	// --- Global Middleware ---
	// CORS runs first; it answers preflight requests itself.
	router.Use(
		middleware.CORSMiddleware(opts.CORSOrigin),
		middleware.RequestID(),
		middleware.AccessLog(opts.Logger),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			opts.Logger.Error().Interface("panic", recovered).Str("path", c.FullPath()).Msg("handler panicked")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"success": false, "message": "Something went wrong. Please try again.",
			})
		}),
		middleware.RateLimit(opts.RateLimit, opts.RateBurst),
	)

	authn := middleware.AuthMiddleware(h.Tokens)
	admin := middleware.AdminMiddleware(opts.Roles)
	viewer := middleware.OptionalAuth(h.Tokens)

	// --- Ping Route (Public) ---
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// --- Auth Routes (Public) ---
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)

	// --- Public Catalog Routes ---
	router.GET("/zones", h.ListZones)
	router.GET("/categories", h.GetAllCategories)
	router.GET("/categories/:id", h.GetCategory)
	router.GET("/brands", h.GetAllBrands)
	router.GET("/products", viewer, h.ListProducts)
	router.GET("/products/:id", viewer, h.GetProduct)
	router.GET("/products/:id/variants", viewer, h.ListVariants)
	router.GET("/products/:id/reviews", h.ListReviews)
	router.POST("/newsletter", h.Subscribe)

	// --- Protected Routes (Login Required) ---
	user := router.Group("/")
	user.Use(authn)
	{
		user.GET("/profile", h.Profile)
		user.POST("/change-password", h.ChangePassword)

		user.GET("/cart", h.GetCart)
		user.POST("/cart", h.AddToCart)
		user.PUT("/cart/:product_id", h.UpdateCartItem)
		user.DELETE("/cart/:product_id", h.DeleteCartItem)

		user.GET("/addresses", h.ListAddresses)
		user.POST("/addresses", h.CreateAddress)
		user.GET("/addresses/:id", h.GetAddress)
		user.PUT("/addresses/:id", h.UpdateAddress)
		user.DELETE("/addresses/:id", h.DeleteAddress)

		user.GET("/shipping-price", h.ShippingPrice)
		user.POST("/checkout", middleware.Idempotency(opts.Cache, opts.IdempotencyTTL, opts.Logger), h.PlaceOrder)
		user.GET("/orders/my", h.MyOrders)

		user.POST("/products/:id/reviews", h.CreateReview)
	}

	// --- Admin-Only Routes ---
	adm := router.Group("/")
	adm.Use(authn, admin)
	{
		adm.GET("/users/count", h.CountUsers)
		adm.PUT("/users/:id/promote", h.PromoteUser)
		adm.GET("/dashboard-stats", h.GetDashboardStats)

		adm.GET("/zones/:id", h.GetZone)
		adm.POST("/zones", h.CreateZone)
		adm.PUT("/zones/:id", h.UpdateZone)
		adm.DELETE("/zones/:id", h.DeleteZone)

		adm.POST("/categories", h.CreateCategory)
		adm.PUT("/categories/:id", h.UpdateCategory)
		adm.DELETE("/categories/:id", h.DeleteCategory)
		adm.POST("/subcategories", h.CreateSubcategory)
		adm.PUT("/subcategories/:id", h.UpdateSubcategory)
		adm.DELETE("/subcategories/:id", h.DeleteSubcategory)

		adm.GET("/brands/:id", h.GetBrand)
		adm.POST("/brands", h.CreateBrand)
		adm.PUT("/brands/:id", h.UpdateBrand)
		adm.DELETE("/brands/:id", h.DeleteBrand)

		adm.GET("/products/count", h.CountProducts)
		adm.POST("/products", h.CreateProduct)
		adm.PUT("/products/:id", h.UpdateProduct)
		adm.DELETE("/products/:id", h.DeleteProduct)
		adm.POST("/products/:id/variants", h.CreateVariant)
		adm.PUT("/variants/:id", h.UpdateVariant)
		adm.DELETE("/variants/:id", h.DeleteVariant)

		adm.GET("/orders", h.ListOrders)
		adm.GET("/orders/:id", h.GetOrder)
		adm.PUT("/orders/:id/update-status", h.UpdateOrderStatus)
		adm.GET("/orders/:id/profit", h.OrderProfit)

		adm.GET("/newsletter", h.ListSubscriptions)
	}

	return router
}
