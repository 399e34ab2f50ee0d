// internal/interfaces/http/routes/routes.go
package routes

import (
	"time"

	"github.com/electrostore/ecommerce-backend/internal/config"
	"github.com/electrostore/ecommerce-backend/internal/domain/analytics"
	"github.com/electrostore/ecommerce-backend/internal/domain/cart"
	"github.com/electrostore/ecommerce-backend/internal/domain/order"
	"github.com/electrostore/ecommerce-backend/internal/domain/payment"
	"github.com/electrostore/ecommerce-backend/internal/domain/product"
	"github.com/electrostore/ecommerce-backend/internal/domain/user"
	"github.com/electrostore/ecommerce-backend/internal/interfaces/http/handlers"
	"github.com/electrostore/ecommerce-backend/internal/interfaces/http/middleware"
	"github.com/electrostore/ecommerce-backend/internal/pkg/auth"
	"github.com/electrostore/ecommerce-backend/internal/pkg/pdf"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Dependencies are the collaborators the API routes are built from
type Dependencies struct {
	Config   *config.Config
	DB       *gorm.DB
	Provider payment.Provider
	Receipts *pdf.Service
	Log      logrus.FieldLogger
	// RateLimit guards every route except the provider webhook
	RateLimit gin.HandlerFunc
}

type services struct {
	jwt        *auth.JWTManager
	users      *user.Service
	userAdmin  *user.AdminService
	addresses  *user.AddressService
	products   *product.Service
	categories *product.CategoryService
	carts      *cart.Service
	orders     *order.Service
	intents    *payment.IntentService
	reconciler *payment.Reconciler
	ledger     *payment.Ledger
	earnings   *analytics.Service
}

func newServices(deps Dependencies) *services {
	cfg := deps.Config
	addresses := user.NewAddressService(deps.DB, cfg.Checkout)
	orders := order.NewService(deps.DB, addresses, cfg.Checkout.OrderCodePrefix, deps.Log)
	ledger := payment.NewLedger(deps.DB)

	return &services{
		jwt:        auth.NewJWTManager(cfg),
		users:      user.NewService(deps.DB, cfg, deps.Log),
		userAdmin:  user.NewAdminService(deps.DB, deps.Log),
		addresses:  addresses,
		products:   product.NewService(deps.DB),
		categories: product.NewCategoryService(deps.DB),
		carts:      cart.NewService(deps.DB),
		orders:     orders,
		intents:    payment.NewIntentService(orders, deps.Provider, cfg, deps.Log),
		reconciler: payment.NewReconciler(deps.Provider, orders, ledger, deps.Log),
		ledger:     ledger,
		earnings:   analytics.NewService(deps.DB, time.Local),
	}
}

// SetupRoutes registers every API route on rg
func SetupRoutes(rg *gin.RouterGroup, deps Dependencies) {
	if deps.Receipts == nil {
		deps.Receipts = pdf.NewService(deps.Config.Receipt)
	}
	svc := newServices(deps)
	paymentHandler := handlers.NewPaymentHandler(svc.intents, svc.reconciler, svc.ledger, deps.Config.Checkout.FrontendRedirectBase, deps.Log)

	// Provider notifications must always be acknowledged, so they bypass the limiter
	rg.POST("/payments/webhook", paymentHandler.Webhook)

	api := rg
	if deps.RateLimit != nil {
		api = rg.Group("", deps.RateLimit)
	}

	requireAuth := middleware.AuthMiddleware(svc.jwt)
	optionalAuth := middleware.OptionalAuthMiddleware(svc.jwt)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	setupAuthRoutes(api, svc, requireAuth)
	setupUserRoutes(api, svc, requireAuth, adminOnly)
	setupCatalogRoutes(api, svc, requireAuth, optionalAuth, adminOnly)
	setupAddressRoutes(api, svc, requireAuth)
	setupCartRoutes(api, svc, requireAuth)
	setupOrderRoutes(api, svc, deps.Receipts, requireAuth, adminOnly)
	setupPaymentRoutes(api, paymentHandler, requireAuth, adminOnly)
	setupEarningsRoutes(api, svc, requireAuth, adminOnly)
}

func setupAuthRoutes(rg *gin.RouterGroup, svc *services, requireAuth gin.HandlerFunc) {
	authHandler := handlers.NewAuthHandler(svc.users)

	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.RefreshToken)
		authGroup.POST("/logout", authHandler.Logout)
		authGroup.GET("/me", requireAuth, authHandler.GetCurrentUser)
	}
}

func setupUserRoutes(rg *gin.RouterGroup, svc *services, requireAuth, adminOnly gin.HandlerFunc) {
	profileHandler := handlers.NewUserProfileHandler(svc.users)
	adminHandler := handlers.NewUserAdminHandler(svc.userAdmin)

	users := rg.Group("/users", requireAuth)
	{
		users.GET("/profile", profileHandler.GetProfile)
		users.PUT("/profile", profileHandler.UpdateProfile)
		users.PUT("/profile/password", profileHandler.ChangePassword)

		admin := users.Group("", adminOnly)
		admin.GET("", adminHandler.GetUsers)
		admin.GET("/:id", adminHandler.GetUser)
		admin.PUT("/:id", adminHandler.UpdateUser)
		admin.DELETE("/:id", adminHandler.DeleteUser)
	}
}

func setupCatalogRoutes(rg *gin.RouterGroup, svc *services, requireAuth, optionalAuth, adminOnly gin.HandlerFunc) {
	productHandler := handlers.NewProductHandler(svc.products)
	categoryHandler := handlers.NewCategoryHandler(svc.categories)

	products := rg.Group("/products")
	{
		products.GET("", optionalAuth, productHandler.GetProducts)
		products.GET("/:id", optionalAuth, productHandler.GetProduct)

		admin := products.Group("", requireAuth, adminOnly)
		admin.POST("", productHandler.CreateProduct)
		admin.PUT("/:id", productHandler.UpdateProduct)
		admin.DELETE("/:id", productHandler.DeleteProduct)
	}

	categories := rg.Group("/categories")
	{
		categories.GET("", optionalAuth, categoryHandler.GetCategories)
		categories.GET("/:id", categoryHandler.GetCategory)

		admin := categories.Group("", requireAuth, adminOnly)
		admin.POST("", categoryHandler.CreateCategory)
		admin.PUT("/:id", categoryHandler.UpdateCategory)
		admin.DELETE("/:id", categoryHandler.DeleteCategory)
	}
}

func setupAddressRoutes(rg *gin.RouterGroup, svc *services, requireAuth gin.HandlerFunc) {
	addressHandler := handlers.NewAddressHandler(svc.addresses)

	addresses := rg.Group("/addresses", requireAuth)
	{
		addresses.GET("", addressHandler.GetAddresses)
		addresses.POST("", addressHandler.CreateAddress)
		addresses.GET("/:id", addressHandler.GetAddress)
		addresses.PUT("/:id", addressHandler.UpdateAddress)
		addresses.DELETE("/:id", addressHandler.DeleteAddress)
	}
}

func setupCartRoutes(rg *gin.RouterGroup, svc *services, requireAuth gin.HandlerFunc) {
	cartHandler := handlers.NewCartHandler(svc.carts)
	checkoutHandler := handlers.NewCheckoutHandler(svc.orders)

	cartGroup := rg.Group("/cart", requireAuth)
	{
		cartGroup.GET("", cartHandler.GetCart)
		cartGroup.POST("/items", cartHandler.AddToCart)
		cartGroup.PUT("/items/:productId", cartHandler.UpdateCartItem)
		cartGroup.DELETE("/items/:productId", cartHandler.RemoveFromCart)
		cartGroup.DELETE("", cartHandler.ClearCart)
	}

	rg.POST("/checkout", requireAuth, checkoutHandler.Checkout)
}

func setupOrderRoutes(rg *gin.RouterGroup, svc *services, receipts *pdf.Service, requireAuth, adminOnly gin.HandlerFunc) {
	orderHandler := handlers.NewOrderHandler(svc.orders, receipts)

	orders := rg.Group("/orders", requireAuth)
	{
		orders.GET("/me", orderHandler.GetMyOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.GET("/:id/receipt", orderHandler.GetReceipt)

		orders.GET("", adminOnly, orderHandler.AdminGetOrders)
		orders.PUT("/:id/status", adminOnly, orderHandler.AdminUpdateOrderStatus)
	}
}

func setupPaymentRoutes(rg *gin.RouterGroup, paymentHandler *handlers.PaymentHandler, requireAuth, adminOnly gin.HandlerFunc) {
	payments := rg.Group("/payments")
	{
		// Provider redirects, unauthenticated
		payments.GET("/success", paymentHandler.PaymentSuccess)
		payments.GET("/failure", paymentHandler.PaymentFailure)
		payments.GET("/pending", paymentHandler.PaymentPending)

		payments.POST("/create-intent", requireAuth, paymentHandler.CreateIntent)
		payments.GET("/verify/:paymentId", requireAuth, paymentHandler.VerifyPayment)
		payments.GET("", requireAuth, adminOnly, paymentHandler.AdminGetPayments)
	}
}

func setupEarningsRoutes(rg *gin.RouterGroup, svc *services, requireAuth, adminOnly gin.HandlerFunc) {
	earningsHandler := handlers.NewEarningsHandler(svc.earnings)

	earnings := rg.Group("/earnings", requireAuth, adminOnly)
	{
		earnings.GET("/summary", earningsHandler.GetSummary)
		earnings.GET("/report", earningsHandler.GetReport)
	}

	rg.GET("/dashboard/summary", requireAuth, adminOnly, earningsHandler.GetDashboard)
}
