// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/goldenrice/rice-backend/internal/config"
	"github.com/goldenrice/rice-backend/internal/handlers"
	"github.com/goldenrice/rice-backend/internal/i18n"
	"github.com/goldenrice/rice-backend/internal/idempotency"
	"github.com/goldenrice/rice-backend/internal/middleware"
	"github.com/goldenrice/rice-backend/internal/repository"
	"github.com/goldenrice/rice-backend/internal/services"
	"github.com/goldenrice/rice-backend/internal/utils"
)

// Dependencies are the backends the router wires services onto.
type Dependencies struct {
	Repos       *repository.Repositories
	Blobs       services.BlobStore
	Idempotency idempotency.Store
	// Notifier defaults to the email notification service.
	Notifier services.OrderNotifier
	// Ping backs /health when set.
	Ping func(ctx context.Context) error
}

func Initialize(cfg *config.Config, deps Dependencies) *gin.Engine {
	repos := deps.Repos

	// Initialize services
	storageService := services.NewStorageService(deps.Blobs, cfg.Upload)
	notifier := deps.Notifier
	if notifier == nil {
		notifier = services.NewNotificationService(repos.Users, repos.CompanyAccount, cfg)
	}

	authService := services.NewAuthService(repos.Users, cfg.JWT)
	userService := services.NewUserService(repos.Users)
	productService := services.NewProductService(repos.Products, storageService, cfg.Upload.MaxProductImages)
	cartService := services.NewCartService(repos.Products)
	orderService := services.NewOrderService(repos, storageService, notifier, cfg.Order)
	accountService := services.NewCompanyAccountService(repos.CompanyAccount, repos.Orders)
	methodService := services.NewPaymentMethodService(repos.PaymentMethods)
	refundService := services.NewRefundService(repos.Refunds)
	adminService := services.NewAdminService(repos, cfg.Order.LowStockThreshold)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	productHandler := handlers.NewProductHandler(productService)
	cartHandler := handlers.NewCartHandler(cartService)
	orderHandler := handlers.NewOrderHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(accountService, methodService)
	refundHandler := handlers.NewRefundHandler(refundService)
	uploadHandler := handlers.NewUploadHandler(storageService)
	adminHandler := handlers.NewAdminHandler(adminService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	limits := middleware.NewRateLimits(cfg.RateLimit)
	idempotent := idempotency.Middleware(deps.Idempotency, idempotency.WithTTL(cfg.Redis.IdempotencyTTL))

	r := gin.New()
	r.MaxMultipartMemory = 32 << 20

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Frontend.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(limits.General())

	r.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", i18n.T(utils.GetLangFromContext(c), i18n.KeyNotFound), nil)
	})

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if deps.Ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Ping(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"error":  "database unreachable",
				})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// Locally stored uploads
	if cfg.AWS.AccessKeyID == "" && strings.HasPrefix(cfg.Upload.PublicBaseURL, "/") {
		r.Static(cfg.Upload.PublicBaseURL, cfg.Upload.LocalDir)
	}

	authed := []gin.HandlerFunc{middleware.AuthRequired(), middleware.AuditLogMiddleware(adminService)}
	admin := append(authed[:len(authed):len(authed)], middleware.AdminRequired())

	v1 := r.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limits.Auth())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetProfile)
		}

		users := v1.Group("/users", authed...)
		{
			users.PUT("/profile", userHandler.UpdateProfile)
			users.PUT("/password", limits.Auth(), userHandler.ChangePassword)
		}

		// Catalog
		products := v1.Group("/products")
		{
			products.GET("", middleware.OptionalAuth(), productHandler.GetProducts)
			products.GET("/:id", middleware.OptionalAuth(), productHandler.GetProduct)

			adminProducts := products.Group("", admin...)
			{
				adminProducts.POST("", limits.Upload(), productHandler.CreateProduct)
				adminProducts.PATCH("/:id", productHandler.UpdateProduct)
				adminProducts.POST("/stock", productHandler.AddStockEntry)
				adminProducts.GET("/:id/stock", productHandler.GetStockLedger)
			}
		}

		v1.POST("/cart/quote", cartHandler.Quote)

		// Orders
		orders := v1.Group("/orders", authed...)
		{
			orders.POST("", limits.Checkout(), idempotent, orderHandler.CreateOrder)
			orders.GET("/my", orderHandler.ListMyOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/:id/history", orderHandler.GetHistory)
			orders.POST("/:id/cancel", orderHandler.CancelOrder)
			orders.POST("/:id/return", orderHandler.ReturnOrder)

			orders.GET("", middleware.AdminRequired(), orderHandler.ListOrders)
			orders.PATCH("/:id/status", middleware.AdminRequired(), orderHandler.UpdateStatus)
		}

		transfers := v1.Group("/online-transfer-orders", authed...)
		{
			transfers.POST("", limits.Checkout(), limits.Upload(), idempotent, orderHandler.CreateOnlineTransferOrder)
			transfers.GET("/:id/payment-info", orderHandler.GetPaymentInfo)
			transfers.POST("/:id/payment-proof", limits.Upload(), orderHandler.AttachPaymentProof)
			transfers.PATCH("/:id/payment-confirmation", middleware.AdminRequired(), orderHandler.ConfirmPayment)
		}

		// Payment accounts
		accounts := v1.Group("/company-accounts")
		{
			accounts.GET("", paymentHandler.ListActiveAccounts)

			adminAccounts := accounts.Group("/admin", admin...)
			{
				adminAccounts.GET("", paymentHandler.ListAccounts)
				adminAccounts.POST("", paymentHandler.CreateAccount)
				adminAccounts.GET("/:id", paymentHandler.GetAccount)
				adminAccounts.PUT("/:id", paymentHandler.UpdateAccount)
				adminAccounts.PATCH("/:id/status", paymentHandler.SetAccountStatus)
				adminAccounts.DELETE("/:id", paymentHandler.DeleteAccount)
			}
		}

		methods := v1.Group("/payment-methods", authed...)
		{
			methods.GET("", paymentHandler.ListMethods)
			methods.POST("", paymentHandler.CreateMethod)
			methods.PUT("/:id", paymentHandler.UpdateMethod)
			methods.DELETE("/:id", paymentHandler.DeleteMethod)
		}

		refunds := v1.Group("/refunds", admin...)
		{
			refunds.GET("", refundHandler.ListRefunds)
			refunds.POST("/:id/complete", refundHandler.CompleteRefund)
		}

		uploads := v1.Group("/uploads", authed...)
		{
			uploads.POST("", limits.Upload(), uploadHandler.UploadFile)
			uploads.POST("/image", limits.Upload(), uploadHandler.UploadImage)
			uploads.POST("/images", limits.Upload(), uploadHandler.UploadImages)
			uploads.POST("/payment-screenshot", limits.Upload(), uploadHandler.UploadPaymentScreenshot)
			uploads.DELETE("/:filename", middleware.AdminRequired(), uploadHandler.DeleteFile)
		}

		// Back office
		adminGroup := v1.Group("/admin", admin...)
		{
			adminGroup.GET("/dashboard", adminHandler.GetDashboardStats)
			adminGroup.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	return r
}
