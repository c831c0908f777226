// internal/router/router.go
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/querylab/internal/config"
	"github.com/javajoker/querylab/internal/handlers"
	"github.com/javajoker/querylab/internal/middleware"
	"github.com/javajoker/querylab/internal/services"
	"github.com/javajoker/querylab/internal/telemetry"
)

// Options carries the optional collaborators. Zero values disable them.
type Options struct {
	Logger      *logrus.Logger
	Recorder    telemetry.Recorder
	ReportCache services.ReportCache
	Limiters    *middleware.Limiters
}

func Initialize(db *gorm.DB, cfg *config.Config, opts Options) *gin.Engine {
	// Initialize services
	userService := services.NewUserService(db, opts.Recorder)
	orderService := services.NewOrderService(db, opts.ReportCache, opts.Recorder)
	productService := services.NewProductService(db, opts.Recorder)
	reportService := services.NewReportService(db, opts.ReportCache, opts.Recorder)
	statsService := services.NewStatsService(db)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(userService)
	orderHandler := handlers.NewOrderHandler(orderService)
	productHandler := handlers.NewProductHandler(productService)
	reportHandler := handlers.NewReportHandler(reportService, statsService, db)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(opts.Logger))
	r.Use(middleware.CORS(cfg.Frontend.BaseURL))
	r.Use(middleware.I18nMiddleware())
	r.Use(opts.Limiters.GeneralRateLimit())

	// Health check
	r.GET("/health", reportHandler.Health)

	// API v1 routes
	v1 := r.Group("/v1")
	{
		v1.GET("/stats", reportHandler.GetStats)
		v1.GET("/categories", productHandler.GetCategories)
		v1.GET("/products", productHandler.GetProducts)
		v1.GET("/products/:id", productHandler.GetProduct)
		v1.POST("/orders", orderHandler.CreateOrder)

		// Inefficient variants
		slow := v1.Group("/slow")
		slow.Use(opts.Limiters.SlowQueryRateLimit(), middleware.QueryStrategy(services.StrategyInefficient))
		{
			slow.GET("/users", userHandler.ListAllUsers)
			slow.GET("/users/search", userHandler.SearchUsersByDate)
			slow.GET("/users/:id/orders", userHandler.GetUserOrdersNPlusOne)
			slow.GET("/orders/search", orderHandler.SearchOrders)
			slow.GET("/orders/:id", orderHandler.GetOrderFullDetail)
			slow.GET("/products/search", productHandler.SearchProducts)
			slow.GET("/reports/products", reportHandler.ProductReportSlow)
		}

		// Efficient variants
		fast := v1.Group("/fast")
		fast.Use(middleware.QueryStrategy(services.StrategyOptimized))
		{
			fast.GET("/users", userHandler.ListUsers)
			fast.GET("/users/:id/orders", userHandler.GetUserOrders)
			fast.GET("/orders/:id", orderHandler.GetOrder)
			fast.GET("/reports/products", reportHandler.ProductReportFast)
		}
	}

	return r
}
