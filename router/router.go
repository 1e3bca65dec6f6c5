package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/orderq/backend/controllers"
	"github.com/orderq/backend/events"
	"github.com/orderq/backend/middlewares"
	"github.com/orderq/backend/services"
)

func SetupRouter(db *gorm.DB, hub *events.Hub, sessionTTL time.Duration) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	// Per-IP rate limit (50 requests per second)
	rateLimiter := middlewares.NewRateLimiter(50, 1)
	r.Use(rateLimiter.RateLimit())

	tracker := services.NewTableTracker()

	userCtrl := controllers.NewUserController(db)
	sessionCtrl := controllers.NewSessionController(db, hub, tracker, sessionTTL)
	orderCtrl := controllers.NewOrderController(db, hub, tracker)
	tableCtrl := controllers.NewTableController(db, hub, tracker)
	menuCtrl := controllers.NewMenuController(db, hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------

	// Rate limiter untuk login/register
	authGroup := r.Group("/api/auth")
	authGroup.Use(middlewares.NewStrictRateLimiter())
	{
		authGroup.POST("/register", userCtrl.Register)
		authGroup.POST("/login", userCtrl.Login)
	}

	// Customer session flow (no auth, the token is the credential)
	r.POST("/api/sessions", sessionCtrl.CreateSession)
	r.GET("/api/sessions/scan/:table_number", sessionCtrl.ScanSession)
	r.GET("/api/sessions/:token", sessionCtrl.VerifySession)
	r.POST("/api/sessions/end/:token", sessionCtrl.EndSession)

	// Customer ordering
	r.POST("/api/orders", orderCtrl.CreateOrder)
	r.GET("/api/orders/by-session", orderCtrl.GetOrdersBySession)

	// Menu browsing
	r.GET("/api/menu", menuCtrl.GetAllMenus)
	r.GET("/api/menu/top-selling", menuCtrl.GetTopSellingItems)
	r.GET("/api/menu/:menu_id", menuCtrl.GetMenuByID)

	// Table overview for the floor display
	r.GET("/api/tables", tableCtrl.GetAllTables)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES (staff/admin)
	// ----------------------------------------------------------------
	auth := r.Group("/api")
	auth.Use(middlewares.AuthMiddleware())
	{
		auth.GET("/auth/profile", userCtrl.GetProfile)

		// ORDERS
		auth.GET("/orders", orderCtrl.GetAllOrders)
		auth.GET("/orders/active-count", orderCtrl.GetActiveOrdersCount)
		auth.GET("/orders/sales-graph", orderCtrl.GetSalesGraph)
		auth.GET("/orders/revenue", orderCtrl.GetRevenueByRange)
		auth.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		auth.POST("/orders/:order_id/confirm", orderCtrl.ConfirmOrder)
		auth.PUT("/orders/:order_id/serve", orderCtrl.ServeOrder)
		auth.PUT("/orders/:order_id/pay", orderCtrl.PayOrder)

		// TABLES
		auth.GET("/tables/:table_id/details", tableCtrl.GetTableDetails)
		auth.PUT("/tables/:table_id/status", tableCtrl.UpdateTableStatus)
		auth.POST("/tables", middlewares.RequireRole("admin"), tableCtrl.CreateTable)
		auth.DELETE("/tables/:table_id", middlewares.RequireRole("admin"), tableCtrl.DeleteTable)

		// MENU
		auth.POST("/menu", menuCtrl.CreateMenu)
		auth.PUT("/menu/:menu_id", menuCtrl.UpdateMenu)
		auth.DELETE("/menu/:menu_id", menuCtrl.DeleteMenu)
	}

	// WebSocket endpoint untuk dashboard
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/dashboard", controllers.DashboardHandler(hub))
	}

	return r
}
