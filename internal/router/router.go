// Package router maps HTTP routes onto the handlers.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "meloch/internal/docs" // swagger docs
	"meloch/internal/handlers"
	"meloch/internal/middleware"
	"meloch/internal/services"
)

// Services are the dependencies of every handler.
type Services struct {
	Users   services.UserServicer
	Ledgers services.LedgerServicer
	Cards   services.CardServicer
	Backups services.BackupServicer
	Audit   services.AuditServicer
}

// New builds the Gin engine with middleware and all /api/v1 routes.
func New(svc Services) *gin.Engine {
	authHandler := handlers.NewAuthHandler(svc.Users, svc.Ledgers, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Ledgers, svc.Audit)
	budgetHandler := handlers.NewBudgetHandler(svc.Ledgers, svc.Audit)
	dashboardHandler := handlers.NewDashboardHandler(svc.Ledgers)
	backupHandler := handlers.NewBackupHandler(svc.Backups, svc.Ledgers, svc.Audit)
	cardHandler := handlers.NewCardHandler(svc.Cards, svc.Audit)
	auditHandler := handlers.NewAuditHandler(svc.Audit)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)
	protected.DELETE("/profile", authHandler.DeleteProfile)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetUserTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	budget := protected.Group("/budget")
	budget.POST("/reset", budgetHandler.ResetBudget)
	budget.GET("/categories", budgetHandler.GetCategoryBudgets)
	budget.PUT("/categories/:category", budgetHandler.SetCategoryBudget)

	dashboard := protected.Group("/dashboard")
	dashboard.GET("", dashboardHandler.GetDashboard)
	dashboard.GET("/expenses-since-reset", dashboardHandler.GetExpensesSinceReset)
	dashboard.GET("/progress", dashboardHandler.GetProgress)

	protected.GET("/backup", backupHandler.ExportBackup)
	protected.POST("/backup/import", backupHandler.ImportBackup)
	protected.GET("/reports/xlsx", backupHandler.ExportReport)

	cards := protected.Group("/cards")
	cards.POST("", cardHandler.CreateCard)
	cards.GET("", cardHandler.GetUserCards)
	cards.DELETE("/:id", cardHandler.DeleteCard)

	protected.GET("/wallet", cardHandler.GetWallet)
	protected.PUT("/wallet/pocket-money", cardHandler.SetPocketMoney)

	protected.GET("/audit-logs", auditHandler.GetAuditLogs)

	return router
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Disposition, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
