package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"meugestor/internal/middleware"
)

// RouterConfig carries the handlers and guards the HTTP router mounts.
type RouterConfig struct {
	Auth        *AuthHandler
	Dashboard   *DashboardHandler
	Expenses    *ExpenseHandler
	Categories  *CategoryHandler
	Reminders   *ReminderHandler
	Planning    *PlanningHandler
	Webhook     *WebhookHandler
	Maintenance *MaintenanceHandler

	Sessions          *middleware.SessionSigner
	CronSecret        string
	MaintenanceAPIKey string
}

// NewRouter builds the gin engine with every public, dashboard and internal route.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Gateway and scheduler entry points
	router.POST("/webhook/evolution", cfg.Webhook.Receive)
	router.GET("/trigger/check-reminders/:secret",
		middleware.PathSecretMiddleware("secret", cfg.CronSecret), cfg.Maintenance.TriggerTick)

	v1 := router.Group("/api/v1")

	// Public routes
	v1.GET("/auth/verify/:token", cfg.Auth.VerifyToken)

	internal := v1.Group("/internal")
	internal.Use(middleware.APIKeyMiddleware(cfg.MaintenanceAPIKey))
	internal.POST("/maintenance/tick", cfg.Maintenance.TriggerTick)

	// Dashboard routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.Sessions))

	protected.GET("/data", cfg.Dashboard.GetData)
	protected.GET("/summary", cfg.Dashboard.GetSummary)

	expenses := protected.Group("/expenses")
	expenses.GET("", cfg.Expenses.GetUserExpenses)
	expenses.GET("/:id", cfg.Expenses.GetExpense)
	expenses.PUT("/:id", cfg.Expenses.UpdateExpense)
	expenses.DELETE("/:id", cfg.Expenses.DeleteExpense)

	incomes := protected.Group("/incomes")
	incomes.GET("", cfg.Expenses.GetUserIncomes)
	incomes.PUT("/:id", cfg.Expenses.UpdateIncome)
	incomes.DELETE("/:id", cfg.Expenses.DeleteIncome)

	categories := protected.Group("/categories")
	categories.GET("", cfg.Categories.GetCategories)
	categories.POST("", cfg.Categories.CreateCategory)
	categories.PUT("/:id", cfg.Categories.RenameCategory)
	categories.DELETE("/:id", cfg.Categories.DeleteCategory)

	reminders := protected.Group("/reminders")
	reminders.GET("", cfg.Reminders.GetReminders)
	reminders.PUT("/:id", cfg.Reminders.UpdateReminder)
	reminders.DELETE("/:id", cfg.Reminders.DeleteReminder)

	planning := protected.Group("/planning")
	planning.GET("", cfg.Planning.GetPlannedExpenses)
	planning.POST("", cfg.Planning.CreatePlannedExpense)
	planning.PUT("/:id", cfg.Planning.UpdatePlannedExpense)
	planning.PUT("/:id/status", cfg.Planning.SetPlannedStatus)
	planning.DELETE("/:id", cfg.Planning.DeletePlannedExpense)

	return router
}
