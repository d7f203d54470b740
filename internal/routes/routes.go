package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskhub/internal/authz"
	"taskhub/internal/handlers"
	"taskhub/internal/middleware"
)

func SetupRoutes(
	r *gin.Engine,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
) *gin.Engine {

	// ---- public
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/login", authHandler.Login)
	r.POST("/register", userHandler.Register)
	r.POST("/password-reset/request", authHandler.RequestPasswordReset)
	r.POST("/password-reset/confirm", authHandler.ConfirmPasswordReset)

	// ---- protected
	auth := r.Group("", middleware.AuthMiddleware(jwtSecret))

	// TASKS
	tasks := auth.Group("/tasks")
	{
		tasks.POST("", middleware.RequirePermission(authz.PermManageTasks), taskHandler.Create)
		tasks.GET("", middleware.RequirePermission(authz.PermGetTasks), taskHandler.List)
		tasks.GET("/:id", middleware.RequirePermission(authz.PermGetTasks), taskHandler.GetByID)
		tasks.PATCH("/:id", middleware.RequirePermission(authz.PermManageTasks), taskHandler.Update)
		tasks.DELETE("/:id", middleware.RequirePermission(authz.PermManageTasks), taskHandler.Delete)
	}

	// USERS (admin)
	users := auth.Group("/users")
	{
		users.GET("", middleware.RequirePermission(authz.PermGetUsers), userHandler.List)
		users.GET("/:id", middleware.RequirePermission(authz.PermGetUsers), userHandler.GetByID)
		users.PATCH("/:id", middleware.RequirePermission(authz.PermManageUsers), userHandler.Update)
		users.DELETE("/:id", middleware.RequirePermission(authz.PermManageUsers), userHandler.Delete)
	}

	return r
}
