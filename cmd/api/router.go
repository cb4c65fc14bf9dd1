package main

import (
	"context"
	"net/http"
	"time"

	"library-backend/internal/shared/auth"
	"library-backend/internal/shared/middleware"
	"library-backend/pkg/container"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)
	if c.Config.Metrics.Enabled {
		router.Use(c.Metrics.GinMiddleware())
		router.GET(c.Config.Metrics.Path, gin.WrapH(c.Metrics.Handler()))
	}

	router.GET("/health", healthCheckHandler(c))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		authn := middleware.AuthMiddleware(c.JWTManager, c.UserService)

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c, authn)
		setupBookRoutes(v1, c, authn)
		setupBorrowingRoutes(v1, c, authn)
		setupAdminRoutes(v1, c, authn)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	a := v1.Group("/auth")
	{
		a.POST("/register", c.UserHandler.Register)
		a.POST("/login", c.UserHandler.Login)
		a.POST("/refresh", c.UserHandler.RefreshToken)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container, authn gin.HandlerFunc) {
	users := v1.Group("/users", authn)
	{
		users.GET("/me", c.UserHandler.GetProfile)
		users.GET("", middleware.RequireRoles(auth.RoleAdmin, auth.RoleLibrarian), c.UserHandler.ListUsers)
		users.GET("/:id", c.UserHandler.GetUser)
		users.PATCH("/:id/role", middleware.RequireRoles(auth.RoleAdmin), c.UserHandler.UpdateUserRole)
		users.DELETE("/:id", middleware.RequireRoles(auth.RoleAdmin), c.UserHandler.DeleteUser)
	}
}

// ========================================
// BOOK ROUTES (catalog + ledger read side)
// ========================================
func setupBookRoutes(v1 *gin.RouterGroup, c *container.Container, authn gin.HandlerFunc) {
	books := v1.Group("/books")
	{
		books.GET("", c.BookHandler.ListBooks)
		books.GET("/:id", c.BookHandler.GetBook)
		books.GET("/:id/availability", c.InventoryHandler.GetAvailability)

		staff := books.Group("", authn, middleware.RequireRoles(auth.RoleAdmin, auth.RoleLibrarian))
		staff.POST("", c.BookHandler.CreateBook)
		staff.PUT("/:id", c.BookHandler.UpdateBook)
		staff.DELETE("/:id", c.BookHandler.DeleteBook)
		staff.GET("/:id/stock-movements", c.InventoryHandler.ListMovements)
	}
}

// ========================================
// BORROWING ROUTES
// ========================================
func setupBorrowingRoutes(v1 *gin.RouterGroup, c *container.Container, authn gin.HandlerFunc) {
	staff := middleware.RequireRoles(auth.RoleAdmin, auth.RoleLibrarian)

	borrowing := v1.Group("/borrowing", authn)
	{
		borrowing.POST("", middleware.RequireRoles(auth.RoleMember), c.BorrowHandler.CreateBorrow)
		borrowing.GET("/me", c.BorrowHandler.ListMyBorrows)

		borrowing.GET("", staff, c.BorrowHandler.ListBorrows)
		borrowing.GET("/:id", staff, c.BorrowHandler.GetBorrow)
		borrowing.PATCH("/:id", staff, c.BorrowHandler.UpdateBorrow)
		borrowing.POST("/:id/return", staff, c.BorrowHandler.ReturnBorrow)
		borrowing.DELETE("/:id", staff, c.BorrowHandler.RemoveBorrow)
	}
}

// ========================================
// ADMIN ROUTES
// ========================================
func setupAdminRoutes(v1 *gin.RouterGroup, c *container.Container, authn gin.HandlerFunc) {
	admin := v1.Group("/admin", authn, middleware.RequireRoles(auth.RoleAdmin))
	{
		admin.POST("/borrowing/sweep", c.BorrowHandler.RunSweep)
	}
}

// healthCheckHandler ping Postgres và Redis song song
func healthCheckHandler(c *container.Container) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		checkCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()

		status := map[string]string{"database": "up", "redis": "up"}
		var g errgroup.Group
		var dbErr, redisErr error
		g.Go(func() error {
			dbErr = c.DB.HealthCheck(checkCtx)
			return nil
		})
		g.Go(func() error {
			redisErr = c.Redis.HealthCheck(checkCtx)
			return nil
		})
		_ = g.Wait()

		code := http.StatusOK
		if dbErr != nil {
			status["database"] = "down: " + dbErr.Error()
			code = http.StatusServiceUnavailable
		}
		if redisErr != nil {
			status["redis"] = "down: " + redisErr.Error()
			code = http.StatusServiceUnavailable
		}

		body := gin.H{
			"status":  "ok",
			"service": c.Config.App.Name,
			"version": c.Config.App.Version,
			"checks":  status,
		}
		if code != http.StatusOK {
			body["status"] = "degraded"
		}
		if stats, err := c.DB.Stats(); err == nil {
			body["pool"] = stats
		}
		ctx.JSON(code, body)
	}
}
