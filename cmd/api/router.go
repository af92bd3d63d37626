package api

import (
	"net/http"

	accountDelivery "invoicescan-backend/internal/account/delivery"
	"invoicescan-backend/internal/auth/delivery"
	authUsecase "invoicescan-backend/internal/auth/usecase"
	scanDelivery "invoicescan-backend/internal/scan/delivery"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, authUsecase authUsecase.AuthUsecase, scanHandler *scanDelivery.ScanJobHandler, accountHandler *accountDelivery.AccountHandler) {
	authHandler := delivery.NewAuthHandler(authUsecase)

	api := r.Group("/api")
	{
		// Health check (no auth required)
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})

		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/logout", authHandler.Logout)
		}

		// Account routes (protected)
		accounts := api.Group("/accounts")
		accounts.Use(delivery.AuthMiddleware(authUsecase))
		{
			accounts.POST("", accountHandler.CreateAccount)
			accounts.GET("", accountHandler.ListAccounts)
			accounts.POST("/:id/deactivate", accountHandler.DeactivateAccount)
		}

		// Scan job routes (protected)
		scans := api.Group("/scans")
		scans.Use(delivery.AuthMiddleware(authUsecase))
		{
			scans.POST("", scanHandler.CreateJob)
			scans.GET("", scanHandler.ListJobs)
			scans.GET("/:id", scanHandler.GetJob)
			scans.GET("/:id/progress", scanHandler.GetProgress)
			scans.POST("/:id/execute", scanHandler.ExecuteJob)
			scans.POST("/:id/cancel", scanHandler.CancelJob)
			scans.POST("/:id/retry", scanHandler.RetryJob)
			scans.DELETE("/:id", scanHandler.DeleteJob)
		}
	}
}
