package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/lattice-ledger/internal/api/middleware"
)

// SetupRoutes configures all REST API routes. Reads are public; mutating
// routes require a JWT whose subject is the caller's ledger account, and
// the deposit operator endpoint requires an API key.
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig) {
	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Collection endpoints
		v1.GET("/collections", handler.ListCollections)
		v1.GET("/collections/count", handler.CountCollections)
		v1.GET("/collections/:id", handler.GetCollection)
		v1.GET("/collections/:id/parameters", handler.GetParameters)
		v1.POST("/collections", middleware.Auth(authCfg), handler.CreateCollection)
		v1.PATCH("/collections/:id/status", middleware.Auth(authCfg), handler.SetCollectionStatus)

		// Token endpoints
		v1.GET("/collections/:id/tokens/:index", handler.GetToken)
		v1.GET("/collections/:id/tokens/:index/owner", handler.GetTokenOwner)
		v1.POST("/collections/:id/tokens", middleware.Auth(authCfg), handler.Mint)
		v1.POST("/collections/:id/tokens/:index/transfer", middleware.Auth(authCfg), handler.Transfer)

		// Marketplace endpoints
		v1.GET("/collections/:id/tokens/:index/listing", handler.GetListing)
		v1.POST("/collections/:id/tokens/:index/listing", middleware.Auth(authCfg), handler.CreateListing)
		v1.DELETE("/collections/:id/tokens/:index/listing", middleware.Auth(authCfg), handler.CancelListing)
		v1.POST("/collections/:id/tokens/:index/purchase", middleware.Auth(authCfg), handler.Buy)

		// Account endpoints
		v1.GET("/accounts/:address/tokens", handler.GetOwnedTokens)
		v1.GET("/accounts/:address/balance", handler.GetBalance)
		v1.POST("/accounts/:address/deposit", middleware.APIKeyAuth(authCfg), handler.Deposit)

		// Platform administration endpoints
		v1.GET("/platform", handler.GetPlatformState)
		v1.PUT("/platform/fee", middleware.Auth(authCfg), handler.SetPlatformFee)
		v1.PUT("/platform/admin", middleware.Auth(authCfg), handler.SetAdmin)
	}
}
