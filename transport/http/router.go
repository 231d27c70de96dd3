package http

import (
	"github.com/gin-gonic/gin"
	"github.com/solrisk/mwabridge/service"
)

// SetupRouter configures the gin router with wallet routes
func SetupRouter(svc *service.WalletService) *gin.Engine {
	router := gin.Default()

	h := NewHandler(svc)

	wallet := router.Group("/wallet")
	{
		wallet.POST("/authorize", h.Authorize)
		wallet.POST("/sign-in", h.SignIn)
		wallet.POST("/deauthorize", h.Deauthorize)
		wallet.GET("/capabilities", h.Capabilities)
		wallet.GET("/session", h.Session)
	}

	// Signing needs an authorized session before it reaches the handler.
	signing := router.Group("/wallet")
	signing.Use(SessionRequired(svc))
	{
		signing.POST("/sign-message", h.SignMessage)
	}

	return router
}
