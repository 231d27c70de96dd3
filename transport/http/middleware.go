package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solrisk/mwabridge/service"
)

// SessionRequired rejects requests when no wallet session is authorized.
func SessionRequired(svc *service.WalletService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := svc.Session()
		if !sess.Authorized() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no authorized wallet session"})
			return
		}

		// Set wallet address in context for handlers
		c.Set("wallet_address", sess.Address)

		c.Next()
	}
}
