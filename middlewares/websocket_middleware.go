package middlewares

import (
	"github.com/gin-gonic/gin"

	"github.com/orderq/backend/utils"
)

// WebSocketAuthMiddleware authenticates websocket upgrades with a query
// token, since browsers cannot set Authorization headers on websockets.
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(401)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil {
			c.AbortWithStatus(401)
			return
		}

		c.Set("role", claims.Role)
		c.Set("user_id", claims.UserID)

		c.Next()
	}
}
