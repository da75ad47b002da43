package middlewares

import (
	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware resolves the session cookie or Bearer token to a user id.
func AuthMiddleware(cfg *config.EnvConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := utils.ExtractToken(c, cfg)
		if tokenStr == "" {
			utils.JSON401(c, "Unauthorized: No token provided")
			return
		}

		claims, err := utils.ParseToken(tokenStr, cfg)
		if err != nil {
			utils.JSON401(c, "Unauthorized: Invalid token")
			return
		}

		utils.InjectClaimsToContext(c, claims)
		c.Next()
	}
}
