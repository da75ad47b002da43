package middlewares

import (
	"context"

	"github.com/dedilute/catalog-backend/infra"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
)

// PermissionChecker is satisfied by *repository.PermissionRepository.
type PermissionChecker interface {
	HasPermission(ctx context.Context, userID int64, name string) (bool, error)
}

// RequirePermission must run after AuthMiddleware. The abstract code is
// mapped to its concrete permission name through mapping.
func RequirePermission(checker PermissionChecker, mapping map[string]string, code string, logger *infra.LoggerClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		userID, err := utils.GetUserIDFromContext(c)
		if err != nil {
			utils.JSON401(c, "Unauthorized")
			return
		}

		name, ok := mapping[code]
		if !ok || name == "" {
			logger.WarningWithContextf(ctx, "[Permission] Code %s has no mapped permission", code)
			utils.JSON403(c, "Forbidden")
			return
		}

		has, err := checker.HasPermission(ctx, userID, name)
		if err != nil {
			logger.ErrorWithContextf(ctx, err, "[Permission] Lookup of %s for user %d failed", name, userID)
			utils.JSON500(c, "Internal Server Error")
			return
		}
		if !has {
			logger.WarningWithContextf(ctx, "[Permission] User %d lacks %s", userID, name)
			utils.JSON403(c, "Forbidden: insufficient permission")
			return
		}

		c.Next()
	}
}
