package middlewares

import (
	"github.com/dedilute/catalog-backend/http/controller"
	"github.com/dedilute/catalog-backend/service"
	"github.com/gin-gonic/gin"
)

const HealthPath = "/api/health"

type Middlewares struct {
	RequestID           gin.HandlerFunc
	CORSMiddleware      gin.HandlerFunc
	AuthMiddleware      gin.HandlerFunc
	RequireAdmin        gin.HandlerFunc
	RequestTimeout      gin.HandlerFunc
	GlobalRateLimit     gin.HandlerFunc
	LoginRateLimit      gin.HandlerFunc
	RegisterRateLimit   gin.HandlerFunc
	PublicProductsCache gin.HandlerFunc
	PublicSettingsCache gin.HandlerFunc
}

func NewMiddlewares(ctrl *controller.Controller) (*Middlewares, error) {
	cfg := ctrl.Config.EnvConfig
	logger := ctrl.Infra.Logger

	var (
		counter WindowCounter
		store   ResponseStore
	)
	if ctrl.Infra.Redis != nil {
		counter = ctrl.Infra.Redis
		store = ctrl.Infra.Redis
	}

	return &Middlewares{
		RequestID:           RequestID(),
		CORSMiddleware:      CORSMiddleware(cfg),
		AuthMiddleware:      AuthMiddleware(cfg),
		RequireAdmin:        RequirePermission(ctrl.Repository.PermissionRepo, cfg.Permission.Mapping, "ADMIN", logger),
		RequestTimeout:      RequestTimeout(cfg.HTTP.RequestTimeout),
		GlobalRateLimit:     RateLimitMiddleware(counter, cfg.RateLimit.Global, logger, HealthPath),
		LoginRateLimit:      RateLimitMiddleware(counter, cfg.RateLimit.Login, logger),
		RegisterRateLimit:   RateLimitMiddleware(counter, cfg.RateLimit.Register, logger),
		PublicProductsCache: ResponseCache(store, service.ProductsPublicCachePrefix, cfg.Cache.PublicTTL, logger),
		PublicSettingsCache: ResponseCache(store, service.SettingsPublicCachePrefix, cfg.Cache.PublicTTL, logger),
	}, nil
}
