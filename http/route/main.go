package routes

import (
	"strings"

	"github.com/dedilute/catalog-backend/config"
	"github.com/dedilute/catalog-backend/http/controller"
	middlewares "github.com/dedilute/catalog-backend/http/middleware"
	"github.com/dedilute/catalog-backend/utils"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	cfg := ctrl.Config.EnvConfig
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if !cfg.IsProduction() {
		r.Use(gin.Logger())
	}

	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.RequestID)
	r.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))

	// Fetch sets its own wildcard CORS headers.
	r.GET(fetchRoute(cfg), middles.GlobalRateLimit, ctrl.FetchMedia)

	r.Use(middles.CORSMiddleware)
	r.Use(middles.RequestTimeout)

	if ctrl.Infra.Telemetry != nil && ctrl.Infra.Telemetry.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(ctrl.Infra.Telemetry.MetricsHandler))
	}

	apiRoutes := r.Group("/api")
	apiRoutes.Use(middles.GlobalRateLimit)
	{
		apiRoutes.GET("/health", ctrl.Health)

		authRoutes := apiRoutes.Group("/auth")
		{
			authRoutes.POST("/register", middles.RegisterRateLimit, ctrl.Register)
			authRoutes.POST("/login", middles.LoginRateLimit, ctrl.Login)
			authRoutes.POST("/logout", ctrl.Logout)
			authRoutes.POST("/permissions", middles.AuthMiddleware, ctrl.CheckPermission)
			authRoutes.GET("/permissions/:code", middles.AuthMiddleware, ctrl.CheckPermissionByCode)
			authRoutes.GET("/me", middles.AuthMiddleware, ctrl.Me)
		}

		productRoutes := apiRoutes.Group("/products")
		{
			productRoutes.GET("/public", middles.PublicProductsCache, ctrl.ListPublicProducts)
			productRoutes.GET("/public/:slug", middles.PublicProductsCache, ctrl.GetPublicProduct)

			adminProducts := productRoutes.Group("")
			adminProducts.Use(middles.AuthMiddleware, middles.RequireAdmin)
			{
				adminProducts.GET("", ctrl.ListProducts)
				adminProducts.GET("/:id", ctrl.GetProduct)
				adminProducts.POST("", ctrl.CreateProduct)
				adminProducts.PATCH("/:id", ctrl.UpdateProduct)
				adminProducts.DELETE("/:id", ctrl.DeleteProduct)
			}
		}

		mediaRoutes := apiRoutes.Group("/media")
		{
			mediaRoutes.GET("", ctrl.ListMedia)

			adminMedia := mediaRoutes.Group("")
			adminMedia.Use(middles.AuthMiddleware, middles.RequireAdmin)
			{
				adminMedia.POST("/upload", ctrl.UploadMedia)
				adminMedia.DELETE("/delete/:id", ctrl.DeleteMedia)
				adminMedia.DELETE("/by-entity", ctrl.DeleteMediaByEntity)
				adminMedia.PATCH("/sort", ctrl.SortMedia)
			}
		}

		settingRoutes := apiRoutes.Group("/settings")
		{
			settingRoutes.GET("", middles.PublicSettingsCache, ctrl.GetSettings)
			settingRoutes.POST("", middles.AuthMiddleware, middles.RequireAdmin, ctrl.UpsertSettings)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		utils.JSON404(c, "API endpoint not found")
	})

	return r
}

func fetchRoute(cfg *config.EnvConfig) string {
	proxyPath := strings.TrimRight(cfg.Storage.ProxyPath, "/")
	if proxyPath == "" {
		proxyPath = config.DefaultProxyPath
	}
	return proxyPath + "/*key"
}
