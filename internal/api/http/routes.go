package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/api/middleware"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/bundlemgr/internal/infrastructure/tracing"
)

// RouterOptions configures the middleware chain
type RouterOptions struct {
	CORS      middleware.CORSConfig
	RateLimit *middleware.RateLimitConfig // nil disables rate limiting
	Gatherer  prometheus.Gatherer         // nil serves the default registry
	Tracer    *tracing.Tracer             // nil disables request spans
	Log       *zap.Logger
}

// NewRouter builds the gin engine serving h
func NewRouter(h *Handlers, opts RouterOptions) *gin.Engine {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	if opts.Tracer != nil {
		router.Use(tracing.HTTPMiddleware(opts.Tracer))
	}
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS(opts.CORS))
	if h.metrics != nil {
		router.Use(monitoring.Middleware(h.metrics))
	}

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	v1 := router.Group("/v1")
	if opts.RateLimit != nil {
		v1.Use(middleware.RateLimit(*opts.RateLimit))
	}
	v1.Use(middleware.CallingUID())
	Register(v1, h)
	return router
}

// Register mounts the bundle manager API on group
func Register(group *gin.RouterGroup, h *Handlers) {
	group.GET("/stats", h.Stats)

	bundles := group.Group("/bundles")
	{
		bundles.GET("", h.ListBundles)
		bundles.POST("", h.Install)
		bundles.GET("/:name", h.GetBundle)
		bundles.DELETE("/:name", h.Uninstall)
		bundles.DELETE("/:name/modules/:module", h.UninstallModule)
		bundles.GET("/:name/application", h.GetApplication)
		bundles.GET("/:name/state", h.GetInstallState)
		bundles.GET("/:name/launch-want", h.GetLaunchWant)
		bundles.GET("/:name/users", h.GetBundleUsers)
		bundles.GET("/:name/gids", h.GetBundleGids)
		bundles.GET("/:name/enabled", h.IsApplicationEnabled)
		bundles.PUT("/:name/enabled", h.SetApplicationEnabled)
		bundles.GET("/:name/abilities/enabled", h.IsAbilityEnabled)
		bundles.PUT("/:name/abilities/enabled", h.SetAbilityEnabled)
		bundles.GET("/:name/abilities/:ability/label", h.GetAbilityLabel)
	}
	group.GET("/bundle-names", h.ListBundleNames)
	group.GET("/applications", h.ListApplications)

	query := group.Group("/query")
	{
		query.POST("/ability", h.QueryAbility)
		query.POST("/abilities", h.QueryAbilities)
		query.POST("/launcher", h.QueryLauncherAbilities)
		query.POST("/extensions", h.QueryExtensions)
		query.GET("/extensions", h.QueryExtensionsByType)
		query.POST("/hap-module", h.QueryHapModule)
		query.GET("/uri", h.QueryByURI)
		query.GET("/uri/abilities", h.QueryAllByURI)
		query.GET("/uri/extension", h.QueryExtensionByURI)
		query.GET("/metadata/:name", h.QueryByMetadata)
		query.GET("/keep-alive", h.QueryKeepAlive)
	}

	uids := group.Group("/uids/:uid")
	{
		uids.GET("", h.GetBundleForUid)
		uids.GET("/bundles", h.GetBundlesForUid)
		uids.GET("/name", h.GetNameForUid)
		uids.GET("/system", h.CheckSystemUid)
		uids.GET("/gids", h.GetGidsForUid)
	}

	users := group.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("/:id", h.AddUser)
		users.DELETE("/:id", h.RemoveUser)
	}

	group.GET("/preinstall", h.ListPreInstall)
	group.GET("/preinstall/:name", h.GetPreInstall)
	group.GET("/usage", h.GetUsageRecords)
	group.POST("/usage/launch", h.RecordLaunch)
	group.GET("/events", h.StreamEvents)
}
