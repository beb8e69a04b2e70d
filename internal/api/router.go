package api

import (
	"github.com/gin-gonic/gin"

	"github.com/stitts-dev/bestxi/internal/api/handlers"
	"github.com/stitts-dev/bestxi/internal/api/middleware"
	"github.com/stitts-dev/bestxi/internal/services"
	"github.com/stitts-dev/bestxi/pkg/config"
)

// Dependencies are the collaborators the routes are built from. Pools and
// DB may be nil when the server runs without storage.
type Dependencies struct {
	Config  *config.Config
	Builder *services.TeamBuilder
	Pools   handlers.PoolRepository
	DB      handlers.Pinger
	Cache   *services.ResultCache
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(deps.Config.CorsOrigins))

	health := handlers.NewHealthHandler(deps.DB, deps.Cache)
	router.GET("/health", health.GetHealth)
	router.GET("/ready", health.GetReady)

	SetupRoutes(router.Group("/api/v1"), deps)
	return router
}

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(group *gin.RouterGroup, deps Dependencies) {
	teamHandler := handlers.NewTeamHandler(deps.Builder)
	limiter := middleware.NewRateLimiter(deps.Config.RateLimitRPS, deps.Config.RateLimitBurst)

	group.POST("/score", teamHandler.ScoreCandidates)

	teams := group.Group("/teams")
	{
		teams.GET("/constraints/default", teamHandler.GetDefaultConstraints)
		teams.POST("/optimize", limiter.Middleware(), teamHandler.OptimizeTeam)
		teams.POST("/export", limiter.Middleware(), teamHandler.ExportTeam)
	}

	if deps.Pools == nil {
		return
	}
	poolHandler := handlers.NewPoolHandler(deps.Pools, deps.Config.MaxPoolSize)
	pools := group.Group("/pools")
	{
		pools.POST("", poolHandler.CreatePool)
		pools.GET("", poolHandler.ListPools)
		pools.GET("/:id", poolHandler.GetPool)
		pools.DELETE("/:id", poolHandler.DeletePool)
		pools.POST("/:id/candidates", poolHandler.AddCandidates)
		pools.POST("/:id/import", poolHandler.ImportCSV)
	}
}
