package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/proofcast/proofcast-backend/internal/handlers"
	"github.com/proofcast/proofcast-backend/internal/middleware"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log               *logger.Logger
	EvidenceHandler   *handlers.EvidenceHandler
	SynthesisHandler  *handlers.SynthesisHandler
	ClusterHandler    *handlers.ClusterHandler
	CoverageHandler   *handlers.CoverageHandler
	AnnotationHandler *handlers.AnnotationHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("proofcast-backend"))
	router.Use(middleware.RequestTrace(cfg.Log))
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		AllowCredentials: true,
	}))

	router.GET("/healthcheck", handlers.HealthCheck)

	api := router.Group("/api")
	{
		// Evidence
		api.GET("/claims/:id/evidence", cfg.EvidenceHandler.RetrieveForClaim)
		api.GET("/episodes/:id/context", cfg.EvidenceHandler.AssembleContext)
		// Synthesis
		api.POST("/claims/:id/synthesis", cfg.SynthesisHandler.GetOrCompute)
		// Clusters
		api.GET("/clusters", cfg.ClusterHandler.Overview)
		api.POST("/clusters/nearest", cfg.ClusterHandler.Nearest)
		api.GET("/clusters/:id/items", cfg.CoverageHandler.ItemsInCluster)
		// Coverage
		api.GET("/coverage", cfg.CoverageHandler.Overview)
		api.GET("/coverage/comparison", cfg.CoverageHandler.Comparison)
		// Annotations
		api.POST("/annotations", cfg.AnnotationHandler.Create)
		api.DELETE("/annotations/:id", cfg.AnnotationHandler.Delete)
		api.GET("/users/:id/annotations", cfg.AnnotationHandler.ListForUser)
	}

	return router
}
