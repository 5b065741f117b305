package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/services"
)

type CoverageHandler struct {
	log      *logger.Logger
	coverage services.CoverageService
}

func NewCoverageHandler(log *logger.Logger, coverage services.CoverageService) *CoverageHandler {
	return &CoverageHandler{
		log:      log.With("handler", "CoverageHandler"),
		coverage: coverage,
	}
}

func parseScope(c *gin.Context, kindParam, idParam string) (services.Scope, bool) {
	kind := services.ScopeKind(c.Query(kindParam))
	if kind == "" {
		kind = services.ScopeCorpus
	}
	scope := services.Scope{Kind: kind}
	if raw := c.Query(idParam); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return scope, false
		}
		scope.ID = id
	}
	return scope, true
}

// GET /api/coverage?scope_kind=episode&scope_id=...
// Per-cluster statistics for one scope, zero-filled across all clusters.
func (h *CoverageHandler) Overview(c *gin.Context) {
	scope, ok := parseScope(c, "scope_kind", "scope_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scope_id"})
		return
	}
	rows, err := h.coverage.Overview(c.Request.Context(), scope)
	if err != nil {
		h.log.Error("Coverage overview failed", "scope", scope.Kind, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// GET /api/coverage/comparison?episode_id=...&user_id=...
// "What you've covered vs what exists": episode claims against the user's
// notebook, per cluster.
func (h *CoverageHandler) Comparison(c *gin.Context) {
	episodeID, err := uuid.Parse(c.Query("episode_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid episode_id"})
		return
	}
	userID, err := uuid.Parse(c.Query("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}
	rows, err := h.coverage.Comparison(
		c.Request.Context(),
		services.Scope{Kind: services.ScopeEpisode, ID: episodeID},
		services.Scope{Kind: services.ScopeNotebook, ID: userID},
	)
	if err != nil {
		h.log.Error("Coverage comparison failed", "episode_id", episodeID, "user_id", userID, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rows": rows})
}

// GET /api/clusters/:id/items?scope_kind=...&scope_id=...
func (h *CoverageHandler) ItemsInCluster(c *gin.Context) {
	clusterID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cluster id"})
		return
	}
	scope, ok := parseScope(c, "scope_kind", "scope_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid scope_id"})
		return
	}
	items, err := h.coverage.ItemsInCluster(c.Request.Context(), clusterID, scope)
	if err != nil {
		h.log.Error("Cluster items lookup failed", "cluster_id", clusterID, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, items)
}
