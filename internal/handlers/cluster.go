package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/proofcast/proofcast-backend/internal/data/repos"
	"github.com/proofcast/proofcast-backend/internal/modules/taxonomy/steps"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/openai"
)

type ClusterHandler struct {
	log  *logger.Logger
	defs repos.ClusterDefinitionRepo
	ai   openai.Client
}

func NewClusterHandler(log *logger.Logger, defs repos.ClusterDefinitionRepo, ai openai.Client) *ClusterHandler {
	return &ClusterHandler{
		log:  log.With("handler", "ClusterHandler"),
		defs: defs,
		ai:   ai,
	}
}

// GET /api/clusters
// The full territory map: every cluster definition with layout and stats.
func (h *ClusterHandler) Overview(c *gin.Context) {
	defs, err := h.defs.GetAll(c.Request.Context(), nil)
	if err != nil {
		h.log.Error("Cluster overview failed", "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": defs})
}

type nearestRequest struct {
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
	K         int       `json:"k"`
}

// POST /api/clusters/nearest
// Classify a new item against the current cluster generation without a
// refit. Accepts raw text (embedded server-side) or a precomputed vector.
func (h *ClusterHandler) Nearest(c *gin.Context) {
	var req nearestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	embedding := req.Embedding
	if len(embedding) == 0 {
		if strings.TrimSpace(req.Text) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "text or embedding is required"})
			return
		}
		embs, err := h.ai.Embed(c.Request.Context(), []string{req.Text})
		if err != nil {
			h.log.Error("Embedding for nearest-clusters failed", "error", err)
			c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
			return
		}
		embedding = embs[0]
	}
	defs, err := h.defs.GetAll(c.Request.Context(), nil)
	if err != nil {
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	nearest, err := steps.NearestClusters(defs, embedding, req.K)
	if err != nil {
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"clusters": nearest})
}
