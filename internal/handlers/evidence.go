package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/platform/vecstore"
	"github.com/proofcast/proofcast-backend/internal/services"
)

type EvidenceHandler struct {
	log       *logger.Logger
	retrieval services.EvidenceRetrievalService
	assembler services.ContextAssemblerService
}

func NewEvidenceHandler(log *logger.Logger, retrieval services.EvidenceRetrievalService, assembler services.ContextAssemblerService) *EvidenceHandler {
	return &EvidenceHandler{
		log:       log.With("handler", "EvidenceHandler"),
		retrieval: retrieval,
		assembler: assembler,
	}
}

// GET /api/claims/:id/evidence
// Retrieve and classify evidence for a claim. Query params: threshold,
// top_k, year_from, year_to, section.
func (h *EvidenceHandler) RetrieveForClaim(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	opts := services.RetrieveOpts{}
	if v := c.Query("threshold"); v != "" {
		if f, parseErr := strconv.ParseFloat(v, 64); parseErr == nil {
			opts.Threshold = f
		}
	}
	if v := c.Query("top_k"); v != "" {
		if k, parseErr := strconv.Atoi(v); parseErr == nil {
			opts.TopK = k
		}
	}
	filter := &vecstore.Filter{Section: c.Query("section")}
	if v := c.Query("year_from"); v != "" {
		filter.YearFrom, _ = strconv.Atoi(v)
	}
	if v := c.Query("year_to"); v != "" {
		filter.YearTo, _ = strconv.Atoi(v)
	}
	if filter.YearFrom != 0 || filter.YearTo != 0 || filter.Section != "" {
		opts.Filter = filter
	}

	result, err := h.retrieval.RetrieveForClaim(c.Request.Context(), claimID, opts)
	if err != nil {
		h.log.Error("Evidence retrieval failed", "claim_id", claimID, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// GET /api/episodes/:id/context
// Assemble the temporal evidence context at a playback position.
func (h *EvidenceHandler) AssembleContext(c *gin.Context) {
	episodeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid episode id"})
		return
	}
	positionMs, err := strconv.ParseInt(c.Query("position_ms"), 10, 64)
	if err != nil || positionMs < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position_ms is required and must be non-negative"})
		return
	}
	bundle, err := h.assembler.AssembleContext(c.Request.Context(), episodeID, positionMs, services.AssembleOpts{})
	if err != nil {
		h.log.Error("Context assembly failed", "episode_id", episodeID, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, bundle)
}
