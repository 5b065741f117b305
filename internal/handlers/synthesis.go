package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/services"
)

type SynthesisHandler struct {
	log       *logger.Logger
	synthesis services.SynthesisService
}

func NewSynthesisHandler(log *logger.Logger, synthesis services.SynthesisService) *SynthesisHandler {
	return &SynthesisHandler{
		log:       log.With("handler", "SynthesisHandler"),
		synthesis: synthesis,
	}
}

type synthesisRequest struct {
	Style string `json:"style"`
}

// POST /api/claims/:id/synthesis
// Return the cached synthesis for (claim, style), computing it on a miss
// or stale hit.
func (h *SynthesisHandler) GetOrCompute(c *gin.Context) {
	claimID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid claim id"})
		return
	}
	var req synthesisRequest
	_ = c.ShouldBindJSON(&req)

	artifact, err := h.synthesis.GetOrCompute(c.Request.Context(), claimID, req.Style)
	if err != nil {
		h.log.Error("Synthesis failed", "claim_id", claimID, "style", req.Style, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, artifact)
}
