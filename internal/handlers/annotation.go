package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/proofcast/proofcast-backend/internal/domain"
	"github.com/proofcast/proofcast-backend/internal/platform/apierr"
	"github.com/proofcast/proofcast-backend/internal/platform/logger"
	"github.com/proofcast/proofcast-backend/internal/services"
)

type AnnotationHandler struct {
	log         *logger.Logger
	annotations services.AnnotationService
}

func NewAnnotationHandler(log *logger.Logger, annotations services.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{
		log:         log.With("handler", "AnnotationHandler"),
		annotations: annotations,
	}
}

type createAnnotationRequest struct {
	UserID  uuid.UUID             `json:"user_id" binding:"required"`
	ClaimID uuid.UUID             `json:"claim_id" binding:"required"`
	Kind    domain.AnnotationKind `json:"kind"`
}

// POST /api/annotations
func (h *AnnotationHandler) Create(c *gin.Context) {
	var req createAnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and claim_id are required"})
		return
	}
	ann, err := h.annotations.Create(c.Request.Context(), req.UserID, req.ClaimID, req.Kind)
	if err != nil {
		h.log.Error("Annotation create failed", "claim_id", req.ClaimID, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, ann)
}

// DELETE /api/annotations/:id
func (h *AnnotationHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid annotation id"})
		return
	}
	if err := h.annotations.Delete(c.Request.Context(), id); err != nil {
		h.log.Error("Annotation delete failed", "annotation_id", id, "error", err)
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/users/:id/annotations
func (h *AnnotationHandler) ListForUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	anns, err := h.annotations.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(apierr.StatusOf(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"annotations": anns})
}
