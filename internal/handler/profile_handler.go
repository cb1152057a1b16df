package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stylemail/internal/extractor"
	"stylemail/internal/service"
)

type ProfileHandler struct {
	svc    *service.ProfileService
	logger *zap.Logger
}

func NewProfileHandler(svc *service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{svc: svc, logger: logger}
}

// GetProfile handles GET /profiles/:connection_id
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	connectionID := c.Param("connection_id")

	profile, err := h.svc.GetProfile(c.Request.Context(), connectionID, "")
	if err != nil {
		if errors.Is(err, service.ErrNoProfile) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no profile"})
			return
		}
		h.logger.Error("Failed to read profile", zap.String("connection_id", connectionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// ResolveProfile handles POST /profiles/:connection_id/resolve.
// Used right before composing an AI-assisted draft: returns the persisted
// profile, or a transient one synthesized from fallback_body when no profile
// is persisted yet. 404 means "insufficient data, use a generic style".
func (h *ProfileHandler) ResolveProfile(c *gin.Context) {
	var req struct {
		FallbackBody string `json:"fallback_body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	connectionID := c.Param("connection_id")

	profile, err := h.svc.GetProfile(c.Request.Context(), connectionID, req.FallbackBody)
	if err != nil {
		if errors.Is(err, service.ErrNoProfile) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no profile"})
			return
		}
		h.logger.Error("Failed to resolve profile", zap.String("connection_id", connectionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve profile"})
		return
	}

	c.JSON(http.StatusOK, profile)
}

// IngestEmail handles POST /profiles/:connection_id/ingest.
// Synchronous fold of one email body, used for backfill and testing; the
// production path is the email.sent consumer.
func (h *ProfileHandler) IngestEmail(c *gin.Context) {
	var req struct {
		EmailBody string `json:"email_body"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	connectionID := c.Param("connection_id")

	profile, err := h.svc.UpdateProfile(c.Request.Context(), connectionID, req.EmailBody)
	if err != nil {
		var conflict *service.ConflictError
		var extractErr *extractor.ExtractionError
		switch {
		case errors.Is(err, extractor.ErrEmptyBody):
			c.JSON(http.StatusBadRequest, gin.H{"error": "empty email body"})
		case errors.As(err, &extractErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": "feature extraction failed"})
		case errors.As(err, &conflict):
			c.JSON(http.StatusConflict, gin.H{"error": "profile update conflict, contribution dropped"})
		default:
			h.logger.Error("Failed to ingest email", zap.String("connection_id", connectionID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to ingest email"})
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"connection_id": profile.ConnectionID,
		"num_messages":  profile.NumMessages,
	})
}
