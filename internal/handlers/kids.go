package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mira/api/internal/middleware"
	"github.com/mira/api/internal/store"
)

// KidsHandler exposes the minimal kid-profile read used before submitting
type KidsHandler struct {
	store  *store.Store
	logger *zap.Logger
}

// NewKidsHandler creates a kids handler
func NewKidsHandler(st *store.Store, logger *zap.Logger) *KidsHandler {
	return &KidsHandler{store: st, logger: logger}
}

// Get returns a kid profile by id
func (h *KidsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		middleware.BadRequest(c, "invalid kid id")
		return
	}

	kid, err := h.store.GetKid(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			middleware.NotFound(c, "kid not found")
			return
		}
		h.logger.Error("kid lookup failed", zap.Error(err))
		middleware.InternalError(c, "could not load kid profile")
		return
	}

	c.JSON(http.StatusOK, kid)
}
