package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/shared/server/middleware"
	"expiry-backend/internal/shared/server/respond"
)

type Handler struct {
	Svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/profile", h.get)
	rg.PATCH("/profile", h.update)
}

func (h *Handler) get(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	user, err := h.Svc.GetProfile(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, user)
}

func (h *Handler) update(c *gin.Context) {
	if h.Svc == nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "service unavailable", nil)
		return
	}
	var patch ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), middleware.UserIDFromContext(c), patch)
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond.OK(c, user)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid profile", verr.Fields)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	default:
		respond.Internal(c, http.StatusInternalServerError, "store_error", "failed to load profile", err)
	}
}
