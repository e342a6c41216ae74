package documents

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/shared/server/middleware"
	"expiry-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc      *Service
	Now      func() time.Time
	Location *time.Location
}

// NewHandler constructs a Handler that classifies expiry against today in loc.
func NewHandler(svc *Service, loc *time.Location) *Handler {
	return &Handler{Svc: svc, Now: time.Now, Location: loc}
}

// RegisterRoutes attaches document routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/documents", h.create)
	rg.GET("/documents/:id", h.get)
	rg.PATCH("/documents/:id", h.update)
	rg.DELETE("/documents/:id", h.delete)
}

type writeResponse struct {
	Document  DocumentResponse   `json:"document"`
	Documents []DocumentResponse `json:"documents"`
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	result, err := h.Svc.Create(c.Request.Context(), middleware.UserIDFromContext(c), in)
	if err != nil {
		WriteError(c, err)
		return
	}
	c.Set("documentId", result.Document.ID)
	respond.JSON(c, http.StatusCreated, h.present(result))
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	doc, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, Present(doc, h.now(), h.Location))
}

func (h *Handler) update(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid JSON body", nil)
		return
	}
	result, err := h.Svc.Update(c.Request.Context(), middleware.UserIDFromContext(c), id, in)
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, h.present(result))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set("documentId", id)
	confirmed, _ := strconv.ParseBool(c.Query("confirm"))
	docs, err := h.Svc.Delete(c.Request.Context(), middleware.UserIDFromContext(c), id, confirmed)
	if err != nil {
		WriteError(c, err)
		return
	}
	respond.OK(c, gin.H{"documents": PresentAll(docs, h.now(), h.Location)})
}

func (h *Handler) present(result WriteResult) writeResponse {
	now := h.now()
	return writeResponse{
		Document:  Present(result.Document, now, h.Location),
		Documents: PresentAll(result.Documents, now, h.Location),
	}
}

// WriteError maps service errors to the standard error response.
func WriteError(c *gin.Context, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respond.Error(c, http.StatusBadRequest, "validation_error", "some fields are invalid", verr.Fields)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "document not found", nil)
	case errors.Is(err, ErrRecordBusy):
		respond.Error(c, http.StatusConflict, "record_busy", "this document is being changed, try again", nil)
	case errors.Is(err, ErrConfirmationRequired):
		respond.Error(c, http.StatusPreconditionRequired, "confirmation_required", "confirm the delete with ?confirm=true", nil)
	default:
		respond.Internal(c, http.StatusInternalServerError, "store_error", "something went wrong, try again", err)
	}
}
