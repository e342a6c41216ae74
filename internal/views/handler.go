// Package views serves the read-only dashboard and document list views.
package views

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"expiry-backend/internal/documents"
	"expiry-backend/internal/listing"
	"expiry-backend/internal/shared/server/middleware"
	"expiry-backend/internal/shared/server/respond"
	"expiry-backend/internal/stats"
)

// DocumentLister is the read side of the documents service.
type DocumentLister interface {
	List(ctx context.Context, owner string) ([]documents.Document, error)
}

type Handler struct {
	Docs     DocumentLister
	Lister   *listing.Lister
	Location *time.Location
	Now      func() time.Time
}

func NewHandler(docs DocumentLister, lister *listing.Lister, loc *time.Location) *Handler {
	return &Handler{Docs: docs, Lister: lister, Location: loc, Now: time.Now}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard", h.dashboard)
	rg.GET("/documents", h.list)
}

type dashboardResponse struct {
	Stats           stats.Summary                `json:"stats"`
	Upcoming        []documents.DocumentResponse `json:"upcoming"`
	RecentlyExpired []documents.DocumentResponse `json:"recentlyExpired"`
}

type listResponse struct {
	Documents []documents.DocumentResponse `json:"documents"`
	Count     int                          `json:"count"`
	Total     int                          `json:"total"`
	Query     listQuery                    `json:"query"`
}

type listQuery struct {
	Text   string          `json:"q"`
	Status listing.Status  `json:"status"`
	Sort   listing.SortKey `json:"sort"`
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) dashboard(c *gin.Context) {
	docs, err := h.Docs.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		documents.WriteError(c, err)
		return
	}
	now := h.now()
	respond.OK(c, dashboardResponse{
		Stats:           stats.Compute(docs, now, h.Location),
		Upcoming:        documents.PresentAll(stats.Upcoming(docs, now, h.Location, stats.UpcomingLimit), now, h.Location),
		RecentlyExpired: documents.PresentAll(stats.RecentlyExpired(docs, now, h.Location, stats.RecentlyExpiredLimit), now, h.Location),
	})
}

func (h *Handler) list(c *gin.Context) {
	status, err := listing.ParseStatus(c.Query("status"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "status must be one of all, expired, expiring, safe", nil)
		return
	}
	sortKey, err := listing.ParseSort(c.Query("sort"))
	if err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "sort must be one of expiry_date, document_name, person_name", nil)
		return
	}
	query := listing.Query{Text: c.Query("q"), Status: status, Sort: sortKey}

	docs, err := h.Docs.List(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		documents.WriteError(c, err)
		return
	}
	now := h.now()
	filtered := h.Lister.Apply(docs, query, now)
	respond.OK(c, listResponse{
		Documents: documents.PresentAll(filtered, now, h.Location),
		Count:     len(filtered),
		Total:     len(docs),
		Query:     listQuery{Text: query.Text, Status: query.Status, Sort: query.Sort},
	})
}
