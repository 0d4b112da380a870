package scores

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"resume-match/internal/shared/server/middleware"
	"resume-match/internal/shared/server/respond"
)

// Response is the outward-facing representation of a score.
type Response struct {
	ScoreID    string    `json:"scoreId"`
	ResumeID   string    `json:"resumeId"`
	JobOfferID string    `json:"jobOfferId"`
	Score      int       `json:"score"`
	Reason     string    `json:"reason"`
	Model      string    `json:"model"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ToResponse converts a stored score to its JSON shape.
func ToResponse(s Score) Response {
	return Response{
		ScoreID:    s.ID,
		ResumeID:   s.ResumeID,
		JobOfferID: s.JobOfferID,
		Score:      s.Score,
		Reason:     s.Reason,
		Model:      s.Model,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}

// Handler exposes read and delete operations on stored scores.
type Handler struct {
	Store Store
}

// NewHandler constructs a Handler.
func NewHandler(store Store) *Handler {
	return &Handler{Store: store}
}

// RegisterRoutes attaches score routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/scores", h.list)
	rg.GET("/scores/pair", h.getByPair)
	rg.GET("/scores/:id", h.get)
	rg.DELETE("/scores/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	f := Filter{
		ResumeID:   strings.TrimSpace(c.Query("resumeId")),
		JobOfferID: strings.TrimSpace(c.Query("jobOfferId")),
		Limit:      50,
	}
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "limit must be a positive integer", nil)
			return
		}
		f.Limit = parsed
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	if v := c.Query("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			respond.Error(c, http.StatusBadRequest, "validation_error", "offset must be a non-negative integer", nil)
			return
		}
		f.Offset = parsed
	}

	list, err := h.Store.List(c.Request.Context(), f)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list scores", nil)
		return
	}
	resp := make([]Response, 0, len(list))
	for _, s := range list {
		resp = append(resp, ToResponse(s))
	}
	respond.OK(c, resp)
}

func (h *Handler) getByPair(c *gin.Context) {
	resumeID := strings.TrimSpace(c.Query("resumeId"))
	jobOfferID := strings.TrimSpace(c.Query("jobOfferId"))
	if resumeID == "" || jobOfferID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "resumeId and jobOfferId are required", nil)
		return
	}
	c.Set(middleware.ResumeIDKey, resumeID)
	c.Set(middleware.JobOfferIDKey, jobOfferID)

	s, err := h.Store.Get(c.Request.Context(), resumeID, jobOfferID)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(s))
}

func (h *Handler) get(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ScoreIDKey, id)
	s, err := h.Store.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, ToResponse(s))
}

func (h *Handler) delete(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ScoreIDKey, id)
	if err := h.Store.DeleteByID(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, ErrNotFound) {
		respond.Error(c, http.StatusNotFound, "not_found", "score not found", nil)
		return
	}
	respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch score", nil)
}
