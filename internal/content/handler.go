package content

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-match/internal/extract"
	"resume-match/internal/shared/server/middleware"
	"resume-match/internal/shared/server/respond"
)

const (
	maxUploadSize   = 10 << 20 // 10MB
	resumeFileField = "resumePdf"
	offerFileField  = "jobOfferFile"
)

// Handler wires HTTP handlers to the service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches resume and job offer routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	resumes := rg.Group("/resumes", middleware.RequireUser())
	resumes.POST("", h.createResume)
	resumes.GET("/current", h.currentResume)
	resumes.GET("/:id", h.getResume)
	resumes.PUT("/:id", h.updateResume)
	resumes.DELETE("/:id", h.deleteResume)

	rg.POST("/job-offers", h.createJobOffer)
	rg.GET("/job-offers", h.listJobOffers)
	rg.GET("/job-offers/:id", h.getJobOffer)
	rg.PUT("/job-offers/:id", h.updateJobOffer)
	rg.DELETE("/job-offers/:id", h.deleteJobOffer)
}

// readContent accepts either a JSON body or a multipart upload in fileField.
func readContent(c *gin.Context, fileField string) (contentRequest, bool) {
	var req contentRequest
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)
		fileHeader, err := c.FormFile(fileField)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", fileField+" is required", nil)
			return req, false
		}
		file, err := fileHeader.Open()
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "unable to read file", nil)
			return req, false
		}
		defer file.Close()

		text, err := extract.FromReader(c.Request.Context(), file, maxUploadSize, fileHeader.Header.Get("Content-Type"), fileHeader.Filename)
		if err != nil {
			respond.Error(c, http.StatusUnprocessableEntity, "extraction_failed", "unable to extract text from file", gin.H{"reason": err.Error()})
			return req, false
		}
		req.FileName = fileHeader.Filename
		if name := strings.TrimSpace(c.PostForm("fileName")); name != "" {
			req.FileName = name
		}
		req.Content = text
		return req, true
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return req, false
	}
	return req, true
}

func writeError(c *gin.Context, err error, entity string) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", entity+" not found", nil)
	case errors.Is(err, ErrConflict):
		respond.Error(c, http.StatusConflict, "conflict", entity+" already exists", nil)
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	default:
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to process "+entity, nil)
	}
}

func (h *Handler) createResume(c *gin.Context) {
	req, ok := readContent(c, resumeFileField)
	if !ok {
		return
	}
	res, err := h.Svc.CreateResume(c.Request.Context(), middleware.UserIDFromContext(c), req.FileName, req.Content)
	if err != nil {
		writeError(c, err, "resume")
		return
	}
	c.Set(middleware.ResumeIDKey, res.ID)
	respond.JSON(c, http.StatusCreated, toResumeResponse(res))
}

func (h *Handler) currentResume(c *gin.Context) {
	res, err := h.Svc.CurrentResume(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err, "resume")
		return
	}
	respond.OK(c, toResumeResponse(res))
}

func (h *Handler) getResume(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)
	res, err := h.Svc.GetResume(c.Request.Context(), middleware.UserIDFromContext(c), id)
	if err != nil {
		writeError(c, err, "resume")
		return
	}
	respond.OK(c, toResumeResponse(res))
}

func (h *Handler) updateResume(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)
	req, ok := readContent(c, resumeFileField)
	if !ok {
		return
	}
	res, err := h.Svc.UpdateResume(c.Request.Context(), middleware.UserIDFromContext(c), id, req.FileName, req.Content)
	if err != nil {
		writeError(c, err, "resume")
		return
	}
	respond.OK(c, toResumeResponse(res))
}

func (h *Handler) deleteResume(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.ResumeIDKey, id)
	if err := h.Svc.DeleteResume(c.Request.Context(), middleware.UserIDFromContext(c), id); err != nil {
		writeError(c, err, "resume")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) createJobOffer(c *gin.Context) {
	req, ok := readContent(c, offerFileField)
	if !ok {
		return
	}
	offer, err := h.Svc.CreateJobOffer(c.Request.Context(), req.FileName, req.Content)
	if err != nil {
		writeError(c, err, "job offer")
		return
	}
	c.Set(middleware.JobOfferIDKey, offer.ID)
	respond.JSON(c, http.StatusCreated, toJobOfferResponse(offer))
}

func (h *Handler) listJobOffers(c *gin.Context) {
	limit := 20
	offset := 0

	if v := c.Query("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			limit = parsed
		}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}
	if v := c.Query("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			offset = parsed
		}
	}
	if offset < 0 {
		offset = 0
	}

	offers, err := h.Svc.ListJobOffers(c.Request.Context(), limit, offset)
	if err != nil {
		writeError(c, err, "job offer")
		return
	}
	resp := make([]JobOfferResponse, 0, len(offers))
	for _, o := range offers {
		resp = append(resp, toJobOfferResponse(o))
	}
	respond.OK(c, resp)
}

func (h *Handler) getJobOffer(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.JobOfferIDKey, id)
	offer, err := h.Svc.GetJobOffer(c.Request.Context(), id)
	if err != nil {
		writeError(c, err, "job offer")
		return
	}
	respond.OK(c, toJobOfferResponse(offer))
}

func (h *Handler) updateJobOffer(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.JobOfferIDKey, id)
	req, ok := readContent(c, offerFileField)
	if !ok {
		return
	}
	offer, err := h.Svc.UpdateJobOffer(c.Request.Context(), id, req.FileName, req.Content)
	if err != nil {
		writeError(c, err, "job offer")
		return
	}
	respond.OK(c, toJobOfferResponse(offer))
}

func (h *Handler) deleteJobOffer(c *gin.Context) {
	id := c.Param("id")
	c.Set(middleware.JobOfferIDKey, id)
	if err := h.Svc.DeleteJobOffer(c.Request.Context(), id); err != nil {
		writeError(c, err, "job offer")
		return
	}
	c.Status(http.StatusNoContent)
}
