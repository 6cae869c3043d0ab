package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/omkarpat/dcr-service/internal/http/middleware"
	"github.com/omkarpat/dcr-service/internal/model"
	"github.com/omkarpat/dcr-service/internal/service"
)

// ExcelRenderer turns a report into workbook bytes; layout only, the
// numbers come straight from the report.
type ExcelRenderer interface {
	Render(report *model.Report) ([]byte, error)
}

type PDFRenderer interface {
	Render(report *model.Report) ([]byte, error)
}

type Handler struct {
	dcrs    *service.DCRService
	forms   *service.FormService
	reports *service.ReportService
	excel   ExcelRenderer
	pdf     PDFRenderer
	log     zerolog.Logger
}

func NewHandler(
	dcrs *service.DCRService,
	forms *service.FormService,
	reports *service.ReportService,
	excel ExcelRenderer,
	pdf PDFRenderer,
	log zerolog.Logger,
) *Handler {
	return &Handler{dcrs: dcrs, forms: forms, reports: reports, excel: excel, pdf: pdf, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.GET("/branches/:branchId/dcr", h.listDcrs)
	protected.POST("/branches/:branchId/dcr", h.createDcr)
	protected.GET("/dcr/:id", h.getDcr)
	protected.PUT("/dcr/:id", h.updateDcr)
	protected.POST("/dcr/:id/submit", h.submitDcr)
	protected.POST("/dcr/:id/accept", h.acceptDcr)
	protected.POST("/dcr/:id/reject", h.rejectDcr)
	protected.POST("/dcr/:id/reopen", h.reopenDcr)
	protected.GET("/form-spec", h.getFormSpec)
	protected.GET("/reports/:branchId/:yearMonth", h.getReport)
	protected.GET("/reports/:branchId/:yearMonth/xlsx", h.getReportExcel)
	protected.GET("/reports/:branchId/:yearMonth/pdf", h.getReportPDF)
}

func (h *Handler) listDcrs(c *gin.Context) {
	actor, branchID, ok := h.actorAndBranch(c)
	if !ok {
		return
	}
	summaries, err := h.dcrs.List(c.Request.Context(), actor, branchID, c.Query("month"))
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

func (h *Handler) createDcr(c *gin.Context) {
	actor, branchID, ok := h.actorAndBranch(c)
	if !ok {
		return
	}
	var payload service.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.dcrs.Create(c.Request.Context(), actor, branchID, payload)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) getDcr(c *gin.Context) {
	actor, dcrID, ok := h.actorAndID(c)
	if !ok {
		return
	}
	detail, err := h.dcrs.Get(c.Request.Context(), actor, dcrID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

func (h *Handler) updateDcr(c *gin.Context) {
	actor, dcrID, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var payload service.Payload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.dcrs.Update(c.Request.Context(), actor, dcrID, payload); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *Handler) submitDcr(c *gin.Context) {
	h.transition(c, func(actor model.Actor, id uuid.UUID) (model.DCRStatus, error) {
		return h.dcrs.Submit(c.Request.Context(), actor, id)
	})
}

func (h *Handler) acceptDcr(c *gin.Context) {
	h.transition(c, func(actor model.Actor, id uuid.UUID) (model.DCRStatus, error) {
		return h.dcrs.Accept(c.Request.Context(), actor, id)
	})
}

func (h *Handler) rejectDcr(c *gin.Context) {
	actor, dcrID, ok := h.actorAndID(c)
	if !ok {
		return
	}
	var body struct {
		Reason string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	status, err := h.dcrs.Reject(c.Request.Context(), actor, dcrID, body.Reason)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) reopenDcr(c *gin.Context) {
	h.transition(c, func(actor model.Actor, id uuid.UUID) (model.DCRStatus, error) {
		return h.dcrs.Reopen(c.Request.Context(), actor, id)
	})
}

func (h *Handler) getFormSpec(c *gin.Context) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return
	}
	branchID, err := uuid.Parse(strings.TrimSpace(c.Query("branchId")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branchId"})
		return
	}
	var date time.Time
	if raw := c.Query("date"); raw != "" {
		date, err = time.ParseInLocation("2006-01-02", raw, time.UTC)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date"})
			return
		}
	}
	schema, err := h.forms.Get(c.Request.Context(), actor, branchID, date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, schema)
}

func (h *Handler) getReport(c *gin.Context) {
	report, ok := h.buildReport(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *Handler) getReportExcel(c *gin.Context) {
	report, ok := h.buildReport(c)
	if !ok {
		return
	}
	content, err := h.excel.Render(report)
	if err != nil {
		h.handleError(c, err)
		return
	}
	name := "report-" + report.Branch.Code + "-" + report.Period + ".xlsx"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

func (h *Handler) getReportPDF(c *gin.Context) {
	report, ok := h.buildReport(c)
	if !ok {
		return
	}
	content, err := h.pdf.Render(report)
	if err != nil {
		h.handleError(c, err)
		return
	}
	name := "report-" + report.Branch.Code + "-" + report.Period + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", content)
}

func (h *Handler) buildReport(c *gin.Context) (*model.Report, bool) {
	actor, branchID, ok := h.actorAndBranch(c)
	if !ok {
		return nil, false
	}
	report, err := h.reports.Build(c.Request.Context(), actor, branchID, c.Param("yearMonth"))
	if err != nil {
		h.handleError(c, err)
		return nil, false
	}
	return report, true
}

func (h *Handler) transition(c *gin.Context, run func(model.Actor, uuid.UUID) (model.DCRStatus, error)) {
	actor, dcrID, ok := h.actorAndID(c)
	if !ok {
		return
	}
	status, err := run(actor, dcrID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) actorAndBranch(c *gin.Context) (model.Actor, uuid.UUID, bool) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Actor{}, uuid.Nil, false
	}
	branchID, err := uuid.Parse(strings.TrimSpace(c.Param("branchId")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid branch id"})
		return model.Actor{}, uuid.Nil, false
	}
	return actor, branchID, true
}

func (h *Handler) actorAndID(c *gin.Context) (model.Actor, uuid.UUID, bool) {
	actor, ok := middleware.MustActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing principal"})
		return model.Actor{}, uuid.Nil, false
	}
	dcrID, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid dcr id"})
		return model.Actor{}, uuid.Nil, false
	}
	return actor, dcrID, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	if verr, ok := service.AsValidationError(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Messages})
		return
	}
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPrecondition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
