package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	lendingapp "github.com/praws/backend/internal/application/lending"
)

// ReportHandler handles accounting report API endpoints
type ReportHandler struct {
	BaseHandler
	summaryService *lendingapp.SummaryService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(summaryService *lendingapp.SummaryService) *ReportHandler {
	return &ReportHandler{summaryService: summaryService}
}

// RegisterRoutes registers report routes on the API group
func (h *ReportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports")
	reports.GET("/summary", h.GetSummary)
	reports.GET("/interest", h.GetInterestReport)
}

// GetSummary handles GET /reports/summary
func (h *ReportHandler) GetSummary(c *gin.Context) {
	summary, err := h.summaryService.GenerateSummary(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, summary)
}

// GetInterestReport handles GET /reports/interest. The period defaults to the
// current calendar year when no bounds are given.
func (h *ReportHandler) GetInterestReport(c *gin.Context) {
	now := time.Now()
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	to := now

	var err error
	if value := c.Query("from_date"); value != "" {
		if from, err = parseDate(value); err != nil {
			h.BadRequest(c, "Invalid from date format")
			return
		}
	}
	if value := c.Query("to_date"); value != "" {
		if to, err = parseDate(value); err != nil {
			h.BadRequest(c, "Invalid to date format")
			return
		}
	}

	report, err := h.summaryService.GenerateInterestReport(c.Request.Context(), from, to)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, report)
}
