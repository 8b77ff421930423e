package handler

import (
	"github.com/gin-gonic/gin"

	lendingapp "github.com/praws/backend/internal/application/lending"
	"github.com/praws/backend/internal/interfaces/http/dto"
)

// ReconciliationHandler handles reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	reconciliationService *lendingapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(reconciliationService *lendingapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconciliationService: reconciliationService}
}

// RegisterRoutes registers reconciliation routes on the API group
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/reconciliation/run", h.RunBatch)
	rg.GET("/reconciliation/records", h.ListRecords)
	rg.POST("/loans/:id/reconcile", h.ReconcileLoan)
}

// RunBatch handles POST /reconciliation/run
func (h *ReconciliationHandler) RunBatch(c *gin.Context) {
	result, err := h.reconciliationService.ReconcileAllLoans(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ReconcileLoan handles POST /loans/:id/reconcile
func (h *ReconciliationHandler) ReconcileLoan(c *gin.Context) {
	loanID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid loan ID format")
		return
	}

	result, err := h.reconciliationService.ReconcileLoan(c.Request.Context(), loanID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListRecords handles GET /reconciliation/records
func (h *ReconciliationHandler) ListRecords(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	records, meta, err := h.reconciliationService.ListRecords(c.Request.Context(), list.Page, list.PageSize)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, records, meta.Total, meta.Page, meta.PageSize)
}
