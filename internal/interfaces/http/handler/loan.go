package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	lendingapp "github.com/praws/backend/internal/application/lending"
	"github.com/praws/backend/internal/interfaces/http/dto"
)

// LoanHandler handles loan lifecycle API endpoints
type LoanHandler struct {
	BaseHandler
	loanService *lendingapp.LoanService
}

// NewLoanHandler creates a new LoanHandler
func NewLoanHandler(loanService *lendingapp.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

// RegisterRoutes registers loan routes on the API group
func (h *LoanHandler) RegisterRoutes(rg *gin.RouterGroup) {
	loans := rg.Group("/loans")
	loans.POST("", h.CreateLoan)
	loans.GET("", h.ListLoans)
	loans.GET("/:id", h.GetLoan)
	loans.POST("/:id/approve", h.ApproveLoan)
	loans.POST("/:id/reject", h.RejectLoan)
	loans.POST("/:id/disburse", h.DisburseLoan)
}

// CreateLoanRequest is the request body for a loan application
type CreateLoanRequest struct {
	MemberID   string  `json:"member_id" binding:"required,uuid"`
	MemberName string  `json:"member_name" binding:"required"`
	Principal  float64 `json:"principal" binding:"required,gt=0"`
	TermMonths int     `json:"term_months" binding:"required"`
	Purpose    string  `json:"purpose"`
}

// RejectLoanRequest is the request body for rejecting an application
type RejectLoanRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// DisburseLoanRequest is the request body for disbursing an approved loan
type DisburseLoanRequest struct {
	ActorID   string `json:"actor_id" binding:"required,uuid"`
	StartDate string `json:"start_date"`
}

// CreateLoan handles POST /loans
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	var req CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		h.BadRequest(c, "Invalid member ID format")
		return
	}

	loan, err := h.loanService.CreateLoan(c.Request.Context(), lendingapp.CreateLoanInput{
		MemberID:   memberID,
		MemberName: req.MemberName,
		Principal:  decimal.NewFromFloat(req.Principal),
		TermMonths: req.TermMonths,
		Purpose:    req.Purpose,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, loan)
}

// GetLoan handles GET /loans/:id
func (h *LoanHandler) GetLoan(c *gin.Context) {
	loanID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid loan ID format")
		return
	}

	loan, err := h.loanService.GetLoan(c.Request.Context(), loanID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loan)
}

// ListLoans handles GET /loans
func (h *LoanHandler) ListLoans(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	input := lendingapp.ListLoansInput{
		Page:     list.Page,
		PageSize: list.PageSize,
	}
	if memberID := c.Query("member_id"); memberID != "" {
		id, err := uuid.Parse(memberID)
		if err != nil {
			h.BadRequest(c, "Invalid member ID format")
			return
		}
		input.MemberID = &id
	}
	if status := c.Query("status"); status != "" {
		input.Statuses = strings.Split(status, ",")
	}

	loans, meta, err := h.loanService.ListLoans(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, loans, meta.Total, meta.Page, meta.PageSize)
}

// ApproveLoan handles POST /loans/:id/approve
func (h *LoanHandler) ApproveLoan(c *gin.Context) {
	loanID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid loan ID format")
		return
	}

	loan, err := h.loanService.ApproveLoan(c.Request.Context(), loanID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loan)
}

// RejectLoan handles POST /loans/:id/reject
func (h *LoanHandler) RejectLoan(c *gin.Context) {
	loanID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid loan ID format")
		return
	}

	var req RejectLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	loan, err := h.loanService.RejectLoan(c.Request.Context(), loanID, req.Reason)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loan)
}

// DisburseLoan handles POST /loans/:id/disburse
func (h *LoanHandler) DisburseLoan(c *gin.Context) {
	loanID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid loan ID format")
		return
	}

	var req DisburseLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	actorID, err := uuid.Parse(req.ActorID)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID format")
		return
	}

	startDate := time.Now()
	if req.StartDate != "" {
		startDate, err = parseDate(req.StartDate)
		if err != nil {
			h.BadRequest(c, "Invalid start date format")
			return
		}
	}

	loan, err := h.loanService.DisburseLoan(c.Request.Context(), loanID, actorID, startDate)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, loan)
}
