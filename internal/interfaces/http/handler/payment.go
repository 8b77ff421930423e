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

// PaymentHandler handles payment recording API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *lendingapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *lendingapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// RegisterRoutes registers payment routes on the API group
func (h *PaymentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments", h.RecordContribution)
	rg.GET("/payments", h.ListPayments)
	rg.POST("/loans/:id/repayments", h.RecordRepayment)
}

// RecordContributionRequest is the request body for a contribution payment
type RecordContributionRequest struct {
	MemberID    string  `json:"member_id" binding:"required,uuid"`
	PaymentType string  `json:"payment_type" binding:"required"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PaymentDate string  `json:"payment_date" binding:"required"`
	Description string  `json:"description"`
}

// RecordRepaymentRequest is the request body for a loan repayment
type RecordRepaymentRequest struct {
	MemberID    string  `json:"member_id" binding:"required,uuid"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	PaymentDate string  `json:"payment_date" binding:"required"`
}

// RecordContribution handles POST /payments
func (h *PaymentHandler) RecordContribution(c *gin.Context) {
	var req RecordContributionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		h.BadRequest(c, "Invalid member ID format")
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "Invalid payment date format")
		return
	}

	payment, err := h.paymentService.RecordContribution(c.Request.Context(), lendingapp.RecordContributionInput{
		MemberID:    memberID,
		PaymentType: req.PaymentType,
		Amount:      decimal.NewFromFloat(req.Amount),
		PaymentDate: paymentDate,
		Description: req.Description,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, payment)
}

// RecordRepayment handles POST /loans/:id/repayments
func (h *PaymentHandler) RecordRepayment(c *gin.Context) {
	loanID, err := parseIDParam(c)
	if err != nil {
		h.BadRequest(c, "Invalid loan ID format")
		return
	}

	var req RecordRepaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		h.BadRequest(c, "Invalid member ID format")
		return
	}

	paymentDate, err := parseDate(req.PaymentDate)
	if err != nil {
		h.BadRequest(c, "Invalid payment date format")
		return
	}

	result, err := h.paymentService.RecordLoanRepayment(c.Request.Context(), lendingapp.RecordRepaymentInput{
		LoanID:      loanID,
		MemberID:    memberID,
		Amount:      decimal.NewFromFloat(req.Amount),
		PaymentDate: paymentDate,
	})
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Created(c, result)
}

// ListPayments handles GET /payments
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	var list dto.ListRequest
	if err := c.ShouldBindQuery(&list); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	list.Normalize()

	input := lendingapp.ListPaymentsInput{
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
	if loanID := c.Query("loan_id"); loanID != "" {
		id, err := uuid.Parse(loanID)
		if err != nil {
			h.BadRequest(c, "Invalid loan ID format")
			return
		}
		input.LoanID = &id
	}
	if paymentType := c.Query("type"); paymentType != "" {
		input.Types = strings.Split(paymentType, ",")
	}
	var parseErr error
	if input.FromDate, parseErr = parseOptionalDate(c.Query("from_date")); parseErr != nil {
		h.BadRequest(c, "Invalid from date format")
		return
	}
	if input.ToDate, parseErr = parseOptionalDate(c.Query("to_date")); parseErr != nil {
		h.BadRequest(c, "Invalid to date format")
		return
	}

	payments, meta, err := h.paymentService.ListPayments(c.Request.Context(), input)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, payments, meta.Total, meta.Page, meta.PageSize)
}

// parseOptionalDate parses a date query parameter, returning nil when absent
func parseOptionalDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := parseDate(value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
