package lending

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praws/backend/internal/domain/lending"
)

// LoanDTO is the service-layer representation of a loan
type LoanDTO struct {
	ID                   uuid.UUID          `json:"id"`
	LoanNumber           string             `json:"loan_number"`
	MemberID             uuid.UUID          `json:"member_id"`
	MemberName           string             `json:"member_name"`
	Principal            decimal.Decimal    `json:"principal"`
	TermMonths           int                `json:"term_months"`
	InterestRate         decimal.Decimal    `json:"interest_rate"`
	TotalInterest        decimal.Decimal    `json:"total_interest"`
	TotalAmount          decimal.Decimal    `json:"total_amount"`
	MonthlyPayment       decimal.Decimal    `json:"monthly_payment"`
	AmountDisbursed      decimal.Decimal    `json:"amount_disbursed"`
	PrincipalRepaid      decimal.Decimal    `json:"principal_repaid"`
	InterestRepaid       decimal.Decimal    `json:"interest_repaid"`
	TotalRepaid          decimal.Decimal    `json:"total_repaid"`
	OutstandingPrincipal decimal.Decimal    `json:"outstanding_principal"`
	OutstandingInterest  decimal.Decimal    `json:"outstanding_interest"`
	OutstandingBalance   decimal.Decimal    `json:"outstanding_balance"`
	Status               string             `json:"status"`
	Purpose              string             `json:"purpose,omitempty"`
	StartDate            *time.Time         `json:"start_date,omitempty"`
	IsFullyReconciled    bool               `json:"is_fully_reconciled"`
	LastReconciledAt     *time.Time         `json:"last_reconciled_at,omitempty"`
	Schedule             []ScheduleEntryDTO `json:"schedule,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// ScheduleEntryDTO is one installment of a loan schedule
type ScheduleEntryDTO struct {
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            string          `json:"status"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	PaidDate          *time.Time      `json:"paid_date,omitempty"`
}

// PaymentDTO is the service-layer representation of a payment
type PaymentDTO struct {
	ID            uuid.UUID       `json:"id"`
	ReceiptNumber string          `json:"receipt_number"`
	MemberID      uuid.UUID       `json:"member_id"`
	PaymentType   string          `json:"payment_type"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   time.Time       `json:"payment_date"`
	Description   string          `json:"description,omitempty"`
	LoanID        *uuid.UUID      `json:"loan_id,omitempty"`
	Principal     *decimal.Decimal `json:"principal_amount,omitempty"`
	Interest      *decimal.Decimal `json:"interest_amount,omitempty"`
}

// RepaymentResultDTO is the outcome of recording a loan repayment
type RepaymentResultDTO struct {
	Payment           PaymentDTO      `json:"payment"`
	InstallmentNumber int             `json:"installment_number"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	LoanCompleted     bool            `json:"loan_completed"`
}

// ReconciliationResultDTO is the outcome of reconciling one loan
type ReconciliationResultDTO struct {
	LoanID            uuid.UUID       `json:"loan_id"`
	LoanNumber        string          `json:"loan_number"`
	ExpectedPrincipal decimal.Decimal `json:"expected_principal"`
	ExpectedInterest  decimal.Decimal `json:"expected_interest"`
	ExpectedTotal     decimal.Decimal `json:"expected_total"`
	ActualPrincipal   decimal.Decimal `json:"actual_principal"`
	ActualInterest    decimal.Decimal `json:"actual_interest"`
	ActualTotal       decimal.Decimal `json:"actual_total"`
	Difference        decimal.Decimal `json:"difference"`
	Status            string          `json:"status"`
}

// BatchReconciliationDTO summarizes a reconciliation run across all loans
type BatchReconciliationDTO struct {
	ProcessedCount   int                       `json:"processed_count"`
	ReconciledCount  int                       `json:"reconciled_count"`
	DiscrepancyCount int                       `json:"discrepancy_count"`
	FailedCount      int                       `json:"failed_count"`
	Results          []ReconciliationResultDTO `json:"results"`
	StartedAt        time.Time                 `json:"started_at"`
	FinishedAt       time.Time                 `json:"finished_at"`
}

// ReconciliationRecordDTO is one entry of the discrepancy audit trail
type ReconciliationRecordDTO struct {
	ID                 uuid.UUID       `json:"id"`
	ReconciliationType string          `json:"reconciliation_type"`
	ReferenceNumber    string          `json:"reference_number"`
	EntityID           uuid.UUID       `json:"entity_id"`
	ExpectedAmount     decimal.Decimal `json:"expected_amount"`
	ActualAmount       decimal.Decimal `json:"actual_amount"`
	Difference         decimal.Decimal `json:"difference"`
	Status             string          `json:"status"`
	Notes              string          `json:"notes"`
	CreatedAt          time.Time       `json:"created_at"`
}

// AccountingSummaryDTO is the association-wide financial snapshot
type AccountingSummaryDTO struct {
	Currency              string          `json:"currency"`
	TotalContributions    decimal.Decimal `json:"total_contributions"`
	TotalLoansDisbursed   decimal.Decimal `json:"total_loans_disbursed"`
	TotalPrincipalRepaid  decimal.Decimal `json:"total_principal_repaid"`
	TotalInterestRepaid   decimal.Decimal `json:"total_interest_repaid"`
	OutstandingPrincipal  decimal.Decimal `json:"outstanding_principal"`
	OutstandingInterest   decimal.Decimal `json:"outstanding_interest"`
	AvailableFunds        decimal.Decimal `json:"available_funds"`
	ActiveLoanCount       int             `json:"active_loan_count"`
	OpenDiscrepancyCount  int64           `json:"open_discrepancy_count"`
	ReconciliationStatus  string          `json:"reconciliation_status"`
	GeneratedAt           time.Time       `json:"generated_at"`
}

// InterestReportRowDTO is one repayment line in the interest report
type InterestReportRowDTO struct {
	ReceiptNumber   string          `json:"receipt_number"`
	LoanNumber      string          `json:"loan_number"`
	MemberID        uuid.UUID       `json:"member_id"`
	PaymentDate     time.Time       `json:"payment_date"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
}

// InterestTermBucketDTO aggregates interest collected per loan term
type InterestTermBucketDTO struct {
	TermMonths        int             `json:"term_months"`
	InterestRate      decimal.Decimal `json:"interest_rate"`
	LoanCount         int             `json:"loan_count"`
	InterestCollected decimal.Decimal `json:"interest_collected"`
}

// InterestReportDTO summarizes interest earnings over a period
type InterestReportDTO struct {
	FromDate           time.Time               `json:"from_date"`
	ToDate             time.Time               `json:"to_date"`
	PrincipalCollected decimal.Decimal         `json:"principal_collected"`
	InterestCollected  decimal.Decimal         `json:"interest_collected"`
	TotalCollected     decimal.Decimal         `json:"total_collected"`
	TermBuckets        []InterestTermBucketDTO `json:"term_buckets"`
	Rows               []InterestReportRowDTO  `json:"rows"`
	GeneratedAt        time.Time               `json:"generated_at"`
}

// ListMeta carries pagination metadata for list responses
type ListMeta struct {
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
}

func toLoanDTO(loan *lending.Loan, includeSchedule bool) *LoanDTO {
	dto := &LoanDTO{
		ID:                   loan.ID,
		LoanNumber:           loan.LoanNumber,
		MemberID:             loan.MemberID,
		MemberName:           loan.MemberName,
		Principal:            loan.Principal,
		TermMonths:           loan.TermMonths.Months(),
		InterestRate:         loan.InterestRate,
		TotalInterest:        loan.TotalInterest,
		TotalAmount:          loan.TotalAmount,
		MonthlyPayment:       loan.MonthlyPayment,
		AmountDisbursed:      loan.AmountDisbursed,
		PrincipalRepaid:      loan.PrincipalRepaid,
		InterestRepaid:       loan.InterestRepaid,
		TotalRepaid:          loan.TotalRepaid,
		OutstandingPrincipal: loan.OutstandingPrincipal,
		OutstandingInterest:  loan.OutstandingInterest,
		OutstandingBalance:   loan.OutstandingBalance,
		Status:               loan.Status.String(),
		Purpose:              loan.Purpose,
		StartDate:            loan.StartDate,
		IsFullyReconciled:    loan.IsFullyReconciled,
		LastReconciledAt:     loan.LastReconciledAt,
		CreatedAt:            loan.CreatedAt,
		UpdatedAt:            loan.UpdatedAt,
	}
	if includeSchedule {
		dto.Schedule = make([]ScheduleEntryDTO, 0, len(loan.Schedule))
		for _, e := range loan.Schedule {
			dto.Schedule = append(dto.Schedule, ScheduleEntryDTO{
				InstallmentNumber: e.InstallmentNumber,
				DueDate:           e.DueDate,
				PrincipalAmount:   e.PrincipalAmount,
				InterestAmount:    e.InterestAmount,
				TotalAmount:       e.TotalAmount,
				Status:            e.Status.String(),
				PaidAmount:        e.PaidAmount,
				PaidDate:          e.PaidDate,
			})
		}
	}
	return dto
}

func toPaymentDTO(p *lending.Payment) PaymentDTO {
	dto := PaymentDTO{
		ID:            p.ID,
		ReceiptNumber: p.ReceiptNumber,
		MemberID:      p.MemberID,
		PaymentType:   p.PaymentType.String(),
		Amount:        p.Amount,
		PaymentDate:   p.PaymentDate,
		Description:   p.Description,
	}
	if p.Allocation != nil {
		loanID := p.Allocation.LoanID
		principal := p.Allocation.PrincipalAmount
		interest := p.Allocation.InterestAmount
		dto.LoanID = &loanID
		dto.Principal = &principal
		dto.Interest = &interest
	}
	return dto
}

func toReconciliationResultDTO(rec *lending.LoanReconciliation) ReconciliationResultDTO {
	return ReconciliationResultDTO{
		LoanID:            rec.LoanID,
		LoanNumber:        rec.LoanNumber,
		ExpectedPrincipal: rec.ExpectedPrincipal,
		ExpectedInterest:  rec.ExpectedInterest,
		ExpectedTotal:     rec.ExpectedTotal,
		ActualPrincipal:   rec.ActualPrincipal,
		ActualInterest:    rec.ActualInterest,
		ActualTotal:       rec.ActualTotal,
		Difference:        rec.Difference,
		Status:            rec.Status.String(),
	}
}

func toReconciliationRecordDTO(r *lending.ReconciliationRecord) ReconciliationRecordDTO {
	return ReconciliationRecordDTO{
		ID:                 r.ID,
		ReconciliationType: string(r.ReconciliationType),
		ReferenceNumber:    r.ReferenceNumber,
		EntityID:           r.EntityID,
		ExpectedAmount:     r.ExpectedAmount,
		ActualAmount:       r.ActualAmount,
		Difference:         r.Difference,
		Status:             r.Status.String(),
		Notes:              r.Notes,
		CreatedAt:          r.CreatedAt,
	}
}
