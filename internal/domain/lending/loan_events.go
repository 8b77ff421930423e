package lending

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praws/backend/internal/domain/shared"
)

// Event types for the lending domain
const (
	EventTypeLoanApplied          = "lending.loan.applied"
	EventTypeLoanApproved         = "lending.loan.approved"
	EventTypeLoanRejected         = "lending.loan.rejected"
	EventTypeLoanDisbursed        = "lending.loan.disbursed"
	EventTypeLoanPaymentAllocated = "lending.loan.payment_allocated"
	EventTypeLoanCompleted        = "lending.loan.completed"
	EventTypeLoanReconciled       = "lending.loan.reconciled"
	EventTypePaymentRecorded      = "lending.payment.recorded"
)

const aggregateTypeLoan = "Loan"

// LoanAppliedEvent is raised when a loan application is created
type LoanAppliedEvent struct {
	shared.BaseDomainEvent
	LoanNumber string          `json:"loan_number"`
	Principal  decimal.Decimal `json:"principal"`
	TermMonths int             `json:"term_months"`
}

// NewLoanAppliedEvent creates a new LoanAppliedEvent
func NewLoanAppliedEvent(loan *Loan) *LoanAppliedEvent {
	return &LoanAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanApplied, aggregateTypeLoan, loan.ID),
		LoanNumber:      loan.LoanNumber,
		Principal:       loan.Principal,
		TermMonths:      loan.TermMonths.Months(),
	}
}

// LoanApprovedEvent is raised when a loan application is approved
type LoanApprovedEvent struct {
	shared.BaseDomainEvent
	LoanNumber string `json:"loan_number"`
}

// NewLoanApprovedEvent creates a new LoanApprovedEvent
func NewLoanApprovedEvent(loan *Loan) *LoanApprovedEvent {
	return &LoanApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanApproved, aggregateTypeLoan, loan.ID),
		LoanNumber:      loan.LoanNumber,
	}
}

// LoanRejectedEvent is raised when a loan application is rejected
type LoanRejectedEvent struct {
	shared.BaseDomainEvent
	LoanNumber string `json:"loan_number"`
	Reason     string `json:"reason"`
}

// NewLoanRejectedEvent creates a new LoanRejectedEvent
func NewLoanRejectedEvent(loan *Loan, reason string) *LoanRejectedEvent {
	return &LoanRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanRejected, aggregateTypeLoan, loan.ID),
		LoanNumber:      loan.LoanNumber,
		Reason:          reason,
	}
}

// LoanDisbursedEvent is raised when loan funds are released and the schedule
// is generated
type LoanDisbursedEvent struct {
	shared.BaseDomainEvent
	LoanNumber      string          `json:"loan_number"`
	AmountDisbursed decimal.Decimal `json:"amount_disbursed"`
	TotalInterest   decimal.Decimal `json:"total_interest"`
	Installments    int             `json:"installments"`
}

// NewLoanDisbursedEvent creates a new LoanDisbursedEvent
func NewLoanDisbursedEvent(loan *Loan) *LoanDisbursedEvent {
	return &LoanDisbursedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanDisbursed, aggregateTypeLoan, loan.ID),
		LoanNumber:      loan.LoanNumber,
		AmountDisbursed: loan.AmountDisbursed,
		TotalInterest:   loan.TotalInterest,
		Installments:    len(loan.Schedule),
	}
}

// LoanPaymentAllocatedEvent is raised when a repayment is split and applied
type LoanPaymentAllocatedEvent struct {
	shared.BaseDomainEvent
	LoanNumber        string          `json:"loan_number"`
	InstallmentNumber int             `json:"installment_number"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
}

// NewLoanPaymentAllocatedEvent creates a new LoanPaymentAllocatedEvent
func NewLoanPaymentAllocatedEvent(loan *Loan, result *AllocationResult) *LoanPaymentAllocatedEvent {
	return &LoanPaymentAllocatedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeLoanPaymentAllocated, aggregateTypeLoan, loan.ID),
		LoanNumber:        loan.LoanNumber,
		InstallmentNumber: result.InstallmentNumber,
		PrincipalAmount:   result.PrincipalAmount,
		InterestAmount:    result.InterestAmount,
		RemainingBalance:  result.RemainingBalance,
	}
}

// LoanCompletedEvent is raised when the outstanding balance reaches zero
type LoanCompletedEvent struct {
	shared.BaseDomainEvent
	LoanNumber  string          `json:"loan_number"`
	TotalRepaid decimal.Decimal `json:"total_repaid"`
}

// NewLoanCompletedEvent creates a new LoanCompletedEvent
func NewLoanCompletedEvent(loan *Loan) *LoanCompletedEvent {
	return &LoanCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanCompleted, aggregateTypeLoan, loan.ID),
		LoanNumber:      loan.LoanNumber,
		TotalRepaid:     loan.TotalRepaid,
	}
}

// LoanReconciledEvent is raised after each reconciliation pass over a loan
type LoanReconciledEvent struct {
	shared.BaseDomainEvent
	LoanNumber string          `json:"loan_number"`
	Expected   decimal.Decimal `json:"expected"`
	Actual     decimal.Decimal `json:"actual"`
	Difference decimal.Decimal `json:"difference"`
	Status     string          `json:"status"`
}

// NewLoanReconciledEvent creates a new LoanReconciledEvent
func NewLoanReconciledEvent(loan *Loan, expected, actual, difference decimal.Decimal, status ReconciliationStatus) *LoanReconciledEvent {
	return &LoanReconciledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLoanReconciled, aggregateTypeLoan, loan.ID),
		LoanNumber:      loan.LoanNumber,
		Expected:        expected,
		Actual:          actual,
		Difference:      difference,
		Status:          status.String(),
	}
}

const aggregateTypePayment = "Payment"

// PaymentRecordedEvent is raised when any payment is recorded. Payments are
// not aggregates, so the recording service publishes this event directly.
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	ReceiptNumber string          `json:"receipt_number"`
	MemberID      uuid.UUID       `json:"member_id"`
	PaymentType   string          `json:"payment_type"`
	Amount        decimal.Decimal `json:"amount"`
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(payment *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, aggregateTypePayment, payment.ID),
		ReceiptNumber:   payment.ReceiptNumber,
		MemberID:        payment.MemberID,
		PaymentType:     payment.PaymentType.String(),
		Amount:          payment.Amount,
	}
}
