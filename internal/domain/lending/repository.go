package lending

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanFilter defines filtering options for loan queries
type LoanFilter struct {
	MemberID *uuid.UUID
	Statuses []LoanStatus
	Page     int
	PageSize int
}

// PaymentFilter defines filtering options for payment queries
type PaymentFilter struct {
	MemberID *uuid.UUID
	LoanID   *uuid.UUID
	Types    []PaymentType
	FromDate *time.Time
	ToDate   *time.Time
	Page     int
	PageSize int
}

// RepaymentTotals holds the summed allocations across a loan's repayments
type RepaymentTotals struct {
	Principal decimal.Decimal
	Interest  decimal.Decimal
}

// LoanRepository is the persistence port for loans and their schedules
type LoanRepository interface {
	// FindByID loads a loan with its schedule ordered by due date ascending
	FindByID(ctx context.Context, id uuid.UUID) (*Loan, error)
	// FindByLoanNumber loads a loan by its business number
	FindByLoanNumber(ctx context.Context, loanNumber string) (*Loan, error)
	// FindByStatuses lists loans whose status is in the given set
	FindByStatuses(ctx context.Context, statuses []LoanStatus, filter LoanFilter) ([]Loan, error)
	// FindAll lists loans with filtering
	FindAll(ctx context.Context, filter LoanFilter) ([]Loan, int64, error)
	// Save persists the loan and its schedule. Uses the aggregate version for
	// optimistic locking; returns shared.ErrConcurrencyConflict when the
	// stored version has moved on.
	Save(ctx context.Context, loan *Loan) error
	// SumDisbursed sums amount_disbursed over loans in the given statuses
	SumDisbursed(ctx context.Context, statuses []LoanStatus) (decimal.Decimal, error)
	// CountByNumberPrefix counts loans whose number starts with prefix
	// (used for loan number generation)
	CountByNumberPrefix(ctx context.Context, prefix string) (int64, error)
}

// PaymentRepository is the persistence port for payments
type PaymentRepository interface {
	// Save persists a new payment (payments are immutable; no updates)
	Save(ctx context.Context, payment *Payment) error
	// FindAll lists payments with filtering
	FindAll(ctx context.Context, filter PaymentFilter) ([]Payment, int64, error)
	// FindRepaymentsByLoan lists all loan repayment payments for a loan
	FindRepaymentsByLoan(ctx context.Context, loanID uuid.UUID) ([]Payment, error)
	// SumRepaymentAllocations sums principal/interest allocations across all
	// repayments recorded for a loan
	SumRepaymentAllocations(ctx context.Context, loanID uuid.UUID) (RepaymentTotals, error)
	// SumAmountByTypes sums the amount of all payments of the given types
	SumAmountByTypes(ctx context.Context, types []PaymentType) (decimal.Decimal, error)
	// CountByReceiptPrefix counts payments whose receipt number starts with
	// prefix (used for receipt number generation)
	CountByReceiptPrefix(ctx context.Context, prefix string) (int64, error)
}

// ReconciliationRecordRepository is the persistence port for the append-only
// reconciliation audit trail
type ReconciliationRecordRepository interface {
	// Append stores a new record; records are never updated or deleted
	Append(ctx context.Context, record *ReconciliationRecord) error
	// CountOpen counts records whose status is DISCREPANCY or PENDING
	CountOpen(ctx context.Context) (int64, error)
	// FindByEntity lists records for one entity, newest first
	FindByEntity(ctx context.Context, entityID uuid.UUID) ([]ReconciliationRecord, error)
	// FindAll lists records newest first
	FindAll(ctx context.Context, page, pageSize int) ([]ReconciliationRecord, int64, error)
}

// AuditLogRepository is the persistence port for the append-only audit log
type AuditLogRepository interface {
	Append(ctx context.Context, entry *AuditEntry) error
}
