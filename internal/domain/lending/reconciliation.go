package lending

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praws/backend/internal/domain/shared"
)

// ReconciliationStatus classifies the outcome of a reconciliation comparison
type ReconciliationStatus string

const (
	ReconciliationStatusPending     ReconciliationStatus = "PENDING"     // Not yet compared
	ReconciliationStatusReconciled  ReconciliationStatus = "RECONCILED"  // Expected matches actual within tolerance
	ReconciliationStatusDiscrepancy ReconciliationStatus = "DISCREPANCY" // Expected differs from actual
)

// IsValid checks if the status is a valid ReconciliationStatus
func (s ReconciliationStatus) IsValid() bool {
	switch s {
	case ReconciliationStatusPending, ReconciliationStatusReconciled, ReconciliationStatusDiscrepancy:
		return true
	}
	return false
}

// String returns the string representation of ReconciliationStatus
func (s ReconciliationStatus) String() string {
	return string(s)
}

// IsOpen returns true for statuses that still need attention
func (s ReconciliationStatus) IsOpen() bool {
	return s == ReconciliationStatusPending || s == ReconciliationStatusDiscrepancy
}

// ReconciliationType identifies what kind of balance was reconciled
type ReconciliationType string

const (
	ReconciliationTypeLoanPayment ReconciliationType = "LOAN_PAYMENT"
)

// DiscrepancyTolerance is the absolute difference below which expected and
// actual totals are treated as matching.
var DiscrepancyTolerance = decimal.NewFromFloat(0.01)

// ClassifyDifference maps an expected-vs-actual difference onto a
// reconciliation status. A discrepancy is a recorded business outcome, not an
// error.
func ClassifyDifference(difference decimal.Decimal) ReconciliationStatus {
	if difference.Abs().LessThan(DiscrepancyTolerance) {
		return ReconciliationStatusReconciled
	}
	return ReconciliationStatusDiscrepancy
}

// LoanReconciliation is the result of comparing a loan's expected totals
// (recomputed from the interest calculator, deliberately not from the stored
// schedule, so a corrupted schedule is also caught) against the repayments
// actually recorded.
type LoanReconciliation struct {
	LoanID            uuid.UUID            `json:"loan_id"`
	LoanNumber        string               `json:"loan_number"`
	ExpectedPrincipal decimal.Decimal      `json:"expected_principal"`
	ExpectedInterest  decimal.Decimal      `json:"expected_interest"`
	ExpectedTotal     decimal.Decimal      `json:"expected_total"`
	ActualPrincipal   decimal.Decimal      `json:"actual_principal"`
	ActualInterest    decimal.Decimal      `json:"actual_interest"`
	ActualTotal       decimal.Decimal      `json:"actual_total"`
	Difference        decimal.Decimal      `json:"difference"`
	Status            ReconciliationStatus `json:"status"`
}

// ReconcileLoanTotals computes the expected-vs-actual comparison for a loan.
// actualPrincipal/actualInterest are the summed allocations across all
// recorded loan repayments for the loan.
func ReconcileLoanTotals(loan *Loan, actualPrincipal, actualInterest decimal.Decimal) (*LoanReconciliation, error) {
	quote, err := CalculateInterest(loan.Principal, loan.TermMonths)
	if err != nil {
		return nil, err
	}

	expectedPrincipal := loan.Principal
	expectedInterest := quote.TotalInterest
	expectedTotal := expectedPrincipal.Add(expectedInterest)
	actualTotal := actualPrincipal.Add(actualInterest)
	difference := expectedTotal.Sub(actualTotal)

	return &LoanReconciliation{
		LoanID:            loan.ID,
		LoanNumber:        loan.LoanNumber,
		ExpectedPrincipal: expectedPrincipal,
		ExpectedInterest:  expectedInterest,
		ExpectedTotal:     expectedTotal,
		ActualPrincipal:   actualPrincipal,
		ActualInterest:    actualInterest,
		ActualTotal:       actualTotal,
		Difference:        difference,
		Status:            ClassifyDifference(difference),
	}, nil
}

// ReconciliationRecord is an append-only audit artifact created when a
// discrepancy is detected. Records are never mutated after creation.
type ReconciliationRecord struct {
	ID                 uuid.UUID            `json:"id"`
	ReconciliationType ReconciliationType   `json:"reconciliation_type"`
	ReferenceNumber    string               `json:"reference_number"`
	EntityID           uuid.UUID            `json:"entity_id"`
	ExpectedAmount     decimal.Decimal      `json:"expected_amount"`
	ActualAmount       decimal.Decimal      `json:"actual_amount"`
	Difference         decimal.Decimal      `json:"difference"`
	Status             ReconciliationStatus `json:"status"`
	Notes              string               `json:"notes"`
	CreatedAt          time.Time            `json:"created_at"`
}

// NewDiscrepancyRecord creates the audit record for a loan payment
// discrepancy
func NewDiscrepancyRecord(rec *LoanReconciliation) *ReconciliationRecord {
	return &ReconciliationRecord{
		ID:                 uuid.New(),
		ReconciliationType: ReconciliationTypeLoanPayment,
		ReferenceNumber:    rec.LoanNumber,
		EntityID:           rec.LoanID,
		ExpectedAmount:     rec.ExpectedTotal,
		ActualAmount:       rec.ActualTotal,
		Difference:         rec.Difference,
		Status:             ReconciliationStatusDiscrepancy,
		Notes: fmt.Sprintf("Loan payment discrepancy detected. Expected: %s, Actual: %s",
			rec.ExpectedTotal.StringFixed(2), rec.ActualTotal.StringFixed(2)),
		CreatedAt: time.Now(),
	}
}

// AuditAction identifies an auditable action kind
type AuditAction string

const (
	AuditActionReconcile AuditAction = "RECONCILE"
	AuditActionDisburse  AuditAction = "DISBURSE"
	AuditActionPayment   AuditAction = "PAYMENT"
)

// AuditEntry is an append-only record of who did what to which entity
type AuditEntry struct {
	ID        uuid.UUID   `json:"id"`
	ActorID   uuid.UUID   `json:"actor_id"`
	Action    AuditAction `json:"action"`
	Entity    string      `json:"entity"`
	EntityID  uuid.UUID   `json:"entity_id"`
	NewValues string      `json:"new_values"` // JSON snapshot of the change
	CreatedAt time.Time   `json:"created_at"`
}

// NewAuditEntry creates a new audit entry
func NewAuditEntry(actorID uuid.UUID, action AuditAction, entity string, entityID uuid.UUID, newValues string) (*AuditEntry, error) {
	if !action.IsValid() {
		return nil, shared.NewDomainError("INVALID_AUDIT_ACTION", "Unknown audit action")
	}
	return &AuditEntry{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		NewValues: newValues,
		CreatedAt: time.Now(),
	}, nil
}

// IsValid checks if the audit action is recognized
func (a AuditAction) IsValid() bool {
	switch a {
	case AuditActionReconcile, AuditActionDisburse, AuditActionPayment:
		return true
	}
	return false
}
