package lending

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ScheduleStatus represents the status of a schedule entry
type ScheduleStatus string

const (
	ScheduleStatusPending ScheduleStatus = "PENDING" // Not yet paid
	ScheduleStatusPartial ScheduleStatus = "PARTIAL" // Paid less than the scheduled total
	ScheduleStatusPaid    ScheduleStatus = "PAID"    // Paid in full (or more)
)

// IsValid checks if the status is a valid ScheduleStatus
func (s ScheduleStatus) IsValid() bool {
	switch s {
	case ScheduleStatusPending, ScheduleStatusPartial, ScheduleStatusPaid:
		return true
	}
	return false
}

// String returns the string representation of ScheduleStatus
func (s ScheduleStatus) String() string {
	return string(s)
}

// ScheduleEntry is one installment due on a loan. Entries are created together
// at schedule generation and are never deleted; each is settled at most once
// per payment event that targets it.
type ScheduleEntry struct {
	ID                uuid.UUID       `json:"id"`
	LoanID            uuid.UUID       `json:"loan_id"`
	InstallmentNumber int             `json:"installment_number"`
	DueDate           time.Time       `json:"due_date"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	Status            ScheduleStatus  `json:"status"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
	PaidPrincipal     decimal.Decimal `json:"paid_principal"`
	PaidInterest      decimal.Decimal `json:"paid_interest"`
	PaidDate          *time.Time      `json:"paid_date,omitempty"`
	IsReconciled      bool            `json:"is_reconciled"`
	ReconciledAt      *time.Time      `json:"reconciled_at,omitempty"`
}

// IsPending returns true if the entry has not received any payment
func (e *ScheduleEntry) IsPending() bool {
	return e.Status == ScheduleStatusPending
}

// settle records a payment against the entry. The entry becomes PAID when the
// paid amount covers the scheduled total, PARTIAL otherwise.
func (e *ScheduleEntry) settle(paidAmount, paidPrincipal, paidInterest decimal.Decimal, paidDate time.Time) {
	if paidAmount.GreaterThanOrEqual(e.TotalAmount) {
		e.Status = ScheduleStatusPaid
	} else {
		e.Status = ScheduleStatusPartial
	}
	e.PaidAmount = paidAmount
	e.PaidPrincipal = paidPrincipal
	e.PaidInterest = paidInterest
	e.PaidDate = &paidDate
	now := time.Now()
	e.IsReconciled = true
	e.ReconciledAt = &now
}

// GenerateSchedule builds the full amortization schedule for a loan.
//
// Principal and interest are split evenly across installments (flat
// allocation, not declining balance). Rounding policy: every installment is
// truncated to 2 decimal places except the last, which absorbs the residual so
// that the scheduled principal sums exactly to the principal and the scheduled
// interest sums exactly to the total interest.
//
// Due dates advance one calendar month per installment using time.AddDate
// normalization, so a start date near month end may roll over (Jan 31 -> Mar 3).
//
// The function is pure apart from entry ID generation: recomputing it for the
// same inputs yields the same amounts and dates.
func GenerateSchedule(principal decimal.Decimal, term LoanTerm, startDate time.Time) ([]ScheduleEntry, error) {
	quote, err := CalculateInterest(principal, term)
	if err != nil {
		return nil, err
	}

	months := decimal.NewFromInt(int64(term))
	monthlyPrincipal := principal.Div(months).Truncate(2)
	monthlyInterest := quote.TotalInterest.Div(months).Truncate(2)

	entries := make([]ScheduleEntry, 0, term.Months())
	principalLeft := principal
	interestLeft := quote.TotalInterest

	for i := 1; i <= term.Months(); i++ {
		entryPrincipal := monthlyPrincipal
		entryInterest := monthlyInterest
		if i == term.Months() {
			// Final installment absorbs the rounding residual.
			entryPrincipal = principalLeft
			entryInterest = interestLeft
		}
		principalLeft = principalLeft.Sub(entryPrincipal)
		interestLeft = interestLeft.Sub(entryInterest)

		entries = append(entries, ScheduleEntry{
			ID:                uuid.New(),
			InstallmentNumber: i,
			DueDate:           startDate.AddDate(0, i, 0),
			PrincipalAmount:   entryPrincipal,
			InterestAmount:    entryInterest,
			TotalAmount:       entryPrincipal.Add(entryInterest),
			Status:            ScheduleStatusPending,
			PaidAmount:        decimal.Zero,
			PaidPrincipal:     decimal.Zero,
			PaidInterest:      decimal.Zero,
		})
	}

	return entries, nil
}
