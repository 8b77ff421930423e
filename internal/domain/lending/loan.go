package lending

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praws/backend/internal/domain/shared"
	"github.com/praws/backend/internal/domain/shared/valueobject"
)

// LoanStatus represents the lifecycle status of a loan
type LoanStatus string

const (
	LoanStatusPending   LoanStatus = "PENDING"   // Application received, awaiting decision
	LoanStatusApproved  LoanStatus = "APPROVED"  // Approved, awaiting disbursement
	LoanStatusRejected  LoanStatus = "REJECTED"  // Application rejected
	LoanStatusDisbursed LoanStatus = "DISBURSED" // Funds released to the member
	LoanStatusActive    LoanStatus = "ACTIVE"    // Repayment in progress
	LoanStatusCompleted LoanStatus = "COMPLETED" // Fully repaid
)

// IsValid checks if the status is a valid LoanStatus
func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusApproved, LoanStatusRejected,
		LoanStatusDisbursed, LoanStatusActive, LoanStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of LoanStatus
func (s LoanStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the loan is in a terminal state
func (s LoanStatus) IsTerminal() bool {
	return s == LoanStatusRejected || s == LoanStatusCompleted
}

// CanReceivePayment returns true if repayments can be allocated in this status
func (s LoanStatus) CanReceivePayment() bool {
	return s == LoanStatusDisbursed || s == LoanStatusActive
}

// CompletionEpsilon is the outstanding balance below which a loan counts as
// fully repaid (absorbs rounding noise on the final installment).
var CompletionEpsilon = decimal.NewFromFloat(0.01)

// AllocationResult is the outcome of allocating one repayment against a loan
type AllocationResult struct {
	InstallmentNumber int             `json:"installment_number"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount"`
	RemainingBalance  decimal.Decimal `json:"remaining_balance"`
	LoanCompleted     bool            `json:"loan_completed"`
}

// Loan is the aggregate root for one member's loan contract. It owns its
// payment schedule and all running repayment totals.
type Loan struct {
	shared.BaseAggregateRoot
	LoanNumber           string          `json:"loan_number"`
	MemberID             uuid.UUID       `json:"member_id"`
	MemberName           string          `json:"member_name"`
	Principal            decimal.Decimal `json:"principal"`
	TermMonths           LoanTerm        `json:"term_months"`
	InterestRate         decimal.Decimal `json:"interest_rate"`
	TotalInterest        decimal.Decimal `json:"total_interest"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	MonthlyPayment       decimal.Decimal `json:"monthly_payment"`
	AmountDisbursed      decimal.Decimal `json:"amount_disbursed"`
	PrincipalRepaid      decimal.Decimal `json:"principal_repaid"`
	InterestRepaid       decimal.Decimal `json:"interest_repaid"`
	TotalRepaid          decimal.Decimal `json:"total_repaid"`
	OutstandingPrincipal decimal.Decimal `json:"outstanding_principal"`
	OutstandingInterest  decimal.Decimal `json:"outstanding_interest"`
	OutstandingBalance   decimal.Decimal `json:"outstanding_balance"`
	Status               LoanStatus      `json:"status"`
	Purpose              string          `json:"purpose"`
	StartDate            *time.Time      `json:"start_date,omitempty"`
	IsFullyReconciled    bool            `json:"is_fully_reconciled"`
	LastReconciledAt     *time.Time      `json:"last_reconciled_at,omitempty"`
	Schedule             []ScheduleEntry `json:"schedule,omitempty"`
}

// NewLoan creates a loan application in PENDING status. Interest is not
// computed until disbursement; the rate table may only be applied to terms it
// recognizes, so the term is validated here.
func NewLoan(loanNumber string, memberID uuid.UUID, memberName string, principal decimal.Decimal, term LoanTerm, purpose string) (*Loan, error) {
	if loanNumber == "" {
		return nil, shared.NewDomainError("INVALID_LOAN_NUMBER", "Loan number cannot be empty")
	}
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if principal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrincipal
	}
	if !term.IsValid() {
		return nil, ErrInvalidTerm
	}

	loan := &Loan{
		BaseAggregateRoot:    shared.NewBaseAggregateRoot(),
		LoanNumber:           loanNumber,
		MemberID:             memberID,
		MemberName:           memberName,
		Principal:            principal,
		TermMonths:           term,
		AmountDisbursed:      decimal.Zero,
		PrincipalRepaid:      decimal.Zero,
		InterestRepaid:       decimal.Zero,
		TotalRepaid:          decimal.Zero,
		OutstandingPrincipal: decimal.Zero,
		OutstandingInterest:  decimal.Zero,
		OutstandingBalance:   decimal.Zero,
		Status:               LoanStatusPending,
		Purpose:              purpose,
	}

	loan.AddDomainEvent(NewLoanAppliedEvent(loan))

	return loan, nil
}

// Approve moves a pending application to APPROVED
func (l *Loan) Approve() error {
	if l.Status != LoanStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve loan in %s status", l.Status))
	}
	l.Status = LoanStatusApproved
	l.touch()
	l.IncrementVersion()
	l.AddDomainEvent(NewLoanApprovedEvent(l))
	return nil
}

// Reject moves a pending application to REJECTED
func (l *Loan) Reject(reason string) error {
	if l.Status != LoanStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject loan in %s status", l.Status))
	}
	l.Status = LoanStatusRejected
	l.touch()
	l.IncrementVersion()
	l.AddDomainEvent(NewLoanRejectedEvent(l, reason))
	return nil
}

// Disburse releases the funds: it prices the loan via the interest calculator,
// generates the full payment schedule and opens the outstanding balance.
func (l *Loan) Disburse(startDate time.Time) error {
	if l.Status != LoanStatusApproved {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot disburse loan in %s status", l.Status))
	}

	quote, err := CalculateInterest(l.Principal, l.TermMonths)
	if err != nil {
		return err
	}
	schedule, err := GenerateSchedule(l.Principal, l.TermMonths, startDate)
	if err != nil {
		return err
	}
	for i := range schedule {
		schedule[i].LoanID = l.ID
	}

	l.InterestRate = quote.InterestRate
	l.TotalInterest = quote.TotalInterest
	l.TotalAmount = quote.TotalAmount
	l.MonthlyPayment = quote.MonthlyPayment
	l.AmountDisbursed = l.Principal
	l.OutstandingPrincipal = l.Principal
	l.OutstandingInterest = quote.TotalInterest
	l.OutstandingBalance = quote.TotalAmount
	l.StartDate = &startDate
	l.Schedule = schedule
	l.Status = LoanStatusActive
	l.touch()
	l.IncrementVersion()

	l.AddDomainEvent(NewLoanDisbursedEvent(l))

	return nil
}

// NextPendingEntry returns the oldest PENDING schedule entry by due date,
// or nil if none remains.
func (l *Loan) NextPendingEntry() *ScheduleEntry {
	var next *ScheduleEntry
	for i := range l.Schedule {
		e := &l.Schedule[i]
		if !e.IsPending() {
			continue
		}
		if next == nil || e.DueDate.Before(next.DueDate) {
			next = e
		}
	}
	return next
}

// AllocatePayment splits a repayment between principal and interest against
// the oldest pending installment and updates the loan's running totals.
//
// The split covers the installment's scheduled principal first, then its
// scheduled interest; anything above the scheduled total reduces principal
// only, never interest. An underpayment leaves the installment PARTIAL and is
// not carried forward as arrears; the shortfall shows up solely in the loan's
// outstanding balance.
func (l *Loan) AllocatePayment(paymentAmount decimal.Decimal, paymentDate time.Time) (*AllocationResult, error) {
	if paymentAmount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}
	if !l.Status.CanReceivePayment() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot allocate payment to loan in %s status", l.Status))
	}

	entry := l.NextPendingEntry()
	if entry == nil {
		return nil, ErrNoPendingSchedule
	}

	principalAmount := decimal.Min(paymentAmount, entry.PrincipalAmount)
	interestAmount := decimal.Min(paymentAmount.Sub(principalAmount), entry.InterestAmount)
	if excess := paymentAmount.Sub(entry.TotalAmount); excess.IsPositive() {
		principalAmount = principalAmount.Add(excess)
	}

	l.PrincipalRepaid = l.PrincipalRepaid.Add(principalAmount)
	l.InterestRepaid = l.InterestRepaid.Add(interestAmount)
	l.TotalRepaid = l.TotalRepaid.Add(paymentAmount)
	l.recomputeOutstanding()

	completed := false
	if l.OutstandingBalance.LessThanOrEqual(CompletionEpsilon) {
		l.Status = LoanStatusCompleted
		completed = true
	}

	entry.settle(paymentAmount, principalAmount, interestAmount, paymentDate)

	l.touch()
	l.IncrementVersion()

	result := &AllocationResult{
		InstallmentNumber: entry.InstallmentNumber,
		PrincipalAmount:   principalAmount,
		InterestAmount:    interestAmount,
		RemainingBalance:  l.OutstandingBalance,
		LoanCompleted:     completed,
	}

	l.AddDomainEvent(NewLoanPaymentAllocatedEvent(l, result))
	if completed {
		l.AddDomainEvent(NewLoanCompletedEvent(l))
	}

	return result, nil
}

// MarkReconciled records the outcome of a reconciliation pass
func (l *Loan) MarkReconciled(fullyReconciled bool, at time.Time) {
	l.IsFullyReconciled = fullyReconciled
	l.LastReconciledAt = &at
	l.touch()
	l.IncrementVersion()
}

// recomputeOutstanding re-derives the outstanding amounts from the running
// totals. The balance follows total repaid so that an overpayment attributed
// to principal still settles the whole debt; outstanding interest is whatever
// of the balance the unpaid principal does not account for. All three are
// floored at zero and the balance is always their sum.
func (l *Loan) recomputeOutstanding() {
	l.OutstandingBalance = decimal.Max(decimal.Zero, l.TotalAmount.Sub(l.TotalRepaid))
	l.OutstandingPrincipal = decimal.Max(decimal.Zero, l.Principal.Sub(l.PrincipalRepaid))
	l.OutstandingInterest = decimal.Max(decimal.Zero, l.OutstandingBalance.Sub(l.OutstandingPrincipal))
}

// SortSchedule orders the schedule by due date ascending (installment order)
func (l *Loan) SortSchedule() {
	sort.Slice(l.Schedule, func(i, j int) bool {
		return l.Schedule[i].DueDate.Before(l.Schedule[j].DueDate)
	})
}

// GetPrincipalMoney returns the principal as Money
func (l *Loan) GetPrincipalMoney() valueobject.Money {
	return valueobject.NewMoneyGHS(l.Principal)
}

// GetOutstandingBalanceMoney returns the outstanding balance as Money
func (l *Loan) GetOutstandingBalanceMoney() valueobject.Money {
	return valueobject.NewMoneyGHS(l.OutstandingBalance)
}

// IsCompleted returns true if the loan is fully repaid
func (l *Loan) IsCompleted() bool {
	return l.Status == LoanStatusCompleted
}

func (l *Loan) touch() {
	l.UpdatedAt = time.Now()
}
