package lending

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/praws/backend/internal/domain/shared"
)

// PaymentType classifies a received payment
type PaymentType string

const (
	PaymentTypeMembershipFee       PaymentType = "MEMBERSHIP_FEE"
	PaymentTypeMonthlyContribution PaymentType = "MONTHLY_CONTRIBUTION"
	PaymentTypeSpecialLevy         PaymentType = "SPECIAL_LEVY"
	PaymentTypeWelfareContribution PaymentType = "WELFARE_CONTRIBUTION"
	PaymentTypeLoanRepayment       PaymentType = "LOAN_REPAYMENT"
	PaymentTypeOther               PaymentType = "OTHER"
)

// IsValid checks if the payment type is recognized
func (t PaymentType) IsValid() bool {
	switch t {
	case PaymentTypeMembershipFee, PaymentTypeMonthlyContribution, PaymentTypeSpecialLevy,
		PaymentTypeWelfareContribution, PaymentTypeLoanRepayment, PaymentTypeOther:
		return true
	}
	return false
}

// String returns the string representation of PaymentType
func (t PaymentType) String() string {
	return string(t)
}

// IsContribution returns true for payment types that count toward the
// association's contribution pool
func (t PaymentType) IsContribution() bool {
	switch t {
	case PaymentTypeMembershipFee, PaymentTypeMonthlyContribution,
		PaymentTypeSpecialLevy, PaymentTypeWelfareContribution:
		return true
	}
	return false
}

// ContributionTypes returns the fixed set of contribution payment types
func ContributionTypes() []PaymentType {
	return []PaymentType{
		PaymentTypeMembershipFee,
		PaymentTypeMonthlyContribution,
		PaymentTypeSpecialLevy,
		PaymentTypeWelfareContribution,
	}
}

// RepaymentAllocation carries the principal/interest split of a loan
// repayment. Only LOAN_REPAYMENT payments have one; contribution payments
// never do (the allocation is a tagged variant, not a pair of nullable
// columns on every payment).
type RepaymentAllocation struct {
	LoanID          uuid.UUID       `json:"loan_id"`
	PrincipalAmount decimal.Decimal `json:"principal_amount"`
	InterestAmount  decimal.Decimal `json:"interest_amount"`
}

// Payment is a received payment event. Payments are immutable once recorded;
// reconciliation reads them but never alters them.
type Payment struct {
	shared.BaseEntity
	ReceiptNumber string               `json:"receipt_number"`
	MemberID      uuid.UUID            `json:"member_id"`
	PaymentType   PaymentType          `json:"payment_type"`
	Amount        decimal.Decimal      `json:"amount"`
	PaymentDate   time.Time            `json:"payment_date"`
	Description   string               `json:"description,omitempty"`
	Allocation    *RepaymentAllocation `json:"allocation,omitempty"`
}

// NewContributionPayment records a non-loan payment (fees, contributions,
// levies and OTHER)
func NewContributionPayment(receiptNumber string, memberID uuid.UUID, paymentType PaymentType, amount decimal.Decimal, paymentDate time.Time, description string) (*Payment, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if !paymentType.IsValid() || paymentType == PaymentTypeLoanRepayment {
		return nil, shared.NewDomainError("INVALID_PAYMENT_TYPE", "Payment type must be a contribution type")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		ReceiptNumber: receiptNumber,
		MemberID:      memberID,
		PaymentType:   paymentType,
		Amount:        amount,
		PaymentDate:   paymentDate,
		Description:   description,
	}, nil
}

// NewLoanRepaymentPayment records a loan repayment together with its
// principal/interest allocation
func NewLoanRepaymentPayment(receiptNumber string, memberID, loanID uuid.UUID, amount decimal.Decimal, paymentDate time.Time, allocation AllocationResult) (*Payment, error) {
	if receiptNumber == "" {
		return nil, shared.NewDomainError("INVALID_RECEIPT_NUMBER", "Receipt number cannot be empty")
	}
	if memberID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_MEMBER", "Member ID cannot be empty")
	}
	if loanID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_LOAN", "Loan ID cannot be empty")
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidAmount
	}

	return &Payment{
		BaseEntity:    shared.NewBaseEntity(),
		ReceiptNumber: receiptNumber,
		MemberID:      memberID,
		PaymentType:   PaymentTypeLoanRepayment,
		Amount:        amount,
		PaymentDate:   paymentDate,
		Allocation: &RepaymentAllocation{
			LoanID:          loanID,
			PrincipalAmount: allocation.PrincipalAmount,
			InterestAmount:  allocation.InterestAmount,
		},
	}, nil
}

// IsLoanRepayment returns true if the payment carries a repayment allocation
func (p *Payment) IsLoanRepayment() bool {
	return p.PaymentType == PaymentTypeLoanRepayment && p.Allocation != nil
}
