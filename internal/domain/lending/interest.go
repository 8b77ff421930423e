package lending

import (
	"github.com/shopspring/decimal"
)

// LoanTerm represents a supported loan term in months
type LoanTerm int

const (
	TermThreeMonths  LoanTerm = 3
	TermSixMonths    LoanTerm = 6
	TermTwelveMonths LoanTerm = 12
)

// IsValid checks if the term is one of the supported lending terms
func (t LoanTerm) IsValid() bool {
	switch t {
	case TermThreeMonths, TermSixMonths, TermTwelveMonths:
		return true
	}
	return false
}

// Months returns the term length in months
func (t LoanTerm) Months() int {
	return int(t)
}

// SupportedTerms returns all supported loan terms
func SupportedTerms() []LoanTerm {
	return []LoanTerm{TermThreeMonths, TermSixMonths, TermTwelveMonths}
}

// Flat interest rates by term. Interest is charged once on the original
// principal and never recalculated on the declining balance.
var flatRates = map[LoanTerm]decimal.Decimal{
	TermThreeMonths:  decimal.NewFromFloat(0.01),
	TermSixMonths:    decimal.NewFromFloat(0.03),
	TermTwelveMonths: decimal.NewFromFloat(0.05),
}

// RateForTerm returns the flat interest rate for a term
func RateForTerm(term LoanTerm) (decimal.Decimal, error) {
	rate, ok := flatRates[term]
	if !ok {
		return decimal.Decimal{}, ErrInvalidTerm
	}
	return rate, nil
}

// InterestQuote holds the computed cost of a loan
type InterestQuote struct {
	InterestRate   decimal.Decimal `json:"interest_rate"`
	TotalInterest  decimal.Decimal `json:"total_interest"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
}

// CalculateInterest computes the flat-rate cost of a loan.
// totalInterest = principal * rate, totalAmount = principal + totalInterest,
// monthlyPayment = totalAmount / term (level payment, rounded to 2dp).
// It is a pure function: deterministic and free of side effects.
func CalculateInterest(principal decimal.Decimal, term LoanTerm) (InterestQuote, error) {
	if principal.LessThanOrEqual(decimal.Zero) {
		return InterestQuote{}, ErrInvalidPrincipal
	}
	rate, err := RateForTerm(term)
	if err != nil {
		return InterestQuote{}, err
	}

	totalInterest := principal.Mul(rate)
	totalAmount := principal.Add(totalInterest)
	monthlyPayment := totalAmount.Div(decimal.NewFromInt(int64(term))).Round(2)

	return InterestQuote{
		InterestRate:   rate,
		TotalInterest:  totalInterest,
		TotalAmount:    totalAmount,
		MonthlyPayment: monthlyPayment,
	}, nil
}
