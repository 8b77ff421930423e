package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
	"github.com/praws/backend/internal/domain/shared/valueobject"
)

// Reconciliation health thresholds on the count of open discrepancy records
const (
	ReconciliationHealthGood     = "GOOD"     // no open records
	ReconciliationHealthIssues   = "ISSUES"   // 1..MaxOpenRecordsForIssues
	ReconciliationHealthCritical = "CRITICAL" // more than MaxOpenRecordsForIssues

	MaxOpenRecordsForIssues = 5
)

// SummaryService produces association-wide financial reports
type SummaryService struct {
	loanRepo    lending.LoanRepository
	paymentRepo lending.PaymentRepository
	recordRepo  lending.ReconciliationRecordRepository
	logger      *zap.Logger
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(
	loanRepo lending.LoanRepository,
	paymentRepo lending.PaymentRepository,
	recordRepo lending.ReconciliationRecordRepository,
	logger *zap.Logger,
) *SummaryService {
	return &SummaryService{
		loanRepo:    loanRepo,
		paymentRepo: paymentRepo,
		recordRepo:  recordRepo,
		logger:      logger,
	}
}

// GenerateSummary builds the accounting snapshot: contribution and loan
// totals, the derived available funds, and the reconciliation health band.
// Loan totals trust the stored running totals; verifying them against
// payments is reconciliation's job, not the summary's.
func (s *SummaryService) GenerateSummary(ctx context.Context) (*AccountingSummaryDTO, error) {
	// Repaid and outstanding totals scan only loans still in repayment.
	// A completed loan drops out of this scan; its disbursed amount keeps
	// counting against the funds pool below.
	openStatuses := []lending.LoanStatus{
		lending.LoanStatusActive, lending.LoanStatusDisbursed,
	}
	loans, err := s.loanRepo.FindByStatuses(ctx, openStatuses, lending.LoanFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}

	summary := &AccountingSummaryDTO{
		TotalPrincipalRepaid: decimal.Zero,
		TotalInterestRepaid:  decimal.Zero,
		OutstandingPrincipal: decimal.Zero,
		OutstandingInterest:  decimal.Zero,
		GeneratedAt:          time.Now(),
	}
	for i := range loans {
		loan := &loans[i]
		summary.ActiveLoanCount++
		summary.TotalPrincipalRepaid = summary.TotalPrincipalRepaid.Add(loan.PrincipalRepaid)
		summary.TotalInterestRepaid = summary.TotalInterestRepaid.Add(loan.InterestRepaid)
		summary.OutstandingPrincipal = summary.OutstandingPrincipal.Add(loan.OutstandingPrincipal)
		summary.OutstandingInterest = summary.OutstandingInterest.Add(loan.OutstandingInterest)
	}

	summary.TotalContributions, err = s.paymentRepo.SumAmountByTypes(ctx, lending.ContributionTypes())
	if err != nil {
		return nil, fmt.Errorf("failed to sum contributions: %w", err)
	}
	disbursedStatuses := []lending.LoanStatus{
		lending.LoanStatusDisbursed, lending.LoanStatusActive, lending.LoanStatusCompleted,
	}
	summary.TotalLoansDisbursed, err = s.loanRepo.SumDisbursed(ctx, disbursedStatuses)
	if err != nil {
		return nil, fmt.Errorf("failed to sum disbursed loans: %w", err)
	}

	available := valueobject.NewMoneyGHS(summary.TotalContributions).
		MustAdd(valueobject.NewMoneyGHS(summary.TotalPrincipalRepaid)).
		MustAdd(valueobject.NewMoneyGHS(summary.TotalInterestRepaid)).
		MustSubtract(valueobject.NewMoneyGHS(summary.TotalLoansDisbursed))
	summary.AvailableFunds = available.Amount()
	summary.Currency = string(available.Currency())

	summary.OpenDiscrepancyCount, err = s.recordRepo.CountOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count open reconciliation records: %w", err)
	}
	summary.ReconciliationStatus = classifyReconciliationHealth(summary.OpenDiscrepancyCount)

	return summary, nil
}

// GenerateInterestReport reports principal and interest collected from loan
// repayments in [from, to], bucketed by loan term.
func (s *SummaryService) GenerateInterestReport(ctx context.Context, from, to time.Time) (*InterestReportDTO, error) {
	if to.Before(from) {
		from, to = to, from
	}

	repaymentTypes := []lending.PaymentType{lending.PaymentTypeLoanRepayment}
	payments, _, err := s.paymentRepo.FindAll(ctx, lending.PaymentFilter{
		Types:    repaymentTypes,
		FromDate: &from,
		ToDate:   &to,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list repayments: %w", err)
	}

	report := &InterestReportDTO{
		FromDate:           from,
		ToDate:             to,
		PrincipalCollected: decimal.Zero,
		InterestCollected:  decimal.Zero,
		Rows:               make([]InterestReportRowDTO, 0, len(payments)),
		GeneratedAt:        time.Now(),
	}

	type bucket struct {
		loans    map[string]struct{}
		interest decimal.Decimal
	}
	buckets := make(map[lending.LoanTerm]*bucket)
	loanCache := make(map[string]*lending.Loan)

	for i := range payments {
		p := &payments[i]
		if p.Allocation == nil {
			continue
		}

		loan, err := s.loanForAllocation(ctx, loanCache, p)
		if err != nil {
			// A repayment pointing at a missing loan is a data problem for
			// reconciliation to surface; the report keeps going.
			s.logger.Warn("skipping repayment with unresolvable loan",
				zap.String("receipt_number", p.ReceiptNumber),
				zap.Error(err))
			continue
		}

		report.PrincipalCollected = report.PrincipalCollected.Add(p.Allocation.PrincipalAmount)
		report.InterestCollected = report.InterestCollected.Add(p.Allocation.InterestAmount)
		report.Rows = append(report.Rows, InterestReportRowDTO{
			ReceiptNumber:   p.ReceiptNumber,
			LoanNumber:      loan.LoanNumber,
			MemberID:        p.MemberID,
			PaymentDate:     p.PaymentDate,
			PrincipalAmount: p.Allocation.PrincipalAmount,
			InterestAmount:  p.Allocation.InterestAmount,
		})

		b, ok := buckets[loan.TermMonths]
		if !ok {
			b = &bucket{loans: make(map[string]struct{}), interest: decimal.Zero}
			buckets[loan.TermMonths] = b
		}
		b.loans[loan.LoanNumber] = struct{}{}
		b.interest = b.interest.Add(p.Allocation.InterestAmount)
	}

	report.TotalCollected = report.PrincipalCollected.Add(report.InterestCollected)

	for _, term := range lending.SupportedTerms() {
		b, ok := buckets[term]
		if !ok {
			continue
		}
		rate, _ := lending.RateForTerm(term)
		report.TermBuckets = append(report.TermBuckets, InterestTermBucketDTO{
			TermMonths:        term.Months(),
			InterestRate:      rate,
			LoanCount:         len(b.loans),
			InterestCollected: b.interest,
		})
	}

	return report, nil
}

func (s *SummaryService) loanForAllocation(ctx context.Context, cache map[string]*lending.Loan, p *lending.Payment) (*lending.Loan, error) {
	key := p.Allocation.LoanID.String()
	if loan, ok := cache[key]; ok {
		return loan, nil
	}
	loan, err := s.loanRepo.FindByID(ctx, p.Allocation.LoanID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, lending.ErrLoanNotFound
		}
		return nil, err
	}
	cache[key] = loan
	return loan, nil
}

func classifyReconciliationHealth(openRecords int64) string {
	switch {
	case openRecords == 0:
		return ReconciliationHealthGood
	case openRecords <= MaxOpenRecordsForIssues:
		return ReconciliationHealthIssues
	default:
		return ReconciliationHealthCritical
	}
}
