package lending

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
)

func newPaymentServiceFixture() (*PaymentService, *mockPaymentRepository, *mockLoanRepository, *mockAuditLogRepository, *mockEventPublisher) {
	paymentRepo := new(mockPaymentRepository)
	loanRepo := new(mockLoanRepository)
	auditRepo := new(mockAuditLogRepository)
	events := new(mockEventPublisher)
	svc := NewPaymentService(paymentRepo, loanRepo, auditRepo, events, zap.NewNop())
	return svc, paymentRepo, loanRepo, auditRepo, events
}

func activeLoan(t *testing.T) *lending.Loan {
	t.Helper()
	loan, err := lending.NewLoan("LOAN20260003", uuid.New(), "Adjoa Sarpong",
		decimal.NewFromInt(5000), lending.TermSixMonths, "")
	require.NoError(t, err)
	require.NoError(t, loan.Approve())
	require.NoError(t, loan.Disburse(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	loan.ClearDomainEvents()
	return loan
}

func TestPaymentService_RecordContribution(t *testing.T) {
	t.Run("records with generated receipt number", func(t *testing.T) {
		svc, paymentRepo, _, _, events := newPaymentServiceFixture()
		paymentRepo.On("CountByReceiptPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(41), nil)
		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*lending.Payment")).Return(nil)
		events.On("Publish", mock.Anything, mock.Anything).Return(nil)

		dto, err := svc.RecordContribution(context.Background(), RecordContributionInput{
			MemberID:    uuid.New(),
			PaymentType: "MONTHLY_CONTRIBUTION",
			Amount:      decimal.NewFromInt(50),
			PaymentDate: time.Now(),
		})
		require.NoError(t, err)

		assert.Regexp(t, `^RCP\d{6}0042$`, dto.ReceiptNumber)
		assert.Equal(t, "MONTHLY_CONTRIBUTION", dto.PaymentType)
		assert.Nil(t, dto.LoanID)
		paymentRepo.AssertExpectations(t)
	})

	t.Run("rejects loan repayment type", func(t *testing.T) {
		svc, paymentRepo, _, _, _ := newPaymentServiceFixture()
		paymentRepo.On("CountByReceiptPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), nil)

		_, err := svc.RecordContribution(context.Background(), RecordContributionInput{
			MemberID:    uuid.New(),
			PaymentType: "LOAN_REPAYMENT",
			Amount:      decimal.NewFromInt(50),
			PaymentDate: time.Now(),
		})
		assert.Error(t, err)
		paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestPaymentService_RecordLoanRepayment(t *testing.T) {
	t.Run("allocates and persists loan then payment", func(t *testing.T) {
		svc, paymentRepo, loanRepo, auditRepo, events := newPaymentServiceFixture()
		loan := activeLoan(t)

		loanRepo.On("FindByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("Save", mock.Anything, loan).Return(nil)
		paymentRepo.On("CountByReceiptPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), nil)
		paymentRepo.On("Save", mock.Anything, mock.MatchedBy(func(p *lending.Payment) bool {
			return p.IsLoanRepayment() && p.Allocation.LoanID == loan.ID
		})).Return(nil)
		events.On("Publish", mock.Anything, mock.Anything).Return(nil)
		auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*lending.AuditEntry")).Return(nil)

		result, err := svc.RecordLoanRepayment(context.Background(), RecordRepaymentInput{
			LoanID:      loan.ID,
			MemberID:    loan.MemberID,
			Amount:      decimal.RequireFromString("858.33"),
			PaymentDate: time.Now(),
		})
		require.NoError(t, err)

		assert.Equal(t, 1, result.InstallmentNumber)
		assert.Equal(t, "833.33", result.PrincipalAmount.StringFixed(2))
		assert.Equal(t, "25.00", result.InterestAmount.StringFixed(2))
		assert.False(t, result.LoanCompleted)
		paymentRepo.AssertExpectations(t)
		auditRepo.AssertExpectations(t)
	})

	t.Run("unknown loan", func(t *testing.T) {
		svc, _, loanRepo, _, _ := newPaymentServiceFixture()
		id := uuid.New()
		loanRepo.On("FindByID", mock.Anything, id).Return(nil, shared.ErrNotFound)

		_, err := svc.RecordLoanRepayment(context.Background(), RecordRepaymentInput{
			LoanID:      id,
			MemberID:    uuid.New(),
			Amount:      decimal.NewFromInt(100),
			PaymentDate: time.Now(),
		})
		assert.ErrorIs(t, err, lending.ErrLoanNotFound)
	})

	t.Run("allocation failure records no payment", func(t *testing.T) {
		svc, paymentRepo, loanRepo, _, _ := newPaymentServiceFixture()
		loan := activeLoan(t)
		loanRepo.On("FindByID", mock.Anything, loan.ID).Return(loan, nil)

		_, err := svc.RecordLoanRepayment(context.Background(), RecordRepaymentInput{
			LoanID:      loan.ID,
			MemberID:    loan.MemberID,
			Amount:      decimal.Zero,
			PaymentDate: time.Now(),
		})
		assert.ErrorIs(t, err, lending.ErrInvalidAmount)
		paymentRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		loanRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("concurrent repayments on one loan never double-allocate", func(t *testing.T) {
		svc, paymentRepo, loanRepo, auditRepo, events := newPaymentServiceFixture()
		loan := activeLoan(t)

		loanRepo.On("FindByID", mock.Anything, loan.ID).Return(loan, nil)
		loanRepo.On("Save", mock.Anything, loan).Return(nil)
		paymentRepo.On("CountByReceiptPrefix", mock.Anything, mock.AnythingOfType("string")).Return(int64(0), nil)
		paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*lending.Payment")).Return(nil)
		events.On("Publish", mock.Anything, mock.Anything).Return(nil)
		auditRepo.On("Append", mock.Anything, mock.AnythingOfType("*lending.AuditEntry")).Return(nil)

		const n = 6
		var wg sync.WaitGroup
		results := make([]*RepaymentResultDTO, n)
		errs := make([]error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = svc.RecordLoanRepayment(context.Background(), RecordRepaymentInput{
					LoanID:      loan.ID,
					MemberID:    loan.MemberID,
					Amount:      decimal.RequireFromString("858.33"),
					PaymentDate: time.Now(),
				})
			}(i)
		}
		wg.Wait()

		// Each concurrent payment must land on a distinct installment
		seen := make(map[int]bool)
		for i, r := range results {
			require.NoError(t, errs[i])
			assert.False(t, seen[r.InstallmentNumber], "installment %d allocated twice", r.InstallmentNumber)
			seen[r.InstallmentNumber] = true
		}
		assert.Len(t, seen, n)
	})
}

func TestPaymentService_ListPayments(t *testing.T) {
	t.Run("maps type filters", func(t *testing.T) {
		svc, paymentRepo, _, _, _ := newPaymentServiceFixture()
		payment, err := lending.NewContributionPayment("RCP2026030001", uuid.New(),
			lending.PaymentTypeSpecialLevy, decimal.NewFromInt(20), time.Now(), "")
		require.NoError(t, err)

		paymentRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f lending.PaymentFilter) bool {
			return len(f.Types) == 1 && f.Types[0] == lending.PaymentTypeSpecialLevy
		})).Return([]lending.Payment{*payment}, int64(1), nil)

		dtos, meta, err := svc.ListPayments(context.Background(), ListPaymentsInput{
			Types:    []string{"SPECIAL_LEVY"},
			Page:     1,
			PageSize: 20,
		})
		require.NoError(t, err)
		assert.Len(t, dtos, 1)
		assert.Equal(t, int64(1), meta.Total)
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		svc, _, _, _, _ := newPaymentServiceFixture()
		_, _, err := svc.ListPayments(context.Background(), ListPaymentsInput{Types: []string{"GIFT"}})
		assert.Error(t, err)
	})
}
