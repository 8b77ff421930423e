package lending

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
)

// Mock implementations

type mockLoanRepository struct {
	mock.Mock
}

func (m *mockLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*lending.Loan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lending.Loan), args.Error(1)
}

func (m *mockLoanRepository) FindByLoanNumber(ctx context.Context, loanNumber string) (*lending.Loan, error) {
	args := m.Called(ctx, loanNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lending.Loan), args.Error(1)
}

func (m *mockLoanRepository) FindByStatuses(ctx context.Context, statuses []lending.LoanStatus, filter lending.LoanFilter) ([]lending.Loan, error) {
	args := m.Called(ctx, statuses, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lending.Loan), args.Error(1)
}

func (m *mockLoanRepository) FindAll(ctx context.Context, filter lending.LoanFilter) ([]lending.Loan, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]lending.Loan), args.Get(1).(int64), args.Error(2)
}

func (m *mockLoanRepository) Save(ctx context.Context, loan *lending.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *mockLoanRepository) SumDisbursed(ctx context.Context, statuses []lending.LoanStatus) (decimal.Decimal, error) {
	args := m.Called(ctx, statuses)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockLoanRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type mockPaymentRepository struct {
	mock.Mock
}

func (m *mockPaymentRepository) Save(ctx context.Context, payment *lending.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

func (m *mockPaymentRepository) FindAll(ctx context.Context, filter lending.PaymentFilter) ([]lending.Payment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]lending.Payment), args.Get(1).(int64), args.Error(2)
}

func (m *mockPaymentRepository) FindRepaymentsByLoan(ctx context.Context, loanID uuid.UUID) ([]lending.Payment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lending.Payment), args.Error(1)
}

func (m *mockPaymentRepository) SumRepaymentAllocations(ctx context.Context, loanID uuid.UUID) (lending.RepaymentTotals, error) {
	args := m.Called(ctx, loanID)
	return args.Get(0).(lending.RepaymentTotals), args.Error(1)
}

func (m *mockPaymentRepository) SumAmountByTypes(ctx context.Context, types []lending.PaymentType) (decimal.Decimal, error) {
	args := m.Called(ctx, types)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockPaymentRepository) CountByReceiptPrefix(ctx context.Context, prefix string) (int64, error) {
	args := m.Called(ctx, prefix)
	return args.Get(0).(int64), args.Error(1)
}

type mockReconciliationRecordRepository struct {
	mock.Mock
}

func (m *mockReconciliationRecordRepository) Append(ctx context.Context, record *lending.ReconciliationRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockReconciliationRecordRepository) CountOpen(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockReconciliationRecordRepository) FindByEntity(ctx context.Context, entityID uuid.UUID) ([]lending.ReconciliationRecord, error) {
	args := m.Called(ctx, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lending.ReconciliationRecord), args.Error(1)
}

func (m *mockReconciliationRecordRepository) FindAll(ctx context.Context, page, pageSize int) ([]lending.ReconciliationRecord, int64, error) {
	args := m.Called(ctx, page, pageSize)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]lending.ReconciliationRecord), args.Get(1).(int64), args.Error(2)
}

type mockAuditLogRepository struct {
	mock.Mock
}

func (m *mockAuditLogRepository) Append(ctx context.Context, entry *lending.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}
