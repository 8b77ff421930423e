package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/infrastructure/persistence/models"
)

// GormPaymentRepository implements lending.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

var _ lending.PaymentRepository = (*GormPaymentRepository)(nil)

// Save persists a new payment. Payments are immutable once recorded, so this
// is always an insert.
func (r *GormPaymentRepository) Save(ctx context.Context, payment *lending.Payment) error {
	model := models.PaymentModelFromDomain(payment)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindAll lists payments with filtering and returns the total count before
// pagination
func (r *GormPaymentRepository) FindAll(ctx context.Context, filter lending.PaymentFilter) ([]lending.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{})
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if filter.LoanID != nil {
		query = query.Where("loan_id = ?", *filter.LoanID)
	}
	if len(filter.Types) > 0 {
		query = query.Where("payment_type IN ?", filter.Types)
	}
	if filter.FromDate != nil {
		query = query.Where("payment_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("payment_date <= ?", *filter.ToDate)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var paymentModels []models.PaymentModel
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Order("payment_date DESC").
		Find(&paymentModels).Error; err != nil {
		return nil, 0, err
	}
	payments := make([]lending.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, total, nil
}

// FindRepaymentsByLoan lists all loan repayment payments for a loan, oldest
// first
func (r *GormPaymentRepository) FindRepaymentsByLoan(ctx context.Context, loanID uuid.UUID) ([]lending.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Where("loan_id = ? AND payment_type = ?", loanID, lending.PaymentTypeLoanRepayment).
		Order("payment_date ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, err
	}
	payments := make([]lending.Payment, len(paymentModels))
	for i, model := range paymentModels {
		payments[i] = *model.ToDomain()
	}
	return payments, nil
}

// SumRepaymentAllocations sums principal/interest allocations across all
// repayments recorded for a loan
func (r *GormPaymentRepository) SumRepaymentAllocations(ctx context.Context, loanID uuid.UUID) (lending.RepaymentTotals, error) {
	var row struct {
		Principal decimal.NullDecimal
		Interest  decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("SUM(principal_amount) AS principal, SUM(interest_amount) AS interest").
		Where("loan_id = ? AND payment_type = ?", loanID, lending.PaymentTypeLoanRepayment).
		Scan(&row).Error; err != nil {
		return lending.RepaymentTotals{}, err
	}

	totals := lending.RepaymentTotals{Principal: decimal.Zero, Interest: decimal.Zero}
	if row.Principal.Valid {
		totals.Principal = row.Principal.Decimal
	}
	if row.Interest.Valid {
		totals.Interest = row.Interest.Decimal
	}
	return totals, nil
}

// SumAmountByTypes sums the amount of all payments of the given types
func (r *GormPaymentRepository) SumAmountByTypes(ctx context.Context, types []lending.PaymentType) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("SUM(amount)").
		Where("payment_type IN ?", types).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// CountByReceiptPrefix counts payments whose receipt number starts with prefix
func (r *GormPaymentRepository) CountByReceiptPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("receipt_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
