package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
	"github.com/praws/backend/internal/infrastructure/persistence/models"
)

// GormLoanRepository implements lending.LoanRepository using GORM
type GormLoanRepository struct {
	db *gorm.DB
}

// NewGormLoanRepository creates a new GormLoanRepository
func NewGormLoanRepository(db *gorm.DB) *GormLoanRepository {
	return &GormLoanRepository{db: db}
}

var _ lending.LoanRepository = (*GormLoanRepository)(nil)

// FindByID loads a loan with its full schedule
func (r *GormLoanRepository) FindByID(ctx context.Context, id uuid.UUID) (*lending.Loan, error) {
	var model models.LoanModel
	if err := r.db.WithContext(ctx).
		Preload("Schedule", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number ASC")
		}).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByLoanNumber loads a loan by its business number
func (r *GormLoanRepository) FindByLoanNumber(ctx context.Context, loanNumber string) (*lending.Loan, error) {
	var model models.LoanModel
	if err := r.db.WithContext(ctx).
		Preload("Schedule", func(db *gorm.DB) *gorm.DB {
			return db.Order("installment_number ASC")
		}).
		First(&model, "loan_number = ?", loanNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatuses lists loans whose status is in the given set. Schedules are
// not loaded; callers that need one fetch the loan by ID.
func (r *GormLoanRepository) FindByStatuses(ctx context.Context, statuses []lending.LoanStatus, filter lending.LoanFilter) ([]lending.Loan, error) {
	var loanModels []models.LoanModel
	query := r.db.WithContext(ctx).Model(&models.LoanModel{}).
		Where("status IN ?", statuses)
	query = applyLoanFilter(query, filter)

	if err := query.Order("created_at ASC").Find(&loanModels).Error; err != nil {
		return nil, err
	}
	loans := make([]lending.Loan, len(loanModels))
	for i, model := range loanModels {
		loans[i] = *model.ToDomain()
	}
	return loans, nil
}

// FindAll lists loans with filtering and returns the total count before
// pagination
func (r *GormLoanRepository) FindAll(ctx context.Context, filter lending.LoanFilter) ([]lending.Loan, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LoanModel{})
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var loanModels []models.LoanModel
	if err := applyPagination(query, filter.Page, filter.PageSize).
		Order("created_at DESC").
		Find(&loanModels).Error; err != nil {
		return nil, 0, err
	}
	loans := make([]lending.Loan, len(loanModels))
	for i, model := range loanModels {
		loans[i] = *model.ToDomain()
	}
	return loans, total, nil
}

// Save persists the loan and its schedule. Existing rows are updated with an
// optimistic lock on the previous version; a mismatch means another process
// saved first and the caller must reload.
func (r *GormLoanRepository) Save(ctx context.Context, loan *lending.Loan) error {
	model := models.LoanModelFromDomain(loan)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var exists int64
		if err := tx.Model(&models.LoanModel{}).
			Where("id = ?", loan.ID).
			Count(&exists).Error; err != nil {
			return err
		}

		if exists == 0 {
			return tx.Create(model).Error
		}

		result := tx.Model(&models.LoanModel{}).
			Where("id = ? AND version = ?", loan.ID, loan.Version-1).
			Updates(loanUpdateColumns(model))
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}

		if len(model.Schedule) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).Create(&model.Schedule).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// loanUpdateColumns maps the model onto explicit column values so that
// zero-valued fields (false flags, zero amounts) are written too
func loanUpdateColumns(m *models.LoanModel) map[string]interface{} {
	return map[string]interface{}{
		"updated_at":            m.UpdatedAt,
		"version":               m.Version,
		"loan_number":           m.LoanNumber,
		"member_id":             m.MemberID,
		"member_name":           m.MemberName,
		"principal":             m.Principal,
		"term_months":           m.TermMonths,
		"interest_rate":         m.InterestRate,
		"total_interest":        m.TotalInterest,
		"total_amount":          m.TotalAmount,
		"monthly_payment":       m.MonthlyPayment,
		"amount_disbursed":      m.AmountDisbursed,
		"principal_repaid":      m.PrincipalRepaid,
		"interest_repaid":       m.InterestRepaid,
		"total_repaid":          m.TotalRepaid,
		"outstanding_principal": m.OutstandingPrincipal,
		"outstanding_interest":  m.OutstandingInterest,
		"outstanding_balance":   m.OutstandingBalance,
		"status":                m.Status,
		"purpose":               m.Purpose,
		"start_date":            m.StartDate,
		"is_fully_reconciled":   m.IsFullyReconciled,
		"last_reconciled_at":    m.LastReconciledAt,
	}
}

// SumDisbursed sums amount_disbursed over loans in the given statuses
func (r *GormLoanRepository) SumDisbursed(ctx context.Context, statuses []lending.LoanStatus) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.WithContext(ctx).Model(&models.LoanModel{}).
		Select("SUM(amount_disbursed)").
		Where("status IN ?", statuses).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// CountByNumberPrefix counts loans whose number starts with prefix
func (r *GormLoanRepository) CountByNumberPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.LoanModel{}).
		Where("loan_number LIKE ?", prefix+"%").
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyLoanFilter applies member and pagination constraints to a loan query
func applyLoanFilter(query *gorm.DB, filter lending.LoanFilter) *gorm.DB {
	if filter.MemberID != nil {
		query = query.Where("member_id = ?", *filter.MemberID)
	}
	return applyPagination(query, filter.Page, filter.PageSize)
}

// applyPagination applies limit/offset; non-positive page size means no limit
func applyPagination(query *gorm.DB, page, pageSize int) *gorm.DB {
	if pageSize <= 0 {
		return query
	}
	if page < 1 {
		page = 1
	}
	return query.Limit(pageSize).Offset((page - 1) * pageSize)
}
