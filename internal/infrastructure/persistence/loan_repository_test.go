package persistence

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/domain/shared"
	"github.com/praws/backend/internal/infrastructure/persistence/models"
)

func setupLendingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.LoanModel{},
		&models.ScheduleEntryModel{},
		&models.PaymentModel{},
		&models.ReconciliationRecordModel{},
		&models.AuditLogModel{},
	)
	require.NoError(t, err)

	return db
}

func newDisbursedTestLoan(t *testing.T, loanNumber string) *lending.Loan {
	t.Helper()
	loan, err := lending.NewLoan(loanNumber, uuid.New(), "Ama Mensah",
		decimal.NewFromInt(5000), lending.TermSixMonths, "School fees")
	require.NoError(t, err)
	require.NoError(t, loan.Approve())
	require.NoError(t, loan.Disburse(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
	loan.ClearDomainEvents()
	return loan
}

func TestGormLoanRepository_SaveAndFindByID(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()

	t.Run("persists a disbursed loan with its schedule", func(t *testing.T) {
		loan := newDisbursedTestLoan(t, "LOAN20260001")
		require.NoError(t, repo.Save(ctx, loan))

		found, err := repo.FindByID(ctx, loan.ID)
		require.NoError(t, err)
		assert.Equal(t, "LOAN20260001", found.LoanNumber)
		assert.Equal(t, lending.LoanStatusActive, found.Status)
		assert.True(t, found.Principal.Equal(decimal.NewFromInt(5000)))
		assert.True(t, found.TotalAmount.Equal(decimal.NewFromInt(5150)))
		assert.True(t, found.MonthlyPayment.Equal(decimal.RequireFromString("858.33")))

		require.Len(t, found.Schedule, 6)
		for i, entry := range found.Schedule {
			assert.Equal(t, i+1, entry.InstallmentNumber)
		}
		assert.True(t, found.Schedule[5].TotalAmount.Equal(decimal.RequireFromString("858.35")))
	})

	t.Run("returns not found for unknown loan", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormLoanRepository_SaveUpdate(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()

	t.Run("updates repayment totals and schedule after allocation", func(t *testing.T) {
		loan := newDisbursedTestLoan(t, "LOAN20260002")
		require.NoError(t, repo.Save(ctx, loan))

		loaded, err := repo.FindByID(ctx, loan.ID)
		require.NoError(t, err)

		_, err = loaded.AllocatePayment(decimal.RequireFromString("858.33"),
			time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, loaded))

		found, err := repo.FindByID(ctx, loan.ID)
		require.NoError(t, err)
		assert.True(t, found.TotalRepaid.Equal(decimal.RequireFromString("858.33")))
		assert.True(t, found.PrincipalRepaid.Equal(decimal.RequireFromString("833.33")))
		assert.True(t, found.InterestRepaid.Equal(decimal.RequireFromString("25")))
		assert.Equal(t, lending.ScheduleStatusPaid, found.Schedule[0].Status)
		assert.Equal(t, lending.ScheduleStatusPending, found.Schedule[1].Status)
		assert.Equal(t, loaded.Version, found.Version)
	})

	t.Run("rejects a stale save", func(t *testing.T) {
		loan := newDisbursedTestLoan(t, "LOAN20260003")
		require.NoError(t, repo.Save(ctx, loan))

		// Two unsaved mutations move the in-memory version two steps past
		// the stored one, so the guarded update matches no row.
		loan.MarkReconciled(true, time.Now())
		loan.MarkReconciled(true, time.Now())

		err := repo.Save(ctx, loan)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}

func TestGormLoanRepository_FindByLoanNumber(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()

	loan := newDisbursedTestLoan(t, "LOAN20260004")
	require.NoError(t, repo.Save(ctx, loan))

	t.Run("finds by number", func(t *testing.T) {
		found, err := repo.FindByLoanNumber(ctx, "LOAN20260004")
		require.NoError(t, err)
		assert.Equal(t, loan.ID, found.ID)
		assert.Len(t, found.Schedule, 6)
	})

	t.Run("returns not found for unknown number", func(t *testing.T) {
		_, err := repo.FindByLoanNumber(ctx, "LOAN20269999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormLoanRepository_FindByStatuses(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()

	active := newDisbursedTestLoan(t, "LOAN20260005")
	require.NoError(t, repo.Save(ctx, active))

	pending, err := lending.NewLoan("LOAN20260006", uuid.New(), "Kofi Boateng",
		decimal.NewFromInt(1000), lending.TermThreeMonths, "")
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pending))

	t.Run("filters by status set", func(t *testing.T) {
		loans, err := repo.FindByStatuses(ctx,
			[]lending.LoanStatus{lending.LoanStatusActive, lending.LoanStatusCompleted},
			lending.LoanFilter{})
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, active.ID, loans[0].ID)
	})

	t.Run("filters by member within status set", func(t *testing.T) {
		loans, err := repo.FindByStatuses(ctx,
			[]lending.LoanStatus{lending.LoanStatusPending},
			lending.LoanFilter{MemberID: &pending.MemberID})
		require.NoError(t, err)
		require.Len(t, loans, 1)
		assert.Equal(t, pending.ID, loans[0].ID)
	})
}

func TestGormLoanRepository_FindAll(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()

	memberID := uuid.New()
	for i := 0; i < 3; i++ {
		loan, err := lending.NewLoan(
			fmt.Sprintf("LOAN2026010%d", i), memberID, "Yaa Asantewaa",
			decimal.NewFromInt(1000), lending.TermThreeMonths, "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, loan))
	}
	other := newDisbursedTestLoan(t, "LOAN20260200")
	require.NoError(t, repo.Save(ctx, other))

	t.Run("counts the full result set and pages it", func(t *testing.T) {
		loans, total, err := repo.FindAll(ctx, lending.LoanFilter{
			MemberID: &memberID,
			Page:     1,
			PageSize: 2,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, loans, 2)
	})

	t.Run("filters by status", func(t *testing.T) {
		loans, total, err := repo.FindAll(ctx, lending.LoanFilter{
			Statuses: []lending.LoanStatus{lending.LoanStatusActive},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, loans, 1)
		assert.Equal(t, other.ID, loans[0].ID)
	})
}

func TestGormLoanRepository_SumDisbursed(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()

	t.Run("returns zero with no loans", func(t *testing.T) {
		total, err := repo.SumDisbursed(ctx, []lending.LoanStatus{lending.LoanStatusActive})
		require.NoError(t, err)
		assert.True(t, total.IsZero())
	})

	t.Run("sums disbursed amounts over matching statuses", func(t *testing.T) {
		first := newDisbursedTestLoan(t, "LOAN20260300")
		second := newDisbursedTestLoan(t, "LOAN20260301")
		require.NoError(t, repo.Save(ctx, first))
		require.NoError(t, repo.Save(ctx, second))

		total, err := repo.SumDisbursed(ctx, []lending.LoanStatus{
			lending.LoanStatusDisbursed, lending.LoanStatusActive, lending.LoanStatusCompleted,
		})
		require.NoError(t, err)
		assert.True(t, total.Equal(decimal.NewFromInt(10000)))
	})
}

func TestGormLoanRepository_CountByNumberPrefix(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormLoanRepository(db)
	ctx := context.Background()

	for _, number := range []string{"LOAN20260401", "LOAN20260402", "LOAN20250401"} {
		loan, err := lending.NewLoan(number, uuid.New(), "Efua Sutherland",
			decimal.NewFromInt(1000), lending.TermThreeMonths, "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, loan))
	}

	count, err := repo.CountByNumberPrefix(ctx, "LOAN2026")
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
