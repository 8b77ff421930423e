package lending

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyDifference(t *testing.T) {
	tests := []struct {
		name       string
		difference string
		want       ReconciliationStatus
	}{
		{"zero", "0", ReconciliationStatusReconciled},
		{"just under tolerance", "0.009", ReconciliationStatusReconciled},
		{"negative under tolerance", "-0.009", ReconciliationStatusReconciled},
		{"at tolerance", "0.01", ReconciliationStatusDiscrepancy},
		{"negative at tolerance", "-0.01", ReconciliationStatusDiscrepancy},
		{"large overpayment", "-120.50", ReconciliationStatusDiscrepancy},
		{"large shortfall", "120.50", ReconciliationStatusDiscrepancy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyDifference(decimal.RequireFromString(tt.difference)))
		})
	}
}

func TestReconcileLoanTotals(t *testing.T) {
	t.Run("fully repaid loan reconciles", func(t *testing.T) {
		loan := newDisbursedLoan(t, 5000, TermSixMonths)

		rec, err := ReconcileLoanTotals(loan, decimal.NewFromInt(5000), decimal.NewFromInt(150))
		require.NoError(t, err)

		assert.Equal(t, loan.ID, rec.LoanID)
		assert.Equal(t, "5150.00", rec.ExpectedTotal.StringFixed(2))
		assert.Equal(t, "5150.00", rec.ActualTotal.StringFixed(2))
		assert.True(t, rec.Difference.IsZero())
		assert.Equal(t, ReconciliationStatusReconciled, rec.Status)
	})

	t.Run("expected totals come from the calculator, not stored fields", func(t *testing.T) {
		loan := newDisbursedLoan(t, 5000, TermSixMonths)
		// Corrupt the stored quote; reconciliation must not trust it
		loan.TotalInterest = decimal.NewFromInt(999)
		loan.TotalAmount = decimal.NewFromInt(9999)

		rec, err := ReconcileLoanTotals(loan, decimal.NewFromInt(5000), decimal.NewFromInt(150))
		require.NoError(t, err)
		assert.Equal(t, "150.00", rec.ExpectedInterest.StringFixed(2))
		assert.Equal(t, ReconciliationStatusReconciled, rec.Status)
	})

	t.Run("shortfall is a discrepancy", func(t *testing.T) {
		loan := newDisbursedLoan(t, 5000, TermSixMonths)

		rec, err := ReconcileLoanTotals(loan, decimal.NewFromInt(4000), decimal.NewFromInt(150))
		require.NoError(t, err)
		assert.Equal(t, "1000.00", rec.Difference.StringFixed(2))
		assert.Equal(t, ReconciliationStatusDiscrepancy, rec.Status)
	})

	t.Run("overpayment is also a discrepancy", func(t *testing.T) {
		loan := newDisbursedLoan(t, 5000, TermSixMonths)

		rec, err := ReconcileLoanTotals(loan, decimal.NewFromInt(5200), decimal.NewFromInt(150))
		require.NoError(t, err)
		assert.True(t, rec.Difference.IsNegative())
		assert.Equal(t, ReconciliationStatusDiscrepancy, rec.Status)
	})

	t.Run("unpriceable loan surfaces the error", func(t *testing.T) {
		loan := newDisbursedLoan(t, 5000, TermSixMonths)
		loan.TermMonths = LoanTerm(9)

		_, err := ReconcileLoanTotals(loan, decimal.Zero, decimal.Zero)
		assert.ErrorIs(t, err, ErrInvalidTerm)
	})
}

func TestNewDiscrepancyRecord(t *testing.T) {
	loan := newDisbursedLoan(t, 5000, TermSixMonths)
	rec, err := ReconcileLoanTotals(loan, decimal.NewFromInt(4000), decimal.NewFromInt(100))
	require.NoError(t, err)
	require.Equal(t, ReconciliationStatusDiscrepancy, rec.Status)

	record := NewDiscrepancyRecord(rec)
	assert.Equal(t, ReconciliationTypeLoanPayment, record.ReconciliationType)
	assert.Equal(t, loan.LoanNumber, record.ReferenceNumber)
	assert.Equal(t, loan.ID, record.EntityID)
	assert.Equal(t, "5150.00", record.ExpectedAmount.StringFixed(2))
	assert.Equal(t, "4100.00", record.ActualAmount.StringFixed(2))
	assert.Equal(t, ReconciliationStatusDiscrepancy, record.Status)
	assert.Contains(t, record.Notes, "Expected: 5150.00")
	assert.Contains(t, record.Notes, "Actual: 4100.00")
}

func TestNewAuditEntry(t *testing.T) {
	actorID, entityID := uuid.New(), uuid.New()
	entry, err := NewAuditEntry(actorID, AuditActionReconcile, "Loan", entityID, `{"status":"RECONCILED"}`)
	require.NoError(t, err)
	assert.Equal(t, AuditActionReconcile, entry.Action)
	assert.Equal(t, "Loan", entry.Entity)

	_, err = NewAuditEntry(actorID, AuditAction("DELETE"), "Loan", entityID, "{}")
	assert.Error(t, err)
}
