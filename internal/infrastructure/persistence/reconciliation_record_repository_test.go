package persistence

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/infrastructure/persistence/models"
)

func newTestRecord(entityID uuid.UUID, status lending.ReconciliationStatus, createdAt time.Time) *lending.ReconciliationRecord {
	return &lending.ReconciliationRecord{
		ID:                 uuid.New(),
		ReconciliationType: lending.ReconciliationTypeLoanPayment,
		ReferenceNumber:    "LOAN20260001",
		EntityID:           entityID,
		ExpectedAmount:     decimal.NewFromInt(5150),
		ActualAmount:       decimal.NewFromInt(4150),
		Difference:         decimal.NewFromInt(1000),
		Status:             status,
		Notes:              "Loan payment discrepancy detected",
		CreatedAt:          createdAt,
	}
}

func TestGormReconciliationRecordRepository_AppendAndFindByEntity(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormReconciliationRecordRepository(db)
	ctx := context.Background()

	entityID := uuid.New()
	older := newTestRecord(entityID, lending.ReconciliationStatusDiscrepancy,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	newer := newTestRecord(entityID, lending.ReconciliationStatusDiscrepancy,
		time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	unrelated := newTestRecord(uuid.New(), lending.ReconciliationStatusDiscrepancy,
		time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC))

	require.NoError(t, repo.Append(ctx, older))
	require.NoError(t, repo.Append(ctx, newer))
	require.NoError(t, repo.Append(ctx, unrelated))

	records, err := repo.FindByEntity(ctx, entityID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)
	assert.True(t, records[0].Difference.Equal(decimal.NewFromInt(1000)))
}

func TestGormReconciliationRecordRepository_CountOpen(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormReconciliationRecordRepository(db)
	ctx := context.Background()

	now := time.Now()
	require.NoError(t, repo.Append(ctx, newTestRecord(uuid.New(), lending.ReconciliationStatusDiscrepancy, now)))
	require.NoError(t, repo.Append(ctx, newTestRecord(uuid.New(), lending.ReconciliationStatusPending, now)))
	require.NoError(t, repo.Append(ctx, newTestRecord(uuid.New(), lending.ReconciliationStatusReconciled, now)))

	count, err := repo.CountOpen(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormReconciliationRecordRepository_FindAll(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormReconciliationRecordRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Append(ctx, newTestRecord(uuid.New(),
			lending.ReconciliationStatusDiscrepancy, base.AddDate(0, 0, i))))
	}

	records, total, err := repo.FindAll(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, records, 3)
	assert.Equal(t, base.AddDate(0, 0, 4).Unix(), records[0].CreatedAt.Unix())
}

func TestGormAuditLogRepository_Append(t *testing.T) {
	db := setupLendingTestDB(t)
	repo := NewGormAuditLogRepository(db)
	ctx := context.Background()

	entityID := uuid.New()
	entry, err := lending.NewAuditEntry(uuid.New(), lending.AuditActionDisburse, "Loan",
		entityID, fmt.Sprintf(`{"loan_id":%q}`, entityID))
	require.NoError(t, err)

	require.NoError(t, repo.Append(ctx, entry))

	var model models.AuditLogModel
	require.NoError(t, db.First(&model, "entity_id = ?", entityID).Error)
	assert.Equal(t, lending.AuditActionDisburse, model.Action)
	assert.Equal(t, entry.ActorID, model.ActorID)
	assert.Contains(t, model.NewValues, entityID.String())
}
