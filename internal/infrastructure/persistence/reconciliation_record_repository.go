package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/infrastructure/persistence/models"
)

// GormReconciliationRecordRepository implements
// lending.ReconciliationRecordRepository using GORM
type GormReconciliationRecordRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRecordRepository creates a new GormReconciliationRecordRepository
func NewGormReconciliationRecordRepository(db *gorm.DB) *GormReconciliationRecordRepository {
	return &GormReconciliationRecordRepository{db: db}
}

var _ lending.ReconciliationRecordRepository = (*GormReconciliationRecordRepository)(nil)

// Append stores a new record. Records are append-only; there is no update or
// delete path.
func (r *GormReconciliationRecordRepository) Append(ctx context.Context, record *lending.ReconciliationRecord) error {
	model := models.ReconciliationRecordModelFromDomain(record)
	return r.db.WithContext(ctx).Create(model).Error
}

// CountOpen counts records whose status still needs attention
func (r *GormReconciliationRecordRepository) CountOpen(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.ReconciliationRecordModel{}).
		Where("status IN ?", []lending.ReconciliationStatus{
			lending.ReconciliationStatusPending,
			lending.ReconciliationStatusDiscrepancy,
		}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindByEntity lists records for one entity, newest first
func (r *GormReconciliationRecordRepository) FindByEntity(ctx context.Context, entityID uuid.UUID) ([]lending.ReconciliationRecord, error) {
	var recordModels []models.ReconciliationRecordModel
	if err := r.db.WithContext(ctx).
		Where("entity_id = ?", entityID).
		Order("created_at DESC").
		Find(&recordModels).Error; err != nil {
		return nil, err
	}
	records := make([]lending.ReconciliationRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, nil
}

// FindAll lists records newest first with pagination and returns the total
// count
func (r *GormReconciliationRecordRepository) FindAll(ctx context.Context, page, pageSize int) ([]lending.ReconciliationRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ReconciliationRecordModel{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recordModels []models.ReconciliationRecordModel
	if err := applyPagination(query, page, pageSize).
		Order("created_at DESC").
		Find(&recordModels).Error; err != nil {
		return nil, 0, err
	}
	records := make([]lending.ReconciliationRecord, len(recordModels))
	for i, model := range recordModels {
		records[i] = *model.ToDomain()
	}
	return records, total, nil
}
