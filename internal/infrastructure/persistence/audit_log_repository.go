package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/praws/backend/internal/domain/lending"
	"github.com/praws/backend/internal/infrastructure/persistence/models"
)

// GormAuditLogRepository implements lending.AuditLogRepository using GORM
type GormAuditLogRepository struct {
	db *gorm.DB
}

// NewGormAuditLogRepository creates a new GormAuditLogRepository
func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

var _ lending.AuditLogRepository = (*GormAuditLogRepository)(nil)

// Append stores a new audit entry. The log is append-only.
func (r *GormAuditLogRepository) Append(ctx context.Context, entry *lending.AuditEntry) error {
	model := models.AuditLogModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}
