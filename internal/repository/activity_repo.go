package repository

import (
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/gorm"
)

// ActivityRepository activity log data access
type ActivityRepository interface {
	Record(entry *domain.ActivityLog) error
	FindRecent(entityType string, entityID uint64, limit int) ([]domain.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Record(entry *domain.ActivityLog) error {
	return r.db.Create(entry).Error
}

func (r *activityRepository) FindRecent(entityType string, entityID uint64, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var entries []domain.ActivityLog
	err := r.db.Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
