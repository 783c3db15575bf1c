package repository

import (
	"errors"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/gorm"
)

// PlacementRepository post-module placement data access
type PlacementRepository interface {
	FindByID(id uint64) (*domain.PostModule, error)
	// FindByPost returns all placements for a post with their module
	// instances preloaded, in placement order.
	FindByPost(postID uint64) ([]*domain.PostModule, error)
	FindByPostAndModule(postID, moduleID uint64) (*domain.PostModule, error)
	Create(placement *domain.PostModule) error
	Save(placement *domain.PostModule) error
	Delete(id uint64) error
	// CountByModule counts placements referencing a module instance,
	// used to decide whether an orphaned local module can be removed.
	CountByModule(moduleID uint64) (int64, error)
}

type placementRepository struct {
	db *gorm.DB
}

// NewPlacementRepository creates a new PlacementRepository
func NewPlacementRepository(db *gorm.DB) PlacementRepository {
	return &placementRepository{db: db}
}

func (r *placementRepository) FindByID(id uint64) (*domain.PostModule, error) {
	var pm domain.PostModule
	if err := r.db.Preload("Module").First(&pm, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPlacementNotFound
		}
		return nil, err
	}
	return &pm, nil
}

func (r *placementRepository) FindByPost(postID uint64) ([]*domain.PostModule, error) {
	var placements []*domain.PostModule
	err := r.db.Preload("Module").
		Where("post_id = ?", postID).
		Order("order_index ASC, id ASC").
		Find(&placements).Error
	return placements, err
}

func (r *placementRepository) FindByPostAndModule(postID, moduleID uint64) (*domain.PostModule, error) {
	var pm domain.PostModule
	err := r.db.Preload("Module").
		Where("post_id = ? AND module_instance_id = ?", postID, moduleID).
		First(&pm).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPlacementNotFound
		}
		return nil, err
	}
	return &pm, nil
}

func (r *placementRepository) Create(placement *domain.PostModule) error {
	return r.db.Omit("Module").Create(placement).Error
}

func (r *placementRepository) Save(placement *domain.PostModule) error {
	return r.db.Omit("Module").Save(placement).Error
}

func (r *placementRepository) Delete(id uint64) error {
	return r.db.Delete(&domain.PostModule{}, id).Error
}

func (r *placementRepository) CountByModule(moduleID uint64) (int64, error) {
	var count int64
	err := r.db.Model(&domain.PostModule{}).
		Where("module_instance_id = ?", moduleID).
		Count(&count).Error
	return count, err
}
