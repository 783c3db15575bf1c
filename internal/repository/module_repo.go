package repository

import (
	"errors"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/gorm"
)

// ModuleRepository module instance data access
type ModuleRepository interface {
	FindByID(id uint64) (*domain.ModuleInstance, error)
	FindGlobalBySlug(slug string) (*domain.ModuleInstance, error)
	Create(module *domain.ModuleInstance) error
	Save(module *domain.ModuleInstance) error
	Delete(id uint64) error
}

type moduleRepository struct {
	db *gorm.DB
}

// NewModuleRepository creates a new ModuleRepository
func NewModuleRepository(db *gorm.DB) ModuleRepository {
	return &moduleRepository{db: db}
}

func (r *moduleRepository) FindByID(id uint64) (*domain.ModuleInstance, error) {
	var module domain.ModuleInstance
	if err := r.db.First(&module, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrModuleNotFound
		}
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepository) FindGlobalBySlug(slug string) (*domain.ModuleInstance, error) {
	var module domain.ModuleInstance
	err := r.db.Where("scope = ? AND global_slug = ?", domain.ScopeGlobal, slug).
		First(&module).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrModuleNotFound
		}
		return nil, err
	}
	return &module, nil
}

func (r *moduleRepository) Create(module *domain.ModuleInstance) error {
	return r.db.Create(module).Error
}

func (r *moduleRepository) Save(module *domain.ModuleInstance) error {
	return r.db.Save(module).Error
}

func (r *moduleRepository) Delete(id uint64) error {
	return r.db.Delete(&domain.ModuleInstance{}, id).Error
}
