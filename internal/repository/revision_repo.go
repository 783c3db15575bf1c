package repository

import (
	"errors"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/gorm"
)

// RevisionRepository revision data access. Revisions are append-only:
// there is deliberately no update or delete method.
type RevisionRepository interface {
	Create(revision *domain.Revision) error
	FindByID(id uint64) (*domain.Revision, error)
	FindByPost(postID uint64, limit int) ([]*domain.Revision, error)
}

type revisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository creates a new RevisionRepository
func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

func (r *revisionRepository) Create(revision *domain.Revision) error {
	return r.db.Create(revision).Error
}

func (r *revisionRepository) FindByID(id uint64) (*domain.Revision, error) {
	var revision domain.Revision
	if err := r.db.First(&revision, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrRevisionNotFound
		}
		return nil, err
	}
	return &revision, nil
}

func (r *revisionRepository) FindByPost(postID uint64, limit int) ([]*domain.Revision, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var revisions []*domain.Revision
	err := r.db.Where("post_id = ?", postID).
		Order("id DESC").
		Limit(limit).
		Find(&revisions).Error
	return revisions, err
}
