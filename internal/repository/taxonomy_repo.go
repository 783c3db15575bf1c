package repository

import (
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/gorm"
)

// TaxonomyRepository term assignment data access
type TaxonomyRepository interface {
	TermIDsByPost(postID uint64) ([]uint64, error)
	// ReplaceTerms swaps the whole term assignment set for a post
	ReplaceTerms(postID uint64, termIDs []uint64) error
	FindTerms(ids []uint64) ([]domain.Term, error)
}

type taxonomyRepository struct {
	db *gorm.DB
}

// NewTaxonomyRepository creates a new TaxonomyRepository
func NewTaxonomyRepository(db *gorm.DB) TaxonomyRepository {
	return &taxonomyRepository{db: db}
}

func (r *taxonomyRepository) TermIDsByPost(postID uint64) ([]uint64, error) {
	var ids []uint64
	err := r.db.Model(&domain.PostTerm{}).
		Where("post_id = ?", postID).
		Order("term_id ASC").
		Pluck("term_id", &ids).Error
	return ids, err
}

func (r *taxonomyRepository) ReplaceTerms(postID uint64, termIDs []uint64) error {
	if err := r.db.Where("post_id = ?", postID).Delete(&domain.PostTerm{}).Error; err != nil {
		return err
	}
	if len(termIDs) == 0 {
		return nil
	}
	rows := make([]domain.PostTerm, 0, len(termIDs))
	for _, id := range termIDs {
		rows = append(rows, domain.PostTerm{PostID: postID, TermID: id})
	}
	return r.db.Create(&rows).Error
}

func (r *taxonomyRepository) FindTerms(ids []uint64) ([]domain.Term, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var terms []domain.Term
	err := r.db.Where("id IN ?", ids).Find(&terms).Error
	return terms, err
}
