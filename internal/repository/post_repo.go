package repository

import (
	"errors"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/gorm"
)

// PostRepository post data access
type PostRepository interface {
	FindByID(id uint64) (*domain.Post, error)
	List(page, limit int) ([]*domain.Post, int64, error)
	Create(post *domain.Post) error
	Save(post *domain.Post) error
	UpdateColumns(id uint64, values map[string]interface{}) error
	SoftDelete(id uint64) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new PostRepository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) FindByID(id uint64) (*domain.Post, error) {
	var post domain.Post
	if err := r.db.First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, common.ErrPostNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *postRepository) List(page, limit int) ([]*domain.Post, int64, error) {
	var posts []*domain.Post
	var total int64

	if err := r.db.Model(&domain.Post{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	offset := (page - 1) * limit
	err := r.db.Order("order_index ASC, id DESC").
		Offset(offset).Limit(limit).
		Find(&posts).Error
	return posts, total, err
}

func (r *postRepository) Create(post *domain.Post) error {
	return r.db.Create(post).Error
}

func (r *postRepository) Save(post *domain.Post) error {
	return r.db.Save(post).Error
}

// UpdateColumns writes a sparse set of columns. Used by the
// promotion state machine so approvals and restores share one
// field-level update path.
func (r *postRepository) UpdateColumns(id uint64, values map[string]interface{}) error {
	return r.db.Model(&domain.Post{}).Where("id = ?", id).Updates(values).Error
}

func (r *postRepository) SoftDelete(id uint64) error {
	res := r.db.Delete(&domain.Post{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return common.ErrPostNotFound
	}
	return nil
}
