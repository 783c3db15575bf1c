package repository

import (
	"encoding/json"

	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CustomFieldRepository custom field data access
type CustomFieldRepository interface {
	FindByPost(postID uint64) ([]domain.CustomField, error)
	// ValuesByPost returns the fields as a key -> decoded value map
	ValuesByPost(postID uint64) (map[string]interface{}, error)
	// Replace swaps the whole field set for a post. The set is
	// order-insensitive, so delete-then-reinsert is safe.
	Replace(postID uint64, values map[string]interface{}) error
}

type customFieldRepository struct {
	db *gorm.DB
}

// NewCustomFieldRepository creates a new CustomFieldRepository
func NewCustomFieldRepository(db *gorm.DB) CustomFieldRepository {
	return &customFieldRepository{db: db}
}

func (r *customFieldRepository) FindByPost(postID uint64) ([]domain.CustomField, error) {
	var fields []domain.CustomField
	err := r.db.Where("post_id = ?", postID).Order("field_key ASC").Find(&fields).Error
	return fields, err
}

func (r *customFieldRepository) ValuesByPost(postID uint64) (map[string]interface{}, error) {
	fields, err := r.FindByPost(postID)
	if err != nil {
		return nil, err
	}
	values := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		var v interface{}
		if len(f.Value) > 0 {
			if err := json.Unmarshal(f.Value, &v); err != nil {
				return nil, err
			}
		}
		values[f.FieldKey] = v
	}
	return values, nil
}

func (r *customFieldRepository) Replace(postID uint64, values map[string]interface{}) error {
	if err := r.db.Where("post_id = ?", postID).Delete(&domain.CustomField{}).Error; err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	rows := make([]domain.CustomField, 0, len(values))
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return err
		}
		rows = append(rows, domain.CustomField{
			PostID:   postID,
			FieldKey: key,
			Value:    datatypes.JSON(raw),
		})
	}
	return r.db.Create(&rows).Error
}
