package domain

import (
	"time"

	"gorm.io/datatypes"
)

// CustomField holds one custom field value for a post. The set of
// rows for a post is order-insensitive and replaced wholesale on
// restore, so there is no per-row identity beyond (post, key).
type CustomField struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PostID    uint64         `gorm:"column:post_id;index:idx_post_field,unique" json:"post_id"`
	FieldKey  string         `gorm:"column:field_key;type:varchar(128);index:idx_post_field,unique" json:"field_key"`
	Value     datatypes.JSON `gorm:"column:value;type:json" json:"value,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CustomField) TableName() string { return "custom_fields" }
