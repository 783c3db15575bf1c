package domain

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog records content actions (save, approve, reject, revert)
// for the activity feed. Writes are best-effort: a failed activity
// write never fails the content mutation it describes.
type ActivityLog struct {
	ID         uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Action     string            `gorm:"column:action;type:varchar(50);index" json:"action"`
	UserID     uint64            `gorm:"column:user_id;index" json:"user_id"`
	EntityType string            `gorm:"column:entity_type;type:varchar(50)" json:"entity_type"`
	EntityID   uint64            `gorm:"column:entity_id;index" json:"entity_id"`
	Metadata   datatypes.JSONMap `gorm:"column:metadata;type:json" json:"metadata,omitempty"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ActivityLog) TableName() string { return "activity_logs" }
