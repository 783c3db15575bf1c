package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Revision snapshot kinds
const (
	SnapshotActiveVersions = "active-versions"
	SnapshotDraft          = "draft"
)

// Revision is an append-only point-in-time record for a post. Mode is
// the tier whose action triggered the capture; Snapshot is the tagged
// payload (composite active-versions object or single-tier draft).
// Revisions are never updated or deleted by normal operation.
type Revision struct {
	ID        uint64         `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PostID    uint64         `gorm:"column:post_id;index" json:"post_id"`
	Mode      Tier           `gorm:"column:mode;type:varchar(20)" json:"mode"`
	Kind      string         `gorm:"column:kind;type:varchar(30)" json:"kind"`
	Snapshot  datatypes.JSON `gorm:"column:snapshot;type:json" json:"snapshot"`
	UserID    uint64         `gorm:"column:user_id;index" json:"user_id"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Revision) TableName() string { return "revisions" }

// RevisionListItem is the compact shape for revision history lists
type RevisionListItem struct {
	ID        uint64    `json:"id"`
	Mode      Tier      `json:"mode"`
	Kind      string    `json:"kind"`
	UserID    uint64    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// ToListItem converts a revision to its list representation
func (r *Revision) ToListItem() RevisionListItem {
	return RevisionListItem{
		ID:        r.ID,
		Mode:      r.Mode,
		Kind:      r.Kind,
		UserID:    r.UserID,
		CreatedAt: r.CreatedAt,
	}
}
