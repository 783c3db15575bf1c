package domain

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
	StatusScheduled = "scheduled"
)

// Post is an editable content record. The source tier lives in the
// scalar columns; review_draft and ai_review_draft hold sparse field
// overrides for the two staged tiers. A key absent from a draft means
// "inherit from the tier below"; an explicit null means "clear".
type Post struct {
	ID              uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Type            string            `gorm:"column:type;type:varchar(50);index;default:'page'" json:"type"`
	Locale          string            `gorm:"column:locale;type:varchar(10);default:'en'" json:"locale"`
	Slug            string            `gorm:"column:slug;type:varchar(255);index" json:"slug"`
	Title           string            `gorm:"column:title;type:varchar(255)" json:"title"`
	Status          string            `gorm:"column:status;type:enum('draft','published','archived','scheduled');default:'draft'" json:"status"`
	Excerpt         string            `gorm:"column:excerpt;type:text" json:"excerpt"`
	MetaTitle       string            `gorm:"column:meta_title;type:varchar(255)" json:"meta_title"`
	MetaDescription string            `gorm:"column:meta_description;type:text" json:"meta_description"`
	ParentID        *uint64           `gorm:"column:parent_id;index" json:"parent_id,omitempty"`
	OrderIndex      int               `gorm:"column:order_index;default:0" json:"order_index"`
	FeaturedImageID *uint64           `gorm:"column:featured_image_id" json:"featured_image_id,omitempty"`
	ReviewDraft     datatypes.JSONMap `gorm:"column:review_draft;type:json" json:"review_draft,omitempty"`
	AIReviewDraft   datatypes.JSONMap `gorm:"column:ai_review_draft;type:json" json:"ai_review_draft,omitempty"`
	ABGroupID       *uint64           `gorm:"column:ab_group_id" json:"ab_group_id,omitempty"`
	ABVariation     *string           `gorm:"column:ab_variation;type:varchar(50)" json:"ab_variation,omitempty"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt    `gorm:"column:deleted_at;index" json:"-"`
}

func (Post) TableName() string { return "posts" }

// DraftTiers exposes the post drafts as a tiered container. The
// source slot is nil because source values live in scalar columns.
func (p *Post) DraftTiers() TieredJSON {
	return TieredJSON{Review: p.ReviewDraft, AIReview: p.AIReviewDraft}
}

// SetDraft writes a draft slot for a staged tier
func (p *Post) SetDraft(tier Tier, draft datatypes.JSONMap) {
	switch tier {
	case TierReview:
		p.ReviewDraft = draft
	case TierAIReview:
		p.AIReviewDraft = draft
	}
}
