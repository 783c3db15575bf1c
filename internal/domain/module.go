package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Module scopes
const (
	ScopeLocal  = "local"
	ScopeGlobal = "global"
)

// ModuleInstance is a reusable content block. Local modules belong to
// exactly one post; global modules are shared across posts via slug
// and carry per-placement overrides on PostModule instead of having
// their shared props edited per post.
type ModuleInstance struct {
	ID            uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Type          string            `gorm:"column:type;type:varchar(50);index" json:"type"`
	Scope         string            `gorm:"column:scope;type:enum('local','global');default:'local'" json:"scope"`
	GlobalSlug    *string           `gorm:"column:global_slug;type:varchar(100);uniqueIndex" json:"global_slug,omitempty"`
	Props         datatypes.JSONMap `gorm:"column:props;type:json" json:"props"`
	ReviewProps   datatypes.JSONMap `gorm:"column:review_props;type:json" json:"review_props,omitempty"`
	AIReviewProps datatypes.JSONMap `gorm:"column:ai_review_props;type:json" json:"ai_review_props,omitempty"`
	CreatedAt     time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (ModuleInstance) TableName() string { return "module_instances" }

// PropTiers exposes module props as a tiered container
func (m *ModuleInstance) PropTiers() TieredJSON {
	return TieredJSON{Source: m.Props, Review: m.ReviewProps, AIReview: m.AIReviewProps}
}

// SetProps writes the props slot for a tier
func (m *ModuleInstance) SetProps(tier Tier, props datatypes.JSONMap) {
	switch tier {
	case TierReview:
		m.ReviewProps = props
	case TierAIReview:
		m.AIReviewProps = props
	default:
		m.Props = props
	}
}

// PostModule joins a Post to a ModuleInstance. It carries placement
// data (order, lock), per-placement overrides for global modules, and
// staged add/delete flags so a draft tier can insert or remove a
// placement without mutating the live list.
type PostModule struct {
	ID                uint64            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PostID            uint64            `gorm:"column:post_id;index" json:"post_id"`
	ModuleInstanceID  uint64            `gorm:"column:module_instance_id;index" json:"module_instance_id"`
	OrderIndex        int               `gorm:"column:order_index;default:0" json:"order_index"`
	Locked            bool              `gorm:"column:locked;default:false" json:"locked"`
	Overrides         datatypes.JSONMap `gorm:"column:overrides;type:json" json:"overrides,omitempty"`
	ReviewOverrides   datatypes.JSONMap `gorm:"column:review_overrides;type:json" json:"review_overrides,omitempty"`
	AIReviewOverrides datatypes.JSONMap `gorm:"column:ai_review_overrides;type:json" json:"ai_review_overrides,omitempty"`
	ReviewAdded       bool              `gorm:"column:review_added;default:false" json:"review_added"`
	ReviewDeleted     bool              `gorm:"column:review_deleted;default:false" json:"review_deleted"`
	AIReviewAdded     bool              `gorm:"column:ai_review_added;default:false" json:"ai_review_added"`
	AIReviewDeleted   bool              `gorm:"column:ai_review_deleted;default:false" json:"ai_review_deleted"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`

	Module *ModuleInstance `gorm:"foreignKey:ModuleInstanceID" json:"module,omitempty"`
}

func (PostModule) TableName() string { return "post_modules" }

// OverrideTiers exposes placement overrides as a tiered container
func (pm *PostModule) OverrideTiers() TieredJSON {
	return TieredJSON{Source: pm.Overrides, Review: pm.ReviewOverrides, AIReview: pm.AIReviewOverrides}
}

// SetOverrides writes the overrides slot for a tier
func (pm *PostModule) SetOverrides(tier Tier, overrides datatypes.JSONMap) {
	switch tier {
	case TierReview:
		pm.ReviewOverrides = overrides
	case TierAIReview:
		pm.AIReviewOverrides = overrides
	default:
		pm.Overrides = overrides
	}
}

// AddedAt reports the staged-insertion flag for a tier
func (pm *PostModule) AddedAt(tier Tier) bool {
	switch tier {
	case TierReview:
		return pm.ReviewAdded
	case TierAIReview:
		return pm.AIReviewAdded
	}
	return false
}

// StagedDeleted reports the staged-removal flag for a tier
func (pm *PostModule) StagedDeleted(tier Tier) bool {
	switch tier {
	case TierReview:
		return pm.ReviewDeleted
	case TierAIReview:
		return pm.AIReviewDeleted
	}
	return false
}

// VisibleAt reports whether the placement participates in a tier's
// render: a placement staged for insertion at another tier is hidden,
// and a placement staged for removal at this tier is hidden.
func (pm *PostModule) VisibleAt(tier Tier) bool {
	switch tier {
	case TierSource:
		return !pm.ReviewAdded && !pm.AIReviewAdded
	case TierReview:
		return !pm.AIReviewAdded && !pm.ReviewDeleted
	case TierAIReview:
		return !pm.ReviewDeleted && !pm.AIReviewDeleted
	}
	return false
}
