package domain

import (
	"fmt"

	"gorm.io/datatypes"
)

// Tier is a layer of draft content for a post or module.
type Tier string

const (
	TierSource   Tier = "source"
	TierReview   Tier = "review"
	TierAIReview Tier = "ai-review"
)

// ParseTier validates a tier string
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierSource, TierReview, TierAIReview:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// IsDraft reports whether the tier holds staged content
func (t Tier) IsDraft() bool {
	return t == TierReview || t == TierAIReview
}

// TieredJSON groups the three tier slots of a JSON column family.
// Post drafts, module props and placement overrides all share this
// shape, so the fallback chain is derived once instead of per entity.
type TieredJSON struct {
	Source   datatypes.JSONMap
	Review   datatypes.JSONMap
	AIReview datatypes.JSONMap
}

// At returns the slot for a tier
func (t TieredJSON) At(tier Tier) datatypes.JSONMap {
	switch tier {
	case TierReview:
		return t.Review
	case TierAIReview:
		return t.AIReview
	default:
		return t.Source
	}
}
