package service

import (
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/datatypes"
)

// PickOverlay selects which draft object applies at a tier. The
// fallback chain is load-bearing: an ai-review action must see the
// human's in-progress review edits as its baseline, not stale source.
//
//	source    -> none
//	review    -> review draft if it has keys
//	ai-review -> ai-review draft if it has keys, else review draft
func PickOverlay(tier domain.Tier, t domain.TieredJSON) datatypes.JSONMap {
	switch tier {
	case domain.TierReview:
		if len(t.Review) > 0 {
			return t.Review
		}
	case domain.TierAIReview:
		if len(t.AIReview) > 0 {
			return t.AIReview
		}
		if len(t.Review) > 0 {
			return t.Review
		}
	}
	return nil
}

// Overlay applies a sparse draft object onto a base object, key by
// key. An explicit null in the overlay is a real value ("clear this
// field"), distinct from the key being absent ("inherit").
func Overlay(base, overlay datatypes.JSONMap) datatypes.JSONMap {
	if len(overlay) == 0 {
		return base
	}
	merged := make(datatypes.JSONMap, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		merged[k] = v
	}
	return merged
}

// EffectiveJSON resolves a tiered JSON column family to the effective
// object a tier-aware read should show.
func EffectiveJSON(tier domain.Tier, t domain.TieredJSON) datatypes.JSONMap {
	if tier == domain.TierSource {
		return t.Source
	}
	return Overlay(t.Source, PickOverlay(tier, t))
}

// EffectiveProps computes the props a placement renders with at a
// tier. Local modules resolve their own props directly. Global
// modules resolve shared props first, then shallow-merge the
// placement's tier-resolved overrides on top, so one shared instance
// can render differently per placement. Keys present in an override
// always win; absent keys fall through to the shared value.
func EffectiveProps(module *domain.ModuleInstance, placement *domain.PostModule, tier domain.Tier) datatypes.JSONMap {
	shared := EffectiveJSON(tier, module.PropTiers())
	if module.Scope != domain.ScopeGlobal || placement == nil {
		return shared
	}
	overrides := EffectiveJSON(tier, placement.OverrideTiers())
	return Overlay(shared, overrides)
}
