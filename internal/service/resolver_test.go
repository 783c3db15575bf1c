package service

import (
	"testing"

	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestPickOverlay_FallbackChain(t *testing.T) {
	tiers := domain.TieredJSON{
		Review:   datatypes.JSONMap{"title": "review title"},
		AIReview: datatypes.JSONMap{"title": "ai title"},
	}

	assert.Nil(t, PickOverlay(domain.TierSource, tiers))
	assert.Equal(t, "review title", PickOverlay(domain.TierReview, tiers)["title"])
	assert.Equal(t, "ai title", PickOverlay(domain.TierAIReview, tiers)["title"])

	// ai-review falls back to the review draft when its own slot is empty
	tiers.AIReview = nil
	assert.Equal(t, "review title", PickOverlay(domain.TierAIReview, tiers)["title"])

	// and to nothing when both are empty
	tiers.Review = nil
	assert.Nil(t, PickOverlay(domain.TierAIReview, tiers))
}

func TestOverlay_NullIsAValue(t *testing.T) {
	base := datatypes.JSONMap{"title": "Hello", "excerpt": "Short"}

	// explicit null clears, absent key inherits
	merged := Overlay(base, datatypes.JSONMap{"excerpt": nil})
	assert.Equal(t, "Hello", merged["title"])
	val, present := merged["excerpt"]
	assert.True(t, present)
	assert.Nil(t, val)
}

func TestOverlay_EmptyOverlayReturnsBase(t *testing.T) {
	base := datatypes.JSONMap{"title": "Hello"}
	assert.Equal(t, base, Overlay(base, nil))
	assert.Equal(t, base, Overlay(base, datatypes.JSONMap{}))
}

func TestEffectiveJSON_SourceIgnoresDrafts(t *testing.T) {
	tiers := domain.TieredJSON{
		Source: datatypes.JSONMap{"title": "Live"},
		Review: datatypes.JSONMap{"title": "Staged"},
	}
	assert.Equal(t, "Live", EffectiveJSON(domain.TierSource, tiers)["title"])
	assert.Equal(t, "Staged", EffectiveJSON(domain.TierReview, tiers)["title"])
}

func TestEffectiveProps_GlobalOverridesWin(t *testing.T) {
	module := &domain.ModuleInstance{
		Scope: domain.ScopeGlobal,
		Props: datatypes.JSONMap{"heading": "Shared", "cta": "Buy"},
	}
	placement := &domain.PostModule{
		Overrides: datatypes.JSONMap{"heading": "Per-page"},
	}

	props := EffectiveProps(module, placement, domain.TierSource)
	assert.Equal(t, "Per-page", props["heading"])
	assert.Equal(t, "Buy", props["cta"])
}

func TestEffectiveProps_LocalIgnoresOverrides(t *testing.T) {
	module := &domain.ModuleInstance{
		Scope: domain.ScopeLocal,
		Props: datatypes.JSONMap{"heading": "Own"},
	}
	placement := &domain.PostModule{
		Overrides: datatypes.JSONMap{"heading": "Should not apply"},
	}

	props := EffectiveProps(module, placement, domain.TierSource)
	assert.Equal(t, "Own", props["heading"])
}

func TestEffectiveProps_TierResolvedBothSides(t *testing.T) {
	module := &domain.ModuleInstance{
		Scope:       domain.ScopeGlobal,
		Props:       datatypes.JSONMap{"heading": "Shared", "cta": "Buy"},
		ReviewProps: datatypes.JSONMap{"cta": "Order"},
	}
	placement := &domain.PostModule{
		Overrides:       datatypes.JSONMap{"heading": "Per-page"},
		ReviewOverrides: datatypes.JSONMap{"heading": "Per-page staged"},
	}

	props := EffectiveProps(module, placement, domain.TierReview)
	assert.Equal(t, "Per-page staged", props["heading"])
	assert.Equal(t, "Order", props["cta"])
}
