package service

import (
	"fmt"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"gorm.io/datatypes"
)

// postFieldColumns maps editable post field keys to their columns.
// Draft payloads, source updates and restores all go through this
// table so field semantics stay identical across tiers.
var postFieldColumns = map[string]string{
	"title":             "title",
	"slug":              "slug",
	"status":            "status",
	"excerpt":           "excerpt",
	"locale":            "locale",
	"meta_title":        "meta_title",
	"meta_description":  "meta_description",
	"order_index":       "order_index",
	"parent_id":         "parent_id",
	"featured_image_id": "featured_image_id",
	"ab_group_id":       "ab_group_id",
	"ab_variation":      "ab_variation",
}

// compareFields is the scalar whitelist for revision compare
var compareFields = []string{"slug", "title", "status", "excerpt", "meta_title", "meta_description"}

// ValidatePostFields rejects payload keys that are not editable post
// fields. Returns common.ErrInvalidInput wrapped with the first
// offending key.
func ValidatePostFields(fields datatypes.JSONMap) error {
	for key := range fields {
		if _, ok := postFieldColumns[key]; !ok {
			return fmt.Errorf("%w: unknown field %q", common.ErrInvalidInput, key)
		}
	}
	if status, ok := fields["status"]; ok {
		s, ok := status.(string)
		if !ok {
			return fmt.Errorf("%w: status must be a string", common.ErrInvalidInput)
		}
		switch s {
		case domain.StatusDraft, domain.StatusPublished, domain.StatusArchived, domain.StatusScheduled:
		default:
			return fmt.Errorf("%w: unknown status %q", common.ErrInvalidInput, s)
		}
	}
	return nil
}

// PostColumns converts a validated field payload into a gorm column
// update map, coercing JSON-decoded values to column types. Explicit
// nulls clear the column (NULL for nullable columns, zero value for
// strings).
func PostColumns(fields datatypes.JSONMap) (map[string]interface{}, error) {
	if err := ValidatePostFields(fields); err != nil {
		return nil, err
	}
	values := make(map[string]interface{}, len(fields))
	for key, v := range fields {
		column := postFieldColumns[key]
		switch key {
		case "order_index":
			if v == nil {
				values[column] = 0
				continue
			}
			n, ok := toInt(v)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a number", common.ErrInvalidInput, key)
			}
			values[column] = n
		case "parent_id", "featured_image_id", "ab_group_id":
			if v == nil {
				values[column] = nil
				continue
			}
			n, ok := toInt(v)
			if !ok || n < 0 {
				return nil, fmt.Errorf("%w: %s must be a positive id", common.ErrInvalidInput, key)
			}
			values[column] = uint64(n)
		case "ab_variation":
			if v == nil {
				values[column] = nil
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", common.ErrInvalidInput, key)
			}
			values[column] = s
		default:
			if v == nil {
				values[column] = ""
				continue
			}
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a string", common.ErrInvalidInput, key)
			}
			values[column] = s
		}
	}
	return values, nil
}

// PostFieldMap extracts the editable fields of a post as a JSON map,
// the shape drafts overlay onto.
func PostFieldMap(p *domain.Post) datatypes.JSONMap {
	m := datatypes.JSONMap{
		"title":            p.Title,
		"slug":             p.Slug,
		"status":           p.Status,
		"excerpt":          p.Excerpt,
		"locale":           p.Locale,
		"meta_title":       p.MetaTitle,
		"meta_description": p.MetaDescription,
		"order_index":      p.OrderIndex,
	}
	if p.ParentID != nil {
		m["parent_id"] = *p.ParentID
	} else {
		m["parent_id"] = nil
	}
	if p.FeaturedImageID != nil {
		m["featured_image_id"] = *p.FeaturedImageID
	} else {
		m["featured_image_id"] = nil
	}
	if p.ABGroupID != nil {
		m["ab_group_id"] = *p.ABGroupID
	} else {
		m["ab_group_id"] = nil
	}
	if p.ABVariation != nil {
		m["ab_variation"] = *p.ABVariation
	} else {
		m["ab_variation"] = nil
	}
	return m
}

// EffectivePostFields resolves the post's editable fields at a tier
func EffectivePostFields(p *domain.Post, tier domain.Tier) datatypes.JSONMap {
	base := PostFieldMap(p)
	if tier == domain.TierSource {
		return base
	}
	return Overlay(base, PickOverlay(tier, p.DraftTiers()))
}

// toInt accepts the numeric shapes JSON decoding produces
func toInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		return int64(n), true
	}
	return 0, false
}
