package service

import (
	"testing"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestValidatePostFields(t *testing.T) {
	assert.NoError(t, ValidatePostFields(datatypes.JSONMap{"title": "x", "status": domain.StatusPublished}))
	assert.ErrorIs(t, ValidatePostFields(datatypes.JSONMap{"body": "x"}), common.ErrInvalidInput)
	assert.ErrorIs(t, ValidatePostFields(datatypes.JSONMap{"status": "live"}), common.ErrInvalidInput)
	assert.ErrorIs(t, ValidatePostFields(datatypes.JSONMap{"status": 1}), common.ErrInvalidInput)
}

func TestPostColumns_NullCoercion(t *testing.T) {
	columns, err := PostColumns(datatypes.JSONMap{
		"excerpt":           nil,
		"order_index":       nil,
		"featured_image_id": nil,
		"ab_variation":      nil,
	})
	require.NoError(t, err)

	// strings clear to empty, numbers to zero, nullable ids to NULL
	assert.Equal(t, "", columns["excerpt"])
	assert.Equal(t, 0, columns["order_index"])
	assert.Nil(t, columns["featured_image_id"])
	assert.Nil(t, columns["ab_variation"])
}

func TestPostColumns_NumericShapes(t *testing.T) {
	// JSON decoding hands ids over as float64
	columns, err := PostColumns(datatypes.JSONMap{
		"parent_id":   float64(12),
		"order_index": float64(3),
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(12), columns["parent_id"])
	assert.Equal(t, int64(3), columns["order_index"])

	_, err = PostColumns(datatypes.JSONMap{"parent_id": "twelve"})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	_, err = PostColumns(datatypes.JSONMap{"parent_id": float64(-4)})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestEffectivePostFields_DraftOverlay(t *testing.T) {
	post := &domain.Post{
		Title:       "Live",
		Slug:        "page",
		Status:      domain.StatusPublished,
		ReviewDraft: datatypes.JSONMap{"title": "Staged", "excerpt": nil},
	}

	fields := EffectivePostFields(post, domain.TierReview)
	assert.Equal(t, "Staged", fields["title"])
	assert.Equal(t, "page", fields["slug"])
	assert.Nil(t, fields["excerpt"])

	// source resolution never sees drafts
	fields = EffectivePostFields(post, domain.TierSource)
	assert.Equal(t, "Live", fields["title"])
}

func TestStaticRegistry_RootKeys(t *testing.T) {
	registry := NewStaticRegistry(map[string][]string{
		"hero":   {"heading", "content"},
		"legacy": {},
	})

	assert.True(t, registry.ValidateFieldPath("hero", "heading"))
	assert.False(t, registry.ValidateFieldPath("hero", "background"))
	// an empty key list accepts anything
	assert.True(t, registry.ValidateFieldPath("legacy", "whatever"))
	// unknown types reject everything
	assert.False(t, registry.ValidateFieldPath("carousel", "slides"))

	// an empty registry is wide open
	assert.True(t, NewStaticRegistry(nil).ValidateFieldPath("hero", "anything"))
}
