package service

import (
	"context"
	"testing"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestCaptureAndRestore_CompositeRoundTrip(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{
		Title:   "Before",
		Slug:    "page",
		Status:  domain.StatusPublished,
		Excerpt: "Original excerpt",
	})
	require.NoError(t, f.CustomFields().Replace(post.ID, map[string]interface{}{"subtitle": "Original"}))
	require.NoError(t, f.Taxonomy().ReplaceTerms(post.ID, []uint64{1, 2}))
	module := f.addModule(&domain.ModuleInstance{
		Type:  "hero",
		Scope: domain.ScopeLocal,
		Props: datatypes.JSONMap{"heading": "Original heading"},
	})
	placement := f.addPlacement(&domain.PostModule{PostID: post.ID, Module: module})

	cache := &recordingCache{}
	svc := NewSnapshotService(f, cache)
	captured, err := svc.CaptureActiveVersions(f, post.ID, domain.TierSource, editor.UserID)
	require.NoError(t, err)

	// mutate everything the snapshot covers
	post.Title = "After"
	post.Excerpt = "Rewritten"
	module.Props = datatypes.JSONMap{"heading": "Changed heading"}
	placement.Overrides = datatypes.JSONMap{"cta": "Added later"}
	require.NoError(t, f.CustomFields().Replace(post.ID, map[string]interface{}{"subtitle": "Changed"}))
	require.NoError(t, f.Taxonomy().ReplaceTerms(post.ID, []uint64{9}))

	result, err := svc.Restore(context.Background(), editor, post.ID, captured.ID)
	require.NoError(t, err)

	assert.Equal(t, "Before", post.Title)
	assert.Equal(t, "Original excerpt", post.Excerpt)
	assert.Equal(t, "Original heading", module.Props["heading"])
	assert.Nil(t, placement.Overrides)
	values, _ := f.CustomFields().ValuesByPost(post.ID)
	assert.Equal(t, "Original", values["subtitle"])
	terms, _ := f.Taxonomy().TermIDsByPost(post.ID)
	assert.Equal(t, []uint64{1, 2}, terms)

	// the revert records its own composite revision
	assert.Equal(t, captured.ID, result.RestoredFrom)
	require.NotZero(t, result.RevisionID)
	assert.NotEqual(t, captured.ID, result.RevisionID)
	rev, err := f.Revisions().FindByID(result.RevisionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotActiveVersions, rev.Kind)
	assert.Equal(t, []uint64{post.ID}, cache.invalidated)
}

func TestRestore_SkipsDeletedModulesAndPlacements(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{Title: "Live"})
	module := f.addModule(&domain.ModuleInstance{Type: "hero", Scope: domain.ScopeLocal})
	placement := f.addPlacement(&domain.PostModule{PostID: post.ID, Module: module})

	svc := NewSnapshotService(f, nil)
	captured, err := svc.CaptureActiveVersions(f, post.ID, domain.TierSource, editor.UserID)
	require.NoError(t, err)

	// the placement and its module vanish after the capture
	require.NoError(t, f.Placements().Delete(placement.ID))
	require.NoError(t, f.Modules().Delete(module.ID))

	result, err := svc.Restore(context.Background(), editor, post.ID, captured.ID)
	require.NoError(t, err)

	// skipped, never recreated
	assert.Equal(t, []uint64{module.ID}, result.SkippedModules)
	assert.Equal(t, []uint64{placement.ID}, result.SkippedPlacements)
	_, err = f.Placements().FindByID(placement.ID)
	assert.ErrorIs(t, err, common.ErrPlacementNotFound)
}

func TestRestore_LeavesLaterModulesUntouched(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{Title: "Live"})
	original := f.addModule(&domain.ModuleInstance{
		Type:  "hero",
		Scope: domain.ScopeLocal,
		Props: datatypes.JSONMap{"heading": "Original"},
	})
	f.addPlacement(&domain.PostModule{PostID: post.ID, Module: original, OrderIndex: 0})

	svc := NewSnapshotService(f, nil)
	captured, err := svc.CaptureActiveVersions(f, post.ID, domain.TierSource, editor.UserID)
	require.NoError(t, err)

	// a module placed after the capture is not part of the snapshot
	later := f.addModule(&domain.ModuleInstance{
		Type:  "cta",
		Scope: domain.ScopeLocal,
		Props: datatypes.JSONMap{"label": "Sign up"},
	})
	laterPlacement := f.addPlacement(&domain.PostModule{PostID: post.ID, Module: later, OrderIndex: 1})
	original.Props = datatypes.JSONMap{"heading": "Changed"}

	result, err := svc.Restore(context.Background(), editor, post.ID, captured.ID)
	require.NoError(t, err)

	// snapshotted state rolls back, the later addition is untouched
	assert.Equal(t, "Original", original.Props["heading"])
	assert.Equal(t, "Sign up", later.Props["label"])
	got, err := f.Placements().FindByID(laterPlacement.ID)
	require.NoError(t, err)
	assert.Equal(t, later.ID, got.ModuleInstanceID)
	assert.Empty(t, result.SkippedModules)
	assert.Empty(t, result.SkippedPlacements)
}

func TestRestore_DraftSnapshotRestoresTierSlot(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{
		Title:       "Live",
		ReviewDraft: datatypes.JSONMap{"title": "Staged"},
	})

	svc := NewSnapshotService(f, nil)
	captured, err := svc.CaptureDraft(f, post.ID, domain.TierReview, editor.UserID)
	require.NoError(t, err)
	assert.Equal(t, domain.SnapshotDraft, captured.Kind)

	// the draft gets discarded, then restored from the revision
	post.ReviewDraft = nil
	_, err = svc.Restore(context.Background(), editor, post.ID, captured.ID)
	require.NoError(t, err)

	assert.Equal(t, "Staged", post.ReviewDraft["title"])
	assert.Equal(t, "Live", post.Title)
}

func TestGet_WrongPostIsNotFound(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{Title: "A"})
	other := f.addPost(&domain.Post{Title: "B"})

	svc := NewSnapshotService(f, nil)
	captured, err := svc.CaptureActiveVersions(f, post.ID, domain.TierSource, editor.UserID)
	require.NoError(t, err)

	_, err = svc.Get(other.ID, captured.ID)
	assert.ErrorIs(t, err, common.ErrRevisionNotFound)
	_, err = svc.Get(post.ID, 9999)
	assert.ErrorIs(t, err, common.ErrRevisionNotFound)
}

func TestCompare_ReportsChangedScalars(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{Title: "Before", Slug: "page"})

	svc := NewSnapshotService(f, nil)
	captured, err := svc.CaptureActiveVersions(f, post.ID, domain.TierSource, editor.UserID)
	require.NoError(t, err)

	post.Title = "After"

	diffs, err := svc.Compare(post.ID, captured.ID)
	require.NoError(t, err)

	byField := make(map[string]FieldDiff, len(diffs))
	for _, d := range diffs {
		byField[d.Field] = d
	}
	title := byField["title"]
	assert.True(t, title.Changed)
	assert.Equal(t, "After", title.Current)
	assert.Equal(t, "Before", title.Snapshot)
	assert.False(t, byField["slug"].Changed)
}

func TestCompare_RejectsDraftRevisions(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{
		Title:       "Live",
		ReviewDraft: datatypes.JSONMap{"title": "Staged"},
	})

	svc := NewSnapshotService(f, nil)
	captured, err := svc.CaptureDraft(f, post.ID, domain.TierReview, editor.UserID)
	require.NoError(t, err)

	_, err = svc.Compare(post.ID, captured.ID)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestList_NewestFirstWithLimit(t *testing.T) {
	f := newFakeUOW()
	post := f.addPost(&domain.Post{Title: "Live"})

	svc := NewSnapshotService(f, nil)
	first, err := svc.CaptureActiveVersions(f, post.ID, domain.TierSource, editor.UserID)
	require.NoError(t, err)
	second, err := svc.CaptureActiveVersions(f, post.ID, domain.TierReview, editor.UserID)
	require.NoError(t, err)

	items, err := svc.List(post.ID, 10)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)

	items, err = svc.List(post.ID, 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)

	_, err = svc.List(9999, 10)
	assert.ErrorIs(t, err, common.ErrPostNotFound)
}
