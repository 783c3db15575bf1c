package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/pagecraft/pagecraft-backend/internal/repository"
	"github.com/pagecraft/pagecraft-backend/pkg/logger"
	"gorm.io/datatypes"
)

// ActiveVersionsSnapshot is the composite revision payload: the full
// post, its custom fields and taxonomy assignments, both draft
// payloads, and every placement's module/override tier state.
type ActiveVersionsSnapshot struct {
	Kind          string                 `json:"kind"`
	Post          datatypes.JSONMap      `json:"post"`
	CustomFields  map[string]interface{} `json:"custom_fields"`
	TermIDs       []uint64               `json:"term_ids"`
	ReviewDraft   datatypes.JSONMap      `json:"review_draft,omitempty"`
	AIReviewDraft datatypes.JSONMap      `json:"ai_review_draft,omitempty"`
	Modules       []ModuleSnapshot       `json:"modules"`
}

// ModuleSnapshot is one placement's slice of a composite snapshot
type ModuleSnapshot struct {
	ModuleInstanceID  uint64            `json:"module_instance_id"`
	PostModuleID      uint64            `json:"post_module_id"`
	Props             datatypes.JSONMap `json:"props,omitempty"`
	ReviewProps       datatypes.JSONMap `json:"review_props,omitempty"`
	AIReviewProps     datatypes.JSONMap `json:"ai_review_props,omitempty"`
	Overrides         datatypes.JSONMap `json:"overrides,omitempty"`
	ReviewOverrides   datatypes.JSONMap `json:"review_overrides,omitempty"`
	AIReviewOverrides datatypes.JSONMap `json:"ai_review_overrides,omitempty"`
	ReviewAdded       bool              `json:"review_added,omitempty"`
	ReviewDeleted     bool              `json:"review_deleted,omitempty"`
	AIReviewAdded     bool              `json:"ai_review_added,omitempty"`
	AIReviewDeleted   bool              `json:"ai_review_deleted,omitempty"`
	OrderIndex        int               `json:"order_index"`
	Locked            bool              `json:"locked,omitempty"`
}

// DraftSnapshot is the light single-tier payload recorded by save()
// and inline module edits. Only the slots of one tier are stored.
type DraftSnapshot struct {
	Kind    string             `json:"kind"`
	Tier    domain.Tier        `json:"tier"`
	Fields  datatypes.JSONMap  `json:"fields,omitempty"`
	Modules []DraftModuleSlice `json:"modules,omitempty"`
}

// DraftModuleSlice carries one placement's single-tier state
type DraftModuleSlice struct {
	ModuleInstanceID uint64            `json:"module_instance_id"`
	PostModuleID     uint64            `json:"post_module_id"`
	Props            datatypes.JSONMap `json:"props,omitempty"`
	Overrides        datatypes.JSONMap `json:"overrides,omitempty"`
	Added            bool              `json:"added,omitempty"`
	Deleted          bool              `json:"deleted,omitempty"`
}

// RestoreResult reports what a revert touched. Modules or placements
// deleted since the snapshot was taken are skipped, not recreated:
// restore is exact for scalar values and best-effort for structure.
type RestoreResult struct {
	RevisionID        uint64              `json:"revision_id"`
	RestoredFrom      uint64              `json:"restored_from"`
	SkippedModules    []uint64            `json:"skipped_modules,omitempty"`
	SkippedPlacements []uint64            `json:"skipped_placements,omitempty"`
	SideEffects       []SideEffectFailure `json:"side_effects,omitempty"`
}

// FieldDiff is one entry of a revision compare
type FieldDiff struct {
	Field    string      `json:"field"`
	Current  interface{} `json:"current"`
	Snapshot interface{} `json:"snapshot"`
	Changed  bool        `json:"changed"`
}

// SnapshotService captures and restores revision snapshots
type SnapshotService struct {
	uow   repository.UnitOfWork
	cache PostCache
}

// NewSnapshotService creates a new SnapshotService
func NewSnapshotService(uow repository.UnitOfWork, cache PostCache) *SnapshotService {
	return &SnapshotService{uow: uow, cache: cache}
}

// CaptureActiveVersions reads the committed state of a post and all
// its placements and appends a composite revision. It must run on the
// tx-bound unit of work of the mutation it records, after the
// mutating writes, so the snapshot reflects exactly what committed.
func (s *SnapshotService) CaptureActiveVersions(tx repository.UnitOfWork, postID uint64, mode domain.Tier, userID uint64) (*domain.Revision, error) {
	post, err := tx.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	customFields, err := tx.CustomFields().ValuesByPost(postID)
	if err != nil {
		return nil, err
	}
	termIDs, err := tx.Taxonomy().TermIDsByPost(postID)
	if err != nil {
		return nil, err
	}
	placements, err := tx.Placements().FindByPost(postID)
	if err != nil {
		return nil, err
	}

	snap := ActiveVersionsSnapshot{
		Kind:          domain.SnapshotActiveVersions,
		Post:          PostFieldMap(post),
		CustomFields:  customFields,
		TermIDs:       termIDs,
		ReviewDraft:   post.ReviewDraft,
		AIReviewDraft: post.AIReviewDraft,
		Modules:       make([]ModuleSnapshot, 0, len(placements)),
	}
	for _, pm := range placements {
		ms := ModuleSnapshot{
			ModuleInstanceID:  pm.ModuleInstanceID,
			PostModuleID:      pm.ID,
			Overrides:         pm.Overrides,
			ReviewOverrides:   pm.ReviewOverrides,
			AIReviewOverrides: pm.AIReviewOverrides,
			ReviewAdded:       pm.ReviewAdded,
			ReviewDeleted:     pm.ReviewDeleted,
			AIReviewAdded:     pm.AIReviewAdded,
			AIReviewDeleted:   pm.AIReviewDeleted,
			OrderIndex:        pm.OrderIndex,
			Locked:            pm.Locked,
		}
		if pm.Module != nil {
			ms.Props = pm.Module.Props
			ms.ReviewProps = pm.Module.ReviewProps
			ms.AIReviewProps = pm.Module.AIReviewProps
		}
		snap.Modules = append(snap.Modules, ms)
	}

	return s.appendRevision(tx, postID, mode, domain.SnapshotActiveVersions, snap, userID)
}

// CaptureDraft appends a light single-tier revision holding only the
// draft slots of one tier. Used by save() and inline module edits,
// which do not warrant a full composite snapshot.
func (s *SnapshotService) CaptureDraft(tx repository.UnitOfWork, postID uint64, tier domain.Tier, userID uint64) (*domain.Revision, error) {
	post, err := tx.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	placements, err := tx.Placements().FindByPost(postID)
	if err != nil {
		return nil, err
	}

	snap := DraftSnapshot{
		Kind:   domain.SnapshotDraft,
		Tier:   tier,
		Fields: post.DraftTiers().At(tier),
	}
	for _, pm := range placements {
		slice := DraftModuleSlice{
			ModuleInstanceID: pm.ModuleInstanceID,
			PostModuleID:     pm.ID,
			Overrides:        pm.OverrideTiers().At(tier),
			Added:            pm.AddedAt(tier),
			Deleted:          pm.StagedDeleted(tier),
		}
		if pm.Module != nil {
			slice.Props = pm.Module.PropTiers().At(tier)
		}
		if len(slice.Props) == 0 && len(slice.Overrides) == 0 && !slice.Added && !slice.Deleted {
			continue
		}
		snap.Modules = append(snap.Modules, slice)
	}

	return s.appendRevision(tx, postID, tier, domain.SnapshotDraft, snap, userID)
}

func (s *SnapshotService) appendRevision(tx repository.UnitOfWork, postID uint64, mode domain.Tier, kind string, payload interface{}, userID uint64) (*domain.Revision, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	revision := &domain.Revision{
		PostID:   postID,
		Mode:     mode,
		Kind:     kind,
		Snapshot: datatypes.JSON(raw),
		UserID:   userID,
	}
	if err := tx.Revisions().Create(revision); err != nil {
		return nil, err
	}
	return revision, nil
}

// List returns the revision history of a post, newest first
func (s *SnapshotService) List(postID uint64, limit int) ([]domain.RevisionListItem, error) {
	if _, err := s.uow.Posts().FindByID(postID); err != nil {
		return nil, err
	}
	revisions, err := s.uow.Revisions().FindByPost(postID, limit)
	if err != nil {
		return nil, err
	}
	items := make([]domain.RevisionListItem, len(revisions))
	for i, r := range revisions {
		items[i] = r.ToListItem()
	}
	return items, nil
}

// Get returns one revision with its full snapshot payload
func (s *SnapshotService) Get(postID, revisionID uint64) (*domain.Revision, error) {
	revision, err := s.uow.Revisions().FindByID(revisionID)
	if err != nil {
		return nil, err
	}
	if revision.PostID != postID {
		return nil, common.ErrRevisionNotFound
	}
	return revision, nil
}

// Restore re-applies a stored revision onto the live rows. Post
// fields go back through the same field-level update path the state
// machine uses; custom fields and taxonomy links are replaced
// wholesale; modules and placements that still exist are updated and
// ones deleted since the snapshot are skipped, never recreated.
func (s *SnapshotService) Restore(ctx context.Context, actor Actor, postID, revisionID uint64) (*RestoreResult, error) {
	revision, err := s.Get(postID, revisionID)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{RestoredFrom: revision.ID}
	err = s.uow.InTx(func(tx repository.UnitOfWork) error {
		switch revision.Kind {
		case domain.SnapshotActiveVersions:
			if err := s.restoreComposite(tx, postID, revision, result); err != nil {
				return err
			}
		case domain.SnapshotDraft:
			if err := s.restoreDraft(tx, postID, revision, result); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: unknown snapshot kind %q", common.ErrInvalidInput, revision.Kind)
		}

		// The revert itself is a committing mutation and gets its
		// own composite revision so it can be undone too.
		captured, err := s.CaptureActiveVersions(tx, postID, domain.TierSource, actor.UserID)
		if err != nil {
			return err
		}
		result.RevisionID = captured.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, postID, revision.ID, result)
	return result, nil
}

func (s *SnapshotService) restoreComposite(tx repository.UnitOfWork, postID uint64, revision *domain.Revision, result *RestoreResult) error {
	var snap ActiveVersionsSnapshot
	if err := json.Unmarshal(revision.Snapshot, &snap); err != nil {
		return fmt.Errorf("%w: corrupt snapshot: %v", common.ErrInvalidInput, err)
	}

	columns, err := PostColumns(snap.Post)
	if err != nil {
		return err
	}
	columns["review_draft"] = snap.ReviewDraft
	columns["ai_review_draft"] = snap.AIReviewDraft
	if err := tx.Posts().UpdateColumns(postID, columns); err != nil {
		return err
	}
	if err := tx.CustomFields().Replace(postID, snap.CustomFields); err != nil {
		return err
	}
	if err := tx.Taxonomy().ReplaceTerms(postID, snap.TermIDs); err != nil {
		return err
	}

	for _, ms := range snap.Modules {
		module, err := tx.Modules().FindByID(ms.ModuleInstanceID)
		switch {
		case err == nil:
			module.Props = ms.Props
			module.ReviewProps = ms.ReviewProps
			module.AIReviewProps = ms.AIReviewProps
			if err := tx.Modules().Save(module); err != nil {
				return err
			}
		case isNotFound(err):
			result.SkippedModules = append(result.SkippedModules, ms.ModuleInstanceID)
		default:
			return err
		}

		placement, err := tx.Placements().FindByID(ms.PostModuleID)
		switch {
		case err == nil:
			placement.Overrides = ms.Overrides
			placement.ReviewOverrides = ms.ReviewOverrides
			placement.AIReviewOverrides = ms.AIReviewOverrides
			placement.ReviewAdded = ms.ReviewAdded
			placement.ReviewDeleted = ms.ReviewDeleted
			placement.AIReviewAdded = ms.AIReviewAdded
			placement.AIReviewDeleted = ms.AIReviewDeleted
			placement.OrderIndex = ms.OrderIndex
			placement.Locked = ms.Locked
			if err := tx.Placements().Save(placement); err != nil {
				return err
			}
		case isNotFound(err):
			result.SkippedPlacements = append(result.SkippedPlacements, ms.PostModuleID)
		default:
			return err
		}
	}
	return nil
}

func (s *SnapshotService) restoreDraft(tx repository.UnitOfWork, postID uint64, revision *domain.Revision, result *RestoreResult) error {
	var snap DraftSnapshot
	if err := json.Unmarshal(revision.Snapshot, &snap); err != nil {
		return fmt.Errorf("%w: corrupt snapshot: %v", common.ErrInvalidInput, err)
	}
	if !snap.Tier.IsDraft() {
		return fmt.Errorf("%w: draft snapshot with tier %q", common.ErrInvalidInput, snap.Tier)
	}

	post, err := tx.Posts().FindByID(postID)
	if err != nil {
		return err
	}
	post.SetDraft(snap.Tier, snap.Fields)
	if err := tx.Posts().Save(post); err != nil {
		return err
	}

	for _, slice := range snap.Modules {
		if slice.Props != nil {
			module, err := tx.Modules().FindByID(slice.ModuleInstanceID)
			switch {
			case err == nil:
				module.SetProps(snap.Tier, slice.Props)
				if err := tx.Modules().Save(module); err != nil {
					return err
				}
			case isNotFound(err):
				result.SkippedModules = append(result.SkippedModules, slice.ModuleInstanceID)
			default:
				return err
			}
		}

		placement, err := tx.Placements().FindByID(slice.PostModuleID)
		switch {
		case err == nil:
			placement.SetOverrides(snap.Tier, slice.Overrides)
			switch snap.Tier {
			case domain.TierReview:
				placement.ReviewAdded = slice.Added
				placement.ReviewDeleted = slice.Deleted
			case domain.TierAIReview:
				placement.AIReviewAdded = slice.Added
				placement.AIReviewDeleted = slice.Deleted
			}
			if err := tx.Placements().Save(placement); err != nil {
				return err
			}
		case isNotFound(err):
			result.SkippedPlacements = append(result.SkippedPlacements, slice.PostModuleID)
		default:
			return err
		}
	}
	return nil
}

// Compare diffs the current source state against a stored snapshot
// for the fixed scalar field whitelist.
func (s *SnapshotService) Compare(postID, revisionID uint64) ([]FieldDiff, error) {
	revision, err := s.Get(postID, revisionID)
	if err != nil {
		return nil, err
	}
	if revision.Kind != domain.SnapshotActiveVersions {
		return nil, fmt.Errorf("%w: compare requires an active-versions revision", common.ErrInvalidInput)
	}
	var snap ActiveVersionsSnapshot
	if err := json.Unmarshal(revision.Snapshot, &snap); err != nil {
		return nil, fmt.Errorf("%w: corrupt snapshot: %v", common.ErrInvalidInput, err)
	}

	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	current := PostFieldMap(post)

	diffs := make([]FieldDiff, 0, len(compareFields))
	for _, field := range compareFields {
		cur := normalizeJSON(current[field])
		old := normalizeJSON(snap.Post[field])
		diffs = append(diffs, FieldDiff{
			Field:    field,
			Current:  cur,
			Snapshot: old,
			Changed:  !reflect.DeepEqual(cur, old),
		})
	}
	return diffs, nil
}

func (s *SnapshotService) afterCommit(ctx context.Context, actor Actor, postID, fromRevision uint64, result *RestoreResult) {
	if err := s.uow.Activities().Record(&domain.ActivityLog{
		Action:     "post.revert",
		UserID:     actor.UserID,
		EntityType: "post",
		EntityID:   postID,
		Metadata:   datatypes.JSONMap{"revision_id": fromRevision},
	}); err != nil {
		logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("activity log write failed")
		result.SideEffects = append(result.SideEffects, SideEffectFailure{Name: "activity_log", Err: err.Error()})
	}
	if s.cache != nil {
		if err := s.cache.InvalidatePost(ctx, postID); err != nil {
			logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("cache invalidation failed")
			result.SideEffects = append(result.SideEffects, SideEffectFailure{Name: "cache_invalidation", Err: err.Error()})
		}
	}
}

// normalizeJSON round-trips a value through JSON so live struct
// values and decoded snapshot values compare with the same types
func normalizeJSON(v interface{}) interface{} {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}

// isNotFound matches the repository not-found sentinels
func isNotFound(err error) bool {
	return errors.Is(err, common.ErrModuleNotFound) || errors.Is(err, common.ErrPlacementNotFound) ||
		errors.Is(err, common.ErrPostNotFound) || errors.Is(err, common.ErrRevisionNotFound) ||
		errors.Is(err, common.ErrNotFound)
}
