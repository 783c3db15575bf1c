package service

import (
	"context"
	"fmt"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/pagecraft/pagecraft-backend/internal/repository"
	"github.com/pagecraft/pagecraft-backend/pkg/logger"
	"gorm.io/datatypes"
)

// PromotionResult reports the outcome of a state-machine transition.
// Promoted=false with a nil error means the transition was a no-op
// (nothing staged), which is distinct from an actual failure.
type PromotionResult struct {
	Promoted    bool                `json:"promoted"`
	RevisionID  uint64              `json:"revision_id,omitempty"`
	Status      string              `json:"status,omitempty"`
	SideEffects []SideEffectFailure `json:"side_effects,omitempty"`
}

// PromotionService is the staging state machine. Each transition
// takes an explicit Actor, checks the authorization gate before any
// write, mutates draft or source columns inside one transaction, and
// records a revision on every committing path.
type PromotionService struct {
	uow       repository.UnitOfWork
	snapshots *SnapshotService
	gate      AuthorizationGate
	cache     PostCache
	notifier  Notifier
}

// NewPromotionService creates a new PromotionService
func NewPromotionService(uow repository.UnitOfWork, snapshots *SnapshotService, gate AuthorizationGate, cache PostCache, notifier Notifier) *PromotionService {
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	return &PromotionService{uow: uow, snapshots: snapshots, gate: gate, cache: cache, notifier: notifier}
}

// SaveDraft merges a sparse field payload into the post's draft for a
// staged tier. Keys already in the draft are overwritten; keys absent
// from the payload keep their staged value. Records a single-tier
// draft revision.
func (s *PromotionService) SaveDraft(ctx context.Context, actor Actor, postID uint64, tier domain.Tier, payload datatypes.JSONMap) (*PromotionResult, error) {
	if !tier.IsDraft() {
		return nil, fmt.Errorf("%w: cannot save draft at tier %q", common.ErrInvalidInput, tier)
	}
	if err := ValidatePostFields(payload); err != nil {
		return nil, err
	}

	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	if !s.gate.CanSaveDraft(actor.Role, tier, post.Type) {
		return nil, common.ErrForbidden
	}

	merged := Overlay(post.DraftTiers().At(tier), payload)
	result := &PromotionResult{Promoted: false, Status: post.Status}
	err = s.uow.InTx(func(tx repository.UnitOfWork) error {
		if err := tx.Posts().UpdateColumns(postID, map[string]interface{}{draftColumn(tier): merged}); err != nil {
			return err
		}
		revision, err := s.snapshots.CaptureDraft(tx, postID, tier, actor.UserID)
		if err != nil {
			return err
		}
		result.RevisionID = revision.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, postID, "post.save_draft", tier, result)
	return result, nil
}

// Approve folds the effective review values down into the source
// tier: post fields, module props, placement overrides. Placements
// staged for removal are actually removed; staged flags are cleared
// on survivors. A composite revision is recorded inside the same
// transaction. If nothing is staged at review across the post, its
// modules, and its placements, the call is a reported no-op.
func (s *PromotionService) Approve(ctx context.Context, actor Actor, postID uint64) (*PromotionResult, error) {
	result := &PromotionResult{}
	err := s.uow.InTx(func(tx repository.UnitOfWork) error {
		post, err := tx.Posts().FindByID(postID)
		if err != nil {
			return err
		}
		placements, err := tx.Placements().FindByPost(postID)
		if err != nil {
			return err
		}
		if !stagedAt(post, placements, domain.TierReview) {
			result.Promoted = false
			result.Status = post.Status
			return nil
		}

		if !s.gate.CanApprove(actor.Role, domain.TierReview, post.Type) {
			return common.ErrForbidden
		}
		targetStatus := post.Status
		if v, ok := post.ReviewDraft["status"].(string); ok {
			targetStatus = v
		}
		if !s.gate.CanUpdateStatus(actor.Role, targetStatus, post.Type) {
			return common.ErrForbidden
		}

		columns := map[string]interface{}{"review_draft": nil}
		if len(post.ReviewDraft) > 0 {
			fieldColumns, err := PostColumns(post.ReviewDraft)
			if err != nil {
				return err
			}
			for k, v := range fieldColumns {
				columns[k] = v
			}
		}
		if err := tx.Posts().UpdateColumns(postID, columns); err != nil {
			return err
		}

		if err := s.foldPlacements(tx, placements, domain.TierReview); err != nil {
			return err
		}

		revision, err := s.snapshots.CaptureActiveVersions(tx, postID, domain.TierReview, actor.UserID)
		if err != nil {
			return err
		}
		result.Promoted = true
		result.RevisionID = revision.ID
		result.Status = targetStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Promoted {
		return result, nil
	}

	s.afterCommit(ctx, actor, postID, "post.approve", domain.TierReview, result)
	return result, nil
}

// PromoteAIReview folds machine-suggested ai-review values into the
// review tier (not source): the human draft becomes the merge of its
// own edits with the accepted suggestions, and ai-review state is
// cleared. Records a composite revision tagged review.
func (s *PromotionService) PromoteAIReview(ctx context.Context, actor Actor, postID uint64) (*PromotionResult, error) {
	result := &PromotionResult{}
	err := s.uow.InTx(func(tx repository.UnitOfWork) error {
		post, err := tx.Posts().FindByID(postID)
		if err != nil {
			return err
		}
		placements, err := tx.Placements().FindByPost(postID)
		if err != nil {
			return err
		}
		if !stagedAt(post, placements, domain.TierAIReview) {
			result.Promoted = false
			result.Status = post.Status
			return nil
		}
		if !s.gate.CanApprove(actor.Role, domain.TierAIReview, post.Type) {
			return common.ErrForbidden
		}

		mergedDraft := Overlay(post.ReviewDraft, post.AIReviewDraft)
		columns := map[string]interface{}{
			"review_draft":    mergedDraft,
			"ai_review_draft": nil,
		}
		if err := tx.Posts().UpdateColumns(postID, columns); err != nil {
			return err
		}

		seen := make(map[uint64]bool)
		for _, pm := range placements {
			if m := pm.Module; m != nil && !seen[m.ID] {
				seen[m.ID] = true
				if len(m.AIReviewProps) > 0 {
					m.ReviewProps = Overlay(m.ReviewProps, m.AIReviewProps)
					m.AIReviewProps = nil
					if err := tx.Modules().Save(m); err != nil {
						return err
					}
				}
			}
			changed := false
			if len(pm.AIReviewOverrides) > 0 {
				pm.ReviewOverrides = Overlay(pm.ReviewOverrides, pm.AIReviewOverrides)
				pm.AIReviewOverrides = nil
				changed = true
			}
			if pm.AIReviewAdded {
				pm.ReviewAdded = true
				pm.AIReviewAdded = false
				changed = true
			}
			if pm.AIReviewDeleted {
				pm.ReviewDeleted = true
				pm.AIReviewDeleted = false
				changed = true
			}
			if changed {
				if err := tx.Placements().Save(pm); err != nil {
					return err
				}
			}
		}

		revision, err := s.snapshots.CaptureActiveVersions(tx, postID, domain.TierReview, actor.UserID)
		if err != nil {
			return err
		}
		result.Promoted = true
		result.RevisionID = revision.ID
		result.Status = post.Status
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !result.Promoted {
		return result, nil
	}

	s.afterCommit(ctx, actor, postID, "post.promote_ai_review", domain.TierAIReview, result)
	return result, nil
}

// Reject discards all staged state at a tier without touching source.
// Placements staged for insertion at that tier are removed entirely;
// staged-removal flags are cleared so the placement reappears. No
// revision is recorded, only an activity entry.
func (s *PromotionService) Reject(ctx context.Context, actor Actor, postID uint64, tier domain.Tier) (*PromotionResult, error) {
	if !tier.IsDraft() {
		return nil, fmt.Errorf("%w: cannot reject tier %q", common.ErrInvalidInput, tier)
	}

	result := &PromotionResult{}
	err := s.uow.InTx(func(tx repository.UnitOfWork) error {
		post, err := tx.Posts().FindByID(postID)
		if err != nil {
			return err
		}
		result.Status = post.Status

		if err := tx.Posts().UpdateColumns(postID, map[string]interface{}{draftColumn(tier): nil}); err != nil {
			return err
		}

		placements, err := tx.Placements().FindByPost(postID)
		if err != nil {
			return err
		}
		seen := make(map[uint64]bool)
		for _, pm := range placements {
			if m := pm.Module; m != nil && !seen[m.ID] {
				seen[m.ID] = true
				if len(m.PropTiers().At(tier)) > 0 {
					m.SetProps(tier, nil)
					if err := tx.Modules().Save(m); err != nil {
						return err
					}
				}
			}
			if pm.AddedAt(tier) {
				if err := s.removePlacement(tx, pm); err != nil {
					return err
				}
				continue
			}
			changed := false
			if len(pm.OverrideTiers().At(tier)) > 0 {
				pm.SetOverrides(tier, nil)
				changed = true
			}
			if pm.StagedDeleted(tier) {
				if tier == domain.TierReview {
					pm.ReviewDeleted = false
				} else {
					pm.AIReviewDeleted = false
				}
				changed = true
			}
			if changed {
				if err := tx.Placements().Save(pm); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, postID, "post.reject_"+string(tier), tier, result)
	return result, nil
}

// UpdateSource writes directly to source columns, bypassing drafts.
// The payload may carry post fields plus a "fields" object (custom
// fields, replaced wholesale) and a "term_ids" array (taxonomy
// assignments, replaced wholesale). Records a composite revision.
func (s *PromotionService) UpdateSource(ctx context.Context, actor Actor, postID uint64, payload datatypes.JSONMap) (*PromotionResult, error) {
	customFields, termIDs, fields, err := splitSourcePayload(payload)
	if err != nil {
		return nil, err
	}
	if err := ValidatePostFields(fields); err != nil {
		return nil, err
	}

	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	targetStatus := post.Status
	if v, ok := fields["status"].(string); ok {
		targetStatus = v
	}
	if !s.gate.CanUpdateStatus(actor.Role, targetStatus, post.Type) {
		return nil, common.ErrForbidden
	}

	result := &PromotionResult{Promoted: true, Status: targetStatus}
	err = s.uow.InTx(func(tx repository.UnitOfWork) error {
		if len(fields) > 0 {
			columns, err := PostColumns(fields)
			if err != nil {
				return err
			}
			if err := tx.Posts().UpdateColumns(postID, columns); err != nil {
				return err
			}
		}
		if customFields != nil {
			if err := tx.CustomFields().Replace(postID, customFields); err != nil {
				return err
			}
		}
		if termIDs != nil {
			if err := tx.Taxonomy().ReplaceTerms(postID, termIDs); err != nil {
				return err
			}
		}
		revision, err := s.snapshots.CaptureActiveVersions(tx, postID, domain.TierSource, actor.UserID)
		if err != nil {
			return err
		}
		result.RevisionID = revision.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, postID, "post.update", domain.TierSource, result)
	return result, nil
}

// foldPlacements applies review-tier module and placement state onto
// source during approval. Global modules shared across placements are
// folded once.
func (s *PromotionService) foldPlacements(tx repository.UnitOfWork, placements []*domain.PostModule, tier domain.Tier) error {
	seen := make(map[uint64]bool)
	for _, pm := range placements {
		if m := pm.Module; m != nil && !seen[m.ID] {
			seen[m.ID] = true
			if len(m.PropTiers().At(tier)) > 0 {
				m.Props = Overlay(m.Props, m.PropTiers().At(tier))
				m.SetProps(tier, nil)
				if err := tx.Modules().Save(m); err != nil {
					return err
				}
			}
		}

		if pm.StagedDeleted(tier) {
			if err := s.removePlacement(tx, pm); err != nil {
				return err
			}
			continue
		}

		changed := false
		if len(pm.OverrideTiers().At(tier)) > 0 {
			pm.Overrides = Overlay(pm.Overrides, pm.OverrideTiers().At(tier))
			pm.SetOverrides(tier, nil)
			changed = true
		}
		if pm.AddedAt(tier) {
			changed = true
		}
		if tier == domain.TierReview {
			if pm.ReviewAdded || pm.ReviewDeleted {
				changed = true
			}
			pm.ReviewAdded = false
			pm.ReviewDeleted = false
		}
		if changed {
			if err := tx.Placements().Save(pm); err != nil {
				return err
			}
		}
	}
	return nil
}

// removePlacement deletes a placement row and garbage-collects its
// module instance when it was local and nothing else references it
func (s *PromotionService) removePlacement(tx repository.UnitOfWork, pm *domain.PostModule) error {
	if err := tx.Placements().Delete(pm.ID); err != nil {
		return err
	}
	if m := pm.Module; m != nil && m.Scope == domain.ScopeLocal {
		count, err := tx.Placements().CountByModule(m.ID)
		if err != nil {
			return err
		}
		if count == 0 {
			return tx.Modules().Delete(m.ID)
		}
	}
	return nil
}

// stagedAt inspects the three places a tier can hold staged content:
// the post draft, any module's tier props, and any placement's tier
// overrides or add/delete flags. An editor may have touched only a
// module without touching post fields.
func stagedAt(post *domain.Post, placements []*domain.PostModule, tier domain.Tier) bool {
	if len(post.DraftTiers().At(tier)) > 0 {
		return true
	}
	for _, pm := range placements {
		if pm.Module != nil && len(pm.Module.PropTiers().At(tier)) > 0 {
			return true
		}
		if len(pm.OverrideTiers().At(tier)) > 0 || pm.AddedAt(tier) || pm.StagedDeleted(tier) {
			return true
		}
	}
	return false
}

func draftColumn(tier domain.Tier) string {
	if tier == domain.TierAIReview {
		return "ai_review_draft"
	}
	return "review_draft"
}

// afterCommit runs the best-effort side effects of a committed
// transition. Failures are logged and reported on the result, never
// returned as the primary error.
func (s *PromotionService) afterCommit(ctx context.Context, actor Actor, postID uint64, action string, tier domain.Tier, result *PromotionResult) {
	if err := s.uow.Activities().Record(&domain.ActivityLog{
		Action:     action,
		UserID:     actor.UserID,
		EntityType: "post",
		EntityID:   postID,
		Metadata:   datatypes.JSONMap{"tier": string(tier), "revision_id": result.RevisionID},
	}); err != nil {
		logger.Get().Warn().Err(err).Str("action", action).Uint64("post_id", postID).Msg("activity log write failed")
		result.SideEffects = append(result.SideEffects, SideEffectFailure{Name: "activity_log", Err: err.Error()})
	}
	if s.cache != nil {
		if err := s.cache.InvalidatePost(ctx, postID); err != nil {
			logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("cache invalidation failed")
			result.SideEffects = append(result.SideEffects, SideEffectFailure{Name: "cache_invalidation", Err: err.Error()})
		}
	}
	if err := s.notifier.PostChanged(ctx, postID, tier, action); err != nil {
		logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("notifier dispatch failed")
		result.SideEffects = append(result.SideEffects, SideEffectFailure{Name: "notifier", Err: err.Error()})
	}
}

// splitSourcePayload pulls the custom-field object and term id array
// out of a source-update payload, leaving post fields behind
func splitSourcePayload(payload datatypes.JSONMap) (map[string]interface{}, []uint64, datatypes.JSONMap, error) {
	fields := make(datatypes.JSONMap, len(payload))
	for k, v := range payload {
		fields[k] = v
	}

	var customFields map[string]interface{}
	if raw, ok := fields["fields"]; ok {
		delete(fields, "fields")
		if raw != nil {
			m, ok := raw.(map[string]interface{})
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: fields must be an object", common.ErrInvalidInput)
			}
			customFields = m
		} else {
			customFields = map[string]interface{}{}
		}
	}

	var termIDs []uint64
	if raw, ok := fields["term_ids"]; ok {
		delete(fields, "term_ids")
		termIDs = []uint64{}
		if raw != nil {
			list, ok := raw.([]interface{})
			if !ok {
				return nil, nil, nil, fmt.Errorf("%w: term_ids must be an array", common.ErrInvalidInput)
			}
			for _, item := range list {
				n, ok := toInt(item)
				if !ok || n < 0 {
					return nil, nil, nil, fmt.Errorf("%w: term_ids must contain positive ids", common.ErrInvalidInput)
				}
				termIDs = append(termIDs, uint64(n))
			}
		}
	}

	return customFields, termIDs, fields, nil
}
