package service

import (
	"context"
	"fmt"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/pagecraft/pagecraft-backend/internal/repository"
	"github.com/pagecraft/pagecraft-backend/pkg/cache"
	"github.com/pagecraft/pagecraft-backend/pkg/logger"
	"gorm.io/datatypes"
)

// EditFieldRequest is an inline edit of one module field
type EditFieldRequest struct {
	Path  string      `json:"path" binding:"required"`
	Value interface{} `json:"value"`
	Scope string      `json:"scope,omitempty"` // props (default) or overrides
	Mode  string      `json:"mode,omitempty"`  // tier, default source
}

// AddModuleRequest places a new or existing module on a post
type AddModuleRequest struct {
	Type       string            `json:"type"`
	Scope      string            `json:"scope,omitempty"` // local (default) or global
	GlobalSlug string            `json:"global_slug,omitempty"`
	Props      datatypes.JSONMap `json:"props,omitempty"`
	OrderIndex *int              `json:"order_index,omitempty"`
	Locked     bool              `json:"locked,omitempty"`
	Mode       string            `json:"mode,omitempty"` // tier, default source
}

// PlacementView is the tier-resolved render data for one placement
type PlacementView struct {
	PlacementID uint64            `json:"placement_id"`
	ModuleID    uint64            `json:"module_id"`
	Type        string            `json:"type"`
	Scope       string            `json:"scope"`
	OrderIndex  int               `json:"order_index"`
	Locked      bool              `json:"locked"`
	Props       datatypes.JSONMap `json:"props"`
}

// ModuleEditResult reports a module mutation
type ModuleEditResult struct {
	PlacementID uint64              `json:"placement_id"`
	ModuleID    uint64              `json:"module_id"`
	RevisionID  uint64              `json:"revision_id,omitempty"`
	SideEffects []SideEffectFailure `json:"side_effects,omitempty"`
}

// ModuleService mutates modules and placements through the same
// tier-aware write rules as the post state machine.
type ModuleService struct {
	uow       repository.UnitOfWork
	snapshots *SnapshotService
	gate      AuthorizationGate
	registry  ModuleTypeRegistry
	cache     cache.Service
}

// NewModuleService creates a new ModuleService
func NewModuleService(uow repository.UnitOfWork, snapshots *SnapshotService, gate AuthorizationGate, registry ModuleTypeRegistry, cacheSvc cache.Service) *ModuleService {
	return &ModuleService{uow: uow, snapshots: snapshots, gate: gate, registry: registry, cache: cacheSvc}
}

// List returns the placements visible at a tier with their effective
// props resolved. Resolved lists are cached per tier and invalidated
// alongside the post on every committing mutation.
func (s *ModuleService) List(ctx context.Context, postID uint64, tier domain.Tier) ([]PlacementView, error) {
	if s.cache != nil && s.cache.IsAvailable() {
		var cached []PlacementView
		if err := s.cache.GetModules(ctx, postID, string(tier), &cached); err == nil {
			return cached, nil
		}
	}

	if _, err := s.uow.Posts().FindByID(postID); err != nil {
		return nil, err
	}
	placements, err := s.uow.Placements().FindByPost(postID)
	if err != nil {
		return nil, err
	}
	views := make([]PlacementView, 0, len(placements))
	for _, pm := range placements {
		if pm.Module == nil || !pm.VisibleAt(tier) {
			continue
		}
		views = append(views, PlacementView{
			PlacementID: pm.ID,
			ModuleID:    pm.ModuleInstanceID,
			Type:        pm.Module.Type,
			Scope:       pm.Module.Scope,
			OrderIndex:  pm.OrderIndex,
			Locked:      pm.Locked,
			Props:       EffectiveProps(pm.Module, pm, tier),
		})
	}

	if s.cache != nil && s.cache.IsAvailable() {
		if err := s.cache.SetModules(ctx, postID, string(tier), views); err != nil {
			logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("module cache write failed")
		}
	}
	return views, nil
}

// EditField writes one value into a module's props or a placement's
// overrides at a tier, addressed by a dot/bracket field path. The
// path's root key is validated against the module type registry.
func (s *ModuleService) EditField(ctx context.Context, actor Actor, postID, moduleID uint64, req EditFieldRequest) (*ModuleEditResult, error) {
	tier, err := tierFromMode(req.Mode)
	if err != nil {
		return nil, err
	}
	segments, err := parseFieldPath(req.Path)
	if err != nil {
		return nil, err
	}

	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, tier, post); err != nil {
		return nil, err
	}

	placement, err := s.uow.Placements().FindByPostAndModule(postID, moduleID)
	if err != nil {
		return nil, err
	}
	module := placement.Module
	if module == nil {
		return nil, common.ErrModuleNotFound
	}
	if s.registry != nil && !s.registry.ValidateFieldPath(module.Type, segments[0].key) {
		return nil, fmt.Errorf("%w: unknown field %q for module type %q", common.ErrInvalidInput, segments[0].key, module.Type)
	}

	editOverrides := req.Scope == "overrides"
	if req.Scope != "" && req.Scope != "props" && req.Scope != "overrides" {
		return nil, fmt.Errorf("%w: scope must be props or overrides", common.ErrInvalidInput)
	}
	if editOverrides && module.Scope != domain.ScopeGlobal {
		return nil, fmt.Errorf("%w: overrides apply to global modules only", common.ErrInvalidInput)
	}
	if module.Scope == domain.ScopeGlobal && !editOverrides && tier == domain.TierSource {
		// Shared props of a global module must not be edited through
		// a post placement at the live tier.
		return nil, fmt.Errorf("%w: edit global module props via overrides", common.ErrInvalidInput)
	}

	result := &ModuleEditResult{PlacementID: placement.ID, ModuleID: module.ID}
	err = s.uow.InTx(func(tx repository.UnitOfWork) error {
		if editOverrides {
			target := cloneMap(placement.OverrideTiers().At(tier))
			if err := setAtPath(target, segments, req.Value); err != nil {
				return err
			}
			placement.SetOverrides(tier, target)
			if err := tx.Placements().Save(placement); err != nil {
				return err
			}
		} else {
			target := cloneMap(module.PropTiers().At(tier))
			if err := setAtPath(target, segments, req.Value); err != nil {
				return err
			}
			module.SetProps(tier, target)
			if err := tx.Modules().Save(module); err != nil {
				return err
			}
		}

		revision, err := s.capture(tx, postID, tier, actor.UserID)
		if err != nil {
			return err
		}
		result.RevisionID = revision.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, postID, "module.edit_field", result)
	return result, nil
}

// Add places a module on a post. Under a staged tier the placement is
// flagged as staged-for-insertion and stays invisible to the source
// render until approved.
func (s *ModuleService) Add(ctx context.Context, actor Actor, postID uint64, req AddModuleRequest) (*ModuleEditResult, error) {
	tier, err := tierFromMode(req.Mode)
	if err != nil {
		return nil, err
	}

	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, tier, post); err != nil {
		return nil, err
	}

	scope := req.Scope
	if scope == "" {
		scope = domain.ScopeLocal
	}
	if scope != domain.ScopeLocal && scope != domain.ScopeGlobal {
		return nil, fmt.Errorf("%w: scope must be local or global", common.ErrInvalidInput)
	}

	result := &ModuleEditResult{}
	err = s.uow.InTx(func(tx repository.UnitOfWork) error {
		var module *domain.ModuleInstance
		if scope == domain.ScopeGlobal && req.GlobalSlug != "" {
			existing, err := tx.Modules().FindGlobalBySlug(req.GlobalSlug)
			switch {
			case err == nil:
				module = existing
			case isNotFound(err):
				// fall through to create
			default:
				return err
			}
		}
		if module == nil {
			if req.Type == "" {
				return fmt.Errorf("%w: module type is required", common.ErrInvalidInput)
			}
			module = &domain.ModuleInstance{
				Type:  req.Type,
				Scope: scope,
				Props: req.Props,
			}
			if scope == domain.ScopeGlobal {
				if req.GlobalSlug == "" {
					return fmt.Errorf("%w: global modules need a slug", common.ErrInvalidInput)
				}
				slug := req.GlobalSlug
				module.GlobalSlug = &slug
			}
			if err := tx.Modules().Create(module); err != nil {
				return err
			}
		}

		placements, err := tx.Placements().FindByPost(postID)
		if err != nil {
			return err
		}
		orderIndex := len(placements)
		if req.OrderIndex != nil {
			orderIndex = *req.OrderIndex
		}
		placement := &domain.PostModule{
			PostID:           postID,
			ModuleInstanceID: module.ID,
			OrderIndex:       orderIndex,
			Locked:           req.Locked,
			ReviewAdded:      tier == domain.TierReview,
			AIReviewAdded:    tier == domain.TierAIReview,
		}
		if err := tx.Placements().Create(placement); err != nil {
			return err
		}

		result.PlacementID = placement.ID
		result.ModuleID = module.ID
		revision, err := s.capture(tx, postID, tier, actor.UserID)
		if err != nil {
			return err
		}
		result.RevisionID = revision.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, postID, "module.add", result)
	return result, nil
}

// Remove takes a placement off a post. At source the row is deleted;
// under a staged tier the placement is flagged staged-for-removal so
// rejection can restore it — unless it was itself staged-for-insertion
// at that tier, in which case the add is simply undone.
func (s *ModuleService) Remove(ctx context.Context, actor Actor, postID, placementID uint64, mode string) (*ModuleEditResult, error) {
	tier, err := tierFromMode(mode)
	if err != nil {
		return nil, err
	}

	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(actor, tier, post); err != nil {
		return nil, err
	}

	placement, err := s.uow.Placements().FindByID(placementID)
	if err != nil {
		return nil, err
	}
	if placement.PostID != postID {
		return nil, common.ErrPlacementNotFound
	}

	result := &ModuleEditResult{PlacementID: placement.ID, ModuleID: placement.ModuleInstanceID}
	err = s.uow.InTx(func(tx repository.UnitOfWork) error {
		if tier == domain.TierSource || placement.AddedAt(tier) {
			if err := s.deletePlacement(tx, placement); err != nil {
				return err
			}
		} else {
			if tier == domain.TierReview {
				placement.ReviewDeleted = true
			} else {
				placement.AIReviewDeleted = true
			}
			if err := tx.Placements().Save(placement); err != nil {
				return err
			}
		}

		revision, err := s.capture(tx, postID, tier, actor.UserID)
		if err != nil {
			return err
		}
		result.RevisionID = revision.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, actor, postID, "module.remove", result)
	return result, nil
}

// capture records the revision matching the tier of the mutation:
// staged tiers get a light draft snapshot, source commits get the
// full composite.
func (s *ModuleService) capture(tx repository.UnitOfWork, postID uint64, tier domain.Tier, userID uint64) (*domain.Revision, error) {
	if tier.IsDraft() {
		return s.snapshots.CaptureDraft(tx, postID, tier, userID)
	}
	return s.snapshots.CaptureActiveVersions(tx, postID, domain.TierSource, userID)
}

func (s *ModuleService) deletePlacement(tx repository.UnitOfWork, pm *domain.PostModule) error {
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

// authorize applies the tier-appropriate gate check: staged tiers use
// the draft-save permission, source edits require the level to commit
// at the post's current status.
func (s *ModuleService) authorize(actor Actor, tier domain.Tier, post *domain.Post) error {
	if tier.IsDraft() {
		if !s.gate.CanSaveDraft(actor.Role, tier, post.Type) {
			return common.ErrForbidden
		}
		return nil
	}
	if !s.gate.CanUpdateStatus(actor.Role, post.Status, post.Type) {
		return common.ErrForbidden
	}
	return nil
}

func (s *ModuleService) afterCommit(ctx context.Context, actor Actor, postID uint64, action string, result *ModuleEditResult) {
	if err := s.uow.Activities().Record(&domain.ActivityLog{
		Action:     action,
		UserID:     actor.UserID,
		EntityType: "post",
		EntityID:   postID,
		Metadata:   datatypes.JSONMap{"placement_id": result.PlacementID, "module_id": result.ModuleID},
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
}

// tierFromMode maps an optional request mode to a tier
func tierFromMode(mode string) (domain.Tier, error) {
	if mode == "" {
		return domain.TierSource, nil
	}
	tier, err := domain.ParseTier(mode)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}
	return tier, nil
}

// cloneMap shallow-copies a JSON map so staged edits never alias the
// loaded row's map
func cloneMap(m datatypes.JSONMap) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
