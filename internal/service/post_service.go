package service

import (
	"context"

	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/pagecraft/pagecraft-backend/internal/repository"
	"github.com/pagecraft/pagecraft-backend/pkg/cache"
	"github.com/pagecraft/pagecraft-backend/pkg/logger"
	"gorm.io/datatypes"
)

// CreatePostRequest creates a new post at the source tier
type CreatePostRequest struct {
	Type   string            `json:"type"`
	Locale string            `json:"locale,omitempty"`
	Slug   string            `json:"slug" binding:"required"`
	Title  string            `json:"title" binding:"required"`
	Status string            `json:"status,omitempty"`
	Fields datatypes.JSONMap `json:"fields,omitempty"` // custom fields
}

// PostView is a tier-resolved read of a post
type PostView struct {
	ID           uint64                 `json:"id"`
	Type         string                 `json:"type"`
	Tier         domain.Tier            `json:"tier"`
	Fields       datatypes.JSONMap      `json:"fields"`
	CustomFields map[string]interface{} `json:"custom_fields,omitempty"`
	TermIDs      []uint64               `json:"term_ids,omitempty"`
	HasReview    bool                   `json:"has_review"`
	HasAIReview  bool                   `json:"has_ai_review"`
}

// PostService handles post lifecycle outside the staging transitions
type PostService struct {
	uow       repository.UnitOfWork
	snapshots *SnapshotService
	gate      AuthorizationGate
	cache     cache.Service
}

// NewPostService creates a new PostService
func NewPostService(uow repository.UnitOfWork, snapshots *SnapshotService, gate AuthorizationGate, cacheSvc cache.Service) *PostService {
	return &PostService{uow: uow, snapshots: snapshots, gate: gate, cache: cacheSvc}
}

// Create inserts a post and records its initial composite revision
func (s *PostService) Create(ctx context.Context, actor Actor, req CreatePostRequest) (*domain.Post, error) {
	if req.Slug == "" || req.Title == "" {
		return nil, common.ErrInvalidInput
	}
	status := req.Status
	if status == "" {
		status = domain.StatusDraft
	}
	if err := ValidatePostFields(datatypes.JSONMap{"status": status}); err != nil {
		return nil, err
	}
	postType := req.Type
	if postType == "" {
		postType = "page"
	}
	if !s.gate.CanUpdateStatus(actor.Role, status, postType) {
		return nil, common.ErrForbidden
	}

	post := &domain.Post{
		Type:   postType,
		Locale: req.Locale,
		Slug:   req.Slug,
		Title:  req.Title,
		Status: status,
	}
	if post.Locale == "" {
		post.Locale = "en"
	}

	err := s.uow.InTx(func(tx repository.UnitOfWork) error {
		if err := tx.Posts().Create(post); err != nil {
			return err
		}
		if len(req.Fields) > 0 {
			if err := tx.CustomFields().Replace(post.ID, req.Fields); err != nil {
				return err
			}
		}
		_, err := s.snapshots.CaptureActiveVersions(tx, post.ID, domain.TierSource, actor.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := s.uow.Activities().Record(&domain.ActivityLog{
		Action:     "post.create",
		UserID:     actor.UserID,
		EntityType: "post",
		EntityID:   post.ID,
	}); err != nil {
		logger.Get().Warn().Err(err).Uint64("post_id", post.ID).Msg("activity log write failed")
	}
	return post, nil
}

// Get returns the tier-resolved view of a post. Resolved views are
// cached per tier and invalidated on every committing mutation.
func (s *PostService) Get(ctx context.Context, postID uint64, tier domain.Tier) (*PostView, error) {
	if s.cache != nil && s.cache.IsAvailable() {
		var cached PostView
		if err := s.cache.GetPost(ctx, postID, string(tier), &cached); err == nil {
			return &cached, nil
		}
	}

	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return nil, err
	}
	customFields, err := s.uow.CustomFields().ValuesByPost(postID)
	if err != nil {
		return nil, err
	}
	termIDs, err := s.uow.Taxonomy().TermIDsByPost(postID)
	if err != nil {
		return nil, err
	}

	view := &PostView{
		ID:           post.ID,
		Type:         post.Type,
		Tier:         tier,
		Fields:       EffectivePostFields(post, tier),
		CustomFields: customFields,
		TermIDs:      termIDs,
		HasReview:    len(post.ReviewDraft) > 0,
		HasAIReview:  len(post.AIReviewDraft) > 0,
	}

	if s.cache != nil && s.cache.IsAvailable() {
		if err := s.cache.SetPost(ctx, postID, string(tier), view); err != nil {
			logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("post cache write failed")
		}
	}
	return view, nil
}

// List returns posts ordered by hierarchy position
func (s *PostService) List(page, limit int) ([]*domain.Post, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.uow.Posts().List(page, limit)
}

// Delete soft-deletes a post
func (s *PostService) Delete(ctx context.Context, actor Actor, postID uint64) error {
	post, err := s.uow.Posts().FindByID(postID)
	if err != nil {
		return err
	}
	if !s.gate.CanUpdateStatus(actor.Role, domain.StatusArchived, post.Type) {
		return common.ErrForbidden
	}
	if err := s.uow.Posts().SoftDelete(postID); err != nil {
		return err
	}

	if s.cache != nil {
		if err := s.cache.InvalidatePost(ctx, postID); err != nil {
			logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("cache invalidation failed")
		}
	}
	if err := s.uow.Activities().Record(&domain.ActivityLog{
		Action:     "post.delete",
		UserID:     actor.UserID,
		EntityType: "post",
		EntityID:   postID,
	}); err != nil {
		logger.Get().Warn().Err(err).Uint64("post_id", postID).Msg("activity log write failed")
	}
	return nil
}
