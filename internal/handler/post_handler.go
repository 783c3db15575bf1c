package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/pagecraft/pagecraft-backend/internal/middleware"
	"github.com/pagecraft/pagecraft-backend/internal/service"
	"github.com/pagecraft/pagecraft-backend/pkg/ginutil"
	"gorm.io/datatypes"
)

// Staging modes accepted by PATCH /posts/:id. A mode either saves into
// a staged tier, folds one, or discards one; the empty mode writes
// source directly.
const (
	ModePublish        = "publish"
	ModeReview         = "review"
	ModeAIReview       = "ai-review"
	ModeApprove        = "approve"
	ModeApproveAI      = "approve-ai-review"
	ModeRejectReview   = "reject-review"
	ModeRejectAIReview = "reject-ai-review"
)

type PostHandler struct {
	posts      *service.PostService
	promotions *service.PromotionService
}

func NewPostHandler(posts *service.PostService, promotions *service.PromotionService) *PostHandler {
	return &PostHandler{posts: posts, promotions: promotions}
}

// CreatePost - POST /api/v1/posts
func (h *PostHandler) CreatePost(c *gin.Context) {
	var req service.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), middleware.GetActor(c), req)
	if err != nil {
		respondError(c, err, "Failed to create post")
		return
	}

	common.Created(c, post)
}

// GetPost - GET /api/v1/posts/:id?mode=
func (h *PostHandler) GetPost(c *gin.Context) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return
	}

	tier := domain.TierSource
	if mode := c.Query("mode"); mode != "" {
		tier, err = domain.ParseTier(mode)
		if err != nil {
			common.Error(c, http.StatusBadRequest, "Invalid mode", err)
			return
		}
	}

	view, err := h.posts.Get(c.Request.Context(), postID, tier)
	if err != nil {
		respondError(c, err, "Failed to fetch post")
		return
	}

	common.Success(c, view)
}

// ListPosts - GET /api/v1/posts
func (h *PostHandler) ListPosts(c *gin.Context) {
	page := ginutil.QueryInt(c, "page", 1)
	limit := ginutil.QueryInt(c, "limit", 20)

	posts, total, err := h.posts.List(page, limit)
	if err != nil {
		respondError(c, err, "Failed to fetch posts")
		return
	}

	common.SuccessWithMeta(c, posts, &common.Meta{Page: page, Limit: limit, Total: total})
}

// UpdatePost - PATCH /api/v1/posts/:id
// The body carries the transition mode alongside the field payload;
// every non-mode key is the payload. Empty or "publish" writes
// source, "review" and "ai-review" save staged drafts, the
// approve/reject modes drive the promotion state machine and take no
// payload. A ?mode= query param is honored when the body has none.
func (h *PostHandler) UpdatePost(c *gin.Context) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return
	}

	mode, payload, ok := stagingRequest(c)
	if !ok {
		return
	}

	actor := middleware.GetActor(c)
	ctx := c.Request.Context()

	var result *service.PromotionResult
	switch mode {
	case "", ModePublish:
		result, err = h.promotions.UpdateSource(ctx, actor, postID, payload)
	case ModeReview, ModeAIReview:
		tier := domain.TierReview
		if mode == ModeAIReview {
			tier = domain.TierAIReview
		}
		result, err = h.promotions.SaveDraft(ctx, actor, postID, tier, payload)
	case ModeApprove:
		result, err = h.promotions.Approve(ctx, actor, postID)
	case ModeApproveAI:
		result, err = h.promotions.PromoteAIReview(ctx, actor, postID)
	case ModeRejectReview:
		result, err = h.promotions.Reject(ctx, actor, postID, domain.TierReview)
	case ModeRejectAIReview:
		result, err = h.promotions.Reject(ctx, actor, postID, domain.TierAIReview)
	default:
		common.Error(c, http.StatusBadRequest, "Unknown mode", nil)
		return
	}
	if err != nil {
		respondError(c, err, "Failed to update post")
		return
	}

	middleware.CountPromotion(mode, result.Promoted)
	if result.RevisionID != 0 {
		kind := domain.SnapshotActiveVersions
		if mode == ModeReview || mode == ModeAIReview {
			kind = domain.SnapshotDraft
		}
		middleware.CountRevision(kind)
	}
	common.Success(c, result)
}

// DeletePost - DELETE /api/v1/posts/:id
func (h *PostHandler) DeletePost(c *gin.Context) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return
	}

	if err := h.posts.Delete(c.Request.Context(), middleware.GetActor(c), postID); err != nil {
		respondError(c, err, "Failed to delete post")
		return
	}

	common.Success(c, gin.H{"deleted": true})
}

// stagingRequest reads a PATCH body as a sparse JSON field map and
// pops the "mode" key out of it. An absent or empty body is a valid
// request for the modes that carry no payload; the body mode wins
// over the query param.
func stagingRequest(c *gin.Context) (string, datatypes.JSONMap, bool) {
	payload := datatypes.JSONMap{}
	if c.Request.Body != nil && c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&payload); err != nil {
			common.Error(c, http.StatusBadRequest, "Invalid request body", err)
			return "", nil, false
		}
	}

	mode := c.Query("mode")
	if raw, ok := payload["mode"]; ok {
		s, ok := raw.(string)
		if !ok {
			common.Error(c, http.StatusBadRequest, "mode must be a string", nil)
			return "", nil, false
		}
		mode = s
		delete(payload, "mode")
	}
	return mode, payload, true
}
