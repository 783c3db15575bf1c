package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagecraft/pagecraft-backend/internal/common"
	"github.com/pagecraft/pagecraft-backend/internal/domain"
	"github.com/pagecraft/pagecraft-backend/internal/middleware"
	"github.com/pagecraft/pagecraft-backend/internal/service"
	"github.com/pagecraft/pagecraft-backend/pkg/ginutil"
)

type RevisionHandler struct {
	snapshots *service.SnapshotService
}

func NewRevisionHandler(snapshots *service.SnapshotService) *RevisionHandler {
	return &RevisionHandler{snapshots: snapshots}
}

// ListRevisions - GET /api/v1/posts/:id/revisions
func (h *RevisionHandler) ListRevisions(c *gin.Context) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return
	}
	limit := ginutil.QueryInt(c, "limit", 50)

	items, err := h.snapshots.List(postID, limit)
	if err != nil {
		respondError(c, err, "Failed to fetch revisions")
		return
	}

	common.Success(c, items)
}

// GetRevision - GET /api/v1/posts/:id/revisions/:revision_id
func (h *RevisionHandler) GetRevision(c *gin.Context) {
	postID, revisionID, ok := revisionParams(c)
	if !ok {
		return
	}

	revision, err := h.snapshots.Get(postID, revisionID)
	if err != nil {
		respondError(c, err, "Failed to fetch revision")
		return
	}

	common.Success(c, revision)
}

// RevertRevision - POST /api/v1/posts/:id/revisions/:revision_id/revert
func (h *RevisionHandler) RevertRevision(c *gin.Context) {
	postID, revisionID, ok := revisionParams(c)
	if !ok {
		return
	}

	result, err := h.snapshots.Restore(c.Request.Context(), middleware.GetActor(c), postID, revisionID)
	if err != nil {
		respondError(c, err, "Failed to revert revision")
		return
	}

	middleware.CountRevision(domain.SnapshotActiveVersions)
	common.Success(c, result)
}

// CompareRevision - POST /api/v1/posts/:id/revisions/:revision_id/compare
func (h *RevisionHandler) CompareRevision(c *gin.Context) {
	postID, revisionID, ok := revisionParams(c)
	if !ok {
		return
	}

	diffs, err := h.snapshots.Compare(postID, revisionID)
	if err != nil {
		respondError(c, err, "Failed to compare revision")
		return
	}

	common.Success(c, diffs)
}

func revisionParams(c *gin.Context) (postID, revisionID uint64, ok bool) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return 0, 0, false
	}
	revisionID, err = ginutil.ParamUint64(c, "revision_id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid revision id", err)
		return 0, 0, false
	}
	return postID, revisionID, true
}
