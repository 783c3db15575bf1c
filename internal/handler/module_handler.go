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

type ModuleHandler struct {
	modules *service.ModuleService
}

func NewModuleHandler(modules *service.ModuleService) *ModuleHandler {
	return &ModuleHandler{modules: modules}
}

// ListModules - GET /api/v1/posts/:id/modules?mode=
func (h *ModuleHandler) ListModules(c *gin.Context) {
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

	views, err := h.modules.List(c.Request.Context(), postID, tier)
	if err != nil {
		respondError(c, err, "Failed to fetch modules")
		return
	}

	common.Success(c, views)
}

// AddModule - POST /api/v1/posts/:id/modules
func (h *ModuleHandler) AddModule(c *gin.Context) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return
	}

	var req service.AddModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.modules.Add(c.Request.Context(), middleware.GetActor(c), postID, req)
	if err != nil {
		respondError(c, err, "Failed to add module")
		return
	}

	countModuleRevision(req.Mode, result.RevisionID)
	common.Created(c, result)
}

// EditModuleField - PATCH /api/v1/posts/:id/modules/:module_id/field
func (h *ModuleHandler) EditModuleField(c *gin.Context) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return
	}
	moduleID, err := ginutil.ParamUint64(c, "module_id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid module id", err)
		return
	}

	var req service.EditFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	result, err := h.modules.EditField(c.Request.Context(), middleware.GetActor(c), postID, moduleID, req)
	if err != nil {
		respondError(c, err, "Failed to edit module field")
		return
	}

	countModuleRevision(req.Mode, result.RevisionID)
	common.Success(c, result)
}

// RemoveModule - DELETE /api/v1/posts/:id/placements/:placement_id?mode=
func (h *ModuleHandler) RemoveModule(c *gin.Context) {
	postID, err := ginutil.ParamUint64(c, "id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid post id", err)
		return
	}
	placementID, err := ginutil.ParamUint64(c, "placement_id")
	if err != nil {
		common.Error(c, http.StatusBadRequest, "Invalid placement id", err)
		return
	}

	result, err := h.modules.Remove(c.Request.Context(), middleware.GetActor(c), postID, placementID, c.Query("mode"))
	if err != nil {
		respondError(c, err, "Failed to remove module")
		return
	}

	countModuleRevision(c.Query("mode"), result.RevisionID)
	common.Success(c, result)
}

// countModuleRevision records the snapshot kind a module mutation
// produced: staged tiers capture drafts, source captures composites.
func countModuleRevision(mode string, revisionID uint64) {
	if revisionID == 0 {
		return
	}
	kind := domain.SnapshotActiveVersions
	if mode == string(domain.TierReview) || mode == string(domain.TierAIReview) {
		kind = domain.SnapshotDraft
	}
	middleware.CountRevision(kind)
}
