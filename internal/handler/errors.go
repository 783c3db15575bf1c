package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagecraft/pagecraft-backend/internal/common"
)

// respondError maps service-layer sentinel errors onto HTTP statuses.
// Anything unmapped is a 500 with the generic message.
func respondError(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, common.ErrPostNotFound),
		errors.Is(err, common.ErrModuleNotFound),
		errors.Is(err, common.ErrPlacementNotFound),
		errors.Is(err, common.ErrRevisionNotFound),
		errors.Is(err, common.ErrNotFound):
		common.Error(c, http.StatusNotFound, message, err)
	case errors.Is(err, common.ErrForbidden):
		common.Error(c, http.StatusForbidden, "Insufficient permissions", err)
	case errors.Is(err, common.ErrUnauthorized):
		common.Error(c, http.StatusUnauthorized, "Unauthorized", err)
	case errors.Is(err, common.ErrInvalidInput),
		errors.Is(err, common.ErrInvalidTier),
		errors.Is(err, common.ErrInvalidFieldPath):
		common.Error(c, http.StatusBadRequest, err.Error(), nil)
	default:
		common.Error(c, http.StatusInternalServerError, message, err)
	}
}
