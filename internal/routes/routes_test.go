package routes

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagecraft/pagecraft-backend/internal/config"
	"github.com/pagecraft/pagecraft-backend/internal/handler"
	"github.com/pagecraft/pagecraft-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter() *gin.Engine {
	router := gin.New()
	Setup(
		router,
		handler.NewPostHandler(nil, nil),
		handler.NewModuleHandler(nil),
		handler.NewRevisionHandler(nil),
		jwt.NewManager("test-secret", time.Hour),
		&config.Config{},
	)
	return router
}

func TestRouteMethods(t *testing.T) {
	router := setupRouter()

	registered := make(map[string]string)
	for _, route := range router.Routes() {
		registered[route.Method+" "+route.Path] = route.Handler
	}

	// revision actions are POSTs, revision reads are GETs
	assert.Contains(t, registered, "POST /api/v1/posts/:id/revisions/:revision_id/compare")
	assert.Contains(t, registered, "POST /api/v1/posts/:id/revisions/:revision_id/revert")
	assert.Contains(t, registered, "GET /api/v1/posts/:id/revisions")
	assert.Contains(t, registered, "GET /api/v1/posts/:id/revisions/:revision_id")

	assert.Contains(t, registered, "PATCH /api/v1/posts/:id")
	assert.Contains(t, registered, "PATCH /api/v1/posts/:id/modules/:module_id/field")
	assert.Contains(t, registered, "DELETE /api/v1/posts/:id/placements/:placement_id")
	assert.NotContains(t, registered, "GET /api/v1/posts/:id/revisions/:revision_id/compare")
}
