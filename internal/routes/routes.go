package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/pagecraft/pagecraft-backend/internal/config"
	"github.com/pagecraft/pagecraft-backend/internal/handler"
	"github.com/pagecraft/pagecraft-backend/internal/middleware"
	"github.com/pagecraft/pagecraft-backend/pkg/jwt"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup configures all API routes
func Setup(
	router *gin.Engine,
	postHandler *handler.PostHandler,
	moduleHandler *handler.ModuleHandler,
	revisionHandler *handler.RevisionHandler,
	jwtManager *jwt.Manager,
	cfg *config.Config,
) {
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())

	corsConfig := cors.DefaultConfig()
	if len(cfg.CORS.AllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.CORS.AllowOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", "X-Request-ID")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	auth := middleware.JWTAuth(jwtManager)

	posts := api.Group("/posts")
	{
		// Reads are public; every mutation is authenticated and runs
		// through the staging gate inside the services.
		posts.GET("", postHandler.ListPosts)
		posts.GET("/:id", postHandler.GetPost)
		posts.POST("", auth, postHandler.CreatePost)
		posts.PATCH("/:id", auth, postHandler.UpdatePost)
		posts.DELETE("/:id", auth, postHandler.DeletePost)

		modules := posts.Group("/:id/modules")
		{
			modules.GET("", moduleHandler.ListModules)
			modules.POST("", auth, moduleHandler.AddModule)
			modules.PATCH("/:module_id/field", auth, moduleHandler.EditModuleField)
		}
		posts.DELETE("/:id/placements/:placement_id", auth, moduleHandler.RemoveModule)

		revisions := posts.Group("/:id/revisions", auth)
		{
			revisions.GET("", revisionHandler.ListRevisions)
			revisions.GET("/:revision_id", revisionHandler.GetRevision)
			revisions.POST("/:revision_id/compare", revisionHandler.CompareRevision)
			revisions.POST("/:revision_id/revert", revisionHandler.RevertRevision)
		}
	}
}
