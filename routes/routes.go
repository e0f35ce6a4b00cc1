package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/snap-point/social-posts/controllers"
	"github.com/snap-point/social-posts/middleware"
	"github.com/snap-point/social-posts/store"
)

// PostRoutes maps each exact request path to its post handler.
func PostRoutes(pc *controllers.PostController) map[string]controllers.HandlerFunc {
	return map[string]controllers.HandlerFunc{
		"/posts.get":     pc.GetPosts,
		"/posts.getById": pc.GetPostByID,
		"/posts.post":    pc.CreatePost,
		"/posts.edit":    pc.EditPost,
		"/posts.delete":  pc.DeletePost,
		"/posts.restore": pc.RestorePost,
		"/posts.like":    pc.LikePost,
		"/posts.dislike": pc.DislikePost,
	}
}

func SetupRoutes(r *gin.Engine, sessions store.SessionFactory) {
	postController := controllers.NewPostController()
	dispatcher := NewDispatcher(sessions, PostRoutes(postController))

	// "/healthz/" must fall through to the dispatcher as a 404, not a 301.
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false

	r.Use(middleware.RequestID())

	r.GET("/healthz", func(c *gin.Context) {
		if err := sessions.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"status": "Database connection is down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "Database connection is healthy"})
	})

	// Every other path, whatever the method, goes through the dispatcher.
	r.NoRoute(dispatcher.Handle)
}
