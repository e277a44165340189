// Package server exposes the tracker over HTTP: JSON endpoints for the
// list, board and analytics views, a server-sent event stream of live
// snapshots, and the sign-in endpoints.
//
// Routes (all under /api/v1 except /health):
//
//	POST   /auth/register | /auth/login | /auth/google
//	GET    /auth/google/url
//	POST   /auth/logout                     (auth)
//	GET    /auth/me                         (auth)
//	GET    /applications                    (auth) ?q=&status=&jobType=
//	POST   /applications                    (auth)
//	GET    /applications/stream             (auth) ?view=list|board|analytics
//	GET    /applications/:id                (auth)
//	PATCH  /applications/:id                (auth)
//	DELETE /applications/:id                (auth)
//	POST   /applications/:id/tags           (auth)
//	DELETE /applications/:id/tags/:tag      (auth)
//	POST   /applications/:id/stages         (auth)
//	DELETE /applications/:id/stages/:index  (auth)
//	GET    /board                           (auth)
//	POST   /board/events                    (auth)
//	GET    /analytics                       (auth)
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ntrioooo/job-tracker/internal/analytics"
	"github.com/ntrioooo/job-tracker/internal/auth"
	"github.com/ntrioooo/job-tracker/internal/kanban"
	"github.com/ntrioooo/job-tracker/internal/store"
)

const ServiceName = "job-tracker"

// Deps are the collaborators a Server needs.
type Deps struct {
	Store        store.Store
	Sessions     *kanban.Sessions
	Analytics    analytics.Summarizer
	Auth         *auth.Service
	Logger       *zap.Logger
	AllowOrigins []string
	Version      string
}

type Server struct {
	store     store.Store
	sessions  *kanban.Sessions
	analytics analytics.Summarizer
	auth      *auth.Service
	logger    *zap.Logger
	origins   []string
	version   string
}

func New(d Deps) *Server {
	if d.Analytics == nil {
		d.Analytics = analytics.Direct{}
	}
	return &Server{
		store:     d.Store,
		sessions:  d.Sessions,
		analytics: d.Analytics,
		auth:      d.Auth,
		logger:    d.Logger,
		origins:   d.AllowOrigins,
		version:   d.Version,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(s.logger))

	if len(s.origins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     s.origins,
			AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
		}))
	}

	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.POST("register", s.register)
			authRoute.POST("login", s.login)
			authRoute.POST("google", s.googleLogin)
			authRoute.GET("google/url", s.googleURL)
			authRoute.POST("logout", s.RequireAuth(), s.logout)
			authRoute.GET("me", s.RequireAuth(), s.me)
		}

		needAuth := v1.Group("")
		needAuth.Use(s.RequireAuth())
		{
			apps := needAuth.Group("/applications")
			{
				apps.GET("", s.listApplications)
				apps.POST("", s.createApplication)
				apps.GET("/stream", s.streamApplications)
				apps.GET("/:id", s.getApplication)
				apps.PATCH("/:id", s.updateApplication)
				apps.DELETE("/:id", s.deleteApplication)
				apps.POST("/:id/tags", s.addTag)
				apps.DELETE("/:id/tags/:tag", s.removeTag)
				apps.POST("/:id/stages", s.addStage)
				apps.DELETE("/:id/stages/:index", s.removeStage)
			}

			needAuth.GET("/board", s.board)
			needAuth.POST("/board/events", s.boardEvent)
			needAuth.GET("/analytics", s.summary)
		}
	}
	return r
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": ServiceName,
		"version": s.version,
	})
}
