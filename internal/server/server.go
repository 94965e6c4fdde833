package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/emilythestrangee/studyverse/backend/internal/auth"
	"github.com/emilythestrangee/studyverse/backend/internal/config"
	"github.com/emilythestrangee/studyverse/backend/internal/database"
	"github.com/emilythestrangee/studyverse/backend/internal/handlers"
	"github.com/emilythestrangee/studyverse/backend/internal/middleware"
	"github.com/emilythestrangee/studyverse/backend/internal/ratelimit"
	"github.com/emilythestrangee/studyverse/backend/internal/voting"
)

const voteWindow = time.Minute

type Server struct {
	cfg     *config.Config
	db      database.Service
	issuer  *auth.Issuer
	limiter ratelimit.Limiter
	log     *logrus.Logger
	handler *handlers.Handler
}

// New assembles the server from its dependencies. limiter may be nil.
func New(cfg *config.Config, db database.Service, limiter ratelimit.Limiter, log *logrus.Logger) *Server {
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	engine := voting.NewEngine(database.NewVoteStore(db.GetDB()), log)

	return &Server{
		cfg:     cfg,
		db:      db,
		issuer:  issuer,
		limiter: limiter,
		log:     log,
		handler: handlers.NewHandler(db.GetDB(), engine, issuer),
	}
}

// HTTPServer wraps the router in an *http.Server bound to the configured port.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         "0.0.0.0:" + s.cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(s.log))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "Retry-After", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(s.cfg.CORSOrigins) == 0 || s.cfg.CORSOrigins[0] == "*" {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = s.cfg.CORSOrigins
	}
	r.Use(cors.New(corsCfg))

	if s.cfg.RequestTimeout > 0 {
		r.Use(middleware.RequestTimeout(s.cfg.RequestTimeout))
	}

	r.GET("/health", func(c *gin.Context) {
		stats := s.db.Health()
		status := http.StatusOK
		if stats["status"] != "up" {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, stats)
	})

	voteLimit := middleware.RateLimit(s.limiter, "vote", s.cfg.VoteRateLimit, voteWindow)

	api := r.Group("/api")
	{
		// Auth routes (public)
		api.POST("/auth/register", s.handler.Auth.Register)
		api.POST("/auth/login", s.handler.Auth.Login)

		// Post routes (public reads)
		api.GET("/posts", s.handler.Post.GetPosts)
		api.GET("/posts/:id", s.handler.Post.GetPost)
		api.GET("/posts/:id/comments", s.handler.Comment.GetComments)

		// Community routes (public reads)
		api.GET("/communities", s.handler.Community.GetCommunities)
		api.GET("/communities/:id", s.handler.Community.GetCommunity)
		api.GET("/communities/:id/posts", s.handler.Community.GetCommunityPosts)

		// User routes (public reads)
		api.GET("/users/:id", s.handler.User.GetUserProfile)
		api.GET("/users/:id/posts", s.handler.User.GetUserPosts)

		// Protected routes (authentication required)
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(s.issuer))
		{
			protected.GET("/auth/me", s.handler.Auth.GetMe)

			protected.POST("/posts", s.handler.Post.CreatePost)
			protected.DELETE("/posts/:id", s.handler.Post.DeletePost)
			protected.POST("/posts/:id/vote", voteLimit, s.handler.Post.VotePost)
			protected.GET("/posts/:id/vote", s.handler.Post.GetPostVote)

			protected.POST("/comments", s.handler.Comment.CreateComment)
			protected.PUT("/comments/:id", s.handler.Comment.UpdateComment)
			protected.DELETE("/comments/:id", s.handler.Comment.DeleteComment)
			protected.POST("/comments/:id/vote", voteLimit, s.handler.Comment.VoteComment)
			protected.GET("/comments/:id/vote", s.handler.Comment.GetCommentVote)

			protected.POST("/communities", s.handler.Community.CreateCommunity)
			protected.POST("/communities/:id/join", s.handler.Community.JoinCommunity)

			protected.PUT("/users/:id", s.handler.User.UpdateUserProfile)
			protected.GET("/users/:id/voted-posts", s.handler.User.GetUserVotedPosts)
			protected.GET("/users/:id/comments", s.handler.User.GetUserComments)
		}
	}

	return r
}
