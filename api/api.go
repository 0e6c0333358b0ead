// Package api exposes the REST surface: authentication, tickets, users,
// and the admin endpoints for inspecting the triage pipeline (runs, step
// ledgers, events, and the dead letter queue).
package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fluxdesk/fluxdesk"
	"github.com/fluxdesk/fluxdesk/engine"
	"github.com/fluxdesk/fluxdesk/user"
)

// Server is the HTTP API server.
type Server struct {
	cfg    fluxdesk.Config
	engine *engine.Engine
	logger *slog.Logger
	router *gin.Engine
}

// NewServer builds the API server and its routes.
func NewServer(cfg fluxdesk.Config, eng *engine.Engine, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		engine: eng,
		logger: logger,
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := r.Group("/api")

	auth := apiGroup.Group("/auth")
	auth.POST("/signup", s.handleSignup)
	auth.POST("/login", s.handleLogin)
	auth.POST("/logout", s.requireAuth(), s.handleLogout)

	tickets := apiGroup.Group("/tickets", s.requireAuth())
	tickets.POST("", s.handleCreateTicket)
	tickets.GET("", s.handleListTickets)
	tickets.GET("/:id", s.handleGetTicket)
	tickets.PATCH("/:id", s.requireRole(user.RoleModerator, user.RoleAdmin), s.handleUpdateTicket)

	users := apiGroup.Group("/users", s.requireAuth())
	users.GET("/me", s.handleMe)
	users.GET("", s.requireRole(user.RoleAdmin), s.handleListUsers)
	users.PATCH("/:id", s.requireRole(user.RoleAdmin), s.handleUpdateUser)

	admin := apiGroup.Group("/admin", s.requireAuth(), s.requireRole(user.RoleAdmin))
	admin.GET("/runs", s.handleListRuns)
	admin.GET("/runs/:id", s.handleGetRun)
	admin.GET("/events", s.handleListEvents)
	admin.GET("/dlq", s.handleListDLQ)
	admin.POST("/dlq/:id/replay", s.handleReplayDLQ)

	return r
}

// requestLogger logs each request with method, path, and status.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.Request.URL.Path),
			slog.Int("status", c.Writer.Status()),
		)
	}
}
