// Package api exposes the board over HTTP for a dashboard front-end.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dyluth/standup/internal/metrics"
	"github.com/dyluth/standup/internal/storage"
	"github.com/dyluth/standup/internal/tracker"
	"github.com/dyluth/standup/pkg/standup"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// FileConnector connects and disconnects the shared file.
type FileConnector interface {
	ConnectFile(ctx context.Context, picker storage.DirectoryPicker, current standup.StandupData) (storage.ConnectResult, error)
	DisconnectFile()
	Connected() (string, bool)
}

// Options configures a Server. Zero values select defaults.
type Options struct {
	Files         FileConnector
	Pinger        Pinger
	Notifications *NotificationLog
	Logger        logrus.FieldLogger
	Now           func() time.Time
}

// Server serves the board API.
type Server struct {
	board         *tracker.Board
	files         FileConnector
	pinger        Pinger
	notifications *NotificationLog
	log           logrus.FieldLogger
	now           func() time.Time
	engine        *gin.Engine
	http          *http.Server
}

// NewServer creates the server and registers every route.
func NewServer(board *tracker.Board, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Notifications == nil {
		opts.Notifications = NewNotificationLog(0, opts.Logger)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		board:         board,
		files:         opts.Files,
		pinger:        opts.Pinger,
		notifications: opts.Notifications,
		log:           opts.Logger.WithField("component", "api"),
		now:           opts.Now,
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(s.log))
	engine.Use(metrics.CollectMetrics())
	s.engine = engine
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealthz)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.GET("/standup", s.getStandup)
	api.PUT("/standup/notes", s.putNotes)
	api.GET("/stats", s.getStats)
	api.GET("/notifications", s.getNotifications)

	sections := api.Group("/sections/:section")
	sections.GET("", s.listSection)
	sections.POST("/tasks", s.addTask)
	sections.PATCH("/tasks/:id", s.updateTask)
	sections.DELETE("/tasks/:id", s.deleteTask)
	sections.POST("/reorder", s.reorder)
	sections.PUT("/tasks/:id/dates/:field", s.setDate)
	sections.GET("/tasks/:id/date-change", s.getDateChange)
	sections.POST("/tasks/:id/date-change", s.confirmDateChange)
	sections.DELETE("/tasks/:id/date-change", s.cancelDateChange)

	api.GET("/storage/file", s.getFile)
	api.POST("/storage/file", s.connectFile)
	api.DELETE("/storage/file", s.disconnectFile)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on addr in a background goroutine.
func (s *Server) Start(addr string) {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		s.log.WithField("addr", addr).Info("API server starting")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.WithError(err).Error("API server error")
		}
		s.log.Debug("API server stopped")
	}()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func requestLogger(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("Request handled")
	}
}
