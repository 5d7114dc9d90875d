package feed

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SecretSource provides the feed secret. *store.Store implements it.
type SecretSource interface {
	FeedSecret(ctx context.Context) (string, error)
}

// StaticSecret is a fixed feed secret
type StaticSecret string

// FeedSecret implements SecretSource
func (s StaticSecret) FeedSecret(context.Context) (string, error) {
	return string(s), nil
}

// Server serves the generated feed file
type Server struct {
	router *gin.Engine
	server *http.Server
	path   string
	secret SecretSource
	logger zerolog.Logger
}

// NewServer creates the feed routes. path is the generated CSV file.
func NewServer(path string, secret SecretSource, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		path:   path,
		secret: secret,
		logger: logger,
	}

	s.router.Use(requestID(), s.accessLog(), gin.Recovery())
	s.router.GET("/feed", s.serveFeed)
	s.router.GET("/feed/ping", s.ping)
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info().Str("address", addr).Msg("Starting feed server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info().Msg("Shutting down feed server")
	return s.server.Shutdown(ctx)
}

func (s *Server) serveFeed(c *gin.Context) {
	expected, err := s.secret.FeedSecret(c.Request.Context())
	if err != nil {
		c.Set("reason", "secret unavailable")
		s.logger.Error().Err(err).Msg("Failed to read feed secret")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "feed unavailable"})
		return
	}

	given := c.Query("secret")
	if expected == "" || subtle.ConstantTimeCompare([]byte(given), []byte(expected)) != 1 {
		c.Set("reason", "invalid secret")
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid feed secret"})
		return
	}

	info, err := os.Stat(s.path)
	if err != nil || info.IsDir() {
		c.Set("reason", "feed not generated")
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "feed file not found"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="product-feed.csv"`)
	c.File(s.path)
}

func (s *Server) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" {
			rid = uuid.New().String()
		}
		c.Set("request_id", rid)
		c.Header("X-Request-ID", rid)
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(params gin.LogFormatterParams) string {
		line := s.logger.Info().
			Any("request_id", params.Keys["request_id"]).
			Int("status", params.StatusCode).
			Str("method", params.Method).
			Str("path", params.Path).
			Str("client_ip", params.ClientIP).
			Dur("response_time", params.Latency)

		if reason, ok := params.Keys["reason"].(string); ok {
			line = line.Str("reason", reason)
		}
		line.Send()
		return ""
	})
}
