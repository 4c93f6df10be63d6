package admin

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/httpebble/internal/appmessage"
	"github.com/danmuck/httpebble/internal/bridge"
	"github.com/danmuck/httpebble/internal/logging"
	"github.com/danmuck/httpebble/internal/observability"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ContentTypeAppMessage = "application/octet-stream"
	MaxAppMessageBytes    = 64 << 10
	version               = "0.1.0"
)

type Config struct {
	Addr        string
	CorsOrigins []string
}

func DefaultConfig() Config {
	return Config{Addr: "127.0.0.1:7080"}
}

// Server exposes a bridge Router over HTTP for local tooling and tests.
type Server struct {
	Addr    string
	Started time.Time

	router *gin.Engine
	bridge *bridge.Router
	// Router.Process expects one message at a time.
	mu sync.Mutex
}

func New(cfg Config, br *bridge.Router) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger())
	r.Use(observability.RequestMetricsMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(cfg.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &Server{
		Addr:    cfg.Addr,
		Started: time.Now(),
		router:  r,
		bridge:  br,
	}
	s.registerRoutes()
	return s
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"uptime":   time.Since(s.Started).String(),
			"identity": s.bridge.Identity().Header(),
			"version":  version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.Started).String(),
			"version": version,
		})
	})

	s.router.POST("/appmessage", s.postAppMessage)
	s.router.GET("/cookies/:app_id", s.getCookies)
}

func (s *Server) postAppMessage(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxAppMessageBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	msg, err := appmessage.Decode(payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	out, err := s.bridge.Process(c.Request.Context(), msg)
	s.mu.Unlock()
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	if out == nil {
		c.Status(http.StatusNoContent)
		return
	}
	reply, err := appmessage.Encode(*out)
	if err != nil {
		logging.Errf("admin.appmessage encode reply failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, ContentTypeAppMessage, reply)
}

func (s *Server) getCookies(c *gin.Context) {
	appID, err := strconv.ParseUint(c.Param("app_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "app_id must be an unsigned 32-bit integer"})
		return
	}
	keys := s.bridge.Cookies().Keys(uint32(appID))
	out := make([]uint16, 0, len(keys))
	for _, k := range keys {
		out = append(out, uint16(k))
	}
	c.JSON(http.StatusOK, gin.H{"app_id": appID, "keys": out})
}

// Serve blocks until ctx is done, then shuts the listener down.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.Infof("admin.Serve listening addr=%s", s.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logging.Infof("admin.Serve shutting down addr=%s", s.Addr)
		return srv.Shutdown(shutdownCtx)
	}
}

// statusFor maps router errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, bridge.ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, bridge.ErrProtocolViolation),
		errors.Is(err, bridge.ErrMissingRequiredParameter),
		errors.Is(err, bridge.ErrPreconditionFailed):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
