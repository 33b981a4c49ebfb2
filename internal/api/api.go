package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	api_utils "github.com/ethanbaker/api/pkg/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nexxt/connect/internal/api/deps"
	"github.com/nexxt/connect/internal/metrics"
	"github.com/nexxt/connect/pkg/sdk"

	admin_module "github.com/nexxt/connect/internal/api/modules/admin"
	events_module "github.com/nexxt/connect/internal/api/modules/events"
	health_module "github.com/nexxt/connect/internal/api/modules/health"
	people_module "github.com/nexxt/connect/internal/api/modules/people"
	transcripts_module "github.com/nexxt/connect/internal/api/modules/transcripts"
)

// NewRouter builds the gin engine with every module registered
func NewRouter(d *deps.Deps) *gin.Engine {
	cfg := d.Config

	// Add app level settings/routes
	engine := gin.Default()
	engine.NoRoute(api_utils.NoRouteHandler)

	// Add trusted proxies
	engine.SetTrustedProxies(nil)

	// Add CORS using gin-contrib/cors (https://github.com/gin-contrib/cors for documentation)
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Split(cfg.GetWithDefault("CORS_ALLOWED_ORIGINS", "*"), ","),
		AllowMethods:     []string{"OPTIONS", "GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(instrument())

	engine.GET("/", welcome)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Base group '/api' for all API routes
	baseGroup := engine.Group("/api")
	health_module.RegisterRoutes(baseGroup, d)

	// Versioned modules
	v1 := baseGroup.Group("/v1")

	people_module.RegisterRoutes(v1, d)
	people_module.Init(d)

	events_module.RegisterRoutes(v1, d)
	events_module.Init(d)

	transcripts_module.RegisterRoutes(v1, d)
	transcripts_module.Init(d)

	admin_module.RegisterRoutes(v1, d)
	admin_module.Init(d)

	return engine
}

// instrument records request counts and latency per matched route
func instrument() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}

func welcome(c *gin.Context) {
	c.JSON(sdk.NewSuccess("Welcome to the Connect recommendation API").AsGinResponse())
}

// Server runs the HTTP API as a supervised service
type Server struct {
	server          *http.Server
	shutdownTimeout time.Duration
}

// NewServer creates the API server from the config's host and port
func NewServer(d *deps.Deps) *Server {
	cfg := d.Config
	addr := cfg.Get("API_HOST") + ":" + cfg.GetWithDefault("API_PORT", "8000")

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(d),
			ReadHeaderTimeout: 10 * time.Second,
		},
		shutdownTimeout: cfg.GetDurationWithDefault("API_SHUTDOWN_TIMEOUT", 15*time.Second),
	}
}

// Serve implements suture.Service. The server is shut down gracefully when ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[API-MAIN]: Listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		<-errCh
		log.Println("[API-MAIN]: Server stopped")
		return ctx.Err()
	}
}

func (s *Server) String() string { return "api-server" }
