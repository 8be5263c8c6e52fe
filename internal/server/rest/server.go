// Package rest exposes the authentication and field endpoints over HTTP and
// guards everything under /api except /api/auth with a bearer-token filter.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/farmhand/internal/logging"
	"github.com/dmitrijs2005/farmhand/internal/server/metrics"
	"github.com/dmitrijs2005/farmhand/internal/server/models"
	"github.com/dmitrijs2005/farmhand/internal/server/repositories/users"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type HTTPServer struct {
	address string
	engine  *gin.Engine
	users   AuthService
	fields  FieldService
	metrics *metrics.Metrics
	logger  logging.Logger
}

// NewHTTPServer builds the router. Middleware order is fixed: recovery,
// request logging, authentication, then the per-group identity check.
func NewHTTPServer(address string, l logging.Logger, us AuthService, fs FieldService, tokens TokenValidator,
	repo users.Repository, storeTimeout time.Duration, m *metrics.Metrics) *HTTPServer {
	s := &HTTPServer{
		address: address,
		users:   us,
		fields:  fs,
		metrics: m,
		logger:  l.With("module", "http_server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(l, m), Authenticator(tokens, repo, storeTimeout, l, m))

	if m != nil {
		engine.GET("/metrics", gin.WrapH(m.Handler()))
	}

	api := engine.Group("/api")

	public := api.Group("/auth")
	public.POST("/register", s.register)
	public.POST("/login", s.login)

	protected := api.Group("", RequireIdentity())
	protected.GET("/hello", s.hello)
	protected.GET("/me", s.me)

	protected.POST("/field", s.createField)
	protected.GET("/field", s.listFields)
	protected.GET("/field/:number", s.getField)
	protected.PATCH("/field/:number", s.updateField)
	protected.DELETE("/field/:number", s.deleteField)
	protected.GET("/field/past/:number", s.cropsByTense(models.TensePast))
	protected.GET("/field/present/:number", s.cropsByTense(models.TensePresent))
	protected.GET("/field/future/:number", s.cropsByTense(models.TenseFuture))
	protected.POST("/crop", s.addCrop)

	// Unknown /api routes still require an identity before they 404.
	engine.NoRoute(func(c *gin.Context) {
		if requiresIdentity(c.Request.URL.Path) {
			RequireIdentity()(c)
			if c.IsAborted() {
				return
			}
		}
		c.String(http.StatusNotFound, "not found")
	})

	s.engine = engine
	return s
}

// requiresIdentity reports whether path lies in the protected part of the
// /api tree, which is all of it except /api/auth.
func requiresIdentity(path string) bool {
	if path != "/api" && !strings.HasPrefix(path, "/api/") {
		return false
	}
	return path != "/api/auth" && !strings.HasPrefix(path, "/api/auth/")
}

// Handler exposes the router, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
