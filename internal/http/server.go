// Package http serves the entry form, the daily summary dashboard and the
// JSON API on top of the shipment service.
package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shipments/internal/api"
	"shipments/internal/catalog"
	"shipments/internal/core"
	"shipments/internal/log"
	"shipments/internal/middleware/ratelimit"
	"shipments/internal/middleware/security"
	appweb "shipments/web"
)

// ShipmentService is what the handlers need from the service layer.
type ShipmentService interface {
	Record(ctx context.Context, rec core.ShipmentRecord) (core.ShipmentRecord, error)
	Summary(ctx context.Context, date core.Date) (core.DaySummary, error)
	List(ctx context.Context, date *core.Date) ([]core.ShipmentRecord, error)
	Ready(ctx context.Context) error
	Policy() core.QuantityPolicy
}

// Options tune a Server. Zero values fall back to defaults.
type Options struct {
	Logger         *zap.Logger
	RequestTimeout time.Duration
	RateLimit      ratelimit.Config
	Now            func() time.Time
}

type Server struct {
	http.Server
	engine    *gin.Engine
	templates *template.Template
	svc       ShipmentService
	catalog   catalog.Catalog
	limiter   *ratelimit.Limiter
	logger    *zap.Logger
	timeout   time.Duration
	now       func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// server. Shutdown must be called to stop the rate limiter.
func NewServer(addr string, svc ShipmentService, cat catalog.Catalog, opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 7 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := log.Named(opts.Logger, log.ComponentHTTP)

	s := &Server{
		svc:     svc,
		catalog: cat,
		limiter: ratelimit.NewLimiter(opts.RateLimit),
		logger:  logger,
		timeout: opts.RequestTimeout,
		now:     opts.Now,
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("failed parsing templates", zap.Error(err))
	} else {
		s.templates = t
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	if err := r.SetTrustedProxies(security.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies", zap.Error(err))
	}
	r.Use(
		gin.Recovery(),
		log.Middleware(logger),
		security.Headers(security.DefaultHeadersConfig()),
		security.NewDetector(logger).Handler(),
		s.limiter.Handler(logger, http.MethodPost),
	)

	r.GET("/healthz", s.handleHealth)
	r.GET("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		r.Group("/static", security.StaticCache(3600)).StaticFS("/", http.FS(sub))
	} else {
		logger.Warn("failed to mount embedded static FS", zap.Error(err))
	}

	r.GET("/", func(c *gin.Context) { c.Redirect(http.StatusFound, "/entry") })
	r.GET("/entry", s.handleEntry)
	r.POST("/shipments", s.handleCreateShipment)
	r.GET("/summary", s.handleSummary)

	v1 := r.Group(api.BasePath)
	v1.GET("/catalog", s.handleAPICatalog)
	v1.GET("/shipments", s.handleAPIListShipments)
	v1.POST("/shipments", s.handleAPICreateShipment)
	v1.GET("/summary", s.handleAPISummary)

	s.engine = r
	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// storeContext bounds one request's store calls.
func (s *Server) storeContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.timeout)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleReady succeeds only when the store can be read.
func (s *Server) handleReady(c *gin.Context) {
	ctx, cancel := s.storeContext(c)
	defer cancel()

	if err := s.svc.Ready(ctx); err != nil {
		log.FromContext(ctx).Warn("readiness check failed", zap.Error(err))
		c.String(http.StatusServiceUnavailable, "not ready")
		return
	}
	c.String(http.StatusOK, "ready")
}
