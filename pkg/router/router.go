package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/questx-lab/prizeengine/config"
	"github.com/questx-lab/prizeengine/pkg/logger"
	"github.com/rs/cors"
	"gorm.io/gorm"
)

type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before or after the handler. A non-nil error stops the
// chain and is written to the client.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc always runs once the response was written.
type CloserFunc func(ctx context.Context)

type Router struct {
	inner  gin.IRouter
	engine *gin.Engine

	db       *gorm.DB
	cfg      config.Configs
	logger   logger.Logger
	validate *validator.Validate

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc
}

func New(db *gorm.DB, cfg config.Configs, logger logger.Logger) *Router {
	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Router{
		inner:    engine,
		engine:   engine,
		db:       db,
		cfg:      cfg,
		logger:   logger,
		validate: validator.New(),
	}
}

// Branch returns a router sharing the same routes. Middlewares added to the
// branch do not affect the parent.
func (r *Router) Branch() *Router {
	return &Router{
		inner:    r.inner,
		engine:   r.engine,
		db:       r.db,
		cfg:      r.cfg,
		logger:   r.logger,
		validate: r.validate,
		befores:  append([]MiddlewareFunc{}, r.befores...),
		afters:   append([]MiddlewareFunc{}, r.afters...),
		closers:  append([]CloserFunc{}, r.closers...),
	}
}

func (r *Router) Before(m MiddlewareFunc) {
	r.befores = append(r.befores, m)
}

func (r *Router) After(m MiddlewareFunc) {
	r.afters = append(r.afters, m)
}

func (r *Router) AddCloser(c CloserFunc) {
	r.closers = append(r.closers, c)
}

// Handle registers a plain http.Handler, it bypasses every middleware.
func (r *Router) Handle(method, pattern string, h http.Handler) {
	r.inner.Handle(method, pattern, gin.WrapH(h))
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, http.MethodGet, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, http.MethodPost, handler))
}

func (r *Router) Handler() http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   r.cfg.ApiServer.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(r.engine)
}
