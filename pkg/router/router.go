package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/streamspigot/mastofeeder/config"
	"github.com/streamspigot/mastofeeder/pkg/logger"
	"github.com/streamspigot/mastofeeder/pkg/session"
)

// HandlerFunc handles a request after it was bound from the path, query and
// form values.
type HandlerFunc[Request, Response any] func(ctx context.Context, req *Request) (*Response, error)

// MiddlewareFunc runs before or after the handler. It may replace the context.
// A returned error stops the chain and becomes the response.
type MiddlewareFunc func(ctx context.Context) (context.Context, error)

// CloserFunc always runs at the end of a request, in registration order.
type CloserFunc func(ctx context.Context)

type Router struct {
	engine *gin.Engine
	inner  gin.IRouter

	cfg     config.Configs
	logger  logger.Logger
	cookies *session.Store
	client  *http.Client

	befores []MiddlewareFunc
	afters  []MiddlewareFunc
	closers []CloserFunc
}

func New(cfg config.Configs, logger logger.Logger, cookies *session.Store, client *http.Client) *Router {
	switch cfg.Env {
	case "local":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	r := &Router{
		engine:  engine,
		inner:   engine,
		cfg:     cfg,
		logger:  logger,
		cookies: cookies,
		client:  client,
	}
	r.AddCloser(handleResponse())

	return r
}

func GET[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.GET(pattern, wrapHandler(r, handler))
}

func POST[Request, Response any](r *Router, pattern string, handler HandlerFunc[Request, Response]) {
	r.inner.POST(pattern, wrapHandler(r, handler))
}

// Branch returns a router sharing the routes of r whose middlewares can be
// extended without affecting r.
func (r *Router) Branch() *Router {
	branch := *r
	branch.befores = append([]MiddlewareFunc(nil), r.befores...)
	branch.afters = append([]MiddlewareFunc(nil), r.afters...)
	branch.closers = append([]CloserFunc(nil), r.closers...)
	return &branch
}

// Group is a Branch whose routes are prefixed with relativePath.
func (r *Router) Group(relativePath string) *Router {
	branch := r.Branch()
	branch.inner = r.inner.Group(relativePath)
	return branch
}

func (r *Router) Before(middleware MiddlewareFunc) {
	r.befores = append(r.befores, middleware)
}

func (r *Router) After(middleware MiddlewareFunc) {
	r.afters = append(r.afters, middleware)
}

func (r *Router) AddCloser(closer CloserFunc) {
	r.closers = append(r.closers, closer)
}

// Handle mounts a plain http.Handler, bypassing middlewares.
func (r *Router) Handle(method, pattern string, handler http.Handler) {
	r.inner.Handle(method, pattern, gin.WrapH(handler))
}

func (r *Router) Handler() http.Handler {
	return r.engine
}
