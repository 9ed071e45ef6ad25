package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

func wrapHandler[Request, Response any](router *Router, handler HandlerFunc[Request, Response]) gin.HandlerFunc {
	// Middlewares added after registration do not apply to this route.
	befores := append([]MiddlewareFunc(nil), router.befores...)
	afters := append([]MiddlewareFunc(nil), router.afters...)
	closers := append([]CloserFunc(nil), router.closers...)

	return func(c *gin.Context) {
		ctx, cancel := newRequestContext(router, c)
		defer cancel()

		ctx = serve(ctx, c, befores, afters, handler)
		for _, closer := range closers {
			closer(ctx)
		}
	}
}

func serve[Request, Response any](
	ctx context.Context,
	c *gin.Context,
	befores, afters []MiddlewareFunc,
	handler HandlerFunc[Request, Response],
) context.Context {
	var err error
	for _, before := range befores {
		ctx, err = before(ctx)
		if err != nil {
			return xcontext.WithError(ctx, err)
		}
	}

	var req Request
	if err := bind(c, &req); err != nil {
		xcontext.Logger(ctx).Debugf("Cannot bind request: %v", err)
		return xcontext.WithError(ctx, errorx.New(errorx.BadRequest, "Invalid request"))
	}

	resp, err := handler(ctx, &req)
	if err != nil {
		return xcontext.WithError(ctx, err)
	}

	if resp != nil {
		ctx = xcontext.WithResponse(ctx, resp)
	}

	for _, after := range afters {
		ctx, err = after(ctx)
		if err != nil {
			return xcontext.WithError(ctx, err)
		}
	}

	return ctx
}

// bind fills req from the query or form body first and from path parameters
// last, so that the path always wins.
func bind(c *gin.Context, req any) error {
	if err := c.ShouldBind(req); err != nil {
		return err
	}

	if len(c.Params) > 0 {
		return c.ShouldBindUri(req)
	}

	return nil
}
