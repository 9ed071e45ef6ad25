package router

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

// newRequestContext carries everything a handler may need from the router
// into the request context. The returned cancel ends the handler deadline.
func newRequestContext(r *Router, c *gin.Context) (context.Context, context.CancelFunc) {
	ctx := c.Request.Context()

	cancel := context.CancelFunc(func() {})
	if r.cfg.ApiServer.HandlerTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.cfg.ApiServer.HandlerTimeout)
	}

	ctx = xcontext.WithConfigs(ctx, r.cfg)
	ctx = xcontext.WithLogger(ctx, r.logger)
	if r.client != nil {
		ctx = xcontext.WithHTTPClient(ctx, r.client)
	}

	ctx = xcontext.WithHTTPRequest(ctx, c.Request)
	ctx = xcontext.WithHTTPWriter(ctx, c.Writer)
	if r.cookies != nil {
		ctx = xcontext.WithCookieJar(ctx, r.cookies.Jar(c.Request, c.Writer))
	}

	return ctx, cancel
}
