package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/router"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

func WithStartTime() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		now := time.Now()
		return xcontext.WithStartTime(ctx, now), nil
	}
}

func Prometheus() router.CloserFunc {
	return func(ctx context.Context) {
		startTime := xcontext.StartTime(ctx)

		req := xcontext.HTTPRequest(ctx)
		code := http.StatusOK
		if err := xcontext.Error(ctx); err != nil {
			code = errorx.From(err).Code.HTTPStatus()
		}

		for key, counter := range common.PromCounters {
			switch key {
			case common.HTTPRequestTotal:
				counter.WithLabelValues(req.Method, fmt.Sprint(code)).Inc()
			}
		}

		if startTime.IsZero() {
			return
		}

		for key, histogram := range common.PromHistograms {
			switch key {
			case common.HTTPRequestDurationSeconds:
				histogram.WithLabelValues(req.Method, fmt.Sprint(code)).Observe(time.Since(startTime).Seconds())
			}
		}
	}
}
