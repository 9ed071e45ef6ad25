package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/router"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

func Logger() router.CloserFunc {
	return func(ctx context.Context) {
		req := xcontext.HTTPRequest(ctx)
		info := fmt.Sprintf("%s | %s", req.Method, req.URL.Path)
		if start := xcontext.StartTime(ctx); !start.IsZero() {
			info = fmt.Sprintf("%s | %s", info, time.Since(start).Round(time.Millisecond))
		}

		if err := xcontext.Error(ctx); err != nil {
			var errx errorx.Error
			if errors.As(err, &errx) {
				xcontext.Logger(ctx).Warnf("%s | %d | %s", info, errx.Code, errx.Message)
			} else {
				xcontext.Logger(ctx).Errorf("%s | %d | %v", info, -1, err)
			}
		} else {
			xcontext.Logger(ctx).Infof(info)
		}
	}
}
