package middleware

import (
	"context"
	"net/http"

	"github.com/streamspigot/mastofeeder/pkg/router"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

type RawResponse interface {
	RawInfo() (string, []byte)
}

type HeaderResponse interface {
	HeaderInfo() http.Header
}

// HandleRawBody writes feeds and pages verbatim instead of the JSON envelope.
func HandleRawBody() router.MiddlewareFunc {
	return func(ctx context.Context) (context.Context, error) {
		rawResp, ok := xcontext.Response(ctx).(RawResponse)
		if !ok {
			return ctx, nil
		}

		w := xcontext.HTTPWriter(ctx)
		if headerResp, ok := rawResp.(HeaderResponse); ok {
			for key, values := range headerResp.HeaderInfo() {
				for _, value := range values {
					w.Header().Add(key, value)
				}
			}
		}

		contentType, body := rawResp.RawInfo()
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(body); err != nil {
			xcontext.Logger(ctx).Warnf("Cannot write the body: %v", err)
		}

		return xcontext.WithResponse(ctx, nil), nil
	}
}
