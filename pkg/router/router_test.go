package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/streamspigot/mastofeeder/config"
	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/logger"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
	"github.com/stretchr/testify/require"
)

type echoRequest struct {
	ID    string  `uri:"id"`
	Name  string  `form:"name"`
	Debug *string `form:"debug"`
}

type echoResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Debug bool   `json:"debug"`
}

func newTestRouter() *Router {
	cfg := config.Default()
	cfg.Env = "test"
	return New(cfg, logger.NewLogger(logger.SILENCE), nil, nil)
}

func serveTest(r *Router, method, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	w := httptest.NewRecorder()
	r.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) response {
	t.Helper()

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRouter_Binding(t *testing.T) {
	r := newTestRouter()
	echo := func(ctx context.Context, req *echoRequest) (*echoResponse, error) {
		return &echoResponse{ID: req.ID, Name: req.Name, Debug: req.Debug != nil}, nil
	}

	GET(r, "/echo/:id", echo)
	POST(r, "/echo/:id", echo)

	w := serveTest(r, http.MethodGet, "/echo/42?name=alice&debug", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]any{"id": "42", "name": "alice", "debug": true}, decode(t, w).Data)

	w = serveTest(r, http.MethodGet, "/echo/42", "")
	require.Equal(t, map[string]any{"id": "42", "name": "", "debug": false}, decode(t, w).Data)

	w = serveTest(r, http.MethodPost, "/echo/7", "name=bob")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, map[string]any{"id": "7", "name": "bob", "debug": false}, decode(t, w).Data)
}

func TestRouter_ErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   int64
	}{
		{name: "bad request", err: errorx.New(errorx.BadRequest, "bad"), status: 400, code: int64(errorx.BadRequest)},
		{name: "state mismatch", err: errorx.New(errorx.StateMismatch, "state"), status: 400, code: int64(errorx.StateMismatch)},
		{name: "not found", err: errorx.New(errorx.NotFound, "gone"), status: 404, code: int64(errorx.NotFound)},
		{name: "upstream", err: errorx.New(errorx.BadResponse, "upstream"), status: 502, code: int64(errorx.BadResponse)},
		{name: "untyped", err: errors.New("boom"), status: 500, code: int64(errorx.Unknown.Code)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter()
			GET(r, "/fail", func(ctx context.Context, req *struct{}) (*struct{}, error) {
				return nil, tt.err
			})

			w := serveTest(r, http.MethodGet, "/fail", "")
			require.Equal(t, tt.status, w.Code)
			require.Equal(t, tt.code, decode(t, w).Code)
		})
	}
}

func TestRouter_Middlewares(t *testing.T) {
	type key struct{}

	r := newTestRouter()

	var closed []string
	r.AddCloser(func(ctx context.Context) {
		closed = append(closed, xcontext.HTTPRequest(ctx).URL.Path)
	})

	branch := r.Group("/api")
	branch.Before(func(ctx context.Context) (context.Context, error) {
		if xcontext.HTTPRequest(ctx).URL.Query().Get("deny") != "" {
			return ctx, errorx.New(errorx.Unauthenticated, "denied")
		}

		return context.WithValue(ctx, key{}, "from-before"), nil
	})

	GET(branch, "/value", func(ctx context.Context, req *struct{}) (*string, error) {
		value := ctx.Value(key{}).(string)
		return &value, nil
	})
	GET(r, "/plain", func(ctx context.Context, req *struct{}) (*string, error) {
		_, ok := ctx.Value(key{}).(string)
		require.False(t, ok)
		value := "plain"
		return &value, nil
	})

	w := serveTest(r, http.MethodGet, "/api/value", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "from-before", decode(t, w).Data)

	w = serveTest(r, http.MethodGet, "/api/value?deny=1", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w = serveTest(r, http.MethodGet, "/plain", "")
	require.Equal(t, "plain", decode(t, w).Data)

	require.Equal(t, []string{"/api/value", "/api/value", "/plain"}, closed)
}

func TestRouter_HandlerTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.ApiServer.HandlerTimeout = 1
	r := New(cfg, logger.NewLogger(logger.SILENCE), nil, nil)

	GET(r, "/slow", func(ctx context.Context, req *struct{}) (*struct{}, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	w := serveTest(r, http.MethodGet, "/slow", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
}
