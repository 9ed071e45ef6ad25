package router

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

type response struct {
	Code  int64  `json:"code"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func newResponse(data any) response {
	return response{
		Code: 0,
		Data: data,
	}
}

func newErrorResponse(err error) response {
	errx := errorx.From(err)
	return response{
		Code:  int64(errx.Code),
		Error: errx.Message,
	}
}

// handleResponse writes the JSON envelope unless an After middleware already
// wrote the response and cleared it.
func handleResponse() CloserFunc {
	return func(ctx context.Context) {
		w := xcontext.HTTPWriter(ctx)

		err := xcontext.Error(ctx)
		if err == nil {
			resp := xcontext.Response(ctx)
			if resp == nil {
				return
			}

			if err = WriteJson(w, http.StatusOK, newResponse(resp)); err == nil {
				return
			}

			xcontext.Logger(ctx).Errorf("Cannot write the response: %v", err)
			err = errorx.New(errorx.Internal, "Cannot write the response")
		}

		status := errorx.From(err).Code.HTTPStatus()
		if err := WriteJson(w, status, newErrorResponse(err)); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot write the error response: %v", err)
		}
	}
}

func WriteJson(w http.ResponseWriter, status int, resp any) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(b); err != nil {
		return err
	}

	return nil
}
