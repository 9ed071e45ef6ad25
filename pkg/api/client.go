package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

// maxBodySize bounds what is read from an upstream response.
const maxBodySize = 8 << 20

type Client interface {
	Header(name, value string) Client
	Query(query Parameter) Client
	Body(body Body) Client
	POST(ctx context.Context, opts ...Opt) (*Response, error)
	GET(ctx context.Context, opts ...Opt) (*Response, error)
}

type Generator interface {
	New(path string, args ...any) Client
}

type defaultGenerator struct {
	baseURL string
}

func NewGenerator(baseURL string) *defaultGenerator {
	return &defaultGenerator{baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (g *defaultGenerator) New(path string, args ...any) Client {
	return &defaultClient{
		baseURL: g.baseURL,
		path:    fmt.Sprintf(path, args...),
		headers: make(http.Header),
	}
}

type Body interface {
	ToReader() (io.Reader, string, error)
}

type Opt interface {
	Do(*http.Request)
}

type defaultClient struct {
	baseURL string
	method  string
	path    string
	headers http.Header
	query   Parameter
	body    Body
}

func (c *defaultClient) Header(name, value string) Client {
	c.headers.Set(name, value)
	return c
}

func (c *defaultClient) Query(query Parameter) Client {
	c.query = query
	return c
}

func (c *defaultClient) Body(body Body) Client {
	c.body = body
	return c
}

func (c *defaultClient) POST(ctx context.Context, opts ...Opt) (*Response, error) {
	c.method = http.MethodPost
	return c.call(ctx, opts...)
}

func (c *defaultClient) GET(ctx context.Context, opts ...Opt) (*Response, error) {
	c.method = http.MethodGet
	return c.call(ctx, opts...)
}

func (c *defaultClient) call(ctx context.Context, opts ...Opt) (*Response, error) {
	var reader io.Reader
	var contentType string
	if c.body != nil {
		var err error
		reader, contentType, err = c.body.ToReader()
		if err != nil {
			return nil, err
		}
	}

	url := c.baseURL + c.path
	if encoded := c.query.Encode(); encoded != "" {
		url = url + "?" + encoded
	}

	req, err := http.NewRequestWithContext(ctx, c.method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	for h, values := range c.headers {
		for _, v := range values {
			req.Header.Add(h, v)
		}
	}

	for _, opt := range opts {
		opt.Do(req)
	}

	result, err := xcontext.HTTPClient(ctx).Do(req)
	if err != nil {
		xcontext.Logger(ctx).Warnf("An error occurred when calling to %s %s: %v", c.method, c.path, err)
		return nil, err
	}
	defer result.Body.Close()

	body, err := io.ReadAll(io.LimitReader(result.Body, maxBodySize))
	if err != nil {
		xcontext.Logger(ctx).Warnf("An error occurred when reading body of %s: %v", c.path, err)
		return nil, err
	}

	response := &Response{
		Code:    result.StatusCode,
		Header:  result.Header,
		RawBody: body,
	}

	if response.Code >= http.StatusBadRequest {
		return response, &StatusError{Method: c.method, Path: c.path, Code: response.Code, Body: body}
	}

	return response, nil
}

// StatusError is returned together with the response when the server answers
// with a 4xx or 5xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   []byte
}

func (e *StatusError) Error() string {
	body := string(e.Body)
	if len(body) > 200 {
		body = body[:200]
	}

	return fmt.Sprintf("%s %s returned %d: %s", e.Method, e.Path, e.Code, body)
}
