package api

import (
	"context"
	"fmt"
	"net/http"
)

// MockRequest is a request built through MockGenerator.
type MockRequest struct {
	Method  string
	Path    string
	Headers http.Header
	Query   Parameter
	Body    Body
}

// MockGenerator records every request it builds and answers each of them
// with RespondFunc.
type MockGenerator struct {
	RespondFunc func(ctx context.Context, req MockRequest) (*Response, error)
	Requests    []MockRequest
}

func (g *MockGenerator) New(path string, args ...any) Client {
	return &mockClient{
		generator: g,
		req: MockRequest{
			Path:    fmt.Sprintf(path, args...),
			Headers: make(http.Header),
		},
	}
}

type mockClient struct {
	generator *MockGenerator
	req       MockRequest
}

func (c *mockClient) Header(name, value string) Client {
	c.req.Headers.Set(name, value)
	return c
}

func (c *mockClient) Query(query Parameter) Client {
	c.req.Query = query
	return c
}

func (c *mockClient) Body(body Body) Client {
	c.req.Body = body
	return c
}

func (c *mockClient) POST(ctx context.Context, opts ...Opt) (*Response, error) {
	return c.send(ctx, http.MethodPost, opts)
}

func (c *mockClient) GET(ctx context.Context, opts ...Opt) (*Response, error) {
	return c.send(ctx, http.MethodGet, opts)
}

func (c *mockClient) send(ctx context.Context, method string, opts []Opt) (*Response, error) {
	c.req.Method = method

	// Options only touch headers, so a throwaway request collects them.
	carrier := &http.Request{Header: c.req.Headers}
	for _, opt := range opts {
		opt.Do(carrier)
	}

	c.generator.Requests = append(c.generator.Requests, c.req)
	if c.generator.RespondFunc == nil {
		return nil, fmt.Errorf("no response for %s %s", method, c.req.Path)
	}

	return c.generator.RespondFunc(ctx, c.req)
}
