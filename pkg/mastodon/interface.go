package mastodon

import "context"

// ClientCredentials identify the service's registration on an instance.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
}

type IEndpoint interface {
	// WithToken returns an endpoint that authenticates as the owner of accessToken.
	WithToken(accessToken string) IEndpoint

	CreateApp(ctx context.Context) (Application, error)
	AuthCodeURL(client ClientCredentials, state string) string
	ExchangeCode(ctx context.Context, client ClientCredentials, code string) (string, error)

	VerifyCredentials(ctx context.Context) (Account, error)
	HomeTimeline(ctx context.Context, maxID string, limit int) ([]Status, error)
	ListTimeline(ctx context.Context, listID, maxID string, limit int) ([]Status, error)
	GetList(ctx context.Context, listID string) (List, error)
	StatusContext(ctx context.Context, statusID string) (Context, error)
}

// Factory returns an endpoint for one instance, identified by its normalized URL.
type Factory func(instanceURL string) IEndpoint
