package testutil

import (
	"context"
	"fmt"
	"net/url"

	"github.com/streamspigot/mastofeeder/pkg/mastodon"
)

type MockMastodonEndpoint struct {
	InstanceURL string
	AccessToken string

	CreateAppFunc         func(ctx context.Context) (mastodon.Application, error)
	AuthCodeURLFunc       func(client mastodon.ClientCredentials, state string) string
	ExchangeCodeFunc      func(ctx context.Context, client mastodon.ClientCredentials, code string) (string, error)
	VerifyCredentialsFunc func(ctx context.Context, accessToken string) (mastodon.Account, error)
	HomeTimelineFunc      func(ctx context.Context, maxID string, limit int) ([]mastodon.Status, error)
	ListTimelineFunc      func(ctx context.Context, listID, maxID string, limit int) ([]mastodon.Status, error)
	GetListFunc           func(ctx context.Context, listID string) (mastodon.List, error)
	StatusContextFunc     func(ctx context.Context, statusID string) (mastodon.Context, error)
}

// Factory returns a mastodon.Factory that serves m for every instance and
// records the instance and token it was used with.
func (m *MockMastodonEndpoint) Factory() mastodon.Factory {
	return func(instanceURL string) mastodon.IEndpoint {
		m.InstanceURL = instanceURL
		return m
	}
}

func (m *MockMastodonEndpoint) WithToken(accessToken string) mastodon.IEndpoint {
	m.AccessToken = accessToken
	return m
}

func (m *MockMastodonEndpoint) CreateApp(ctx context.Context) (mastodon.Application, error) {
	if m.CreateAppFunc != nil {
		return m.CreateAppFunc(ctx)
	}

	return mastodon.Application{ClientID: "client-id", ClientSecret: "client-secret"}, nil
}

func (m *MockMastodonEndpoint) AuthCodeURL(client mastodon.ClientCredentials, state string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(client, state)
	}

	return fmt.Sprintf("%s/oauth/authorize?client_id=%s&state=%s",
		m.InstanceURL, url.QueryEscape(client.ClientID), url.QueryEscape(state))
}

func (m *MockMastodonEndpoint) ExchangeCode(
	ctx context.Context, client mastodon.ClientCredentials, code string,
) (string, error) {
	if m.ExchangeCodeFunc != nil {
		return m.ExchangeCodeFunc(ctx, client, code)
	}

	return "access-token", nil
}

func (m *MockMastodonEndpoint) VerifyCredentials(ctx context.Context) (mastodon.Account, error) {
	if m.VerifyCredentialsFunc != nil {
		return m.VerifyCredentialsFunc(ctx, m.AccessToken)
	}

	return mastodon.Account{ID: "109", Username: "alice", Acct: "alice"}, nil
}

func (m *MockMastodonEndpoint) HomeTimeline(ctx context.Context, maxID string, limit int) ([]mastodon.Status, error) {
	if m.HomeTimelineFunc != nil {
		return m.HomeTimelineFunc(ctx, maxID, limit)
	}

	return nil, nil
}

func (m *MockMastodonEndpoint) ListTimeline(
	ctx context.Context, listID, maxID string, limit int,
) ([]mastodon.Status, error) {
	if m.ListTimelineFunc != nil {
		return m.ListTimelineFunc(ctx, listID, maxID, limit)
	}

	return nil, nil
}

func (m *MockMastodonEndpoint) GetList(ctx context.Context, listID string) (mastodon.List, error) {
	if m.GetListFunc != nil {
		return m.GetListFunc(ctx, listID)
	}

	return mastodon.List{ID: listID, Title: "List " + listID}, nil
}

func (m *MockMastodonEndpoint) StatusContext(ctx context.Context, statusID string) (mastodon.Context, error) {
	if m.StatusContextFunc != nil {
		return m.StatusContextFunc(ctx, statusID)
	}

	return mastodon.Context{}, nil
}
