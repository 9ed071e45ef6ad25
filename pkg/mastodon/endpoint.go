package mastodon

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/streamspigot/mastofeeder/pkg/api"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
	"golang.org/x/oauth2"
)

type Config struct {
	AppName     string
	Website     string
	RedirectURI string
	Scopes      []string
}

type Endpoint struct {
	cfg          Config
	instanceURL  string
	accessToken  string
	apiGenerator api.Generator
}

func New(cfg Config, instanceURL string) *Endpoint {
	return &Endpoint{
		cfg:          cfg,
		instanceURL:  instanceURL,
		apiGenerator: api.NewGenerator(instanceURL),
	}
}

func NewFactory(cfg Config) Factory {
	return func(instanceURL string) IEndpoint {
		return New(cfg, instanceURL)
	}
}

func (e *Endpoint) WithToken(accessToken string) IEndpoint {
	clone := *e
	clone.accessToken = accessToken
	return &clone
}

func (e *Endpoint) CreateApp(ctx context.Context) (Application, error) {
	resp, err := e.apiGenerator.New("/api/v1/apps").
		Body(api.JSON{
			"client_name":   e.cfg.AppName,
			"redirect_uris": e.cfg.RedirectURI,
			"scopes":        strings.Join(e.cfg.Scopes, " "),
			"website":       e.cfg.Website,
		}).
		POST(ctx)
	if err != nil {
		return Application{}, err
	}

	var app Application
	if err := resp.Decode(&app); err != nil {
		return Application{}, err
	}

	if app.ClientID == "" || app.ClientSecret == "" {
		return Application{}, errors.New("app registration returned no client credentials")
	}

	return app, nil
}

func (e *Endpoint) oauth2Config(client ClientCredentials) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     client.ClientID,
		ClientSecret: client.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   e.instanceURL + "/oauth/authorize",
			TokenURL:  e.instanceURL + "/oauth/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: e.cfg.RedirectURI,
		Scopes:      e.cfg.Scopes,
	}
}

func (e *Endpoint) AuthCodeURL(client ClientCredentials, state string) string {
	return e.oauth2Config(client).AuthCodeURL(state, oauth2.SetAuthURLParam("force_login", "false"))
}

func (e *Endpoint) ExchangeCode(ctx context.Context, client ClientCredentials, code string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, xcontext.HTTPClient(ctx))
	token, err := e.oauth2Config(client).Exchange(ctx, code,
		oauth2.SetAuthURLParam("scope", strings.Join(e.cfg.Scopes, " ")))
	if err != nil {
		return "", err
	}

	if token.AccessToken == "" {
		return "", errors.New("token response has no access token")
	}

	return token.AccessToken, nil
}

func (e *Endpoint) VerifyCredentials(ctx context.Context) (Account, error) {
	var account Account
	if err := e.get(ctx, nil, &account, "/api/v1/accounts/verify_credentials"); err != nil {
		return Account{}, err
	}

	if account.ID == "" {
		return Account{}, errors.New("account has no id")
	}

	return account, nil
}

func (e *Endpoint) HomeTimeline(ctx context.Context, maxID string, limit int) ([]Status, error) {
	var statuses []Status
	err := e.get(ctx, timelineQuery(maxID, limit), &statuses, "/api/v1/timelines/home")
	return statuses, err
}

func (e *Endpoint) ListTimeline(ctx context.Context, listID, maxID string, limit int) ([]Status, error) {
	var statuses []Status
	err := e.get(ctx, timelineQuery(maxID, limit), &statuses,
		"/api/v1/timelines/list/%s", url.PathEscape(listID))
	return statuses, err
}

func (e *Endpoint) GetList(ctx context.Context, listID string) (List, error) {
	var list List
	err := e.get(ctx, nil, &list, "/api/v1/lists/%s", url.PathEscape(listID))
	return list, err
}

func (e *Endpoint) StatusContext(ctx context.Context, statusID string) (Context, error) {
	var result Context
	err := e.get(ctx, nil, &result, "/api/v1/statuses/%s/context", url.PathEscape(statusID))
	return result, err
}

func (e *Endpoint) get(ctx context.Context, query api.Parameter, v any, path string, args ...any) error {
	opts := []api.Opt{api.Accept("application/json")}
	if e.accessToken != "" {
		opts = append(opts, api.OAuth2("Bearer", e.accessToken))
	}

	resp, err := e.apiGenerator.New(path, args...).Query(query).GET(ctx, opts...)
	if err != nil {
		return err
	}

	return resp.Decode(v)
}

func timelineQuery(maxID string, limit int) api.Parameter {
	return api.Parameter{
		"limit":  strconv.Itoa(limit),
		"max_id": maxID,
	}
}
