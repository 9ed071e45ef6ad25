package mastodon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/streamspigot/mastofeeder/pkg/api"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{
	AppName:     "Stream Spigot - Masto Feeder",
	Website:     "https://www.streamspigot.com/masto-feeder",
	RedirectURI: "https://www.streamspigot.com/masto-feeder/sign-in-callback",
	Scopes:      []string{"read:accounts", "read:follows", "read:lists", "read:statuses"},
}

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Endpoint, context.Context) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	ctx := xcontext.WithHTTPClient(context.Background(), server.Client())
	return New(testConfig, server.URL), ctx
}

func TestEndpoint_CreateApp(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/apps", r.URL.Path)

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, testConfig.RedirectURI, body["redirect_uris"])
		assert.Equal(t, "read:accounts read:follows read:lists read:statuses", body["scopes"])

		w.Write([]byte(`{"id":"1","name":"x","client_id":"cid","client_secret":"csecret"}`))
	})

	app, err := endpoint.CreateApp(ctx)
	require.NoError(t, err)
	require.Equal(t, "cid", app.ClientID)
	require.Equal(t, "csecret", app.ClientSecret)
}

func TestEndpoint_CreateApp_MissingCredentials(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"1","name":"x","client_id":"cid"}`))
	})

	_, err := endpoint.CreateApp(ctx)
	require.Error(t, err)
}

func TestEndpoint_AuthCodeURL(t *testing.T) {
	endpoint := New(testConfig, "https://example.social")
	raw := endpoint.AuthCodeURL(ClientCredentials{ClientID: "cid", ClientSecret: "csecret"}, "xyz")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "example.social", u.Host)
	require.Equal(t, "/oauth/authorize", u.Path)

	query := u.Query()
	require.Equal(t, "cid", query.Get("client_id"))
	require.Equal(t, "code", query.Get("response_type"))
	require.Equal(t, testConfig.RedirectURI, query.Get("redirect_uri"))
	require.Equal(t, "read:accounts read:follows read:lists read:statuses", query.Get("scope"))
	require.Equal(t, "false", query.Get("force_login"))
	require.Equal(t, "xyz", query.Get("state"))
}

func TestEndpoint_ExchangeCode(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "abc", r.PostForm.Get("code"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		assert.Equal(t, "csecret", r.PostForm.Get("client_secret"))
		assert.Equal(t, testConfig.RedirectURI, r.PostForm.Get("redirect_uri"))
		assert.Equal(t, "read:accounts read:follows read:lists read:statuses", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"token-1","token_type":"Bearer","scope":"read"}`))
	})

	token, err := endpoint.ExchangeCode(ctx, ClientCredentials{ClientID: "cid", ClientSecret: "csecret"}, "abc")
	require.NoError(t, err)
	require.Equal(t, "token-1", token)
}

func TestEndpoint_ExchangeCode_Rejected(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := endpoint.ExchangeCode(ctx, ClientCredentials{ClientID: "cid", ClientSecret: "csecret"}, "abc")
	require.Error(t, err)
}

func TestEndpoint_HomeTimeline(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/timelines/home", r.URL.Path)
		assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
		assert.Equal(t, "40", r.URL.Query().Get("limit"))
		assert.Equal(t, "200", r.URL.Query().Get("max_id"))

		w.Write([]byte(`[
			{"id":"199","uri":"https://a.example/1","created_at":"2023-01-02T03:04:05.000Z",
			 "account":{"id":"7","username":"alice","display_name":"Alice"},"content":"<p>hi</p>",
			 "media_attachments":[]}
		]`))
	})

	statuses, err := endpoint.WithToken("token-1").HomeTimeline(ctx, "200", 40)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, "199", statuses[0].ID)
	require.Equal(t, "alice", statuses[0].Account.Username)
	require.Equal(t, 2023, statuses[0].CreatedAt.Year())
}

func TestEndpoint_HomeTimeline_FirstPageHasNoCursor(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, ok := r.URL.Query()["max_id"]
		assert.False(t, ok)
		w.Write([]byte(`[]`))
	})

	statuses, err := endpoint.WithToken("token-1").HomeTimeline(ctx, "", 10)
	require.NoError(t, err)
	require.Empty(t, statuses)
}

func TestEndpoint_VerifyCredentials_Unauthorized(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"The access token is invalid"}`))
	})

	_, err := endpoint.WithToken("revoked").VerifyCredentials(ctx)
	var statusErr *api.StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusUnauthorized, statusErr.Code)
}

func TestEndpoint_StatusContext(t *testing.T) {
	endpoint, ctx := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/statuses/42/context", r.URL.Path)
		w.Write([]byte(`{"ancestors":[{"id":"1","url":"https://a.example/@bob/1"}],"descendants":[]}`))
	})

	result, err := endpoint.WithToken("token-1").StatusContext(ctx, "42")
	require.NoError(t, err)
	require.Len(t, result.Ancestors, 1)
	require.Equal(t, "https://a.example/@bob/1", result.Ancestors[0].URL)
}

func TestEndpoint_WithTokenDoesNotMutate(t *testing.T) {
	endpoint := New(testConfig, "https://example.social")
	withToken := endpoint.WithToken("token-1").(*Endpoint)
	require.Equal(t, "", endpoint.accessToken)
	require.Equal(t, "token-1", withToken.accessToken)
}

func TestEndpoint_ListPathsAreEscaped(t *testing.T) {
	generator := &api.MockGenerator{
		RespondFunc: func(ctx context.Context, req api.MockRequest) (*api.Response, error) {
			return &api.Response{Code: http.StatusOK, RawBody: []byte(`{"id":"a/b","title":"Friends"}`)}, nil
		},
	}

	endpoint := New(testConfig, "https://example.social")
	endpoint.apiGenerator = generator

	list, err := endpoint.WithToken("token").GetList(context.Background(), "a/b")
	require.NoError(t, err)
	require.Equal(t, "Friends", list.Title)

	// A list object does not decode as a page of statuses.
	_, err = endpoint.ListTimeline(context.Background(), "a/b", "", 20)
	require.Error(t, err)

	require.Len(t, generator.Requests, 2)
	require.Equal(t, "/api/v1/lists/a%2Fb", generator.Requests[0].Path)
	require.Equal(t, "Bearer token", generator.Requests[0].Headers.Get("Authorization"))
	require.Equal(t, "application/json", generator.Requests[0].Headers.Get("Accept"))

	require.Equal(t, "/api/v1/timelines/list/a%2Fb", generator.Requests[1].Path)
	require.Empty(t, generator.Requests[1].Headers.Get("Authorization"))
	require.Equal(t, api.Parameter{"limit": "20", "max_id": ""}, generator.Requests[1].Query)
}
