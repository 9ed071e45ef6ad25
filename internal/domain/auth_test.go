package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/streamspigot/mastofeeder/internal/entity"
	"github.com/streamspigot/mastofeeder/internal/model"
	"github.com/streamspigot/mastofeeder/internal/repository"
	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/kv"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
	"github.com/streamspigot/mastofeeder/pkg/testutil"
	"github.com/stretchr/testify/require"
)

const (
	authRequestCookie = "mastofeeder-auth-request"
	sessionCookie     = "mastofeeder-session"
)

func sequentialIDs(ids ...string) func() string {
	i := 0
	return func() string {
		if i < len(ids) {
			i++
			return ids[i-1]
		}

		i++
		return fmt.Sprintf("generated-%d", i)
	}
}

func newTestAuthDomain(ids ...string) (*authDomain, repository.IdentityRepository, *testutil.MockMastodonEndpoint) {
	repo := repository.NewIdentityRepository(kv.NewMemory(), time.Minute)
	endpoint := &testutil.MockMastodonEndpoint{}
	domain := &authDomain{
		identityRepo: repo,
		mastodon:     endpoint.Factory(),
		newID:        sequentialIDs(ids...),
	}

	return domain, repo, endpoint
}

func requireCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()

	var errx errorx.Error
	require.ErrorAs(t, err, &errx)
	require.Equal(t, code, errx.Code)
}

func Test_authDomain_SignIn_InvalidInstance(t *testing.T) {
	domain, _, endpoint := newTestAuthDomain()
	endpoint.CreateAppFunc = func(ctx context.Context) (mastodon.Application, error) {
		t.Fatal("must not register an app for an invalid instance")
		return mastodon.Application{}, nil
	}

	for _, input := range []string{"", "http://example.social", "https://", "not a url"} {
		jar := testutil.NewMockCookieJar()
		_, err := domain.SignIn(testutil.MockContext(jar), &model.SignInRequest{InstanceURL: input})
		requireCode(t, err, errorx.BadRequest)
		require.Empty(t, jar.Values)
	}
}

func Test_authDomain_SignIn_RegistersAppOnce(t *testing.T) {
	domain, repo, endpoint := newTestAuthDomain("request-1", "request-2")

	registrations := 0
	endpoint.CreateAppFunc = func(ctx context.Context) (mastodon.Application, error) {
		registrations++
		return mastodon.Application{ClientID: "client-id", ClientSecret: "client-secret"}, nil
	}

	jar := testutil.NewMockCookieJar()
	ctx := testutil.MockContext(jar)

	resp, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://Example.Social/about"})
	require.NoError(t, err)
	require.Equal(t, "https://example.social", endpoint.InstanceURL)
	require.Equal(t, "https://example.social/oauth/authorize?client_id=client-id&state=request-1", resp.URL)

	code, _ := resp.RedirectInfo()
	require.Equal(t, 302, code)

	require.Equal(t, "request-1", jar.Values[authRequestCookie])
	require.Equal(t, 10*time.Minute, jar.MaxAges[authRequestCookie])

	authRequest, err := repo.GetAuthRequest(ctx, "request-1")
	require.NoError(t, err)
	require.Equal(t, "https://example.social", authRequest.InstanceURL)

	app, err := repo.GetApp(ctx, "https://example.social")
	require.NoError(t, err)
	require.Equal(t, "client-secret", app.ClientSecret)

	_, err = domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
	require.NoError(t, err)
	require.Equal(t, 1, registrations)
	require.Equal(t, "request-2", jar.Values[authRequestCookie])
}

func Test_authDomain_SignIn_RegistrationFails(t *testing.T) {
	domain, repo, endpoint := newTestAuthDomain()
	endpoint.CreateAppFunc = func(ctx context.Context) (mastodon.Application, error) {
		return mastodon.Application{}, errors.New("registration closed")
	}

	jar := testutil.NewMockCookieJar()
	ctx := testutil.MockContext(jar)
	_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
	requireCode(t, err, errorx.BadResponse)

	_, err = repo.GetApp(ctx, "https://example.social")
	require.ErrorIs(t, err, repository.ErrNotFound)
	require.Empty(t, jar.Values)
}

func Test_authDomain_SignInCallback_Scenario(t *testing.T) {
	domain, repo, endpoint := newTestAuthDomain("xyz", "session-1", "feed-1")

	var exchanged mastodon.ClientCredentials
	endpoint.ExchangeCodeFunc = func(ctx context.Context, client mastodon.ClientCredentials, code string) (string, error) {
		require.Equal(t, "abc", code)
		exchanged = client
		return "token-1", nil
	}
	endpoint.VerifyCredentialsFunc = func(ctx context.Context, accessToken string) (mastodon.Account, error) {
		require.Equal(t, "token-1", accessToken)
		return mastodon.Account{ID: "109", Username: "alice"}, nil
	}

	jar := testutil.NewMockCookieJar()
	ctx := testutil.MockContext(jar)

	_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
	require.NoError(t, err)

	resp, err := domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "xyz"})
	require.NoError(t, err)
	require.Equal(t, testutil.TestBaseURL, resp.URL)
	require.Equal(t, "client-id", exchanged.ClientID)

	require.Contains(t, jar.Deleted, authRequestCookie)
	require.NotContains(t, jar.Values, authRequestCookie)
	require.Equal(t, "session-1", jar.Values[sessionCookie])

	_, err = repo.GetAuthRequest(ctx, "xyz")
	require.ErrorIs(t, err, repository.ErrNotFound)

	session, err := repo.GetSessionByFeedID(ctx, "feed-1")
	require.NoError(t, err)
	require.Equal(t, entity.Session{
		SessionID:   "session-1",
		FeedID:      "feed-1",
		MastodonID:  "109",
		InstanceURL: "https://example.social",
		AccessToken: "token-1",
	}, *session)

	byAccount, err := repo.GetSessionByExternalAccount(ctx, "https://example.social", "109")
	require.NoError(t, err)
	require.Equal(t, session, byAccount)
}

func Test_authDomain_SignInCallback_Replay(t *testing.T) {
	domain, _, _ := newTestAuthDomain("xyz")

	jar := testutil.NewMockCookieJar()
	ctx := testutil.MockContext(jar)

	_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
	require.NoError(t, err)

	_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "xyz"})
	require.NoError(t, err)

	// The cookie is gone after the first callback.
	_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "xyz"})
	requireCode(t, err, errorx.BadRequest)

	// Replaying with a restored cookie still fails because the auth request was consumed.
	jar.Values[authRequestCookie] = "xyz"
	_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "xyz"})
	requireCode(t, err, errorx.StateMismatch)
	require.NotContains(t, jar.Values, authRequestCookie)
}

func Test_authDomain_SignInCallback_StateMismatch(t *testing.T) {
	domain, repo, endpoint := newTestAuthDomain("xyz")
	endpoint.ExchangeCodeFunc = func(ctx context.Context, client mastodon.ClientCredentials, code string) (string, error) {
		t.Fatal("must not exchange the code on a state mismatch")
		return "", nil
	}

	jar := testutil.NewMockCookieJar()
	ctx := testutil.MockContext(jar)

	_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
	require.NoError(t, err)

	_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "other"})
	requireCode(t, err, errorx.StateMismatch)
	require.NotContains(t, jar.Values, authRequestCookie)

	// The auth request cannot be used again, even with the right state.
	_, err = repo.GetAuthRequest(ctx, "xyz")
	require.ErrorIs(t, err, repository.ErrNotFound)

	jar.Values[authRequestCookie] = "xyz"
	_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "xyz"})
	requireCode(t, err, errorx.StateMismatch)
}

func Test_authDomain_SignInCallback_MissingStateTolerated(t *testing.T) {
	domain, _, _ := newTestAuthDomain("xyz", "session-1", "feed-1")

	jar := testutil.NewMockCookieJar()
	ctx := testutil.MockContext(jar)

	_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
	require.NoError(t, err)

	_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc"})
	require.NoError(t, err)
	require.Equal(t, "session-1", jar.Values[sessionCookie])
}

func Test_authDomain_SignInCallback_MissingCode(t *testing.T) {
	domain, _, _ := newTestAuthDomain()

	jar := testutil.NewMockCookieJar()
	jar.Values[authRequestCookie] = "xyz"

	_, err := domain.SignInCallback(testutil.MockContext(jar), &model.SignInCallbackRequest{Error: "access_denied"})
	requireCode(t, err, errorx.BadRequest)

	// Nothing was consumed.
	require.Equal(t, "xyz", jar.Values[authRequestCookie])
}

func Test_authDomain_SignInCallback_UpstreamFailures(t *testing.T) {
	testCases := []struct {
		name  string
		setup func(endpoint *testutil.MockMastodonEndpoint)
	}{
		{
			name: "exchange fails",
			setup: func(endpoint *testutil.MockMastodonEndpoint) {
				endpoint.ExchangeCodeFunc = func(
					ctx context.Context, client mastodon.ClientCredentials, code string,
				) (string, error) {
					return "", errors.New("invalid_grant")
				}
			},
		},
		{
			name: "verify credentials fails",
			setup: func(endpoint *testutil.MockMastodonEndpoint) {
				endpoint.VerifyCredentialsFunc = func(ctx context.Context, accessToken string) (mastodon.Account, error) {
					return mastodon.Account{}, errors.New("token revoked")
				}
			},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			domain, repo, endpoint := newTestAuthDomain("xyz", "session-1", "feed-1")
			tt.setup(endpoint)

			jar := testutil.NewMockCookieJar()
			ctx := testutil.MockContext(jar)

			_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
			require.NoError(t, err)

			_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "xyz"})
			requireCode(t, err, errorx.BadResponse)
			require.NotContains(t, jar.Values, sessionCookie)

			_, err = repo.GetSessionByFeedID(ctx, "feed-1")
			require.ErrorIs(t, err, repository.ErrNotFound)
		})
	}
}

func Test_authDomain_SignInCallback_ReturningUser(t *testing.T) {
	domain, repo, endpoint := newTestAuthDomain("request-1", "session-1", "feed-1", "request-2", "session-2", "feed-2")

	tokens := []string{"token-1", "token-2"}
	endpoint.ExchangeCodeFunc = func(ctx context.Context, client mastodon.ClientCredentials, code string) (string, error) {
		token := tokens[0]
		tokens = tokens[1:]
		return token, nil
	}

	signIn := func(state string) *testutil.MockCookieJar {
		jar := testutil.NewMockCookieJar()
		ctx := testutil.MockContext(jar)

		_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
		require.NoError(t, err)

		_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: state})
		require.NoError(t, err)
		return jar
	}

	first := signIn("request-1")
	second := signIn("request-2")
	require.Equal(t, "session-1", first.Values[sessionCookie])
	require.Equal(t, "session-1", second.Values[sessionCookie])

	ctx := context.Background()
	session, err := repo.GetSessionByID(ctx, "session-1")
	require.NoError(t, err)
	require.Equal(t, "feed-1", session.FeedID)
	require.Equal(t, "token-2", session.AccessToken)

	_, err = repo.GetSessionByID(ctx, "session-2")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

// racingRepository creates a competing session for the same account right
// before the first CreateSession call, as a concurrent callback would.
type racingRepository struct {
	repository.IdentityRepository
	raced bool
}

func (r *racingRepository) CreateSession(ctx context.Context, session *entity.Session) error {
	if !r.raced {
		r.raced = true
		competing := *session
		competing.SessionID = "winner-session"
		competing.FeedID = "winner-feed"
		competing.AccessToken = "winner-token"
		if err := r.IdentityRepository.CreateSession(ctx, &competing); err != nil {
			return err
		}
	}

	return r.IdentityRepository.CreateSession(ctx, session)
}

func Test_authDomain_SignInCallback_ConcurrentCreate(t *testing.T) {
	domain, repo, _ := newTestAuthDomain("xyz", "session-1", "feed-1")
	domain.identityRepo = &racingRepository{IdentityRepository: repo}

	jar := testutil.NewMockCookieJar()
	ctx := testutil.MockContext(jar)

	_, err := domain.SignIn(ctx, &model.SignInRequest{InstanceURL: "https://example.social"})
	require.NoError(t, err)

	_, err = domain.SignInCallback(ctx, &model.SignInCallbackRequest{Code: "abc", State: "xyz"})
	require.NoError(t, err)
	require.Equal(t, "winner-session", jar.Values[sessionCookie])

	session, err := repo.GetSessionByID(ctx, "winner-session")
	require.NoError(t, err)
	require.Equal(t, "winner-feed", session.FeedID)
	require.Equal(t, "access-token", session.AccessToken)
}

func Test_authDomain_SignOut(t *testing.T) {
	domain, repo, _ := newTestAuthDomain()
	ctx := context.Background()
	require.NoError(t, repo.CreateSession(ctx, &entity.Session{
		SessionID: "session-1", FeedID: "feed-1", MastodonID: "109", InstanceURL: "https://example.social",
	}))

	jar := testutil.NewMockCookieJar()
	jar.Values[sessionCookie] = "session-1"

	resp, err := domain.SignOut(testutil.MockContext(jar), &model.SignOutRequest{})
	require.NoError(t, err)
	require.Equal(t, testutil.TestBaseURL, resp.URL)
	require.Contains(t, jar.Deleted, sessionCookie)

	// Signing out keeps the session so the feed URL stays valid.
	_, err = repo.GetSessionByFeedID(ctx, "feed-1")
	require.NoError(t, err)
}

func Test_authDomain_SignOut_WithoutSession(t *testing.T) {
	store := testutil.NewMockKV()
	store.GetFunc = func(ctx context.Context, key string) (string, error) {
		return "", errors.New("storage is down")
	}

	domain, _, _ := newTestAuthDomain()
	domain.identityRepo = repository.NewIdentityRepository(store, time.Minute)

	// A cookie naming a missing session is cleared without touching storage.
	jar := testutil.NewMockCookieJar()
	jar.Values[sessionCookie] = "gone"

	resp, err := domain.SignOut(testutil.MockContext(jar), &model.SignOutRequest{})
	require.NoError(t, err)
	require.Equal(t, testutil.TestBaseURL, resp.URL)
	require.Contains(t, jar.Deleted, sessionCookie)
	require.NotContains(t, jar.Values, sessionCookie)
}

func Test_authDomain_ResetFeedID(t *testing.T) {
	domain, repo, _ := newTestAuthDomain("feed-2")
	ctx := context.Background()
	require.NoError(t, repo.CreateSession(ctx, &entity.Session{
		SessionID: "session-1", FeedID: "feed-1", MastodonID: "109", InstanceURL: "https://example.social",
	}))

	// Without a session cookie nothing changes.
	resp, err := domain.ResetFeedID(testutil.MockContext(testutil.NewMockCookieJar()), &model.ResetFeedIDRequest{})
	require.NoError(t, err)
	require.Equal(t, testutil.TestBaseURL, resp.URL)
	_, err = repo.GetSessionByFeedID(ctx, "feed-1")
	require.NoError(t, err)

	jar := testutil.NewMockCookieJar()
	jar.Values[sessionCookie] = "session-1"
	_, err = domain.ResetFeedID(testutil.MockContext(jar), &model.ResetFeedIDRequest{})
	require.NoError(t, err)

	_, err = repo.GetSessionByFeedID(ctx, "feed-1")
	require.ErrorIs(t, err, repository.ErrNotFound)

	session, err := repo.GetSessionByFeedID(ctx, "feed-2")
	require.NoError(t, err)
	require.Equal(t, "session-1", session.SessionID)
}

func Test_authDomain_ResetFeedID_StaleCookie(t *testing.T) {
	domain, _, _ := newTestAuthDomain()

	jar := testutil.NewMockCookieJar()
	jar.Values[sessionCookie] = "deleted-session"

	resp, err := domain.ResetFeedID(testutil.MockContext(jar), &model.ResetFeedIDRequest{})
	require.NoError(t, err)
	require.Equal(t, testutil.TestBaseURL, resp.URL)
}

func Test_authDomain_UpdatePrefs(t *testing.T) {
	domain, repo, _ := newTestAuthDomain()
	ctx := context.Background()
	require.NoError(t, repo.CreateSession(ctx, &entity.Session{
		SessionID: "session-1", FeedID: "feed-1", MastodonID: "109", InstanceURL: "https://example.social",
	}))

	jar := testutil.NewMockCookieJar()
	jar.Values[sessionCookie] = "session-1"
	mockCtx := testutil.MockContext(jar)

	_, err := domain.UpdatePrefs(mockCtx, &model.UpdatePrefsRequest{})
	requireCode(t, err, errorx.BadRequest)

	_, err = domain.UpdatePrefs(mockCtx, &model.UpdatePrefsRequest{TimeZone: "Mars/Olympus_Mons"})
	requireCode(t, err, errorx.BadRequest)

	_, err = domain.UpdatePrefs(mockCtx, &model.UpdatePrefsRequest{TimeZone: "Europe/Paris", UseLocalURLs: "true"})
	require.NoError(t, err)

	session, err := repo.GetSessionByID(ctx, "session-1")
	require.NoError(t, err)
	require.Equal(t, entity.ResolvedPrefs{TimeZone: "Europe/Paris", UseLocalURLs: true}, entity.ResolvePrefs(session.Prefs))

	_, err = domain.UpdatePrefs(mockCtx, &model.UpdatePrefsRequest{TimeZone: "UTC"})
	require.NoError(t, err)

	session, err = repo.GetSessionByID(ctx, "session-1")
	require.NoError(t, err)
	require.Equal(t, entity.ResolvedPrefs{TimeZone: "UTC", UseLocalURLs: false}, entity.ResolvePrefs(session.Prefs))
}
