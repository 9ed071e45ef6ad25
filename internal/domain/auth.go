package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/internal/entity"
	"github.com/streamspigot/mastofeeder/internal/model"
	"github.com/streamspigot/mastofeeder/internal/repository"
	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

type AuthDomain interface {
	SignIn(context.Context, *model.SignInRequest) (*model.SignInResponse, error)
	SignInCallback(context.Context, *model.SignInCallbackRequest) (*model.SignInCallbackResponse, error)
	SignOut(context.Context, *model.SignOutRequest) (*model.SignOutResponse, error)
	ResetFeedID(context.Context, *model.ResetFeedIDRequest) (*model.ResetFeedIDResponse, error)
	UpdatePrefs(context.Context, *model.UpdatePrefsRequest) (*model.UpdatePrefsResponse, error)
}

type authDomain struct {
	identityRepo repository.IdentityRepository
	mastodon     mastodon.Factory
	newID        func() string
}

func NewAuthDomain(identityRepo repository.IdentityRepository, factory mastodon.Factory) AuthDomain {
	return &authDomain{
		identityRepo: identityRepo,
		mastodon:     factory,
		newID:        uuid.NewString,
	}
}

func (d *authDomain) SignIn(ctx context.Context, req *model.SignInRequest) (*model.SignInResponse, error) {
	if req.InstanceURL == "" {
		return nil, errorx.New(errorx.BadRequest, "Instance URL is required")
	}

	instanceURL, err := common.NormalizeInstanceURL(req.InstanceURL)
	if err != nil {
		xcontext.Logger(ctx).Debugf("Rejected instance url %q: %v", req.InstanceURL, err)
		return nil, errorx.New(errorx.BadRequest, "Instance URL is invalid")
	}

	app, err := d.getOrCreateApp(ctx, instanceURL)
	if err != nil {
		return nil, err
	}

	authRequest := &entity.AuthRequest{
		ID:          d.newID(),
		InstanceURL: instanceURL,
		CreatedAt:   time.Now(),
	}
	if err := d.identityRepo.PutAuthRequest(ctx, authRequest); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save auth request: %v", err)
		return nil, errorx.Unknown
	}

	cfg := xcontext.Configs(ctx).Auth
	if err := xcontext.CookieJar(ctx).Set(cfg.AuthRequestCookie, authRequest.ID, cfg.AuthRequestTTL); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot set auth request cookie: %v", err)
		return nil, errorx.Unknown
	}

	endpoint := d.mastodon(instanceURL)
	return &model.SignInResponse{URL: endpoint.AuthCodeURL(credentials(app), authRequest.ID)}, nil
}

func (d *authDomain) getOrCreateApp(ctx context.Context, instanceURL string) (*entity.App, error) {
	app, err := d.identityRepo.GetApp(ctx, instanceURL)
	if err == nil {
		return app, nil
	}

	if !errors.Is(err, repository.ErrNotFound) {
		xcontext.Logger(ctx).Errorf("Cannot get app: %v", err)
		return nil, errorx.Unknown
	}

	registered, err := d.mastodon(instanceURL).CreateApp(ctx)
	if err != nil {
		return nil, upstreamFailure(ctx, "create_app", err)
	}

	app = &entity.App{
		InstanceURL:  instanceURL,
		ClientID:     registered.ClientID,
		ClientSecret: registered.ClientSecret,
	}
	if err := d.identityRepo.PutApp(ctx, app); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot save app: %v", err)
		return nil, errorx.Unknown
	}

	return app, nil
}

func (d *authDomain) SignInCallback(
	ctx context.Context, req *model.SignInCallbackRequest,
) (*model.SignInCallbackResponse, error) {
	if req.Code == "" {
		if req.Error != "" {
			return nil, errorx.New(errorx.BadRequest, "Authorization failed: %s", req.Error)
		}

		return nil, errorx.New(errorx.BadRequest, "No auth code found")
	}

	cfg := xcontext.Configs(ctx).Auth
	jar := xcontext.CookieJar(ctx)
	authRequestID, ok := jar.Get(cfg.AuthRequestCookie)
	if !ok || authRequestID == "" {
		return nil, errorx.New(errorx.BadRequest, "No auth request cookie found")
	}

	if err := jar.Delete(cfg.AuthRequestCookie); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete auth request cookie: %v", err)
		return nil, errorx.Unknown
	}

	// Some servers do not send the state back, so only a present state is checked.
	if req.State != "" && req.State != authRequestID {
		// The auth request named by the cookie must not survive a failed check.
		if err := d.identityRepo.DeleteAuthRequest(ctx, authRequestID); err != nil {
			xcontext.Logger(ctx).Errorf("Cannot delete auth request: %v", err)
			return nil, errorx.Unknown
		}

		return nil, errorx.New(errorx.StateMismatch,
			"Mismatched auth request cookie (%s) and state (%s)", authRequestID, req.State)
	}

	authRequest, err := d.identityRepo.GetAuthRequest(ctx, authRequestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorx.New(errorx.StateMismatch, "Unknown auth request (%s)", authRequestID)
		}

		xcontext.Logger(ctx).Errorf("Cannot get auth request: %v", err)
		return nil, errorx.Unknown
	}

	if err := d.identityRepo.DeleteAuthRequest(ctx, authRequestID); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete auth request: %v", err)
		return nil, errorx.Unknown
	}

	instanceURL := authRequest.InstanceURL
	app, err := d.identityRepo.GetApp(ctx, instanceURL)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorx.New(errorx.StateMismatch, "Unknown app %s", instanceURL)
		}

		xcontext.Logger(ctx).Errorf("Cannot get app: %v", err)
		return nil, errorx.Unknown
	}

	endpoint := d.mastodon(instanceURL)
	accessToken, err := endpoint.ExchangeCode(ctx, credentials(app), req.Code)
	if err != nil {
		return nil, upstreamFailure(ctx, "exchange_code", err)
	}

	account, err := endpoint.WithToken(accessToken).VerifyCredentials(ctx)
	if err != nil {
		return nil, upstreamFailure(ctx, "verify_credentials", err)
	}

	session, err := d.upsertSession(ctx, instanceURL, account.ID, accessToken)
	if err != nil {
		return nil, err
	}

	if err := jar.Set(cfg.SessionCookie, session.SessionID, 0); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot set session cookie: %v", err)
		return nil, errorx.Unknown
	}

	xcontext.Logger(ctx).Infof("Account %s on %s signed in", account.Acct, instanceURL)
	return redirectToAccount(ctx), nil
}

// upsertSession keeps one session per account: a returning user gets the new
// token on the existing session, which leaves the feed URL unchanged.
func (d *authDomain) upsertSession(
	ctx context.Context, instanceURL, accountID, accessToken string,
) (*entity.Session, error) {
	for attempt := 0; attempt < 2; attempt++ {
		session, err := d.identityRepo.GetSessionByExternalAccount(ctx, instanceURL, accountID)
		if err == nil {
			session, err = d.identityRepo.RotateAccessToken(ctx, session, accessToken)
			if err != nil {
				xcontext.Logger(ctx).Errorf("Cannot update session token: %v", err)
				return nil, errorx.Unknown
			}

			return session, nil
		}

		if !errors.Is(err, repository.ErrNotFound) {
			xcontext.Logger(ctx).Errorf("Cannot get session by account: %v", err)
			return nil, errorx.Unknown
		}

		session = &entity.Session{
			SessionID:   d.newID(),
			FeedID:      d.newID(),
			MastodonID:  accountID,
			InstanceURL: instanceURL,
			AccessToken: accessToken,
		}
		err = d.identityRepo.CreateSession(ctx, session)
		if err == nil {
			return session, nil
		}

		// A concurrent callback for the same account won; update its session.
		if !errors.Is(err, repository.ErrAlreadyExists) {
			xcontext.Logger(ctx).Errorf("Cannot create session: %v", err)
			return nil, errorx.Unknown
		}
	}

	return nil, errorx.New(errorx.AlreadyExists, "Session is being created concurrently")
}

// SignOut only forgets the browser. The session record stays so that feed URLs
// keep working, which also means a stale cookie needs no lookup to be cleared.
func (d *authDomain) SignOut(ctx context.Context, req *model.SignOutRequest) (*model.SignOutResponse, error) {
	if err := xcontext.CookieJar(ctx).Delete(xcontext.Configs(ctx).Auth.SessionCookie); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot delete session cookie: %v", err)
		return nil, errorx.Unknown
	}

	return redirectToAccount(ctx), nil
}

func (d *authDomain) ResetFeedID(
	ctx context.Context, req *model.ResetFeedIDRequest,
) (*model.ResetFeedIDResponse, error) {
	session, err := currentSession(ctx, d.identityRepo)
	if err != nil {
		return nil, err
	}

	if session == nil {
		return redirectToAccount(ctx), nil
	}

	if _, err := d.identityRepo.RotateFeedID(ctx, session, d.newID()); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot rotate feed id: %v", err)
		return nil, errorx.Unknown
	}

	return redirectToAccount(ctx), nil
}

func (d *authDomain) UpdatePrefs(
	ctx context.Context, req *model.UpdatePrefsRequest,
) (*model.UpdatePrefsResponse, error) {
	session, err := currentSession(ctx, d.identityRepo)
	if err != nil {
		return nil, err
	}

	if session == nil {
		return redirectToAccount(ctx), nil
	}

	if req.TimeZone == "" {
		return nil, errorx.New(errorx.BadRequest, "Time zone is required")
	}

	if _, err := time.LoadLocation(req.TimeZone); err != nil {
		return nil, errorx.New(errorx.BadRequest, "Unknown time zone %s", req.TimeZone)
	}

	timeZone := req.TimeZone
	useLocalURLs := req.UseLocalURLs == "true"
	prefs := entity.Prefs{TimeZone: &timeZone, UseLocalURLs: &useLocalURLs}
	if _, err := d.identityRepo.UpdatePreferences(ctx, session, prefs); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot update preferences: %v", err)
		return nil, errorx.Unknown
	}

	return redirectToAccount(ctx), nil
}

func credentials(app *entity.App) mastodon.ClientCredentials {
	return mastodon.ClientCredentials{ClientID: app.ClientID, ClientSecret: app.ClientSecret}
}
