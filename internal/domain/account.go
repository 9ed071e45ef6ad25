package domain

import (
	"context"

	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/internal/display"
	"github.com/streamspigot/mastofeeder/internal/entity"
	"github.com/streamspigot/mastofeeder/internal/model"
	"github.com/streamspigot/mastofeeder/internal/repository"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

type AccountDomain interface {
	Get(context.Context, *model.GetAccountRequest) (*model.GetAccountResponse, error)
}

type accountDomain struct {
	identityRepo repository.IdentityRepository
	mastodon     mastodon.Factory
}

func NewAccountDomain(identityRepo repository.IdentityRepository, factory mastodon.Factory) AccountDomain {
	return &accountDomain{identityRepo: identityRepo, mastodon: factory}
}

func (d *accountDomain) Get(ctx context.Context, req *model.GetAccountRequest) (*model.GetAccountResponse, error) {
	resp := &model.GetAccountResponse{
		ContactEmail: xcontext.Configs(ctx).ApiServer.ContactEmail,
	}

	session, err := currentSession(ctx, d.identityRepo)
	if err != nil {
		return nil, err
	}

	if session == nil {
		return resp, nil
	}

	endpoint := d.mastodon(session.InstanceURL).WithToken(session.AccessToken)
	user, err := endpoint.VerifyCredentials(ctx)
	if err != nil {
		return nil, upstreamFailure(ctx, "verify_credentials", err)
	}

	prefs := entity.ResolvePrefs(session.Prefs)
	resp.SignedIn = true
	resp.User = &model.Account{
		ID:          user.ID,
		Username:    user.Username,
		Acct:        user.Acct,
		DisplayName: display.DisplayName(user),
		URL:         user.URL,
		Avatar:      user.Avatar,
	}
	resp.Prefs = &prefs
	resp.TimelineFeedURL = common.TimelineFeedURL(baseURL(ctx), session.FeedID)

	return resp, nil
}
