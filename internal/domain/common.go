package domain

import (
	"context"
	"errors"

	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/internal/entity"
	"github.com/streamspigot/mastofeeder/internal/model"
	"github.com/streamspigot/mastofeeder/internal/repository"
	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

// currentSession resolves the session cookie of the request. It returns nil
// without error when the visitor is not signed in or the session is gone.
func currentSession(ctx context.Context, identityRepo repository.IdentityRepository) (*entity.Session, error) {
	jar := xcontext.CookieJar(ctx)
	if jar == nil {
		return nil, nil
	}

	sessionID, ok := jar.Get(xcontext.Configs(ctx).Auth.SessionCookie)
	if !ok || sessionID == "" {
		return nil, nil
	}

	session, err := identityRepo.GetSessionByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}

		xcontext.Logger(ctx).Errorf("Cannot get session: %v", err)
		return nil, errorx.Unknown
	}

	return session, nil
}

// sessionForFeed resolves the session owning a feed id. Unknown ids are
// reported as NotFound.
func sessionForFeed(
	ctx context.Context, identityRepo repository.IdentityRepository, feedID string,
) (*entity.Session, error) {
	if feedID == "" {
		return nil, errorx.New(errorx.BadRequest, "Invalid feed ID")
	}

	session, err := identityRepo.GetSessionByFeedID(ctx, feedID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errorx.New(errorx.NotFound, "Unknown feed ID")
		}

		xcontext.Logger(ctx).Errorf("Cannot get session by feed id: %v", err)
		return nil, errorx.Unknown
	}

	return session, nil
}

func baseURL(ctx context.Context) string {
	return xcontext.Configs(ctx).ApiServer.BaseURL()
}

func redirectToAccount(ctx context.Context) *model.RedirectResponse {
	return &model.RedirectResponse{URL: baseURL(ctx)}
}

func upstreamFailure(ctx context.Context, operation string, err error) error {
	common.PromCounters[common.UpstreamFailures].WithLabelValues(operation).Inc()
	xcontext.Logger(ctx).Warnf("Upstream call %s failed: %v", operation, err)
	return errorx.New(errorx.BadResponse, "The instance returned an error")
}
