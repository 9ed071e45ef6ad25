package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/internal/display"
	"github.com/streamspigot/mastofeeder/internal/domain/timeline"
	"github.com/streamspigot/mastofeeder/internal/entity"
	"github.com/streamspigot/mastofeeder/internal/feed"
	"github.com/streamspigot/mastofeeder/internal/model"
	"github.com/streamspigot/mastofeeder/internal/repository"
	"github.com/streamspigot/mastofeeder/pkg/errorx"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeXML  = "text/xml; charset=utf-8"
	contentTypeAtom = "application/atom+xml; charset=utf-8"
)

type FeedDomain interface {
	Timeline(context.Context, *model.TimelineFeedRequest) (*model.TimelineFeedResponse, error)
	ListTimeline(context.Context, *model.ListFeedRequest) (*model.ListFeedResponse, error)
	StatusParent(context.Context, *model.StatusParentRequest) (*model.StatusParentResponse, error)
	YouTubeEmbed(context.Context, *model.YouTubeEmbedRequest) (*model.YouTubeEmbedResponse, error)
}

type feedDomain struct {
	identityRepo repository.IdentityRepository
	mastodon     mastodon.Factory
	aggregator   *timeline.Aggregator
	now          func() time.Time
}

func NewFeedDomain(
	identityRepo repository.IdentityRepository,
	factory mastodon.Factory,
	aggregator *timeline.Aggregator,
) FeedDomain {
	return &feedDomain{
		identityRepo: identityRepo,
		mastodon:     factory,
		aggregator:   aggregator,
		now:          time.Now,
	}
}

type renderFlags struct {
	debug bool
	html  bool
}

func (d *feedDomain) Timeline(
	ctx context.Context, req *model.TimelineFeedRequest,
) (*model.TimelineFeedResponse, error) {
	session, err := sessionForFeed(ctx, d.identityRepo, req.FeedID)
	if err != nil {
		return nil, err
	}

	endpoint := d.mastodon(session.InstanceURL).WithToken(session.AccessToken)
	account, err := endpoint.VerifyCredentials(ctx)
	if err != nil {
		return nil, upstreamFailure(ctx, "verify_credentials", err)
	}

	flags := renderFlags{debug: req.Debug != nil, html: req.HTML != nil}
	statuses, err := d.aggregator.Fetch(ctx, endpoint.HomeTimeline, timeline.Options{Debug: flags.debug, Name: "home"})
	if err != nil {
		return nil, upstreamFailure(ctx, "home_timeline", err)
	}

	title := fmt.Sprintf("@%s Timeline", account.Username)
	feedURL := common.TimelineFeedURL(baseURL(ctx), session.FeedID)
	return d.render(ctx, session, title, feedURL, statuses, flags)
}

func (d *feedDomain) ListTimeline(
	ctx context.Context, req *model.ListFeedRequest,
) (*model.ListFeedResponse, error) {
	if req.ListID == "" {
		return nil, errorx.New(errorx.BadRequest, "Invalid list ID")
	}

	session, err := sessionForFeed(ctx, d.identityRepo, req.FeedID)
	if err != nil {
		return nil, err
	}

	endpoint := d.mastodon(session.InstanceURL).WithToken(session.AccessToken)
	list, err := endpoint.GetList(ctx, req.ListID)
	if err != nil {
		return nil, upstreamFailure(ctx, "get_list", err)
	}

	source := func(ctx context.Context, maxID string, limit int) ([]mastodon.Status, error) {
		return endpoint.ListTimeline(ctx, req.ListID, maxID, limit)
	}

	flags := renderFlags{debug: req.Debug != nil, html: req.HTML != nil}
	statuses, err := d.aggregator.Fetch(ctx, source, timeline.Options{Debug: flags.debug, Name: "list"})
	if err != nil {
		return nil, upstreamFailure(ctx, "list_timeline", err)
	}

	feedURL := common.ListFeedURL(baseURL(ctx), session.FeedID, req.ListID)
	return d.render(ctx, session, list.Title, feedURL, statuses, flags)
}

func (d *feedDomain) render(
	ctx context.Context,
	session *entity.Session,
	title, feedURL string,
	statuses []mastodon.Status,
	flags renderFlags,
) (*model.RawResponse, error) {
	base := baseURL(ctx)
	prefs := entity.ResolvePrefs(session.Prefs)
	opts := display.RenderOptions{
		ParentURL: func(statusID string) string {
			return common.StatusParentURL(base, session.FeedID, statusID)
		},
		YouTubeURL: func(videoID string) string {
			return common.YouTubeEmbedURL(base, session.FeedID, videoID)
		},
	}

	now := d.now()
	out := feed.Feed{
		Title:   title,
		FeedURL: feedURL,
		HomeURL: base,
		Author:  common.FeedAuthorName,
		Updated: now,
	}

	for _, status := range statuses {
		ds := display.New(status, prefs, session.InstanceURL)
		content, err := ds.Render(opts)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot render status %s: %v", status.ID, err)
			return nil, errorx.Unknown
		}

		entry := feed.Entry{
			ID:        ds.ID(),
			Link:      ds.Permalink(),
			Title:     ds.TitleAsText(),
			Published: ds.CreatedAt(),
			Updated:   ds.UpdatedAt(),
			Content:   content,
		}

		if flags.debug {
			raw, err := json.MarshalIndent(status, "", "  ")
			if err != nil {
				xcontext.Logger(ctx).Warnf("Cannot encode status %s for debugging: %v", status.ID, err)
			} else {
				entry.Debug = string(raw)
			}
		}

		out.Entries = append(out.Entries, entry)
	}

	var (
		body        []byte
		contentType string
		err         error
	)
	switch {
	case flags.html:
		body, err = out.HTML()
		contentType = contentTypeHTML
	case flags.debug:
		body, err = out.Atom()
		contentType = contentTypeXML
	default:
		body, err = out.Atom()
		contentType = contentTypeAtom
	}
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot encode feed: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RawResponse{ContentType: contentType, Body: body, LastModified: now}, nil
}

func (d *feedDomain) StatusParent(
	ctx context.Context, req *model.StatusParentRequest,
) (*model.StatusParentResponse, error) {
	if req.StatusID == "" {
		return nil, errorx.New(errorx.BadRequest, "Invalid status ID")
	}

	session, err := sessionForFeed(ctx, d.identityRepo, req.FeedID)
	if err != nil {
		return nil, err
	}

	endpoint := d.mastodon(session.InstanceURL).WithToken(session.AccessToken)
	statusContext, err := endpoint.StatusContext(ctx, req.StatusID)
	if err != nil {
		return nil, upstreamFailure(ctx, "status_context", err)
	}

	if len(statusContext.Ancestors) == 0 {
		return nil, errorx.New(errorx.NotFound, "No ancestors found")
	}

	parent := statusContext.Ancestors[len(statusContext.Ancestors)-1]
	if parent.URL == "" {
		return nil, errorx.New(errorx.NotFound, "Ancestor has no URL")
	}

	return &model.StatusParentResponse{URL: parent.URL}, nil
}

func (d *feedDomain) YouTubeEmbed(
	ctx context.Context, req *model.YouTubeEmbedRequest,
) (*model.YouTubeEmbedResponse, error) {
	if !display.IsValidVideoID(req.VideoID) {
		return nil, errorx.New(errorx.BadRequest, "Invalid video ID")
	}

	if _, err := sessionForFeed(ctx, d.identityRepo, req.FeedID); err != nil {
		return nil, err
	}

	body, err := feed.YouTubeEmbed(req.VideoID)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot render embed page: %v", err)
		return nil, errorx.Unknown
	}

	return &model.RawResponse{ContentType: contentTypeHTML, Body: body}, nil
}
