package main

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/streamspigot/mastofeeder/config"
	"github.com/streamspigot/mastofeeder/internal/common"
	"github.com/streamspigot/mastofeeder/internal/domain"
	"github.com/streamspigot/mastofeeder/internal/domain/timeline"
	"github.com/streamspigot/mastofeeder/internal/repository"
	"github.com/streamspigot/mastofeeder/pkg/api"
	"github.com/streamspigot/mastofeeder/pkg/kv"
	"github.com/streamspigot/mastofeeder/pkg/logger"
	"github.com/streamspigot/mastofeeder/pkg/mastodon"
	"github.com/streamspigot/mastofeeder/pkg/router"
	"github.com/streamspigot/mastofeeder/pkg/session"
	"github.com/urfave/cli/v2"
)

type srv struct {
	app *cli.App

	configs *config.Configs
	logger  logger.Logger

	store   kv.KV
	closers []io.Closer

	httpClient *http.Client
	mastodon   mastodon.Factory
	cookies    *session.Store

	identityRepo repository.IdentityRepository

	authDomain    domain.AuthDomain
	feedDomain    domain.FeedDomain
	accountDomain domain.AccountDomain

	router *router.Router
	server *http.Server
}

func (s *srv) loadConfig(ct *cli.Context) error {
	cfg, err := config.Load(ct.String("config"))
	if err != nil {
		return err
	}

	s.configs = &cfg
	return nil
}

func (s *srv) loadLogger() {
	s.logger = logger.NewLogger(logger.ParseLevel(s.configs.LogLevel))
}

func (s *srv) loadStorage(ctx context.Context) error {
	switch s.configs.KV.Driver {
	case config.KVDriverRedis:
		store, err := kv.NewRedis(ctx, s.configs.Redis.Addr)
		if err != nil {
			return err
		}

		s.store = store
		s.closers = append(s.closers, store)

	case config.KVDriverSQLite:
		store, err := kv.NewSQLite(ctx, s.configs.SQLite.Path)
		if err != nil {
			return err
		}

		s.store = store
		s.closers = append(s.closers, store)

	case config.KVDriverMemory:
		s.logger.Warnf("Using the in-memory store, sessions are lost on restart")
		s.store = kv.NewMemory()

	default:
		return fmt.Errorf("unknown kv driver %q", s.configs.KV.Driver)
	}

	s.logger.Infof("Using %s key-value store", s.configs.KV.Driver)
	return nil
}

func (s *srv) loadEndpoint() {
	s.httpClient = api.NewHTTPClient(s.configs.Upstream.Timeout, s.configs.Upstream.UserAgent)
	s.mastodon = mastodon.NewFactory(mastodon.Config{
		AppName:     s.configs.Auth.AppName,
		Website:     s.configs.Auth.Website,
		RedirectURI: common.SignInCallbackURL(s.configs.ApiServer.BaseURL()),
		Scopes:      s.configs.Auth.Scopes,
	})
}

func (s *srv) loadSession() {
	s.cookies = session.NewCookieStore(
		[]byte(s.configs.Session.Secret),
		s.configs.ApiServer.BasePath,
		s.configs.Session.Secure,
	)
}

func (s *srv) loadRepos() {
	s.identityRepo = repository.NewIdentityRepository(s.store, s.configs.Auth.AuthRequestTTL)
}

func (s *srv) loadDomains() {
	s.authDomain = domain.NewAuthDomain(s.identityRepo, s.mastodon)
	s.feedDomain = domain.NewFeedDomain(s.identityRepo, s.mastodon, timeline.NewAggregator(s.configs.Timeline))
	s.accountDomain = domain.NewAccountDomain(s.identityRepo, s.mastodon)
}

func (s *srv) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Errorf("Cannot close resource: %v", err)
		}
	}

	s.closers = nil
}
