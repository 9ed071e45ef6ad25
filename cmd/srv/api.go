package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/streamspigot/mastofeeder/internal/middleware"
	"github.com/streamspigot/mastofeeder/pkg/prometheus"
	"github.com/streamspigot/mastofeeder/pkg/router"
	"github.com/urfave/cli/v2"
)

const shutdownTimeout = 10 * time.Second

func (s *srv) startApi(ct *cli.Context) error {
	ctx, stop := signal.NotifyContext(ct.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := s.loadConfig(ct); err != nil {
		return err
	}

	s.loadLogger()
	if err := s.loadStorage(ctx); err != nil {
		return err
	}
	defer s.close()

	s.loadEndpoint()
	s.loadSession()
	s.loadRepos()
	s.loadDomains()
	s.loadRouter()

	s.server = &http.Server{
		Addr:              s.configs.ApiServer.Address(),
		Handler:           s.router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infof("Starting server on %s, public url %s", s.server.Addr, s.configs.ApiServer.BaseURL())
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		s.logger.Infof("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
	}

	s.logger.Infof("Server stopped")
	return nil
}

func (s *srv) loadRouter() {
	s.router = router.New(*s.configs, s.logger, s.cookies, s.httpClient)
	s.router.Before(middleware.WithStartTime())
	s.router.After(middleware.HandleRedirect())
	s.router.After(middleware.HandleRawBody())
	s.router.AddCloser(middleware.Logger())
	s.router.AddCloser(middleware.Prometheus())

	s.router.Handle(http.MethodGet, "/metrics", prometheus.NewHandler())
	s.router.Handle(http.MethodGet, "/health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	base := s.router.Group(s.configs.ApiServer.BasePath)

	// Account page and sign in flow
	{
		router.GET(base, "", s.accountDomain.Get)
		router.POST(base, "/sign-in", s.authDomain.SignIn)
		router.GET(base, "/sign-in-callback", s.authDomain.SignInCallback)
		router.POST(base, "/sign-out", s.authDomain.SignOut)
		router.POST(base, "/reset-feed-id", s.authDomain.ResetFeedID)
		router.POST(base, "/update-prefs", s.authDomain.UpdatePrefs)
	}

	// Feeds, authenticated by the feed id in the path
	{
		router.GET(base, "/feed/:feedId/timeline", s.feedDomain.Timeline)
		router.GET(base, "/feed/:feedId/list/:listId", s.feedDomain.ListTimeline)
		router.GET(base, "/feed/:feedId/parent/:statusId", s.feedDomain.StatusParent)
		router.GET(base, "/feed/:feedId/youtube/:videoId", s.feedDomain.YouTubeEmbed)
	}
}
