package testutil

import (
	"context"

	"github.com/streamspigot/mastofeeder/config"
	"github.com/streamspigot/mastofeeder/pkg/logger"
	"github.com/streamspigot/mastofeeder/pkg/xcontext"
)

const TestBaseURL = "https://feeder.example/masto-feeder"

func TestConfigs() config.Configs {
	cfg := config.Default()
	cfg.Env = "test"
	cfg.ApiServer.PublicURL = "https://feeder.example"
	cfg.Session.Secret = "0123456789abcdef0123456789abcdef"
	cfg.KV.Driver = config.KVDriverMemory
	return cfg
}

// MockContext returns a context carrying test configs, a silent logger and the
// given cookie jar.
func MockContext(jar *MockCookieJar) context.Context {
	ctx := context.Background()
	ctx = xcontext.WithConfigs(ctx, TestConfigs())
	ctx = xcontext.WithLogger(ctx, logger.NewLogger(logger.SILENCE))
	if jar != nil {
		ctx = xcontext.WithCookieJar(ctx, jar)
	}

	return ctx
}
