package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/streamspigot/mastofeeder/pkg/crypto"
	"github.com/streamspigot/mastofeeder/pkg/enum"
	"golang.org/x/exp/slices"
)

// requiredScopes are needed to verify the account and read its timelines. The
// umbrella "read" scope covers all of them.
var requiredScopes = []string{"read:accounts", "read:lists", "read:statuses"}

// Load builds the configuration from defaults, then the optional TOML file at
// path, then the environment (including a .env file in the working directory).
func Load(path string) (Configs, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Configs{}, fmt.Errorf("cannot decode config file %s: %w", path, err)
		}
	}

	// Only a missing .env file is tolerated.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Configs{}, fmt.Errorf("cannot load .env: %w", err)
	}

	env := &envReader{}

	cfg.Env = getEnv(env, "ENV", cfg.Env)
	cfg.LogLevel = getEnv(env, "LOG_LEVEL", cfg.LogLevel)

	cfg.ApiServer.Host = getEnv(env, "API_HOST", cfg.ApiServer.Host)
	cfg.ApiServer.Port = getEnv(env, "API_PORT", cfg.ApiServer.Port)
	cfg.ApiServer.PublicURL = getEnv(env, "PUBLIC_URL", cfg.ApiServer.PublicURL)
	cfg.ApiServer.BasePath = getEnv(env, "BASE_PATH", cfg.ApiServer.BasePath)
	cfg.ApiServer.HandlerTimeout = getEnv(env, "API_HANDLER_TIMEOUT", cfg.ApiServer.HandlerTimeout)
	cfg.ApiServer.ContactEmail = getEnv(env, "CONTACT_EMAIL", cfg.ApiServer.ContactEmail)

	cfg.Session.Secret = getEnv(env, "SESSION_SECRET", cfg.Session.Secret)
	if cfg.Session.Secret == "" && cfg.Env == "local" {
		// Sessions do not survive a restart without a configured secret.
		secret, err := crypto.GenerateRandomString(32)
		if err != nil {
			return Configs{}, fmt.Errorf("cannot generate session secret: %w", err)
		}

		cfg.Session.Secret = secret
	}
	cfg.Session.Secure = getEnv(env, "SESSION_SECURE", !cfg.IsLocal())

	cfg.Auth.AppName = getEnv(env, "AUTH_APP_NAME", cfg.Auth.AppName)
	cfg.Auth.AuthRequestTTL = getEnv(env, "AUTH_REQUEST_TTL", cfg.Auth.AuthRequestTTL)

	cfg.KV.Driver = KVDriver(getEnv(env, "KV_DRIVER", string(cfg.KV.Driver)))
	cfg.Redis.Addr = getEnv(env, "REDIS_ADDRESS", cfg.Redis.Addr)
	cfg.SQLite.Path = getEnv(env, "SQLITE_PATH", cfg.SQLite.Path)

	cfg.Timeline.Window = getEnv(env, "TIMELINE_WINDOW", cfg.Timeline.Window)
	cfg.Timeline.PageLimit = getEnv(env, "TIMELINE_PAGE_LIMIT", cfg.Timeline.PageLimit)
	cfg.Timeline.DebugPageLimit = getEnv(env, "TIMELINE_DEBUG_PAGE_LIMIT", cfg.Timeline.DebugPageLimit)
	cfg.Timeline.MaxPages = getEnv(env, "TIMELINE_MAX_PAGES", cfg.Timeline.MaxPages)

	cfg.Upstream.UserAgent = getEnv(env, "UPSTREAM_USER_AGENT", cfg.Upstream.UserAgent)
	cfg.Upstream.Timeout = getEnv(env, "UPSTREAM_TIMEOUT", cfg.Upstream.Timeout)

	if err := env.Err(); err != nil {
		return Configs{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Configs{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c Configs) Validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if !strings.HasPrefix(c.ApiServer.BasePath, "/") {
		return fmt.Errorf("base path must start with a slash, got %q", c.ApiServer.BasePath)
	}

	if _, err := enum.ToEnum[KVDriver](string(c.KV.Driver)); err != nil {
		return fmt.Errorf("unsupported kv driver %q", c.KV.Driver)
	}

	if !slices.Contains(c.Auth.Scopes, "read") {
		for _, scope := range requiredScopes {
			if !slices.Contains(c.Auth.Scopes, scope) {
				return fmt.Errorf("auth scopes must include %s", scope)
			}
		}
	}

	if c.Timeline.PageLimit <= 0 || c.Timeline.DebugPageLimit <= 0 || c.Timeline.MaxPages <= 0 {
		return fmt.Errorf("timeline limits must be positive")
	}

	return nil
}

// envReader collects every malformed variable so that Load reports them all
// at once.
type envReader struct {
	errs []error
}

func (r *envReader) Err() error {
	return errors.Join(r.errs...)
}

func getEnv[T string | int | bool | time.Duration](r *envReader, key string, def T) T {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return def
	}

	var result any
	var err error
	switch any(def).(type) {
	case string:
		result = value
	case int:
		result, err = strconv.Atoi(value)
	case bool:
		result, err = strconv.ParseBool(value)
	case time.Duration:
		result, err = time.ParseDuration(value)
	}

	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("invalid %s %q: %w", key, value, err))
		return def
	}

	return result.(T)
}
