package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/streamspigot/mastofeeder/pkg/enum"
)

type Configs struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`

	ApiServer APIServerConfigs `toml:"api_server"`
	Session   SessionConfigs   `toml:"session"`
	Auth      AuthConfigs      `toml:"auth"`
	KV        KVConfigs        `toml:"kv"`
	Redis     RedisConfigs     `toml:"redis"`
	SQLite    SQLiteConfigs    `toml:"sqlite"`
	Timeline  TimelineConfigs  `toml:"timeline"`
	Upstream  UpstreamConfigs  `toml:"upstream"`
}

type APIServerConfigs struct {
	Host string `toml:"host"`
	Port string `toml:"port"`

	// PublicURL is the scheme and host the service is reachable on, without path.
	PublicURL string `toml:"public_url"`
	BasePath  string `toml:"base_path"`

	HandlerTimeout time.Duration `toml:"handler_timeout"`
	ContactEmail   string        `toml:"contact_email"`
}

// BaseURL returns the absolute URL of the service root, for example
// https://www.streamspigot.com/masto-feeder.
func (c APIServerConfigs) BaseURL() string {
	return strings.TrimSuffix(c.PublicURL, "/") + c.BasePath
}

func (c APIServerConfigs) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

type SessionConfigs struct {
	Secret string `toml:"secret"`
	Secure bool   `toml:"secure"`
}

type AuthConfigs struct {
	AppName           string        `toml:"app_name"`
	Website           string        `toml:"website"`
	Scopes            []string      `toml:"scopes"`
	SessionCookie     string        `toml:"session_cookie"`
	AuthRequestCookie string        `toml:"auth_request_cookie"`
	AuthRequestTTL    time.Duration `toml:"auth_request_ttl"`
}

type KVDriver string

var (
	KVDriverRedis  = enum.New(KVDriver("redis"))
	KVDriverSQLite = enum.New(KVDriver("sqlite"))
	KVDriverMemory = enum.New(KVDriver("memory"))
)

type KVConfigs struct {
	Driver KVDriver `toml:"driver"`
}

type RedisConfigs struct {
	Addr string `toml:"addr"`
}

type SQLiteConfigs struct {
	Path string `toml:"path"`
}

type TimelineConfigs struct {
	Window         time.Duration `toml:"window"`
	PageLimit      int           `toml:"page_limit"`
	DebugPageLimit int           `toml:"debug_page_limit"`
	MaxPages       int           `toml:"max_pages"`
}

type UpstreamConfigs struct {
	UserAgent string        `toml:"user_agent"`
	Timeout   time.Duration `toml:"timeout"`
}

// Default returns the configuration used when neither a config file nor the
// environment override a value.
func Default() Configs {
	return Configs{
		Env:      "local",
		LogLevel: "info",
		ApiServer: APIServerConfigs{
			Host:           "",
			Port:           "8080",
			PublicURL:      "http://localhost:8080",
			BasePath:       "/masto-feeder",
			HandlerTimeout: 30 * time.Second,
		},
		Auth: AuthConfigs{
			AppName: "Stream Spigot - Masto Feeder",
			Website: "https://www.streamspigot.com/masto-feeder",
			Scopes: []string{
				"read:accounts",
				"read:follows",
				"read:lists",
				"read:statuses",
			},
			SessionCookie:     "mastofeeder-session",
			AuthRequestCookie: "mastofeeder-auth-request",
			AuthRequestTTL:    10 * time.Minute,
		},
		KV:     KVConfigs{Driver: KVDriverSQLite},
		Redis:  RedisConfigs{Addr: "localhost:6379"},
		SQLite: SQLiteConfigs{Path: "mastofeeder.db"},
		Timeline: TimelineConfigs{
			Window:         12 * time.Hour,
			PageLimit:      40,
			DebugPageLimit: 10,
			MaxPages:       50,
		},
		Upstream: UpstreamConfigs{
			UserAgent: "Masto-Feeder; (+https://www.streamspigot.com/masto-feeder)",
			Timeout:   20 * time.Second,
		},
	}
}

func (c Configs) IsLocal() bool {
	return c.Env == "local" || c.Env == "test"
}
