package main

import "github.com/urfave/cli/v2"

// NewApp creates an app with sane defaults.
func (s *srv) loadApp() {
	app := cli.NewApp()
	app.Action = cli.ShowAppHelp
	app.Name = "mastofeeder"
	app.Usage = "Serve Mastodon timelines as Atom feeds"
	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "Path of an optional TOML config file, environment variables take precedence",
			EnvVars: []string{"CONFIG_FILE"},
		},
	}
	app.Commands = []*cli.Command{
		{
			Action:      s.startApi,
			Name:        "api",
			Usage:       "Start service api",
			Category:    "Api",
			Description: `Used for start service api, it serves the account page, sign in flow and feeds.`,
		},
		{
			Action: s.startGC,
			Name:   "gc-auth-requests",
			Usage:  "Delete expired auth requests",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "interval",
					Usage: "Repeat with this interval until interrupted, zero runs once",
				},
			},
			Category:    "Worker",
			Description: `Used with the sqlite driver, which keeps expired keys until they are read or collected. Redis expires keys by itself.`,
		},
	}

	s.app = app
}
