// Package config carries the small amount of configuration the queue
// core needs from its caller: where the coordinator lives, and how deep
// a backlog to insist on before acquiring work. Nothing about CLI flags
// or YAML files belongs to the queue itself — that parsing lives here,
// one layer up, the way the teacher's cmd/ binaries load their own
// configuration.
package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Endpoint is the coordinator's base URL, used only to build
// human-readable per-position URLs (path = game id, fragment = position
// index).
type Endpoint struct {
	URL *url.URL
}

// GameURL returns a clone of the endpoint URL with its path set to
// gameID.
func (e Endpoint) GameURL(gameID string) *url.URL {
	if e.URL == nil {
		return nil
	}
	u := *e.URL
	u.Path = gameID
	return &u
}

// BacklogOpt is the minimum backlog depth required on each side of the
// coordinator's queue before this client accepts work. A nil field
// means no floor is configured for that side.
type BacklogOpt struct {
	User   *time.Duration
	System *time.Duration
}

// Config is everything cmd/fishnet needs to wire up the queue, the
// coordinator client, and the worker pool.
type Config struct {
	Cores       int
	Endpoint    Endpoint
	Backlog     BacklogOpt
	APIBaseURL  string
	APIToken    string
	Fake        bool
	MetricsAddr string
	WebAddr     string
}

// fileOverlay is the optional YAML shape users may supply via -config,
// mirroring the teacher's yaml-driven monitor definitions.
type fileOverlay struct {
	Cores       *int    `yaml:"cores"`
	Endpoint    *string `yaml:"endpoint"`
	APIToken    *string `yaml:"api_token"`
	UserBacklog *string `yaml:"user_backlog"`
	SysBacklog  *string `yaml:"system_backlog"`
	MetricsAddr *string `yaml:"metrics_addr"`
	WebAddr     *string `yaml:"web_addr"`
}

// Load parses flags (and an optional YAML overlay named by -config) into
// a Config. Flag values always win over the file, matching the "CLI
// overrides file" precedence the teacher's loaders use.
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("fishnet", flag.ContinueOnError)

	endpoint := fs.String("endpoint", "https://engine.lichess.ovh", "coordinator base URL")
	token := fs.String("token", "", "coordinator API token")
	cores := fs.Int("cores", 1, "number of local worker slots")
	userBacklog := fs.Duration("user-backlog", 0, "minimum user backlog to require before acquiring")
	systemBacklog := fs.Duration("system-backlog", 0, "minimum system backlog to require before acquiring")
	fake := fs.Bool("fake", false, "run against an in-process fake coordinator instead of a real one")
	metricsAddr := fs.String("metrics-addr", ":9100", "metrics address (not listened on; Prometheus metrics are served at /metrics on -web-addr)")
	webAddr := fs.String("web-addr", ":8080", "address to serve the status endpoints on")
	configFile := fs.String("config", "", "optional YAML file overlaying these defaults")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	explicit := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	cfg := Config{
		Cores:       *cores,
		APIBaseURL:  *endpoint,
		APIToken:    *token,
		Fake:        *fake,
		MetricsAddr: *metricsAddr,
		WebAddr:     *webAddr,
	}
	if *userBacklog > 0 {
		cfg.Backlog.User = userBacklog
	}
	if *systemBacklog > 0 {
		cfg.Backlog.System = systemBacklog
	}

	if *configFile != "" {
		if err := applyOverlay(*configFile, &cfg, explicit); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", *configFile, err)
		}
	}

	u, err := url.Parse(cfg.APIBaseURL)
	if err != nil {
		return Config{}, fmt.Errorf("parse endpoint url: %w", err)
	}
	cfg.Endpoint = Endpoint{URL: u}

	if cfg.Cores < 1 {
		cfg.Cores = 1
	}

	return cfg, nil
}

// applyOverlay layers a YAML file's values onto cfg, skipping any field
// whose flag the caller set explicitly on the command line — explicit is
// the set of flag names flag.Visit saw, so an explicitly-passed flag
// always wins over whatever the file says, per Load's doc comment.
func applyOverlay(path string, cfg *Config, explicit map[string]bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if overlay.Cores != nil && !explicit["cores"] {
		cfg.Cores = *overlay.Cores
	}
	if overlay.Endpoint != nil && !explicit["endpoint"] {
		cfg.APIBaseURL = *overlay.Endpoint
	}
	if overlay.APIToken != nil && !explicit["token"] {
		cfg.APIToken = *overlay.APIToken
	}
	if overlay.MetricsAddr != nil && !explicit["metrics-addr"] {
		cfg.MetricsAddr = *overlay.MetricsAddr
	}
	if overlay.WebAddr != nil && !explicit["web-addr"] {
		cfg.WebAddr = *overlay.WebAddr
	}
	if overlay.UserBacklog != nil && !explicit["user-backlog"] {
		d, err := time.ParseDuration(*overlay.UserBacklog)
		if err != nil {
			return fmt.Errorf("parse user_backlog: %w", err)
		}
		cfg.Backlog.User = &d
	}
	if overlay.SysBacklog != nil && !explicit["system-backlog"] {
		d, err := time.ParseDuration(*overlay.SysBacklog)
		if err != nil {
			return fmt.Errorf("parse system_backlog: %w", err)
		}
		cfg.Backlog.System = &d
	}
	return nil
}
