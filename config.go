/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Seednode/codenames/api"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	backend      string
	bind         string
	pollInterval time.Duration
	port         int
	prefix       string
	profile      bool
	testView     bool
	tlsCert      string
	tlsKey       string
	verbose      bool
	version      bool

	// set by validate; the only copy of the backend address the process uses
	backendURL *url.URL
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.pollInterval <= 0 {
		return fmt.Errorf("invalid poll interval (must be positive): %s", c.pollInterval)
	}

	u, err := url.Parse(c.backend)
	if err != nil {
		return fmt.Errorf("invalid backend url %q: %w", c.backend, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend url (scheme must be http or https): %q", c.backend)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend url (missing host): %q", c.backend)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("invalid backend url (must not have a query or fragment): %q", c.backend)
	}
	c.backendURL = u

	c.prefix = strings.TrimSuffix(c.prefix, "/")
	if c.prefix != "" && !strings.HasPrefix(c.prefix, "/") {
		return fmt.Errorf("invalid prefix (must start with /): %q", c.prefix)
	}

	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CODENAMES")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "codenames",
		Short:         "Web front-end for a code names style word-guessing party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVar(&cfg.backend, "backend-url", api.DefaultBaseURL, "base url of the game backend (env: CODENAMES_BACKEND_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: CODENAMES_BIND)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", 2*time.Second, "how often live boards refresh game state (env: CODENAMES_POLL_INTERVAL)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: CODENAMES_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: CODENAMES_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: CODENAMES_PROFILE)")
	fs.BoolVar(&cfg.testView, "test-view", false, "serve the diagnostic page at /test (env: CODENAMES_TEST_VIEW)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: CODENAMES_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: CODENAMES_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: CODENAMES_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: CODENAMES_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("codenames v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
