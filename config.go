package main

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Seednode/quizboard/board"
	"github.com/Seednode/quizboard/jservice"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	apiURL         string
	bind           string
	cache          string
	cacheTTL       time.Duration
	categories     int
	categoryPool   int
	clues          int
	doneDelay      time.Duration
	fetchTimeout   time.Duration
	loadingDelay   time.Duration
	port           int
	prefix         string
	profile        bool
	sessionTimeout time.Duration
	tlsCert        string
	tlsKey         string
	verbose        bool
	version        bool
}

func (c *Config) validate() error {
	if (c.tlsCert == "") != (c.tlsKey == "") {
		return errors.New("both --tls-cert and --tls-key must be provided together")
	}
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.categories < 1 {
		return fmt.Errorf("invalid category count (must be at least 1): %d", c.categories)
	}
	if c.clues < 1 {
		return fmt.Errorf("invalid clue count (must be at least 1): %d", c.clues)
	}
	if c.categoryPool < c.categories {
		return fmt.Errorf("category pool (%d) must be at least the category count (%d)", c.categoryPool, c.categories)
	}
	if c.fetchTimeout <= 0 {
		return fmt.Errorf("invalid fetch timeout: %s", c.fetchTimeout)
	}
	if c.loadingDelay < 0 || c.doneDelay < 0 {
		return errors.New("button delays must not be negative")
	}
	if c.cacheTTL < 0 {
		return fmt.Errorf("invalid cache ttl: %s", c.cacheTTL)
	}
	u, err := url.Parse(c.apiURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api url: %q", c.apiURL)
	}
	return nil
}

func (c *Config) scheme() string {
	if c.tlsCert != "" && c.tlsKey != "" {
		return "https"
	}
	return "http"
}

func (c *Config) dimensions() board.Dimensions {
	return board.Dimensions{
		Categories: c.categories,
		Clues:      c.clues,
	}
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("QUIZBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "quizboard",
		Short:         "A trivia board game served to the browser, backed by a jService-compatible API.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return ServePage(cmd.Context(), cfg, args)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	dims := board.DefaultDimensions

	fs.StringVar(&cfg.apiURL, "api-url", jservice.DefaultBaseURL, "base url of the trivia api (env: QUIZBOARD_API_URL)")
	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: QUIZBOARD_BIND)")
	fs.StringVar(&cfg.cache, "cache", "", "path to sqlite response cache, disabled if empty (env: QUIZBOARD_CACHE)")
	fs.DurationVar(&cfg.cacheTTL, "cache-ttl", 24*time.Hour, "time before cached responses are refetched, 0 to keep forever (env: QUIZBOARD_CACHE_TTL)")
	fs.IntVar(&cfg.categories, "categories", dims.Categories, "categories per board (env: QUIZBOARD_CATEGORIES)")
	fs.IntVar(&cfg.categoryPool, "category-pool", jservice.DefaultPoolSize, "categories listed before choosing at random (env: QUIZBOARD_CATEGORY_POOL)")
	fs.IntVar(&cfg.clues, "clues", dims.Clues, "clues per category (env: QUIZBOARD_CLUES)")
	fs.DurationVar(&cfg.doneDelay, "done-delay", 700*time.Millisecond, "time the button shows \"Done!\" (env: QUIZBOARD_DONE_DELAY)")
	fs.DurationVar(&cfg.fetchTimeout, "fetch-timeout", 30*time.Second, "time allowed to set up one board (env: QUIZBOARD_FETCH_TIMEOUT)")
	fs.DurationVar(&cfg.loadingDelay, "loading-delay", time.Second, "minimum time the button shows \"Loading...\" (env: QUIZBOARD_LOADING_DELAY)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: QUIZBOARD_PORT)")
	fs.StringVar(&cfg.prefix, "prefix", "", "path to prepend to all URLs, for use behind reverse proxy (env: QUIZBOARD_PREFIX)")
	fs.BoolVar(&cfg.profile, "profile", false, "register net/http/pprof handlers (env: QUIZBOARD_PROFILE)")
	fs.DurationVar(&cfg.sessionTimeout, "session-timeout", 60*time.Minute, "time before idle games are ended (env: QUIZBOARD_SESSION_TIMEOUT)")
	fs.StringVar(&cfg.tlsCert, "tls-cert", "", "path to tls certificate (env: QUIZBOARD_TLS_CERT)")
	fs.StringVar(&cfg.tlsKey, "tls-key", "", "path to tls keyfile (env: QUIZBOARD_TLS_KEY)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: QUIZBOARD_VERBOSE)")
	fs.BoolVarP(&cfg.version, "version", "V", false, "display version and exit (env: QUIZBOARD_VERSION)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("quizboard v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
