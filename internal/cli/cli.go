// Package cli implements the snaplink command-line interface.
//
// Every command drives the same engine through a [pipeline.Env] built
// from the config file: simulate replays scenario files, serve exposes a
// session over HTTP, tui is an interactive drag source in the terminal
// and export writes DOT, SVG or PNG snapshots of a scenario's result.
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Without
// it the level comes from the config file.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/matzehuels/snaplink/pkg/buildinfo"
	"github.com/matzehuels/snaplink/pkg/cache"
	"github.com/matzehuels/snaplink/pkg/config"
	"github.com/matzehuels/snaplink/pkg/events"
	"github.com/matzehuels/snaplink/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "snaplink"

	// cachePrefix scopes export artifacts in a shared Redis cache.
	cachePrefix = "snaplink:cache:"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath overrides the default config file location.
	ConfigPath string

	// Verbose forces debug logging regardless of the config file.
	Verbose bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "snaplink snaps blocks together",
		Long:         `snaplink is the connection and layout engine of a block editor: typed connection points, drag-time snapping, bumping and field validation, driven from scenario files, HTTP or the terminal.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default "+config.Path()+")")
	root.PersistentFlags().BoolVarP(&c.Verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Config and Session Factories
// =============================================================================

// loadConfig reads the config file and applies its log level unless
// --verbose was given.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if c.Verbose {
		c.SetLogLevel(LogDebug)
		return cfg, nil
	}
	level, err := cfg.Log.ParseLevel()
	if err != nil {
		return nil, err
	}
	c.SetLogLevel(level)
	return cfg, nil
}

// newEnv builds an editing session with the sinks the config names.
func (c *CLI) newEnv(ctx context.Context, cfg *config.Config) (*pipeline.Env, error) {
	sinks, err := openSinks(ctx, cfg.Events)
	if err != nil {
		return nil, err
	}
	opts := pipeline.FromConfig(cfg)
	opts.Sinks = sinks
	opts.Logger = c.Logger

	env, err := pipeline.NewEnv(opts)
	if err != nil {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}
	return env, nil
}

// openSinks opens every event sink the config has an address for. If one
// fails, the ones already open are closed.
func openSinks(ctx context.Context, cfg config.EventsConfig) ([]events.Sink, error) {
	var sinks []events.Sink
	fail := func(err error) ([]events.Sink, error) {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}

	if cfg.File != "" {
		s, err := events.NewFile(cfg.File)
		if err != nil {
			return fail(fmt.Errorf("event file: %w", err))
		}
		sinks = append(sinks, s)
	}
	if cfg.Redis.Addr != "" {
		s, err := events.NewRedisSink(ctx, events.RedisConfig{
			Addr:   cfg.Redis.Addr,
			DB:     cfg.Redis.DB,
			Stream: cfg.Redis.Stream,
			MaxLen: cfg.Redis.MaxLen,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	if cfg.Mongo.URI != "" {
		s, err := events.NewMongoSink(ctx, events.MongoConfig{
			URI:        cfg.Mongo.URI,
			Database:   cfg.Mongo.Database,
			Collection: cfg.Mongo.Collection,
		})
		if err != nil {
			return fail(err)
		}
		sinks = append(sinks, s)
	}
	return sinks, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheOpts selects the export artifact cache.
type cacheOpts struct {
	noCache   bool
	redisAddr string
}

func (o *cacheOpts) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().StringVar(&o.redisAddr, "cache-redis", "", "share cached artifacts through Redis at this address")
}

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(opts cacheOpts) (*pipeline.Runner, error) {
	cache, err := newCache(opts)
	if err != nil {
		return nil, err
	}
	return pipeline.NewRunner(cache, nil, c.Logger), nil
}

func newCache(opts cacheOpts) (cache.Cache, error) {
	switch {
	case opts.noCache:
		return cache.NewNullCache(), nil
	case opts.redisAddr != "":
		client := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		return cache.NewRedisCache(client, cachePrefix), nil
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/snaplink/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}
